package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"gigboard/market"
)

type listGigsQuery struct {
	Search string `form:"search"`
	Page   int    `form:"page" binding:"omitempty,min=1,max=100000"`
	Limit  int    `form:"limit" binding:"omitempty,min=1"`
}

type createGigRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description" binding:"required"`
	Budget      float64  `json:"budget" binding:"required"`
	Admins      []string `json:"admins"`
}

type addAdminRequest struct {
	Email string `json:"email" binding:"required"`
}

// pathID 解析路徑上的 uuid 參數，格式錯誤時直接回應 400
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		abort(c, http.StatusBadRequest, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// mustCaller 取得已驗證的呼叫者，只能用在 Authenticate 之後
func (impl *ServerImpl) mustCaller(c *gin.Context, op string) (uuid.UUID, bool) {
	id, err := callerID(c)
	if err != nil {
		impl.fail(c, op, err)
		return uuid.Nil, false
	}
	return id, true
}

// List open gigs
// (GET /api/gigs)
func (impl *ServerImpl) GetGigs(c *gin.Context) {
	const op = "GetGigs"
	var query listGigsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		abort(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}
	page, err := impl.service.ListOpenGigs(c.Request.Context(), market.OpenGigsQuery{
		Search: query.Search,
		Page:   query.Page,
		Limit:  query.Limit,
	})
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"count":       len(page.Gigs),
		"total":       page.Total,
		"totalPages":  page.TotalPages,
		"currentPage": page.Page,
		"gigs":        newGigViews(page.Gigs),
	})
}

// List gigs owned or administered by the caller
// (GET /api/gigs/my-gigs)
func (impl *ServerImpl) GetMyGigs(c *gin.Context) {
	const op = "GetMyGigs"
	caller, found := impl.mustCaller(c, op)
	if !found {
		return
	}
	gigs, err := impl.service.ListMyGigs(c.Request.Context(), caller)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"count": len(gigs),
		"gigs":  newGigViews(gigs),
	})
}

// Get gig detail
// (GET /api/gigs/{id})
func (impl *ServerImpl) GetGig(c *gin.Context) {
	const op = "GetGig"
	gigID, valid := pathID(c, "id")
	if !valid {
		return
	}
	gig, err := impl.service.GetGig(c.Request.Context(), gigID)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"gig": newGigView(gig)})
}

// Create gig
// (POST /api/gigs)
func (impl *ServerImpl) PostGig(c *gin.Context) {
	const op = "PostGig"
	caller, found := impl.mustCaller(c, op)
	if !found {
		return
	}
	var request createGigRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		abort(c, http.StatusBadRequest, "Title, description and budget are required")
		return
	}
	// 空字串視為未指定，其他無法解析的 id 直接拒絕
	admins := make([]uuid.UUID, 0, len(request.Admins))
	for _, raw := range lo.Compact(request.Admins) {
		id, err := uuid.Parse(raw)
		if err != nil {
			abort(c, http.StatusBadRequest, "Invalid admin id")
			return
		}
		admins = append(admins, id)
	}

	gig, err := impl.service.CreateGig(c.Request.Context(), market.CreateGigInput{
		Title:       request.Title,
		Description: request.Description,
		Budget:      request.Budget,
		Admins:      admins,
	}, caller)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	ok(c, http.StatusCreated, gin.H{"gig": newGigView(gig)})
}

// Add an admin to a gig by email
// (POST /api/gigs/{id}/admins)
func (impl *ServerImpl) PostGigAdmin(c *gin.Context) {
	const op = "PostGigAdmin"
	caller, found := impl.mustCaller(c, op)
	if !found {
		return
	}
	gigID, valid := pathID(c, "id")
	if !valid {
		return
	}
	var request addAdminRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		abort(c, http.StatusBadRequest, "Email is required")
		return
	}
	gig, err := impl.service.AddAdmin(c.Request.Context(), gigID, request.Email, caller)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"gig": newGigView(gig)})
}

// Remove an admin from a gig
// (DELETE /api/gigs/{id}/admins/{userId})
func (impl *ServerImpl) DeleteGigAdmin(c *gin.Context) {
	const op = "DeleteGigAdmin"
	caller, found := impl.mustCaller(c, op)
	if !found {
		return
	}
	gigID, valid := pathID(c, "id")
	if !valid {
		return
	}
	userID, valid := pathID(c, "userId")
	if !valid {
		return
	}
	gig, err := impl.service.RemoveAdmin(c.Request.Context(), gigID, userID, caller)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"gig": newGigView(gig)})
}
