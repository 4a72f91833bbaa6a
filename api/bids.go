package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gigboard/market"
)

type submitBidRequest struct {
	GigID   uuid.UUID `json:"gigId" binding:"required"`
	Message string    `json:"message" binding:"required"`
	Price   float64   `json:"price" binding:"required"`
}

// Submit a bid
// (POST /api/bids)
func (impl *ServerImpl) PostBid(c *gin.Context) {
	const op = "PostBid"
	caller, found := impl.mustCaller(c, op)
	if !found {
		return
	}
	var request submitBidRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		abort(c, http.StatusBadRequest, "Gig, message and price are required")
		return
	}
	bid, err := impl.service.SubmitBid(c.Request.Context(), market.SubmitBidInput{
		GigID:   request.GigID,
		Message: request.Message,
		Price:   request.Price,
	}, caller)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	ok(c, http.StatusCreated, gin.H{"bid": newBidView(bid)})
}

// List bids submitted by the caller
// (GET /api/bids/my-bids)
func (impl *ServerImpl) GetMyBids(c *gin.Context) {
	const op = "GetMyBids"
	caller, found := impl.mustCaller(c, op)
	if !found {
		return
	}
	bids, err := impl.service.ListMyBids(c.Request.Context(), caller)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"count": len(bids),
		"bids":  newBidViews(bids),
	})
}

// List bids of a gig, path parameter is the gig id
// (GET /api/bids/{gigId})
func (impl *ServerImpl) GetBidsForGig(c *gin.Context) {
	const op = "GetBidsForGig"
	caller, found := impl.mustCaller(c, op)
	if !found {
		return
	}
	gigID, valid := pathID(c, "id")
	if !valid {
		return
	}
	bids, err := impl.service.ListBidsForGig(c.Request.Context(), gigID, caller)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"count": len(bids),
		"bids":  newBidViews(bids),
	})
}

// Hire the bidder, path parameter is the bid id
// (PATCH /api/bids/{bidId}/hire)
func (impl *ServerImpl) PatchHire(c *gin.Context) {
	const op = "PatchHire"
	caller, found := impl.mustCaller(c, op)
	if !found {
		return
	}
	bidID, valid := pathID(c, "id")
	if !valid {
		return
	}
	result, err := impl.service.Hire(c.Request.Context(), bidID, caller)
	if err != nil {
		impl.fail(c, op, err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"message": "Freelancer hired successfully!",
		"bid":     newBidView(result.Bid),
		"gig":     newGigView(result.Gig),
	})
}
