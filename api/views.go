package api

import (
	"time"

	"github.com/samber/lo"

	"gigboard/models"
)

// 以下為 API 回應使用的資料格式

type UserView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type GigView struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Budget      float64    `json:"budget"`
	Status      string     `json:"status"`
	OwnerID     string     `json:"ownerId"`
	Owner       *UserView  `json:"owner,omitempty"`
	Admins      []UserView `json:"admins"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type BidView struct {
	ID           string    `json:"id"`
	GigID        string    `json:"gigId"`
	Gig          *GigView  `json:"gig,omitempty"`
	FreelancerID string    `json:"freelancerId"`
	Freelancer   *UserView `json:"freelancer,omitempty"`
	Message      string    `json:"message"`
	Price        float64   `json:"price"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type NotificationView struct {
	ID        string                  `json:"id"`
	Type      string                  `json:"type"`
	Message   string                  `json:"message"`
	Data      models.NotificationData `json:"data"`
	Read      bool                    `json:"read"`
	CreatedAt time.Time               `json:"createdAt"`
}

func newUserView(user *models.User) *UserView {
	if user == nil {
		return nil
	}
	return &UserView{
		ID:    user.ID.String(),
		Name:  user.Name,
		Email: lo.FromPtr(user.Email),
	}
}

func newGigView(gig *models.Gig) *GigView {
	if gig == nil {
		return nil
	}
	admins := lo.Map(gig.Admins, func(admin models.GigAdmin, _ int) UserView {
		if admin.User == nil {
			return UserView{ID: admin.UserID.String()}
		}
		return *newUserView(admin.User)
	})
	return &GigView{
		ID:          gig.ID.String(),
		Title:       gig.Title,
		Description: gig.Description,
		Budget:      gig.Budget,
		Status:      string(gig.Status),
		OwnerID:     gig.OwnerID.String(),
		Owner:       newUserView(gig.Owner),
		Admins:      admins,
		CreatedAt:   gig.CreatedAt,
		UpdatedAt:   gig.UpdatedAt,
	}
}

func newGigViews(gigs []models.Gig) []GigView {
	return lo.Map(gigs, func(gig models.Gig, _ int) GigView {
		return *newGigView(&gig)
	})
}

func newBidView(bid *models.Bid) *BidView {
	if bid == nil {
		return nil
	}
	return &BidView{
		ID:           bid.ID.String(),
		GigID:        bid.GigID.String(),
		Gig:          newGigView(bid.Gig),
		FreelancerID: bid.FreelancerID.String(),
		Freelancer:   newUserView(bid.Freelancer),
		Message:      bid.Message,
		Price:        bid.Price,
		Status:       string(bid.Status),
		CreatedAt:    bid.CreatedAt,
		UpdatedAt:    bid.UpdatedAt,
	}
}

func newBidViews(bids []models.Bid) []BidView {
	return lo.Map(bids, func(bid models.Bid, _ int) BidView {
		return *newBidView(&bid)
	})
}

func newNotificationView(notification *models.Notification) *NotificationView {
	return &NotificationView{
		ID:        notification.ID.String(),
		Type:      string(notification.Type),
		Message:   notification.Message,
		Data:      notification.Data.Data(),
		Read:      notification.Read,
		CreatedAt: notification.CreatedAt,
	}
}

func newNotificationViews(notifications []models.Notification) []NotificationView {
	return lo.Map(notifications, func(notification models.Notification, _ int) NotificationView {
		return *newNotificationView(&notification)
	})
}
