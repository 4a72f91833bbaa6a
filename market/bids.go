package market

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"gigboard/models"
)

type SubmitBidInput struct {
	GigID   uuid.UUID
	Message string
	Price   float64
}

// SubmitBid 對開放中的工作出價
// 重複出價不在這裡檢查，交給儲存層的唯一索引拒絕第二筆寫入
func (s *Service) SubmitBid(ctx context.Context, input SubmitBidInput, callerID uuid.UUID) (*models.Bid, error) {
	const op = "Service.SubmitBid"
	message := strings.TrimSpace(s.htmlChecker.Sanitize(input.Message))
	switch {
	case input.GigID == uuid.Nil:
		return nil, Validation(op, "Gig id is required")
	case message == "":
		return nil, Validation(op, "Message is required")
	case utf8.RuneCountInString(message) > MaxBidMessageLength:
		return nil, Validation(op, fmt.Sprintf("Message cannot exceed %d characters", MaxBidMessageLength))
	case !(input.Price > 0) || math.IsInf(input.Price, 0):
		return nil, Validation(op, "Price must be a positive number")
	}

	// 檢查與新增在同一個交易中，並鎖住工作，
	// 避免雇用在兩者之間提交，留下不會被拒絕的 pending 出價
	bid := &models.Bid{
		FreelancerID: callerID,
		Message:      message,
		Price:        input.Price,
		Status:       models.BidStatusPending,
	}
	err := s.repo.Transaction(ctx, func(repo Repository) error {
		gig, err := repo.LockGig(ctx, input.GigID)
		if err != nil {
			return err
		}
		// 擁有者與管理員不論工作狀態都不能出價
		if IsOwner(gig, callerID) || IsAdmin(gig, callerID) {
			return Forbidden(op, "You cannot bid on a gig you own or manage")
		}
		if !CanBid(gig, callerID) {
			return Conflict(op, "This gig is no longer accepting bids")
		}
		// 交易重試時重新產生 ID
		bid.ID = uuid.Nil
		bid.GigID = gig.ID
		return repo.CreateBid(ctx, bid)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindBid(ctx, bid.ID)
}

// ListBidsForGig 列出工作的所有出價，僅限擁有者與管理員
func (s *Service) ListBidsForGig(ctx context.Context, gigID, callerID uuid.UUID) ([]models.Bid, error) {
	const op = "Service.ListBidsForGig"
	gig, err := s.repo.FindGig(ctx, gigID)
	if err != nil {
		return nil, err
	}
	if !CanViewBids(gig, callerID) {
		return nil, Forbidden(op, "Only the gig owner or assigned admins can view bids")
	}
	return s.repo.ListBidsByGig(ctx, gig.ID)
}

// ListMyBids 列出呼叫者提交過的出價
func (s *Service) ListMyBids(ctx context.Context, callerID uuid.UUID) ([]models.Bid, error) {
	return s.repo.ListBidsByFreelancer(ctx, callerID)
}
