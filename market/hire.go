package market

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"gigboard/models"
)

// HireResult 是雇用成功後的工作與出價
type HireResult struct {
	Bid *models.Bid
	Gig *models.Gig
}

// Hire 雇用出價者
//
// 整個流程在同一個交易中執行:
//  1. 讀取出價與工作
//  2. 檢查呼叫者是否為擁有者或管理員
//  3. 以 compare-and-set 將工作從 open 改為 assigned，失敗代表工作已被其他請求雇用
//  4. 以 compare-and-set 將出價從 pending 改為 hired，失敗時回滾第 3 步
//  5. 將其他 pending 的出價改為 rejected
//
// 提交後才會建立通知並推播，通知失敗不會影響雇用結果。
func (s *Service) Hire(ctx context.Context, bidID, callerID uuid.UUID) (*HireResult, error) {
	const op = "Service.Hire"
	var result HireResult
	err := s.repo.Transaction(ctx, func(repo Repository) error {
		bid, err := repo.FindBid(ctx, bidID)
		if err != nil {
			return err
		}
		gig, err := repo.FindGig(ctx, bid.GigID)
		if err != nil {
			return err
		}
		if !CanHire(gig, callerID) {
			return Forbidden(op, "Only the gig owner or an assigned admin can hire")
		}

		claimed, err := repo.ClaimGig(ctx, gig.ID)
		if err != nil {
			return err
		}
		if !claimed {
			return Conflict(op, "This gig has already been assigned")
		}
		accepted, err := repo.AcceptBid(ctx, bid.ID, gig.ID)
		if err != nil {
			return err
		}
		if !accepted {
			return Conflict(op, "This bid cannot be hired (already processed)")
		}
		rejected, err := repo.RejectPendingBids(ctx, gig.ID, bid.ID)
		if err != nil {
			return err
		}

		if result.Gig, err = repo.FindGig(ctx, gig.ID); err != nil {
			return err
		}
		if result.Bid, err = repo.FindBid(ctx, bid.ID); err != nil {
			return err
		}
		s.logger.Debug("Hire applied", slog.String("gigID", gig.ID.String()), slog.String("bidID", bid.ID.String()), slog.Int64("rejected", rejected))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Freelancer hired",
		slog.String("gigID", result.Gig.ID.String()),
		slog.String("bidID", result.Bid.ID.String()),
		slog.String("freelancerID", result.Bid.FreelancerID.String()),
		slog.String("hiredBy", callerID.String()),
	)
	s.notify(ctx, &models.Notification{
		UserID:  result.Bid.FreelancerID,
		Type:    models.NotificationTypeHired,
		Message: fmt.Sprintf("You have been hired for %s!", result.Gig.Title),
		Data:    newNotificationData(result.Gig.ID, &result.Bid.ID),
	})
	return &result, nil
}
