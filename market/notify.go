package market

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"gigboard/models"
)

func newNotificationData(gigID uuid.UUID, bidID *uuid.UUID) datatypes.JSONType[models.NotificationData] {
	return datatypes.NewJSONType(models.NotificationData{GigID: gigID, BidID: bidID})
}

// notify 持久化通知並嘗試即時推播
// 觸發通知的狀態變更已經提交，這裡的錯誤只記錄不回傳
func (s *Service) notify(ctx context.Context, notification *models.Notification) {
	// 請求結束後仍然要完成通知
	ctx = context.WithoutCancel(ctx)
	logger := s.logger.With(
		slog.String("userID", notification.UserID.String()),
		slog.String("type", string(notification.Type)),
	)

	event := Event{
		Type:    notification.Type,
		Message: notification.Message,
		GigID:   notification.Data.Data().GigID.String(),
	}
	if bidID := notification.Data.Data().BidID; bidID != nil {
		event.BidID = bidID.String()
	}

	if err := s.repo.CreateNotification(ctx, notification); err != nil {
		logger.Warn("Fail to persist notification", slog.Any("error", err))
	} else {
		event.ID = notification.ID.String()
	}

	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Dispatch(ctx, notification.UserID, event); err != nil {
		logger.Warn("Fail to dispatch notification", slog.Any("error", err))
	}
}
