package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationTypeHired         NotificationType = "hired"
	NotificationTypeAdminAssigned NotificationType = "adminAssigned"
)

// NotificationData 是通知附帶的事件資料
// BidID 只有 hired 類型的通知才會有值
type NotificationData struct {
	GigID uuid.UUID  `json:"gigId"`
	BidID *uuid.UUID `json:"bidId,omitempty"`
}

// Notification 代表寄給使用者的持久化通知
// 即時推播失敗時，使用者仍可透過通知列表取得
type Notification struct {
	ID        uuid.UUID                            `gorm:"type:uuid;primaryKey;<-:create"`
	UserID    uuid.UUID                            `gorm:"type:uuid;not null;index;<-:create"`
	Type      NotificationType                     `gorm:"type:varchar(32);not null;<-:create"`
	Message   string                               `gorm:"type:text;not null;<-:create"`
	Data      datatypes.JSONType[NotificationData] `gorm:"<-:create"`
	Read      bool                                 `gorm:"not null;default:false"`
	CreatedAt time.Time                            `gorm:"index"`
	UpdatedAt time.Time
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		n.ID = id
	}
	return nil
}

// All 回傳所有需要遷移的資料表模型
func All() []any {
	return []any{
		&User{},
		&Gig{},
		&GigAdmin{},
		&Bid{},
		&Notification{},
	}
}
