package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BidStatus string

const (
	BidStatusPending  BidStatus = "pending"
	BidStatusHired    BidStatus = "hired"
	BidStatusRejected BidStatus = "rejected"
)

// Bid 代表接案者對工作的出價
// 同一個接案者對同一個工作只能出價一次，由 (gig_id, freelancer_id) 的唯一索引保證
type Bid struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;<-:create"`
	GigID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_bid_gig_id_freelancer_id;index;<-:create"`
	FreelancerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_bid_gig_id_freelancer_id;index;<-:create"`
	Message      string    `gorm:"type:text;not null;<-:create"`
	Price        float64   `gorm:"not null;<-:create"`
	Status       BidStatus `gorm:"type:varchar(16);not null;default:pending;index"`
	CreatedAt    time.Time `gorm:"index"`
	UpdatedAt    time.Time

	// 外鍵關聯
	Gig        *Gig  `gorm:"foreignKey:GigID"`
	Freelancer *User `gorm:"foreignKey:FreelancerID"`
}

func (b *Bid) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		b.ID = id
	}
	if b.Status == "" {
		b.Status = BidStatusPending
	}
	return nil
}
