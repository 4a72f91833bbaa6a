package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

type GigStatus string

const (
	GigStatusOpen     GigStatus = "open"
	GigStatusAssigned GigStatus = "assigned"
)

// Gig 代表使用者刊登的工作
// 包含標題、描述、預算、擁有者與管理員，狀態只會從 open 轉換成 assigned 一次
type Gig struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;<-:create"`
	Title       string    `gorm:"type:varchar(100);not null;index"`
	Description string    `gorm:"type:text;not null"`
	Budget      float64   `gorm:"not null"`
	OwnerID     uuid.UUID `gorm:"type:uuid;not null;index;<-:create"`
	Status      GigStatus `gorm:"type:varchar(16);not null;default:open;index"`
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time

	// 外鍵關聯
	Owner  *User      `gorm:"foreignKey:OwnerID"`
	Admins []GigAdmin `gorm:"foreignKey:GigID"`
}

func (g *Gig) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		g.ID = id
	}
	if g.Status == "" {
		g.Status = GigStatusOpen
	}
	return nil
}

// AdminIDs 回傳所有管理員的使用者 ID
func (g *Gig) AdminIDs() []uuid.UUID {
	return lo.Map(g.Admins, func(admin GigAdmin, _ int) uuid.UUID {
		return admin.UserID
	})
}

// GigAdmin 代表工作的管理員成員關係
// 以 (gig_id, user_id) 作為複合主鍵，確保同一個使用者只會是同一個工作的管理員一次
type GigAdmin struct {
	GigID     uuid.UUID `gorm:"type:uuid;primaryKey;<-:create"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey;index;<-:create"`
	CreatedAt time.Time

	User *User `gorm:"foreignKey:UserID"`
}
