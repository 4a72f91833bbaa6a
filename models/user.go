package models

import (
	"time"

	"github.com/google/uuid"
)

// User 代表平台中的使用者
// 使用者由外部的身分提供者簽發，這裡只保存識別所需的基本資訊(名稱、Email)
// 身分提供者不一定會提供 Email，沒有時為 NULL，唯一索引只限制非空值
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;<-:create"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Email     *string   `gorm:"type:varchar(255);uniqueIndex"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
