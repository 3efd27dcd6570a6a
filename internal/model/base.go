package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel 本地持久化记录的公共字段，软删除
// swagger:model
type BaseModel struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// NewSessionID returns an opaque dashboard session id. It carries nothing
// about the learner; the backend token stays server-side under this id.
func NewSessionID() string {
	return uuid.NewString()
}
