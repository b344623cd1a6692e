package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentMethod is a configured payment option surfaced at checkout.
type PaymentMethod struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code      string    `gorm:"column:code;not null;uniqueIndex"`
	Name      string    `gorm:"column:name;not null"`
	Priority  int       `gorm:"column:priority;not null;default:0"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
