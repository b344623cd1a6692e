package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/merchantpulse/pricing-backend/pkg/db/types"
)

// CustomerGroup is a pricing segment (retail, wholesale, VIP).
type CustomerGroup struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code      string    `gorm:"column:code;not null;uniqueIndex"`
	Name      string    `gorm:"column:name;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Customer carries the fields the rule engine matches on: group membership
// and the default-address country.
type Customer struct {
	ID                 uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email              string            `gorm:"column:email;not null;uniqueIndex"`
	GroupIDs           dbtypes.UUIDArray `gorm:"column:group_ids;type:uuid[];not null;default:'{}'"`
	DefaultCountryCode *string           `gorm:"column:default_country_code"`
	IsActive           bool              `gorm:"column:is_active;not null;default:true"`
	CreatedAt          time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
