package models

import (
	"time"

	"github.com/google/uuid"
)

// Site is a storefront instance inside a market.
type Site struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MarketID  *uuid.UUID `gorm:"column:market_id;type:uuid"`
	Code      string     `gorm:"column:code;not null;uniqueIndex"`
	Name      string     `gorm:"column:name;not null"`
	IsActive  bool       `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// Channel is a distribution surface within a site (web, mobile, POS, B2B).
type Channel struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SiteID    *uuid.UUID `gorm:"column:site_id;type:uuid"`
	Code      string     `gorm:"column:code;not null;uniqueIndex"`
	Name      string     `gorm:"column:name;not null"`
	IsActive  bool       `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
