package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/merchantpulse/pricing-backend/pkg/enums"
)

// Price is a base/catalog price record for a variant. Each nullable scope
// field widens the record's reach: a null market_id applies to every market,
// and so on. All amounts are integer minor currency units.
type Price struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VariantID   uuid.UUID      `gorm:"column:variant_id;type:uuid;not null;index"`
	MarketID    *uuid.UUID     `gorm:"column:market_id;type:uuid"`
	SiteID      *uuid.UUID     `gorm:"column:site_id;type:uuid"`
	ChannelID   *uuid.UUID     `gorm:"column:channel_id;type:uuid"`
	PriceListID *uuid.UUID     `gorm:"column:price_list_id;type:uuid"`
	Currency    enums.Currency `gorm:"column:currency;not null"`
	MinQuantity int            `gorm:"column:min_quantity;not null;default:1"`
	MaxQuantity *int           `gorm:"column:max_quantity"`
	AmountCents int64          `gorm:"column:amount_cents;not null"`
	Priority    int            `gorm:"column:priority;not null;default:0"`
	IsActive    bool           `gorm:"column:is_active;not null;default:true"`
	ActiveFrom  *time.Time     `gorm:"column:active_from"`
	ActiveUntil *time.Time     `gorm:"column:active_until"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// CoversQuantity reports whether the requested quantity falls inside the
// record's tier bounds.
func (p Price) CoversQuantity(quantity int) bool {
	if quantity < p.MinQuantity {
		return false
	}
	if p.MaxQuantity != nil && quantity > *p.MaxQuantity {
		return false
	}
	return true
}

// ActiveAt reports whether the record is active and inside its time window.
func (p Price) ActiveAt(now time.Time) bool {
	if !p.IsActive {
		return false
	}
	if p.ActiveFrom != nil && now.Before(*p.ActiveFrom) {
		return false
	}
	if p.ActiveUntil != nil && now.After(*p.ActiveUntil) {
		return false
	}
	return true
}
