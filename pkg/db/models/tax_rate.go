package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/merchantpulse/pricing-backend/pkg/enums"
)

// TaxRate is a regional tax definition. Percentage rates hold the percent
// value (10 = 10%); fixed rates hold a flat amount in minor units. Compound
// rates apply on top of previously accrued tax rather than the base amount.
type TaxRate struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MarketID    *uuid.UUID        `gorm:"column:market_id;type:uuid;index"`
	Name        string            `gorm:"column:name;not null"`
	CountryCode string            `gorm:"column:country_code;not null"`
	StateCode   *string           `gorm:"column:state_code"`
	ProductType *string           `gorm:"column:product_type"`
	Rate        decimal.Decimal   `gorm:"column:rate;type:numeric(12,4);not null"`
	RateType    enums.TaxRateType `gorm:"column:rate_type;not null"`
	IsCompound  bool              `gorm:"column:is_compound;not null;default:false"`
	Priority    int               `gorm:"column:priority;not null;default:0"`
	IsActive    bool              `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
