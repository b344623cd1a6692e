package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/merchantpulse/pricing-backend/pkg/enums"
)

// Market is the top-level sales scope (a country or region rollout).
// The code allow-lists restrict which payment/shipping methods a market may
// offer; an empty list means the market is unrestricted.
type Market struct {
	ID                  uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code                string         `gorm:"column:code;not null;uniqueIndex"`
	Name                string         `gorm:"column:name;not null"`
	DefaultCurrency     enums.Currency `gorm:"column:default_currency;not null;default:'USD'"`
	PaymentMethodCodes  pq.StringArray `gorm:"column:payment_method_codes;type:text[]"`
	ShippingMethodCodes pq.StringArray `gorm:"column:shipping_method_codes;type:text[]"`
	DefaultPriceListID  *uuid.UUID     `gorm:"column:default_price_list_id;type:uuid"`
	IsActive            bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt           time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
