package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/merchantpulse/pricing-backend/pkg/enums"
)

// AppliedRule is one audit entry in a calculation: which rule landed and how
// much it took off the running price.
type AppliedRule struct {
	RuleID        uuid.UUID          `json:"rule_id"`
	Name          string             `json:"name"`
	DiscountType  enums.DiscountType `json:"discount_type"`
	DiscountValue decimal.Decimal    `json:"discount_value"`
	AmountCents   int64              `json:"amount_cents"`
}

// PriceResult is the outcome of a full calculation for one variant.
type PriceResult struct {
	VariantID       uuid.UUID      `json:"variant_id"`
	Currency        enums.Currency `json:"currency"`
	BasePriceCents  int64          `json:"base_price_cents"`
	FinalPriceCents int64          `json:"final_price_cents"`
	DiscountCents   int64          `json:"discount_cents"`
	AppliedRules    []AppliedRule  `json:"applied_rules"`
}

// ProductPriceResult aggregates per-variant calculations into a "from $X"
// range. MinPriceCents/MaxPriceCents are zero when no variant is eligible.
type ProductPriceResult struct {
	ProductID     uuid.UUID                 `json:"product_id"`
	Currency      enums.Currency            `json:"currency"`
	MinPriceCents int64                     `json:"min_price_cents"`
	MaxPriceCents int64                     `json:"max_price_cents"`
	Variants      map[uuid.UUID]PriceResult `json:"variants"`
}

// CartSnapshot carries the cart facts rule conditions can match on.
type CartSnapshot struct {
	ID            uuid.UUID `json:"id"`
	SubtotalCents int64     `json:"subtotal_cents"`
}

// CalculateInput bundles the inputs to a discount calculation. Context
// supplies the scopes and quantity the base price is resolved under.
type CalculateInput struct {
	VariantID  uuid.UUID
	Context    Context
	CustomerID *uuid.UUID
	Cart       *CartSnapshot
}
