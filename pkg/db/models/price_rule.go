package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/merchantpulse/pricing-backend/pkg/db/types"
	"github.com/merchantpulse/pricing-backend/pkg/enums"
	"github.com/merchantpulse/pricing-backend/pkg/types"
)

// PriceRule is a promotional discount evaluated on top of a resolved base
// price. Rules run highest priority first; a rule with StopFurtherRules set
// halts the chain once it has applied.
type PriceRule struct {
	ID                    uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name                  string               `gorm:"column:name;not null"`
	EntityType            enums.RuleEntityType `gorm:"column:entity_type;not null"`
	EntityIDs             dbtypes.UUIDArray    `gorm:"column:entity_ids;type:uuid[];not null;default:'{}'"`
	Conditions            types.RuleConditions `gorm:"column:conditions;type:jsonb;not null;default:'{}'"`
	DiscountType          enums.DiscountType   `gorm:"column:discount_type;not null"`
	DiscountValue         decimal.Decimal      `gorm:"column:discount_value;type:numeric(12,4);not null"`
	Priority              int                  `gorm:"column:priority;not null;default:0"`
	StopFurtherRules      bool                 `gorm:"column:stop_further_rules;not null;default:false"`
	UsageLimit            *int                 `gorm:"column:usage_limit"`
	UsageLimitPerCustomer *int                 `gorm:"column:usage_limit_per_customer"`
	UsageCount            int                  `gorm:"column:usage_count;not null;default:0"`
	IsActive              bool                 `gorm:"column:is_active;not null;default:true"`
	StartsAt              *time.Time           `gorm:"column:starts_at"`
	EndsAt                *time.Time           `gorm:"column:ends_at"`
	CreatedAt             time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// PriceRuleUsage is the audit row written when a rule lands on a completed
// order. The (rule_id, order_id) pair is unique so recording is idempotent.
type PriceRuleUsage struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RuleID        uuid.UUID  `gorm:"column:rule_id;type:uuid;not null;uniqueIndex:idx_rule_usage_rule_order"`
	OrderID       uuid.UUID  `gorm:"column:order_id;type:uuid;not null;uniqueIndex:idx_rule_usage_rule_order"`
	CustomerID    *uuid.UUID `gorm:"column:customer_id;type:uuid;index"`
	DiscountCents int64      `gorm:"column:discount_cents;not null"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
}
