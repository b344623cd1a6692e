package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/merchantpulse/pricing-backend/pkg/db/types"
	"github.com/merchantpulse/pricing-backend/pkg/enums"
)

// PriceList is a named catalog of price overrides assignable to customer
// groups. An empty CustomerGroupIDs set makes the list available to every
// group. The optional adjustment shifts any price resolved through the list.
type PriceList struct {
	ID                  uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name                string                     `gorm:"column:name;not null"`
	CustomerGroupIDs    dbtypes.UUIDArray          `gorm:"column:customer_group_ids;type:uuid[];not null;default:'{}'"`
	AdjustmentType      *enums.AdjustmentType      `gorm:"column:adjustment_type"`
	AdjustmentValue     decimal.Decimal            `gorm:"column:adjustment_value;type:numeric(12,4);not null;default:0"`
	AdjustmentDirection *enums.AdjustmentDirection `gorm:"column:adjustment_direction"`
	IsActive            bool                       `gorm:"column:is_active;not null;default:true"`
	CreatedAt           time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}

// AllowsCustomerGroup reports whether the list is usable by the given group.
// A nil group only matches lists with no group restriction.
func (p PriceList) AllowsCustomerGroup(groupID *uuid.UUID) bool {
	if len(p.CustomerGroupIDs) == 0 {
		return true
	}
	if groupID == nil {
		return false
	}
	return p.CustomerGroupIDs.Contains(*groupID)
}
