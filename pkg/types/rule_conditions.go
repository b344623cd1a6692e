package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// RuleConditions is the typed condition bag attached to a price rule. Every
// field is optional; an absent field places no restriction on that dimension.
// The struct is stored as a single jsonb column so merchandising can attach
// any combination of predicates without schema changes.
type RuleConditions struct {
	CustomerGroupIDs  []uuid.UUID       `json:"customer_group_ids,omitempty"`
	CustomerIDs       []uuid.UUID       `json:"customer_ids,omitempty"`
	ChannelIDs        []uuid.UUID       `json:"channel_ids,omitempty"`
	SiteIDs           []uuid.UUID       `json:"site_ids,omitempty"`
	MinQuantity       *int              `json:"min_quantity,omitempty"`
	MaxQuantity       *int              `json:"max_quantity,omitempty"`
	MinCartValueCents *int64            `json:"min_cart_value_cents,omitempty"`
	MaxCartValueCents *int64            `json:"max_cart_value_cents,omitempty"`
	ProductAttributes map[string]string `json:"product_attributes,omitempty"`
	// Weekdays uses 0=Sunday .. 6=Saturday, matching time.Weekday.
	Weekdays     []int    `json:"weekdays,omitempty"`
	CountryCodes []string `json:"country_codes,omitempty"`
}

// Value implements driver.Valuer, serializing the conditions as JSON.
func (c RuleConditions) Value() (driver.Value, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("RuleConditions: marshal: %w", err)
	}
	return string(raw), nil
}

// Scan implements sql.Scanner for the jsonb conditions column.
func (c *RuleConditions) Scan(value any) error {
	if value == nil {
		*c = RuleConditions{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("RuleConditions: unsupported Scan type %T", value)
	}
	if len(raw) == 0 {
		*c = RuleConditions{}
		return nil
	}
	return json.Unmarshal(raw, c)
}

// IsZero reports whether no condition is set at all.
func (c RuleConditions) IsZero() bool {
	return len(c.CustomerGroupIDs) == 0 &&
		len(c.CustomerIDs) == 0 &&
		len(c.ChannelIDs) == 0 &&
		len(c.SiteIDs) == 0 &&
		c.MinQuantity == nil &&
		c.MaxQuantity == nil &&
		c.MinCartValueCents == nil &&
		c.MaxCartValueCents == nil &&
		len(c.ProductAttributes) == 0 &&
		len(c.Weekdays) == 0 &&
		len(c.CountryCodes) == 0
}
