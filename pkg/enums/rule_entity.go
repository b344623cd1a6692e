package enums

import "fmt"

// RuleEntityType identifies which catalog entity a price rule targets.
type RuleEntityType string

const (
	RuleEntityVariant  RuleEntityType = "variant"
	RuleEntityProduct  RuleEntityType = "product"
	RuleEntityCategory RuleEntityType = "category"
	RuleEntityCart     RuleEntityType = "cart"
)

var validRuleEntityTypes = []RuleEntityType{
	RuleEntityVariant,
	RuleEntityProduct,
	RuleEntityCategory,
	RuleEntityCart,
}

// String implements fmt.Stringer.
func (e RuleEntityType) String() string {
	return string(e)
}

// IsValid reports whether the value is a known RuleEntityType.
func (e RuleEntityType) IsValid() bool {
	for _, candidate := range validRuleEntityTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseRuleEntityType converts raw input into a RuleEntityType.
func ParseRuleEntityType(value string) (RuleEntityType, error) {
	for _, candidate := range validRuleEntityTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rule entity type %q", value)
}
