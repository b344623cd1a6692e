package enums

// AdjustmentType describes how a price list shifts a resolved catalog price.
type AdjustmentType string

const (
	AdjustmentTypePercentage AdjustmentType = "percentage"
	AdjustmentTypeFixed      AdjustmentType = "fixed"
)

var validAdjustmentTypes = []AdjustmentType{
	AdjustmentTypePercentage,
	AdjustmentTypeFixed,
}

// String implements fmt.Stringer.
func (a AdjustmentType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AdjustmentType.
func (a AdjustmentType) IsValid() bool {
	for _, candidate := range validAdjustmentTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// AdjustmentDirection tells whether a price list adjustment raises or lowers the price.
type AdjustmentDirection string

const (
	AdjustmentDirectionIncrease AdjustmentDirection = "increase"
	AdjustmentDirectionDecrease AdjustmentDirection = "decrease"
)

var validAdjustmentDirections = []AdjustmentDirection{
	AdjustmentDirectionIncrease,
	AdjustmentDirectionDecrease,
}

// String implements fmt.Stringer.
func (a AdjustmentDirection) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AdjustmentDirection.
func (a AdjustmentDirection) IsValid() bool {
	for _, candidate := range validAdjustmentDirections {
		if candidate == a {
			return true
		}
	}
	return false
}
