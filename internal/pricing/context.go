package pricing

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/merchantpulse/pricing-backend/pkg/enums"
	pkgerrors "github.com/merchantpulse/pricing-backend/pkg/errors"
)

// Context identifies a pricing request: which sales scopes the caller is
// shopping under, which customer group applies, and how many units are being
// priced. It is treated as immutable once built. Two contexts with the same
// field values always produce the same cache key and the same resolution.
type Context struct {
	MarketID        *uuid.UUID
	SiteID          *uuid.UUID
	ChannelID       *uuid.UUID
	PriceListID     *uuid.UUID
	CustomerGroupID *uuid.UUID
	Currency        enums.Currency
	Quantity        int
}

// Validate fails fast before any query is issued.
func (c Context) Validate() error {
	if strings.TrimSpace(string(c.Currency)) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "currency is required")
	}
	if !c.Currency.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported currency %q", c.Currency))
	}
	if c.Quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	return nil
}

// CacheKey derives a deterministic key fragment from every field that affects
// resolution. Absent scopes serialize as "-" so the key stays injective.
func (c Context) CacheKey() string {
	parts := []string{
		idOrDash(c.MarketID),
		idOrDash(c.SiteID),
		idOrDash(c.ChannelID),
		idOrDash(c.PriceListID),
		idOrDash(c.CustomerGroupID),
		string(c.Currency),
		fmt.Sprintf("q%d", c.Quantity),
	}
	return strings.Join(parts, ":")
}

func idOrDash(id *uuid.UUID) string {
	if id == nil {
		return "-"
	}
	return id.String()
}
