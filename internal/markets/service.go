package markets

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/merchantpulse/pricing-backend/pkg/db/models"
	"github.com/merchantpulse/pricing-backend/pkg/enums"
	pkgerrors "github.com/merchantpulse/pricing-backend/pkg/errors"
	"github.com/merchantpulse/pricing-backend/pkg/logger"
)

// Service resolves which payment/shipping methods and tax rates apply to a
// market, and computes tax amounts including compound rates.
type Service interface {
	AvailablePaymentMethods(ctx context.Context, marketID *uuid.UUID) ([]models.PaymentMethod, error)
	AvailableShippingMethods(ctx context.Context, marketID *uuid.UUID, countryCode string) ([]models.ShippingMethod, error)
	IsPaymentMethodAvailable(ctx context.Context, marketID *uuid.UUID, code string) (bool, error)
	IsShippingMethodAvailable(ctx context.Context, marketID *uuid.UUID, code, countryCode string) (bool, error)
	CalculateTax(ctx context.Context, input TaxInput) (*TaxResult, error)
	ValidateMarket(ctx context.Context, marketID uuid.UUID) ([]string, error)
}

// TaxInput identifies the amount and region a tax calculation runs for.
type TaxInput struct {
	AmountCents int64
	MarketID    uuid.UUID
	CountryCode string
	StateCode   *string
	ProductType *string
}

// AppliedTaxRate is one audit entry of a tax calculation.
type AppliedTaxRate struct {
	RateID      uuid.UUID         `json:"rate_id"`
	Name        string            `json:"name"`
	Rate        decimal.Decimal   `json:"rate"`
	RateType    enums.TaxRateType `json:"rate_type"`
	IsCompound  bool              `json:"is_compound"`
	AmountCents int64             `json:"amount_cents"`
}

// TaxResult carries the computed tax breakdown. EffectiveTaxRate is the
// simple sum of percentage rates; with compound rates present it is an
// approximation for display, and exact callers should use TaxCents/Amount.
type TaxResult struct {
	TaxCents              int64            `json:"tax_cents"`
	AmountWithoutTaxCents int64            `json:"amount_without_tax_cents"`
	AmountWithTaxCents    int64            `json:"amount_with_tax_cents"`
	EffectiveTaxRate      decimal.Decimal  `json:"effective_tax_rate"`
	AppliedRates          []AppliedTaxRate `json:"applied_rates"`
}

type service struct {
	repo *Repository
	logg *logger.Logger
}

// NewService constructs a market configuration service instance.
func NewService(repo *Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("markets repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) loadMarket(ctx context.Context, marketID *uuid.UUID) (*models.Market, error) {
	if marketID == nil {
		return nil, nil
	}
	market, err := s.repo.GetMarket(ctx, *marketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logg.Debug(s.logg.WithMarketID(ctx, marketID.String()), "market lookup missed")
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "market not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading market")
	}
	return market, nil
}

// AvailablePaymentMethods returns the active payment methods the market
// allows. Markets without a code allow-list permit every active method.
func (s *service) AvailablePaymentMethods(ctx context.Context, marketID *uuid.UUID) ([]models.PaymentMethod, error) {
	market, err := s.loadMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}
	methods, err := s.repo.ListActivePaymentMethods(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading payment methods")
	}
	if market == nil || len(market.PaymentMethodCodes) == 0 {
		return methods, nil
	}
	allowed := toSet(market.PaymentMethodCodes)
	out := methods[:0:0]
	for _, m := range methods {
		if allowed[m.Code] {
			out = append(out, m)
		}
	}
	return out, nil
}

// AvailableShippingMethods returns the active shipping methods the market
// allows that also cover the given country. Methods with no zones, or with a
// zone whose countries list is empty, cover everywhere.
func (s *service) AvailableShippingMethods(ctx context.Context, marketID *uuid.UUID, countryCode string) ([]models.ShippingMethod, error) {
	market, err := s.loadMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}
	methods, err := s.repo.ListActiveShippingMethods(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading shipping methods")
	}

	var allowed map[string]bool
	if market != nil && len(market.ShippingMethodCodes) > 0 {
		allowed = toSet(market.ShippingMethodCodes)
	}

	out := methods[:0:0]
	for _, m := range methods {
		if allowed != nil && !allowed[m.Code] {
			continue
		}
		if countryCode != "" && !coversCountry(m, countryCode) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func coversCountry(method models.ShippingMethod, countryCode string) bool {
	if len(method.Zones) == 0 {
		return true
	}
	for _, zone := range method.Zones {
		if zone.CoversCountry(countryCode) {
			return true
		}
	}
	return false
}

// IsPaymentMethodAvailable reports whether the code is in the market's
// effective payment method set.
func (s *service) IsPaymentMethodAvailable(ctx context.Context, marketID *uuid.UUID, code string) (bool, error) {
	methods, err := s.AvailablePaymentMethods(ctx, marketID)
	if err != nil {
		return false, err
	}
	for _, m := range methods {
		if m.Code == code {
			return true, nil
		}
	}
	return false, nil
}

// IsShippingMethodAvailable reports whether the code is in the market's
// effective shipping method set for the country.
func (s *service) IsShippingMethodAvailable(ctx context.Context, marketID *uuid.UUID, code, countryCode string) (bool, error) {
	methods, err := s.AvailableShippingMethods(ctx, marketID, countryCode)
	if err != nil {
		return false, err
	}
	for _, m := range methods {
		if m.Code == code {
			return true, nil
		}
	}
	return false, nil
}

// CalculateTax applies the region's rates to the amount, highest priority
// first. Compound percentage rates run on the amount plus tax accrued so
// far; plain percentage rates run on the original amount; fixed rates add a
// flat minor-unit amount.
func (s *service) CalculateTax(ctx context.Context, input TaxInput) (*TaxResult, error) {
	if input.AmountCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must not be negative")
	}
	if input.CountryCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "country code is required")
	}

	rates, err := s.repo.ListActiveTaxRates(ctx, input.MarketID, input.CountryCode)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading tax rates")
	}

	result := &TaxResult{
		AmountWithoutTaxCents: input.AmountCents,
		EffectiveTaxRate:      decimal.Zero,
		AppliedRates:          []AppliedTaxRate{},
	}

	amount := decimal.NewFromInt(input.AmountCents)
	hundred := decimal.NewFromInt(100)
	var taxSoFar int64

	for _, rate := range rates {
		if rate.StateCode != nil && (input.StateCode == nil || *rate.StateCode != *input.StateCode) {
			continue
		}
		if rate.ProductType != nil && (input.ProductType == nil || *rate.ProductType != *input.ProductType) {
			continue
		}

		var taxCents int64
		switch rate.RateType {
		case enums.TaxRateTypePercentage:
			base := amount
			if rate.IsCompound {
				base = amount.Add(decimal.NewFromInt(taxSoFar))
			}
			taxCents = base.Mul(rate.Rate).Div(hundred).Round(0).IntPart()
			result.EffectiveTaxRate = result.EffectiveTaxRate.Add(rate.Rate)
		case enums.TaxRateTypeFixed:
			taxCents = rate.Rate.Round(0).IntPart()
		default:
			continue
		}

		taxSoFar += taxCents
		result.AppliedRates = append(result.AppliedRates, AppliedTaxRate{
			RateID:      rate.ID,
			Name:        rate.Name,
			Rate:        rate.Rate,
			RateType:    rate.RateType,
			IsCompound:  rate.IsCompound,
			AmountCents: taxCents,
		})
	}

	result.TaxCents = taxSoFar
	result.AmountWithTaxCents = input.AmountCents + taxSoFar
	return result, nil
}

// ValidateMarket surfaces configuration mistakes (dangling price list,
// unknown method codes) as a list of messages rather than failing at
// resolution time.
func (s *service) ValidateMarket(ctx context.Context, marketID uuid.UUID) ([]string, error) {
	market, err := s.loadMarket(ctx, &marketID)
	if err != nil {
		return nil, err
	}

	var problems []string

	if market.DefaultPriceListID != nil {
		list, err := s.repo.GetPriceList(ctx, *market.DefaultPriceListID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			problems = append(problems, fmt.Sprintf("default price list %s does not exist", market.DefaultPriceListID))
		case err != nil:
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading default price list")
		case !list.IsActive:
			problems = append(problems, fmt.Sprintf("default price list %s is inactive", market.DefaultPriceListID))
		}
	}

	if len(market.PaymentMethodCodes) > 0 {
		known, err := s.repo.ListPaymentMethodCodes(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading payment method codes")
		}
		knownSet := toSet(known)
		for _, code := range market.PaymentMethodCodes {
			if !knownSet[code] {
				problems = append(problems, fmt.Sprintf("payment method code %q is not configured", code))
			}
		}
	}

	if len(market.ShippingMethodCodes) > 0 {
		known, err := s.repo.ListShippingMethodCodes(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading shipping method codes")
		}
		knownSet := toSet(known)
		for _, code := range market.ShippingMethodCodes {
			if !knownSet[code] {
				problems = append(problems, fmt.Sprintf("shipping method code %q is not configured", code))
			}
		}
	}

	if !market.DefaultCurrency.IsValid() {
		problems = append(problems, fmt.Sprintf("default currency %q is not supported", market.DefaultCurrency))
	}

	return problems, nil
}

func toSet(values []string) map[string]bool {
	out := make(map[string]bool, len(values))
	for _, v := range values {
		out[v] = true
	}
	return out
}
