package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/merchantpulse/pricing-backend/pkg/db"
	"github.com/merchantpulse/pricing-backend/pkg/db/models"
	"github.com/merchantpulse/pricing-backend/pkg/enums"
	pkgerrors "github.com/merchantpulse/pricing-backend/pkg/errors"
	"github.com/merchantpulse/pricing-backend/pkg/logger"
	"github.com/merchantpulse/pricing-backend/pkg/metrics"
)

const ruleUsageUniqueConstraint = "idx_rule_usage_rule_order"

// Calculator applies the promotional rule engine on top of resolved base
// prices and records rule redemptions for completed orders.
type Calculator interface {
	CalculatePrice(ctx context.Context, input CalculateInput) (*PriceResult, error)
	CalculateProductPrice(ctx context.Context, productID uuid.UUID, pctx Context, customerID *uuid.UUID) (*ProductPriceResult, error)
	RecordRuleUsage(ctx context.Context, ruleID, orderID uuid.UUID, discountCents int64, customerID *uuid.UUID) error
}

type calculator struct {
	repo     *Repository
	resolver Resolver
	dbClient *db.Client
	logg     *logger.Logger
	metr     *metrics.PricingMetrics
	now      func() time.Time
}

// NewCalculator constructs the rule engine.
func NewCalculator(repo *Repository, resolver Resolver, dbClient *db.Client, logg *logger.Logger, metr *metrics.PricingMetrics) (Calculator, error) {
	if repo == nil {
		return nil, fmt.Errorf("pricing repository required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("price resolver required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &calculator{
		repo:     repo,
		resolver: resolver,
		dbClient: dbClient,
		logg:     logg,
		metr:     metr,
		now:      time.Now,
	}, nil
}

// CalculatePrice resolves the variant's base price and runs every applicable
// rule against it, highest priority first.
func (c *calculator) CalculatePrice(ctx context.Context, input CalculateInput) (*PriceResult, error) {
	if err := input.Context.Validate(); err != nil {
		return nil, err
	}

	variant, err := c.repo.GetVariant(ctx, input.VariantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading variant")
	}

	base, err := c.resolver.Resolve(ctx, input.VariantID, input.Context)
	if err != nil {
		return nil, err
	}
	if base == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no price available for variant")
	}

	customer, err := c.loadCustomer(ctx, input.CustomerID)
	if err != nil {
		return nil, err
	}

	rules, err := c.repo.ListApplicableRules(ctx, c.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading price rules")
	}

	return c.runRules(ctx, rules, variant, customer, input, base)
}

func (c *calculator) loadCustomer(ctx context.Context, customerID *uuid.UUID) (*models.Customer, error) {
	if customerID == nil {
		return nil, nil
	}
	customer, err := c.repo.GetCustomer(ctx, *customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading customer")
	}
	return customer, nil
}

// runRules plays the rule chain against one resolved base price.
func (c *calculator) runRules(ctx context.Context, rules []models.PriceRule, variant *models.ProductVariant, customer *models.Customer, input CalculateInput, base *models.Price) (*PriceResult, error) {
	result := &PriceResult{
		VariantID:       variant.ID,
		Currency:        base.Currency,
		BasePriceCents:  base.AmountCents,
		FinalPriceCents: base.AmountCents,
		AppliedRules:    []AppliedRule{},
	}

	running := base.AmountCents
	for i := range rules {
		rule := rules[i]
		if !c.ruleMatchesEntity(rule, variant) {
			continue
		}
		ok, err := c.ruleMatchesConditions(ctx, rule, variant, customer, input)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		discounted := applyDiscount(running, rule.DiscountType, rule.DiscountValue)
		if discounted >= running {
			// Rule did not reduce the price: nothing is recorded and the
			// stop flag does not trigger.
			continue
		}
		result.AppliedRules = append(result.AppliedRules, AppliedRule{
			RuleID:        rule.ID,
			Name:          rule.Name,
			DiscountType:  rule.DiscountType,
			DiscountValue: rule.DiscountValue,
			AmountCents:   running - discounted,
		})
		running = discounted
		if rule.StopFurtherRules {
			break
		}
	}

	if running < 0 {
		running = 0
	}
	result.FinalPriceCents = running
	result.DiscountCents = result.BasePriceCents - running
	c.metr.IncRulesApplied(len(result.AppliedRules))
	return result, nil
}

// applyDiscount computes the post-rule price in minor units, never negative.
// Percent math runs in decimals and rounds half away from zero.
func applyDiscount(running int64, discountType enums.DiscountType, value decimal.Decimal) int64 {
	switch discountType {
	case enums.DiscountTypePercent:
		price := decimal.NewFromInt(running)
		factor := decimal.NewFromInt(100).Sub(value).Div(decimal.NewFromInt(100))
		out := price.Mul(factor).Round(0).IntPart()
		if out < 0 {
			return 0
		}
		return out
	case enums.DiscountTypeFixed:
		out := running - value.Round(0).IntPart()
		if out < 0 {
			return 0
		}
		return out
	case enums.DiscountTypeOverride:
		out := value.Round(0).IntPart()
		if out < 0 {
			return 0
		}
		return out
	}
	return running
}

func (c *calculator) ruleMatchesEntity(rule models.PriceRule, variant *models.ProductVariant) bool {
	if rule.EntityType == enums.RuleEntityCart {
		return true
	}
	if len(rule.EntityIDs) == 0 {
		return true
	}
	switch rule.EntityType {
	case enums.RuleEntityVariant:
		return rule.EntityIDs.Contains(variant.ID)
	case enums.RuleEntityProduct:
		return rule.EntityIDs.Contains(variant.ProductID)
	case enums.RuleEntityCategory:
		if variant.Product == nil {
			return false
		}
		for _, categoryID := range variant.Product.CategoryIDs {
			if rule.EntityIDs.Contains(categoryID) {
				return true
			}
		}
		return false
	}
	return false
}

// ruleMatchesConditions checks every predicate present on the rule with AND
// semantics. An absent predicate places no restriction.
func (c *calculator) ruleMatchesConditions(ctx context.Context, rule models.PriceRule, variant *models.ProductVariant, customer *models.Customer, input CalculateInput) (bool, error) {
	cond := rule.Conditions
	pctx := input.Context

	if cond.IsZero() && rule.UsageLimitPerCustomer == nil {
		return true, nil
	}

	if len(cond.CustomerGroupIDs) > 0 {
		if customer == nil || !intersects(customer.GroupIDs, cond.CustomerGroupIDs) {
			return false, nil
		}
	}
	if len(cond.CustomerIDs) > 0 {
		if customer == nil || !containsID(cond.CustomerIDs, customer.ID) {
			return false, nil
		}
	}
	if len(cond.ChannelIDs) > 0 {
		if pctx.ChannelID == nil || !containsID(cond.ChannelIDs, *pctx.ChannelID) {
			return false, nil
		}
	}
	if len(cond.SiteIDs) > 0 {
		if variant.Product == nil || variant.Product.SiteID == nil || !containsID(cond.SiteIDs, *variant.Product.SiteID) {
			return false, nil
		}
	}
	if cond.MinQuantity != nil && pctx.Quantity < *cond.MinQuantity {
		return false, nil
	}
	if cond.MaxQuantity != nil && pctx.Quantity > *cond.MaxQuantity {
		return false, nil
	}
	if input.Cart != nil {
		if cond.MinCartValueCents != nil && input.Cart.SubtotalCents < *cond.MinCartValueCents {
			return false, nil
		}
		if cond.MaxCartValueCents != nil && input.Cart.SubtotalCents > *cond.MaxCartValueCents {
			return false, nil
		}
	}
	if len(cond.ProductAttributes) > 0 {
		if variant.Product == nil {
			return false, nil
		}
		for key, want := range cond.ProductAttributes {
			if got, ok := variant.Product.Attributes[key]; !ok || got != want {
				return false, nil
			}
		}
	}
	if len(cond.Weekdays) > 0 {
		weekday := int(c.now().Weekday())
		if !containsInt(cond.Weekdays, weekday) {
			return false, nil
		}
	}
	if len(cond.CountryCodes) > 0 {
		if customer == nil || customer.DefaultCountryCode == nil || !containsString(cond.CountryCodes, *customer.DefaultCountryCode) {
			return false, nil
		}
	}
	if rule.UsageLimitPerCustomer != nil && customer != nil {
		used, err := c.repo.CountRuleUsageByCustomer(ctx, rule.ID, customer.ID)
		if err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting rule usage")
		}
		if used >= int64(*rule.UsageLimitPerCustomer) {
			return false, nil
		}
	}
	return true, nil
}

// CalculateProductPrice runs the calculation for every active, available
// variant of the product and reports the final-price range. The customer and
// rule set load once, prices resolve in one bulk pass, and only unpriced
// variants are skipped. Products with no priced variant return zeros and an
// empty map.
func (c *calculator) CalculateProductPrice(ctx context.Context, productID uuid.UUID, pctx Context, customerID *uuid.UUID) (*ProductPriceResult, error) {
	if err := pctx.Validate(); err != nil {
		return nil, err
	}

	customer, err := c.loadCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	variants, err := c.repo.ListVariantsByProduct(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product variants")
	}

	result := &ProductPriceResult{
		ProductID: productID,
		Currency:  pctx.Currency,
		Variants:  map[uuid.UUID]PriceResult{},
	}
	if len(variants) == 0 {
		return result, nil
	}

	ids := make([]uuid.UUID, 0, len(variants))
	for _, variant := range variants {
		ids = append(ids, variant.ID)
	}
	resolved, err := c.resolver.ResolveBulk(ctx, ids, pctx)
	if err != nil {
		return nil, err
	}

	rules, err := c.repo.ListApplicableRules(ctx, c.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading price rules")
	}

	for i := range variants {
		variant := variants[i]
		base := resolved[variant.ID]
		if base == nil {
			continue
		}
		priced, err := c.runRules(ctx, rules, &variant, customer, CalculateInput{
			VariantID:  variant.ID,
			Context:    pctx,
			CustomerID: customerID,
		}, base)
		if err != nil {
			return nil, err
		}
		result.Variants[variant.ID] = *priced
		if len(result.Variants) == 1 || priced.FinalPriceCents < result.MinPriceCents {
			result.MinPriceCents = priced.FinalPriceCents
		}
		if priced.FinalPriceCents > result.MaxPriceCents {
			result.MaxPriceCents = priced.FinalPriceCents
		}
	}
	return result, nil
}

// RecordRuleUsage persists a redemption and atomically bumps the rule's
// usage counter. Replays of the same (rule, order) pair are no-ops. An
// increment that would exceed the usage limit is rejected so the caller can
// stop applying a now-exhausted rule.
func (c *calculator) RecordRuleUsage(ctx context.Context, ruleID, orderID uuid.UUID, discountCents int64, customerID *uuid.UUID) error {
	return c.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := c.repo.WithTx(tx)

		usage := &models.PriceRuleUsage{
			RuleID:        ruleID,
			OrderID:       orderID,
			CustomerID:    customerID,
			DiscountCents: discountCents,
		}
		if err := repo.InsertRuleUsage(ctx, usage); err != nil {
			if db.IsUniqueViolation(err, ruleUsageUniqueConstraint) {
				c.logg.Debug(ctx, "rule usage already recorded for order")
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "inserting rule usage")
		}

		affected, err := repo.IncrementRuleUsage(ctx, ruleID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "incrementing rule usage")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "rule usage limit exceeded")
		}
		return nil
	})
}

func intersects(a []uuid.UUID, b []uuid.UUID) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func containsInt(values []int, v int) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func containsString(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
