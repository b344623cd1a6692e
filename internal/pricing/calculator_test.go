package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/merchantpulse/pricing-backend/pkg/db"
	dbtypes "github.com/merchantpulse/pricing-backend/pkg/db/types"
	"github.com/merchantpulse/pricing-backend/pkg/db/models"
	"github.com/merchantpulse/pricing-backend/pkg/enums"
	pkgerrors "github.com/merchantpulse/pricing-backend/pkg/errors"
	"github.com/merchantpulse/pricing-backend/pkg/types"
)

func newTestCalculator(t *testing.T, conn *gorm.DB) Calculator {
	t.Helper()

	repo := NewRepository(conn)
	res := newTestResolver(t, conn)
	calc, err := NewCalculator(repo, res, db.NewWithConn(conn), newTestLogger(), nil)
	require.NoError(t, err)
	return calc
}

func TestCalculatePrice_NoRules(t *testing.T) {
	conn := setupPricingTestDB(t)
	product := newProduct(t, conn)
	variant := newVariant(t, conn, product.ID)
	newPrice(t, conn, variant.ID, 5000)

	calc := newTestCalculator(t, conn)
	result, err := calc.CalculatePrice(context.Background(), CalculateInput{
		VariantID: variant.ID,
		Context:   usdContext(1),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5000), result.BasePriceCents)
	assert.Equal(t, int64(5000), result.FinalPriceCents)
	assert.Equal(t, int64(0), result.DiscountCents)
	assert.Empty(t, result.AppliedRules)
}

func TestCalculatePrice_PercentRuleWithQuantityCondition(t *testing.T) {
	conn := setupPricingTestDB(t)
	product := newProduct(t, conn)
	variant := newVariant(t, conn, product.ID)
	newPrice(t, conn, variant.ID, 5000)

	newRule(t, conn, func(r *models.PriceRule) {
		r.Name = "20 percent off bulk"
		r.DiscountType = enums.DiscountTypePercent
		r.DiscountValue = decimal.NewFromInt(20)
		r.Priority = 10
		r.Conditions = types.RuleConditions{MinQuantity: ptr(2)}
	})

	calc := newTestCalculator(t, conn)

	result, err := calc.CalculatePrice(context.Background(), CalculateInput{
		VariantID: variant.ID,
		Context:   usdContext(3),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5000), result.BasePriceCents)
	assert.Equal(t, int64(4000), result.FinalPriceCents)
	assert.Equal(t, int64(1000), result.DiscountCents)
	require.Len(t, result.AppliedRules, 1)
	assert.Equal(t, int64(1000), result.AppliedRules[0].AmountCents)

	// Below the quantity floor the rule is skipped.
	result, err = calc.CalculatePrice(context.Background(), CalculateInput{
		VariantID: variant.ID,
		Context:   usdContext(1),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5000), result.FinalPriceCents)
	assert.Empty(t, result.AppliedRules)
}

func TestCalculatePrice_StopRuleShortCircuit(t *testing.T) {
	conn := setupPricingTestDB(t)
	product := newProduct(t, conn)
	variant := newVariant(t, conn, product.ID)
	newPrice(t, conn, variant.ID, 5000)

	newRule(t, conn, func(r *models.PriceRule) {
		r.Name = "A"
		r.DiscountType = enums.DiscountTypePercent
		r.DiscountValue = decimal.NewFromInt(10)
		r.Priority = 20
		r.StopFurtherRules = true
	})
	newRule(t, conn, func(r *models.PriceRule) {
		r.Name = "B"
		r.DiscountType = enums.DiscountTypeFixed
		r.DiscountValue = decimal.NewFromInt(500)
		r.Priority = 5
	})

	calc := newTestCalculator(t, conn)
	result, err := calc.CalculatePrice(context.Background(), CalculateInput{
		VariantID: variant.ID,
		Context:   usdContext(1),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4500), result.FinalPriceCents)
	require.Len(t, result.AppliedRules, 1)
	assert.Equal(t, "A", result.AppliedRules[0].Name)
}

func TestCalculatePrice_NeverNegative(t *testing.T) {
	conn := setupPricingTestDB(t)
	product := newProduct(t, conn)
	variant := newVariant(t, conn, product.ID)
	newPrice(t, conn, variant.ID, 700)

	newRule(t, conn, func(r *models.PriceRule) {
		r.Name = "big fixed one"
		r.DiscountType = enums.DiscountTypeFixed
		r.DiscountValue = decimal.NewFromInt(500)
		r.Priority = 10
	})
	newRule(t, conn, func(r *models.PriceRule) {
		r.Name = "big fixed two"
		r.DiscountType = enums.DiscountTypeFixed
		r.DiscountValue = decimal.NewFromInt(500)
		r.Priority = 5
	})

	calc := newTestCalculator(t, conn)
	result, err := calc.CalculatePrice(context.Background(), CalculateInput{
		VariantID: variant.ID,
		Context:   usdContext(1),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.FinalPriceCents)
	assert.Equal(t, int64(700), result.DiscountCents)
}

func TestCalculatePrice_OverrideOnlyWhenLower(t *testing.T) {
	conn := setupPricingTestDB(t)
	product := newProduct(t, conn)
	variant := newVariant(t, conn, product.ID)
	newPrice(t, conn, variant.ID, 5000)

	// An override above the running price is not an applied discount and
	// must not trigger its stop flag.
	newRule(t, conn, func(r *models.PriceRule) {
		r.Name = "override up"
		r.DiscountType = enums.DiscountTypeOverride
		r.DiscountValue = decimal.NewFromInt(6000)
		r.Priority = 20
		r.StopFurtherRules = true
	})
	newRule(t, conn, func(r *models.PriceRule) {
		r.Name = "override down"
		r.DiscountType = enums.DiscountTypeOverride
		r.DiscountValue = decimal.NewFromInt(3999)
		r.Priority = 10
	})

	calc := newTestCalculator(t, conn)
	result, err := calc.CalculatePrice(context.Background(), CalculateInput{
		VariantID: variant.ID,
		Context:   usdContext(1),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3999), result.FinalPriceCents)
	require.Len(t, result.AppliedRules, 1)
	assert.Equal(t, "override down", result.AppliedRules[0].Name)
}

func TestCalculatePrice_UsageExhaustedRuleExcluded(t *testing.T) {
	conn := setupPricingTestDB(t)
	product := newProduct(t, conn)
	variant := newVariant(t, conn, product.ID)
	newPrice(t, conn, variant.ID, 5000)

	newRule(t, conn, func(r *models.PriceRule) {
		r.Name = "exhausted"
		r.DiscountType = enums.DiscountTypePercent
		r.DiscountValue = decimal.NewFromInt(50)
		r.UsageLimit = ptr(1)
		r.UsageCount = 1
	})

	calc := newTestCalculator(t, conn)
	result, err := calc.CalculatePrice(context.Background(), CalculateInput{
		VariantID: variant.ID,
		Context:   usdContext(1),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5000), result.FinalPriceCents)
	assert.Empty(t, result.AppliedRules)
}

func TestCalculatePrice_EntityAndCustomerGroupMatch(t *testing.T) {
	conn := setupPricingTestDB(t)
	product := newProduct(t, conn)
	variant := newVariant(t, conn, product.ID)
	other := newVariant(t, conn, product.ID)
	newPrice(t, conn, variant.ID, 5000)
	newPrice(t, conn, other.ID, 5000)

	groupID := uuid.New()
	customer := &models.Customer{
		ID:       uuid.New(),
		Email:    "vip@example.com",
		GroupIDs: dbtypes.UUIDArray{groupID},
		IsActive: true,
	}
	require.NoError(t, conn.Create(customer).Error)

	newRule(t, conn, func(r *models.PriceRule) {
		r.Name = "vip variant deal"
		r.EntityType = enums.RuleEntityVariant
		r.EntityIDs = dbtypes.UUIDArray{variant.ID}
		r.DiscountType = enums.DiscountTypePercent
		r.DiscountValue = decimal.NewFromInt(10)
		r.Conditions = types.RuleConditions{CustomerGroupIDs: []uuid.UUID{groupID}}
	})

	calc := newTestCalculator(t, conn)

	// Targeted variant with the right customer group.
	result, err := calc.CalculatePrice(context.Background(), CalculateInput{
		VariantID:  variant.ID,
		Context:    usdContext(1),
		CustomerID: &customer.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4500), result.FinalPriceCents)

	// Same customer, untargeted variant.
	result, err = calc.CalculatePrice(context.Background(), CalculateInput{
		VariantID:  other.ID,
		Context:    usdContext(1),
		CustomerID: &customer.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5000), result.FinalPriceCents)

	// Anonymous shopper fails the group condition.
	result, err = calc.CalculatePrice(context.Background(), CalculateInput{
		VariantID: variant.ID,
		Context:   usdContext(1),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5000), result.FinalPriceCents)
}

func TestCalculatePrice_CartValueCondition(t *testing.T) {
	conn := setupPricingTestDB(t)
	product := newProduct(t, conn)
	variant := newVariant(t, conn, product.ID)
	newPrice(t, conn, variant.ID, 5000)

	newRule(t, conn, func(r *models.PriceRule) {
		r.Name = "big cart bonus"
		r.EntityType = enums.RuleEntityCart
		r.DiscountType = enums.DiscountTypeFixed
		r.DiscountValue = decimal.NewFromInt(1000)
		r.Conditions = types.RuleConditions{MinCartValueCents: ptr(int64(20000))}
	})

	calc := newTestCalculator(t, conn)

	result, err := calc.CalculatePrice(context.Background(), CalculateInput{
		VariantID: variant.ID,
		Context:   usdContext(1),
		Cart:      &CartSnapshot{ID: uuid.New(), SubtotalCents: 25000},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4000), result.FinalPriceCents)

	result, err = calc.CalculatePrice(context.Background(), CalculateInput{
		VariantID: variant.ID,
		Context:   usdContext(1),
		Cart:      &CartSnapshot{ID: uuid.New(), SubtotalCents: 5000},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5000), result.FinalPriceCents)
}

func TestCalculatePrice_WeekdayCondition(t *testing.T) {
	conn := setupPricingTestDB(t)
	product := newProduct(t, conn)
	variant := newVariant(t, conn, product.ID)
	newPrice(t, conn, variant.ID, 5000)

	// Monday-only promotion.
	newRule(t, conn, func(r *models.PriceRule) {
		r.Name = "monday special"
		r.DiscountType = enums.DiscountTypePercent
		r.DiscountValue = decimal.NewFromInt(15)
		r.Conditions = types.RuleConditions{Weekdays: []int{1}}
	})

	calc := newTestCalculator(t, conn)
	monday := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	tuesday := monday.Add(24 * time.Hour)

	calc.(*calculator).now = func() time.Time { return monday }
	result, err := calc.CalculatePrice(context.Background(), CalculateInput{
		VariantID: variant.ID,
		Context:   usdContext(1),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4250), result.FinalPriceCents)

	calc.(*calculator).now = func() time.Time { return tuesday }
	result, err = calc.CalculatePrice(context.Background(), CalculateInput{
		VariantID: variant.ID,
		Context:   usdContext(1),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5000), result.FinalPriceCents)
}

func TestCalculatePrice_UnpricedVariant(t *testing.T) {
	conn := setupPricingTestDB(t)
	product := newProduct(t, conn)
	variant := newVariant(t, conn, product.ID)

	calc := newTestCalculator(t, conn)
	_, err := calc.CalculatePrice(context.Background(), CalculateInput{
		VariantID: variant.ID,
		Context:   usdContext(1),
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestCalculateProductPrice_Range(t *testing.T) {
	conn := setupPricingTestDB(t)
	product := newProduct(t, conn)
	v1 := newVariant(t, conn, product.ID)
	v2 := newVariant(t, conn, product.ID)
	newPrice(t, conn, v1.ID, 4000)
	newPrice(t, conn, v2.ID, 6000)

	calc := newTestCalculator(t, conn)
	result, err := calc.CalculateProductPrice(context.Background(), product.ID, usdContext(1), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(4000), result.MinPriceCents)
	assert.Equal(t, int64(6000), result.MaxPriceCents)
	assert.Len(t, result.Variants, 2)
}

func TestCalculateProductPrice_UnknownCustomer(t *testing.T) {
	conn := setupPricingTestDB(t)
	product := newProduct(t, conn)
	variant := newVariant(t, conn, product.ID)
	newPrice(t, conn, variant.ID, 4000)

	calc := newTestCalculator(t, conn)
	unknown := uuid.New()
	_, err := calc.CalculateProductPrice(context.Background(), product.ID, usdContext(1), &unknown)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	assert.Contains(t, err.Error(), "customer not found")
}

func TestCalculateProductPrice_SkipsOnlyUnpricedVariants(t *testing.T) {
	conn := setupPricingTestDB(t)
	product := newProduct(t, conn)
	priced := newVariant(t, conn, product.ID)
	newVariant(t, conn, product.ID)
	newPrice(t, conn, priced.ID, 4000)

	calc := newTestCalculator(t, conn)
	result, err := calc.CalculateProductPrice(context.Background(), product.ID, usdContext(1), nil)
	require.NoError(t, err)
	require.Len(t, result.Variants, 1)
	assert.Contains(t, result.Variants, priced.ID)
	assert.Equal(t, int64(4000), result.MinPriceCents)
	assert.Equal(t, int64(4000), result.MaxPriceCents)
}

func TestCalculateProductPrice_NoEligibleVariants(t *testing.T) {
	conn := setupPricingTestDB(t)
	product := newProduct(t, conn)

	calc := newTestCalculator(t, conn)
	result, err := calc.CalculateProductPrice(context.Background(), product.ID, usdContext(1), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.MinPriceCents)
	assert.Equal(t, int64(0), result.MaxPriceCents)
	assert.Empty(t, result.Variants)
}

func TestRecordRuleUsage_IncrementAndIdempotency(t *testing.T) {
	conn := setupPricingTestDB(t)
	rule := newRule(t, conn, func(r *models.PriceRule) {
		r.DiscountValue = decimal.NewFromInt(10)
		r.UsageLimit = ptr(2)
	})

	calc := newTestCalculator(t, conn)
	orderID := uuid.New()

	require.NoError(t, calc.RecordRuleUsage(context.Background(), rule.ID, orderID, 1000, nil))

	var reloaded models.PriceRule
	require.NoError(t, conn.First(&reloaded, "id = ?", rule.ID).Error)
	assert.Equal(t, 1, reloaded.UsageCount)

	// Replaying the same order is a no-op.
	require.NoError(t, calc.RecordRuleUsage(context.Background(), rule.ID, orderID, 1000, nil))
	require.NoError(t, conn.First(&reloaded, "id = ?", rule.ID).Error)
	assert.Equal(t, 1, reloaded.UsageCount)
}

func TestRecordRuleUsage_LimitExceeded(t *testing.T) {
	conn := setupPricingTestDB(t)
	rule := newRule(t, conn, func(r *models.PriceRule) {
		r.DiscountValue = decimal.NewFromInt(10)
		r.UsageLimit = ptr(1)
		r.UsageCount = 1
	})

	calc := newTestCalculator(t, conn)
	err := calc.RecordRuleUsage(context.Background(), rule.ID, uuid.New(), 500, nil)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	// The rejected redemption must not leave an audit row behind.
	var count int64
	require.NoError(t, conn.Model(&models.PriceRuleUsage{}).Where("rule_id = ?", rule.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestCalculatePrice_PerCustomerUsageLimit(t *testing.T) {
	conn := setupPricingTestDB(t)
	product := newProduct(t, conn)
	variant := newVariant(t, conn, product.ID)
	newPrice(t, conn, variant.ID, 5000)

	customer := &models.Customer{ID: uuid.New(), Email: "repeat@example.com", IsActive: true}
	require.NoError(t, conn.Create(customer).Error)

	rule := newRule(t, conn, func(r *models.PriceRule) {
		r.Name = "once per customer"
		r.DiscountType = enums.DiscountTypePercent
		r.DiscountValue = decimal.NewFromInt(10)
		r.UsageLimitPerCustomer = ptr(1)
	})

	calc := newTestCalculator(t, conn)
	input := CalculateInput{
		VariantID:  variant.ID,
		Context:    usdContext(1),
		CustomerID: &customer.ID,
	}

	result, err := calc.CalculatePrice(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, int64(4500), result.FinalPriceCents)

	require.NoError(t, calc.RecordRuleUsage(context.Background(), rule.ID, uuid.New(), 500, &customer.ID))

	result, err = calc.CalculatePrice(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), result.FinalPriceCents)
}
