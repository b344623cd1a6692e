package pricing

import (
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/merchantpulse/pricing-backend/pkg/config"
	"github.com/merchantpulse/pricing-backend/pkg/db/models"
	"github.com/merchantpulse/pricing-backend/pkg/enums"
	"github.com/merchantpulse/pricing-backend/pkg/logger"
)

func testPricingConfig() config.PricingConfig {
	return config.PricingConfig{DefaultCurrency: "USD", CacheEnabled: false}
}

func setupPricingTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  site_id TEXT,
  name TEXT NOT NULL,
  slug TEXT NOT NULL,
  category_ids TEXT NOT NULL DEFAULT '{}',
  attributes TEXT NOT NULL DEFAULT '{}',
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	variants := `
CREATE TABLE IF NOT EXISTS product_variants (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  sku TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  is_available INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	prices := `
CREATE TABLE IF NOT EXISTS prices (
  id TEXT PRIMARY KEY,
  variant_id TEXT NOT NULL,
  market_id TEXT,
  site_id TEXT,
  channel_id TEXT,
  price_list_id TEXT,
  currency TEXT NOT NULL,
  min_quantity INTEGER NOT NULL DEFAULT 1,
  max_quantity INTEGER,
  amount_cents INTEGER NOT NULL,
  priority INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  active_from DATETIME,
  active_until DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	priceLists := `
CREATE TABLE IF NOT EXISTS price_lists (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  customer_group_ids TEXT NOT NULL DEFAULT '{}',
  adjustment_type TEXT,
  adjustment_value TEXT NOT NULL DEFAULT '0',
  adjustment_direction TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	priceRules := `
CREATE TABLE IF NOT EXISTS price_rules (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  entity_type TEXT NOT NULL,
  entity_ids TEXT NOT NULL DEFAULT '{}',
  conditions TEXT NOT NULL DEFAULT '{}',
  discount_type TEXT NOT NULL,
  discount_value TEXT NOT NULL,
  priority INTEGER NOT NULL DEFAULT 0,
  stop_further_rules INTEGER NOT NULL DEFAULT 0,
  usage_limit INTEGER,
  usage_limit_per_customer INTEGER,
  usage_count INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  starts_at DATETIME,
  ends_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	ruleUsages := `
CREATE TABLE IF NOT EXISTS price_rule_usages (
  id TEXT PRIMARY KEY,
  rule_id TEXT NOT NULL,
  order_id TEXT NOT NULL,
  customer_id TEXT,
  discount_cents INTEGER NOT NULL,
  created_at DATETIME,
  UNIQUE (rule_id, order_id)
);`
	customers := `
CREATE TABLE IF NOT EXISTS customers (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL,
  group_ids TEXT NOT NULL DEFAULT '{}',
  default_country_code TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	for _, stmt := range []string{products, variants, prices, priceLists, priceRules, ruleUsages, customers} {
		require.NoError(t, db.Exec(stmt).Error)
	}
	// Rules are fetched globally, so leftovers from earlier tests would leak
	// into every calculation.
	require.NoError(t, db.Exec("DELETE FROM price_rules").Error)
	require.NoError(t, db.Exec("DELETE FROM price_rule_usages").Error)
	return db
}

func newTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "pricing-test", Output: io.Discard})
}

func newProduct(t *testing.T, db *gorm.DB, mutate ...func(*models.Product)) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:       uuid.New(),
		Name:     "Test Product",
		Slug:     "test-product-" + uuid.NewString()[:8],
		IsActive: true,
	}
	for _, fn := range mutate {
		fn(product)
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func newVariant(t *testing.T, db *gorm.DB, productID uuid.UUID) *models.ProductVariant {
	t.Helper()

	variant := &models.ProductVariant{
		ID:          uuid.New(),
		ProductID:   productID,
		SKU:         "SKU-" + uuid.NewString()[:8],
		IsActive:    true,
		IsAvailable: true,
	}
	require.NoError(t, db.Create(variant).Error)
	return variant
}

func newPrice(t *testing.T, db *gorm.DB, variantID uuid.UUID, amountCents int64, mutate ...func(*models.Price)) *models.Price {
	t.Helper()

	price := &models.Price{
		ID:          uuid.New(),
		VariantID:   variantID,
		Currency:    enums.CurrencyUSD,
		MinQuantity: 1,
		AmountCents: amountCents,
		IsActive:    true,
	}
	for _, fn := range mutate {
		fn(price)
	}
	require.NoError(t, db.Create(price).Error)
	return price
}

func newRule(t *testing.T, db *gorm.DB, mutate ...func(*models.PriceRule)) *models.PriceRule {
	t.Helper()

	rule := &models.PriceRule{
		ID:           uuid.New(),
		Name:         "Test Rule",
		EntityType:   enums.RuleEntityVariant,
		DiscountType: enums.DiscountTypePercent,
		IsActive:     true,
	}
	for _, fn := range mutate {
		fn(rule)
	}
	require.NoError(t, db.Create(rule).Error)
	return rule
}

func ptr[T any](v T) *T {
	return &v
}

func usdContext(quantity int) Context {
	return Context{Currency: enums.CurrencyUSD, Quantity: quantity}
}

func newTestResolver(t *testing.T, db *gorm.DB) Resolver {
	t.Helper()

	repo := NewRepository(db)
	cache := NewResolutionCache(nil, 0, nil, newTestLogger())
	res, err := NewResolver(repo, cache, testPricingConfig(), newTestLogger(), nil)
	require.NoError(t, err)
	return res
}
