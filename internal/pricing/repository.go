package pricing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/merchantpulse/pricing-backend/pkg/db/models"
	"github.com/merchantpulse/pricing-backend/pkg/enums"
)

// Repository wires together the pricing persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// ListActivePrices loads every active, in-window price record for the given
// variants in the given currency. Quantity-tier containment is filtered in
// memory by the resolver so bulk resolution stays a single query.
func (r *Repository) ListActivePrices(ctx context.Context, variantIDs []uuid.UUID, currency enums.Currency, now time.Time) ([]models.Price, error) {
	if len(variantIDs) == 0 {
		return nil, nil
	}
	var prices []models.Price
	err := r.db.WithContext(ctx).
		Where("variant_id IN ?", variantIDs).
		Where("currency = ?", currency).
		Where("is_active = ?", true).
		Where("active_from IS NULL OR active_from <= ?", now).
		Where("active_until IS NULL OR active_until >= ?", now).
		Order("priority DESC, id ASC").
		Find(&prices).Error
	if err != nil {
		return nil, err
	}
	return prices, nil
}

// GetPriceListsByIDs loads active price lists for catalog eligibility checks.
func (r *Repository) GetPriceListsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.PriceList, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var lists []models.PriceList
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Where("is_active = ?", true).
		Find(&lists).Error
	if err != nil {
		return nil, err
	}
	return lists, nil
}

// ListApplicableRules loads every rule that is active, inside its window, and
// under its global usage limit, highest priority first. Entity and condition
// filtering happens in the calculator.
func (r *Repository) ListApplicableRules(ctx context.Context, now time.Time) ([]models.PriceRule, error) {
	var rules []models.PriceRule
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("starts_at IS NULL OR starts_at <= ?", now).
		Where("ends_at IS NULL OR ends_at >= ?", now).
		Where("usage_limit IS NULL OR usage_count < usage_limit").
		Order("priority DESC, id ASC").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

// CountRuleUsageByCustomer returns how many times the customer has redeemed
// the rule, for per-customer limit checks.
func (r *Repository) CountRuleUsageByCustomer(ctx context.Context, ruleID, customerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PriceRuleUsage{}).
		Where("rule_id = ? AND customer_id = ?", ruleID, customerID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// InsertRuleUsage writes the audit row for a redeemed rule. The unique
// (rule_id, order_id) index makes duplicate inserts fail loudly so the caller
// can treat them as an idempotent replay.
func (r *Repository) InsertRuleUsage(ctx context.Context, usage *models.PriceRuleUsage) error {
	return r.db.WithContext(ctx).Create(usage).Error
}

// IncrementRuleUsage bumps usage_count only while the rule stays under its
// limit. Returns the number of rows updated: zero means the limit is already
// exhausted and the caller must reject the redemption.
func (r *Repository) IncrementRuleUsage(ctx context.Context, ruleID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PriceRule{}).
		Where("id = ?", ruleID).
		Where("usage_limit IS NULL OR usage_count < usage_limit").
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1"))
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// GetVariant loads the variant with its product for entity/condition checks.
func (r *Repository) GetVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := r.db.WithContext(ctx).
		Preload("Product").
		First(&variant, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &variant, nil
}

// ListVariantsByProduct loads the product's active, available variants.
func (r *Repository) ListVariantsByProduct(ctx context.Context, productID uuid.UUID) ([]models.ProductVariant, error) {
	var variants []models.ProductVariant
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("product_id = ?", productID).
		Where("is_active = ? AND is_available = ?", true, true).
		Order("created_at ASC").
		Find(&variants).Error
	if err != nil {
		return nil, err
	}
	return variants, nil
}

// GetCustomer loads the customer fields rule conditions match on.
func (r *Repository) GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).First(&customer, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}
