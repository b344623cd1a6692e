package markets

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/merchantpulse/pricing-backend/pkg/db/models"
)

// Repository wires together market configuration persistence helpers.
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

// GetMarket loads a market by id.
func (r *Repository) GetMarket(ctx context.Context, id uuid.UUID) (*models.Market, error) {
	var market models.Market
	if err := r.db.WithContext(ctx).First(&market, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &market, nil
}

// ListActivePaymentMethods returns active payment methods ordered by
// priority, highest first.
func (r *Repository) ListActivePaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	var methods []models.PaymentMethod
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("priority DESC, code ASC").
		Find(&methods).Error
	if err != nil {
		return nil, err
	}
	return methods, nil
}

// ListActiveShippingMethods returns active shipping methods with their zones,
// ordered by priority, highest first.
func (r *Repository) ListActiveShippingMethods(ctx context.Context) ([]models.ShippingMethod, error) {
	var methods []models.ShippingMethod
	err := r.db.WithContext(ctx).
		Preload("Zones").
		Where("is_active = ?", true).
		Order("priority DESC, code ASC").
		Find(&methods).Error
	if err != nil {
		return nil, err
	}
	return methods, nil
}

// ListActiveTaxRates returns the active rates for a country, scoped to the
// market plus market-agnostic rates, ordered by priority, highest first.
func (r *Repository) ListActiveTaxRates(ctx context.Context, marketID uuid.UUID, countryCode string) ([]models.TaxRate, error) {
	var rates []models.TaxRate
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("country_code = ?", countryCode).
		Where("market_id IS NULL OR market_id = ?", marketID).
		Order("priority DESC, id ASC").
		Find(&rates).Error
	if err != nil {
		return nil, err
	}
	return rates, nil
}

// GetPriceList loads a price list by id, active or not, for validation.
func (r *Repository) GetPriceList(ctx context.Context, id uuid.UUID) (*models.PriceList, error) {
	var list models.PriceList
	if err := r.db.WithContext(ctx).First(&list, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &list, nil
}

// ListPaymentMethodCodes returns every configured payment method code,
// including inactive ones, for configuration validation.
func (r *Repository) ListPaymentMethodCodes(ctx context.Context) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).
		Model(&models.PaymentMethod{}).
		Pluck("code", &codes).Error
	if err != nil {
		return nil, err
	}
	return codes, nil
}

// ListShippingMethodCodes returns every configured shipping method code.
func (r *Repository) ListShippingMethodCodes(ctx context.Context) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).
		Model(&models.ShippingMethod{}).
		Pluck("code", &codes).Error
	if err != nil {
		return nil, err
	}
	return codes, nil
}
