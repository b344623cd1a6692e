package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/merchantpulse/pricing-backend/internal/markets"
	"github.com/merchantpulse/pricing-backend/internal/pricing"
	"github.com/merchantpulse/pricing-backend/pkg/config"
	"github.com/merchantpulse/pricing-backend/pkg/db/models"
	"github.com/merchantpulse/pricing-backend/pkg/logger"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type stubResolver struct{}

func (stubResolver) Resolve(ctx context.Context, variantID uuid.UUID, pctx pricing.Context) (*models.Price, error) {
	return nil, nil
}

func (stubResolver) ResolveBulk(ctx context.Context, variantIDs []uuid.UUID, pctx pricing.Context) (map[uuid.UUID]*models.Price, error) {
	return map[uuid.UUID]*models.Price{}, nil
}

func (stubResolver) Tiers(ctx context.Context, variantID uuid.UUID, pctx pricing.Context) ([]models.Price, error) {
	return nil, nil
}

func (stubResolver) InvalidateVariant(ctx context.Context, variantID uuid.UUID) error {
	return nil
}

func (stubResolver) InvalidateAll(ctx context.Context) error {
	return nil
}

type stubCalculator struct{}

func (stubCalculator) CalculatePrice(ctx context.Context, input pricing.CalculateInput) (*pricing.PriceResult, error) {
	return &pricing.PriceResult{VariantID: input.VariantID, Currency: input.Context.Currency}, nil
}

func (stubCalculator) CalculateProductPrice(ctx context.Context, productID uuid.UUID, pctx pricing.Context, customerID *uuid.UUID) (*pricing.ProductPriceResult, error) {
	return &pricing.ProductPriceResult{ProductID: productID, Currency: pctx.Currency}, nil
}

func (stubCalculator) RecordRuleUsage(ctx context.Context, ruleID, orderID uuid.UUID, discountCents int64, customerID *uuid.UUID) error {
	return nil
}

type stubMarketsService struct{}

func (stubMarketsService) AvailablePaymentMethods(ctx context.Context, marketID *uuid.UUID) ([]models.PaymentMethod, error) {
	return nil, nil
}

func (stubMarketsService) AvailableShippingMethods(ctx context.Context, marketID *uuid.UUID, countryCode string) ([]models.ShippingMethod, error) {
	return nil, nil
}

func (stubMarketsService) IsPaymentMethodAvailable(ctx context.Context, marketID *uuid.UUID, code string) (bool, error) {
	return false, nil
}

func (stubMarketsService) IsShippingMethodAvailable(ctx context.Context, marketID *uuid.UUID, code, countryCode string) (bool, error) {
	return false, nil
}

func (stubMarketsService) CalculateTax(ctx context.Context, input markets.TaxInput) (*markets.TaxResult, error) {
	return &markets.TaxResult{}, nil
}

func (stubMarketsService) ValidateMarket(ctx context.Context, marketID uuid.UUID) ([]string, error) {
	return nil, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{Env: "test", Port: "0"},
		Pricing: config.PricingConfig{DefaultCurrency: "USD"},
	}
}

func newTestRouter(dbErr error) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		testConfig(),
		logg,
		stubPinger{err: dbErr},
		stubPinger{},
		prometheus.NewRegistry(),
		stubResolver{},
		stubCalculator{},
		stubMarketsService{},
	)
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(nil)
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got := resp.Header().Get("X-MerchantPulse-Env"); got != "test" {
		t.Fatalf("expected env header, got %q", got)
	}
}

func TestHealthReadyDegradedOnDBFailure(t *testing.T) {
	router := newTestRouter(context.DeadlineExceeded)
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	router := newTestRouter(nil)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestQuoteRouteWired(t *testing.T) {
	router := newTestRouter(nil)
	body := `{"variant_id":"` + uuid.NewString() + `","context":{"currency":"USD","quantity":1}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/pricing/quote", strings.NewReader(body))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestUnknownRouteReturns404(t *testing.T) {
	router := newTestRouter(nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
