package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/merchantpulse/pricing-backend/api/controllers"
	"github.com/merchantpulse/pricing-backend/api/middleware"
	"github.com/merchantpulse/pricing-backend/internal/markets"
	"github.com/merchantpulse/pricing-backend/internal/pricing"
	"github.com/merchantpulse/pricing-backend/pkg/config"
	"github.com/merchantpulse/pricing-backend/pkg/db"
	"github.com/merchantpulse/pricing-backend/pkg/logger"
	"github.com/merchantpulse/pricing-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	registry *prometheus.Registry,
	resolver pricing.Resolver,
	calculator pricing.Calculator,
	marketsService markets.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/pricing", func(r chi.Router) {
			r.Post("/quote", controllers.PricingQuote(calculator, cfg.Pricing, logg))
			r.Post("/quote/bulk", controllers.PricingQuoteBulk(resolver, cfg.Pricing, logg))
			r.Get("/variants/{variantId}/tiers", controllers.PricingTiers(resolver, cfg.Pricing, logg))
			r.Post("/cache/invalidate", controllers.PricingInvalidate(resolver, logg))
			r.Post("/cache/invalidate/{variantId}", controllers.PricingInvalidate(resolver, logg))
		})

		r.Get("/products/{productId}/price", controllers.ProductPrice(calculator, cfg.Pricing, logg))

		r.Route("/markets/{marketId}", func(r chi.Router) {
			r.Get("/payment-methods", controllers.MarketPaymentMethods(marketsService, logg))
			r.Get("/shipping-methods", controllers.MarketShippingMethods(marketsService, logg))
			r.Post("/tax", controllers.MarketTax(marketsService, logg))
			r.Get("/validate", controllers.MarketValidate(marketsService, logg))
		})
	})

	return r
}
