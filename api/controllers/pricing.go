package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/merchantpulse/pricing-backend/api/responses"
	"github.com/merchantpulse/pricing-backend/api/validators"
	"github.com/merchantpulse/pricing-backend/internal/pricing"
	"github.com/merchantpulse/pricing-backend/pkg/config"
	"github.com/merchantpulse/pricing-backend/pkg/db/models"
	"github.com/merchantpulse/pricing-backend/pkg/enums"
	pkgerrors "github.com/merchantpulse/pricing-backend/pkg/errors"
	"github.com/merchantpulse/pricing-backend/pkg/logger"
)

// PricingContextRequest is the JSON shape of a pricing context.
type PricingContextRequest struct {
	MarketID        *uuid.UUID `json:"market_id,omitempty"`
	SiteID          *uuid.UUID `json:"site_id,omitempty"`
	ChannelID       *uuid.UUID `json:"channel_id,omitempty"`
	PriceListID     *uuid.UUID `json:"price_list_id,omitempty"`
	CustomerGroupID *uuid.UUID `json:"customer_group_id,omitempty"`
	Currency        string     `json:"currency"`
	Quantity        int        `json:"quantity"`
}

func (p PricingContextRequest) toContext(cfg config.PricingConfig) pricing.Context {
	quantity := p.Quantity
	if quantity == 0 {
		quantity = 1
	}
	currency := p.Currency
	if currency == "" {
		currency = cfg.DefaultCurrency
	}
	return pricing.Context{
		MarketID:        p.MarketID,
		SiteID:          p.SiteID,
		ChannelID:       p.ChannelID,
		PriceListID:     p.PriceListID,
		CustomerGroupID: p.CustomerGroupID,
		Currency:        enums.Currency(currency),
		Quantity:        quantity,
	}
}

// QuoteRequest asks for a fully calculated price for one variant.
type QuoteRequest struct {
	VariantID  uuid.UUID             `json:"variant_id" validate:"required"`
	Context    PricingContextRequest `json:"context" validate:"required"`
	CustomerID *uuid.UUID            `json:"customer_id,omitempty"`
	Cart       *pricing.CartSnapshot `json:"cart,omitempty"`
}

// BulkQuoteRequest resolves base prices for many variants at once.
type BulkQuoteRequest struct {
	VariantIDs []uuid.UUID           `json:"variant_ids" validate:"required,min=1"`
	Context    PricingContextRequest `json:"context" validate:"required"`
}

// PriceView is the wire shape of a resolved price record.
type PriceView struct {
	ID          uuid.UUID      `json:"id"`
	VariantID   uuid.UUID      `json:"variant_id"`
	Currency    enums.Currency `json:"currency"`
	AmountCents int64          `json:"amount_cents"`
	MinQuantity int            `json:"min_quantity"`
	MaxQuantity *int           `json:"max_quantity,omitempty"`
	Priority    int            `json:"priority"`
	MarketID    *uuid.UUID     `json:"market_id,omitempty"`
	SiteID      *uuid.UUID     `json:"site_id,omitempty"`
	ChannelID   *uuid.UUID     `json:"channel_id,omitempty"`
	PriceListID *uuid.UUID     `json:"price_list_id,omitempty"`
}

func newPriceView(p models.Price) PriceView {
	return PriceView{
		ID:          p.ID,
		VariantID:   p.VariantID,
		Currency:    p.Currency,
		AmountCents: p.AmountCents,
		MinQuantity: p.MinQuantity,
		MaxQuantity: p.MaxQuantity,
		Priority:    p.Priority,
		MarketID:    p.MarketID,
		SiteID:      p.SiteID,
		ChannelID:   p.ChannelID,
		PriceListID: p.PriceListID,
	}
}

// PricingQuote calculates the discounted price for one variant.
func PricingQuote(calc pricing.Calculator, cfg config.PricingConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if calc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing service unavailable"))
			return
		}

		var payload QuoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := calc.CalculatePrice(r.Context(), pricing.CalculateInput{
			VariantID:  payload.VariantID,
			Context:    payload.Context.toContext(cfg),
			CustomerID: payload.CustomerID,
			Cart:       payload.Cart,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// PricingQuoteBulk resolves base prices for a variant set. Unpriced variants
// come back as null entries.
func PricingQuoteBulk(res pricing.Resolver, cfg config.PricingConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if res == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing service unavailable"))
			return
		}

		var payload BulkQuoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resolved, err := res.ResolveBulk(r.Context(), payload.VariantIDs, payload.Context.toContext(cfg))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make(map[string]*PriceView, len(resolved))
		for id, price := range resolved {
			if price == nil {
				out[id.String()] = nil
				continue
			}
			view := newPriceView(*price)
			out[id.String()] = &view
		}
		responses.WriteSuccess(w, out)
	}
}

// PricingTiers lists a variant's quantity tiers for the context in the query
// string.
func PricingTiers(res pricing.Resolver, cfg config.PricingConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if res == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing service unavailable"))
			return
		}

		variantID, err := uuidParam(r, "variantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pctx, err := contextFromQuery(r, cfg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tiers, err := res.Tiers(r.Context(), variantID, pctx)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]PriceView, 0, len(tiers))
		for _, tier := range tiers {
			views = append(views, newPriceView(tier))
		}
		responses.WriteSuccess(w, views)
	}
}

// ProductPrice reports the discounted price range across a product's
// variants.
func ProductPrice(calc pricing.Calculator, cfg config.PricingConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if calc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing service unavailable"))
			return
		}

		productID, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pctx, err := contextFromQuery(r, cfg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customerID, err := optionalUUIDQuery(r, "customer_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := calc.CalculateProductPrice(r.Context(), productID, pctx, customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// PricingInvalidate drops cached resolutions, for one variant or globally,
// after price mutations.
func PricingInvalidate(res pricing.Resolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if res == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing service unavailable"))
			return
		}

		raw := chi.URLParam(r, "variantId")
		if raw == "" {
			if err := res.InvalidateAll(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invalidating price cache"))
				return
			}
			responses.WriteSuccess(w, map[string]string{"status": "invalidated"})
			return
		}

		variantID, err := uuidParam(r, "variantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := res.InvalidateVariant(r.Context(), variantID); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invalidating price cache"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "invalidated"})
	}
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}

func optionalUUIDQuery(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return &id, nil
}

func contextFromQuery(r *http.Request, cfg config.PricingConfig) (pricing.Context, error) {
	var pctx pricing.Context

	quantity := 1
	if raw := r.URL.Query().Get("quantity"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return pctx, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid quantity")
		}
		quantity = parsed
	}

	currency := enums.Currency(cfg.DefaultCurrency)
	if raw := r.URL.Query().Get("currency"); raw != "" {
		parsed, err := enums.ParseCurrency(raw)
		if err != nil {
			return pctx, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
		}
		currency = parsed
	}

	marketID, err := optionalUUIDQuery(r, "market_id")
	if err != nil {
		return pctx, err
	}
	siteID, err := optionalUUIDQuery(r, "site_id")
	if err != nil {
		return pctx, err
	}
	channelID, err := optionalUUIDQuery(r, "channel_id")
	if err != nil {
		return pctx, err
	}
	priceListID, err := optionalUUIDQuery(r, "price_list_id")
	if err != nil {
		return pctx, err
	}
	groupID, err := optionalUUIDQuery(r, "customer_group_id")
	if err != nil {
		return pctx, err
	}

	pctx = pricing.Context{
		MarketID:        marketID,
		SiteID:          siteID,
		ChannelID:       channelID,
		PriceListID:     priceListID,
		CustomerGroupID: groupID,
		Currency:        currency,
		Quantity:        quantity,
	}
	return pctx, nil
}
