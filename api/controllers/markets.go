package controllers

import (
	"net/http"

	"github.com/merchantpulse/pricing-backend/api/responses"
	"github.com/merchantpulse/pricing-backend/api/validators"
	"github.com/merchantpulse/pricing-backend/internal/markets"
	"github.com/merchantpulse/pricing-backend/pkg/db/models"
	pkgerrors "github.com/merchantpulse/pricing-backend/pkg/errors"
	"github.com/merchantpulse/pricing-backend/pkg/logger"
)

// PaymentMethodView is the wire shape of a payment method.
type PaymentMethodView struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Priority int    `json:"priority"`
}

// ShippingMethodView is the wire shape of a shipping method.
type ShippingMethodView struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// TaxRequest is the JSON body of a tax calculation.
type TaxRequest struct {
	AmountCents int64   `json:"amount_cents" validate:"min=0"`
	CountryCode string  `json:"country_code" validate:"required"`
	StateCode   *string `json:"state_code,omitempty"`
	ProductType *string `json:"product_type,omitempty"`
}

// MarketPaymentMethods lists the payment methods the market allows.
func MarketPaymentMethods(svc markets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "markets service unavailable"))
			return
		}

		marketID, err := uuidParam(r, "marketId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		methods, err := svc.AvailablePaymentMethods(r.Context(), &marketID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]PaymentMethodView, 0, len(methods))
		for _, m := range methods {
			views = append(views, PaymentMethodView{Code: m.Code, Name: m.Name, Priority: m.Priority})
		}
		responses.WriteSuccess(w, views)
	}
}

// MarketShippingMethods lists the shipping methods the market allows,
// narrowed to the destination country when one is given.
func MarketShippingMethods(svc markets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "markets service unavailable"))
			return
		}

		marketID, err := uuidParam(r, "marketId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		countryCode := r.URL.Query().Get("country")

		methods, err := svc.AvailableShippingMethods(r.Context(), &marketID, countryCode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]ShippingMethodView, 0, len(methods))
		for _, m := range methods {
			views = append(views, shippingMethodView(m))
		}
		responses.WriteSuccess(w, views)
	}
}

func shippingMethodView(m models.ShippingMethod) ShippingMethodView {
	return ShippingMethodView{Code: m.Code, Name: m.Name}
}

// MarketTax computes the tax breakdown for an amount in the market's region.
func MarketTax(svc markets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "markets service unavailable"))
			return
		}

		marketID, err := uuidParam(r, "marketId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload TaxRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CalculateTax(r.Context(), markets.TaxInput{
			AmountCents: payload.AmountCents,
			MarketID:    marketID,
			CountryCode: payload.CountryCode,
			StateCode:   payload.StateCode,
			ProductType: payload.ProductType,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// MarketValidate reports configuration problems with the market.
func MarketValidate(svc markets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "markets service unavailable"))
			return
		}

		marketID, err := uuidParam(r, "marketId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		problems, err := svc.ValidateMarket(r.Context(), marketID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if problems == nil {
			problems = []string{}
		}

		responses.WriteSuccess(w, map[string]any{
			"valid":    len(problems) == 0,
			"problems": problems,
		})
	}
}
