package pricing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/merchantpulse/pricing-backend/pkg/config"
	"github.com/merchantpulse/pricing-backend/pkg/db/models"
	"github.com/merchantpulse/pricing-backend/pkg/enums"
	"github.com/merchantpulse/pricing-backend/pkg/logger"
	"github.com/merchantpulse/pricing-backend/pkg/metrics"
)

// Resolver picks the single best-matching base price for a variant under a
// pricing context. A nil price with a nil error is a resolution miss: the
// variant simply has no price for that context, and callers decide what to do.
type Resolver interface {
	Resolve(ctx context.Context, variantID uuid.UUID, pctx Context) (*models.Price, error)
	ResolveBulk(ctx context.Context, variantIDs []uuid.UUID, pctx Context) (map[uuid.UUID]*models.Price, error)
	Tiers(ctx context.Context, variantID uuid.UUID, pctx Context) ([]models.Price, error)
	InvalidateVariant(ctx context.Context, variantID uuid.UUID) error
	InvalidateAll(ctx context.Context) error
}

type resolver struct {
	repo  *Repository
	cache *ResolutionCache
	cfg   config.PricingConfig
	logg  *logger.Logger
	metr  *metrics.PricingMetrics
	now   func() time.Time
}

// NewResolver constructs a price resolver instance.
func NewResolver(repo *Repository, cache *ResolutionCache, cfg config.PricingConfig, logg *logger.Logger, metr *metrics.PricingMetrics) (Resolver, error) {
	if repo == nil {
		return nil, fmt.Errorf("pricing repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &resolver{
		repo:  repo,
		cache: cache,
		cfg:   cfg,
		logg:  logg,
		metr:  metr,
		now:   time.Now,
	}, nil
}

// scopeMatch classifies one scope dimension of a candidate against the
// context. A bound field that does not equal the context value (or whose
// context value is absent) is a hard mismatch, never just a lower score.
type scopeMatch int

const (
	scopeMismatch scopeMatch = iota
	scopeUnrestricted
	scopeMatches
)

func matchScope(bound, ctxVal *uuid.UUID) scopeMatch {
	if bound == nil {
		return scopeUnrestricted
	}
	if ctxVal == nil || *bound != *ctxVal {
		return scopeMismatch
	}
	return scopeMatches
}

func matchCatalog(price models.Price, pctx Context, lists map[uuid.UUID]models.PriceList) scopeMatch {
	if price.PriceListID == nil {
		return scopeUnrestricted
	}
	if pctx.PriceListID == nil || *price.PriceListID != *pctx.PriceListID {
		return scopeMismatch
	}
	list, ok := lists[*price.PriceListID]
	if !ok || !list.AllowsCustomerGroup(pctx.CustomerGroupID) {
		return scopeMismatch
	}
	return scopeMatches
}

// specificityRank maps a candidate's scope shape onto the fallback chain
// position, 1 (most specific) through 7 (all-null base price). Shapes the
// chain never queries, such as market+site without channel, are ineligible
// so bulk and single resolution stay exactly equivalent.
func specificityRank(market, site, channel, catalog scopeMatch) (int, bool) {
	if market == scopeMismatch || site == scopeMismatch ||
		channel == scopeMismatch || catalog == scopeMismatch {
		return 0, false
	}
	shape := 0
	if market == scopeMatches {
		shape |= 8
	}
	if site == scopeMatches {
		shape |= 4
	}
	if channel == scopeMatches {
		shape |= 2
	}
	if catalog == scopeMatches {
		shape |= 1
	}
	switch shape {
	case 0b1111:
		return 1, true
	case 0b1110:
		return 2, true
	case 0b1001:
		return 3, true
	case 0b0101:
		return 4, true
	case 0b1000:
		return 5, true
	case 0b0100:
		return 6, true
	case 0b0000:
		return 7, true
	}
	return 0, false
}

// Resolve returns the best base price for the variant, or nil on a miss.
func (r *resolver) Resolve(ctx context.Context, variantID uuid.UUID, pctx Context) (*models.Price, error) {
	if err := pctx.Validate(); err != nil {
		return nil, err
	}
	started := time.Now()
	defer func() {
		r.metr.ObserveDuration("resolve", time.Since(started))
	}()

	if r.cfg.CacheEnabled {
		if price, ok := r.cache.Get(ctx, variantID, pctx.CacheKey()); ok {
			return price, nil
		}
	}

	results, err := r.resolveMany(ctx, []uuid.UUID{variantID}, pctx)
	if err != nil {
		return nil, err
	}
	price := results[variantID]
	if r.cfg.CacheEnabled {
		r.cache.Set(ctx, variantID, pctx.CacheKey(), price)
	}
	r.observeOutcome(ctx, variantID, pctx, price)
	return price, nil
}

// ResolveBulk resolves many variants with a single price fetch. Results are
// identical to calling Resolve per variant.
func (r *resolver) ResolveBulk(ctx context.Context, variantIDs []uuid.UUID, pctx Context) (map[uuid.UUID]*models.Price, error) {
	if err := pctx.Validate(); err != nil {
		return nil, err
	}
	started := time.Now()
	defer func() {
		r.metr.ObserveDuration("resolve_bulk", time.Since(started))
	}()

	out := make(map[uuid.UUID]*models.Price, len(variantIDs))
	pending := make([]uuid.UUID, 0, len(variantIDs))
	for _, id := range variantIDs {
		if _, seen := out[id]; seen {
			continue
		}
		if r.cfg.CacheEnabled {
			if price, ok := r.cache.Get(ctx, id, pctx.CacheKey()); ok {
				out[id] = price
				continue
			}
		}
		out[id] = nil
		pending = append(pending, id)
	}
	if len(pending) == 0 {
		return out, nil
	}

	resolved, err := r.resolveMany(ctx, pending, pctx)
	if err != nil {
		return nil, err
	}
	for _, id := range pending {
		price := resolved[id]
		out[id] = price
		if r.cfg.CacheEnabled {
			r.cache.Set(ctx, id, pctx.CacheKey(), price)
		}
		r.observeOutcome(ctx, id, pctx, price)
	}
	return out, nil
}

// resolveMany fetches candidates once and picks the best price per variant.
func (r *resolver) resolveMany(ctx context.Context, variantIDs []uuid.UUID, pctx Context) (map[uuid.UUID]*models.Price, error) {
	now := r.now()
	candidates, err := r.repo.ListActivePrices(ctx, variantIDs, pctx.Currency, now)
	if err != nil {
		return nil, err
	}

	inTier := candidates[:0:0]
	for _, c := range candidates {
		if c.CoversQuantity(pctx.Quantity) {
			inTier = append(inTier, c)
		}
	}

	lists, err := r.loadPriceLists(ctx, inTier)
	if err != nil {
		return nil, err
	}

	out := make(map[uuid.UUID]*models.Price, len(variantIDs))
	for _, id := range variantIDs {
		out[id] = nil
	}
	bestRank := make(map[uuid.UUID]int, len(variantIDs))
	// Candidates arrive ordered by priority desc then id asc, so within a
	// rank the first seen candidate is the winner.
	for i := range inTier {
		c := inTier[i]
		rank, eligible := specificityRank(
			matchScope(c.MarketID, pctx.MarketID),
			matchScope(c.SiteID, pctx.SiteID),
			matchScope(c.ChannelID, pctx.ChannelID),
			matchCatalog(c, pctx, lists),
		)
		if !eligible {
			continue
		}
		if current, ok := bestRank[c.VariantID]; !ok || rank < current {
			bestRank[c.VariantID] = rank
			winner := c
			out[c.VariantID] = &winner
		}
	}

	for id, price := range out {
		if price == nil || price.PriceListID == nil {
			continue
		}
		if list, ok := lists[*price.PriceListID]; ok {
			adjusted := applyListAdjustment(*price, list)
			out[id] = &adjusted
		}
	}
	return out, nil
}

func (r *resolver) loadPriceLists(ctx context.Context, candidates []models.Price) (map[uuid.UUID]models.PriceList, error) {
	var ids []uuid.UUID
	seen := make(map[uuid.UUID]bool)
	for _, c := range candidates {
		if c.PriceListID != nil && !seen[*c.PriceListID] {
			seen[*c.PriceListID] = true
			ids = append(ids, *c.PriceListID)
		}
	}
	lists, err := r.repo.GetPriceListsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]models.PriceList, len(lists))
	for _, l := range lists {
		out[l.ID] = l
	}
	return out, nil
}

// applyListAdjustment shifts a catalog-bound price by its list's adjustment,
// never below zero. Percentage values are percents of the resolved amount;
// fixed values are minor units.
func applyListAdjustment(price models.Price, list models.PriceList) models.Price {
	if list.AdjustmentType == nil || list.AdjustmentValue.IsZero() {
		return price
	}
	amount := decimal.NewFromInt(price.AmountCents)
	var delta decimal.Decimal
	switch *list.AdjustmentType {
	case enums.AdjustmentTypePercentage:
		delta = amount.Mul(list.AdjustmentValue).Div(decimal.NewFromInt(100))
	case enums.AdjustmentTypeFixed:
		delta = list.AdjustmentValue
	default:
		return price
	}
	if list.AdjustmentDirection != nil && *list.AdjustmentDirection == enums.AdjustmentDirectionIncrease {
		amount = amount.Add(delta)
	} else {
		amount = amount.Sub(delta)
	}
	cents := amount.Round(0).IntPart()
	if cents < 0 {
		cents = 0
	}
	price.AmountCents = cents
	return price
}

// Tiers lists the variant's quantity-tier prices for the context's market,
// site, channel, and currency, sorted ascending by min quantity. Catalog
// binding is not constrained here.
func (r *resolver) Tiers(ctx context.Context, variantID uuid.UUID, pctx Context) ([]models.Price, error) {
	if err := pctx.Validate(); err != nil {
		return nil, err
	}
	candidates, err := r.repo.ListActivePrices(ctx, []uuid.UUID{variantID}, pctx.Currency, r.now())
	if err != nil {
		return nil, err
	}

	tiers := candidates[:0:0]
	for _, c := range candidates {
		if matchScope(c.MarketID, pctx.MarketID) == scopeMismatch ||
			matchScope(c.SiteID, pctx.SiteID) == scopeMismatch ||
			matchScope(c.ChannelID, pctx.ChannelID) == scopeMismatch {
			continue
		}
		tiers = append(tiers, c)
	}
	sort.SliceStable(tiers, func(i, j int) bool {
		if tiers[i].MinQuantity != tiers[j].MinQuantity {
			return tiers[i].MinQuantity < tiers[j].MinQuantity
		}
		return tiers[i].Priority > tiers[j].Priority
	})
	return tiers, nil
}

// InvalidateVariant drops cached resolutions for one variant.
func (r *resolver) InvalidateVariant(ctx context.Context, variantID uuid.UUID) error {
	return r.cache.InvalidateVariant(ctx, variantID)
}

// InvalidateAll drops every cached resolution.
func (r *resolver) InvalidateAll(ctx context.Context) error {
	return r.cache.InvalidateAll(ctx)
}

func (r *resolver) observeOutcome(ctx context.Context, variantID uuid.UUID, pctx Context, price *models.Price) {
	if price == nil {
		r.metr.IncResolution("not_found")
		lctx := r.logg.WithVariantID(ctx, variantID.String())
		lctx = r.logg.WithCurrency(lctx, string(pctx.Currency))
		r.logg.Debug(lctx, "price resolution miss")
		return
	}
	r.metr.IncResolution("resolved")
}
