package offers

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/angelmondragon/wholesale-offers/pkg/db"
	"github.com/angelmondragon/wholesale-offers/pkg/db/models"
	pkgerrors "github.com/angelmondragon/wholesale-offers/pkg/errors"
	"github.com/angelmondragon/wholesale-offers/pkg/logger"
	"github.com/angelmondragon/wholesale-offers/pkg/metrics"
	"github.com/angelmondragon/wholesale-offers/pkg/pagination"
	"github.com/angelmondragon/wholesale-offers/pkg/types"
)

// Service is the engine's public API plus the administrative authoring surface.
type Service interface {
	FindApplicableOffers(ctx context.Context, query ApplicableQuery) ([]Offer, error)
	CalculateCartOffers(ctx context.Context, lines []CartLineInput) (CalculationResult, error)

	CreateOffer(ctx context.Context, input OfferInput) (*Offer, error)
	UpdateOffer(ctx context.Context, id uuid.UUID, input OfferInput) (*Offer, error)
	ReplaceOfferScopes(ctx context.Context, id uuid.UUID, scope ScopeInput) (*Offer, error)
	DeleteOffer(ctx context.Context, id uuid.UUID) error
	GetOffer(ctx context.Context, id uuid.UUID) (*Offer, error)
	ListOffers(ctx context.Context, filter ListOffersFilter, page pagination.Params) (*OfferPage, error)
}

// OfferPage is one page of the admin listing.
type OfferPage struct {
	Offers     []Offer
	NextCursor string
}

// CartLineInput is a caller-supplied cart line. A nil UnitPrice is filled from
// the product's current catalog price.
type CartLineInput struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice *decimal.Decimal
}

// ApplicableQuery selects either a single-item context or a cart context.
type ApplicableQuery struct {
	Item  *ItemContext
	Lines []CartLineInput
}

// ProductLookup resolves product attributes from the catalog.
type ProductLookup interface {
	GetProductAttributes(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]types.ProductAttributes, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// ServiceOptions carries the optional collaborators and tunables.
type ServiceOptions struct {
	Cache          *BadgeCache
	Metrics        *metrics.OfferMetrics
	RoundingPlaces int32
	MaxCartLines   int
	Clock          func() time.Time
}

const (
	opCalculate  = "calculate"
	opApplicable = "applicable"

	defaultMaxCartLines = 500
)

type service struct {
	store    Store
	products ProductLookup
	cache    *BadgeCache
	metrics  *metrics.OfferMetrics
	logg     *logger.Logger
	calc     Calculator
	maxLines int
	now      func() time.Time
}

// NewService constructs the offers service.
func NewService(store Store, products ProductLookup, logg *logger.Logger, opts ServiceOptions) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("offer store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	maxLines := opts.MaxCartLines
	if maxLines <= 0 {
		maxLines = defaultMaxCartLines
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		store:    store,
		products: products,
		cache:    opts.Cache,
		metrics:  opts.Metrics,
		logg:     logg,
		calc:     NewCalculator(opts.RoundingPlaces),
		maxLines: maxLines,
		now:      func() time.Time { return clock().UTC() },
	}, nil
}

// FindApplicableOffers returns the live offers reachable from the context,
// ordered the way the calculator would evaluate them.
func (s *service) FindApplicableOffers(ctx context.Context, query ApplicableQuery) ([]Offer, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveDuration(opApplicable, time.Since(start)) }()

	var (
		offers []Offer
		err    error
	)
	switch {
	case query.Item != nil:
		offers, err = s.applicableForItem(ctx, *query.Item)
	case len(query.Lines) > 0:
		offers, err = s.applicableForCart(ctx, query.Lines)
	default:
		err = pkgerrors.New(pkgerrors.CodeValidation, "either an item context or cart lines are required")
	}
	if err != nil {
		s.metrics.IncFailure(opApplicable)
		return nil, err
	}
	return offers, nil
}

func (s *service) applicableForItem(ctx context.Context, item ItemContext) ([]Offer, error) {
	now := s.now()

	rows, version, result := s.cache.Get(ctx, item)
	s.metrics.IncCache(string(result))

	var attrs *types.ProductAttributes
	if item.ProductID != nil && *item.ProductID != uuid.Nil {
		found, err := s.products.GetProductAttributes(ctx, []uuid.UUID{*item.ProductID})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "product lookup failed")
		}
		a, ok := found[*item.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"product_id": item.ProductID.String()})
		}
		attrs = &a
	}
	match := MatchSetForItem(item, attrs)

	if result != cacheHit {
		var err error
		rows, err = s.store.ListActiveOffersMatching(ctx, now, match)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list matching offers")
		}
		s.cache.Put(ctx, item, version, rows)
	}

	eligible := ResolveEligible(s.toDomain(ctx, rows), match, now)
	return SortByPriority(eligible), nil
}

func (s *service) applicableForCart(ctx context.Context, input []CartLineInput) ([]Offer, error) {
	now := s.now()
	lines, err := s.resolveLines(ctx, input)
	if err != nil {
		return nil, err
	}
	match := MatchSetForCart(lines)
	rows, err := s.store.ListActiveOffersMatching(ctx, now, match)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list matching offers")
	}
	eligible := ResolveEligible(s.toDomain(ctx, rows), match, now)
	return SortByPriority(eligible), nil
}

// CalculateCartOffers resolves product labels, finds the eligible offers and
// runs the stacking evaluation. Any product that cannot be resolved fails the
// whole calculation.
func (s *service) CalculateCartOffers(ctx context.Context, input []CartLineInput) (CalculationResult, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveDuration(opCalculate, time.Since(start)) }()

	result, err := s.calculate(ctx, input)
	if err != nil {
		s.metrics.IncFailure(opCalculate)
		return CalculationResult{}, err
	}

	for _, applied := range result.AppliedOffers {
		s.metrics.IncApplied(applied.Type.String())
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"line_count":     len(input),
		"applied_count":  len(result.AppliedOffers),
		"total_discount": result.TotalDiscount.StringFixed(s.calc.places),
	})
	s.logg.Info(logCtx, "offers.calculate.complete")
	return result, nil
}

func (s *service) calculate(ctx context.Context, input []CartLineInput) (CalculationResult, error) {
	now := s.now()
	if len(input) == 0 {
		return s.calc.Apply(nil, nil), nil
	}
	lines, err := s.resolveLines(ctx, input)
	if err != nil {
		return CalculationResult{}, err
	}

	match := MatchSetForCart(lines)
	rows, err := s.store.ListActiveOffersMatching(ctx, now, match)
	if err != nil {
		return CalculationResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list matching offers")
	}
	eligible := ResolveEligible(s.toDomain(ctx, rows), match, now)
	return s.calc.Apply(lines, eligible), nil
}

// resolveLines validates the raw lines and joins them with catalog attributes.
func (s *service) resolveLines(ctx context.Context, input []CartLineInput) ([]ResolvedLine, error) {
	if len(input) > s.maxLines {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "cart exceeds %d lines", s.maxLines)
	}

	var errs error
	ids := make([]uuid.UUID, 0, len(input))
	for i, line := range input {
		prefix := fmt.Sprintf("lines[%d]", i)
		if line.ProductID == uuid.Nil {
			errs = multierr.Append(errs, invalid(prefix+".product_id", "is required"))
		}
		if line.Quantity <= 0 {
			errs = multierr.Append(errs, invalid(prefix+".quantity", "must be greater than 0"))
		} else if line.Quantity > MaxQuantity {
			errs = multierr.Append(errs, invalid(prefix+".quantity", fmt.Sprintf("must be at most %d", MaxQuantity)))
		}
		if line.UnitPrice != nil && line.UnitPrice.IsNegative() {
			errs = multierr.Append(errs, invalid(prefix+".unit_price", "must not be negative"))
		}
		ids = append(ids, line.ProductID)
	}
	if errs != nil {
		return nil, lineValidationError(errs)
	}

	attrs, err := s.products.GetProductAttributes(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "product lookup failed")
	}

	missing := map[string]struct{}{}
	resolved := make([]ResolvedLine, 0, len(input))
	for _, line := range input {
		a, ok := attrs[line.ProductID]
		if !ok {
			missing[line.ProductID.String()] = struct{}{}
			continue
		}
		price := a.UnitPrice
		if line.UnitPrice != nil {
			price = *line.UnitPrice
		}
		resolved = append(resolved, ResolvedLine{
			CartLine: CartLine{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				UnitPrice: price,
			},
			Category:   a.Category,
			Collection: a.Collection,
		})
	}
	if len(missing) > 0 {
		ids := make([]string, 0, len(missing))
		for id := range missing {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "products not found").
			WithDetails(map[string]any{"product_ids": ids})
	}
	return resolved, nil
}

func lineValidationError(errs error) error {
	details := map[string]string{}
	for _, err := range multierr.Errors(errs) {
		if fe, ok := err.(fieldError); ok {
			details[fe.field] = fe.message
		}
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, errs, "invalid cart lines").WithDetails(details)
}

// toDomain converts rows, skipping any whose reward columns are inconsistent.
func (s *service) toDomain(ctx context.Context, rows []models.Offer) []Offer {
	out := make([]Offer, 0, len(rows))
	for _, row := range rows {
		o, err := fromModel(row)
		if err != nil {
			s.logg.Warn(s.logg.WithField(s.logg.WithOfferID(ctx, row.ID.String()), "error", err.Error()), "offers.row.skipped")
			continue
		}
		out = append(out, o)
	}
	return out
}

// CreateOffer validates and persists a new offer with its scope set.
func (s *service) CreateOffer(ctx context.Context, input OfferInput) (*Offer, error) {
	if input.Scope == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid offer: scope").
			WithDetails(map[string]string{"scope": "is required"})
	}
	offer, err := BuildOffer(uuid.Nil, input)
	if err != nil {
		return nil, err
	}
	if err := s.checkFreeItemProduct(ctx, offer); err != nil {
		return nil, err
	}

	created, err := s.store.CreateOfferWithScopes(ctx, toModel(offer))
	if err != nil {
		return nil, storeError(err, "create offer")
	}
	out, err := s.fromRow(*created)
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx)
	logCtx := s.logg.WithOfferID(ctx, out.ID.String())
	if out.Scope.IsEmpty() {
		s.logg.Warn(logCtx, "offer.created_without_scope")
	}
	s.logg.Info(logCtx, "offer.created")
	return &out, nil
}

// UpdateOffer replaces the offer's scalar fields. The scope set is replaced only
// when the input carries one.
func (s *service) UpdateOffer(ctx context.Context, id uuid.UUID, input OfferInput) (*Offer, error) {
	existing, err := s.store.GetOffer(ctx, id)
	if err != nil {
		return nil, storeError(err, "load offer")
	}

	offer, err := BuildOffer(id, input)
	if err != nil {
		return nil, err
	}
	if input.Scope == nil {
		offer.Scope = scopeFromRows(existing.Scopes)
	}
	if err := s.checkFreeItemProduct(ctx, offer); err != nil {
		return nil, err
	}

	row := toModel(offer)
	row.CreatedAt = existing.CreatedAt
	updated, err := s.store.UpdateOfferWithScopes(ctx, row, input.Scope != nil)
	if err != nil {
		return nil, storeError(err, "update offer")
	}
	out, err := s.fromRow(*updated)
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx)
	s.logg.Info(s.logg.WithOfferID(ctx, id.String()), "offer.updated")
	return &out, nil
}

// ReplaceOfferScopes swaps the offer's whole scope set.
func (s *service) ReplaceOfferScopes(ctx context.Context, id uuid.UUID, scope ScopeInput) (*Offer, error) {
	rows := toScopeRows(id, scope.ToScope())
	if err := s.store.ReplaceOfferScopes(ctx, id, rows); err != nil {
		return nil, storeError(err, "replace offer scopes")
	}
	s.cache.Invalidate(ctx)
	s.logg.Info(s.logg.WithOfferID(ctx, id.String()), "offer.scopes_replaced")
	return s.GetOffer(ctx, id)
}

// DeleteOffer removes the offer and its scopes.
func (s *service) DeleteOffer(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteOffer(ctx, id); err != nil {
		return storeError(err, "delete offer")
	}
	s.cache.Invalidate(ctx)
	s.logg.Info(s.logg.WithOfferID(ctx, id.String()), "offer.deleted")
	return nil
}

// GetOffer loads a single offer.
func (s *service) GetOffer(ctx context.Context, id uuid.UUID) (*Offer, error) {
	row, err := s.store.GetOffer(ctx, id)
	if err != nil {
		return nil, storeError(err, "get offer")
	}
	out, err := s.fromRow(*row)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListOffers returns a page of offers in evaluation order.
func (s *service) ListOffers(ctx context.Context, filter ListOffersFilter, page pagination.Params) (*OfferPage, error) {
	after, err := pagination.ParseCursor(page.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor").
			WithDetails(map[string]string{"cursor": "is invalid"})
	}

	limit := pagination.NormalizeLimit(page.Limit)
	rows, err := s.store.ListOffers(ctx, filter, pagination.LimitWithBuffer(page.Limit), after)
	if err != nil {
		return nil, storeError(err, "list offers")
	}

	out := &OfferPage{}
	if len(rows) > limit {
		last := rows[limit-1]
		out.NextCursor = pagination.EncodeCursor(pagination.Cursor{Priority: last.Priority, ID: last.ID})
		rows = rows[:limit]
	}
	out.Offers = SortByPriority(s.toDomain(ctx, rows))
	return out, nil
}

func (s *service) fromRow(row models.Offer) (Offer, error) {
	out, err := fromModel(row)
	if err != nil {
		return Offer{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "stored offer is inconsistent")
	}
	return out, nil
}

func (s *service) checkFreeItemProduct(ctx context.Context, offer Offer) error {
	reward, ok := offer.Reward.(FreeItem)
	if !ok {
		return nil
	}
	exists, err := s.products.Exists(ctx, reward.ProductID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "product lookup failed")
	}
	if !exists {
		return pkgerrors.New(pkgerrors.CodeNotFound, "free item product not found").
			WithDetails(map[string]any{"free_item_product_id": reward.ProductID.String()})
	}
	return nil
}

func storeError(err error, action string) error {
	switch {
	case db.IsNotFound(err):
		return pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
	case db.IsUniqueViolation(err, ""):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, action+": duplicate offer")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: "+action)
	}
}
