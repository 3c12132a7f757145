package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tallycart/tallycart-backend/internal/catalog"
	"github.com/tallycart/tallycart-backend/pkg/config"
	"github.com/tallycart/tallycart-backend/pkg/db/models"
	"github.com/tallycart/tallycart-backend/pkg/logger"
)

// Options tune the cart engine per deployment.
type Options struct {
	LogEnabled     bool
	CacheEnabled   bool
	CacheKeyPrefix string
	CacheTTL       time.Duration
}

func OptionsFromConfig(cfg config.CartConfig) Options {
	return Options{
		LogEnabled:     cfg.LogEnabled,
		CacheEnabled:   cfg.CacheEnabled,
		CacheKeyPrefix: cfg.CacheKeyPrefix,
		CacheTTL:       cfg.CacheTTL(),
	}
}

type catalogResolver interface {
	Resolve(ctx context.Context, kind, key string) (*catalog.Purchasable, error)
}

// ServiceParams collects the service dependencies.
type ServiceParams struct {
	Store    Store
	Cache    Cache
	Catalog  catalogResolver
	Notifier Notifier
	Logger   *logger.Logger
	Options  Options
}

// Service is the cart engine. Per-identity work happens through sessions
// created by Session; only ClearAbandoned operates across identities.
type Service struct {
	store    Store
	cache    Cache
	catalog  catalogResolver
	notifier Notifier
	logg     *logger.Logger
	opts     Options
	now      func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog resolver is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if params.Options.CacheEnabled && params.Cache == nil {
		return nil, fmt.Errorf("cache is required when caching is enabled")
	}
	notifier := params.Notifier
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if params.Options.CacheTTL <= 0 {
		params.Options.CacheTTL = 60 * time.Minute
	}
	return &Service{
		store:    params.Store,
		cache:    params.Cache,
		catalog:  params.Catalog,
		notifier: notifier,
		logg:     params.Logger,
		opts:     params.Options,
		now:      time.Now,
	}, nil
}

// Session binds the engine to one identity for the duration of a request.
// Sessions memoize the materialized collection and are not safe for
// concurrent use.
func (s *Service) Session(identity Identity) *Session {
	return &Session{service: s, identity: identity}
}

// ClearAbandoned removes every cart line across all identities untouched for
// at least the given number of hours. It works directly against the store:
// no cache reads, no invalidation, no events.
func (s *Service) ClearAbandoned(ctx context.Context, hours int) (int64, error) {
	if hours < 0 {
		return 0, fmt.Errorf("hours must not be negative")
	}
	cutoff := s.now().UTC().Add(-time.Duration(hours) * time.Hour)
	removed, err := s.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("clearing abandoned cart items: %w", err)
	}
	s.log(ctx, "cleared abandoned cart items", map[string]any{
		"removed": removed,
		"cutoff":  cutoff,
	})
	return removed, nil
}

func (s *Service) log(ctx context.Context, msg string, fields map[string]any) {
	if !s.opts.LogEnabled {
		return
	}
	if len(fields) > 0 {
		ctx = s.logg.WithFields(ctx, fields)
	}
	s.logg.Info(ctx, msg)
}

// Session is one identity's view of the cart.
type Session struct {
	service  *Service
	identity Identity
	items    []Item
}

func (s *Session) Identity() Identity {
	return s.identity
}

func (s *Session) cacheKey() string {
	return s.service.opts.CacheKeyPrefix + s.identity.Key()
}

// Add merges a purchasable reference into the cart. An existing line for the
// same reference gains quantity; otherwise a new line is created. Quantities
// below one count as one.
func (s *Session) Add(ctx context.Context, purchasableType, purchasableKey string, quantity int) (*Item, error) {
	if quantity < 1 {
		quantity = 1
	}
	s.log(ctx, "adding item to cart", map[string]any{
		"purchasable_type": purchasableType,
		"purchasable_key":  purchasableKey,
		"quantity":         quantity,
	})
	s.notify(ctx, EventItemAdding, map[string]any{
		"purchasable_type": purchasableType,
		"purchasable_key":  purchasableKey,
		"quantity":         quantity,
	})

	existing, err := s.service.store.FindByOwnerAndPurchasable(ctx, s.identity, purchasableType, purchasableKey)
	var row *models.CartItem
	switch {
	case err == nil:
		row, err = s.service.store.IncrementQuantity(ctx, existing.ID, quantity)
		if err != nil {
			return nil, fmt.Errorf("incrementing cart item quantity: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		row, err = s.service.store.Create(ctx, &models.CartItem{
			UserID:          s.identity.UserID,
			CookieID:        s.identity.CookieID,
			PurchasableType: purchasableType,
			PurchasableKey:  purchasableKey,
			Quantity:        quantity,
		})
		if err != nil {
			return nil, fmt.Errorf("creating cart item: %w", err)
		}
	default:
		return nil, fmt.Errorf("looking up cart item: %w", err)
	}

	if err := s.invalidate(ctx); err != nil {
		return nil, err
	}

	item := s.service.toItem(ctx, row)
	s.notify(ctx, EventItemAdded, item)
	return &item, nil
}

// Get returns the cart collection, memoized for the session lifetime and,
// when enabled, cached by identity.
func (s *Session) Get(ctx context.Context) ([]Item, error) {
	if len(s.items) > 0 {
		return s.items, nil
	}
	var (
		items []Item
		err   error
	)
	if s.service.opts.CacheEnabled {
		items, err = s.service.cache.Remember(ctx, s.cacheKey(), s.service.opts.CacheTTL, s.fetch)
	} else {
		items, err = s.fetch(ctx)
	}
	if err != nil {
		return nil, err
	}
	s.items = items
	return s.items, nil
}

// Update sets an absolute quantity on an existing line. A missing or
// malformed id is a no-op.
func (s *Session) Update(ctx context.Context, id string, quantity int) error {
	s.log(ctx, "updating cart item", map[string]any{
		"item_id":  id,
		"quantity": quantity,
	})
	row, err := s.service.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log(ctx, "cart item not found for update", map[string]any{"item_id": id})
			return nil
		}
		return fmt.Errorf("looking up cart item: %w", err)
	}
	if err := s.service.store.UpdateQuantity(ctx, row.ID, quantity); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("updating cart item quantity: %w", err)
	}
	if err := s.invalidate(ctx); err != nil {
		return err
	}
	row.Quantity = quantity
	s.notify(ctx, EventItemUpdated, s.service.toItem(ctx, row))
	return nil
}

// Delete removes one line by id. A missing or malformed id is a no-op.
func (s *Session) Delete(ctx context.Context, id string) error {
	s.log(ctx, "deleting cart item", map[string]any{"item_id": id})
	row, err := s.service.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log(ctx, "cart item not found for delete", map[string]any{"item_id": id})
			return nil
		}
		return fmt.Errorf("looking up cart item: %w", err)
	}
	if err := s.service.store.DeleteByID(ctx, row.ID); err != nil {
		return fmt.Errorf("deleting cart item: %w", err)
	}
	if err := s.invalidate(ctx); err != nil {
		return err
	}
	s.notify(ctx, EventItemDeleted, map[string]any{"item_id": row.ID.String()})
	return nil
}

// Clean empties the cart for the session cookie, covering guest lines and
// lines the cookie's user claimed after signing in.
func (s *Session) Clean(ctx context.Context) error {
	s.log(ctx, "cleaning cart", nil)
	if err := s.service.store.DeleteAllByCookie(ctx, s.identity.CookieID); err != nil {
		return fmt.Errorf("cleaning cart: %w", err)
	}
	if err := s.invalidate(ctx); err != nil {
		return err
	}
	s.notify(ctx, EventCleared, map[string]any{"cookie_id": s.identity.CookieID})
	return nil
}

// Total is the sum of unit price times quantity over the collection. Lines
// whose purchasable no longer resolves price at zero.
func (s *Session) Total(ctx context.Context) (decimal.Decimal, error) {
	items, err := s.Get(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, item := range items {
		if item.Purchasable == nil {
			continue
		}
		line := item.Purchasable.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
	}
	return total, nil
}

// ItemsCount is the number of distinct lines.
func (s *Session) ItemsCount(ctx context.Context) (int, error) {
	items, err := s.Get(ctx)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// TotalQuantity is the sum of quantities across lines.
func (s *Session) TotalQuantity(ctx context.Context) (int, error) {
	items, err := s.Get(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total, nil
}

func (s *Session) fetch(ctx context.Context) ([]Item, error) {
	rows, err := s.service.store.ListByOwner(ctx, s.identity)
	if err != nil {
		return nil, fmt.Errorf("listing cart items: %w", err)
	}
	items := make([]Item, 0, len(rows))
	for i := range rows {
		items = append(items, s.service.toItem(ctx, &rows[i]))
	}
	return items, nil
}

// invalidate drops the cached collection and the session memo after a
// write. Cache invalidation failures propagate; serving a stale cart after
// a write is worse than failing the write.
func (s *Session) invalidate(ctx context.Context) error {
	s.items = nil
	if !s.service.opts.CacheEnabled {
		return nil
	}
	return s.service.cache.Forget(ctx, s.cacheKey())
}

func (s *Session) notify(ctx context.Context, name string, data any) {
	s.service.notifier.Notify(ctx, Event{
		Name:       name,
		Identity:   s.identity.Key(),
		OccurredAt: s.service.now().UTC(),
		Data:       data,
	})
}

func (s *Session) log(ctx context.Context, msg string, fields map[string]any) {
	if !s.service.opts.LogEnabled {
		return
	}
	ctx = s.service.logg.WithIdentity(ctx, s.identity.Key())
	s.service.log(ctx, msg, fields)
}

func (s *Service) toItem(ctx context.Context, row *models.CartItem) Item {
	item := Item{
		ID:              row.ID.String(),
		PurchasableType: row.PurchasableType,
		PurchasableKey:  row.PurchasableKey,
		Quantity:        row.Quantity,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
	purchasable, err := s.catalog.Resolve(ctx, row.PurchasableType, row.PurchasableKey)
	if err != nil {
		if !errors.Is(err, catalog.ErrNotFound) && !errors.Is(err, catalog.ErrUnknownType) {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"purchasable_type": row.PurchasableType,
				"purchasable_key":  row.PurchasableKey,
			}), "resolving purchasable failed")
		}
		return item
	}
	item.Purchasable = purchasable
	return item
}
