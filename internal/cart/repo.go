package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tallycart/tallycart-backend/pkg/db"
	"github.com/tallycart/tallycart-backend/pkg/db/models"
)

// Store is the persistence contract for cart lines. Lookups that miss return
// gorm.ErrRecordNotFound; the service translates that into silent no-ops
// where the operation allows it.
type Store interface {
	FindByOwnerAndPurchasable(ctx context.Context, identity Identity, purchasableType, purchasableKey string) (*models.CartItem, error)
	FindByID(ctx context.Context, id string) (*models.CartItem, error)
	ListByOwner(ctx context.Context, identity Identity) ([]models.CartItem, error)
	Create(ctx context.Context, item *models.CartItem) (*models.CartItem, error)
	IncrementQuantity(ctx context.Context, id uuid.UUID, delta int) (*models.CartItem, error)
	UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error
	DeleteByID(ctx context.Context, id uuid.UUID) error
	DeleteAllByCookie(ctx context.Context, cookieID string) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Repository is the gorm-backed store.
type Repository struct {
	client *db.Client
	now    func() time.Time
}

func NewRepository(client *db.Client) (*Repository, error) {
	if client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	return &Repository{client: client, now: time.Now}, nil
}

// ownerScope narrows a query to rows owned by the identity. Authenticated
// rows are keyed by user id; guest rows by cookie id with no user attached.
func ownerScope(identity Identity) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if identity.UserID != nil {
			return tx.Where("user_id = ?", *identity.UserID)
		}
		return tx.Where("cookie_id = ? AND user_id IS NULL", identity.CookieID)
	}
}

func (r *Repository) FindByOwnerAndPurchasable(ctx context.Context, identity Identity, purchasableType, purchasableKey string) (*models.CartItem, error) {
	var item models.CartItem
	err := r.client.DB().WithContext(ctx).
		Scopes(ownerScope(identity)).
		Where("purchasable_type = ? AND purchasable_key = ?", purchasableType, purchasableKey).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByID accepts any string form of the id. Surrounding whitespace is
// trimmed and a malformed uuid reads the same as a missing row.
func (r *Repository) FindByID(ctx context.Context, id string) (*models.CartItem, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	var item models.CartItem
	if err := r.client.DB().WithContext(ctx).Where("id = ?", parsed).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) ListByOwner(ctx context.Context, identity Identity) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.client.DB().WithContext(ctx).
		Scopes(ownerScope(identity)).
		Order("created_at ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *Repository) Create(ctx context.Context, item *models.CartItem) (*models.CartItem, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if err := r.client.DB().WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// IncrementQuantity adds delta to the stored quantity in a single UPDATE so
// concurrent adds for the same line never lose increments.
func (r *Repository) IncrementQuantity(ctx context.Context, id uuid.UUID, delta int) (*models.CartItem, error) {
	res := r.client.DB().WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"quantity":   gorm.Expr("quantity + ?", delta),
			"updated_at": r.now().UTC(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	var item models.CartItem
	if err := r.client.DB().WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	res := r.client.DB().WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"quantity":   quantity,
			"updated_at": r.now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	return r.client.DB().WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.CartItem{}).Error
}

// DeleteAllByCookie removes every line minted under a cookie, both guest
// lines and lines later claimed by an authenticated user.
func (r *Repository) DeleteAllByCookie(ctx context.Context, cookieID string) error {
	return r.client.DB().WithContext(ctx).
		Where("cookie_id = ?", cookieID).
		Delete(&models.CartItem{}).Error
}

// DeleteOlderThan removes lines across all identities whose last touch
// predates the cutoff. Returns the number of rows removed.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.client.DB().WithContext(ctx).
		Where("updated_at < ?", cutoff).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
