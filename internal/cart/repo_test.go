package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tallycart/tallycart-backend/pkg/config"
	"github.com/tallycart/tallycart-backend/pkg/db"
	"github.com/tallycart/tallycart-backend/pkg/db/models"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	client, err := db.New(context.Background(), config.DBConfig{
		DSN:    "file::memory:?cache=shared&busy_timeout=5000",
		Driver: "sqlite",
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.DB().AutoMigrate(&models.CartItem{}))
	t.Cleanup(func() {
		client.DB().Where("1 = 1").Delete(&models.CartItem{})
	})

	repo, err := NewRepository(client)
	require.NoError(t, err)
	return repo
}

func seedItem(t *testing.T, repo *Repository, identity Identity, key string, quantity int) *models.CartItem {
	t.Helper()
	item, err := repo.Create(context.Background(), &models.CartItem{
		UserID:          identity.UserID,
		CookieID:        identity.CookieID,
		PurchasableType: "product",
		PurchasableKey:  key,
		Quantity:        quantity,
	})
	require.NoError(t, err)
	return item
}

func TestRepositoryOwnerScoping(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	userID := uuid.New()
	user := Identity{UserID: &userID, CookieID: "ck-1"}
	guest := Identity{CookieID: "ck-1"}

	seedItem(t, repo, user, "p-1", 1)
	seedItem(t, repo, guest, "p-1", 2)

	forUser, err := repo.FindByOwnerAndPurchasable(ctx, user, "product", "p-1")
	require.NoError(t, err)
	require.NotNil(t, forUser.UserID)
	assert.Equal(t, userID, *forUser.UserID)

	forGuest, err := repo.FindByOwnerAndPurchasable(ctx, guest, "product", "p-1")
	require.NoError(t, err)
	assert.Nil(t, forGuest.UserID)
	assert.Equal(t, 2, forGuest.Quantity)

	_, err = repo.FindByOwnerAndPurchasable(ctx, guest, "product", "p-2")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryFindByIDNormalizes(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	item := seedItem(t, repo, Identity{CookieID: "ck-1"}, "p-1", 1)

	found, err := repo.FindByID(ctx, "  "+item.ID.String()+"  ")
	require.NoError(t, err)
	assert.Equal(t, item.ID, found.ID)

	_, err = repo.FindByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.FindByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryIncrementQuantity(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	item := seedItem(t, repo, Identity{CookieID: "ck-1"}, "p-1", 2)

	updated, err := repo.IncrementQuantity(ctx, item.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Quantity)

	_, err = repo.IncrementQuantity(ctx, uuid.New(), 1)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryUpdateQuantity(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	item := seedItem(t, repo, Identity{CookieID: "ck-1"}, "p-1", 2)

	require.NoError(t, repo.UpdateQuantity(ctx, item.ID, 9))

	found, err := repo.FindByID(ctx, item.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 9, found.Quantity)

	assert.ErrorIs(t, repo.UpdateQuantity(ctx, uuid.New(), 1), gorm.ErrRecordNotFound)
}

func TestRepositoryListByOwnerOrdersByAge(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	guest := Identity{CookieID: "ck-1"}

	older, err := repo.Create(ctx, &models.CartItem{
		CookieID:        guest.CookieID,
		PurchasableType: "product",
		PurchasableKey:  "p-old",
		Quantity:        1,
		CreatedAt:       time.Now().UTC().Add(-time.Hour),
		UpdatedAt:       time.Now().UTC().Add(-time.Hour),
	})
	require.NoError(t, err)
	seedItem(t, repo, guest, "p-new", 1)
	seedItem(t, repo, Identity{CookieID: "ck-2"}, "p-other", 1)

	items, err := repo.ListByOwner(ctx, guest)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, older.ID, items[0].ID)
}

func TestRepositoryDeleteAllByCookie(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	userID := uuid.New()
	seedItem(t, repo, Identity{UserID: &userID, CookieID: "ck-1"}, "p-1", 1)
	seedItem(t, repo, Identity{CookieID: "ck-1"}, "p-2", 1)
	survivor := seedItem(t, repo, Identity{CookieID: "ck-2"}, "p-3", 1)

	require.NoError(t, repo.DeleteAllByCookie(ctx, "ck-1"))

	var remaining []models.CartItem
	require.NoError(t, repo.client.DB().Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, survivor.ID, remaining[0].ID)
}

func TestRepositoryDeleteOlderThan(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	stale, err := repo.Create(ctx, &models.CartItem{
		CookieID:        "ck-old",
		PurchasableType: "product",
		PurchasableKey:  "p-1",
		Quantity:        1,
		CreatedAt:       time.Now().UTC().Add(-96 * time.Hour),
		UpdatedAt:       time.Now().UTC().Add(-96 * time.Hour),
	})
	require.NoError(t, err)
	fresh := seedItem(t, repo, Identity{CookieID: "ck-new"}, "p-2", 1)

	removed, err := repo.DeleteOlderThan(ctx, time.Now().UTC().Add(-48*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = repo.FindByID(ctx, stale.ID.String())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.FindByID(ctx, fresh.ID.String())
	assert.NoError(t, err)
}
