package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallycart/tallycart-backend/pkg/config"
	"github.com/tallycart/tallycart-backend/pkg/db"
	"github.com/tallycart/tallycart-backend/pkg/db/models"
)

func newTestProductRepo(t *testing.T) *ProductRepository {
	t.Helper()
	client, err := db.New(context.Background(), config.DBConfig{
		DSN:    "file::memory:?cache=shared&busy_timeout=5000",
		Driver: "sqlite",
	}, nil)
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	if err := client.DB().AutoMigrate(&models.Product{}); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	t.Cleanup(func() {
		client.DB().Where("1 = 1").Delete(&models.Product{})
	})

	repo, err := NewProductRepository(client)
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	return repo
}

func seedProduct(t *testing.T, repo *ProductRepository, title string, price decimal.Decimal) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:    uuid.New(),
		SKU:   "sku-" + uuid.NewString()[:8],
		Title: title,
		Price: price,
	}
	if err := repo.client.DB().Create(product).Error; err != nil {
		t.Fatalf("seeding product: %v", err)
	}
	return product
}

func TestProductResolverResolves(t *testing.T) {
	repo := newTestProductRepo(t)
	product := seedProduct(t, repo, "Widget", decimal.NewFromFloat(19.99))

	resolver := ProductResolver(repo)
	got, err := resolver(context.Background(), product.ID.String())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.Type != TypeProduct || got.Key != product.ID.String() {
		t.Fatalf("unexpected purchasable: %+v", got)
	}
	if got.Title != "Widget" || !got.Price.Equal(decimal.NewFromFloat(19.99)) {
		t.Fatalf("unexpected purchasable fields: %+v", got)
	}
}

func TestProductResolverDanglingReference(t *testing.T) {
	repo := newTestProductRepo(t)
	resolver := ProductResolver(repo)

	if _, err := resolver(context.Background(), uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing product should resolve as ErrNotFound, got %v", err)
	}
	if _, err := resolver(context.Background(), "not-a-uuid"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("malformed key should resolve as ErrNotFound, got %v", err)
	}
}

func TestRegisterProducts(t *testing.T) {
	repo := newTestProductRepo(t)
	product := seedProduct(t, repo, "Gadget", decimal.NewFromInt(5))

	registry := NewRegistry()
	if err := RegisterProducts(registry, repo); err != nil {
		t.Fatalf("register products: %v", err)
	}

	got, err := registry.Resolve(context.Background(), TypeProduct, product.ID.String())
	if err != nil {
		t.Fatalf("resolve through registry: %v", err)
	}
	if got.Title != "Gadget" {
		t.Fatalf("unexpected purchasable: %+v", got)
	}
}
