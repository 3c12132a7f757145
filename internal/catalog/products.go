package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tallycart/tallycart-backend/pkg/db"
	"github.com/tallycart/tallycart-backend/pkg/db/models"
)

// TypeProduct is the type discriminator for catalog products.
const TypeProduct = "product"

// ProductRepository reads catalog products for resolution.
type ProductRepository struct {
	client *db.Client
}

func NewProductRepository(client *db.Client) (*ProductRepository, error) {
	if client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	return &ProductRepository{client: client}, nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.client.DB().WithContext(ctx).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ProductResolver adapts the product repository to the registry contract.
// Keys are product UUIDs; malformed keys resolve the same as missing rows.
func ProductResolver(repo *ProductRepository) Resolver {
	return func(ctx context.Context, key string) (*Purchasable, error) {
		id, err := uuid.Parse(key)
		if err != nil {
			return nil, ErrNotFound
		}
		product, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		return &Purchasable{
			Type:  TypeProduct,
			Key:   product.ID.String(),
			Title: product.Title,
			Price: product.Price,
		}, nil
	}
}

// RegisterProducts wires the product resolver into the registry.
func RegisterProducts(registry *Registry, repo *ProductRepository) error {
	return registry.Register(TypeProduct, ProductResolver(repo))
}
