package cart

import (
	"time"

	"github.com/tallycart/tallycart-backend/internal/catalog"
)

// Item is the externally visible shape of one cart line. The purchasable is
// populated when the referenced entity still resolves; a nil purchasable
// means the reference dangles and the line contributes nothing to totals.
type Item struct {
	ID              string               `json:"id"`
	PurchasableType string               `json:"purchasable_type"`
	PurchasableKey  string               `json:"purchasable_key"`
	Quantity        int                  `json:"quantity"`
	Purchasable     *catalog.Purchasable `json:"purchasable,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}
