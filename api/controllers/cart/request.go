package cart

// AddItemRequest merges a purchasable reference into the cart. Quantity is
// optional and defaults to one.
type AddItemRequest struct {
	PurchasableType string `json:"purchasable_type" validate:"required"`
	PurchasableKey  string `json:"purchasable_key" validate:"required"`
	Quantity        *int   `json:"quantity" validate:"omitempty,min=1"`
}

func (r AddItemRequest) quantity() int {
	if r.Quantity == nil {
		return 1
	}
	return *r.Quantity
}

// UpdateItemRequest sets an absolute quantity on a line.
type UpdateItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}
