package cart

import (
	"github.com/shopspring/decimal"

	cartsvc "github.com/tallycart/tallycart-backend/internal/cart"
)

type cartResponse struct {
	Items []cartsvc.Item `json:"items"`
}

func newCartResponse(items []cartsvc.Item) cartResponse {
	if items == nil {
		items = []cartsvc.Item{}
	}
	return cartResponse{Items: items}
}

type summaryResponse struct {
	Total         decimal.Decimal `json:"total"`
	ItemsCount    int             `json:"items_count"`
	TotalQuantity int             `json:"total_quantity"`
}

func newSummaryResponse(total decimal.Decimal, itemsCount, totalQuantity int) summaryResponse {
	return summaryResponse{
		Total:         total,
		ItemsCount:    itemsCount,
		TotalQuantity: totalQuantity,
	}
}
