package cart

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/tallycart/tallycart-backend/api/middleware"
	"github.com/tallycart/tallycart-backend/api/responses"
	"github.com/tallycart/tallycart-backend/api/validators"
	cartsvc "github.com/tallycart/tallycart-backend/internal/cart"
	pkgerrors "github.com/tallycart/tallycart-backend/pkg/errors"
	"github.com/tallycart/tallycart-backend/pkg/logger"
)

// Session is the per-identity cart surface the handlers drive.
type Session interface {
	Get(ctx context.Context) ([]cartsvc.Item, error)
	Add(ctx context.Context, purchasableType, purchasableKey string, quantity int) (*cartsvc.Item, error)
	Update(ctx context.Context, id string, quantity int) error
	Delete(ctx context.Context, id string) error
	Clean(ctx context.Context) error
	Total(ctx context.Context) (decimal.Decimal, error)
	ItemsCount(ctx context.Context) (int, error)
	TotalQuantity(ctx context.Context) (int, error)
}

// SessionFactory opens a cart session for the request identity.
type SessionFactory func(identity cartsvc.Identity) Session

// Fetch returns the full cart collection.
func Fetch(sessions SessionFactory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFromRequest(sessions, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := session.Get(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(items))
	}
}

// Summary returns the derived cart aggregates without the line detail.
func Summary(sessions SessionFactory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFromRequest(sessions, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := r.Context()
		total, err := session.Total(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		count, err := session.ItemsCount(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		quantity, err := session.TotalQuantity(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSummaryResponse(total, count, quantity))
	}
}

// AddItem merges a purchasable into the cart.
func AddItem(sessions SessionFactory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFromRequest(sessions, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload AddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := session.Add(r.Context(), payload.PurchasableType, payload.PurchasableKey, payload.quantity())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

// UpdateItem sets an absolute quantity on an existing line. Unknown ids are
// acknowledged without effect.
func UpdateItem(sessions SessionFactory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFromRequest(sessions, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload UpdateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := session.Update(r.Context(), chi.URLParam(r, "id"), payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

// DeleteItem removes one line. Unknown ids are acknowledged without effect.
func DeleteItem(sessions SessionFactory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFromRequest(sessions, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := session.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// Clean empties the cart for the visitor cookie.
func Clean(sessions SessionFactory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFromRequest(sessions, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := session.Clean(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}

func sessionFromRequest(sessions SessionFactory, r *http.Request) (Session, error) {
	if sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable")
	}
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart identity missing")
	}
	return sessions(identity), nil
}
