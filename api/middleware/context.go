package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/tallycart/tallycart-backend/internal/cart"
)

type contextKey string

const (
	ctxUserID   contextKey = "user_id"
	ctxCookieID contextKey = "cookie_id"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func CookieIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxCookieID).(string); ok {
		return v
	}
	return ""
}

// WithUserID injects the authenticated user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithCookieID injects the visitor cookie identifier into the context.
func WithCookieID(ctx context.Context, cookieID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCookieID, cookieID)
}

// IdentityFromContext assembles the cart identity seeded by the identity
// middleware. ok is false when no cookie id was minted for the request.
func IdentityFromContext(ctx context.Context) (cart.Identity, bool) {
	cookieID := CookieIDFromContext(ctx)
	if cookieID == "" {
		return cart.Identity{}, false
	}
	identity := cart.Identity{CookieID: cookieID}
	if raw := UserIDFromContext(ctx); raw != "" {
		if parsed, err := uuid.Parse(raw); err == nil {
			identity.UserID = &parsed
		}
	}
	return identity, true
}
