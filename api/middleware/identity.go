package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/tallycart/tallycart-backend/api/responses"
	pkgauth "github.com/tallycart/tallycart-backend/pkg/auth"
	"github.com/tallycart/tallycart-backend/pkg/config"
	pkgerrors "github.com/tallycart/tallycart-backend/pkg/errors"
	"github.com/tallycart/tallycart-backend/pkg/logger"
)

// Identity resolves who the request shops as. Every visitor gets a cart
// cookie, minted here on first contact; a valid bearer token additionally
// attaches the authenticated user. Requests without credentials stay guests,
// but a credential that fails to verify is rejected.
func Identity(jwtCfg config.JWTConfig, cookieCfg config.CookieConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if raw := strings.TrimSpace(r.Header.Get("Authorization")); raw != "" {
				token := raw
				if strings.HasPrefix(strings.ToLower(token), "bearer ") {
					token = strings.TrimSpace(token[7:])
				}
				if token == "" {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
					return
				}
				claims, err := pkgauth.ParseAccessToken(jwtCfg, token)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
					return
				}
				ctx = WithUserID(ctx, claims.UserID.String())
				if logg != nil {
					ctx = logg.WithField(ctx, "user_id", claims.UserID.String())
				}
			}

			cookieID := visitorCookie(r, cookieCfg.Name)
			if cookieID == "" {
				cookieID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     cookieCfg.Name,
					Value:    cookieID,
					Path:     "/",
					MaxAge:   int(cookieCfg.Lifetime().Seconds()),
					HttpOnly: true,
					Secure:   cookieCfg.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			ctx = WithCookieID(ctx, cookieID)
			if logg != nil {
				ctx = logg.WithIdentity(ctx, cookieID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func visitorCookie(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	value := strings.TrimSpace(cookie.Value)
	if _, err := uuid.Parse(value); err != nil {
		return ""
	}
	return value
}
