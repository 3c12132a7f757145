package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgauth "github.com/tallycart/tallycart-backend/pkg/auth"
	"github.com/tallycart/tallycart-backend/pkg/config"
)

func identityConfigs() (config.JWTConfig, config.CookieConfig) {
	jwtCfg := config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "tallycart",
		ExpirationMinutes: 60,
	}
	cookieCfg := config.CookieConfig{
		Name:            "cart_id",
		LifetimeMinutes: 43200,
	}
	return jwtCfg, cookieCfg
}

func runIdentity(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, *http.Request) {
	t.Helper()
	jwtCfg, cookieCfg := identityConfigs()

	var seen *http.Request
	handler := Identity(jwtCfg, cookieCfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r
		w.WriteHeader(http.StatusOK)
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp, seen
}

func TestIdentityMintsCookieForNewVisitor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp, seen := runIdentity(t, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	cookieID := CookieIDFromContext(seen.Context())
	if _, err := uuid.Parse(cookieID); err != nil {
		t.Fatalf("expected minted uuid cookie, got %q", cookieID)
	}

	cookies := resp.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "cart_id" || cookies[0].Value != cookieID {
		t.Fatalf("expected cart_id cookie to be set, got %v", cookies)
	}
	if !cookies[0].HttpOnly {
		t.Fatal("expected HttpOnly cookie")
	}
}

func TestIdentityReusesValidCookie(t *testing.T) {
	existing := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.AddCookie(&http.Cookie{Name: "cart_id", Value: existing})

	resp, seen := runIdentity(t, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if CookieIDFromContext(seen.Context()) != existing {
		t.Fatal("expected existing cookie id to be reused")
	}
	if len(resp.Result().Cookies()) != 0 {
		t.Fatal("existing cookie should not be re-set")
	}
}

func TestIdentityReplacesMalformedCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.AddCookie(&http.Cookie{Name: "cart_id", Value: "not-a-uuid"})

	resp, seen := runIdentity(t, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	minted := CookieIDFromContext(seen.Context())
	if minted == "not-a-uuid" {
		t.Fatal("malformed cookie should be replaced")
	}
	if _, err := uuid.Parse(minted); err != nil {
		t.Fatalf("expected fresh uuid, got %q", minted)
	}
}

func TestIdentityAttachesAuthenticatedUser(t *testing.T) {
	jwtCfg, _ := identityConfigs()
	userID := uuid.New()
	token, err := pkgauth.MintAccessToken(jwtCfg, time.Now(), userID)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, seen := runIdentity(t, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	identity, ok := IdentityFromContext(seen.Context())
	if !ok {
		t.Fatal("expected identity in context")
	}
	if identity.UserID == nil || *identity.UserID != userID {
		t.Fatalf("expected user %s, got %+v", userID, identity)
	}
	if identity.CookieID == "" {
		t.Fatal("authenticated visitor still gets a cookie id")
	}
}

func TestIdentityRejectsInvalidToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")

	resp, seen := runIdentity(t, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if seen != nil {
		t.Fatal("handler should not run for invalid credentials")
	}
}
