package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/tallycart/tallycart-backend/api/middleware"
	cartsvc "github.com/tallycart/tallycart-backend/internal/cart"
)

type stubSession struct {
	items    []cartsvc.Item
	total    decimal.Decimal
	err      error
	lastAdd  AddItemRequest
	updates  map[string]int
	deleted  []string
	cleaned  int
	identity cartsvc.Identity
}

func (s *stubSession) Get(context.Context) ([]cartsvc.Item, error) {
	return s.items, s.err
}

func (s *stubSession) Add(_ context.Context, purchasableType, purchasableKey string, quantity int) (*cartsvc.Item, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.lastAdd = AddItemRequest{PurchasableType: purchasableType, PurchasableKey: purchasableKey, Quantity: &quantity}
	return &cartsvc.Item{ID: "item-1", PurchasableType: purchasableType, PurchasableKey: purchasableKey, Quantity: quantity}, nil
}

func (s *stubSession) Update(_ context.Context, id string, quantity int) error {
	if s.err != nil {
		return s.err
	}
	if s.updates == nil {
		s.updates = map[string]int{}
	}
	s.updates[id] = quantity
	return nil
}

func (s *stubSession) Delete(_ context.Context, id string) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubSession) Clean(context.Context) error {
	if s.err != nil {
		return s.err
	}
	s.cleaned++
	return nil
}

func (s *stubSession) Total(context.Context) (decimal.Decimal, error) {
	return s.total, s.err
}

func (s *stubSession) ItemsCount(context.Context) (int, error) {
	return len(s.items), s.err
}

func (s *stubSession) TotalQuantity(context.Context) (int, error) {
	quantity := 0
	for _, item := range s.items {
		quantity += item.Quantity
	}
	return quantity, s.err
}

func stubFactory(session *stubSession) SessionFactory {
	return func(identity cartsvc.Identity) Session {
		session.identity = identity
		return session
	}
}

func withIdentity(req *http.Request, cookieID string) *http.Request {
	return req.WithContext(middleware.WithCookieID(req.Context(), cookieID))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestFetchSuccess(t *testing.T) {
	session := &stubSession{items: []cartsvc.Item{{ID: "item-1", Quantity: 2}}}
	handler := Fetch(stubFactory(session), nil)

	req := withIdentity(httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil), "ck-1")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data cartResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Items) != 1 || envelope.Data.Items[0].ID != "item-1" {
		t.Fatalf("unexpected payload: %+v", envelope.Data)
	}
	if session.identity.CookieID != "ck-1" {
		t.Fatalf("expected session bound to cookie, got %+v", session.identity)
	}
}

func TestFetchMissingIdentity(t *testing.T) {
	handler := Fetch(stubFactory(&stubSession{}), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}

func TestAddItemSuccess(t *testing.T) {
	session := &stubSession{}
	handler := AddItem(stubFactory(session), nil)

	body := strings.NewReader(`{"purchasable_type":"product","purchasable_key":"p-1","quantity":3}`)
	req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", body), "ck-1")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if session.lastAdd.PurchasableKey != "p-1" || *session.lastAdd.Quantity != 3 {
		t.Fatalf("unexpected add call: %+v", session.lastAdd)
	}
}

func TestAddItemDefaultsQuantity(t *testing.T) {
	session := &stubSession{}
	handler := AddItem(stubFactory(session), nil)

	body := strings.NewReader(`{"purchasable_type":"product","purchasable_key":"p-1"}`)
	req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", body), "ck-1")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if *session.lastAdd.Quantity != 1 {
		t.Fatalf("expected default quantity 1, got %d", *session.lastAdd.Quantity)
	}
}

func TestAddItemValidation(t *testing.T) {
	handler := AddItem(stubFactory(&stubSession{}), nil)

	cases := map[string]string{
		"missing type":  `{"purchasable_key":"p-1"}`,
		"zero quantity": `{"purchasable_type":"product","purchasable_key":"p-1","quantity":0}`,
		"bad json":      `{`,
	}
	for name, payload := range cases {
		req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(payload)), "ck-1")
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 got %d", name, resp.Code)
		}
	}
}

func TestUpdateItem(t *testing.T) {
	session := &stubSession{}
	handler := UpdateItem(stubFactory(session), nil)

	body := strings.NewReader(`{"quantity":5}`)
	req := withIdentity(httptest.NewRequest(http.MethodPatch, "/api/v1/cart/items/abc", body), "ck-1")
	req = withURLParam(req, "id", "abc")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if session.updates["abc"] != 5 {
		t.Fatalf("unexpected updates: %v", session.updates)
	}
}

func TestUpdateItemRejectsZeroQuantity(t *testing.T) {
	handler := UpdateItem(stubFactory(&stubSession{}), nil)

	body := strings.NewReader(`{"quantity":0}`)
	req := withIdentity(httptest.NewRequest(http.MethodPatch, "/api/v1/cart/items/abc", body), "ck-1")
	req = withURLParam(req, "id", "abc")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestDeleteItem(t *testing.T) {
	session := &stubSession{}
	handler := DeleteItem(stubFactory(session), nil)

	req := withIdentity(httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/abc", nil), "ck-1")
	req = withURLParam(req, "id", "abc")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if len(session.deleted) != 1 || session.deleted[0] != "abc" {
		t.Fatalf("unexpected deletes: %v", session.deleted)
	}
}

func TestClean(t *testing.T) {
	session := &stubSession{}
	handler := Clean(stubFactory(session), nil)

	req := withIdentity(httptest.NewRequest(http.MethodDelete, "/api/v1/cart", nil), "ck-1")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if session.cleaned != 1 {
		t.Fatalf("expected one clean call, got %d", session.cleaned)
	}
}

func TestSummary(t *testing.T) {
	session := &stubSession{
		items: []cartsvc.Item{{ID: "a", Quantity: 2}, {ID: "b", Quantity: 3}},
		total: decimal.NewFromFloat(42.50),
	}
	handler := Summary(stubFactory(session), nil)

	req := withIdentity(httptest.NewRequest(http.MethodGet, "/api/v1/cart/summary", nil), "ck-1")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data struct {
			Total         decimal.Decimal `json:"total"`
			ItemsCount    int             `json:"items_count"`
			TotalQuantity int             `json:"total_quantity"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Data.Total.Equal(decimal.NewFromFloat(42.50)) {
		t.Fatalf("expected total 42.50, got %s", envelope.Data.Total)
	}
	if envelope.Data.ItemsCount != 2 || envelope.Data.TotalQuantity != 5 {
		t.Fatalf("unexpected summary: %+v", envelope.Data)
	}
}
