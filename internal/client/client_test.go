package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/simp-lee/shopsync/internal/domain"
)

func newTestResource(t *testing.T, handler http.Handler, opts ...ResourceOption) (*Resource[domain.Product], *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return NewResource[domain.Product](c, "products", opts...), srv
}

func TestNewRejectsEmptyBaseURL(t *testing.T) {
	if _, err := New("   "); err == nil {
		t.Fatal("expected error for empty base URL")
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		predicate func(error) bool
		label     string
	}{
		{"500 is server error", http.StatusInternalServerError, `{"code":500,"message":"boom"}`, domain.IsServer, "server"},
		{"503 is server error", http.StatusServiceUnavailable, `oops`, domain.IsServer, "server"},
		{"404 is not found", http.StatusNotFound, `{"code":404,"message":"not found"}`, domain.IsNotFound, "not found"},
		{"400 is validation error", http.StatusBadRequest, `{"code":400,"message":"validation error","errors":{"name":"required"}}`, domain.IsValidation, "validation"},
		{"409 is validation error", http.StatusConflict, `{"code":409,"message":"already exists"}`, domain.IsValidation, "validation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestResource(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))

			_, err := r.List(context.Background(), domain.PageRequest{Page: 0, PageSize: 20})
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.predicate(err) {
				t.Errorf("expected %s error, got %v", tt.label, err)
			}
		})
	}
}

func TestValidationErrorCarriesFieldMessages(t *testing.T) {
	r, _ := newTestResource(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":400,"message":"validation error","errors":{"name":"min=2"}}`))
	}))

	// Payload passes local validation so the request reaches the server.
	payload := &domain.Product{Name: "Widget", PriceCents: 100}
	_, err := r.Create(context.Background(), payload)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var appErr *domain.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *domain.AppError, got %T", err)
	}
	if appErr.Fields["name"] != "min=2" {
		t.Errorf("Fields[name]=%q; want %q", appErr.Fields["name"], "min=2")
	}
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	srv.Close() // connection refused from here on

	r := NewResource[domain.Product](c, "products")
	_, err = r.List(context.Background(), domain.PageRequest{PageSize: 20})
	if !domain.IsNetwork(err) {
		t.Errorf("expected network error, got %v", err)
	}
}

func TestTimeoutIsNetworkError(t *testing.T) {
	r, _ := newTestResource(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	r.c.http.Timeout = 20 * time.Millisecond

	_, err := r.List(context.Background(), domain.PageRequest{PageSize: 20})
	if !domain.IsNetwork(err) {
		t.Errorf("expected network error, got %v", err)
	}
}

func TestCreateValidatesLocally(t *testing.T) {
	requests := 0
	r, _ := newTestResource(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
	}))

	// Missing name and price: must fail before any network call.
	_, err := r.Create(context.Background(), &domain.Product{})
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	var appErr *domain.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *domain.AppError, got %T", err)
	}
	if appErr.Fields["name"] == "" {
		t.Error("expected field error for name")
	}
	if appErr.Fields["price_cents"] == "" {
		t.Error("expected field error for price_cents")
	}
	if requests != 0 {
		t.Errorf("requests=%d; want 0", requests)
	}
}

func TestBearerTokenAttached(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		got = req.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, WithToken("secret-token"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r := NewResource[domain.Product](c, "products")

	if _, err := r.List(context.Background(), domain.PageRequest{PageSize: 20}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if got != "Bearer secret-token" {
		t.Errorf("Authorization=%q; want %q", got, "Bearer secret-token")
	}
}

func TestGetByIDUsesDetailCache(t *testing.T) {
	requests := 0
	r, _ := newTestResource(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		w.Write([]byte(`{"code":200,"message":"success","data":{"id":7,"name":"Widget","price_cents":100}}`))
	}), WithDetailCacheTTL(time.Minute))

	for i := 0; i < 3; i++ {
		item, err := r.GetByID(context.Background(), 7)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if item.ID != 7 {
			t.Errorf("ID=%d; want 7", item.ID)
		}
	}
	if requests != 1 {
		t.Errorf("requests=%d; want 1", requests)
	}
}

func TestUpdateInvalidatesDetailCache(t *testing.T) {
	name := "Old"
	r, _ := newTestResource(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodPut {
			name = "New"
		}
		w.Write([]byte(`{"code":200,"message":"success","data":{"id":7,"name":"` + name + `","price_cents":100}}`))
	}), WithDetailCacheTTL(time.Minute))

	if _, err := r.GetByID(context.Background(), 7); err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if _, err := r.Update(context.Background(), 7, &domain.Product{Name: "New", PriceCents: 100}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	item, err := r.GetByID(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if item.Name != "New" {
		t.Errorf("Name=%q; want %q after invalidation", item.Name, "New")
	}
}

func TestListTranslatesPageToOneBased(t *testing.T) {
	var gotPage string
	r, _ := newTestResource(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotPage = req.URL.Query().Get("page")
		w.Write([]byte(`[]`))
	}))

	if _, err := r.List(context.Background(), domain.PageRequest{Page: 2, PageSize: 20}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if gotPage != "3" {
		t.Errorf("page param=%q; want %q", gotPage, "3")
	}
}

func TestSuggest(t *testing.T) {
	r, _ := newTestResource(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/suggest/products" {
			t.Errorf("path=%q; want /suggest/products", req.URL.Path)
		}
		w.Write([]byte(`{"code":200,"message":"success","data":["widget","widget pro"]}`))
	}))

	suggestions, err := r.Suggest(context.Background(), "wid")
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(suggestions) != 2 || suggestions[0] != "widget" {
		t.Errorf("suggestions=%v; want [widget, widget pro]", suggestions)
	}
}
