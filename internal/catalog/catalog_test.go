package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/geocoder89/storefront/internal/cache"
)

func newCatalogServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Query().Get("limit") != "30" || r.URL.Query().Get("select") == "" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"products":[{"id":1,"title":"Phone","price":100,"discountPercentage":10,"stock":3,"images":["a.png"]}],"total":1,"skip":0,"limit":30}`))
	})
	mux.HandleFunc("/products/1", func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"id":1,"title":"Phone","price":100,"returnPolicy":"30 days","reviews":[{"rating":5,"comment":"great","reviewerName":"Ann","date":"2026-01-01"}]}`))
	})
	mux.HandleFunc("/products/404", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/products/500", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_ListIsCached(t *testing.T) {
	var hits atomic.Int32
	srv := newCatalogServer(t, &hits)
	c := NewClient(srv.URL+"/", srv.Client(), cache.New(time.Minute))

	for i := 0; i < 2; i++ {
		list, err := c.List(context.Background(), 30)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(list.Products) != 1 || list.Products[0].Title != "Phone" {
			t.Fatalf("unexpected list: %+v", list)
		}
	}

	if hits.Load() != 1 {
		t.Fatalf("catalog hit %d times, want 1", hits.Load())
	}
}

func TestClient_Get(t *testing.T) {
	var hits atomic.Int32
	srv := newCatalogServer(t, &hits)
	c := NewClient(srv.URL, srv.Client(), nil)

	p, err := c.Get(context.Background(), "1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.ReturnPolicy != "30 days" || len(p.Reviews) != 1 {
		t.Fatalf("unexpected detail: %+v", p)
	}

	if _, err := c.Get(context.Background(), "404"); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("err = %v, want ErrProductNotFound", err)
	}
	if _, err := c.Get(context.Background(), "500"); err == nil || errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestProduct_DiscountedPrice(t *testing.T) {
	if (Product{Price: 100}).DiscountedPrice() != nil {
		t.Fatalf("no discount should yield nil")
	}
	got := (Product{Price: 100, DiscountPercentage: 25}).DiscountedPrice()
	if got == nil || *got != 75 {
		t.Fatalf("discounted price = %v, want 75", got)
	}
}

func TestClient_RateLimitFailsWhenWaitExceedsLoadBound(t *testing.T) {
	var hits atomic.Int32
	srv := newCatalogServer(t, &hits)
	// one token, refilled far slower than the test runs
	c := NewClient(srv.URL, srv.Client(), nil, WithRateLimit(0.001, 1))

	if _, err := c.Get(context.Background(), "1"); err != nil {
		t.Fatalf("first get: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := c.List(ctx, 30); err == nil {
		t.Fatalf("expected the throttled request to fail")
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("hits = %d, want 1", got)
	}

	// cached reads skip the limiter
	if _, err := c.Get(ctx, "1"); err != nil {
		t.Fatalf("cached get: %v", err)
	}
}
