package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/storefront/internal/brand"
	"github.com/geocoder89/storefront/internal/catalog"
	"github.com/geocoder89/storefront/internal/domain/user"
	"github.com/geocoder89/storefront/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

type fakeViewer struct {
	payload user.Payload
	ok      bool
}

func (f fakeViewer) Session(*http.Request) (user.Payload, bool) {
	return f.payload, f.ok
}

type fakeCatalog struct {
	listFn func(ctx context.Context, limit int) (catalog.ProductList, error)
	getFn  func(ctx context.Context, id string) (catalog.ProductDetail, error)
}

func (f *fakeCatalog) List(ctx context.Context, limit int) (catalog.ProductList, error) {
	if f.listFn != nil {
		return f.listFn(ctx, limit)
	}
	return catalog.ProductList{}, nil
}

func (f *fakeCatalog) Get(ctx context.Context, id string) (catalog.ProductDetail, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return catalog.ProductDetail{}, catalog.ErrProductNotFound
}

var member = user.Payload{ID: "u-1", Email: "user@test.com", Name: "Test User", Role: user.RoleUser}

func sampleList() catalog.ProductList {
	return catalog.ProductList{
		Products: []catalog.Product{
			{ID: 1, Title: "Phone", Price: 100, DiscountPercentage: 10, Category: "smartphones"},
			{ID: 2, Title: "Other Phone", Price: 200, Category: "smartphones"},
			{ID: 3, Title: "Lipstick", Price: 10, Category: "beauty"},
		},
		Total: 3,
		Limit: 30,
	}
}

func sampleDetail() catalog.ProductDetail {
	return catalog.ProductDetail{
		Product:             sampleList().Products[0],
		WarrantyInformation: "1 year",
		ShippingInformation: "Ships in 2 days",
		ReturnPolicy:        "30 days",
		Reviews:             []catalog.Review{{Rating: 5, Comment: "Great", ReviewerName: "Ann"}},
	}
}

func newPagesRouter(viewer handlers.SessionViewer, cat handlers.ProductCatalog, b brand.ID) *gin.Engine {
	h := handlers.NewPagesHandler(viewer, cat, brand.Configs[b], nil)

	r := gin.New()
	r.GET("/:market", h.Home)
	r.GET("/:market/login", h.Login)
	r.GET("/:market/products", h.Products)
	r.GET("/:market/product/:id", h.Product)
	return r
}

func get(r http.Handler, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHome(t *testing.T) {
	cat := &fakeCatalog{}

	t.Run("anonymous", func(t *testing.T) {
		w := get(newPagesRouter(fakeViewer{}, cat, brand.BrandA), "/ca", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
		}

		var v handlers.HomeView
		if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
		if v.Authenticated || v.User != nil {
			t.Fatalf("expected anonymous view, got %+v", v)
		}
		if v.Content.CTALabel != "Parcourir les produits" {
			t.Fatalf("expected ca content, got %+v", v.Content)
		}
		if v.Links["products"] != "/ca/products" {
			t.Fatalf("unexpected links %v", v.Links)
		}
	})

	t.Run("member", func(t *testing.T) {
		w := get(newPagesRouter(fakeViewer{payload: member, ok: true}, cat, brand.BrandA), "/en", nil)

		var v handlers.HomeView
		if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
		if !v.Authenticated || v.User == nil || v.User.ID != member.ID {
			t.Fatalf("expected member view, got %+v", v)
		}
	})

	t.Run("unknown market", func(t *testing.T) {
		w := get(newPagesRouter(fakeViewer{}, cat, brand.BrandA), "/fr", nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected status %d, got %d", http.StatusNotFound, w.Code)
		}
	})
}

func TestLoginView(t *testing.T) {
	cat := &fakeCatalog{}

	tests := []struct {
		name     string
		viewer   fakeViewer
		path     string
		status   int
		location string
		callback string
	}{
		{"default callback", fakeViewer{}, "/en/login", http.StatusOK, "", "/en/products"},
		{"relative callback", fakeViewer{}, "/en/login?callbackUrl=%2Fen%2Fproduct%2F7", http.StatusOK, "", "/en/product/7"},
		{"external callback", fakeViewer{}, "/en/login?callbackUrl=https%3A%2F%2Fevil.example", http.StatusOK, "", "/en/products"},
		{"protocol relative callback", fakeViewer{}, "/ca/login?callbackUrl=%2F%2Fevil.example", http.StatusOK, "", "/ca/products"},
		{"already signed in", fakeViewer{payload: member, ok: true}, "/ca/login", http.StatusTemporaryRedirect, "/ca/products", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := get(newPagesRouter(tc.viewer, cat, brand.BrandA), tc.path, nil)

			if w.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, w.Code)
			}
			if tc.location != "" {
				if got := w.Header().Get("Location"); got != tc.location {
					t.Fatalf("expected Location %q, got %q", tc.location, got)
				}
				return
			}

			if got := w.Header().Get("X-Robots-Tag"); got != "noindex, nofollow" {
				t.Fatalf("expected login page to be noindex, got %q", got)
			}

			var v handlers.LoginView
			if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if v.CallbackURL != tc.callback {
				t.Fatalf("expected callback %q, got %q", tc.callback, v.CallbackURL)
			}
		})
	}
}

func TestProducts(t *testing.T) {
	var gotLimit int
	cat := &fakeCatalog{listFn: func(_ context.Context, limit int) (catalog.ProductList, error) {
		gotLimit = limit
		return sampleList(), nil
	}}
	r := newPagesRouter(fakeViewer{payload: member, ok: true}, cat, brand.BrandA)

	w := get(r, "/en/products", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d body=%s", http.StatusOK, w.Code, w.Body.String())
	}
	if gotLimit != 30 {
		t.Fatalf("expected page size 30, got %d", gotLimit)
	}
	if w.Header().Get("X-Robots-Tag") == "" {
		t.Fatalf("member pages must not be indexed")
	}

	var v handlers.ProductsView
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(v.Products) != 3 || v.Total != 3 {
		t.Fatalf("unexpected products %+v", v.Products)
	}
	if v.Products[0].Href != "/en/product/1" {
		t.Fatalf("unexpected href %q", v.Products[0].Href)
	}
	if v.Products[0].DiscountedPrice == nil || *v.Products[0].DiscountedPrice != 90 {
		t.Fatalf("expected discounted price 90, got %v", v.Products[0].DiscountedPrice)
	}
	if v.Products[1].DiscountedPrice != nil {
		t.Fatalf("undiscounted product must not carry a discounted price")
	}
	// brand-a disables reviews regardless of market
	if v.Flags[brand.ShowReviews] || !v.Flags[brand.EnableWishlist] {
		t.Fatalf("unexpected flags %v", v.Flags)
	}

	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected ETag header")
	}

	w = get(r, "/en/products", http.Header{"If-None-Match": {etag}})
	if w.Code != http.StatusNotModified {
		t.Fatalf("expected status %d, got %d", http.StatusNotModified, w.Code)
	}
}

func TestProducts_RequiresSession(t *testing.T) {
	called := false
	cat := &fakeCatalog{listFn: func(context.Context, int) (catalog.ProductList, error) {
		called = true
		return sampleList(), nil
	}}

	w := get(newPagesRouter(fakeViewer{}, cat, brand.BrandA), "/en/products", nil)

	if w.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected status %d, got %d", http.StatusTemporaryRedirect, w.Code)
	}
	if got := w.Header().Get("Location"); got != "/en/login?callbackUrl=%2Fen%2Fproducts" {
		t.Fatalf("unexpected Location %q", got)
	}
	if called {
		t.Fatalf("catalog must not be read without a session")
	}
}

func TestProducts_CatalogDown(t *testing.T) {
	cat := &fakeCatalog{listFn: func(context.Context, int) (catalog.ProductList, error) {
		return catalog.ProductList{}, errors.New("boom")
	}}

	w := get(newPagesRouter(fakeViewer{payload: member, ok: true}, cat, brand.BrandA), "/en/products", nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected status %d, got %d", http.StatusBadGateway, w.Code)
	}
}

func TestProduct(t *testing.T) {
	cat := &fakeCatalog{
		listFn: func(context.Context, int) (catalog.ProductList, error) { return sampleList(), nil },
		getFn: func(_ context.Context, id string) (catalog.ProductDetail, error) {
			if id != "1" {
				return catalog.ProductDetail{}, catalog.ErrProductNotFound
			}
			return sampleDetail(), nil
		},
	}
	viewer := fakeViewer{payload: member, ok: true}

	t.Run("reviews shown for brand-b", func(t *testing.T) {
		w := get(newPagesRouter(viewer, cat, brand.BrandB), "/en/product/1", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
		}

		var v handlers.ProductView
		if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
		if v.Member.Warranty != "1 year" || v.Member.ReturnPolicy != "30 days" {
			t.Fatalf("missing member info %+v", v.Member)
		}
		if len(v.Member.Reviews) != 1 {
			t.Fatalf("expected reviews, got %+v", v.Member.Reviews)
		}
		// related products are off in en
		if len(v.Related) != 0 {
			t.Fatalf("expected no related products, got %+v", v.Related)
		}
		if v.Back != "/en/products" {
			t.Fatalf("unexpected back link %q", v.Back)
		}
	})

	t.Run("reviews hidden and related shown for brand-a in ca", func(t *testing.T) {
		w := get(newPagesRouter(viewer, cat, brand.BrandA), "/ca/product/1", nil)

		var v handlers.ProductView
		if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
		if len(v.Member.Reviews) != 0 {
			t.Fatalf("expected reviews hidden, got %+v", v.Member.Reviews)
		}
		if len(v.Related) != 1 || v.Related[0].ID != 2 {
			t.Fatalf("expected the other smartphone as related, got %+v", v.Related)
		}
	})

	t.Run("not found", func(t *testing.T) {
		w := get(newPagesRouter(viewer, cat, brand.BrandA), "/en/product/999", nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected status %d, got %d", http.StatusNotFound, w.Code)
		}
	})
}
