// Package catalog reads products from the third-party catalog API
// (dummyjson-compatible) and keeps responses in a TTL cache.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/geocoder89/storefront/internal/cache"
	"golang.org/x/time/rate"
)

var ErrProductNotFound = errors.New("product not found")

type Product struct {
	ID                 int      `json:"id"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Price              float64  `json:"price"`
	DiscountPercentage float64  `json:"discountPercentage"`
	Rating             float64  `json:"rating"`
	Stock              int      `json:"stock"`
	Brand              string   `json:"brand,omitempty"`
	Category           string   `json:"category"`
	Thumbnail          string   `json:"thumbnail"`
	Images             []string `json:"images"`
}

// DiscountedPrice is nil when the product carries no discount.
func (p Product) DiscountedPrice() *float64 {
	if p.DiscountPercentage <= 0 {
		return nil
	}
	v := p.Price * (1 - p.DiscountPercentage/100)
	return &v
}

type Review struct {
	Rating       int    `json:"rating"`
	Comment      string `json:"comment"`
	ReviewerName string `json:"reviewerName"`
	Date         string `json:"date"`
}

type ProductDetail struct {
	Product
	WarrantyInformation string   `json:"warrantyInformation"`
	ShippingInformation string   `json:"shippingInformation"`
	ReturnPolicy        string   `json:"returnPolicy"`
	Reviews             []Review `json:"reviews"`
}

type ProductList struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Skip     int       `json:"skip"`
	Limit    int       `json:"limit"`
}

// loadTimeout bounds a shared upstream load, limiter wait included.
const loadTimeout = 10 * time.Second

const listFields = "id,title,description,price,discountPercentage,rating,stock,brand,category,thumbnail,images"

type Client struct {
	baseURL string
	http    *http.Client
	cache   *cache.Cache
	limiter *rate.Limiter
}

type Option func(*Client)

// WithRateLimit caps upstream requests; cache hits are never throttled.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

func NewClient(baseURL string, httpClient *http.Client, c *cache.Cache, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	if c == nil {
		c = cache.New(5 * time.Minute)
	}

	client := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		cache:   c,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// List returns the first limit products. Concurrent misses share one
// upstream call, bounded by loadTimeout rather than by any single caller.
func (c *Client) List(ctx context.Context, limit int) (ProductList, error) {
	v, err := c.cache.GetOrLoad(ctx, fmt.Sprintf("list:%d", limit), func(ctx context.Context) (any, error) {
		ctx, cancel := context.WithTimeout(ctx, loadTimeout)
		defer cancel()

		q := url.Values{}
		q.Set("limit", fmt.Sprint(limit))
		q.Set("select", listFields)

		var out ProductList
		if err := c.getJSON(ctx, "/products?"+q.Encode(), &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return ProductList{}, err
	}

	return v.(ProductList), nil
}

func (c *Client) Get(ctx context.Context, id string) (ProductDetail, error) {
	v, err := c.cache.GetOrLoad(ctx, "product:"+id, func(ctx context.Context) (any, error) {
		ctx, cancel := context.WithTimeout(ctx, loadTimeout)
		defer cancel()

		var out ProductDetail
		if err := c.getJSON(ctx, "/products/"+url.PathEscape(id), &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return ProductDetail{}, err
	}

	return v.(ProductDetail), nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("catalog rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrProductNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("catalog request: unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode catalog response: %w", err)
	}

	return nil
}
