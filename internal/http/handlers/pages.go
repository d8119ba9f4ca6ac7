package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/geocoder89/storefront/internal/brand"
	"github.com/geocoder89/storefront/internal/catalog"
	"github.com/geocoder89/storefront/internal/domain/user"
	"github.com/geocoder89/storefront/internal/market"
	"github.com/gin-gonic/gin"
)

type ProductCatalog interface {
	List(ctx context.Context, limit int) (catalog.ProductList, error)
	Get(ctx context.Context, id string) (catalog.ProductDetail, error)
}

type SessionViewer interface {
	Session(r *http.Request) (user.Payload, bool)
}

const (
	productPageSize = 30
	relatedLimit    = 4
	robotsNoIndex   = "noindex, nofollow"
)

// PagesHandler serves the storefront view-models. Rendering is left to the
// client; these responses carry everything a page needs.
type PagesHandler struct {
	sessions SessionViewer
	catalog  ProductCatalog
	brand    brand.Config
	log      *slog.Logger
}

func NewPagesHandler(sessions SessionViewer, products ProductCatalog, b brand.Config, log *slog.Logger) *PagesHandler {
	if log == nil {
		log = slog.Default()
	}
	return &PagesHandler{
		sessions: sessions,
		catalog:  products,
		brand:    b,
		log:      log,
	}
}

type HomeView struct {
	Market        market.Config     `json:"market"`
	Markets       []market.Config   `json:"markets"`
	Brand         brand.Config      `json:"brand"`
	Content       market.Content    `json:"content"`
	Authenticated bool              `json:"authenticated"`
	User          *user.Payload     `json:"user,omitempty"`
	Links         map[string]string `json:"links"`
}

type LoginView struct {
	Market      market.Config `json:"market"`
	Brand       brand.Config  `json:"brand"`
	CallbackURL string        `json:"callbackUrl"`
}

type ProductCard struct {
	ID              int      `json:"id"`
	Title           string   `json:"title"`
	Price           float64  `json:"price"`
	DiscountedPrice *float64 `json:"discountedPrice,omitempty"`
	Rating          float64  `json:"rating"`
	Thumbnail       string   `json:"thumbnail"`
	Category        string   `json:"category"`
	Href            string   `json:"href"`
}

type ProductsView struct {
	Market   market.Config       `json:"market"`
	Brand    brand.Config        `json:"brand"`
	User     user.Payload        `json:"user"`
	Flags    map[brand.Flag]bool `json:"flags"`
	Products []ProductCard       `json:"products"`
	Total    int                 `json:"total"`
	Robots   string              `json:"robots"`
}

// MemberInfo is only ever built for an authenticated viewer.
type MemberInfo struct {
	Warranty     string           `json:"warranty"`
	Shipping     string           `json:"shipping"`
	ReturnPolicy string           `json:"returnPolicy"`
	Reviews      []catalog.Review `json:"reviews,omitempty"`
}

type ProductView struct {
	Market  market.Config       `json:"market"`
	Brand   brand.Config        `json:"brand"`
	User    user.Payload        `json:"user"`
	Flags   map[brand.Flag]bool `json:"flags"`
	Product catalog.Product     `json:"product"`
	Member  MemberInfo          `json:"member"`
	Related []ProductCard       `json:"related,omitempty"`
	Robots  string              `json:"robots"`
	Back    string              `json:"back"`
}

// marketFrom resolves the :market segment; unknown markets get a 404.
func marketFrom(ctx *gin.Context) (market.Market, bool) {
	m, ok := market.Parse(ctx.Param("market"))
	if !ok {
		RespondNotFound(ctx, "market not found")
		return "", false
	}
	return m, true
}

// member returns the viewer's session, or redirects to login. The route guard
// normally does this first; the check here keeps member data off the wire
// even if a route is mounted without it.
func (h *PagesHandler) member(ctx *gin.Context, m market.Market) (user.Payload, bool) {
	p, ok := h.sessions.Session(ctx.Request)
	if !ok {
		ctx.Redirect(http.StatusTemporaryRedirect, market.LoginRedirect(m, ctx.Request.URL.Path))
		ctx.Abort()
		return user.Payload{}, false
	}
	return p, true
}

// Home handles GET /:market.
func (h *PagesHandler) Home(ctx *gin.Context) {
	m, ok := marketFrom(ctx)
	if !ok {
		return
	}

	markets := make([]market.Config, 0, len(market.All))
	for _, mk := range market.All {
		markets = append(markets, market.Configs[mk])
	}

	view := HomeView{
		Market:  market.Configs[m],
		Markets: markets,
		Brand:   h.brand,
		Content: market.ContentFor(m),
		Links: map[string]string{
			"login":    market.LoginPath(m),
			"products": market.ProductsPath(m),
		},
	}

	if p, ok := h.sessions.Session(ctx.Request); ok {
		view.Authenticated = true
		view.User = &p
	}

	ctx.JSON(http.StatusOK, view)
}

// Login handles GET /:market/login.
func (h *PagesHandler) Login(ctx *gin.Context) {
	m, ok := marketFrom(ctx)
	if !ok {
		return
	}

	if _, ok := h.sessions.Session(ctx.Request); ok {
		ctx.Redirect(http.StatusTemporaryRedirect, market.ProductsPath(m))
		return
	}

	ctx.Header("X-Robots-Tag", robotsNoIndex)
	ctx.JSON(http.StatusOK, LoginView{
		Market:      market.Configs[m],
		Brand:       h.brand,
		CallbackURL: market.ResolveCallback(m, ctx.Query("callbackUrl")),
	})
}

// Products handles GET /:market/products.
func (h *PagesHandler) Products(ctx *gin.Context) {
	m, ok := marketFrom(ctx)
	if !ok {
		return
	}

	viewer, ok := h.member(ctx, m)
	if !ok {
		return
	}

	list, err := h.catalog.List(ctx.Request.Context(), productPageSize)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "list products failed", "err", err)
		RespondBadGateway(ctx, "catalog unavailable")
		return
	}

	ctx.Header("X-Robots-Tag", robotsNoIndex)
	RespondJSONWithETag(ctx, http.StatusOK, ProductsView{
		Market:   market.Configs[m],
		Brand:    h.brand,
		User:     viewer,
		Flags:    brand.Flags(m, h.brand.ID),
		Products: cards(m, list.Products),
		Total:    list.Total,
		Robots:   robotsNoIndex,
	})
}

// Product handles GET /:market/product/:id.
func (h *PagesHandler) Product(ctx *gin.Context) {
	m, ok := marketFrom(ctx)
	if !ok {
		return
	}

	viewer, ok := h.member(ctx, m)
	if !ok {
		return
	}

	detail, err := h.catalog.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			RespondNotFound(ctx, "product not found")
			return
		}
		h.log.ErrorContext(ctx.Request.Context(), "get product failed", "err", err, "product_id", ctx.Param("id"))
		RespondBadGateway(ctx, "catalog unavailable")
		return
	}

	flags := brand.Flags(m, h.brand.ID)

	view := ProductView{
		Market:  market.Configs[m],
		Brand:   h.brand,
		User:    viewer,
		Flags:   flags,
		Product: detail.Product,
		Member: MemberInfo{
			Warranty:     detail.WarrantyInformation,
			Shipping:     detail.ShippingInformation,
			ReturnPolicy: detail.ReturnPolicy,
		},
		Robots: robotsNoIndex,
		Back:   market.ProductsPath(m),
	}

	if flags[brand.ShowReviews] {
		view.Member.Reviews = detail.Reviews
	}

	if flags[brand.ShowRelatedProducts] {
		// related products are a nicety; a catalog failure here is not fatal
		if list, err := h.catalog.List(ctx.Request.Context(), productPageSize); err == nil {
			view.Related = related(m, detail.Product, list.Products)
		} else {
			h.log.WarnContext(ctx.Request.Context(), "related products unavailable", "err", err)
		}
	}

	ctx.Header("X-Robots-Tag", robotsNoIndex)
	RespondJSONWithETag(ctx, http.StatusOK, view)
}

func cards(m market.Market, products []catalog.Product) []ProductCard {
	out := make([]ProductCard, 0, len(products))
	for _, p := range products {
		out = append(out, card(m, p))
	}
	return out
}

func card(m market.Market, p catalog.Product) ProductCard {
	return ProductCard{
		ID:              p.ID,
		Title:           p.Title,
		Price:           p.Price,
		DiscountedPrice: p.DiscountedPrice(),
		Rating:          p.Rating,
		Thumbnail:       p.Thumbnail,
		Category:        p.Category,
		Href:            market.ProductPath(m, strconv.Itoa(p.ID)),
	}
}

// related picks other products from the same category.
func related(m market.Market, current catalog.Product, all []catalog.Product) []ProductCard {
	out := make([]ProductCard, 0, relatedLimit)
	for _, p := range all {
		if p.ID == current.ID || p.Category != current.Category {
			continue
		}
		out = append(out, card(m, p))
		if len(out) == relatedLimit {
			break
		}
	}
	return out
}
