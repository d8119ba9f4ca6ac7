package brand

import (
	"fmt"

	"github.com/geocoder89/storefront/internal/market"
)

type ID string

const (
	BrandA ID = "brand-a"
	BrandB ID = "brand-b"
)

type NavPosition string

const (
	NavTop  NavPosition = "top"
	NavSide NavPosition = "side"
)

type Config struct {
	ID          ID          `json:"id"`
	Name        string      `json:"name"`
	NavPosition NavPosition `json:"navPosition"`
}

var Configs = map[ID]Config{
	BrandA: {ID: BrandA, Name: "Project A", NavPosition: NavTop},
	BrandB: {ID: BrandB, Name: "Project B", NavPosition: NavSide},
}

func Lookup(id string) (Config, error) {
	c, ok := Configs[ID(id)]
	if !ok {
		return Config{}, fmt.Errorf("unknown brand %q", id)
	}
	return c, nil
}

type Flag string

const (
	ShowReviews         Flag = "SHOW_REVIEWS"
	EnableWishlist      Flag = "ENABLE_WISHLIST"
	ShowRelatedProducts Flag = "SHOW_RELATED_PRODUCTS"
)

var AllFlags = []Flag{ShowReviews, EnableWishlist, ShowRelatedProducts}

var marketFlags = map[market.Market]map[Flag]bool{
	market.EN: {ShowReviews: true, EnableWishlist: true, ShowRelatedProducts: false},
	market.CA: {ShowReviews: false, EnableWishlist: false, ShowRelatedProducts: true},
}

// brand overrides take precedence over market defaults
var overrides = map[ID]map[Flag]bool{
	BrandA: {ShowReviews: false},
	BrandB: {ShowReviews: true},
}

func IsFeatureEnabled(flag Flag, m market.Market, id ID) bool {
	if v, ok := overrides[id][flag]; ok {
		return v
	}
	return marketFlags[m][flag]
}

// Flags resolves every flag for a market/brand pair.
func Flags(m market.Market, id ID) map[Flag]bool {
	out := make(map[Flag]bool, len(AllFlags))
	for _, f := range AllFlags {
		out[f] = IsFeatureEnabled(f, m, id)
	}
	return out
}
