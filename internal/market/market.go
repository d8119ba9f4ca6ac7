// Package market holds the storefront's market (locale/region) definitions
// and the route builders keyed by market.
package market

type Market string

const (
	EN Market = "en"
	CA Market = "ca"
)

// Default is used for redirects when the path carries no recognised market.
const Default = EN

var All = []Market{EN, CA}

type Config struct {
	Market   Market `json:"market"`
	Label    string `json:"label"`
	Locale   string `json:"locale"`
	Hreflang string `json:"hreflang"`
}

var Configs = map[Market]Config{
	EN: {Market: EN, Label: "English", Locale: "en-US", Hreflang: "en"},
	CA: {Market: CA, Label: "Canada", Locale: "en-CA", Hreflang: "en-CA"},
}

type Content struct {
	Title    string `json:"title"`
	HeroText string `json:"heroText"`
	CTALabel string `json:"ctaLabel"`
}

var content = map[Market]Content{
	EN: {
		Title:    "Welcome - English Market",
		HeroText: "Discover our full product catalogue.",
		CTALabel: "Browse Products",
	},
	CA: {
		Title:    "Bienvenue - Marché Canadien",
		HeroText: "Découvrez notre catalogue complet.",
		CTALabel: "Parcourir les produits",
	},
}

func IsValid(value string) bool {
	_, ok := Configs[Market(value)]
	return ok
}

// Parse returns the market for value, or false if it is not supported.
func Parse(value string) (Market, bool) {
	if !IsValid(value) {
		return "", false
	}
	return Market(value), true
}

// OrDefault falls back to Default for unrecognised segments.
func OrDefault(value string) Market {
	if m, ok := Parse(value); ok {
		return m
	}
	return Default
}

func ContentFor(m Market) Content {
	return content[m]
}
