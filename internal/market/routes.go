package market

import (
	"net/url"
	"strings"
)

func HomePath(m Market) string {
	return "/" + string(m)
}

func LoginPath(m Market) string {
	return "/" + string(m) + "/login"
}

func ProductsPath(m Market) string {
	return "/" + string(m) + "/products"
}

func ProductPath(m Market, id string) string {
	return "/" + string(m) + "/product/" + url.PathEscape(id)
}

// LoginRedirect builds the login URL that returns the user to callback after sign-in.
func LoginRedirect(m Market, callback string) string {
	v := url.Values{}
	v.Set("callbackUrl", callback)
	return LoginPath(m) + "?" + v.Encode()
}

// ResolveCallback picks where to send a user after login. Only same-origin
// relative paths are honoured; anything else falls back to the product listing.
func ResolveCallback(m Market, raw string) string {
	if raw == "" ||
		!strings.HasPrefix(raw, "/") ||
		strings.HasPrefix(raw, "//") ||
		strings.HasPrefix(raw, "/\\") ||
		strings.ContainsAny(raw, "\r\n") {
		return ProductsPath(m)
	}
	return raw
}
