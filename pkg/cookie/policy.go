package cookie

import (
	"net"
	"net/http"
	"net/url"
	"strings"
)

const (
	// SessionTokenName is the cookie carrying the gateway's session token.
	SessionTokenName = "session_token"

	// SessionTokenMaxAge matches the session token TTL (24h).
	SessionTokenMaxAge = 86400
)

// Spec describes the attributes applied to the session token cookie.
type Spec struct {
	Name     string
	Domain   string
	Path     string
	MaxAge   int
	Secure   bool
	HTTPOnly bool
	SameSite http.SameSite
}

// Policy derives the session token cookie attributes from the deployment
// environment. Production serves a separate frontend origin, so the cookie
// must cross sites: SameSite=None, which browsers only accept together with
// Secure, and a registrable parent domain so subdomains share the cookie.
// Non-production keeps the browser defaults friendly to plain-HTTP localhost.
func Policy(isProduction bool, frontendURL string) Spec {
	spec := Spec{
		Name:     SessionTokenName,
		Path:     "/",
		MaxAge:   SessionTokenMaxAge,
		HTTPOnly: true,
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
	}
	if isProduction {
		spec.Secure = true
		spec.SameSite = http.SameSiteNoneMode
		spec.Domain = parentDomain(frontendURL)
	}
	return spec
}

// Apply writes a cookie with the given value and the attributes of spec.
func Apply(w http.ResponseWriter, spec Spec, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     spec.Name,
		Value:    value,
		Domain:   spec.Domain,
		Path:     spec.Path,
		MaxAge:   spec.MaxAge,
		Secure:   spec.Secure,
		HttpOnly: spec.HTTPOnly,
		SameSite: spec.SameSite,
	})
}

// parentDomain extracts the registrable parent domain ("app.example.com" ->
// ".example.com") from a frontend URL. IP addresses, single-label hosts like
// localhost, and unparseable URLs yield an empty domain, leaving the cookie
// host-only.
func parentDomain(frontendURL string) string {
	u, err := url.Parse(frontendURL)
	if err != nil {
		return ""
	}
	host := u.Hostname()
	if host == "" || net.ParseIP(host) != nil || !strings.Contains(host, ".") {
		return ""
	}
	labels := strings.Split(host, ".")
	if len(labels) > 2 {
		labels = labels[len(labels)-2:]
	}
	return "." + strings.Join(labels, ".")
}
