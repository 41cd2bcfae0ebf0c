package auth

import (
	"net/http"
	"slices"
)

// Frontends resolves which frontend origin browser-facing responses should
// target. Only allow-listed origins are trusted; anything else falls back to
// the first configured origin so the user still lands on a known page.
// The fallback is deliberate: an unrecognized Origin degrades to the default
// frontend rather than hard-failing the callback.
type Frontends struct {
	allowed []string
}

// NewFrontends creates a resolver over the configured allow-list.
// The list must be non-empty; config validation guarantees that.
func NewFrontends(allowed []string) Frontends {
	return Frontends{allowed: allowed}
}

// Allows reports whether the origin is on the allow-list.
// Usable as a CORS origin validator.
func (f Frontends) Allows(origin string) bool {
	return slices.Contains(f.allowed, origin)
}

// Resolve returns the origin itself when allow-listed, the default otherwise.
func (f Frontends) Resolve(origin string) string {
	if origin != "" && f.Allows(origin) {
		return origin
	}
	return f.allowed[0]
}

// FromRequest resolves the frontend for a request based on its Origin header.
func (f Frontends) FromRequest(r *http.Request) string {
	return f.Resolve(r.Header.Get("Origin"))
}
