package syncservice

import (
	"net/http"
	"strings"
)

// defaultAllowedOrigins is the allowlist used when CORS_ORIGINS is
// unset.
var defaultAllowedOrigins = []string{
	"https://app.sg.endowus.com",
	"https://secure.fundsupermart.com",
}

const (
	corsAllowedMethods = "GET, POST, DELETE, OPTIONS"
	corsAllowedHeaders = "Content-Type, Authorization"
)

// originAllowlist decides, per request, whether an Origin is allowed
// to echo back as Access-Control-Allow-Origin. Unlike go-chi/cors's
// wildcard-friendly defaults, this never returns "*": exactly one
// origin is echoed, or the header is omitted.
type originAllowlist struct {
	origins map[string]bool
}

// newOriginAllowlist builds an allowlist from a comma-separated list
// of origins; a blank list falls back to defaultAllowedOrigins.
func newOriginAllowlist(commaSeparated string) *originAllowlist {
	set := map[string]bool{}
	commaSeparated = strings.TrimSpace(commaSeparated)
	if commaSeparated == "" {
		for _, o := range defaultAllowedOrigins {
			set[o] = true
		}
		return &originAllowlist{origins: set}
	}
	for _, o := range strings.Split(commaSeparated, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			set[o] = true
		}
	}
	return &originAllowlist{origins: set}
}

func (a *originAllowlist) allowed(origin string) bool {
	return origin != "" && a.origins[origin]
}

// Middleware applies the allowlist to every request, including
// preflight OPTIONS, with identical policy.
func (a *originAllowlist) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		w.Header().Add("Vary", "Origin")

		if a.allowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", corsAllowedMethods)
			w.Header().Set("Access-Control-Allow-Headers", corsAllowedHeaders)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
