package middleware

import (
	"net/http"
	"strings"
)

const (
	corsAllowHeaders = "Content-Type, X-Request-Id"
	corsAllowMethods = "GET, POST, OPTIONS"
	corsMaxAge       = "600"
)

// CORS lets the booking web page call the API from another origin. Origins are an
// allowlist; "*" echoes any Origin back. Preflight requests are answered directly.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := newOriginSet(allowedOrigins)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			if allowed.permits(origin) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
				h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				h.Set("Access-Control-Allow-Methods", corsAllowMethods)
				h.Set("Access-Control-Max-Age", corsMaxAge)
			}
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type originSet struct {
	any     bool
	origins map[string]struct{}
}

func newOriginSet(origins []string) originSet {
	set := originSet{origins: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		switch o = strings.TrimRight(strings.TrimSpace(o), "/"); o {
		case "":
		case "*":
			set.any = true
		default:
			set.origins[o] = struct{}{}
		}
	}
	return set
}

func (s originSet) permits(origin string) bool {
	if s.any {
		return true
	}
	_, ok := s.origins[strings.TrimRight(origin, "/")]
	return ok
}

// ParseOrigins splits a comma-separated CORS_ALLOWED_ORIGINS value.
func ParseOrigins(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
