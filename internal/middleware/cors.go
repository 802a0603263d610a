package middleware

import (
	"net/http"
	"strings"
)

// CORS lets browser clients on allowedOrigin call the API.
//
// allowedOrigin is either "*" or a comma-separated list of exact origins.
// Requests from other origins get no CORS headers and are left to the
// browser to block. Preflight OPTIONS requests are answered with 204 and
// never reach the router.
func CORS(allowedOrigin string) func(http.Handler) http.Handler {
	allowAll := strings.TrimSpace(allowedOrigin) == "*"
	var origins []string
	for o := range strings.SplitSeq(allowedOrigin, ",") {
		if o = strings.TrimSpace(o); o != "" && o != "*" {
			origins = append(origins, strings.ToLower(o))
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				h := w.Header()
				h.Add("Vary", "Origin")
				switch {
				case allowAll:
					h.Set("Access-Control-Allow-Origin", "*")
				case originAllowed(origin, origins):
					h.Set("Access-Control-Allow-Origin", origin)
				}
				if h.Get("Access-Control-Allow-Origin") != "" {
					h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
					h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
					h.Set("Access-Control-Expose-Headers", "X-Request-ID, Retry-After")
					h.Set("Access-Control-Max-Age", "86400")
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(origin string, allowed []string) bool {
	origin = strings.ToLower(strings.TrimSpace(origin))
	for _, a := range allowed {
		if a == origin {
			return true
		}
	}
	return false
}
