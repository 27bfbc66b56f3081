package middleware

import (
	"net/http"
	"strings"
)

const (
	clientHeaders   = "Content-Type, Authorization"
	operatorHeaders = "Content-Type, X-API-Key"
	preflightMaxAge = "600"
)

// operatorRoutes are called by trusted back-office tools with X-API-Key.
// Browser clients of the login flow never send that header.
var operatorRoutes = []string{"/api/send-message", "/api/otp/"}

// CORS adds Access-Control headers for allowed origins and short-circuits
// preflight requests. Operator routes advertise X-API-Key, client routes the
// bearer Authorization header.
func CORS(allowedOrigins []string, next http.Handler) http.Handler {
	allowAll := false
	normalized := make([]string, 0, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
			break
		}
		normalized = append(normalized, strings.ToLower(origin))
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (allowAll || containsOrigin(normalized, origin)) {
			h := w.Header()
			if allowAll {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			h.Set("Vary", "Origin")
			h.Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			if isOperatorRoute(r.URL.Path) {
				h.Set("Access-Control-Allow-Headers", operatorHeaders)
			} else {
				h.Set("Access-Control-Allow-Headers", clientHeaders)
			}
			h.Set("Access-Control-Max-Age", preflightMaxAge)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func isOperatorRoute(path string) bool {
	for _, prefix := range operatorRoutes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func containsOrigin(allowed []string, origin string) bool {
	origin = strings.ToLower(origin)
	for _, candidate := range allowed {
		if candidate == origin {
			return true
		}
	}
	return false
}
