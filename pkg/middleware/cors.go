// pkg/middleware/cors.go
package middleware

import (
	"net/http"
)

// AllowedHeaders is the fixed request-header allowlist sent on every response.
const AllowedHeaders = "authorization, x-client-info, apikey, content-type"

// CORS applies the process-wide constant policy: any origin, the given method
// list, the fixed header allowlist. Preflight OPTIONS is answered here with an
// empty 204 and never reaches the handler.
func CORS(methods string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", "*")
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", AllowedHeaders)
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
