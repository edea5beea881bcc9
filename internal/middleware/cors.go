package middleware

import "net/http"

// corsHeaders are sent on every API response, whatever the outcome.
var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Methods": "get, options",
	"Access-Control-Allow-Headers": "content-type",
}

// CORS stamps the fixed cross-origin headers before the handler runs, so
// error and replayed responses carry them too.
func CORS() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for k, v := range corsHeaders {
				h.Set(k, v)
			}
			next.ServeHTTP(w, r)
		})
	}
}
