package mid

import (
	"net/http"

	"github.com/rs/cors"
)

// Cors wraps the handler with Cross-Origin Resource Sharing support for the
// specified origins. Preflight requests are answered before routing.
func Cors(handler http.Handler, origins ...string) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Origin", "Accept", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization"},
	})

	return c.Handler(handler)
}
