package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// Cors allows any origin unless origins are given.
func Cors(origins ...string) Middleware {
	options := cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{SessionTokenHeader},
		AllowCredentials: true,
	}
	if len(origins) == 0 {
		options.AllowOriginFunc = func(origin string) bool {
			return true
		}
	}
	return cors.New(options).Handler
}

// SessionTokenHeader carries the session token for clients that do not
// keep cookies.
const SessionTokenHeader = "X-Session-Token"
