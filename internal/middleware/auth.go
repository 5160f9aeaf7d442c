package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/vancomm/shapesweeper/internal/config"
)

type CtxKey int

const (
	CtxSessionClaims CtxKey = iota
)

// SessionClaims returns the claims of a verified session token, if the
// request carried one.
func SessionClaims(ctx context.Context) (*config.SessionClaims, bool) {
	claims, ok := ctx.Value(CtxSessionClaims).(*config.SessionClaims)
	return claims, ok
}

// Auth verifies the session token of each request. Requests with a bad or
// expired token lose their cookie and continue anonymously.
func Auth(logger *slog.Logger, cookies *config.Cookies, jwt *config.JWT) Middleware {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := cookies.Token(r)
			if !ok {
				h.ServeHTTP(w, r)
				return
			}
			claims, err := jwt.Parse(token)
			if err != nil {
				logger.Debug("rejected session token", slog.Any("error", err))
				cookies.Clear(w)
				h.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), CtxSessionClaims, claims)
			h.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
