package config

import (
	"net/http"
	"os"
	"strings"
	"time"
)

const SessionCookie = "game_session"

type Cookies struct {
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

func NewCookies() (*Cookies, error) {
	cookies := &Cookies{
		Secure:   !Development(),
		SameSite: http.SameSiteStrictMode,
	}

	if domain, ok := os.LookupEnv("COOKIES_DOMAIN"); ok {
		cookies.Domain = domain
	}

	if secureStr, ok := os.LookupEnv("COOKIES_SECURE"); ok {
		cookies.Secure = secureStr != "0"
	}

	if sameSiteStr, ok := os.LookupEnv("COOKIES_SAMESITE"); ok {
		switch strings.ToUpper(sameSiteStr) {
		case "DEFAULT":
			cookies.SameSite = http.SameSiteDefaultMode
		case "LAX":
			cookies.SameSite = http.SameSiteLaxMode
		case "STRICT":
			cookies.SameSite = http.SameSiteStrictMode
		case "NONE":
			cookies.SameSite = http.SameSiteNoneMode
		}
	}

	return cookies, nil
}

func (c *Cookies) Set(w http.ResponseWriter, token string, lifetime time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Path:     "/",
		Value:    token,
		Expires:  time.Now().Add(lifetime),
		HttpOnly: true,
		Domain:   c.Domain,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	})
}

func (c *Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Path:     "/",
		Value:    "delete",
		MaxAge:   -1,
		HttpOnly: true,
		Domain:   c.Domain,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	})
}

// Token finds the session token in the Authorization header, falling back
// to the session cookie.
func (c *Cookies) Token(r *http.Request) (string, bool) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		token, ok := strings.CutPrefix(auth, "Bearer ")
		return token, ok && token != ""
	}
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}
