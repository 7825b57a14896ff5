package session

import (
	"context"
	"net/http"
	"time"

	"github.com/yski/yski-client/internal/token"
)

const (
	// CookieName - cookie с копией access token'а для edge-проверки
	CookieName = "access_token"
	// DefaultCookieTTL совпадает со сроком жизни access token'а backend'а
	DefaultCookieTTL = 15 * time.Minute
)

// CookieMirror получает cookie, которую нужно выставить клиенту
type CookieMirror interface {
	MirrorCookie(ctx context.Context, c *http.Cookie)
}

// MirrorFunc - функция как CookieMirror
type MirrorFunc func(ctx context.Context, c *http.Cookie)

// MirrorCookie implements CookieMirror
func (f MirrorFunc) MirrorCookie(ctx context.Context, c *http.Cookie) {
	f(ctx, c)
}

// AccessCookie строит cookie с access token'ом.
// Max-Age не превышает оставшийся срок токена; истекший токен дает удаляющую cookie.
func AccessCookie(accessToken string, ttl time.Duration, now time.Time, secure bool) *http.Cookie {
	if accessToken == "" {
		return ExpiredCookie(secure)
	}

	if claims, err := token.ParseUnverified(accessToken); err == nil {
		if left, ok := claims.Remaining(now); ok && left < ttl {
			ttl = left
		}
	}

	maxAge := int(ttl / time.Second)
	if maxAge <= 0 {
		return ExpiredCookie(secure)
	}

	return &http.Cookie{
		Name:     CookieName,
		Value:    accessToken,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  now.Add(time.Duration(maxAge) * time.Second),
		Secure:   secure,
		HttpOnly: false,
		SameSite: http.SameSiteStrictMode,
	}
}

// ExpiredCookie удаляет cookie в браузере
func ExpiredCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}
