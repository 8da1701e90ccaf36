package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/domain"
	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/service"
	"github.com/Natnae-l/AddisMelody-Backend/pkg/httpx"
	"github.com/Natnae-l/AddisMelody-Backend/pkg/slogx"
)

// Cookie names the browser client keeps the credential pair under.
const (
	accessCookie  = "token"
	refreshCookie = "refreshToken"
)

// SessionMiddleware authenticates every request behind it. The access
// token is read from the "token" cookie or an Authorization bearer
// header (bare token or a JSON pair blob), the refresh token from the
// "refreshToken" cookie or the X-Refresh-Token header. When the
// session is silently renewed, the
// fresh pair is set as cookies right away and stashed in the context so
// handlers can echo it in their response body.
func SessionMiddleware(sessions *service.SessionService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			access, refresh := extractPair(r)

			sess, err := sessions.Authorize(r.Context(), access, refresh)
			if err != nil {
				if errors.Is(err, service.ErrUnauthenticated) {
					httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
					return
				}
				slogx.FromContext(r.Context()).Error("session authorization failed", "err", err)
				httpx.WriteError(w, http.StatusInternalServerError, "internal error")
				return
			}

			ctx := context.WithValue(r.Context(), httpx.CtxKeyUserID, sess.UserID)
			ctx = context.WithValue(ctx, httpx.CtxKeyUsername, sess.Username)

			if sess.Renewed != nil {
				setPairCookies(w, *sess.Renewed)
				ctx = context.WithValue(ctx, httpx.CtxKeyRenewedPair, sess.Renewed)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractPair(r *http.Request) (access, refresh string) {
	if c, err := r.Cookie(accessCookie); err == nil {
		access = c.Value
	}
	if c, err := r.Cookie(refreshCookie); err == nil {
		refresh = c.Value
	}

	// Non-browser clients send the pair in headers instead. The bearer
	// value is either the bare access token or a JSON blob carrying the
	// whole pair, an older client convention still in the wild.
	if access == "" {
		if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			bearer := strings.TrimPrefix(h, "Bearer ")
			if strings.HasPrefix(bearer, "{") {
				var pair domain.TokenPair
				if err := json.Unmarshal([]byte(bearer), &pair); err == nil {
					access = pair.Token
					if refresh == "" {
						refresh = pair.RefreshToken
					}
				}
			} else {
				access = bearer
			}
		}
	}
	if refresh == "" {
		refresh = r.Header.Get("X-Refresh-Token")
	}
	return access, refresh
}

// setPairCookies installs the pair for a cross-origin browser client;
// SameSite=None requires Secure.
func setPairCookies(w http.ResponseWriter, pair domain.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessCookie,
		Value:    pair.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    pair.RefreshToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

// renewedPair returns the pair minted during silent renewal, if any.
func renewedPair(ctx context.Context) *domain.TokenPair {
	if p, ok := ctx.Value(httpx.CtxKeyRenewedPair).(*domain.TokenPair); ok {
		return p
	}
	return nil
}
