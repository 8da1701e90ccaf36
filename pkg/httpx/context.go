package httpx

import "context"

type ctxKey string

const (
	// CtxKeyUserID holds the authenticated account ID resolved by the
	// session middleware.
	CtxKeyUserID ctxKey = "user_id"

	// CtxKeyUsername holds the authenticated account's username.
	CtxKeyUsername ctxKey = "username"

	// CtxKeyRenewedPair holds a *domain.TokenPair when the session
	// middleware silently rotated the caller's credentials, so handlers
	// can echo the fresh pair in the response body.
	CtxKeyRenewedPair ctxKey = "renewed_pair"
)

// UserIDFromContext returns the authenticated account ID, or "" when the
// request did not pass the session middleware.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyUserID).(string); ok {
		return v
	}
	return ""
}
