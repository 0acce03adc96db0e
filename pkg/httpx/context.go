package httpx

import "context"

type ctxKey string

const (
	CtxKeyUserID    ctxKey = "user_id"
	CtxKeyPrincipal ctxKey = "principal"
)

// Principal is the authenticated caller behind a session cookie.
type Principal struct {
	SessionID string
	UserID    string         // provider subject ("sub")
	Claims    map[string]any // user-info claims from the ID token, verbatim
}

func contextWithPrincipal(ctx context.Context, p Principal) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, p.UserID)
	ctx = context.WithValue(ctx, CtxKeyPrincipal, p)
	return ctx
}

// PrincipalFromContext returns the principal attached by SessionMiddleware.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(CtxKeyPrincipal).(Principal)
	return p, ok
}

// UserIDFromContext returns the authenticated subject, or "".
func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(CtxKeyUserID).(string)
	return userID
}
