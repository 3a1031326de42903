package common

import "context"

// UserContext holds the authenticated identity extracted from a bearer
// token. When absent (nil) the request is anonymous and handlers fall
// back to the email supplied in the request body.
type UserContext struct {
	Email   string
	Premium bool
}

type contextKey int

const userContextKey contextKey = iota

// WithUserContext stores a UserContext in the request context.
func WithUserContext(ctx context.Context, uc *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, uc)
}

// UserContextFromContext retrieves the UserContext from context, or nil if absent.
func UserContextFromContext(ctx context.Context) *UserContext {
	uc, _ := ctx.Value(userContextKey).(*UserContext)
	return uc
}

// ResolveEmail returns the authenticated email from context when present,
// otherwise the supplied fallback from the request body.
func ResolveEmail(ctx context.Context, fallback string) string {
	if uc := UserContextFromContext(ctx); uc != nil && uc.Email != "" {
		return uc.Email
	}
	return fallback
}
