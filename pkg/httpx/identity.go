package httpx

import (
	"context"
	"strconv"
)

// Identity is the authenticated caller attached to a request by AuthnMiddleware.
type Identity struct {
	UserID int64
	Email  string
	Name   string
	Role   string
}

// Subject returns the user id in the decimal form used in token subjects.
func (i Identity) Subject() string {
	return strconv.FormatInt(i.UserID, 10)
}

type identityKey struct{}

// WithIdentity returns ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored by AuthnMiddleware.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
