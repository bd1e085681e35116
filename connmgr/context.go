package connmgr

import (
	"context"

	"github.com/google/uuid"
)

type contextKey struct{}

// NewContext returns a copy of ctx bound to a new execution context. Every
// goroutine, job or request working with remote files gets its own.
func NewContext(ctx context.Context) context.Context {
	return WithKey(ctx, uuid.NewString())
}

// WithKey returns a copy of ctx bound to the execution context key.
func WithKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, contextKey{}, key)
}

// KeyFrom returns the execution context key carried by ctx.
func KeyFrom(ctx context.Context) (key string, ok bool) {
	key, ok = ctx.Value(contextKey{}).(string)
	return key, ok && key != ""
}

// DeriveContext returns a copy of ctx bound to a child execution context of
// the one ctx carries. Derived contexts own their own connection, which lets
// one execution context hold two endpoints at once, e.g. while copying.
func DeriveContext(ctx context.Context, suffix string) (context.Context, error) {
	key, ok := KeyFrom(ctx)
	if !ok {
		return nil, ErrNoExecutionContext
	}
	return WithKey(ctx, key+"/"+suffix), nil
}
