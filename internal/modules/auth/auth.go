package auth

import (
	"context"
	"net/http"
)

// CallerID is the opaque identity of an authenticated caller as issued by the
// external identity provider. The empty value means no caller.
type CallerID string

// Resolver resolves an inbound request to a caller identity.
type Resolver interface {
	ResolveCaller(r *http.Request) (CallerID, bool)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(r *http.Request) (CallerID, bool)

func (f ResolverFunc) ResolveCaller(r *http.Request) (CallerID, bool) { return f(r) }

type ctxKey struct{}

// WithCaller returns a copy of ctx carrying id.
func WithCaller(ctx context.Context, id CallerID) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// CallerFromContext returns the caller attached by Middleware, or "" when the
// request is anonymous.
func CallerFromContext(ctx context.Context) CallerID {
	id, _ := ctx.Value(ctxKey{}).(CallerID)
	return id
}

// Middleware attaches the resolved caller to the request context. It never
// rejects a request: reads are public and mutations are rejected later by
// the ownership guard.
func Middleware(res Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, ok := res.ResolveCaller(r); ok && id != "" {
				r = r.WithContext(WithCaller(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireCaller rejects anonymous requests with 401. It guards mutation
// routes so authentication is reported before anything about the payload.
func RequireCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CallerFromContext(r.Context()) == "" {
			http.Error(w, "Unauthenticated", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
