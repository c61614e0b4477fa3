package shared

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/shop-api/internal/domain"
)

// ContextKey namespaces request-scoped values set by the middleware.
type ContextKey string

const (
	// PrincipalContextKey is the context key for the authenticated domain.Principal
	PrincipalContextKey ContextKey = "principal"

	// TraceIDKey is the key for the trace ID in the request context
	TraceIDKey ContextKey = "traceID"
)

// traceIDPattern bounds trace IDs accepted from clients.
var traceIDPattern = regexp.MustCompile(`^[A-Za-z0-9-]{8,64}$`)

// WithPrincipal returns a copy of ctx carrying the authenticated principal.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, PrincipalContextKey, p)
}

// GetPrincipal returns the principal stored by the auth middleware.
// The boolean is false when the request was not authenticated.
func GetPrincipal(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(PrincipalContextKey).(domain.Principal)
	if !ok || p.Authenticate() != nil {
		return domain.Principal{}, false
	}
	return p, true
}

// NewTraceID returns a 32 character hex trace ID built from a random UUID,
// or from a time-based UUID if the random source fails.
func NewTraceID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		id, err = uuid.NewUUID()
		if err != nil {
			id = uuid.New()
		}
	}
	return strings.ReplaceAll(id.String(), "-", "")
}

// ValidTraceID reports whether a client-supplied trace ID may be reused.
func ValidTraceID(id string) bool {
	return traceIDPattern.MatchString(id)
}

// WithTraceID returns a copy of ctx carrying traceID.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// SetTraceID adds a freshly generated trace ID to the context.
func SetTraceID(ctx context.Context) context.Context {
	return WithTraceID(ctx, NewTraceID())
}

// GetTraceID retrieves the trace ID from the context, or "" if none is set.
func GetTraceID(ctx context.Context) string {
	traceID, _ := ctx.Value(TraceIDKey).(string)
	return traceID
}
