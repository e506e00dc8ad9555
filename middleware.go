package orgkit

import (
	"net/http"

	"github.com/google/uuid"
)

// Middleware provides HTTP middleware that guards handlers with named policies.
type Middleware struct {
	engine       *Engine
	getPrincipal PrincipalExtractor
	denyHandler  DenyHandler
}

// PrincipalExtractor returns the principal for a request, or nil when anonymous.
type PrincipalExtractor func(*http.Request) *Principal

// DenyHandler writes the response for a denied or failed check.
// err is non-nil only for configuration faults.
type DenyHandler func(w http.ResponseWriter, r *http.Request, d Decision, err error)

// MiddlewareOption configures the Middleware.
type MiddlewareOption func(*Middleware)

// NewMiddleware creates a new Middleware instance.
//
// Example:
//
//	mw := orgkit.NewMiddleware(engine,
//	    orgkit.WithPrincipalExtractor(func(r *http.Request) *orgkit.Principal {
//	        return session.PrincipalFor(r)
//	    }),
//	)
func NewMiddleware(engine *Engine, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{
		engine:       engine,
		getPrincipal: defaultGetPrincipal,
		denyHandler:  defaultDenyHandler,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// WithPrincipalExtractor sets a custom function to extract the principal from a request.
func WithPrincipalExtractor(fn PrincipalExtractor) MiddlewareOption {
	return func(m *Middleware) {
		m.getPrincipal = fn
	}
}

// WithDenyHandler sets a custom handler for denied requests.
func WithDenyHandler(fn DenyHandler) MiddlewareOption {
	return func(m *Middleware) {
		m.denyHandler = fn
	}
}

func defaultGetPrincipal(r *http.Request) *Principal {
	return PrincipalFromContext(r.Context())
}

func defaultDenyHandler(w http.ResponseWriter, r *http.Request, d Decision, err error) {
	http.Error(w, d.Reason.UserMessage(), StatusCode(d))
}

// StatusCode maps a denial to an HTTP status.
func StatusCode(d Decision) int {
	switch d.Reason {
	case ReasonRoleMatch, ReasonAnyMember:
		return http.StatusOK
	case ReasonUnauthenticated:
		return http.StatusUnauthorized
	case ReasonNoActiveOrganization, ReasonNoMembership, ReasonRoleMismatch:
		return http.StatusForbidden
	case ReasonStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RequirePolicy creates middleware that admits the request only when the
// named policy allows the principal in their active organization. The name is
// resolved immediately, so an unregistered policy panics while routes are wired.
//
// Example:
//
//	mux.Handle("POST /leases/{id}/sign", mw.RequirePolicy("leases.sign")(signHandler))
func (m *Middleware) RequirePolicy(name string) func(http.Handler) http.Handler {
	m.engine.Registry().MustGet(name)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			principal := m.getPrincipal(r)

			d, err := m.engine.Authorize(ctx, principal, name)
			if d.Outcome == "" {
				// Request cancelled; the client is gone.
				return
			}
			if err != nil || !d.Allowed() {
				m.denyHandler(w, r, d, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithDecision(ctx, d)))
		})
	}
}

// InjectAuditContext creates middleware that extracts audit information from the request
// and adds it to the context for decision records and membership changes.
// A request ID is generated when the caller did not send one.
//
// Example:
//
//	handler := mw.InjectAuditContext()(mux)
func (m *Middleware) InjectAuditContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			ip := r.Header.Get("X-Forwarded-For")
			if ip == "" {
				ip = r.Header.Get("X-Real-IP")
			}
			if ip == "" {
				ip = r.RemoteAddr
			}

			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", requestID)

			ctx = WithAuditContext(ctx, AuditContext{
				IPAddress: ip,
				UserAgent: r.UserAgent(),
				RequestID: requestID,
			})
			if principal := m.getPrincipal(r); principal.IsAuthenticated() {
				ctx = WithActorID(ctx, principal.ID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
