package orgkit

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
)

// ConnectPrincipalExtractor returns the principal for an RPC, or nil when anonymous.
type ConnectPrincipalExtractor func(ctx context.Context, header http.Header) *Principal

// ConnectInterceptor guards Connect RPC handlers with named policies, keyed by
// procedure (for example "/leases.v1.LeaseService/Sign"). Procedures without a
// bound policy are rejected.
type ConnectInterceptor struct {
	engine     *Engine
	procedures map[string]string
	extractor  ConnectPrincipalExtractor
}

// NewConnectInterceptor creates a handler interceptor. Every bound policy is
// validated against the engine's registry.
//
// Example:
//
//	interceptor, err := orgkit.NewConnectInterceptor(engine, map[string]string{
//	    leasesv1connect.LeaseServiceSignProcedure: "leases.sign",
//	}, nil)
//	path, handler := leasesv1connect.NewLeaseServiceHandler(svc, connect.WithInterceptors(interceptor))
func NewConnectInterceptor(engine *Engine, procedures map[string]string, extractor ConnectPrincipalExtractor) (*ConnectInterceptor, error) {
	names := make([]string, 0, len(procedures))
	bound := make(map[string]string, len(procedures))
	for procedure, name := range procedures {
		names = append(names, name)
		bound[procedure] = name
	}
	if err := engine.Registry().Validate(names...); err != nil {
		return nil, err
	}
	if extractor == nil {
		extractor = func(ctx context.Context, _ http.Header) *Principal {
			return PrincipalFromContext(ctx)
		}
	}

	return &ConnectInterceptor{
		engine:     engine,
		procedures: bound,
		extractor:  extractor,
	}, nil
}

// WrapUnary implements connect.Interceptor.
func (i *ConnectInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		if req.Spec().IsClient {
			return next(ctx, req)
		}
		ctx, err := i.authorize(ctx, req.Spec().Procedure, req.Header())
		if err != nil {
			return nil, err
		}
		return next(ctx, req)
	}
}

// WrapStreamingClient is not used for handler interceptors.
func (i *ConnectInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

// WrapStreamingHandler implements connect.Interceptor.
func (i *ConnectInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		ctx, err := i.authorize(ctx, conn.Spec().Procedure, conn.RequestHeader())
		if err != nil {
			return err
		}
		return next(ctx, conn)
	}
}

func (i *ConnectInterceptor) authorize(ctx context.Context, procedure string, header http.Header) (context.Context, error) {
	name, ok := i.procedures[procedure]
	if !ok {
		return ctx, connect.NewError(connect.CodePermissionDenied, fmt.Errorf("no policy bound to %s", procedure))
	}

	d, err := i.engine.Authorize(ctx, i.extractor(ctx, header), name)
	if d.Outcome == "" {
		if errors.Is(err, context.DeadlineExceeded) {
			return ctx, connect.NewError(connect.CodeDeadlineExceeded, err)
		}
		return ctx, connect.NewError(connect.CodeCanceled, err)
	}
	if err != nil {
		return ctx, connect.NewError(connect.CodeInternal, errors.New(d.Reason.UserMessage()))
	}
	if !d.Allowed() {
		return ctx, connect.NewError(ConnectCode(d), errors.New(d.Reason.UserMessage()))
	}
	return WithDecision(ctx, d), nil
}

// ConnectCode maps a denial to a Connect error code.
func ConnectCode(d Decision) connect.Code {
	switch d.Reason {
	case ReasonUnauthenticated:
		return connect.CodeUnauthenticated
	case ReasonNoActiveOrganization, ReasonNoMembership, ReasonRoleMismatch:
		return connect.CodePermissionDenied
	case ReasonStoreUnavailable:
		return connect.CodeUnavailable
	default:
		return connect.CodeInternal
	}
}
