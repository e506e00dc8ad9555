package orgkit

import (
	"context"
	"errors"
)

// PrincipalResolver resolves the active organization from the Principal value
// itself, as built by the identity layer for this request.
type PrincipalResolver struct{}

// ResolveActiveOrganization returns the organization carried by the principal.
func (PrincipalResolver) ResolveActiveOrganization(ctx context.Context, principal *Principal) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !principal.IsAuthenticated() {
		return "", nil
	}
	return principal.ActiveOrganizationID, nil
}

// LoadingResolver reloads the principal record on every check so that an
// organization switch made by another request is observed immediately.
type LoadingResolver struct {
	loader PrincipalLoader
}

// NewLoadingResolver creates a resolver backed by loader.
//
// Example:
//
//	store := orgkit.NewStore(db)
//	engine, err := orgkit.NewEngine(registry, store, orgkit.NewLoadingResolver(store))
func NewLoadingResolver(loader PrincipalLoader) *LoadingResolver {
	return &LoadingResolver{loader: loader}
}

// ResolveActiveOrganization returns "" for anonymous principals and for
// principals without a record. Other load failures are returned as errors.
func (r *LoadingResolver) ResolveActiveOrganization(ctx context.Context, principal *Principal) (string, error) {
	if !principal.IsAuthenticated() {
		return "", nil
	}

	record, err := r.loader.LoadPrincipal(ctx, principal.ID)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return "", nil
		}
		return "", err
	}
	if record == nil {
		return "", nil
	}
	return record.ActiveOrganizationID, nil
}
