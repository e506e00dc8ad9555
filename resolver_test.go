package orgkit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLoader struct {
	principal *Principal
	err       error
	calls     int
}

func (s *stubLoader) LoadPrincipal(ctx context.Context, principalID string) (*Principal, error) {
	s.calls++
	return s.principal, s.err
}

func TestPrincipalResolver(t *testing.T) {
	ctx := context.Background()
	r := PrincipalResolver{}

	org, err := r.ResolveActiveOrganization(ctx, NewPrincipal("user-1", "org-1"))
	require.NoError(t, err)
	assert.Equal(t, "org-1", org)

	org, err = r.ResolveActiveOrganization(ctx, NewPrincipal("user-1", ""))
	require.NoError(t, err)
	assert.Equal(t, "", org)

	org, err = r.ResolveActiveOrganization(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "", org)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = r.ResolveActiveOrganization(cancelled, NewPrincipal("user-1", "org-1"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadingResolver(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		loader  *stubLoader
		want    string
		wantErr bool
	}{
		{"record found", &stubLoader{principal: &Principal{ID: "user-1", ActiveOrganizationID: "org-2"}}, "org-2", false},
		{"record without organization", &stubLoader{principal: &Principal{ID: "user-1"}}, "", false},
		{"record missing", &stubLoader{err: ErrPrincipalNotFound}, "", false},
		{"wrapped missing", &stubLoader{err: NewError(ErrPrincipalNotFound, "user-1")}, "", false},
		{"nil record", &stubLoader{}, "", false},
		{"store failure", &stubLoader{err: errors.New("connection refused")}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewLoadingResolver(tt.loader)
			// The stale org on the request principal is ignored in favour of the record.
			org, err := r.ResolveActiveOrganization(ctx, NewPrincipal("user-1", "org-1"))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, org)
			assert.Equal(t, 1, tt.loader.calls)
		})
	}
}

func TestLoadingResolverAnonymous(t *testing.T) {
	loader := &stubLoader{principal: &Principal{ID: "user-1", ActiveOrganizationID: "org-1"}}
	r := NewLoadingResolver(loader)

	org, err := r.ResolveActiveOrganization(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "", org)
	assert.Equal(t, 0, loader.calls)
}
