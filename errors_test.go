package orgkit

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestSentinelErrors tests that all sentinel errors are properly defined
func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"ErrUnauthenticated", ErrUnauthenticated, "orgkit: unauthenticated"},
		{"ErrNoActiveOrganization", ErrNoActiveOrganization, "orgkit: no active organization"},
		{"ErrNoMembership", ErrNoMembership, "orgkit: no membership"},
		{"ErrRoleMismatch", ErrRoleMismatch, "orgkit: role mismatch"},
		{"ErrStoreUnavailable", ErrStoreUnavailable, "orgkit: store unavailable"},
		{"ErrUnknownRequirement", ErrUnknownRequirement, "orgkit: unknown requirement"},
		{"ErrInvalidRequirement", ErrInvalidRequirement, "orgkit: invalid requirement"},
		{"ErrDuplicateRequirement", ErrDuplicateRequirement, "orgkit: duplicate requirement"},
		{"ErrInvalidRole", ErrInvalidRole, "orgkit: invalid role"},
		{"ErrMembershipNotFound", ErrMembershipNotFound, "orgkit: membership not found"},
		{"ErrMembershipExists", ErrMembershipExists, "orgkit: membership already exists"},
		{"ErrInvalidTransition", ErrInvalidTransition, "orgkit: invalid membership transition"},
		{"ErrPrincipalNotFound", ErrPrincipalNotFound, "orgkit: principal not found"},
		{"ErrOrganizationArchived", ErrOrganizationArchived, "orgkit: organization archived"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.msg, tt.err.Error())
		})
	}
}

// TestError_Error tests the Error method of Error struct
func TestError_Error(t *testing.T) {
	t.Run("With message", func(t *testing.T) {
		err := NewError(ErrRoleMismatch, "insufficient permissions")
		assert.Equal(t, "orgkit: role mismatch: insufficient permissions", err.Error())
	})

	t.Run("Without message", func(t *testing.T) {
		err := &Error{Err: ErrRoleMismatch}
		assert.Equal(t, "orgkit: role mismatch", err.Error())
	})

	t.Run("With cause", func(t *testing.T) {
		err := NewError(ErrStoreUnavailable, "failed to load membership").
			WithCause(errors.New("connection refused"))
		assert.Equal(t, "orgkit: store unavailable: failed to load membership: connection refused", err.Error())
	})
}

// TestError_Unwrap tests that both the sentinel and the cause are reachable
func TestError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewError(ErrStoreUnavailable, "failed").WithCause(cause)

	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrNoMembership)

	wrapped := fmt.Errorf("handler: %w", err)
	var target *Error
	assert.ErrorAs(t, wrapped, &target)
	assert.Equal(t, "failed", target.Message)
}

// TestError_Chainers tests the WithX builders
func TestError_Chainers(t *testing.T) {
	err := NewError(ErrRoleMismatch, "denied").
		WithRequirement("leases.sign").
		WithOrganization("org-1").
		WithUser("user-1").
		WithRole(RoleTenant)

	assert.Equal(t, "leases.sign", err.Requirement)
	assert.Equal(t, "org-1", err.OrganizationID)
	assert.Equal(t, "user-1", err.UserID)
	assert.Equal(t, RoleTenant, err.Role)
}

// TestErrorClassifiers tests the IsX helpers
func TestErrorClassifiers(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		denied       bool
		unavailable  bool
		unknown      bool
		config       bool
		invalidTrans bool
	}{
		{"unauthenticated", ErrUnauthenticated, true, false, false, false, false},
		{"no active organization", ErrNoActiveOrganization, true, false, false, false, false},
		{"no membership", NewError(ErrNoMembership, "x"), true, false, false, false, false},
		{"role mismatch", ErrRoleMismatch, true, false, false, false, false},
		{"store unavailable", NewError(ErrStoreUnavailable, "x"), true, true, false, false, false},
		{"unknown requirement", ErrUnknownRequirement, false, false, true, true, false},
		{"duplicate requirement", ErrDuplicateRequirement, false, false, false, true, false},
		{"invalid role", ErrInvalidRole, false, false, false, true, false},
		{"invalid transition", NewError(ErrInvalidTransition, "x"), false, false, false, false, true},
		{"plain error", errors.New("boom"), false, false, false, false, false},
		{"nil", nil, false, false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.denied, IsDenied(tt.err))
			assert.Equal(t, tt.unavailable, IsStoreUnavailable(tt.err))
			assert.Equal(t, tt.unknown, IsUnknownRequirement(tt.err))
			assert.Equal(t, tt.config, IsConfigError(tt.err))
			assert.Equal(t, tt.invalidTrans, IsInvalidTransition(tt.err))
		})
	}
}
