package orgkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()

	r := NewRegistry()
	r.Define("leases.sign").Allow(RoleOwner, RoleManager).
		Define("maintenance.update").Allow(RoleMaintenance, RoleManager).
		Define("ledger.view").Allow(RoleAccountant, RoleOwner).
		Define("documents.read").AnyMember()
	require.NoError(t, r.Seal())
	return r
}

func TestEvaluate(t *testing.T) {
	registry := testRegistry(t)

	member := func(role Role, state MembershipState) *Membership {
		return &Membership{ID: "m1", OrganizationID: "org-1", UserID: "user-1", Role: role, State: state}
	}

	tests := []struct {
		name        string
		membership  *Membership
		requirement string
		outcome     Outcome
		reason      Reason
		role        Role
	}{
		{"role in set", member(RoleManager, MembershipActive), "leases.sign", Allow, ReasonRoleMatch, RoleManager},
		{"role not in set", member(RoleTenant, MembershipActive), "leases.sign", Deny, ReasonRoleMismatch, RoleTenant},
		{"any member", member(RoleTenant, MembershipActive), "documents.read", Allow, ReasonAnyMember, RoleTenant},
		{"absent membership", nil, "leases.sign", Deny, ReasonNoMembership, ""},
		{"absent membership any member", nil, "documents.read", Deny, ReasonNoMembership, ""},
		{"suspended membership", member(RoleOwner, MembershipSuspended), "leases.sign", Deny, ReasonNoMembership, ""},
		{"revoked membership", member(RoleOwner, MembershipRevoked), "documents.read", Deny, ReasonNoMembership, ""},
		{"case sensitive role", member("manager", MembershipActive), "leases.sign", Deny, ReasonRoleMismatch, "manager"},
		{"custom role any member", member("Leasing Agent", MembershipActive), "documents.read", Allow, ReasonAnyMember, "Leasing Agent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Evaluate(tt.membership, registry.MustGet(tt.requirement))
			assert.Equal(t, tt.outcome, d.Outcome)
			assert.Equal(t, tt.reason, d.Reason)
			assert.Equal(t, tt.role, d.Role)
			assert.Equal(t, tt.requirement, d.Requirement)
			if tt.membership != nil {
				assert.Equal(t, "org-1", d.OrganizationID)
			}
		})
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	registry := testRegistry(t)
	m := &Membership{OrganizationID: "org-1", UserID: "user-1", Role: RoleAccountant, State: MembershipActive}

	first := Evaluate(m, registry.MustGet("ledger.view"))
	second := Evaluate(m, registry.MustGet("ledger.view"))
	assert.Equal(t, first, second)
}

func TestDecisionErr(t *testing.T) {
	allow := Decision{Outcome: Allow, Reason: ReasonRoleMatch}
	assert.NoError(t, allow.Err())
	assert.True(t, allow.Allowed())

	tests := []struct {
		reason   Reason
		sentinel error
	}{
		{ReasonUnauthenticated, ErrUnauthenticated},
		{ReasonNoActiveOrganization, ErrNoActiveOrganization},
		{ReasonNoMembership, ErrNoMembership},
		{ReasonRoleMismatch, ErrRoleMismatch},
		{ReasonStoreUnavailable, ErrStoreUnavailable},
		{ReasonUnknownRequirement, ErrUnknownRequirement},
	}
	for _, tt := range tests {
		t.Run(string(tt.reason), func(t *testing.T) {
			d := Decision{Outcome: Deny, Reason: tt.reason, Requirement: "leases.sign", OrganizationID: "org-1"}
			err := d.Err()
			assert.ErrorIs(t, err, tt.sentinel)

			var e *Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, "leases.sign", e.Requirement)
			assert.Equal(t, "org-1", e.OrganizationID)
			assert.NotEmpty(t, tt.reason.UserMessage())
		})
	}
}
