package orgkit

// Outcome is the binary result of an authorization check.
type Outcome string

const (
	Allow Outcome = "allow"
	Deny  Outcome = "deny"
)

// Reason explains why a Decision was reached.
type Reason string

const (
	ReasonRoleMatch            Reason = "role_match"
	ReasonAnyMember            Reason = "any_member"
	ReasonUnauthenticated      Reason = "unauthenticated"
	ReasonNoActiveOrganization Reason = "no_active_organization"
	ReasonNoMembership         Reason = "no_membership"
	ReasonRoleMismatch         Reason = "role_mismatch"
	ReasonUnknownRequirement   Reason = "unknown_requirement"
	ReasonStoreUnavailable     Reason = "store_unavailable"
)

// UserMessage returns the text shown to an end user for a denial.
func (r Reason) UserMessage() string {
	switch r {
	case ReasonUnauthenticated:
		return "sign in required"
	case ReasonNoActiveOrganization:
		return "select an organization"
	case ReasonNoMembership:
		return "not a member of this organization"
	case ReasonRoleMismatch:
		return "insufficient permissions"
	case ReasonStoreUnavailable:
		return "authorization is temporarily unavailable, try again"
	case ReasonUnknownRequirement:
		return "internal error"
	default:
		return ""
	}
}

func (r Reason) sentinel() error {
	switch r {
	case ReasonUnauthenticated:
		return ErrUnauthenticated
	case ReasonNoActiveOrganization:
		return ErrNoActiveOrganization
	case ReasonNoMembership:
		return ErrNoMembership
	case ReasonRoleMismatch:
		return ErrRoleMismatch
	case ReasonStoreUnavailable:
		return ErrStoreUnavailable
	case ReasonUnknownRequirement:
		return ErrUnknownRequirement
	default:
		return nil
	}
}

// Decision is the result of one authorization check. It is produced fresh per
// call and must not be cached across requests.
type Decision struct {
	Outcome     Outcome
	Reason      Reason
	Requirement string

	// OrganizationID is the organization that was actually checked. It can
	// differ from the principal's current pointer if that changed mid-request.
	OrganizationID string
	Role           Role

	// Cause holds the infrastructure error behind a ReasonStoreUnavailable denial.
	Cause error
}

// Allowed reports whether the decision permits the operation.
func (d Decision) Allowed() bool {
	return d.Outcome == Allow
}

// Err returns nil for an Allow and an *Error wrapping the reason's sentinel otherwise.
//
// Example:
//
//	d, err := engine.Authorize(ctx, principal, "leases.sign")
//	if err != nil {
//	    return err
//	}
//	if err := d.Err(); err != nil {
//	    return err // errors.Is(err, orgkit.ErrRoleMismatch), ...
//	}
func (d Decision) Err() error {
	if d.Allowed() {
		return nil
	}
	sentinel := d.Reason.sentinel()
	if sentinel == nil {
		sentinel = ErrNoMembership
	}
	return NewError(sentinel, d.Reason.UserMessage()).
		WithCause(d.Cause).
		WithRequirement(d.Requirement).
		WithOrganization(d.OrganizationID).
		WithRole(d.Role)
}

func denied(reason Reason) Decision {
	return Decision{Outcome: Deny, Reason: reason}
}
