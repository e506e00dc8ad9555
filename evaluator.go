package orgkit

// Evaluate decides whether membership satisfies req. It performs no I/O, never
// fails and always returns the same Decision for the same inputs.
//
// Rules, in order:
//   - absent (or non-effective) membership: Deny, ReasonNoMembership
//   - requirement with no allowed roles: Allow, ReasonAnyMember
//   - membership role in the allowed set: Allow, ReasonRoleMatch
//   - otherwise: Deny, ReasonRoleMismatch
//
// Example:
//
//	req := registry.MustGet("leases.sign")
//	d := orgkit.Evaluate(membership, req)
func Evaluate(membership *Membership, req PolicyRequirement) Decision {
	if !membership.IsEffective() {
		d := denied(ReasonNoMembership)
		d.Requirement = req.Name()
		if membership != nil {
			d.OrganizationID = membership.OrganizationID
		}
		return d
	}

	d := Decision{
		Requirement:    req.Name(),
		OrganizationID: membership.OrganizationID,
		Role:           membership.Role,
	}

	switch {
	case req.AllowsAnyMember():
		d.Outcome, d.Reason = Allow, ReasonAnyMember
	case req.Allows(membership.Role):
		d.Outcome, d.Reason = Allow, ReasonRoleMatch
	default:
		d.Outcome, d.Reason = Deny, ReasonRoleMismatch
	}
	return d
}
