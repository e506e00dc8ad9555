package orgkit

import "time"

const defaultAuditLimit = 100

// DecisionAuditFilter provides options for filtering decision audit queries.
type DecisionAuditFilter struct {
	PrincipalID    string
	OrganizationID string
	Requirement    string
	Outcome        Outcome
	Reason         Reason

	// Filter by time range
	Since time.Time
	Until time.Time

	// Pagination
	Limit  int
	Offset int
}

// NewDecisionAuditFilter creates a new DecisionAuditFilter with default values.
func NewDecisionAuditFilter() DecisionAuditFilter {
	return DecisionAuditFilter{Limit: defaultAuditLimit}
}

// WithPrincipal sets the principal ID filter.
func (f DecisionAuditFilter) WithPrincipal(principalID string) DecisionAuditFilter {
	f.PrincipalID = principalID
	return f
}

// WithOrganization sets the organization ID filter.
func (f DecisionAuditFilter) WithOrganization(organizationID string) DecisionAuditFilter {
	f.OrganizationID = organizationID
	return f
}

// WithRequirement sets the requirement name filter.
func (f DecisionAuditFilter) WithRequirement(name string) DecisionAuditFilter {
	f.Requirement = name
	return f
}

// WithOutcome sets the outcome filter.
func (f DecisionAuditFilter) WithOutcome(outcome Outcome) DecisionAuditFilter {
	f.Outcome = outcome
	return f
}

// WithReason sets the reason filter.
func (f DecisionAuditFilter) WithReason(reason Reason) DecisionAuditFilter {
	f.Reason = reason
	return f
}

// WithTimeRange sets the time range filter.
func (f DecisionAuditFilter) WithTimeRange(since, until time.Time) DecisionAuditFilter {
	f.Since = since
	f.Until = until
	return f
}

// WithPagination sets both limit and offset.
func (f DecisionAuditFilter) WithPagination(limit, offset int) DecisionAuditFilter {
	f.Limit = limit
	f.Offset = offset
	return f
}

// Matches reports whether a record satisfies the filter, ignoring pagination.
func (f DecisionAuditFilter) Matches(r *AuditRecord) bool {
	switch {
	case f.PrincipalID != "" && r.PrincipalID != f.PrincipalID:
		return false
	case f.OrganizationID != "" && r.OrganizationID != f.OrganizationID:
		return false
	case f.Requirement != "" && r.Requirement != f.Requirement:
		return false
	case f.Outcome != "" && r.Outcome != f.Outcome:
		return false
	case f.Reason != "" && r.Reason != f.Reason:
		return false
	}
	return inRange(r.Timestamp, f.Since, f.Until)
}

func (f DecisionAuditFilter) limit() int {
	if f.Limit <= 0 {
		return defaultAuditLimit
	}
	return f.Limit
}

// MembershipAuditFilter provides options for filtering membership change queries.
type MembershipAuditFilter struct {
	// Filter by actor who performed the change
	ActorID string

	// Filter by member affected by the change
	UserID string

	OrganizationID string
	MembershipID   string

	// Filter by action ("granted", "suspended", "restored", "role_changed", "revoked")
	Action MembershipAction

	Since time.Time
	Until time.Time

	Limit  int
	Offset int
}

// NewMembershipAuditFilter creates a new MembershipAuditFilter with default values.
func NewMembershipAuditFilter() MembershipAuditFilter {
	return MembershipAuditFilter{Limit: defaultAuditLimit}
}

// WithActor sets the actor ID filter.
func (f MembershipAuditFilter) WithActor(actorID string) MembershipAuditFilter {
	f.ActorID = actorID
	return f
}

// WithUser sets the affected user filter.
func (f MembershipAuditFilter) WithUser(userID string) MembershipAuditFilter {
	f.UserID = userID
	return f
}

// WithOrganization sets the organization ID filter.
func (f MembershipAuditFilter) WithOrganization(organizationID string) MembershipAuditFilter {
	f.OrganizationID = organizationID
	return f
}

// WithMembership sets the membership ID filter.
func (f MembershipAuditFilter) WithMembership(membershipID string) MembershipAuditFilter {
	f.MembershipID = membershipID
	return f
}

// WithAction sets the action filter.
func (f MembershipAuditFilter) WithAction(action MembershipAction) MembershipAuditFilter {
	f.Action = action
	return f
}

// WithTimeRange sets the time range filter.
func (f MembershipAuditFilter) WithTimeRange(since, until time.Time) MembershipAuditFilter {
	f.Since = since
	f.Until = until
	return f
}

// WithPagination sets both limit and offset.
func (f MembershipAuditFilter) WithPagination(limit, offset int) MembershipAuditFilter {
	f.Limit = limit
	f.Offset = offset
	return f
}

// Matches reports whether an entry satisfies the filter, ignoring pagination.
func (f MembershipAuditFilter) Matches(l *MembershipAuditLog) bool {
	switch {
	case f.ActorID != "" && l.ActorID != f.ActorID:
		return false
	case f.UserID != "" && l.UserID != f.UserID:
		return false
	case f.OrganizationID != "" && l.OrganizationID != f.OrganizationID:
		return false
	case f.MembershipID != "" && l.MembershipID != f.MembershipID:
		return false
	case f.Action != "" && l.Action != f.Action:
		return false
	}
	return inRange(l.Timestamp, f.Since, f.Until)
}

func (f MembershipAuditFilter) limit() int {
	if f.Limit <= 0 {
		return defaultAuditLimit
	}
	return f.Limit
}

func inRange(ts, since, until time.Time) bool {
	if !since.IsZero() && ts.Before(since) {
		return false
	}
	if !until.IsZero() && ts.After(until) {
		return false
	}
	return true
}

// paginate applies offset and limit to n items and returns the slice bounds.
func paginate(n, limit, offset int) (int, int) {
	if offset >= n {
		return n, n
	}
	if offset < 0 {
		offset = 0
	}
	if limit > n-offset {
		return offset, n
	}
	return offset, offset + limit
}
