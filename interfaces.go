package orgkit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// MembershipStore is the read-only view over organization memberships.
type MembershipStore interface {
	// FindEffectiveMembership returns the effective membership for the pair,
	// the most recently granted one if several exist, or nil when there is none.
	// An error means the store could not be read.
	FindEffectiveMembership(ctx context.Context, organizationID, userID string) (*Membership, error)
}

// ActiveContextResolver determines which organization a principal is acting within.
type ActiveContextResolver interface {
	// ResolveActiveOrganization returns "" when there is no usable context.
	// An error means the context could not be determined.
	ResolveActiveOrganization(ctx context.Context, principal *Principal) (string, error)
}

// PrincipalLoader loads the current principal record.
type PrincipalLoader interface {
	// LoadPrincipal returns ErrPrincipalNotFound when no record exists.
	LoadPrincipal(ctx context.Context, principalID string) (*Principal, error)
}

// AuditSink receives one record per authorization decision.
type AuditSink interface {
	RecordDecision(ctx context.Context, record *AuditRecord) error
}

// MembershipAdmin defines the membership administration operations.
type MembershipAdmin interface {
	Grant(ctx context.Context, organizationID, userID string, role Role) (*Membership, error)
	Suspend(ctx context.Context, membershipID string) (*Membership, error)
	Restore(ctx context.Context, membershipID string) (*Membership, error)
	ChangeRole(ctx context.Context, membershipID string, role Role) (*Membership, error)
	Revoke(ctx context.Context, membershipID string) (*Membership, error)
}

// OrganizationSwitcher performs the explicit "switch organization" action.
type OrganizationSwitcher interface {
	SwitchOrganization(ctx context.Context, userID, organizationID string) error
}

// AuditLogReader queries the decision and membership audit trails.
type AuditLogReader interface {
	DecisionAuditLog(ctx context.Context, filter DecisionAuditFilter) ([]AuditRecord, error)
	MembershipAuditLog(ctx context.Context, filter MembershipAuditFilter) ([]MembershipAuditLog, error)
}

// MembershipLister lists memberships and organizations.
type MembershipLister interface {
	ListMemberships(ctx context.Context, organizationID string) ([]Membership, error)
	ListOrganizationsForUser(ctx context.Context, userID string) ([]string, error)
}

// MigrationManager defines the migration management interface
type MigrationManager interface {
	Migrations() []dbkit.Migration
}

// HealthMonitor defines the health monitoring interface
type HealthMonitor interface {
	Health(ctx context.Context) dbkit.HealthStatus
	IsHealthy(ctx context.Context) bool
}

var (
	_ MembershipStore      = (*Store)(nil)
	_ PrincipalLoader      = (*Store)(nil)
	_ AuditSink            = (*Store)(nil)
	_ MembershipAdmin      = (*Store)(nil)
	_ OrganizationSwitcher = (*Store)(nil)
	_ AuditLogReader       = (*Store)(nil)
	_ MembershipLister     = (*Store)(nil)
	_ MigrationManager     = (*Store)(nil)
	_ HealthMonitor        = (*Store)(nil)

	_ MembershipStore      = (*MemoryStore)(nil)
	_ PrincipalLoader      = (*MemoryStore)(nil)
	_ AuditSink            = (*MemoryStore)(nil)
	_ MembershipAdmin      = (*MemoryStore)(nil)
	_ OrganizationSwitcher = (*MemoryStore)(nil)
	_ AuditLogReader       = (*MemoryStore)(nil)
	_ MembershipLister     = (*MemoryStore)(nil)
)
