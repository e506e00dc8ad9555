package orgkit

import (
	"time"

	"github.com/uptrace/bun"
)

// Principal is an authenticated actor making a request. It is built once per
// request by the identity layer and passed explicitly to the Engine.
type Principal struct {
	bun.BaseModel `bun:"table:principals,alias:p"`

	ID                   string    `bun:"id,pk"`
	ActiveOrganizationID string    `bun:"active_organization_id,nullzero"`
	CreatedAt            time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt            time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// NewPrincipal creates a Principal acting within activeOrganizationID.
// An empty activeOrganizationID means no organization context is selected.
func NewPrincipal(id, activeOrganizationID string) *Principal {
	return &Principal{ID: id, ActiveOrganizationID: activeOrganizationID}
}

// IsAuthenticated reports whether p identifies an actor.
// A nil principal or one without an ID is anonymous.
func (p *Principal) IsAuthenticated() bool {
	return p != nil && p.ID != ""
}

// OrganizationState is the lifecycle state of an organization.
type OrganizationState string

const (
	OrganizationActive   OrganizationState = "active"
	OrganizationArchived OrganizationState = "archived"
)

// Organization is the tenant boundary.
type Organization struct {
	bun.BaseModel `bun:"table:organizations,alias:o"`

	ID        string            `bun:"id,pk,default:gen_random_uuid()::text"`
	Name      string            `bun:"name,notnull"`
	State     OrganizationState `bun:"state,notnull,default:'active'"`
	CreatedAt time.Time         `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time         `bun:"updated_at,notnull,default:current_timestamp"`
}

// IsArchived reports whether the organization no longer accepts new activity.
func (o *Organization) IsArchived() bool {
	return o.State == OrganizationArchived
}

// MembershipState is the single lifecycle field of a membership.
// Only MembershipActive is effective; MembershipRevoked is the soft-deleted state.
type MembershipState string

const (
	MembershipActive    MembershipState = "active"
	MembershipSuspended MembershipState = "suspended"
	MembershipRevoked   MembershipState = "revoked"
)

// StateFromFlags maps the legacy isActive/isDeleted pair onto a MembershipState.
// Deletion always wins over the active flag.
func StateFromFlags(isActive, isDeleted bool) MembershipState {
	switch {
	case isDeleted:
		return MembershipRevoked
	case isActive:
		return MembershipActive
	default:
		return MembershipSuspended
	}
}

// MembershipAction is a change applied to a membership.
type MembershipAction string

const (
	MembershipActionGranted     MembershipAction = "granted"
	MembershipActionSuspended   MembershipAction = "suspended"
	MembershipActionRestored    MembershipAction = "restored"
	MembershipActionRoleChanged MembershipAction = "role_changed"
	MembershipActionRevoked     MembershipAction = "revoked"
)

// next returns the state reached by applying action to s.
func (s MembershipState) next(action MembershipAction) (MembershipState, error) {
	switch action {
	case MembershipActionSuspended:
		if s == MembershipActive {
			return MembershipSuspended, nil
		}
	case MembershipActionRestored:
		if s == MembershipSuspended {
			return MembershipActive, nil
		}
	case MembershipActionRevoked:
		if s == MembershipActive || s == MembershipSuspended {
			return MembershipRevoked, nil
		}
	case MembershipActionRoleChanged:
		if s == MembershipActive || s == MembershipSuspended {
			return s, nil
		}
	}
	return s, NewError(ErrInvalidTransition, string(action)+" not allowed from "+string(s))
}

// Membership links a principal to an organization with a role ("OrganizationUser").
// Rows are never physically deleted so grant provenance survives revocation.
type Membership struct {
	bun.BaseModel `bun:"table:organization_users,alias:ou"`

	ID             string          `bun:"id,pk,default:gen_random_uuid()::text"`
	OrganizationID string          `bun:"organization_id,notnull"`
	UserID         string          `bun:"user_id,notnull"`
	Role           Role            `bun:"role,notnull"`
	State          MembershipState `bun:"state,notnull,default:'active'"`
	GrantedOn      time.Time       `bun:"granted_on,notnull,default:current_timestamp"`
	RevokedOn      *time.Time      `bun:"revoked_on"`
	GrantedBy      *string         `bun:"granted_by"` // nil for system-created memberships
	UpdatedAt      time.Time       `bun:"updated_at,notnull,default:current_timestamp"`
}

// IsActive reports whether the membership has not been suspended or revoked.
func (m *Membership) IsActive() bool {
	return m.State == MembershipActive
}

// IsDeleted reports whether the membership has been soft-deleted.
func (m *Membership) IsDeleted() bool {
	return m.State == MembershipRevoked
}

// IsEffective reports whether the membership currently grants access:
// active and not soft-deleted.
func (m *Membership) IsEffective() bool {
	return m != nil && m.IsActive() && !m.IsDeleted()
}

// newerThan orders duplicate effective memberships: most recent grant first,
// then the larger ID so the choice is stable when grants share a timestamp.
func (m *Membership) newerThan(other *Membership) bool {
	if !m.GrantedOn.Equal(other.GrantedOn) {
		return m.GrantedOn.After(other.GrantedOn)
	}
	return m.ID > other.ID
}
