package orgkit

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory implementation of the store interfaces for
// development and testing. It follows the same lifecycle and tie-break rules
// as Store.
type MemoryStore struct {
	mu            sync.RWMutex
	memberships   map[string]*Membership
	principals    map[string]*Principal
	organizations map[string]*Organization
	decisions     []AuditRecord
	changes       []MembershipAuditLog
	now           func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		memberships:   make(map[string]*Membership),
		principals:    make(map[string]*Principal),
		organizations: make(map[string]*Organization),
		now:           time.Now,
	}
}

// PutMembership stores a copy of m as-is, assigning an ID and grant time when
// missing. It bypasses lifecycle rules and is meant for seeding.
func (s *MemoryStore) PutMembership(m Membership) *Membership {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.GrantedOn.IsZero() {
		m.GrantedOn = s.now()
	}
	if m.State == "" {
		m.State = MembershipActive
	}
	s.memberships[m.ID] = &m
	return copyMembership(&m)
}

// PutPrincipal stores a copy of the principal record.
func (s *MemoryStore) PutPrincipal(p Principal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.principals[p.ID] = &p
}

// PutOrganization stores a copy of the organization.
func (s *MemoryStore) PutOrganization(o Organization) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.State == "" {
		o.State = OrganizationActive
	}
	s.organizations[o.ID] = &o
}

// FindEffectiveMembership implements MembershipStore.
func (s *MemoryStore) FindEffectiveMembership(ctx context.Context, organizationID, userID string) (*Membership, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return copyMembership(s.findEffective(organizationID, userID)), nil
}

func (s *MemoryStore) findEffective(organizationID, userID string) *Membership {
	var best *Membership
	for _, m := range s.memberships {
		if m.OrganizationID != organizationID || m.UserID != userID || !m.IsEffective() {
			continue
		}
		if best == nil || m.newerThan(best) {
			best = m
		}
	}
	return best
}

// LoadPrincipal implements PrincipalLoader.
func (s *MemoryStore) LoadPrincipal(ctx context.Context, principalID string) (*Principal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.principals[principalID]
	if !ok {
		return nil, ErrPrincipalNotFound
	}
	out := *p
	return &out, nil
}

// RecordDecision implements AuditSink.
func (s *MemoryStore) RecordDecision(ctx context.Context, record *AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions = append(s.decisions, *record)
	return nil
}

// Decisions returns the recorded decision audit entries, oldest first.
func (s *MemoryStore) Decisions() []AuditRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]AuditRecord, len(s.decisions))
	copy(out, s.decisions)
	return out
}

// MembershipChanges returns the recorded membership audit entries, oldest first.
func (s *MemoryStore) MembershipChanges() []MembershipAuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]MembershipAuditLog, len(s.changes))
	copy(out, s.changes)
	return out
}

// Grant creates an active membership. The actor in context is recorded as GrantedBy.
func (s *MemoryStore) Grant(ctx context.Context, organizationID, userID string, role Role) (*Membership, error) {
	if err := role.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findEffective(organizationID, userID) != nil {
		return nil, NewError(ErrMembershipExists, "user already has an effective membership").
			WithOrganization(organizationID).
			WithUser(userID)
	}

	now := s.now()
	m := &Membership{
		ID:             uuid.NewString(),
		OrganizationID: organizationID,
		UserID:         userID,
		Role:           role,
		State:          MembershipActive,
		GrantedOn:      now,
		UpdatedAt:      now,
	}
	if actorID := GetActorID(ctx); actorID != "" {
		m.GrantedBy = &actorID
	}
	s.memberships[m.ID] = m
	s.changes = append(s.changes, *newMembershipAuditLog(ctx, MembershipActionGranted, nil, m))
	return copyMembership(m), nil
}

// Suspend deactivates a membership without deleting it.
func (s *MemoryStore) Suspend(ctx context.Context, membershipID string) (*Membership, error) {
	return s.apply(ctx, membershipID, MembershipActionSuspended, nil)
}

// Restore reactivates a suspended membership.
func (s *MemoryStore) Restore(ctx context.Context, membershipID string) (*Membership, error) {
	return s.apply(ctx, membershipID, MembershipActionRestored, nil)
}

// ChangeRole replaces the role of a non-revoked membership.
func (s *MemoryStore) ChangeRole(ctx context.Context, membershipID string, role Role) (*Membership, error) {
	if err := role.Validate(); err != nil {
		return nil, err
	}
	return s.apply(ctx, membershipID, MembershipActionRoleChanged, func(m *Membership) {
		m.Role = role
	})
}

// Revoke soft-deletes a membership.
func (s *MemoryStore) Revoke(ctx context.Context, membershipID string) (*Membership, error) {
	return s.apply(ctx, membershipID, MembershipActionRevoked, nil)
}

func (s *MemoryStore) apply(ctx context.Context, membershipID string, action MembershipAction, mutate func(*Membership)) (*Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.memberships[membershipID]
	if !ok {
		return nil, NewError(ErrMembershipNotFound, "membership "+membershipID+" not found")
	}

	next, err := m.State.next(action)
	if err != nil {
		return nil, err
	}
	if action == MembershipActionRestored && s.findEffective(m.OrganizationID, m.UserID) != nil {
		return nil, NewError(ErrMembershipExists, "user already has an effective membership").
			WithOrganization(m.OrganizationID).
			WithUser(m.UserID)
	}

	before := copyMembership(m)
	now := s.now()
	m.State = next
	m.UpdatedAt = now
	if next == MembershipRevoked {
		m.RevokedOn = &now
	}
	if mutate != nil {
		mutate(m)
	}

	s.changes = append(s.changes, *newMembershipAuditLog(ctx, action, before, m))
	return copyMembership(m), nil
}

// SwitchOrganization implements OrganizationSwitcher.
func (s *MemoryStore) SwitchOrganization(ctx context.Context, userID, organizationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if org, ok := s.organizations[organizationID]; ok && org.IsArchived() {
		return NewError(ErrOrganizationArchived, "cannot switch into an archived organization").
			WithOrganization(organizationID)
	}
	if s.findEffective(organizationID, userID) == nil {
		return NewError(ErrNoMembership, "cannot switch into an organization without membership").
			WithOrganization(organizationID).
			WithUser(userID)
	}

	p, ok := s.principals[userID]
	if !ok {
		p = &Principal{ID: userID, CreatedAt: s.now()}
		s.principals[userID] = p
	}
	p.ActiveOrganizationID = organizationID
	p.UpdatedAt = s.now()
	return nil
}

// ListMemberships returns every membership of an organization, including
// suspended and revoked ones, most recent grant first.
func (s *MemoryStore) ListMemberships(ctx context.Context, organizationID string) ([]Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Membership
	for _, m := range s.memberships {
		if m.OrganizationID == organizationID {
			out = append(out, *copyMembership(m))
		}
	}
	sortMemberships(out)
	return out, nil
}

// ListOrganizationsForUser returns the IDs of organizations where the user has
// an effective membership, sorted.
func (s *MemoryStore) ListOrganizationsForUser(ctx context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	for _, m := range s.memberships {
		if m.UserID == userID && m.IsEffective() {
			seen[m.OrganizationID] = true
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func sortMemberships(ms []Membership) {
	sort.Slice(ms, func(i, j int) bool {
		return ms[i].newerThan(&ms[j])
	})
}

func copyMembership(m *Membership) *Membership {
	if m == nil {
		return nil
	}
	out := *m
	if m.RevokedOn != nil {
		t := *m.RevokedOn
		out.RevokedOn = &t
	}
	if m.GrantedBy != nil {
		g := *m.GrantedBy
		out.GrantedBy = &g
	}
	return &out
}

// DecisionAuditLog returns recorded decisions matching the filter, newest first.
func (s *MemoryStore) DecisionAuditLog(ctx context.Context, filter DecisionAuditFilter) ([]AuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []AuditRecord
	for i := len(s.decisions) - 1; i >= 0; i-- {
		if filter.Matches(&s.decisions[i]) {
			out = append(out, s.decisions[i])
		}
	}
	start, end := paginate(len(out), filter.limit(), filter.Offset)
	return out[start:end], nil
}

// MembershipAuditLog returns recorded membership changes matching the filter, newest first.
func (s *MemoryStore) MembershipAuditLog(ctx context.Context, filter MembershipAuditFilter) ([]MembershipAuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []MembershipAuditLog
	for i := len(s.changes) - 1; i >= 0; i-- {
		if filter.Matches(&s.changes[i]) {
			out = append(out, s.changes[i])
		}
	}
	start, end := paginate(len(out), filter.limit(), filter.Offset)
	return out[start:end], nil
}
