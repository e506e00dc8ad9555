package orgkit

import (
	"context"
	"fmt"

	"github.com/fernandezvara/dbkit"
	"github.com/rs/zerolog"
)

// Store is the PostgreSQL-backed implementation of MembershipStore,
// PrincipalLoader and AuditSink, plus membership administration.
// It integrates with the database through dbkit.
//
// Error Handling:
// Read failures are wrapped with dbkit's chainable error context and returned
// as ErrStoreUnavailable so the Engine denies with ReasonStoreUnavailable.
// A missing row is never an error on the read path:
//
//	m, err := store.FindEffectiveMembership(ctx, orgID, userID)
//	if err != nil {
//	    // orgkit.IsStoreUnavailable(err) == true
//	}
//	if m == nil {
//	    // not a member
//	}
type Store struct {
	db     dbkit.IDB
	logger zerolog.Logger
}

// StoreOption configures the Store.
type StoreOption func(*Store)

// WithStoreLogger sets the logger used for write-path events.
func WithStoreLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a new Store.
//
// Example:
//
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	store := orgkit.NewStore(db)
func NewStore(db dbkit.IDB, opts ...StoreOption) *Store {
	s := &Store{
		db:     db,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FindEffectiveMembership implements MembershipStore. When duplicate effective
// rows exist the most recent grant wins, ties broken by ID.
func (s *Store) FindEffectiveMembership(ctx context.Context, organizationID, userID string) (*Membership, error) {
	var m Membership
	err := dbkit.WithErr1(s.db.NewSelect().Model(&m).
		Where("organization_id = ?", organizationID).
		Where("user_id = ?", userID).
		Where("state = ?", MembershipActive).
		Order("granted_on DESC", "id DESC").
		Limit(1).
		Scan(ctx), "FindEffectiveMembership").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return nil, nil
		}
		return nil, NewError(ErrStoreUnavailable, "failed to load membership").
			WithCause(err).
			WithOrganization(organizationID).
			WithUser(userID)
	}
	return &m, nil
}

// LoadPrincipal implements PrincipalLoader.
func (s *Store) LoadPrincipal(ctx context.Context, principalID string) (*Principal, error) {
	var p Principal
	err := dbkit.WithErr1(s.db.NewSelect().Model(&p).
		Where("id = ?", principalID).
		Limit(1).
		Scan(ctx), "LoadPrincipal").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return nil, ErrPrincipalNotFound
		}
		return nil, NewError(ErrStoreUnavailable, "failed to load principal").
			WithCause(err).
			WithUser(principalID)
	}
	return &p, nil
}

// RecordDecision implements AuditSink.
func (s *Store) RecordDecision(ctx context.Context, record *AuditRecord) error {
	_, err := s.db.NewInsert().Model(record).Exec(ctx)
	return dbkit.WithErr1(err, "RecordDecision").Err()
}

// ============================================================================
// QUERIES
// ============================================================================

// GetOrganization loads an organization by ID.
func (s *Store) GetOrganization(ctx context.Context, organizationID string) (*Organization, error) {
	var org Organization
	err := dbkit.WithErr1(s.db.NewSelect().Model(&org).Where("id = ?", organizationID).Limit(1).Scan(ctx), "GetOrganization").Err()
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// ListMemberships returns every membership of an organization, including
// suspended and revoked ones, most recent grant first.
func (s *Store) ListMemberships(ctx context.Context, organizationID string) ([]Membership, error) {
	var memberships []Membership
	err := dbkit.WithErr1(s.db.NewSelect().Model(&memberships).
		Where("organization_id = ?", organizationID).
		Order("granted_on DESC", "id DESC").
		Scan(ctx), "ListMemberships").Err()
	if err != nil {
		return nil, err
	}
	return memberships, nil
}

// ListOrganizationsForUser returns the IDs of organizations where the user has
// an effective membership.
func (s *Store) ListOrganizationsForUser(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := dbkit.WithErr1(s.db.NewRaw(
		"SELECT DISTINCT organization_id FROM organization_users WHERE user_id = ? AND state = ? ORDER BY organization_id",
		userID, MembershipActive).Scan(ctx, &ids), "ListOrganizationsForUser").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return ids, nil
}

// DecisionAuditLog retrieves decision audit entries with optional filters.
func (s *Store) DecisionAuditLog(ctx context.Context, filter DecisionAuditFilter) ([]AuditRecord, error) {
	var records []AuditRecord
	q := s.db.NewSelect().Model(&records)
	if filter.PrincipalID != "" {
		q = q.Where("principal_id = ?", filter.PrincipalID)
	}
	if filter.OrganizationID != "" {
		q = q.Where("organization_id = ?", filter.OrganizationID)
	}
	if filter.Requirement != "" {
		q = q.Where("requirement = ?", filter.Requirement)
	}
	if filter.Outcome != "" {
		q = q.Where("outcome = ?", filter.Outcome)
	}
	if filter.Reason != "" {
		q = q.Where("reason = ?", filter.Reason)
	}
	if !filter.Since.IsZero() {
		q = q.Where("timestamp >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		q = q.Where("timestamp <= ?", filter.Until)
	}

	q = q.Limit(filter.limit())
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	q = q.Order("timestamp DESC")
	if err := dbkit.WithErr1(q.Scan(ctx), "DecisionAuditLog").Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// MembershipAuditLog retrieves membership change entries with optional filters.
func (s *Store) MembershipAuditLog(ctx context.Context, filter MembershipAuditFilter) ([]MembershipAuditLog, error) {
	var logs []MembershipAuditLog
	q := s.db.NewSelect().Model(&logs)
	if filter.ActorID != "" {
		q = q.Where("actor_id = ?", filter.ActorID)
	}
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.OrganizationID != "" {
		q = q.Where("organization_id = ?", filter.OrganizationID)
	}
	if filter.MembershipID != "" {
		q = q.Where("membership_id = ?", filter.MembershipID)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if !filter.Since.IsZero() {
		q = q.Where("timestamp >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		q = q.Where("timestamp <= ?", filter.Until)
	}

	q = q.Limit(filter.limit())
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	q = q.Order("timestamp DESC")
	if err := dbkit.WithErr1(q.Scan(ctx), "MembershipAuditLog").Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

// withTx runs fn inside a transaction, nesting as a savepoint when the store
// is already bound to one.
func (s *Store) withTx(ctx context.Context, fn func(db dbkit.IDB) error) error {
	switch db := s.db.(type) {
	case *dbkit.Tx:
		return db.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(tx)
		})
	case *dbkit.DBKit:
		return db.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(tx)
		})
	default:
		return fmt.Errorf("transaction support requires a dbkit.DBKit or dbkit.Tx instance")
	}
}
