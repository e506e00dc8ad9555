package orgkit

import (
	"context"
	"time"

	"github.com/fernandezvara/dbkit"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ============================================================================
// MEMBERSHIP ADMINISTRATION
// ============================================================================

// Grant creates an active membership, typically when an invite is accepted.
// The actor in context is recorded as GrantedBy; without one the membership is
// treated as system-created.
//
// Example:
//
//	ctx = orgkit.WithActorID(ctx, adminID)
//	m, err := store.Grant(ctx, orgID, userID, orgkit.RoleManager)
func (s *Store) Grant(ctx context.Context, organizationID, userID string, role Role) (*Membership, error) {
	if err := role.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
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

	err := s.withTx(ctx, func(db dbkit.IDB) error {
		exists, err := dbkit.Exists[Membership](ctx, db, func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("organization_id = ? AND user_id = ? AND state = ?", organizationID, userID, MembershipActive)
		})
		if err != nil {
			return dbkit.WithErr1(err, "CheckMembershipExists").Err()
		}
		if exists {
			return NewError(ErrMembershipExists, "user already has an effective membership").
				WithOrganization(organizationID).
				WithUser(userID)
		}

		result, err := db.NewInsert().Model(m).Exec(ctx)
		if err := dbkit.WithErr(result, err, "CreateMembership").Err(); err != nil {
			return err
		}

		_, err = db.NewInsert().Model(newMembershipAuditLog(ctx, MembershipActionGranted, nil, m)).Exec(ctx)
		return dbkit.WithErr1(err, "LogMembershipChange").Err()
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("membership_id", m.ID).
		Str("organization_id", organizationID).
		Str("user_id", userID).
		Str("role", string(role)).
		Msg("Granted membership")
	return m, nil
}

// Suspend deactivates a membership without deleting it.
func (s *Store) Suspend(ctx context.Context, membershipID string) (*Membership, error) {
	return s.apply(ctx, membershipID, MembershipActionSuspended, nil)
}

// Restore reactivates a suspended membership.
func (s *Store) Restore(ctx context.Context, membershipID string) (*Membership, error) {
	return s.apply(ctx, membershipID, MembershipActionRestored, nil)
}

// ChangeRole replaces the role of a non-revoked membership.
func (s *Store) ChangeRole(ctx context.Context, membershipID string, role Role) (*Membership, error) {
	if err := role.Validate(); err != nil {
		return nil, err
	}
	return s.apply(ctx, membershipID, MembershipActionRoleChanged, func(m *Membership) {
		m.Role = role
	})
}

// Revoke soft-deletes a membership. The row is kept for provenance.
func (s *Store) Revoke(ctx context.Context, membershipID string) (*Membership, error) {
	return s.apply(ctx, membershipID, MembershipActionRevoked, nil)
}

// apply locks the membership row, checks the lifecycle transition, persists the
// change and its audit entry in one transaction.
func (s *Store) apply(ctx context.Context, membershipID string, action MembershipAction, mutate func(*Membership)) (*Membership, error) {
	var m Membership
	err := s.withTx(ctx, func(db dbkit.IDB) error {
		err := dbkit.WithErr1(db.NewSelect().Model(&m).
			Where("id = ?", membershipID).
			For("UPDATE").
			Limit(1).
			Scan(ctx), "LockMembership").Err()
		if err != nil {
			if dbkit.IsNotFound(err) {
				return NewError(ErrMembershipNotFound, "membership "+membershipID+" not found")
			}
			return err
		}

		next, err := m.State.next(action)
		if err != nil {
			return err
		}

		if action == MembershipActionRestored {
			exists, err := dbkit.Exists[Membership](ctx, db, func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.Where("organization_id = ? AND user_id = ? AND state = ? AND id <> ?",
					m.OrganizationID, m.UserID, MembershipActive, m.ID)
			})
			if err != nil {
				return dbkit.WithErr1(err, "CheckMembershipExists").Err()
			}
			if exists {
				return NewError(ErrMembershipExists, "user already has an effective membership").
					WithOrganization(m.OrganizationID).
					WithUser(m.UserID)
			}
		}

		before := copyMembership(&m)
		now := time.Now()
		m.State = next
		m.UpdatedAt = now
		if next == MembershipRevoked {
			m.RevokedOn = &now
		}
		if mutate != nil {
			mutate(&m)
		}

		result, err := db.NewUpdate().Model(&m).
			Column("role", "state", "revoked_on", "updated_at").
			WherePK().
			Exec(ctx)
		if err := dbkit.WithErr(result, err, "UpdateMembership").Err(); err != nil {
			return err
		}

		_, err = db.NewInsert().Model(newMembershipAuditLog(ctx, action, before, &m)).Exec(ctx)
		return dbkit.WithErr1(err, "LogMembershipChange").Err()
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("membership_id", m.ID).
		Str("action", string(action)).
		Str("state", string(m.State)).
		Msg("Updated membership")
	return &m, nil
}

// SwitchOrganization sets the principal's active organization. The target must
// not be archived and the user must hold an effective membership in it.
// The principal record is created on first switch.
func (s *Store) SwitchOrganization(ctx context.Context, userID, organizationID string) error {
	return s.withTx(ctx, func(db dbkit.IDB) error {
		var org Organization
		err := dbkit.WithErr1(db.NewSelect().Model(&org).Where("id = ?", organizationID).Limit(1).Scan(ctx), "GetOrganization").Err()
		if err != nil && !dbkit.IsNotFound(err) {
			return err
		}
		if err == nil && org.IsArchived() {
			return NewError(ErrOrganizationArchived, "cannot switch into an archived organization").
				WithOrganization(organizationID)
		}

		exists, err := dbkit.Exists[Membership](ctx, db, func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("organization_id = ? AND user_id = ? AND state = ?", organizationID, userID, MembershipActive)
		})
		if err != nil {
			return dbkit.WithErr1(err, "CheckMembershipExists").Err()
		}
		if !exists {
			return NewError(ErrNoMembership, "cannot switch into an organization without membership").
				WithOrganization(organizationID).
				WithUser(userID)
		}

		now := time.Now()
		principal := &Principal{
			ID:                   userID,
			ActiveOrganizationID: organizationID,
			CreatedAt:            now,
			UpdatedAt:            now,
		}
		result, err := db.NewInsert().Model(principal).
			On("CONFLICT (id) DO UPDATE").
			Set("active_organization_id = EXCLUDED.active_organization_id").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err := dbkit.WithErr(result, err, "SwitchOrganization").Err(); err != nil {
			return err
		}

		s.logger.Info().
			Str("user_id", userID).
			Str("organization_id", organizationID).
			Msg("Switched active organization")
		return nil
	})
}
