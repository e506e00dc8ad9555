package orgkit

import (
	"context"
	"fmt"

	"github.com/fernandezvara/dbkit"
)

// Migrations returns all database migrations required by the Store.
// Use Migrate, or dbkit's Migrate(ctx, store.Migrations()) directly.
func (s *Store) Migrations() []dbkit.Migration {
	return []dbkit.Migration{
		{
			ID:          "orgkit-001",
			Description: "Create organizations table",
			SQL: `
                CREATE TABLE IF NOT EXISTS organizations (
                    id TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
                    name TEXT NOT NULL,
                    state TEXT NOT NULL DEFAULT 'active',
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                )`,
		},
		{
			ID:          "orgkit-002",
			Description: "Create principals table",
			SQL: `
                CREATE TABLE IF NOT EXISTS principals (
                    id TEXT PRIMARY KEY,
                    active_organization_id TEXT,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                )`,
		},
		{
			ID:          "orgkit-003",
			Description: "Create organization_users table",
			SQL: `
                CREATE TABLE IF NOT EXISTS organization_users (
                    id TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
                    organization_id TEXT NOT NULL,
                    user_id TEXT NOT NULL,
                    role TEXT NOT NULL,
                    state TEXT NOT NULL DEFAULT 'active',
                    granted_on TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    revoked_on TIMESTAMPTZ,
                    granted_by TEXT,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                )`,
		},
		{
			ID:          "orgkit-004",
			Description: "Index organization_users by organization and user",
			SQL: `
                CREATE INDEX IF NOT EXISTS idx_organization_users_lookup
                    ON organization_users (organization_id, user_id, state)`,
		},
		{
			ID:          "orgkit-005",
			Description: "Index organization_users by user",
			SQL: `
                CREATE INDEX IF NOT EXISTS idx_organization_users_user
                    ON organization_users (user_id, state)`,
		},
		{
			ID:          "orgkit-006",
			Description: "Create authorization_audit_log table",
			SQL: `
                CREATE TABLE IF NOT EXISTS authorization_audit_log (
                    id TEXT PRIMARY KEY,
                    timestamp TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    principal_id TEXT,
                    requirement TEXT NOT NULL,
                    organization_id TEXT,
                    role TEXT,
                    outcome TEXT NOT NULL,
                    reason TEXT NOT NULL,
                    error TEXT,
                    request_id TEXT,
                    ip_address TEXT,
                    user_agent TEXT
                )`,
		},
		{
			ID:          "orgkit-007",
			Description: "Create membership_audit_log table",
			SQL: `
                CREATE TABLE IF NOT EXISTS membership_audit_log (
                    id TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
                    timestamp TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    actor_id TEXT,
                    action TEXT NOT NULL,
                    membership_id TEXT NOT NULL,
                    organization_id TEXT NOT NULL,
                    user_id TEXT NOT NULL,
                    previous_role TEXT,
                    new_role TEXT,
                    previous_state TEXT,
                    new_state TEXT NOT NULL,
                    ip_address TEXT,
                    user_agent TEXT,
                    request_id TEXT
                )`,
		},
	}
}

// Migrate applies pending migrations and returns the IDs that were applied.
// Requires a dbkit.DBKit instance.
func (s *Store) Migrate(ctx context.Context) ([]string, error) {
	db, ok := s.db.(*dbkit.DBKit)
	if !ok {
		return nil, fmt.Errorf("migrations require a dbkit.DBKit instance")
	}

	result, err := db.Migrate(ctx, s.Migrations())
	if err != nil {
		return nil, err
	}

	applied := make([]string, 0, len(result.Applied))
	for _, m := range result.Applied {
		applied = append(applied, m.ID)
	}
	if len(applied) > 0 {
		s.logger.Info().Strs("migrations", applied).Msg("Applied migrations")
	}
	return applied, nil
}
