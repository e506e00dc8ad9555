package orgkit

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSink struct {
	err   error
	calls int
}

func (s *failingSink) RecordDecision(ctx context.Context, record *AuditRecord) error {
	s.calls++
	return s.err
}

func TestNewAuditRecord(t *testing.T) {
	ctx := WithAuditContext(context.Background(), AuditContext{
		IPAddress: "10.0.0.1",
		UserAgent: "test-agent",
		RequestID: "req-1",
	})
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	d := Decision{
		Outcome:        Deny,
		Reason:         ReasonStoreUnavailable,
		Requirement:    "leases.sign",
		OrganizationID: "org-1",
		Cause:          errors.New("connection refused"),
	}

	record := newAuditRecord(ctx, NewPrincipal("user-1", "org-1"), d, ts)

	assert.NotEmpty(t, record.ID)
	assert.Equal(t, ts, record.Timestamp)
	assert.Equal(t, "user-1", record.PrincipalID)
	assert.Equal(t, "leases.sign", record.Requirement)
	assert.Equal(t, "org-1", record.OrganizationID)
	assert.Equal(t, Deny, record.Outcome)
	assert.Equal(t, ReasonStoreUnavailable, record.Reason)
	assert.Equal(t, "connection refused", record.Error)
	assert.Equal(t, "req-1", record.RequestID)
	assert.Equal(t, "10.0.0.1", record.IPAddress)
	assert.Equal(t, "test-agent", record.UserAgent)

	anonymous := newAuditRecord(context.Background(), nil, Decision{Outcome: Deny, Reason: ReasonUnauthenticated}, ts)
	assert.Empty(t, anonymous.PrincipalID)
	assert.NotEqual(t, record.ID, anonymous.ID)
}

func TestNewMembershipAuditLog(t *testing.T) {
	ctx := WithActorID(context.Background(), "admin-1")
	before := &Membership{ID: "m1", OrganizationID: "org-1", UserID: "user-1", Role: RoleTenant, State: MembershipActive}
	after := &Membership{ID: "m1", OrganizationID: "org-1", UserID: "user-1", Role: RoleManager, State: MembershipActive}

	entry := newMembershipAuditLog(ctx, MembershipActionRoleChanged, before, after)
	assert.Equal(t, "admin-1", entry.ActorID)
	assert.Equal(t, MembershipActionRoleChanged, entry.Action)
	assert.Equal(t, RoleTenant, entry.PreviousRole)
	assert.Equal(t, RoleManager, entry.NewRole)
	assert.Equal(t, MembershipActive, entry.PreviousState)
	assert.Equal(t, MembershipActive, entry.NewState)

	granted := newMembershipAuditLog(ctx, MembershipActionGranted, nil, after)
	assert.Empty(t, granted.PreviousRole)
	assert.Empty(t, granted.PreviousState)
}

func TestLogAuditSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogAuditSink(zerolog.New(&buf).Level(zerolog.InfoLevel))

	require.NoError(t, sink.RecordDecision(context.Background(), &AuditRecord{
		Outcome: Allow, Reason: ReasonRoleMatch, Requirement: "leases.sign",
	}))
	assert.Empty(t, buf.String(), "allows are logged at debug")

	require.NoError(t, sink.RecordDecision(context.Background(), &AuditRecord{
		Outcome: Deny, Reason: ReasonRoleMismatch, Requirement: "leases.sign", PrincipalID: "user-1",
	}))
	assert.Contains(t, buf.String(), `"reason":"role_mismatch"`)
	assert.Contains(t, buf.String(), `"principal_id":"user-1"`)
}

func TestMultiAuditSink(t *testing.T) {
	ok := &failingSink{}
	bad := &failingSink{err: errors.New("disk full")}
	sink := MultiAuditSink{ok, bad, ok}

	err := sink.RecordDecision(context.Background(), &AuditRecord{})
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, 2, ok.calls)
	assert.Equal(t, 1, bad.calls)

	assert.NoError(t, MultiAuditSink{ok}.RecordDecision(context.Background(), &AuditRecord{}))
}
