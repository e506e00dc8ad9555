package orgkit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
)

// AuditRecord records one authorization decision, Allow or Deny.
type AuditRecord struct {
	bun.BaseModel `bun:"table:authorization_audit_log,alias:aal"`

	ID             string    `bun:"id,pk"`
	Timestamp      time.Time `bun:"timestamp,notnull"`
	PrincipalID    string    `bun:"principal_id"`
	Requirement    string    `bun:"requirement,notnull"`
	OrganizationID string    `bun:"organization_id"`
	Role           Role      `bun:"role"`
	Outcome        Outcome   `bun:"outcome,notnull"`
	Reason         Reason    `bun:"reason,notnull"`
	Error          string    `bun:"error"`

	// Request metadata for forensics
	RequestID string `bun:"request_id"`
	IPAddress string `bun:"ip_address"`
	UserAgent string `bun:"user_agent"`
}

func newAuditRecord(ctx context.Context, principal *Principal, d Decision, ts time.Time) *AuditRecord {
	audit := GetAuditContext(ctx)
	record := &AuditRecord{
		ID:             uuid.NewString(),
		Timestamp:      ts,
		Requirement:    d.Requirement,
		OrganizationID: d.OrganizationID,
		Role:           d.Role,
		Outcome:        d.Outcome,
		Reason:         d.Reason,
		RequestID:      audit.RequestID,
		IPAddress:      audit.IPAddress,
		UserAgent:      audit.UserAgent,
	}
	if principal != nil {
		record.PrincipalID = principal.ID
	}
	if d.Cause != nil {
		record.Error = d.Cause.Error()
	}
	return record
}

// MembershipAuditLog records every membership lifecycle change.
type MembershipAuditLog struct {
	bun.BaseModel `bun:"table:membership_audit_log,alias:mal"`

	ID        string    `bun:"id,pk,default:gen_random_uuid()::text"`
	Timestamp time.Time `bun:"timestamp,notnull,default:current_timestamp"`

	// Who performed the action; empty for system changes
	ActorID string `bun:"actor_id"`

	Action         MembershipAction `bun:"action,notnull"`
	MembershipID   string           `bun:"membership_id,notnull"`
	OrganizationID string           `bun:"organization_id,notnull"`
	UserID         string           `bun:"user_id,notnull"`

	PreviousRole  Role            `bun:"previous_role"`
	NewRole       Role            `bun:"new_role"`
	PreviousState MembershipState `bun:"previous_state"`
	NewState      MembershipState `bun:"new_state,notnull"`

	IPAddress string `bun:"ip_address"`
	UserAgent string `bun:"user_agent"`
	RequestID string `bun:"request_id"`
}

func newMembershipAuditLog(ctx context.Context, action MembershipAction, before *Membership, after *Membership) *MembershipAuditLog {
	audit := GetAuditContext(ctx)
	entry := &MembershipAuditLog{
		Timestamp:      time.Now(),
		ActorID:        audit.ActorID,
		Action:         action,
		MembershipID:   after.ID,
		OrganizationID: after.OrganizationID,
		UserID:         after.UserID,
		NewRole:        after.Role,
		NewState:       after.State,
		IPAddress:      audit.IPAddress,
		UserAgent:      audit.UserAgent,
		RequestID:      audit.RequestID,
	}
	if before != nil {
		entry.PreviousRole = before.Role
		entry.PreviousState = before.State
	}
	return entry
}

// LogAuditSink writes decision records to a zerolog logger.
type LogAuditSink struct {
	logger zerolog.Logger
}

// NewLogAuditSink creates a sink that logs allows at debug and denies at info.
func NewLogAuditSink(logger zerolog.Logger) *LogAuditSink {
	return &LogAuditSink{logger: logger}
}

// RecordDecision implements AuditSink.
func (s *LogAuditSink) RecordDecision(ctx context.Context, record *AuditRecord) error {
	ev := s.logger.Info()
	if record.Outcome == Allow {
		ev = s.logger.Debug()
	}
	ev.Str("principal_id", record.PrincipalID).
		Str("requirement", record.Requirement).
		Str("organization_id", record.OrganizationID).
		Str("role", string(record.Role)).
		Str("outcome", string(record.Outcome)).
		Str("reason", string(record.Reason)).
		Str("request_id", record.RequestID).
		Time("timestamp", record.Timestamp).
		Msg("authorization decision")
	return nil
}

// MultiAuditSink fans a record out to several sinks.
type MultiAuditSink []AuditSink

// RecordDecision delivers record to every sink and joins their errors.
func (m MultiAuditSink) RecordDecision(ctx context.Context, record *AuditRecord) error {
	var errs []error
	for _, sink := range m {
		if err := sink.RecordDecision(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
