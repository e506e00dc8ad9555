package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/fernandezvara/orgkit"
)

type AuditCmd struct {
	Decisions   AuditDecisionsCmd   `cmd:"" help:"Show authorization decisions"`
	Memberships AuditMembershipsCmd `cmd:"" help:"Show membership changes"`
}

type AuditDecisionsCmd struct {
	Principal    string        `help:"Filter by principal ID"`
	Organization string        `help:"Filter by organization ID"`
	Policy       string        `help:"Filter by policy name"`
	Outcome      string        `help:"Filter by outcome" enum:"allow,deny," default:""`
	Reason       string        `help:"Filter by reason"`
	Since        time.Duration `help:"Only entries newer than this (e.g. 24h)"`
	Limit        int           `help:"Maximum number of entries" default:"100"`
}

func (a *AuditDecisionsCmd) Run(ctx context.Context, globals *Globals) error {
	store, closeDB, err := openStore(globals)
	if err != nil {
		return err
	}
	defer closeDB()

	filter := orgkit.NewDecisionAuditFilter().
		WithPrincipal(a.Principal).
		WithOrganization(a.Organization).
		WithRequirement(a.Policy).
		WithOutcome(orgkit.Outcome(a.Outcome)).
		WithReason(orgkit.Reason(a.Reason)).
		WithPagination(a.Limit, 0)
	if a.Since > 0 {
		filter = filter.WithTimeRange(time.Now().Add(-a.Since), time.Time{})
	}

	records, err := store.DecisionAuditLog(ctx, filter)
	if err != nil {
		return err
	}
	for _, r := range records {
		fmt.Printf("%s  %-5s  %-24s  %-20s  %-20s  %-24s  %s\n",
			r.Timestamp.Format(time.RFC3339), r.Outcome, r.Reason, r.PrincipalID, r.OrganizationID, r.Requirement, r.Role)
	}
	return nil
}

type AuditMembershipsCmd struct {
	Actor        string        `help:"Filter by actor ID"`
	User         string        `help:"Filter by affected user ID"`
	Organization string        `help:"Filter by organization ID"`
	Membership   string        `help:"Filter by membership ID"`
	Action       string        `help:"Filter by action" enum:"granted,suspended,restored,role_changed,revoked," default:""`
	Since        time.Duration `help:"Only entries newer than this (e.g. 24h)"`
	Limit        int           `help:"Maximum number of entries" default:"100"`
}

func (a *AuditMembershipsCmd) Run(ctx context.Context, globals *Globals) error {
	store, closeDB, err := openStore(globals)
	if err != nil {
		return err
	}
	defer closeDB()

	filter := orgkit.NewMembershipAuditFilter().
		WithActor(a.Actor).
		WithUser(a.User).
		WithOrganization(a.Organization).
		WithMembership(a.Membership).
		WithAction(orgkit.MembershipAction(a.Action)).
		WithPagination(a.Limit, 0)
	if a.Since > 0 {
		filter = filter.WithTimeRange(time.Now().Add(-a.Since), time.Time{})
	}

	logs, err := store.MembershipAuditLog(ctx, filter)
	if err != nil {
		return err
	}
	for _, l := range logs {
		fmt.Printf("%s  %-12s  %-20s  %-36s  %-20s  %s -> %s  %s -> %s\n",
			l.Timestamp.Format(time.RFC3339), l.Action, l.ActorID, l.MembershipID, l.UserID,
			l.PreviousRole, l.NewRole, l.PreviousState, l.NewState)
	}
	return nil
}
