package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/fernandezvara/orgkit/cmd/orgkit/internal/commands"
	"github.com/joho/godotenv"
)

var (
	version = "dev"
	cli     struct {
		Validate   commands.ValidateCmd   `cmd:"" help:"Validate a policy file"`
		Migrate    commands.MigrateCmd    `cmd:"" help:"Apply database migrations"`
		Check      commands.CheckCmd      `cmd:"" help:"Evaluate a policy for a user"`
		Grant      commands.GrantCmd      `cmd:"" help:"Grant a membership"`
		Suspend    commands.SuspendCmd    `cmd:"" help:"Suspend a membership"`
		Restore    commands.RestoreCmd    `cmd:"" help:"Restore a suspended membership"`
		ChangeRole commands.ChangeRoleCmd `cmd:"" name:"change-role" help:"Change the role of a membership"`
		Revoke     commands.RevokeCmd     `cmd:"" help:"Revoke a membership"`
		Members    commands.MembersCmd    `cmd:"" help:"List memberships of an organization"`
		Switch     commands.SwitchCmd     `cmd:"" help:"Switch a user's active organization"`
		Audit      commands.AuditCmd      `cmd:"" help:"Query audit logs"`
		Health     commands.HealthCmd     `cmd:"" help:"Check database health"`

		DatabaseURL string `help:"PostgreSQL connection URL." env:"ORGKIT_DATABASE_URL" name:"database-url"`
		Debug       bool   `help:"Enable debug mode."`
		Version     kong.VersionFlag
	}
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("orgkit"),
		kong.Description("Organization-scoped role authorization."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version, DatabaseURL: cli.DatabaseURL})
	cmd.FatalIfErrorf(err)
}
