package commands

import (
	"context"
	"fmt"

	"github.com/fernandezvara/orgkit"
	"github.com/rs/zerolog/log"
)

type CheckCmd struct {
	Policies string `help:"Path to the policy YAML file" type:"existingfile" required:"" env:"ORGKIT_POLICIES"`
	User     string `arg:"" help:"User ID to check"`
	Policy   string `arg:"" help:"Policy name to evaluate"`
	Record   bool   `help:"Write the decision to the authorization audit log" default:"false"`
}

func (c *CheckCmd) Run(ctx context.Context, globals *Globals) error {
	store, closeDB, err := openStore(globals)
	if err != nil {
		return err
	}
	defer closeDB()

	registry, err := orgkit.LoadRegistryFile(c.Policies)
	if err != nil {
		return err
	}

	opts := []orgkit.EngineOption{orgkit.WithLogger(log.Logger)}
	if c.Record {
		opts = append(opts, orgkit.WithAuditSink(orgkit.MultiAuditSink{store, orgkit.NewLogAuditSink(log.Logger)}))
	}
	engine, err := orgkit.NewEngine(registry, store, orgkit.NewLoadingResolver(store), opts...)
	if err != nil {
		return err
	}

	d, err := engine.Authorize(ctx, orgkit.NewPrincipal(c.User, ""), c.Policy)
	if err != nil {
		return err
	}

	fmt.Printf("outcome:      %s\n", d.Outcome)
	fmt.Printf("reason:       %s\n", d.Reason)
	fmt.Printf("organization: %s\n", d.OrganizationID)
	fmt.Printf("role:         %s\n", d.Role)
	if d.Cause != nil {
		fmt.Printf("cause:        %v\n", d.Cause)
	}
	return d.Err()
}
