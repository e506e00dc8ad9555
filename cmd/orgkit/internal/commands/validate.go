package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/fernandezvara/orgkit"
	"github.com/rs/zerolog/log"
)

type ValidateCmd struct {
	Policies string   `arg:"" help:"Path to the policy YAML file" type:"existingfile"`
	Require  []string `help:"Policy names the application declares; each must be defined" sep:","`
}

func (v *ValidateCmd) Run(ctx context.Context, globals *Globals) error {
	setupLogger(globals.Debug)

	registry, err := orgkit.LoadRegistryFile(v.Policies)
	if err != nil {
		return err
	}
	if err := registry.Validate(v.Require...); err != nil {
		return err
	}

	log.Info().Str("file", v.Policies).Int("policies", len(registry.Names())).Msg("Policy file is valid")
	for _, name := range registry.Names() {
		req := registry.MustGet(name)
		roles := "any member"
		if !req.AllowsAnyMember() {
			parts := make([]string, 0, len(req.AllowedRoles()))
			for _, r := range req.AllowedRoles() {
				parts = append(parts, string(r))
			}
			roles = strings.Join(parts, ", ")
		}
		fmt.Printf("%-32s  %s\n", name, roles)
	}
	return nil
}
