package orgkit

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// PolicyConfig is the on-disk form of a Registry.
//
//	roles: [Owner, Manager, Accountant, Maintenance, Tenant]
//	policies:
//	  - name: leases.sign
//	    roles: [Owner, Manager]
//	  - name: properties.view
//	    roles: []
type PolicyConfig struct {
	// Roles, when present, closes the role vocabulary.
	Roles    []Role              `yaml:"roles"`
	Policies []PolicyEntryConfig `yaml:"policies"`
}

// PolicyEntryConfig is one requirement. Roles is a pointer so that a missing
// key can be told apart from an explicit empty list ("any member").
type PolicyEntryConfig struct {
	Name  string  `yaml:"name"`
	Roles *[]Role `yaml:"roles"`
}

// LoadRegistry parses a policy document and returns a sealed registry.
// Unknown fields, entries without a roles key, duplicate names and invalid
// roles are all load-time errors.
func LoadRegistry(r io.Reader) (*Registry, error) {
	var cfg PolicyConfig
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, NewError(ErrInvalidRequirement, "policy document is empty")
		}
		return nil, NewError(ErrInvalidRequirement, "failed to parse policy document").WithCause(err)
	}
	return cfg.Registry()
}

// LoadRegistryFile reads the policy document at path.
func LoadRegistryFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open policy file: %w", err)
	}
	defer f.Close()

	return LoadRegistry(f)
}

// Registry builds and seals a registry from the configuration.
func (c PolicyConfig) Registry() (*Registry, error) {
	registry := NewRegistry()
	if c.Roles != nil {
		registry.RestrictRoles(c.Roles...)
	}

	var errs []error
	for i, entry := range c.Policies {
		if entry.Roles == nil {
			errs = append(errs, NewError(ErrInvalidRequirement,
				fmt.Sprintf("policy #%d (%q) must list roles, use [] for any member", i+1, entry.Name)).
				WithRequirement(entry.Name))
			continue
		}
		registry.Define(entry.Name).Allow(*entry.Roles...)
	}

	if err := registry.Seal(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return registry, nil
}
