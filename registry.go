package orgkit

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// PolicyRequirement is a named, immutable rule: the set of roles that satisfy it.
// An empty set means any effective member passes.
type PolicyRequirement struct {
	name    string
	allowed map[Role]struct{}
}

// Name returns the requirement name.
func (p PolicyRequirement) Name() string {
	return p.name
}

// AllowedRoles returns the allowed roles in sorted order.
func (p PolicyRequirement) AllowedRoles() []Role {
	roles := make([]Role, 0, len(p.allowed))
	for r := range p.allowed {
		roles = append(roles, r)
	}
	slices.Sort(roles)
	return roles
}

// AllowsAnyMember reports whether every effective member satisfies the requirement.
func (p PolicyRequirement) AllowsAnyMember() bool {
	return len(p.allowed) == 0
}

// Allows reports whether role is in the allowed set.
func (p PolicyRequirement) Allows(role Role) bool {
	_, ok := p.allowed[role]
	return ok
}

// Registry is the catalogue of policy requirements for the application.
// It is populated at startup, sealed once, and immutable afterwards.
type Registry struct {
	mu           sync.RWMutex
	definitions  map[string]*RequirementDefinition
	order        []string
	vocabulary   map[Role]struct{} // nil means the role vocabulary is open
	errs         []error
	sealed       bool
	sealErr      error
	requirements map[string]PolicyRequirement
}

// RequirementDefinition is the builder for one requirement.
type RequirementDefinition struct {
	name     string
	roles    []Role
	registry *Registry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		definitions: make(map[string]*RequirementDefinition),
	}
}

// Define starts defining a requirement.
// Returns a RequirementDefinition builder for fluent configuration. A duplicate
// name is recorded and reported by Seal. Defining on a sealed registry panics.
//
// Example:
//
//	registry.Define("leases.sign").Allow(orgkit.RoleOwner, orgkit.RoleManager).
//	    Define("properties.view").AnyMember()
func (r *Registry) Define(name string) *RequirementDefinition {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		panic("orgkit: Define called on a sealed registry")
	}

	def := &RequirementDefinition{name: name, registry: r}
	if _, exists := r.definitions[name]; exists {
		r.errs = append(r.errs, NewError(ErrDuplicateRequirement, fmt.Sprintf("requirement %q defined more than once", name)).
			WithRequirement(name))
		return def
	}
	r.definitions[name] = def
	r.order = append(r.order, name)
	return def
}

// RestrictRoles closes the role vocabulary: Seal rejects any requirement that
// names a role outside roles.
func (r *Registry) RestrictRoles(roles ...Role) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		panic("orgkit: RestrictRoles called on a sealed registry")
	}
	if r.vocabulary == nil {
		r.vocabulary = make(map[Role]struct{}, len(roles))
	}
	for _, role := range roles {
		r.vocabulary[role] = struct{}{}
	}
	return r
}

// Allow adds roles that satisfy the requirement.
func (d *RequirementDefinition) Allow(roles ...Role) *RequirementDefinition {
	d.registry.mu.Lock()
	defer d.registry.mu.Unlock()

	if d.registry.sealed {
		panic("orgkit: Allow called on a sealed registry")
	}
	d.roles = append(d.roles, roles...)
	return d
}

// AnyMember marks the requirement as satisfied by any effective member.
// It is the default for a definition without roles; calling it makes intent explicit.
func (d *RequirementDefinition) AnyMember() *RequirementDefinition {
	return d
}

// Define continues defining requirements on the registry (fluent API).
func (d *RequirementDefinition) Define(name string) *RequirementDefinition {
	return d.registry.Define(name)
}

// Name returns the requirement name.
func (d *RequirementDefinition) Name() string {
	return d.name
}

// Seal validates every definition and freezes the registry. It is idempotent:
// later calls return the first result.
func (r *Registry) Seal() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return r.sealErr
	}

	errs := slices.Clone(r.errs)
	requirements := make(map[string]PolicyRequirement, len(r.definitions))
	for _, name := range r.order {
		def := r.definitions[name]
		if err := validateRequirementName(name); err != nil {
			errs = append(errs, err)
			continue
		}
		allowed := make(map[Role]struct{}, len(def.roles))
		for _, role := range def.roles {
			if err := role.Validate(); err != nil {
				errs = append(errs, NewError(ErrInvalidRole, fmt.Sprintf("requirement %q: %v", name, err)).
					WithRequirement(name).
					WithRole(role))
				continue
			}
			if r.vocabulary != nil {
				if _, known := r.vocabulary[role]; !known {
					errs = append(errs, NewError(ErrInvalidRole, fmt.Sprintf("requirement %q: role %q is not in the vocabulary", name, role)).
						WithRequirement(name).
						WithRole(role))
					continue
				}
			}
			allowed[role] = struct{}{}
		}
		requirements[name] = PolicyRequirement{name: name, allowed: allowed}
	}

	r.sealed = true
	r.sealErr = errors.Join(errs...)
	if r.sealErr == nil {
		r.requirements = requirements
	}
	return r.sealErr
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Get returns the requirement registered under name.
// The registry must be sealed without errors.
func (r *Registry) Get(name string) (PolicyRequirement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.sealed || r.sealErr != nil {
		return PolicyRequirement{}, NewError(ErrInvalidRequirement, "registry is not sealed").WithRequirement(name)
	}
	req, ok := r.requirements[name]
	if !ok {
		return PolicyRequirement{}, NewError(ErrUnknownRequirement, fmt.Sprintf("requirement %q is not registered", name)).
			WithRequirement(name)
	}
	return req, nil
}

// MustGet returns the requirement registered under name and panics otherwise.
// Use it when wiring routes so a typo aborts startup.
func (r *Registry) MustGet(name string) PolicyRequirement {
	req, err := r.Get(name)
	if err != nil {
		panic(err)
	}
	return req
}

// Validate checks that every name is registered. Call it at startup with the
// policy names the application's operations declare.
func (r *Registry) Validate(names ...string) error {
	var errs []error
	for _, name := range names {
		if _, err := r.Get(name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Names returns all registered requirement names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.definitions))
	for name := range r.definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// validateRequirementName accepts dotted identifiers such as "leases.sign".
func validateRequirementName(name string) error {
	if name == "" {
		return NewError(ErrInvalidRequirement, "requirement name cannot be empty")
	}
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") || strings.Contains(name, "..") {
		return NewError(ErrInvalidRequirement, fmt.Sprintf("requirement %q has an empty segment", name)).WithRequirement(name)
	}
	for _, c := range name {
		if !(unicode.IsLetter(c) || unicode.IsDigit(c) || c == '.' || c == '_' || c == '-' || c == ':') {
			return NewError(ErrInvalidRequirement, fmt.Sprintf("requirement %q contains invalid character", name)).WithRequirement(name)
		}
	}
	return nil
}
