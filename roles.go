package orgkit

import (
	"strings"
	"unicode"
)

// Role is a membership role tag. The vocabulary is open: tenants may introduce
// custom roles without a schema change, so a Role is a validated string rather
// than a closed enumeration.
type Role string

// Well-known roles of a property-management organization.
const (
	RoleOwner       Role = "Owner"
	RoleManager     Role = "Manager"
	RoleAccountant  Role = "Accountant"
	RoleMaintenance Role = "Maintenance"
	RoleTenant      Role = "Tenant"
)

// MaxRoleLength is the longest role tag accepted.
const MaxRoleLength = 64

var wellKnownRoles = []Role{RoleOwner, RoleManager, RoleAccountant, RoleMaintenance, RoleTenant}

// WellKnownRoles returns the built-in role constants.
func WellKnownRoles() []Role {
	out := make([]Role, len(wellKnownRoles))
	copy(out, wellKnownRoles)
	return out
}

// ParseRole validates s and returns it as a Role.
//
// Examples:
//
//	ParseRole("Manager")        // RoleManager, nil
//	ParseRole("Leasing Agent")  // custom role, nil
//	ParseRole(" Owner")         // error: surrounding whitespace
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if err := r.Validate(); err != nil {
		return "", err
	}
	return r, nil
}

// Validate checks that the role is a well-formed tag.
// A valid role is non-empty, at most MaxRoleLength bytes, has no surrounding
// whitespace and only contains letters, digits, '_', '-', '.' and spaces.
func (r Role) Validate() error {
	s := string(r)
	if s == "" {
		return NewError(ErrInvalidRole, "role cannot be empty")
	}
	if len(s) > MaxRoleLength {
		return NewError(ErrInvalidRole, "role is too long").WithRole(r)
	}
	if strings.TrimSpace(s) != s {
		return NewError(ErrInvalidRole, "role has surrounding whitespace").WithRole(r)
	}
	for _, c := range s {
		if !isValidRoleChar(c) {
			return NewError(ErrInvalidRole, "role contains invalid character").WithRole(r)
		}
	}
	return nil
}

// IsWellKnown reports whether r is one of the built-in roles.
func (r Role) IsWellKnown() bool {
	for _, known := range wellKnownRoles {
		if r == known {
			return true
		}
	}
	return false
}

// String returns the role tag.
func (r Role) String() string {
	return string(r)
}

func isValidRoleChar(c rune) bool {
	return unicode.IsLetter(c) ||
		unicode.IsDigit(c) ||
		c == '_' || c == '-' || c == '.' || c == ' '
}
