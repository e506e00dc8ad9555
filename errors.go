package orgkit

import (
	"errors"
	"fmt"
)

// Sentinel errors for orgkit operations.
var (
	// ErrUnauthenticated is returned when no valid principal is present.
	ErrUnauthenticated = errors.New("orgkit: unauthenticated")

	// ErrNoActiveOrganization is returned when the principal has not selected an organization.
	ErrNoActiveOrganization = errors.New("orgkit: no active organization")

	// ErrNoMembership is returned when the principal has no effective membership in the organization.
	ErrNoMembership = errors.New("orgkit: no membership")

	// ErrRoleMismatch is returned when the principal's role does not satisfy the requirement.
	ErrRoleMismatch = errors.New("orgkit: role mismatch")

	// ErrStoreUnavailable is returned when membership or principal data could not be read.
	ErrStoreUnavailable = errors.New("orgkit: store unavailable")

	// ErrUnknownRequirement is returned when a policy requirement name is not registered.
	ErrUnknownRequirement = errors.New("orgkit: unknown requirement")

	// ErrInvalidRequirement is returned when a requirement definition is malformed.
	ErrInvalidRequirement = errors.New("orgkit: invalid requirement")

	// ErrDuplicateRequirement is returned when a requirement name is defined twice.
	ErrDuplicateRequirement = errors.New("orgkit: duplicate requirement")

	// ErrInvalidRole is returned when a role string is malformed or outside the closed vocabulary.
	ErrInvalidRole = errors.New("orgkit: invalid role")

	// ErrMembershipNotFound is returned by administrative operations on a missing membership.
	ErrMembershipNotFound = errors.New("orgkit: membership not found")

	// ErrMembershipExists is returned when granting a membership that is already effective.
	ErrMembershipExists = errors.New("orgkit: membership already exists")

	// ErrInvalidTransition is returned when a lifecycle change is not allowed from the current state.
	ErrInvalidTransition = errors.New("orgkit: invalid membership transition")

	// ErrPrincipalNotFound is returned when a principal record does not exist.
	ErrPrincipalNotFound = errors.New("orgkit: principal not found")

	// ErrOrganizationArchived is returned when switching into an archived organization.
	ErrOrganizationArchived = errors.New("orgkit: organization archived")
)

// Error wraps a sentinel error with additional context.
type Error struct {
	Err            error  // Underlying sentinel error
	Cause          error  // Underlying infrastructure error, if any
	Message        string // Additional context
	Requirement    string // Policy requirement involved (if applicable)
	OrganizationID string // Organization involved (if applicable)
	UserID         string // User involved (if applicable)
	Role           Role   // Role involved (if applicable)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Err.Error()
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the sentinel and the cause so errors.Is/As see both.
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// NewError creates a new Error with context.
func NewError(err error, message string) *Error {
	return &Error{
		Err:     err,
		Message: message,
	}
}

// WithCause attaches the underlying error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithRequirement adds the requirement name to the error.
func (e *Error) WithRequirement(name string) *Error {
	e.Requirement = name
	return e
}

// WithOrganization adds organization information to the error.
func (e *Error) WithOrganization(organizationID string) *Error {
	e.OrganizationID = organizationID
	return e
}

// WithUser adds user information to the error.
func (e *Error) WithUser(userID string) *Error {
	e.UserID = userID
	return e
}

// WithRole adds role information to the error.
func (e *Error) WithRole(role Role) *Error {
	e.Role = role
	return e
}

// IsDenied reports whether err carries any of the runtime denial sentinels.
func IsDenied(err error) bool {
	return errors.Is(err, ErrUnauthenticated) ||
		errors.Is(err, ErrNoActiveOrganization) ||
		errors.Is(err, ErrNoMembership) ||
		errors.Is(err, ErrRoleMismatch) ||
		errors.Is(err, ErrStoreUnavailable)
}

// IsStoreUnavailable checks if an error means the decision could not be made.
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// IsUnknownRequirement checks if an error is a wiring error for an unregistered policy.
func IsUnknownRequirement(err error) bool {
	return errors.Is(err, ErrUnknownRequirement)
}

// IsConfigError checks if an error should abort startup.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrUnknownRequirement) ||
		errors.Is(err, ErrInvalidRequirement) ||
		errors.Is(err, ErrDuplicateRequirement) ||
		errors.Is(err, ErrInvalidRole)
}

// IsInvalidTransition checks if an error is a rejected membership lifecycle change.
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}
