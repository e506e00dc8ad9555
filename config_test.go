package orgkit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePolicies = `
roles: [Owner, Manager, Accountant, Maintenance, Tenant]
policies:
  - name: leases.sign
    roles: [Owner, Manager]
  - name: maintenance.update
    roles: [Maintenance, Manager]
  - name: properties.view
    roles: []
`

func TestLoadRegistry(t *testing.T) {
	r, err := LoadRegistry(strings.NewReader(samplePolicies))
	require.NoError(t, err)
	assert.True(t, r.Sealed())

	assert.Equal(t, []string{"leases.sign", "maintenance.update", "properties.view"}, r.Names())
	assert.Equal(t, []Role{RoleManager, RoleOwner}, r.MustGet("leases.sign").AllowedRoles())
	assert.True(t, r.MustGet("properties.view").AllowsAnyMember())
}

func TestLoadRegistryErrors(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		target error
	}{
		{"empty document", "", ErrInvalidRequirement},
		{"malformed yaml", "policies: [", ErrInvalidRequirement},
		{"unknown field", "policies:\n  - name: a\n    roles: []\n    scope: org\n", ErrInvalidRequirement},
		{"missing roles key", "policies:\n  - name: leases.sign\n", ErrInvalidRequirement},
		{"duplicate name", "policies:\n  - name: a\n    roles: []\n  - name: a\n    roles: [Owner]\n", ErrDuplicateRequirement},
		{"role outside vocabulary", "roles: [Owner]\npolicies:\n  - name: a\n    roles: [Manager]\n", ErrInvalidRole},
		{"invalid role", "policies:\n  - name: a\n    roles: ['Owner/Admin']\n", ErrInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRegistry(strings.NewReader(tt.doc))
			assert.ErrorIs(t, err, tt.target)
			assert.True(t, IsConfigError(err))
		})
	}
}

func TestLoadRegistryOpenVocabulary(t *testing.T) {
	doc := "policies:\n  - name: leases.draft\n    roles: [Leasing Agent]\n"
	r, err := LoadRegistry(strings.NewReader(doc))
	require.NoError(t, err)
	assert.True(t, r.MustGet("leases.draft").Allows("Leasing Agent"))
}

func TestLoadRegistryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policies.yaml")
	require.NoError(t, os.WriteFile(path, []byte(samplePolicies), 0o600))

	r, err := LoadRegistryFile(path)
	require.NoError(t, err)
	assert.Len(t, r.Names(), 3)

	_, err = LoadRegistryFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
