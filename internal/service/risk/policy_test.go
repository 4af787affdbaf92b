package risk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grantscope/internal/domain"
)

func writePolicy(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadPolicy_Overlay(t *testing.T) {
	path := writePolicy(t, `
orphan_role_level: low
admin_access_types:
  - GRANT
  - ALTER USER
`)
	p, err := LoadPolicy(path)
	require.NoError(t, err)

	assert.Equal(t, domain.RiskLow, p.OrphanRoleLevel)
	assert.Equal(t, []string{"GRANT", "ALTER USER"}, p.AdminAccessTypes)
	// Untouched fields keep their defaults.
	assert.Equal(t, domain.RiskHigh, p.InheritedAdminLevel)
	assert.Equal(t, domain.RiskLow, p.BroadHostAccessLevel)
}

func TestLoadPolicy_InvalidLevel(t *testing.T) {
	path := writePolicy(t, "inherited_admin_level: catastrophic\n")
	_, err := LoadPolicy(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid risk level")
}

func TestLoadPolicy_EmptyAdminSet(t *testing.T) {
	path := writePolicy(t, "admin_access_types: []\n")
	_, err := LoadPolicy(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin_access_types")
}

func TestLoadPolicy_MissingFile(t *testing.T) {
	_, err := LoadPolicy(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
