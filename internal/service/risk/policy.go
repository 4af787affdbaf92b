// Package risk flags hazardous access configurations in resolved
// snapshots.
package risk

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"grantscope/internal/domain"
)

// Policy controls rule severities and the administrative access-type
// set. Severity is a policy decision, not a property of the graph.
type Policy struct {
	AdminAccessTypes     []string         `yaml:"admin_access_types"`
	OrphanRoleLevel      domain.RiskLevel `yaml:"orphan_role_level"`
	InheritedAdminLevel  domain.RiskLevel `yaml:"inherited_admin_level"`
	WideGrantOptionLevel domain.RiskLevel `yaml:"wide_grant_option_level"`
	BroadHostAccessLevel domain.RiskLevel `yaml:"broad_host_access_level"`
}

// DefaultPolicy returns the built-in severities and admin access types.
func DefaultPolicy() Policy {
	return Policy{
		AdminAccessTypes: []string{
			"GRANT",
			"CREATE USER",
			"DROP USER",
			"CREATE ROLE",
			"DROP ROLE",
			"SYSTEM",
			"ACCESS MANAGEMENT",
		},
		OrphanRoleLevel:      domain.RiskMedium,
		InheritedAdminLevel:  domain.RiskHigh,
		WideGrantOptionLevel: domain.RiskMedium,
		BroadHostAccessLevel: domain.RiskLow,
	}
}

// LoadPolicy reads a YAML policy file and overlays it on the defaults.
// Absent fields keep their default values; a missing file is an error.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is operator-controlled
	if err != nil {
		return Policy{}, fmt.Errorf("read risk policy: %w", err)
	}

	p := DefaultPolicy()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Policy{}, fmt.Errorf("parse risk policy %s: %w", path, err)
	}
	if err := p.validate(); err != nil {
		return Policy{}, fmt.Errorf("risk policy %s: %w", path, err)
	}
	return p, nil
}

func (p Policy) validate() error {
	for _, lvl := range []domain.RiskLevel{
		p.OrphanRoleLevel, p.InheritedAdminLevel, p.WideGrantOptionLevel, p.BroadHostAccessLevel,
	} {
		switch lvl {
		case domain.RiskHigh, domain.RiskMedium, domain.RiskLow:
		default:
			return fmt.Errorf("invalid risk level %q", lvl)
		}
	}
	if len(p.AdminAccessTypes) == 0 {
		return fmt.Errorf("admin_access_types must not be empty")
	}
	return nil
}
