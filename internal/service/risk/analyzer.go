package risk

import (
	"fmt"
	"sort"
	"strings"

	"grantscope/internal/domain"
	"grantscope/internal/service/resolve"
)

// Analyzer evaluates risk rules over a resolved snapshot. Stateless and
// safe for concurrent use.
type Analyzer struct {
	policy   Policy
	adminSet map[string]struct{}
}

// NewAnalyzer creates an Analyzer for the given policy.
func NewAnalyzer(policy Policy) *Analyzer {
	adminSet := make(map[string]struct{}, len(policy.AdminAccessTypes))
	for _, at := range policy.AdminAccessTypes {
		adminSet[strings.ToUpper(at)] = struct{}{}
	}
	return &Analyzer{policy: policy, adminSet: adminSet}
}

// UserFindings evaluates every per-user rule for one user.
func (a *Analyzer) UserFindings(user *domain.User, res *resolve.Resolution) []domain.RiskFinding {
	var findings []domain.RiskFinding

	if len(user.HostIPs) == 0 {
		findings = append(findings, domain.RiskFinding{
			Level:   a.policy.BroadHostAccessLevel,
			Type:    domain.RiskBroadHostAccess,
			Message: fmt.Sprintf("user %s has no host restriction and may connect from any address", user.Name),
			Source:  domain.SourceDirect,
		})
	}

	// The wide-grant-option rule reads the raw grants, not the resolved
	// privileges: resolution collapses duplicates without regard to
	// grant_option, which would hide a delegating grant shadowed by a
	// plain one on the same object.
	for _, g := range res.Raw.DirectGrants {
		if g.Grantee.Kind != domain.KindUser || g.Grantee.Name != user.Name {
			continue
		}
		if g.GrantOption && !g.IsGlobal() {
			findings = append(findings, domain.RiskFinding{
				Level: a.policy.WideGrantOptionLevel,
				Type:  domain.RiskWideGrantOption,
				Message: fmt.Sprintf("user %s can re-delegate %s on %s via WITH GRANT OPTION",
					user.Name, g.AccessType, scopeString(g.Database, g.Table)),
				Source: domain.SourceDirect,
			})
		}
	}

	pr := res.User(user.Name)
	if pr == nil {
		return findings
	}

	for _, p := range pr.Privileges {
		if p.Source == domain.SourceRole && len(p.Path) > 1 && a.isAdmin(p.AccessType) {
			// One hop is auditable at a glance; only deeper
			// inheritance qualifies.
			findings = append(findings, domain.RiskFinding{
				Level: a.policy.InheritedAdminLevel,
				Type:  domain.RiskInheritedAdmin,
				Message: fmt.Sprintf("user %s holds administrative privilege %s through %d levels of role inheritance (%s)",
					user.Name, p.AccessType, len(p.Path), strings.Join(p.Path, " -> ")),
				Source: p.SourceName,
				Path:   p.Path,
			})
		}
	}

	return findings
}

// OrphanRoles returns roles with zero members, sorted.
func (a *Analyzer) OrphanRoles(res *resolve.Resolution) []string {
	var orphans []string
	for _, role := range res.Raw.Roles {
		if len(res.RoleMembers(role.Name)) == 0 {
			orphans = append(orphans, role.Name)
		}
	}
	sort.Strings(orphans)
	return orphans
}

// Summary aggregates rule results across the whole snapshot.
func (a *Analyzer) Summary(res *resolve.Resolution) domain.RiskSummary {
	summary := domain.RiskSummary{
		TotalUsers: len(res.Raw.Users),
		TotalRoles: len(res.Raw.Roles),
	}

	for i := range res.Raw.Users {
		user := &res.Raw.Users[i]
		findings := a.UserFindings(user, res)
		if len(findings) == 0 {
			continue
		}
		summary.UsersWithRisks = append(summary.UsersWithRisks, user.Name)
		for _, f := range findings {
			summary.CountLevel(f.Level)
		}
	}
	sort.Strings(summary.UsersWithRisks)

	summary.OrphanRoles = a.OrphanRoles(res)
	for range summary.OrphanRoles {
		summary.CountLevel(a.policy.OrphanRoleLevel)
	}

	return summary
}

func (a *Analyzer) isAdmin(accessType string) bool {
	_, ok := a.adminSet[strings.ToUpper(accessType)]
	return ok
}

func scopeString(database, table *string) string {
	if database == nil {
		return "*.*"
	}
	if table == nil {
		return *database + ".*"
	}
	return *database + "." + *table
}
