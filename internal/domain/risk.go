package domain

// RiskLevel classifies the severity of a finding.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "high"
	RiskMedium RiskLevel = "medium"
	RiskLow    RiskLevel = "low"
)

// Risk finding types.
const (
	RiskOrphanRole      = "orphan_role"
	RiskInheritedAdmin  = "inherited_admin"
	RiskWideGrantOption = "wide_grant_option"
	RiskBroadHostAccess = "broad_host_access"
)

// RiskFinding is one flagged configuration hazard.
type RiskFinding struct {
	Level   RiskLevel
	Type    string
	Message string
	// Source is the granting role name, or SourceDirect for hazards on
	// the principal itself.
	Source string
	// Path is the provenance chain for inherited findings; empty for
	// direct ones.
	Path []string
}

// RiskSummary aggregates findings across one snapshot.
type RiskSummary struct {
	HighCount   int
	MediumCount int
	LowCount    int
	// OrphanRoles lists roles with zero members, sorted.
	OrphanRoles []string
	// UsersWithRisks lists users with at least one finding of any
	// level, sorted.
	UsersWithRisks []string
	TotalUsers     int
	TotalRoles     int
}

// CountLevel increments the counter for one severity level.
func (s *RiskSummary) CountLevel(l RiskLevel) {
	switch l {
	case RiskHigh:
		s.HighCount++
	case RiskMedium:
		s.MediumCount++
	case RiskLow:
		s.LowCount++
	}
}
