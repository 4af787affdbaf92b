package cli

import "time"

// Wire types mirror the server's JSON responses.

type Cluster struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Host        string    `json:"host"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type clusterList struct {
	Clusters      []Cluster `json:"clusters"`
	TotalCount    int64     `json:"total_count"`
	NextPageToken string    `json:"next_page_token,omitempty"`
}

type Snapshot struct {
	ID               string     `json:"id"`
	ClusterID        string     `json:"cluster_id"`
	Status           string     `json:"status"`
	Error            string     `json:"error,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	UserCount        int        `json:"user_count"`
	RoleCount        int        `json:"role_count"`
	RoleGrantCount   int        `json:"role_grant_count"`
	DirectGrantCount int        `json:"direct_grant_count"`
}

type snapshotList struct {
	Snapshots     []Snapshot `json:"snapshots"`
	TotalCount    int64      `json:"total_count"`
	NextPageToken string     `json:"next_page_token,omitempty"`
}

type UserSummary struct {
	Name             string   `json:"name"`
	AuthType         string   `json:"auth_type"`
	HostIP           []string `json:"host_ip"`
	RoleCount        int      `json:"role_count"`
	DirectGrantCount int      `json:"direct_grant_count"`
}

type userList struct {
	Users []UserSummary `json:"users"`
}

type ResolvedRole struct {
	RoleName  string   `json:"role_name"`
	IsDirect  bool     `json:"is_direct"`
	IsDefault bool     `json:"is_default"`
	Path      []string `json:"path"`
}

type EffectivePrivilege struct {
	AccessType  string   `json:"access_type"`
	Database    *string  `json:"database"`
	Table       *string  `json:"table"`
	GrantOption bool     `json:"grant_option"`
	Source      string   `json:"source"`
	SourceName  string   `json:"source_name,omitempty"`
	Path        []string `json:"path"`
}

type UserDetail struct {
	Name                string               `json:"name"`
	AuthType            string               `json:"auth_type"`
	DefaultRolesAll     bool                 `json:"default_roles_all"`
	HostIP              []string             `json:"host_ip"`
	DefaultRoles        []string             `json:"default_roles"`
	AllRoles            []ResolvedRole       `json:"all_roles"`
	EffectivePrivileges []EffectivePrivilege `json:"effective_privileges"`
}

type RoleSummary struct {
	Name             string `json:"name"`
	MemberCount      int    `json:"member_count"`
	DirectGrantCount int    `json:"direct_grant_count"`
}

type roleList struct {
	Roles []RoleSummary `json:"roles"`
}

type RiskFinding struct {
	Level   string   `json:"level"`
	Type    string   `json:"type"`
	Message string   `json:"message"`
	Source  string   `json:"source"`
	Path    []string `json:"path"`
}

type riskFindingList struct {
	Findings []RiskFinding `json:"findings"`
}

type RiskSummary struct {
	HighCount      int      `json:"high_count"`
	MediumCount    int      `json:"medium_count"`
	LowCount       int      `json:"low_count"`
	OrphanRoles    []string `json:"orphan_roles"`
	UsersWithRisks []string `json:"users_with_risks"`
	TotalUsers     int      `json:"total_users"`
	TotalRoles     int      `json:"total_roles"`
}

type AuditEntry struct {
	ID            int64     `json:"id"`
	PrincipalName string    `json:"principal_name"`
	Action        string    `json:"action"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}

type auditList struct {
	Entries       []AuditEntry `json:"entries"`
	TotalCount    int64        `json:"total_count"`
	NextPageToken string       `json:"next_page_token,omitempty"`
}
