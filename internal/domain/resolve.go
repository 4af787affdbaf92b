package domain

// Effective privilege provenance sources.
const (
	SourceDirect = "direct"
	SourceRole   = "role"
)

// ResolvedRole is one role in a principal's transitive closure.
type ResolvedRole struct {
	Name     string
	IsDirect bool
	// IsDefault is true when the role is auto-activated at login.
	// Default status only propagates from directly granted roles.
	IsDefault bool
	// Path is the ordered chain of role names from the principal to
	// this role, inclusive. A directly granted role has a one-element
	// path. When a role is reachable by several routes, only the
	// first-discovered path is kept.
	Path []string
}

// EffectivePrivilege is a privilege a principal holds directly or through
// role inheritance, annotated with provenance.
type EffectivePrivilege struct {
	AccessType  string
	Database    *string
	Table       *string
	GrantOption bool
	Source      string // SourceDirect or SourceRole
	SourceName  string // granting role name; empty for direct grants
	Path        []string
}

// UserSummary is the list-view projection of a user.
type UserSummary struct {
	Name             string
	AuthType         string
	HostIPs          []string
	RoleCount        int
	DirectGrantCount int
}

// UserDetail is the full resolved view of one user.
type UserDetail struct {
	Name                string
	AuthType            string
	DefaultRolesAll     bool
	HostIPs             []string
	DefaultRoles        []string
	AllRoles            []ResolvedRole
	EffectivePrivileges []EffectivePrivilege
}

// RoleSummary is the list-view projection of a role.
type RoleSummary struct {
	Name             string
	MemberCount      int
	DirectGrantCount int
}

// RoleMember is a principal granted a role.
type RoleMember struct {
	Name string
	Type PrincipalKind
}

// RoleDetail is the full resolved view of one role.
type RoleDetail struct {
	Name           string
	Members        []RoleMember
	InheritedRoles []ResolvedRole
	DirectGrants   []DirectGrant
}

// ObjectAccessEntry is one principal's access to a specific object.
type ObjectAccessEntry struct {
	Name       string
	EntityType PrincipalKind
	// AccessTypes is the union of access types the principal holds on
	// the exact object, sorted.
	AccessTypes []string
	// Source is SourceDirect when at least one matching privilege is
	// held directly, SourceRole otherwise.
	Source string
}

// ObjectAccess lists every principal with any privilege on one object.
type ObjectAccess struct {
	Database string
	Table    *string
	Entries  []ObjectAccessEntry
}
