package api

import (
	"time"

	"grantscope/internal/domain"
)

// Error is the JSON error envelope.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// === Clusters ===

type Cluster struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Host        string    `json:"host"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateClusterBody struct {
	Name        string `json:"name"`
	Host        string `json:"host"`
	Description string `json:"description"`
}

func clusterToAPI(c domain.Cluster) Cluster {
	return Cluster{
		ID:          c.ID,
		Name:        c.Name,
		Host:        c.Host,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
	}
}

// === Snapshots ===

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

func snapshotToAPI(s domain.Snapshot) Snapshot {
	return Snapshot{
		ID:               s.ID,
		ClusterID:        s.ClusterID,
		Status:           string(s.Status),
		Error:            s.Error,
		CreatedAt:        s.CreatedAt,
		CompletedAt:      s.CompletedAt,
		UserCount:        s.UserCount,
		RoleCount:        s.RoleCount,
		RoleGrantCount:   s.RoleGrantCount,
		DirectGrantCount: s.DirectGrantCount,
	}
}

// SnapshotUser is the wire form of a captured user, shared by the import
// payload and diff sections.
type SnapshotUser struct {
	Name            string   `json:"name"`
	AuthType        string   `json:"auth_type"`
	HostIP          []string `json:"host_ip"`
	DefaultRolesAll bool     `json:"default_roles_all"`
	DefaultRoles    []string `json:"default_roles"`
}

type SnapshotRole struct {
	Name string `json:"name"`
}

type SnapshotRoleGrant struct {
	PrincipalKind string `json:"principal_kind"`
	Principal     string `json:"principal"`
	Role          string `json:"role"`
}

type SnapshotDirectGrant struct {
	PrincipalKind string  `json:"principal_kind"`
	Principal     string  `json:"principal"`
	AccessType    string  `json:"access_type"`
	Database      *string `json:"database"`
	Table         *string `json:"table"`
	GrantOption   bool    `json:"grant_option"`
}

// ImportSnapshotBody is the collector's push payload.
type ImportSnapshotBody struct {
	Users      []SnapshotUser        `json:"users"`
	Roles      []SnapshotRole        `json:"roles"`
	RoleGrants []SnapshotRoleGrant   `json:"role_grants"`
	Grants     []SnapshotDirectGrant `json:"grants"`
}

func (b *ImportSnapshotBody) toDomain(clusterID string) domain.ImportSnapshotRequest {
	req := domain.ImportSnapshotRequest{ClusterID: clusterID}
	for _, u := range b.Users {
		req.Entities.Users = append(req.Entities.Users, domain.User{
			Name:            u.Name,
			AuthType:        u.AuthType,
			HostIPs:         u.HostIP,
			DefaultRolesAll: u.DefaultRolesAll,
			DefaultRoles:    u.DefaultRoles,
		})
	}
	for _, r := range b.Roles {
		req.Entities.Roles = append(req.Entities.Roles, domain.Role{Name: r.Name})
	}
	for _, g := range b.RoleGrants {
		req.Entities.RoleGrants = append(req.Entities.RoleGrants, domain.RoleGrant{
			Grantee: domain.PrincipalRef{Kind: domain.PrincipalKind(g.PrincipalKind), Name: g.Principal},
			Role:    g.Role,
		})
	}
	for _, g := range b.Grants {
		req.Entities.DirectGrants = append(req.Entities.DirectGrants, domain.DirectGrant{
			Grantee:     domain.PrincipalRef{Kind: domain.PrincipalKind(g.PrincipalKind), Name: g.Principal},
			AccessType:  g.AccessType,
			Database:    g.Database,
			Table:       g.Table,
			GrantOption: g.GrantOption,
		})
	}
	return req
}

func userToAPI(u domain.User) SnapshotUser {
	return SnapshotUser{
		Name:            u.Name,
		AuthType:        u.AuthType,
		HostIP:          emptyIfNil(u.HostIPs),
		DefaultRolesAll: u.DefaultRolesAll,
		DefaultRoles:    emptyIfNil(u.DefaultRoles),
	}
}

func roleGrantToAPI(g domain.RoleGrant) SnapshotRoleGrant {
	return SnapshotRoleGrant{
		PrincipalKind: string(g.Grantee.Kind),
		Principal:     g.Grantee.Name,
		Role:          g.Role,
	}
}

func directGrantToAPI(g domain.DirectGrant) SnapshotDirectGrant {
	return SnapshotDirectGrant{
		PrincipalKind: string(g.Grantee.Kind),
		Principal:     g.Grantee.Name,
		AccessType:    g.AccessType,
		Database:      g.Database,
		Table:         g.Table,
		GrantOption:   g.GrantOption,
	}
}

// === Explorer ===

type UserSummary struct {
	Name             string   `json:"name"`
	AuthType         string   `json:"auth_type"`
	HostIP           []string `json:"host_ip"`
	RoleCount        int      `json:"role_count"`
	DirectGrantCount int      `json:"direct_grant_count"`
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

type RiskFinding struct {
	Level   string   `json:"level"`
	Type    string   `json:"type"`
	Message string   `json:"message"`
	Source  string   `json:"source"`
	Path    []string `json:"path"`
}

type RoleSummary struct {
	Name             string `json:"name"`
	MemberCount      int    `json:"member_count"`
	DirectGrantCount int    `json:"direct_grant_count"`
}

type RoleMember struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type InheritedRole struct {
	RoleName string   `json:"role_name"`
	Path     []string `json:"path"`
}

type RoleDirectGrant struct {
	AccessType  string  `json:"access_type"`
	Database    *string `json:"database"`
	Table       *string `json:"table"`
	GrantOption bool    `json:"grant_option"`
}

type RoleDetail struct {
	Name           string            `json:"name"`
	Members        []RoleMember      `json:"members"`
	InheritedRoles []InheritedRole   `json:"inherited_roles"`
	DirectGrants   []RoleDirectGrant `json:"direct_grants"`
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

type ObjectAccessEntry struct {
	Name        string   `json:"name"`
	EntityType  string   `json:"entity_type"`
	AccessTypes []string `json:"access_types"`
	Source      string   `json:"source"`
}

type ObjectAccess struct {
	Database string              `json:"database"`
	Table    *string             `json:"table,omitempty"`
	Entries  []ObjectAccessEntry `json:"entries"`
}

func userSummaryToAPI(u domain.UserSummary) UserSummary {
	return UserSummary{
		Name:             u.Name,
		AuthType:         u.AuthType,
		HostIP:           emptyIfNil(u.HostIPs),
		RoleCount:        u.RoleCount,
		DirectGrantCount: u.DirectGrantCount,
	}
}

func resolvedRoleToAPI(r domain.ResolvedRole) ResolvedRole {
	return ResolvedRole{
		RoleName:  r.Name,
		IsDirect:  r.IsDirect,
		IsDefault: r.IsDefault,
		Path:      emptyIfNil(r.Path),
	}
}

func privilegeToAPI(p domain.EffectivePrivilege) EffectivePrivilege {
	return EffectivePrivilege{
		AccessType:  p.AccessType,
		Database:    p.Database,
		Table:       p.Table,
		GrantOption: p.GrantOption,
		Source:      p.Source,
		SourceName:  p.SourceName,
		Path:        emptyIfNil(p.Path),
	}
}

func userDetailToAPI(d *domain.UserDetail) UserDetail {
	out := UserDetail{
		Name:                d.Name,
		AuthType:            d.AuthType,
		DefaultRolesAll:     d.DefaultRolesAll,
		HostIP:              emptyIfNil(d.HostIPs),
		DefaultRoles:        emptyIfNil(d.DefaultRoles),
		AllRoles:            []ResolvedRole{},
		EffectivePrivileges: []EffectivePrivilege{},
	}
	for _, r := range d.AllRoles {
		out.AllRoles = append(out.AllRoles, resolvedRoleToAPI(r))
	}
	for _, p := range d.EffectivePrivileges {
		out.EffectivePrivileges = append(out.EffectivePrivileges, privilegeToAPI(p))
	}
	return out
}

func findingToAPI(f domain.RiskFinding) RiskFinding {
	return RiskFinding{
		Level:   string(f.Level),
		Type:    f.Type,
		Message: f.Message,
		Source:  f.Source,
		Path:    emptyIfNil(f.Path),
	}
}

func roleDetailToAPI(d *domain.RoleDetail) RoleDetail {
	out := RoleDetail{
		Name:           d.Name,
		Members:        []RoleMember{},
		InheritedRoles: []InheritedRole{},
		DirectGrants:   []RoleDirectGrant{},
	}
	for _, m := range d.Members {
		out.Members = append(out.Members, RoleMember{Name: m.Name, Type: string(m.Type)})
	}
	for _, r := range d.InheritedRoles {
		out.InheritedRoles = append(out.InheritedRoles, InheritedRole{RoleName: r.Name, Path: emptyIfNil(r.Path)})
	}
	for _, g := range d.DirectGrants {
		out.DirectGrants = append(out.DirectGrants, RoleDirectGrant{
			AccessType:  g.AccessType,
			Database:    g.Database,
			Table:       g.Table,
			GrantOption: g.GrantOption,
		})
	}
	return out
}

func riskSummaryToAPI(s *domain.RiskSummary) RiskSummary {
	return RiskSummary{
		HighCount:      s.HighCount,
		MediumCount:    s.MediumCount,
		LowCount:       s.LowCount,
		OrphanRoles:    emptyIfNil(s.OrphanRoles),
		UsersWithRisks: emptyIfNil(s.UsersWithRisks),
		TotalUsers:     s.TotalUsers,
		TotalRoles:     s.TotalRoles,
	}
}

func objectAccessToAPI(a *domain.ObjectAccess) ObjectAccess {
	out := ObjectAccess{Database: a.Database, Table: a.Table, Entries: []ObjectAccessEntry{}}
	for _, e := range a.Entries {
		out.Entries = append(out.Entries, ObjectAccessEntry{
			Name:        e.Name,
			EntityType:  string(e.EntityType),
			AccessTypes: emptyIfNil(e.AccessTypes),
			Source:      e.Source,
		})
	}
	return out
}

// === Diff ===

type DiffPair[T any] struct {
	Old T `json:"old"`
	New T `json:"new"`
}

type DiffSection[T any] struct {
	Added         []T           `json:"added"`
	Removed       []T           `json:"removed"`
	Modified      []DiffPair[T] `json:"modified"`
	AddedCount    int           `json:"added_count"`
	RemovedCount  int           `json:"removed_count"`
	ModifiedCount int           `json:"modified_count"`
}

type SnapshotDiff struct {
	FromSnapshotID string                           `json:"from_snapshot_id"`
	ToSnapshotID   string                           `json:"to_snapshot_id"`
	Users          DiffSection[SnapshotUser]        `json:"users"`
	Roles          DiffSection[SnapshotRole]        `json:"roles"`
	RoleGrants     DiffSection[SnapshotRoleGrant]   `json:"role_grants"`
	Grants         DiffSection[SnapshotDirectGrant] `json:"grants"`
}

func diffSectionToAPI[D, A any](s domain.DiffSection[D], conv func(D) A) DiffSection[A] {
	out := DiffSection[A]{
		Added:         []A{},
		Removed:       []A{},
		Modified:      []DiffPair[A]{},
		AddedCount:    s.AddedCount(),
		RemovedCount:  s.RemovedCount(),
		ModifiedCount: s.ModifiedCount(),
	}
	for _, e := range s.Added {
		out.Added = append(out.Added, conv(e))
	}
	for _, e := range s.Removed {
		out.Removed = append(out.Removed, conv(e))
	}
	for _, p := range s.Modified {
		out.Modified = append(out.Modified, DiffPair[A]{Old: conv(p.Old), New: conv(p.New)})
	}
	return out
}

func snapshotDiffToAPI(d *domain.SnapshotDiff) SnapshotDiff {
	return SnapshotDiff{
		FromSnapshotID: d.FromSnapshotID,
		ToSnapshotID:   d.ToSnapshotID,
		Users:          diffSectionToAPI(d.Users, userToAPI),
		Roles: diffSectionToAPI(d.Roles, func(r domain.Role) SnapshotRole {
			return SnapshotRole{Name: r.Name}
		}),
		RoleGrants: diffSectionToAPI(d.RoleGrants, roleGrantToAPI),
		Grants:     diffSectionToAPI(d.Grants, directGrantToAPI),
	}
}

// === Audit ===

type AuditEntry struct {
	ID            int64     `json:"id"`
	PrincipalName string    `json:"principal_name"`
	Action        string    `json:"action"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}

func auditEntryToAPI(e domain.AuditEntry) AuditEntry {
	return AuditEntry{
		ID:            e.ID,
		PrincipalName: e.PrincipalName,
		Action:        e.Action,
		Detail:        e.Detail,
		CreatedAt:     e.CreatedAt,
	}
}

// emptyIfNil keeps list fields as [] rather than null on the wire.
func emptyIfNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
