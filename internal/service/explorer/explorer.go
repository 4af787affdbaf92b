// Package explorer is the stateless read façade over resolved snapshots:
// principal listings, effective-privilege detail, risk summaries,
// object-access lookups, and snapshot diffs.
package explorer

import (
	"context"
	"log/slog"
	"sort"

	"grantscope/internal/domain"
	"grantscope/internal/service/diff"
	"grantscope/internal/service/resolve"
	"grantscope/internal/service/risk"
)

// ExplorerService orchestrates the snapshot store, resolver, and risk
// analyzer. All operations are read-only and side-effect-free.
type ExplorerService struct {
	clusters  domain.ClusterRepository
	snapshots domain.SnapshotRepository
	resolver  *resolve.Resolver
	analyzer  *risk.Analyzer
	logger    *slog.Logger
}

// NewExplorerService creates an ExplorerService.
func NewExplorerService(
	clusters domain.ClusterRepository,
	snapshots domain.SnapshotRepository,
	resolver *resolve.Resolver,
	analyzer *risk.Analyzer,
	logger *slog.Logger,
) *ExplorerService {
	return &ExplorerService{
		clusters:  clusters,
		snapshots: snapshots,
		resolver:  resolver,
		analyzer:  analyzer,
		logger:    logger,
	}
}

// resolveSnapshot loads and gates the snapshot a query addresses. An
// empty snapshotID means the cluster's most recently completed snapshot.
// A snapshot that exists but is not completed is SnapshotNotReadyError,
// never a silent fallback.
func (s *ExplorerService) resolveSnapshot(ctx context.Context, clusterID, snapshotID string) (*resolve.Resolution, error) {
	if _, err := s.clusters.GetByID(ctx, clusterID); err != nil {
		if _, ok := err.(*domain.NotFoundError); ok {
			return nil, domain.ErrNotFound("cluster %s not found", clusterID)
		}
		return nil, err
	}

	var snap *domain.Snapshot
	var err error
	if snapshotID == "" {
		snap, err = s.snapshots.LatestCompleted(ctx, clusterID)
	} else {
		snap, err = s.snapshots.GetByID(ctx, snapshotID)
	}
	if err != nil {
		return nil, err
	}
	if snap.ClusterID != clusterID {
		return nil, domain.ErrNotFound("snapshot %s not found for cluster %s", snap.ID, clusterID)
	}
	if snap.Status != domain.SnapshotCompleted {
		return nil, &domain.SnapshotNotReadyError{SnapshotID: snap.ID, Status: snap.Status}
	}

	raw, err := s.snapshots.RawEntities(ctx, snap.ID)
	if err != nil {
		return nil, err
	}
	return s.resolver.Resolve(snap.ID, raw), nil
}

// ListUsers returns list-view projections of every user in the snapshot,
// sorted by name.
func (s *ExplorerService) ListUsers(ctx context.Context, clusterID, snapshotID string) ([]domain.UserSummary, error) {
	res, err := s.resolveSnapshot(ctx, clusterID, snapshotID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.UserSummary, 0, len(res.Raw.Users))
	for _, u := range res.Raw.Users {
		pr := res.User(u.Name)
		directCount := 0
		roleCount := 0
		if pr != nil {
			roleCount = len(pr.Roles)
			for _, p := range pr.Privileges {
				if p.Source == domain.SourceDirect {
					directCount++
				}
			}
		}
		out = append(out, domain.UserSummary{
			Name:             u.Name,
			AuthType:         u.AuthType,
			HostIPs:          u.HostIPs,
			RoleCount:        roleCount,
			DirectGrantCount: directCount,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// GetUserDetail returns one user's resolved closure and effective
// privileges with provenance.
func (s *ExplorerService) GetUserDetail(ctx context.Context, clusterID, snapshotID, name string) (*domain.UserDetail, error) {
	res, err := s.resolveSnapshot(ctx, clusterID, snapshotID)
	if err != nil {
		return nil, err
	}

	user := findUser(res.Raw, name)
	if user == nil {
		return nil, domain.ErrNotFound("user %s not found in snapshot %s", name, res.SnapshotID)
	}
	pr := res.User(name)

	return &domain.UserDetail{
		Name:                user.Name,
		AuthType:            user.AuthType,
		DefaultRolesAll:     user.DefaultRolesAll,
		HostIPs:             user.HostIPs,
		DefaultRoles:        user.DefaultRoles,
		AllRoles:            pr.Roles,
		EffectivePrivileges: pr.Privileges,
	}, nil
}

// GetUserRisks returns one user's risk findings.
func (s *ExplorerService) GetUserRisks(ctx context.Context, clusterID, snapshotID, name string) ([]domain.RiskFinding, error) {
	res, err := s.resolveSnapshot(ctx, clusterID, snapshotID)
	if err != nil {
		return nil, err
	}

	user := findUser(res.Raw, name)
	if user == nil {
		return nil, domain.ErrNotFound("user %s not found in snapshot %s", name, res.SnapshotID)
	}
	return s.analyzer.UserFindings(user, res), nil
}

// ListRoles returns per-role member and grant counts, sorted by name.
func (s *ExplorerService) ListRoles(ctx context.Context, clusterID, snapshotID string) ([]domain.RoleSummary, error) {
	res, err := s.resolveSnapshot(ctx, clusterID, snapshotID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.RoleSummary, 0, len(res.Raw.Roles))
	for _, role := range res.Raw.Roles {
		out = append(out, domain.RoleSummary{
			Name:             role.Name,
			MemberCount:      len(res.RoleMembers(role.Name)),
			DirectGrantCount: len(res.RoleDirectGrants(role.Name)),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// GetRoleDetail returns one role's members, inherited roles, and its own
// direct grants.
func (s *ExplorerService) GetRoleDetail(ctx context.Context, clusterID, snapshotID, name string) (*domain.RoleDetail, error) {
	res, err := s.resolveSnapshot(ctx, clusterID, snapshotID)
	if err != nil {
		return nil, err
	}

	pr := res.Role(name)
	if pr == nil {
		return nil, domain.ErrNotFound("role %s not found in snapshot %s", name, res.SnapshotID)
	}

	return &domain.RoleDetail{
		Name:           name,
		Members:        res.RoleMembers(name),
		InheritedRoles: pr.Roles,
		DirectGrants:   res.RoleDirectGrants(name),
	}, nil
}

// GetRoleEffectivePrivileges returns everything a role grants, directly
// or through inherited roles.
func (s *ExplorerService) GetRoleEffectivePrivileges(ctx context.Context, clusterID, snapshotID, name string) ([]domain.EffectivePrivilege, error) {
	res, err := s.resolveSnapshot(ctx, clusterID, snapshotID)
	if err != nil {
		return nil, err
	}

	pr := res.Role(name)
	if pr == nil {
		return nil, domain.ErrNotFound("role %s not found in snapshot %s", name, res.SnapshotID)
	}
	return pr.Privileges, nil
}

// GetRiskSummary aggregates risk findings across the snapshot.
func (s *ExplorerService) GetRiskSummary(ctx context.Context, clusterID, snapshotID string) (*domain.RiskSummary, error) {
	res, err := s.resolveSnapshot(ctx, clusterID, snapshotID)
	if err != nil {
		return nil, err
	}
	summary := s.analyzer.Summary(res)
	return &summary, nil
}

// GetObjectAccess returns every principal holding any privilege on one
// exact object. A database-wide grant does not count as access to a
// named table; scopes must match exactly.
func (s *ExplorerService) GetObjectAccess(ctx context.Context, clusterID, snapshotID, database string, table *string) (*domain.ObjectAccess, error) {
	if database == "" {
		return nil, domain.ErrValidation("database is required")
	}
	res, err := s.resolveSnapshot(ctx, clusterID, snapshotID)
	if err != nil {
		return nil, err
	}

	out := &domain.ObjectAccess{Database: database, Table: table}

	collect := func(ref domain.PrincipalRef, pr *resolve.PrincipalResolution) {
		accessTypes := make(map[string]struct{})
		direct := false
		for _, p := range pr.Privileges {
			if !scopeMatches(p, database, table) {
				continue
			}
			accessTypes[p.AccessType] = struct{}{}
			if p.Source == domain.SourceDirect {
				direct = true
			}
		}
		if len(accessTypes) == 0 {
			return
		}
		entry := domain.ObjectAccessEntry{
			Name:       ref.Name,
			EntityType: ref.Kind,
			Source:     domain.SourceRole,
		}
		if direct {
			entry.Source = domain.SourceDirect
		}
		for at := range accessTypes {
			entry.AccessTypes = append(entry.AccessTypes, at)
		}
		sort.Strings(entry.AccessTypes)
		out.Entries = append(out.Entries, entry)
	}

	for _, u := range res.Raw.Users {
		collect(domain.UserRef(u.Name), res.User(u.Name))
	}
	for _, role := range res.Raw.Roles {
		collect(domain.RoleRef(role.Name), res.Role(role.Name))
	}

	sort.Slice(out.Entries, func(i, j int) bool {
		if out.Entries[i].EntityType != out.Entries[j].EntityType {
			return out.Entries[i].EntityType == domain.KindUser
		}
		return out.Entries[i].Name < out.Entries[j].Name
	})
	return out, nil
}

// DiffSnapshots compares two completed snapshots on the same cluster.
func (s *ExplorerService) DiffSnapshots(ctx context.Context, fromID, toID string) (*domain.SnapshotDiff, error) {
	if fromID == "" || toID == "" {
		return nil, domain.ErrValidation("both from and to snapshot ids are required")
	}
	if fromID == toID {
		return nil, &domain.InvalidDiffPairError{FromID: fromID, ToID: toID, Reason: "snapshots are identical"}
	}

	from, err := s.gatedSnapshot(ctx, fromID)
	if err != nil {
		return nil, err
	}
	to, err := s.gatedSnapshot(ctx, toID)
	if err != nil {
		return nil, err
	}
	if from.ClusterID != to.ClusterID {
		return nil, &domain.InvalidDiffPairError{FromID: fromID, ToID: toID, Reason: "snapshots belong to different clusters"}
	}

	fromRaw, err := s.snapshots.RawEntities(ctx, fromID)
	if err != nil {
		return nil, err
	}
	toRaw, err := s.snapshots.RawEntities(ctx, toID)
	if err != nil {
		return nil, err
	}
	return diff.Snapshots(fromID, toID, fromRaw, toRaw), nil
}

func (s *ExplorerService) gatedSnapshot(ctx context.Context, id string) (*domain.Snapshot, error) {
	snap, err := s.snapshots.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if snap.Status != domain.SnapshotCompleted {
		return nil, &domain.SnapshotNotReadyError{SnapshotID: snap.ID, Status: snap.Status}
	}
	return snap, nil
}

func findUser(raw *domain.RawEntities, name string) *domain.User {
	for i := range raw.Users {
		if raw.Users[i].Name == name {
			return &raw.Users[i]
		}
	}
	return nil
}

// scopeMatches reports whether an effective privilege applies to exactly
// the queried object.
func scopeMatches(p domain.EffectivePrivilege, database string, table *string) bool {
	if p.Database == nil || *p.Database != database {
		return false
	}
	if table == nil {
		return p.Table == nil
	}
	return p.Table != nil && *p.Table == *table
}
