// Package resolve computes per-principal role closures and effective
// privileges for one snapshot.
package resolve

import (
	"fmt"
	"log/slog"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"grantscope/internal/domain"
)

// PrincipalResolution is the resolver output for one principal: the
// transitive role closure and the effective privileges with provenance.
type PrincipalResolution struct {
	Ref        domain.PrincipalRef
	Roles      []domain.ResolvedRole
	Privileges []domain.EffectivePrivilege
}

// Resolution is the fully resolved view of one snapshot. It is a pure
// function of the snapshot's raw entities; computing it twice for the
// same snapshot yields identical output.
type Resolution struct {
	SnapshotID string
	Raw        *domain.RawEntities

	users map[string]*PrincipalResolution
	roles map[string]*PrincipalResolution

	roleMembers      map[string][]domain.RoleMember
	roleDirectGrants map[string][]domain.DirectGrant

	// Defects lists graph flaws found while resolving: cycles and
	// dangling references. They degrade nothing; traversal skips them.
	Defects []domain.GraphDefect
}

// User returns the resolution for one user, or nil when the user does
// not exist in the snapshot.
func (r *Resolution) User(name string) *PrincipalResolution { return r.users[name] }

// Role returns the resolution for one role, or nil when the role does
// not exist in the snapshot.
func (r *Resolution) Role(name string) *PrincipalResolution { return r.roles[name] }

// RoleMembers returns the principals directly granted a role, ordered by
// grant declaration.
func (r *Resolution) RoleMembers(name string) []domain.RoleMember { return r.roleMembers[name] }

// RoleDirectGrants returns a role's own direct grants in declaration order.
func (r *Resolution) RoleDirectGrants(name string) []domain.DirectGrant {
	return r.roleDirectGrants[name]
}

// snapshotIndex holds the lookup structures one resolution shares across
// all principal traversals.
type snapshotIndex struct {
	userByName map[string]*domain.User
	roleSet    map[string]struct{}
	// edgesByGrantee lists role names granted to each principal key, in
	// declaration order. Dangling targets are already filtered out.
	edgesByGrantee map[string][]string
	directGrants   map[string][]domain.DirectGrant
}

// Resolver turns raw snapshot entities into Resolutions. Safe for
// concurrent use.
type Resolver struct {
	logger *slog.Logger
	cache  *resolutionCache
}

// NewResolver creates a Resolver with a per-snapshot memo cache.
// Completed snapshots are immutable, so cached resolutions never expire.
func NewResolver(logger *slog.Logger) *Resolver {
	return &Resolver{
		logger: logger,
		cache:  newResolutionCache(),
	}
}

// Resolve returns the resolution for a snapshot, computing and caching
// it on first use. The raw entities must belong to the given snapshot id.
func (r *Resolver) Resolve(snapshotID string, raw *domain.RawEntities) *Resolution {
	return r.cache.getOrCompute(snapshotID, func() *Resolution {
		res := resolveSnapshot(snapshotID, raw)
		for _, d := range res.Defects {
			r.logger.Warn("graph defect in snapshot",
				"snapshot_id", snapshotID, "kind", d.Kind, "detail", d.Detail)
		}
		return res
	})
}

// Forget drops a snapshot's cached resolution. Called when the snapshot
// row itself is deleted.
func (r *Resolver) Forget(snapshotID string) { r.cache.Forget(snapshotID) }

// resolveSnapshot builds the index, checks the role graph for cycles,
// and resolves every user and role. Principals are resolved
// concurrently; each traversal is independent and deterministic.
func resolveSnapshot(snapshotID string, raw *domain.RawEntities) *Resolution {
	res := &Resolution{
		SnapshotID:       snapshotID,
		Raw:              raw,
		users:            make(map[string]*PrincipalResolution, len(raw.Users)),
		roles:            make(map[string]*PrincipalResolution, len(raw.Roles)),
		roleMembers:      make(map[string][]domain.RoleMember),
		roleDirectGrants: make(map[string][]domain.DirectGrant),
	}

	idx := buildIndex(raw, res)
	res.Defects = append(res.Defects, findCycles(idx)...)

	for _, role := range raw.Roles {
		res.roles[role.Name] = &PrincipalResolution{Ref: domain.RoleRef(role.Name)}
	}
	for _, u := range raw.Users {
		res.users[u.Name] = &PrincipalResolution{Ref: domain.UserRef(u.Name)}
	}

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range raw.Users {
		u := &raw.Users[i]
		g.Go(func() error {
			pr := res.users[u.Name]
			pr.Roles = closure(domain.UserRef(u.Name), u, idx)
			pr.Privileges = collectPrivileges(domain.UserRef(u.Name), pr.Roles, idx)
			return nil
		})
	}
	for i := range raw.Roles {
		role := raw.Roles[i]
		g.Go(func() error {
			pr := res.roles[role.Name]
			pr.Roles = closure(domain.RoleRef(role.Name), nil, idx)
			pr.Privileges = collectPrivileges(domain.RoleRef(role.Name), pr.Roles, idx)
			return nil
		})
	}
	_ = g.Wait() // traversals never return errors

	return res
}

// buildIndex constructs the shared lookup maps and records dangling
// references as defects on res.
func buildIndex(raw *domain.RawEntities, res *Resolution) *snapshotIndex {
	idx := &snapshotIndex{
		userByName:     make(map[string]*domain.User, len(raw.Users)),
		roleSet:        make(map[string]struct{}, len(raw.Roles)),
		edgesByGrantee: make(map[string][]string),
		directGrants:   make(map[string][]domain.DirectGrant),
	}
	for i := range raw.Users {
		idx.userByName[raw.Users[i].Name] = &raw.Users[i]
	}
	for _, role := range raw.Roles {
		idx.roleSet[role.Name] = struct{}{}
	}

	for _, g := range raw.RoleGrants {
		if !principalExists(g.Grantee, idx) {
			res.Defects = append(res.Defects, domain.GraphDefect{
				Kind:   "dangling_reference",
				Detail: fmt.Sprintf("role grant on unknown %s for role %s", g.Grantee, g.Role),
			})
			continue
		}
		if _, ok := idx.roleSet[g.Role]; !ok {
			res.Defects = append(res.Defects, domain.GraphDefect{
				Kind:   "dangling_reference",
				Detail: fmt.Sprintf("role grant from %s to unknown role %s", g.Grantee, g.Role),
			})
			continue
		}
		key := g.Grantee.Key()
		idx.edgesByGrantee[key] = append(idx.edgesByGrantee[key], g.Role)
		res.roleMembers[g.Role] = appendMember(res.roleMembers[g.Role], g.Grantee)
	}

	for _, g := range raw.DirectGrants {
		if !principalExists(g.Grantee, idx) {
			res.Defects = append(res.Defects, domain.GraphDefect{
				Kind:   "dangling_reference",
				Detail: fmt.Sprintf("direct grant of %s on unknown %s", g.AccessType, g.Grantee),
			})
			continue
		}
		key := g.Grantee.Key()
		idx.directGrants[key] = append(idx.directGrants[key], g)
		if g.Grantee.Kind == domain.KindRole {
			res.roleDirectGrants[g.Grantee.Name] = append(res.roleDirectGrants[g.Grantee.Name], g)
		}
	}

	return idx
}

func principalExists(ref domain.PrincipalRef, idx *snapshotIndex) bool {
	switch ref.Kind {
	case domain.KindUser:
		_, ok := idx.userByName[ref.Name]
		return ok
	case domain.KindRole:
		_, ok := idx.roleSet[ref.Name]
		return ok
	}
	return false
}

// appendMember adds a grantee to a role's member list unless an edge for
// the same principal was already recorded.
func appendMember(members []domain.RoleMember, ref domain.PrincipalRef) []domain.RoleMember {
	for _, m := range members {
		if m.Name == ref.Name && m.Type == ref.Kind {
			return members
		}
	}
	return append(members, domain.RoleMember{Name: ref.Name, Type: ref.Kind})
}

// closure runs the BFS from a principal over role-grant edges.
//
// The visited set bounds the traversal to the number of distinct roles,
// so it terminates even on cyclic input. A role reachable by several
// routes keeps only its first-discovered path: shortest by BFS level,
// ties broken by grant declaration order.
//
// user is non-nil when the principal is a user; default-role status only
// applies then, and only propagates one hop past directly granted roles.
func closure(start domain.PrincipalRef, user *domain.User, idx *snapshotIndex) []domain.ResolvedRole {
	var out []domain.ResolvedRole
	visited := make(map[string]struct{})

	type frontierEntry struct {
		name         string
		parentDirect bool
		path         []string
	}

	var frontier []frontierEntry
	for _, roleName := range idx.edgesByGrantee[start.Key()] {
		if _, seen := visited[roleName]; seen {
			continue
		}
		visited[roleName] = struct{}{}
		rr := domain.ResolvedRole{
			Name:      roleName,
			IsDirect:  true,
			IsDefault: isDefaultRole(user, roleName, true),
			Path:      []string{roleName},
		}
		out = append(out, rr)
		frontier = append(frontier, frontierEntry{name: roleName, parentDirect: true, path: rr.Path})
	}

	for len(frontier) > 0 {
		var next []frontierEntry
		for _, parent := range frontier {
			for _, roleName := range idx.edgesByGrantee[domain.RoleRef(parent.name).Key()] {
				if _, seen := visited[roleName]; seen {
					continue
				}
				visited[roleName] = struct{}{}
				path := make([]string, 0, len(parent.path)+1)
				path = append(path, parent.path...)
				path = append(path, roleName)
				rr := domain.ResolvedRole{
					Name:      roleName,
					IsDirect:  false,
					IsDefault: parent.parentDirect && isDefaultRole(user, roleName, false),
					Path:      path,
				}
				out = append(out, rr)
				next = append(next, frontierEntry{name: roleName, parentDirect: false, path: path})
			}
		}
		frontier = next
	}

	return out
}

// isDefaultRole decides the is_default flag for one closure role.
// Systems in this family only honor "default" for top-level grants, so
// DefaultRolesAll covers exactly the directly granted roles.
func isDefaultRole(user *domain.User, roleName string, direct bool) bool {
	if user == nil {
		return false
	}
	if user.DefaultRolesAll {
		return direct
	}
	for _, r := range user.DefaultRoles {
		if r == roleName {
			return true
		}
	}
	return false
}

// collectPrivileges gathers the principal's own direct grants plus every
// closure role's direct grants. Duplicates collapse only on identical
// (access_type, database, table, source, source_name); no subsumption is
// attempted.
func collectPrivileges(start domain.PrincipalRef, roles []domain.ResolvedRole, idx *snapshotIndex) []domain.EffectivePrivilege {
	var out []domain.EffectivePrivilege
	seen := make(map[string]struct{})

	add := func(p domain.EffectivePrivilege) {
		key := privilegeKey(p)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}

	for _, g := range idx.directGrants[start.Key()] {
		add(domain.EffectivePrivilege{
			AccessType:  g.AccessType,
			Database:    g.Database,
			Table:       g.Table,
			GrantOption: g.GrantOption,
			Source:      domain.SourceDirect,
		})
	}

	for _, role := range roles {
		for _, g := range idx.directGrants[domain.RoleRef(role.Name).Key()] {
			add(domain.EffectivePrivilege{
				AccessType:  g.AccessType,
				Database:    g.Database,
				Table:       g.Table,
				GrantOption: g.GrantOption,
				Source:      domain.SourceRole,
				SourceName:  role.Name,
				Path:        role.Path,
			})
		}
	}

	return out
}

func privilegeKey(p domain.EffectivePrivilege) string {
	return p.AccessType + "\x1f" + optKey(p.Database) + "\x1f" + optKey(p.Table) +
		"\x1f" + p.Source + "\x1f" + p.SourceName
}

func optKey(s *string) string {
	if s == nil {
		return "\x00"
	}
	return *s
}

// findCycles walks the role-to-role subgraph with DFS coloring and
// reports each back edge once, sorted for determinism. The color map
// bounds the walk to one visit per role.
func findCycles(idx *snapshotIndex) []domain.GraphDefect {
	const (
		white = 0 // unvisited
		gray  = 1 // on stack
		black = 2 // done
	)
	color := make(map[string]int, len(idx.roleSet))

	roleNames := make([]string, 0, len(idx.roleSet))
	for name := range idx.roleSet {
		roleNames = append(roleNames, name)
	}
	sort.Strings(roleNames)

	var backEdges []string
	var visit func(name string)
	visit = func(name string) {
		color[name] = gray
		for _, next := range idx.edgesByGrantee[domain.RoleRef(name).Key()] {
			switch color[next] {
			case white:
				visit(next)
			case gray:
				backEdges = append(backEdges, fmt.Sprintf("role %s -> role %s", name, next))
			}
		}
		color[name] = black
	}
	for _, name := range roleNames {
		if color[name] == white {
			visit(name)
		}
	}

	sort.Strings(backEdges)
	defects := make([]domain.GraphDefect, 0, len(backEdges))
	for _, e := range backEdges {
		defects = append(defects, domain.GraphDefect{Kind: "cycle", Detail: "cyclic role grant: " + e})
	}
	return defects
}
