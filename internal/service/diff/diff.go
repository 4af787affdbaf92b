// Package diff compares two snapshots' raw entities category by
// category. It never looks at resolved privileges: diffs report what the
// captures say, not what they imply.
package diff

import (
	"slices"
	"sort"
	"strings"

	"grantscope/internal/domain"
)

// Snapshots compares from and to, returning added/removed/modified sets
// per category. Output ordering is by natural key, so the result is
// byte-for-byte reproducible for the same inputs regardless of entity
// order in the captures.
func Snapshots(fromID, toID string, from, to *domain.RawEntities) *domain.SnapshotDiff {
	return &domain.SnapshotDiff{
		FromSnapshotID: fromID,
		ToSnapshotID:   toID,
		Users: byKey(from.Users, to.Users,
			func(u domain.User) string { return u.Name },
			usersEqual),
		Roles: byKey(from.Roles, to.Roles,
			func(r domain.Role) string { return r.Name },
			func(a, b domain.Role) bool { return true }),
		RoleGrants: byKey(from.RoleGrants, to.RoleGrants,
			func(g domain.RoleGrant) string { return g.Grantee.Key() + "\x1f" + g.Role },
			func(a, b domain.RoleGrant) bool { return true }),
		Grants: byKey(from.DirectGrants, to.DirectGrants,
			grantKey,
			func(a, b domain.DirectGrant) bool { return a.GrantOption == b.GrantOption }),
	}
}

// byKey is the single comparison primitive: build key->entity maps for
// both sides, then partition into added (key only in to), removed (key
// only in from), and modified (key in both, non-key fields differ).
func byKey[T any](from, to []T, key func(T) string, equal func(a, b T) bool) domain.DiffSection[T] {
	fromByKey := make(map[string]T, len(from))
	for _, e := range from {
		fromByKey[key(e)] = e
	}
	toByKey := make(map[string]T, len(to))
	for _, e := range to {
		toByKey[key(e)] = e
	}

	var section domain.DiffSection[T]
	for k, newEntity := range toByKey {
		oldEntity, existed := fromByKey[k]
		switch {
		case !existed:
			section.Added = append(section.Added, newEntity)
		case !equal(oldEntity, newEntity):
			section.Modified = append(section.Modified, domain.DiffPair[T]{Old: oldEntity, New: newEntity})
		}
	}
	for k, oldEntity := range fromByKey {
		if _, exists := toByKey[k]; !exists {
			section.Removed = append(section.Removed, oldEntity)
		}
	}

	sort.Slice(section.Added, func(i, j int) bool { return key(section.Added[i]) < key(section.Added[j]) })
	sort.Slice(section.Removed, func(i, j int) bool { return key(section.Removed[i]) < key(section.Removed[j]) })
	sort.Slice(section.Modified, func(i, j int) bool {
		return key(section.Modified[i].Old) < key(section.Modified[j].Old)
	})
	return section
}

// grantKey identifies a direct grant by grantee, access type, and scope.
// nil database/table encode distinctly from any real name.
func grantKey(g domain.DirectGrant) string {
	return strings.Join([]string{g.Grantee.Key(), g.AccessType, opt(g.Database), opt(g.Table)}, "\x1f")
}

func opt(s *string) string {
	if s == nil {
		return "\x00"
	}
	return *s
}

func usersEqual(a, b domain.User) bool {
	return a.AuthType == b.AuthType &&
		a.DefaultRolesAll == b.DefaultRolesAll &&
		slices.Equal(a.HostIPs, b.HostIPs) &&
		slices.Equal(a.DefaultRoles, b.DefaultRoles)
}
