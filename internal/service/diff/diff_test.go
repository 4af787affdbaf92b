package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grantscope/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestSnapshots_IdenticalInputsAreEmpty(t *testing.T) {
	raw := &domain.RawEntities{
		Users: []domain.User{{Name: "alice", AuthType: "ldap"}},
		Roles: []domain.Role{{Name: "r"}},
		RoleGrants: []domain.RoleGrant{
			{Grantee: domain.UserRef("alice"), Role: "r"},
		},
		DirectGrants: []domain.DirectGrant{
			{Grantee: domain.RoleRef("r"), AccessType: "SELECT", Database: strPtr("d")},
		},
	}

	d := Snapshots("a", "b", raw, raw)
	assert.True(t, d.Users.Empty())
	assert.True(t, d.Roles.Empty())
	assert.True(t, d.RoleGrants.Empty())
	assert.True(t, d.Grants.Empty())
}

func TestSnapshots_AddedRemovedModified(t *testing.T) {
	from := &domain.RawEntities{
		Users: []domain.User{
			{Name: "gone", AuthType: "ldap"},
			{Name: "stays", AuthType: "ldap", HostIPs: []string{"10.0.0.1"}},
		},
	}
	to := &domain.RawEntities{
		Users: []domain.User{
			{Name: "stays", AuthType: "ldap", HostIPs: []string{"10.0.0.2"}},
			{Name: "fresh", AuthType: "sha256_password"},
		},
	}

	d := Snapshots("a", "b", from, to)

	require.Len(t, d.Users.Added, 1)
	assert.Equal(t, "fresh", d.Users.Added[0].Name)
	require.Len(t, d.Users.Removed, 1)
	assert.Equal(t, "gone", d.Users.Removed[0].Name)
	require.Len(t, d.Users.Modified, 1)
	assert.Equal(t, []string{"10.0.0.1"}, d.Users.Modified[0].Old.HostIPs)
	assert.Equal(t, []string{"10.0.0.2"}, d.Users.Modified[0].New.HostIPs)

	assert.Equal(t, 1, d.Users.AddedCount())
	assert.Equal(t, 1, d.Users.RemovedCount())
	assert.Equal(t, 1, d.Users.ModifiedCount())
}

func TestSnapshots_GrantOptionFlipIsModified(t *testing.T) {
	db := strPtr("sales")
	from := &domain.RawEntities{
		DirectGrants: []domain.DirectGrant{
			{Grantee: domain.UserRef("u"), AccessType: "SELECT", Database: db},
		},
	}
	to := &domain.RawEntities{
		DirectGrants: []domain.DirectGrant{
			{Grantee: domain.UserRef("u"), AccessType: "SELECT", Database: db, GrantOption: true},
		},
	}

	d := Snapshots("a", "b", from, to)
	assert.Empty(t, d.Grants.Added)
	assert.Empty(t, d.Grants.Removed)
	require.Len(t, d.Grants.Modified, 1)
	assert.False(t, d.Grants.Modified[0].Old.GrantOption)
	assert.True(t, d.Grants.Modified[0].New.GrantOption)
}

func TestSnapshots_ScopeChangeIsAddAndRemove(t *testing.T) {
	from := &domain.RawEntities{
		DirectGrants: []domain.DirectGrant{
			{Grantee: domain.UserRef("u"), AccessType: "SELECT", Database: strPtr("old_db")},
		},
	}
	to := &domain.RawEntities{
		DirectGrants: []domain.DirectGrant{
			{Grantee: domain.UserRef("u"), AccessType: "SELECT", Database: strPtr("new_db")},
		},
	}

	d := Snapshots("a", "b", from, to)
	assert.Len(t, d.Grants.Added, 1)
	assert.Len(t, d.Grants.Removed, 1)
	assert.Empty(t, d.Grants.Modified)
}

func TestSnapshots_NilScopeDistinctFromEmpty(t *testing.T) {
	from := &domain.RawEntities{
		DirectGrants: []domain.DirectGrant{
			{Grantee: domain.UserRef("u"), AccessType: "SELECT"},
		},
	}
	to := &domain.RawEntities{
		DirectGrants: []domain.DirectGrant{
			{Grantee: domain.UserRef("u"), AccessType: "SELECT", Database: strPtr("")},
		},
	}

	d := Snapshots("a", "b", from, to)
	assert.Len(t, d.Grants.Added, 1)
	assert.Len(t, d.Grants.Removed, 1)
}

func TestSnapshots_RoleMembershipRemoval(t *testing.T) {
	from := &domain.RawEntities{
		Users: []domain.User{{Name: "u"}},
		Roles: []domain.Role{{Name: "admin"}},
		RoleGrants: []domain.RoleGrant{
			{Grantee: domain.UserRef("u"), Role: "admin"},
		},
	}
	to := &domain.RawEntities{
		Users: []domain.User{{Name: "u"}},
		Roles: []domain.Role{{Name: "admin"}},
	}

	d := Snapshots("a", "b", from, to)
	assert.True(t, d.Users.Empty())
	assert.True(t, d.Roles.Empty())
	require.Len(t, d.RoleGrants.Removed, 1)
	assert.Equal(t, "admin", d.RoleGrants.Removed[0].Role)
}

func TestSnapshots_Antisymmetry(t *testing.T) {
	from := &domain.RawEntities{
		Users: []domain.User{{Name: "a"}, {Name: "b", AuthType: "ldap"}},
		Roles: []domain.Role{{Name: "r1"}},
	}
	to := &domain.RawEntities{
		Users: []domain.User{{Name: "b", AuthType: "kerberos"}, {Name: "c"}},
		Roles: []domain.Role{{Name: "r2"}},
	}

	fwd := Snapshots("x", "y", from, to)
	rev := Snapshots("y", "x", to, from)

	assert.Equal(t, fwd.Users.Added, rev.Users.Removed)
	assert.Equal(t, fwd.Users.Removed, rev.Users.Added)
	assert.Equal(t, fwd.Roles.Added, rev.Roles.Removed)
	assert.Equal(t, fwd.Roles.Removed, rev.Roles.Added)

	require.Len(t, fwd.Users.Modified, 1)
	require.Len(t, rev.Users.Modified, 1)
	assert.Equal(t, fwd.Users.Modified[0].Old, rev.Users.Modified[0].New)
	assert.Equal(t, fwd.Users.Modified[0].New, rev.Users.Modified[0].Old)
}

func TestSnapshots_DeterministicOrdering(t *testing.T) {
	to := &domain.RawEntities{
		Users: []domain.User{{Name: "zeta"}, {Name: "alpha"}, {Name: "mid"}},
	}
	shuffled := &domain.RawEntities{
		Users: []domain.User{{Name: "mid"}, {Name: "zeta"}, {Name: "alpha"}},
	}
	empty := &domain.RawEntities{}

	first := Snapshots("a", "b", empty, to)
	second := Snapshots("a", "b", empty, shuffled)
	assert.Equal(t, first.Users.Added, second.Users.Added)
	assert.Equal(t, "alpha", first.Users.Added[0].Name)
	assert.Equal(t, "zeta", first.Users.Added[2].Name)
}
