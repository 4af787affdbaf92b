package resolve

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grantscope/internal/domain"
)

func testResolver() *Resolver {
	return NewResolver(slog.Default())
}

func strPtr(s string) *string { return &s }

func TestResolver_RoleChain(t *testing.T) {
	raw := &domain.RawEntities{
		Users: []domain.User{
			{Name: "user_a", AuthType: "sha256_password", DefaultRoles: []string{"role_x"}},
		},
		Roles: []domain.Role{{Name: "role_x"}, {Name: "role_y"}},
		RoleGrants: []domain.RoleGrant{
			{Grantee: domain.UserRef("user_a"), Role: "role_x"},
			{Grantee: domain.RoleRef("role_x"), Role: "role_y"},
		},
		DirectGrants: []domain.DirectGrant{
			{Grantee: domain.RoleRef("role_y"), AccessType: "SYSTEM"},
		},
	}

	res := testResolver().Resolve("snap-1", raw)
	require.Empty(t, res.Defects)

	user := res.User("user_a")
	require.NotNil(t, user)
	require.Len(t, user.Roles, 2)

	assert.Equal(t, "role_x", user.Roles[0].Name)
	assert.True(t, user.Roles[0].IsDirect)
	assert.True(t, user.Roles[0].IsDefault)
	assert.Equal(t, []string{"role_x"}, user.Roles[0].Path)

	assert.Equal(t, "role_y", user.Roles[1].Name)
	assert.False(t, user.Roles[1].IsDirect)
	assert.False(t, user.Roles[1].IsDefault)
	assert.Equal(t, []string{"role_x", "role_y"}, user.Roles[1].Path)

	require.Len(t, user.Privileges, 1)
	priv := user.Privileges[0]
	assert.Equal(t, "SYSTEM", priv.AccessType)
	assert.Equal(t, domain.SourceRole, priv.Source)
	assert.Equal(t, "role_y", priv.SourceName)
	assert.Equal(t, []string{"role_x", "role_y"}, priv.Path)
}

func TestResolver_CycleTerminates(t *testing.T) {
	raw := &domain.RawEntities{
		Users: []domain.User{{Name: "u"}},
		Roles: []domain.Role{{Name: "a"}, {Name: "b"}, {Name: "c"}},
		RoleGrants: []domain.RoleGrant{
			{Grantee: domain.UserRef("u"), Role: "a"},
			{Grantee: domain.RoleRef("a"), Role: "b"},
			{Grantee: domain.RoleRef("b"), Role: "c"},
			{Grantee: domain.RoleRef("c"), Role: "a"},
		},
	}

	res := testResolver().Resolve("snap-cycle", raw)

	user := res.User("u")
	require.NotNil(t, user)
	assert.Len(t, user.Roles, 3)

	require.Len(t, res.Defects, 1)
	assert.Equal(t, "cycle", res.Defects[0].Kind)
	assert.Contains(t, res.Defects[0].Detail, "role c -> role a")
}

func TestResolver_FirstPathWins(t *testing.T) {
	// shared is reachable directly through role_b and transitively
	// through role_a; the shorter path must win.
	raw := &domain.RawEntities{
		Users: []domain.User{{Name: "u"}},
		Roles: []domain.Role{{Name: "role_a"}, {Name: "role_b"}, {Name: "mid"}, {Name: "shared"}},
		RoleGrants: []domain.RoleGrant{
			{Grantee: domain.UserRef("u"), Role: "role_a"},
			{Grantee: domain.UserRef("u"), Role: "role_b"},
			{Grantee: domain.RoleRef("role_a"), Role: "mid"},
			{Grantee: domain.RoleRef("mid"), Role: "shared"},
			{Grantee: domain.RoleRef("role_b"), Role: "shared"},
		},
	}

	res := testResolver().Resolve("snap-paths", raw)
	user := res.User("u")
	require.NotNil(t, user)

	var shared *domain.ResolvedRole
	for i := range user.Roles {
		if user.Roles[i].Name == "shared" {
			shared = &user.Roles[i]
		}
	}
	require.NotNil(t, shared)
	assert.Equal(t, []string{"role_b", "shared"}, shared.Path)
}

func TestResolver_DeclarationOrderBreaksTies(t *testing.T) {
	// Both parents sit at the same BFS level; the edge declared first
	// claims the shared role.
	raw := &domain.RawEntities{
		Users: []domain.User{{Name: "u"}},
		Roles: []domain.Role{{Name: "first"}, {Name: "second"}, {Name: "shared"}},
		RoleGrants: []domain.RoleGrant{
			{Grantee: domain.UserRef("u"), Role: "first"},
			{Grantee: domain.UserRef("u"), Role: "second"},
			{Grantee: domain.RoleRef("first"), Role: "shared"},
			{Grantee: domain.RoleRef("second"), Role: "shared"},
		},
	}

	res := testResolver().Resolve("snap-ties", raw)
	user := res.User("u")
	require.NotNil(t, user)
	require.Len(t, user.Roles, 3)
	assert.Equal(t, []string{"first", "shared"}, user.Roles[2].Path)
}

func TestResolver_DefaultRolesAll(t *testing.T) {
	raw := &domain.RawEntities{
		Users: []domain.User{{Name: "u", DefaultRolesAll: true}},
		Roles: []domain.Role{{Name: "direct"}, {Name: "inherited"}},
		RoleGrants: []domain.RoleGrant{
			{Grantee: domain.UserRef("u"), Role: "direct"},
			{Grantee: domain.RoleRef("direct"), Role: "inherited"},
		},
	}

	res := testResolver().Resolve("snap-defaults", raw)
	user := res.User("u")
	require.NotNil(t, user)
	require.Len(t, user.Roles, 2)

	assert.True(t, user.Roles[0].IsDefault)
	assert.False(t, user.Roles[1].IsDefault, "default_roles_all covers only directly granted roles")
}

func TestResolver_NamedDefaultPropagatesOneHop(t *testing.T) {
	raw := &domain.RawEntities{
		Users: []domain.User{{Name: "u", DefaultRoles: []string{"child", "grandchild"}}},
		Roles: []domain.Role{{Name: "top"}, {Name: "child"}, {Name: "grandchild"}},
		RoleGrants: []domain.RoleGrant{
			{Grantee: domain.UserRef("u"), Role: "top"},
			{Grantee: domain.RoleRef("top"), Role: "child"},
			{Grantee: domain.RoleRef("child"), Role: "grandchild"},
		},
	}

	res := testResolver().Resolve("snap-hop", raw)
	user := res.User("u")
	require.NotNil(t, user)
	require.Len(t, user.Roles, 3)

	assert.Equal(t, "child", user.Roles[1].Name)
	assert.True(t, user.Roles[1].IsDefault)
	assert.Equal(t, "grandchild", user.Roles[2].Name)
	assert.False(t, user.Roles[2].IsDefault, "default status stops one hop past direct roles")
}

func TestResolver_DanglingReferencesSkipped(t *testing.T) {
	raw := &domain.RawEntities{
		Users: []domain.User{{Name: "u"}},
		Roles: []domain.Role{{Name: "real"}},
		RoleGrants: []domain.RoleGrant{
			{Grantee: domain.UserRef("u"), Role: "real"},
			{Grantee: domain.UserRef("u"), Role: "ghost"},
			{Grantee: domain.UserRef("nobody"), Role: "real"},
		},
		DirectGrants: []domain.DirectGrant{
			{Grantee: domain.RoleRef("phantom"), AccessType: "SELECT"},
		},
	}

	res := testResolver().Resolve("snap-dangling", raw)

	user := res.User("u")
	require.NotNil(t, user)
	require.Len(t, user.Roles, 1)
	assert.Equal(t, "real", user.Roles[0].Name)

	require.Len(t, res.Defects, 3)
	for _, d := range res.Defects {
		assert.Equal(t, "dangling_reference", d.Kind)
	}
}

func TestResolver_PrivilegeDedup(t *testing.T) {
	db := strPtr("analytics")
	raw := &domain.RawEntities{
		Users: []domain.User{{Name: "u"}},
		Roles: []domain.Role{{Name: "r"}},
		RoleGrants: []domain.RoleGrant{
			{Grantee: domain.UserRef("u"), Role: "r"},
		},
		DirectGrants: []domain.DirectGrant{
			{Grantee: domain.UserRef("u"), AccessType: "SELECT", Database: db},
			{Grantee: domain.UserRef("u"), AccessType: "SELECT", Database: db},
			{Grantee: domain.RoleRef("r"), AccessType: "SELECT", Database: db},
		},
	}

	res := testResolver().Resolve("snap-dedup", raw)
	user := res.User("u")
	require.NotNil(t, user)

	// Identical direct grants collapse; the role-sourced copy stays
	// because its source differs.
	require.Len(t, user.Privileges, 2)
	assert.Equal(t, domain.SourceDirect, user.Privileges[0].Source)
	assert.Equal(t, domain.SourceRole, user.Privileges[1].Source)
}

func TestResolver_RoleClosure(t *testing.T) {
	raw := &domain.RawEntities{
		Roles: []domain.Role{{Name: "parent"}, {Name: "child"}},
		RoleGrants: []domain.RoleGrant{
			{Grantee: domain.RoleRef("parent"), Role: "child"},
		},
		DirectGrants: []domain.DirectGrant{
			{Grantee: domain.RoleRef("child"), AccessType: "INSERT", Database: strPtr("logs")},
		},
	}

	res := testResolver().Resolve("snap-role", raw)
	parent := res.Role("parent")
	require.NotNil(t, parent)
	require.Len(t, parent.Roles, 1)
	assert.Equal(t, "child", parent.Roles[0].Name)
	assert.False(t, parent.Roles[0].IsDefault)

	require.Len(t, parent.Privileges, 1)
	assert.Equal(t, "INSERT", parent.Privileges[0].AccessType)
	assert.Equal(t, "child", parent.Privileges[0].SourceName)
}

func TestResolver_CacheReturnsSameResolution(t *testing.T) {
	r := testResolver()
	raw := &domain.RawEntities{Users: []domain.User{{Name: "u"}}}

	first := r.Resolve("snap-cache", raw)
	second := r.Resolve("snap-cache", raw)
	assert.Same(t, first, second)

	r.Forget("snap-cache")
	third := r.Resolve("snap-cache", raw)
	assert.NotSame(t, first, third)
}

func TestResolver_Deterministic(t *testing.T) {
	raw := &domain.RawEntities{
		Users: []domain.User{{Name: "u1"}, {Name: "u2"}},
		Roles: []domain.Role{{Name: "a"}, {Name: "b"}, {Name: "c"}},
		RoleGrants: []domain.RoleGrant{
			{Grantee: domain.UserRef("u1"), Role: "a"},
			{Grantee: domain.UserRef("u2"), Role: "b"},
			{Grantee: domain.RoleRef("a"), Role: "c"},
			{Grantee: domain.RoleRef("b"), Role: "c"},
		},
		DirectGrants: []domain.DirectGrant{
			{Grantee: domain.RoleRef("c"), AccessType: "SELECT", Database: strPtr("d")},
		},
	}

	first := resolveSnapshot("s", raw)
	for i := 0; i < 10; i++ {
		again := resolveSnapshot("s", raw)
		for name, pr := range first.users {
			assert.Equal(t, pr.Roles, again.users[name].Roles)
			assert.Equal(t, pr.Privileges, again.users[name].Privileges)
		}
	}
}
