package explorer

import (
	"context"
	"log/slog"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "grantscope/internal/db"
	"grantscope/internal/db/repository"
	"grantscope/internal/domain"
	"grantscope/internal/service/resolve"
	"grantscope/internal/service/risk"
)

type fixture struct {
	svc       *ExplorerService
	clusters  *repository.ClusterRepo
	snapshots *repository.SnapshotRepo
	clusterID string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	writeDB, _ := internaldb.OpenTestSQLite(t)

	clusters := repository.NewClusterRepo(writeDB)
	snapshots := repository.NewSnapshotRepo(writeDB)

	cluster, err := clusters.Create(context.Background(), &domain.Cluster{
		Name: "prod", Host: "ch1.internal:9000",
	})
	require.NoError(t, err)

	svc := NewExplorerService(
		clusters, snapshots,
		resolve.NewResolver(slog.Default()),
		risk.NewAnalyzer(risk.DefaultPolicy()),
		slog.Default(),
	)
	return &fixture{svc: svc, clusters: clusters, snapshots: snapshots, clusterID: cluster.ID}
}

func (f *fixture) completedSnapshot(t *testing.T, raw *domain.RawEntities) string {
	t.Helper()
	ctx := context.Background()
	snap, err := f.snapshots.Create(ctx, f.clusterID)
	require.NoError(t, err)
	require.NoError(t, f.snapshots.ImportEntities(ctx, snap.ID, raw))
	require.NoError(t, f.snapshots.MarkCompleted(ctx, snap.ID))
	return snap.ID
}

func strPtr(s string) *string { return &s }

func sampleEntities() *domain.RawEntities {
	return &domain.RawEntities{
		Users: []domain.User{
			{Name: "alice", AuthType: "ldap", HostIPs: []string{"10.0.0.1"}, DefaultRoles: []string{"reader"}},
			{Name: "bob", AuthType: "sha256_password", HostIPs: []string{"10.0.0.2"}},
		},
		Roles: []domain.Role{{Name: "reader"}, {Name: "writer"}},
		RoleGrants: []domain.RoleGrant{
			{Grantee: domain.UserRef("alice"), Role: "reader"},
			{Grantee: domain.RoleRef("reader"), Role: "writer"},
		},
		DirectGrants: []domain.DirectGrant{
			{Grantee: domain.UserRef("bob"), AccessType: "SELECT", Database: strPtr("sales"), Table: strPtr("orders")},
			{Grantee: domain.RoleRef("writer"), AccessType: "INSERT", Database: strPtr("sales"), Table: strPtr("orders")},
		},
	}
}

func TestExplorer_ListUsers(t *testing.T) {
	f := setup(t)
	f.completedSnapshot(t, sampleEntities())

	users, err := f.svc.ListUsers(context.Background(), f.clusterID, "")
	require.NoError(t, err)
	require.Len(t, users, 2)

	assert.Equal(t, "alice", users[0].Name)
	assert.Equal(t, 2, users[0].RoleCount)
	assert.Equal(t, 0, users[0].DirectGrantCount)

	assert.Equal(t, "bob", users[1].Name)
	assert.Equal(t, 0, users[1].RoleCount)
	assert.Equal(t, 1, users[1].DirectGrantCount)
}

func TestExplorer_DefaultsToLatestCompleted(t *testing.T) {
	f := setup(t)
	f.completedSnapshot(t, &domain.RawEntities{Users: []domain.User{{Name: "old_user"}}})
	f.completedSnapshot(t, &domain.RawEntities{Users: []domain.User{{Name: "new_user"}}})

	// Pending snapshots never win the "latest" selection.
	_, err := f.snapshots.Create(context.Background(), f.clusterID)
	require.NoError(t, err)

	users, err := f.svc.ListUsers(context.Background(), f.clusterID, "")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "new_user", users[0].Name)
}

func TestExplorer_PendingSnapshotNotReady(t *testing.T) {
	f := setup(t)
	snap, err := f.snapshots.Create(context.Background(), f.clusterID)
	require.NoError(t, err)

	_, err = f.svc.ListUsers(context.Background(), f.clusterID, snap.ID)
	var notReady *domain.SnapshotNotReadyError
	require.ErrorAs(t, err, &notReady)
	assert.Equal(t, domain.SnapshotPending, notReady.Status)
}

func TestExplorer_UnknownClusterAndSnapshot(t *testing.T) {
	f := setup(t)
	snapID := f.completedSnapshot(t, sampleEntities())

	_, err := f.svc.ListUsers(context.Background(), "no-such-cluster", "")
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)

	_, err = f.svc.ListUsers(context.Background(), f.clusterID, "no-such-snapshot")
	require.ErrorAs(t, err, &notFound)

	// A real snapshot addressed through the wrong cluster is not found.
	other, err := f.clusters.Create(context.Background(), &domain.Cluster{Name: "staging", Host: "ch2:9000"})
	require.NoError(t, err)
	_, err = f.svc.ListUsers(context.Background(), other.ID, snapID)
	require.ErrorAs(t, err, &notFound)
}

func TestExplorer_GetUserDetail(t *testing.T) {
	f := setup(t)
	f.completedSnapshot(t, sampleEntities())

	detail, err := f.svc.GetUserDetail(context.Background(), f.clusterID, "", "alice")
	require.NoError(t, err)

	require.Len(t, detail.AllRoles, 2)
	assert.Equal(t, "reader", detail.AllRoles[0].Name)
	assert.True(t, detail.AllRoles[0].IsDirect)
	assert.True(t, detail.AllRoles[0].IsDefault)
	assert.Equal(t, "writer", detail.AllRoles[1].Name)
	assert.Equal(t, []string{"reader", "writer"}, detail.AllRoles[1].Path)

	require.Len(t, detail.EffectivePrivileges, 1)
	assert.Equal(t, "INSERT", detail.EffectivePrivileges[0].AccessType)
	assert.Equal(t, "writer", detail.EffectivePrivileges[0].SourceName)

	_, err = f.svc.GetUserDetail(context.Background(), f.clusterID, "", "nobody")
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestExplorer_RoleViews(t *testing.T) {
	f := setup(t)
	f.completedSnapshot(t, sampleEntities())
	ctx := context.Background()

	roles, err := f.svc.ListRoles(ctx, f.clusterID, "")
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, "reader", roles[0].Name)
	assert.Equal(t, 1, roles[0].MemberCount)
	assert.Equal(t, "writer", roles[1].Name)
	assert.Equal(t, 1, roles[1].MemberCount)
	assert.Equal(t, 1, roles[1].DirectGrantCount)

	detail, err := f.svc.GetRoleDetail(ctx, f.clusterID, "", "reader")
	require.NoError(t, err)
	require.Len(t, detail.Members, 1)
	assert.Equal(t, "alice", detail.Members[0].Name)
	assert.Equal(t, domain.KindUser, detail.Members[0].Type)
	require.Len(t, detail.InheritedRoles, 1)
	assert.Equal(t, "writer", detail.InheritedRoles[0].Name)

	privs, err := f.svc.GetRoleEffectivePrivileges(ctx, f.clusterID, "", "reader")
	require.NoError(t, err)
	require.Len(t, privs, 1)
	assert.Equal(t, "INSERT", privs[0].AccessType)
	assert.Equal(t, domain.SourceRole, privs[0].Source)
}

func TestExplorer_ObjectAccessExactScope(t *testing.T) {
	f := setup(t)
	f.completedSnapshot(t, &domain.RawEntities{
		Users: []domain.User{{Name: "table_user"}, {Name: "db_user"}, {Name: "via_role"}},
		Roles: []domain.Role{{Name: "orders_role"}},
		RoleGrants: []domain.RoleGrant{
			{Grantee: domain.UserRef("via_role"), Role: "orders_role"},
		},
		DirectGrants: []domain.DirectGrant{
			{Grantee: domain.UserRef("table_user"), AccessType: "SELECT", Database: strPtr("sales"), Table: strPtr("orders")},
			{Grantee: domain.UserRef("db_user"), AccessType: "SELECT", Database: strPtr("sales")},
			{Grantee: domain.RoleRef("orders_role"), AccessType: "INSERT", Database: strPtr("sales"), Table: strPtr("orders")},
		},
	})
	ctx := context.Background()

	access, err := f.svc.GetObjectAccess(ctx, f.clusterID, "", "sales", strPtr("orders"))
	require.NoError(t, err)

	// db_user's database-wide grant does not match the named table.
	require.Len(t, access.Entries, 3)
	assert.Equal(t, "table_user", access.Entries[0].Name)
	assert.Equal(t, domain.SourceDirect, access.Entries[0].Source)
	assert.Equal(t, "via_role", access.Entries[1].Name)
	assert.Equal(t, domain.SourceRole, access.Entries[1].Source)
	assert.Equal(t, "orders_role", access.Entries[2].Name)
	assert.Equal(t, domain.KindRole, access.Entries[2].EntityType)

	// Database-level query matches only the database-wide grant.
	access, err = f.svc.GetObjectAccess(ctx, f.clusterID, "", "sales", nil)
	require.NoError(t, err)
	require.Len(t, access.Entries, 1)
	assert.Equal(t, "db_user", access.Entries[0].Name)

	_, err = f.svc.GetObjectAccess(ctx, f.clusterID, "", "", nil)
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestExplorer_RiskSummary(t *testing.T) {
	f := setup(t)
	f.completedSnapshot(t, &domain.RawEntities{
		Users: []domain.User{{Name: "open_user"}},
		Roles: []domain.Role{{Name: "orphan"}},
	})

	summary, err := f.svc.GetRiskSummary(context.Background(), f.clusterID, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"open_user"}, summary.UsersWithRisks)
	assert.Equal(t, []string{"orphan"}, summary.OrphanRoles)
	assert.Equal(t, 1, summary.LowCount)
	assert.Equal(t, 1, summary.MediumCount)
}

func TestExplorer_DiffSnapshots(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	fromID := f.completedSnapshot(t, &domain.RawEntities{
		Users: []domain.User{{Name: "alice"}},
	})
	toID := f.completedSnapshot(t, &domain.RawEntities{
		Users: []domain.User{{Name: "alice"}, {Name: "bob"}},
	})

	d, err := f.svc.DiffSnapshots(ctx, fromID, toID)
	require.NoError(t, err)
	require.Len(t, d.Users.Added, 1)
	assert.Equal(t, "bob", d.Users.Added[0].Name)
	assert.Empty(t, d.Users.Removed)
}

func TestExplorer_DiffInvalidPairs(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	snapID := f.completedSnapshot(t, sampleEntities())

	_, err := f.svc.DiffSnapshots(ctx, "", snapID)
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)

	_, err = f.svc.DiffSnapshots(ctx, snapID, snapID)
	var badPair *domain.InvalidDiffPairError
	require.ErrorAs(t, err, &badPair)
	assert.Contains(t, badPair.Reason, "identical")

	// Pending snapshot on either side is rejected.
	pending, err := f.snapshots.Create(ctx, f.clusterID)
	require.NoError(t, err)
	_, err = f.svc.DiffSnapshots(ctx, snapID, pending.ID)
	var notReady *domain.SnapshotNotReadyError
	require.ErrorAs(t, err, &notReady)

	// Snapshots of different clusters never diff.
	other, err := f.clusters.Create(ctx, &domain.Cluster{Name: "staging", Host: "ch2:9000"})
	require.NoError(t, err)
	otherSnap, err := f.snapshots.Create(ctx, other.ID)
	require.NoError(t, err)
	require.NoError(t, f.snapshots.ImportEntities(ctx, otherSnap.ID, &domain.RawEntities{}))
	require.NoError(t, f.snapshots.MarkCompleted(ctx, otherSnap.ID))

	_, err = f.svc.DiffSnapshots(ctx, snapID, otherSnap.ID)
	require.ErrorAs(t, err, &badPair)
	assert.Contains(t, badPair.Reason, "different clusters")
}
