package ingest

import (
	"context"
	"log/slog"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "grantscope/internal/db"
	"grantscope/internal/db/repository"
	"grantscope/internal/domain"
	"grantscope/internal/service/resolve"
)

type fixture struct {
	svc       *ImporterService
	snapshots *repository.SnapshotRepo
	audit     *repository.AuditRepo
	resolver  *resolve.Resolver
	clusterID string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	writeDB, _ := internaldb.OpenTestSQLite(t)

	clusters := repository.NewClusterRepo(writeDB)
	snapshots := repository.NewSnapshotRepo(writeDB)
	audit := repository.NewAuditRepo(writeDB)
	resolver := resolve.NewResolver(slog.Default())

	cluster, err := clusters.Create(context.Background(), &domain.Cluster{
		Name: "prod", Host: "ch1:9000",
	})
	require.NoError(t, err)

	svc := NewImporterService(clusters, snapshots, audit, resolver, slog.Default())
	return &fixture{svc: svc, snapshots: snapshots, audit: audit, resolver: resolver, clusterID: cluster.ID}
}

func strPtr(s string) *string { return &s }

func TestImporter_Import(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	snap, err := f.svc.Import(ctx, domain.ImportSnapshotRequest{
		ClusterID: f.clusterID,
		Entities: domain.RawEntities{
			Users: []domain.User{{Name: "alice", AuthType: "ldap"}},
			Roles: []domain.Role{{Name: "reader"}},
			RoleGrants: []domain.RoleGrant{
				{Grantee: domain.UserRef("alice"), Role: "reader"},
			},
			DirectGrants: []domain.DirectGrant{
				{Grantee: domain.RoleRef("reader"), AccessType: "SELECT", Database: strPtr("sales")},
			},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.SnapshotCompleted, snap.Status)
	assert.NotNil(t, snap.CompletedAt)
	assert.Equal(t, 1, snap.UserCount)
	assert.Equal(t, 1, snap.RoleCount)
	assert.Equal(t, 1, snap.RoleGrantCount)
	assert.Equal(t, 1, snap.DirectGrantCount)

	entries, _, err := f.audit.List(ctx, domain.PageRequest{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "SNAPSHOT_IMPORTED", entries[0].Action)
	assert.Contains(t, entries[0].Detail, snap.ID)
}

func TestImporter_WarmupPrimesCacheFromStore(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	snap, err := f.svc.Import(ctx, domain.ImportSnapshotRequest{
		ClusterID: f.clusterID,
		Entities: domain.RawEntities{
			Users: []domain.User{{Name: "alice", AuthType: "ldap"}},
			Roles: []domain.Role{{Name: "reader"}},
			RoleGrants: []domain.RoleGrant{
				{Grantee: domain.UserRef("alice"), Role: "reader"},
			},
			DirectGrants: []domain.DirectGrant{
				{Grantee: domain.RoleRef("reader"), AccessType: "SELECT", Database: strPtr("sales")},
			},
		},
	})
	require.NoError(t, err)
	f.svc.Drain()

	// The warmup resolved the stored rows. A resolve call with an empty
	// raw argument must hit that cached entry, not compute an empty
	// resolution from its argument.
	res := f.resolver.Resolve(snap.ID, &domain.RawEntities{})
	pr := res.User("alice")
	require.NotNil(t, pr)
	require.Len(t, pr.Roles, 1)
	assert.Equal(t, "reader", pr.Roles[0].Name)
	require.Len(t, pr.Privileges, 1)
	assert.Equal(t, "SELECT", pr.Privileges[0].AccessType)
}

func TestImporter_ValidationAndUnknownCluster(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Import(ctx, domain.ImportSnapshotRequest{ClusterID: ""})
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)

	_, err = f.svc.Import(ctx, domain.ImportSnapshotRequest{ClusterID: "no-such-cluster"})
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)

	_, err = f.svc.Import(ctx, domain.ImportSnapshotRequest{
		ClusterID: f.clusterID,
		Entities: domain.RawEntities{
			Users: []domain.User{{Name: ""}},
		},
	})
	require.ErrorAs(t, err, &validation)
}

func TestImporter_GetReturnsDefects(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	snap, err := f.svc.Import(ctx, domain.ImportSnapshotRequest{
		ClusterID: f.clusterID,
		Entities: domain.RawEntities{
			Roles: []domain.Role{{Name: "a"}, {Name: "b"}},
			RoleGrants: []domain.RoleGrant{
				{Grantee: domain.RoleRef("a"), Role: "b"},
				{Grantee: domain.RoleRef("b"), Role: "a"},
			},
		},
	})
	require.NoError(t, err)

	got, defects, err := f.svc.Get(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, got.ID)
	require.Len(t, defects, 1)
	assert.Equal(t, "cycle", defects[0].Kind)
}

func TestImporter_Delete(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	snap, err := f.svc.Import(ctx, domain.ImportSnapshotRequest{ClusterID: f.clusterID})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, snap.ID))

	_, err = f.snapshots.GetByID(ctx, snap.ID)
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)

	err = f.svc.Delete(ctx, snap.ID)
	require.ErrorAs(t, err, &notFound)
}

func TestJanitor_SweepFailsStalePending(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	stale, err := f.snapshots.Create(ctx, f.clusterID)
	require.NoError(t, err)
	completed, err := f.snapshots.Create(ctx, f.clusterID)
	require.NoError(t, err)
	require.NoError(t, f.snapshots.ImportEntities(ctx, completed.ID, &domain.RawEntities{}))
	require.NoError(t, f.snapshots.MarkCompleted(ctx, completed.ID))

	// Zero TTL makes every pending snapshot stale immediately.
	j := NewJanitor(f.snapshots, 0, "@every 1h", slog.Default())
	j.Sweep(ctx)

	got, err := f.snapshots.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SnapshotFailed, got.Status)
	assert.Contains(t, got.Error, "import abandoned")

	got, err = f.snapshots.GetByID(ctx, completed.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SnapshotCompleted, got.Status)
}

func TestJanitor_FreshPendingSurvives(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	fresh, err := f.snapshots.Create(ctx, f.clusterID)
	require.NoError(t, err)

	j := NewJanitor(f.snapshots, time.Hour, "@every 1h", slog.Default())
	j.Sweep(ctx)

	got, err := f.snapshots.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SnapshotPending, got.Status)
}
