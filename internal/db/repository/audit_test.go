package repository

import (
	"context"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "grantscope/internal/db"
	"grantscope/internal/domain"
)

func TestAuditRepo_InsertAndList(t *testing.T) {
	writeDB, _ := internaldb.OpenTestSQLite(t)
	repo := NewAuditRepo(writeDB)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, &domain.AuditEntry{
		PrincipalName: "alice",
		Action:        "CLUSTER_REGISTERED",
		Detail:        "cluster prod",
	}))
	require.NoError(t, repo.Insert(ctx, &domain.AuditEntry{
		Action: "SNAPSHOT_IMPORTED",
		Detail: "snapshot abc",
	}))

	entries, total, err := repo.List(ctx, domain.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, entries, 2)

	// Newest first.
	assert.Equal(t, "SNAPSHOT_IMPORTED", entries[0].Action)
	assert.Equal(t, "CLUSTER_REGISTERED", entries[1].Action)
	assert.Equal(t, "alice", entries[1].PrincipalName)
	assert.False(t, entries[0].CreatedAt.IsZero())
}

func TestAPIKeyRepo_HashLookup(t *testing.T) {
	writeDB, _ := internaldb.OpenTestSQLite(t)
	repo := NewAPIKeyRepo(writeDB)
	ctx := context.Background()

	hash := HashKey("sekrit")
	require.NoError(t, repo.Insert(ctx, hash, "collector-1"))

	principal, err := repo.GetPrincipalByHash(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, "collector-1", principal)

	_, err = repo.GetPrincipalByHash(ctx, HashKey("wrong"))
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestHashKey_Deterministic(t *testing.T) {
	assert.Equal(t, HashKey("k"), HashKey("k"))
	assert.NotEqual(t, HashKey("k"), HashKey("K"))
	assert.Len(t, HashKey("k"), 64)
}
