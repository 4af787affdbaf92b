package domain

import (
	"context"
	"time"
)

// ClusterRepository persists registered clusters.
type ClusterRepository interface {
	Create(ctx context.Context, c *Cluster) (*Cluster, error)
	GetByID(ctx context.Context, id string) (*Cluster, error)
	List(ctx context.Context, page PageRequest) ([]Cluster, int64, error)
	Delete(ctx context.Context, id string) error
}

// SnapshotRepository persists snapshots and their raw entities.
//
// A snapshot is created pending, populated once via ImportEntities, and
// then marked completed or failed. Implementations must preserve the
// declaration order of role grants and direct grants.
type SnapshotRepository interface {
	Create(ctx context.Context, clusterID string) (*Snapshot, error)
	GetByID(ctx context.Context, id string) (*Snapshot, error)
	ListForCluster(ctx context.Context, clusterID string, page PageRequest) ([]Snapshot, int64, error)
	// LatestCompleted returns the most recently completed snapshot for
	// a cluster, or NotFoundError when none exists.
	LatestCompleted(ctx context.Context, clusterID string) (*Snapshot, error)
	ImportEntities(ctx context.Context, snapshotID string, e *RawEntities) error
	MarkCompleted(ctx context.Context, snapshotID string) error
	MarkFailed(ctx context.Context, snapshotID, reason string) error
	// FailStalePending marks pending snapshots created before the
	// cutoff as failed and returns how many were swept.
	FailStalePending(ctx context.Context, cutoff time.Time, reason string) (int64, error)
	RawEntities(ctx context.Context, snapshotID string) (*RawEntities, error)
	Delete(ctx context.Context, snapshotID string) error
}

// AuditEntry records one administrative or ingestion action.
type AuditEntry struct {
	ID            int64
	PrincipalName string
	Action        string
	Detail        string
	CreatedAt     time.Time
}

// AuditRepository persists the audit log.
type AuditRepository interface {
	Insert(ctx context.Context, e *AuditEntry) error
	List(ctx context.Context, page PageRequest) ([]AuditEntry, int64, error)
}

// APIKeyRepository resolves API key hashes to principal names.
type APIKeyRepository interface {
	GetPrincipalByHash(ctx context.Context, hash string) (string, error)
}
