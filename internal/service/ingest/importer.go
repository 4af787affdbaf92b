// Package ingest is the collector-facing boundary: it accepts raw entity
// dumps, drives the snapshot lifecycle, and warms the resolver cache.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"grantscope/internal/domain"
	"grantscope/internal/service/resolve"
)

// ImporterService turns collector payloads into completed snapshots.
type ImporterService struct {
	clusters  domain.ClusterRepository
	snapshots domain.SnapshotRepository
	audit     domain.AuditRepository
	resolver  *resolve.Resolver
	logger    *slog.Logger
	warmups   sync.WaitGroup
}

// NewImporterService creates an ImporterService.
func NewImporterService(
	clusters domain.ClusterRepository,
	snapshots domain.SnapshotRepository,
	audit domain.AuditRepository,
	resolver *resolve.Resolver,
	logger *slog.Logger,
) *ImporterService {
	return &ImporterService{
		clusters:  clusters,
		snapshots: snapshots,
		audit:     audit,
		resolver:  resolver,
		logger:    logger,
	}
}

// Import creates a pending snapshot, loads the dump, and marks the
// snapshot completed. A load failure marks it failed with the reason;
// both outcomes are terminal and audited.
func (s *ImporterService) Import(ctx context.Context, req domain.ImportSnapshotRequest) (*domain.Snapshot, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.clusters.GetByID(ctx, req.ClusterID); err != nil {
		return nil, err
	}

	snap, err := s.snapshots.Create(ctx, req.ClusterID)
	if err != nil {
		return nil, err
	}

	if err := s.snapshots.ImportEntities(ctx, snap.ID, &req.Entities); err != nil {
		reason := fmt.Sprintf("entity import failed: %v", err)
		if failErr := s.snapshots.MarkFailed(ctx, snap.ID, reason); failErr != nil {
			s.logger.Error("could not mark snapshot failed",
				"snapshot_id", snap.ID, "error", failErr)
		}
		s.auditAction(ctx, "SNAPSHOT_IMPORT_FAILED", fmt.Sprintf("snapshot %s: %s", snap.ID, reason))
		return nil, err
	}

	if err := s.snapshots.MarkCompleted(ctx, snap.ID); err != nil {
		return nil, err
	}
	s.auditAction(ctx, "SNAPSHOT_IMPORTED", fmt.Sprintf(
		"snapshot %s for cluster %s: %d users, %d roles, %d role grants, %d direct grants",
		snap.ID, req.ClusterID,
		len(req.Entities.Users), len(req.Entities.Roles),
		len(req.Entities.RoleGrants), len(req.Entities.DirectGrants)))

	// Warm the resolution cache so the first read is served hot.
	s.warmups.Add(1)
	go s.warmResolution(snap.ID)

	return s.snapshots.GetByID(ctx, snap.ID)
}

// warmResolution primes the resolver cache from the stored rows, the
// same entities every read path resolves. Failures only cost the
// warmup; the next read resolves lazily.
func (s *ImporterService) warmResolution(snapshotID string) {
	defer s.warmups.Done()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	raw, err := s.snapshots.RawEntities(ctx, snapshotID)
	if err != nil {
		s.logger.Warn("cache warmup skipped",
			"snapshot_id", snapshotID, "error", err)
		return
	}
	res := s.resolver.Resolve(snapshotID, raw)
	if len(res.Defects) > 0 {
		s.logger.Warn("snapshot imported with graph defects",
			"snapshot_id", snapshotID, "defects", len(res.Defects))
	}
}

// Drain blocks until in-flight cache warmups finish. Called on shutdown.
func (s *ImporterService) Drain() { s.warmups.Wait() }

// Get returns a snapshot together with the graph defects found while
// resolving it. Defects are only available once the snapshot completed.
func (s *ImporterService) Get(ctx context.Context, snapshotID string) (*domain.Snapshot, []domain.GraphDefect, error) {
	snap, err := s.snapshots.GetByID(ctx, snapshotID)
	if err != nil {
		return nil, nil, err
	}
	if snap.Status != domain.SnapshotCompleted {
		return snap, nil, nil
	}
	raw, err := s.snapshots.RawEntities(ctx, snapshotID)
	if err != nil {
		return nil, nil, err
	}
	res := s.resolver.Resolve(snapshotID, raw)
	return snap, res.Defects, nil
}

// ListForCluster returns the cluster's snapshots, newest first.
func (s *ImporterService) ListForCluster(ctx context.Context, clusterID string, page domain.PageRequest) ([]domain.Snapshot, int64, error) {
	if _, err := s.clusters.GetByID(ctx, clusterID); err != nil {
		return nil, 0, err
	}
	return s.snapshots.ListForCluster(ctx, clusterID, page)
}

// Delete removes a snapshot and drops its cached resolution.
func (s *ImporterService) Delete(ctx context.Context, snapshotID string) error {
	if err := s.snapshots.Delete(ctx, snapshotID); err != nil {
		return err
	}
	s.resolver.Forget(snapshotID)
	s.auditAction(ctx, "SNAPSHOT_DELETED", "snapshot "+snapshotID)
	return nil
}

func (s *ImporterService) auditAction(ctx context.Context, action, detail string) {
	caller, _ := domain.CallerFromContext(ctx)
	if err := s.audit.Insert(ctx, &domain.AuditEntry{
		PrincipalName: caller.Name,
		Action:        action,
		Detail:        detail,
	}); err != nil {
		s.logger.Warn("audit insert failed", "action", action, "error", err)
	}
}
