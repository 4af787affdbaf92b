// Package registry manages the cluster catalog: identity metadata for
// the clusters snapshots are captured from.
package registry

import (
	"context"

	"grantscope/internal/domain"
)

// ClusterService provides cluster registration and lookup.
type ClusterService struct {
	repo  domain.ClusterRepository
	audit domain.AuditRepository
}

// NewClusterService creates a ClusterService.
func NewClusterService(repo domain.ClusterRepository, audit domain.AuditRepository) *ClusterService {
	return &ClusterService{repo: repo, audit: audit}
}

// Create registers a new cluster.
func (s *ClusterService) Create(ctx context.Context, req domain.CreateClusterRequest) (*domain.Cluster, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	c, err := s.repo.Create(ctx, &domain.Cluster{
		Name:        req.Name,
		Host:        req.Host,
		Description: req.Description,
	})
	if err != nil {
		return nil, err
	}
	caller, _ := domain.CallerFromContext(ctx)
	_ = s.audit.Insert(ctx, &domain.AuditEntry{
		PrincipalName: caller.Name,
		Action:        "CLUSTER_REGISTERED",
		Detail:        "cluster " + c.Name + " (" + c.ID + ")",
	})
	return c, nil
}

// GetByID returns one cluster.
func (s *ClusterService) GetByID(ctx context.Context, id string) (*domain.Cluster, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns registered clusters.
func (s *ClusterService) List(ctx context.Context, page domain.PageRequest) ([]domain.Cluster, int64, error) {
	return s.repo.List(ctx, page)
}

// Delete removes a cluster and, via the store's cascade, its snapshots.
func (s *ClusterService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	caller, _ := domain.CallerFromContext(ctx)
	_ = s.audit.Insert(ctx, &domain.AuditEntry{
		PrincipalName: caller.Name,
		Action:        "CLUSTER_DELETED",
		Detail:        "cluster " + id,
	})
	return nil
}
