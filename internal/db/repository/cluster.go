package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"grantscope/internal/domain"
)

// ClusterRepo persists registered clusters in SQLite.
type ClusterRepo struct {
	db *sql.DB
}

// NewClusterRepo creates a ClusterRepo on the given pool.
func NewClusterRepo(db *sql.DB) *ClusterRepo {
	return &ClusterRepo{db: db}
}

func (r *ClusterRepo) Create(ctx context.Context, c *domain.Cluster) (*domain.Cluster, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO clusters (id, name, host, description) VALUES (?, ?, ?, ?)`,
		id, c.Name, c.Host, c.Description)
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.GetByID(ctx, id)
}

func (r *ClusterRepo) GetByID(ctx context.Context, id string) (*domain.Cluster, error) {
	var c domain.Cluster
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, host, description, created_at FROM clusters WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Host, &c.Description, &c.CreatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	return &c, nil
}

func (r *ClusterRepo) List(ctx context.Context, page domain.PageRequest) ([]domain.Cluster, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clusters`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, host, description, created_at FROM clusters ORDER BY name LIMIT ? OFFSET ?`,
		page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var clusters []domain.Cluster
	for rows.Next() {
		var c domain.Cluster
		if err := rows.Scan(&c.ID, &c.Name, &c.Host, &c.Description, &c.CreatedAt); err != nil {
			return nil, 0, err
		}
		clusters = append(clusters, c)
	}
	return clusters, total, rows.Err()
}

func (r *ClusterRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM clusters WHERE id = ?`, id)
	if err != nil {
		return mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound("cluster %s not found", id)
	}
	return nil
}
