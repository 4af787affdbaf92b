package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"grantscope/internal/domain"
)

// SnapshotRepo persists snapshots and their raw entities in SQLite.
// Role grants and direct grants keep their declaration order via the
// seq column; RawEntities returns them ordered by it.
type SnapshotRepo struct {
	db *sql.DB
}

// NewSnapshotRepo creates a SnapshotRepo on the given pool.
func NewSnapshotRepo(db *sql.DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

const snapshotColumns = `
	s.id, s.cluster_id, s.status, s.error, s.created_at, s.completed_at,
	(SELECT COUNT(*) FROM snapshot_users u WHERE u.snapshot_id = s.id),
	(SELECT COUNT(*) FROM snapshot_roles r WHERE r.snapshot_id = s.id),
	(SELECT COUNT(*) FROM snapshot_role_grants g WHERE g.snapshot_id = s.id),
	(SELECT COUNT(*) FROM snapshot_direct_grants d WHERE d.snapshot_id = s.id)`

func scanSnapshot(row interface{ Scan(...any) error }) (*domain.Snapshot, error) {
	var s domain.Snapshot
	var completedAt sql.NullTime
	err := row.Scan(&s.ID, &s.ClusterID, &s.Status, &s.Error, &s.CreatedAt, &completedAt,
		&s.UserCount, &s.RoleCount, &s.RoleGrantCount, &s.DirectGrantCount)
	if err != nil {
		return nil, mapDBError(err)
	}
	if completedAt.Valid {
		t := completedAt.Time
		s.CompletedAt = &t
	}
	return &s, nil
}

func (r *SnapshotRepo) Create(ctx context.Context, clusterID string) (*domain.Snapshot, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, cluster_id, status) VALUES (?, ?, 'pending')`,
		id, clusterID)
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.GetByID(ctx, id)
}

func (r *SnapshotRepo) GetByID(ctx context.Context, id string) (*domain.Snapshot, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+snapshotColumns+` FROM snapshots s WHERE s.id = ?`, id)
	s, err := scanSnapshot(row)
	if err != nil {
		if _, ok := err.(*domain.NotFoundError); ok {
			return nil, domain.ErrNotFound("snapshot %s not found", id)
		}
		return nil, err
	}
	return s, nil
}

func (r *SnapshotRepo) ListForCluster(ctx context.Context, clusterID string, page domain.PageRequest) ([]domain.Snapshot, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM snapshots WHERE cluster_id = ?`, clusterID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+snapshotColumns+` FROM snapshots s
		 WHERE s.cluster_id = ?
		 ORDER BY s.created_at DESC, s.id DESC LIMIT ? OFFSET ?`,
		clusterID, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var snapshots []domain.Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, 0, err
		}
		snapshots = append(snapshots, *s)
	}
	return snapshots, total, rows.Err()
}

func (r *SnapshotRepo) LatestCompleted(ctx context.Context, clusterID string) (*domain.Snapshot, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+snapshotColumns+` FROM snapshots s
		 WHERE s.cluster_id = ? AND s.status = 'completed'
		 ORDER BY s.completed_at DESC, s.id DESC LIMIT 1`, clusterID)
	s, err := scanSnapshot(row)
	if err != nil {
		if _, ok := err.(*domain.NotFoundError); ok {
			return nil, domain.ErrNotFound("no completed snapshot for cluster %s", clusterID)
		}
		return nil, err
	}
	return s, nil
}

// ImportEntities bulk-inserts a snapshot's raw entities. Only pending
// snapshots accept entities; completed and failed ones are immutable.
func (r *SnapshotRepo) ImportEntities(ctx context.Context, snapshotID string, e *domain.RawEntities) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM snapshots WHERE id = ?`, snapshotID).Scan(&status)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.ErrNotFound("snapshot %s not found", snapshotID)
		}
		return err
	}
	if status != string(domain.SnapshotPending) {
		return domain.ErrConflict("snapshot %s is %s and cannot be modified", snapshotID, status)
	}

	for _, u := range e.Users {
		hostIPs, err := encodeStrings(u.HostIPs)
		if err != nil {
			return fmt.Errorf("encode host_ips for %s: %w", u.Name, err)
		}
		defaultRoles, err := encodeStrings(u.DefaultRoles)
		if err != nil {
			return fmt.Errorf("encode default_roles for %s: %w", u.Name, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO snapshot_users (snapshot_id, name, auth_type, host_ips, default_roles_all, default_roles)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			snapshotID, u.Name, u.AuthType, hostIPs, boolToInt(u.DefaultRolesAll), defaultRoles)
		if err != nil {
			return mapDBError(err)
		}
	}

	for _, role := range e.Roles {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO snapshot_roles (snapshot_id, name) VALUES (?, ?)`,
			snapshotID, role.Name)
		if err != nil {
			return mapDBError(err)
		}
	}

	for i, g := range e.RoleGrants {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO snapshot_role_grants (snapshot_id, seq, grantee_kind, grantee_name, role)
			 VALUES (?, ?, ?, ?, ?)`,
			snapshotID, i, g.Grantee.Kind, g.Grantee.Name, g.Role)
		if err != nil {
			return mapDBError(err)
		}
	}

	for i, g := range e.DirectGrants {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO snapshot_direct_grants (snapshot_id, seq, grantee_kind, grantee_name, access_type, database_name, table_name, grant_option)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			snapshotID, i, g.Grantee.Kind, g.Grantee.Name, g.AccessType, g.Database, g.Table, boolToInt(g.GrantOption))
		if err != nil {
			return mapDBError(err)
		}
	}

	return tx.Commit()
}

func (r *SnapshotRepo) MarkCompleted(ctx context.Context, snapshotID string) error {
	return r.transition(ctx, snapshotID, domain.SnapshotCompleted, "")
}

func (r *SnapshotRepo) MarkFailed(ctx context.Context, snapshotID, reason string) error {
	return r.transition(ctx, snapshotID, domain.SnapshotFailed, reason)
}

// transition moves a pending snapshot to a terminal state. Terminal
// states never change again.
func (r *SnapshotRepo) transition(ctx context.Context, snapshotID string, to domain.SnapshotStatus, reason string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE snapshots SET status = ?, error = ?, completed_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'pending'`,
		to, reason, snapshotID)
	if err != nil {
		return mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		s, err := r.GetByID(ctx, snapshotID)
		if err != nil {
			return err
		}
		return domain.ErrConflict("snapshot %s is already %s", snapshotID, s.Status)
	}
	return nil
}

func (r *SnapshotRepo) FailStalePending(ctx context.Context, cutoff time.Time, reason string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE snapshots SET status = 'failed', error = ?, completed_at = CURRENT_TIMESTAMP
		 WHERE status = 'pending' AND created_at < ?`,
		reason, cutoff.UTC())
	if err != nil {
		return 0, mapDBError(err)
	}
	return res.RowsAffected()
}

func (r *SnapshotRepo) RawEntities(ctx context.Context, snapshotID string) (*domain.RawEntities, error) {
	e := &domain.RawEntities{}

	rows, err := r.db.QueryContext(ctx,
		`SELECT name, auth_type, host_ips, default_roles_all, default_roles
		 FROM snapshot_users WHERE snapshot_id = ? ORDER BY name`, snapshotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var u domain.User
		var hostIPs, defaultRoles string
		var defaultAll int64
		if err := rows.Scan(&u.Name, &u.AuthType, &hostIPs, &defaultAll, &defaultRoles); err != nil {
			return nil, err
		}
		u.DefaultRolesAll = defaultAll != 0
		if u.HostIPs, err = decodeStrings(hostIPs); err != nil {
			return nil, fmt.Errorf("decode host_ips for %s: %w", u.Name, err)
		}
		if u.DefaultRoles, err = decodeStrings(defaultRoles); err != nil {
			return nil, fmt.Errorf("decode default_roles for %s: %w", u.Name, err)
		}
		e.Users = append(e.Users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	roleRows, err := r.db.QueryContext(ctx,
		`SELECT name FROM snapshot_roles WHERE snapshot_id = ? ORDER BY name`, snapshotID)
	if err != nil {
		return nil, err
	}
	defer roleRows.Close()
	for roleRows.Next() {
		var role domain.Role
		if err := roleRows.Scan(&role.Name); err != nil {
			return nil, err
		}
		e.Roles = append(e.Roles, role)
	}
	if err := roleRows.Err(); err != nil {
		return nil, err
	}

	grantRows, err := r.db.QueryContext(ctx,
		`SELECT grantee_kind, grantee_name, role
		 FROM snapshot_role_grants WHERE snapshot_id = ? ORDER BY seq`, snapshotID)
	if err != nil {
		return nil, err
	}
	defer grantRows.Close()
	for grantRows.Next() {
		var g domain.RoleGrant
		if err := grantRows.Scan(&g.Grantee.Kind, &g.Grantee.Name, &g.Role); err != nil {
			return nil, err
		}
		e.RoleGrants = append(e.RoleGrants, g)
	}
	if err := grantRows.Err(); err != nil {
		return nil, err
	}

	directRows, err := r.db.QueryContext(ctx,
		`SELECT grantee_kind, grantee_name, access_type, database_name, table_name, grant_option
		 FROM snapshot_direct_grants WHERE snapshot_id = ? ORDER BY seq`, snapshotID)
	if err != nil {
		return nil, err
	}
	defer directRows.Close()
	for directRows.Next() {
		var g domain.DirectGrant
		var grantOption int64
		if err := directRows.Scan(&g.Grantee.Kind, &g.Grantee.Name, &g.AccessType, &g.Database, &g.Table, &grantOption); err != nil {
			return nil, err
		}
		g.GrantOption = grantOption != 0
		e.DirectGrants = append(e.DirectGrants, g)
	}
	return e, directRows.Err()
}

func (r *SnapshotRepo) Delete(ctx context.Context, snapshotID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, snapshotID)
	if err != nil {
		return mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound("snapshot %s not found", snapshotID)
	}
	return nil
}
