package domain

import "time"

// SnapshotStatus is the lifecycle state of a snapshot.
type SnapshotStatus string

const (
	SnapshotPending   SnapshotStatus = "pending"
	SnapshotCompleted SnapshotStatus = "completed"
	SnapshotFailed    SnapshotStatus = "failed"
)

// Cluster is a registered database cluster. Only identity metadata is
// stored here; connection credentials live with the collector.
type Cluster struct {
	ID          string
	Name        string
	Host        string
	Description string
	CreatedAt   time.Time
}

// Snapshot is a point-in-time capture of one cluster's principals and
// grants. Created pending, populated by the collector, then completed or
// failed (both terminal). Once completed it is immutable.
type Snapshot struct {
	ID          string
	ClusterID   string
	Status      SnapshotStatus
	Error       string // failure reason, set when Status is failed
	CreatedAt   time.Time
	CompletedAt *time.Time

	UserCount        int
	RoleCount        int
	RoleGrantCount   int
	DirectGrantCount int
}

// RawEntities holds everything a snapshot captured. RoleGrants and
// DirectGrants preserve declaration order; that order is the tie-break
// for graph traversal.
type RawEntities struct {
	Users        []User
	Roles        []Role
	RoleGrants   []RoleGrant
	DirectGrants []DirectGrant
}

// GraphDefect records a malformed-graph observation (cycle or dangling
// reference). Defects are collection-layer flaws: they are surfaced, not
// treated as query failures.
type GraphDefect struct {
	Kind   string // "cycle" or "dangling_reference"
	Detail string
}

// CreateClusterRequest holds parameters for registering a cluster.
type CreateClusterRequest struct {
	Name        string
	Host        string
	Description string
}

// Validate checks that the request is well-formed.
func (r *CreateClusterRequest) Validate() error {
	if r.Name == "" {
		return ErrValidation("cluster name is required")
	}
	if r.Host == "" {
		return ErrValidation("cluster host is required")
	}
	return nil
}

// ImportSnapshotRequest is the collector's push payload: a full raw
// entity dump for one cluster.
type ImportSnapshotRequest struct {
	ClusterID string
	Entities  RawEntities
}

// Validate checks that the request is well-formed. Referential defects
// inside the dump are tolerated downstream, but entities themselves must
// be identifiable.
func (r *ImportSnapshotRequest) Validate() error {
	if r.ClusterID == "" {
		return ErrValidation("cluster_id is required")
	}
	for _, u := range r.Entities.Users {
		if u.Name == "" {
			return ErrValidation("user with empty name in snapshot payload")
		}
	}
	for _, role := range r.Entities.Roles {
		if role.Name == "" {
			return ErrValidation("role with empty name in snapshot payload")
		}
	}
	for _, g := range r.Entities.RoleGrants {
		if g.Grantee.Name == "" || g.Role == "" {
			return ErrValidation("role grant with empty endpoint in snapshot payload")
		}
		if g.Grantee.Kind != KindUser && g.Grantee.Kind != KindRole {
			return ErrValidation("role grant grantee kind must be 'user' or 'role'")
		}
	}
	for _, g := range r.Entities.DirectGrants {
		if g.Grantee.Name == "" || g.AccessType == "" {
			return ErrValidation("direct grant with empty grantee or access type in snapshot payload")
		}
		if g.Grantee.Kind != KindUser && g.Grantee.Kind != KindRole {
			return ErrValidation("direct grant grantee kind must be 'user' or 'role'")
		}
		if g.Database == nil && g.Table != nil {
			return ErrValidation("direct grant cannot name a table without a database")
		}
	}
	return nil
}
