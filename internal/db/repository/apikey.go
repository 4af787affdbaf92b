package repository

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
)

// APIKeyRepo looks up API keys by their SHA-256 hash. Plaintext keys are
// never stored.
type APIKeyRepo struct {
	db *sql.DB
}

// NewAPIKeyRepo creates an APIKeyRepo on the given pool.
func NewAPIKeyRepo(db *sql.DB) *APIKeyRepo {
	return &APIKeyRepo{db: db}
}

// HashKey returns the hex SHA-256 digest of a plaintext API key.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func (r *APIKeyRepo) GetPrincipalByHash(ctx context.Context, hash string) (string, error) {
	var name string
	err := r.db.QueryRowContext(ctx,
		`SELECT principal_name FROM api_keys WHERE key_hash = ?`, hash).Scan(&name)
	if err != nil {
		return "", mapDBError(err)
	}
	return name, nil
}

// Insert registers an API key hash for a principal.
func (r *APIKeyRepo) Insert(ctx context.Context, hash, principalName string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO api_keys (key_hash, principal_name) VALUES (?, ?)`,
		hash, principalName)
	return mapDBError(err)
}
