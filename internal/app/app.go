// Package app provides application-level wiring and dependency injection
// for the grantscope application following hexagonal architecture.
package app

import (
	"database/sql"
	"fmt"
	"log/slog"

	"grantscope/internal/config"
	"grantscope/internal/db/repository"
	"grantscope/internal/service/explorer"
	"grantscope/internal/service/governance"
	"grantscope/internal/service/ingest"
	"grantscope/internal/service/registry"
	"grantscope/internal/service/resolve"
	"grantscope/internal/service/risk"
)

// Deps holds the external dependencies that main() must provide.
// These are things the app package cannot (or should not) create itself:
// database handles, config, and the logger.
type Deps struct {
	Cfg     *config.Config
	WriteDB *sql.DB
	ReadDB  *sql.DB
	Logger  *slog.Logger
}

// Services groups all service pointers that the API handler needs.
type Services struct {
	Cluster  *registry.ClusterService
	Importer *ingest.ImporterService
	Explorer *explorer.ExplorerService
	Audit    *governance.AuditService
}

// App holds the fully-wired application: services, the janitor, and the
// repositories needed for router setup (APIKeyRepo for auth middleware).
type App struct {
	Services   Services
	Janitor    *ingest.Janitor
	APIKeyRepo *repository.APIKeyRepo
}

// New wires all repositories and services from the provided deps.
func New(deps Deps) (*App, error) {
	cfg := deps.Cfg

	// === Repositories (write-pool) ===
	clusterRepo := repository.NewClusterRepo(deps.WriteDB)
	snapshotRepo := repository.NewSnapshotRepo(deps.WriteDB)
	auditRepo := repository.NewAuditRepo(deps.WriteDB)

	// === Repositories (read-pool) ===
	apiKeyRepo := repository.NewAPIKeyRepo(deps.ReadDB)
	readSnapshotRepo := repository.NewSnapshotRepo(deps.ReadDB)

	// === Graph resolution ===
	resolver := resolve.NewResolver(deps.Logger.With("component", "resolver"))

	policy := risk.DefaultPolicy()
	if cfg.RiskPolicyPath != "" {
		loaded, err := risk.LoadPolicy(cfg.RiskPolicyPath)
		if err != nil {
			return nil, fmt.Errorf("load risk policy: %w", err)
		}
		policy = loaded
	}
	analyzer := risk.NewAnalyzer(policy)

	// === Services ===
	clusterSvc := registry.NewClusterService(clusterRepo, auditRepo)
	importerSvc := ingest.NewImporterService(clusterRepo, snapshotRepo, auditRepo, resolver,
		deps.Logger.With("component", "importer"))
	explorerSvc := explorer.NewExplorerService(clusterRepo, readSnapshotRepo, resolver, analyzer,
		deps.Logger.With("component", "explorer"))
	auditSvc := governance.NewAuditService(auditRepo)

	janitor := ingest.NewJanitor(snapshotRepo, cfg.PendingSnapshotTTL, cfg.JanitorSchedule,
		deps.Logger.With("component", "janitor"))

	return &App{
		Services: Services{
			Cluster:  clusterSvc,
			Importer: importerSvc,
			Explorer: explorerSvc,
			Audit:    auditSvc,
		},
		Janitor:    janitor,
		APIKeyRepo: apiKeyRepo,
	}, nil
}
