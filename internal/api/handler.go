// Package api exposes the HTTP surface: cluster registry, snapshot
// ingestion, the access explorer, snapshot diffing, and the audit log.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"grantscope/internal/service/explorer"
	"grantscope/internal/service/governance"
	"grantscope/internal/service/ingest"
	"grantscope/internal/service/registry"
)

// APIHandler implements the HTTP endpoints on top of the service layer.
type APIHandler struct {
	clusters *registry.ClusterService
	importer *ingest.ImporterService
	explorer *explorer.ExplorerService
	audit    *governance.AuditService
	logger   *slog.Logger
}

// NewHandler creates an APIHandler.
func NewHandler(
	clusters *registry.ClusterService,
	importer *ingest.ImporterService,
	exp *explorer.ExplorerService,
	audit *governance.AuditService,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		clusters: clusters,
		importer: importer,
		explorer: exp,
		audit:    audit,
		logger:   logger,
	}
}

// Routes mounts every endpoint on the given router.
func (h *APIHandler) Routes(r chi.Router) {
	r.Route("/clusters", func(r chi.Router) {
		r.Get("/", h.ListClusters)
		r.Post("/", h.CreateCluster)
		r.Route("/{clusterID}", func(r chi.Router) {
			r.Get("/", h.GetCluster)
			r.Delete("/", h.DeleteCluster)

			r.Route("/snapshots", func(r chi.Router) {
				r.Get("/", h.ListSnapshots)
				r.Post("/", h.ImportSnapshot)
			})

			r.Get("/users", h.ListUsers)
			r.Get("/users/{name}", h.GetUserDetail)
			r.Get("/users/{name}/risks", h.GetUserRisks)
			r.Get("/roles", h.ListRoles)
			r.Get("/roles/{name}", h.GetRoleDetail)
			r.Get("/roles/{name}/privileges", h.GetRolePrivileges)
			r.Get("/risk-summary", h.GetRiskSummary)
			r.Get("/object-access", h.GetObjectAccess)
		})
	})

	r.Route("/snapshots", func(r chi.Router) {
		r.Get("/{snapshotID}", h.GetSnapshot)
		r.Delete("/{snapshotID}", h.DeleteSnapshot)
	})
	r.Get("/diff", h.DiffSnapshots)
	r.Get("/audit", h.ListAudit)
}

// snapshotQuery reads the optional snapshot selector. Empty means the
// latest completed snapshot for the cluster.
func snapshotQuery(r *http.Request) string {
	return r.URL.Query().Get("snapshot_id")
}
