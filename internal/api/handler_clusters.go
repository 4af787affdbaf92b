package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"grantscope/internal/domain"
)

type clusterListResponse struct {
	Clusters      []Cluster `json:"clusters"`
	TotalCount    int64     `json:"total_count"`
	NextPageToken string    `json:"next_page_token,omitempty"`
}

func (h *APIHandler) ListClusters(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)
	clusters, total, err := h.clusters.List(r.Context(), page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	resp := clusterListResponse{
		Clusters:      []Cluster{},
		TotalCount:    total,
		NextPageToken: domain.NextPageToken(page.Offset(), page.Limit(), total),
	}
	for _, c := range clusters {
		resp.Clusters = append(resp.Clusters, clusterToAPI(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *APIHandler) CreateCluster(w http.ResponseWriter, r *http.Request) {
	var body CreateClusterBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	cluster, err := h.clusters.Create(r.Context(), domain.CreateClusterRequest{
		Name:        body.Name,
		Host:        body.Host,
		Description: body.Description,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, clusterToAPI(*cluster))
}

func (h *APIHandler) GetCluster(w http.ResponseWriter, r *http.Request) {
	cluster, err := h.clusters.GetByID(r.Context(), chi.URLParam(r, "clusterID"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, clusterToAPI(*cluster))
}

func (h *APIHandler) DeleteCluster(w http.ResponseWriter, r *http.Request) {
	if err := h.clusters.Delete(r.Context(), chi.URLParam(r, "clusterID")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
