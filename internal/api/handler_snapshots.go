package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"grantscope/internal/domain"
)

type snapshotListResponse struct {
	Snapshots     []Snapshot `json:"snapshots"`
	TotalCount    int64      `json:"total_count"`
	NextPageToken string     `json:"next_page_token,omitempty"`
}

type graphDefect struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

type snapshotDetailResponse struct {
	Snapshot
	GraphDefects []graphDefect `json:"graph_defects"`
}

func (h *APIHandler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)
	snaps, total, err := h.importer.ListForCluster(r.Context(), chi.URLParam(r, "clusterID"), page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	resp := snapshotListResponse{
		Snapshots:     []Snapshot{},
		TotalCount:    total,
		NextPageToken: domain.NextPageToken(page.Offset(), page.Limit(), total),
	}
	for _, s := range snaps {
		resp.Snapshots = append(resp.Snapshots, snapshotToAPI(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *APIHandler) ImportSnapshot(w http.ResponseWriter, r *http.Request) {
	var body ImportSnapshotBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	snap, err := h.importer.Import(r.Context(), body.toDomain(chi.URLParam(r, "clusterID")))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, snapshotToAPI(*snap))
}

func (h *APIHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, defects, err := h.importer.Get(r.Context(), chi.URLParam(r, "snapshotID"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	resp := snapshotDetailResponse{
		Snapshot:     snapshotToAPI(*snap),
		GraphDefects: []graphDefect{},
	}
	for _, d := range defects {
		resp.GraphDefects = append(resp.GraphDefects, graphDefect{Kind: d.Kind, Detail: d.Detail})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *APIHandler) DeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := h.importer.Delete(r.Context(), chi.URLParam(r, "snapshotID")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
