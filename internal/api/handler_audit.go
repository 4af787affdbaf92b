package api

import (
	"net/http"

	"grantscope/internal/domain"
)

type auditListResponse struct {
	Entries       []AuditEntry `json:"entries"`
	TotalCount    int64        `json:"total_count"`
	NextPageToken string       `json:"next_page_token,omitempty"`
}

func (h *APIHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)
	entries, total, err := h.audit.List(r.Context(), page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	resp := auditListResponse{
		Entries:       []AuditEntry{},
		TotalCount:    total,
		NextPageToken: domain.NextPageToken(page.Offset(), page.Limit(), total),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, auditEntryToAPI(e))
	}
	writeJSON(w, http.StatusOK, resp)
}
