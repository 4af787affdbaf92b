package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type userListResponse struct {
	Users []UserSummary `json:"users"`
}

type roleListResponse struct {
	Roles []RoleSummary `json:"roles"`
}

type riskFindingsResponse struct {
	Findings []RiskFinding `json:"findings"`
}

type rolePrivilegesResponse struct {
	Privileges []EffectivePrivilege `json:"privileges"`
}

func (h *APIHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.explorer.ListUsers(r.Context(), chi.URLParam(r, "clusterID"), snapshotQuery(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	resp := userListResponse{Users: []UserSummary{}}
	for _, u := range users {
		resp.Users = append(resp.Users, userSummaryToAPI(u))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *APIHandler) GetUserDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := h.explorer.GetUserDetail(r.Context(),
		chi.URLParam(r, "clusterID"), snapshotQuery(r), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, userDetailToAPI(detail))
}

func (h *APIHandler) GetUserRisks(w http.ResponseWriter, r *http.Request) {
	findings, err := h.explorer.GetUserRisks(r.Context(),
		chi.URLParam(r, "clusterID"), snapshotQuery(r), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	resp := riskFindingsResponse{Findings: []RiskFinding{}}
	for _, f := range findings {
		resp.Findings = append(resp.Findings, findingToAPI(f))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *APIHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.explorer.ListRoles(r.Context(), chi.URLParam(r, "clusterID"), snapshotQuery(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	resp := roleListResponse{Roles: []RoleSummary{}}
	for _, role := range roles {
		resp.Roles = append(resp.Roles, RoleSummary{
			Name:             role.Name,
			MemberCount:      role.MemberCount,
			DirectGrantCount: role.DirectGrantCount,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *APIHandler) GetRoleDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := h.explorer.GetRoleDetail(r.Context(),
		chi.URLParam(r, "clusterID"), snapshotQuery(r), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, roleDetailToAPI(detail))
}

func (h *APIHandler) GetRolePrivileges(w http.ResponseWriter, r *http.Request) {
	privs, err := h.explorer.GetRoleEffectivePrivileges(r.Context(),
		chi.URLParam(r, "clusterID"), snapshotQuery(r), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	resp := rolePrivilegesResponse{Privileges: []EffectivePrivilege{}}
	for _, p := range privs {
		resp.Privileges = append(resp.Privileges, privilegeToAPI(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *APIHandler) GetRiskSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.explorer.GetRiskSummary(r.Context(), chi.URLParam(r, "clusterID"), snapshotQuery(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, riskSummaryToAPI(summary))
}

func (h *APIHandler) GetObjectAccess(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var table *string
	if t := q.Get("table"); t != "" {
		table = &t
	}
	access, err := h.explorer.GetObjectAccess(r.Context(),
		chi.URLParam(r, "clusterID"), snapshotQuery(r), q.Get("database"), table)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, objectAccessToAPI(access))
}

func (h *APIHandler) DiffSnapshots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	diff, err := h.explorer.DiffSnapshots(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotDiffToAPI(diff))
}
