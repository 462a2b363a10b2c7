// internal/api/sync.go
package api

import (
	"net/http"
	"strconv"
	"strings"

	"github-gitee-mirror/internal/database"
	"github-gitee-mirror/internal/model"
	"github-gitee-mirror/internal/syncer"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 200
)

type triggerRequest struct {
	AccountID int64  `json:"account_id"`
	RepoURL   string `json:"repo_url"`
}

type triggerResponse struct {
	TaskID  int64  `json:"task_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// triggerSync queues a mirror of one repository.
// POST /v1/sync/trigger
func (h *Handler) triggerSync(w http.ResponseWriter, r *http.Request) {
	var req triggerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.AccountID <= 0 || strings.TrimSpace(req.RepoURL) == "" {
		respondWithError(w, http.StatusBadRequest, "'account_id' and 'repo_url' are required")
		return
	}

	task, err := h.engine.Trigger(r.Context(), syncer.TriggerRequest{
		AccountID: req.AccountID,
		SourceURL: req.RepoURL,
		Trigger:   syncer.TriggerManual,
	})
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusAccepted, triggerResponse{
		TaskID:  task.ID,
		Status:  "queued",
		Message: "Sync task queued",
	})
}

// getSyncLogs lists an account's tasks, newest first.
// GET /v1/sync/logs/{accountID}?status=failed&limit=50&offset=0
func (h *Handler) getSyncLogs(w http.ResponseWriter, r *http.Request) {
	id, ok := accountIDParam(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid account id")
		return
	}

	q := r.URL.Query()
	params := database.ListTasksParams{AccountID: id, Limit: defaultLogLimit}

	if s := q.Get("status"); s != "" {
		if !model.TaskStatus(s).Valid() {
			respondWithError(w, http.StatusBadRequest, "Invalid 'status' parameter. Must be one of pending, syncing, completed, failed.")
			return
		}
		params.Status = database.Text(s)
	}
	if s := q.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit <= 0 || limit > maxLogLimit {
			respondWithError(w, http.StatusBadRequest, "Invalid 'limit' parameter. Must be an integer between 1 and 200.")
			return
		}
		params.Limit = int32(limit)
	}
	if s := q.Get("offset"); s != "" {
		offset, err := strconv.Atoi(s)
		if err != nil || offset < 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid 'offset' parameter. Must be a non-negative integer.")
			return
		}
		params.Offset = int32(offset)
	}

	rows, err := h.db.ListTasks(r.Context(), params)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	tasks := make([]model.Task, len(rows))
	for i, row := range rows {
		tasks[i] = row.ToModel()
	}
	respondWithJSON(w, http.StatusOK, tasks)
}

// getDashboard returns task totals and the activity heatmap.
// GET /v1/sync/dashboard/{accountID}?refresh=true
func (h *Handler) getDashboard(w http.ResponseWriter, r *http.Request) {
	id, ok := accountIDParam(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid account id")
		return
	}

	dash, err := h.views.Dashboard(r.Context(), id, refreshParam(r))
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, dash)
}

// getRepos lists source repositories with their mirror status and activity.
// GET /v1/sync/repos/{accountID}?refresh=true
func (h *Handler) getRepos(w http.ResponseWriter, r *http.Request) {
	id, ok := accountIDParam(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid account id")
		return
	}

	repos, err := h.views.RepoOverlay(r.Context(), id, refreshParam(r))
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, repos)
}

func refreshParam(r *http.Request) bool {
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	return refresh
}
