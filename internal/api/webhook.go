// internal/api/webhook.go
package api

import (
	"errors"
	"net/http"

	"github.com/google/go-github/v62/github"

	custom_errors "github-gitee-mirror/internal/errors"
)

type webhookResponse struct {
	TaskID  int64  `json:"task_id,omitempty"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// githubWebhook mirrors the pushed repository. Events other than push, and
// accounts that cannot mirror, are acknowledged and ignored.
// POST /v1/webhooks/github/{accountID}
func (h *Handler) githubWebhook(w http.ResponseWriter, r *http.Request) {
	id, ok := accountIDParam(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid account id")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	payload, err := github.ValidatePayload(r, h.webhookSecret)
	if err != nil {
		h.logger.Warn("Rejected webhook delivery", "account_id", id, "error", err)
		respondWithError(w, http.StatusUnauthorized, "Invalid webhook payload or signature")
		return
	}

	eventType := github.WebHookType(r)
	if eventType != "push" {
		respondWithJSON(w, http.StatusOK, webhookResponse{Status: "ignored", Message: "Event " + eventType + " ignored"})
		return
	}

	event, err := github.ParseWebHook(eventType, payload)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Malformed push event")
		return
	}
	push, ok := event.(*github.PushEvent)
	if !ok || push.GetRepo().GetCloneURL() == "" {
		respondWithError(w, http.StatusBadRequest, "Push event carries no repository")
		return
	}

	out, err := h.engine.HandlePush(r.Context(), id, push.GetRepo().GetCloneURL())
	switch {
	case errors.Is(err, custom_errors.ErrSyncInProgress):
		respondWithJSON(w, http.StatusOK, webhookResponse{Status: "skipped", Message: "Sync already in progress or queued"})
	case err != nil:
		h.respondWithServiceError(w, r, err)
	case out.Ignored:
		respondWithJSON(w, http.StatusOK, webhookResponse{Status: "ignored", Message: out.Reason})
	default:
		respondWithJSON(w, http.StatusAccepted, webhookResponse{TaskID: out.Task.ID, Status: "queued", Message: "Sync task queued"})
	}
}
