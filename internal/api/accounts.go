// internal/api/accounts.go
package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github-gitee-mirror/internal/database"
	custom_errors "github-gitee-mirror/internal/errors"
	"github-gitee-mirror/internal/model"
)

type linkRequest struct {
	AccountID int64  `json:"account_id"`
	Platform  string `json:"platform"`
	Username  string `json:"username"`
	Token     string `json:"token"`
}

func linkStatus(acc model.Account) model.LinkStatus {
	return model.LinkStatus{GitHubLinked: acc.GitHub.Linked(), GiteeLinked: acc.Gitee.Linked()}
}

// linkAccount stores a platform credential, creating the account if needed.
// POST /v1/accounts/link
func (h *Handler) linkAccount(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Token = strings.TrimSpace(req.Token)
	if req.AccountID <= 0 || req.Username == "" || req.Token == "" {
		respondWithError(w, http.StatusBadRequest, "'account_id', 'username' and 'token' are required")
		return
	}

	params := database.LinkAccountParams{
		ID:       req.AccountID,
		Username: database.Text(req.Username),
		Token:    database.Text(req.Token),
	}
	var (
		acc database.Account
		err error
	)
	switch model.Platform(req.Platform) {
	case model.PlatformGitHub:
		acc, err = h.db.LinkGithub(r.Context(), params)
	case model.PlatformGitee:
		acc, err = h.db.LinkGitee(r.Context(), params)
	default:
		h.respondWithServiceError(w, r, &custom_errors.ErrInvalidPlatform{Platform: req.Platform})
		return
	}
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	h.logger.Info("Linked account", "account_id", acc.ID, "platform", req.Platform)
	respondWithJSON(w, http.StatusOK, linkStatus(acc.ToModel()))
}

// unlinkAccount removes a platform credential.
// DELETE /v1/accounts/{accountID}/links/{platform}
func (h *Handler) unlinkAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := accountIDParam(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid account id")
		return
	}

	platform := chi.URLParam(r, "platform")
	var (
		acc database.Account
		err error
	)
	switch model.Platform(platform) {
	case model.PlatformGitHub:
		acc, err = h.db.UnlinkGithub(r.Context(), id)
	case model.PlatformGitee:
		acc, err = h.db.UnlinkGitee(r.Context(), id)
	default:
		h.respondWithServiceError(w, r, &custom_errors.ErrInvalidPlatform{Platform: platform})
		return
	}
	if errors.Is(err, pgx.ErrNoRows) {
		err = custom_errors.ErrAccountNotFound
	}
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	h.logger.Info("Unlinked account", "account_id", id, "platform", platform)
	respondWithJSON(w, http.StatusOK, linkStatus(acc.ToModel()))
}

// getLinkStatus reports which platforms an account has linked.
// GET /v1/accounts/{accountID}/status
func (h *Handler) getLinkStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := accountIDParam(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid account id")
		return
	}

	acc, err := database.LookupAccount(r.Context(), h.db, id)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, linkStatus(acc))
}
