// internal/api/response.go
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	custom_errors "github-gitee-mirror/internal/errors"
)

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithServiceError maps engine and persistence errors to responses.
func (h *Handler) respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		unlinked   *custom_errors.ErrUnlinkedAccount
		invalidURL *custom_errors.ErrInvalidRepoURL
		platform   *custom_errors.ErrInvalidPlatform
		provider   *custom_errors.ErrProvider
	)
	switch {
	case errors.Is(err, custom_errors.ErrSyncInProgress):
		respondWithError(w, http.StatusConflict, "Sync already in progress or queued")
	case errors.Is(err, custom_errors.ErrAccountNotFound):
		respondWithError(w, http.StatusNotFound, "Account not found")
	case errors.As(err, &unlinked), errors.As(err, &invalidURL), errors.As(err, &platform):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &provider):
		h.logger.Warn("Provider request failed", "path", r.URL.Path, "error", err)
		respondWithError(w, http.StatusBadGateway, "Upstream provider request failed")
	default:
		h.logger.Error("Request failed", "path", r.URL.Path, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func accountIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
