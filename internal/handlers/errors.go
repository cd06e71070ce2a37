package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"littlesteps/internal/logger"
	"littlesteps/internal/service"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondWithError writes a JSON error body. err, when set, is logged and never sent to the client.
func respondWithError(w http.ResponseWriter, log *logger.Logger, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Error(logMsg, "status", status, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: userMsg})
}

// respondWithServiceError maps service sentinels to HTTP statuses
func respondWithServiceError(w http.ResponseWriter, log *logger.Logger, logMsg string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrUnknownMilestone):
		respondWithError(w, log, http.StatusBadRequest, err.Error(), "", nil)
	case errors.Is(err, service.ErrChildNotFound):
		respondWithError(w, log, http.StatusNotFound, "Child not found", "", nil)
	case errors.Is(err, service.ErrItemNotFound):
		respondWithError(w, log, http.StatusNotFound, "Checklist item not found", "", nil)
	case errors.Is(err, service.ErrNotCustomItem):
		respondWithError(w, log, http.StatusConflict, "Only custom items can be deleted", "", nil)
	case errors.Is(err, service.ErrEmailTaken):
		respondWithError(w, log, http.StatusConflict, "Email is already registered", "", nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		respondWithError(w, log, http.StatusUnauthorized, "Invalid email or password", "", nil)
	default:
		respondWithError(w, log, http.StatusInternalServerError, ErrInternalServerError, logMsg, err)
	}
}

// decodeJSON reads a size-limited JSON body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}
