package handlers

import (
	"errors"
	"html/template"
	"net/http"

	"littlesteps/internal/logger"
	"littlesteps/internal/security"
	"littlesteps/internal/service"
)

var unsubscribePage = template.Must(template.New("unsubscribe").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>Little Steps</title></head>
<body style="font-family: Arial, sans-serif; text-align: center; padding: 40px;">
	<h1>{{.Title}}</h1>
	<p>{{.Message}}</p>
</body>
</html>`))

// DigestHandler serves the signed unsubscribe link from digest emails
type DigestHandler struct {
	digestService *service.DigestService
	log           *logger.Logger
}

// NewDigestHandler creates a new digest handler
func NewDigestHandler(digestService *service.DigestService, log *logger.Logger) *DigestHandler {
	return &DigestHandler{digestService: digestService, log: log}
}

// Unsubscribe turns the digest off for the user named in the link
func (h *DigestHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	data := map[string]string{
		"Title":   "You're unsubscribed",
		"Message": "You will no longer receive the weekly digest. You can turn it back on from your account settings.",
	}

	if _, err := h.digestService.Unsubscribe(r.URL.Query().Get("token")); err != nil {
		if errors.Is(err, security.ErrInvalidLink) {
			status = http.StatusBadRequest
			data["Title"] = "Link expired"
			data["Message"] = "This unsubscribe link is invalid or has expired."
		} else {
			h.log.Error("Failed to unsubscribe", "error", err)
			status = http.StatusInternalServerError
			data["Title"] = "Something went wrong"
			data["Message"] = "Please try again later."
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := unsubscribePage.Execute(w, data); err != nil {
		h.log.Error("Error rendering unsubscribe page", "error", err)
	}
}
