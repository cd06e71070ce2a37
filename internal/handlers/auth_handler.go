package handlers

import (
	"context"
	"errors"
	"net/http"

	"littlesteps/internal/logger"
	"littlesteps/internal/models"
	"littlesteps/internal/security"
	"littlesteps/internal/service"
)

// WelcomeSender sends the post-registration email
type WelcomeSender interface {
	SendWelcomeEmail(ctx context.Context, toEmail, toName string) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService *service.AuthService
	csrf        *security.CSRFGenerator
	welcome     WelcomeSender
	log         *logger.Logger
}

// NewAuthHandler creates a new auth handler. welcome may be nil.
func NewAuthHandler(authService *service.AuthService, csrf *security.CSRFGenerator, welcome WelcomeSender, log *logger.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, csrf: csrf, welcome: welcome, log: log}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type sessionResponse struct {
	User      *models.User `json:"user"`
	CSRFToken string       `json:"csrf_token"`
}

// Register creates an account and signs the new user in
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}

	user, err := h.authService.Register(req.Email, req.Password, req.Name)
	if err != nil {
		respondWithServiceError(w, h.log, "Failed to register user", err)
		return
	}
	h.log.Info("User registered", "user_id", user.ID)

	if h.welcome != nil {
		if err := h.welcome.SendWelcomeEmail(r.Context(), user.Email, user.Name); err != nil {
			h.log.Warn("Failed to send welcome email", "user_id", user.ID, "error", err)
		}
	}

	h.startSession(w, r, http.StatusCreated, user.Email, req.Password)
}

// Login signs a user in and sets the session cookie
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}
	h.startSession(w, r, http.StatusOK, req.Email, req.Password)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, status int, email, password string) {
	session, user, err := h.authService.Login(email, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.log.Warn("Failed login attempt", "ip", security.GetClientIP(r))
		}
		respondWithServiceError(w, h.log, "Failed to log in", err)
		return
	}
	token, err := h.csrf.GenerateToken(session.ID)
	if err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, ErrInternalServerError, "Failed to generate CSRF token", err)
		return
	}

	http.SetCookie(w, security.SessionCookie(r, session.ID, session.ExpiresAt))
	writeJSON(w, status, sessionResponse{User: user, CSRFToken: token})
}

// Logout ends the current session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := r.Context().Value(SessionContextKey).(string)
	if err := h.authService.Logout(sessionID); err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, ErrInternalServerError, "Failed to log out", err)
		return
	}
	http.SetCookie(w, security.ClearSessionCookie(r))
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the signed-in user and a fresh CSRF token
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := r.Context().Value(SessionContextKey).(string)
	token, err := h.csrf.GenerateToken(sessionID)
	if err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, ErrInternalServerError, "Failed to generate CSRF token", err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{User: GetUserFromContext(r.Context()), CSRFToken: token})
}

// SetDigest turns the weekly digest email on or off
func (h *AuthHandler) SetDigest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}
	user := GetUserFromContext(r.Context())
	if err := h.authService.SetDigestEnabled(user.ID, req.Enabled); err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, ErrInternalServerError, "Failed to update digest setting", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"digest_enabled": req.Enabled})
}
