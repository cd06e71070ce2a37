package handlers

import (
	"net/http"

	"littlesteps/internal/logger"
	"littlesteps/internal/service"
)

// ChildHandler serves child profiles and dashboards
type ChildHandler struct {
	childService *service.ChildService
	log          *logger.Logger
}

// NewChildHandler creates a new child handler
func NewChildHandler(childService *service.ChildService, log *logger.Logger) *ChildHandler {
	return &ChildHandler{childService: childService, log: log}
}

type childRequest struct {
	Name    string  `json:"name"`
	DueDate *string `json:"due_date"`
	DOB     *string `json:"dob"`
	IsBorn  bool    `json:"is_born"`
}

func (req childRequest) input() (service.ChildInput, error) {
	due, err := parseDate("due_date", req.DueDate)
	if err != nil {
		return service.ChildInput{}, err
	}
	dob, err := parseDate("dob", req.DOB)
	if err != nil {
		return service.ChildInput{}, err
	}
	return service.ChildInput{Name: req.Name, DueDate: due, DOB: dob, IsBorn: req.IsBorn}, nil
}

func (h *ChildHandler) readInput(w http.ResponseWriter, r *http.Request) (service.ChildInput, bool) {
	var req childRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return service.ChildInput{}, false
	}
	in, err := req.input()
	if err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, err.Error(), "", nil)
		return service.ChildInput{}, false
	}
	return in, true
}

// ListChildren returns the user's children with their ages
func (h *ChildHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	children, err := h.childService.ListChildren(user.ID)
	if err != nil {
		respondWithServiceError(w, h.log, "Failed to list children", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"children": children})
}

// CreateChild adds a child profile
func (h *ChildHandler) CreateChild(w http.ResponseWriter, r *http.Request) {
	in, ok := h.readInput(w, r)
	if !ok {
		return
	}
	user := GetUserFromContext(r.Context())
	child, err := h.childService.CreateChild(user.ID, in)
	if err != nil {
		respondWithServiceError(w, h.log, "Failed to create child", err)
		return
	}
	writeJSON(w, http.StatusCreated, child)
}

// GetChild returns one child
func (h *ChildHandler) GetChild(w http.ResponseWriter, r *http.Request) {
	childID, err := pathID(r, "childID")
	if err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, err.Error(), "", nil)
		return
	}
	user := GetUserFromContext(r.Context())
	child, err := h.childService.GetChild(user.ID, childID)
	if err != nil {
		respondWithServiceError(w, h.log, "Failed to get child", err)
		return
	}
	writeJSON(w, http.StatusOK, child)
}

// UpdateChild replaces a child's profile
func (h *ChildHandler) UpdateChild(w http.ResponseWriter, r *http.Request) {
	childID, err := pathID(r, "childID")
	if err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, err.Error(), "", nil)
		return
	}
	in, ok := h.readInput(w, r)
	if !ok {
		return
	}
	user := GetUserFromContext(r.Context())
	child, err := h.childService.UpdateChild(user.ID, childID, in)
	if err != nil {
		respondWithServiceError(w, h.log, "Failed to update child", err)
		return
	}
	writeJSON(w, http.StatusOK, child)
}

// DeleteChild removes a child and its checklist
func (h *ChildHandler) DeleteChild(w http.ResponseWriter, r *http.Request) {
	childID, err := pathID(r, "childID")
	if err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, err.Error(), "", nil)
		return
	}
	user := GetUserFromContext(r.Context())
	if err := h.childService.DeleteChild(user.ID, childID); err != nil {
		respondWithServiceError(w, h.log, "Failed to delete child", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Dashboard returns the child's age, stage, milestones and tip
func (h *ChildHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	childID, err := pathID(r, "childID")
	if err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, err.Error(), "", nil)
		return
	}
	user := GetUserFromContext(r.Context())
	dashboard, err := h.childService.Dashboard(user.ID, childID)
	if err != nil {
		respondWithServiceError(w, h.log, "Failed to build dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}
