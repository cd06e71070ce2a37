package handlers

import (
	"net/http"

	"littlesteps/internal/logger"
	"littlesteps/internal/service"
)

// PlanningHandler serves checklists and milestone suggestions
type PlanningHandler struct {
	planningService *service.PlanningService
	log             *logger.Logger
}

// NewPlanningHandler creates a new planning handler
func NewPlanningHandler(planningService *service.PlanningService, log *logger.Logger) *PlanningHandler {
	return &PlanningHandler{planningService: planningService, log: log}
}

func (h *PlanningHandler) ids(w http.ResponseWriter, r *http.Request, param string) (userID, id int64, ok bool) {
	id, err := pathID(r, param)
	if err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, err.Error(), "", nil)
		return 0, 0, false
	}
	return GetUserFromContext(r.Context()).ID, id, true
}

// Checklist returns the child's items grouped into overdue, this month, coming up and completed
func (h *PlanningHandler) Checklist(w http.ResponseWriter, r *http.Request) {
	userID, childID, ok := h.ids(w, r, "childID")
	if !ok {
		return
	}
	grouped, err := h.planningService.Checklist(userID, childID)
	if err != nil {
		respondWithServiceError(w, h.log, "Failed to load checklist", err)
		return
	}
	writeJSON(w, http.StatusOK, grouped)
}

// Suggestions lists milestone templates that could be added now
func (h *PlanningHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	userID, childID, ok := h.ids(w, r, "childID")
	if !ok {
		return
	}
	suggestions, err := h.planningService.Suggestions(userID, childID)
	if err != nil {
		respondWithServiceError(w, h.log, "Failed to load suggestions", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"suggestions": suggestions})
}

// AddSuggestions adds the named templates, or every current suggestion when keys is empty
func (h *PlanningHandler) AddSuggestions(w http.ResponseWriter, r *http.Request) {
	userID, childID, ok := h.ids(w, r, "childID")
	if !ok {
		return
	}
	var req struct {
		Keys []string `json:"keys"`
	}
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidJSON, "", nil)
			return
		}
	}
	added, err := h.planningService.AddSuggestions(userID, childID, req.Keys)
	if err != nil {
		respondWithServiceError(w, h.log, "Failed to add suggestions", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"items": added})
}

// AddCustomItem appends a user-written checklist item
func (h *PlanningHandler) AddCustomItem(w http.ResponseWriter, r *http.Request) {
	userID, childID, ok := h.ids(w, r, "childID")
	if !ok {
		return
	}
	var req struct {
		Title       string  `json:"title"`
		Description string  `json:"description"`
		DueDate     *string `json:"due_date"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}
	due, err := parseDate("due_date", req.DueDate)
	if err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, err.Error(), "", nil)
		return
	}
	item, err := h.planningService.AddCustomItem(userID, childID, service.CustomItemInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     due,
	})
	if err != nil {
		respondWithServiceError(w, h.log, "Failed to add checklist item", err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// ToggleItem flips an item between open and completed
func (h *PlanningHandler) ToggleItem(w http.ResponseWriter, r *http.Request) {
	userID, itemID, ok := h.ids(w, r, "itemID")
	if !ok {
		return
	}
	item, err := h.planningService.ToggleItem(userID, itemID)
	if err != nil {
		respondWithServiceError(w, h.log, "Failed to toggle checklist item", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// UpdateDueDate sets or clears the user's date for an item
func (h *PlanningHandler) UpdateDueDate(w http.ResponseWriter, r *http.Request) {
	userID, itemID, ok := h.ids(w, r, "itemID")
	if !ok {
		return
	}
	var req struct {
		DueDate *string `json:"due_date"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}
	due, err := parseDate("due_date", req.DueDate)
	if err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, err.Error(), "", nil)
		return
	}
	item, err := h.planningService.UpdateDueDate(userID, itemID, due)
	if err != nil {
		respondWithServiceError(w, h.log, "Failed to update due date", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// DeleteItem removes a custom checklist item
func (h *PlanningHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	userID, itemID, ok := h.ids(w, r, "itemID")
	if !ok {
		return
	}
	if err := h.planningService.DeleteItem(userID, itemID); err != nil {
		respondWithServiceError(w, h.log, "Failed to delete checklist item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
