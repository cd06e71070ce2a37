package handlers

import (
	"net/http"

	"littlesteps/internal/catalog"
	"littlesteps/internal/logger"
	"littlesteps/internal/models"
	"littlesteps/internal/service"
)

// PreferencesHandler serves family preferences and the choices behind them
type PreferencesHandler struct {
	prefsService *service.PreferencesService
	options      preferenceOptions
	log          *logger.Logger
}

type preferenceOptions struct {
	BirthPreferences   []string        `json:"birth_preferences"`
	FeedingPreferences []string        `json:"feeding_preferences"`
	VaccineStances     []string        `json:"vaccine_stances"`
	DietaryPreferences []string        `json:"dietary_preferences"`
	ParentingStyles    []string        `json:"parenting_styles"`
	Topics             []catalog.Topic `json:"topics"`
}

// NewPreferencesHandler creates a new preferences handler
func NewPreferencesHandler(prefsService *service.PreferencesService, cat *catalog.Catalog, log *logger.Logger) *PreferencesHandler {
	return &PreferencesHandler{
		prefsService: prefsService,
		options: preferenceOptions{
			BirthPreferences:   models.BirthPreferences,
			FeedingPreferences: models.FeedingPreferences,
			VaccineStances:     models.VaccineStances,
			DietaryPreferences: models.DietaryPreferences,
			ParentingStyles:    models.ParentingStyles,
			Topics:             cat.Topics,
		},
		log: log,
	}
}

// Options lists the accepted value for every preference field
func (h *PreferencesHandler) Options(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.options)
}

// GetPreferences returns the user's saved preferences
func (h *PreferencesHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	prefs, err := h.prefsService.GetPreferences(user.ID)
	if err != nil {
		respondWithServiceError(w, h.log, "Failed to load preferences", err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

// UpdatePreferences replaces the user's preferences
func (h *PreferencesHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var in service.PreferencesInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}
	user := GetUserFromContext(r.Context())
	prefs, err := h.prefsService.UpdatePreferences(user.ID, in)
	if err != nil {
		respondWithServiceError(w, h.log, "Failed to save preferences", err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}
