package handlers

import (
	"net/http"

	"littlesteps/internal/logger"
	"littlesteps/internal/service"
)

// FeedHandler serves the personalized feed and resource search
type FeedHandler struct {
	feedService *service.FeedService
	log         *logger.Logger
}

// NewFeedHandler creates a new feed handler
func NewFeedHandler(feedService *service.FeedService, log *logger.Logger) *FeedHandler {
	return &FeedHandler{feedService: feedService, log: log}
}

// Feed returns resources ranked for one child
func (h *FeedHandler) Feed(w http.ResponseWriter, r *http.Request) {
	childID, err := pathID(r, "childID")
	if err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, err.Error(), "", nil)
		return
	}
	user := GetUserFromContext(r.Context())
	items, err := h.feedService.Feed(user.ID, childID, queryLimit(r))
	if err != nil {
		respondWithServiceError(w, h.log, "Failed to build feed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"resources": items})
}

// Search matches resources by title or summary
func (h *FeedHandler) Search(w http.ResponseWriter, r *http.Request) {
	results, err := h.feedService.Search(r.URL.Query().Get("q"), queryLimit(r))
	if err != nil {
		respondWithServiceError(w, h.log, "Failed to search resources", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"resources": results})
}
