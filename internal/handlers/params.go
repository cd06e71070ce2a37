package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"littlesteps/internal/models"
)

// pathID parses a positive integer URL parameter
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// parseDate reads an optional YYYY-MM-DD value; nil or blank means no date
func parseDate(field string, value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	t, err := time.Parse(models.DateLayout, strings.TrimSpace(*value))
	if err != nil {
		return nil, fmt.Errorf("%s must be a date in YYYY-MM-DD form", field)
	}
	return &t, nil
}

// queryLimit reads ?limit=; anything unparsable becomes 0, which services treat as their default
func queryLimit(r *http.Request) int {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return limit
}
