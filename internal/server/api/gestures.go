package api

import (
	"net/http"

	"github.com/ayusman/abhinaya/internal/gesture"
)

// GestureHandler lists the gestures the classifier can report.
type GestureHandler struct{}

// NewGestureHandler creates a new GestureHandler.
func NewGestureHandler() *GestureHandler {
	return &GestureHandler{}
}

type gestureResponse struct {
	Name string `json:"name"`
}

type listGesturesResponse struct {
	Gestures []gestureResponse `json:"gestures"`
}

// ServeHTTP handles GET /api/gestures.
func (h *GestureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	kinds := gesture.Kinds()
	response := listGesturesResponse{
		Gestures: make([]gestureResponse, 0, len(kinds)),
	}
	for _, k := range kinds {
		response.Gestures = append(response.Gestures, gestureResponse{Name: k.String()})
	}

	writeJSON(w, http.StatusOK, response)
}
