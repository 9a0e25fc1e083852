package api

import (
	"errors"
	"net/http"

	"github.com/ayusman/abhinaya/internal/gesture"
)

// Session is the detection session the API controls.
type Session interface {
	Start() error
	Stop()
	IsRunning() bool
	Thresholds() gesture.Thresholds
	SetThresholds(gesture.Thresholds) error
}

// SessionHandler serves /api/session.
type SessionHandler struct {
	session Session
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(s Session) *SessionHandler {
	return &SessionHandler{session: s}
}

type sessionState struct {
	Running *bool `json:"running"`
}

// ServeHTTP reports the session state on GET and starts or stops the
// session on POST {"running": bool}.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		var req sessionState
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if req.Running == nil {
			writeError(w, http.StatusBadRequest, "running is required")
			return
		}

		if *req.Running {
			if err := h.session.Start(); err != nil {
				writeError(w, http.StatusServiceUnavailable, "Failed to start session: "+err.Error())
				return
			}
		} else {
			h.session.Stop()
		}
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	running := h.session.IsRunning()
	writeJSON(w, http.StatusOK, sessionState{Running: &running})
}

// ThresholdsHandler serves /api/thresholds.
type ThresholdsHandler struct {
	session Session
}

// NewThresholdsHandler creates a new ThresholdsHandler.
func NewThresholdsHandler(s Session) *ThresholdsHandler {
	return &ThresholdsHandler{session: s}
}

// ServeHTTP returns the thresholds on GET and replaces them on PUT.
// Fields missing from a PUT body keep their current values.
func (h *ThresholdsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.session.Thresholds())
	case http.MethodPut:
		t := h.session.Thresholds()
		if err := decodeJSON(w, r, &t); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}

		if err := h.session.SetThresholds(t); err != nil {
			if errors.Is(err, gesture.ErrInvalidThresholds) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "Failed to update thresholds")
			return
		}
		writeJSON(w, http.StatusOK, h.session.Thresholds())
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
