package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/abhinaya/internal/gesture"
	"github.com/ayusman/abhinaya/internal/log"
	"github.com/ayusman/abhinaya/internal/plugin"
	"github.com/ayusman/abhinaya/internal/store"
)

// ActionHandler handles HTTP requests for action resources.
type ActionHandler struct {
	store   *store.Store
	plugins PluginLister
}

// NewActionHandler creates a new ActionHandler with the given store. When
// plugins is not nil, bindings must name a discovered plugin and one of
// its actions.
func NewActionHandler(s *store.Store, plugins PluginLister) *ActionHandler {
	return &ActionHandler{store: s, plugins: plugins}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *ActionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/actions or /api/actions/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/actions")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type createActionRequest struct {
	Gesture    string          `json:"gesture"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    *bool           `json:"enabled"`
}

type updateActionRequest struct {
	Gesture    string          `json:"gesture"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    *bool           `json:"enabled"`
}

type actionResponse struct {
	ID         string          `json:"id"`
	Gesture    string          `json:"gesture"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    bool            `json:"enabled"`
	CreatedAt  string          `json:"created_at"`
}

type listActionsResponse struct {
	Actions []actionResponse `json:"actions"`
}

// toActionResponse converts a store.Action to an actionResponse.
func toActionResponse(a *store.Action) actionResponse {
	config := a.Config
	if len(config) == 0 {
		config = json.RawMessage("{}")
	}
	return actionResponse{
		ID:         a.ID,
		Gesture:    a.Gesture.String(),
		PluginName: a.PluginName,
		ActionName: a.ActionName,
		Config:     config,
		Enabled:    a.Enabled,
		CreatedAt:  a.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// list handles GET /api/actions and returns all actions. An optional
// ?gesture= query narrows the list to one gesture.
func (h *ActionHandler) list(w http.ResponseWriter, r *http.Request) {
	var filter gesture.Kind
	if name := r.URL.Query().Get("gesture"); name != "" {
		k, err := gesture.ParseKind(name)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter = k
	}

	actions, err := h.store.Actions().List()
	if err != nil {
		log.Error("failed to list actions", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to list actions")
		return
	}

	response := listActionsResponse{
		Actions: make([]actionResponse, 0, len(actions)),
	}
	for _, a := range actions {
		if filter.Valid() && a.Gesture != filter {
			continue
		}
		response.Actions = append(response.Actions, toActionResponse(a))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/actions/{id} and returns a single action.
func (h *ActionHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	action, err := h.store.Actions().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Action not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get action")
		return
	}

	writeJSON(w, http.StatusOK, toActionResponse(action))
}

// create handles POST /api/actions and creates a new action.
func (h *ActionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createActionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Gesture == "" {
		writeError(w, http.StatusBadRequest, "gesture is required")
		return
	}
	kind, err := gesture.ParseKind(req.Gesture)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.PluginName == "" {
		writeError(w, http.StatusBadRequest, "plugin_name is required")
		return
	}
	if req.ActionName == "" {
		writeError(w, http.StatusBadRequest, "action_name is required")
		return
	}
	if msg := h.checkPlugin(req.PluginName, req.ActionName); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if !validConfig(req.Config) {
		writeError(w, http.StatusBadRequest, "config must be a JSON object")
		return
	}

	// The same plugin action may only be bound once per gesture.
	existing, err := h.store.Actions().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check existing actions")
		return
	}
	for _, a := range existing {
		if a.Gesture == kind && a.PluginName == req.PluginName && a.ActionName == req.ActionName {
			writeError(w, http.StatusConflict, "Action already bound to this gesture")
			return
		}
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	action := &store.Action{
		ID:         uuid.New().String(),
		Gesture:    kind,
		PluginName: req.PluginName,
		ActionName: req.ActionName,
		Config:     req.Config,
		Enabled:    enabled,
	}

	if err := h.store.Actions().Create(action); err != nil {
		log.Error("failed to create action", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to create action")
		return
	}

	log.Info("action bound", "id", action.ID, "gesture", kind, "plugin", action.PluginName, "action", action.ActionName)
	writeJSON(w, http.StatusCreated, toActionResponse(action))
}

// update handles PUT /api/actions/{id} and updates an existing action.
func (h *ActionHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	action, err := h.store.Actions().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Action not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get action")
		return
	}

	var req updateActionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Gesture != "" {
		kind, err := gesture.ParseKind(req.Gesture)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		action.Gesture = kind
	}
	if req.PluginName != "" {
		action.PluginName = req.PluginName
	}
	if req.ActionName != "" {
		action.ActionName = req.ActionName
	}
	if req.Config != nil {
		if !validConfig(req.Config) {
			writeError(w, http.StatusBadRequest, "config must be a JSON object")
			return
		}
		action.Config = req.Config
	}
	if req.Enabled != nil {
		action.Enabled = *req.Enabled
	}

	if req.PluginName != "" || req.ActionName != "" {
		if msg := h.checkPlugin(action.PluginName, action.ActionName); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}
	}

	if err := h.store.Actions().Update(action); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update action")
		return
	}

	writeJSON(w, http.StatusOK, toActionResponse(action))
}

// delete handles DELETE /api/actions/{id} and removes an action.
func (h *ActionHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	err := h.store.Actions().Delete(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Action not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete action")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// checkPlugin returns an error message when the binding names a plugin
// or action that was not discovered.
func (h *ActionHandler) checkPlugin(pluginName, actionName string) string {
	if h.plugins == nil {
		return ""
	}

	p, err := h.plugins.Get(pluginName)
	if err != nil {
		if errors.Is(err, plugin.ErrPluginNotFound) {
			return "Plugin not found"
		}
		return "Failed to verify plugin"
	}
	if !p.Supports(actionName) {
		return "Plugin does not support action " + actionName
	}
	return ""
}

func validConfig(config json.RawMessage) bool {
	if len(config) == 0 {
		return true
	}
	var obj map[string]json.RawMessage
	return json.Unmarshal(config, &obj) == nil
}
