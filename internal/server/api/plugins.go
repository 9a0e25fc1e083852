package api

import (
	"net/http"

	"github.com/ayusman/abhinaya/internal/plugin"
)

// PluginLister provides the discovered plugins.
type PluginLister interface {
	List() []*plugin.Plugin
	Get(name string) (*plugin.Plugin, error)
}

// PluginHandler serves GET /api/plugins.
type PluginHandler struct {
	plugins PluginLister
}

// NewPluginHandler creates a new PluginHandler.
func NewPluginHandler(p PluginLister) *PluginHandler {
	return &PluginHandler{plugins: p}
}

type pluginResponse struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Actions     []string `json:"actions"`
}

type listPluginsResponse struct {
	Plugins []pluginResponse `json:"plugins"`
}

// ServeHTTP lists the discovered plugins.
func (h *PluginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	plugins := h.plugins.List()
	response := listPluginsResponse{
		Plugins: make([]pluginResponse, 0, len(plugins)),
	}
	for _, p := range plugins {
		actions := p.Manifest.Actions
		if actions == nil {
			actions = []string{}
		}
		response.Plugins = append(response.Plugins, pluginResponse{
			Name:        p.Manifest.Name,
			Version:     p.Manifest.Version,
			Description: p.Manifest.Description,
			Actions:     actions,
		})
	}

	writeJSON(w, http.StatusOK, response)
}
