package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/abhinaya/internal/gesture"
	"github.com/ayusman/abhinaya/internal/plugin"
	"github.com/ayusman/abhinaya/internal/store"
)

type fakePlugins struct {
	plugins []*plugin.Plugin
}

func (f *fakePlugins) List() []*plugin.Plugin { return f.plugins }

func (f *fakePlugins) Get(name string) (*plugin.Plugin, error) {
	for _, p := range f.plugins {
		if p.Manifest.Name == name {
			return p, nil
		}
	}
	return nil, plugin.ErrPluginNotFound
}

func testPlugins() *fakePlugins {
	return &fakePlugins{plugins: []*plugin.Plugin{
		{Manifest: plugin.Manifest{Name: "keyboard", Version: "1.0.0", Actions: []string{"gesture", "keystroke", "shortcut"}}},
		{Manifest: plugin.Manifest{Name: "system-control", Version: "1.0.0", Actions: []string{"gesture", "volume-up"}}},
	}}
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeAction(t *testing.T, rec *httptest.ResponseRecorder) actionResponse {
	t.Helper()
	var resp actionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestActionHandler_Create(t *testing.T) {
	h := NewActionHandler(newTestStore(t), testPlugins())

	rec := doJSON(t, h, http.MethodPost, "/api/actions",
		`{"gesture":"nod_left","plugin_name":"keyboard","action_name":"keystroke","config":{"key":"a"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	created := decodeAction(t, rec)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "nod_left", created.Gesture)
	assert.Equal(t, "keyboard", created.PluginName)
	assert.Equal(t, "keystroke", created.ActionName)
	assert.JSONEq(t, `{"key":"a"}`, string(created.Config))
	assert.True(t, created.Enabled)
	assert.NotEmpty(t, created.CreatedAt)
}

func TestActionHandler_CreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"invalid json", `{`, http.StatusBadRequest},
		{"missing gesture", `{"plugin_name":"keyboard","action_name":"gesture"}`, http.StatusBadRequest},
		{"unknown gesture", `{"gesture":"wave","plugin_name":"keyboard","action_name":"gesture"}`, http.StatusBadRequest},
		{"missing plugin", `{"gesture":"smile","action_name":"gesture"}`, http.StatusBadRequest},
		{"missing action", `{"gesture":"smile","plugin_name":"keyboard"}`, http.StatusBadRequest},
		{"unknown plugin", `{"gesture":"smile","plugin_name":"mouse","action_name":"click"}`, http.StatusBadRequest},
		{"unsupported action", `{"gesture":"smile","plugin_name":"system-control","action_name":"shutdown"}`, http.StatusBadRequest},
		{"config not an object", `{"gesture":"smile","plugin_name":"keyboard","action_name":"gesture","config":[1]}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewActionHandler(newTestStore(t), testPlugins())
			rec := doJSON(t, h, http.MethodPost, "/api/actions", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())

			var resp errorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestActionHandler_CreateDuplicate(t *testing.T) {
	h := NewActionHandler(newTestStore(t), testPlugins())
	body := `{"gesture":"smile","plugin_name":"keyboard","action_name":"gesture"}`

	rec := doJSON(t, h, http.MethodPost, "/api/actions", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/actions", body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// The same action on a different gesture is a separate binding.
	rec = doJSON(t, h, http.MethodPost, "/api/actions",
		`{"gesture":"nod_right","plugin_name":"keyboard","action_name":"gesture"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestActionHandler_CreateWithoutPluginLister(t *testing.T) {
	h := NewActionHandler(newTestStore(t), nil)

	rec := doJSON(t, h, http.MethodPost, "/api/actions",
		`{"gesture":"double_eye_blink","plugin_name":"anything","action_name":"whatever","enabled":false}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.False(t, decodeAction(t, rec).Enabled)
}

func TestActionHandler_List(t *testing.T) {
	h := NewActionHandler(newTestStore(t), testPlugins())

	for _, body := range []string{
		`{"gesture":"smile","plugin_name":"keyboard","action_name":"gesture"}`,
		`{"gesture":"nod_left","plugin_name":"keyboard","action_name":"gesture"}`,
		`{"gesture":"smile","plugin_name":"system-control","action_name":"volume-up"}`,
	} {
		require.Equal(t, http.StatusCreated, doJSON(t, h, http.MethodPost, "/api/actions", body).Code)
	}

	t.Run("all", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/api/actions", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp listActionsResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Len(t, resp.Actions, 3)
	})

	t.Run("filtered by gesture", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/api/actions?gesture=smile", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp listActionsResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Len(t, resp.Actions, 2)
		for _, a := range resp.Actions {
			assert.Equal(t, "smile", a.Gesture)
		}
	})

	t.Run("unknown gesture filter", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/api/actions?gesture=frown", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestActionHandler_ListEmpty(t *testing.T) {
	h := NewActionHandler(newTestStore(t), nil)

	rec := doJSON(t, h, http.MethodGet, "/api/actions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"actions":[]}`, rec.Body.String())
}

func TestActionHandler_GetUpdateDelete(t *testing.T) {
	s := newTestStore(t)
	h := NewActionHandler(s, testPlugins())

	rec := doJSON(t, h, http.MethodPost, "/api/actions",
		`{"gesture":"right_eye_blink","plugin_name":"keyboard","action_name":"gesture"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeAction(t, rec).ID

	rec = doJSON(t, h, http.MethodGet, "/api/actions/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "right_eye_blink", decodeAction(t, rec).Gesture)

	rec = doJSON(t, h, http.MethodPut, "/api/actions/"+id,
		`{"gesture":"left_eye_blink","enabled":false,"config":{"key":"b"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeAction(t, rec)
	assert.Equal(t, "left_eye_blink", updated.Gesture)
	assert.False(t, updated.Enabled)
	assert.JSONEq(t, `{"key":"b"}`, string(updated.Config))

	stored, err := s.Actions().GetByID(id)
	require.NoError(t, err)
	assert.Equal(t, gesture.LeftEyeBlink, stored.Gesture)
	assert.False(t, stored.Enabled)

	rec = doJSON(t, h, http.MethodPut, "/api/actions/"+id, `{"action_name":"reboot"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPut, "/api/actions/"+id, `{"gesture":"shrug"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/api/actions/"+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err = s.Actions().GetByID(id)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestActionHandler_NotFound(t *testing.T) {
	h := NewActionHandler(newTestStore(t), nil)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		rec := doJSON(t, h, method, "/api/actions/missing", `{"enabled":true}`)
		assert.Equal(t, http.StatusNotFound, rec.Code, method)
	}
}

func TestActionHandler_MethodNotAllowed(t *testing.T) {
	h := NewActionHandler(newTestStore(t), nil)

	assert.Equal(t, http.StatusMethodNotAllowed, doJSON(t, h, http.MethodDelete, "/api/actions", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, doJSON(t, h, http.MethodPost, "/api/actions/abc", "{}").Code)
}
