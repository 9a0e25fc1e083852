package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/abhinaya/internal/gesture"
)

type fakeSession struct {
	mu         sync.Mutex
	running    bool
	startErr   error
	saveErr    error
	thresholds gesture.Thresholds
}

func newFakeSession() *fakeSession {
	return &fakeSession{thresholds: gesture.DefaultThresholds()}
}

func (f *fakeSession) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.running = true
	return nil
}

func (f *fakeSession) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = false
}

func (f *fakeSession) IsRunning() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *fakeSession) Thresholds() gesture.Thresholds {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.thresholds
}

func (f *fakeSession) SetThresholds(t gesture.Thresholds) error {
	if err := t.Validate(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.thresholds = t
	return nil
}

func TestSessionHandler(t *testing.T) {
	s := newFakeSession()
	h := NewSessionHandler(s)

	rec := doJSON(t, h, http.MethodGet, "/api/session", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"running":false}`, rec.Body.String())

	rec = doJSON(t, h, http.MethodPost, "/api/session", `{"running":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"running":true}`, rec.Body.String())
	assert.True(t, s.IsRunning())

	rec = doJSON(t, h, http.MethodPost, "/api/session", `{"running":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"running":false}`, rec.Body.String())
	assert.False(t, s.IsRunning())
}

func TestSessionHandler_Errors(t *testing.T) {
	tests := []struct {
		name   string
		method string
		body   string
		start  error
		status int
	}{
		{"invalid json", http.MethodPost, `{`, nil, http.StatusBadRequest},
		{"missing running", http.MethodPost, `{}`, nil, http.StatusBadRequest},
		{"camera unavailable", http.MethodPost, `{"running":true}`, errors.New("camera busy"), http.StatusServiceUnavailable},
		{"wrong method", http.MethodDelete, "", nil, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newFakeSession()
			s.startErr = tt.start
			rec := doJSON(t, NewSessionHandler(s), tt.method, "/api/session", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.False(t, s.IsRunning())
		})
	}
}

func TestThresholdsHandler(t *testing.T) {
	s := newFakeSession()
	h := NewThresholdsHandler(s)

	t.Run("get returns current thresholds", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/api/thresholds", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var got gesture.Thresholds
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, gesture.DefaultThresholds(), got)
	})

	t.Run("put merges partial update", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPut, "/api/thresholds", `{"smile_threshold":0.5}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		want := gesture.DefaultThresholds()
		want.Smile = 0.5
		assert.Equal(t, want, s.Thresholds())

		var got gesture.Thresholds
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, want, got)
	})

	t.Run("put rejects invalid thresholds", func(t *testing.T) {
		before := s.Thresholds()
		rec := doJSON(t, h, http.MethodPut, "/api/thresholds", `{"left_nod_threshold":-30}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, before, s.Thresholds())
	})

	t.Run("put rejects invalid json", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPut, "/api/thresholds", `not json`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("storage failure", func(t *testing.T) {
		s.saveErr = errors.New("disk full")
		defer func() { s.saveErr = nil }()

		rec := doJSON(t, h, http.MethodPut, "/api/thresholds", `{"smile_threshold":0.7}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/api/thresholds", `{}`)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}
