package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ayusman/abhinaya/internal/config"
)

func TestSettingsURL(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{"127.0.0.1:8765", "http://127.0.0.1:8765"},
		{":8765", "http://localhost:8765"},
		{"0.0.0.0:9000", "http://localhost:9000"},
		{"[::]:9000", "http://localhost:9000"},
		{"example.local", "http://example.local"},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			if got := settingsURL(tt.addr); got != tt.want {
				t.Errorf("settingsURL(%q) = %q, want %q", tt.addr, got, tt.want)
			}
		})
	}
}

func TestFindWebDir_DataDir(t *testing.T) {
	// Run from an empty directory so no relative web dir is found.
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}

	dataDir := t.TempDir()
	if got := findWebDir(dataDir); got != "" {
		t.Errorf("findWebDir() = %q, want empty", got)
	}

	web := filepath.Join(dataDir, "web")
	if err := os.Mkdir(web, 0755); err != nil {
		t.Fatal(err)
	}
	if got := findWebDir(dataDir); got != web {
		t.Errorf("findWebDir() = %q, want %q", got, web)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv(config.EnvAddr, "127.0.0.1:1")

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if got := cfg.GetListenAddr(); got != "127.0.0.1:1" {
		t.Errorf("GetListenAddr() = %q, want env override", got)
	}

	path := filepath.Join(t.TempDir(), "abhinaya.json")
	if err := os.WriteFile(path, []byte(`{"smile_threshold": 0.9}`), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err = loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig(%s) error = %v", path, err)
	}
	if got := cfg.Thresholds().Smile; got != 0.9 {
		t.Errorf("Smile = %v, want 0.9", got)
	}

	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing config file")
	}
}
