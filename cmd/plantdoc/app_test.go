package main

import (
	"testing"
	"time"
)

func TestBuildConfig(t *testing.T) {
	cfgPath := writeConfig(t, `backend:
  url: http://10.0.0.9:8000
  timeout: 10s
language: fr
`)

	t.Run("file values apply", func(t *testing.T) {
		cmd := NewRootCmd()
		if err := cmd.ParseFlags([]string{"-c", cfgPath}); err != nil {
			t.Fatal(err)
		}
		cfg, err := buildConfig(cmd, []string{"leaf.jpg"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.BackendURL != "http://10.0.0.9:8000" || cfg.Timeout != 10*time.Second || cfg.Language != "fr" {
			t.Errorf("file values not applied: %q %v %q", cfg.BackendURL, cfg.Timeout, cfg.Language)
		}
		if len(cfg.Targets) != 1 {
			t.Errorf("expected targets to be kept, got %v", cfg.Targets)
		}
	})

	t.Run("flags win over the file", func(t *testing.T) {
		cmd := NewRootCmd()
		args := []string{"-c", cfgPath, "-u", "http://127.0.0.1:9999", "-t", "3s", "-l", "en"}
		if err := cmd.ParseFlags(args); err != nil {
			t.Fatal(err)
		}
		cfg, err := buildConfig(cmd, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.BackendURL != "http://127.0.0.1:9999" || cfg.Timeout != 3*time.Second || cfg.Language != "en" {
			t.Errorf("flags not applied: %q %v %q", cfg.BackendURL, cfg.Timeout, cfg.Language)
		}
	})
}
