package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/nao1215/plantdoc/internal/model"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected
// default values, so that changes to defaults are intentional.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default BackendURL is the local backend", func(t *testing.T) {
		t.Parallel()
		if cfg.BackendURL != "http://127.0.0.1:8000" {
			t.Errorf("expected BackendURL to be 'http://127.0.0.1:8000', got '%s'", cfg.BackendURL)
		}
	})

	t.Run("default Timeout is 30 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 30*time.Second {
			t.Errorf("expected Timeout to be 30s, got %v", cfg.Timeout)
		}
	})

	t.Run("default DemoDelay is 2 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.DemoDelay != 2*time.Second {
			t.Errorf("expected DemoDelay to be 2s, got %v", cfg.DemoDelay)
		}
	})

	t.Run("default BatchSize is 4", func(t *testing.T) {
		t.Parallel()
		if cfg.BatchSize != 4 {
			t.Errorf("expected BatchSize to be 4, got %d", cfg.BatchSize)
		}
	})

	t.Run("default language is English", func(t *testing.T) {
		t.Parallel()
		if cfg.LanguageTag() != language.English {
			t.Errorf("expected English, got %v", cfg.LanguageTag())
		}
	})

	t.Run("notifications are disabled by default", func(t *testing.T) {
		t.Parallel()
		if cfg.Notify.Enabled() {
			t.Error("expected notifications to be disabled")
		}
		if cfg.Notify.Channel != DefaultNotifyChannel {
			t.Errorf("expected channel %q, got %q", DefaultNotifyChannel, cfg.Notify.Channel)
		}
	})
}

// TestConfigValidate tests the Validate method. Each case breaks one rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr error
	}{
		{
			name:    "defaults are valid",
			modify:  func(_ *Config) {},
			wantErr: nil,
		},
		{
			name:    "empty backend URL",
			modify:  func(c *Config) { c.BackendURL = "" },
			wantErr: ErrNoBackendURL,
		},
		{
			name:    "zero timeout",
			modify:  func(c *Config) { c.Timeout = 0 },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "negative timeout",
			modify:  func(c *Config) { c.Timeout = -time.Second },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "zero batch size",
			modify:  func(c *Config) { c.BatchSize = 0 },
			wantErr: ErrInvalidBatchSize,
		},
		{
			name: "json and markdown together",
			modify: func(c *Config) {
				c.JSONReport = true
				c.MarkdownReport = true
			},
			wantErr: ErrConflictingReportFormats,
		},
		{
			name:    "zero demo delay is allowed",
			modify:  func(c *Config) { c.DemoDelay = 0 },
			wantErr: nil,
		},
		{
			name:    "negative demo delay",
			modify:  func(c *Config) { c.DemoDelay = -time.Millisecond },
			wantErr: ErrInvalidDemoDelay,
		},
		{
			name:    "negative explain wait",
			modify:  func(c *Config) { c.ExplainWait = -time.Second },
			wantErr: ErrInvalidExplainWait,
		},
		{
			name:    "negative redis db",
			modify:  func(c *Config) { c.Notify.DB = -1 },
			wantErr: ErrInvalidRedisDB,
		},
		{
			name: "first error wins",
			modify: func(c *Config) {
				c.Timeout = 0
				c.BatchSize = 0
			},
			wantErr: ErrInvalidTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfigSeverityTable(t *testing.T) {
	t.Parallel()

	t.Run("no overrides keeps the built-in table", func(t *testing.T) {
		t.Parallel()

		table, err := NewConfig().SeverityTable()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := table.Lookup("Tomato_Late_blight"); got != model.StatusDanger {
			t.Errorf("expected danger, got %v", got)
		}
	})

	t.Run("overrides replace classes and the default arm", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Severities = map[string]string{
			"Tomato_Leaf_Mold": "danger",
			"*":                "Danger",
		}
		table, err := cfg.SeverityTable()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := table.Lookup("Tomato_Leaf_Mold"); got != model.StatusDanger {
			t.Errorf("expected danger for Tomato_Leaf_Mold, got %v", got)
		}
		if got := table.Lookup("Grape_rot"); got != model.StatusDanger {
			t.Errorf("expected danger default arm, got %v", got)
		}
	})

	t.Run("unknown status word is rejected", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Severities = map[string]string{"Tomato_Leaf_Mold": "critical"}
		if _, err := cfg.SeverityTable(); !errors.Is(err, model.ErrUnknownStatus) {
			t.Errorf("expected ErrUnknownStatus, got %v", err)
		}
	})

	t.Run("healthy default arm is rejected", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Severities = map[string]string{"*": "healthy"}
		if _, err := cfg.SeverityTable(); !errors.Is(err, model.ErrHealthyDefault) {
			t.Errorf("expected ErrHealthyDefault, got %v", err)
		}
	})
}

func TestConfigCatalog(t *testing.T) {
	t.Parallel()

	t.Run("built-in catalog follows the language", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Language = "fr"
		catalog, err := cfg.Catalog()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		sample, ok := catalog.Sample("healthy")
		if !ok {
			t.Fatal("expected healthy sample")
		}
		if sample.Label != "Feuille saine" {
			t.Errorf("expected French label, got %q", sample.Label)
		}
	})

	t.Run("configured samples replace the catalog", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.DemoSamples = []model.DemoSample{{
			Key:   "rust",
			Label: "Rust",
			Emoji: "🍂",
			Record: model.DiagnosticRecord{
				Status: model.StatusDanger,
				Title:  "Leaf rust",
			},
		}}
		catalog, err := cfg.Catalog()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if catalog.Len() != 1 {
			t.Fatalf("expected 1 sample, got %d", catalog.Len())
		}
		if s, _ := catalog.Sample("rust"); s.Record.ID != "rust" {
			t.Errorf("expected record ID to follow the key, got %q", s.Record.ID)
		}
	})

	t.Run("duplicate keys are rejected", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.DemoSamples = []model.DemoSample{{Key: "a"}, {Key: "a"}}
		if _, err := cfg.Catalog(); err == nil {
			t.Error("expected error for duplicate keys")
		}
	})
}

// TestLoadConfigFile tests loading and applying the YAML configuration file.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cf, err := LoadConfigFile("/nonexistent/path/.plantdoc.yaml")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cf != nil {
			t.Error("expected nil file when not found")
		}
	})

	t.Run("loads and applies every section", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), DefaultConfigFile)
		content := `backend:
  url: http://10.0.0.2:9000
  predict_path: /v2/predict
  timeout: 45s
  proxy: 127.0.0.1:1080
  headers:
    X-Api-Key: secret
language: fr
demo:
  delay: 500ms
  samples:
    - key: rust
      label: Rouille
      emoji: "🍂"
      record:
        status: danger
        title: Rouille
        description:
          - Retirer les feuilles
          - Traiter au soufre
        confidence: 77
        predictions:
          - name: Rouille
            probability: 77
severity:
  Tomato_Leaf_Mold: danger
notify:
  addr: 127.0.0.1:6379
  db: 2
metrics_file: /tmp/plantdoc.prom
heatmap_dir: /tmp/heatmaps
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cf, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cfg := NewConfig()
		if err := cf.Apply(cfg); err != nil {
			t.Fatalf("unexpected apply error: %v", err)
		}

		if cfg.BackendURL != "http://10.0.0.2:9000" {
			t.Errorf("unexpected backend URL %q", cfg.BackendURL)
		}
		if cfg.PredictPath != "/v2/predict" {
			t.Errorf("unexpected predict path %q", cfg.PredictPath)
		}
		if cfg.ExplainPath != "" {
			t.Errorf("expected unset explain path, got %q", cfg.ExplainPath)
		}
		if cfg.Timeout != 45*time.Second {
			t.Errorf("expected 45s timeout, got %v", cfg.Timeout)
		}
		if cfg.ProxyAddress != "127.0.0.1:1080" {
			t.Errorf("unexpected proxy %q", cfg.ProxyAddress)
		}
		if cfg.Headers["X-Api-Key"] != "secret" {
			t.Error("expected X-Api-Key header")
		}
		if cfg.LanguageTag() != language.French {
			t.Errorf("expected French, got %v", cfg.LanguageTag())
		}
		if cfg.DemoDelay != 500*time.Millisecond {
			t.Errorf("expected 500ms demo delay, got %v", cfg.DemoDelay)
		}
		if cfg.Notify.Addr != "127.0.0.1:6379" || cfg.Notify.DB != 2 {
			t.Errorf("unexpected notify config %+v", cfg.Notify)
		}
		if cfg.Notify.Channel != DefaultNotifyChannel {
			t.Errorf("expected default channel to survive, got %q", cfg.Notify.Channel)
		}
		if cfg.MetricsFile != "/tmp/plantdoc.prom" || cfg.HeatmapDir != "/tmp/heatmaps" {
			t.Errorf("unexpected output paths %q %q", cfg.MetricsFile, cfg.HeatmapDir)
		}

		catalog, err := cfg.Catalog()
		if err != nil {
			t.Fatalf("unexpected catalog error: %v", err)
		}
		sample, ok := catalog.Sample("rust")
		if !ok {
			t.Fatal("expected rust sample")
		}
		if sample.Record.Status != model.StatusDanger {
			t.Errorf("expected danger, got %v", sample.Record.Status)
		}
		if items := sample.Record.Description.Items(); len(items) != 2 {
			t.Errorf("expected 2 advice items, got %v", items)
		}

		table, err := cfg.SeverityTable()
		if err != nil {
			t.Fatalf("unexpected severity error: %v", err)
		}
		if table.Lookup("Tomato_Leaf_Mold") != model.StatusDanger {
			t.Error("expected severity override to apply")
		}
	})

	t.Run("empty file keeps defaults", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(configPath, []byte("{}\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		cf, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		cfg := NewConfig()
		if err := cf.Apply(cfg); err != nil {
			t.Fatalf("unexpected apply error: %v", err)
		}
		if cfg.BackendURL != DefaultBackendURL || cfg.Timeout != DefaultTimeout {
			t.Errorf("expected defaults, got %q %v", cfg.BackendURL, cfg.Timeout)
		}
	})

	t.Run("invalid duration is reported with its key", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(configPath, []byte("demo:\n  delay: soon\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		cf, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		err = cf.Apply(NewConfig())
		if !errors.Is(err, ErrInvalidDuration) {
			t.Errorf("expected ErrInvalidDuration, got %v", err)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("language: en\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		if result := FindConfigFile(configPath); result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if result := FindConfigFile("/nonexistent/path/config.yaml"); result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	for name, fn := range map[string]func() string{
		"data":   XDGDataDir,
		"config": XDGConfigDir,
		"cache":  XDGCacheDir,
	} {
		t.Run(name+" dir ends with the app name", func(t *testing.T) {
			t.Parallel()

			dir := fn()
			if filepath.Base(dir) != AppName {
				t.Errorf("expected %q to end with %q", dir, AppName)
			}
		})
	}
}
