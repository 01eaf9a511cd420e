package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nao1215/plantdoc/internal/model"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".plantdoc.yaml"

// File represents the structure of the .plantdoc.yaml configuration file.
// Every field is optional; unset fields keep the defaults of NewConfig.
type File struct {
	// Backend describes how to reach the diagnosis backend.
	Backend BackendFile `yaml:"backend,omitempty"`

	// Language is "en", "fr" or an Accept-Language style list.
	Language string `yaml:"language,omitempty"`

	// Demo configures the demonstration path.
	Demo DemoFile `yaml:"demo,omitempty"`

	// Severity maps backend class names to healthy, warning or danger.
	// The "*" key sets the status of unknown classes.
	Severity map[string]string `yaml:"severity,omitempty"`

	// Notify configures the Redis notification.
	Notify NotifyConfig `yaml:"notify,omitempty"`

	// MetricsFile is where Prometheus metrics are written at exit.
	MetricsFile string `yaml:"metrics_file,omitempty"`

	// HeatmapDir is where heatmaps are saved.
	HeatmapDir string `yaml:"heatmap_dir,omitempty"`
}

// BackendFile is the backend section of the configuration file.
type BackendFile struct {
	URL         string            `yaml:"url,omitempty"`
	PredictPath string            `yaml:"predict_path,omitempty"`
	ExplainPath string            `yaml:"explain_path,omitempty"`
	ChatPath    string            `yaml:"chat_path,omitempty"`
	Timeout     string            `yaml:"timeout,omitempty"`
	Proxy       string            `yaml:"proxy,omitempty"`
	UserAgent   string            `yaml:"user_agent,omitempty"`
	Headers     map[string]string `yaml:"headers,omitempty"`
}

// DemoFile is the demo section of the configuration file.
type DemoFile struct {
	// Delay is a Go duration string such as "2s" or "500ms".
	Delay string `yaml:"delay,omitempty"`

	// Samples replace the built-in catalog when present.
	Samples []model.DemoSample `yaml:"samples,omitempty"`
}

// LoadConfigFile loads a configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers decide whether that is fatal based on whether the path was
// given explicitly.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// Apply copies the values set in the file onto cfg. CLI flags are applied
// afterwards and win.
func (cf *File) Apply(cfg *Config) error {
	b := cf.Backend
	setString(&cfg.BackendURL, b.URL)
	setString(&cfg.PredictPath, b.PredictPath)
	setString(&cfg.ExplainPath, b.ExplainPath)
	setString(&cfg.ChatPath, b.ChatPath)
	setString(&cfg.ProxyAddress, b.Proxy)
	setString(&cfg.UserAgent, b.UserAgent)
	if err := setDuration(&cfg.Timeout, "backend.timeout", b.Timeout); err != nil {
		return err
	}
	if len(b.Headers) > 0 {
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string, len(b.Headers))
		}
		for k, v := range b.Headers {
			cfg.Headers[k] = v
		}
	}

	setString(&cfg.Language, cf.Language)

	if err := setDuration(&cfg.DemoDelay, "demo.delay", cf.Demo.Delay); err != nil {
		return err
	}
	if len(cf.Demo.Samples) > 0 {
		cfg.DemoSamples = cf.Demo.Samples
	}

	if len(cf.Severity) > 0 {
		cfg.Severities = cf.Severity
	}

	setString(&cfg.Notify.Addr, cf.Notify.Addr)
	setString(&cfg.Notify.Password, cf.Notify.Password)
	setString(&cfg.Notify.Channel, cf.Notify.Channel)
	if cf.Notify.DB != 0 {
		cfg.Notify.DB = cf.Notify.DB
	}

	setString(&cfg.MetricsFile, cf.MetricsFile)
	setString(&cfg.HeatmapDir, cf.HeatmapDir)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%w: %s: %q", ErrInvalidDuration, key, v)
	}
	*dst = d
	return nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .plantdoc.yaml in the current directory
// 3. Look for config.yaml in the XDG config directory
// 4. Look for .plantdoc.yaml in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), "config.yaml"))
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
