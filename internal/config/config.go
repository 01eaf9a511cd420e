package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"golang.org/x/text/language"

	"github.com/nao1215/plantdoc/internal/locale"
	"github.com/nao1215/plantdoc/internal/model"
)

// Default configuration values.
const (
	// DefaultBackendURL is where the local diagnosis backend listens when
	// started with its own defaults (uvicorn on port 8000).
	DefaultBackendURL = "http://127.0.0.1:8000"

	// DefaultTimeout bounds a single backend request. CPU inference plus the
	// heatmap pass can take several seconds on a laptop.
	DefaultTimeout = 30 * time.Second

	// DefaultDemoDelay is how long the demonstration path pretends to scan.
	DefaultDemoDelay = 2 * time.Second

	// DefaultBatchSize is the number of images diagnosed concurrently.
	DefaultBatchSize = 4

	// DefaultExplainWait is how long the CLI waits for the heatmap after the
	// diagnosis is shown. The explain call usually finishes within a second
	// of the predict call.
	DefaultExplainWait = 5 * time.Second

	// DefaultLanguage is used when neither --lang nor the config file sets one.
	DefaultLanguage = "en"

	// AppName is the application name used for XDG directory paths.
	AppName = "plantdoc"

	// DefaultUserAgent identifies plantdoc in backend access logs.
	DefaultUserAgent = "plantdoc/1.0 (+https://github.com/nao1215/plantdoc)"

	// DefaultNotifyChannel is the Redis pub/sub channel for completed diagnoses.
	DefaultNotifyChannel = "plantdoc:diagnoses"
)

// Config holds all configuration options for plantdoc.
// It is populated from the config file first and CLI flags second, then
// passed down explicitly.
//
// Design decision: A single flat struct, as the option count is small.
// The file layout (File) is nested because YAML reads better that way.
type Config struct {
	// BackendURL is the base URL of the diagnosis backend.
	BackendURL string

	// PredictPath, ExplainPath and ChatPath override the endpoint paths.
	// Empty values keep the backend package defaults.
	PredictPath string
	ExplainPath string
	ChatPath    string

	// Timeout bounds each backend request.
	Timeout time.Duration

	// ProxyAddress is an optional SOCKS5 proxy ("host:port") for the backend.
	ProxyAddress string

	// UserAgent is sent with each backend request.
	UserAgent string

	// Headers are extra HTTP headers sent with each backend request.
	Headers map[string]string

	// Language selects messages and the demo catalog ("en", "fr", or an
	// Accept-Language style list).
	Language string

	// DemoDelay is the simulated scan time of the demonstration path.
	DemoDelay time.Duration

	// BatchSize is the number of images diagnosed concurrently.
	BatchSize int

	// ExplainWait bounds how long diagnose waits for the heatmap.
	// Zero skips waiting.
	ExplainWait time.Duration

	// HeatmapDir is where received heatmaps are saved. Empty disables saving.
	HeatmapDir string

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, FindConfigFile searches the usual places.
	ConfigFilePath string

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report. Empty means stdout.
	ReportFile string

	// MetricsFile is where Prometheus metrics are written at exit.
	// Empty disables the textfile export.
	MetricsFile string

	// Notify configures the optional Redis notification.
	Notify NotifyConfig

	// Severities are per-class severity overrides from the config file.
	Severities map[string]string

	// DemoSamples replace the built-in demo catalog when non-empty.
	DemoSamples []model.DemoSample

	// Targets are the image paths to diagnose.
	Targets []string
}

// NotifyConfig holds the Redis pub/sub settings.
type NotifyConfig struct {
	// Addr is the Redis "host:port". Empty disables notifications.
	Addr string `yaml:"addr,omitempty"`

	// Password is the Redis password, if any.
	Password string `yaml:"password,omitempty"`

	// DB is the Redis logical database.
	DB int `yaml:"db,omitempty"`

	// Channel is the pub/sub channel.
	Channel string `yaml:"channel,omitempty"`
}

// Enabled reports whether a Redis address is configured.
func (n NotifyConfig) Enabled() bool {
	return n.Addr != ""
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		BackendURL:  DefaultBackendURL,
		Timeout:     DefaultTimeout,
		UserAgent:   DefaultUserAgent,
		Language:    DefaultLanguage,
		DemoDelay:   DefaultDemoDelay,
		BatchSize:   DefaultBatchSize,
		ExplainWait: DefaultExplainWait,
		Notify: NotifyConfig{
			Channel: DefaultNotifyChannel,
		},
	}
}

// XDGDataDir returns the XDG data directory for plantdoc.
// On Linux: ~/.local/share/plantdoc
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for plantdoc.
// On Linux: ~/.config/plantdoc
// On macOS: ~/Library/Application Support/plantdoc
// On Windows: %APPDATA%\plantdoc
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for plantdoc.
// The heatmap directory defaults below it when --heatmap-out is given
// without a value.
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid and returns the first
// problem found.
//
// Design decision: Validation happens once after flags are parsed, so a
// bad value fails before any image is read or any request is sent.
// Targets are not checked here: diagnose needs them but demo and chat do
// not, so the commands check that themselves.
func (c *Config) Validate() error {
	if c.BackendURL == "" {
		return ErrNoBackendURL
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.DemoDelay < 0 {
		return ErrInvalidDemoDelay
	}

	if c.ExplainWait < 0 {
		return ErrInvalidExplainWait
	}

	if c.Notify.DB < 0 {
		return ErrInvalidRedisDB
	}

	return nil
}

// LanguageTag resolves Language to a supported language.
func (c *Config) LanguageTag() language.Tag {
	return locale.Match(c.Language)
}

// SeverityTable returns the built-in severity table with the configured
// overrides applied. The "*" key replaces the default arm.
func (c *Config) SeverityTable() (*model.SeverityTable, error) {
	table := model.NewSeverityTable()
	if len(c.Severities) == 0 {
		return table, nil
	}
	overrides := make(map[string]model.Status, len(c.Severities))
	for class, value := range c.Severities {
		status, err := model.ParseStatus(value)
		if err != nil {
			return nil, fmt.Errorf("severity for %q: %w", class, err)
		}
		overrides[class] = status
	}
	return table.WithOverrides(overrides)
}

// Catalog returns the configured demo catalog, or the built-in one for the
// configured language.
func (c *Config) Catalog() (*model.Catalog, error) {
	if len(c.DemoSamples) == 0 {
		return locale.DefaultCatalog(c.LanguageTag()), nil
	}
	catalog, err := model.NewCatalog(c.DemoSamples...)
	if err != nil {
		return nil, fmt.Errorf("invalid demo catalog: %w", err)
	}
	return catalog, nil
}
