package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/plantdoc/internal/backend"
	"github.com/nao1215/plantdoc/internal/config"
	"github.com/nao1215/plantdoc/internal/locale"
	plog "github.com/nao1215/plantdoc/internal/log"
	"github.com/nao1215/plantdoc/internal/metrics"
	"github.com/nao1215/plantdoc/internal/normalize"
	"github.com/nao1215/plantdoc/internal/notify"
	"github.com/nao1215/plantdoc/internal/report"
	"github.com/nao1215/plantdoc/internal/session"
)

const defaultBackendHelp = config.DefaultBackendURL

// buildConfig creates a Config from the configuration file and the flags
// of cmd. Flags that were set on the command line win over the file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	if err := overrideString(cmd, "config", &cfg.ConfigFilePath); err != nil {
		return nil, err
	}

	// An explicit --config that does not exist is an error; a missing
	// default file is not.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		if err := cf.Apply(cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
		}
	case explicitConfigPath:
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	cfg.Verbose = getVerboseFlag(cmd)
	if err := overrideString(cmd, "lang", &cfg.Language); err != nil {
		return nil, err
	}
	if err := overrideString(cmd, "backend", &cfg.BackendURL); err != nil {
		return nil, err
	}
	if err := overrideString(cmd, "proxy", &cfg.ProxyAddress); err != nil {
		return nil, err
	}
	if err := overrideDuration(cmd, "timeout", &cfg.Timeout); err != nil {
		return nil, err
	}

	cfg.Targets = args
	return cfg, nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// overrideString copies the string flag name into dst when it was set.
// Commands that do not define the flag leave dst untouched.
func overrideString(cmd *cobra.Command, name string, dst *string) error {
	if cmd.Flags().Lookup(name) == nil || !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// overrideDuration is overrideString for duration flags.
func overrideDuration(cmd *cobra.Command, name string, dst *time.Duration) error {
	if cmd.Flags().Lookup(name) == nil || !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetDuration(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// app holds what every command that runs sessions shares.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	messages  locale.Messages
	collector *metrics.Collector
	publisher *notify.RedisPublisher
}

// newApp sets up logging, metrics and the optional notifier.
// The caller must call close.
func newApp(ctx context.Context, cfg *config.Config, stderr io.Writer) (*app, error) {
	logger := plog.NewSecureLogger(stderr, cfg.Verbose)
	slog.SetDefault(logger)

	a := &app{
		cfg:       cfg,
		logger:    logger,
		messages:  locale.For(cfg.LanguageTag()),
		collector: metrics.NewCollector(),
	}

	if cfg.Notify.Enabled() {
		publisher, err := notify.NewRedisPublisher(ctx, notify.Options{
			Addr:     cfg.Notify.Addr,
			Password: cfg.Notify.Password,
			DB:       cfg.Notify.DB,
			Channel:  cfg.Notify.Channel,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to set up notifications: %w", err)
		}
		a.publisher = publisher
		logger.Info("publishing diagnoses", "addr", cfg.Notify.Addr, "channel", publisher.Channel())
	}

	return a, nil
}

// close writes the metrics file and closes the notifier.
func (a *app) close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("failed to close redis connection", "error", err)
		}
	}
	if a.cfg.MetricsFile == "" {
		return
	}
	if dir := filepath.Dir(a.cfg.MetricsFile); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			a.logger.Error("failed to create metrics directory", "error", err)
			return
		}
	}
	if err := a.collector.WriteTextfile(a.cfg.MetricsFile); err != nil {
		a.logger.Error("failed to write metrics", "path", a.cfg.MetricsFile, "error", err)
	}
}

// newClient creates the backend client from the configuration.
func (a *app) newClient() (*backend.Client, error) {
	opts := []backend.Option{
		backend.WithTimeout(a.cfg.Timeout),
		backend.WithUserAgent(a.cfg.UserAgent),
		backend.WithPaths(a.cfg.PredictPath, a.cfg.ExplainPath, a.cfg.ChatPath),
		backend.WithLogger(a.logger),
	}
	if a.cfg.ProxyAddress != "" {
		opts = append(opts, backend.WithProxy(a.cfg.ProxyAddress))
	}
	if len(a.cfg.Headers) > 0 {
		opts = append(opts, backend.WithHeaders(a.cfg.Headers))
	}
	client, err := backend.NewClient(a.cfg.BackendURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid backend configuration: %w", err)
	}
	return client, nil
}

// sessionFactory returns a constructor of sessions sharing the configured
// catalog, severity table, metrics and notifier.
func (a *app) sessionFactory(client session.Diagnoser, extra ...session.Option) (func() *session.Session, error) {
	table, err := a.cfg.SeverityTable()
	if err != nil {
		return nil, err
	}
	catalog, err := a.cfg.Catalog()
	if err != nil {
		return nil, err
	}
	normalizer := normalize.New(table, a.messages)

	opts := []session.Option{
		session.WithLogger(a.logger),
		session.WithCatalog(catalog),
		session.WithNormalizer(normalizer),
		session.WithDemoDelay(a.cfg.DemoDelay),
		session.WithMetrics(a.collector),
	}
	// A nil *RedisPublisher must not become a non-nil Notifier.
	if a.publisher != nil {
		opts = append(opts, session.WithNotifier(a.publisher))
	}
	opts = append(opts, extra...)

	return func() *session.Session {
		return session.New(client, opts...)
	}, nil
}

// writeReport writes ds in the configured format to the report file or
// to stdout.
func (a *app) writeReport(stdout io.Writer, ds []*report.Diagnosis) error {
	output := stdout
	if a.cfg.ReportFile != "" {
		dir := filepath.Dir(a.cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		// Reports may include GPS-bearing EXIF summaries; keep them private.
		f, err := os.OpenFile(a.cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	var w report.Writer
	switch {
	case a.cfg.JSONReport:
		w = report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case a.cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output, report.WithMarkdownMessages(a.messages))
	default:
		w = report.NewSimpleWriter(output, report.WithVerbose(a.cfg.Verbose), report.WithMessages(a.messages))
	}

	var err error
	if len(ds) == 1 {
		_, err = w.Write(ds[0])
	} else {
		_, err = w.WriteBatch(ds)
	}
	return err
}

// readReportFlags reads the shared --json, --markdown and --output flags.
func readReportFlags(cmd *cobra.Command, cfg *config.Config) error {
	var err error
	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return err
	}
	if cfg.ReportFile, err = cmd.Flags().GetString("output"); err != nil {
		return err
	}
	return nil
}

// addReportFlags defines the shared --json, --markdown and --output flags.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
}

// addSideChannelFlags defines --metrics-file and --notify-redis.
func addSideChannelFlags(cmd *cobra.Command) {
	cmd.Flags().String("metrics-file", "",
		"Write Prometheus metrics in text format to this file at exit")
	cmd.Flags().String("notify-redis", "",
		"Publish each diagnosis to Redis at host:port (channel "+config.DefaultNotifyChannel+")")
}

// readSideChannelFlags reads --metrics-file and --notify-redis.
func readSideChannelFlags(cmd *cobra.Command, cfg *config.Config) error {
	if err := overrideString(cmd, "metrics-file", &cfg.MetricsFile); err != nil {
		return err
	}
	return overrideString(cmd, "notify-redis", &cfg.Notify.Addr)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

// errFailedImages is returned when at least one image got no diagnosis.
var errFailedImages = errors.New("some images could not be diagnosed")
