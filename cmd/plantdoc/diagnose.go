package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/plantdoc/internal/config"
	"github.com/nao1215/plantdoc/internal/pipeline"
	"github.com/nao1215/plantdoc/internal/report"
	"github.com/nao1215/plantdoc/internal/session"
)

// NewDiagnoseCmd creates the diagnose command.
func NewDiagnoseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diagnose [image...]",
		Short: "Diagnose one or more leaf photos",
		Long: `Diagnose uploads each image to the diagnosis backend and reports the
recognized condition, the confidence, the ranked alternatives and the
advice returned by the backend.

A backend that cannot be reached still yields a report: a connectivity
record in danger status. After the diagnosis, plantdoc waits up to
--explain-wait for the explainability heatmap and saves it when
--heatmap-out is set.

Examples:
  # Diagnose a single photo
  plantdoc diagnose leaf.jpg

  # Diagnose a folder of photos, four at a time, as Markdown
  plantdoc diagnose --markdown -o report.md photos/*.jpg

  # Save heatmaps and publish results to Redis
  plantdoc diagnose --heatmap-out heatmaps --notify-redis 127.0.0.1:6379 leaf.jpg

  # Use a backend on another machine
  plantdoc diagnose -u http://192.168.1.20:8000 leaf.jpg`,
		Args: cobra.ArbitraryArgs,
		RunE: runDiagnoseCmd,
	}

	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of images diagnosed concurrently")
	cmd.Flags().DurationP("explain-wait", "w", config.DefaultExplainWait,
		"How long to wait for the heatmap after each diagnosis (0 to skip)")
	cmd.Flags().String("heatmap-out", "",
		"Directory to save heatmaps to (created if needed)")
	addReportFlags(cmd)
	addSideChannelFlags(cmd)

	return cmd
}

// runDiagnoseCmd executes the diagnose command.
func runDiagnoseCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildDiagnoseConfig(cmd, args)
	if err != nil {
		return err
	}
	if len(cfg.Targets) == 0 {
		return config.ErrNoTarget
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	a, err := newApp(cmd.Context(), cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signalContext(a.logger)
	defer cancel()

	return runDiagnose(ctx, a, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// buildDiagnoseConfig adds the diagnose flags to the shared configuration.
func buildDiagnoseConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = cmd.Flags().GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.ExplainWait, err = cmd.Flags().GetDuration("explain-wait"); err != nil {
		return nil, err
	}
	if err := overrideString(cmd, "heatmap-out", &cfg.HeatmapDir); err != nil {
		return nil, err
	}
	if err := readReportFlags(cmd, cfg); err != nil {
		return nil, err
	}
	if err := readSideChannelFlags(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runDiagnose diagnoses cfg.Targets and writes the report.
func runDiagnose(ctx context.Context, a *app, stdout, stderr io.Writer) error {
	cfg := a.cfg
	if cfg.HeatmapDir != "" {
		if err := os.MkdirAll(cfg.HeatmapDir, 0750); err != nil {
			return fmt.Errorf("failed to create heatmap directory: %w", err)
		}
	}

	client, err := a.newClient()
	if err != nil {
		return err
	}
	var sessionOpts []session.Option
	if cfg.ExplainWait <= 0 {
		sessionOpts = append(sessionOpts, session.WithoutHeatmap())
	}
	newSession, err := a.sessionFactory(client, sessionOpts...)
	if err != nil {
		return err
	}

	a.logger.Info("starting diagnosis",
		"images", len(cfg.Targets),
		"backend", client.BaseURL(),
		"batchSize", cfg.BatchSize,
	)

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			return pipeline.DefaultPipeline(cfg.ExplainWait, cfg.HeatmapDir, a.logger)
		},
		newSession,
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(a.logger),
	)

	startTime := time.Now()
	results := make([]*report.Diagnosis, len(cfg.Targets))
	var mu sync.Mutex
	done := 0
	err = bp.ProcessBatchWithCallback(ctx, cfg.Targets, func(d *report.Diagnosis, index int) {
		mu.Lock()
		defer mu.Unlock()
		results[index] = d
		done++
		if len(cfg.Targets) < 2 {
			return
		}
		outcome := d.Title()
		if d.Error != "" {
			outcome = "error: " + d.Error
		}
		fmt.Fprintf(stderr, "[%d/%d] %s: %s\n", done, len(cfg.Targets), d.Source, outcome)
	})
	if err != nil {
		return err
	}
	a.logger.Info("diagnosis complete", "elapsed", time.Since(startTime).Round(time.Millisecond))

	if err := a.writeReport(stdout, results); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if failed := report.Summarize(results).Failed; failed > 0 {
		return fmt.Errorf("%w: %d of %d", errFailedImages, failed, len(results))
	}
	return nil
}
