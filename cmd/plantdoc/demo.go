package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/nao1215/plantdoc/internal/model"
	"github.com/nao1215/plantdoc/internal/pipeline"
	"github.com/nao1215/plantdoc/internal/report"
	"github.com/nao1215/plantdoc/internal/session"
)

// NewDemoCmd creates the demo command.
func NewDemoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo [sample]",
		Short: "Run a canned diagnosis without a backend",
		Long: `Demo pretends to scan a leaf for a moment and shows one of the canned
diagnoses of the demo catalog. No backend is contacted.

Without an argument a sample is chosen at random. An unknown sample name
falls back to the first sample of the catalog. The catalog follows --lang
and can be replaced in the configuration file.

Examples:
  # A random sample
  plantdoc demo

  # The mildew sample, in French, without the wait
  plantdoc demo --lang fr --delay 0 mildiou

  # List the samples
  plantdoc demo --list`,
		Args: cobra.MaximumNArgs(1),
		RunE: runDemoCmd,
	}

	cmd.Flags().Duration("delay", 0,
		"Simulated scan time (default: config file, then 2s)")
	cmd.Flags().Bool("list", false, "List the demo samples and exit")
	addReportFlags(cmd)
	addSideChannelFlags(cmd)

	return cmd
}

// runDemoCmd executes the demo command.
func runDemoCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, nil)
	if err != nil {
		return err
	}
	if err := overrideDuration(cmd, "delay", &cfg.DemoDelay); err != nil {
		return err
	}
	if err := readReportFlags(cmd, cfg); err != nil {
		return err
	}
	if err := readSideChannelFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	list, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if list {
		catalog, err := cfg.Catalog()
		if err != nil {
			return err
		}
		listSamples(cmd.OutOrStdout(), catalog)
		return nil
	}

	a, err := newApp(cmd.Context(), cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signalContext(a.logger)
	defer cancel()

	key := ""
	if len(args) == 1 {
		key = args[0]
	}
	return runDemo(ctx, a, key, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// listSamples prints one line per catalog sample.
func listSamples(w io.Writer, catalog *model.Catalog) {
	for _, s := range catalog.Samples() {
		fmt.Fprintf(w, "%-10s %s %s (%s)\n", s.Key, s.Emoji, s.Label, s.Record.Status)
	}
}

// runDemo runs one demo diagnosis and writes the report. Progress goes to
// stderr while the session is scanning.
func runDemo(ctx context.Context, a *app, key string, stdout, stderr io.Writer) error {
	base, err := a.sessionFactory(nil)
	if err != nil {
		return err
	}

	var progress sync.WaitGroup
	newSession := func() *session.Session {
		s := base()
		updates := s.Subscribe()
		progress.Add(1)
		go func() {
			defer progress.Done()
			// The channel is closed when the session is closed.
			for snap := range updates {
				if snap.State == model.StateScanning {
					fmt.Fprintln(stderr, "Scanning leaf...")
				}
			}
		}()
		return s
	}

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			return pipeline.DefaultPipeline(0, "", a.logger)
		},
		newSession,
		pipeline.WithBatchLogger(a.logger),
	)

	d := bp.Run(ctx, &pipeline.Job{DemoKey: key})
	progress.Wait()

	if d.Error != "" {
		return fmt.Errorf("demo failed: %s", d.Error)
	}
	return a.writeReport(stdout, []*report.Diagnosis{d})
}
