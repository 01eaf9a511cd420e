package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for plantdoc.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plantdoc",
		Short: "Diagnose plant leaf diseases from photos",
		Long: `plantdoc sends photos of plant leaves to a diagnosis backend and reports
the recognized disease, the model's confidence, ranked alternatives and
care advice. When the backend also returns an explainability heatmap it
can be saved next to the report.

The demo command runs without any backend, and chat talks to the
backend's gardening assistant.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .plantdoc.yaml in current, XDG config or home directory)")
	cmd.PersistentFlags().StringP("lang", "l", "",
		"Message language: en or fr (default: config file, then en)")
	cmd.PersistentFlags().StringP("backend", "u", "",
		"Base URL of the diagnosis backend (default: "+defaultBackendHelp+")")
	cmd.PersistentFlags().DurationP("timeout", "t", 0,
		"Timeout for each backend request (default: 30s)")
	cmd.PersistentFlags().String("proxy", "",
		"SOCKS5 proxy address for backend requests (host:port)")

	cmd.AddCommand(NewDiagnoseCmd())
	cmd.AddCommand(NewDemoCmd())
	cmd.AddCommand(NewChatCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
