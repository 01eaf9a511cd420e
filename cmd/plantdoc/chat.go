package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/plantdoc/internal/assistant"
)

// NewChatCmd creates the chat command.
func NewChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [message...]",
		Short: "Ask the gardening assistant a question",
		Long: `Chat sends a question to the backend's gardening assistant and prints
the answer. With arguments, the arguments form one question. Without
arguments, chat reads questions line by line from standard input until
end of input or "exit".

When the backend is unreachable or answers with an error, a short
apology is printed instead of an answer.

Examples:
  plantdoc chat "why are my tomato leaves turning yellow?"
  plantdoc chat --lang fr`,
		Args: cobra.ArbitraryArgs,
		RunE: runChatCmd,
	}

	cmd.Flags().String("metrics-file", "",
		"Write Prometheus metrics in text format to this file at exit")

	return cmd
}

// runChatCmd executes the chat command.
func runChatCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, nil)
	if err != nil {
		return err
	}
	if err := overrideString(cmd, "metrics-file", &cfg.MetricsFile); err != nil {
		return err
	}
	// Chat never notifies.
	cfg.Notify.Addr = ""
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	a, err := newApp(cmd.Context(), cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.close()

	client, err := a.newClient()
	if err != nil {
		return err
	}
	bot := assistant.New(client, a.messages,
		assistant.WithLogger(a.logger),
		assistant.WithMetrics(a.collector),
	)

	ctx, cancel := signalContext(a.logger)
	defer cancel()

	if len(args) > 0 {
		return askOnce(ctx, bot, strings.Join(args, " "), cmd.OutOrStdout())
	}
	return chatLoop(ctx, bot, cmd.InOrStdin(), cmd.OutOrStdout())
}

// askOnce asks a single question.
func askOnce(ctx context.Context, bot *assistant.Assistant, message string, out io.Writer) error {
	reply, err := bot.Ask(ctx, message)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, reply.Text)
	return nil
}

// chatLoop reads questions from in until EOF, "exit" or "quit".
// Blank lines are ignored.
func chatLoop(ctx context.Context, bot *assistant.Assistant, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, bot.Welcome())

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "exit", "quit":
			return nil
		}

		reply, err := bot.Ask(ctx, line)
		if errors.Is(err, assistant.ErrEmptyMessage) {
			continue
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(out, reply.Text)

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
