// Package cmd wires the CLI surface. The root command runs a monitored
// child; `version` prints the release.
package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/google/uuid"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"shellback/internal/config"
	"shellback/internal/session"
	"shellback/internal/stats"
	"shellback/internal/terminal"
)

// ExitCodeError carries the monitored child's exit code from RunE to main,
// which mirrors it as the program's own exit code.
type ExitCodeError struct {
	Code int
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// NewRootCmd creates the root cobra command.
func NewRootCmd() *cobra.Command {
	var interval float64
	var prefix string
	var commandStr string
	var debugLog string

	rootCmd := &cobra.Command{
		Use:   "shellback [flags] [--] COMMAND...",
		Short: "Carry live process-tree stats in your terminal title",
		Long: `shellback wraps a command and injects CPU/memory usage for its whole
process tree into the terminal title bar, leaving the command's own I/O
untouched.

  shellback htop
  shellback --interval 1 --prefix "🔥" -- vim README.md
  shellback -- bash -c "make -j8"`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("interval") && cfg.Interval > 0 {
				interval = cfg.Interval
			}
			if interval <= 0 {
				return fmt.Errorf("--interval must be positive, got %v", interval)
			}
			if !cmd.Flags().Changed("prefix") && cfg.Prefix != "" {
				prefix = cfg.Prefix
			}

			command := args
			if len(command) > 0 && command[0] == "--" {
				command = command[1:]
			}
			if commandStr != "" {
				if len(command) > 0 {
					return fmt.Errorf("--command and positional COMMAND are mutually exclusive")
				}
				command, err = shlex.Split(commandStr)
				if err != nil {
					return fmt.Errorf("parse --command: %w", err)
				}
			}
			if len(command) == 0 {
				_ = cmd.Usage()
				return fmt.Errorf("no command specified")
			}

			log, closeLog := newLogger(debugLog)
			defer closeLog()

			mode := session.Classify(command, cfg.Interactive, cfg.NonInteractive)
			printBanner(command, interval, mode)

			sess := session.New(command, time.Duration(interval*float64(time.Second)), prefix, stats.NewSystemProvider(), log)
			sess.ID = uuid.New().String()
			sess.ExtraInteractive = cfg.Interactive
			sess.ExtraNonInteractive = cfg.NonInteractive

			code, err := sess.Run()
			if err != nil {
				return err
			}
			if code != 0 {
				return &ExitCodeError{Code: code}
			}
			return nil
		},
	}

	// The first positional argument ends flag parsing, so the wrapped
	// command's own flags pass through untouched.
	rootCmd.Flags().SetInterspersed(false)

	rootCmd.Flags().Float64Var(&interval, "interval", 2.0, "Stats refresh interval in seconds")
	rootCmd.Flags().StringVar(&prefix, "prefix", "🐢", "Prefix for the stats text in the title")
	rootCmd.Flags().StringVar(&commandStr, "command", "", "Command to run, as a single shell-style string")
	rootCmd.Flags().StringVar(&debugLog, "debug-log", "", "Write a structured debug log to this file")

	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// newLogger returns the debug logger: a file-backed zerolog logger when a
// path is configured, a no-op logger otherwise. Log output never goes to the
// terminal the child is using.
func newLogger(path string) (zerolog.Logger, func()) {
	if path == "" {
		path = os.Getenv("SHELLBACK_DEBUG_LOG")
	}
	if path == "" {
		return zerolog.Nop(), func() {}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot open debug log %s: %v\n", path, err)
		return zerolog.Nop(), func() {}
	}
	log := zerolog.New(f).With().Timestamp().Logger()
	return log, func() { _ = f.Close() }
}

// printBanner announces what is being monitored. Stderr only, and only when
// stderr is a terminal, so pipelines stay clean.
func printBanner(command []string, interval float64, mode session.Mode) {
	if !terminal.IsTerminal(os.Stderr) {
		return
	}
	out := termenv.NewOutput(os.Stderr)
	fmt.Fprintf(os.Stderr, "%s %s\n",
		out.String("🚀 monitoring:").Bold(),
		strings.Join(command, " "))
	fmt.Fprintf(os.Stderr, "%s\n",
		out.String(fmt.Sprintf("📊 interval %.1fs, %s mode", interval, mode)).Faint())
}
