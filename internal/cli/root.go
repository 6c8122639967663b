// Package cli implements mentorctl, the operator tool for MentorDesk
// collections.
package cli

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/mentordesk/mentordesk/internal/app"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Opener builds the runtime a command works against.
type Opener func(ctx context.Context) (*app.Runtime, error)

// DefaultOpener bootstraps from the environment, like the server does.
func DefaultOpener(ctx context.Context) (*app.Runtime, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, err
	}
	return app.Bootstrap(ctx, cfg, app.NewLogger(cfg))
}

// NewRootCommand creates the mentorctl root command.
func NewRootCommand(open Opener) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "mentorctl",
		Short: "Inspect, export and seed MentorDesk collections",
		Long: `mentorctl works directly against the configured collection store.
It reads the same environment as the server (STORE_DRIVER, PG_DSN, ...).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewListCommand(opts, open))
	cmd.AddCommand(NewExportCommand(open))
	cmd.AddCommand(NewReceiptCommand(open))
	cmd.AddCommand(NewSeedCommand(opts, open))

	return cmd
}

// withRuntime opens a runtime for the duration of fn.
func withRuntime(cmd *cobra.Command, open Opener, fn func(ctx context.Context, rt *app.Runtime) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := open(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(ctx, rt)
}

func writeLine(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format+"\n", args...)
	return err
}
