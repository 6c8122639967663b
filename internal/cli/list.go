package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mentordesk/mentordesk/internal/app"
)

// NewListCommand creates the list command. Without an argument it prints the
// known collection keys.
func NewListCommand(rootOpts *RootOptions, open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "list [collection]",
		Short: "List collections or the records of one collection",
		Example: `  mentorctl list
  mentorctl list reviews.reviews --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, open, func(ctx context.Context, rt *app.Runtime) error {
				out := cmd.OutOrStdout()
				if len(args) == 0 {
					for _, key := range rt.Registry.Keys() {
						if err := writeLine(out, "%s", key); err != nil {
							return err
						}
					}
					return nil
				}
				c, ok := rt.Registry.Lookup(args[0])
				if !ok {
					return fmt.Errorf("unknown collection %q", args[0])
				}
				payload, err := c.Snapshot(ctx)
				if err != nil {
					return err
				}
				if rootOpts.Format == "json" {
					var buf bytes.Buffer
					if err := json.Indent(&buf, payload, "", "  "); err != nil {
						return err
					}
					buf.WriteByte('\n')
					_, err = out.Write(buf.Bytes())
					return err
				}
				var records []json.RawMessage
				if err := json.Unmarshal(payload, &records); err != nil {
					return err
				}
				if err := writeLine(out, "# %s (%d records)", c.Key(), len(records)); err != nil {
					return err
				}
				for _, rec := range records {
					if err := writeLine(out, "%s", rec); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}
