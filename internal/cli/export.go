package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/mentordesk/mentordesk/internal/app"
	"github.com/mentordesk/mentordesk/internal/query"
)

// NewExportCommand creates the export command.
func NewExportCommand(open Opener) *cobra.Command {
	var (
		filter string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export activity",
		Short: "Export the activity feed as CSV",
		Example: `  mentorctl export activity --filter "category=booking&flag.read=no"
  mentorctl export activity -o activity.csv`,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"activity"},
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := url.ParseQuery(filter)
			if err != nil {
				return fmt.Errorf("parse filter: %w", err)
			}
			view, err := query.ParseValues(values)
			if err != nil {
				return err
			}
			return withRuntime(cmd, open, func(ctx context.Context, rt *app.Runtime) error {
				var w io.Writer = cmd.OutOrStdout()
				if output != "" {
					f, err := os.Create(output)
					if err != nil {
						return err
					}
					defer f.Close()
					w = f
				}
				return rt.Activity.Export(ctx, view, w)
			})
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "query string filter, same syntax as the HTTP API")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	return cmd
}
