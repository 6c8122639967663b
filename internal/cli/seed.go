package cli

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/mentordesk/mentordesk/internal/app"
)

// SeedResult is the json output of the seed command.
type SeedResult struct {
	Written []string `json:"written"`
	Skipped []string `json:"skipped"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions, open Opener) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write fixture data to collections that have none",
		Long: `seed writes the bundled fixtures. Collections that already hold data are
left alone unless --force is given, which overwrites them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, open, func(ctx context.Context, rt *app.Runtime) error {
				written, err := rt.Registry.SeedAll(ctx, force)
				if err != nil {
					return err
				}
				res := SeedResult{Written: written, Skipped: []string{}}
				if res.Written == nil {
					res.Written = []string{}
				}
				done := make(map[string]bool, len(written))
				for _, key := range written {
					done[key] = true
				}
				for _, key := range rt.Registry.Keys() {
					if !done[key] {
						res.Skipped = append(res.Skipped, key)
					}
				}
				out := cmd.OutOrStdout()
				if rootOpts.Format == "json" {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(res)
				}
				for _, key := range res.Written {
					if err := writeLine(out, "seeded  %s", key); err != nil {
						return err
					}
				}
				for _, key := range res.Skipped {
					if err := writeLine(out, "skipped %s", key); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite collections that already hold data")
	return cmd
}
