package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mentordesk/mentordesk/internal/app"
)

// NewReceiptCommand creates the receipt command.
func NewReceiptCommand(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:       "receipt invoice|payout <id>",
		Short:     "Print the text receipt of an invoice or payout",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"invoice", "payout"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, id := args[0], args[1]
			if kind != "invoice" && kind != "payout" {
				return &UsageError{Message: "receipt type must be invoice or payout, got " + kind}
			}
			return withRuntime(cmd, open, func(ctx context.Context, rt *app.Runtime) error {
				var (
					body []byte
					err  error
				)
				if kind == "invoice" {
					body, err = rt.Payouts.InvoiceReceipt(ctx, id)
				} else {
					body, err = rt.Payouts.PayoutReceipt(ctx, id)
				}
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(body)
				return err
			})
		},
	}
}

// UsageError reports a malformed invocation.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string { return e.Message }
