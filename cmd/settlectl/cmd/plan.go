package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitledger/internal/money"
)

func newPlanCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "plan GROUP",
		Short: "Print the transfers that settle a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, l, release, err := opts.openLedger(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer release()

			transfers, err := l.SettlementPlan(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(transfers) == 0 {
				fmt.Fprintln(out, "All settled")
				return nil
			}
			for _, t := range transfers {
				fmt.Fprintf(out, "%s -> %s: %s\n", t.From, t.To, money.Format(t.Amount, opts.exponent))
			}
			return nil
		},
	}
}
