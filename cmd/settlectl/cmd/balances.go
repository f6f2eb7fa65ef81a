package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitledger/internal/money"
)

func newBalancesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "balances GROUP",
		Short: "Print each member's paid, owed and net amounts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, l, release, err := opts.openLedger(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer release()

			snapshot, err := l.Balances(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(w, "MEMBER\tPAID\tOWED\tNET\t")
			for _, b := range snapshot.Balances {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", b.MemberID,
					money.Format(b.TotalPaid, opts.exponent),
					money.Format(b.TotalOwed, opts.exponent),
					money.Format(b.NetBalance, opts.exponent))
			}
			return w.Flush()
		},
	}
}
