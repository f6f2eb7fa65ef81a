package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/money"
)

func newSplitCmd(opts *options) *cobra.Command {
	var (
		total  string
		shares map[string]int64
	)

	cmd := &cobra.Command{
		Use:   "split --total AMOUNT MEMBER...",
		Short: "Preview how an amount divides among members",
		Long: `Preview how an amount divides among members without touching any group.

With --shares each member's part is proportional to their weight; members
without a weight count as one share. Extra units go to the earliest members.

Example:
  settlectl split --total 100 alice bob carol
  settlectl split --total 90 --shares alice=2,bob=1 alice bob`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := money.ParseMajor(total, opts.exponent)
			if err != nil {
				return fmt.Errorf("invalid --total: %w", err)
			}

			var splits []calculator.Split
			if len(shares) > 0 {
				splits, err = calculator.SharesSplit(amount, args, shares)
			} else {
				participants := slices.Clone(args)
				slices.Sort(participants)
				splits, err = calculator.EvenSplit(amount, participants)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, s := range splits {
				fmt.Fprintf(out, "%s: %s\n", s.MemberID, money.Format(s.Amount, opts.exponent))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&total, "total", "", "amount to split, in major units")
	cmd.Flags().StringToInt64Var(&shares, "shares", nil, "weights per member, e.g. alice=2,bob=1")
	_ = cmd.MarkFlagRequired("total")
	return cmd
}
