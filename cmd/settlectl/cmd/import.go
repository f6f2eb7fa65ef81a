package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitledger/internal/fixture"
)

func newImportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Load groups, expenses and settlements from a YAML fixture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			f, err := fixture.Load(file)
			if err != nil {
				return err
			}

			res, l, release, err := opts.openLedger(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer release()

			summary, err := f.Apply(cmd.Context(), res.Store, l)
			if err != nil {
				return fmt.Errorf("import stopped after %d expenses and %d settlements: %w",
					summary.Expenses, summary.Settlements, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d groups, %d expenses, %d settlements\n",
				summary.Groups, summary.Expenses, summary.Settlements)
			return nil
		},
	}
}
