package cmd

import (
	"github.com/spf13/cobra"

	"github.com/papapumpkin/casmproj/internal/sym"
)

var symCmd = &cobra.Command{
	Use:   "sym",
	Short: "Show or write the prim symmetry groups",
}

var symShowCmd = &cobra.Command{
	Use:       "show [lattice_point_group|factor_group|crystal_point_group]",
	Short:     "Describe symmetry groups (default: all)",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: sym.Names,
	RunE:      runSymShow,
}

var symWriteCmd = &cobra.Command{
	Use:   "write",
	Short: "Compute the symmetry groups with the engine and write them",
	Args:  cobra.NoArgs,
	RunE:  runSymWrite,
}

func init() {
	symShowCmd.Flags().Bool("full", false, "list every operation")

	symCmd.AddCommand(symShowCmd)
	symCmd.AddCommand(symWriteCmd)
	rootCmd.AddCommand(symCmd)
}

func runSymShow(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	full, _ := cmd.Flags().GetBool("full")
	names := sym.Names
	if len(args) == 1 {
		names = args
	}
	c := sym.NewCommand(s.proj)
	for _, name := range names {
		if err := c.Print(s.printer, name, !full); err != nil {
			return err
		}
	}
	return nil
}

func runSymWrite(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	return sym.NewCommand(s.proj).WriteSymmetry(ctx)
}
