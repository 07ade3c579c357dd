package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/casmproj/internal/composition"
)

var compCmd = &cobra.Command{
	Use:   "comp",
	Short: "Show or select composition axes",
}

var compShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List the possible composition axes",
	Args:  cobra.NoArgs,
	RunE:  runCompShow,
}

var compSetAxesCmd = &cobra.Command{
	Use:   "set-axes <key>",
	Short: "Select the composition axes used for parametric composition",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompSetAxes,
}

func init() {
	compShowCmd.Flags().Bool("occupant", false, "show occupant instead of chemical axes")
	compSetAxesCmd.Flags().Bool("occupant", false, "select occupant instead of chemical axes")

	compCmd.AddCommand(compShowCmd)
	compCmd.AddCommand(compSetAxesCmd)
	rootCmd.AddCommand(compCmd)
}

func axesRows(a *composition.Axes) [][]string {
	keys := a.Keys()
	rows := make([][]string, len(keys))
	for i, k := range keys {
		current := ""
		if a.CurrentAxes != nil && *a.CurrentAxes == k {
			current = "*"
		}
		rows[i] = []string{current, k, a.PossibleAxes[k].MolFormula()}
	}
	return rows
}

func runCompShow(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	occupant, _ := cmd.Flags().GetBool("occupant")
	axes := s.proj.ChemicalAxes
	if occupant {
		axes = s.proj.OccupantAxes
	}
	s.printer.Heading(fmt.Sprintf("%s composition axes", axes.Kind))
	s.printer.Result(fmt.Sprintf("components: %v", axes.Components))
	s.printer.Table([]string{"", "key", "formula"}, axesRows(axes), "No composition axes")
	return nil
}

func runCompSetAxes(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	occupant, _ := cmd.Flags().GetBool("occupant")
	axes := s.proj.ChemicalAxes
	if occupant {
		axes = s.proj.OccupantAxes
	}
	if err := axes.SetCurrent(args[0]); err != nil {
		return err
	}
	if err := s.proj.WriteCompositionAxes(); err != nil {
		return err
	}
	s.printer.Info(fmt.Sprintf("Selected composition axes %s: %s", args[0], axes.Current().MolFormula()))
	return nil
}
