package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/casmproj/internal/bset"
	"github.com/papapumpkin/casmproj/internal/calc"
	"github.com/papapumpkin/casmproj/internal/enum"
	"github.com/papapumpkin/casmproj/internal/jsonio"
)

var calcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Manage calculation settings and training data",
}

var calcListCmd = &cobra.Command{
	Use:   "list",
	Short: "List calctypes and their reference states",
	Args:  cobra.NoArgs,
	RunE:  runCalcList,
}

var calcSetupCmd = &cobra.Command{
	Use:   "setup <calctype>",
	Short: "Create the settings directories of a calctype",
	Args:  cobra.ExactArgs(1),
	RunE:  runCalcSetup,
}

var calcFitDataCmd = &cobra.Command{
	Use:   "fit-data <output.json>",
	Short: "Write compositions, correlations and property values of an enumeration",
	Args:  cobra.ExactArgs(1),
	RunE:  runCalcFitData,
}

func init() {
	calcSetupCmd.Flags().String("ref", "default", "reference state")
	calcFitDataCmd.Flags().String("enum", "", "enumeration whose configuration set is used (required)")
	calcFitDataCmd.Flags().String("calctype", "default", "calctype of the calculated properties")
	calcFitDataCmd.Flags().String("property", "formation_energy", "global scalar property to fit")
	calcFitDataCmd.Flags().String("bset", "", "basis set (default: the default cluster expansion's)")
	calcFitDataCmd.Flags().Bool("uncalculated", false, "include configurations without the property")
	_ = calcFitDataCmd.MarkFlagRequired("enum")

	calcCmd.AddCommand(calcListCmd)
	calcCmd.AddCommand(calcSetupCmd)
	calcCmd.AddCommand(calcFitDataCmd)
	rootCmd.AddCommand(calcCmd)
}

func runCalcList(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	list, err := calc.NewCommand(s.proj).List()
	if err != nil {
		return err
	}
	rows := make([][]string, len(list))
	for i, ct := range list {
		rows[i] = []string{ct.Calctype, strings.Join(ct.Refs, ", ")}
	}
	s.printer.Table([]string{"calctype", "refs"}, rows, "No calctypes")
	return nil
}

func runCalcSetup(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	ref, _ := cmd.Flags().GetString("ref")
	if err := calc.NewCommand(s.proj).SetupDir(args[0], ref); err != nil {
		return err
	}
	s.printer.Info(fmt.Sprintf("Created %s", jsonio.PrintPath(s.proj.Dir.RefDir(args[0], ref))))
	return nil
}

func runCalcFitData(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	enumID, _ := cmd.Flags().GetString("enum")
	calctype, _ := cmd.Flags().GetString("calctype")
	property, _ := cmd.Flags().GetString("property")
	bsetID, _ := cmd.Flags().GetString("bset")
	uncalculated, _ := cmd.Flags().GetBool("uncalculated")

	d, err := enum.NewCommand(s.proj).Get(enumID)
	if err != nil {
		return err
	}
	c := calc.NewCommand(s.proj)
	records, err := c.Records(d.ConfigurationSet, calctype, property, uncalculated)
	if err != nil {
		return err
	}
	b, err := bset.NewCommand(s.proj, s.engine).Get(bsetID)
	if err != nil {
		return err
	}
	corr, err := bset.NewCorrCalculator(b)
	if err != nil {
		return err
	}
	comp, err := s.proj.ChemicalCalculator()
	if err != nil {
		return err
	}
	f, err := calc.MakeFittingData(ctx, records, comp, corr)
	if err != nil {
		return err
	}
	if err := jsonio.SafeDump(f, args[0], s.proj.WriteOptions(true)); err != nil {
		return err
	}
	s.printer.Info(fmt.Sprintf("Wrote fitting data for %d configurations to %s", f.Len(), jsonio.PrintPath(args[0])))
	return nil
}
