package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/casmproj/internal/importer"
	"github.com/papapumpkin/casmproj/internal/ui"
)

var importCmd = &cobra.Command{
	Use:   "import <calctype> <file>",
	Short: "Import configurations with calculated properties",
	Long: `Reads a JSON array of {"configuration": {...}, "properties": {...}}
records, writes properties.calc.json for each configuration under
training_data/, and adds the configurations to an enumeration.`,
	Args: cobra.ExactArgs(2),
	RunE: runImport,
}

func init() {
	importCmd.Flags().String("enum", importer.DefaultEnumID, "enumeration receiving the configurations")
	importCmd.Flags().Bool("overwrite", false, "replace existing calculated properties")
	importCmd.Flags().Bool("dry-run", false, "validate and count without writing")

	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	records, err := importer.ReadRecords(args[1])
	if err != nil {
		return err
	}
	enumID, _ := cmd.Flags().GetString("enum")
	overwrite, _ := cmd.Flags().GetBool("overwrite")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	res, err := importer.NewCommand(s.proj).Import(ctx, records, importer.Options{
		Calctype:  args[0],
		EnumID:    enumID,
		Overwrite: overwrite,
		DryRun:    dryRun,
	})
	if err != nil {
		return err
	}
	s.printer.Result(fmt.Sprintf("Imported %s configurations (%s new, %s skipped)",
		ui.Count(res.Imported), ui.Count(res.NewConfigurations), ui.Count(res.Skipped)))
	if dryRun {
		s.printer.Info("** Dry run: Not committing... **")
	}
	return nil
}
