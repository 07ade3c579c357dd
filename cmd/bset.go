package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/casmproj/internal/bset"
	"github.com/papapumpkin/casmproj/internal/jsonio"
	"github.com/papapumpkin/casmproj/internal/ui"
)

var bsetCmd = &cobra.Command{
	Use:   "bset",
	Short: "Manage basis sets and their Clexulators",
}

var bsetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List basis sets",
	Args:  cobra.NoArgs,
	RunE:  runBsetList,
}

var bsetShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Describe a basis set (default: the default cluster expansion's)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBsetShow,
}

var bsetRemoveCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove a basis set",
	Args:  cobra.ExactArgs(1),
	RunE:  runBsetRemove,
}

var bsetCopyCmd = &cobra.Command{
	Use:   "cp <src> <dest>",
	Short: "Copy the meta and specifications of a basis set",
	Args:  cobra.ExactArgs(2),
	RunE:  runBsetCopy,
}

var bsetCleanCmd = &cobra.Command{
	Use:   "clean [id]",
	Short: "Remove the generated files of a basis set",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBsetClean,
}

var bsetUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Write and compile the Clexulator of a basis set",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBsetUpdate,
}

var bsetSpecsCmd = &cobra.Command{
	Use:   "set-specs <id> <bspecs.json>",
	Short: "Set the specifications of a basis set from a file",
	Args:  cobra.ExactArgs(2),
	RunE:  runBsetSpecs,
}

func init() {
	bsetUpdateCmd.Flags().Bool("no-compile", false, "write the Clexulator source without compiling")
	bsetUpdateCmd.Flags().Bool("only-compile", false, "compile the existing Clexulator source")
	bsetUpdateCmd.MarkFlagsMutuallyExclusive("no-compile", "only-compile")
	bsetSpecsCmd.Flags().String("desc", "", "basis set description")

	bsetCmd.AddCommand(bsetListCmd)
	bsetCmd.AddCommand(bsetShowCmd)
	bsetCmd.AddCommand(bsetRemoveCmd)
	bsetCmd.AddCommand(bsetCopyCmd)
	bsetCmd.AddCommand(bsetCleanCmd)
	bsetCmd.AddCommand(bsetUpdateCmd)
	bsetCmd.AddCommand(bsetSpecsCmd)
	rootCmd.AddCommand(bsetCmd)
}

func optionalArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func runBsetList(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	list, err := bset.NewCommand(s.proj, s.engine).List()
	if err != nil {
		return err
	}
	rows := make([][]string, len(list))
	for i, b := range list {
		specs := "no"
		if b.HasSpecs {
			specs = b.Version
		}
		source := "no"
		if b.HasSource {
			source = "yes"
		}
		rows[i] = []string{b.ID, b.Desc, specs, ui.Count(b.Generated), source}
	}
	s.printer.Table([]string{"id", "desc", "bspecs", "generated files", "source"}, rows, "No basis sets")
	return nil
}

func runBsetShow(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	d, err := bset.NewCommand(s.proj, s.engine).Get(optionalArg(args))
	if err != nil {
		return err
	}
	s.printer.Result(d.String())
	return nil
}

func runBsetRemove(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := bset.NewCommand(s.proj, s.engine).Remove(args[0]); err != nil {
		return err
	}
	s.printer.Info(fmt.Sprintf("Removed basis set %s", args[0]))
	return nil
}

func runBsetCopy(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := bset.NewCommand(s.proj, s.engine).Copy(args[0], args[1]); err != nil {
		return err
	}
	s.printer.Info(fmt.Sprintf("Copied basis set %s to %s", args[0], args[1]))
	return nil
}

func runBsetClean(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	n, err := bset.NewCommand(s.proj, s.engine).Clean(optionalArg(args))
	if err != nil {
		return err
	}
	s.printer.Info(fmt.Sprintf("Removed %s generated files", ui.Count(n)))
	return nil
}

func runBsetUpdate(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	noCompile, _ := cmd.Flags().GetBool("no-compile")
	onlyCompile, _ := cmd.Flags().GetBool("only-compile")
	c := bset.NewCommand(s.proj, s.engine)
	if err := c.Update(ctx, optionalArg(args), noCompile, onlyCompile); err != nil {
		return err
	}
	s.printer.Result(c.Last.String())
	return nil
}

func runBsetSpecs(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	var raw json.RawMessage
	if err := jsonio.ReadRequired(args[1], &raw); err != nil {
		return err
	}
	specs, err := bset.DecodeSpecs(raw)
	if err != nil {
		return err
	}
	d, err := bset.Open(s.proj, args[0], s.engine)
	if err != nil {
		return err
	}
	d.SetBasisSpecs(specs.Specs, specs.Version, specs.LinearFunctionIndices)
	if desc, _ := cmd.Flags().GetString("desc"); desc != "" {
		d.Meta["desc"] = desc
	}
	if err := d.Commit(); err != nil {
		return err
	}
	s.printer.Result(d.String())
	return nil
}
