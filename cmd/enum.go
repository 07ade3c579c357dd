package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/casmproj/internal/enum"
	"github.com/papapumpkin/casmproj/internal/ui"
)

var enumCmd = &cobra.Command{
	Use:   "enum",
	Short: "Manage enumerations of supercells and configurations",
}

var enumListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enumerations",
	Args:  cobra.NoArgs,
	RunE:  runEnumList,
}

var enumShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Describe one enumeration",
	Args:  cobra.ExactArgs(1),
	RunE:  runEnumShow,
}

var enumRemoveCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove an enumeration",
	Args:  cobra.ExactArgs(1),
	RunE:  runEnumRemove,
}

var enumCopyCmd = &cobra.Command{
	Use:   "cp <src> <dest>",
	Short: "Copy an enumeration to a new id",
	Args:  cobra.ExactArgs(2),
	RunE:  runEnumCopy,
}

var enumMergeCmd = &cobra.Command{
	Use:   "merge <src> <dest>",
	Short: "Add the contents of one enumeration to another",
	Args:  cobra.ExactArgs(2),
	RunE:  runEnumMerge,
}

var enumDiffCmd = &cobra.Command{
	Use:   "diff <a> <b>",
	Short: "Show a unified diff of two enumerations",
	Args:  cobra.ExactArgs(2),
	RunE:  runEnumDiff,
}

func init() {
	enumCmd.AddCommand(enumListCmd)
	enumCmd.AddCommand(enumShowCmd)
	enumCmd.AddCommand(enumRemoveCmd)
	enumCmd.AddCommand(enumCopyCmd)
	enumCmd.AddCommand(enumMergeCmd)
	enumCmd.AddCommand(enumDiffCmd)
	rootCmd.AddCommand(enumCmd)
}

func runEnumList(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	list, err := enum.NewCommand(s.proj).List()
	if err != nil {
		return err
	}
	rows := make([][]string, len(list))
	for i, e := range list {
		rows[i] = []string{
			e.ID,
			e.Desc,
			ui.Count(e.SupercellSet),
			ui.Count(e.SupercellList),
			ui.Count(e.ConfigurationSet),
			ui.Count(e.ConfigurationList),
		}
	}
	s.printer.Table([]string{"id", "desc", "scel set", "scel list", "config set", "config list"}, rows, "No enumerations")
	return nil
}

func runEnumShow(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	d, err := enum.NewCommand(s.proj).Get(args[0])
	if err != nil {
		return err
	}
	s.printer.Result(d.String())
	return nil
}

func runEnumRemove(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := enum.NewCommand(s.proj).Remove(args[0]); err != nil {
		return err
	}
	s.printer.Info(fmt.Sprintf("Removed enumeration %s", args[0]))
	return nil
}

func runEnumCopy(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := enum.NewCommand(s.proj).Copy(args[0], args[1]); err != nil {
		return err
	}
	s.printer.Info(fmt.Sprintf("Copied enumeration %s to %s", args[0], args[1]))
	return nil
}

func runEnumMerge(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	c := enum.NewCommand(s.proj)
	if err := c.Merge(args[0], args[1]); err != nil {
		return err
	}
	s.printer.Result(c.Last.String())
	return nil
}

func runEnumDiff(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	out, err := enum.NewCommand(s.proj).Diff(args[0], args[1])
	if err != nil {
		return err
	}
	if out == "" {
		s.printer.Info("No differences")
		return nil
	}
	s.printer.Result(out)
	return nil
}
