package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papapumpkin/casmproj/internal/enum"
)

var enumScelCmd = &cobra.Command{
	Use:   "scel",
	Short: "Enumerate supercells by volume",
	Args:  cobra.NoArgs,
	RunE:  runEnumScel,
}

var enumOccCmd = &cobra.Command{
	Use:   "occ",
	Short: "Enumerate occupations of supercells by volume",
	Args:  cobra.NoArgs,
	RunE:  runEnumOcc,
}

var enumWatchCmd = &cobra.Command{
	Use:   "watch <id>",
	Short: "Print an enumeration summary whenever its files change",
	Args:  cobra.ExactArgs(1),
	RunE:  runEnumWatch,
}

func addRunFlags(c *cobra.Command) {
	c.Flags().String("id", "", "enumeration id (default: a new sequential id)")
	c.Flags().Int("min", 1, "minimum supercell volume")
	c.Flags().Int("max", 1, "maximum supercell volume")
	c.Flags().Bool("dry-run", false, "enumerate without writing anything")
}

func init() {
	addRunFlags(enumScelCmd)
	addRunFlags(enumOccCmd)
	enumOccCmd.Flags().Int("n-per-commit", enum.DefaultNPerCommit, "configurations between intermediate commits")
	enumOccCmd.Flags().Bool("print-steps", true, "print a line per supercell")
	_ = viper.BindPFlag("n_per_commit", enumOccCmd.Flags().Lookup("n-per-commit"))

	enumCmd.AddCommand(enumScelCmd)
	enumCmd.AddCommand(enumOccCmd)
	enumCmd.AddCommand(enumWatchCmd)
}

func runOptions(cmd *cobra.Command, s *session) enum.RunOptions {
	id, _ := cmd.Flags().GetString("id")
	lo, _ := cmd.Flags().GetInt("min")
	hi, _ := cmd.Flags().GetInt("max")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	return enum.RunOptions{
		ID:           id,
		MinVolume:    lo,
		MaxVolume:    hi,
		NPerCommit:   s.cfg.NPerCommit,
		PrintCommits: s.cfg.PrintCommits,
		Verbose:      true,
		DryRun:       dryRun,
	}
}

func runEnumScel(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	d, err := enum.NewCommand(s.proj).SupercellsByVolume(ctx, runOptions(cmd, s))
	if err != nil {
		return err
	}
	s.printer.Result(d.String())
	return nil
}

func runEnumOcc(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	opts := runOptions(cmd, s)
	opts.PrintSteps, _ = cmd.Flags().GetBool("print-steps")
	d, err := enum.NewCommand(s.proj).OccBySupercell(ctx, opts)
	if err != nil {
		return err
	}
	s.printer.Result(d.String())
	return nil
}

func runEnumWatch(cmd *cobra.Command, args []string) error {
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
	w, err := enum.NewWatcher(d)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return fmt.Errorf("watching enumeration %s: %w", args[0], err)
	}
	defer w.Stop()

	s.printer.Result(d.String())
	for {
		select {
		case <-ctx.Done():
			return nil
		case ch, ok := <-w.Changes:
			if !ok {
				return nil
			}
			s.printer.WatchChange(args[0], ch.File, ch.At)
			if err := d.Load(); err != nil {
				s.printer.Warn(err.Error())
				continue
			}
			s.printer.Result(d.String())
		}
	}
}
