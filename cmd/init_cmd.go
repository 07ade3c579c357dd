package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/casmproj/internal/project"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Initialize a CASM project from a prim",
	Long: `Creates the .casm directory, project settings, composition axes and the
standard directory tree at dir (default: the working directory). The prim is
read from --prim or <dir>/prim.json. Symmetry files and the neighbor list are
computed by the engine unless --no-engine is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().String("prim", "", "prim file (default <dir>/prim.json)")
	initCmd.Flags().String("name", "", "project name (default: prim title)")
	initCmd.Flags().Bool("force", false, "accept a prim that is not right-handed")
	initCmd.Flags().Bool("no-engine", false, "do not call the engine; symmetry and neighbor list are left unset")

	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	cfg, printer, err := loadConfig()
	if err != nil {
		return err
	}
	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	if root, err = filepath.Abs(root); err != nil {
		return err
	}
	primPath, _ := cmd.Flags().GetString("prim")
	name, _ := cmd.Flags().GetString("name")
	force, _ := cmd.Flags().GetBool("force")
	noEngine, _ := cmd.Flags().GetBool("no-engine")

	opts := project.Options{Printer: printer, Verbose: cfg.Verbose}
	if !noEngine {
		eng, err := newEngine(cfg, root)
		if err != nil {
			return err
		}
		opts.Engine = eng
	}
	_, err = project.Init(ctx, root, project.InitParams{PrimPath: primPath, Name: name, Force: force}, opts)
	return err
}
