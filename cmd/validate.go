package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that the CASM engine is available",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		root := cfg.Project
		if root == "" {
			if root, err = os.Getwd(); err != nil {
				return err
			}
		}
		eng, err := newEngine(cfg, root)
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()
		version, err := eng.Validate(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "✗ engine: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "✓ engine found: %s\n", version)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
