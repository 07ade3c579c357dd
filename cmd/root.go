package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "casmproj",
	Short: "Manage cluster expansion project directories",
	Long: `casmproj creates and maintains cluster expansion project directories:
enumerations of supercells and configurations, basis sets and their
Clexulators, symmetry groups, composition axes, and training data.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default .casmproj.yaml)")
	pf.BoolP("verbose", "v", false, "verbose output")
	pf.StringP("project", "p", "", "project root (default: search upward from the working directory)")
	pf.String("color", "auto", "colorize output: auto, always, never")
	pf.String("engine", "", "engine executable (overrides engine.command)")

	_ = viper.BindPFlag("verbose", pf.Lookup("verbose"))
	_ = viper.BindPFlag("project", pf.Lookup("project"))
	_ = viper.BindPFlag("color", pf.Lookup("color"))
	_ = viper.BindPFlag("engine.command", pf.Lookup("engine"))
}

func initConfig() {
	if cfgFile, _ := rootCmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".casmproj")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("CASMPROJ")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}
