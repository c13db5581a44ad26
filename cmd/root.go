package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "wheelhouse",
	Short: "Wheelhouse - Minimal Python Package Registry",
	Long: `Wheelhouse is a single-binary package registry that accepts uploaded
wheel artifacts and serves a simple package index over HTTP.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./wheelhouse.yaml)")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("wheelhouse")
		viper.SetConfigType("yaml")

		// Current directory (highest priority)
		viper.AddConfigPath(".")

		// User config directory
		if userConfigDir, err := os.UserConfigDir(); err == nil {
			viper.AddConfigPath(userConfigDir + "/wheelhouse")
		}

		// System-wide config directory
		viper.AddConfigPath("/etc/wheelhouse")
	}

	viper.SetEnvPrefix("WHEELHOUSE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
		os.Exit(1)
	}
	// Without an explicit --config flag a missing file is fine: the
	// defaults cover a local run.
}
