/*
	Copyright 2026 Slipangle Racing League
*/

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	replayCmd "github.com/slipangle/rallyarcade/pkg/cmd/replay"
	runCmd "github.com/slipangle/rallyarcade/pkg/cmd/run"
	serverCmd "github.com/slipangle/rallyarcade/pkg/cmd/server"
	trackCmd "github.com/slipangle/rallyarcade/pkg/cmd/track"
	"github.com/slipangle/rallyarcade/pkg/config"
	"github.com/slipangle/rallyarcade/version"
)

const envPrefix = "RALLY"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "rallyarcade",
	Short:   "Arcade rally simulation core for the league minigame",
	Long:    ``,
	Version: version.FullVersion,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.rallyarcade.yml)")

	rootCmd.PersistentFlags().StringVar(&config.TrackFile, "track",
		"",
		"path to the track definition file")
	rootCmd.PersistentFlags().StringVar(&config.DataDir, "data-dir",
		"data",
		"directory for persisted best times, ghosts and leaderboards")
	rootCmd.PersistentFlags().IntVar(&config.PhysicsRate, "physics-rate",
		120,
		"fixed physics steps per second")

	// add commands here
	rootCmd.AddCommand(runCmd.NewRunCmd())
	rootCmd.AddCommand(replayCmd.NewReplayCmd())
	rootCmd.AddCommand(serverCmd.NewServerCmd())
	rootCmd.AddCommand(trackCmd.NewTrackCmd())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".rallyarcade" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".rallyarcade")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	bindFlags(rootCmd, viper.GetViper())
	for _, cmd := range rootCmd.Commands() {
		bindFlags(cmd, viper.GetViper())
	}
}

// Bind each cobra flag to its associated viper configuration
// (config file and environment variable)
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		// Environment variables can't have dashes in them, so bind them to their
		// equivalent keys with underscores, e.g. --data-dir to RALLY_DATA_DIR
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name,
				fmt.Sprintf("%s_%s", envPrefix, envVarSuffix)); err != nil {
				fmt.Fprintf(os.Stderr, "Could not bind env var %s: %v", f.Name, err)
			}
		}
		// Apply the viper config value to the flag when the flag is not set and viper
		// has a value
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				fmt.Fprintf(os.Stderr, "Could set flag value for %s: %v", f.Name, err)
			}
		}
	})
}
