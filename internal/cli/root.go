// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package cli

import (
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "pwdguard [COMMAND] [OPTIONS]",
		Short: "Check passwords against known data breaches and suggest stronger ones",
		Long: "Check if a password shows up in the Pwned Passwords (haveibeenpwned.com) breach corpus without " +
			"sending it anywhere: only the first 5 characters of its SHA1 hash leave this machine. " +
			"Also estimates the password strength and generates replacement candidates.",
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print more information on the processing")
	rootCmd.PersistentFlags().BoolVar(&profile, "profile", false, "Enable the profiling server (pprof) when running commands")
	rootCmd.PersistentFlags().Uint16Var(&pprofPort, "profile-port", 6060, "The port to use for the pprof server. Only used if the profile flag is set")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to the YAML config file. Defaults to pwdguard.yaml in the user config directory")
}

func Execute() error {
	return rootCmd.Execute()
}
