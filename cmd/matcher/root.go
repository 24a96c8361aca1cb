package main

import (
	"github.com/spf13/cobra"
)

const (
	appName = "matcher"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           appName,
		Short:         "matcher scores a resume against a job description and writes a review report",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output on stderr")

	rootCmd.AddCommand(newEvaluateCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}
