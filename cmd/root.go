package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "2.0.0"

var rootCmd = &cobra.Command{
	Use:   "afriserver",
	Short: "AfriLearn education platform backend",
	Long: `Backend API for the AfriLearn education platform.

Serves document translation (PDF/DOCX upload, translate, download as DOCX)
and past-paper distribution with multi-strategy file resolution.

Use "afriserver serve --help" for server options.`,
	Version: version,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
