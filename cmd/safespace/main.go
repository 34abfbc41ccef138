package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/safespace-dev/safespace/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "safespace",
		Short: "SafeSpace web client for anonymous questions",
		Long: `SafeSpace serves the public anonymous question form, the moderation
pages and the admin dashboard in front of the platform API.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", "config", "path to folder with configs")

	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.StatsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
