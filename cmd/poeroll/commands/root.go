package commands

import (
	"context"
	"fmt"
	"os"

	"poeroll/internal/components/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath *string
	debug      *bool
)

var rootCmd = &cobra.Command{
	Use:   "poeroll",
	Short: "poeroll rolls random Path of Exile builds from data scraped off poedb.tw.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*debug)
	},
	SilenceUsage: true,
}

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "config.json5", "The config file, overridden by its .local variant.")
	debug = rootCmd.PersistentFlags().Bool("debug", false, "Log debug output.")
}

func ExecuteContext(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return err
}
