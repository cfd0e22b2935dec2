package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"poeroll/internal/components/cliutil"
	"poeroll/internal/components/telemetry"
	"poeroll/internal/locale"
	"poeroll/internal/refresh"

	"github.com/spf13/cobra"
)

var (
	refreshLang    *string
	refreshBrowser *string
)

func init() {
	refreshLang = refreshCmd.Flags().String("lang", "", "Language to scrape, defaults to the configured one.")
	refreshBrowser = refreshCmd.Flags().String("browser", "", "Session to load pages with, chrome or http.")
	rootCmd.AddCommand(refreshCmd)
}

var refreshCmd = &cobra.Command{
	Use:   "refresh [--lang tw|us] [--browser chrome|http]",
	Short: "Scrapes ascendancies and skill gems from poedb.tw and replaces the stored data.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig()
		if *refreshLang != "" {
			lang, err := locale.Parse(*refreshLang)
			if err != nil {
				cliutil.Fatal("invalid --lang", err)
			}
			cfg.Lang = lang
		}
		if *refreshBrowser != "" {
			cfg.Scraper.Browser = *refreshBrowser
		}
		msg := cfg.Lang.Messages()

		tel := telemetry.SlogAPI{}
		st := openStore(ctx, cfg, tel)
		defer st.Close()

		refresher, err := newRefresher(cfg, st, tel)
		if err != nil {
			cliutil.Fatal("failed to create refresher", err)
		}

		fmt.Println(msg.RefreshRunning)
		result, err := refresher.Run(ctx)
		if errors.Is(err, refresh.ErrDataUnavailable) {
			fmt.Println(msg.RefreshFailed)
			cliutil.Fatal("refresh abandoned, stored data unchanged", err)
		}
		if err != nil {
			fmt.Println(msg.RefreshFailed)
			cliutil.Fatal("refresh failed", err)
		}

		slog.Info(
			"refreshed",
			"run", result.Info.RunId,
			"lang", result.Info.Lang,
			"ascendancies", result.Info.Ascendancies,
			"gems", result.Info.Gems,
			"skipped_rows", result.SkippedRows,
		)
		fmt.Println(msg.RefreshDone)
	},
}
