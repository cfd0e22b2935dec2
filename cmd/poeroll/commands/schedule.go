package commands

import (
	"log/slog"

	"poeroll/internal/components/chrono"
	"poeroll/internal/components/cliutil"
	"poeroll/internal/components/telemetry"
	"poeroll/internal/refresh"

	"github.com/spf13/cobra"
)

var scheduleSpec *string

func init() {
	scheduleSpec = scheduleCmd.Flags().String("cron", "", "Cron spec to refresh on, defaults to the configured schedule.")
	rootCmd.AddCommand(scheduleCmd)
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule [--cron spec]",
	Short: "Refreshes the stored data on a cron schedule until interrupted.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig()
		if *scheduleSpec != "" {
			cfg.Schedule = *scheduleSpec
		}

		tel := telemetry.SlogAPI{}
		st := openStore(ctx, cfg, tel)
		defer st.Close()

		refresher, err := newRefresher(cfg, st, tel)
		if err != nil {
			cliutil.Fatal("failed to create refresher", err)
		}

		telemetry.InstrumentPerfStats(ctx)

		scheduler := refresh.NewScheduler(refresher, chrono.NewStandardCron(tel), tel)
		err = scheduler.Start(cfg.Schedule)
		if err != nil {
			cliutil.Fatal("invalid schedule", err)
		}
		slog.Info("scheduled refreshes", "cron", cfg.Schedule, "lang", cfg.Lang)

		<-ctx.Done()
		slog.Info("waiting for the running refresh to finish")
		scheduler.Stop()
	},
}
