package main

import (
	"context"
	"log/slog"
	"os"

	"poeroll/cmd/poeroll/commands"
	"poeroll/internal/components/cliutil"
	"poeroll/internal/components/telemetry"
)

func main() {
	ctx := cliutil.SignalContext()

	tel, err := telemetry.SetupFromEnv(ctx, "poeroll")
	if err != nil {
		slog.Warn("failed to setup telemetry", "err", err)
	}

	err = commands.ExecuteContext(ctx)
	tel.Shutdown(context.Background())
	if err != nil {
		os.Exit(1)
	}
}
