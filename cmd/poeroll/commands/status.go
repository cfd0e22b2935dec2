package commands

import (
	"time"

	"poeroll/internal/components/cliutil"
	"poeroll/internal/components/telemetry"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Shows what is stored and when it was last refreshed.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig()
		st := openStore(ctx, cfg, telemetry.SlogAPI{})
		defer st.Close()

		ascendancies, gems, err := st.Counts(ctx)
		if err != nil {
			cliutil.Fatal("failed to count records", err)
		}
		info, refreshed, err := st.RefreshInfo(ctx)
		if err != nil {
			cliutil.Fatal("failed to read refresh info", err)
		}

		t := cliutil.NewTable()
		t.AppendRows([]table.Row{
			{"Language", cfg.Lang.Name()},
			{"Ascendancies", ascendancies},
			{"Skill gems", gems},
		})
		if refreshed {
			t.AppendRows([]table.Row{
				{"Last refresh", info.Time.Local().Format(time.ANSIC)},
				{"Refresh language", info.Lang.Name()},
				{"Refresh run", info.RunId},
			})
		} else {
			t.AppendRow(table.Row{"Last refresh", cfg.Lang.Messages().NoData})
		}
		t.Render()
	},
}
