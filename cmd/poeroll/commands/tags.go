package commands

import (
	"fmt"

	"poeroll/internal/components/cliutil"
	"poeroll/internal/components/telemetry"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(tagsCmd)
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Lists every tag of the stored skill gems.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		st := openStore(cmd.Context(), cfg, telemetry.SlogAPI{})
		defer st.Close()

		tags, err := st.ListDistinctTags(cmd.Context())
		if err != nil {
			cliutil.Fatal("failed to list tags", err)
		}
		if len(tags) == 0 {
			fmt.Println(cfg.Lang.Messages().NoData)
			return
		}
		for _, tag := range tags {
			fmt.Println(tag)
		}
	},
}
