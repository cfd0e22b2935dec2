package commands

import (
	"fmt"

	"poeroll/internal/components/cliutil"
	"poeroll/internal/components/configutil"
	"poeroll/internal/locale"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(langCmd)
}

var langCmd = &cobra.Command{
	Use:       "lang <tw|us>",
	Short:     "Switches the language pages are scraped in, refresh again afterwards.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(locale.TW), string(locale.US)},
	Run: func(cmd *cobra.Command, args []string) {
		lang, err := locale.Parse(args[0])
		if err != nil {
			cliutil.Fatal("invalid language", err)
		}
		err = configutil.SetLocal(*configPath, "lang", lang)
		if err != nil {
			cliutil.Fatal("failed to write config", err)
		}
		fmt.Printf("language set to %s (%s)\n", lang, lang.Name())
	},
}
