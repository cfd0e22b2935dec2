package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"poeroll/internal/components/cliutil"
	"poeroll/internal/components/telemetry"
	"poeroll/internal/filter"
	"poeroll/internal/locale"
	"poeroll/internal/roller"
	"poeroll/internal/store"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	rollAscendancies *int
	rollGems         *int
	rollInclude      *[]string
	rollExclude      *[]string
)

func init() {
	rollAscendancies = rollCmd.PersistentFlags().IntP("ascendancies", "a", 1, "Number of ascendancies to roll.")
	rollGems = rollCmd.PersistentFlags().IntP("gems", "g", 1, "Number of skill gems to roll.")
	rollInclude = rollCmd.PersistentFlags().StringArrayP("include", "i", nil, "Only roll gems whose tags contain this text, repeatable.")
	rollExclude = rollCmd.PersistentFlags().StringArrayP("exclude", "x", nil, "Never roll gems whose tags contain this text, repeatable.")

	rollCmd.AddCommand(rollAscendancyCmd)
	rollCmd.AddCommand(rollGemsCmd)
	rootCmd.AddCommand(rollCmd)
}

func rulesFromFlags() *filter.Rules {
	rules := &filter.Rules{}
	for _, tag := range *rollInclude {
		rules.Add(tag, filter.Include)
	}
	for _, tag := range *rollExclude {
		rules.Add(tag, filter.Exclude)
	}
	return rules
}

// warnUnknownTags points out rules that cannot match anything stored, the
// roll still happens.
func warnUnknownTags(ctx context.Context, st *store.Store, rules *filter.Rules) {
	if rules.Len() == 0 {
		return
	}
	known, err := st.ListDistinctTags(ctx)
	if err != nil || len(known) == 0 {
		return
	}
	for _, unknown := range rules.Validate(known) {
		slog.Warn(unknown.String())
	}
}

func runRoll(ctx context.Context, req roller.Request) {
	cfg := loadConfig()
	msg := cfg.Lang.Messages()

	tel := telemetry.SlogAPI{}
	st := openStore(ctx, cfg, tel)
	defer st.Close()

	if req.Rules != nil {
		warnUnknownTags(ctx, st, req.Rules)
	}

	result, err := roller.New(st, tel).Roll(ctx, req)
	if err != nil {
		cliutil.Fatal("failed to roll", err)
	}
	if result.NoData {
		fmt.Println(msg.NoData)
		return
	}

	printRoll(msg, req, result)
}

func printRoll(msg locale.Messages, req roller.Request, result roller.Result) {
	if req.Ascendancies > 0 {
		t := cliutil.NewTable()
		t.AppendHeader(table.Row{msg.ColAscendancy})
		for _, name := range result.Ascendancies {
			t.AppendRow(table.Row{name})
		}
		t.Render()
	}

	if req.Gems > 0 {
		if req.Rules != nil && req.Rules.Len() > 0 {
			t := cliutil.NewTable()
			t.AppendHeader(table.Row{msg.ColRule, msg.ColTag})
			for _, rule := range req.Rules.List() {
				label := msg.RuleInclude
				if rule.Kind == filter.Exclude {
					label = msg.RuleExclude
				}
				t.AppendRow(table.Row{label, rule.Tag})
			}
			t.Render()
		}

		if len(result.Gems) == 0 {
			fmt.Println(msg.NoMatch)
			return
		}

		t := cliutil.NewTable()
		t.AppendHeader(table.Row{msg.ColGem, msg.ColTags, "Link"})
		for _, gem := range result.Gems {
			t.AppendRow(table.Row{gem.Name, strings.Join(gem.Tags, ", "), gem.Link})
		}
		t.Render()
		fmt.Printf(msg.Rolled+"\n", len(result.Gems))
	}
}

var rollCmd = &cobra.Command{
	Use:   "roll [-a count] [-g count] [-i tag]... [-x tag]...",
	Short: "Rolls ascendancies and skill gems together.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runRoll(cmd.Context(), roller.Request{
			Ascendancies: *rollAscendancies,
			Gems:         *rollGems,
			Rules:        rulesFromFlags(),
		})
	},
}

var rollAscendancyCmd = &cobra.Command{
	Use:   "ascendancy [-a count]",
	Short: "Rolls only ascendancies.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runRoll(cmd.Context(), roller.Request{Ascendancies: *rollAscendancies})
	},
}

var rollGemsCmd = &cobra.Command{
	Use:   "gems [-g count] [-i tag]... [-x tag]...",
	Short: "Rolls only skill gems.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runRoll(cmd.Context(), roller.Request{
			Gems:  *rollGems,
			Rules: rulesFromFlags(),
		})
	},
}
