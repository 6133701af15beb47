package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemos/pkg/domain/model"
	"github.com/secmon-lab/mnemos/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

var tierColors = map[types.PatternTier]*color.Color{
	types.PatternTierEstablished: color.New(color.FgGreen, color.Bold),
	types.PatternTierRecurring:   color.New(color.FgYellow),
	types.PatternTierOneTime:     color.New(color.FgCyan),
}

func cmdAnalyze() *cli.Command {
	var userID string
	var category string
	var st stack

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "user-id",
			Aliases:     []string{"u"},
			Usage:       "User whose memories are analyzed",
			Required:    true,
			Destination: &userID,
		},
		&cli.StringFlag{
			Name:        "category",
			Aliases:     []string{"c"},
			Usage:       "Show only this category",
			Destination: &category,
		},
	}
	flags = append(flags, st.Flags()...)

	return &cli.Command{
		Name:    "analyze",
		Aliases: []string{"a"},
		Usage:   "Show per-category patterns of a user's memories",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			var only types.Category
			if category != "" {
				parsed, err := types.ParseCategory(category)
				if err != nil {
					return goerr.Wrap(err, "invalid --category")
				}
				only = parsed
			}

			uc, closer, err := st.build(ctx)
			if err != nil {
				return err
			}
			defer closer()

			insights, err := uc.Insight.AnalyzePatterns(ctx, userID)
			if err != nil {
				return goerr.Wrap(err, "failed to analyze patterns")
			}

			printInsights(c.Root().Writer, filterInsights(insights, only))
			return nil
		},
	}
}

// filterInsights keeps the insight of a single category; an empty category keeps all
func filterInsights(insights []*model.MemoryInsight, category types.Category) []*model.MemoryInsight {
	if category == "" {
		return insights
	}
	for _, insight := range insights {
		if insight.Category == category {
			return []*model.MemoryInsight{insight}
		}
	}
	return nil
}

func printInsights(w io.Writer, insights []*model.MemoryInsight) {
	if len(insights) == 0 {
		fmt.Fprintln(w, "no memories")
		return
	}

	header := color.New(color.Bold)
	for _, insight := range insights {
		header.Fprintf(w, "%s", insight.Category)
		fmt.Fprintf(w, " (%d memories, confidence %.2f, updated %s)\n",
			insight.Count(), insight.Confidence, insight.LastUpdated.Format("2006-01-02"))

		printTier(w, types.PatternTierEstablished, insight.Patterns.Established)
		printTier(w, types.PatternTierRecurring, insight.Patterns.Recurring)
		printTier(w, types.PatternTierOneTime, insight.Patterns.Emerging)
	}
}

func printTier(w io.Writer, tier types.PatternTier, memories []*model.Memory) {
	if len(memories) == 0 {
		return
	}

	c := tierColors[tier]
	c.Fprintf(w, "  %s\n", tier.DisplayName())
	for _, m := range memories {
		fmt.Fprintf(w, "    - %s (%.2f) [%s]\n", m.Fact, m.Confidence, m.ID)
	}
}
