package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemos/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

func cmdRelated() *cli.Command {
	var userID string
	var memoryID string
	var similarLimit int
	var st stack

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "user-id",
			Aliases:     []string{"u"},
			Usage:       "Owner of the memory",
			Required:    true,
			Destination: &userID,
		},
		&cli.StringFlag{
			Name:        "memory-id",
			Aliases:     []string{"m"},
			Usage:       "Memory to find neighbours of",
			Required:    true,
			Destination: &memoryID,
		},
		&cli.IntFlag{
			Name:        "similar",
			Usage:       "Also list this many nearest memories by embedding (0 disables)",
			Value:       0,
			Destination: &similarLimit,
		},
	}
	flags = append(flags, st.Flags()...)

	return &cli.Command{
		Name:  "related",
		Usage: "List memories related to a given memory",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closer, err := st.build(ctx)
			if err != nil {
				return err
			}
			defer closer()

			id := model.MemoryID(memoryID)
			related, err := uc.Insight.FindRelated(ctx, userID, id)
			if err != nil {
				return goerr.Wrap(err, "failed to find related memories")
			}
			printMemories(c.Root().Writer, "related", related)

			if similarLimit > 0 {
				similar, err := uc.Insight.FindSimilar(ctx, userID, id, similarLimit)
				if err != nil {
					return goerr.Wrap(err, "failed to find similar memories")
				}
				printMemories(c.Root().Writer, "similar", similar)
			}
			return nil
		},
	}
}

func printMemories(w io.Writer, title string, memories []*model.Memory) {
	color.New(color.Bold).Fprintf(w, "%s (%d)\n", title, len(memories))
	for _, m := range memories {
		fmt.Fprintf(w, "  - [%s] %s (%.2f) %s\n", m.Category, m.Fact, m.Confidence, m.ID)
	}
}
