package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemos/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

func cmdDedup() *cli.Command {
	var userID string
	var sourceType string
	var sourceID string
	var st stack

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "user-id",
			Aliases:     []string{"u"},
			Usage:       "Owner of the memories",
			Required:    true,
			Destination: &userID,
		},
		&cli.StringFlag{
			Name:        "source-type",
			Usage:       "Source type of the memories (journal_entry, chat_message)",
			Value:       types.SourceTypeJournalEntry.String(),
			Destination: &sourceType,
		},
		&cli.StringFlag{
			Name:        "source-id",
			Usage:       "Journal entry or chat message ID",
			Required:    true,
			Destination: &sourceID,
		},
	}
	flags = append(flags, st.Flags()...)

	return &cli.Command{
		Name:  "dedup",
		Usage: "Keep only the earliest memory of a source and delete the rest",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			parsed, err := types.ParseSourceType(sourceType)
			if err != nil {
				return goerr.Wrap(err, "invalid source type")
			}

			uc, closer, err := st.build(ctx)
			if err != nil {
				return err
			}
			defer closer()

			result, err := uc.Dedup.Reconcile(ctx, userID, parsed, sourceID)
			if err != nil {
				return goerr.Wrap(err, "dedup failed")
			}

			fmt.Fprintf(c.Root().Writer, "kept=%s deleted=%d failed=%d\n",
				result.Kept, result.Deleted, result.Failed)
			return nil
		},
	}
}
