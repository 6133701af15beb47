package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdBackfill() *cli.Command {
	var userIDs []string
	var st stack

	flags := []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "user-id",
			Aliases:     []string{"u"},
			Usage:       "User ID whose pending embeddings are generated (repeatable)",
			Required:    true,
			Destination: &userIDs,
		},
	}
	flags = append(flags, st.Flags()...)

	return &cli.Command{
		Name:  "backfill",
		Usage: "Generate embeddings for memories stored without one",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closer, err := st.build(ctx)
			if err != nil {
				return err
			}
			defer closer()

			for _, userID := range userIDs {
				result, err := uc.Backfill.Run(ctx, userID)
				if err != nil {
					return goerr.Wrap(err, "backfill failed", goerr.V("user_id", userID))
				}
				fmt.Fprintf(c.Root().Writer, "%s: processed=%d updated=%d failed=%d\n",
					userID, result.Processed, result.Updated, result.Failed)
			}
			return nil
		},
	}
}
