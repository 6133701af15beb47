package cli

import (
	"context"

	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemos/pkg/cli/config"
	"github.com/secmon-lab/mnemos/pkg/utils/logging"
	"github.com/secmon-lab/mnemos/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdMigrate() *cli.Command {
	var projectID string
	var databaseID string
	var dryRun bool
	var engine config.Engine

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Firestore Project ID (required)",
			Required:    true,
			Sources:     cli.EnvVars("MNEMOS_FIRESTORE_PROJECT_ID"),
			Destination: &projectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore Database ID",
			Sources:     cli.EnvVars("MNEMOS_FIRESTORE_DATABASE_ID"),
			Destination: &databaseID,
		},
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "Preview index changes without applying them",
			Destination: &dryRun,
		},
	}
	flags = append(flags, engine.Flags()...)

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Create Firestore indexes for memories",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			engineCfg, err := engine.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load engine configuration")
			}

			// The vector index dimension has to match what the provider returns
			indexConfig := getIndexConfig(engineCfg.EmbeddingDimension)
			logger.Info("Migrating memory indexes",
				"projectID", projectID,
				"databaseID", databaseID,
				"dimension", engineCfg.EmbeddingDimension,
				"dryRun", dryRun,
			)

			client, err := fireconf.NewClient(ctx, projectID, databaseID)
			if err != nil {
				return goerr.Wrap(err, "failed to create fireconf client",
					goerr.V("projectID", projectID),
					goerr.V("databaseID", databaseID),
				)
			}
			defer safe.Close(ctx, client, "target", "fireconf")

			if dryRun {
				plan, err := client.GetMigrationPlan(ctx, indexConfig)
				if err != nil {
					return goerr.Wrap(err, "failed to create migration plan")
				}
				if len(plan.Steps) == 0 {
					logger.Info("No index changes required")
					return nil
				}
				for i, step := range plan.Steps {
					logger.Info("Planned index change",
						"step", i+1,
						"collection", step.Collection,
						"operation", step.Operation,
						"description", step.Description,
						"destructive", step.Destructive,
					)
				}
				return nil
			}

			if err := client.Migrate(ctx, indexConfig); err != nil {
				return goerr.Wrap(err, "failed to apply index migration")
			}
			logger.Info("Memory indexes are up to date")
			return nil
		},
	}
}

// getIndexConfig describes the composite and vector indexes the memories
// subcollection needs. Collection group "memories" covers every user.
func getIndexConfig(dimension int) *fireconf.Config {
	bySource := fireconf.Index{
		Fields: []fireconf.IndexField{
			{Path: "SourceType", Order: fireconf.OrderAscending},
			{Path: "SourceID", Order: fireconf.OrderAscending},
			{Path: "CreatedAt", Order: fireconf.OrderAscending},
		},
	}
	pendingEmbedding := fireconf.Index{
		Fields: []fireconf.IndexField{
			{Path: "NeedsEmbedding", Order: fireconf.OrderAscending},
			{Path: "CreatedAt", Order: fireconf.OrderAscending},
		},
	}
	nearest := fireconf.Index{
		Fields: []fireconf.IndexField{
			{Path: "Embedding", Vector: &fireconf.VectorConfig{Dimension: dimension}},
		},
	}

	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name:    "memories",
				Indexes: []fireconf.Index{bySource, pendingEmbedding, nearest},
			},
		},
	}
}
