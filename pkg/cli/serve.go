package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	httpctrl "github.com/secmon-lab/mnemos/pkg/controller/http"
	"github.com/secmon-lab/mnemos/pkg/service/worker"
	"github.com/secmon-lab/mnemos/pkg/usecase"
	"github.com/secmon-lab/mnemos/pkg/utils/async"
	"github.com/secmon-lab/mnemos/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var enableMetrics bool
	var backfillUsers []string
	var backfillInterval time.Duration
	var st stack

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("MNEMOS_ADDR"),
			Destination: &addr,
		},
		&cli.BoolFlag{
			Name:        "metrics",
			Usage:       "Expose Prometheus metrics at /metrics",
			Value:       true,
			Sources:     cli.EnvVars("MNEMOS_METRICS"),
			Destination: &enableMetrics,
		},
		&cli.StringSliceFlag{
			Name:        "backfill-users",
			Usage:       "User IDs whose pending embeddings are backfilled periodically",
			Category:    "Backfill",
			Sources:     cli.EnvVars("MNEMOS_BACKFILL_USERS"),
			Destination: &backfillUsers,
		},
		&cli.DurationFlag{
			Name:        "backfill-interval",
			Usage:       "Interval of the background embedding backfill (0 disables it)",
			Category:    "Backfill",
			Value:       0,
			Sources:     cli.EnvVars("MNEMOS_BACKFILL_INTERVAL"),
			Destination: &backfillInterval,
		},
	}
	flags = append(flags, st.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closer, err := st.build(ctx)
			if err != nil {
				return err
			}
			defer closer()

			var backfillWorker *worker.BackfillWorker
			if backfillInterval > 0 && len(backfillUsers) > 0 {
				backfillWorker = worker.NewBackfillWorker(backfillUsers, backfillFunc(uc), backfillInterval)
				if err := backfillWorker.Start(ctx); err != nil {
					return goerr.Wrap(err, "failed to start backfill worker")
				}
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc, httpctrl.WithMetrics(enableMetrics)),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr, "metrics", enableMetrics)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				if backfillWorker != nil {
					backfillWorker.Stop()
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}
				if err := async.Wait(shutdownCtx); err != nil {
					logging.Default().Warn("Background tasks still running at shutdown", "error", err.Error())
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}

func backfillFunc(uc *usecase.UseCases) worker.BackfillFunc {
	return func(ctx context.Context, userID string) error {
		result, err := uc.Backfill.Run(ctx, userID)
		if err != nil {
			return err
		}
		logging.From(ctx).Info("Backfill completed",
			"user_id", userID,
			"processed", result.Processed,
			"updated", result.Updated,
			"failed", result.Failed,
		)
		return nil
	}
}
