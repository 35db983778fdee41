package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	dbfx "funda-listing-notifier/db/fx"
	appfx "funda-listing-notifier/internal/app/fx"
	"funda-listing-notifier/internal/envutil"
	"funda-listing-notifier/internal/fetch"
	"funda-listing-notifier/internal/mail"
	"funda-listing-notifier/internal/pipeline"
	"funda-listing-notifier/internal/store"
)

func newRootCmd() *cobra.Command {
	var (
		dryRun    bool
		targetURL string
	)

	rootCmd := &cobra.Command{
		Use:           "notifier",
		Short:         "Scrape the configured Funda page once and email new listings",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := runCycle(cmd.Context(), pipeline.RunOptions{
				DryRun:    dryRun,
				TargetURL: targetURL,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"fetched=%d inserted=%d notified=%d run_id=%s\n",
				res.Fetched, res.Inserted, res.Notified, res.RunID,
			)
			return nil
		},
	}

	rootCmd.Flags().BoolVar(&dryRun, "dry-run",
		envutil.Bool(os.Getenv, "NOTIFIER_DRY_RUN", false),
		"Log the would-be email instead of sending it")
	rootCmd.Flags().StringVar(&targetURL, "target-url",
		envutil.String(os.Getenv, "NOTIFIER_TARGET_URL", ""),
		"Listing page to scrape (overrides FUNDA_URL)")

	return rootCmd
}

// runCycle wires the collaborators through fx and executes one pipeline
// cycle inside an OnStart hook, so the store connection gets the same
// lifecycle management as the long-running server.
func runCycle(ctx context.Context, opts pipeline.RunOptions) (pipeline.Result, error) {
	var res pipeline.Result

	app := fx.New(
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
		appfx.CoreAppOptions,
		dbfx.Module,
		fx.Provide(
			fetch.NewScraperAPIClient,
			store.NewListingStore,
			mail.NewSMTPMailer,
			func(c *fetch.ScraperAPIClient) pipeline.Fetcher { return c },
			func(s *store.ListingStore) pipeline.Store { return s },
			func(m *mail.SMTPMailer) pipeline.Mailer { return m },
			pipeline.NewPipeline,
		),
		fx.Invoke(func(lc fx.Lifecycle, p *pipeline.Pipeline) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					out, err := p.Run(ctx, opts)
					res = out
					return err
				},
			})
		}),
	)

	startCtx, startCancel := context.WithTimeout(ctx, 5*time.Minute)
	defer startCancel()
	if err := app.Start(startCtx); err != nil {
		return res, err
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		return res, err
	}

	return res, nil
}
