// Package pipeline sequences one scrape-and-notify cycle:
// fetch → stage → merge → query unnotified → notify → mark notified.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"funda-listing-notifier/config"
	"funda-listing-notifier/internal/mail"
)

type Fetcher interface {
	Fetch(ctx context.Context, targetURL string) ([]string, error)
}

type Store interface {
	Stage(ctx context.Context, urls []string) error
	Merge(ctx context.Context) (int, error)
	Unnotified(ctx context.Context) ([]string, error)
	MarkAllNotified(ctx context.Context) (int, error)
}

type Mailer interface {
	Notify(ctx context.Context, urls []string) error
}

type RunOptions struct {
	// DryRun logs the would-be email instead of sending it and leaves
	// all notified flags untouched.
	DryRun bool

	// TargetURL overrides the configured FUNDA_URL for this cycle.
	TargetURL string
}

type Result struct {
	RunID    string
	Fetched  int
	Inserted int
	Notified int
}

type Pipeline struct {
	cfg     config.Config
	fetcher Fetcher
	store   Store
	mailer  Mailer
	logger  *zap.SugaredLogger
}

type NewPipelineParams struct {
	fx.In

	Cfg     config.Config
	Fetcher Fetcher
	Store   Store
	Mailer  Mailer
	Logger  *zap.SugaredLogger
}

func NewPipeline(p NewPipelineParams) *Pipeline {
	return &Pipeline{
		cfg:     p.Cfg,
		fetcher: p.Fetcher,
		store:   p.Store,
		mailer:  p.Mailer,
		logger:  p.Logger,
	}
}

// Run executes one full cycle. Any stage error aborts the cycle and
// propagates; flags are flipped only after a successful send, so an
// aborted cycle is retried in full on the next invocation.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (Result, error) {
	res := Result{RunID: uuid.NewString()}
	log := p.logger.With("run_id", res.RunID)

	if err := p.cfg.ValidateScrape(); err != nil {
		return res, err
	}

	target := strings.TrimSpace(opts.TargetURL)
	if target == "" {
		target = strings.TrimSpace(p.cfg.FundaURL)
	}
	if target == "" {
		return res, fmt.Errorf("missing target listing page (set FUNDA_URL)")
	}

	links, err := p.fetcher.Fetch(ctx, target)
	if err != nil {
		return res, err
	}
	res.Fetched = len(links)

	if err := p.store.Stage(ctx, links); err != nil {
		return res, err
	}

	res.Inserted, err = p.store.Merge(ctx)
	if err != nil {
		return res, err
	}

	unnotified, err := p.store.Unnotified(ctx)
	if err != nil {
		return res, err
	}

	if len(unnotified) == 0 {
		log.Infow("cycle_done", "fetched", res.Fetched, "inserted", res.Inserted, "notified", 0)
		return res, nil
	}

	if opts.DryRun {
		log.Infow("dry_run_skipping_email",
			"unnotified", len(unnotified),
			"body", mail.Body(unnotified),
		)
		return res, nil
	}

	if err := p.mailer.Notify(ctx, unnotified); err != nil {
		return res, err
	}

	res.Notified, err = p.store.MarkAllNotified(ctx)
	if err != nil {
		return res, err
	}

	log.Infow("cycle_done", "fetched", res.Fetched, "inserted", res.Inserted, "notified", res.Notified)
	return res, nil
}
