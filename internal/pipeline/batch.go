package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/flaghunt/internal/config"
	"github.com/nao1215/flaghunt/internal/model"
	"golang.org/x/sync/errgroup"
)

// BatchRunner hunts several credential sets concurrently.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: We use a separate BatchRunner rather than adding
// batch functionality to Pipeline because:
// 1. It keeps the Pipeline focused on single-hunt execution
// 2. Each credential set needs its own pipeline and, critically, its
//    own cookie jar; the factory makes that isolation structural
// 3. It provides cleaner separation of concerns
type BatchRunner struct {
	// server and port identify the target every hunt runs against.
	server string
	port   int

	// pipelineFactory creates a fresh pipeline for one credential set.
	// Fresh means fresh everything: session state from one account must
	// never leak into another account's hunt.
	pipelineFactory func(cred config.Credential) *Pipeline

	// concurrency is the maximum number of concurrent hunts.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchRunner.
type BatchOption func(*BatchRunner)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchRunner) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent hunts.
// Default is 3 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchRunner) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchRunner creates a BatchRunner for the given target.
//
// The pipelineFactory is called once per credential set to create a
// fresh pipeline instance, ensuring no session state leaks between
// hunts.
func NewBatchRunner(server string, port int, pipelineFactory func(cred config.Credential) *Pipeline, opts ...BatchOption) *BatchRunner {
	br := &BatchRunner{
		server:          server,
		port:            port,
		pipelineFactory: pipelineFactory,
		concurrency:     config.DefaultBatchSize,
	}

	for _, opt := range opts {
		opt(br)
	}

	if br.logger == nil {
		br.logger = slog.Default()
	}

	return br
}

// Run hunts all credential sets and returns one report per set, in
// input order.
//
// Design decision: We use errgroup.SetLimit rather than a hand-rolled
// worker pool because errgroup handles the bookkeeping correctly and
// each hunt already parallelizes internally; the limit here only
// bounds how many accounts are in flight at once.
//
// A failed hunt does not abort the batch: its error is recorded in
// its report and the other hunts continue. The error return is
// reserved for batch-level cancellation.
func (br *BatchRunner) Run(ctx context.Context, creds []config.Credential) ([]*model.CrawlReport, error) {
	br.logger.Info("starting batch hunt",
		"accounts", len(creds),
		"concurrency", br.concurrency,
	)

	startTime := time.Now()

	// Results are indexed by input position so output order never
	// depends on completion order.
	results := make([]*model.CrawlReport, len(creds))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(br.concurrency)

	for i, cred := range creds {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			br.logger.Info("hunting",
				"username", cred.Username,
				"index", i+1,
				"total", len(creds),
			)

			report := model.NewCrawlReport(br.server, br.port, cred.Username)
			p := br.pipelineFactory(cred)

			if err := p.Execute(ctx, report); err != nil {
				// The error is already recorded in the report; the
				// batch keeps going for the other accounts.
				br.logger.Warn("hunt failed",
					"username", cred.Username,
					"error", err,
				)
			}
			results[i] = report

			return nil
		})
	}

	err := g.Wait()

	br.logger.Info("batch hunt complete",
		"accounts", len(creds),
		"elapsed", time.Since(startTime),
	)

	return results, err
}
