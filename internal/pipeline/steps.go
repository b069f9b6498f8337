package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/flaghunt/internal/crawler"
	"github.com/nao1215/flaghunt/internal/model"
	"github.com/nao1215/flaghunt/internal/protocol"
)

// ProbeStep verifies that the target server is reachable and speaks
// HTTP over TLS before the hunt invests in a login.
//
// Design decision: The probe fetches the server root rather than
// opening a bare connection because a TCP accept proves nothing about
// the stack above it. Any classified HTTP outcome counts as alive:
// a 2xx, an abandoned 403/404, or an unexpected-but-parseable status
// all mean a server answered in protocol. Only transport-level
// failures fail the probe.
type ProbeStep struct {
	// client performs the probe exchange.
	client *protocol.Client

	// logger for structured logging.
	logger *slog.Logger
}

// ProbeStepOption configures a ProbeStep.
type ProbeStepOption func(*ProbeStep)

// WithProbeLogger sets a custom logger for the probe step.
func WithProbeLogger(logger *slog.Logger) ProbeStepOption {
	return func(s *ProbeStep) {
		s.logger = logger
	}
}

// NewProbeStep creates a reachability probe using the given client.
func NewProbeStep(client *protocol.Client, opts ...ProbeStepOption) *ProbeStep {
	s := &ProbeStep{
		client: client,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ProbeStep) Name() string {
	return "probe"
}

// Do executes the probe. Cookies collected along the way (the site
// hands out its CSRF cookie on the pre-login redirect chain) stay in
// the client's jar and shorten the login that follows.
func (s *ProbeStep) Do(ctx context.Context, _ *model.CrawlReport) error {
	_, err := s.client.Get(ctx, "/")
	if err == nil || errors.Is(err, protocol.ErrAbandoned) {
		s.logger.Debug("target reachable", "host", s.client.Host())
		return nil
	}

	var statusErr *protocol.StatusError
	if errors.As(err, &statusErr) {
		// The server answered in protocol; whatever it thinks of "/"
		// is the login flow's problem, not the probe's.
		s.logger.Debug("target reachable", "host", s.client.Host(), "status", statusErr.Code)
		return nil
	}

	return fmt.Errorf("target unreachable: %w", err)
}

// LoginStep performs the session bootstrap: redirect chain to the
// login form, CSRF token lift, credential POST, and frontier seeding
// from the landing page.
type LoginStep struct {
	// spider owns the session being bootstrapped.
	spider *crawler.Spider

	// logger for structured logging.
	logger *slog.Logger
}

// LoginStepOption configures a LoginStep.
type LoginStepOption func(*LoginStep)

// WithLoginLogger sets a custom logger for the login step.
func WithLoginLogger(logger *slog.Logger) LoginStepOption {
	return func(s *LoginStep) {
		s.logger = logger
	}
}

// NewLoginStep creates the bootstrap step for the given spider.
func NewLoginStep(spider *crawler.Spider, opts ...LoginStepOption) *LoginStep {
	s := &LoginStep{
		spider: spider,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *LoginStep) Name() string {
	return "login"
}

// Do executes the login. Failure here is fatal to the hunt: without a
// session every profile fetch would bounce off the login wall.
func (s *LoginStep) Do(ctx context.Context, _ *model.CrawlReport) error {
	return s.spider.Login(ctx)
}

// CrawlStep drains the frontier with the spider's worker pool and
// folds the outcome into the report: the captured flags, the exchange
// counters, and the termination reason.
type CrawlStep struct {
	// spider runs the crawl.
	spider *crawler.Spider

	// logger for structured logging.
	logger *slog.Logger
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithCrawlLogger sets a custom logger for the crawl step.
func WithCrawlLogger(logger *slog.Logger) CrawlStepOption {
	return func(s *CrawlStep) {
		s.logger = logger
	}
}

// NewCrawlStep creates the crawl step for the given spider.
func NewCrawlStep(spider *crawler.Spider, opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
		spider: spider,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do executes the crawl and fills in the report. The report is
// populated even when the crawl errors, so a failed run still records
// how far it got before dying.
func (s *CrawlStep) Do(ctx context.Context, report *model.CrawlReport) error {
	err := s.spider.Crawl(ctx)

	report.Flags = s.spider.Flags()
	report.PagesVisited = s.spider.VisitedCount()
	report.Workers = s.spider.Workers()
	report.FlagQuota = s.spider.FlagQuota()

	stats := s.spider.Stats()
	report.Fetches = stats.Fetches
	report.Retries = stats.Retries
	report.Redirects = stats.Redirects
	report.Abandoned = stats.Abandoned

	if err != nil {
		report.Finish(model.TerminationError)
		return fmt.Errorf("crawl: %w", err)
	}

	if s.spider.QuotaReached() {
		report.Finish(model.TerminationQuota)
	} else {
		report.Finish(model.TerminationExhausted)
		s.logger.Warn("frontier exhausted before quota",
			"flags", len(report.Flags),
			"quota", report.FlagQuota,
		)
	}

	s.logger.Info("crawl finished",
		"termination", report.Termination,
		"flags", len(report.Flags),
		"pages", report.PagesVisited,
		"duration", report.Duration,
	)

	return nil
}

// HuntPipeline assembles the standard hunt: probe, login, crawl.
//
// Design decision: We provide a canned pipeline because every caller
// wants the same three stages in the same order; assembling them by
// hand in the CLI would just be boilerplate with room for mistakes.
func HuntPipeline(client *protocol.Client, spider *crawler.Spider, opts ...Option) *Pipeline {
	p := New(opts...)

	p.AddSteps(
		NewProbeStep(client, WithProbeLogger(p.logger)),
		NewLoginStep(spider, WithLoginLogger(p.logger)),
		NewCrawlStep(spider, WithCrawlLogger(p.logger)),
	)

	return p
}
