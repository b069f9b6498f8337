package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/nao1215/flaghunt/internal/protocol"
	"golang.org/x/sync/errgroup"
)

// Defaults for the target site's layout and the pool shape. The paths
// are part of the site contract, like the scanner's markup anchors.
const (
	defaultWorkers   = 5
	defaultFlagQuota = 5
	defaultEntryPath = "/fakebook/"
	defaultLoginPath = "/accounts/login/"
)

// Spider drives the hunt. It owns the worker pool, the frontier, the
// shared session state, and the page scanner, and talks to the target
// exclusively through the protocol client.
//
// Design decisions:
//  1. Abandonment (403/404, redirects off the target host) skips the
//     one profile and the crawl moves on. Any other fetch failure is
//     fatal for the whole run, because it means the session or the
//     server is broken and every worker would hit the same wall.
//  2. Friends-list pagination happens inline under the worker that
//     claimed the profile, not through the frontier, so a profile and
//     its friends pages are always fetched by one goroutine in order.
type Spider struct {
	client    *protocol.Client
	session   *Session
	frontier  *Frontier
	scanner   *Scanner
	workers   int
	quota     int
	entryPath string
	loginPath string
	username  string
	password  string
	logger    *slog.Logger
}

// SpiderOption changes the Spider configuration.
type SpiderOption func(*Spider)

// WithWorkers sets the number of crawl workers.
func WithWorkers(n int) SpiderOption {
	return func(s *Spider) {
		s.workers = n
	}
}

// WithFlagQuota sets how many distinct flags end the hunt.
func WithFlagQuota(n int) SpiderOption {
	return func(s *Spider) {
		s.quota = n
	}
}

// WithEntryPath sets the site entry path. It doubles as the path
// namespace links must live under to be crawled.
func WithEntryPath(path string) SpiderOption {
	return func(s *Spider) {
		s.entryPath = path
	}
}

// WithLoginPath sets the login form path.
func WithLoginPath(path string) SpiderOption {
	return func(s *Spider) {
		s.loginPath = path
	}
}

// WithSpiderLogger sets the logger for crawl progress.
func WithSpiderLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// NewSpider creates a Spider that authenticates as username/password
// through client.
func NewSpider(client *protocol.Client, username, password string, opts ...SpiderOption) *Spider {
	s := &Spider{
		client:    client,
		workers:   defaultWorkers,
		quota:     defaultFlagQuota,
		entryPath: defaultEntryPath,
		loginPath: defaultLoginPath,
		username:  username,
		password:  password,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.session = NewSession(s.quota)
	s.frontier = NewFrontier()
	s.scanner = NewScanner(client.Host(), s.entryPath)
	return s
}

// Hunt is the full run: log in, then crawl until the quota is filled
// or the frontier drains.
func (s *Spider) Hunt(ctx context.Context) error {
	if err := s.Login(ctx); err != nil {
		return err
	}
	return s.Crawl(ctx)
}

// Crawl runs the worker pool over the frontier seeded by Login. It
// returns when the frontier drains, the flag quota is reached, or ctx
// is canceled.
func (s *Spider) Crawl(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	// Turn cancellation into a frontier stop so workers blocked in
	// Next wake up. gctx is also done once Wait returns, which ends
	// this goroutine after a normal drain.
	go func() {
		<-gctx.Done()
		s.frontier.Stop()
	}()

	s.logger.Debug("starting workers", "workers", s.workers)
	for range s.workers {
		g.Go(func() error {
			return s.work(gctx)
		})
	}

	err := g.Wait()
	s.frontier.Stop()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// work pulls paths off the frontier until it reports done. Claim
// bookkeeping happens inside process; TaskDone runs regardless of the
// outcome so the frontier's active count stays balanced.
func (s *Spider) work(ctx context.Context) error {
	for {
		path, ok := s.frontier.Next()
		if !ok {
			return nil
		}
		err := s.process(ctx, path)
		s.frontier.TaskDone()
		if err != nil {
			return err
		}
	}
}

// process claims path, fetches it, harvests it, and walks the friend
// list behind it. A profile's friends list is a separate resource, so
// friends/1/ is always fetched after the profile page; every page past
// the first is gated on the "next" marker in the navigation block of
// the friends page before it. A profile without a friends list answers
// the friends/1/ probe with a 404, which the policy layer abandons.
func (s *Spider) process(ctx context.Context, path string) error {
	if !s.session.TryClaim(path) {
		return nil
	}
	if s.session.Stopped() {
		return nil
	}

	body, ok, err := s.fetch(ctx, path)
	if err != nil || !ok {
		return err
	}
	s.harvest(body)

	// The claimed path may itself be a friends page that arrived
	// through the frontier as an ordinary link. Pagination then
	// resumes from its own number; friends paths never nest.
	base, page, isFriends := splitFriendsPath(path)
	if !isFriends {
		base, page = strings.TrimSuffix(path, "/")+"/", 0
	}

	for page == 0 || s.scanner.HasNextPage(body) {
		page++
		if s.session.Stopped() {
			return nil
		}
		next := fmt.Sprintf("%sfriends/%d/", base, page)
		if !s.session.TryClaim(next) {
			// Another worker owns this friends chain.
			return nil
		}
		body, ok, err = s.fetch(ctx, next)
		if err != nil || !ok {
			return err
		}
		s.harvest(body)
	}
	return nil
}

// splitFriendsPath splits a friends-list path into the profile base it
// hangs off (trailing slash kept) and its page number. ok is false for
// any other path shape.
func splitFriendsPath(path string) (base string, page int, ok bool) {
	trimmed := strings.TrimSuffix(path, "/")
	i := strings.LastIndexByte(trimmed, '/')
	if i < 0 {
		return "", 0, false
	}
	page, err := strconv.Atoi(trimmed[i+1:])
	if err != nil || page < 1 {
		return "", 0, false
	}
	head := trimmed[:i]
	if !strings.HasSuffix(head, "/friends") {
		return "", 0, false
	}
	return strings.TrimSuffix(head, "friends"), page, true
}

// fetch runs one policy-governed GET. ok is false when the path was
// abandoned, which the caller treats as a silent skip.
func (s *Spider) fetch(ctx context.Context, path string) (body string, ok bool, err error) {
	resp, err := s.client.Get(ctx, path)
	if err != nil {
		if errors.Is(err, protocol.ErrAbandoned) {
			s.logger.Debug("page abandoned", "path", path)
			return "", false, nil
		}
		return "", false, fmt.Errorf("fetch %s: %w", path, err)
	}
	return resp.Body, true, nil
}

// harvest records the page's flags and feeds its unvisited links to
// the frontier. Filling the quota stops the frontier, which drains
// every blocked worker.
func (s *Spider) harvest(page string) {
	for _, flag := range s.scanner.Flags(page) {
		added, done := s.session.AddFlag(flag)
		if added {
			s.logger.Info("flag captured", "flag", flag)
		}
		if done {
			if added {
				s.logger.Info("flag quota reached, stopping crawl")
			}
			s.frontier.Stop()
			return
		}
	}

	if s.session.Stopped() {
		return
	}
	for _, link := range s.scanner.Links(page) {
		if s.session.Visited(link) {
			continue
		}
		s.frontier.Push(link)
	}
}

// Flags returns the captured flags in capture order.
func (s *Spider) Flags() []string {
	return s.session.Flags()
}

// Workers returns the size of the worker pool.
func (s *Spider) Workers() int {
	return s.workers
}

// FlagQuota returns how many distinct flags end the hunt.
func (s *Spider) FlagQuota() int {
	return s.quota
}

// QuotaReached reports whether the hunt ended by filling the quota.
func (s *Spider) QuotaReached() bool {
	return s.session.QuotaReached()
}

// VisitedCount returns how many distinct paths were claimed.
func (s *Spider) VisitedCount() int {
	return s.session.VisitedCount()
}

// Stats returns the protocol client's exchange counters.
func (s *Spider) Stats() protocol.Stats {
	return s.client.Stats()
}
