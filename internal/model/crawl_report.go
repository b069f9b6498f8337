package model

import (
	"net"
	"strconv"
	"time"
)

// Termination names the way a hunt ended.
type Termination string

const (
	// TerminationQuota means the flag quota was filled.
	TerminationQuota Termination = "quota"

	// TerminationExhausted means the frontier drained before the
	// quota was filled. The site simply held fewer flags than asked
	// for, or some of them sat behind abandoned pages.
	TerminationExhausted Termination = "exhausted"

	// TerminationError means the hunt died on an error before it
	// could finish.
	TerminationError Termination = "error"
)

// CrawlReport is the result of one hunt: the flags it captured plus
// the counters needed to judge the run.
//
// Design decision: We use a single flat struct rather than per-concern
// sub-structs because the report writers and the history database
// serialize it in one piece, and a hunt produces little enough data
// that grouping would only add indirection.
type CrawlReport struct {
	// === Target ===

	// Server is the crawled hostname.
	Server string `json:"server" yaml:"server"`

	// Port is the TCP port the crawl spoke TLS on.
	Port int `json:"port" yaml:"port"`

	// Username is the account the crawl authenticated as.
	Username string `json:"username" yaml:"username"`

	// === Timing ===

	// StartedAt is when the hunt began.
	StartedAt time.Time `json:"started_at" yaml:"started_at"`

	// Duration is the wall-clock length of the hunt.
	Duration time.Duration `json:"duration_ns" yaml:"duration_ns"`

	// === Results ===

	// Flags holds the captured flags in capture order.
	Flags []string `json:"flags" yaml:"flags"`

	// FlagQuota is how many distinct flags the hunt was after.
	FlagQuota int `json:"flag_quota" yaml:"flag_quota"`

	// Termination tells why the hunt ended.
	Termination Termination `json:"termination" yaml:"termination"`

	// === Counters ===

	// PagesVisited is the number of distinct paths claimed by the
	// crawl.
	PagesVisited int `json:"pages_visited" yaml:"pages_visited"`

	// Fetches is the number of exchanges that reached a 2xx.
	Fetches int64 `json:"fetches" yaml:"fetches"`

	// Retries is the number of 503 retries performed.
	Retries int64 `json:"retries" yaml:"retries"`

	// Redirects is the number of redirects followed.
	Redirects int64 `json:"redirects" yaml:"redirects"`

	// Abandoned is the number of paths given up on after a 403, a
	// 404, or a redirect off the target host.
	Abandoned int64 `json:"abandoned" yaml:"abandoned"`

	// Workers is the size of the worker pool used.
	Workers int `json:"workers" yaml:"workers"`

	// === Run State ===

	// Error contains any error that ended the hunt early.
	Error error `json:"-" yaml:"-"` // Excluded from serialization

	// ErrorMessage is the string representation of Error for
	// serialization.
	ErrorMessage string `json:"error,omitempty" yaml:"error,omitempty"` //nolint:tagliatelle // error is conventional
}

// NewCrawlReport creates a report for a hunt against the given target
// with the clock already running.
func NewCrawlReport(server string, port int, username string) *CrawlReport {
	return &CrawlReport{
		Server:    server,
		Port:      port,
		Username:  username,
		StartedAt: time.Now(),
		Flags:     make([]string, 0),
	}
}

// Target returns the host:port form of the crawled site.
func (r *CrawlReport) Target() string {
	return net.JoinHostPort(r.Server, strconv.Itoa(r.Port))
}

// Finish stamps the duration and the termination reason.
func (r *CrawlReport) Finish(termination Termination) {
	r.Duration = time.Since(r.StartedAt)
	r.Termination = termination
}

// SetError records the error that ended the hunt and marks the
// termination accordingly.
func (r *CrawlReport) SetError(err error) {
	r.Error = err
	if err != nil {
		r.ErrorMessage = err.Error()
		r.Termination = TerminationError
	}
}

// QuotaReached reports whether the hunt captured as many flags as it
// was after.
func (r *CrawlReport) QuotaReached() bool {
	return r.FlagQuota > 0 && len(r.Flags) >= r.FlagQuota
}
