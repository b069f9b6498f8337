package crawler

import "sync"

// Session is the mutable state one hunt shares across all its workers:
// the visited set, the flag list, and the stop signal. Every operation
// is atomic under one mutex; callers hold no locks and see no internal
// mechanics.
//
// The stop signal is monotonic. Once raised (quota met or externally
// stopped) it is never cleared, and workers observe it between units of
// work: an in-flight fetch finishes, a new one never starts.
type Session struct {
	mu      sync.Mutex
	visited map[string]struct{}
	flags   []string
	seen    map[string]struct{}
	quota   int

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewSession creates session state for one hunt. quota is the number
// of distinct flags that raises the stop signal.
func NewSession(quota int) *Session {
	return &Session{
		visited: make(map[string]struct{}),
		seen:    make(map[string]struct{}),
		quota:   quota,
		stopCh:  make(chan struct{}),
	}
}

// TryClaim atomically tests and sets visited membership for url.
// Exactly one caller ever gets true for a given url, which makes the
// dequeue-then-mark sequence safe even when the same url sits in the
// frontier multiple times.
func (s *Session) TryClaim(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.visited[url]; ok {
		return false
	}
	s.visited[url] = struct{}{}
	return true
}

// Visited reports whether url has been claimed. Producers use it as a
// cheap pre-filter before enqueueing; the authoritative check remains
// TryClaim at dequeue time.
func (s *Session) Visited(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.visited[url]
	return ok
}

// VisitedCount reports how many URLs have been claimed.
func (s *Session) VisitedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visited)
}

// AddFlag appends a newly discovered flag. Duplicates are ignored, and
// nothing is recorded once the quota is met. added reports whether the
// flag went in; quotaReached reports whether this call was the one that
// filled the quota, in which case the stop signal has been raised.
func (s *Session) AddFlag(flag string) (added, quotaReached bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.flags) >= s.quota {
		return false, false
	}
	if _, dup := s.seen[flag]; dup {
		return false, false
	}

	s.seen[flag] = struct{}{}
	s.flags = append(s.flags, flag)

	if len(s.flags) == s.quota {
		s.stop()
		return true, true
	}
	return true, false
}

// Flags returns the discovered flags in discovery order.
func (s *Session) Flags() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.flags))
	copy(out, s.flags)
	return out
}

// QuotaReached reports whether the flag quota has been met.
func (s *Session) QuotaReached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.flags) >= s.quota
}

// Stop raises the stop signal. Idempotent.
func (s *Session) Stop() {
	s.stop()
}

// stop closes the stop channel exactly once. Safe to call with or
// without the mutex held; sync.Once carries the idempotence.
func (s *Session) stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}

// Stopped reports whether the stop signal has been raised.
func (s *Session) Stopped() bool {
	select {
	case <-s.stopCh:
		return true
	default:
		return false
	}
}

// Done exposes the stop signal for select loops.
func (s *Session) Done() <-chan struct{} {
	return s.stopCh
}
