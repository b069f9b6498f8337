package crawler

import "sync"

// Frontier is the shared work queue of profile paths. Workers both
// consume it (Next) and produce into it (Push) as pages reveal links.
//
// Next blocks while the queue is empty but work is still in flight
// somewhere, because any active worker may yet push more. The crawl is
// over only when the queue is empty and nobody is mid-task, or when
// Stop has been called; both make Next return false to every waiter.
//
// Ordering is FIFO but nothing depends on it; correctness comes from
// the visited set, not the queue. The queue itself is unbounded: the
// site's link graph is finite and small, so backpressure never enters
// the picture.
type Frontier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []string
	active  int
	stopped bool
}

// NewFrontier creates an empty frontier.
func NewFrontier() *Frontier {
	f := &Frontier{}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// Push enqueues paths. Pushes after Stop are dropped, since no worker
// will ever pop them.
func (f *Frontier) Push(paths ...string) {
	if len(paths) == 0 {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.stopped {
		return
	}
	f.queue = append(f.queue, paths...)
	f.cond.Broadcast()
}

// Next blocks until a path is available, the frontier is stopped, or
// the crawl has drained (empty queue, no active task). It returns
// ok=false in the latter two cases. On success the caller owns one
// active task and must call TaskDone when finished with it, whether or
// not the path turned out to be worth fetching.
func (f *Frontier) Next() (path string, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for {
		if f.stopped {
			return "", false
		}
		if len(f.queue) > 0 {
			path = f.queue[0]
			f.queue = f.queue[1:]
			f.active++
			return path, true
		}
		if f.active == 0 {
			// Nothing queued and nobody working: no path can ever
			// appear again.
			return "", false
		}
		f.cond.Wait()
	}
}

// TaskDone marks one dequeued task finished. When it was the last one
// and the queue is empty, every blocked worker is released to observe
// the drained state.
func (f *Frontier) TaskDone() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.active--
	if f.active == 0 && len(f.queue) == 0 {
		f.cond.Broadcast()
	}
}

// Stop makes every current and future Next return false. Idempotent.
func (f *Frontier) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.stopped = true
	f.cond.Broadcast()
}

// Len reports the number of queued paths.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}
