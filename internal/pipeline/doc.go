// Package pipeline orders the phases of a hunt.
//
// A hunt runs through three stages: a reachability probe, the login
// bootstrap, and the concurrent crawl. Each stage is a Step that
// receives the accumulating CrawlReport, and the Pipeline executes
// them in order with consistent logging and cancellation handling.
//
// Design decision: We use a pipeline pattern instead of direct function
// calls because:
// 1. It allows easy addition/removal of stages without modifying core logic
// 2. It provides consistent error handling and logging across stages
// 3. It supports cancellation via context between stages
//
// The package also provides BatchRunner, which hunts several credential
// sets concurrently with a bounded degree of parallelism via errgroup.
package pipeline
