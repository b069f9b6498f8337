// Package crawler drives the authenticated hunt across the target site.
//
// # Architecture
//
// The package is built around the Spider type, which owns one crawl:
// it logs in once, seeds the frontier with the landing page's profile
// links, and then runs a fixed pool of workers that drain the frontier
// until the flag quota is met or no work remains.
//
//   - Session: the internally synchronized state every worker shares;
//     its operations (TryClaim, AddFlag, Stopped) are the atomic
//     contract, claims happening atomically at dequeue time so no URL
//     is ever fetched twice
//   - Frontier: a blocking FIFO of profile paths with active-task
//     accounting, so workers can tell "queue momentarily empty" apart
//     from "crawl finished"
//   - Scanner: fixed-anchor text extraction for flags, profile links,
//     and the pagination marker
//   - Spider: login bootstrap plus the worker pool
//
// # Scanning is a markup contract, not parsing
//
// Design decision: pages are scanned with narrow text anchors rather
// than an HTML parser because the extraction targets are a contract
// with one specific site: a class marker for flags, one list block for
// links, one navigation block for the "next" marker. A DOM would add
// surface without adding correctness, and the fragility stays visible
// instead of hiding behind a parser that implies generality.
package crawler
