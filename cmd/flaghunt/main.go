// Package main provides the entry point for the flaghunt CLI.
//
// flaghunt logs into a Fakebook-style site over TLS with its own
// hand-rolled HTTP client, crawls the profile graph with a pool of
// workers, and prints the secret flags it captures.
//
// Usage:
//
//	flaghunt hunt <username> <password>
//	flaghunt hunt --list credentials.txt
//
// See --help for all available options.
package main

// main is the entry point for flaghunt.
func main() {
	Execute()
}
