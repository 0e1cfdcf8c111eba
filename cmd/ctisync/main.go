// Package main provides the entry point for the ctisync CLI.
//
// ctisync ingests the DShield Intel Feed and publishes the resulting IP
// observables to an OpenCTI-compatible knowledge store.
//
// Usage:
//
//	ctisync sync
//	ctisync sync --dry-run
//
// See --help for all available options.
package main

// main is the entry point for ctisync.
func main() {
	Execute()
}
