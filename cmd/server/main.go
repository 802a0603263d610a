// Package main is the entry point for the OrganizationApp backend.
//
// MAIN PACKAGE IN GO:
// Every Go program starts execution in the main() function of the "main" package.
// The main package should be kept minimal. Its job is to:
// 1. Read configuration (environment, optional .env file, flags)
// 2. Create dependencies (logger, data directory, etc.)
// 3. Start the application
//
// All actual logic lives in imported packages (internal/server, internal/service, etc.).
//
// COMMANDS:
//
//	server                  → same as "server serve"
//	server serve            → run the HTTP API
//	server migrate-events   → rewrite legacy events in place and print the count
//
// The command tree is built by newRootCommand so tests can run it with their
// own arguments and output buffers.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
