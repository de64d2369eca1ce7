package main

import "context"

// cmdCtx is the background context used by every command invocation; the
// CLI is a one-shot process per command, so there is no request-scoped
// cancellation to thread through.
func cmdCtx() context.Context {
	return context.Background()
}
