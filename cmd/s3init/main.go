// Package main is the entry point for the s3init CLI.
//
// s3init brings up the object-storage side of a multi-service stack: it
// waits for an S3-compatible store (MinIO, Hetzner Object Storage, AWS
// S3) to become reachable, then idempotently provisions a bucket and its
// access policy. Deployment tooling can re-invoke it on every restart;
// a converged store makes the whole run a no-op.
//
// Exit codes: 0 ready, 1 dependency unreachable within the wait ceiling,
// 2 a provisioning step failed fatally.
//
// For detailed usage information, run:
//
//	s3init --help
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imamik/s3init/cmd/s3init/commands"
	"github.com/imamik/s3init/cmd/s3init/handlers"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := commands.Root().ExecuteContext(ctx); err != nil {
		var exitErr *handlers.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
