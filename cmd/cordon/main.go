// Package main is the entry point for the cordon binary.
// It delegates immediately to the CLI command tree.
package main

import (
	"context"
	"errors"
	"os"

	"github.com/neoclaw-ai/cordon/internal/cli"
	"github.com/neoclaw-ai/cordon/internal/logging"
	"github.com/neoclaw-ai/cordon/internal/sandbox"
)

func main() {
	err := cli.NewRootCmd().ExecuteContext(context.Background())
	if err == nil {
		return
	}
	// A script's own failure is mirrored, not reported.
	var exitErr *sandbox.ExitError
	if !errors.As(err, &exitErr) {
		logging.Logger().Error("fatal error", "err", err)
	}
	os.Exit(sandbox.ExitCode(err))
}
