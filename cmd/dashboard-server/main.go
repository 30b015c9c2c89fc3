package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/dashdeck/dashboard-server/pkg/defaults"
	"github.com/dashdeck/dashboard-server/pkg/logging"
)

func main() {
	code := runMain(Execute, os.Stderr)
	if code != 0 {
		os.Exit(code)
	}
}

func runMain(execute func() error, stderr io.Writer) int {
	if err := execute(); err != nil {
		return exitCodeForError(err, stderr)
	}
	return defaults.ExitSuccess
}

func exitCodeForError(err error, stderr io.Writer) int {
	var ee *exitError
	if errors.As(err, &ee) {
		if !ee.silent {
			emitCommandError(resolveErrorForExitError(ee, err), "command failed", ee.code, stderr)
		}
		return ee.code
	}

	if errors.Is(err, context.Canceled) {
		emitCommandError(err, "command canceled", defaults.ExitCanceled, stderr)
		return defaults.ExitCanceled
	}

	// Anything unclassified comes from cobra itself: unknown commands,
	// bad flags, wrong argument counts.
	emitCommandError(err, "command failed", defaults.ExitUserError, stderr)
	return defaults.ExitUserError
}

func emitCommandError(err error, message string, exitCode int, stderr io.Writer) {
	ctx := currentCommandExecutionContext()
	if !ctx.UsesStructuredLog {
		if exitCode == defaults.ExitCanceled {
			fmt.Fprintln(stderr, "canceled")
			return
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return
	}

	logger := loggerForFatalPath(ctx, stderr)
	logger.Error(message, "exit_code", exitCode, "error", err)
}

func loggerForFatalPath(ctx commandExecutionContext, stderr io.Writer) *slog.Logger {
	cfg, err := logging.LoadConfigFromEnv()
	if err != nil {
		cfg = logging.DefaultConfig()
	}
	return logging.NewLogger(cfg, stderr, ctx.CommandPath)
}

func resolveErrorForExitError(ee *exitError, fallback error) error {
	if ee != nil && ee.err != nil {
		return ee.err
	}
	return fallback
}

// commandExecutionContext records which command is running so fatal errors
// are reported in the same format the command logs in.
type commandExecutionContext struct {
	CommandPath       string
	UsesStructuredLog bool
}

var (
	execCtxMu sync.Mutex
	execCtx   commandExecutionContext
)

func setCommandExecutionContext(c commandExecutionContext) {
	execCtxMu.Lock()
	defer execCtxMu.Unlock()
	execCtx = c
}

func resetCommandExecutionContext() {
	setCommandExecutionContext(commandExecutionContext{})
}

func currentCommandExecutionContext() commandExecutionContext {
	execCtxMu.Lock()
	defer execCtxMu.Unlock()
	return execCtx
}
