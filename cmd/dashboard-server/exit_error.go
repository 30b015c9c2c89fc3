package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"

	"github.com/dashdeck/dashboard-server/pkg/assets"
	"github.com/dashdeck/dashboard-server/pkg/config"
	"github.com/dashdeck/dashboard-server/pkg/defaults"
	"github.com/dashdeck/dashboard-server/pkg/iohelper"
	"github.com/dashdeck/dashboard-server/pkg/snapshot"
)

type exitError struct {
	code   int
	err    error
	silent bool
}

func (e *exitError) Error() string {
	if e == nil {
		return ""
	}
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit %d", e.code)
}

func (e *exitError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// classify attaches the exit code for err. Errors that are already
// classified pass through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return err
	}
	return &exitError{code: exitCodeFor(err), err: err}
}

func exitCodeFor(err error) int {
	var opErr *net.OpError
	switch {
	case errors.Is(err, context.Canceled):
		return defaults.ExitCanceled
	case errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, config.ErrMissingRequired),
		errors.Is(err, snapshot.ErrInvalidSnapshot),
		errors.Is(err, assets.ErrScriptUnavailable),
		errors.Is(err, iohelper.ErrTooLarge),
		errors.Is(err, fs.ErrNotExist),
		errors.Is(err, fs.ErrPermission):
		return defaults.ExitUserError
	case errors.As(err, &opErr):
		return defaults.ExitNetworkError
	default:
		return defaults.ExitInternalError
	}
}

func userError(err error) error {
	return &exitError{code: defaults.ExitUserError, err: err}
}
