package cli

import (
	"errors"
	"io/fs"

	"github.com/brightai/refcheck/internal/config"
	"github.com/brightai/refcheck/internal/history"
	"github.com/brightai/refcheck/internal/paths"
	"github.com/brightai/refcheck/internal/report"
)

// Error codes for structured error responses.
// These codes are stable and can be relied upon by scripts.
const (
	ErrConfigInvalid = "CONFIG_INVALID"

	// File errors
	ErrFileNotFound    = "FILE_NOT_FOUND"
	ErrFileReadError   = "FILE_READ_ERROR"
	ErrFileWriteError  = "FILE_WRITE_ERROR"
	ErrFileOutsideRoot = "FILE_OUTSIDE_ROOT"

	// Run errors
	ErrRunLocked    = "RUN_LOCKED"
	ErrHistoryError = "HISTORY_ERROR"
	ErrRunNotFound  = "RUN_NOT_FOUND"

	// Input errors
	ErrInvalidInput = "INVALID_INPUT"

	// General errors
	ErrInternal = "INTERNAL_ERROR"
)

// Warning codes for non-fatal issues.
const (
	WarnHistoryFailed = "HISTORY_RECORD_FAILED"
	WarnDryRun        = "DRY_RUN"
)

// classify maps an error to its stable code.
func classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, history.ErrLocked):
		return ErrRunLocked
	case errors.Is(err, history.ErrRunNotFound):
		return ErrRunNotFound
	case errors.Is(err, paths.ErrPathOutsideRoot):
		return ErrFileOutsideRoot
	case errors.Is(err, config.ErrInvalid):
		return ErrConfigInvalid
	case errors.Is(err, report.ErrInvalidStage):
		return ErrInvalidInput
	case errors.Is(err, fs.ErrNotExist):
		return ErrFileNotFound
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		if pathErr.Op == "open" || pathErr.Op == "read" {
			return ErrFileReadError
		}
		return ErrFileWriteError
	}
	return ErrInternal
}
