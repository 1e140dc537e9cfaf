// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import (
	"context"
	"errors"
	"fmt"

	"github.com/llehouerou/flux/internal/api"
	"github.com/llehouerou/flux/internal/downloads"
	"github.com/llehouerou/flux/internal/playback"
)

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Library operations
	OpLibraryLoad    Op = "load library"
	OpLibraryRefresh Op = "refresh library"

	// Download operations
	OpDownloadTrack  Op = "download track"
	OpDownloadDelete Op = "delete download"
	OpDownloadList   Op = "list downloads"
	OpDownloadVerify Op = "verify downloads"

	// Lyrics operations
	OpLyricsLoad Op = "load lyrics"

	// Playback operations
	OpPlaybackStart  Op = "start playback"
	OpPlaybackSource Op = "resolve track source"

	// History operations
	OpHistoryLoad Op = "load play history"

	// Media session
	OpMediaSession Op = "start media session"

	// Initialization
	OpInitialize Op = "initialize application"
	OpConfigLoad Op = "load configuration"
)

// Describe returns a short explanation for known errors, or err's own
// message.
func Describe(err error) string {
	switch {
	case errors.Is(err, downloads.ErrIndexNotPersisted):
		return "downloaded, but the download list could not be saved and will be lost on restart"
	case errors.Is(err, downloads.ErrNotDownloaded):
		return "track is not downloaded"
	case errors.Is(err, api.ErrNotFound):
		return "not found on the server"
	case errors.Is(err, playback.ErrTooManyErrors):
		return "too many tracks failed to play in a row"
	case errors.Is(err, context.DeadlineExceeded):
		return "timed out"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	}
	return err.Error()
}

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %s", op, Describe(err))
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %s", op, context, Describe(err))
}
