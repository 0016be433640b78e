// Package errors defines the error taxonomy shared across the pipeline.
//
// Transport failures fall into three classes: permission errors pause the
// affected group and are never retried, content-gone errors are treated as
// cancellations, and everything else is considered transient and retried with
// bounded backoff by the caller.
package errors

import "errors"

var (
	ErrMissingBotToken  = errors.New("TELEGRAM_BOT_TOKEN environment variable is required")
	ErrGroupNotFound    = errors.New("group not found")
	ErrGroupInactive    = errors.New("group is inactive")
	ErrJobNotFound      = errors.New("batch job not found")
	ErrPermissionDenied = errors.New("bot lacks required permissions in group")
	ErrContentGone      = errors.New("original message no longer exists")
)

// IsPermission reports whether err is fatal for the group it occurred in.
func IsPermission(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

// IsContentGone reports whether err means the original message disappeared
// before the pipeline could act on it.
func IsContentGone(err error) bool {
	return errors.Is(err, ErrContentGone)
}

// IsTransient reports whether err is worth retrying. Anything that is not a
// permission or content-gone error is assumed to be a network-level hiccup.
func IsTransient(err error) bool {
	return err != nil && !IsPermission(err) && !IsContentGone(err)
}
