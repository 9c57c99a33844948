package assetman

import "fmt"

// NotDirError means the rootdir handed to Open is not an existing
// directory.  Fatal to construction; never retried.
type NotDirError struct {
	Dir string
}

func (e *NotDirError) Error() string {
	return fmt.Sprintf("rootdir is not a directory: %s", e.Dir)
}

// BadResponseError means the asset server answered with a non-2xx
// status or without a usable size header.
type BadResponseError struct {
	URL    string
	Reason string
}

func (e *BadResponseError) Error() string {
	return fmt.Sprintf("bad response from %s: %s", e.URL, e.Reason)
}

// TimeoutExhaustedError means a transfer stalled for too many
// consecutive reads and was abandoned.  The partial output file has
// been removed.
type TimeoutExhaustedError struct {
	URL      string
	Timeouts int
}

func (e *TimeoutExhaustedError) Error() string {
	return fmt.Sprintf("transfer stalled: %d consecutive timeouts reading %s", e.Timeouts, e.URL)
}

// CancelledError means the owning Gather was cancelled mid-transfer,
// either directly or because its manager shut down.  This reflects
// caller intent, not an application failure.
type CancelledError struct {
	URL string
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("transfer cancelled: %s", e.URL)
}
