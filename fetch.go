package assetman

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	. "github.com/stevegt/goadapt"
)

const (
	// Block size amortizes loop overhead while keeping the read
	// timeout responsive.
	fetchBlockSize = 200 * 1024

	// Per-read timeout is deliberately short so cancellation is
	// noticed promptly even when the network stalls.
	fetchReadTimeout = time.Second

	// Consecutive stalled reads tolerated before the transfer is
	// abandoned.
	fetchMaxTimeouts = 3

	// Pause between stall retries.
	fetchRetryPause = 3 * time.Second
)

// fetch is one retrieval of one remote resource into one output file.
// It exists only for the duration of a run call; nothing here is
// persisted.
type fetch struct {
	client   *http.Client
	url      string
	filename string
	token    string
	progress Progress

	// zero means the package defaults
	readTimeout time.Duration
	retryPause  time.Duration
}

type readResult struct {
	data []byte
	err  error
}

// run retrieves f.url into f.filename, reporting progress after every
// chunk.  The transfer aborts when ctx is cancelled, when the response
// carries no usable size header, or after more than fetchMaxTimeouts
// consecutive stalled reads.  Partial output is removed on every abort
// path: transfers are not resumable, so a partial file is never worth
// keeping.
func (f *fetch) run(ctx context.Context) (err error) {
	if f.readTimeout == 0 {
		f.readTimeout = fetchReadTimeout
	}
	if f.retryPause == 0 {
		f.retryPause = fetchRetryPause
	}

	// The inner context releases the reader goroutine on every exit
	// path, including timeout exhaustion.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	resp, size, err := f.open(ctx)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	out, err := os.OpenFile(f.filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Wrapf(err, "opening %s", f.filename)
	}

	log.Debugf("downloading %s: %d bytes", f.filename, size)

	// Reads happen on their own goroutine so the loop below can apply
	// the timeout policy without a deadline on the stream itself.
	reads := make(chan readResult)
	go readBlocks(ctx, resp.Body, reads)

	var received int64
	timeouts := 0
	for {
		select {
		case res := <-reads:
			timeouts = 0
			if len(res.data) > 0 {
				if _, werr := out.Write(res.data); werr != nil {
					return f.abort(out, errors.Wrapf(werr, "writing %s", f.filename))
				}
				received += int64(len(res.data))
				f.progress.Report(received, size, f.filename)
			}
			if res.err == io.EOF || (res.err == nil && len(res.data) == 0) {
				// End of stream.
				if cerr := out.Close(); cerr != nil {
					return errors.Wrapf(cerr, "closing %s", f.filename)
				}
				log.Debugf("download complete: %s (%d bytes)", f.filename, received)
				return nil
			}
			if res.err != nil {
				return f.abort(out, errors.Wrapf(res.err, "reading %s", f.url))
			}
		case <-ctx.Done():
			return f.abort(out, &CancelledError{URL: f.url})
		case <-time.After(f.readTimeout):
			timeouts++
			if timeouts > fetchMaxTimeouts {
				return f.abort(out, &TimeoutExhaustedError{URL: f.url, Timeouts: timeouts})
			}
			log.Warnf("download stalled, retrying: %s (timeout %d of %d)", f.url, timeouts, fetchMaxTimeouts)
			select {
			case <-time.After(f.retryPause):
			case <-ctx.Done():
				return f.abort(out, &CancelledError{URL: f.url})
			}
		}
	}
}

// open issues the request and pins down the declared size before any
// body bytes are consumed.
func (f *fetch) open(ctx context.Context) (resp *http.Response, size int64, err error) {
	defer Return(&err)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	Ck(err)
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	resp, err = f.client.Do(req)
	Ck(err)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, 0, &BadResponseError{URL: f.url, Reason: resp.Status}
	}
	size = resp.ContentLength
	if size < 0 {
		resp.Body.Close()
		return nil, 0, &BadResponseError{URL: f.url, Reason: "missing or invalid content length"}
	}
	return
}

// abort closes and removes the partial output file, then hands err
// back for reporting.
func (f *fetch) abort(out *os.File, err error) error {
	_ = out.Close()
	if rmerr := os.Remove(f.filename); rmerr != nil {
		log.Errorf("removing partial download %s: %v", f.filename, rmerr)
	}
	return err
}

// readBlocks feeds fixed-size reads from body into out until the body
// ends or ctx is cancelled.  The reads themselves carry no deadline;
// the receiver applies the timeout policy.
func readBlocks(ctx context.Context, body io.Reader, out chan<- readResult) {
	for {
		buf := make([]byte, fetchBlockSize)
		n, err := body.Read(buf)
		select {
		case out <- readResult{data: buf[:n], err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}
