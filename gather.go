package assetman

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// GatherStatus is where a gather is in its life.
type GatherStatus int

const (
	GatherPending GatherStatus = iota
	GatherInProgress
	GatherCompleted
	GatherAborted
)

func (s GatherStatus) String() string {
	switch s {
	case GatherPending:
		return "pending"
	case GatherInProgress:
		return "in-progress"
	case GatherCompleted:
		return "completed"
	case GatherAborted:
		return "aborted"
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}

// Gather is one request to retrieve one or more asset packages.  The
// handle only observes the transfer: dropping it does nothing, waiting
// on it gives the result, and cancelling it -- directly or via manager
// shutdown -- makes the download loop stop between chunks.  A Gather
// never keeps its manager alive; the manager configuration it needs is
// copied at construction and manager shutdown reaches it through an
// explicit cancel, not through liveness of a back-reference.
type Gather struct {
	id       string
	packages []string
	flavor   PackageFlavor
	token    string

	rootdir  string
	source   string
	client   *http.Client
	progress Progress
	forget   func(id string)
	record   func(name string)

	readTimeout time.Duration
	retryPause  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	status    GatherStatus
	cancelled bool
	err       error
}

func newGather(aman *AssetManager, packages []string, flavor PackageFlavor, token string) *Gather {
	ctx, cancel := context.WithCancel(context.Background())
	return &Gather{
		id:          uuid.NewString(),
		packages:    packages,
		flavor:      flavor,
		token:       token,
		rootdir:     aman.Dir,
		source:      aman.Source,
		client:      aman.Client,
		progress:    aman.Progress,
		forget:      aman.forgetGather,
		record:      aman.recordFile,
		readTimeout: aman.readTimeout,
		retryPause:  aman.retryPause,
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
		status:      GatherPending,
	}
}

// ID returns the gather's unique identifier.
func (g *Gather) ID() string {
	return g.id
}

// Status returns where the gather is in its life.
func (g *Gather) Status() GatherStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

// Valid reports whether this gather is still backed by a live manager.
// It becomes false once the gather is cancelled, including when the
// originating manager shuts down.
func (g *Gather) Valid() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.cancelled
}

// Err returns the terminal error of the gather, or nil if it completed
// or is still running.
func (g *Gather) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}

// Done is closed when the gather reaches a terminal state.
func (g *Gather) Done() <-chan struct{} {
	return g.done
}

// Wait blocks until the gather finishes and returns its terminal
// error, if any.
func (g *Gather) Wait() error {
	<-g.done
	return g.Err()
}

// Cancel abandons the gather.  The download loop notices between
// chunks and any in-flight read is unblocked immediately.  Idempotent.
func (g *Gather) Cancel() {
	g.mu.Lock()
	if g.cancelled {
		g.mu.Unlock()
		return
	}
	g.cancelled = true
	g.mu.Unlock()
	g.cancel()
}

// run drives the gather on its own goroutine: each package is fetched
// in turn into rootdir.  One retrieval runs at a time; there is no
// cross-package ordering to coordinate.
func (g *Gather) run() {
	defer close(g.done)
	defer g.forget(g.id)
	g.setStatus(GatherInProgress)

	for _, pkg := range g.packages {
		if g.ctx.Err() != nil {
			g.finish(&CancelledError{URL: g.packageURL(pkg)})
			return
		}
		name := filepath.Base(pkg)
		f := &fetch{
			client:      g.client,
			url:         g.packageURL(pkg),
			filename:    filepath.Join(g.rootdir, name),
			token:       g.token,
			progress:    g.progress,
			readTimeout: g.readTimeout,
			retryPause:  g.retryPause,
		}
		if err := f.run(g.ctx); err != nil {
			g.finish(err)
			return
		}
		g.record(name)
	}
	g.finish(nil)
}

// packageURL builds the fetch URL for one package name.
func (g *Gather) packageURL(pkg string) string {
	base := strings.TrimSuffix(g.source, "/")
	return fmt.Sprintf("%s/%s?flavor=%s", base, url.PathEscape(pkg), url.QueryEscape(string(g.flavor)))
}

func (g *Gather) setStatus(status GatherStatus) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.status = status
}

func (g *Gather) finish(err error) {
	g.mu.Lock()
	g.err = err
	if err == nil {
		g.status = GatherCompleted
	} else {
		g.status = GatherAborted
	}
	g.mu.Unlock()
	if err != nil {
		log.Debugf("gather %s aborted: %v", g.id, err)
	} else {
		log.Debugf("gather %s completed", g.id)
	}
}
