package assetman

import (
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// PackageFlavor selects which variant of a package to pull.  The value
// is passed through to the asset server unmodified and never
// interpreted locally.
type PackageFlavor string

const (
	FlavorGeneric PackageFlavor = "generic"
	FlavorHighRes PackageFlavor = "highres"
)

// AssetManager wrangles all assets under a single root directory.  The
// exported fields may be set after Open and before the first
// LaunchGather; afterwards they must be left alone.
type AssetManager struct {
	// Dir is the root directory.  Set by Open; immutable.
	Dir string

	// Source is the base URL packages are fetched from.
	Source string

	// Client performs the HTTP requests.  Defaults to a plain client.
	Client *http.Client

	// Progress receives transfer updates.  Defaults to a no-op sink.
	Progress Progress

	// Codec encodes the persisted state.  Defaults to JSONCodec.
	Codec Codec

	mu           sync.Mutex
	state        *State
	shuttingDown bool
	closed       bool
	gathers      map[string]*Gather

	// test overrides for the download loop timing; zero means defaults
	readTimeout time.Duration
	retryPause  time.Duration
}

// Open returns a manager rooted at dir.  The directory must already
// exist -- the manager never creates it -- and the persisted state is
// loaded immediately, substituting a default on any failure.
func Open(dir string) (aman *AssetManager, err error) {
	dir = filepath.Clean(dir)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, &NotDirError{Dir: dir}
	}
	aman = &AssetManager{
		Dir:      dir,
		Client:   &http.Client{},
		Progress: nopProgress{},
		Codec:    JSONCodec{},
		gathers:  make(map[string]*Gather),
	}
	aman.state = loadState(aman.StatePath(), aman.Codec)
	log.Debugf("asset manager open: %s (%d files tracked)", dir, len(aman.state.Files))
	return
}

// Rootdir returns the root directory for this manager.
func (aman *AssetManager) Rootdir() string {
	return aman.Dir
}

// StatePath returns the path of the state file.
func (aman *AssetManager) StatePath() string {
	return filepath.Join(aman.Dir, "state")
}

// State returns the manager's state record.  The record is owned by
// the manager; callers must not mutate it.
func (aman *AssetManager) State() *State {
	aman.mu.Lock()
	defer aman.mu.Unlock()
	return aman.state
}

// Update performs periodic upkeep.  Safe to call repeatedly and from
// any point in the manager's life; it never panics.  While shutting
// down it forces a state save.
func (aman *AssetManager) Update() {
	aman.mu.Lock()
	defer aman.mu.Unlock()
	if aman.shuttingDown {
		saveState(aman.StatePath(), aman.state, aman.Codec)
	}
}

// Close shuts the manager down: outstanding gathers are cancelled and
// a final state save is forced.  Idempotent; the teardown sequence
// runs exactly once.
func (aman *AssetManager) Close() {
	aman.mu.Lock()
	if aman.closed {
		aman.mu.Unlock()
		return
	}
	aman.closed = true
	aman.shuttingDown = true
	gathers := make([]*Gather, 0, len(aman.gathers))
	for _, g := range aman.gathers {
		gathers = append(gathers, g)
	}
	aman.mu.Unlock()

	for _, g := range gathers {
		g.Cancel()
	}
	aman.Update()
	log.Debugf("asset manager closed: %s", aman.Dir)
}

// LaunchGather spawns an asset-gather operation from this manager.
// The named packages are fetched from Source, one at a time, on the
// gather's own goroutine; the returned handle observes the transfer
// and may be cancelled at any point.  Closing the manager cancels the
// gather too.
func (aman *AssetManager) LaunchGather(packages []string, flavor PackageFlavor, accountToken string) *Gather {
	g := newGather(aman, packages, flavor, accountToken)
	aman.mu.Lock()
	dead := aman.shuttingDown
	if !dead {
		aman.gathers[g.id] = g
	}
	aman.mu.Unlock()
	if dead {
		g.Cancel()
	}
	log.Debugf("gather %s: %d packages, flavor %s", g.id, len(packages), flavor)
	go g.run()
	return g
}

// forgetGather drops a finished gather from the registry.
func (aman *AssetManager) forgetGather(id string) {
	aman.mu.Lock()
	defer aman.mu.Unlock()
	delete(aman.gathers, id)
}

// recordFile notes a successfully gathered file in the state record.
func (aman *AssetManager) recordFile(name string) {
	aman.mu.Lock()
	defer aman.mu.Unlock()
	aman.state.Files[name] = FileValue{}
}
