package assetman

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/stevegt/goadapt"
)

// setup returns a manager rooted in a fresh temp dir.
func setup(t *testing.T) (aman *AssetManager) {
	dir := t.TempDir()
	aman, err := Open(dir)
	Ck(err)
	tassert(t, aman != nil, "aman is nil")
	return
}

// test boolean condition
func tassert(t *testing.T, cond bool, txt string, args ...interface{}) {
	t.Helper() // cause file:line info to show caller
	if !cond {
		t.Fatalf(txt, args...)
	}
}

func TestOpenMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nope")
	aman, err := Open(dir)
	tassert(t, aman == nil, "expected nil manager, got %#v", aman)
	var nde *NotDirError
	tassert(t, errors.As(err, &nde), "expected NotDirError, got %v", err)
	tassert(t, nde.Dir == dir, "expected %q got %q", dir, nde.Dir)
	// no side effects
	_, serr := os.Stat(dir)
	tassert(t, os.IsNotExist(serr), "rootdir was created: %v", serr)
}

func TestOpenFileAsRootdir(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "plainfile")
	err := os.WriteFile(fn, []byte("x"), 0644)
	Ck(err)
	_, err = Open(fn)
	var nde *NotDirError
	tassert(t, errors.As(err, &nde), "expected NotDirError, got %v", err)
}

func TestAccessors(t *testing.T) {
	aman := setup(t)
	tassert(t, aman.Rootdir() == aman.Dir, "Rootdir mismatch: %q", aman.Rootdir())
	expect := filepath.Join(aman.Dir, "state")
	tassert(t, aman.StatePath() == expect, "expected %q got %q", expect, aman.StatePath())
}

func TestUpdateBeforeShutdown(t *testing.T) {
	aman := setup(t)
	// upkeep outside of shutdown writes nothing and is repeatable
	aman.Update()
	aman.Update()
	_, err := os.Stat(aman.StatePath())
	tassert(t, os.IsNotExist(err), "state file written outside shutdown: %v", err)
}

func TestCloseSavesState(t *testing.T) {
	aman := setup(t)
	aman.recordFile("maps.pak")
	aman.recordFile("sounds.pak")
	aman.Close()

	_, err := os.Stat(aman.StatePath())
	tassert(t, err == nil, "state file missing after close: %v", err)

	aman2, err := Open(aman.Dir)
	Ck(err)
	tassert(t, len(aman2.State().Files) == 2, "expected 2 files, got %d", len(aman2.State().Files))
	_, ok := aman2.State().Files["maps.pak"]
	tassert(t, ok, "maps.pak not persisted")
	_, ok = aman2.State().Files["sounds.pak"]
	tassert(t, ok, "sounds.pak not persisted")
}

func TestCloseIdempotent(t *testing.T) {
	aman := setup(t)
	aman.recordFile("one.pak")
	aman.Close()
	aman.Close()
	aman2, err := Open(aman.Dir)
	Ck(err)
	_, ok := aman2.State().Files["one.pak"]
	tassert(t, ok, "one.pak not persisted")
}

func TestLaunchGatherAfterClose(t *testing.T) {
	aman := setup(t)
	aman.Close()
	g := aman.LaunchGather([]string{"late.pak"}, FlavorGeneric, "")
	err := g.Wait()
	var ce *CancelledError
	tassert(t, errors.As(err, &ce), "expected CancelledError, got %v", err)
	tassert(t, !g.Valid(), "gather still valid after manager close")
}
