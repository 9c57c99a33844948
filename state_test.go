package assetman

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/stevegt/goadapt"
)

func TestLoadStateMissing(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "state")
	state := loadState(fn, JSONCodec{})
	tassert(t, state != nil, "state is nil")
	tassert(t, state.Files != nil, "Files map is nil")
	tassert(t, len(state.Files) == 0, "expected empty state, got %d files", len(state.Files))
}

func TestLoadStateMalformed(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "state")
	err := os.WriteFile(fn, []byte("{{{ not a state record"), 0644)
	Ck(err)
	state := loadState(fn, JSONCodec{})
	tassert(t, state != nil, "state is nil")
	tassert(t, len(state.Files) == 0, "expected default state, got %d files", len(state.Files))
}

func TestLoadStateNullFiles(t *testing.T) {
	// decodable record with a null mapping still yields a usable map
	fn := filepath.Join(t.TempDir(), "state")
	err := os.WriteFile(fn, []byte(`{"files":null}`), 0644)
	Ck(err)
	state := loadState(fn, JSONCodec{})
	tassert(t, state.Files != nil, "Files map is nil")
}

func roundTrip(t *testing.T, codec Codec) {
	t.Helper()
	fn := filepath.Join(t.TempDir(), "state")
	state := NewState()
	state.Files["maps.pak"] = FileValue{}
	state.Files["sounds.pak"] = FileValue{}

	saveState(fn, state, codec)
	got := loadState(fn, codec)

	tassert(t, len(got.Files) == len(state.Files),
		"expected %d files, got %d", len(state.Files), len(got.Files))
	for name := range state.Files {
		_, ok := got.Files[name]
		tassert(t, ok, "missing %q after round trip", name)
	}
}

func TestStateRoundTripJSON(t *testing.T) {
	roundTrip(t, JSONCodec{})
}

func TestStateRoundTripMsgpack(t *testing.T) {
	roundTrip(t, MsgpackCodec{})
}

func TestSaveStateUnwritable(t *testing.T) {
	// saving into a directory that does not exist logs and swallows
	fn := filepath.Join(t.TempDir(), "no", "such", "dir", "state")
	saveState(fn, NewState(), JSONCodec{})
	_, err := os.Stat(fn)
	tassert(t, os.IsNotExist(err), "expected no state file, got %v", err)
}

func TestSaveStateOverwrites(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "state")
	first := NewState()
	first.Files["old.pak"] = FileValue{}
	saveState(fn, first, JSONCodec{})

	second := NewState()
	second.Files["new.pak"] = FileValue{}
	saveState(fn, second, JSONCodec{})

	got := loadState(fn, JSONCodec{})
	_, ok := got.Files["new.pak"]
	tassert(t, ok, "new.pak missing after overwrite")
	_, ok = got.Files["old.pak"]
	tassert(t, !ok, "old.pak survived overwrite")
}
