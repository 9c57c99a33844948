package assetman

import (
	"encoding/json"
	"os"

	"github.com/google/renameio"
	log "github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack"
)

// FileValue holds per-file metadata.  No fields yet; checksums and
// verification timestamps land here once the server reports them.
type FileValue struct{}

// State holds everything the manager persists between runs.
type State struct {
	Files map[string]FileValue `json:"files" msgpack:"files"`
}

// NewState returns an empty, well-formed State.  Never fails.
func NewState() *State {
	return &State{Files: make(map[string]FileValue)}
}

// Codec converts a State to and from its on-disk encoding.
type Codec interface {
	Encode(state *State) (buf []byte, err error)
	Decode(buf []byte) (state *State, err error)
}

// JSONCodec stores state as json text.  This is the default codec.
type JSONCodec struct{}

func (JSONCodec) Encode(state *State) (buf []byte, err error) {
	return json.Marshal(state)
}

func (JSONCodec) Decode(buf []byte) (state *State, err error) {
	state = NewState()
	err = json.Unmarshal(buf, state)
	if err != nil {
		return nil, err
	}
	if state.Files == nil {
		state.Files = make(map[string]FileValue)
	}
	return
}

// MsgpackCodec stores state in msgpack framing, for rootdirs where the
// state record is not meant to be hand-edited.
type MsgpackCodec struct{}

func (MsgpackCodec) Encode(state *State) (buf []byte, err error) {
	return msgpack.Marshal(state)
}

func (MsgpackCodec) Decode(buf []byte) (state *State, err error) {
	state = NewState()
	err = msgpack.Unmarshal(buf, state)
	if err != nil {
		return nil, err
	}
	if state.Files == nil {
		state.Files = make(map[string]FileValue)
	}
	return
}

// loadState reads the state file at path.  Any failure -- missing
// file, unreadable file, undecodable contents -- resets to a default
// State; callers always get something usable back.
func loadState(path string, codec Codec) (state *State) {
	buf, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewState()
	}
	if err != nil {
		log.Errorf("loading state from %s: %v", path, err)
		return NewState()
	}
	state, err = codec.Decode(buf)
	if err != nil {
		log.Errorf("decoding state from %s: %v", path, err)
		return NewState()
	}
	return
}

// saveState writes state to path, replacing any previous file
// atomically.  Failures are logged and swallowed; persistence is best
// effort and must never take the process down.
func saveState(path string, state *State, codec Codec) {
	buf, err := codec.Encode(state)
	if err != nil {
		log.Errorf("encoding state: %v", err)
		return
	}
	err = renameio.WriteFile(path, buf, 0644)
	if err != nil {
		log.Errorf("writing state to %s: %v", path, err)
	}
}
