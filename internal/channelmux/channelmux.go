// Package channelmux implements the channel multiplexer: identifier
// allocation, per-channel state tracking, and routing of inbound framed
// payloads to the callback that registered the channel (spec.md §4.E).
package channelmux

import "log/slog"

// State is a channel's position in its lifecycle: HEADER -> DATA* ->
// (END | ERROR), exactly once.
type State int

const (
	StateHeader State = iota
	StateData
	StateEnd
	StateError
)

func (s State) String() string {
	switch s {
	case StateHeader:
		return "HEADER"
	case StateData:
		return "DATA"
	case StateEnd:
		return "END"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Callback is the capability interface a channel registrant implements,
// replacing a raw function-pointer-plus-context pair (spec.md §REDESIGN
// FLAGS: "Dynamic dispatch via function pointers").
//
// OnChunk is invoked once per DATA frame with the frame's payload. OnEnd is
// invoked exactly once when the channel reaches its terminal state, with
// ok=true for END and ok=false for ERROR.
type Callback interface {
	OnChunk(payload []byte)
	OnEnd(ok bool)
}

// Channel is one logical substream multiplexed over the session
// connection.
type Channel struct {
	ID    uint16
	Name  string
	State State

	callback Callback
}

// Table is the per-session channel map plus id allocator
// (spec.md §4.E: "a monotonically increasing 16-bit channel id counter
// and a map channel_id -> Channel").
//
// Table is owned exclusively by the IO worker goroutine and is not safe
// for concurrent use (spec.md §5: "the channel map [is] private to the
// IO worker").
type Table struct {
	nextID   uint16
	channels map[uint16]*Channel
}

// New creates an empty channel table.
func New() *Table {
	return &Table{channels: make(map[uint16]*Channel)}
}

// Register allocates an id, inserts a Channel in state HEADER, and returns
// the id. name is diagnostic only.
func (t *Table) Register(name string, cb Callback) uint16 {
	t.nextID++
	id := t.nextID
	t.channels[id] = &Channel{ID: id, Name: name, State: StateHeader, callback: cb}
	return id
}

// OnFrame locates the channel for id and advances its state machine.
//
// In HEADER, any non-empty payload is treated as header bytes and the
// channel advances to DATA with no callback invocation (the header itself
// carries no application payload in this protocol). In DATA, a non-empty
// payload invokes OnChunk; an empty payload signals end-of-stream: the
// channel moves to END, OnEnd(true) fires once, and the channel is
// unregistered.
//
// A frame for an unknown id is an invariant violation (spec.md §7: "logged
// and dropped silently, because the service may legitimately emit late
// frames after cleanup").
func (t *Table) OnFrame(id uint16, payload []byte) {
	ch, ok := t.channels[id]
	if !ok {
		slog.Debug("channelmux: frame for unknown channel", "id", id)
		return
	}
	switch ch.State {
	case StateHeader:
		ch.State = StateData
	case StateData:
		if len(payload) == 0 {
			ch.State = StateEnd
			ch.callback.OnEnd(true)
			delete(t.channels, id)
			return
		}
		ch.callback.OnChunk(payload)
	default:
		slog.Error("channelmux: frame on terminated channel", "id", id, "state", ch.State)
	}
}

// Fail transitions channel id directly to ERROR and unregisters it,
// invoking OnEnd(false) exactly once. Used when a transport error is
// attributable to a single channel.
func (t *Table) Fail(id uint16) {
	ch, ok := t.channels[id]
	if !ok {
		return
	}
	ch.State = StateError
	ch.callback.OnEnd(false)
	delete(t.channels, id)
}

// FailAndUnregisterAll invokes every registered channel's OnEnd(false) and
// clears the table, used on session teardown (spec.md §4.E, scenario S6).
func (t *Table) FailAndUnregisterAll() {
	for id, ch := range t.channels {
		ch.State = StateError
		ch.callback.OnEnd(false)
		delete(t.channels, id)
	}
}

// Len returns the number of currently registered channels.
func (t *Table) Len() int {
	return len(t.channels)
}
