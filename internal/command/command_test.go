package command

import (
	"bytes"
	"testing"

	"github.com/qfwfq/corespot/internal/channelmux"
	"github.com/qfwfq/corespot/internal/ident"
	"github.com/qfwfq/corespot/internal/wire"
)

type fakeSender struct {
	sent    []wire.Frame
	failNow bool
}

func (f *fakeSender) Send(frame wire.Frame) error {
	if f.failNow {
		return errSendFailed
	}
	f.sent = append(f.sent, frame)
	return nil
}

type errString string

func (e errString) Error() string { return string(e) }

const errSendFailed = errString("send failed")

type noopCallback struct{}

func (noopCallback) OnChunk([]byte) {}
func (noopCallback) OnEnd(bool)     {}

func TestGetPlaylistRegistersChannelAndSends(t *testing.T) {
	sender := &fakeSender{}
	channels := channelmux.New()

	id := ident.NewHashKey(ident.ID{1, 2, 3}, 0x02)
	chID, err := GetPlaylist(sender, channels, id, noopCallback{})
	if err != nil {
		t.Fatalf("GetPlaylist: %v", err)
	}
	if chID == 0 {
		t.Fatal("want nonzero channel id")
	}
	if len(sender.sent) != 1 {
		t.Fatalf("want 1 frame sent, got %d", len(sender.sent))
	}
	if sender.sent[0].Cmd != wire.CmdGetPlaylist {
		t.Fatalf("want CmdGetPlaylist, got %v", sender.sent[0].Cmd)
	}
	if channels.Len() != 1 {
		t.Fatalf("want 1 registered channel, got %d", channels.Len())
	}
}

func TestGetPlaylistUnregistersChannelOnSendFailure(t *testing.T) {
	sender := &fakeSender{failNow: true}
	channels := channelmux.New()

	id := ident.NewHashKey(ident.ID{9}, 0x02)
	_, err := GetPlaylist(sender, channels, id, noopCallback{})
	if err == nil {
		t.Fatal("want error from failed send")
	}
	if channels.Len() != 0 {
		t.Fatalf("channel should be unregistered after send failure, got %d", channels.Len())
	}
}

func TestChangePlaylistSendsXMLOpsPayload(t *testing.T) {
	sender := &fakeSender{}
	channels := channelmux.New()

	id := ident.NewHashKey(ident.ID{4, 5, 6}, 0x02)
	ops := []byte("<change><ops><add><i>0</i><items>abc</items></add></ops></change>")
	_, err := ChangePlaylist(sender, channels, id, ops, 3, 10, 0xdeadbeef, true, noopCallback{})
	if err != nil {
		t.Fatalf("ChangePlaylist: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("want 1 frame sent, got %d", len(sender.sent))
	}
	got := sender.sent[0].Payload
	if len(got) < ident.HashKeySize+13 {
		t.Fatalf("payload too short: %d bytes", len(got))
	}
	if !bytes.Equal(got[ident.HashKeySize+13:], ops) {
		t.Fatalf("want the ops XML after the fixed fields, got %q", got[ident.HashKeySize+13:])
	}
}
