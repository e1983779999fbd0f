package ioworker

import (
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/qfwfq/corespot/internal/channelmux"
	"github.com/qfwfq/corespot/internal/orchestrate"
	"github.com/qfwfq/corespot/internal/queue"
	"github.com/qfwfq/corespot/internal/wire"
)

type nullSender struct{}

func (nullSender) Send(wire.Frame) error { return nil }

func newTestWorker(t *testing.T, conn net.Conn, cipher wire.Cipher) *Worker {
	t.Helper()
	tables := orchestrate.NewTables()
	q := queue.New()
	channels := channelmux.New()
	orch := orchestrate.New(tables, q, channels, nullSender{}, orchestrate.DefaultConfig())
	return New(conn, cipher, q, channels, orch)
}

type noopCipher struct{}

func (noopCipher) Seal(p []byte) ([]byte, error) { return p, nil }
func (noopCipher) Open(p []byte) ([]byte, error) { return p, nil }

// TestDispatchCompletesNotificationRequestsImmediately checks that
// PC_PLAYLIST_ADD-shaped requests (posted purely to notify the embedding
// thread) are completed by dispatch without any network action.
func TestDispatchCompletesNotificationRequestsImmediately(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	w := newTestWorker(t, server, noopCipher{})
	req := w.queue.Post(orchestrate.ReqPCPlaylistAdd, "playlist-handle", time.Now().UnixMilli())
	runnable := w.queue.FetchNextRunnable(time.Now().UnixMilli())
	if runnable == nil || runnable.ID != req {
		t.Fatal("want the posted request runnable")
	}

	w.dispatch(runnable)

	result, _, _ := w.queue.FetchNextResult()
	if result == nil || result.ID != req {
		t.Fatal("want the request RETURNED after dispatch")
	}
	if result.Output != "playlist-handle" {
		t.Fatalf("want output preserved, got %v", result.Output)
	}
}

func TestDispatchUnknownRequestTypeReportsError(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	w := newTestWorker(t, server, noopCipher{})
	req := w.queue.Post("NOT_A_REAL_TYPE", nil, time.Now().UnixMilli())
	runnable := w.queue.FetchNextRunnable(time.Now().UnixMilli())

	w.dispatch(runnable)

	result, _, _ := w.queue.FetchNextResult()
	if result == nil || result.ID != req {
		t.Fatal("want the request RETURNED with an error")
	}
	if result.Err == nil {
		t.Fatal("want an error for an unknown request type")
	}
}

// TestRouteFrameChannelData checks that a CHANNEL_DATA command routes to
// the channel multiplexer by the frame's embedded channel id.
func TestRouteFrameChannelData(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	w := newTestWorker(t, server, noopCipher{})
	id := w.channels.Register("test", recordingCallback{})

	var payload []byte
	var idBytes [2]byte
	binary.BigEndian.PutUint16(idBytes[:], id)
	payload = append(payload, idBytes[:]...)
	payload = append(payload, []byte("chunk")...)

	w.routeFrame(wire.CmdChannelData, payload)
	// End of stream.
	var endPayload []byte
	endPayload = append(endPayload, idBytes[:]...)
	w.routeFrame(wire.CmdChannelData, endPayload)

	if w.channels.Len() != 0 {
		t.Fatal("channel should be unregistered after END")
	}
}

type recordingCallback struct{}

func (recordingCallback) OnChunk([]byte) {}
func (recordingCallback) OnEnd(bool)     {}

func TestRegisterHandlerOverridesDispatchTable(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	w := newTestWorker(t, server, noopCipher{})
	called := false
	w.RegisterHandler("LOGIN", func(req *queue.Request) {
		called = true
		w.queue.SetResult(req, nil, "ok")
	})

	req := w.queue.Post("LOGIN", nil, time.Now().UnixMilli())
	runnable := w.queue.FetchNextRunnable(time.Now().UnixMilli())
	w.dispatch(runnable)

	if !called {
		t.Fatal("want the registered LOGIN handler invoked")
	}
	result, _, _ := w.queue.FetchNextResult()
	if result == nil || result.ID != req {
		t.Fatal("want the LOGIN request RETURNED")
	}
}
