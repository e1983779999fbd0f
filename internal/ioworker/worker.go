// Package ioworker implements the single long-running worker goroutine
// that owns the socket, the channel table, and the entity graph for a
// session's lifetime (spec.md §4.G).
package ioworker

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/qfwfq/corespot/internal/channelmux"
	"github.com/qfwfq/corespot/internal/orchestrate"
	"github.com/qfwfq/corespot/internal/queue"
	"github.com/qfwfq/corespot/internal/wire"
)

// defaultPollTimeout bounds how long one read blocks when no request
// deadline is sooner (spec.md §4.G step 2: "a short select/poll timeout").
const defaultPollTimeout = 500 * time.Millisecond

// connSender adapts a net.Conn plus a Cipher to command.Sender, encrypting
// and framing every outbound packet.
type connSender struct {
	conn   net.Conn
	cipher wire.Cipher
}

func (s *connSender) Send(f wire.Frame) error {
	sealed, err := s.cipher.Seal(f.Payload)
	if err != nil {
		return fmt.Errorf("ioworker: seal frame: %w", err)
	}
	return wire.WriteFrame(s.conn, wire.Frame{Cmd: f.Cmd, Payload: sealed})
}

// Worker is the IO worker loop described in spec.md §4.G.
type Worker struct {
	conn     net.Conn
	cipher   wire.Cipher
	queue    *queue.Queue
	channels *channelmux.Table
	orch     *orchestrate.Orchestrator
	handlers map[string]Handler
}

// New creates a Worker over conn using cipher for the authenticated
// transport, driven by orch's orchestration layer.
func New(conn net.Conn, cipher wire.Cipher, q *queue.Queue, channels *channelmux.Table, orch *orchestrate.Orchestrator) *Worker {
	orch.Sender = &connSender{conn: conn, cipher: cipher}
	orch.Channels = channels
	orch.Queue = q
	return &Worker{
		conn:     conn,
		cipher:   cipher,
		queue:    q,
		channels: channels,
		orch:     orch,
		handlers: defaultHandlers(orch),
	}
}

// RegisterHandler installs or overrides the handler for a request type,
// letting callers (e.g. the session package, for LOGIN/LOGOUT/NOTIFY)
// extend the dispatch table beyond the playlist/browse types this package
// owns.
func (w *Worker) RegisterHandler(reqType string, h Handler) {
	w.handlers[reqType] = h
}

// Run executes the worker loop until ctx is cancelled. On return, every
// in-flight channel is failed so its callback's context is freed
// (spec.md §5 "Cancellation": "fail_and_unregister_all on the channel
// table so in-flight callbacks see ERROR").
func (w *Worker) Run(ctx context.Context) error {
	defer w.channels.FailAndUnregisterAll()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		now := time.Now().UnixMilli()
		for {
			req := w.queue.FetchNextRunnable(now)
			if req == nil {
				break
			}
			w.dispatch(req)
		}

		if err := w.pollOnce(); err != nil {
			if isTimeout(err) {
				continue
			}
			return fmt.Errorf("ioworker: poll: %w", err)
		}
	}
}

// dispatch runs the handler for req.Type. If the handler neither pinned
// the request (leaving its deadline at NoDeadline) nor rescheduled it
// (leaving it RUNNING with a finite future deadline), the request is
// treated as already complete and its result is posted immediately —
// this is the shape every pure-notification handler uses.
func (w *Worker) dispatch(req *queue.Request) {
	h, ok := w.handlers[req.Type]
	if !ok {
		slog.Error("ioworker: no handler for request type", "type", req.Type)
		w.queue.SetResult(req, fmt.Errorf("ioworker: unknown request type %q", req.Type), nil)
		return
	}
	h(req)
	// A handler that started a channel-bearing command pins the request
	// (Deadline() == NoDeadline) or reschedules it into the future on a
	// transient error; anything still RUNNING with a deadline at or
	// before now was never pinned, meaning the handler (e.g. one of the
	// pure-notification completors) has nothing further to wait on.
	if req.State() == queue.StateRunning && req.Deadline() != queue.NoDeadline && req.Deadline() <= time.Now().UnixMilli() {
		w.queue.SetResult(req, req.Err, req.Input)
	}
}

// pollOnce reads one frame from the socket within defaultPollTimeout and
// routes it (spec.md §4.G step 2-3).
func (w *Worker) pollOnce() error {
	if err := w.conn.SetReadDeadline(time.Now().Add(defaultPollTimeout)); err != nil {
		return err
	}
	frame, err := wire.ReadFrame(w.conn)
	if err != nil {
		return err
	}
	plaintext, err := w.cipher.Open(frame.Payload)
	if err != nil {
		slog.Error("ioworker: decrypt frame failed, dropping", "cmd", frame.Cmd, "error", err)
		return nil
	}
	w.routeFrame(frame.Cmd, plaintext)
	return nil
}

// routeFrame dispatches a decrypted packet by command code: channel-bearing
// commands go to the multiplexer, everything else is a direct session
// signal the embedding layer (or session package handlers) picks up.
func (w *Worker) routeFrame(cmd wire.Command, payload []byte) {
	switch cmd {
	case wire.CmdChannelData:
		cf, err := wire.ParseChannelFrame(payload)
		if err != nil {
			slog.Error("ioworker: malformed channel frame, dropping", "error", err)
			return
		}
		w.channels.OnFrame(cf.ChannelID, cf.Payload)
	case wire.CmdPing, wire.CmdNotify, wire.CmdTokenLost:
		// Non-channel commands post directly; the session package's
		// registered handlers (if any) pick these up as NEW requests.
		w.queue.Post(notificationType(cmd), payload, time.Now().UnixMilli())
	default:
		slog.Debug("ioworker: unhandled command code", "cmd", cmd)
	}
}

func notificationType(cmd wire.Command) string {
	switch cmd {
	case wire.CmdPing:
		return "PING"
	case wire.CmdNotify:
		return "NOTIFY"
	case wire.CmdTokenLost:
		return "PLAY_TOKEN_LOST"
	default:
		return "UNKNOWN"
	}
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}
