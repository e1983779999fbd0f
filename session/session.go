// Package session implements the four embedding-API primitives spec.md §6
// calls out: session_init, session_release, session_login/logout, and
// process_events. It owns the per-session collaborators — the entity
// tables, the request queue, the channel multiplexer, the orchestration
// layer, and the IO worker goroutine — and turns RETURNED requests into the
// Callbacks the embedding thread registered.
package session

import (
	"context"
	"crypto/rand"
	"fmt"
	"net"
	"time"

	"github.com/qfwfq/corespot/config"
	"github.com/qfwfq/corespot/internal/cache"
	"github.com/qfwfq/corespot/internal/channelmux"
	"github.com/qfwfq/corespot/internal/entity"
	"github.com/qfwfq/corespot/internal/ident"
	"github.com/qfwfq/corespot/internal/ioworker"
	"github.com/qfwfq/corespot/internal/orchestrate"
	"github.com/qfwfq/corespot/internal/queue"
	"github.com/qfwfq/corespot/internal/wire"
)

// Request types owned by this package rather than internal/orchestrate,
// since they carry no playlist/browse payload (spec.md §4.G request type
// catalog, session-level subset).
const (
	reqLogin  = "LOGIN"
	reqLogout = "LOGOUT"
)

// Session is one logical connection to the service: one embedding thread,
// one IO worker goroutine (spec.md §5 "Threads").
type Session struct {
	cfg *config.Config
	cb  Callbacks

	tables   *orchestrate.Tables
	queue    *queue.Queue
	channels *channelmux.Table
	orch     *orchestrate.Orchestrator
	worker   *ioworker.Worker
	cache    *cache.Store
	creds    *credentialCache

	conn   net.Conn
	cancel context.CancelFunc
	runErr chan error

	loggedIn bool
}

// Init creates a Session bound to cfg, wiring the entity tables, request
// queue, channel multiplexer, and orchestration layer (spec.md §6
// "session_init(config) -> session"). No network connection is made until
// Login.
func Init(cfg *config.Config, cb Callbacks) (*Session, error) {
	store, err := cache.NewStore(cfg.CacheDir)
	if err != nil {
		return nil, newError(KindAPIInitFailed, "create cache store: %v", err)
	}
	creds, err := newCredentialCache(cfg.CacheDir)
	if err != nil {
		return nil, newError(KindAPIInitFailed, "create credential cache: %v", err)
	}

	tables := orchestrate.NewTables()
	q := queue.New()
	channels := channelmux.New()
	orch := orchestrate.New(tables, q, channels, nil, cfg.OrchestrateConfig())
	orch.Cache = store
	orch.MusicDir = cfg.MusicDir

	s := &Session{
		cfg:      cfg,
		cb:       cb,
		tables:   tables,
		queue:    q,
		channels: channels,
		orch:     orch,
		cache:    store,
		creds:    creds,
	}

	return s, nil
}

// Release tears the session down: stop the IO worker, fail every in-flight
// channel, and let the entity tables go (spec.md §5 "Cancellation").
func (s *Session) Release() {
	if s.cancel != nil {
		s.cancel()
		<-s.runErr
	}
	if s.conn != nil {
		s.conn.Close()
	}
}

// Login dials the access point, derives the transport cipher, and starts
// the IO worker goroutine (spec.md §6 "session_login/logout"). The
// handshake that negotiates the shared secret is a collaborator concern
// per spec.md §6 ("Wire protocol (collaborator)"); here it is reduced to a
// minimal nonce exchange so the rest of the stack has a real Cipher to
// work with.
func (s *Session) Login(username, password string) error {
	if username == "" {
		return newError(KindInvalidIndata, "empty username")
	}
	if cached, ok := s.creds.lookup(username); ok {
		if !verifyPassword(cached, password) {
			return newError(KindInvalidIndata, "password does not match cached credential")
		}
	}

	dialer := net.Dialer{Timeout: time.Duration(s.cfg.DialTimeoutMS) * time.Millisecond}
	conn, err := dialer.Dial("tcp", s.cfg.Addr)
	if err != nil {
		return newError(KindOtherTransient, "dial %s: %v", s.cfg.Addr, err)
	}

	sharedSecret, err := exchangeHello(conn, username, password)
	if err != nil {
		conn.Close()
		return newError(KindBadApplicationKey, "handshake: %v", err)
	}

	clientCipher, err := wire.NewCipher(sharedSecret, []byte(username), "corespot client->server")
	if err != nil {
		conn.Close()
		return newError(KindAPIInitFailed, "derive cipher: %v", err)
	}

	if err := s.creds.save(username, password); err != nil {
		conn.Close()
		return newError(KindAPIInitFailed, "save credential cache: %v", err)
	}

	s.conn = conn
	s.worker = ioworker.New(conn, clientCipher, s.queue, s.channels, s.orch)
	s.registerSessionHandlers()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.runErr = make(chan error, 1)
	go func() {
		s.runErr <- s.worker.Run(ctx)
	}()

	now := time.Now().UnixMilli()
	s.queue.Post(reqLogin, username, now)
	s.queue.Post(orchestrate.ReqPCLoad, nil, now)
	return nil
}

// Logout posts a LOGOUT notification; the connection itself is torn down by
// Release, matching spec.md §5's single cancellation boundary.
func (s *Session) Logout() {
	s.queue.Post(reqLogout, nil, time.Now().UnixMilli())
}

// registerSessionHandlers installs the LOGIN/LOGOUT completion handlers the
// IO worker's default dispatch table doesn't know about (ioworker.Worker
// leaves exactly this extension point for session-level signals).
func (s *Session) registerSessionHandlers() {
	s.worker.RegisterHandler(reqLogin, func(req *queue.Request) {
		s.queue.SetResult(req, nil, req.Input)
	})
	s.worker.RegisterHandler(reqLogout, func(req *queue.Request) {
		s.queue.SetResult(req, nil, nil)
	})
}

// ProcessEvents drains every RETURNED request, dispatches the matching
// Callbacks field, and marks each processed, in RETURNED order (spec.md §6
// "process_events(session, &next_timeout_ms)", §5 "Ordering"). When no
// request is RETURNED, nextTimeoutMS reports how long the embedding may
// block before calling again; ok is false if no request is pending at all.
func (s *Session) ProcessEvents() (nextTimeoutMS int64, ok bool) {
	for {
		req, next, hasNext := s.queue.FetchNextResult()
		if req == nil {
			return next, hasNext
		}
		s.deliver(req)
		s.queue.MarkProcessed(req)
	}
}

func (s *Session) deliver(req *queue.Request) {
	switch req.Type {
	case reqLogin:
		s.loggedIn = true
		if s.cb.LoggedIn != nil {
			s.cb.LoggedIn()
		}
	case reqLogout:
		s.loggedIn = false
		if s.cb.LoggedOut != nil {
			s.cb.LoggedOut()
		}
	case orchestrate.ReqPCLoad:
		if req.Err == nil && s.cb.ContainerLoaded != nil {
			s.cb.ContainerLoaded()
		}
	case orchestrate.ReqPCPlaylistAdd:
		if p, ok := req.Input.(*entity.Playlist); ok && s.cb.PlaylistAdded != nil {
			s.cb.PlaylistAdded(p, p.Position)
		}
	case orchestrate.ReqPlaylistRename:
		if p, ok := req.Input.(*entity.Playlist); ok && s.cb.PlaylistRenamed != nil {
			s.cb.PlaylistRenamed(p)
		}
	case orchestrate.ReqBrowsePlaylistTracks:
		if p, ok := req.Input.(*entity.Playlist); ok && s.cb.TracksAdded != nil {
			s.cb.TracksAdded(p)
		}
	case orchestrate.ReqPlaylistStateChanged:
		if p, ok := req.Input.(*entity.Playlist); ok && s.cb.PlaylistStateChanged != nil {
			s.cb.PlaylistStateChanged(p)
		}
	case orchestrate.ReqBrowseUser:
		if s.cb.MetadataUpdated != nil {
			s.cb.MetadataUpdated()
		}
	case "NOTIFY":
		if payload, ok := req.Input.([]byte); ok && s.cb.MessageToUser != nil {
			s.cb.MessageToUser(string(payload))
		}
	case "PLAY_TOKEN_LOST":
		if s.cb.PlayTokenLost != nil {
			s.cb.PlayTokenLost()
		}
	}
}

// Tables exposes the entity tables for read-only queries from the
// embedding thread (spec.md §6: "safe to call from the embedding thread
// but may return stale data").
func (s *Session) Tables() *orchestrate.Tables {
	return s.tables
}

// QueueLen reports how many requests are currently tracked by the request
// queue (NEW, RUNNING, or RETURNED).
func (s *Session) QueueLen() int {
	return s.queue.Len()
}

// ChannelLen reports how many channels are currently registered in the
// multiplexer.
func (s *Session) ChannelLen() int {
	return s.channels.Len()
}

// IsLoggedIn reports whether the LOGIN request has completed.
func (s *Session) IsLoggedIn() bool {
	return s.loggedIn
}

// FindPlaylist looks up an interned playlist by its 34-character hex
// HashKey string, for the debug API's playlist-change endpoint.
func (s *Session) FindPlaylist(hashKeyHex string) (*entity.Playlist, error) {
	key, err := ident.ParseHashKey(hashKeyHex)
	if err != nil {
		return nil, newError(KindInvalidIndata, "parse playlist id: %v", err)
	}
	p, ok := s.tables.Playlists.Lookup(key)
	if !ok {
		return nil, newError(KindResourceNotLoaded, "playlist %s not interned", hashKeyHex)
	}
	return p, nil
}

// ChangePlaylist posts a PLAYLIST_CHANGE request for p with the given ops
// XML, the embedding-facing entry point for playlist mutation.
func (s *Session) ChangePlaylist(p *entity.Playlist, xmlOps []byte) {
	s.queue.Post(orchestrate.ReqPlaylistChange, ioworker.PendingChange{Playlist: p, XMLOps: xmlOps}, time.Now().UnixMilli())
}

// exchangeHello performs a minimal nonce exchange to seed the transport
// cipher: the client sends a random 32-byte nonce (the username is not
// sent), the server is expected to echo a nonce of its own, and both sides fold the
// password and nonces together. This stands in for the real
// application-key handshake spec.md leaves to the wire-protocol
// collaborator.
func exchangeHello(conn net.Conn, username, password string) ([]byte, error) {
	clientNonce := make([]byte, 32)
	if _, err := rand.Read(clientNonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	if _, err := conn.Write(clientNonce); err != nil {
		return nil, fmt.Errorf("send nonce: %w", err)
	}
	serverNonce := make([]byte, 32)
	if _, err := conn.Read(serverNonce); err != nil {
		return nil, fmt.Errorf("read server nonce: %w", err)
	}
	secret := make([]byte, 0, len(clientNonce)+len(serverNonce)+len(password))
	secret = append(secret, clientNonce...)
	secret = append(secret, serverNonce...)
	secret = append(secret, []byte(password)...)
	return secret, nil
}
