package tbnf

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gamevidea/tbnf/internal/protocol"
	"github.com/gamevidea/tbnf/message"
)

// handshaker is the variant-specific part of bringing up a fresh socket: the
// client identifies itself and adopts its network identifier, the host-side
// peer confirms the login.
type handshaker interface {
	handshake(conn net.Conn, ctx context.Context) bool
}

// session binds one socket to the pair of loops serving it. Replacing the
// endpoint's socket cancels the session, which closes the socket and lets both
// loops wind down without emitting lifecycle events.
type session struct {
	ctx    context.Context
	cancel context.CancelFunc
	conn   net.Conn
	once   sync.Once
}

// Tears the session down from either loop. The disconnection event fires
// exactly once per session and only when the session was ended by the socket
// itself rather than by cancellation.
func (s *session) teardown(e *Endpoint) {
	cancelled := s.ctx.Err() != nil
	s.cancel()
	s.conn.Close()

	if !cancelled {
		s.once.Do(e.emitDisconnection)
	}
}

// Endpoint is one side of a logical connection. It owns at most one current
// socket at a time, a FIFO queue of outgoing messages paired with a counting
// latch, and the send and receive loops serving the current socket. The
// logical connection outlives any individual socket: a replacement cancels the
// previous socket's loops and the queue carries over.
type Endpoint struct {
	// InactivityCheckInterval is the idle period after which the send loop
	// injects an inactivity probe. Read-only once the endpoint is started.
	InactivityCheckInterval time.Duration

	// ConnectionTimeout bounds a single connection or handshake attempt.
	// Read-only once the endpoint is started.
	ConnectionTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu  sync.Mutex
	cur *session

	queue *protocol.Queue[message.Message]
	latch *protocol.Latch

	lastActivity atomic.Int64

	idMu     sync.Mutex
	netID    uint8
	netIDSet bool

	handler *Handler
	role    message.Author
	hs      handshaker

	successFns    []func(*Endpoint)
	failureFns    []func(*Endpoint)
	disconnectFns []func(*Endpoint)
	sentFns       []func(*Endpoint, message.Message)
	receivedFns   []func(*Endpoint, message.Message)
}

// Initializes the shared endpoint state of a client or remote endpoint.
func (e *Endpoint) init(handler *Handler, role message.Author) {
	e.ctx, e.cancel = context.WithCancel(context.Background())
	e.InactivityCheckInterval = protocol.DEFAULT_INACTIVITY_CHECK_INTERVAL
	e.ConnectionTimeout = protocol.DEFAULT_CONNECTION_TIMEOUT
	e.queue = protocol.NewQueue[message.Message]()
	e.latch = protocol.NewLatch()
	e.handler = handler
	e.role = role
	e.touch()
}

// Registers a listener invoked after a socket passes its handshake.
func (e *Endpoint) OnConnectionSuccess(fn func(*Endpoint)) {
	e.successFns = append(e.successFns, fn)
}

// Registers a listener invoked when a connection attempt or handshake fails.
func (e *Endpoint) OnConnectionFailure(fn func(*Endpoint)) {
	e.failureFns = append(e.failureFns, fn)
}

// Registers a listener invoked when the current socket dies.
func (e *Endpoint) OnDisconnection(fn func(*Endpoint)) {
	e.disconnectFns = append(e.disconnectFns, fn)
}

// Registers a listener invoked after every successfully transmitted message.
func (e *Endpoint) OnRawMessageSent(fn func(*Endpoint, message.Message)) {
	e.sentFns = append(e.sentFns, fn)
}

// Registers a listener invoked for every decoded incoming message.
func (e *Endpoint) OnRawMessageReceived(fn func(*Endpoint, message.Message)) {
	e.receivedFns = append(e.receivedFns, fn)
}

// Appends a message to the outgoing queue and signals the send loop. Safe for
// concurrent producers; the message is held until it has been transmitted on
// some socket. A message that can never be framed (oversize or of an
// unregistered variant) is dropped by the send loop instead.
func (e *Endpoint) Enqueue(m message.Message) {
	e.queue.Enqueue(m)
	e.latch.Increment()
}

// Returns the network identifier assigned to this endpoint's identity by the
// host, and whether one has been assigned yet.
func (e *Endpoint) NetworkIdentifier() (uint8, bool) {
	e.idMu.Lock()
	defer e.idMu.Unlock()
	return e.netID, e.netIDSet
}

// Adopts the network identifier. It is set once and read-only afterwards; a
// later attempt with a different value is a protocol anomaly and only logged.
func (e *Endpoint) setNetworkIdentifier(id uint8) {
	e.idMu.Lock()
	defer e.idMu.Unlock()

	if e.netIDSet {
		if e.netID != id {
			slog.Warn("peer offered a different network identifier", "have", e.netID, "got", id)
		}
		return
	}

	e.netID = id
	e.netIDSet = true
}

// Reports whether the endpoint currently holds a live socket.
func (e *Endpoint) Connected() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cur != nil && e.cur.ctx.Err() == nil
}

// Closes the current socket without cancelling the endpoint, which provokes a
// disconnection and, on a client endpoint, a reconnect cycle.
func (e *Endpoint) ForceDisconnection() {
	e.mu.Lock()
	cur := e.cur
	e.mu.Unlock()

	if cur != nil {
		cur.conn.Close()
	}
}

// Cancels the endpoint's lifetime and disposes the current socket. No further
// lifecycle events are emitted once Close returns.
func (e *Endpoint) Close() {
	e.cancel()

	e.mu.Lock()
	cur := e.cur
	e.mu.Unlock()

	if cur != nil {
		cur.conn.Close()
	}
}

// Runs the common path of bringing up a fresh socket: handshake, lifecycle
// events and installing the socket as current. A socket that is nil or fails
// its handshake is closed and reported as a connection failure.
func (e *Endpoint) handleNewConnection(conn net.Conn, ctx context.Context) {
	if conn == nil || !e.hs.handshake(conn, ctx) {
		if conn != nil {
			conn.Close()
		}
		e.emitConnectionFailure()
		return
	}

	e.touch()
	e.emitConnectionSuccess()
	e.install(conn)
}

// Installs a socket as the endpoint's current one. The previous session, if
// any, is cancelled, which closes its socket and stops its loops without
// lifecycle events. Two fresh loops are started bound to the new session.
func (e *Endpoint) install(conn net.Conn) {
	sctx, cancel := context.WithCancel(e.ctx)
	s := &session{ctx: sctx, cancel: cancel, conn: conn}

	e.mu.Lock()
	prev := e.cur
	e.cur = s
	e.mu.Unlock()

	if prev != nil {
		prev.cancel()
		prev.conn.Close()
	}

	context.AfterFunc(sctx, func() { conn.Close() })

	go e.sendLoop(s)
	go e.receiveLoop(s)
}

// The send loop sleeps on the latch until a message is queued or the
// inactivity deadline passes. A queued head is peeked, transmitted and only
// then dequeued, so a head that could not be transmitted survives for the next
// socket. On an idle deadline the loop injects an inactivity probe instead.
func (e *Endpoint) sendLoop(s *session) {
	defer s.teardown(e)

	for s.ctx.Err() == nil {
		timeout := e.InactivityCheckInterval - time.Since(e.last())
		if timeout < 0 {
			timeout = 0
		}

		if !e.latch.Wait(s.ctx, timeout) {
			if s.ctx.Err() != nil {
				return
			}

			if time.Since(e.last()) > e.InactivityCheckInterval {
				probe := &message.InactivityCheck{}
				if err := message.Write(s.conn, probe); err != nil {
					return
				}
				e.touch()
				e.emitSent(probe)
			}
			continue
		}

		if s.ctx.Err() != nil {
			return
		}

		head, ok := e.queue.TryPeek()
		if !ok {
			// The head was consumed by a previous session's loop between the
			// latch signal and the peek. Decrementing here would corrupt the
			// latch count, so just re-evaluate.
			continue
		}

		e.checkAuthor(head)

		err := message.Write(s.conn, head)
		if err == nil {
			e.queue.TryDequeue()
			e.latch.Decrement()
			e.touch()
			e.emitSent(head)
			continue
		}

		if errors.Is(err, message.FTL_ERROR) || errors.Is(err, message.UNR_ERROR) {
			// The head can never be transmitted on any socket; retrying it
			// would wedge the queue.
			e.queue.TryDequeue()
			e.latch.Decrement()
			slog.Warn("dropping untransmittable message", "variant", head.Name(), "err", err)
			continue
		}

		return
	}
}

// The receive loop reads framed messages off the socket and routes them to the
// handler. A failed read flows through as a nil message so handlers can no-op
// on it, then the loop ends and the session tears down.
func (e *Endpoint) receiveLoop(s *session) {
	defer s.teardown(e)

	for s.ctx.Err() == nil {
		m, err := message.Read(s.conn)
		if err != nil {
			e.dispatch(nil)
			return
		}

		if m != nil {
			e.emitReceived(m)
		}
		e.dispatch(m)
	}
}

// Routes a message to the handler, containing handler panics so a misbehaving
// routine cannot kill the receive loop.
func (e *Endpoint) dispatch(m message.Message) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("message handler panicked", "err", r)
		}
	}()

	e.handler.Handle(e, m)
}

// Logs a development diagnostic when a message is sent by a side that its
// variant does not permit.
func (e *Endpoint) checkAuthor(m message.Message) {
	if a := m.Author(); a != message.AuthorClientOrHost && a != e.role {
		slog.Warn("message sent by a side that is not its permitted author", "variant", m.Name())
	}
}

// Records now as the time of the last transmission.
func (e *Endpoint) touch() {
	e.lastActivity.Store(time.Now().UnixNano())
}

// Returns the time of the last transmission.
func (e *Endpoint) last() time.Time {
	return time.Unix(0, e.lastActivity.Load())
}

func (e *Endpoint) emitConnectionSuccess() {
	if e.ctx.Err() != nil {
		return
	}
	for _, fn := range e.successFns {
		fn(e)
	}
}

func (e *Endpoint) emitConnectionFailure() {
	if e.ctx.Err() != nil {
		return
	}
	for _, fn := range e.failureFns {
		fn(e)
	}
}

func (e *Endpoint) emitDisconnection() {
	if e.ctx.Err() != nil {
		return
	}
	for _, fn := range e.disconnectFns {
		fn(e)
	}
}

func (e *Endpoint) emitSent(m message.Message) {
	if e.ctx.Err() != nil {
		return
	}
	for _, fn := range e.sentFns {
		fn(e, m)
	}
}

func (e *Endpoint) emitReceived(m message.Message) {
	if e.ctx.Err() != nil {
		return
	}
	for _, fn := range e.receivedFns {
		fn(e, m)
	}
}
