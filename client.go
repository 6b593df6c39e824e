package live

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	"github.com/bt-bridge/gemini-live/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SessionState int

const (
	StateIdle SessionState = iota
	StateConnecting
	StateOpen
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Session manages exactly one logical streaming session at a time. It owns
// the Transport exclusively, runs the connection lifecycle state machine, and
// re-emits decoded inbound frames as typed events in exact arrival order.
//
// Many consumers may subscribe to its events; the Session is the only writer
// on the transport. Outbound operations return shared.ErrNotConnected when the
// session is not open rather than dropping silently, so caller bugs stay
// visible.
type Session struct {
	logger shared.LoggerAdapter
	dial   DialFunc
	events emitter

	mu        sync.Mutex
	state     SessionState
	cfg       *SessionConfig
	transport Transport
	sessionID string
	setupDone chan error

	// writeMu serializes the state check and the transport write so frames
	// reach the transport in the exact order the send operations were
	// invoked.
	writeMu sync.Mutex
}

type SessionOption func(*Session)

// WithDialer replaces the production WebSocket dialer.
func WithDialer(dial DialFunc) SessionOption {
	return func(s *Session) {
		if dial != nil {
			s.dial = dial
		}
	}
}

func NewSession(logger shared.LoggerAdapter, opts ...SessionOption) (*Session, error) {
	if logger == nil {
		return nil, shared.ErrNoLogger
	}
	s := &Session{
		logger: logger,
		dial:   DialWebSocket(defaultHandshakeTimeout),
		state:  StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Subscribe registers a handler for one event kind and returns its
// unsubscribe function. Handlers for a kind run in subscription order;
// unsubscribing during dispatch is safe.
func (s *Session) Subscribe(kind EventKind, fn Handler) (unsubscribe func()) {
	return s.events.subscribe(kind, fn)
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ID identifies the current connection attempt in logs. It changes on every
// successful entry into the connecting state.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// Connect opens the transport, sends the setup message, and blocks until the
// server acknowledges it, the transport fails, the session is disconnected,
// or ctx is done. A call while already connecting or open is a no-op
// returning nil; only one connection attempt is ever in flight.
//
// The config is immutable for the lifetime of the connection.
func (s *Session) Connect(ctx context.Context, cfg *SessionConfig) error {
	if cfg == nil {
		return shared.ErrNoConfig
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	endpoint, err := cfg.uri()
	if err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	s.mu.Lock()
	if s.state == StateConnecting || s.state == StateOpen {
		s.mu.Unlock()
		return nil
	}
	s.state = StateConnecting
	s.cfg = cfg
	s.sessionID = uuid.NewString()
	done := make(chan error, 1)
	s.setupDone = done
	logger := s.logger.With(zap.String("session", s.sessionID))
	s.mu.Unlock()

	logger.Info("connecting", zap.String("model", cfg.Model))
	transport, err := s.dial(ctx, endpoint)
	if err != nil {
		s.closeWith(fmt.Sprintf("dial failed: %v", err))
		return fmt.Errorf("%w: %w", shared.ErrConnectionFailed, err)
	}

	s.mu.Lock()
	if s.state != StateConnecting {
		// Disconnected while the dial was in flight: release the transport
		// instead of leaking it. The close event was already emitted.
		s.mu.Unlock()
		_ = transport.Close()
		return fmt.Errorf("%w: session closed during connect", shared.ErrConnectionFailed)
	}
	s.transport = transport
	s.mu.Unlock()

	// Setup is always the first outbound frame on a connection.
	frame, err := EncodeSetup(cfg)
	if err != nil {
		s.closeWith(fmt.Sprintf("encoding setup: %v", err))
		return fmt.Errorf("%w: encoding setup: %w", shared.ErrConnectionFailed, err)
	}
	if err := transport.WriteMessage(frame); err != nil {
		s.closeWith(fmt.Sprintf("writing setup: %v", err))
		return fmt.Errorf("%w: writing setup: %w", shared.ErrConnectionFailed, err)
	}

	go s.readLoop(transport, logger)

	select {
	case <-ctx.Done():
		s.closeWith("connect canceled")
		return fmt.Errorf("%w: %w", shared.ErrConnectionFailed, ctx.Err())
	case err := <-done:
		return err
	}
}

// Disconnect closes the transport if present and settles the session at
// closed. It is safe to call from any state, including before the transport
// ever opened, and never returns an error.
func (s *Session) Disconnect() {
	s.closeWith("disconnect requested")
}

// closeWith performs the single terminal transition to StateClosed: closes
// the transport, rejects a pending Connect, and emits exactly one close
// event. Later calls are no-ops.
func (s *Session) closeWith(reason string) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	transport := s.transport
	s.transport = nil
	done := s.setupDone
	s.setupDone = nil
	s.mu.Unlock()

	if transport != nil {
		if err := transport.Close(); err != nil {
			s.logger.Warn("closing transport", zap.Error(err))
		}
	}
	if done != nil {
		done <- fmt.Errorf("%w: %s", shared.ErrConnectionFailed, reason)
	}
	s.logger.Info("session closed", zap.String("reason", reason))
	s.events.emit(Event{Kind: EventClose, CloseReason: reason})
}

// Send wraps parts into a single client-content frame and writes it
// immediately. Returns shared.ErrNotConnected unless the session is open.
func (s *Session) Send(parts []Part, turnComplete bool) error {
	return s.write(func() ([]byte, error) {
		return EncodeClientContent(parts, turnComplete)
	})
}

// SendRealtimeInput writes one realtime-input frame carrying the given media
// chunks. It is fire-and-forget and performs no throttling or coalescing;
// rate control belongs to the caller.
func (s *Session) SendRealtimeInput(chunks []MediaChunk) error {
	return s.write(func() ([]byte, error) {
		return EncodeRealtimeInput(chunks)
	})
}

// SendToolResponse answers previously received tool calls in one atomic
// frame. The session passes responses through verbatim: it neither checks
// completeness nor deduplicates call ids across frames.
func (s *Session) SendToolResponse(responses []FunctionResponse) error {
	return s.write(func() ([]byte, error) {
		return EncodeToolResponse(responses)
	})
}

func (s *Session) write(encode func() ([]byte, error)) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if s.state != StateOpen {
		s.mu.Unlock()
		return shared.ErrNotConnected
	}
	transport := s.transport
	s.mu.Unlock()

	frame, err := encode()
	if err != nil {
		return fmt.Errorf("encoding frame: %w", err)
	}
	if err := transport.WriteMessage(frame); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// readLoop drains the transport until it fails or the session closes.
// Dispatch for one frame runs to completion before the next is read, so
// events are emitted in exact arrival order.
func (s *Session) readLoop(transport Transport, logger shared.LoggerAdapter) {
	for {
		data, err := transport.ReadMessage()
		if err != nil {
			s.closeWith(fmt.Sprintf("transport read: %v", err))
			return
		}
		s.dispatch(data, logger)
	}
}

func (s *Session) dispatch(data []byte, logger shared.LoggerAdapter) {
	msg, err := DecodeServerMessage(data)
	if err != nil {
		// One malformed frame must not take down the session.
		logger.Warn("skipping frame", zap.Error(err))
		s.events.emit(Event{Kind: EventLog, Log: err.Error()})
		return
	}

	switch {
	case msg.SetupComplete != nil:
		s.mu.Lock()
		if s.state != StateConnecting {
			s.mu.Unlock()
			logger.Warn("setup acknowledged in unexpected state", zap.String("state", s.state.String()))
			return
		}
		s.state = StateOpen
		done := s.setupDone
		s.setupDone = nil
		s.mu.Unlock()
		if done != nil {
			done <- nil
		}
		logger.Info("session open")
		s.events.emit(Event{Kind: EventOpen})

	case msg.ServerContent != nil:
		s.dispatchContent(msg.ServerContent, logger)

	case msg.ToolCall != nil:
		logger.Debug("tool call", zap.Int("calls", len(msg.ToolCall.FunctionCalls)))
		s.events.emit(Event{Kind: EventToolCall, ToolCall: msg.ToolCall})

	case msg.ToolCallCancellation != nil:
		logger.Debug("tool call cancellation", zap.Strings("ids", msg.ToolCallCancellation.IDs))
		s.events.emit(Event{Kind: EventToolCallCancellation, CancelledIDs: msg.ToolCallCancellation.IDs})
	}
}

func (s *Session) dispatchContent(sc *ServerContent, logger shared.LoggerAdapter) {
	if sc.ModelTurn != nil {
		s.events.emit(Event{Kind: EventContent, Content: sc})
		for _, part := range sc.ModelTurn.Parts {
			if part.InlineData == nil || !strings.HasPrefix(part.InlineData.MimeType, "audio/") {
				continue
			}
			raw, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				logger.Warn("skipping undecodable audio part", zap.Error(err))
				s.events.emit(Event{Kind: EventLog, Log: fmt.Sprintf("undecodable audio part: %v", err)})
				continue
			}
			s.events.emit(Event{Kind: EventAudio, Audio: raw})
		}
	}
	if sc.Interrupted {
		logger.Debug("turn interrupted")
		s.events.emit(Event{Kind: EventInterrupted})
	}
	if sc.TurnComplete {
		logger.Debug("turn complete")
		s.events.emit(Event{Kind: EventTurnComplete})
	}
}
