package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dialsense/dialsense-go/pkg/log"
	"github.com/dialsense/dialsense-go/pkg/subscription"
	"github.com/dialsense/dialsense-go/pkg/wire"
)

// Server defaults.
const (
	// DefaultAddress is the default gateway listen address.
	DefaultAddress = ":7447"

	// DefaultMaxConnections matches the connection limit of the radio stack.
	DefaultMaxConnections = 3

	// DefaultWriteTimeout bounds a single frame write to a peer.
	DefaultWriteTimeout = 2 * time.Second
)

// Server errors.
var (
	// ErrUnknownConnection indicates a push to a handle with no open connection.
	ErrUnknownConnection = errors.New("unknown connection")

	// ErrServerRunning indicates Start was called twice.
	ErrServerRunning = errors.New("server already running")

	// ErrNoHandler indicates a ServerConfig without a Handler.
	ErrNoHandler = errors.New("handler is required")

	// ErrServerStopped indicates a connection arrived while the server was stopping.
	ErrServerStopped = errors.New("server stopped")
)

// Handler receives peer events. Calls arrive on per-connection goroutines
// and must not block.
type Handler interface {
	OnSubscribe(conn subscription.ConnID, capability subscription.Capability, mode subscription.Mode) error
	OnUnsubscribe(conn subscription.ConnID, capability subscription.Capability) error
	OnPullRequest(conn subscription.ConnID, capability subscription.Capability) ([]byte, error)
	OnDisconnect(conn subscription.ConnID)
}

// ServerConfig configures a gateway server.
type ServerConfig struct {
	// Address to listen on (e.g., ":7447" or "127.0.0.1:0").
	Address string

	// MaxMessageSize is the maximum frame payload (default: DefaultMaxMessageSize).
	MaxMessageSize uint32

	// MaxConnections limits concurrent peers (default: DefaultMaxConnections).
	MaxConnections int

	// WriteTimeout bounds each frame write (default: DefaultWriteTimeout).
	// A peer that stops reading fails the write and is disconnected.
	WriteTimeout time.Duration

	// Handler receives peer requests. Required.
	Handler Handler

	// Logger receives operational logs. Nil means slog.Default().
	Logger *slog.Logger

	// EventLogger captures frames and connection state (optional).
	EventLogger log.Logger

	// RunID is stamped on captured events.
	RunID string
}

// Server accepts peer connections and routes their requests.
type Server struct {
	config   ServerConfig
	logger   *slog.Logger
	listener net.Listener

	conns   map[subscription.ConnID]*ServerConn
	nextID  uint16
	connsMu sync.RWMutex

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewServer creates a gateway server.
func NewServer(config ServerConfig) (*Server, error) {
	if config.Handler == nil {
		return nil, ErrNoHandler
	}
	if config.Address == "" {
		config.Address = DefaultAddress
	}
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	if config.MaxConnections <= 0 {
		config.MaxConnections = DefaultMaxConnections
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultWriteTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		config: config,
		logger: logger.With("component", "gateway"),
		conns:  make(map[subscription.ConnID]*ServerConn),
	}, nil
}

// Start begins accepting connections.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return ErrServerRunning
	}

	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running.Store(true)

	s.logger.Info("gateway listening", "addr", listener.Addr().String())

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Stop closes the listener and all connections and waits for their goroutines.
func (s *Server) Stop() error {
	if !s.running.Swap(false) {
		return nil
	}
	s.cancel()

	if s.listener != nil {
		s.listener.Close()
	}

	s.connsMu.RLock()
	for _, conn := range s.conns {
		conn.Close()
	}
	s.connsMu.RUnlock()

	s.wg.Wait()
	return nil
}

// Addr returns the listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener != nil {
		return s.listener.Addr()
	}
	return nil
}

// ConnectionCount returns the number of open connections.
func (s *Server) ConnectionCount() int {
	s.connsMu.RLock()
	defer s.connsMu.RUnlock()
	return len(s.conns)
}

// Push sends a value to one peer as a notification frame.
func (s *Server) Push(conn subscription.ConnID, capability subscription.Capability, data []byte, mode subscription.Mode) error {
	s.connsMu.RLock()
	sc, ok := s.conns[conn]
	s.connsMu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownConnection, conn)
	}

	msg, err := wire.EncodeNotification(&wire.Notification{
		Capability: uint16(capability),
		Value:      data,
		Indicate:   mode == subscription.ModeIndicate,
	})
	if err != nil {
		return err
	}
	return sc.Send(msg)
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for s.running.Load() {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.running.Load() {
				s.logger.Warn("accept failed", "error", err)
			}
			continue
		}

		sc, err := s.register(conn)
		if errors.Is(err, ErrServerStopped) {
			conn.Close()
			continue
		}
		if err != nil {
			s.logger.Warn("rejecting peer", "remote", conn.RemoteAddr().String(), "error", err)
			conn.Close()
			continue
		}

		s.wg.Add(1)
		go s.serve(sc)
	}
}

// register allocates a free handle for conn. Handles start at 1 and wrap.
func (s *Server) register(conn net.Conn) (*ServerConn, error) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()

	// Stop flips running before it takes connsMu to close connections, so a
	// connection registered here is either closed by Stop or never admitted.
	if !s.running.Load() {
		return nil, ErrServerStopped
	}
	if len(s.conns) >= s.config.MaxConnections {
		return nil, fmt.Errorf("connection limit %d reached", s.config.MaxConnections)
	}

	var id subscription.ConnID
	for {
		s.nextID++
		if s.nextID == 0 {
			continue
		}
		id = subscription.ConnID(s.nextID)
		if _, used := s.conns[id]; !used {
			break
		}
	}

	framer := NewFramer(conn, s.config.MaxMessageSize)
	if s.config.EventLogger != nil {
		framer.SetLogger(s.config.EventLogger, log.ConnRef(uint16(id)), s.config.RunID)
	}

	sc := &ServerConn{
		id:         id,
		session:    uuid.New().String(),
		conn:       conn,
		framer:     framer,
		server:     s,
		closeCh:    make(chan struct{}),
		remoteAddr: conn.RemoteAddr(),
	}
	s.conns[id] = sc
	return sc, nil
}

func (s *Server) serve(sc *ServerConn) {
	defer s.wg.Done()

	s.logger.Info("peer connected", "conn", sc.id, "session", sc.session, "remote", sc.remoteAddr.String())
	s.logConnState(sc.id, "", "CONNECTED")

	sc.readLoop()
	sc.Close()

	s.connsMu.Lock()
	delete(s.conns, sc.id)
	s.connsMu.Unlock()

	s.logger.Info("peer disconnected", "conn", sc.id, "session", sc.session)
	s.logConnState(sc.id, "CONNECTED", "DISCONNECTED")

	s.config.Handler.OnDisconnect(sc.id)
}

func (s *Server) logConnState(id subscription.ConnID, from, to string) {
	if s.config.EventLogger == nil {
		return
	}
	s.config.EventLogger.Log(log.Event{
		Timestamp: time.Now(),
		RunID:     s.config.RunID,
		Direction: log.DirectionIn,
		Layer:     log.LayerTransport,
		Category:  log.CategoryState,
		ConnID:    log.ConnRef(uint16(id)),
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			OldState: from,
			NewState: to,
		},
	})
}

// ServerConn is one peer connection.
type ServerConn struct {
	id         subscription.ConnID
	session    string
	conn       net.Conn
	framer     *Framer
	server     *Server
	closeCh    chan struct{}
	closeOnce  sync.Once
	remoteAddr net.Addr

	sendMu sync.Mutex
}

// ID returns the connection handle.
func (c *ServerConn) ID() subscription.ConnID {
	return c.id
}

// Session returns the unique session identifier.
func (c *ServerConn) Session() string {
	return c.session
}

// RemoteAddr returns the peer address.
func (c *ServerConn) RemoteAddr() net.Addr {
	return c.remoteAddr
}

// Send writes one frame to the peer within the server's WriteTimeout. A
// timed-out write may leave a partial frame on the stream, so the connection
// is closed and the peer sees a disconnect.
func (c *ServerConn) Send(data []byte) error {
	select {
	case <-c.closeCh:
		return ErrConnectionClosed
	default:
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(c.server.config.WriteTimeout))
	err := c.framer.WriteFrame(data)
	if err == nil {
		c.conn.SetWriteDeadline(time.Time{})
		return nil
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		c.server.logger.Warn("peer stopped reading, closing connection", "conn", c.id, "session", c.session)
		c.Close()
	}
	return err
}

// Close closes the connection.
func (c *ServerConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		err = c.conn.Close()
	})
	return err
}

func (c *ServerConn) readLoop() {
	for {
		data, err := c.framer.ReadFrame()
		if err != nil {
			select {
			case <-c.closeCh:
			default:
				if err != io.EOF && c.server.running.Load() {
					c.server.logger.Debug("read failed", "conn", c.id, "error", err)
				}
			}
			return
		}

		resp := c.handle(data)
		if resp == nil {
			continue
		}
		out, err := wire.EncodeResponse(resp)
		if err != nil {
			c.server.logger.Error("failed to encode response", "conn", c.id, "error", err)
			continue
		}
		if err := c.Send(out); err != nil {
			c.server.logger.Debug("failed to send response", "conn", c.id, "error", err)
			return
		}
	}
}

// handle decodes and dispatches one request. Frames that carry no usable
// message ID get no response.
func (c *ServerConn) handle(data []byte) *wire.Response {
	req, err := wire.DecodeRequest(data)
	if err != nil {
		id, peekErr := wire.PeekMessageID(data)
		if peekErr != nil || id == wire.NotificationMessageID {
			c.server.logger.Debug("dropping malformed frame", "conn", c.id, "error", err)
			return nil
		}
		return &wire.Response{MessageID: id, Status: wire.StatusInvalidParameter}
	}

	h := c.server.config.Handler
	capability := subscription.Capability(req.Capability)
	resp := &wire.Response{MessageID: req.MessageID}

	switch req.Operation {
	case wire.OpRead:
		value, err := h.OnPullRequest(c.id, capability)
		resp.Status = statusFor(err)
		resp.Value = value
	case wire.OpSubscribe:
		resp.Status = statusFor(h.OnSubscribe(c.id, capability, subscription.Mode(req.Mode)))
	case wire.OpUnsubscribe:
		resp.Status = statusFor(h.OnUnsubscribe(c.id, capability))
	default:
		resp.Status = wire.StatusUnsupported
	}
	return resp
}

func statusFor(err error) wire.Status {
	switch {
	case err == nil:
		return wire.StatusSuccess
	case errors.Is(err, subscription.ErrUnknownCapability):
		return wire.StatusUnknownCapability
	case errors.Is(err, subscription.ErrInvalidMode):
		return wire.StatusInvalidParameter
	default:
		return wire.StatusBusy
	}
}
