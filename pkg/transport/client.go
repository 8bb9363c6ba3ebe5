package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dialsense/dialsense-go/pkg/log"
	"github.com/dialsense/dialsense-go/pkg/wire"
)

// Client errors.
var (
	// ErrConnectionClosed indicates the connection is closed.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrRequestFailed indicates a non-success response status.
	ErrRequestFailed = errors.New("request failed")
)

// ClientConfig configures a gateway client.
type ClientConfig struct {
	// MaxMessageSize is the maximum frame payload (default: DefaultMaxMessageSize).
	MaxMessageSize uint32

	// ConnectTimeout bounds Dial when ctx has no deadline (default: 10s).
	ConnectTimeout time.Duration

	// OnNotification is called for each pushed value, on the read goroutine.
	OnNotification func(n *wire.Notification)

	// Logger receives operational logs. Nil means slog.Default().
	Logger *slog.Logger

	// EventLogger captures frames (optional).
	EventLogger log.Logger
}

// Client is a peer connected to a gateway.
type Client struct {
	config ClientConfig
	logger *slog.Logger
	conn   net.Conn
	framer *Framer

	nextID    atomic.Uint32
	pending   map[uint32]chan *wire.Response
	pendingMu sync.Mutex

	closeOnce sync.Once
	done      chan struct{}
	err       error
}

// Dial connects to a gateway.
func Dial(ctx context.Context, address string, config ClientConfig) (*Client, error) {
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = 10 * time.Second
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.ConnectTimeout)
		defer cancel()
	}

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		config:  config,
		logger:  logger.With("component", "peer"),
		conn:    conn,
		framer:  NewFramer(conn, config.MaxMessageSize),
		pending: make(map[uint32]chan *wire.Response),
		done:    make(chan struct{}),
	}
	if config.EventLogger != nil {
		c.framer.SetLogger(config.EventLogger, nil, "")
	}

	go c.readLoop()
	return c, nil
}

// Read fetches the current value of a capability.
func (c *Client) Read(ctx context.Context, capability uint16) ([]byte, error) {
	resp, err := c.request(ctx, &wire.Request{Operation: wire.OpRead, Capability: capability})
	if err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// Subscribe enables pushes for a capability.
func (c *Client) Subscribe(ctx context.Context, capability uint16, mode uint8) error {
	_, err := c.request(ctx, &wire.Request{Operation: wire.OpSubscribe, Capability: capability, Mode: mode})
	return err
}

// Unsubscribe disables pushes for a capability.
func (c *Client) Unsubscribe(ctx context.Context, capability uint16) error {
	_, err := c.request(ctx, &wire.Request{Operation: wire.OpUnsubscribe, Capability: capability})
	return err
}

// Done is closed when the connection ends.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err returns why the connection ended, once Done is closed.
func (c *Client) Err() error {
	<-c.done
	return c.err
}

// Close closes the connection and waits for the read loop.
func (c *Client) Close() error {
	err := c.conn.Close()
	<-c.done
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (c *Client) request(ctx context.Context, req *wire.Request) (*wire.Response, error) {
	req.MessageID = c.nextMessageID()

	data, err := wire.EncodeRequest(req)
	if err != nil {
		return nil, err
	}

	ch := make(chan *wire.Response, 1)
	c.pendingMu.Lock()
	c.pending[req.MessageID] = ch
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, req.MessageID)
		c.pendingMu.Unlock()
	}()

	select {
	case <-c.done:
		return nil, ErrConnectionClosed
	default:
	}
	if err := c.framer.WriteFrame(data); err != nil {
		return nil, err
	}

	select {
	case resp := <-ch:
		if !resp.IsSuccess() {
			return resp, fmt.Errorf("%w: %s %s", ErrRequestFailed, req.Operation, resp.Status)
		}
		return resp, nil
	case <-c.done:
		return nil, ErrConnectionClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) nextMessageID() uint32 {
	for {
		if id := c.nextID.Add(1); id != wire.NotificationMessageID {
			return id
		}
	}
}

func (c *Client) readLoop() {
	defer c.closeOnce.Do(func() { close(c.done) })

	for {
		data, err := c.framer.ReadFrame()
		if err != nil {
			if err != io.EOF && !errors.Is(err, net.ErrClosed) {
				c.err = err
			}
			return
		}

		id, err := wire.PeekMessageID(data)
		if err != nil {
			c.logger.Debug("dropping malformed frame", "error", err)
			continue
		}

		if id == wire.NotificationMessageID {
			n, err := wire.DecodeNotification(data)
			if err != nil {
				c.logger.Debug("dropping malformed notification", "error", err)
				continue
			}
			if c.config.OnNotification != nil {
				c.config.OnNotification(n)
			}
			continue
		}

		resp, err := wire.DecodeResponse(data)
		if err != nil {
			c.logger.Debug("dropping malformed response", "error", err)
			continue
		}
		c.pendingMu.Lock()
		ch, ok := c.pending[id]
		c.pendingMu.Unlock()
		if ok {
			select {
			case ch <- resp:
			default:
			}
		}
	}
}
