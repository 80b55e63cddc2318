// Package client runs a game session: it logs in, keeps a world.World in sync
// with what the server sends and offers commands that act in the world.
package client

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sasha-s/go-deadlock"

	"github.com/StoreStation/VibeShitBot/internal/notify"
	"github.com/StoreStation/VibeShitBot/pkg/chat"
	"github.com/StoreStation/VibeShitBot/pkg/packets"
	"github.com/StoreStation/VibeShitBot/pkg/protocol"
	"github.com/StoreStation/VibeShitBot/pkg/transport"
	"github.com/StoreStation/VibeShitBot/pkg/world"
)

// Client is one session with a server. A single goroutine reads and handles
// packets; commands may be called from any goroutine.
type Client struct {
	World *world.World

	cfg      Config
	handlers Handlers
	codec    *packets.Codec
	profile  Profile

	conn      io.ReadWriteCloser
	wmu       deadlock.Mutex
	threshold atomic.Int32

	stage        atomic.Int32
	stageChanged notify.Notifier

	nextAction      atomic.Int32
	nextTransaction atomic.Int32

	mu        deadlock.Mutex
	reason    *chat.Message
	err       error
	done      chan struct{}
	closeOnce sync.Once
	cancel    context.CancelFunc
}

// New creates a client for cfg.Version. It fails with
// protocol.ErrUnsupportedVersion when no packet tables exist for it.
func New(cfg Config, handlers Handlers) (*Client, error) {
	codec := packets.NewCodec(cfg.Version, cfg.Thresholds)
	if err := codec.Check(); err != nil {
		return nil, fmt.Errorf("protocol %d: %w", cfg.Version, err)
	}
	c := &Client{
		World: world.New(world.Options{
			StackConfirmations: cfg.StackConfirmations,
			CompressChunks:     cfg.CompressChunks,
		}),
		cfg:      cfg,
		handlers: handlers,
		codec:    codec,
		done:     make(chan struct{}),
	}
	c.threshold.Store(protocol.CompressionDisabled)
	c.stage.Store(int32(protocol.StateHandshaking))
	return c, nil
}

// JoinServer dials cfg.Address, logs in with the profile from creds and waits
// until the session reaches Play. A nil creds logs in offline as cfg.Username.
func JoinServer(ctx context.Context, cfg Config, creds CredentialProvider, handlers Handlers) (*Client, error) {
	if creds == nil {
		creds = OfflineProvider{Name: cfg.Username}
	}
	profile, err := creds.Profile(ctx)
	if err != nil {
		return nil, fmt.Errorf("credentials: %w", err)
	}

	c, err := New(cfg, handlers)
	if err != nil {
		return nil, err
	}

	dialCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	conn, host, port, err := dial(dialCtx, cfg.Address)
	if err != nil {
		return nil, err
	}

	if err := c.Start(conn, host, port, profile); err != nil {
		conn.Close()
		return nil, err
	}
	if err := c.WaitStage(ctx, protocol.StatePlay); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// dialAttempts bounds WebSocket gateway retries.
const dialAttempts = 5

// dial opens the byte stream. ws:// and wss:// addresses go through a
// WebSocket gateway; anything else is a TCP host[:port].
func dial(ctx context.Context, address string) (io.ReadWriteCloser, string, uint16, error) {
	if u, err := url.Parse(address); err == nil && (u.Scheme == "ws" || u.Scheme == "wss") {
		port := uint64(25565)
		if p := u.Port(); p != "" {
			if port, err = strconv.ParseUint(p, 10, 16); err != nil {
				return nil, "", 0, fmt.Errorf("address %s: %w", address, err)
			}
		}
		conn, err := transport.DialWebSocket(ctx, address, dialAttempts)
		if err != nil {
			return nil, "", 0, err
		}
		return conn, u.Hostname(), uint16(port), nil
	}

	addr := transport.WithDefaultPort(address)
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, "", 0, fmt.Errorf("address %s: %w", address, err)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return nil, "", 0, fmt.Errorf("address %s: %w", address, err)
	}
	conn, err := transport.Dial(ctx, addr)
	if err != nil {
		return nil, "", 0, err
	}
	return conn, host, uint16(port), nil
}

// Start sends the handshake and login start over conn and begins reading.
// The session reaches Play asynchronously; use WaitStage.
func (c *Client) Start(conn io.ReadWriteCloser, host string, port uint16, profile Profile) error {
	c.conn = conn
	c.profile = profile
	c.World.Player.SetIdentity(profile.Name, profile.UUID)

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	if c.cfg.ChunkWorkers > 0 {
		c.World.Chunks.StartWorkers(ctx, c.cfg.ChunkWorkers)
	}

	err := c.send(packets.Handshake{
		ProtocolVersion: c.cfg.Version,
		Address:         host,
		Port:            port,
		NextState:       protocol.StateLogin,
	})
	if err != nil {
		c.finish(err)
		return err
	}
	c.setStage(protocol.StateLogin)
	if err := c.send(packets.LoginStart{Name: profile.Name}); err != nil {
		c.finish(err)
		return err
	}

	log.Printf("Logging in to %s:%d as %s (protocol %d)", host, port, profile.Name, c.cfg.Version)
	go c.readLoop()
	return nil
}

// Stage returns the current connection stage.
func (c *Client) Stage() protocol.State {
	return protocol.State(c.stage.Load())
}

func (c *Client) setStage(s protocol.State) {
	c.stage.Store(int32(s))
	c.stageChanged.Broadcast()
}

// WaitStage blocks until the session reaches s, the session ends or ctx is
// done.
func (c *Client) WaitStage(ctx context.Context, s protocol.State) error {
	var ended bool
	err := c.stageChanged.Wait(ctx, func() bool {
		if c.Stage() == s {
			return true
		}
		select {
		case <-c.done:
			ended = true
			return true
		default:
			return false
		}
	})
	if err != nil {
		return err
	}
	if ended && c.Stage() != s {
		return c.endErr()
	}
	return nil
}

// Done is closed when the session ends.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err returns why the session ended: nil for a kick or Close, otherwise the
// failure. It is only meaningful after Done is closed.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// DisconnectReason returns the server's kick message, if there was one.
func (c *Client) DisconnectReason() (chat.Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reason == nil {
		return chat.Message{}, false
	}
	return *c.reason, true
}

// Close ends the session.
func (c *Client) Close() error {
	c.finish(nil)
	return nil
}

func (c *Client) ended() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Client) endErr() error {
	if err := c.Err(); err != nil {
		return err
	}
	if reason, ok := c.DisconnectReason(); ok {
		return fmt.Errorf("%w: kicked: %s", ErrNotConnected, reason.PlainText())
	}
	return ErrNotConnected
}

func (c *Client) finish(err error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()

		if c.cancel != nil {
			c.cancel()
		}
		if c.conn != nil {
			c.conn.Close()
		}
		close(c.done)
		c.stageChanged.Broadcast()
		if err != nil {
			log.Printf("Connection closed: %v", err)
		}
	})
}

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

func (c *Client) readLoop() {
	for {
		if d, ok := c.conn.(readDeadliner); ok && c.cfg.ReadTimeout > 0 {
			d.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		}
		frame, err := protocol.ReadFrame(c.conn, int(c.threshold.Load()))
		if err != nil {
			if !c.ended() {
				c.finish(fmt.Errorf("%w: %v", ErrUnexpectedDisconnect, err))
			}
			return
		}

		stage := c.Stage()
		p, err := c.codec.Decode(stage, frame)
		if err != nil {
			log.Printf("Dropped %s packet: %v", stage, err)
			continue
		}
		c.handle(p)
		if c.handlers.OnPacket != nil {
			c.call("OnPacket", func() { c.handlers.OnPacket(c, p) })
		}
		if c.ended() {
			return
		}
	}
}

// send encodes and writes one packet. Writes are serialized.
func (c *Client) send(p packets.Packet) error {
	if c.ended() {
		return ErrNotConnected
	}
	frame, err := c.codec.Encode(p)
	if err != nil {
		return err
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if err := protocol.WriteFrame(c.conn, frame, int(c.threshold.Load())); err != nil {
		return fmt.Errorf("send %s: %w", p.Kind(), err)
	}
	return nil
}

// Version returns the negotiated protocol version.
func (c *Client) Version() int32 {
	return c.cfg.Version
}
