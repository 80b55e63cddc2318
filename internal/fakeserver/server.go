// Package fakeserver is a scripted game server for end-to-end tests. It
// accepts connections, reads the handshake and login start, then hands each
// connection to the test, which drives it packet by packet.
package fakeserver

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/StoreStation/VibeShitBot/pkg/protocol"
)

// Config holds server configuration.
type Config struct {
	Address     string
	ReadTimeout time.Duration
	// BinaryLoginUUID is the first protocol version whose Login Success
	// carries a 128-bit UUID.
	BinaryLoginUUID int32
}

// DefaultConfig returns a loopback server on a free port.
func DefaultConfig() Config {
	return Config{
		Address:         "127.0.0.1:0",
		ReadTimeout:     5 * time.Second,
		BinaryLoginUUID: 735,
	}
}

// Server accepts client connections.
type Server struct {
	config   Config
	listener net.Listener
	conns    chan *Conn
	stopCh   chan struct{}
	stopOnce sync.Once

	mu   sync.Mutex
	open []*Conn
}

// Conn is one logged-in client as seen from the server.
type Conn struct {
	net.Conn

	ProtocolVersion int32
	Address         string
	Port            uint16
	Username        string

	config    Config
	wmu       sync.Mutex
	threshold int
}

// New creates a new server with the given configuration.
func New(config Config) *Server {
	return &Server{
		config: config,
		conns:  make(chan *Conn, 4),
		stopCh: make(chan struct{}),
	}
}

// Start begins listening for connections.
func (s *Server) Start() error {
	var err error
	s.listener, err = net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Address, err)
	}
	go s.acceptLoop()
	return nil
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Stop closes the listener and every accepted connection.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		if s.listener != nil {
			s.listener.Close()
		}
		s.mu.Lock()
		for _, c := range s.open {
			c.Close()
		}
		s.mu.Unlock()
	})
}

// Accept waits for the next client that has sent its login start.
func (s *Server) Accept(ctx context.Context) (*Conn, error) {
	select {
	case c := <-s.conns:
		return c, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopCh:
				return
			default:
				log.Printf("Accept error: %v", err)
				continue
			}
		}
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	c := &Conn{Conn: conn, config: s.config, threshold: protocol.CompressionDisabled}
	s.mu.Lock()
	s.open = append(s.open, c)
	s.mu.Unlock()

	pkt, err := c.Read()
	if err != nil || pkt.ID != 0x00 {
		conn.Close()
		return
	}
	if err := c.handleHandshake(pkt); err != nil {
		log.Printf("Handshake error: %v", err)
		conn.Close()
		return
	}

	pkt, err = c.Read()
	if err != nil || pkt.ID != 0x00 {
		conn.Close()
		return
	}
	c.Username, err = protocol.ReadString(bytes.NewReader(pkt.Data))
	if err != nil {
		log.Printf("Login error: %v", err)
		conn.Close()
		return
	}

	select {
	case s.conns <- c:
	case <-s.stopCh:
		conn.Close()
	}
}

func (c *Conn) handleHandshake(pkt *protocol.Packet) error {
	r := bytes.NewReader(pkt.Data)

	version, _, err := protocol.ReadVarInt(r)
	if err != nil {
		return err
	}
	c.ProtocolVersion = version

	c.Address, err = protocol.ReadString(r)
	if err != nil {
		return err
	}

	c.Port, err = protocol.ReadUint16(r)
	if err != nil {
		return err
	}

	next, _, err := protocol.ReadVarInt(r)
	if err != nil {
		return err
	}
	if protocol.State(next) != protocol.StateLogin {
		return fmt.Errorf("next state %d, want login", next)
	}
	return nil
}

// Read reads the next frame from the client.
func (c *Conn) Read() (*protocol.Packet, error) {
	if c.config.ReadTimeout > 0 {
		c.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	}
	c.wmu.Lock()
	threshold := c.threshold
	c.wmu.Unlock()
	return protocol.ReadFrame(c.Conn, threshold)
}

// Expect reads frames until one with the given id arrives.
func (c *Conn) Expect(id int32) (*protocol.Packet, error) {
	for {
		pkt, err := c.Read()
		if err != nil {
			return nil, fmt.Errorf("waiting for 0x%02X: %w", id, err)
		}
		if pkt.ID == id {
			return pkt, nil
		}
	}
}

// Send writes one packet built by builder.
func (c *Conn) Send(id int32, builder func(w *bytes.Buffer)) error {
	pkt := protocol.MarshalPacket(id, builder)
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return protocol.WriteFrame(c.Conn, pkt, c.threshold)
}

// SendRaw writes an already encoded body.
func (c *Conn) SendRaw(id int32, data []byte) error {
	return c.Send(id, func(w *bytes.Buffer) { w.Write(data) })
}

// SetCompression sends Set Compression and switches this side to it.
func (c *Conn) SetCompression(threshold int32) error {
	if err := c.Send(0x03, func(w *bytes.Buffer) {
		protocol.WriteVarInt(w, threshold)
	}); err != nil {
		return err
	}
	c.wmu.Lock()
	c.threshold = int(threshold)
	c.wmu.Unlock()
	return nil
}

// LoginSuccess finishes the login in the layout of the client's version.
func (c *Conn) LoginSuccess(id uuid.UUID) error {
	return c.Send(0x02, func(w *bytes.Buffer) {
		if c.ProtocolVersion >= c.config.BinaryLoginUUID {
			protocol.WriteUUID(w, id)
		} else {
			protocol.WriteString(w, id.String())
		}
		protocol.WriteString(w, c.Username)
	})
}

// Kick sends a disconnect with a plain text reason in the given stage.
func (c *Conn) Kick(id int32, reason string) error {
	return c.Send(id, func(w *bytes.Buffer) {
		protocol.WriteString(w, fmt.Sprintf(`{"text":%q}`, reason))
	})
}
