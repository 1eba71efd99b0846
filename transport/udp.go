package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
)

// UDPConfig configures a UDPTransport. A non-empty MulticastGroup
// switches the transport into multicast receive mode, joining
// MulticastGroup:Port on Interface (or the default interface if nil).
type UDPConfig struct {
	LocalAddr      *net.UDPAddr
	MulticastGroup net.IP
	Interface      *net.Interface

	// RemoteAddr is the default peer Send writes to (the gateway's
	// data endpoint for a unicast tunnel, or the multicast group for
	// routing). Code needing to address multiple peers, such as the
	// gateway scanner, uses SendTo instead and leaves this nil.
	RemoteAddr *net.UDPAddr
}

// UDPTransport is a unicast or multicast UDP byte pipe.
// Unicast is used for UDP tunnelling and gateway discovery; multicast
// is used for routing and the discovery multicast group.
type UDPTransport struct {
	cfg UDPConfig

	conn     *net.UDPConn
	pipeline *receivePipeline

	framesTx atomic.Uint64
	errors   atomic.Uint64

	mu      sync.Mutex
	started bool
}

var _ Transport = (*UDPTransport)(nil)

// NewUDPTransport constructs a transport from cfg without opening any
// socket; Start performs the bind/join.
func NewUDPTransport(cfg UDPConfig) *UDPTransport {
	return &UDPTransport{cfg: cfg, pipeline: newReceivePipeline()}
}

func (t *UDPTransport) SetOnReceive(fn func([]byte)) { t.pipeline.setOnReceive(fn) }

// Start binds the local socket (joining the multicast group if
// configured) and begins the read loop and receive-callback workers.
func (t *UDPTransport) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return ErrAlreadyStarted
	}

	var conn *net.UDPConn
	var err error
	if t.cfg.MulticastGroup != nil {
		addr := &net.UDPAddr{IP: t.cfg.MulticastGroup, Port: localPort(t.cfg.LocalAddr)}
		conn, err = net.ListenMulticastUDP("udp4", t.cfg.Interface, addr)
	} else {
		conn, err = net.ListenUDP("udp4", t.cfg.LocalAddr)
	}
	if err != nil {
		return fmt.Errorf("udp transport: listen: %w", err)
	}

	t.conn = conn
	t.pipeline.start()
	t.pipeline.wg.Add(1)
	go t.receiveLoop()

	t.started = true
	return nil
}

func localPort(addr *net.UDPAddr) int {
	if addr == nil {
		return 0
	}
	return addr.Port
}

func (t *UDPTransport) receiveLoop() {
	defer t.pipeline.wg.Done()
	buf := make([]byte, 1<<16)
	for {
		select {
		case <-t.pipeline.done:
			return
		default:
		}
		n, _, err := t.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-t.pipeline.done:
				return
			default:
			}
			t.errors.Add(1)
			continue
		}
		frame := make([]byte, n)
		copy(frame, buf[:n])
		t.pipeline.deliver(frame)
	}
}

// Send writes data to cfg.RemoteAddr, the transport's configured
// default peer. Callers addressing more than one peer, such as the
// gateway scanner, use SendTo instead.
func (t *UDPTransport) Send(data []byte) error {
	if t.cfg.RemoteAddr == nil {
		return fmt.Errorf("udp transport: no RemoteAddr configured, use SendTo")
	}
	return t.SendTo(data, t.cfg.RemoteAddr)
}

// SendTo writes data to a specific UDP peer.
func (t *UDPTransport) SendTo(data []byte, to *net.UDPAddr) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return ErrClosed
	}
	if _, err := conn.WriteToUDP(data, to); err != nil {
		t.errors.Add(1)
		return fmt.Errorf("udp transport: write: %w", err)
	}
	t.framesTx.Add(1)
	return nil
}

func (t *UDPTransport) LocalAddr() net.Addr {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return t.cfg.LocalAddr
	}
	return t.conn.LocalAddr()
}

func (t *UDPTransport) Stop() error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
	t.pipeline.stop()
	return nil
}

func (t *UDPTransport) Stats() Stats {
	return Stats{
		FramesTx:    t.framesTx.Load(),
		FramesRx:    t.pipeline.framesRx.Load(),
		ErrorsTotal: t.errors.Load() + t.pipeline.errors.Load(),
	}
}
