package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
)

// knxipHeaderSize and the offsets of the total-length field mirror the
// fixed 6-byte KNXnet/IP header, duplicated here rather than imported
// from package knxip so the transport layer stays a dumb byte pipe
// that never interprets service types.
const (
	knxipHeaderSize     = 6
	knxipTotalLengthLSB = 5
	knxipTotalLengthMSB = 4
)

// TCPTransport is a length-prefixed TCP byte pipe used for TCP
// tunnelling. Frame boundaries are not preserved by the stream, so
// each read reassembles one full KNXIP frame from the 6-byte header's
// declared total_length before dispatching it.
type TCPTransport struct {
	remote *net.TCPAddr

	mu       sync.Mutex
	conn     *net.TCPConn
	started  bool
	pipeline *receivePipeline

	framesTx atomic.Uint64
	errors   atomic.Uint64
}

var _ Transport = (*TCPTransport)(nil)

// NewTCPTransport constructs a transport that will dial remote on
// Start.
func NewTCPTransport(remote *net.TCPAddr) *TCPTransport {
	return &TCPTransport{remote: remote, pipeline: newReceivePipeline()}
}

func (t *TCPTransport) SetOnReceive(fn func([]byte)) { t.pipeline.setOnReceive(fn) }

func (t *TCPTransport) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return ErrAlreadyStarted
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp4", t.remote.String())
	if err != nil {
		return fmt.Errorf("tcp transport: dial: %w", err)
	}
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		conn.Close()
		return fmt.Errorf("tcp transport: unexpected connection type %T", conn)
	}

	t.conn = tcpConn
	t.pipeline.start()
	t.pipeline.wg.Add(1)
	go t.receiveLoop()

	t.started = true
	return nil
}

func (t *TCPTransport) receiveLoop() {
	defer t.pipeline.wg.Done()
	header := make([]byte, knxipHeaderSize)
	for {
		select {
		case <-t.pipeline.done:
			return
		default:
		}

		if _, err := io.ReadFull(t.conn, header); err != nil {
			t.errors.Add(1)
			return
		}
		total := int(header[knxipTotalLengthMSB])<<8 | int(header[knxipTotalLengthLSB])
		if total < knxipHeaderSize {
			t.errors.Add(1)
			continue
		}

		frame := make([]byte, total)
		copy(frame, header)
		if total > knxipHeaderSize {
			if _, err := io.ReadFull(t.conn, frame[knxipHeaderSize:]); err != nil {
				t.errors.Add(1)
				return
			}
		}
		t.pipeline.deliver(frame)
	}
}

func (t *TCPTransport) Send(data []byte) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return ErrClosed
	}
	if _, err := conn.Write(data); err != nil {
		t.errors.Add(1)
		return fmt.Errorf("tcp transport: write: %w", err)
	}
	t.framesTx.Add(1)
	return nil
}

func (t *TCPTransport) LocalAddr() net.Addr {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	return t.conn.LocalAddr()
}

func (t *TCPTransport) Stop() error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
	t.pipeline.stop()
	return nil
}

func (t *TCPTransport) Stats() Stats {
	return Stats{
		FramesTx:    t.framesTx.Load(),
		FramesRx:    t.pipeline.framesRx.Load(),
		ErrorsTotal: t.errors.Load() + t.pipeline.errors.Load(),
	}
}
