package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/gousb"
)

// HID report framing constants.
const (
	hidReportSize  = 64
	hidReportID    = 0x01
	hidHeaderSize  = 3 // report_id, sequence/packet-type nibble, body_length
	ktpHeaderSize  = 8 // KNX USB Transfer Protocol header, first fragment only
	hidMaxSequence = 5
)

// USB HID packet type bits packed into the low nibble alongside the
// sequence number: bit0 marks the first fragment, bit1 the last.
const (
	packetTypeStart = 0x01
	packetTypeEnd   = 0x02

	packetStartEnd     = packetTypeStart | packetTypeEnd
	packetStartPartial = packetTypeStart
	packetPartial      = 0x00
	packetPartialEnd   = packetTypeEnd
)

// usbAddr satisfies net.Addr for a USB HID endpoint, which has no IP
// address of its own.
type usbAddr struct{ device string }

func (a usbAddr) Network() string { return "usb-hid" }
func (a usbAddr) String() string  { return a.device }

// usbEndpoint abstracts the gousb in/out endpoints so tests can
// substitute a fake device.
type usbEndpoint interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
}

// USBHIDTransport speaks the KNX USB Transfer Protocol over HID
// reports: frames are split into up to 5 reports of 64 bytes,
// reassembled by sequence number and packet-type flags.
type USBHIDTransport struct {
	vid, pid gousb.ID

	mu      sync.Mutex
	started bool
	ctx     *gousb.Context
	dev     *gousb.Device
	intf    *gousb.Interface
	ifClose func()
	in      usbEndpoint
	out     usbEndpoint

	pipeline *receivePipeline
	framesTx atomic.Uint64
	errors   atomic.Uint64
}

var _ Transport = (*USBHIDTransport)(nil)

// NewUSBHIDTransport constructs a transport that will claim the
// device matching (vid, pid) on Start.
func NewUSBHIDTransport(vid, pid gousb.ID) *USBHIDTransport {
	return &USBHIDTransport{vid: vid, pid: pid, pipeline: newReceivePipeline()}
}

func (t *USBHIDTransport) SetOnReceive(fn func([]byte)) { t.pipeline.setOnReceive(fn) }

func (t *USBHIDTransport) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return ErrAlreadyStarted
	}

	usbCtx := gousb.NewContext()
	dev, err := usbCtx.OpenDeviceWithVIDPID(t.vid, t.pid)
	if err != nil {
		usbCtx.Close()
		return fmt.Errorf("usb transport: open device: %w", err)
	}
	if dev == nil {
		usbCtx.Close()
		return fmt.Errorf("usb transport: no device matching %s:%s", t.vid, t.pid)
	}

	if err := dev.SetAutoDetach(true); err != nil {
		dev.Close()
		usbCtx.Close()
		return fmt.Errorf("usb transport: set auto detach: %w", err)
	}

	intf, ifClose, err := dev.DefaultInterface()
	if err != nil {
		dev.Close()
		usbCtx.Close()
		return fmt.Errorf("usb transport: default interface: %w", err)
	}
	in, err := intf.InEndpoint(1)
	if err != nil {
		ifClose()
		dev.Close()
		usbCtx.Close()
		return fmt.Errorf("usb transport: in endpoint: %w", err)
	}
	out, err := intf.OutEndpoint(1)
	if err != nil {
		ifClose()
		dev.Close()
		usbCtx.Close()
		return fmt.Errorf("usb transport: out endpoint: %w", err)
	}

	t.ctx, t.dev, t.intf, t.ifClose = usbCtx, dev, intf, ifClose
	t.in, t.out = in, out

	t.pipeline.start()
	t.pipeline.wg.Add(1)
	go t.receiveLoop()

	t.started = true
	return nil
}

// receiveLoop reads 64-byte HID reports and reassembles them into
// full frames per the sequence/packet-type rules: a START report begins
// a new frame (its KTP header stripped), later reports append, an END
// report completes the frame, and an
// out-of-order sequence number discards the partial frame and logs via
// the error counter.
func (t *USBHIDTransport) receiveLoop() {
	defer t.pipeline.wg.Done()

	report := make([]byte, hidReportSize)
	var partial []byte
	var lastSeq int

	for {
		select {
		case <-t.pipeline.done:
			return
		default:
		}

		n, err := t.in.Read(report)
		if err != nil {
			t.errors.Add(1)
			return
		}
		if n < hidHeaderSize {
			t.errors.Add(1)
			continue
		}

		seq := int(report[1] >> 4)
		packetType := report[1] & 0x0F
		bodyLen := int(report[2])
		isStart := packetType&packetTypeStart != 0
		isEnd := packetType&packetTypeEnd != 0

		if isStart {
			partial = partial[:0]
			lastSeq = 0
		} else if seq != lastSeq+1 || seq > hidMaxSequence {
			t.errors.Add(1)
			partial = nil
			continue
		}
		lastSeq = seq

		end := hidHeaderSize + bodyLen
		if end > n {
			end = n
		}
		body := report[hidHeaderSize:end]
		if isStart && len(body) >= ktpHeaderSize {
			body = body[ktpHeaderSize:]
		}
		partial = append(partial, body...)

		if isEnd {
			frame := make([]byte, len(partial))
			copy(frame, partial)
			t.pipeline.deliver(frame)
			partial = nil
		}
	}
}

// Send splits data into up to 5 HID reports and writes them in
// sequence.
func (t *USBHIDTransport) Send(data []byte) error {
	t.mu.Lock()
	out := t.out
	t.mu.Unlock()
	if out == nil {
		return ErrClosed
	}

	maxBody := hidReportSize - hidHeaderSize
	firstMax := maxBody - ktpHeaderSize

	var chunks [][]byte
	remaining := data
	for i := 0; len(remaining) > 0 || i == 0; i++ {
		limit := maxBody
		if i == 0 {
			limit = firstMax
		}
		if limit > len(remaining) {
			limit = len(remaining)
		}
		chunks = append(chunks, remaining[:limit])
		remaining = remaining[limit:]
		if len(chunks) >= hidMaxSequence {
			break
		}
	}

	var ktpHeader [ktpHeaderSize]byte

	for i, chunk := range chunks {
		seq := i + 1
		var packetType byte
		switch {
		case len(chunks) == 1:
			packetType = packetStartEnd
		case i == 0:
			packetType = packetStartPartial
		case i == len(chunks)-1:
			packetType = packetPartialEnd
		default:
			packetType = packetPartial
		}

		bodyLen := len(chunk)
		report := make([]byte, hidReportSize)
		report[0] = hidReportID
		report[1] = byte(seq<<4) | packetType
		if i == 0 {
			bodyLen += ktpHeaderSize
			copy(report[hidHeaderSize:], ktpHeader[:])
			copy(report[hidHeaderSize+ktpHeaderSize:], chunk)
		} else {
			copy(report[hidHeaderSize:], chunk)
		}
		report[2] = byte(bodyLen)

		if _, err := t.out.Write(report); err != nil {
			t.errors.Add(1)
			return fmt.Errorf("usb transport: write report %d: %w", seq, err)
		}
	}
	t.framesTx.Add(1)
	return nil
}

func (t *USBHIDTransport) LocalAddr() net.Addr {
	return usbAddr{device: fmt.Sprintf("%s:%s", t.vid, t.pid)}
}

func (t *USBHIDTransport) Stop() error {
	t.mu.Lock()
	ifClose, dev, ctx := t.ifClose, t.dev, t.ctx
	t.mu.Unlock()

	t.pipeline.stop()

	if ifClose != nil {
		ifClose()
	}
	if dev != nil {
		dev.Close()
	}
	if ctx != nil {
		ctx.Close()
	}
	return nil
}

func (t *USBHIDTransport) Stats() Stats {
	return Stats{
		FramesTx:    t.framesTx.Load(),
		FramesRx:    t.pipeline.framesRx.Load(),
		ErrorsTotal: t.errors.Load() + t.pipeline.errors.Load(),
	}
}
