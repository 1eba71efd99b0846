package knx

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/knxip/address"
	"github.com/nerrad567/knxip/cemi"
	"github.com/nerrad567/knxip/connection"
	"github.com/nerrad567/knxip/gateway"
	"github.com/nerrad567/knxip/internal/config"
	"github.com/nerrad567/knxip/internal/logging"
	"github.com/nerrad567/knxip/internal/metrics"
	"github.com/nerrad567/knxip/router"
	"github.com/nerrad567/knxip/stateupdater"
	"github.com/nerrad567/knxip/telegram"
	"github.com/nerrad567/knxip/transport"
	"github.com/nerrad567/knxip/tunnel"
)

// connMode identifies which concrete transport a Client brought up.
type connMode string

const (
	modeTunnelUDP connMode = "tunnel_udp"
	modeTunnelTCP connMode = "tunnel_tcp"
	modeRouting   connMode = "routing"
)

// sender is the minimal contract Tunnel and Router both satisfy, so
// Stop can release whichever one Start brought up without the Client
// needing to remember which.
type sender interface {
	Send(ctx context.Context, frame cemi.Frame) error
	Stop() error
}

// Client is the lifecycle orchestrator described in spec.md §4.12: it
// resolves a connection config into a concrete transport, brings it
// up, and wires the telegram queue, state updater and connection
// manager around it.
type Client struct {
	id uuid.UUID

	cfg     config.Config
	log     *logging.Logger
	metrics *metrics.Registry

	ownAddress address.IndividualAddress

	Conn    *connection.Manager
	Queue   *telegram.Queue
	Updater *stateupdater.Updater

	mu        sync.Mutex
	transport transport.Transport
	active    sender
	mode      connMode

	prevTunnelState tunnel.State
}

// New constructs a Client from cfg. log and reg may be nil, in which
// case logging.Default() and metrics.New() are used.
func New(cfg config.Config, log *logging.Logger, reg *metrics.Registry) (*Client, error) {
	if log == nil {
		log = logging.Default()
	}
	if reg == nil {
		reg = metrics.New()
	}

	own, err := cfg.OwnAddress()
	if err != nil {
		return nil, fmt.Errorf("knx: %w", err)
	}

	id := uuid.New()
	c := &Client{
		id:         id,
		cfg:        cfg,
		log:        log.With("client_id", id.String()),
		metrics:    reg,
		ownAddress: own,
	}
	c.Conn = connection.New(context.Background())
	c.Updater = stateupdater.New(stateupdater.Config{Read: c.readGroup})
	return c, nil
}

// ID identifies this client instance, for correlating its log lines
// across a process that runs more than one.
func (c *Client) ID() uuid.UUID { return c.id }

// Start constructs the transport named by cfg.Connection.Type, brings
// it to Connected, and starts the telegram queue and task registry.
func (c *Client) Start(ctx context.Context) error {
	var err error
	switch c.cfg.Connection.Type {
	case config.Tunneling:
		err = c.startDeclaredTunnel(ctx, tunnel.ModeUDP)
	case config.TunnelingTCP:
		err = c.startDeclaredTunnel(ctx, tunnel.ModeTCP)
	case config.TunnelingTCPSecure, config.RoutingSecure:
		err = fmt.Errorf("%w: %s", ErrSecureNotImplemented, c.cfg.Connection.Type)
	case config.Routing:
		err = c.startRouting(ctx)
	case config.Automatic:
		err = c.startAutomatic(ctx)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedConnectionType, c.cfg.Connection.Type)
	}
	if err != nil {
		c.log.Error().Err(err).Str("connection_type", string(c.cfg.Connection.Type)).Msg("client start failed")
		return err
	}

	c.Queue.Start(ctx)
	c.Conn.Register("queue-depth-metrics", c.pollQueueDepth, connection.TaskOptions{})
	c.log.Info().Str("mode", string(c.mode)).Msg("client started")
	return nil
}

// pollQueueDepth periodically samples the telegram queue's buffered
// depth into the queue-depth gauges, since they reflect point-in-time
// channel occupancy rather than a value any single enqueue/dispatch
// call can update on its own.
func (c *Client) pollQueueDepth(ctx context.Context) {
	const interval = time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.metrics.InboundQueueDepth.Set(float64(c.Queue.InboundDepth()))
			c.metrics.OutboundQueueDepth.Set(float64(c.Queue.OutboundDepth()))
		case <-ctx.Done():
			return
		}
	}
}

// Stop releases the active transport and halts the telegram queue, in
// reverse startup order.
func (c *Client) Stop() error {
	c.Updater.Stop()
	if c.Queue != nil {
		c.Queue.Stop()
	}
	c.Conn.SetState(connection.Disconnected)

	c.mu.Lock()
	active := c.active
	c.mu.Unlock()
	if active == nil {
		c.log.Warn().Msg("stop called before start")
		return ErrNotStarted
	}
	if err := active.Stop(); err != nil {
		c.log.Error().Err(err).Msg("client stop failed")
		return err
	}
	c.log.Info().Msg("client stopped")
	return nil
}

// startAutomatic runs the gateway scanner and connects via the first
// gateway matching, in order, TCP tunnel, UDP tunnel, routing.
func (c *Client) startAutomatic(ctx context.Context) error {
	gws, err := gateway.Scan(ctx, gateway.ScanConfig{
		Filter: c.cfg.Connection.ScanFilter.ToGateway(),
	})
	if err != nil {
		return fmt.Errorf("knx: automatic scan: %w", err)
	}

	gw, mode, err := selectAutomaticGateway(gws)
	if err != nil {
		return err
	}

	switch mode {
	case modeTunnelTCP:
		return c.startTunnelToGateway(ctx, gw, tunnel.ModeTCP)
	case modeTunnelUDP:
		return c.startTunnelToGateway(ctx, gw, tunnel.ModeUDP)
	default:
		return c.startRouting(ctx)
	}
}

// selectAutomaticGateway implements the AUTOMATIC connection-type
// precedence spec.md §4.12 and §6 name: prefer a gateway advertising
// TCP tunnelling, then UDP tunnelling, then fall back to routing if
// any discovered gateway supports it. KNX/IP Secure variants are never
// auto-selected, since this module cannot complete their handshake.
func selectAutomaticGateway(gws []gateway.Gateway) (gateway.Gateway, connMode, error) {
	for _, g := range gws {
		if g.SupportsTunnellingTCP {
			return g, modeTunnelTCP, nil
		}
	}
	for _, g := range gws {
		if g.SupportsTunnelling {
			return g, modeTunnelUDP, nil
		}
	}
	for _, g := range gws {
		if g.SupportsRouting {
			return g, modeRouting, nil
		}
	}
	return gateway.Gateway{}, "", ErrNoGatewayFound
}

// startDeclaredTunnel builds a tunnel to the gateway_ip/gateway_port
// named directly in config, for the TUNNELING/TUNNELING_TCP connection
// types.
func (c *Client) startDeclaredTunnel(ctx context.Context, tmode tunnel.Mode) error {
	if c.cfg.Connection.GatewayIP == "" {
		return ErrGatewayRequired
	}
	ip := net.ParseIP(c.cfg.Connection.GatewayIP)
	port := c.cfg.Connection.GatewayPort

	var tr transport.Transport
	if tmode == tunnel.ModeTCP {
		tr = transport.NewTCPTransport(&net.TCPAddr{IP: ip, Port: port})
	} else {
		tr = transport.NewUDPTransport(transport.UDPConfig{RemoteAddr: &net.UDPAddr{IP: ip, Port: port}})
	}
	return c.bringUpTunnel(ctx, tr, tmode)
}

// startTunnelToGateway builds a tunnel to a gateway discovered by the
// AUTOMATIC scan.
func (c *Client) startTunnelToGateway(ctx context.Context, gw gateway.Gateway, tmode tunnel.Mode) error {
	ip := gw.ControlEndpoint.IP
	port := int(gw.ControlEndpoint.Port)

	var tr transport.Transport
	if tmode == tunnel.ModeTCP {
		tr = transport.NewTCPTransport(&net.TCPAddr{IP: ip, Port: port})
	} else {
		tr = transport.NewUDPTransport(transport.UDPConfig{RemoteAddr: &net.UDPAddr{IP: ip, Port: port}})
	}
	return c.bringUpTunnel(ctx, tr, tmode)
}

func (c *Client) bringUpTunnel(ctx context.Context, tr transport.Transport, tmode tunnel.Mode) error {
	t := tunnel.New(tunnel.Config{
		Transport:         tr,
		Mode:              tmode,
		AutoReconnect:     c.cfg.Connection.AutoReconnect,
		AutoReconnectWait: c.cfg.AutoReconnectWait(),
		OnIndication:      c.onIndication,
		OnStateChange:     c.onTunnelStateChange,
	})
	if err := t.Start(ctx); err != nil {
		return fmt.Errorf("knx: start tunnel: %w", err)
	}

	mode := modeTunnelUDP
	if tmode == tunnel.ModeTCP {
		mode = modeTunnelTCP
	}
	c.mu.Lock()
	c.transport = tr
	c.active = t
	c.mode = mode
	c.mu.Unlock()

	c.Queue = telegram.New(telegram.Config{
		OutboundRate: c.cfg.General.RateLimit,
		Send: func(ctx context.Context, tg telegram.Telegram) error {
			return t.Send(ctx, tg.ToCEMI())
		},
	})
	return nil
}

// onTunnelStateChange maps the tunnel's four-state machine down to the
// connection manager's three-state view, and counts a completed
// reconnect once the tunnel returns to Connected from Reconnecting.
func (c *Client) onTunnelStateChange(s tunnel.State) {
	c.mu.Lock()
	prev := c.prevTunnelState
	c.prevTunnelState = s
	c.mu.Unlock()

	if prev == tunnel.StateReconnecting && s == tunnel.StateConnected {
		c.metrics.Reconnects.Inc()
		c.log.Info().Msg("tunnel reconnected")
	}
	if prev == tunnel.StateConnected && s == tunnel.StateReconnecting {
		c.metrics.HeartbeatFailures.Inc()
		c.log.Warn().Msg("tunnel heartbeat lost, reconnecting")
	}

	switch s {
	case tunnel.StateConnected:
		c.Conn.SetState(connection.Connected)
	case tunnel.StateConnecting, tunnel.StateReconnecting:
		c.Conn.SetState(connection.Connecting)
	case tunnel.StateIdle:
		c.Conn.SetState(connection.Disconnected)
	}
}

// startRouting joins the configured multicast routing group.
func (c *Client) startRouting(ctx context.Context) error {
	group := c.cfg.General.MulticastGroup
	if group == "" {
		group = c.cfg.Connection.MulticastGroup
	}
	port := c.cfg.General.MulticastPort
	if port == 0 {
		port = c.cfg.Connection.MulticastPort
	}
	ip := net.ParseIP(group).To4()
	if ip == nil {
		return fmt.Errorf("%w: %q", ErrInvalidMulticastGroup, group)
	}

	tr := transport.NewUDPTransport(transport.UDPConfig{
		MulticastGroup: ip,
		RemoteAddr:     &net.UDPAddr{IP: ip, Port: port},
	})
	if err := tr.Start(ctx); err != nil {
		return fmt.Errorf("knx: start routing transport: %w", err)
	}

	r := router.New(router.Config{
		Transport:    tr,
		OwnAddress:   c.ownAddress,
		OnIndication: c.onIndication,
		OnLostMessage: func(count uint16) {
			c.metrics.RoutingLostMessages.Add(float64(count))
		},
	})

	c.mu.Lock()
	c.transport = tr
	c.active = r
	c.mode = modeRouting
	c.mu.Unlock()

	c.Queue = telegram.New(telegram.Config{
		OutboundRate: c.cfg.General.RateLimit,
		Send: func(ctx context.Context, tg telegram.Telegram) error {
			return r.Send(ctx, tg.ToCEMI())
		},
	})
	c.Conn.SetState(connection.Connected)
	return nil
}

// onIndication converts an inbound CEMI indication to a Telegram,
// delivers it to the queue for subscriber dispatch, and resets the
// state updater's expiry timer for its destination.
func (c *Client) onIndication(frame cemi.Frame) {
	tg, err := telegram.FromCEMI(frame, telegram.Incoming)
	if err != nil {
		return
	}
	c.Queue.Deliver(context.Background(), tg)
	if tg.Destination.Group {
		c.Updater.Touch(tg.Destination.GA)
	}
}

// readGroup issues a GroupValueRead for ga through the outbound queue,
// wired as the state updater's ReadFunc so scheduled reads respect the
// outbound rate limit rather than bypassing it.
func (c *Client) readGroup(ctx context.Context, ga address.GroupAddress) error {
	return c.Queue.Enqueue(ctx, telegram.Telegram{
		Source:      c.ownAddress,
		Destination: telegram.GroupDestination(ga),
		Direction:   telegram.Outgoing,
		Payload:     telegram.Read,
	})
}

// Track registers ga with the state updater, reading it back per
// strategy through this client's own outbound queue.
func (c *Client) Track(ctx context.Context, ga address.GroupAddress, strategy stateupdater.Strategy, interval time.Duration) {
	c.Updater.Track(ctx, ga, strategy, interval)
}
