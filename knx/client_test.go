package knx

import (
	"context"
	"errors"
	"testing"

	"github.com/nerrad567/knxip/gateway"
	"github.com/nerrad567/knxip/internal/config"
)

func gw(name string, tunnelling, tunnellingTCP, routing bool) gateway.Gateway {
	return gateway.Gateway{
		FriendlyName:          name,
		SupportsTunnelling:    tunnelling,
		SupportsTunnellingTCP: tunnellingTCP,
		SupportsRouting:       routing,
	}
}

func TestSelectAutomaticGatewayPrecedence(t *testing.T) {
	cases := []struct {
		name     string
		gws      []gateway.Gateway
		wantMode connMode
		wantName string
		wantErr  error
	}{
		{
			name:    "no gateways",
			gws:     nil,
			wantErr: ErrNoGatewayFound,
		},
		{
			name:     "tcp preferred over udp and routing",
			gws:      []gateway.Gateway{gw("routing-only", false, false, true), gw("all-three", true, true, true)},
			wantMode: modeTunnelTCP,
			wantName: "all-three",
		},
		{
			name:     "udp preferred over routing when no tcp",
			gws:      []gateway.Gateway{gw("routing-only", false, false, true), gw("udp-tunnel", true, false, false)},
			wantMode: modeTunnelUDP,
			wantName: "udp-tunnel",
		},
		{
			name:     "routing is last resort",
			gws:      []gateway.Gateway{gw("routing-only", false, false, true)},
			wantMode: modeRouting,
			wantName: "routing-only",
		},
		{
			name:    "gateway supporting nothing is skipped",
			gws:     []gateway.Gateway{gw("nothing", false, false, false)},
			wantErr: ErrNoGatewayFound,
		},
		{
			name:     "first matching tcp gateway wins ties",
			gws:      []gateway.Gateway{gw("first", true, true, false), gw("second", true, true, false)},
			wantMode: modeTunnelTCP,
			wantName: "first",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, mode, err := selectAutomaticGateway(tc.gws)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if mode != tc.wantMode {
				t.Errorf("mode = %v, want %v", mode, tc.wantMode)
			}
			if got.FriendlyName != tc.wantName {
				t.Errorf("gateway = %v, want %v", got.FriendlyName, tc.wantName)
			}
		})
	}
}

func newTestClient(t *testing.T, cfg config.Config) *Client {
	t.Helper()
	c, err := New(cfg, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func baseConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Config{}
	cfg.General.OwnAddress = "1.1.1"
	cfg.General.RateLimit = 20
	cfg.Connection.AutoReconnectWait = 3
	return cfg
}

func TestStartDeclaredTunnelRequiresGatewayIP(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Connection.Type = config.Tunneling
	c := newTestClient(t, cfg)

	err := c.Start(context.Background())
	if !errors.Is(err, ErrGatewayRequired) {
		t.Fatalf("err = %v, want %v", err, ErrGatewayRequired)
	}
}

func TestStartTunnelingTCPRequiresGatewayIP(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Connection.Type = config.TunnelingTCP
	c := newTestClient(t, cfg)

	err := c.Start(context.Background())
	if !errors.Is(err, ErrGatewayRequired) {
		t.Fatalf("err = %v, want %v", err, ErrGatewayRequired)
	}
}

func TestStartSecureConnectionTypesAreRejected(t *testing.T) {
	for _, ct := range []config.ConnectionType{config.TunnelingTCPSecure, config.RoutingSecure} {
		cfg := baseConfig(t)
		cfg.Connection.Type = ct
		c := newTestClient(t, cfg)

		err := c.Start(context.Background())
		if !errors.Is(err, ErrSecureNotImplemented) {
			t.Errorf("connection type %v: err = %v, want %v", ct, err, ErrSecureNotImplemented)
		}
	}
}

func TestStartUnsupportedConnectionType(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Connection.Type = config.ConnectionType("bogus")
	c := newTestClient(t, cfg)

	err := c.Start(context.Background())
	if !errors.Is(err, ErrUnsupportedConnectionType) {
		t.Fatalf("err = %v, want %v", err, ErrUnsupportedConnectionType)
	}
}

func TestStopBeforeStartReturnsErrNotStarted(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Connection.Type = config.Tunneling
	c := newTestClient(t, cfg)

	err := c.Stop()
	if !errors.Is(err, ErrNotStarted) {
		t.Fatalf("err = %v, want %v", err, ErrNotStarted)
	}
}

func TestStartRoutingRejectsInvalidMulticastGroup(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Connection.Type = config.Routing
	cfg.Connection.MulticastGroup = "not-an-ip"
	cfg.Connection.MulticastPort = 3671
	c := newTestClient(t, cfg)

	err := c.Start(context.Background())
	if !errors.Is(err, ErrInvalidMulticastGroup) {
		t.Fatalf("err = %v, want %v", err, ErrInvalidMulticastGroup)
	}
}
