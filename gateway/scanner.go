package gateway

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/nerrad567/knxip/knxip"
	"github.com/nerrad567/knxip/transport"
)

// ScanConfig controls a Scan invocation.
type ScanConfig struct {
	// Interface restricts the scan to one network interface. Nil scans
	// every up, multicast-capable IPv4 interface.
	Interface *net.Interface

	// Timeout bounds how long the scan waits for responses. Zero uses
	// DefaultScanTimeout.
	Timeout time.Duration

	// StopOnFound ends the scan early once this many distinct gateways
	// have been seen. Zero means "run for the full timeout".
	StopOnFound int

	Filter ScanFilter
}

// DefaultScanTimeout is how long Scan waits when ScanConfig.Timeout is
// zero.
const DefaultScanTimeout = 3 * time.Second

// requestedDIBs are the DIB types asked for via SearchRequestExtended,
// covering everything a ScanFilter can discriminate on.
var requestedDIBs = []knxip.DIBType{
	knxip.DIBDeviceInfo,
	knxip.DIBSupportedServiceFamilies,
	knxip.DIBSecuredServiceFamilies,
	knxip.DIBTunnelingInfo,
}

// Scan sends SearchRequest and SearchRequestExtended to the KNX
// discovery multicast group on every matching interface, collects
// responses for cfg.Timeout (or until cfg.StopOnFound distinct
// gateways are seen), and returns those matching cfg.Filter.
func Scan(ctx context.Context, cfg ScanConfig) ([]Gateway, error) {
	ifaces, err := candidateInterfaces(cfg.Interface)
	if err != nil {
		return nil, err
	}
	if len(ifaces) == 0 {
		return nil, ErrNoInterfaces
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultScanTimeout
	}
	discoveryAddr := &net.UDPAddr{IP: DefaultMulticastGroup, Port: DefaultMulticastPort}

	col := &collector{seen: make(map[string]Gateway)}

	var transports []*transport.UDPTransport
	for _, addr := range ifaces {
		tr := transport.NewUDPTransport(transport.UDPConfig{
			LocalAddr:  &net.UDPAddr{IP: addr, Port: 0},
			RemoteAddr: discoveryAddr,
		})
		if err := tr.Start(ctx); err != nil {
			continue
		}
		tr.SetOnReceive(col.handle)
		transports = append(transports, tr)
	}
	defer func() {
		for _, tr := range transports {
			tr.Stop()
		}
	}()
	if len(transports) == 0 {
		return nil, ErrNoInterfaces
	}

	for _, tr := range transports {
		local, ok := tr.LocalAddr().(*net.UDPAddr)
		if !ok {
			continue
		}
		discovery := knxip.HPAI{Protocol: knxip.HostProtocolUDP, IP: local.IP, Port: uint16(local.Port)}

		req := knxip.Frame{Body: knxip.SearchRequest{DiscoveryEndpoint: discovery}}
		tr.Send(req.Encode())

		ext := knxip.Frame{Body: knxip.SearchRequestExtended{
			DiscoveryEndpoint: discovery,
			SRPs:              []knxip.SRP{knxip.RequestDIBsSRP{MandatoryFlag: false, Types: requestedDIBs}},
		}}
		tr.Send(ext.Encode())
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return col.filtered(cfg.Filter), nil
		case <-deadline.C:
			return col.filtered(cfg.Filter), nil
		case <-ticker.C:
			if cfg.StopOnFound > 0 && col.count() >= cfg.StopOnFound {
				return col.filtered(cfg.Filter), nil
			}
		}
	}
}

// candidateInterfaces returns the unicast IPv4 address of each
// up, multicast-capable interface, or of only as specified.
func candidateInterfaces(only *net.Interface) ([]net.IP, error) {
	var ifaces []net.Interface
	if only != nil {
		ifaces = []net.Interface{*only}
	} else {
		all, err := net.Interfaces()
		if err != nil {
			return nil, err
		}
		ifaces = all
	}

	var addrs []net.IP
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagMulticast == 0 {
			continue
		}
		ifAddrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range ifAddrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			ip4 := ipNet.IP.To4()
			if ip4 == nil || ip4.IsLoopback() {
				continue
			}
			addrs = append(addrs, ip4)
			break
		}
	}
	return addrs, nil
}

// collector accumulates discovered gateways, deduplicated by control
// endpoint, preferring an extended response over a legacy one from the
// same device.
type collector struct {
	mu   sync.Mutex
	seen map[string]Gateway
}

func (c *collector) handle(data []byte) {
	frame, err := knxip.Decode(data)
	if err != nil {
		return
	}

	var g Gateway
	switch b := frame.Body.(type) {
	case knxip.SearchResponse:
		g = gatewayFromDIBs(b.ControlEndpoint, b.DIBs)
	case knxip.SearchResponseExtended:
		g = gatewayFromDIBs(b.ControlEndpoint, b.DIBs)
		g.Extended = true
	default:
		return
	}

	key := endpointKey(g.ControlEndpoint)
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.seen[key]; ok && existing.Extended && !g.Extended {
		return
	}
	c.seen[key] = g
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

func (c *collector) filtered(f ScanFilter) []Gateway {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Gateway, 0, len(c.seen))
	for _, g := range c.seen {
		if f.Matches(g) {
			out = append(out, g)
		}
	}
	return out
}
