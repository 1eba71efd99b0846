package gateway

import (
	"fmt"
	"net"

	"github.com/nerrad567/knxip/knxip"
)

// KNXnet/IP service family identifiers carried in supported/secured
// service-families DIBs (KNX 03_08_02).
const (
	FamilyCore              byte = 0x02
	FamilyDeviceManagement  byte = 0x03
	FamilyTunnelling        byte = 0x04
	FamilyRouting           byte = 0x05
	FamilyRemoteLogging     byte = 0x06
	FamilyRemoteConfig      byte = 0x07
	FamilyObjectServer      byte = 0x08
	FamilySecure            byte = 0x09
)

// DefaultMulticastGroup and DefaultMulticastPort are the well-known
// KNX discovery/routing multicast endpoint.
var DefaultMulticastGroup = net.IPv4(224, 0, 23, 12)

const DefaultMulticastPort = 3671

// Gateway describes one discovered KNXnet/IP device.
type Gateway struct {
	ControlEndpoint knxip.HPAI
	FriendlyName    string

	SupportsTunnelling       bool
	SupportsTunnellingTCP    bool
	SupportsRouting          bool
	SupportsSecureTunnelling bool
	SupportsSecureRouting    bool

	// Extended is true when the gateway answered SearchRequestExtended
	// (core-v2 capable); for such devices only the
	// extended response is kept.
	Extended bool

	DIBs []knxip.DIB
}

func (g *Gateway) applyDIB(d knxip.DIB) {
	switch v := d.(type) {
	case knxip.DeviceInfoDIB:
		g.FriendlyName = v.FriendlyName
	case knxip.ServiceFamiliesDIB:
		for _, f := range v.Families {
			switch v.TypeCode {
			case knxip.DIBSupportedServiceFamilies:
				switch f.Family {
				case FamilyTunnelling:
					g.SupportsTunnelling = true
					if f.Version >= 2 {
						g.SupportsTunnellingTCP = true
					}
				case FamilyRouting:
					g.SupportsRouting = true
				}
			case knxip.DIBSecuredServiceFamilies:
				switch f.Family {
				case FamilyTunnelling:
					g.SupportsSecureTunnelling = true
				case FamilyRouting:
					g.SupportsSecureRouting = true
				}
			}
		}
	}
	g.DIBs = append(g.DIBs, d)
}

func gatewayFromDIBs(endpoint knxip.HPAI, dibs []knxip.DIB) Gateway {
	g := Gateway{ControlEndpoint: endpoint}
	for _, d := range dibs {
		g.applyDIB(d)
	}
	return g
}

func endpointKey(h knxip.HPAI) string {
	ip4 := h.IP.To4()
	if ip4 == nil {
		ip4 = net.IPv4zero.To4()
	}
	return fmt.Sprintf("%s:%d", ip4.String(), h.Port)
}
