package knxip

import (
	"bytes"
	"net"
	"testing"
)

func TestSearchRequestRoundTrip(t *testing.T) {
	f := Frame{Body: SearchRequest{DiscoveryEndpoint: HPAI{Protocol: HostProtocolUDP, IP: net.IPv4(224, 0, 23, 12), Port: 3671}}}
	decoded, err := Decode(f.Encode())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got, ok := decoded.Body.(SearchRequest)
	if !ok || got.DiscoveryEndpoint.Port != 3671 {
		t.Errorf("got %+v", decoded.Body)
	}
}

func TestSearchResponseRoundTrip(t *testing.T) {
	resp := SearchResponse{
		ControlEndpoint: HPAI{Protocol: HostProtocolUDP, IP: net.IPv4(10, 0, 0, 5), Port: 3671},
		DIBs: []DIB{
			DeviceInfoDIB{MediumCode: 0x02, FriendlyName: "gw"},
			ServiceFamiliesDIB{TypeCode: DIBSupportedServiceFamilies, Families: []ServiceFamily{{Family: 0x04, Version: 0x01}}},
		},
	}
	f := Frame{Body: resp}
	decoded, err := Decode(f.Encode())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got, ok := decoded.Body.(SearchResponse)
	if !ok || len(got.DIBs) != 2 {
		t.Fatalf("got %+v", decoded.Body)
	}
	if !got.ControlEndpoint.IP.Equal(resp.ControlEndpoint.IP) {
		t.Errorf("IP = %v, want %v", got.ControlEndpoint.IP, resp.ControlEndpoint.IP)
	}
}

func TestSearchRequestExtendedRoundTrip(t *testing.T) {
	req := SearchRequestExtended{
		DiscoveryEndpoint: RouteBack(HostProtocolUDP),
		SRPs:              []SRP{ProgrammingModeSRP{MandatoryFlag: true}},
	}
	f := Frame{Body: req}
	decoded, err := Decode(f.Encode())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got, ok := decoded.Body.(SearchRequestExtended)
	if !ok || len(got.SRPs) != 1 || got.SRPs[0].Type() != SRPProgrammingMode {
		t.Errorf("got %+v", decoded.Body)
	}
}

func TestDescriptionRoundTrip(t *testing.T) {
	dreq := DescriptionRequest{ControlEndpoint: RouteBack(HostProtocolUDP)}
	f := Frame{Body: dreq}
	if !bytes.Equal(f.Encode()[:2], []byte{0x06, 0x10}) {
		t.Fatal("malformed header")
	}

	dresp := DescriptionResponse{DIBs: []DIB{DeviceInfoDIB{FriendlyName: "gw"}}}
	decoded, err := Decode(Frame{Body: dresp}.Encode())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got, ok := decoded.Body.(DescriptionResponse)
	if !ok || len(got.DIBs) != 1 {
		t.Errorf("got %+v", decoded.Body)
	}
}
