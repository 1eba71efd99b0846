package knxip

import "testing"

func TestProgrammingModeSRPRoundTrip(t *testing.T) {
	s := ProgrammingModeSRP{MandatoryFlag: true}
	encoded := s.Encode()
	if encoded[0]&0x80 == 0 {
		t.Fatalf("mandatory flag not set in length byte 0x%02x", encoded[0])
	}
	decoded, n, err := decodeSRP(encoded)
	if err != nil {
		t.Fatalf("decodeSRP: %v", err)
	}
	if n != len(encoded) {
		t.Errorf("consumed %d bytes, want %d", n, len(encoded))
	}
	if !decoded.Mandatory() || decoded.Type() != SRPProgrammingMode {
		t.Errorf("got %+v", decoded)
	}
}

func TestServiceSRPRoundTrip(t *testing.T) {
	s := ServiceSRP{MandatoryFlag: false, Family: 0x04, Version: 0x01}
	decoded, _, err := decodeSRP(s.Encode())
	if err != nil {
		t.Fatalf("decodeSRP: %v", err)
	}
	got := decoded.(ServiceSRP)
	if got.Mandatory() || got.Family != 0x04 || got.Version != 0x01 {
		t.Errorf("got %+v", got)
	}
}

func TestRequestDIBsSRPRoundTrip(t *testing.T) {
	s := RequestDIBsSRP{MandatoryFlag: true, Types: []DIBType{DIBDeviceInfo, DIBSupportedServiceFamilies}}
	decoded, n, err := decodeSRP(s.Encode())
	if err != nil {
		t.Fatalf("decodeSRP: %v", err)
	}
	if n != len(s.Encode()) {
		t.Errorf("consumed %d, want %d", n, len(s.Encode()))
	}
	got := decoded.(RequestDIBsSRP)
	if len(got.Types) != 2 || got.Types[1] != DIBSupportedServiceFamilies {
		t.Errorf("got %+v", got)
	}
}

func TestSRPSetRoundTrip(t *testing.T) {
	srps := []SRP{
		ProgrammingModeSRP{MandatoryFlag: true},
		MACAddressSRP{MandatoryFlag: false, MAC: [6]byte{1, 2, 3, 4, 5, 6}},
	}
	decoded, err := decodeSRPSet(encodeSRPSet(srps))
	if err != nil {
		t.Fatalf("decodeSRPSet: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("len(decoded) = %d, want 2", len(decoded))
	}
	mac, ok := decoded[1].(MACAddressSRP)
	if !ok || mac.MAC[5] != 6 {
		t.Errorf("got %+v", decoded[1])
	}
}

func TestOpaqueSRPFallback(t *testing.T) {
	raw := []byte{0x83, 0x09, 0x01} // mandatory bit set, unknown type 0x09
	decoded, n, err := decodeSRP(raw)
	if err != nil {
		t.Fatalf("decodeSRP: %v", err)
	}
	if n != 3 {
		t.Errorf("consumed %d bytes, want 3", n)
	}
	got, ok := decoded.(OpaqueSRP)
	if !ok || !got.Mandatory() || got.TypeCode != SRPType(0x09) {
		t.Errorf("got %+v", decoded)
	}
}
