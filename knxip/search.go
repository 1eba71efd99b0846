package knxip

func init() {
	registerBody(SearchRequestType, decodeSearchRequest)
	registerBody(SearchResponseType, decodeSearchResponse)
	registerBody(DescriptionRequestType, decodeDescriptionRequest)
	registerBody(DescriptionResponseType, decodeDescriptionResponse)
	registerBody(SearchRequestExtendedType, decodeSearchRequestExtended)
	registerBody(SearchResponseExtendedType, decodeSearchResponseExtended)
}

// SearchRequest asks gateways on the multicast group to identify
// themselves to DiscoveryEndpoint.
type SearchRequest struct {
	DiscoveryEndpoint HPAI
}

func (r SearchRequest) ServiceType() ServiceType { return SearchRequestType }
func (r SearchRequest) Encode() []byte            { return r.DiscoveryEndpoint.Encode() }

func decodeSearchRequest(data []byte) (Body, error) {
	hpai, _, err := DecodeHPAI(data)
	if err != nil {
		return nil, err
	}
	return SearchRequest{DiscoveryEndpoint: hpai}, nil
}

// SearchResponse is a gateway's reply to a SearchRequest, describing
// itself via a set of DIBs.
type SearchResponse struct {
	ControlEndpoint HPAI
	DIBs            []DIB
}

func (r SearchResponse) ServiceType() ServiceType { return SearchResponseType }

func (r SearchResponse) Encode() []byte {
	out := r.ControlEndpoint.Encode()
	return append(out, encodeDIBSet(r.DIBs)...)
}

func decodeSearchResponse(data []byte) (Body, error) {
	hpai, n, err := DecodeHPAI(data)
	if err != nil {
		return nil, err
	}
	dibs, err := decodeDIBSet(data[n:])
	if err != nil {
		return nil, err
	}
	return SearchResponse{ControlEndpoint: hpai, DIBs: dibs}, nil
}

// DescriptionRequest asks a specific gateway (already known, unlike
// SearchRequest's multicast discovery) to describe itself.
type DescriptionRequest struct {
	ControlEndpoint HPAI
}

func (r DescriptionRequest) ServiceType() ServiceType { return DescriptionRequestType }
func (r DescriptionRequest) Encode() []byte             { return r.ControlEndpoint.Encode() }

func decodeDescriptionRequest(data []byte) (Body, error) {
	hpai, _, err := DecodeHPAI(data)
	if err != nil {
		return nil, err
	}
	return DescriptionRequest{ControlEndpoint: hpai}, nil
}

// DescriptionResponse answers a DescriptionRequest with a DIB set.
type DescriptionResponse struct {
	DIBs []DIB
}

func (r DescriptionResponse) ServiceType() ServiceType { return DescriptionResponseType }
func (r DescriptionResponse) Encode() []byte             { return encodeDIBSet(r.DIBs) }

func decodeDescriptionResponse(data []byte) (Body, error) {
	dibs, err := decodeDIBSet(data)
	if err != nil {
		return nil, err
	}
	return DescriptionResponse{DIBs: dibs}, nil
}

// SearchRequestExtended is SearchRequest plus a set of Search Request
// Parameters narrowing which gateways respond.
type SearchRequestExtended struct {
	DiscoveryEndpoint HPAI
	SRPs              []SRP
}

func (r SearchRequestExtended) ServiceType() ServiceType { return SearchRequestExtendedType }

func (r SearchRequestExtended) Encode() []byte {
	out := r.DiscoveryEndpoint.Encode()
	return append(out, encodeSRPSet(r.SRPs)...)
}

func decodeSearchRequestExtended(data []byte) (Body, error) {
	hpai, n, err := DecodeHPAI(data)
	if err != nil {
		return nil, err
	}
	srps, err := decodeSRPSet(data[n:])
	if err != nil {
		return nil, err
	}
	return SearchRequestExtended{DiscoveryEndpoint: hpai, SRPs: srps}, nil
}

// SearchResponseExtended is SearchResponse with the DIB set extended
// to honour any RequestDIBsSRP from the triggering request.
type SearchResponseExtended struct {
	ControlEndpoint HPAI
	DIBs            []DIB
}

func (r SearchResponseExtended) ServiceType() ServiceType { return SearchResponseExtendedType }

func (r SearchResponseExtended) Encode() []byte {
	out := r.ControlEndpoint.Encode()
	return append(out, encodeDIBSet(r.DIBs)...)
}

func decodeSearchResponseExtended(data []byte) (Body, error) {
	hpai, n, err := DecodeHPAI(data)
	if err != nil {
		return nil, err
	}
	dibs, err := decodeDIBSet(data[n:])
	if err != nil {
		return nil, err
	}
	return SearchResponseExtended{ControlEndpoint: hpai, DIBs: dibs}, nil
}
