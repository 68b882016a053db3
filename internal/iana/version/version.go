package version

import (
	"errors"
)

type ProtocolVersion uint16

var (
	ErrUnknownProtocolVersion = errors.New("unknown protocol version")
)

const (
	Unknown ProtocolVersion = 0

	NFv1  ProtocolVersion = 1
	NFv5  ProtocolVersion = 5
	NFv9  ProtocolVersion = 9
	IPFIX ProtocolVersion = 10
)

func (p ProtocolVersion) String() string {
	switch p {
	case NFv1:
		return "NetFlowV1"
	case NFv5:
		return "NetFlowV5"
	case NFv9:
		return "NetFlowV9"
	case IPFIX:
		return "IPFIX"
	default:
		return "Unknown"
	}
}

func (p ProtocolVersion) MarshalText() ([]byte, error) {
	s := p.String()
	if s == "Unknown" {
		return nil, ErrUnknownProtocolVersion
	}
	b := []byte(s)
	return b, nil
}

func (p *ProtocolVersion) UnmarshalText(in []byte) error {
	s := string(in)

	switch s {
	case "NetFlowV1", "v1":
		*p = NFv1
	case "NetFlowV5", "v5":
		*p = NFv5
	case "NetFlowV9", "v9":
		*p = NFv9
	case "IPFIX", "ipfix":
		*p = IPFIX
	default:
		return ErrUnknownProtocolVersion
	}
	return nil
}
