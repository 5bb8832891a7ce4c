// Package handshake implements the record-framed handshake codec (§4.C)
// and the ec25519-fhmqvc key-exchange state machine (§4.D) that derives the
// session keys consumed by the method layer.
package handshake

import (
	"encoding/binary"
	"fmt"
)

// RecordType enumerates the TLV record kinds recognised by the codec.
// Unknown types are tolerated for forward-compat (§4.C).
type RecordType uint16

const (
	RecordHandshakeType RecordType = iota
	RecordReplyCode
	RecordErrorDetail
	RecordFlags
	RecordMode
	RecordProtocolName
	RecordProtocol1
	RecordProtocol2
	RecordProtocol3
	RecordProtocol4
	RecordProtocol5
	RecordMTU
	RecordMethodName
	recordMax
)

// Stage is the value carried in a RecordHandshakeType record.
type Stage uint8

const (
	StageInit Stage = iota + 1
	StageResponse
	StageFinish
)

// ReplyCode is the value carried in a RecordReplyCode record.
type ReplyCode uint8

const (
	ReplySuccess ReplyCode = iota
	ReplyMandatoryMissing
	ReplyUnacceptableValue
)

func (r ReplyCode) String() string {
	switch r {
	case ReplySuccess:
		return "success"
	case ReplyMandatoryMissing:
		return "mandatory record missing"
	case ReplyUnacceptableValue:
		return "unacceptable value"
	default:
		return fmt.Sprintf("reply-code(%d)", uint8(r))
	}
}

// Mode is the tunnel mode negotiated by RecordMode.
type Mode uint8

const (
	ModeTAP Mode = iota
	ModeTUN
)

func (m Mode) String() string {
	if m == ModeTUN {
		return "tun"
	}
	return "tap"
}

// record is one TLV entry: type:u16LE | length:u16LE | value.
type record struct {
	Type  RecordType
	Value []byte
}

const recordTLVOverhead = 4 // 2 bytes type + 2 bytes length

func encodeRecord(dst []byte, rtype RecordType, value []byte) []byte {
	hdr := make([]byte, recordTLVOverhead)
	binary.LittleEndian.PutUint16(hdr[0:2], uint16(rtype))
	binary.LittleEndian.PutUint16(hdr[2:4], uint16(len(value)))
	dst = append(dst, hdr...)
	dst = append(dst, value...)
	return dst
}

// decodeRecords parses a flat TLV stream into one slot per RecordType.
// A repeated type is a protocol violation (§3: "Only one of each type is
// permitted per handshake").
func decodeRecords(data []byte) (map[RecordType][]byte, error) {
	out := make(map[RecordType][]byte)
	for len(data) > 0 {
		if len(data) < recordTLVOverhead {
			return nil, fmt.Errorf("handshake: truncated record header")
		}
		rtype := RecordType(binary.LittleEndian.Uint16(data[0:2]))
		length := int(binary.LittleEndian.Uint16(data[2:4]))
		data = data[recordTLVOverhead:]
		if length > len(data) {
			return nil, fmt.Errorf("handshake: truncated record value")
		}
		if _, dup := out[rtype]; dup {
			return nil, fmt.Errorf("handshake: duplicate record type %d", rtype)
		}
		out[rtype] = data[:length]
		data = data[length:]
	}
	return out, nil
}
