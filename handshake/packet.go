package handshake

import "fmt"

// PacketType is the single leading byte of every UDP datagram, used by the
// peer-table demux (§4.E) to route to the method layer or the handshake
// codec without parsing further.
type PacketType byte

const (
	PacketData      PacketType = 0
	PacketHandshake PacketType = 1
)

// Packet is a parsed handshake record set (§3: "array indexed by record
// type... only one of each type permitted").
type Packet struct {
	Stage        Stage
	Reply        ReplyCode
	HasReply     bool
	ErrorDetail  string
	Mode         Mode
	ProtocolName string
	Protocol     [5][]byte // protocol-specific payloads 1-5
	MTU          uint16
	MethodName   string
}

// Builder accumulates records for one outgoing handshake packet.
type Builder struct {
	buf []byte
}

// NewBuilder starts a packet with the leading PacketHandshake byte.
func NewBuilder() *Builder {
	return &Builder{buf: []byte{byte(PacketHandshake)}}
}

func (b *Builder) addBytes(t RecordType, v []byte) *Builder {
	b.buf = encodeRecord(b.buf, t, v)
	return b
}

func (b *Builder) addUint8(t RecordType, v uint8) *Builder {
	return b.addBytes(t, []byte{v})
}

func (b *Builder) addUint16(t RecordType, v uint16) *Builder {
	return b.addBytes(t, []byte{byte(v), byte(v >> 8)})
}

func (b *Builder) Stage(s Stage) *Builder { return b.addUint8(RecordHandshakeType, uint8(s)) }
func (b *Builder) Reply(r ReplyCode) *Builder {
	return b.addUint8(RecordReplyCode, uint8(r))
}
func (b *Builder) ErrorDetail(detail string) *Builder {
	return b.addBytes(RecordErrorDetail, []byte(detail))
}
func (b *Builder) Mode(m Mode) *Builder                { return b.addUint8(RecordMode, uint8(m)) }
func (b *Builder) ProtocolName(name string) *Builder   { return b.addBytes(RecordProtocolName, []byte(name)) }
func (b *Builder) MTU(mtu uint16) *Builder             { return b.addUint16(RecordMTU, mtu) }
func (b *Builder) MethodName(name string) *Builder     { return b.addBytes(RecordMethodName, []byte(name)) }
func (b *Builder) Protocol(index int, v []byte) *Builder {
	return b.addBytes(RecordProtocol1+RecordType(index), v)
}

// Bytes returns the built packet.
func (b *Builder) Bytes() []byte { return b.buf }

// requiredRecords lists what each stage must carry, per §4.C.
func requiredRecords(stage Stage) []RecordType {
	switch stage {
	case StageInit:
		return []RecordType{RecordProtocolName, RecordMode, RecordProtocol1, RecordProtocol2}
	case StageResponse:
		return []RecordType{RecordProtocolName, RecordProtocol1, RecordProtocol2, RecordProtocol3, RecordProtocol4}
	case StageFinish:
		return []RecordType{RecordProtocolName, RecordProtocol1, RecordProtocol2, RecordProtocol5, RecordMethodName}
	default:
		return nil
	}
}

// ParsePacket decodes and validates a received handshake packet. Unknown
// record types are tolerated; a missing required record or a reply-code
// packet with no stage is reported as the appropriate protocol error.
func ParsePacket(raw []byte) (*Packet, error) {
	if len(raw) < 1 {
		return nil, &ErrMalformed{Reason: "empty packet"}
	}
	if PacketType(raw[0]) != PacketHandshake {
		return nil, &ErrMalformed{Reason: "not a handshake packet"}
	}

	recs, err := decodeRecords(raw[1:])
	if err != nil {
		return nil, err
	}

	p := &Packet{}

	if v, ok := recs[RecordReplyCode]; ok {
		if len(v) != 1 {
			return nil, &ErrUnacceptableValue{Record: RecordReplyCode, Reason: "wrong length"}
		}
		p.HasReply = true
		p.Reply = ReplyCode(v[0])
	}
	if v, ok := recs[RecordErrorDetail]; ok {
		p.ErrorDetail = string(v)
	}

	stageBytes, ok := recs[RecordHandshakeType]
	if !ok {
		return nil, &ErrMandatoryMissing{Record: RecordHandshakeType}
	}
	if len(stageBytes) != 1 {
		return nil, &ErrUnacceptableValue{Record: RecordHandshakeType, Reason: "wrong length"}
	}
	p.Stage = Stage(stageBytes[0])
	if p.Stage < StageInit || p.Stage > StageFinish {
		return nil, &ErrUnacceptableValue{Record: RecordHandshakeType, Reason: "out of range"}
	}

	for _, req := range requiredRecords(p.Stage) {
		if _, ok := recs[req]; !ok {
			return nil, &ErrMandatoryMissing{Record: req}
		}
	}

	if v, ok := recs[RecordMode]; ok {
		if len(v) != 1 || v[0] > byte(ModeTUN) {
			return nil, &ErrUnacceptableValue{Record: RecordMode, Reason: "unknown mode"}
		}
		p.Mode = Mode(v[0])
	}
	if v, ok := recs[RecordProtocolName]; ok {
		p.ProtocolName = string(v)
	}
	if v, ok := recs[RecordMTU]; ok {
		if len(v) != 2 {
			return nil, &ErrUnacceptableValue{Record: RecordMTU, Reason: "wrong length"}
		}
		p.MTU = uint16(v[0]) | uint16(v[1])<<8
	}
	if v, ok := recs[RecordMethodName]; ok {
		p.MethodName = string(v)
	}
	for i := 0; i < 5; i++ {
		if v, ok := recs[RecordProtocol1+RecordType(i)]; ok {
			p.Protocol[i] = v
		}
	}

	return p, nil
}

// NewReply builds a minimal REPLY_* packet for a protocol error, per §7:
// "respond with a REPLY_* handshake, do not advance state".
func NewReply(code ReplyCode, detail string) []byte {
	b := NewBuilder().Reply(code)
	if detail != "" {
		b.ErrorDetail(detail)
	}
	return b.Bytes()
}

func (p *Packet) String() string {
	return fmt.Sprintf("handshake{stage=%d mode=%s protocol=%q method=%q mtu=%d}", p.Stage, p.Mode, p.ProtocolName, p.MethodName, p.MTU)
}
