package handshake

import "fmt"

// ErrMandatoryMissing is returned when a handshake packet lacks a record
// required at its stage (§4.C, §7: responded with REPLY_MANDATORY_MISSING).
type ErrMandatoryMissing struct {
	Record RecordType
}

func (e *ErrMandatoryMissing) Error() string {
	return fmt.Sprintf("handshake: mandatory record %d missing", e.Record)
}

// ErrUnacceptableValue is returned when a present record's value is out of
// range (§7: responded with REPLY_UNACCEPTABLE_VALUE).
type ErrUnacceptableValue struct {
	Record RecordType
	Reason string
}

func (e *ErrUnacceptableValue) Error() string {
	return fmt.Sprintf("handshake: unacceptable value for record %d: %s", e.Record, e.Reason)
}

// ErrMalformed is returned for anything the TLV parser itself rejects.
type ErrMalformed struct {
	Reason string
}

func (e *ErrMalformed) Error() string {
	return fmt.Sprintf("handshake: malformed packet: %s", e.Reason)
}
