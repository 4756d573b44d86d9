// If you are AI: This file holds the message type ids and the primitive
// cursor-based codec the command and response flyweights are built from.
// All fields are little-endian; 64-bit fields sit at 8-byte aligned offsets;
// strings travel as a u32 length followed by the bytes.

package command

import (
	"encoding/binary"
	"fmt"
)

// Commands carried on the to-driver ring.
const (
	AddPublicationTypeID          int32 = 0x01
	RemovePublicationTypeID       int32 = 0x02
	AddExclusivePublicationTypeID int32 = 0x03
	AddSubscriptionTypeID         int32 = 0x04
	RemoveSubscriptionTypeID      int32 = 0x05
	ClientKeepaliveTypeID         int32 = 0x06
	AddRcvDestinationTypeID       int32 = 0x07
	RemoveRcvDestinationTypeID    int32 = 0x08
)

// Responses carried on the to-clients broadcast.
const (
	OnErrorTypeID                     int32 = 0x0F01
	OnAvailableImageTypeID            int32 = 0x0F02
	OnPublicationReadyTypeID          int32 = 0x0F03
	OnUnavailableImageTypeID          int32 = 0x0F05
	OnExclusivePublicationReadyTypeID int32 = 0x0F06
	OnSubscriptionReadyTypeID         int32 = 0x0F07
)

// writer appends fixed-width fields and length-prefixed strings.
type writer struct {
	b []byte
}

// putInt32 appends a little-endian int32.
func (w *writer) putInt32(v int32) {
	w.b = binary.LittleEndian.AppendUint32(w.b, uint32(v))
}

// putInt64 appends a little-endian int64.
func (w *writer) putInt64(v int64) {
	w.b = binary.LittleEndian.AppendUint64(w.b, uint64(v))
}

// putString appends a u32 length prefix and the string bytes.
func (w *writer) putString(s string) {
	w.putInt32(int32(len(s)))
	w.b = append(w.b, s...)
}

// reader consumes fields in the order the writer appended them.
type reader struct {
	b   []byte
	pos int
	err error
}

// fail records the first decode error and poisons further reads.
func (r *reader) fail(what string) {
	if r.err == nil {
		r.err = fmt.Errorf("truncated message: missing %s at offset %d", what, r.pos)
	}
}

// int32Field consumes a little-endian int32.
func (r *reader) int32Field(what string) int32 {
	if r.err != nil || r.pos+4 > len(r.b) {
		r.fail(what)
		return 0
	}
	v := int32(binary.LittleEndian.Uint32(r.b[r.pos:]))
	r.pos += 4
	return v
}

// int64Field consumes a little-endian int64.
func (r *reader) int64Field(what string) int64 {
	if r.err != nil || r.pos+8 > len(r.b) {
		r.fail(what)
		return 0
	}
	v := int64(binary.LittleEndian.Uint64(r.b[r.pos:]))
	r.pos += 8
	return v
}

// stringField consumes a u32 length prefix and the string bytes.
func (r *reader) stringField(what string) string {
	length := r.int32Field(what)
	if r.err != nil {
		return ""
	}
	if length < 0 || r.pos+int(length) > len(r.b) {
		r.fail(what)
		return ""
	}
	s := string(r.b[r.pos : r.pos+int(length)])
	r.pos += int(length)
	return s
}
