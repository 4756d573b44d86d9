// If you are AI: This file holds the record framing shared by the command ring
// and the broadcast transmitter. Records are {length i32, msg type id i32,
// payload} aligned to 8 bytes; a negative type id marks wrap padding.

package rb

import "fmt"

const (
	// HeaderLength is the fixed record header: length then msg type id.
	HeaderLength = 8

	// Alignment is the record alignment in bytes. No record ever spans
	// the end of the ring; padding records fill the tail gap instead.
	Alignment = 8

	// PaddingMsgTypeID marks a record inserted to fill the space before
	// a wrap. Consumers skip it silently.
	PaddingMsgTypeID int32 = -1

	lengthOffset = 0
	typeOffset   = 4
)

// align rounds length up to the record alignment.
func align(length int32) int32 {
	return (length + (Alignment - 1)) &^ (Alignment - 1)
}

// checkCapacity validates that a ring data capacity is a power of two.
func checkCapacity(capacity int32) error {
	if capacity <= 0 || capacity&(capacity-1) != 0 {
		return fmt.Errorf("ring capacity must be a positive power of two, got %d", capacity)
	}
	return nil
}
