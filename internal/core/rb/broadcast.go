// If you are AI: This file implements the single-producer broadcast channel the
// conductor uses to fan events out to every attached client. Consumers may lag;
// one that falls behind by more than the capacity observes a gap, rejoins at the
// latest record, and must re-sync its state from counters.

package rb

import (
	"fmt"

	"aeronmd/internal/core/buf"
)

// Trailer layout of the broadcast region, appended after the data capacity.
const (
	bcTailIntentOffset = 0
	bcTailOffset       = 64
	bcLatestOffset     = 128

	// BroadcastTrailerLength is the bookkeeping space after the data region.
	BroadcastTrailerLength = 192
)

// Transmitter is the conductor-side producer. It never blocks: slow
// consumers are overrun rather than back-pressuring the driver.
type Transmitter struct {
	buf      *buf.Buffer
	capacity int32
	mask     int32
	maxMsg   int32
}

// NewTransmitter wraps a region whose length is a power-of-two data
// capacity plus BroadcastTrailerLength.
func NewTransmitter(region []byte) (*Transmitter, error) {
	capacity := int32(len(region)) - BroadcastTrailerLength
	if err := checkCapacity(capacity); err != nil {
		return nil, fmt.Errorf("broadcast buffer: %w", err)
	}
	return &Transmitter{
		buf:      buf.Wrap(region),
		capacity: capacity,
		mask:     capacity - 1,
		maxMsg:   capacity / 8,
	}, nil
}

// Capacity returns the data capacity in bytes.
func (t *Transmitter) Capacity() int32 {
	return t.capacity
}

// Transmit appends one record. The tail-intent counter is release-stored
// before the record bytes are touched so a concurrent consumer can detect
// that its current read is being overwritten.
func (t *Transmitter) Transmit(msgTypeID int32, payload []byte) error {
	recordLength := int32(HeaderLength + len(payload))
	if recordLength > t.maxMsg {
		return fmt.Errorf("broadcast record length %d exceeds max %d", recordLength, t.maxMsg)
	}

	aligned := align(recordLength)
	tailIntentOffset := t.capacity + bcTailIntentOffset
	tailOffset := t.capacity + bcTailOffset
	latestOffset := t.capacity + bcLatestOffset

	tail := t.buf.GetInt64(tailOffset)
	recordIndex := int32(tail) & t.mask
	toEnd := t.capacity - recordIndex

	if aligned > toEnd {
		// Pad to the end of the buffer and start the record at zero.
		t.buf.PutInt64Ordered(tailIntentOffset, tail+int64(toEnd)+int64(aligned))
		t.buf.PutInt32(recordIndex+typeOffset, PaddingMsgTypeID)
		t.buf.PutInt32(recordIndex+lengthOffset, toEnd)
		tail += int64(toEnd)
		recordIndex = 0
	} else {
		t.buf.PutInt64Ordered(tailIntentOffset, tail+int64(aligned))
	}

	t.buf.PutInt32(recordIndex+lengthOffset, recordLength)
	t.buf.PutInt32(recordIndex+typeOffset, msgTypeID)
	t.buf.PutBytes(recordIndex+HeaderLength, payload)

	t.buf.PutInt64(latestOffset, tail)
	t.buf.PutInt64Ordered(tailOffset, tail+int64(aligned))
	return nil
}

// Receiver is one consumer's cursor over the broadcast region. Each client
// owns its own Receiver; the transmitter knows nothing about them.
type Receiver struct {
	buf      *buf.Buffer
	capacity int32
	mask     int32
	cursor   int64
	lapped   int64
	scratch  []byte
}

// NewReceiver wraps the same region as the transmitter and starts at the
// current tail so only new records are observed.
func NewReceiver(region []byte) (*Receiver, error) {
	capacity := int32(len(region)) - BroadcastTrailerLength
	if err := checkCapacity(capacity); err != nil {
		return nil, fmt.Errorf("broadcast buffer: %w", err)
	}
	r := &Receiver{
		buf:      buf.Wrap(region),
		capacity: capacity,
		mask:     capacity - 1,
		scratch:  make([]byte, capacity),
	}
	r.cursor = r.buf.GetInt64Volatile(capacity + bcTailOffset)
	return r, nil
}

// LappedCount returns how many times this receiver has been overrun and
// forced to rejoin at the latest record.
func (r *Receiver) LappedCount() int64 {
	return r.lapped
}

// ReceiveNext delivers the next available record to handler, copying the
// payload out before validation so an overrun during the copy is detected
// rather than surfacing torn bytes. Returns false when no record is ready.
func (r *Receiver) ReceiveNext(handler func(msgTypeID int32, payload []byte)) bool {
	tailOffset := r.capacity + bcTailOffset
	tailIntentOffset := r.capacity + bcTailIntentOffset
	latestOffset := r.capacity + bcLatestOffset

	for {
		tail := r.buf.GetInt64Volatile(tailOffset)
		cursor := r.cursor

		if cursor == tail {
			return false
		}

		if tail-cursor > int64(r.capacity) {
			// Lapped while idle; rejoin at the most recent record.
			r.lapped++
			cursor = r.buf.GetInt64Volatile(latestOffset)
		}

		recordIndex := int32(cursor) & r.mask
		recordLength := r.buf.GetInt32(recordIndex + lengthOffset)
		msgTypeID := r.buf.GetInt32(recordIndex + typeOffset)

		if msgTypeID == PaddingMsgTypeID {
			r.cursor = cursor + int64(r.capacity-recordIndex)
			continue
		}

		payloadLength := recordLength - HeaderLength
		if payloadLength < 0 || payloadLength > int32(len(r.scratch)) {
			// Torn header from an in-flight overrun; rejoin and retry.
			r.lapped++
			r.cursor = r.buf.GetInt64Volatile(latestOffset)
			continue
		}
		copy(r.scratch, r.buf.Bytes(recordIndex+HeaderLength, payloadLength))

		// Validate after the copy: if the producer's intent moved past
		// this record while it was being read, the bytes are suspect.
		tailIntent := r.buf.GetInt64Volatile(tailIntentOffset)
		if tailIntent-cursor > int64(r.capacity) {
			r.lapped++
			r.cursor = r.buf.GetInt64Volatile(latestOffset)
			continue
		}

		r.cursor = cursor + int64(align(recordLength))
		handler(msgTypeID, r.scratch[:payloadLength])
		return true
	}
}
