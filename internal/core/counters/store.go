// If you are AI: This file implements the owning side of the counters store.
// The driver is the sole writer; release-store on the state field publishes
// a slot's payload to concurrent readers.

package counters

import (
	"aeronmd/internal/core/clock"
	"aeronmd/internal/core/errcode"
)

// Store allocates and mutates counters. Only the driver process holds one;
// clients attach a Reader over the same regions.
type Store struct {
	Reader
	clk           clock.Clock
	reuseWindowMs int64
}

// NewStore wraps the two regions for writing. reuseWindowMs is how long a
// freed slot rests before it may be reallocated.
func NewStore(metadata, values []byte, clk clock.Clock, reuseWindowMs int64) *Store {
	return &Store{Reader: *NewReader(metadata, values), clk: clk, reuseWindowMs: reuseWindowMs}
}

// Allocate claims the first reusable slot, writes its metadata, and
// publishes it with a release-store of the ALLOCATED state. Returns
// CapacityExceeded when every slot is in use or still resting.
func (s *Store) Allocate(typeID int32, key []byte, label string) (int32, error) {
	nowMs := s.clk.EpochMs()

	for id := int32(0); id < s.max; id++ {
		offset := id * MetadataLength
		state := s.meta.GetInt32Volatile(offset)

		if state == RecordAllocated {
			continue
		}
		if state == RecordReclaimed && s.meta.GetInt64(offset+FreeForReuseDeadlineOffset) > nowMs {
			continue
		}

		s.writeRecord(id, typeID, key, label)
		return id, nil
	}

	return NullCounterID, errcode.New(errcode.CapacityExceeded, "unable to allocate counter %q: all %d slots in use", label, s.max)
}

// writeRecord fills a slot's metadata and value, then publishes the state.
func (s *Store) writeRecord(id, typeID int32, key []byte, label string) {
	offset := id * MetadataLength
	s.meta.SetMemory(offset+TypeIDOffset, MetadataLength-TypeIDOffset)
	s.meta.PutInt32(offset+TypeIDOffset, typeID)
	s.meta.PutInt64(offset+FreeForReuseDeadlineOffset, NotFreeToReuse)

	if len(key) > MaxKeyLength {
		key = key[:MaxKeyLength]
	}
	s.meta.PutBytes(offset+KeyOffset, key)

	labelBytes := []byte(label)
	if len(labelBytes) > MaxLabelLength {
		labelBytes = labelBytes[:MaxLabelLength]
	}
	s.meta.PutBytes(offset+LabelOffset, labelBytes)
	s.meta.PutInt32(offset+LabelLengthOffset, int32(len(labelBytes)))

	valueOffset := id * CounterLength
	s.values.SetMemory(valueOffset, CounterLength)

	s.meta.PutInt32Ordered(offset, RecordAllocated)
}

// Free reclaims a slot and starts its rest window. The id may be handed
// out again once the deadline has passed.
func (s *Store) Free(id int32) {
	offset := id * MetadataLength
	s.meta.PutInt64(offset+FreeForReuseDeadlineOffset, s.clk.EpochMs()+s.reuseWindowMs)
	s.meta.PutInt32Ordered(offset, RecordReclaimed)
}

// SetValue writes a counter value with release ordering.
func (s *Store) SetValue(id int32, value int64) {
	s.values.PutInt64Ordered(id*CounterLength, value)
}

// AddValue atomically adds delta to a counter and returns the new value.
func (s *Store) AddValue(id int32, delta int64) int64 {
	return s.values.AddInt64(id*CounterLength, delta)
}

// Increment bumps a counter by one.
func (s *Store) Increment(id int32) int64 {
	return s.AddValue(id, 1)
}

// SetRegistrationID records the owning entity's registration id beside
// the value.
func (s *Store) SetRegistrationID(id int32, registrationID int64) {
	s.values.PutInt64Ordered(id*CounterLength+RegistrationIDOffset, registrationID)
}
