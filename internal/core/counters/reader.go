// If you are AI: This file implements the read side of the counters store.
// Any process with a read-only view of the two regions can use it.

package counters

import (
	"aeronmd/internal/core/buf"
)

// Reader enumerates and reads counters over the metadata and values regions.
type Reader struct {
	meta   *buf.Buffer
	values *buf.Buffer
	max    int32
}

// NewReader wraps the two regions. The usable capacity is the smaller of
// what either region can address.
func NewReader(metadata, values []byte) *Reader {
	maxByMeta := int32(len(metadata) / MetadataLength)
	maxByValues := int32(len(values) / CounterLength)
	max := maxByMeta
	if maxByValues < max {
		max = maxByValues
	}
	return &Reader{meta: buf.Wrap(metadata), values: buf.Wrap(values), max: max}
}

// MaxCounterID returns the highest addressable counter id.
func (r *Reader) MaxCounterID() int32 {
	return r.max - 1
}

// GetValue reads a counter value with acquire ordering.
func (r *Reader) GetValue(id int32) int64 {
	return r.values.GetInt64Volatile(id * CounterLength)
}

// GetRegistrationID reads the registration id recorded with the counter.
func (r *Reader) GetRegistrationID(id int32) int64 {
	return r.values.GetInt64Volatile(id*CounterLength + RegistrationIDOffset)
}

// State reads a slot's record state with acquire ordering.
func (r *Reader) State(id int32) int32 {
	return r.meta.GetInt32Volatile(id * MetadataLength)
}

// TypeID reads a slot's type id.
func (r *Reader) TypeID(id int32) int32 {
	return r.meta.GetInt32(id*MetadataLength + TypeIDOffset)
}

// FreeForReuseDeadlineMs reads the reclaim deadline of a slot.
func (r *Reader) FreeForReuseDeadlineMs(id int32) int64 {
	return r.meta.GetInt64(id*MetadataLength + FreeForReuseDeadlineOffset)
}

// Label reads a slot's label.
func (r *Reader) Label(id int32) string {
	offset := id * MetadataLength
	length := r.meta.GetInt32(offset + LabelLengthOffset)
	if length <= 0 {
		return ""
	}
	if length > MaxLabelLength {
		length = MaxLabelLength
	}
	return string(r.meta.Bytes(offset+LabelOffset, length))
}

// Key copies a slot's key blob.
func (r *Reader) Key(id int32) []byte {
	return r.meta.GetBytes(id*MetadataLength+KeyOffset, MaxKeyLength)
}

// ForEach visits slots in ascending id order, stopping at the first UNUSED
// slot. ALLOCATED slots are delivered to the handler; RECLAIMED slots are
// skipped but iteration continues.
func (r *Reader) ForEach(handler func(id, typeID int32, key []byte, label string, value int64)) {
	for id := int32(0); id < r.max; id++ {
		state := r.State(id)
		if state == RecordUnused {
			break
		}
		if state != RecordAllocated {
			continue
		}
		handler(id, r.TypeID(id), r.Key(id), r.Label(id), r.GetValue(id))
	}
}
