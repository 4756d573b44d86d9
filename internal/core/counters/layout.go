// If you are AI: This file pins the byte layout of the counters store.
// Both regions are wire formats read by foreign processes; every offset here is
// part of the CnC contract and must not be derived from Go struct layout.

package counters

import "math"

// Values region: 128-byte slots, 4-byte packed.
//
//	0: counter value        i64
//	8: registration id      i64
//	16: padding             112 bytes
const (
	CounterLength        = 128
	RegistrationIDOffset = 8
)

// Metadata region: 512-byte slots.
//
//	0:   record state        i32
//	4:   type id             i32
//	8:   free-for-reuse (ms) i64
//	16:  key                 112 bytes
//	128: label length        i32
//	132: label               380 bytes
const (
	MetadataLength             = 512
	TypeIDOffset               = 4
	FreeForReuseDeadlineOffset = 8
	KeyOffset                  = 16
	LabelLengthOffset          = 128
	LabelOffset                = 132

	MaxKeyLength   = 112
	MaxLabelLength = 380
)

// Record states. A slot cycles UNUSED -> ALLOCATED -> RECLAIMED -> ALLOCATED,
// and the reuse deadline must have passed before a RECLAIMED slot is taken.
const (
	RecordUnused    int32 = 0
	RecordAllocated int32 = 1
	RecordReclaimed int32 = -1
)

// NullCounterID is the sentinel for "no counter".
const NullCounterID int32 = -1

// NotFreeToReuse marks an allocated slot's deadline as unreachable.
const NotFreeToReuse int64 = math.MaxInt64
