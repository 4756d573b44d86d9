// If you are AI: This file implements the atomic buffer over a flat byte region.
// Every shared-memory structure (rings, counters, CnC header) is addressed through
// it so the byte layout stays observable by other attached processes.
// CRITICAL: All multi-byte fields are little-endian. Atomic accessors operate on
// naturally aligned offsets only; layouts in this repo guarantee that alignment.

package buf

import (
	"encoding/binary"
	"sync/atomic"
	"unsafe"
)

// Buffer wraps a byte region and provides plain and atomic accessors.
// Plain accessors go through encoding/binary; atomic accessors reinterpret
// the underlying bytes, which agrees with the plain form on little-endian
// hosts (the only hosts the shared-memory layouts target).
type Buffer struct {
	data []byte
}

// Wrap creates a Buffer over the given region without copying.
func Wrap(data []byte) *Buffer {
	return &Buffer{data: data}
}

// Capacity returns the region length in bytes.
func (b *Buffer) Capacity() int32 {
	return int32(len(b.data))
}

// Bytes returns the sub-slice [offset, offset+length) of the region.
// The slice aliases the region; callers copy if they retain it.
func (b *Buffer) Bytes(offset, length int32) []byte {
	return b.data[offset : offset+length]
}

// GetInt32 reads a little-endian int32 without ordering guarantees.
func (b *Buffer) GetInt32(offset int32) int32 {
	return int32(binary.LittleEndian.Uint32(b.data[offset:]))
}

// PutInt32 writes a little-endian int32 without ordering guarantees.
func (b *Buffer) PutInt32(offset, value int32) {
	binary.LittleEndian.PutUint32(b.data[offset:], uint32(value))
}

// GetInt32Volatile reads an int32 with acquire ordering.
func (b *Buffer) GetInt32Volatile(offset int32) int32 {
	return atomic.LoadInt32(b.int32At(offset))
}

// PutInt32Ordered writes an int32 with release ordering.
func (b *Buffer) PutInt32Ordered(offset, value int32) {
	atomic.StoreInt32(b.int32At(offset), value)
}

// GetInt64 reads a little-endian int64 without ordering guarantees.
func (b *Buffer) GetInt64(offset int32) int64 {
	return int64(binary.LittleEndian.Uint64(b.data[offset:]))
}

// PutInt64 writes a little-endian int64 without ordering guarantees.
func (b *Buffer) PutInt64(offset int32, value int64) {
	binary.LittleEndian.PutUint64(b.data[offset:], uint64(value))
}

// GetInt64Volatile reads an int64 with acquire ordering.
func (b *Buffer) GetInt64Volatile(offset int32) int64 {
	return atomic.LoadInt64(b.int64At(offset))
}

// PutInt64Ordered writes an int64 with release ordering.
func (b *Buffer) PutInt64Ordered(offset int32, value int64) {
	atomic.StoreInt64(b.int64At(offset), value)
}

// AddInt64 atomically adds delta and returns the new value.
func (b *Buffer) AddInt64(offset int32, delta int64) int64 {
	return atomic.AddInt64(b.int64At(offset), delta)
}

// CompareAndSetInt64 atomically swaps expected for updated.
func (b *Buffer) CompareAndSetInt64(offset int32, expected, updated int64) bool {
	return atomic.CompareAndSwapInt64(b.int64At(offset), expected, updated)
}

// PutBytes copies src into the region at offset.
func (b *Buffer) PutBytes(offset int32, src []byte) {
	copy(b.data[offset:], src)
}

// GetBytes copies length bytes at offset into a fresh slice.
func (b *Buffer) GetBytes(offset, length int32) []byte {
	out := make([]byte, length)
	copy(out, b.data[offset:offset+int32(length)])
	return out
}

// SetMemory zeroes length bytes starting at offset.
func (b *Buffer) SetMemory(offset, length int32) {
	clear(b.data[offset : offset+length])
}

// int32At returns a pointer suitable for sync/atomic int32 operations.
func (b *Buffer) int32At(offset int32) *int32 {
	return (*int32)(unsafe.Pointer(&b.data[offset]))
}

// int64At returns a pointer suitable for sync/atomic int64 operations.
func (b *Buffer) int64At(offset int32) *int64 {
	return (*int64)(unsafe.Pointer(&b.data[offset]))
}
