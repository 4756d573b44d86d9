// If you are AI: This file implements the distinct error log section of the CnC
// file. The conductor is the single writer; repeated observations of the same
// error mutate the existing record in place instead of appending a duplicate.
// Record layout: a fixed mutable header followed by an immutable msgpack body.
//
//	0:  total length (aligned)  i32 (published last; 0 terminates the log)
//	4:  observation count       i32
//	8:  first observation (ms)  i64
//	16: last observation (ms)   i64
//	24: body length             i32
//	28: reserved                i32
//	32: msgpack body {code, description}
package errorlog

import (
	"log"

	"github.com/vmihailenco/msgpack/v5"

	"aeronmd/internal/core/buf"
	"aeronmd/internal/core/clock"
	"aeronmd/internal/core/errcode"
)

const (
	countOffset   = 4
	firstMsOffset = 8
	lastMsOffset  = 16
	bodyLenOffset = 24
	bodyOffset    = 32
)

// Observation is the immutable part of a record.
type Observation struct {
	Code        int32  `msgpack:"code"`
	Description string `msgpack:"description"`
}

// Log is the writer over the error log region.
type Log struct {
	buf        *buf.Buffer
	clk        clock.Clock
	nextOffset int32
	offsets    map[distinctKey]int32
}

type distinctKey struct {
	code errcode.Code
	desc string
}

// NewLog wraps a zeroed region for writing.
func NewLog(region []byte, clk clock.Clock) *Log {
	return &Log{
		buf:     buf.Wrap(region),
		clk:     clk,
		offsets: make(map[distinctKey]int32),
	}
}

// Record notes one observation of an error. A previously seen
// (code, description) pair bumps its count and last-seen timestamp; a new
// pair appends a record. When the region is full the observation is
// dropped and logged, never fatal.
func (l *Log) Record(code errcode.Code, description string) {
	nowMs := l.clk.EpochMs()
	key := distinctKey{code: code, desc: description}

	if offset, ok := l.offsets[key]; ok {
		l.buf.PutInt32Ordered(offset+countOffset, l.buf.GetInt32(offset+countOffset)+1)
		l.buf.PutInt64Ordered(offset+lastMsOffset, nowMs)
		return
	}

	body, err := msgpack.Marshal(Observation{Code: int32(code), Description: description})
	if err != nil {
		log.Printf("error log: encode observation: %v", err)
		return
	}

	totalLength := int32(bodyOffset+len(body)+7) &^ 7
	// Keep one zero word after the last record as the terminator.
	if l.nextOffset+totalLength+4 > l.buf.Capacity() {
		log.Printf("error log full, dropping: %s: %s", code, description)
		return
	}

	offset := l.nextOffset
	l.buf.PutInt32(offset+countOffset, 1)
	l.buf.PutInt64(offset+firstMsOffset, nowMs)
	l.buf.PutInt64(offset+lastMsOffset, nowMs)
	l.buf.PutInt32(offset+bodyLenOffset, int32(len(body)))
	l.buf.PutBytes(offset+bodyOffset, body)
	l.buf.PutInt32Ordered(offset, totalLength)

	l.offsets[key] = offset
	l.nextOffset += totalLength
}

// Read enumerates the distinct observations in a log region, in first-seen
// order, and returns how many were delivered. Any attached process can
// call it over a read-only view.
func Read(region []byte, handler func(count int32, firstMs, lastMs int64, code int32, description string)) int {
	b := buf.Wrap(region)
	capacity := b.Capacity()
	delivered := 0

	for offset := int32(0); offset+bodyOffset <= capacity; {
		totalLength := b.GetInt32Volatile(offset)
		if totalLength <= 0 {
			break
		}

		bodyLength := b.GetInt32(offset + bodyLenOffset)
		if bodyLength < 0 || offset+bodyOffset+bodyLength > capacity {
			break
		}

		var obs Observation
		if err := msgpack.Unmarshal(b.Bytes(offset+bodyOffset, bodyLength), &obs); err == nil {
			handler(
				b.GetInt32Volatile(offset+countOffset),
				b.GetInt64(offset+firstMsOffset),
				b.GetInt64Volatile(offset+lastMsOffset),
				obs.Code,
				obs.Description)
			delivered++
		}

		offset += totalLength
	}

	return delivered
}
