// If you are AI: This file implements the CnC ("command and control") file: the
// memory-mapped rendezvous region between the driver and its clients. The header
// is published by a release-store of the version field after everything else is
// in place, so attaching processes never observe a half-written layout.

package cnc

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"aeronmd/internal/core/buf"
	"aeronmd/internal/core/errcode"
)

// Version of the CnC layout. A mismatch refuses to attach.
const Version int32 = 1

// ErrNotReady reports a CnC file whose header has not been published yet;
// attaching processes retry until their own deadline.
var ErrNotReady = errors.New("cnc header not yet published")

// FileName is the rendezvous file inside the driver directory.
const FileName = "cnc.dat"

// Header layout. Sections follow the header in declaration order, each
// 8-byte aligned (section lengths are validated to be multiples of 8).
//
//	0:  version                   i32 (published last)
//	4:  to-driver length          i32
//	8:  to-clients length         i32
//	12: counters metadata length  i32
//	16: counters values length    i32
//	20: error log length          i32
//	24: start timestamp (ms)      i64
//	32: pid                       i64
//	40: driver instance id        16 bytes (uuid)
//	56: reserved                  8 bytes
const (
	versionOffset        = 0
	toDriverLenOffset    = 4
	toClientsLenOffset   = 8
	metadataLenOffset    = 12
	valuesLenOffset      = 16
	errorLogLenOffset    = 20
	startTimestampOffset = 24
	pidOffset            = 32
	instanceIDOffset     = 40

	// HeaderLength is the fixed header size before the first section.
	HeaderLength = 64
)

// Lengths sizes the five sections carved out after the header.
type Lengths struct {
	ToDriver         int32
	ToClients        int32
	CountersMetadata int32
	CountersValues   int32
	ErrorLog         int32
}

// total returns the full file size for these section lengths.
func (l Lengths) total() int {
	return HeaderLength + int(l.ToDriver) + int(l.ToClients) +
		int(l.CountersMetadata) + int(l.CountersValues) + int(l.ErrorLog)
}

// validate rejects section lengths the layout cannot carry.
func (l Lengths) validate() error {
	for _, v := range []struct {
		name   string
		length int32
	}{
		{"to-driver", l.ToDriver},
		{"to-clients", l.ToClients},
		{"counters metadata", l.CountersMetadata},
		{"counters values", l.CountersValues},
		{"error log", l.ErrorLog},
	} {
		if v.length <= 0 || v.length%8 != 0 {
			return fmt.Errorf("%s section length must be a positive multiple of 8, got %d", v.name, v.length)
		}
	}
	return nil
}

// Layout is a mapped CnC file with its sections carved out.
type Layout struct {
	file *os.File
	data []byte

	StartTimestampMs int64
	Pid              int64
	InstanceID       uuid.UUID

	ToDriver         []byte
	ToClients        []byte
	CountersMetadata []byte
	CountersValues   []byte
	ErrorLog         []byte
}

// Create makes a fresh CnC file under dir, maps it, writes the header, and
// publishes the version. An existing file is truncated: the driver owns
// the directory.
func Create(dir string, lengths Lengths, startTimestampMs int64, instanceID uuid.UUID) (*Layout, error) {
	if err := lengths.validate(); err != nil {
		return nil, fmt.Errorf("cnc create: %w", err)
	}

	path := filepath.Join(dir, FileName)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("cnc create %s: %w", path, err)
	}

	size := lengths.total()
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		return nil, fmt.Errorf("cnc size %s: %w", path, err)
	}

	data, err := mapFile(f, size)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("cnc map %s: %w", path, err)
	}

	b := buf.Wrap(data)
	b.PutInt32(toDriverLenOffset, lengths.ToDriver)
	b.PutInt32(toClientsLenOffset, lengths.ToClients)
	b.PutInt32(metadataLenOffset, lengths.CountersMetadata)
	b.PutInt32(valuesLenOffset, lengths.CountersValues)
	b.PutInt32(errorLogLenOffset, lengths.ErrorLog)
	b.PutInt64(startTimestampOffset, startTimestampMs)
	b.PutInt64(pidOffset, int64(os.Getpid()))
	b.PutBytes(instanceIDOffset, instanceID[:])
	b.PutInt32Ordered(versionOffset, Version)

	l := &Layout{file: f, data: data}
	l.carve(b, lengths)
	return l, nil
}

// MapExisting attaches read-write to a CnC file created by a running
// driver. Returns ProtocolViolation when the version does not match and
// os.ErrNotExist when no file is present yet.
func MapExisting(dir string) (*Layout, error) {
	path := filepath.Join(dir, FileName)
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("cnc stat %s: %w", path, err)
	}
	if info.Size() < HeaderLength {
		f.Close()
		return nil, errcode.New(errcode.ProtocolViolation, "cnc file %s too short: %d bytes", path, info.Size())
	}

	data, err := mapFile(f, int(info.Size()))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("cnc map %s: %w", path, err)
	}

	b := buf.Wrap(data)
	version := b.GetInt32Volatile(versionOffset)
	if version == 0 {
		unmapFile(data)
		f.Close()
		return nil, ErrNotReady
	}
	if version != Version {
		unmapFile(data)
		f.Close()
		return nil, errcode.New(errcode.ProtocolViolation, "cnc version mismatch: file %d, expected %d", version, Version)
	}

	lengths := Lengths{
		ToDriver:         b.GetInt32(toDriverLenOffset),
		ToClients:        b.GetInt32(toClientsLenOffset),
		CountersMetadata: b.GetInt32(metadataLenOffset),
		CountersValues:   b.GetInt32(valuesLenOffset),
		ErrorLog:         b.GetInt32(errorLogLenOffset),
	}
	if err := lengths.validate(); err != nil {
		unmapFile(data)
		f.Close()
		return nil, errcode.New(errcode.ProtocolViolation, "cnc header corrupt: %v", err)
	}
	if lengths.total() > len(data) {
		unmapFile(data)
		f.Close()
		return nil, errcode.New(errcode.ProtocolViolation, "cnc sections exceed file size")
	}

	l := &Layout{file: f, data: data}
	l.carve(b, lengths)
	return l, nil
}

// carve slices the mapped region into sections and loads header fields.
func (l *Layout) carve(b *buf.Buffer, lengths Lengths) {
	l.StartTimestampMs = b.GetInt64(startTimestampOffset)
	l.Pid = b.GetInt64(pidOffset)
	copy(l.InstanceID[:], l.data[instanceIDOffset:instanceIDOffset+16])

	offset := int32(HeaderLength)
	next := func(length int32) []byte {
		s := l.data[offset : offset+length]
		offset += length
		return s
	}
	l.ToDriver = next(lengths.ToDriver)
	l.ToClients = next(lengths.ToClients)
	l.CountersMetadata = next(lengths.CountersMetadata)
	l.CountersValues = next(lengths.CountersValues)
	l.ErrorLog = next(lengths.ErrorLog)
}

// Close unmaps the region and closes the file.
func (l *Layout) Close() error {
	if l.data != nil {
		if err := unmapFile(l.data); err != nil {
			return fmt.Errorf("cnc unmap: %w", err)
		}
		l.data = nil
	}
	if l.file != nil {
		if err := l.file.Close(); err != nil {
			return fmt.Errorf("cnc close: %w", err)
		}
		l.file = nil
	}
	return nil
}
