// If you are AI: This file implements the resolution frame wire codec used by
// the gossip protocol. All fields are little-endian, including the UDP port
// (the port is NOT network byte order; every field in the frame shares one
// endianness). Entries are aligned to 8 bytes within the frame.
//
// Frame header (8 bytes):
//
//	0: frame length i32
//	4: version      u8
//	5: flags        u8
//	6: type         u16 (0x0F = RES)
//
// IPv4 entry: {res_type i8, res_flags u8, udp_port u16, age_ms i32,
// addr [4]byte, name_length u16, name}; IPv6 swaps in a 16-byte address.
package resolver

import (
	"encoding/binary"
	"fmt"
)

const (
	// FrameHeaderLength is the common header before the first entry.
	FrameHeaderLength = 8

	// FrameVersion is the protocol version carried in every frame.
	FrameVersion uint8 = 1

	// HdrTypeRes marks a resolution frame.
	HdrTypeRes uint16 = 0x0F

	// ResTypeIP4 and ResTypeIP6 identify the entry address family.
	ResTypeIP4 int8 = 0x01
	ResTypeIP6 int8 = 0x02

	// FlagSelf marks an entry the sender asserts about itself.
	FlagSelf uint8 = 0x80

	ip4FixedLength = 14
	ip6FixedLength = 26

	frameLengthOffset = 0
	versionOffset     = 4
	flagsOffset       = 5
	typeOffset        = 6
)

// Entry is one name-to-address resolution in a frame.
type Entry struct {
	ResType int8
	Flags   uint8
	Port    uint16
	AgeMs   int32
	Addr    []byte
	Name    string
}

// IsSelf reports whether the sender asserted this entry about itself.
func (e *Entry) IsSelf() bool {
	return e.Flags&FlagSelf == FlagSelf
}

// addressLength returns the address width for a res type, or -1.
func addressLength(resType int8) int {
	switch resType {
	case ResTypeIP4:
		return 4
	case ResTypeIP6:
		return 16
	default:
		return -1
	}
}

// entryLength returns the aligned on-wire length of an entry.
func entryLength(resType int8, nameLength int) int {
	fixed := ip4FixedLength
	if resType == ResTypeIP6 {
		fixed = ip6FixedLength
	}
	return (fixed + nameLength + 7) &^ 7
}

// BeginFrame writes the common header into b and returns the offset of the
// first entry. The frame length field is filled in by FinishFrame.
func BeginFrame(b []byte) int {
	b[versionOffset] = FrameVersion
	b[flagsOffset] = 0
	binary.LittleEndian.PutUint16(b[typeOffset:], HdrTypeRes)
	return FrameHeaderLength
}

// FinishFrame stamps the total frame length and returns it.
func FinishFrame(b []byte, offset int) int {
	binary.LittleEndian.PutUint32(b[frameLengthOffset:], uint32(offset))
	return offset
}

// AppendEntry writes one entry at offset and returns the next offset, or 0
// when the entry does not fit in the remaining capacity.
func AppendEntry(b []byte, offset int, e Entry) (int, error) {
	addrLen := addressLength(e.ResType)
	if addrLen < 0 {
		return 0, fmt.Errorf("invalid res type %d", e.ResType)
	}
	if len(e.Addr) != addrLen {
		return 0, fmt.Errorf("res type %d requires a %d-byte address, got %d", e.ResType, addrLen, len(e.Addr))
	}

	length := entryLength(e.ResType, len(e.Name))
	if offset+length > len(b) {
		return 0, nil
	}

	b[offset] = byte(e.ResType)
	b[offset+1] = e.Flags
	binary.LittleEndian.PutUint16(b[offset+2:], e.Port)
	binary.LittleEndian.PutUint32(b[offset+4:], uint32(e.AgeMs))
	copy(b[offset+8:], e.Addr)

	nameOffset := offset + 8 + addrLen
	binary.LittleEndian.PutUint16(b[nameOffset:], uint16(len(e.Name)))
	copied := copy(b[nameOffset+2:], e.Name)
	// Zero the alignment tail so frames are reproducible byte for byte.
	clear(b[nameOffset+2+copied : offset+length])

	return offset + length, nil
}

// ParseFrame validates the header and decodes every entry in a datagram.
// A frame whose reported length exceeds the datagram, or that carries an
// unknown res type, is rejected whole.
func ParseFrame(b []byte) ([]Entry, error) {
	if len(b) < FrameHeaderLength {
		return nil, fmt.Errorf("datagram shorter than frame header: %d bytes", len(b))
	}
	if b[versionOffset] != FrameVersion {
		return nil, fmt.Errorf("unsupported frame version %d", b[versionOffset])
	}
	if binary.LittleEndian.Uint16(b[typeOffset:]) != HdrTypeRes {
		return nil, fmt.Errorf("not a resolution frame: type 0x%x", binary.LittleEndian.Uint16(b[typeOffset:]))
	}

	frameLength := int(int32(binary.LittleEndian.Uint32(b[frameLengthOffset:])))
	if frameLength < FrameHeaderLength || frameLength > len(b) {
		return nil, fmt.Errorf("frame length %d exceeds datagram of %d bytes", frameLength, len(b))
	}

	var entries []Entry
	offset := FrameHeaderLength

	for offset < frameLength {
		if offset+8 > frameLength {
			return nil, fmt.Errorf("truncated entry header at offset %d", offset)
		}

		resType := int8(b[offset])
		addrLen := addressLength(resType)
		if addrLen < 0 {
			return nil, fmt.Errorf("invalid res type %d at offset %d", resType, offset)
		}

		nameOffset := offset + 8 + addrLen
		if nameOffset+2 > frameLength {
			return nil, fmt.Errorf("truncated entry address at offset %d", offset)
		}

		nameLength := int(binary.LittleEndian.Uint16(b[nameOffset:]))
		length := entryLength(resType, nameLength)
		if offset+length > frameLength {
			return nil, fmt.Errorf("entry at offset %d overruns frame", offset)
		}

		addr := make([]byte, addrLen)
		copy(addr, b[offset+8:])

		entries = append(entries, Entry{
			ResType: resType,
			Flags:   b[offset+1],
			Port:    binary.LittleEndian.Uint16(b[offset+2:]),
			AgeMs:   int32(binary.LittleEndian.Uint32(b[offset+4:])),
			Addr:    addr,
			Name:    string(b[nameOffset+2 : nameOffset+2+nameLength]),
		})

		offset += length
	}

	return entries, nil
}
