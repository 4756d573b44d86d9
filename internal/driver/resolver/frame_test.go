// If you are AI: This file contains unit tests for the resolution frame codec.

package resolver

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestEntryRoundTripIP4(t *testing.T) {
	buf := make([]byte, 512)
	offset := BeginFrame(buf)

	in := Entry{
		ResType: ResTypeIP4,
		Flags:   FlagSelf,
		Port:    8050,
		AgeMs:   250,
		Addr:    []byte{192, 168, 0, 1},
		Name:    "driver-a",
	}
	offset, err := AppendEntry(buf, offset, in)
	if err != nil || offset == 0 {
		t.Fatalf("AppendEntry: offset %d, err %v", offset, err)
	}
	length := FinishFrame(buf, offset)

	entries, err := ParseFrame(buf[:length])
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("parsed %d entries, want 1", len(entries))
	}

	out := entries[0]
	if out.ResType != in.ResType || out.Flags != in.Flags || out.Port != in.Port ||
		out.AgeMs != in.AgeMs || !bytes.Equal(out.Addr, in.Addr) || out.Name != in.Name {
		t.Errorf("round trip: got %+v, want %+v", out, in)
	}
	if !out.IsSelf() {
		t.Error("SELF flag lost in round trip")
	}
}

func TestEntryRoundTripIP6(t *testing.T) {
	buf := make([]byte, 512)
	offset := BeginFrame(buf)

	addr := make([]byte, 16)
	addr[15] = 1
	in := Entry{ResType: ResTypeIP6, Port: 9000, Addr: addr, Name: "driver-b"}

	offset, err := AppendEntry(buf, offset, in)
	if err != nil || offset == 0 {
		t.Fatalf("AppendEntry: offset %d, err %v", offset, err)
	}
	length := FinishFrame(buf, offset)

	entries, err := ParseFrame(buf[:length])
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	out := entries[0]
	if out.ResType != ResTypeIP6 || !bytes.Equal(out.Addr, addr) || out.Name != "driver-b" {
		t.Errorf("round trip: got %+v", out)
	}
	if out.IsSelf() {
		t.Error("entry without SELF flag decoded as self")
	}
}

func TestEntriesAreEightByteAligned(t *testing.T) {
	buf := make([]byte, 512)
	offset := BeginFrame(buf)

	for _, name := range []string{"a", "abc", "abcdefgh"} {
		next, err := AppendEntry(buf, offset, Entry{
			ResType: ResTypeIP4,
			Port:    1,
			Addr:    []byte{1, 2, 3, 4},
			Name:    name,
		})
		if err != nil || next == 0 {
			t.Fatalf("AppendEntry %q: offset %d, err %v", name, next, err)
		}
		if next%8 != 0 {
			t.Errorf("entry %q ends at offset %d, not 8-byte aligned", name, next)
		}
		offset = next
	}
	length := FinishFrame(buf, offset)

	entries, err := ParseFrame(buf[:length])
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("parsed %d entries, want 3", len(entries))
	}
}

func TestAppendEntryReportsNoFit(t *testing.T) {
	buf := make([]byte, FrameHeaderLength+8)
	offset := BeginFrame(buf)

	next, err := AppendEntry(buf, offset, Entry{
		ResType: ResTypeIP4,
		Port:    1,
		Addr:    []byte{1, 2, 3, 4},
		Name:    "too-long-to-fit",
	})
	if err != nil {
		t.Fatalf("AppendEntry: %v", err)
	}
	if next != 0 {
		t.Errorf("AppendEntry returned offset %d, want 0 for no fit", next)
	}
}

func TestParseFrameRejectsBadFrames(t *testing.T) {
	good := make([]byte, 512)
	offset := BeginFrame(good)
	offset, err := AppendEntry(good, offset, Entry{
		ResType: ResTypeIP4,
		Port:    1,
		Addr:    []byte{1, 2, 3, 4},
		Name:    "x",
	})
	if err != nil {
		t.Fatalf("AppendEntry: %v", err)
	}
	length := FinishFrame(good, offset)

	// Too short for the header.
	if _, err := ParseFrame(good[:4]); err == nil {
		t.Error("short datagram should be rejected")
	}

	// Reported length exceeding the datagram.
	if _, err := ParseFrame(good[:length-4]); err == nil {
		t.Error("frame longer than datagram should be rejected")
	}

	// Wrong version.
	bad := append([]byte(nil), good[:length]...)
	bad[4] = 9
	if _, err := ParseFrame(bad); err == nil {
		t.Error("unsupported version should be rejected")
	}

	// Invalid res type.
	bad = append([]byte(nil), good[:length]...)
	bad[FrameHeaderLength] = 7
	if _, err := ParseFrame(bad); err == nil {
		t.Error("invalid res type should be rejected")
	}

	// Entry name overrunning the frame.
	bad = append([]byte(nil), good[:length]...)
	binary.LittleEndian.PutUint16(bad[FrameHeaderLength+12:], 4000)
	if _, err := ParseFrame(bad); err == nil {
		t.Error("entry overrunning the frame should be rejected")
	}
}
