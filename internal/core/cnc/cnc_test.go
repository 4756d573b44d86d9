// If you are AI: This file contains unit tests for the CnC file layout.

package cnc

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func testLengths() Lengths {
	return Lengths{
		ToDriver:         4096,
		ToClients:        4096,
		CountersMetadata: 8192,
		CountersValues:   2048,
		ErrorLog:         1024,
	}
}

func TestCreateAndMapExisting(t *testing.T) {
	dir := t.TempDir()
	instanceID := uuid.New()

	created, err := Create(dir, testLengths(), 1234, instanceID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer created.Close()

	// Data written by the owner is visible through a second mapping.
	created.ToDriver[0] = 0x5A

	attached, err := MapExisting(dir)
	if err != nil {
		t.Fatalf("MapExisting: %v", err)
	}
	defer attached.Close()

	if attached.StartTimestampMs != 1234 {
		t.Errorf("start timestamp = %d, want 1234", attached.StartTimestampMs)
	}
	if attached.InstanceID != instanceID {
		t.Errorf("instance id = %s, want %s", attached.InstanceID, instanceID)
	}
	if attached.Pid != int64(os.Getpid()) {
		t.Errorf("pid = %d, want %d", attached.Pid, os.Getpid())
	}
	if attached.ToDriver[0] != 0x5A {
		t.Error("sections do not share storage across mappings")
	}

	lengths := testLengths()
	for _, s := range []struct {
		name    string
		section []byte
		want    int32
	}{
		{"to-driver", attached.ToDriver, lengths.ToDriver},
		{"to-clients", attached.ToClients, lengths.ToClients},
		{"counters metadata", attached.CountersMetadata, lengths.CountersMetadata},
		{"counters values", attached.CountersValues, lengths.CountersValues},
		{"error log", attached.ErrorLog, lengths.ErrorLog},
	} {
		if int32(len(s.section)) != s.want {
			t.Errorf("%s section length = %d, want %d", s.name, len(s.section), s.want)
		}
	}
}

func TestMapExistingMissingFile(t *testing.T) {
	if _, err := MapExisting(t.TempDir()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file should report os.ErrNotExist, got %v", err)
	}
}

func TestMapExistingVersionMismatch(t *testing.T) {
	dir := t.TempDir()

	created, err := Create(dir, testLengths(), 0, uuid.New())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Corrupt the version in place.
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	created.Close()
	data[0] = 99
	if err := os.WriteFile(filepath.Join(dir, FileName), data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := MapExisting(dir); err == nil {
		t.Error("version mismatch should refuse to attach")
	}
}

func TestMapExistingUnpublishedHeader(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), make([]byte, 4096), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := MapExisting(dir); !errors.Is(err, ErrNotReady) {
		t.Errorf("unpublished header should report ErrNotReady, got %v", err)
	}
}

func TestCreateRejectsBadLengths(t *testing.T) {
	lengths := testLengths()
	lengths.ErrorLog = 1001
	if _, err := Create(t.TempDir(), lengths, 0, uuid.New()); err == nil {
		t.Error("misaligned section length should be rejected")
	}
}
