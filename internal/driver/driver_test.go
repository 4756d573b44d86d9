// If you are AI: This file contains an integration test driving a full driver
// through its shared-memory control plane, the way an attached client would.

package driver

import (
	"testing"
	"time"

	"aeronmd/internal/config"
	"aeronmd/internal/core/cnc"
	"aeronmd/internal/core/command"
	"aeronmd/internal/core/rb"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Dir = t.TempDir()
	cfg.Cnc.CounterSlots = 128
	cfg.Cnc.LogBufferLength = 4096
	cfg.Resolver.Enabled = false
	cfg.Monitor.Enabled = false
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

func TestDriverServesAttachedClient(t *testing.T) {
	d, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	d.Start()
	defer func() {
		if err := d.Shutdown(); err != nil {
			t.Errorf("Shutdown: %v", err)
		}
	}()

	// Attach the way a client library would: map the CnC file and wrap
	// the rings.
	layout, err := cnc.MapExisting(d.cfg.Dir)
	if err != nil {
		t.Fatalf("MapExisting: %v", err)
	}
	defer layout.Close()

	toDriver, err := rb.NewManyToOne(layout.ToDriver)
	if err != nil {
		t.Fatalf("command ring: %v", err)
	}
	rx, err := rb.NewReceiver(layout.ToClients)
	if err != nil {
		t.Fatalf("receiver: %v", err)
	}

	clientID := toDriver.NextCorrelationID()
	subID := toDriver.NextCorrelationID()
	pubID := toDriver.NextCorrelationID()

	if !toDriver.Write(command.AddSubscriptionTypeID, (&command.SubscriptionMessage{
		ClientID:        clientID,
		CorrelationID:   subID,
		StreamID:        10,
		SessionIDFilter: -1,
		Channel:         "aeron:ipc",
	}).Encode()) {
		t.Fatal("write subscription command")
	}
	if !toDriver.Write(command.AddPublicationTypeID, (&command.PublicationMessage{
		ClientID:      clientID,
		CorrelationID: pubID,
		StreamID:      10,
		Channel:       "aeron:ipc",
	}).Encode()) {
		t.Fatal("write publication command")
	}

	var types []int32
	deadline := time.Now().Add(2 * time.Second)
	for len(types) < 3 && time.Now().Before(deadline) {
		if !rx.ReceiveNext(func(msgTypeID int32, _ []byte) {
			types = append(types, msgTypeID)
		}) {
			time.Sleep(time.Millisecond)
		}
	}

	want := []int32{
		command.OnSubscriptionReadyTypeID,
		command.OnPublicationReadyTypeID,
		command.OnAvailableImageTypeID,
	}
	if len(types) != 3 {
		t.Fatalf("received %d broadcasts, want 3", len(types))
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("broadcast %d = 0x%x, want 0x%x", i, types[i], want[i])
		}
	}
}
