// If you are AI: This file contains unit tests for publication linger,
// client timeout cascades, and error broadcasting.

package conductor

import (
	"testing"
	"time"

	"aeronmd/internal/core/command"
)

func TestPublicationLingersThenReportsUnavailableImage(t *testing.T) {
	h := newHarness(t)

	h.addIpcPublication(1, 200, streamID1, false)
	h.addIpcSubscription(1, 100, streamID1)
	h.cond.DoWork()
	h.removePublication(1, 300, 200)
	h.cond.DoWork()

	if n := len(h.readBroadcasts()); n != 3 {
		t.Fatalf("readiness records = %d, want 3", n)
	}

	// Keepalive through twice the linger window; only the publication
	// should expire.
	for elapsed := time.Duration(0); elapsed < 2*lingerTimeout; elapsed += 100 * time.Millisecond {
		h.clk.Advance(100 * time.Millisecond)
		h.keepalive(1)
		h.cond.DoWork()
	}

	if h.cond.NumClients() != 1 {
		t.Errorf("client count = %d, want 1", h.cond.NumClients())
	}
	if h.cond.NumPublications() != 0 {
		t.Errorf("publication count = %d, want 0", h.cond.NumPublications())
	}

	records := h.readBroadcasts()
	h.expectTypes(records, command.OnUnavailableImageTypeID)

	unavailable, err := command.DecodeUnavailableImage(records[0].payload)
	if err != nil {
		t.Fatalf("decode unavailable image: %v", err)
	}
	if unavailable.CorrelationID != 200 || unavailable.SubscriptionRegistrationID != 100 {
		t.Errorf("unavailable ids = %d/%d, want 200/100", unavailable.CorrelationID, unavailable.SubscriptionRegistrationID)
	}
	if unavailable.StreamID != streamID1 || unavailable.Channel != "aeron:ipc" {
		t.Errorf("unavailable stream/channel = %d/%q", unavailable.StreamID, unavailable.Channel)
	}

	if len(h.logs.destroyed) != 1 {
		t.Errorf("destroyed %d log buffers, want 1", len(h.logs.destroyed))
	}
}

func TestClientTimeoutCascades(t *testing.T) {
	h := newHarness(t)

	h.addIpcSubscription(1, 100, streamID1)
	h.addIpcSubscription(1, 101, streamID2)
	h.addIpcPublication(1, 200, streamID1, false)
	h.cond.DoWork()
	h.readBroadcasts()

	h.clk.Advance(livenessTimeout + time.Millisecond)
	h.cond.DoWork()

	if h.cond.NumClients() != 0 {
		t.Errorf("client count = %d, want 0", h.cond.NumClients())
	}
	if h.cond.NumSubscriptions() != 0 {
		t.Errorf("subscription count = %d, want 0", h.cond.NumSubscriptions())
	}

	// The publication lingers after the cascade, then unlinks.
	h.clk.Advance(lingerTimeout + time.Millisecond)
	h.cond.DoWork()
	if h.cond.NumPublications() != 0 {
		t.Errorf("publication count = %d, want 0", h.cond.NumPublications())
	}
}

func TestRemoveSubscriptionLeavesNoResidualImages(t *testing.T) {
	h := newHarness(t)

	h.addIpcPublication(1, 200, streamID1, false)
	h.addIpcSubscription(1, 100, streamID1)
	h.cond.DoWork()
	h.removeSubscription(1, 300, 100)
	h.cond.DoWork()

	if h.cond.NumSubscriptions() != 0 {
		t.Errorf("subscription count = %d, want 0", h.cond.NumSubscriptions())
	}
	if h.cond.NumSubscribers(200) != 0 {
		t.Errorf("subscriber count = %d, want 0", h.cond.NumSubscribers(200))
	}
	if h.cond.NumPublications() != 1 {
		t.Errorf("publication count = %d, want 1", h.cond.NumPublications())
	}
}

func TestErrorsAreBroadcastNotFatal(t *testing.T) {
	h := newHarness(t)

	h.write(command.AddPublicationTypeID, (&command.PublicationMessage{
		ClientID:      1,
		CorrelationID: 400,
		StreamID:      streamID1,
		Channel:       "tcp://nope",
	}).Encode())
	h.removePublication(1, 401, 999)
	h.cond.DoWork()

	records := h.readBroadcasts()
	h.expectTypes(records, command.OnErrorTypeID, command.OnErrorTypeID)

	first, err := command.DecodeErrorResponse(records[0].payload)
	if err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if first.OffendingCorrelationID != 400 {
		t.Errorf("offending correlation = %d, want 400", first.OffendingCorrelationID)
	}
	if first.ErrorCode != 1 {
		t.Errorf("error code = %d, want invalid channel", first.ErrorCode)
	}

	second, err := command.DecodeErrorResponse(records[1].payload)
	if err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if second.ErrorCode != 3 {
		t.Errorf("error code = %d, want unknown publication", second.ErrorCode)
	}

	// The conductor keeps working after errors.
	h.addIpcSubscription(1, 500, streamID1)
	h.cond.DoWork()
	if h.cond.NumSubscriptions() != 1 {
		t.Error("conductor stopped accepting commands after an error")
	}
}

func TestSessionFilterLimitsImages(t *testing.T) {
	h := newHarness(t)

	h.addIpcPublication(1, 200, streamID1, false)
	h.cond.DoWork()
	pubReady := decodePubReady(t, h.readBroadcasts()[0])

	// One subscription filters on the live session, one on a different
	// session.
	h.write(command.AddSubscriptionTypeID, (&command.SubscriptionMessage{
		ClientID:        1,
		CorrelationID:   100,
		StreamID:        streamID1,
		SessionIDFilter: pubReady.SessionID,
		Channel:         IPCChannel,
	}).Encode())
	h.write(command.AddSubscriptionTypeID, (&command.SubscriptionMessage{
		ClientID:        1,
		CorrelationID:   101,
		StreamID:        streamID1,
		SessionIDFilter: pubReady.SessionID + 1,
		Channel:         IPCChannel,
	}).Encode())
	h.cond.DoWork()

	records := h.readBroadcasts()
	h.expectTypes(records,
		command.OnSubscriptionReadyTypeID,
		command.OnAvailableImageTypeID,
		command.OnSubscriptionReadyTypeID)

	image := decodeImage(t, records[1])
	if image.SubscriptionRegistrationID != 100 {
		t.Errorf("image went to subscription %d, want 100", image.SubscriptionRegistrationID)
	}
}

func TestReceiveDestinations(t *testing.T) {
	h := newHarness(t)

	h.write(command.AddSubscriptionTypeID, (&command.SubscriptionMessage{
		ClientID:        1,
		CorrelationID:   100,
		StreamID:        streamID1,
		SessionIDFilter: -1,
		Channel:         "aeron:udp?control-mode=manual",
	}).Encode())
	h.cond.DoWork()
	h.readBroadcasts()

	addDestination := func(correlationID int64, endpoint string) {
		h.write(command.AddRcvDestinationTypeID, (&command.DestinationMessage{
			ClientID:       1,
			CorrelationID:  correlationID,
			RegistrationID: 100,
			Endpoint:       endpoint,
		}).Encode())
	}

	// Duplicate adds are idempotent.
	addDestination(300, "aeron:udp?endpoint=224.0.1.1:40456")
	addDestination(301, "aeron:udp?endpoint=224.0.1.1:40456")
	h.cond.DoWork()
	if records := h.readBroadcasts(); len(records) != 0 {
		t.Fatalf("destination adds broadcast %d records, want 0", len(records))
	}

	// A destination on a closed subscription errors.
	h.write(command.AddRcvDestinationTypeID, (&command.DestinationMessage{
		ClientID:       1,
		CorrelationID:  302,
		RegistrationID: 999,
		Endpoint:       "aeron:udp?endpoint=224.0.1.1:40456",
	}).Encode())
	h.cond.DoWork()

	records := h.readBroadcasts()
	h.expectTypes(records, command.OnErrorTypeID)
	response, err := command.DecodeErrorResponse(records[0].payload)
	if err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if response.ErrorCode != 5 {
		t.Errorf("error code = %d, want subscription closed", response.ErrorCode)
	}

	// Removing an endpoint that was added succeeds silently.
	h.write(command.RemoveRcvDestinationTypeID, (&command.DestinationMessage{
		ClientID:       1,
		CorrelationID:  303,
		RegistrationID: 100,
		Endpoint:       "aeron:udp?endpoint=224.0.1.1:40456",
	}).Encode())
	h.cond.DoWork()
	if records := h.readBroadcasts(); len(records) != 0 {
		t.Fatalf("destination remove broadcast %d records, want 0", len(records))
	}
}
