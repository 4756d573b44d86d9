// If you are AI: This file contains unit tests for the command and response codecs.

package command

import (
	"encoding/binary"
	"testing"
)

func TestPublicationMessageCodec(t *testing.T) {
	in := PublicationMessage{
		ClientID:      1,
		CorrelationID: 200,
		StreamID:      10,
		Channel:       "aeron:ipc",
	}

	out, err := DecodePublicationMessage(in.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out != in {
		t.Errorf("round trip: got %+v, want %+v", out, in)
	}
}

func TestPublicationMessageLayout(t *testing.T) {
	m := PublicationMessage{ClientID: 1, CorrelationID: 2, StreamID: 3, Channel: "aeron:ipc"}
	b := m.Encode()

	if got := int64(binary.LittleEndian.Uint64(b[0:])); got != 1 {
		t.Errorf("client id at offset 0 = %d", got)
	}
	if got := int64(binary.LittleEndian.Uint64(b[8:])); got != 2 {
		t.Errorf("correlation id at offset 8 = %d", got)
	}
	if got := int32(binary.LittleEndian.Uint32(b[16:])); got != 3 {
		t.Errorf("stream id at offset 16 = %d", got)
	}
	if got := int32(binary.LittleEndian.Uint32(b[20:])); got != 9 {
		t.Errorf("channel length at offset 20 = %d", got)
	}
	if got := string(b[24:33]); got != "aeron:ipc" {
		t.Errorf("channel bytes = %q", got)
	}
}

func TestAvailableImageCodec(t *testing.T) {
	in := AvailableImage{
		CorrelationID:              200,
		SubscriptionRegistrationID: 100,
		SessionID:                  -559038737,
		StreamID:                   10,
		LogFileName:                "/dev/shm/aeron/publications/200.logbuffer",
		SourceIdentity:             "aeron:ipc",
	}

	out, err := DecodeAvailableImage(in.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out != in {
		t.Errorf("round trip: got %+v, want %+v", out, in)
	}
}

func TestErrorResponseCodec(t *testing.T) {
	in := ErrorResponse{
		OffendingCorrelationID: 300,
		ErrorCode:              3,
		Message:                "publication 5 unknown to client 1",
	}

	out, err := DecodeErrorResponse(in.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out != in {
		t.Errorf("round trip: got %+v, want %+v", out, in)
	}
}

func TestDecodeRejectsTruncatedMessage(t *testing.T) {
	full := (&SubscriptionMessage{
		ClientID:      1,
		CorrelationID: 100,
		StreamID:      10,
		Channel:       "aeron:ipc",
	}).Encode()

	for _, cut := range []int{0, 7, 15, 19, 23, len(full) - 1} {
		if _, err := DecodeSubscriptionMessage(full[:cut]); err == nil {
			t.Errorf("decode of %d-byte prefix should fail", cut)
		}
	}
}

func TestDecodeRejectsMissingFields(t *testing.T) {
	b := (&CorrelatedMessage{ClientID: 1, CorrelationID: 2}).Encode()
	// A keepalive message read as a destination message runs out of bytes.
	if _, err := DecodeDestinationMessage(b); err == nil {
		t.Error("decode with missing fields should fail")
	}
}
