// If you are AI: This file defines the client-to-driver command flyweights and
// their byte codecs. Layouts are part of the control-plane wire contract.

package command

// PublicationMessage is AddPublication / AddExclusivePublication.
//
//	0:  client id      i64
//	8:  correlation id i64
//	16: stream id      i32
//	20: channel        u32 length + bytes
type PublicationMessage struct {
	ClientID      int64
	CorrelationID int64
	StreamID      int32
	Channel       string
}

// Encode serialises the message for the command ring.
func (m *PublicationMessage) Encode() []byte {
	w := writer{b: make([]byte, 0, 24+len(m.Channel))}
	w.putInt64(m.ClientID)
	w.putInt64(m.CorrelationID)
	w.putInt32(m.StreamID)
	w.putString(m.Channel)
	return w.b
}

// DecodePublicationMessage parses a PublicationMessage from record bytes.
func DecodePublicationMessage(b []byte) (PublicationMessage, error) {
	r := reader{b: b}
	m := PublicationMessage{
		ClientID:      r.int64Field("client id"),
		CorrelationID: r.int64Field("correlation id"),
		StreamID:      r.int32Field("stream id"),
		Channel:       r.stringField("channel"),
	}
	return m, r.err
}

// SubscriptionMessage is AddSubscription.
//
//	0:  client id         i64
//	8:  correlation id    i64
//	16: stream id         i32
//	20: session id filter i32 (-1 means any session)
//	24: channel           u32 length + bytes
type SubscriptionMessage struct {
	ClientID        int64
	CorrelationID   int64
	StreamID        int32
	SessionIDFilter int32
	Channel         string
}

// Encode serialises the message for the command ring.
func (m *SubscriptionMessage) Encode() []byte {
	w := writer{b: make([]byte, 0, 28+len(m.Channel))}
	w.putInt64(m.ClientID)
	w.putInt64(m.CorrelationID)
	w.putInt32(m.StreamID)
	w.putInt32(m.SessionIDFilter)
	w.putString(m.Channel)
	return w.b
}

// DecodeSubscriptionMessage parses a SubscriptionMessage from record bytes.
func DecodeSubscriptionMessage(b []byte) (SubscriptionMessage, error) {
	r := reader{b: b}
	m := SubscriptionMessage{
		ClientID:        r.int64Field("client id"),
		CorrelationID:   r.int64Field("correlation id"),
		StreamID:        r.int32Field("stream id"),
		SessionIDFilter: r.int32Field("session id filter"),
		Channel:         r.stringField("channel"),
	}
	return m, r.err
}

// RemoveMessage is RemovePublication / RemoveSubscription.
//
//	0:  client id       i64
//	8:  correlation id  i64
//	16: registration id i64
type RemoveMessage struct {
	ClientID       int64
	CorrelationID  int64
	RegistrationID int64
}

// Encode serialises the message for the command ring.
func (m *RemoveMessage) Encode() []byte {
	w := writer{b: make([]byte, 0, 24)}
	w.putInt64(m.ClientID)
	w.putInt64(m.CorrelationID)
	w.putInt64(m.RegistrationID)
	return w.b
}

// DecodeRemoveMessage parses a RemoveMessage from record bytes.
func DecodeRemoveMessage(b []byte) (RemoveMessage, error) {
	r := reader{b: b}
	m := RemoveMessage{
		ClientID:       r.int64Field("client id"),
		CorrelationID:  r.int64Field("correlation id"),
		RegistrationID: r.int64Field("registration id"),
	}
	return m, r.err
}

// CorrelatedMessage is ClientKeepalive.
//
//	0: client id      i64
//	8: correlation id i64
type CorrelatedMessage struct {
	ClientID      int64
	CorrelationID int64
}

// Encode serialises the message for the command ring.
func (m *CorrelatedMessage) Encode() []byte {
	w := writer{b: make([]byte, 0, 16)}
	w.putInt64(m.ClientID)
	w.putInt64(m.CorrelationID)
	return w.b
}

// DecodeCorrelatedMessage parses a CorrelatedMessage from record bytes.
func DecodeCorrelatedMessage(b []byte) (CorrelatedMessage, error) {
	r := reader{b: b}
	m := CorrelatedMessage{
		ClientID:      r.int64Field("client id"),
		CorrelationID: r.int64Field("correlation id"),
	}
	return m, r.err
}

// DestinationMessage is AddRcvDestination / RemoveRcvDestination. The
// registration id names the subscription the endpoint is added to.
//
//	0:  client id       i64
//	8:  correlation id  i64
//	16: registration id i64
//	24: endpoint        u32 length + bytes
type DestinationMessage struct {
	ClientID       int64
	CorrelationID  int64
	RegistrationID int64
	Endpoint       string
}

// Encode serialises the message for the command ring.
func (m *DestinationMessage) Encode() []byte {
	w := writer{b: make([]byte, 0, 28+len(m.Endpoint))}
	w.putInt64(m.ClientID)
	w.putInt64(m.CorrelationID)
	w.putInt64(m.RegistrationID)
	w.putString(m.Endpoint)
	return w.b
}

// DecodeDestinationMessage parses a DestinationMessage from record bytes.
func DecodeDestinationMessage(b []byte) (DestinationMessage, error) {
	r := reader{b: b}
	m := DestinationMessage{
		ClientID:       r.int64Field("client id"),
		CorrelationID:  r.int64Field("correlation id"),
		RegistrationID: r.int64Field("registration id"),
		Endpoint:       r.stringField("endpoint"),
	}
	return m, r.err
}
