// If you are AI: This file defines the driver-to-client response flyweights
// broadcast by the conductor and their byte codecs.

package command

// PublicationReady answers AddPublication and AddExclusivePublication.
// RegistrationID is the id of the underlying publication, which differs
// from CorrelationID when a shared publication is reused.
//
//	0:  correlation id  i64
//	8:  registration id i64
//	16: session id      i32
//	20: stream id       i32
//	24: log file name   u32 length + bytes
type PublicationReady struct {
	CorrelationID  int64
	RegistrationID int64
	SessionID      int32
	StreamID       int32
	LogFileName    string
}

// Encode serialises the response for the broadcast buffer.
func (m *PublicationReady) Encode() []byte {
	w := writer{b: make([]byte, 0, 28+len(m.LogFileName))}
	w.putInt64(m.CorrelationID)
	w.putInt64(m.RegistrationID)
	w.putInt32(m.SessionID)
	w.putInt32(m.StreamID)
	w.putString(m.LogFileName)
	return w.b
}

// DecodePublicationReady parses a PublicationReady from record bytes.
func DecodePublicationReady(b []byte) (PublicationReady, error) {
	r := reader{b: b}
	m := PublicationReady{
		CorrelationID:  r.int64Field("correlation id"),
		RegistrationID: r.int64Field("registration id"),
		SessionID:      r.int32Field("session id"),
		StreamID:       r.int32Field("stream id"),
		LogFileName:    r.stringField("log file name"),
	}
	return m, r.err
}

// SubscriptionReady answers AddSubscription.
//
//	0: correlation id i64
type SubscriptionReady struct {
	CorrelationID int64
}

// Encode serialises the response for the broadcast buffer.
func (m *SubscriptionReady) Encode() []byte {
	w := writer{b: make([]byte, 0, 8)}
	w.putInt64(m.CorrelationID)
	return w.b
}

// DecodeSubscriptionReady parses a SubscriptionReady from record bytes.
func DecodeSubscriptionReady(b []byte) (SubscriptionReady, error) {
	r := reader{b: b}
	m := SubscriptionReady{CorrelationID: r.int64Field("correlation id")}
	return m, r.err
}

// AvailableImage announces a publication's log to one matching
// subscription. CorrelationID is the publication's registration id.
//
//	0:  correlation id               i64
//	8:  subscription registration id i64
//	16: session id                   i32
//	20: stream id                    i32
//	24: log file name                u32 length + bytes
//	    source identity              u32 length + bytes
type AvailableImage struct {
	CorrelationID              int64
	SubscriptionRegistrationID int64
	SessionID                  int32
	StreamID                   int32
	LogFileName                string
	SourceIdentity             string
}

// Encode serialises the response for the broadcast buffer.
func (m *AvailableImage) Encode() []byte {
	w := writer{b: make([]byte, 0, 32+len(m.LogFileName)+len(m.SourceIdentity))}
	w.putInt64(m.CorrelationID)
	w.putInt64(m.SubscriptionRegistrationID)
	w.putInt32(m.SessionID)
	w.putInt32(m.StreamID)
	w.putString(m.LogFileName)
	w.putString(m.SourceIdentity)
	return w.b
}

// DecodeAvailableImage parses an AvailableImage from record bytes.
func DecodeAvailableImage(b []byte) (AvailableImage, error) {
	r := reader{b: b}
	m := AvailableImage{
		CorrelationID:              r.int64Field("correlation id"),
		SubscriptionRegistrationID: r.int64Field("subscription registration id"),
		SessionID:                  r.int32Field("session id"),
		StreamID:                   r.int32Field("stream id"),
		LogFileName:                r.stringField("log file name"),
		SourceIdentity:             r.stringField("source identity"),
	}
	return m, r.err
}

// UnavailableImage announces that a publication's log has gone away.
//
//	0:  correlation id               i64
//	8:  subscription registration id i64
//	16: stream id                    i32
//	20: channel                      u32 length + bytes
type UnavailableImage struct {
	CorrelationID              int64
	SubscriptionRegistrationID int64
	StreamID                   int32
	Channel                    string
}

// Encode serialises the response for the broadcast buffer.
func (m *UnavailableImage) Encode() []byte {
	w := writer{b: make([]byte, 0, 24+len(m.Channel))}
	w.putInt64(m.CorrelationID)
	w.putInt64(m.SubscriptionRegistrationID)
	w.putInt32(m.StreamID)
	w.putString(m.Channel)
	return w.b
}

// DecodeUnavailableImage parses an UnavailableImage from record bytes.
func DecodeUnavailableImage(b []byte) (UnavailableImage, error) {
	r := reader{b: b}
	m := UnavailableImage{
		CorrelationID:              r.int64Field("correlation id"),
		SubscriptionRegistrationID: r.int64Field("subscription registration id"),
		StreamID:                   r.int32Field("stream id"),
		Channel:                    r.stringField("channel"),
	}
	return m, r.err
}

// ErrorResponse reports a failed command back to its sender.
//
//	0:  offending correlation id i64
//	8:  error code               i32
//	12: message                  u32 length + bytes
type ErrorResponse struct {
	OffendingCorrelationID int64
	ErrorCode              int32
	Message                string
}

// Encode serialises the response for the broadcast buffer.
func (m *ErrorResponse) Encode() []byte {
	w := writer{b: make([]byte, 0, 16+len(m.Message))}
	w.putInt64(m.OffendingCorrelationID)
	w.putInt32(m.ErrorCode)
	w.putString(m.Message)
	return w.b
}

// DecodeErrorResponse parses an ErrorResponse from record bytes.
func DecodeErrorResponse(b []byte) (ErrorResponse, error) {
	r := reader{b: b}
	m := ErrorResponse{
		OffendingCorrelationID: r.int64Field("offending correlation id"),
		ErrorCode:              r.int32Field("error code"),
		Message:                r.stringField("message"),
	}
	return m, r.err
}
