// If you are AI: This file dispatches commands drained from the to-driver ring
// and implements the per-command handlers.

package conductor

import (
	"errors"

	"aeronmd/internal/core/command"
	"aeronmd/internal/core/errcode"
)

// onCommand dispatches one command record from the to-driver ring.
func (c *Conductor) onCommand(msgTypeID int32, payload []byte) {
	var correlationID int64
	var err error

	switch msgTypeID {
	case command.AddPublicationTypeID, command.AddExclusivePublicationTypeID:
		var m command.PublicationMessage
		if m, err = command.DecodePublicationMessage(payload); err == nil {
			correlationID = m.CorrelationID
			err = c.onAddPublication(m, msgTypeID == command.AddExclusivePublicationTypeID)
		}

	case command.AddSubscriptionTypeID:
		var m command.SubscriptionMessage
		if m, err = command.DecodeSubscriptionMessage(payload); err == nil {
			correlationID = m.CorrelationID
			err = c.onAddSubscription(m)
		}

	case command.RemovePublicationTypeID:
		var m command.RemoveMessage
		if m, err = command.DecodeRemoveMessage(payload); err == nil {
			correlationID = m.CorrelationID
			err = c.onRemovePublication(m)
		}

	case command.RemoveSubscriptionTypeID:
		var m command.RemoveMessage
		if m, err = command.DecodeRemoveMessage(payload); err == nil {
			correlationID = m.CorrelationID
			err = c.onRemoveSubscription(m)
		}

	case command.ClientKeepaliveTypeID:
		var m command.CorrelatedMessage
		if m, err = command.DecodeCorrelatedMessage(payload); err == nil {
			c.getOrCreateClient(m.ClientID)
		}

	case command.AddRcvDestinationTypeID, command.RemoveRcvDestinationTypeID:
		var m command.DestinationMessage
		if m, err = command.DecodeDestinationMessage(payload); err == nil {
			correlationID = m.CorrelationID
			err = c.onRcvDestination(m, msgTypeID == command.AddRcvDestinationTypeID)
		}

	default:
		err = errcode.New(errcode.ProtocolViolation, "unknown command type id 0x%x", msgTypeID)
	}

	if err != nil {
		c.onError(correlationID, err)
	}
}

// onError materialises a failed command as an OnError broadcast and a
// distinct error log observation. Errors never terminate the agent.
func (c *Conductor) onError(correlationID int64, err error) {
	var derr *errcode.DriverError
	if !errors.As(err, &derr) {
		derr = errcode.New(errcode.ProtocolViolation, "%v", err)
	}

	c.store.Increment(c.errorsCounterID)
	c.errLog.Record(derr.Code, derr.Msg)
	c.transmit(command.OnErrorTypeID, (&command.ErrorResponse{
		OffendingCorrelationID: correlationID,
		ErrorCode:              int32(derr.Code),
		Message:                derr.Msg,
	}).Encode())
}

// onAddPublication handles AddPublication and AddExclusivePublication.
// A shared publication on the same (channel, stream) is reused; exclusive
// requests always create a fresh publication and log buffer.
func (c *Conductor) onAddPublication(m command.PublicationMessage, isExclusive bool) error {
	cl := c.getOrCreateClient(m.ClientID)

	kind, err := kindOfChannel(m.Channel)
	if err != nil {
		return errcode.New(errcode.InvalidChannel, "%v", err)
	}

	if !isExclusive {
		if existing := c.findSharedPublication(m.Channel, m.StreamID); existing != nil {
			// Reuse: same log, registration id of the original, and no
			// new image. The existing images already cover the stream.
			existing.refs++
			existing.lingerDeadlineNs = 0
			cl.publicationRefs = append(cl.publicationRefs, existing.registrationID)
			c.transmit(command.OnPublicationReadyTypeID, (&command.PublicationReady{
				CorrelationID:  m.CorrelationID,
				RegistrationID: existing.registrationID,
				SessionID:      existing.sessionID,
				StreamID:       existing.streamID,
				LogFileName:    existing.logFileName,
			}).Encode())
			return nil
		}
	}

	registrationID := m.CorrelationID
	logFileName, err := c.logs.Create(registrationID)
	if err != nil {
		return errcode.New(errcode.ResourceExhausted, "log buffer for publication %d: %v", registrationID, err)
	}

	pub := &publication{
		registrationID: registrationID,
		streamID:       m.StreamID,
		sessionID:      c.nextSessionID(m.StreamID),
		channel:        m.Channel,
		kind:           kind,
		isExclusive:    isExclusive,
		logFileName:    logFileName,
		refs:           1,
	}
	c.publications = append(c.publications, pub)
	cl.publicationRefs = append(cl.publicationRefs, registrationID)

	readyTypeID := command.OnPublicationReadyTypeID
	if isExclusive {
		readyTypeID = command.OnExclusivePublicationReadyTypeID
	}
	c.transmit(readyTypeID, (&command.PublicationReady{
		CorrelationID:  m.CorrelationID,
		RegistrationID: registrationID,
		SessionID:      pub.sessionID,
		StreamID:       pub.streamID,
		LogFileName:    logFileName,
	}).Encode())

	for _, sub := range c.subscriptions {
		if sub.matches(pub) {
			c.linkImage(pub, sub)
		}
	}
	return nil
}

// onAddSubscription registers a subscription and links it to every live
// matching publication in publication-creation order.
func (c *Conductor) onAddSubscription(m command.SubscriptionMessage) error {
	cl := c.getOrCreateClient(m.ClientID)

	kind, err := kindOfChannel(m.Channel)
	if err != nil {
		return errcode.New(errcode.InvalidChannel, "%v", err)
	}

	sub := &subscription{
		registrationID:  m.CorrelationID,
		clientID:        m.ClientID,
		streamID:        m.StreamID,
		sessionIDFilter: m.SessionIDFilter,
		channel:         m.Channel,
		kind:            kind,
	}
	c.subscriptions = append(c.subscriptions, sub)
	cl.subscriptionIDs = append(cl.subscriptionIDs, sub.registrationID)

	// Readiness always precedes the subscription's first image.
	c.transmit(command.OnSubscriptionReadyTypeID, (&command.SubscriptionReady{
		CorrelationID: sub.registrationID,
	}).Encode())

	for _, pub := range c.publications {
		if sub.matches(pub) {
			c.linkImage(pub, sub)
		}
	}
	return nil
}

// onRemovePublication drops one publication reference. The publication
// itself lingers so in-flight readers can drain.
func (c *Conductor) onRemovePublication(m command.RemoveMessage) error {
	cl := c.findClient(m.ClientID)
	if cl == nil {
		return errcode.New(errcode.UnknownClient, "client %d unknown", m.ClientID)
	}

	pub := c.findPublication(m.RegistrationID)
	if pub == nil || !cl.removePublicationRef(m.RegistrationID) {
		return errcode.New(errcode.UnknownPublication, "publication %d unknown to client %d", m.RegistrationID, m.ClientID)
	}

	pub.refs--
	if pub.refs == 0 {
		pub.lingerDeadlineNs = c.clk.NanoTime() + c.cfg.PublicationLingerTimeoutNs
	}
	return nil
}

// onRemoveSubscription removes a subscription and unlinks its images.
func (c *Conductor) onRemoveSubscription(m command.RemoveMessage) error {
	cl := c.findClient(m.ClientID)
	if cl == nil {
		return errcode.New(errcode.UnknownClient, "client %d unknown", m.ClientID)
	}
	if !cl.removeSubscriptionID(m.RegistrationID) {
		return errcode.New(errcode.UnknownSubscription, "subscription %d unknown to client %d", m.RegistrationID, m.ClientID)
	}

	c.removeSubscription(m.RegistrationID)
	return nil
}

// onRcvDestination adds or removes a manual receive endpoint on a
// UDP subscription.
func (c *Conductor) onRcvDestination(m command.DestinationMessage, add bool) error {
	c.getOrCreateClient(m.ClientID)

	sub := c.findSubscription(m.RegistrationID)
	if sub == nil {
		return errcode.New(errcode.SubscriptionClosed, "subscription %d is not open", m.RegistrationID)
	}
	if sub.kind != ChannelUDP {
		return errcode.New(errcode.InvalidChannel, "subscription %d is not a UDP channel", m.RegistrationID)
	}

	if add {
		for _, d := range sub.destinations {
			if d == m.Endpoint {
				return nil
			}
		}
		sub.destinations = append(sub.destinations, m.Endpoint)
		return nil
	}

	for i, d := range sub.destinations {
		if d == m.Endpoint {
			sub.destinations = append(sub.destinations[:i], sub.destinations[i+1:]...)
			return nil
		}
	}
	return errcode.New(errcode.InvalidChannel, "destination %q not present on subscription %d", m.Endpoint, m.RegistrationID)
}
