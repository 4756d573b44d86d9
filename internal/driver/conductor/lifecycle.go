// If you are AI: This file implements image linkage and the timeout sweeps:
// client liveness, the client-removal cascade, and publication linger expiry.

package conductor

import (
	"log"

	"aeronmd/internal/core/command"
	"aeronmd/internal/core/counters"
)

// linkImage creates the single image joining a publication and a
// subscription and announces it. A publication gaining a subscriber while
// still referenced has any pending linger cancelled.
func (c *Conductor) linkImage(pub *publication, sub *subscription) {
	pub.subscriberIDs = append(pub.subscriberIDs, sub.registrationID)
	sub.imagePublicationIDs = append(sub.imagePublicationIDs, pub.registrationID)
	if pub.refs > 0 {
		pub.lingerDeadlineNs = 0
	}

	sourceIdentity := pub.channel
	if pub.kind == ChannelIPC {
		sourceIdentity = IPCChannel
	}

	c.transmit(command.OnAvailableImageTypeID, (&command.AvailableImage{
		CorrelationID:              pub.registrationID,
		SubscriptionRegistrationID: sub.registrationID,
		SessionID:                  pub.sessionID,
		StreamID:                   pub.streamID,
		LogFileName:                pub.logFileName,
		SourceIdentity:             sourceIdentity,
	}).Encode())
}

// removeSubscription unlinks every image the subscription holds and drops
// the entity. A shared publication losing its last subscriber starts its
// linger window.
func (c *Conductor) removeSubscription(registrationID int64) {
	for i, sub := range c.subscriptions {
		if sub.registrationID != registrationID {
			continue
		}

		for _, pubID := range sub.imagePublicationIDs {
			if pub := c.findPublication(pubID); pub != nil {
				pub.unlinkSubscriber(sub.registrationID)
				if len(pub.subscriberIDs) == 0 && pub.lingerDeadlineNs == 0 {
					pub.lingerDeadlineNs = c.clk.NanoTime() + c.cfg.PublicationLingerTimeoutNs
				}
			}
		}

		c.subscriptions = append(c.subscriptions[:i], c.subscriptions[i+1:]...)
		return
	}
}

// sweepTimeouts removes clients past their liveness deadline, cascades
// their entities, and unlinks publications whose linger has expired.
func (c *Conductor) sweepTimeouts(nowNs int64) int {
	work := 0

	for i := 0; i < len(c.clients); {
		cl := c.clients[i]
		if nowNs-cl.lastKeepaliveNs <= c.cfg.ClientLivenessTimeoutNs {
			i++
			continue
		}

		// Cascade: owned publications behave as removed, owned
		// subscriptions as unsubscribed.
		for _, regID := range cl.publicationRefs {
			if pub := c.findPublication(regID); pub != nil {
				pub.refs--
				if pub.refs == 0 {
					pub.lingerDeadlineNs = nowNs + c.cfg.PublicationLingerTimeoutNs
				}
			}
		}
		for _, subID := range cl.subscriptionIDs {
			c.removeSubscription(subID)
		}
		if cl.heartbeatCounterID != counters.NullCounterID {
			c.store.Free(cl.heartbeatCounterID)
		}

		c.clients = append(c.clients[:i], c.clients[i+1:]...)
		work++
	}

	for i := 0; i < len(c.publications); {
		pub := c.publications[i]
		if pub.refs > 0 || pub.lingerDeadlineNs == 0 || pub.lingerDeadlineNs > nowNs {
			i++
			continue
		}

		c.unlinkPublication(pub)
		c.publications = append(c.publications[:i], c.publications[i+1:]...)
		work++
	}

	return work
}

// unlinkPublication announces loss to every linked subscription and
// destroys the log buffer.
func (c *Conductor) unlinkPublication(pub *publication) {
	for _, subID := range pub.subscriberIDs {
		sub := c.findSubscription(subID)
		if sub == nil {
			continue
		}
		sub.unlinkImage(pub.registrationID)
		c.transmit(command.OnUnavailableImageTypeID, (&command.UnavailableImage{
			CorrelationID:              pub.registrationID,
			SubscriptionRegistrationID: sub.registrationID,
			StreamID:                   pub.streamID,
			Channel:                    pub.channel,
		}).Encode())
	}
	pub.subscriberIDs = nil

	if err := c.logs.Destroy(pub.logFileName); err != nil {
		log.Printf("conductor: destroy %s: %v", pub.logFileName, err)
	}
}
