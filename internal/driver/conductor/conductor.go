// If you are AI: This file implements the conductor: the single-threaded state
// machine that drains client commands, links publications to subscriptions
// through images, broadcasts readiness and loss events, and sweeps timeouts.
// Only the conductor goroutine mutates this state; clients observe it through
// the broadcast buffer and counters. Command handlers live in dispatch.go,
// linkage and timeout sweeps in lifecycle.go.

package conductor

import (
	"encoding/binary"
	"log"
	"math/rand"

	"aeronmd/internal/core/clock"
	"aeronmd/internal/core/counters"
	"aeronmd/internal/core/errorlog"
	"aeronmd/internal/core/rb"
)

// Counter type ids published in the counters store.
const (
	counterTypeSystem          int32 = 0
	counterTypeClientHeartbeat int32 = 11
)

// Config carries the conductor's timing and batching parameters.
type Config struct {
	// ClientLivenessTimeoutNs ends a client that has not sent a
	// keepalive within the window.
	ClientLivenessTimeoutNs int64

	// PublicationLingerTimeoutNs keeps a removed publication's log
	// available for in-flight readers.
	PublicationLingerTimeoutNs int64

	// CommandFragmentLimit bounds commands drained per duty cycle.
	CommandFragmentLimit int

	// SessionIDSeed seeds session id assignment.
	SessionIDSeed int64
}

// Conductor owns the client, publication, and subscription tables.
type Conductor struct {
	cfg       Config
	clk       clock.Clock
	toDriver  *rb.ManyToOne
	toClients *rb.Transmitter
	store     *counters.Store
	errLog    *errorlog.Log
	logs      LogFactory

	// Slices, not maps: broadcast order follows creation order.
	clients       []*client
	publications  []*publication
	subscriptions []*subscription

	sessionRand *rand.Rand

	clientsCounterID       int32
	publicationsCounterID  int32
	subscriptionsCounterID int32
	errorsCounterID        int32
}

// New wires a conductor over its rings, counters, and error log.
func New(
	cfg Config,
	clk clock.Clock,
	toDriver *rb.ManyToOne,
	toClients *rb.Transmitter,
	store *counters.Store,
	errLog *errorlog.Log,
	logs LogFactory,
) (*Conductor, error) {
	if cfg.CommandFragmentLimit <= 0 {
		cfg.CommandFragmentLimit = 10
	}

	c := &Conductor{
		cfg:         cfg,
		clk:         clk,
		toDriver:    toDriver,
		toClients:   toClients,
		store:       store,
		errLog:      errLog,
		logs:        logs,
		sessionRand: rand.New(rand.NewSource(cfg.SessionIDSeed)),
	}

	var err error
	if c.clientsCounterID, err = store.Allocate(counterTypeSystem, nil, "driver clients"); err != nil {
		return nil, err
	}
	if c.publicationsCounterID, err = store.Allocate(counterTypeSystem, nil, "active publications"); err != nil {
		return nil, err
	}
	if c.subscriptionsCounterID, err = store.Allocate(counterTypeSystem, nil, "active subscriptions"); err != nil {
		return nil, err
	}
	if c.errorsCounterID, err = store.Allocate(counterTypeSystem, nil, "driver errors"); err != nil {
		return nil, err
	}

	return c, nil
}

// Name implements the driver agent interface.
func (c *Conductor) Name() string {
	return "conductor"
}

// DoWork runs one duty cycle: drain a bounded batch of commands, sweep
// timeouts, refresh counters. Returns a work count for the idle strategy.
func (c *Conductor) DoWork() int {
	work := c.toDriver.Read(c.onCommand, c.cfg.CommandFragmentLimit)
	work += c.sweepTimeouts(c.clk.NanoTime())
	c.updateCounters()
	return work
}

// OnClose unlinks the log buffers of every remaining publication.
func (c *Conductor) OnClose() {
	for _, p := range c.publications {
		if err := c.logs.Destroy(p.logFileName); err != nil {
			log.Printf("conductor close: destroy %s: %v", p.logFileName, err)
		}
	}
}

// transmit pushes one response onto the broadcast buffer.
func (c *Conductor) transmit(msgTypeID int32, payload []byte) {
	if err := c.toClients.Transmit(msgTypeID, payload); err != nil {
		log.Printf("conductor broadcast: %v", err)
	}
}

// updateCounters refreshes the driver gauges and client heartbeats.
func (c *Conductor) updateCounters() {
	c.store.SetValue(c.clientsCounterID, int64(len(c.clients)))
	c.store.SetValue(c.publicationsCounterID, int64(len(c.publications)))
	c.store.SetValue(c.subscriptionsCounterID, int64(len(c.subscriptions)))

	nowMs := c.clk.EpochMs()
	for _, cl := range c.clients {
		if cl.heartbeatCounterID != counters.NullCounterID {
			c.store.SetValue(cl.heartbeatCounterID, nowMs)
		}
	}
}

// getOrCreateClient looks a client up by id, creating it on first contact,
// and refreshes its keepalive.
func (c *Conductor) getOrCreateClient(clientID int64) *client {
	if cl := c.findClient(clientID); cl != nil {
		cl.lastKeepaliveNs = c.clk.NanoTime()
		return cl
	}

	cl := &client{
		id:                 clientID,
		lastKeepaliveNs:    c.clk.NanoTime(),
		heartbeatCounterID: counters.NullCounterID,
	}

	key := make([]byte, 8)
	binary.LittleEndian.PutUint64(key, uint64(clientID))
	id, err := c.store.Allocate(counterTypeClientHeartbeat, key, "client heartbeat")
	if err != nil {
		log.Printf("conductor: heartbeat counter for client %d: %v", clientID, err)
	} else {
		c.store.SetRegistrationID(id, clientID)
		cl.heartbeatCounterID = id
	}

	c.clients = append(c.clients, cl)
	return cl
}

// findClient returns the client with the given id, or nil.
func (c *Conductor) findClient(clientID int64) *client {
	for _, cl := range c.clients {
		if cl.id == clientID {
			return cl
		}
	}
	return nil
}

// findPublication returns the publication with the given registration id.
func (c *Conductor) findPublication(registrationID int64) *publication {
	for _, p := range c.publications {
		if p.registrationID == registrationID {
			return p
		}
	}
	return nil
}

// findSharedPublication returns the live shared publication for a channel
// and stream, if any. At most one exists at any instant.
func (c *Conductor) findSharedPublication(channel string, streamID int32) *publication {
	for _, p := range c.publications {
		if !p.isExclusive && p.channel == channel && p.streamID == streamID {
			return p
		}
	}
	return nil
}

// findSubscription returns the subscription with the given registration id.
func (c *Conductor) findSubscription(registrationID int64) *subscription {
	for _, s := range c.subscriptions {
		if s.registrationID == registrationID {
			return s
		}
	}
	return nil
}

// nextSessionID assigns a pseudo-random session id that does not collide
// with any live publication on the same stream.
func (c *Conductor) nextSessionID(streamID int32) int32 {
	for {
		candidate := int32(c.sessionRand.Int31())
		taken := false
		for _, p := range c.publications {
			if p.streamID == streamID && p.sessionID == candidate {
				taken = true
				break
			}
		}
		if !taken {
			return candidate
		}
	}
}

// NumClients reports the attached client count.
func (c *Conductor) NumClients() int {
	return len(c.clients)
}

// NumPublications reports the live publication count.
func (c *Conductor) NumPublications() int {
	return len(c.publications)
}

// NumSubscriptions reports the live subscription count.
func (c *Conductor) NumSubscriptions() int {
	return len(c.subscriptions)
}

// NumSubscribers reports how many subscriptions hold an image of the
// publication with the given registration id.
func (c *Conductor) NumSubscribers(registrationID int64) int {
	if p := c.findPublication(registrationID); p != nil {
		return len(p.subscriberIDs)
	}
	return 0
}
