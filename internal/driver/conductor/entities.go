// If you are AI: This file defines the conductor's entity tables: clients,
// publications, and subscriptions, linked through stable registration ids.
// The conductor goroutine is the sole owner of all of them.

package conductor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ChannelKind tags how a publication or subscription moves bytes.
type ChannelKind int

const (
	// ChannelIPC is intra-process shared memory.
	ChannelIPC ChannelKind = iota
	// ChannelUDP is unicast or multicast UDP.
	ChannelUDP
)

// channelPrefix is the URI scheme every channel must carry.
const channelPrefix = "aeron:"

// IPCChannel is the canonical intra-process channel URI.
const IPCChannel = "aeron:ipc"

// kindOfChannel classifies a channel URI, rejecting unknown schemes.
func kindOfChannel(channel string) (ChannelKind, error) {
	switch {
	case channel == IPCChannel || strings.HasPrefix(channel, IPCChannel+"?"):
		return ChannelIPC, nil
	case strings.HasPrefix(channel, "aeron:udp?"):
		return ChannelUDP, nil
	default:
		return 0, fmt.Errorf("channel %q is not a valid aeron URI", channel)
	}
}

// client is one attached client process, identified by the client id it
// chose on its first command.
type client struct {
	id                 int64
	lastKeepaliveNs    int64
	heartbeatCounterID int32

	// publicationRefs holds one element per AddPublication the client
	// has not removed, carrying the underlying registration id. A shared
	// publication appears once per reference.
	publicationRefs []int64
	subscriptionIDs []int64
}

// removePublicationRef drops one reference to a registration id.
// Returns false when the client holds none.
func (c *client) removePublicationRef(registrationID int64) bool {
	for i, id := range c.publicationRefs {
		if id == registrationID {
			c.publicationRefs = append(c.publicationRefs[:i], c.publicationRefs[i+1:]...)
			return true
		}
	}
	return false
}

// removeSubscriptionID drops a subscription registration id.
// Returns false when the client does not own it.
func (c *client) removeSubscriptionID(registrationID int64) bool {
	for i, id := range c.subscriptionIDs {
		if id == registrationID {
			c.subscriptionIDs = append(c.subscriptionIDs[:i], c.subscriptionIDs[i+1:]...)
			return true
		}
	}
	return false
}

// publication is a sender-side stream handle backed by a log buffer.
type publication struct {
	registrationID int64
	streamID       int32
	sessionID      int32
	channel        string
	kind           ChannelKind
	isExclusive    bool
	logFileName    string

	// refs counts un-removed AddPublication references. The publication
	// stays while refs > 0; when it drops to zero the linger window
	// starts.
	refs             int
	lingerDeadlineNs int64

	// subscriberIDs are the registration ids of subscriptions linked
	// through an image.
	subscriberIDs []int64
}

// unlinkSubscriber removes a linked subscription registration id.
func (p *publication) unlinkSubscriber(registrationID int64) {
	for i, id := range p.subscriberIDs {
		if id == registrationID {
			p.subscriberIDs = append(p.subscriberIDs[:i], p.subscriberIDs[i+1:]...)
			return
		}
	}
}

// subscription is a receiver-side stream handle.
type subscription struct {
	registrationID  int64
	clientID        int64
	streamID        int32
	sessionIDFilter int32
	channel         string
	kind            ChannelKind

	// imagePublicationIDs are registration ids of publications this
	// subscription holds an image of.
	imagePublicationIDs []int64

	// destinations are manually added receive endpoints (UDP only).
	destinations []string
}

// matches reports whether a publication satisfies this subscription's
// channel, stream, and session filter.
func (s *subscription) matches(p *publication) bool {
	if s.channel != p.channel || s.streamID != p.streamID {
		return false
	}
	return s.sessionIDFilter == anySessionID || s.sessionIDFilter == p.sessionID
}

// unlinkImage removes a linked publication registration id.
func (s *subscription) unlinkImage(registrationID int64) {
	for i, id := range s.imagePublicationIDs {
		if id == registrationID {
			s.imagePublicationIDs = append(s.imagePublicationIDs[:i], s.imagePublicationIDs[i+1:]...)
			return
		}
	}
}

// anySessionID is the session filter wildcard.
const anySessionID int32 = -1

// LogFactory creates and destroys the log buffers behind publications.
// Term allocation and framing inside the buffer belong to the log module,
// not the conductor.
type LogFactory interface {
	Create(registrationID int64) (string, error)
	Destroy(logFileName string) error
}

// FsLogFactory places log buffers under <dir>/publications.
type FsLogFactory struct {
	Dir    string
	Length int64
}

// Create makes a sparse file sized for one log buffer and returns its path.
func (f *FsLogFactory) Create(registrationID int64) (string, error) {
	dir := filepath.Join(f.Dir, "publications")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("log buffer dir: %w", err)
	}

	name := filepath.Join(dir, fmt.Sprintf("%d.logbuffer", registrationID))
	file, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("log buffer create: %w", err)
	}
	defer file.Close()

	if err := file.Truncate(f.Length); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("log buffer size: %w", err)
	}
	return name, nil
}

// Destroy unlinks a log buffer file.
func (f *FsLogFactory) Destroy(logFileName string) error {
	return os.Remove(logFileName)
}
