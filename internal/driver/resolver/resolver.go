// If you are AI: This file implements the gossip name resolver agent's state and
// duty cycle. Datagram handling and gossip rounds live in gossip.go.

package resolver

import (
	"fmt"
	"log"
	"net"
	"os"

	"aeronmd/internal/core/clock"
	"aeronmd/internal/core/counters"
	"aeronmd/internal/core/errcode"
)

const (
	// dutyCycleMs spaces out the resolver's work; the agent runner may
	// call DoWork far more often.
	dutyCycleMs = 10

	// pollLimit bounds datagrams consumed per duty cycle.
	pollLimit = 10

	// maxDatagramLength sizes the receive and send buffers.
	maxDatagramLength = 8192

	counterTypeResolver int32 = 15
)

// Config describes one driver's resolver instance.
type Config struct {
	// Name is the symbolic name advertised for this driver. Defaults to
	// the host name.
	Name string

	// Address is the local UDP address (host:port) to bind.
	Address string

	// BootstrapNeighbor is an optional seed peer (host:port), resolved
	// once through the system resolver.
	BootstrapNeighbor string

	// SelfResolutionIntervalMs spaces self-advertisements. Default 1000.
	SelfResolutionIntervalMs int64

	// NeighborResolutionIntervalMs spaces cache gossip. Default 2000.
	NeighborResolutionIntervalMs int64
}

// Resolver is the gossip resolver agent. Cache and neighbor state are
// exclusive to the agent's duty cycle; Resolve is called from the
// conductor and must be serialised with DoWork by the owning driver.
type Resolver struct {
	name      string
	conn      *net.UDPConn
	localPort uint16
	bootstrap *net.UDPAddr

	cache     Cache
	neighbors neighborTable

	clk                 clock.Clock
	selfIntervalMs      int64
	neighborIntervalMs  int64
	timeOfLastWorkMs    int64
	deadlineSelfMs      int64
	deadlineNeighborsMs int64

	store           *counters.Store
	invalidFramesID int32
	cacheSizeID     int32
	neighborCountID int32

	recvBuf []byte
	sendBuf []byte

	// lookupHost is the bootstrap (system) resolver, injectable for tests.
	lookupHost func(name string) (net.IP, error)
}

// New binds the resolver socket and prepares the gossip state. The first
// self round fires on the first duty cycle; the first neighbor round is
// due immediately but has nothing to send until the cache fills.
func New(cfg Config, clk clock.Clock, store *counters.Store) (*Resolver, error) {
	name := cfg.Name
	if name == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("resolver name defaulting: %w", err)
		}
		name = hostname
	}

	localAddr, err := net.ResolveUDPAddr("udp", cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("resolver local address %q: %w", cfg.Address, err)
	}

	conn, err := net.ListenUDP("udp", localAddr)
	if err != nil {
		return nil, fmt.Errorf("resolver bind %q: %w", cfg.Address, err)
	}

	var bootstrap *net.UDPAddr
	if cfg.BootstrapNeighbor != "" {
		bootstrap, err = net.ResolveUDPAddr("udp", cfg.BootstrapNeighbor)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("resolver bootstrap %q: %w", cfg.BootstrapNeighbor, err)
		}
	}

	selfInterval := cfg.SelfResolutionIntervalMs
	if selfInterval <= 0 {
		selfInterval = 1000
	}
	neighborInterval := cfg.NeighborResolutionIntervalMs
	if neighborInterval <= 0 {
		neighborInterval = 2000
	}

	r := &Resolver{
		name:                name,
		conn:                conn,
		localPort:           uint16(conn.LocalAddr().(*net.UDPAddr).Port),
		bootstrap:           bootstrap,
		clk:                 clk,
		selfIntervalMs:      selfInterval,
		neighborIntervalMs:  neighborInterval,
		deadlineSelfMs:      0,
		deadlineNeighborsMs: clk.EpochMs(),
		invalidFramesID:     counters.NullCounterID,
		cacheSizeID:         counters.NullCounterID,
		neighborCountID:     counters.NullCounterID,
		recvBuf:             make([]byte, maxDatagramLength),
		sendBuf:             make([]byte, maxDatagramLength),
		lookupHost:          systemLookup,
	}

	if store != nil {
		r.store = store
		if r.invalidFramesID, err = store.Allocate(counterTypeResolver, nil, "resolver invalid frames"); err != nil {
			conn.Close()
			return nil, err
		}
		if r.cacheSizeID, err = store.Allocate(counterTypeResolver, nil, "resolver cache entries"); err != nil {
			conn.Close()
			return nil, err
		}
		if r.neighborCountID, err = store.Allocate(counterTypeResolver, nil, "resolver neighbors"); err != nil {
			conn.Close()
			return nil, err
		}
	}

	return r, nil
}

// Name implements the driver agent interface.
func (r *Resolver) Name() string {
	return "name-resolver"
}

// LocalAddr returns the bound socket address.
func (r *Resolver) LocalAddr() *net.UDPAddr {
	return r.conn.LocalAddr().(*net.UDPAddr)
}

// CacheSize returns the number of learned bindings.
func (r *Resolver) CacheSize() int {
	return r.cache.Size()
}

// Lookup returns the cached binding for a name and address family.
func (r *Resolver) Lookup(name string, resType int8) (CacheEntry, bool) {
	return r.cache.Lookup(name, resType)
}

// NeighborCount returns the number of known peers.
func (r *Resolver) NeighborCount() int {
	return len(r.neighbors.neighbors)
}

// DoWork runs one resolver duty cycle: poll, then self-advertise and
// gossip when their deadlines have passed. Returns a work count.
func (r *Resolver) DoWork() int {
	nowMs := r.clk.EpochMs()
	if nowMs < r.timeOfLastWorkMs+dutyCycleMs {
		return 0
	}
	r.timeOfLastWorkMs = nowMs

	work := r.poll(nowMs)

	if r.deadlineSelfMs <= nowMs {
		work += r.sendSelfResolutions()
		r.deadlineSelfMs += r.selfIntervalMs
	}

	if r.deadlineNeighborsMs <= nowMs {
		work += r.sendNeighborResolutions(nowMs)
		r.deadlineNeighborsMs += r.neighborIntervalMs
	}

	if r.store != nil {
		r.store.SetValue(r.cacheSizeID, int64(r.cache.Size()))
		r.store.SetValue(r.neighborCountID, int64(len(r.neighbors.neighbors)))
	}

	return work
}

// OnClose releases the socket when the agent stops.
func (r *Resolver) OnClose() {
	if err := r.conn.Close(); err != nil {
		log.Printf("resolver close: %v", err)
	}
}

// Resolve looks a name up in the gossip cache, preferring IPv4, and falls
// back to the bootstrap system resolver on a miss. Returns
// NameUnresolvable when both fail.
func (r *Resolver) Resolve(name string) (*net.UDPAddr, error) {
	if entry, ok := r.cache.Lookup(name, ResTypeIP4); ok {
		return toUDPAddr(entry.ResType, entry.Addr, entry.Port)
	}
	if entry, ok := r.cache.Lookup(name, ResTypeIP6); ok {
		return toUDPAddr(entry.ResType, entry.Addr, entry.Port)
	}

	ip, err := r.lookupHost(name)
	if err != nil {
		return nil, errcode.New(errcode.NameUnresolvable, "name %q not in cache and bootstrap lookup failed: %v", name, err)
	}
	return &net.UDPAddr{IP: ip}, nil
}

// incrementInvalidFrames counts a rejected datagram.
func (r *Resolver) incrementInvalidFrames() {
	if r.store != nil {
		r.store.Increment(r.invalidFramesID)
	}
}

// systemLookup is the default bootstrap resolver: IP literals parse
// directly, anything else goes through the host resolver.
func systemLookup(name string) (net.IP, error) {
	if ip := net.ParseIP(name); ip != nil {
		return ip, nil
	}
	ips, err := net.LookupIP(name)
	if err != nil {
		return nil, err
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("no addresses for %q", name)
	}
	return ips[0], nil
}
