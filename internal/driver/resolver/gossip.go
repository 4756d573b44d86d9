// If you are AI: This file implements the gossip rounds: polling datagrams into
// the cache and neighbor table, self-advertisement, and cache forwarding.

package resolver

import (
	"fmt"
	"log"
	"net"
	"time"
)

// poll drains up to pollLimit datagrams. Reads use a short deadline
// rather than blocking; an idle socket costs at most one deadline wait.
func (r *Resolver) poll(nowMs int64) int {
	work := 0
	for i := 0; i < pollLimit; i++ {
		if err := r.conn.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
			return work
		}
		n, from, err := r.conn.ReadFromUDP(r.recvBuf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				return work
			}
			log.Printf("resolver poll: %v", err)
			return work
		}
		r.onFrame(r.recvBuf[:n], from, nowMs)
		work++
	}
	return work
}

// onFrame validates one datagram and applies its entries to the cache and
// neighbor table. Entries describing this driver itself are ignored.
func (r *Resolver) onFrame(data []byte, from *net.UDPAddr, nowMs int64) {
	entries, err := ParseFrame(data)
	if err != nil {
		r.incrementInvalidFrames()
		return
	}

	senderResType, senderAddr, senderPort, err := fromUDPAddr(from)
	if err != nil {
		r.incrementInvalidFrames()
		return
	}

	for _, e := range entries {
		addr := e.Addr
		port := e.Port
		resType := e.ResType

		// A SELF entry advertising INADDR_ANY means the sender does not
		// know its externally visible address; substitute the datagram's
		// source address.
		if e.IsSelf() && e.ResType == ResTypeIP4 && isUnspecifiedIP4(e.Addr) {
			resType = senderResType
			addr = senderAddr
			port = senderPort
		}

		if e.Name == r.name && port == r.localPort {
			continue
		}

		r.cache.AddOrUpdate(e.Name, resType, addr, port, nowMs)
		r.neighbors.addOrRefresh(resType, addr, port, nowMs)
	}
}

// sendSelfResolutions emits one SELF entry to every neighbor, or to the
// bootstrap when the neighbor table is still empty. Skipped entirely when
// neither exists.
func (r *Resolver) sendSelfResolutions() int {
	if r.bootstrap == nil && len(r.neighbors.neighbors) == 0 {
		return 0
	}

	resType, addr, port, err := fromUDPAddr(r.LocalAddr())
	if err != nil {
		log.Printf("resolver self advertisement: %v", err)
		return 0
	}

	offset := BeginFrame(r.sendBuf)
	offset, err = AppendEntry(r.sendBuf, offset, Entry{
		ResType: resType,
		Flags:   FlagSelf,
		Port:    port,
		Addr:    addr,
		Name:    r.name,
	})
	if err != nil || offset == 0 {
		log.Printf("resolver self advertisement: entry did not fit")
		return 0
	}
	length := FinishFrame(r.sendBuf, offset)

	if len(r.neighbors.neighbors) == 0 {
		r.sendTo(r.sendBuf[:length], r.bootstrap)
		return 1
	}

	sent := 0
	for i := range r.neighbors.neighbors {
		n := &r.neighbors.neighbors[i]
		dest, err := toUDPAddr(n.ResType, n.Addr, n.Port)
		if err != nil {
			continue
		}
		r.sendTo(r.sendBuf[:length], dest)
		sent++
	}
	return sent
}

// sendNeighborResolutions forwards the cache to every neighbor, packing
// as many entries per datagram as fit and looping until all are sent.
func (r *Resolver) sendNeighborResolutions(nowMs int64) int {
	entries := r.cache.Entries()
	work := 0

	for i := 0; i < len(entries); {
		offset := BeginFrame(r.sendBuf)

		for i < len(entries) {
			e := entries[i]
			next, err := AppendEntry(r.sendBuf, offset, Entry{
				ResType: e.ResType,
				Port:    e.Port,
				AgeMs:   int32(nowMs - e.LastActivityMs),
				Addr:    e.Addr,
				Name:    e.Name,
			})
			if err != nil {
				// A bad res type can only come from a coding error; drop
				// the entry rather than corrupt the frame.
				log.Printf("resolver gossip: %v", err)
				i++
				continue
			}
			if next == 0 {
				break
			}
			offset = next
			i++
		}

		if offset == FrameHeaderLength {
			break
		}
		length := FinishFrame(r.sendBuf, offset)

		for k := range r.neighbors.neighbors {
			n := &r.neighbors.neighbors[k]
			dest, err := toUDPAddr(n.ResType, n.Addr, n.Port)
			if err != nil {
				continue
			}
			r.sendTo(r.sendBuf[:length], dest)
		}
		work++
	}

	return work
}

// sendTo writes one datagram, logging and continuing on failure; gossip
// is eventually consistent.
func (r *Resolver) sendTo(frame []byte, dest *net.UDPAddr) {
	if err := r.conn.SetWriteDeadline(time.Now().Add(time.Millisecond)); err != nil {
		return
	}
	if _, err := r.conn.WriteToUDP(frame, dest); err != nil {
		log.Printf("resolver send to %s: %v", dest, err)
	}
}

// isUnspecifiedIP4 reports whether a 4-byte address is INADDR_ANY.
func isUnspecifiedIP4(addr []byte) bool {
	return len(addr) == 4 && addr[0] == 0 && addr[1] == 0 && addr[2] == 0 && addr[3] == 0
}

// toUDPAddr materialises a socket address from wire form.
func toUDPAddr(resType int8, addr []byte, port uint16) (*net.UDPAddr, error) {
	switch resType {
	case ResTypeIP4:
		return &net.UDPAddr{IP: net.IPv4(addr[0], addr[1], addr[2], addr[3]), Port: int(port)}, nil
	case ResTypeIP6:
		ip := make(net.IP, 16)
		copy(ip, addr)
		return &net.UDPAddr{IP: ip, Port: int(port)}, nil
	default:
		return nil, fmt.Errorf("invalid res type %d", resType)
	}
}

// fromUDPAddr decomposes a socket address into wire form.
func fromUDPAddr(a *net.UDPAddr) (int8, []byte, uint16, error) {
	if ip4 := a.IP.To4(); ip4 != nil {
		return ResTypeIP4, []byte(ip4), uint16(a.Port), nil
	}
	if ip6 := a.IP.To16(); ip6 != nil {
		return ResTypeIP6, []byte(ip6), uint16(a.Port), nil
	}
	return 0, nil, 0, fmt.Errorf("address family of %s not supported", a)
}
