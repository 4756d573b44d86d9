// If you are AI: This file implements the resolver's name cache and neighbor
// table. Both are exclusive to the resolver agent and updated in place.

package resolver

import "bytes"

// CacheEntry is one learned name-to-address binding.
type CacheEntry struct {
	Name           string
	ResType        int8
	Addr           []byte
	Port           uint16
	LastActivityMs int64
}

// Cache maps (name, res type) to the most recent binding. Values are
// replaced, never duplicated.
type Cache struct {
	entries []CacheEntry
}

// Lookup returns the binding for a name and address family.
func (c *Cache) Lookup(name string, resType int8) (CacheEntry, bool) {
	for i := range c.entries {
		if c.entries[i].ResType == resType && c.entries[i].Name == name {
			return c.entries[i], true
		}
	}
	return CacheEntry{}, false
}

// AddOrUpdate records a binding, replacing any previous one for the key.
func (c *Cache) AddOrUpdate(name string, resType int8, addr []byte, port uint16, nowMs int64) {
	for i := range c.entries {
		if c.entries[i].ResType == resType && c.entries[i].Name == name {
			c.entries[i].Addr = append(c.entries[i].Addr[:0], addr...)
			c.entries[i].Port = port
			c.entries[i].LastActivityMs = nowMs
			return
		}
	}
	c.entries = append(c.entries, CacheEntry{
		Name:           name,
		ResType:        resType,
		Addr:           append([]byte(nil), addr...),
		Port:           port,
		LastActivityMs: nowMs,
	})
}

// Entries exposes the cache contents for gossip rounds.
func (c *Cache) Entries() []CacheEntry {
	return c.entries
}

// Size returns the number of cached bindings.
func (c *Cache) Size() int {
	return len(c.entries)
}

// Neighbor is another driver from which resolution frames have been
// received.
type Neighbor struct {
	ResType        int8
	Addr           []byte
	Port           uint16
	LastActivityMs int64
}

// neighborTable tracks known peers by (res type, address, port).
type neighborTable struct {
	neighbors []Neighbor
}

// find returns the index of a neighbor, or -1.
func (t *neighborTable) find(resType int8, addr []byte, port uint16) int {
	for i := range t.neighbors {
		n := &t.neighbors[i]
		if n.ResType == resType && n.Port == port && bytes.Equal(n.Addr, addr) {
			return i
		}
	}
	return -1
}

// addOrRefresh inserts a neighbor if absent and stamps its activity time.
// Returns true when the neighbor is new.
func (t *neighborTable) addOrRefresh(resType int8, addr []byte, port uint16, nowMs int64) bool {
	if i := t.find(resType, addr, port); i >= 0 {
		t.neighbors[i].LastActivityMs = nowMs
		return false
	}
	t.neighbors = append(t.neighbors, Neighbor{
		ResType:        resType,
		Addr:           append([]byte(nil), addr...),
		Port:           port,
		LastActivityMs: nowMs,
	})
	return true
}
