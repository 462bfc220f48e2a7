package algorithms

import (
	"slices"
)

// Community is one group slot of a Partition. Members may contain the same
// node more than once (see BuildCores).
type Community struct {
	ID      int
	Members []string
	removed bool
	set     map[string]struct{}
}

// Size returns the number of member entries, duplicates included.
func (c *Community) Size() int {
	return len(c.Members)
}

// Contains reports whether node is a member.
func (c *Community) Contains(node string) bool {
	_, ok := c.set[node]
	return ok
}

// Partition is an append-only collection of communities indexed by id.
// Merged-away communities stay in place as tombstones so ids are never
// reused.
type Partition struct {
	slots []*Community
	// index maps a node to the live community holding it
	index map[string]int
}

// NewPartition returns an empty partition.
func NewPartition() *Partition {
	return &Partition{index: make(map[string]int)}
}

// NewCommunity appends a community holding members and returns its id.
func (p *Partition) NewCommunity(members ...string) int {
	id := len(p.slots)
	c := &Community{ID: id, set: make(map[string]struct{})}
	p.slots = append(p.slots, c)
	for _, m := range members {
		p.Append(id, m)
	}
	return id
}

// Append adds node to the end of community id's member list.
func (p *Partition) Append(id int, node string) {
	c := p.slots[id]
	c.Members = append(c.Members, node)
	c.set[node] = struct{}{}
	p.index[node] = id
}

// Merge copies every member of from that into lacks, then tombstones from.
func (p *Partition) Merge(into, from int) {
	if into == from {
		return
	}
	dst, src := p.slots[into], p.slots[from]
	for _, m := range src.Members {
		if !dst.Contains(m) {
			dst.Members = append(dst.Members, m)
			dst.set[m] = struct{}{}
		}
		p.index[m] = into
	}
	src.removed = true
}

// CommunityOf returns the live community holding node.
func (p *Partition) CommunityOf(node string) (int, bool) {
	id, ok := p.index[node]
	return id, ok
}

// IsAssigned reports whether node belongs to any live community.
func (p *Partition) IsAssigned(node string) bool {
	_, ok := p.index[node]
	return ok
}

// Get returns the community with the given id, tombstones excluded.
func (p *Partition) Get(id int) (*Community, bool) {
	if id < 0 || id >= len(p.slots) || p.slots[id].removed {
		return nil, false
	}
	return p.slots[id], true
}

// IsRemoved reports whether id was merged away.
func (p *Partition) IsRemoved(id int) bool {
	return id >= 0 && id < len(p.slots) && p.slots[id].removed
}

// Communities returns the live communities in ascending id order.
func (p *Partition) Communities() []*Community {
	result := make([]*Community, 0, len(p.slots))
	for _, c := range p.slots {
		if !c.removed {
			result = append(result, c)
		}
	}
	return result
}

// Len returns the number of live communities.
func (p *Partition) Len() int {
	n := 0
	for _, c := range p.slots {
		if !c.removed {
			n++
		}
	}
	return n
}

// NextID returns the id the next new community will get.
func (p *Partition) NextID() int {
	return len(p.slots)
}

// AssignedCount returns the number of distinct assigned nodes.
func (p *Partition) AssignedCount() int {
	return len(p.index)
}

// Snapshot returns an independent id -> members copy of the live
// communities.
func (p *Partition) Snapshot() map[int][]string {
	snap := make(map[int][]string, len(p.slots))
	for _, c := range p.Communities() {
		snap[c.ID] = slices.Clone(c.Members)
	}
	return snap
}

// Assignment maps every assigned node to its community id.
func (p *Partition) Assignment() map[string]int {
	result := make(map[string]int, len(p.index))
	for k, v := range p.index {
		result[k] = v
	}
	return result
}
