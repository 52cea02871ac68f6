// Package aggregate maintains per-VLAN traffic counts for one feed generation
// and a bounded log of the raw events behind them.
//
// Neither type locks: both are owned by the single event loop that applies
// feed events and renders snapshots.
package aggregate

import (
	"fmt"
	"sort"

	"github.com/vlanwatch/vlanwatch/internal/ingest"
)

// UntaggedLabel is the snapshot label for packets without an 802.1Q id.
const UntaggedLabel = "Untagged"

// Entry is one row of a snapshot. VLAN is zero for the untagged row.
type Entry struct {
	Label string
	VLAN  uint16
	Count uint64
}

// Totals is a value copy of the counters behind a snapshot.
type Totals struct {
	Generation uint64
	Total      uint64
	Untagged   uint64
	ByVLAN     map[uint16]uint64
}

// Store counts events accepted under its current generation. Generation
// zero is never issued, so a retired store rejects every event.
type Store struct {
	generation uint64
	total      uint64
	untagged   uint64
	byVLAN     map[uint16]uint64
}

// NewStore returns an empty store with no current generation.
func NewStore() *Store {
	return &Store{byVLAN: make(map[uint16]uint64)}
}

// Generation returns the generation events must carry to be counted.
func (s *Store) Generation() uint64 {
	return s.generation
}

// Reset replaces all counts with an empty aggregate bound to gen.
func (s *Store) Reset(gen uint64) {
	s.generation = gen
	s.total = 0
	s.untagged = 0
	s.byVLAN = make(map[uint16]uint64)
}

// Retire empties the store and leaves it without a current generation.
func (s *Store) Retire() {
	s.Reset(0)
}

// Apply counts ev if gen is the current generation and reports whether it
// did. Stale events are dropped without touching any counter.
func (s *Store) Apply(ev ingest.PacketEvent, gen uint64) bool {
	if gen == 0 || gen != s.generation {
		return false
	}
	s.total++
	if ev.Tagged() {
		s.byVLAN[ev.VLAN]++
	} else {
		s.untagged++
	}
	return true
}

// Snapshot returns the untagged row first, even when zero, followed by VLAN
// ids in ascending order. The slice shares nothing with the store.
func (s *Store) Snapshot() []Entry {
	ids := make([]uint16, 0, len(s.byVLAN))
	for id := range s.byVLAN {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]Entry, 0, len(ids)+1)
	out = append(out, Entry{Label: UntaggedLabel, Count: s.untagged})
	for _, id := range ids {
		out = append(out, Entry{Label: VLANLabel(id), VLAN: id, Count: s.byVLAN[id]})
	}
	return out
}

// Totals returns a copy of the raw counters.
func (s *Store) Totals() Totals {
	by := make(map[uint16]uint64, len(s.byVLAN))
	for id, n := range s.byVLAN {
		by[id] = n
	}
	return Totals{
		Generation: s.generation,
		Total:      s.total,
		Untagged:   s.untagged,
		ByVLAN:     by,
	}
}

// Consistent reports whether total equals untagged plus every VLAN count.
func (t Totals) Consistent() bool {
	sum := t.Untagged
	for _, n := range t.ByVLAN {
		sum += n
	}
	return sum == t.Total
}

// VLANLabel renders the snapshot label for a VLAN id.
func VLANLabel(id uint16) string {
	return fmt.Sprintf("Vlan %d", id)
}
