package rtclient

import "sync"

// Dedup is a bounded set of processed message ids. A message can arrive
// twice, once as a REST response and once as a socket push; whichever lands
// second is suppressed. When the bound is hit the oldest id is evicted FIFO.
type Dedup struct {
	mu    sync.Mutex
	cap   int
	seen  map[string]struct{}
	order []string
}

const defaultDedupCapacity = 1000

// NewDedup builds a dedup set holding at most capacity ids
func NewDedup(capacity int) *Dedup {
	if capacity <= 0 {
		capacity = defaultDedupCapacity
	}
	return &Dedup{
		cap:  capacity,
		seen: map[string]struct{}{},
	}
}

// IsProcessed reports whether the id was already marked. Empty ids always
// read as processed so callers drop messages without an id.
func (d *Dedup) IsProcessed(id string) bool {
	if id == "" {
		return true
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.seen[id]
	return ok
}

// MarkProcessed records the id, evicting the oldest entry at capacity.
// Marking an already-present id is a no-op.
func (d *Dedup) MarkProcessed(id string) {
	if id == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return
	}
	if len(d.order) >= d.cap {
		oldest := d.order[0]
		d.order = d.order[1:]
		delete(d.seen, oldest)
	}
	d.seen[id] = struct{}{}
	d.order = append(d.order, id)
}

// Clear empties the set
func (d *Dedup) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen = map[string]struct{}{}
	d.order = nil
}

// Len returns the number of tracked ids
func (d *Dedup) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.order)
}
