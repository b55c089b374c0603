package runtime

import (
	"sync"
	"time"
)

// DefaultSlotDuration is the target slot length of a TickClock.
const DefaultSlotDuration = 400 * time.Millisecond

// Clock supplies the current slot.
type Clock interface {
	Slot() uint64
}

// TickClock derives the slot from wall time elapsed since genesis.
type TickClock struct {
	genesis      time.Time
	slotDuration time.Duration
	now          func() time.Time
}

// NewTickClock returns a clock starting at slot 0 at genesis.
func NewTickClock(genesis time.Time, slotDuration time.Duration) *TickClock {
	if slotDuration <= 0 {
		slotDuration = DefaultSlotDuration
	}
	return &TickClock{genesis: genesis, slotDuration: slotDuration, now: time.Now}
}

// Slot returns the number of whole slots since genesis.
func (c *TickClock) Slot() uint64 {
	elapsed := c.now().Sub(c.genesis)
	if elapsed < 0 {
		return 0
	}
	return uint64(elapsed / c.slotDuration)
}

// ManualClock is a clock advanced explicitly, for tests and replay.
type ManualClock struct {
	mu   sync.Mutex
	slot uint64
}

// NewManualClock returns a clock at slot.
func NewManualClock(slot uint64) *ManualClock {
	return &ManualClock{slot: slot}
}

func (c *ManualClock) Slot() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slot
}

// Advance moves the clock forward by n slots.
func (c *ManualClock) Advance(n uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slot += n
}

// Set moves the clock to slot. Slots never go backwards.
func (c *ManualClock) Set(slot uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if slot > c.slot {
		c.slot = slot
	}
}
