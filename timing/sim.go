package timing

import "time"

// WallClock is a Source backed by the host's monotonic clock, for use
// in tests and the hosted/simulated card target where no on-chip timer
// peripheral exists. TicksPerSecond fixes the tick rate; the transport
// only ever deals in tick counts, never wall-clock units directly.
type WallClock struct {
	TicksPerSecond uint32
	epoch          time.Time
}

// NewWallClock returns a WallClock ticking at the given rate, with its
// epoch set to now.
func NewWallClock(ticksPerSecond uint32) *WallClock {
	return &WallClock{TicksPerSecond: ticksPerSecond, epoch: time.Now()}
}

func (w *WallClock) Ticks() uint32 {
	d := time.Since(w.epoch)
	return uint32(d.Seconds() * float64(w.TicksPerSecond))
}

// Manual is a Source a test can advance by hand, with no relation to
// wall-clock time at all.
type Manual struct {
	ticks uint32
}

func (m *Manual) Ticks() uint32 { return m.ticks }

// Advance moves the clock forward by n ticks.
func (m *Manual) Advance(n uint32) { m.ticks += n }
