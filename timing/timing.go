// Package timing provides the monotonic tick source (C1) the T=0
// transport builds its ETU discipline on. The card never sleeps the
// way a hosted program would: every wait is a busy-wait expressed in
// ticks of an abstract clock, so the same transport state machine runs
// unmodified on a bare-metal timer peripheral or a host simulation.
package timing

// Source is a monotonic tick counter. Ticks only increase (wrapping
// is the caller's problem, same as a hardware cycle counter), and
// every wait is done by polling the count — there is no notion of
// sleeping the goroutine/core.
type Source interface {
	// Ticks returns the current tick count.
	Ticks() uint32
}

// Elapsed reports whether at least n ticks have passed since start,
// accounting for uint32 wraparound.
func Elapsed(src Source, start uint32, n uint32) bool {
	return src.Ticks()-start >= n
}

// Spin busy-waits until n ticks have elapsed, polling src as fast as
// the caller can. This is the host/embedded-agnostic equivalent of the
// firmware's guarded timer spin.
func Spin(src Source, n uint32) {
	start := src.Ticks()
	for !Elapsed(src, start, n) {
	}
}

// Guard polls fn until it returns true or maxTicks have elapsed since
// the call began, returning false on timeout. It is the shared shape
// behind CLK-edge polling, RST-edge polling, and byte-reception
// timeouts throughout the transport.
func Guard(src Source, maxTicks uint32, fn func() bool) bool {
	start := src.Ticks()
	for {
		if fn() {
			return true
		}
		if Elapsed(src, start, maxTicks) {
			return false
		}
	}
}
