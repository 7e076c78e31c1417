// Package transport implements the ISO/IEC 7816-3 T=0 byte-level
// transport (C3): ETU calibration from the reader clock, the
// reset/ATR gate, bit-banged byte framing with parity, the RX
// prefetch LIFO, and PPS negotiation. Grounded on original_source's
// chip_init.c, generalized from THC20F17BD register access to the
// ioline.Line/Monitor and timing.Source interfaces so the same state
// machine runs on bare metal or a hosted simulation, per the
// "cooperative bit-bang transport" design note.
package transport

import (
	"log"

	"usimcos.dev/ioline"
	"usimcos.dev/timing"
)

// Tick-count constants, all in units of Clock.Ticks(). Values mirror
// the firmware's own guard counts; they are not calibrated to any
// particular hardware clock rate, since Source is an abstract tick
// counter on every backend.
const (
	MinETUTicks     = 8
	MaxETUTicks     = 65535
	DefaultETUTicks = 372 / 4 // SIM_ETU_FACTOR / SIM_MACHINE_CYCLE_DIV

	ATRGuardETUs = 420

	MeasureGuard        = 200000
	PPSStartTimeout     = 120000
	PPSInterbyteTimeout = 60000
	VCCFallbackIter     = 80000

	PrefetchCapacity = 8

	// PollQuantum is the tick budget charged per iteration of a
	// polling loop (CLK edge search, reset-gate polling); it stands
	// in for the firmware's delay_ms(1)/quarter-ETU politeness delay.
	PollQuantum = 1
)

// ATR is the fixed 15-byte Answer To Reset this card always emits
// after a reset (§6).
var ATR = [15]byte{0x3B, 0x9F, 0x96, 0x80, 0x1F, 0xC7, 0x80, 0x31, 0xE0, 0x73, 0xFE, 0x21, 0x13, 0x57, 0x4A}

// Logger is the minimal interface transport uses for its
// non-normative debug channel; a *log.Logger satisfies it directly.
type Logger interface {
	Printf(format string, v ...any)
}

// NopLogger discards every message; it is the zero-cost default so
// disabling logging has no observable effect (§6).
type NopLogger struct{}

func (NopLogger) Printf(string, ...any) {}

var _ Logger = NopLogger{}
var _ Logger = (*log.Logger)(nil)

// Transport drives the T=0 state machine over an I/O line and a
// RST/CLK/VCC monitor. There is exactly one instance per card; it is
// not safe for concurrent use, matching the single-actor concurrency
// model (§5).
type Transport struct {
	io    ioline.Line
	mon   ioline.Monitor
	clock timing.Source
	log   Logger

	etuTicks     uint32
	halfETU      uint32
	quarterETU   uint32
	etuReady     bool
	vccPresent   bool
	resetPending bool
	atrReady     bool
	rstLast      ioline.Level
	pollCounter  uint32
	ppsProcessed bool

	prefetch prefetchStack
}

// New returns a Transport ready for its first reset. It mirrors
// chip_init's initial state: ETU defaulted (not yet calibrated), VCC
// sampled once, reset considered pending, so the first poll that sees
// RST high completes it.
func New(io ioline.Line, mon ioline.Monitor, clock timing.Source, logger Logger) *Transport {
	if logger == nil {
		logger = NopLogger{}
	}
	t := &Transport{io: io, mon: mon, clock: clock, log: logger}
	t.setETUTicks(DefaultETUTicks)
	t.etuReady = true
	t.vccPresent = mon.VCC() == ioline.High
	t.resetPending = true
	t.io.Release()
	return t
}

func (t *Transport) setETUTicks(ticks uint32) {
	if ticks < MinETUTicks {
		ticks = MinETUTicks
	} else if ticks > MaxETUTicks {
		ticks = MaxETUTicks
	}
	t.etuTicks = ticks
	t.halfETU = ticks / 2
	if t.halfETU == 0 {
		t.halfETU = 1
	}
	t.quarterETU = ticks / 4
	if t.quarterETU == 0 {
		t.quarterETU = 1
	}
}

func (t *Transport) delayTicks(n uint32) { timing.Spin(t.clock, n) }
func (t *Transport) delayETUs(n int) {
	for i := 0; i < n; i++ {
		t.delayTicks(t.etuTicks)
	}
}
func (t *Transport) delayQuarterETU() { t.delayTicks(t.quarterETU) }

// measureClockPeriod polls CLK for one full high-low-high cycle and
// returns its duration in ticks, or ok=false if any guard expires.
func (t *Transport) measureClockPeriod() (uint32, bool) {
	// waitWhile blocks until CLK leaves level l (or MeasureGuard ticks
	// pass), mirroring a "while (CLK == l)" spin with a bounded guard.
	waitWhile := func(l ioline.Level) bool {
		return timing.Guard(t.clock, MeasureGuard, func() bool { return t.mon.CLK() != l })
	}
	if !waitWhile(ioline.High) {
		return 0, false
	}
	if !waitWhile(ioline.Low) {
		return 0, false
	}
	start := t.clock.Ticks()
	if !waitWhile(ioline.High) {
		return 0, false
	}
	if !waitWhile(ioline.Low) {
		return 0, false
	}
	return t.clock.Ticks() - start, true
}

func (t *Transport) updateClockFromReader() {
	period, ok := t.measureClockPeriod()
	if ok {
		t.setETUTicks(period * 372)
		t.etuReady = true
		t.log.Printf("transport: clock synchronised\n")
		return
	}
	if !t.etuReady {
		t.setETUTicks(DefaultETUTicks)
		t.etuReady = true
	}
	t.log.Printf("transport: clock measurement fallback\n")
}

func (t *Transport) prepareAfterReset() {
	t.updateClockFromReader()
	t.io.Release()
	t.prefetch.clear()
	t.ppsProcessed = false
}

// poll advances the reset-gate state machine by one step; it is the
// non-blocking primitive both WaitForATRWindow and
// DetectResetRequest build on.
func (t *Transport) poll() {
	t.pollCounter++
	if !t.vccPresent {
		switch {
		case t.mon.VCC() == ioline.High:
			t.vccPresent = true
			t.log.Printf("transport: VCC detected\n")
		case t.pollCounter > VCCFallbackIter:
			t.vccPresent = true
			t.log.Printf("transport: assuming VCC present\n")
		default:
			return
		}
	}
	rstState := t.mon.RST()
	switch {
	case rstState == ioline.Low:
		t.resetPending = true
	case t.resetPending && t.rstLast == ioline.Low:
		t.prepareAfterReset()
		t.atrReady = true
		t.resetPending = false
		t.pollCounter = 0
		t.log.Printf("transport: ISO7816 reset detected\n")
	}
	t.rstLast = rstState
}

// WaitForATRWindow blocks until a reset has been observed and the
// post-reset guard time has elapsed, then returns true. Callers
// transmit the ATR immediately afterward.
func (t *Transport) WaitForATRWindow() bool {
	for !t.atrReady {
		t.poll()
		t.delayTicks(PollQuantum)
	}
	t.atrReady = false
	if !t.etuReady {
		t.setETUTicks(DefaultETUTicks)
		t.etuReady = true
	}
	t.delayETUs(ATRGuardETUs)
	return true
}

// DetectResetRequest is the non-blocking probe the main loop uses
// between commands: it advances the reset gate and reports whether a
// reset just completed (in which case PPS state and the RX prefetch
// have already been cleared, and the caller must resend the ATR).
func (t *Transport) DetectResetRequest() bool {
	t.poll()
	if !t.atrReady {
		return false
	}
	t.atrReady = false
	if !t.etuReady {
		t.setETUTicks(DefaultETUTicks)
		t.etuReady = true
	}
	t.delayETUs(ATRGuardETUs)
	t.prefetch.clear()
	t.ppsProcessed = false
	return true
}

// SendATR transmits the fixed ATR byte sequence.
func (t *Transport) SendATR() {
	for _, b := range ATR {
		t.SendByte(b)
	}
}
