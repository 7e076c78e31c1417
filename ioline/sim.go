package ioline

import "sync"

// Sim is an in-process Line+Monitor pair connecting a simulated card
// to a simulated reader, for use in tests and a loopback bench mode.
// The same transport state machine that drives real GPIO or on-chip
// pins drives a Sim unmodified.
type Sim struct {
	mu      sync.Mutex
	io      Level
	ioDrive bool // true: card is driving the line (to io); false: released (pulled high)
	rst     Level
	clk     Level
	vcc     Level
}

// NewSim returns a Sim with VCC present and RST/CLK/IO idle high, the
// steady state a card sees before the reader begins a session.
func NewSim() *Sim {
	return &Sim{io: High, rst: High, clk: High, vcc: High}
}

func (s *Sim) Drive(l Level) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ioDrive = true
	s.io = l
}

func (s *Sim) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ioDrive = false
	s.io = High
}

func (s *Sim) Sense() Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.io
}

func (s *Sim) RST() Level { s.mu.Lock(); defer s.mu.Unlock(); return s.rst }
func (s *Sim) CLK() Level { s.mu.Lock(); defer s.mu.Unlock(); return s.clk }
func (s *Sim) VCC() Level { s.mu.Lock(); defer s.mu.Unlock(); return s.vcc }

// Reader-side controls, used by tests to drive the simulated reader
// half of the contact set.

// SetRST sets the reset line as the reader would.
func (s *Sim) SetRST(l Level) { s.mu.Lock(); s.rst = l; s.mu.Unlock() }

// SetCLK sets the clock line as the reader would.
func (s *Sim) SetCLK(l Level) { s.mu.Lock(); s.clk = l; s.mu.Unlock() }

// SetVCC sets the supply line as the reader would.
func (s *Sim) SetVCC(l Level) { s.mu.Lock(); s.vcc = l; s.mu.Unlock() }

// ReaderSense reads the I/O line as the reader would: high whenever
// the card has released it, low only while the card actively drives
// it low. A reader driving the line itself (to send a bit to the
// card) is out of scope for this simulator; tests drive bytes through
// the transport's receive path directly.
func (s *Sim) ReaderSense() Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.io
}
