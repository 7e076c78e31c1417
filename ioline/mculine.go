//go:build tinygo

// Bare-metal backend for ioline.Line/Monitor, driving machine.Pin
// directly. This is the actual smart-card microcontroller target: the
// IO pin is reconfigured between PinOutput (driving low) and
// PinInputPullup (released, sampling the reader's drive) on every
// Drive/Release call, exactly as a T=0 open-drain contact must behave.
package ioline

import "machine"

// MCU drives the SIM contacts through machine.Pin.
type MCU struct {
	io, rst, clk, vcc machine.Pin
}

// NewMCU configures the four pins and returns a ready MCU line. The IO
// pin starts released (input, pulled up).
func NewMCU(io, rst, clk, vcc machine.Pin) *MCU {
	rst.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	clk.Configure(machine.PinConfig{Mode: machine.PinInput})
	vcc.Configure(machine.PinConfig{Mode: machine.PinInput})
	io.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return &MCU{io: io, rst: rst, clk: clk, vcc: vcc}
}

func (m *MCU) Drive(l Level) {
	if l == High {
		m.Release()
		return
	}
	m.io.Configure(machine.PinConfig{Mode: machine.PinOutput})
	m.io.Low()
}

func (m *MCU) Release() {
	m.io.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
}

func (m *MCU) Sense() Level { return Level(m.io.Get()) }
func (m *MCU) RST() Level   { return Level(m.rst.Get()) }
func (m *MCU) CLK() Level   { return Level(m.clk.Get()) }
func (m *MCU) VCC() Level   { return Level(m.vcc.Get()) }
