//go:build !tinygo

// Hosted backend for ioline.Line/Monitor, built on periph.io's GPIO
// abstraction (periph.io/x/conn/v3/gpio, periph.io/x/host/v3). Same
// Line/Monitor contract as the bare-metal MCU backend, driven through
// a character-device GPIO chip instead of bare registers.
package ioline

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/host/v3"
)

// GPIO drives the SIM contacts through periph.io gpio.PinIO handles.
// The IO pin is configured open-drain in spirit: Drive/Release toggle
// it between output-low and input (high-Z, relying on the reader's
// pull-up).
type GPIO struct {
	io, rst, clk, vcc gpio.PinIO
}

// Init registers periph.io's host drivers. Call once before OpenGPIO.
func Init() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("ioline: periph host init: %w", err)
	}
	return nil
}

// OpenGPIO looks up the four named pins and returns a ready GPIO line.
func OpenGPIO(ioName, rstName, clkName, vccName string) (*GPIO, error) {
	lookup := func(name string) (gpio.PinIO, error) {
		p := gpio.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("ioline: unknown pin %q", name)
		}
		return p, nil
	}
	io, err := lookup(ioName)
	if err != nil {
		return nil, err
	}
	rst, err := lookup(rstName)
	if err != nil {
		return nil, err
	}
	clk, err := lookup(clkName)
	if err != nil {
		return nil, err
	}
	vcc, err := lookup(vccName)
	if err != nil {
		return nil, err
	}
	if err := rst.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("ioline: RST input: %w", err)
	}
	if err := clk.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("ioline: CLK input: %w", err)
	}
	if err := vcc.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("ioline: VCC input: %w", err)
	}
	if err := io.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("ioline: IO input: %w", err)
	}
	return &GPIO{io: io, rst: rst, clk: clk, vcc: vcc}, nil
}

func level(l gpio.Level) Level { return Level(l == gpio.High) }

func (g *GPIO) Drive(l Level) {
	if l == High {
		g.io.In(gpio.PullUp, gpio.NoEdge)
		return
	}
	g.io.Out(gpio.Low)
}

func (g *GPIO) Release() {
	g.io.In(gpio.PullUp, gpio.NoEdge)
}

func (g *GPIO) Sense() Level { return level(g.io.Read()) }
func (g *GPIO) RST() Level   { return level(g.rst.Read()) }
func (g *GPIO) CLK() Level   { return level(g.clk.Read()) }
func (g *GPIO) VCC() Level   { return level(g.vcc.Read()) }
