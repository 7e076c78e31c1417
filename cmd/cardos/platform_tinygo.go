//go:build tinygo

package main

import (
	"machine"

	"usimcos.dev/ioline"
	"usimcos.dev/timing"
)

// openPlatform configures the bare-metal I/O/RST/CLK/VCC pins and a
// wall-clock tick source (TinyGo's time package runs on the chip's
// own monotonic timer, same as on the host).
func openPlatform() (ioline.Line, ioline.Monitor, timing.Source, error) {
	mcu := ioline.NewMCU(machine.GPIO2, machine.GPIO3, machine.GPIO4, machine.GPIO5)
	return mcu, mcu, timing.NewWallClock(1_000_000), nil
}
