//go:build !tinygo

package main

import (
	"usimcos.dev/ioline"
	"usimcos.dev/timing"
)

// Pin names as periph.io's gpiod backend resolves them; override for
// the bench board's actual wiring.
const (
	hostIOPin  = "GPIO17"
	hostRSTPin = "GPIO27"
	hostCLKPin = "GPIO22"
	hostVCCPin = "GPIO23"
)

// openPlatform opens the Linux-hosted GPIO backend (periph.io) and a
// wall-clock tick source standing in for the on-chip timer peripheral.
func openPlatform() (ioline.Line, ioline.Monitor, timing.Source, error) {
	if err := ioline.Init(); err != nil {
		return nil, nil, nil, err
	}
	gp, err := ioline.OpenGPIO(hostIOPin, hostRSTPin, hostCLKPin, hostVCCPin)
	if err != nil {
		return nil, nil, nil, err
	}
	// 1MHz is a convenient round tick rate; absolute scale doesn't
	// matter, since updateClockFromReader recalibrates the ETU against
	// the reader's own clock on every reset.
	return gp, gp, timing.NewWallClock(1_000_000), nil
}
