// command cardos is the card-side firmware entrypoint. It wires a
// platform's I/O line, reset/clock monitor and tick source to the
// dispatcher and runs the receive loop forever. Split by build tag
// into a TinyGo target (platform_tinygo.go) and a Linux-hosted target
// (platform_host.go) for running against a real or simulated reader.
package main

import (
	"log"

	"usimcos.dev/cos"
	_ "usimcos.dev/cos/configapdu"
	_ "usimcos.dev/cos/usat"
	"usimcos.dev/transport"
)

// Feature gates mirror the original firmware's compile-time
// USIM_ENABLE_CONFIG_APDU/USIM_ENABLE_USAT flags, both off by default.
const (
	configEnabled = false
	usatEnabled   = false
)

func main() {
	logger := log.Default()
	io, mon, clock, err := openPlatform()
	if err != nil {
		logger.Fatalf("cardos: platform init: %v", err)
	}
	t := transport.New(io, mon, clock, logger)

	card := cos.New(logger)
	card.ConfigEnabled = configEnabled
	card.USATEnabled = usatEnabled

	logger.Printf("cardos: ready (v%d.%d)\n", cos.VersionMajor, cos.VersionMinor)
	card.Run(t)
}
