package main

import (
	"errors"
	"io"
	"runtime"

	"github.com/tarm/serial"
)

// Open mirrors driver/mjolnir/device.go's reader-open pattern: an
// explicit device name wins, otherwise fall back to the usual
// per-OS USB-serial defaults and take the first one that opens.
func Open(dev string) (io.ReadWriteCloser, error) {
	const baudRate = 115200

	var devices []string
	if dev != "" {
		devices = append(devices, dev)
	} else {
		switch runtime.GOOS {
		case "windows":
			devices = append(devices, "COM3")
		case "linux":
			devices = append(devices, "/dev/ttyUSB0", "/dev/ttyUSB1")
		}
	}
	if len(devices) == 0 {
		return nil, errors.New("no device specified")
	}

	var firstErr error
	for _, d := range devices {
		c := &serial.Config{Name: d, Baud: baudRate}
		s, err := serial.OpenPort(c)
		if err == nil {
			return s, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}
