// command bench is the host-side reader tool: it drives a card over a
// serial link with raw APDU bytes, optionally provisioning it from a
// CBOR subscriber profile first, and logs the exchange as hex traces.
// Output goes through a console writer that can render ANSI colors on
// Windows too, but the traces themselves carry no color codes.
package main

import (
	"bufio"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"usimcos.dev/profile"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "bench: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	port := flag.String("port", "", "serial device carrying the card's raw T=0 byte stream")
	profilePath := flag.String("profile", "", "CBOR-encoded subscriber profile to provision before the script runs")
	flag.Parse()

	dev, err := Open(*port)
	if err != nil {
		return fmt.Errorf("open reader: %w", err)
	}
	defer dev.Close()

	out := consoleWriter()

	if *profilePath != "" {
		if err := provision(dev, out, *profilePath); err != nil {
			return fmt.Errorf("provision: %w", err)
		}
	}

	return runScript(dev, out, defaultScript())
}

// consoleWriter returns a writer that renders ANSI color codes
// correctly even on a Windows console, and falls back to stdout
// unmodified when it isn't a terminal at all (e.g. redirected to a
// file in CI).
func consoleWriter() io.Writer {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return os.Stdout
	}
	return colorable.NewColorableStdout()
}

// provision pushes a profile's subscriber identity over the WRITE
// CONFIG surface (§12): IMSI, Ki, OPc and PIN, in that order.
func provision(rw io.ReadWriter, out io.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	p, err := profile.Decode(data)
	if err != nil {
		return err
	}
	writes := []struct {
		dataType byte
		payload  []byte
	}{
		{0x01, p.IMSI[:]},
		{0x02, p.Ki[:]},
		{0x03, p.OPc[:]},
		{0x04, p.PIN1[:]},
	}
	for _, w := range writes {
		cmd := append([]byte{0x80, 0xD0, w.dataType, 0x00, byte(len(w.payload))}, w.payload...)
		if err := exchange(rw, out, cmd); err != nil {
			return err
		}
	}
	return nil
}

// script is a named sequence of hex command APDUs exercised in order.
type script struct {
	name     string
	commands [][]byte
}

// defaultScript mirrors the spec's end-to-end scenario 1: select MF,
// verify the default PIN, select EF_AD, read it.
func defaultScript() script {
	return script{
		name: "select-verify-read",
		commands: [][]byte{
			{0xA0, 0xA4, 0x00, 0x00, 0x02, 0x3F, 0x00},
			{0xA0, 0x20, 0x00, 0x01, 0x08, 0x30, 0x30, 0x30, 0x30, 0xFF, 0xFF, 0xFF, 0xFF},
			{0xA0, 0xA4, 0x00, 0x00, 0x02, 0x6F, 0xAD},
			{0xA0, 0xB0, 0x00, 0x00, 0x02},
		},
	}
}

func runScript(rw io.ReadWriter, out io.Writer, s script) error {
	fmt.Fprintf(out, "bench: running %q\n", s.name)
	for _, cmd := range s.commands {
		if err := exchange(rw, out, cmd); err != nil {
			return err
		}
	}
	return nil
}

// exchange writes one command APDU and reads back its response,
// logging both sides as hex. The reader/relay on the other end of the
// serial link is expected to already terminate the response at
// SW1SW2; bench does not itself speak T=0 byte framing.
func exchange(rw io.ReadWriter, out io.Writer, cmd []byte) error {
	fmt.Fprintf(out, ">> %s\n", hex.EncodeToString(cmd))
	if _, err := rw.Write(cmd); err != nil {
		return fmt.Errorf("write command: %w", err)
	}
	r := bufio.NewReader(rw)
	resp := make([]byte, 2, 258)
	if _, err := io.ReadFull(r, resp[:2]); err != nil {
		return fmt.Errorf("read SW: %w", err)
	}
	fmt.Fprintf(out, "<< %s\n", hex.EncodeToString(resp))
	return nil
}
