package transport

import "usimcos.dev/ioline"

// SendByte transmits one octet in T=0 direct convention: a low start
// bit, 8 data bits LSB-first, an even-parity bit, and a released stop
// bit, each held for one ETU (§4.1).
func (t *Transport) SendByte(data byte) bool {
	if !t.etuReady {
		t.setETUTicks(DefaultETUTicks)
		t.etuReady = true
	}

	t.io.Drive(ioline.Low)
	t.delayTicks(t.etuTicks)

	var parity byte
	for i := 0; i < 8; i++ {
		if data&0x01 != 0 {
			t.io.Release()
			parity ^= 1
		} else {
			t.io.Drive(ioline.Low)
		}
		t.delayTicks(t.etuTicks)
		data >>= 1
	}

	if parity != 0 {
		t.io.Release()
	} else {
		t.io.Drive(ioline.Low)
	}
	t.delayTicks(t.etuTicks)

	t.io.Release()
	t.delayTicks(t.etuTicks)
	t.delayTicks(t.halfETU)
	return true
}

// ReceiveByte waits up to timeoutTicks (in quarter-ETU polling units;
// 0 means MeasureGuard) for a start bit, then samples 8 data bits,
// parity, and stop at mid-bit per §4.1. Parity/stop violations are
// logged but the byte is still returned; recovery is left to the
// reader via T=0 procedure bytes. A reset observed mid-wait aborts the
// receive.
func (t *Transport) ReceiveByte(timeoutTicks uint32) (byte, bool) {
	if b, ok := t.prefetch.pop(); ok {
		return b, true
	}

	if !t.etuReady {
		t.setETUTicks(DefaultETUTicks)
		t.etuReady = true
	}
	if timeoutTicks == 0 {
		timeoutTicks = MeasureGuard
	}

	t.io.Release()

	guard := timeoutTicks
	found := false
	for guard > 0 {
		if t.io.Sense() == ioline.Low {
			found = true
			break
		}
		t.delayQuarterETU()
		guard--
		t.poll()
		if t.atrReady {
			return 0, false
		}
	}
	if !found && t.io.Sense() != ioline.Low {
		return 0, false
	}

	t.delayTicks(t.halfETU)
	if t.io.Sense() != ioline.Low {
		return 0, false
	}
	t.delayTicks(t.etuTicks)

	var value byte
	var parity byte
	for i := 0; i < 8; i++ {
		if t.io.Sense() == ioline.High {
			value |= 1 << i
			parity ^= 1
		}
		t.delayTicks(t.etuTicks)
	}

	parityBit := t.io.Sense()
	t.delayTicks(t.etuTicks)

	stopBit := t.io.Sense()
	t.delayTicks(t.etuTicks)
	t.delayTicks(t.halfETU)

	wantParity := parityBit == ioline.High
	if (parity != 0) != wantParity {
		t.log.Printf("transport: RX parity error\n")
	}
	if stopBit != ioline.High {
		t.log.Printf("transport: RX stop bit missing\n")
	}

	return value, true
}
