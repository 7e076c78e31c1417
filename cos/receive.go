package cos

import (
	"usimcos.dev/apdu"
	"usimcos.dev/transport"
)

// RX timeouts mirror the same tuning transport uses for its own PPS
// exchange (original_source's SIM_RX_START_TIMEOUT/SIM_RX_INTERBYTE_TIMEOUT
// use the identical two values).
const (
	rxStartTimeout     = transport.PPSStartTimeout
	rxInterbyteTimeout = transport.PPSInterbyteTimeout

	procedureNull = 0x60
)

// insRequiresLc reports whether P3 following this INS is Lc (command
// carries data) rather than Le (command only asks for a response).
func insRequiresLc(ins byte) bool {
	switch ins {
	case 0xA4, 0xD6, 0x20, 0x24, 0x88: // SELECT, UPDATE BINARY, VERIFY/CHANGE CHV, AUTHENTICATE
		return true
	case 0x81, 0xC3: // USAT DATA DOWNLOAD, ENVELOPE
		return true
	case 0xD0, 0xA0: // WRITE CONFIG, XOR AUTH
		return true
	default:
		return false
	}
}

// receiveCommand runs the C9 side of one APDU: read the 4-byte header,
// then either a header-only NULL procedure byte or an INS-echoed data
// phase, per §4.3. It returns ok=false if a reset or RX timeout
// aborted the exchange before a full command was assembled.
func receiveCommand(t *transport.Transport) (raw []byte, ok bool) {
	var header [4]byte
	b, rok := t.ReceiveByte(rxStartTimeout)
	if !rok {
		return nil, false
	}
	header[0] = b
	for i := 1; i < 4; i++ {
		b, rok = t.ReceiveByte(rxInterbyteTimeout)
		if !rok {
			return nil, false
		}
		header[i] = b
	}

	p3, rok := t.ReceiveByte(rxInterbyteTimeout)
	if !rok {
		t.SendByte(procedureNull)
		return header[:], true
	}

	buf := append(append([]byte{}, header[:]...), p3)

	if insRequiresLc(header[1]) {
		lc := int(p3)
		if lc == 0 {
			return buf, true
		}
		t.SendByte(header[1])
		for i := 0; i < lc; i++ {
			b, rok = t.ReceiveByte(rxInterbyteTimeout)
			if !rok {
				return nil, false
			}
			buf = append(buf, b)
		}
		if le, lok := t.ReceiveByte(rxInterbyteTimeout); lok {
			buf = append(buf, le)
		}
		return buf, true
	}

	// Case 2: p3 is Le, no data phase.
	return buf, true
}

// Run drives the power-on and reset handshake and the APDU receive
// loop forever: wait for ATR, send it, attempt PPS once, then process
// commands until a reset is observed, at which point session and
// subscriber state reinitialize and the ATR and PPS attempt repeat
// (§4.3, §4.6).
func (c *Card) Run(t *transport.Transport) {
	c.handshake(t)
	for {
		if t.DetectResetRequest() {
			c.Log.Printf("cos: ISO7816 reset, reinitializing session\n")
			c.Reset()
			// DetectResetRequest has already waited out the ATR guard
			// time, so the ATR goes out immediately.
			t.SendATR()
			t.RunPPS()
			continue
		}
		raw, ok := receiveCommand(t)
		if !ok || len(raw) == 0 {
			continue
		}
		cmd, ok := apdu.Parse(raw)
		var resp apdu.Response
		if !ok {
			resp = apdu.Response{SW: apdu.SWWrongLength}
		} else {
			resp = c.Dispatch(cmd)
		}
		for _, b := range apdu.Marshal(resp) {
			if !t.SendByte(b) {
				break
			}
		}
	}
}

func (c *Card) handshake(t *transport.Transport) {
	if !t.WaitForATRWindow() {
		c.Log.Printf("cos: ATR window failed\n")
		return
	}
	t.SendATR()
	t.RunPPS()
}
