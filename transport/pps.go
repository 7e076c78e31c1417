package transport

// RunPPS attempts the PPS exchange exactly once per reset (§4.1). It
// is idempotent: once ppsProcessed is set, subsequent calls return
// immediately. A reset (DetectResetRequest returning true) clears
// ppsProcessed so the next session gets its own attempt.
func (t *Transport) RunPPS() bool {
	if t.ppsProcessed {
		return true
	}

	firstByte, ok := t.ReceiveByte(PPSStartTimeout)
	if !ok {
		t.ppsProcessed = true
		return true
	}
	consumed := []byte{firstByte}

	if firstByte != 0xFF {
		t.prefetch.pushBack(consumed)
		t.ppsProcessed = true
		return true
	}

	pps0, ok := t.ReceiveByte(PPSInterbyteTimeout)
	if !ok {
		t.prefetch.pushBack(consumed)
		t.ppsProcessed = true
		return true
	}
	consumed = append(consumed, pps0)

	if pps0 < 0x10 || pps0 > 0x1F {
		t.prefetch.pushBack(consumed)
		t.ppsProcessed = true
		return true
	}

	optionalMask := pps0 & 0x0F
	xorAcc := firstByte ^ pps0
	var optionalBytes []byte
	for i := 0; i < 3; i++ {
		if optionalMask&(1<<uint(i)) == 0 {
			continue
		}
		b, ok := t.ReceiveByte(PPSInterbyteTimeout)
		if !ok {
			t.ppsProcessed = true
			return true
		}
		consumed = append(consumed, b)
		xorAcc ^= b
		optionalBytes = append(optionalBytes, b)
	}

	pck, ok := t.ReceiveByte(PPSInterbyteTimeout)
	if !ok {
		t.ppsProcessed = true
		return true
	}
	consumed = append(consumed, pck)
	xorAcc ^= pck

	if xorAcc != 0 {
		t.log.Printf("transport: PPS checksum mismatch - treating as APDU\n")
		t.prefetch.pushBack(consumed)
		t.ppsProcessed = true
		return true
	}

	t.ppsProcessed = true

	if pps0&0xF0 != 0x10 {
		t.log.Printf("transport: PPS protocol unsupported\n")
		return true
	}
	if optionalMask&0x08 != 0 {
		t.log.Printf("transport: PPS reserved bits set\n")
		return true
	}
	if len(optionalBytes) > 0 {
		t.log.Printf("transport: PPS parameter change ignored\n")
		return true
	}

	if !t.SendByte(firstByte) {
		return false
	}
	if !t.SendByte(pps0) {
		return false
	}
	if !t.SendByte(pck) {
		return false
	}
	t.log.Printf("transport: PPS echoed\n")
	return true
}
