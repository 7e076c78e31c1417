// Package auth implements the Milenage-shaped authentication engine
// (§4.5) a 3GPP TS 33.102 UMTS AKA run would normally drive: a
// deliberately-mocked XOR algorithm mixes RAND, Ki and OPc into a full
// 16-byte T array and derives a RES/CK/IK/AK/Kc tuple from it, in
// place of the real f1-f5 functions.
package auth

// Tuple is the full derived-key output of one AUTHENTICATE run.
type Tuple struct {
	RES [8]byte
	CK  [16]byte
	IK  [16]byte
	AK  [6]byte
	Kc  [8]byte
}

// Run derives a Tuple from RAND, Ki and OPc per §4.5's XOR algorithm.
func Run(rand, ki, opc [16]byte) Tuple {
	var t [16]byte
	for i := range t {
		t[i] = rand[i] ^ ki[i] ^ opc[i]
	}

	var out Tuple
	for i := 0; i < 8; i++ {
		out.RES[i] = (t[i] & 0x0F) | ((t[i+8] & 0x0F) << 4)
	}
	for i := 0; i < 16; i++ {
		out.CK[i] = rand[i] ^ ki[(i+3)%16] ^ opc[(i+7)%16]
	}
	for i := 0; i < 16; i++ {
		out.IK[i] = rand[(i+5)%16] ^ ki[(i+11)%16] ^ opc[(i+13)%16]
	}
	for i := 0; i < 6; i++ {
		out.AK[i] = rand[i+2] ^ ki[i+5] ^ opc[i+9]
	}
	for i := 0; i < 8; i++ {
		out.Kc[i] = out.CK[i] ^ out.CK[i+8]
	}
	return out
}

// Response serializes a Tuple as RES||CK||IK||AK||Kc, the 54-byte
// AUTHENTICATE success payload.
func (t Tuple) Response() []byte {
	out := make([]byte, 0, 8+16+16+6+8)
	out = append(out, t.RES[:]...)
	out = append(out, t.CK[:]...)
	out = append(out, t.IK[:]...)
	out = append(out, t.AK[:]...)
	out = append(out, t.Kc[:]...)
	return out
}

// GenerateDerivedKeys stretches input against mask into outputLen
// bytes of derived key material, independent of any RAND/Ki/OPc
// AUTHENTICATE run. Used to acknowledge an SMS-PP packet with key
// material derived from its own contents.
func GenerateDerivedKeys(input []byte, mask [16]byte, outputLen int) []byte {
	out := make([]byte, outputLen)
	for i := range out {
		out[i] = input[i%len(input)] ^ mask[i%16]
	}
	return out
}

// VerifyIntegrity recomputes the XOR-stream MAC over data with the
// fixed mask and reports whether it matches expectedMAC, the
// usim_verify_data_integrity primitive original_source exposes as a
// standalone data-authenticity check independent of AUTHENTICATE.
func VerifyIntegrity(data []byte, mask [16]byte, expectedMAC []byte) bool {
	mac := make([]byte, len(expectedMAC))
	for i := range mac {
		var v byte
		for j := 0; j < len(data); j++ {
			v ^= data[j] ^ mask[(i+j)%16]
		}
		mac[i] = v
	}
	if len(mac) != len(expectedMAC) {
		return false
	}
	for i := range mac {
		if mac[i] != expectedMAC[i] {
			return false
		}
	}
	return true
}
