package card

import "crypto/subtle"

// Subscriber is the subscriber record (§3): long-term identity and
// key material plus the CHV1/PUK1 retry counters. Mutated only by
// VERIFY/CHANGE CHV, the config-APDU write path, and the reset
// handler.
type Subscriber struct {
	IMSI [9]byte
	Ki   [16]byte
	OPc  [16]byte
	SQN  [6]byte
	AMF  [2]byte

	pin1        [8]byte
	puk1        [8]byte
	pin1Retries int
	puk1Retries int
}

// NewSubscriber returns a Subscriber with the default seed identity
// and a PIN of "0000" right-padded with 0xFF, matching usim_app's
// init defaults.
func NewSubscriber() *Subscriber {
	s := &Subscriber{
		Ki:  [16]byte{0x46, 0x5B, 0x5C, 0xE8, 0xB1, 0x99, 0xB4, 0x9F, 0xAA, 0x5F, 0x0A, 0x2E, 0xE2, 0x38, 0xA6, 0xBC},
		OPc: [16]byte{0xCD, 0x63, 0xCB, 0x71, 0x95, 0x4A, 0x9F, 0x4E, 0x48, 0xA5, 0x99, 0x4B, 0x86, 0x5A, 0xE9, 0x55},
	}
	copy(s.IMSI[:], []byte{0x08, 0x09, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07})
	s.Reset()
	return s
}

// Reset restores the PIN/PUK retry counters and default PIN value, the
// subscriber-side half of an ISO reset (§4.6: "Power-on / ISO reset").
func (s *Subscriber) Reset() {
	for i := range s.pin1 {
		s.pin1[i] = 0xFF
	}
	copy(s.pin1[:4], []byte("0000"))
	for i := range s.puk1 {
		s.puk1[i] = 0xFF
	}
	s.pin1Retries = 3
	s.puk1Retries = 10
}

// PIN1Retries returns the current CHV1 retry count.
func (s *Subscriber) PIN1Retries() int { return s.pin1Retries }

// PUK1Retries returns the current PUK1 retry count.
func (s *Subscriber) PUK1Retries() int { return s.puk1Retries }

// VerifyResult reports the outcome of a PIN check so the handler can
// pick the right status word without re-deriving it.
type VerifyResult int

const (
	VerifyBlocked VerifyResult = iota // retries were already 0 at entry
	VerifyOK
	// VerifyWrongRetryLeft covers every wrong-PIN attempt, including
	// the one that brings retries to 0: per §8's testable property,
	// that attempt still reports the 63Cn remaining-attempts shape
	// (n=0); only the *next* VERIFY sees retries==0 at entry and
	// reports VerifyBlocked.
	VerifyWrongRetryLeft
)

// VerifyPIN1 checks candidate (8 bytes) against the stored PIN1 in
// constant time and updates the retry counter per §4.5's VERIFY CHV
// semantics.
func (s *Subscriber) VerifyPIN1(candidate [8]byte) VerifyResult {
	if s.pin1Retries == 0 {
		return VerifyBlocked
	}
	if subtle.ConstantTimeCompare(candidate[:], s.pin1[:]) == 1 {
		s.pin1Retries = 3
		return VerifyOK
	}
	s.pin1Retries--
	return VerifyWrongRetryLeft
}

// SetPIN1 overwrites PIN1 directly and resets retries to 3, the
// config-surface write path (WRITE CONFIG PIN) that bypasses the
// normal old-PIN verification CHANGE CHV requires.
func (s *Subscriber) SetPIN1(pin [8]byte) {
	s.pin1 = pin
	s.pin1Retries = 3
}

// SetPUK1 overwrites PUK1 directly and resets its retry counter to 10,
// the provisioning-time counterpart to SetPIN1.
func (s *Subscriber) SetPUK1(puk [8]byte) {
	s.puk1 = puk
	s.puk1Retries = 10
}

// ChangePIN1 verifies oldPIN under the same retry semantics as
// VerifyPIN1 and, on success, overwrites PIN1 with newPIN and resets
// retries to 3.
func (s *Subscriber) ChangePIN1(oldPIN, newPIN [8]byte) VerifyResult {
	res := s.VerifyPIN1(oldPIN)
	if res == VerifyOK {
		s.pin1 = newPIN
	}
	return res
}
