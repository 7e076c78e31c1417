// Package profile persists a subscriber record to a byte stream using
// deterministic CBOR, a compact self-describing wire encoding well
// suited to fixed-layout binary records like this one. A profile is
// the bench tool's way of provisioning a card's identity before a
// session starts, independent of the WRITE CONFIG APDU path.
package profile

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"usimcos.dev/card"
)

// Profile is the CBOR-encodable subset of a subscriber record: the
// fields an operator provisions before a session starts. PIN1/PUK1 are
// carried as 8-byte CHV fields, right-padded with 0xFF like the
// on-card representation.
type Profile struct {
	IMSI [9]byte  `cbor:"1,keyasint"`
	Ki   [16]byte `cbor:"2,keyasint"`
	OPc  [16]byte `cbor:"3,keyasint"`
	PIN1 [8]byte  `cbor:"4,keyasint"`
	PUK1 [8]byte  `cbor:"5,keyasint"`
	SQN  [6]byte  `cbor:"6,keyasint"`
	AMF  [2]byte  `cbor:"7,keyasint"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	encMode = em
	dm, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(err)
	}
	decMode = dm
}

// Encode serializes p as deterministic CBOR.
func (p Profile) Encode() ([]byte, error) {
	return encMode.Marshal(p)
}

// Decode parses a CBOR-encoded Profile.
func Decode(data []byte) (Profile, error) {
	var p Profile
	if err := decMode.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("profile: decode: %w", err)
	}
	return p, nil
}

// FromSubscriber snapshots the identity fields of a card.Subscriber:
// IMSI, Ki, OPc, SQN and AMF. PIN1 and PUK1 are left zero, since the
// subscriber does not expose them, and the live PIN/PUK retry counters
// are not carried either.
func FromSubscriber(s *card.Subscriber) Profile {
	return Profile{
		IMSI: s.IMSI,
		Ki:   s.Ki,
		OPc:  s.OPc,
		SQN:  s.SQN,
		AMF:  s.AMF,
	}
}

// Apply writes a profile's identity fields into store and subscriber,
// the same WRITE CONFIG-shaped mutation the APDU path performs, used
// by the bench tool to provision a fresh card before a session.
func Apply(p Profile, store *card.Store, sub *card.Subscriber) error {
	if err := store.WritePlain(card.FidIMSI, p.IMSI[:]); err != nil {
		return fmt.Errorf("profile: apply IMSI: %w", err)
	}
	if err := store.WriteSecret(card.FidKey, p.Ki[:]); err != nil {
		return fmt.Errorf("profile: apply Ki: %w", err)
	}
	if err := store.WriteSecret(card.FidOPc, p.OPc[:]); err != nil {
		return fmt.Errorf("profile: apply OPc: %w", err)
	}
	sub.IMSI = p.IMSI
	sub.Ki = p.Ki
	sub.OPc = p.OPc
	sub.SQN = p.SQN
	sub.AMF = p.AMF
	sub.SetPIN1(p.PIN1)
	sub.SetPUK1(p.PUK1)
	return nil
}
