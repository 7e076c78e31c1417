// Package configapdu implements the supplemented CLA 0x80 configuration
// surface: WRITE CONFIG, READ CONFIG, XOR AUTH and RESET SIM. Grounded
// on original_source's config_apdu.c, which gates the same four
// commands behind a compile-time feature flag; here they are gated at
// runtime by Card.ConfigEnabled and registered into cos's handler
// table through RegisterConfigHandler so this package can depend on
// cos without cos depending on it.
package configapdu

import (
	"usimcos.dev/apdu"
	"usimcos.dev/auth"
	"usimcos.dev/card"
	"usimcos.dev/cos"
)

// Data type codes for WRITE CONFIG / READ CONFIG's P1, matching the
// original firmware's DATA_TYPE_* constants.
const (
	dataTypeIMSI   = 0x01
	dataTypeKey    = 0x02
	dataTypeOPc    = 0x03
	dataTypePIN    = 0x04
	dataTypeStatus = 0x05
)

func init() {
	cos.RegisterConfigHandler(0xD0, handleWriteConfig)
	cos.RegisterConfigHandler(0xD1, handleReadConfig)
	cos.RegisterConfigHandler(0xA0, handleXORAuth)
	cos.RegisterConfigHandler(0xE0, handleResetSIM)
}

// handleWriteConfig implements WRITE CONFIG (D0): P1 selects which
// subscriber field cmd.Data overwrites.
func handleWriteConfig(c *cos.Card, cmd apdu.Command) apdu.Response {
	if cmd.Lc == 0 {
		return apdu.Response{SW: apdu.SWWrongLength}
	}
	switch cmd.P1 {
	case dataTypeIMSI:
		if cmd.Lc != 9 {
			return apdu.Response{SW: apdu.SWWrongLength}
		}
		if err := c.Store.WritePlain(card.FidIMSI, cmd.Data); err != nil {
			return apdu.Response{SW: apdu.SWMemoryProblem}
		}
	case dataTypeKey:
		if cmd.Lc != 16 {
			return apdu.Response{SW: apdu.SWWrongLength}
		}
		if err := c.Store.WriteSecret(card.FidKey, cmd.Data); err != nil {
			return apdu.Response{SW: apdu.SWMemoryProblem}
		}
	case dataTypeOPc:
		if cmd.Lc != 16 {
			return apdu.Response{SW: apdu.SWWrongLength}
		}
		if err := c.Store.WriteSecret(card.FidOPc, cmd.Data); err != nil {
			return apdu.Response{SW: apdu.SWMemoryProblem}
		}
	case dataTypePIN:
		if cmd.Lc != 8 {
			return apdu.Response{SW: apdu.SWWrongLength}
		}
		var pin [8]byte
		copy(pin[:], cmd.Data)
		c.Subscriber.SetPIN1(pin)
	default:
		return apdu.Response{SW: apdu.SWWrongParameters}
	}
	return apdu.Response{SW: apdu.SWOK}
}

// handleReadConfig implements READ CONFIG (D1): P1 selects IMSI (9
// plaintext bytes) or STATUS (state/retries/version, 4 bytes).
func handleReadConfig(c *cos.Card, cmd apdu.Command) apdu.Response {
	switch cmd.P1 {
	case dataTypeIMSI:
		info, ok := c.Store.Lookup(card.FidIMSI)
		if !ok {
			return apdu.Response{SW: apdu.SWMemoryProblem}
		}
		data, err := c.Store.ReadBinary(card.FidIMSI, 0, info.ValidLen)
		if err != nil {
			return apdu.Response{SW: apdu.SWMemoryProblem}
		}
		return apdu.Response{Data: data, SW: apdu.SWOK}
	case dataTypeStatus:
		return apdu.Response{
			Data: []byte{
				byte(c.Session.State),
				byte(c.Subscriber.PIN1Retries()),
				cos.VersionMajor,
				cos.VersionMinor,
			},
			SW: apdu.SWOK,
		}
	default:
		return apdu.Response{SW: apdu.SWWrongParameters}
	}
}

// handleXORAuth implements XOR AUTH (A0): the same C7 engine
// AUTHENTICATE uses, exposed directly under the config surface without
// the PIN-verified gate AUTHENTICATE enforces.
func handleXORAuth(c *cos.Card, cmd apdu.Command) apdu.Response {
	if cmd.Lc != 16 {
		return apdu.Response{SW: apdu.SWWrongLength}
	}
	keyBytes, err := c.Store.Secret(card.FidKey)
	if err != nil {
		return apdu.Response{SW: apdu.SWAuthFailed}
	}
	opcBytes, err := c.Store.Secret(card.FidOPc)
	if err != nil {
		return apdu.Response{SW: apdu.SWAuthFailed}
	}
	var rnd, ki, opc [16]byte
	copy(rnd[:], cmd.Data)
	copy(ki[:], keyBytes)
	copy(opc[:], opcBytes)
	tuple := auth.Run(rnd, ki, opc)
	return apdu.Response{Data: tuple.Response(), SW: apdu.SWOK}
}

// handleResetSIM implements RESET SIM (E0): the config surface's own
// reset entrypoint, equivalent to an ISO reset but reachable over APDU
// rather than the physical reset line.
func handleResetSIM(c *cos.Card, cmd apdu.Command) apdu.Response {
	c.Reset()
	return apdu.Response{SW: apdu.SWOK}
}
