package cos

import (
	"usimcos.dev/apdu"
	"usimcos.dev/auth"
	"usimcos.dev/card"
)

// handleSelectFile implements SELECT FILE (A4), §4.5.
func handleSelectFile(c *Card, cmd apdu.Command) apdu.Response {
	if cmd.Lc != 2 {
		return apdu.Response{SW: apdu.SWWrongLength}
	}
	if cmd.HasLe && cmd.Le < 13 {
		return apdu.Response{SW: apdu.SWWrongLength}
	}
	fid := uint16(cmd.Data[0])<<8 | uint16(cmd.Data[1])
	info, ok := c.Store.Lookup(fid)
	if !ok {
		return apdu.Response{SW: apdu.SWFileNotFound}
	}
	if !card.CheckAccess(info, card.AccessSelect, c.Session.flags()) {
		return apdu.Response{SW: apdu.SWSecurityStatus}
	}
	c.Session.CurrentFile = fid
	c.Session.State |= FlagSelected

	typeByte := byte(0x38)
	if info.Kind == card.EF {
		typeByte = 0x21
	}
	fcp := []byte{
		0x62, 0x0B,
		0x80, 0x02, byte(info.Size >> 8), byte(info.Size),
		0x82, 0x01, typeByte,
		0x83, 0x02, byte(fid >> 8), byte(fid),
	}
	return apdu.Response{Data: fcp, SW: apdu.SWOK}
}

// handleReadBinary implements READ BINARY (B0), §4.5.
func handleReadBinary(c *Card, cmd apdu.Command) apdu.Response {
	info, ok := c.Store.Lookup(c.Session.CurrentFile)
	if !ok || info.Kind != card.EF {
		return apdu.Response{SW: apdu.SWCommandNotAllowed}
	}
	if !card.CheckAccess(info, card.AccessRead, c.Session.flags()) {
		return apdu.Response{SW: apdu.SWSecurityStatus}
	}
	offset := int(cmd.P1)<<8 | int(cmd.P2)
	le := cmd.Le
	if !cmd.HasLe || le == 0 {
		le = 256
	}
	if le > 255 {
		le = 255
	}

	data, err := c.Store.ReadBinary(c.Session.CurrentFile, offset, le)
	if err != nil {
		switch err {
		case card.ErrOutOfRange, card.ErrNoBackingStore:
			return apdu.Response{SW: apdu.SWWrongParameters}
		default:
			return apdu.Response{SW: apdu.SWFileNotFound}
		}
	}
	return apdu.Response{Data: data, SW: apdu.SWOK}
}

// handleUpdateBinary implements UPDATE BINARY (D6), §4.5.
func handleUpdateBinary(c *Card, cmd apdu.Command) apdu.Response {
	if cmd.Lc == 0 {
		return apdu.Response{SW: apdu.SWWrongLength}
	}
	info, ok := c.Store.Lookup(c.Session.CurrentFile)
	if !ok || info.Kind != card.EF {
		return apdu.Response{SW: apdu.SWCommandNotAllowed}
	}
	if !card.CheckAccess(info, card.AccessUpdate, c.Session.flags()) {
		return apdu.Response{SW: apdu.SWSecurityStatus}
	}
	offset := int(cmd.P1)<<8 | int(cmd.P2)
	if err := c.Store.UpdateBinary(c.Session.CurrentFile, offset, cmd.Data); err != nil {
		switch err {
		case card.ErrOutOfRange:
			return apdu.Response{SW: apdu.SWWrongParameters}
		case card.ErrNoBackingStore:
			return apdu.Response{SW: apdu.SWMemoryProblem}
		default:
			return apdu.Response{SW: apdu.SWFileNotFound}
		}
	}
	return apdu.Response{SW: apdu.SWOK}
}

// handleVerifyCHV implements VERIFY CHV (20), §4.5.
func handleVerifyCHV(c *Card, cmd apdu.Command) apdu.Response {
	if cmd.Lc != 8 || cmd.P2&0x01 == 0 {
		return apdu.Response{SW: apdu.SWWrongLength}
	}
	var candidate [8]byte
	copy(candidate[:], cmd.Data)
	return verifyResultToResponse(c.Subscriber.VerifyPIN1(candidate), c, func() { c.Session.State |= FlagPINVerified })
}

// handleChangeCHV implements CHANGE CHV (24), §4.5.
func handleChangeCHV(c *Card, cmd apdu.Command) apdu.Response {
	if cmd.Lc != 16 || cmd.P2&0x01 == 0 {
		return apdu.Response{SW: apdu.SWWrongLength}
	}
	var oldPIN, newPIN [8]byte
	copy(oldPIN[:], cmd.Data[:8])
	copy(newPIN[:], cmd.Data[8:])
	return verifyResultToResponse(c.Subscriber.ChangePIN1(oldPIN, newPIN), c, func() { c.Session.State |= FlagPINVerified })
}

func verifyResultToResponse(res card.VerifyResult, c *Card, onSuccess func()) apdu.Response {
	switch res {
	case card.VerifyOK:
		onSuccess()
		return apdu.Response{SW: apdu.SWOK}
	case card.VerifyBlocked:
		return apdu.Response{SW: apdu.SWPINBlocked}
	default: // VerifyWrongRetryLeft, including the attempt that reaches 0
		return apdu.Response{SW: apdu.SWRemainingAttempts(c.Subscriber.PIN1Retries())}
	}
}

// handleAuthenticate implements AUTHENTICATE (88), §4.5.
func handleAuthenticate(c *Card, cmd apdu.Command) apdu.Response {
	if cmd.Lc < 16 {
		return apdu.Response{SW: apdu.SWWrongLength}
	}
	// cmd.Le is already 0->256 expanded by the codec, so the raw
	// "Le==0 or Le>=54" rule collapses to a single >=54 check here.
	if cmd.HasLe && cmd.Le < 54 {
		return apdu.Response{SW: apdu.SWWrongLength}
	}
	if c.Session.State&FlagPINVerified == 0 {
		return apdu.Response{SW: apdu.SWSecurityStatus}
	}

	keyBytes, err := c.Store.Secret(card.FidKey)
	if err != nil {
		return apdu.Response{SW: apdu.SWAuthFailed}
	}
	opcBytes, err := c.Store.Secret(card.FidOPc)
	if err != nil {
		return apdu.Response{SW: apdu.SWAuthFailed}
	}

	var rand, ki, opc [16]byte
	copy(rand[:], cmd.Data[:16])
	copy(ki[:], keyBytes)
	copy(opc[:], opcBytes)

	tuple := auth.Run(rand, ki, opc)
	c.Session.Last = tuple
	c.Session.State |= FlagAuthenticated
	return apdu.Response{Data: tuple.Response(), SW: apdu.SWOK}
}

// handleGetResponse implements GET RESPONSE (C0), §4.5. The source
// returns a synthetic pattern rather than a saved previous response;
// that is preserved literally here (§9 open question).
func handleGetResponse(c *Card, cmd apdu.Command) apdu.Response {
	le := cmd.Le
	if !cmd.HasLe || le == 0 {
		le = 256
	}
	if le > 32 {
		le = 32
	}
	out := make([]byte, le)
	for i := range out {
		out[i] = 0x10 + byte(i)
	}
	return apdu.Response{Data: out, SW: apdu.SWOK}
}

// handleStatus implements STATUS (F2), §4.5.
func handleStatus(c *Card, cmd apdu.Command) apdu.Response {
	if cmd.HasLe && cmd.Le < 5 {
		return apdu.Response{SW: apdu.SWWrongLength}
	}
	return apdu.Response{
		Data: []byte{
			VersionMajor,
			VersionMinor,
			byte(c.Session.State),
			byte(c.Subscriber.PIN1Retries()),
			byte(c.Subscriber.PUK1Retries()),
		},
		SW: apdu.SWOK,
	}
}
