// Package usat implements the supplemented CLA 0x80 USAT stub surface:
// DATA DOWNLOAD, ENVELOPE and FETCH, returning canned responses rather
// than driving a real toolkit session; only DATA DOWNLOAD's SEND SMS
// tag computes anything (a MAC check and a derived acknowledgment
// key). Grounded on
// original_source's usat_handler.c, which stubs the same three
// commands behind a compile-time feature flag; here they are gated at
// runtime by Card.USATEnabled and registered into cos's handler table
// through RegisterUSATHandler.
package usat

import (
	"usimcos.dev/apdu"
	"usimcos.dev/auth"
	"usimcos.dev/card"
	"usimcos.dev/cos"
)

// Proactive command tags DATA DOWNLOAD dispatches on.
const (
	tagDisplayText = 0x21
	tagGetInput    = 0x23
	tagSelectItem  = 0x24
	tagSetupMenu   = 0x25
	tagSendSMS     = 0x27

	responseOK = 0x00
)

func init() {
	cos.RegisterUSATHandler(0x81, handleDataDownload)
	cos.RegisterUSATHandler(0xC3, handleEnvelope)
	cos.RegisterUSATHandler(0x12, handleFetch)
}

// handleDataDownload implements USAT DATA DOWNLOAD (81): a TLV-shaped
// payload (tag, length, value...) naming the proactive command to
// simulate.
func handleDataDownload(c *cos.Card, cmd apdu.Command) apdu.Response {
	if cmd.Lc < 2 {
		return apdu.Response{SW: apdu.SWWrongLength}
	}
	tag := cmd.Data[0]
	length := int(cmd.Data[1])
	if cmd.Lc != 2+length {
		return apdu.Response{SW: apdu.SWWrongLength}
	}

	switch tag {
	case tagDisplayText:
		return apdu.Response{Data: []byte{responseOK}, SW: apdu.SWOK}
	case tagGetInput:
		return apdu.Response{Data: []byte{responseOK, 0x04, 'T', 'E', 'S', 'T'}, SW: apdu.SWOK}
	case tagSelectItem:
		return apdu.Response{Data: []byte{0x01}, SW: apdu.SWOK}
	case tagSetupMenu:
		return apdu.Response{Data: []byte{responseOK}, SW: apdu.SWOK}
	case tagSendSMS:
		return handleSendSMS(c, cmd.Data[2:2+length])
	default:
		return apdu.Response{SW: apdu.SWINSNotSupported}
	}
}

// smsMACLen is the trailing XOR-MAC length on a SEND SMS value: an
// OTA-style command packet followed by an integrity check computed
// over it with the fixed card.Mask as the keying mask.
const smsMACLen = 8

// handleSendSMS verifies the SMS-PP packet's trailing MAC and, once
// verified, returns an 8-byte acknowledgment key derived from the
// packet the same way, so the terminal can confirm the card derived
// the same session material.
func handleSendSMS(c *cos.Card, value []byte) apdu.Response {
	if len(value) <= smsMACLen {
		return apdu.Response{SW: apdu.SWWrongLength}
	}
	payload := value[:len(value)-smsMACLen]
	mac := value[len(value)-smsMACLen:]
	if !auth.VerifyIntegrity(payload, card.Mask, mac) {
		return apdu.Response{SW: apdu.SWAuthFailed}
	}
	ack := auth.GenerateDerivedKeys(payload, card.Mask, smsMACLen)
	return apdu.Response{Data: append([]byte{responseOK}, ack...), SW: apdu.SWOK}
}

// handleEnvelope implements ENVELOPE (C3): acknowledges any wrapped
// terminal-originated event without interpreting it.
func handleEnvelope(c *cos.Card, cmd apdu.Command) apdu.Response {
	return apdu.Response{Data: []byte{responseOK}, SW: apdu.SWOK}
}

// handleFetch implements FETCH (12): reports one canned pending
// proactive command, a DISPLAY TEXT asking the terminal to show a
// fixed string, mirroring the stub the original always returns
// regardless of prior DATA DOWNLOAD/ENVELOPE traffic.
func handleFetch(c *cos.Card, cmd apdu.Command) apdu.Response {
	data := []byte{
		tagDisplayText, 0x0D,
		0x81, 0x01, 0x82,
		0x08, 'U', 'S', 'I', 'M', ' ', 'T', 'E', 'S', 'T',
	}
	return apdu.Response{Data: data, SW: apdu.SWOK}
}
