package usat

import (
	"bytes"
	"testing"

	"usimcos.dev/apdu"
	"usimcos.dev/auth"
	"usimcos.dev/card"
	"usimcos.dev/cos"
)

// macFor mirrors auth.VerifyIntegrity's XOR-MAC formula, used here to
// build a correctly-MACed SEND SMS value.
func macFor(data []byte, mask [16]byte) []byte {
	mac := make([]byte, smsMACLen)
	for i := range mac {
		var v byte
		for j := 0; j < len(data); j++ {
			v ^= data[j] ^ mask[(i+j)%16]
		}
		mac[i] = v
	}
	return mac
}

func dispatch(t *testing.T, c *cos.Card, raw []byte) apdu.Response {
	t.Helper()
	cmd, ok := apdu.Parse(raw)
	if !ok {
		t.Fatalf("Parse(%x) failed", raw)
	}
	return c.Dispatch(cmd)
}

func newEnabledCard() *cos.Card {
	c := cos.New(nil)
	c.USATEnabled = true
	return c
}

func TestDataDownloadDisplayText(t *testing.T) {
	c := newEnabledCard()
	resp := dispatch(t, c, []byte{0x80, 0x81, 0x00, 0x00, 0x02, tagDisplayText, 0x00})
	if resp.SW != apdu.SWOK {
		t.Fatalf("DATA DOWNLOAD SW = %#x, want 9000", resp.SW)
	}
	if !bytes.Equal(resp.Data, []byte{responseOK}) {
		t.Fatalf("DATA DOWNLOAD data = %x, want 00", resp.Data)
	}
}

func TestDataDownloadGetInput(t *testing.T) {
	c := newEnabledCard()
	resp := dispatch(t, c, []byte{0x80, 0x81, 0x00, 0x00, 0x02, tagGetInput, 0x00})
	want := []byte{responseOK, 0x04, 'T', 'E', 'S', 'T'}
	if !bytes.Equal(resp.Data, want) {
		t.Fatalf("GET INPUT data = %x, want %x", resp.Data, want)
	}
}

func TestDataDownloadLengthMismatch(t *testing.T) {
	c := newEnabledCard()
	resp := dispatch(t, c, []byte{0x80, 0x81, 0x00, 0x00, 0x02, tagDisplayText, 0x05})
	if resp.SW != apdu.SWWrongLength {
		t.Fatalf("DATA DOWNLOAD with mismatched length SW = %#x, want 6700", resp.SW)
	}
}

func TestDataDownloadUnknownTag(t *testing.T) {
	c := newEnabledCard()
	resp := dispatch(t, c, []byte{0x80, 0x81, 0x00, 0x00, 0x02, 0x99, 0x00})
	if resp.SW != apdu.SWINSNotSupported {
		t.Fatalf("DATA DOWNLOAD unknown tag SW = %#x, want 6D00", resp.SW)
	}
}

func TestDataDownloadSendSMSVerifiesAndAcks(t *testing.T) {
	c := newEnabledCard()
	payload := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}
	value := append(append([]byte{}, payload...), macFor(payload, card.Mask)...)
	raw := append([]byte{0x80, 0x81, 0x00, 0x00, byte(2 + len(value)), tagSendSMS, byte(len(value))}, value...)

	resp := dispatch(t, c, raw)
	if resp.SW != apdu.SWOK {
		t.Fatalf("SEND SMS SW = %#x, want 9000", resp.SW)
	}
	if len(resp.Data) != 1+smsMACLen || resp.Data[0] != responseOK {
		t.Fatalf("SEND SMS data = %x", resp.Data)
	}
	wantAck := auth.GenerateDerivedKeys(payload, card.Mask, smsMACLen)
	if !bytes.Equal(resp.Data[1:], wantAck) {
		t.Fatalf("SEND SMS ack = %x, want %x", resp.Data[1:], wantAck)
	}
}

func TestDataDownloadSendSMSBadMACRejected(t *testing.T) {
	c := newEnabledCard()
	payload := []byte{0x01, 0x02, 0x03, 0x04}
	mac := macFor(payload, card.Mask)
	mac[0] ^= 0xFF // tamper
	value := append(append([]byte{}, payload...), mac...)
	raw := append([]byte{0x80, 0x81, 0x00, 0x00, byte(2 + len(value)), tagSendSMS, byte(len(value))}, value...)

	resp := dispatch(t, c, raw)
	if resp.SW != apdu.SWAuthFailed {
		t.Fatalf("SEND SMS with bad MAC SW = %#x, want 6300", resp.SW)
	}
}

func TestEnvelopeAck(t *testing.T) {
	c := newEnabledCard()
	resp := dispatch(t, c, []byte{0x80, 0xC3, 0x00, 0x00, 0x02, 0xAA, 0xBB})
	if resp.SW != apdu.SWOK || !bytes.Equal(resp.Data, []byte{responseOK}) {
		t.Fatalf("ENVELOPE resp = %+v, want OK/00", resp)
	}
}

func TestFetchReturnsPendingDisplayText(t *testing.T) {
	c := newEnabledCard()
	resp := dispatch(t, c, []byte{0x80, 0x12, 0x00, 0x00, 0x00})
	if resp.SW != apdu.SWOK {
		t.Fatalf("FETCH SW = %#x, want 9000", resp.SW)
	}
	if len(resp.Data) != 15 || resp.Data[0] != tagDisplayText {
		t.Fatalf("FETCH data = %x", resp.Data)
	}
}

func TestUSATSurfaceDisabledByDefault(t *testing.T) {
	c := cos.New(nil)
	resp := dispatch(t, c, []byte{0x80, 0x12, 0x00, 0x00, 0x00})
	if resp.SW != apdu.SWINSNotSupported {
		t.Fatalf("FETCH with USAT disabled SW = %#x, want 6D00", resp.SW)
	}
}
