package card

import (
	"bytes"
	"testing"
)

func TestLookupMF(t *testing.T) {
	s := NewStore()
	info, ok := s.Lookup(FidMF)
	if !ok {
		t.Fatal("MF not found")
	}
	if info.Kind != MF || info.Access != Always {
		t.Fatalf("MF info = %+v", info)
	}
}

func TestSecretFilesNeverReadable(t *testing.T) {
	s := NewStore()
	for _, fid := range []uint16{FidKey, FidOPc} {
		info, ok := s.Lookup(fid)
		if !ok {
			t.Fatalf("fid %x not found", fid)
		}
		if info.Access != Never {
			t.Fatalf("fid %x access = %v, want Never", fid, info.Access)
		}
		if CheckAccess(info, AccessRead, Flags{PINVerified: true, Authenticated: true}) {
			t.Fatalf("fid %x should never be readable", fid)
		}
	}
}

func TestSecretUnmaskRoundTrip(t *testing.T) {
	s := NewStore()
	key, err := s.Secret(FidKey)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x46, 0x5B, 0x5C, 0xE8, 0xB1, 0x99, 0xB4, 0x9F, 0xAA, 0x5F, 0x0A, 0x2E, 0xE2, 0x38, 0xA6, 0xBC}
	if !bytes.Equal(key, want) {
		t.Fatalf("Secret(KEY) = %x, want %x", key, want)
	}
}

func TestReadBinaryOutOfRange(t *testing.T) {
	s := NewStore()
	if _, err := s.ReadBinary(FidPhase, 5, 1); err != ErrOutOfRange {
		t.Fatalf("err = %v, want ErrOutOfRange", err)
	}
}

func TestUpdateBinaryThenReadBack(t *testing.T) {
	s := NewStore()
	if err := s.UpdateBinary(FidACC, 0, []byte{0xAA, 0xBB}); err != nil {
		t.Fatal(err)
	}
	got, err := s.ReadBinary(FidACC, 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte{0xAA, 0xBB}) {
		t.Fatalf("got %x", got)
	}
}

func TestUpdateBinaryBeyondSize(t *testing.T) {
	s := NewStore()
	if err := s.UpdateBinary(FidPhase, 0, []byte{0xAA, 0xBB}); err != ErrOutOfRange {
		t.Fatalf("err = %v, want ErrOutOfRange", err)
	}
}

// TestUpdateBinaryRangeCheckPrecedesBackingCheck covers EF_PLMNwAcT:
// selectable, update-permitted (AC_ALWAYS), size 0x16, but with no
// backing byte region. An out-of-range offset must still report
// ErrOutOfRange, not ErrNoBackingStore.
func TestUpdateBinaryRangeCheckPrecedesBackingCheck(t *testing.T) {
	s := NewStore()
	if err := s.UpdateBinary(FidPLMNwAcT, 0x15, []byte{0xAA, 0xBB}); err != ErrOutOfRange {
		t.Fatalf("err = %v, want ErrOutOfRange", err)
	}
}

func TestVerifyPIN1RetrySequence(t *testing.T) {
	sub := NewSubscriber()
	wrong := [8]byte{'1', '2', '3', '4', 0xFF, 0xFF, 0xFF, 0xFF}
	// All three wrong attempts, including the third (which exhausts
	// retries), report VerifyWrongRetryLeft per §8: "at k=3 subsequent
	// VERIFY returns 6983" — not the third attempt itself.
	for k := 0; k < 3; k++ {
		got := sub.VerifyPIN1(wrong)
		if got != VerifyWrongRetryLeft {
			t.Fatalf("attempt %d: got %v, want VerifyWrongRetryLeft", k+1, got)
		}
	}
	if r := sub.PIN1Retries(); r != 0 {
		t.Fatalf("retries after 3 wrong attempts = %d, want 0", r)
	}
	if got := sub.VerifyPIN1(wrong); got != VerifyBlocked {
		t.Fatalf("4th attempt: got %v, want VerifyBlocked", got)
	}
}

func TestVerifyPIN1Correct(t *testing.T) {
	sub := NewSubscriber()
	correct := [8]byte{'0', '0', '0', '0', 0xFF, 0xFF, 0xFF, 0xFF}
	if got := sub.VerifyPIN1(correct); got != VerifyOK {
		t.Fatalf("got %v, want VerifyOK", got)
	}
	if r := sub.PIN1Retries(); r != 3 {
		t.Fatalf("retries = %d, want 3", r)
	}
}
