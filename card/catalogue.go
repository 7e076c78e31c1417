// Package card implements the file store and access control (C5, C6):
// the static TS 31.102 catalogue, the subscriber record, and the XOR
// masking of secret files at rest. Grounded on original_source's
// usim_files.c catalogue table and xor_key constant.
package card

// Kind is the file type a catalogue entry describes.
type Kind int

const (
	MF Kind = iota
	DF
	EF
)

// AccessCondition gates READ/UPDATE against session state. SELECT is
// always permitted regardless of this code (§4.4).
type AccessCondition int

const (
	Always AccessCondition = iota
	Never
	CHV1
	ADM
)

// File identifiers from the TS 31.102 catalogue this card implements.
const (
	FidMF         = 0x3F00
	FidDFTelecom  = 0x7F10
	FidDFGSM      = 0x7F20
	FidIMSI       = 0x6F07
	FidKey        = 0x6F08
	FidOPc        = 0x6F09
	FidPLMNwAcT   = 0x6F60
	FidACC        = 0x6F78
	FidLOCI       = 0x6F7E
	FidAD         = 0x6FAD
	FidPhase      = 0x6FAE
)

// Mask is the fixed 16-byte constant used both as the at-rest mask for
// secret files and as the key stream for the auth engine's MAC and
// key-derivation helpers (§3).
var Mask = [16]byte{
	0x2A, 0x4F, 0x1C, 0x93, 0x76, 0xA8, 0xDF, 0x35,
	0xB9, 0x62, 0x8C, 0x17, 0xE4, 0x50, 0x3B, 0xCE,
}

// XOR applies Mask (repeating) to data in place.
func XOR(data []byte) {
	for i := range data {
		data[i] ^= Mask[i%len(Mask)]
	}
}

// entry is one static catalogue row plus its backing mutable region.
type entry struct {
	fid      uint16
	kind     Kind
	size     uint16 // nominal declared size
	access   AccessCondition
	data     []byte // nil for pure directories
	validLen int     // current valid-byte count, <= len(data)
}

func defaultSeeds() map[uint16][]byte {
	return map[uint16][]byte{
		FidIMSI:     {0x08, 0x09, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07},
		FidKey:      {0x46, 0x5B, 0x5C, 0xE8, 0xB1, 0x99, 0xB4, 0x9F, 0xAA, 0x5F, 0x0A, 0x2E, 0xE2, 0x38, 0xA6, 0xBC},
		FidOPc:      {0xCD, 0x63, 0xCB, 0x71, 0x95, 0x4A, 0x9F, 0x4E, 0x48, 0xA5, 0x99, 0x4B, 0x86, 0x5A, 0xE9, 0x55},
		FidACC:      {0x00, 0x01},
		FidLOCI:     {0x07, 0x25, 0x43, 0x10, 0x00, 0x62, 0xF5, 0x35, 0x01, 0x00, 0x00},
		FidAD:       {0x00, 0x00},
		FidPhase:    {0x03},
	}
}

// newCatalogue builds a fresh static table with default seed data,
// XOR-masking the two secret files in place as usim_filesystem_init
// does.
func newCatalogue() []entry {
	seeds := defaultSeeds()
	mk := func(fid uint16, kind Kind, size uint16, ac AccessCondition, hasData bool) entry {
		e := entry{fid: fid, kind: kind, size: size, access: ac}
		if hasData {
			seed := seeds[fid]
			e.data = make([]byte, len(seed))
			copy(e.data, seed)
			e.validLen = len(e.data)
		}
		return e
	}
	entries := []entry{
		mk(FidMF, MF, 0, Always, false),
		mk(FidDFTelecom, DF, 0, Always, false),
		mk(FidDFGSM, DF, 0, Always, false),
		mk(FidIMSI, EF, 9, CHV1, true),
		mk(FidKey, EF, 16, Never, true),
		mk(FidOPc, EF, 16, Never, true),
		mk(FidPLMNwAcT, EF, 0x16, Always, false),
		mk(FidACC, EF, 2, Always, true),
		mk(FidLOCI, EF, 11, CHV1, true),
		mk(FidAD, EF, 2, Always, true),
		mk(FidPhase, EF, 1, Always, true),
	}
	XOR(entries[4].data) // EF_KEY
	XOR(entries[5].data) // EF_OPc
	return entries
}
