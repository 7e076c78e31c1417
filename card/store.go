package card

import "errors"

// AccessType distinguishes the three operations access conditions are
// evaluated against; SELECT is always permitted regardless of the
// file's condition code (§4.4).
type AccessType int

const (
	AccessSelect AccessType = iota
	AccessRead
	AccessUpdate
)

// Flags is the subset of session state access control consults:
// whether a CHV1 PIN has been verified and whether AUTHENTICATE has
// succeeded this session. cos.Session carries the full state bitset;
// this is the narrow view card.CheckAccess needs, keeping this package
// free of any dependency on the dispatcher/session package.
type Flags struct {
	PINVerified   bool
	Authenticated bool
}

// FileInfo is the read-only view of a catalogue entry exposed outside
// the package: identifier, kind, declared size and current valid
// length. It never exposes the backing byte slice directly — callers
// go through Store's Read/Update/Secret methods.
type FileInfo struct {
	FID      uint16
	Kind     Kind
	Size     uint16
	Access   AccessCondition
	ValidLen int
}

// Store holds the card's file catalogue: an ordered table, looked up
// linearly by identifier, exactly as usim_find_file does (§9 design
// note: "the table is looked up on each access").
type Store struct {
	entries []entry
}

// NewStore returns a Store freshly initialized with the default
// catalogue and subscriber seed data, secrets already masked.
func NewStore() *Store {
	return &Store{entries: newCatalogue()}
}

func (s *Store) find(fid uint16) *entry {
	for i := range s.entries {
		if s.entries[i].fid == fid {
			return &s.entries[i]
		}
	}
	return nil
}

// Lookup returns the FileInfo for fid, or ok=false if no such file
// exists in the catalogue.
func (s *Store) Lookup(fid uint16) (FileInfo, bool) {
	e := s.find(fid)
	if e == nil {
		return FileInfo{}, false
	}
	return FileInfo{FID: e.fid, Kind: e.kind, Size: e.size, Access: e.access, ValidLen: e.validLen}, true
}

// CheckAccess evaluates a file's single access condition code against
// the given access type and session flags (§4.4).
func CheckAccess(info FileInfo, at AccessType, flags Flags) bool {
	if at == AccessSelect {
		return true
	}
	switch info.Access {
	case Always:
		return true
	case Never:
		return false
	case CHV1:
		return flags.PINVerified
	case ADM:
		return flags.Authenticated
	default:
		return false
	}
}

var (
	// ErrNotFound means no catalogue entry has the requested fid.
	ErrNotFound = errors.New("card: file not found")
	// ErrNoBackingStore means the file has no mutable byte region
	// (e.g. a pure directory, or a declared-but-unbacked EF).
	ErrNoBackingStore = errors.New("card: no backing store")
	// ErrOutOfRange means offset/length addressed bytes outside the
	// file: beyond its current valid length for a read, beyond its
	// declared size for an update, or a whole-file write whose length
	// is not the declared size.
	ErrOutOfRange = errors.New("card: offset out of range")
)

// ReadBinary copies up to length bytes starting at offset from fid's
// data region into a fresh buffer. It does not perform access
// checking or secret unmasking — callers that need those go through
// the handler layer (for plaintext EFs) or Secret (for EF_KEY/EF_OPc).
func (s *Store) ReadBinary(fid uint16, offset, length int) ([]byte, error) {
	e := s.find(fid)
	if e == nil {
		return nil, ErrNotFound
	}
	if e.data == nil {
		return nil, ErrNoBackingStore
	}
	if offset < 0 || offset >= e.validLen {
		return nil, ErrOutOfRange
	}
	available := e.validLen - offset
	if length > available {
		length = available
	}
	out := make([]byte, length)
	copy(out, e.data[offset:offset+length])
	return out, nil
}

// UpdateBinary writes data into fid's region at offset, growing the
// valid-byte count if the write extends it. offset+len(data) must not
// exceed the file's declared size.
func (s *Store) UpdateBinary(fid uint16, offset int, data []byte) error {
	e := s.find(fid)
	if e == nil {
		return ErrNotFound
	}
	if offset < 0 || offset+len(data) > int(e.size) {
		return ErrOutOfRange
	}
	if e.data == nil {
		return ErrNoBackingStore
	}
	if offset+len(data) > len(e.data) {
		grown := make([]byte, offset+len(data))
		copy(grown, e.data)
		e.data = grown
	}
	copy(e.data[offset:], data)
	if n := offset + len(data); n > e.validLen {
		e.validLen = n
	}
	return nil
}

// Secret returns an unmasked copy of a secret file's plaintext bytes
// (EF_KEY or EF_OPc). It never returns a reference into the catalogue,
// so no unmasked copy lingers in Store state (§9 design note on XOR
// masking).
func (s *Store) Secret(fid uint16) ([]byte, error) {
	e := s.find(fid)
	if e == nil {
		return nil, ErrNotFound
	}
	if e.access != Never {
		return nil, ErrNoBackingStore
	}
	out := make([]byte, len(e.data))
	copy(out, e.data)
	XOR(out)
	return out, nil
}

// WriteSecret masks plaintext and stores it as fid's backing bytes,
// the write-side counterpart to Secret. Used by the config surface's
// WRITE CONFIG KEY/OPC, which receives plaintext over the wire and
// must land it masked at rest exactly as usim_filesystem_init does.
func (s *Store) WriteSecret(fid uint16, plaintext []byte) error {
	e := s.find(fid)
	if e == nil {
		return ErrNotFound
	}
	if e.access != Never || len(plaintext) != int(e.size) {
		return ErrOutOfRange
	}
	masked := make([]byte, len(plaintext))
	copy(masked, plaintext)
	XOR(masked)
	e.data = masked
	e.validLen = len(masked)
	return nil
}

// WritePlain overwrites fid's plaintext backing bytes directly,
// without masking. Used by WRITE CONFIG IMSI, which the original
// stores in the clear.
func (s *Store) WritePlain(fid uint16, data []byte) error {
	e := s.find(fid)
	if e == nil {
		return ErrNotFound
	}
	if len(data) != int(e.size) {
		return ErrOutOfRange
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	e.data = buf
	e.validLen = len(buf)
	return nil
}
