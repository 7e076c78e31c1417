// Package cos implements the command handlers (C8) and the
// dispatcher/session (C9): CLA/INS routing, the session state bitset,
// and the APDU receive loop's procedure-byte side. Grounded on
// original_source's apdu_handler.c and usim_app.c, using
// nfc/poller.Poller's session/dispatcher multiplexing shape and
// cmd/controller/main.go's stdlib-log idiom for its ambient tracing.
package cos

import (
	"usimcos.dev/apdu"
	"usimcos.dev/auth"
	"usimcos.dev/card"
)

// StateFlags is the session state bitset (§3, §4.6).
type StateFlags uint8

const (
	FlagSelected StateFlags = 1 << iota
	FlagPINVerified
	FlagAuthenticated
)

// VersionMajor/VersionMinor are reported by STATUS.
const (
	VersionMajor = 2
	VersionMinor = 0
)

// Session is the mutable per-card context: current selection, state
// flags, and the last-computed authentication tuple. It is zeroed at
// power-on and at every ISO 7816 reset (§3).
type Session struct {
	CurrentFile uint16
	State       StateFlags
	Last        auth.Tuple
}

// Reset returns the session to its post-reset state: no flags set,
// MF selected (§4.6).
func (s *Session) Reset() {
	s.State = 0
	s.CurrentFile = card.FidMF
	s.Last = auth.Tuple{}
}

func (s *Session) flags() card.Flags {
	return card.Flags{
		PINVerified:   s.State&FlagPINVerified != 0,
		Authenticated: s.State&FlagAuthenticated != 0,
	}
}

// Logger is the ambient tracing interface handlers log through; a
// *log.Logger satisfies it directly. nil is treated as a no-op.
type Logger interface {
	Printf(format string, v ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// Card bundles everything a handler needs: the file store, the
// subscriber record, and the session, all owned by a single value
// passed by reference (§9 design note: avoid module-level mutable
// singletons).
type Card struct {
	Store      *card.Store
	Subscriber *card.Subscriber
	Session    Session
	Log        Logger

	// ConfigEnabled/USATEnabled gate the supplemented CLA 0x80
	// surfaces (§12); both default to false, matching the original
	// firmware's feature flags defaulting off.
	ConfigEnabled bool
	USATEnabled   bool
}

// New returns a freshly reset Card with default subscriber and file
// store state.
func New(logger Logger) *Card {
	if logger == nil {
		logger = nopLogger{}
	}
	c := &Card{
		Store:      card.NewStore(),
		Subscriber: card.NewSubscriber(),
		Log:        logger,
	}
	c.Reset()
	return c
}

// Reset reinitializes session and subscriber retry state, the C9 side
// of an ISO 7816 reset (§4.6, §4.3): "Any reset from C3 reverts to the
// initial state regardless of prior flags."
func (c *Card) Reset() {
	c.Session.Reset()
	c.Subscriber.Reset()
}

// Dispatch routes a parsed command to its handler by (CLA, INS) and
// returns the response. Unknown CLA -> 6E00; unknown INS within a
// known CLA -> 6D00 (§4.3). A handler's own SW is preserved on
// failure.
func (c *Card) Dispatch(cmd apdu.Command) apdu.Response {
	switch cmd.CLA {
	case 0x00, 0xA0:
		if h, ok := standardHandlers[cmd.INS]; ok {
			return h(c, cmd)
		}
		c.Log.Printf("cos: unmapped INS %#x under CLA %#x\n", cmd.INS, cmd.CLA)
		return apdu.Response{SW: apdu.SWINSNotSupported}
	case 0x80:
		if c.ConfigEnabled {
			if h, ok := configHandlers[cmd.INS]; ok {
				return h(c, cmd)
			}
		}
		if c.USATEnabled {
			if h, ok := usatHandlers[cmd.INS]; ok {
				return h(c, cmd)
			}
		}
		return apdu.Response{SW: apdu.SWINSNotSupported}
	default:
		c.Log.Printf("cos: unsupported CLA %#x\n", cmd.CLA)
		return apdu.Response{SW: apdu.SWCLANotSupported}
	}
}

// handlerFunc is the C8 handler shape: consult/mutate Card, return a
// Response. Handlers never panic; they always return a Response
// carrying the right SW1SW2 (§7 error handling policy).
type handlerFunc func(c *Card, cmd apdu.Command) apdu.Response

var standardHandlers = map[byte]handlerFunc{
	0xA4: handleSelectFile,
	0xB0: handleReadBinary,
	0xD6: handleUpdateBinary,
	0x20: handleVerifyCHV,
	0x24: handleChangeCHV,
	0x88: handleAuthenticate,
	0xC0: handleGetResponse,
	0xF2: handleStatus,
}

// RegisterConfigHandler and RegisterUSATHandler let the configapdu and
// usat packages install their handler tables without cos importing
// them (they import cos for the handlerFunc/Card types instead,
// avoiding a dependency cycle).
var (
	configHandlers = map[byte]handlerFunc{}
	usatHandlers   = map[byte]handlerFunc{}
)

// RegisterConfigHandler installs a handler for an INS under CLA 0x80's
// config surface (§12).
func RegisterConfigHandler(ins byte, h func(c *Card, cmd apdu.Command) apdu.Response) {
	configHandlers[ins] = h
}

// RegisterUSATHandler installs a handler for an INS under CLA 0x80's
// USAT stub surface (§12).
func RegisterUSATHandler(ins byte, h func(c *Card, cmd apdu.Command) apdu.Response) {
	usatHandlers[ins] = h
}
