// Package deflate implements a streaming, pull-style decompressor for the
// DEFLATE (RFC 1951) and DEFLATE64 compressed-data formats.
//
// Callers drive a Session with bounded input and output chunks: Decode
// consumes as much of in as it can use and produces as much of out as it
// can fill, returning exactly how much of each it touched. Compression
// (deflation) is not implemented; this is a one-way decoder.
package deflate

import (
	"github.com/flatestream/deflate/capnslog"
)

var log = capnslog.NewPackageLogger("github.com/flatestream/deflate", "deflate")

// Mode selects which of the two wire formats a Session decodes.
type Mode int

const (
	// ModeUninitialized is the zero value; no Decode call has happened yet.
	ModeUninitialized Mode = iota
	// ModeDeflate is plain RFC 1951 DEFLATE.
	ModeDeflate
	// ModeDeflate64 is the DEFLATE64 superset: wider back-reference length
	// and distance ranges than plain DEFLATE.
	ModeDeflate64
)

func (m Mode) String() string {
	switch m {
	case ModeDeflate:
		return "deflate"
	case ModeDeflate64:
		return "deflate64"
	default:
		return "uninitialized"
	}
}

// Allocator is the caller-supplied allocation hook for a Session's window.
// A nil Allocator passed to Init defaults to the process heap. Alloc's bool
// return is false on allocation failure, surfaced to the caller as OOM
// rather than as a panic.
type Allocator interface {
	Alloc(n int) (buf []byte, ok bool)
}

type defaultAllocator struct{}

func (defaultAllocator) Alloc(n int) ([]byte, bool) { return make([]byte, n), true }

// Phase names one of the resumable suspension points in the block decoder.
// It is kept alongside Session.step (the actual resumption mechanism);
// run and decode also read it to detect end of stream and to tell whether
// a step made progress.
type Phase int

const (
	PhaseBFinal Phase = iota
	PhaseBType
	PhaseUncompressedLength
	PhaseUncompressedLengthComplement
	PhaseUncompressedData
	PhaseDynamicCounts
	PhaseDynamicCodeLengthLengths
	PhaseDynamicSymbolLengths
	PhaseCompressedSymbol
	PhaseCompressedLengthExtra
	PhaseCompressedDistanceSymbol
	PhaseCompressedDistanceExtra
	PhaseCompressedCopy
	PhaseEOF
)

// Session holds a decoder's full state: bit reader, window, the three
// Huffman tables, block-decoder phase and scratch, chosen mode, the final-
// block flag, and the most recent error. The error's message is formatted
// where the error is raised, not on demand.
type Session struct {
	mode Mode

	br  bitReader
	win window

	codeLenTable *huffmanTable
	litLenTable  *huffmanTable
	distTable    *huffmanTable

	fixedLitLenBuilt bool
	fixedDistBuilt   bool

	final bool
	phase Phase
	step  func()

	// Uncompressed-block scratch.
	uncompRemaining uint32

	// Dynamic Huffman header scratch.
	hlit, hdist, hclen int
	clLengths          [19]int
	litDistLengths     [288 + 32]int // HLIT maxes at 257+31=288, HDIST at 1+31=32
	headerIndex        int
	pendingRepeatSym   int // 0 = none pending, else 16/17/18 awaiting its extra bits

	// Compressed-block (length/distance decode) scratch.
	pendingLength    uint32
	pendingLenSym    uint16
	pendingDistance  uint32
	pendingDistExtra uint
	copyLen          uint32
	copyDist         uint32

	lenTable  [29]lengthEntry
	distTabl  [32]distEntry

	// Per-Decode-call transient cursors into the caller's output slice.
	out    []byte
	outPos int

	cfg Config

	err       error
	destroyed bool

	TotalIn  uint64
	TotalOut uint64
}

// Config carries the policy knobs deflate/config's YAML loader fills in.
// The zero value reproduces the documented permissive reference behavior
// for the two ambiguous cases RFC 1951 leaves open to implementations:
// code lengths assigned to the reserved literal/length symbols 286/287,
// and DEFLATE dynamic headers assigning lengths to the reserved distance
// symbols 30/31.
type Config struct {
	RejectOverlongLiteralCodes               bool
	RejectDeflateDistance30And31AtBuildTime  bool
	FastPathEnabled                          bool
}

// DefaultConfig returns the documented reference decoding behavior, with
// the fast path enabled.
func DefaultConfig() Config {
	return Config{FastPathEnabled: true}
}

// Init allocates a new Session. alloc may be nil to use the default process
// heap.
func Init(alloc Allocator) (*Session, Code) {
	return InitWithConfig(alloc, DefaultConfig())
}

// InitWithConfig is Init with an explicit Config (see deflate/config for a
// YAML-driven way to build one).
func InitWithConfig(alloc Allocator, cfg Config) (*Session, Code) {
	if alloc == nil {
		alloc = defaultAllocator{}
	}
	buf, ok := alloc.Alloc(windowSize)
	if !ok {
		return nil, OOM
	}
	s := &Session{cfg: cfg}
	s.win.buf = buf[:windowSize:windowSize]
	s.codeLenTable = newHuffmanTable(codeLenTableBits, codeLenTableSize)
	s.distTable = newHuffmanTable(distTableBits, distTableSize)
	s.litLenTable = newHuffmanTable(litLenTableBits, litLenTableSize)
	s.resetLocked()
	log.Debugf("session %p initialized", s)
	return s, OK
}

// Reset reinitializes phase and bit-reader/window state while preserving
// the pre-allocated Huffman table storage.
func (s *Session) Reset() Code {
	if s.destroyed || s.win.buf == nil {
		return ArgError
	}
	s.resetLocked()
	log.Debugf("session %p reset", s)
	return OK
}

func (s *Session) resetLocked() {
	s.mode = ModeUninitialized
	s.final = false
	s.phase = PhaseBFinal
	s.step = s.stepBFinal
	s.err = nil
	s.uncompRemaining = 0
	s.headerIndex = 0
	s.pendingRepeatSym = 0
	s.pendingLength = 0
	s.pendingDistance = 0
	s.copyLen = 0
	s.copyDist = 0
	s.fixedLitLenBuilt = false
	s.fixedDistBuilt = false
	s.TotalIn = 0
	s.TotalOut = 0
	s.br.init(48)
	s.win.reset()
}

// Destroy releases the session. The caller retains their pointer, but every
// subsequent call is rejected.
func (s *Session) Destroy() Code {
	s.destroyed = true
	s.win.buf = nil
	log.Debugf("session %p destroyed", s)
	return OK
}

// ErrorMessage returns a human-readable description of the most recent
// failure, or "" if the session has not failed.
func (s *Session) ErrorMessage() string {
	if s.err == nil {
		return ""
	}
	return s.err.Error()
}

func (s *Session) setError(err error) Code {
	s.err = err
	code := DataError
	if de, ok := err.(*decodeError); ok {
		code = de.kind
	}
	log.Errorf("session %p: %s", s, err.Error())
	return code
}

// DecodeDeflate decodes a DEFLATE stream.
func (s *Session) DecodeDeflate(out, in []byte) (consumed, produced int, code Code) {
	return s.decode(ModeDeflate, out, in)
}

// DecodeDeflate64 decodes a DEFLATE64 stream.
func (s *Session) DecodeDeflate64(out, in []byte) (consumed, produced int, code Code) {
	return s.decode(ModeDeflate64, out, in)
}

func (s *Session) decode(mode Mode, out, in []byte) (consumed, produced int, code Code) {
	if s.destroyed || s.win.buf == nil {
		return 0, 0, ArgError
	}
	if s.err != nil {
		return 0, 0, s.errReturnCode()
	}
	if s.mode == ModeUninitialized {
		s.mode = mode
		s.br.minBits = opBits(mode)
		s.lenTable = lengthTable(mode)
		s.distTabl = distanceTable(mode)
	} else if s.mode != mode {
		return 0, 0, argErrorMismatch(s.mode, mode)
	}

	s.br.setInput(in)
	s.out = out
	s.outPos = 0

	s.run()

	consumed = len(in) - s.br.inputRemaining()
	produced = s.outPos
	s.TotalIn += uint64(consumed)
	s.TotalOut += uint64(produced)

	if s.err != nil {
		return consumed, produced, s.setError(s.err)
	}
	if s.phase == PhaseEOF && s.win.unconsumed == 0 {
		return consumed, produced, EndOfStream
	}
	return consumed, produced, OK
}

func (s *Session) errReturnCode() Code {
	if de, ok := s.err.(*decodeError); ok {
		return de.kind
	}
	return DataError
}

func argErrorMismatch(have, want Mode) Code {
	log.Warningf("%s", argErrorf("mode mismatch: session is %s, called as %s", have, want))
	return ArgError
}

func opBits(mode Mode) uint {
	if mode == ModeDeflate64 {
		return 60
	}
	return 48
}

// run drives s.step until no further progress is possible this call: the
// window is full and the output buffer is full, the input is exhausted
// mid-symbol, a block ends without more final work to do, or an error or
// EOF is reached. Each step function is responsible for detecting its own
// suspend condition and leaving s.step unchanged when it cannot finish.
func (s *Session) run() {
	for {
		if s.err != nil {
			return
		}
		if s.phase == PhaseEOF {
			s.drainWindow()
			return
		}
		before := s.progressMark()
		s.step()
		if s.err != nil {
			return
		}
		s.drainWindow()
		if s.progressMark() == before {
			return // suspended: this step made no progress, stop until the next call
		}
	}
}

// progressMark is a cheap fingerprint of forward progress: bytes consumed
// from the input slice, bytes produced to the output slice, and the
// current phase. If none of these change across a step call, the engine
// cannot make further progress this call.
func (s *Session) progressMark() [3]int {
	return [3]int{s.br.inputRemaining(), s.outPos, int(s.phase)}
}

// drainWindow flushes whatever the window has buffered out to the caller's
// output slice, interleaved between block-decoder steps so the window never
// has to hold more than one step's worth of undrained output.
func (s *Session) drainWindow() {
	if s.outPos >= len(s.out) {
		return
	}
	n := s.win.drain(s.out[s.outPos:])
	s.outPos += n
}

func (s *Session) outRemaining() int {
	return len(s.out) - s.outPos
}

