package deflate

// block.go implements the resumable block-decoder phase machine. Each step
// function performs one atomic unit of work — reading a fixed-width field,
// decoding one Huffman symbol, or copying the bytes a single back-reference
// or window's worth of space allows — and either advances s.phase/s.step to
// the next phase or leaves both unchanged to signal it needs more input or
// output room. Session.run drives the step chain and notices "no progress"
// to know when to return control to the caller, since callers hand over
// bounded byte slices rather than a blocking stream.

// stepBFinal reads the one-bit BFINAL field (RFC 1951 §3.2.3).
func (s *Session) stepBFinal() {
	v, ok := s.br.Read(1)
	if !ok {
		return
	}
	s.final = v == 1
	s.phase = PhaseBType
	s.step = s.stepBType
}

// stepBType reads the two-bit BTYPE field and dispatches to the matching
// block kind.
func (s *Session) stepBType() {
	v, ok := s.br.Read(2)
	if !ok {
		return
	}
	switch v {
	case 0:
		s.phase = PhaseUncompressedLength
		s.step = s.stepUncompressedLength
	case 1:
		if err := s.installFixedTables(); err != nil {
			s.err = err
			return
		}
		s.phase = PhaseCompressedSymbol
		s.step = s.stepCompressedSymbol
	case 2:
		s.phase = PhaseDynamicCounts
		s.step = s.stepDynamicCounts
	default:
		s.err = dataErrorWrap(dataErrorf("reserved block type 3"))
	}
}

func (s *Session) installFixedTables() error {
	if !s.fixedLitLenBuilt {
		if err := s.litLenTable.build(fixedLiteralLengths()); err != nil {
			return err
		}
		s.fixedLitLenBuilt = true
	}
	if !s.fixedDistBuilt {
		if err := s.distTable.build(fixedDistanceLengths()); err != nil {
			return err
		}
		s.fixedDistBuilt = true
	}
	return nil
}

// endBlock closes out the current block's payload: either back to reading
// the next block's BFINAL bit, or to PhaseEOF if this was the final block.
func (s *Session) endBlock() {
	s.fixedLitLenBuilt = false
	s.fixedDistBuilt = false
	if s.final {
		s.phase = PhaseEOF
		s.step = nil
		return
	}
	s.phase = PhaseBFinal
	s.step = s.stepBFinal
}

// --- Uncompressed blocks (RFC 1951 §3.2.4) ---

func (s *Session) stepUncompressedLength() {
	if !s.br.ByteAlign() {
		return
	}
	v, ok := s.br.Read(16)
	if !ok {
		return
	}
	s.uncompRemaining = v
	s.phase = PhaseUncompressedLengthComplement
	s.step = s.stepUncompressedLengthComplement
}

func (s *Session) stepUncompressedLengthComplement() {
	v, ok := s.br.Read(16)
	if !ok {
		return
	}
	if uint16(v) != ^uint16(s.uncompRemaining) {
		s.err = dataErrorWrap(dataErrorf("uncompressed block LEN/NLEN mismatch: LEN=%d NLEN=%d", s.uncompRemaining, v))
		return
	}
	if s.uncompRemaining == 0 {
		s.endBlock()
		return
	}
	s.phase = PhaseUncompressedData
	s.step = s.stepUncompressedData
}

func (s *Session) stepUncompressedData() {
	got := s.win.copyFromReader(&s.br, int(s.uncompRemaining))
	s.uncompRemaining -= uint32(got)
	if s.uncompRemaining == 0 {
		s.endBlock()
	}
}

// --- Dynamic Huffman header (RFC 1951 §3.2.7) ---

func (s *Session) stepDynamicCounts() {
	v, ok := s.br.Read(14)
	if !ok {
		return
	}
	s.hlit = int(v&0x1f) + 257
	s.hdist = int((v>>5)&0x1f) + 1
	s.hclen = int((v>>10)&0xf) + 4
	for i := range s.clLengths {
		s.clLengths[i] = 0
	}
	s.headerIndex = 0
	s.phase = PhaseDynamicCodeLengthLengths
	s.step = s.stepDynamicCodeLengthLengths
}

func (s *Session) stepDynamicCodeLengthLengths() {
	for s.headerIndex < s.hclen {
		v, ok := s.br.Read(3)
		if !ok {
			return
		}
		s.clLengths[codeOrder[s.headerIndex]] = int(v)
		s.headerIndex++
	}
	if err := s.codeLenTable.build(s.clLengths[:]); err != nil {
		s.err = err
		return
	}
	total := s.hlit + s.hdist
	for i := 0; i < total; i++ {
		s.litDistLengths[i] = 0
	}
	s.headerIndex = 0
	s.pendingRepeatSym = 0
	s.phase = PhaseDynamicSymbolLengths
	s.step = s.stepDynamicSymbolLengths
}

func (s *Session) stepDynamicSymbolLengths() {
	total := s.hlit + s.hdist
	for s.headerIndex < total {
		if s.pendingRepeatSym == 0 {
			sym, ok, err := s.codeLenTable.decode(&s.br)
			if err != nil {
				s.err = err
				return
			}
			if !ok {
				return
			}
			if sym <= 15 {
				s.litDistLengths[s.headerIndex] = int(sym)
				s.headerIndex++
				continue
			}
			s.pendingRepeatSym = int(sym)
		}

		switch s.pendingRepeatSym {
		case 16:
			v, ok := s.br.Read(2)
			if !ok {
				return
			}
			if s.headerIndex == 0 {
				s.err = dataErrorWrap(dataErrorf("repeat code 16 with no preceding code length"))
				return
			}
			if !s.fillRepeat(s.litDistLengths[s.headerIndex-1], int(v)+3, total) {
				return
			}
		case 17:
			v, ok := s.br.Read(3)
			if !ok {
				return
			}
			if !s.fillRepeat(0, int(v)+3, total) {
				return
			}
		case 18:
			v, ok := s.br.Read(7)
			if !ok {
				return
			}
			if !s.fillRepeat(0, int(v)+11, total) {
				return
			}
		}
		s.pendingRepeatSym = 0
	}

	if err := s.installDynamicTables(); err != nil {
		s.err = err
		return
	}
	s.phase = PhaseCompressedSymbol
	s.step = s.stepCompressedSymbol
}

// fillRepeat writes count copies of value starting at s.headerIndex,
// reporting false (and setting s.err) if that would overrun total.
func (s *Session) fillRepeat(value, count, total int) bool {
	if s.headerIndex+count > total {
		s.err = dataErrorWrap(dataErrorf("repeat code overruns code length table (index %d, count %d, total %d)", s.headerIndex, count, total))
		return false
	}
	for i := 0; i < count; i++ {
		s.litDistLengths[s.headerIndex] = value
		s.headerIndex++
	}
	return true
}

func (s *Session) installDynamicTables() error {
	if err := s.litLenTable.build(s.litDistLengths[:s.hlit]); err != nil {
		return err
	}
	if err := s.distTable.build(s.litDistLengths[s.hlit : s.hlit+s.hdist]); err != nil {
		return err
	}
	s.fixedLitLenBuilt = false
	s.fixedDistBuilt = false

	if s.cfg.RejectOverlongLiteralCodes {
		for i := 286; i < s.hlit; i++ {
			if s.litDistLengths[i] != 0 {
				return dataErrorWrap(dataErrorf("code length assigned to reserved literal/length symbol %d", i))
			}
		}
	}
	if s.mode == ModeDeflate && s.cfg.RejectDeflateDistance30And31AtBuildTime {
		for i := 30; i < s.hdist; i++ {
			if s.litDistLengths[s.hlit+i] != 0 {
				return dataErrorWrap(dataErrorf("code length assigned to reserved distance symbol %d in DEFLATE mode", i))
			}
		}
	}
	return nil
}

// --- Compressed blocks (fixed or dynamic; RFC 1951 §3.2.5/§3.2.6) ---

// stepCompressedSymbol is the fast path: a Fill call tops the bit buffer
// up to the worst-case operation width, then literals are decoded one after
// another as long as buffered bits and window space allow. A length symbol
// ends the step; its extra bits, the distance symbol and the distance extra
// bits are each read by a step of their own. Config.FastPathEnabled gates the inner
// literal loop: disabled, this returns after exactly one literal, forcing
// run() back through its suspend/resume machinery for every single symbol
// instead of draining a whole run of buffered literals in one call.
func (s *Session) stepCompressedSymbol() {
	s.br.Fill()
	for {
		if s.win.free() == 0 {
			return
		}
		sym, ok, err := s.litLenTable.decode(&s.br)
		if err != nil {
			s.err = err
			return
		}
		if !ok {
			return
		}
		if sym < 256 {
			s.win.writeByte(byte(sym))
			if !s.cfg.FastPathEnabled {
				return
			}
			continue
		}
		if sym == 256 {
			s.endBlock()
			return
		}
		idx := int(sym) - 257
		if idx < 0 || idx >= len(s.lenTable) {
			s.err = dataErrorWrap(dataErrorf("invalid length symbol %d", sym))
			return
		}
		entry := s.lenTable[idx]
		s.pendingLength = entry.base
		s.pendingLenSym = sym
		if entry.extra == 0 {
			s.phase = PhaseCompressedDistanceSymbol
			s.step = s.stepCompressedDistanceSymbol
		} else {
			s.phase = PhaseCompressedLengthExtra
			s.step = s.stepCompressedLengthExtra
		}
		return
	}
}

func (s *Session) stepCompressedLengthExtra() {
	idx := int(s.pendingLenSym) - 257
	extra := s.lenTable[idx].extra
	v, ok := s.br.Read(extra)
	if !ok {
		return
	}
	s.pendingLength += v
	s.phase = PhaseCompressedDistanceSymbol
	s.step = s.stepCompressedDistanceSymbol
}

func (s *Session) stepCompressedDistanceSymbol() {
	sym, ok, err := s.distTable.decode(&s.br)
	if err != nil {
		s.err = err
		return
	}
	if !ok {
		return
	}
	if int(sym) >= len(s.distTabl) {
		s.err = dataErrorWrap(dataErrorf("invalid distance symbol %d", sym))
		return
	}
	entry := s.distTabl[sym]
	if entry.base == 0 {
		s.err = dataErrorWrap(dataErrorf("invalid distance symbol %d for mode %s", sym, s.mode))
		return
	}
	s.pendingDistance = entry.base
	if entry.extra == 0 {
		s.beginCopy()
		return
	}
	s.pendingDistExtra = entry.extra
	s.phase = PhaseCompressedDistanceExtra
	s.step = s.stepCompressedDistanceExtra
}

func (s *Session) stepCompressedDistanceExtra() {
	v, ok := s.br.Read(s.pendingDistExtra)
	if !ok {
		return
	}
	s.pendingDistance += v
	s.beginCopy()
}

// beginCopy validates the assembled (length, distance) pair against the
// bytes produced so far and enters the continuing-copy phase.
func (s *Session) beginCopy() {
	if s.win.distanceInvalid(s.pendingDistance) {
		s.err = dataErrorWrap(dataErrorf("distance %d exceeds %d bytes produced so far", s.pendingDistance, s.win.totalWritten))
		return
	}
	s.copyLen = s.pendingLength
	s.copyDist = s.pendingDistance
	s.phase = PhaseCompressedCopy
	s.step = s.stepCompressedCopy
}

// stepCompressedCopy performs as much of a back-reference as the window has
// room for, resuming on later calls if the window (and, transitively, the
// caller's output buffer) fills up before the full length is produced.
// DEFLATE64 allows a single reference up to 65538 bytes, longer than the
// window itself, so one back-reference can span many Decode calls.
func (s *Session) stepCompressedCopy() {
	if s.copyLen == 0 {
		s.phase = PhaseCompressedSymbol
		s.step = s.stepCompressedSymbol
		return
	}
	if s.win.free() == 0 {
		return
	}
	produced := s.win.copyLengthDistance(s.copyLen, s.copyDist)
	s.copyLen -= produced
	if s.copyLen == 0 {
		s.phase = PhaseCompressedSymbol
		s.step = s.stepCompressedSymbol
	}
}
