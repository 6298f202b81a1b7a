package deflate

import "testing"

func feedBits(bits []int) *bitReader {
	// Packs bits (each 0 or 1, in transmission/LSB-first order) into bytes.
	nbytes := (len(bits) + 7) / 8
	buf := make([]byte, nbytes)
	for i, b := range bits {
		if b != 0 {
			buf[i/8] |= 1 << uint(i%8)
		}
	}
	br := &bitReader{}
	br.init(48)
	br.setInput(buf)
	br.Fill()
	return br
}

func TestHuffmanBuildAndDecodeSingleUsedCode(t *testing.T) {
	// Symbol 0 gets the 1-bit code "0"; symbol 1 is unused (length 0). An
	// under-subscribed code set like this is accepted.
	tbl := newHuffmanTable(7, codeLenTableSize)
	if err := tbl.build([]int{1, 0}); err != nil {
		t.Fatalf("build: %v", err)
	}
	br := feedBits([]int{0})
	sym, ok, err := tbl.decode(br)
	if err != nil || !ok {
		t.Fatalf("decode: sym=%d ok=%v err=%v", sym, ok, err)
	}
	if sym != 0 {
		t.Fatalf("decode: got symbol %d, want 0", sym)
	}
}

func TestHuffmanBuildTwoSymbolsEqualLength(t *testing.T) {
	// Two symbols of length 1 is a complete, valid code: "0" -> sym 0, "1" -> sym 1.
	tbl := newHuffmanTable(7, codeLenTableSize)
	if err := tbl.build([]int{1, 1}); err != nil {
		t.Fatalf("build: %v", err)
	}
	br := feedBits([]int{1})
	sym, ok, err := tbl.decode(br)
	if err != nil || !ok {
		t.Fatalf("decode: sym=%d ok=%v err=%v", sym, ok, err)
	}
	if sym != 1 {
		t.Fatalf("decode: got symbol %d, want 1", sym)
	}
}

func TestHuffmanOverSubscribedRejected(t *testing.T) {
	// Three symbols claiming length 1 cannot be assigned distinct prefix
	// codes (only two 1-bit codes exist): over-subscribed.
	tbl := newHuffmanTable(7, codeLenTableSize)
	if err := tbl.build([]int{1, 1, 1}); err == nil {
		t.Fatal("build of an over-subscribed code set should fail")
	}
}

func TestHuffmanDecodeInsufficientBitsSuspends(t *testing.T) {
	tbl := newHuffmanTable(7, codeLenTableSize)
	lengths := make([]int, 4)
	lengths[0] = 2
	lengths[1] = 2
	lengths[2] = 2
	lengths[3] = 2
	if err := tbl.build(lengths); err != nil {
		t.Fatalf("build: %v", err)
	}
	br := &bitReader{}
	br.init(48)
	br.setInput(nil) // no bits at all buffered
	if _, ok, err := tbl.decode(br); ok || err != nil {
		t.Fatalf("decode with no buffered bits should suspend cleanly: ok=%v err=%v", ok, err)
	}
}

func TestHuffmanFixedTablesBuildWithoutError(t *testing.T) {
	lit := newHuffmanTable(litLenTableBits, litLenTableSize)
	if err := lit.build(fixedLiteralLengths()); err != nil {
		t.Fatalf("fixed literal/length table: %v", err)
	}
	dist := newHuffmanTable(distTableBits, distTableSize)
	if err := dist.build(fixedDistanceLengths()); err != nil {
		t.Fatalf("fixed distance table: %v", err)
	}
}

// TestFixedDistanceTableDecodesSymbols30And31 covers DEFLATE64's use of the
// fixed distance table's reserved symbols 30/31 (distances >= 32769):
// fixedDistanceLengths must assign all 32 symbols, not just the 30 RFC 1951
// defines, or these codes are unassigned in a fixed block regardless of mode.
func TestFixedDistanceTableDecodesSymbols30And31(t *testing.T) {
	dist := newHuffmanTable(distTableBits, distTableSize)
	if err := dist.build(fixedDistanceLengths()); err != nil {
		t.Fatalf("build: %v", err)
	}
	for _, want := range []uint32{30, 31} {
		br := feedBits(huffmanBits(want, 5))
		got, ok, err := dist.decode(br)
		if err != nil || !ok {
			t.Fatalf("decode symbol %d: ok=%v err=%v", want, ok, err)
		}
		if uint32(got) != want {
			t.Fatalf("decode symbol %d: got %d", want, got)
		}
	}
}
