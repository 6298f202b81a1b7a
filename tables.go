package deflate

// tables.go holds the fixed Huffman code lengths (RFC 1951 §3.2.6) and the
// length/distance base+extra-bits tables, including the DEFLATE64
// redefinitions of symbol 285 and symbols 30/31, as data tables so the two
// format variants share one code path (session.go selects which table to
// install for the session's mode).

// fixedLiteralLengths builds the RFC 1951 static literal/length code
// lengths: symbols 0..143 -> 8, 144..255 -> 9, 256..279 -> 7, 280..287 -> 8.
func fixedLiteralLengths() []int {
	lens := make([]int, 288)
	for i := 0; i < 144; i++ {
		lens[i] = 8
	}
	for i := 144; i < 256; i++ {
		lens[i] = 9
	}
	for i := 256; i < 280; i++ {
		lens[i] = 7
	}
	for i := 280; i < 288; i++ {
		lens[i] = 8
	}
	return lens
}

// fixedDistanceLengths builds the fixed-block distance code lengths: all 32
// symbols at length 5. RFC 1951 only defines 30 of them, but a fixed block
// is otherwise mode-agnostic and DEFLATE64 legitimately uses symbols 30/31
// for distances >= 32769, so both must decode; distanceTable's base-0 entries
// for symbols 30/31 already reject them at use when the session is in plain
// DEFLATE mode.
func fixedDistanceLengths() []int {
	lens := make([]int, 32)
	for i := range lens {
		lens[i] = 5
	}
	return lens
}

// codeOrder is the fixed HCLEN permutation used to read code-length code
// lengths out of a dynamic block header (RFC 1951 §3.2.7).
var codeOrder = [19]int{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

// lengthEntry and distEntry are (base, extra-bits) pairs, indexed by
// symbol-257 for lengths and by symbol directly for distances.
type lengthEntry struct {
	base  uint32
	extra uint
}

type distEntry struct {
	base  uint32
	extra uint
}

// lengthTable returns the 29-entry length table (symbols 257..285) for the
// given mode. Only symbol 285 (index 28) differs between DEFLATE and
// DEFLATE64.
func lengthTable(mode Mode) [29]lengthEntry {
	t := [29]lengthEntry{
		{3, 0}, {4, 0}, {5, 0}, {6, 0}, {7, 0}, {8, 0}, {9, 0}, {10, 0},
		{11, 1}, {13, 1}, {15, 1}, {17, 1},
		{19, 2}, {23, 2}, {27, 2}, {31, 2},
		{35, 3}, {43, 3}, {51, 3}, {59, 3},
		{67, 4}, {83, 4}, {99, 4}, {115, 4},
		{131, 5}, {163, 5}, {195, 5}, {227, 5},
		{258, 0}, // symbol 285, DEFLATE
	}
	if mode == ModeDeflate64 {
		t[28] = lengthEntry{3, 16} // symbol 285, DEFLATE64
	}
	return t
}

// distanceTable returns the 32-entry distance table (symbols 0..31) for the
// given mode. Symbols 30 and 31 are invalid in DEFLATE (base 0, a data
// error if ever decoded) and become extended entries in DEFLATE64.
func distanceTable(mode Mode) [32]distEntry {
	t := [32]distEntry{
		{1, 0}, {2, 0}, {3, 0}, {4, 0},
		{5, 1}, {7, 1},
		{9, 2}, {13, 2},
		{17, 3}, {25, 3},
		{33, 4}, {49, 4},
		{65, 5}, {97, 5},
		{129, 6}, {193, 6},
		{257, 7}, {385, 7},
		{513, 8}, {769, 8},
		{1025, 9}, {1537, 9},
		{2049, 10}, {3073, 10},
		{4097, 11}, {6145, 11},
		{8193, 12}, {12289, 12},
		{16385, 13}, {24577, 13},
		{0, 0}, {0, 0}, // symbols 30, 31: invalid in DEFLATE
	}
	if mode == ModeDeflate64 {
		t[30] = distEntry{32769, 14}
		t[31] = distEntry{49153, 14}
	}
	return t
}
