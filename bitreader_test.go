package deflate

import "testing"

func TestBitReaderReadBasic(t *testing.T) {
	br := &bitReader{}
	br.init(48)
	// 0b10110010 -> bits LSB first: 0,1,0,0,1,1,0,1
	br.setInput([]byte{0xb2})
	br.Fill()

	v, ok := br.Read(1)
	if !ok || v != 0 {
		t.Fatalf("bit 0: got %d ok=%v, want 0 true", v, ok)
	}
	v, ok = br.Read(3)
	if !ok || v != 1 { // bits 1,2,3 = 1,0,0 -> value 1
		t.Fatalf("bits 1-3: got %d ok=%v, want 1 true", v, ok)
	}
}

func TestBitReaderPeekConsume(t *testing.T) {
	br := &bitReader{}
	br.init(48)
	br.setInput([]byte{0x01, 0x00}) // bit0 = 1, all other bits 0
	br.Fill()
	if got := br.Peek(1); got != 1 {
		t.Fatalf("Peek(1) = %d, want 1", got)
	}
	br.Consume(1)
	if got := br.Peek(15); got != 0 {
		t.Fatalf("Peek(15) after consume = %d, want 0", got)
	}
}

func TestBitReaderReadInsufficientSuspendsWithoutConsuming(t *testing.T) {
	br := &bitReader{}
	br.init(48)
	br.setInput([]byte{0xff})
	br.Fill()
	if _, ok := br.Read(9); ok {
		t.Fatalf("Read(9) with only 8 buffered bits should fail")
	}
	// Nothing was consumed; a full byte should still be readable.
	v, ok := br.Read(8)
	if !ok || v != 0xff {
		t.Fatalf("Read(8) after failed Read(9) = %d, %v, want 255, true", v, ok)
	}
}

func TestBitReaderByteAlignAndCopyBytes(t *testing.T) {
	br := &bitReader{}
	br.init(48)
	br.setInput([]byte{0x05, 0xaa, 0xbb, 0xcc})
	br.Fill()
	// Consume 3 bits so the reader sits mid-byte.
	if _, ok := br.Read(3); !ok {
		t.Fatal("Read(3) failed")
	}
	if !br.ByteAlign() {
		t.Fatal("ByteAlign failed")
	}
	dst := make([]byte, 3)
	n := br.CopyBytes(3, dst)
	if n != 3 {
		t.Fatalf("CopyBytes returned %d, want 3", n)
	}
	want := []byte{0xaa, 0xbb, 0xcc}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("CopyBytes[%d] = %#x, want %#x", i, dst[i], want[i])
		}
	}
}

func TestBitReaderDeflate64FillTarget(t *testing.T) {
	br := &bitReader{}
	br.init(60)
	data := make([]byte, 8)
	for i := range data {
		data[i] = 0xff
	}
	br.setInput(data)
	got := br.Fill()
	if got < 60 {
		t.Fatalf("Fill() with 8 available bytes returned %d bits, want >= 60", got)
	}
}
