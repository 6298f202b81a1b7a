package deflate

// window.go implements the 65536-byte sliding window shared by DEFLATE and
// DEFLATE64, with independent read and write offsets rather than a single
// wrapping cursor: DEFLATE64's maximum back-reference length (65538)
// exceeds the window size, so a caller must be able to interleave draining
// output with further copying mid-reference.

const windowSize = 1 << 16 // 65536, the DEFLATE history size

type window struct {
	buf []byte // allocated once at Init time via the session's Allocator

	readOffset  uint16
	writeOffset uint16
	unconsumed  uint32 // bytes written but not yet drained to the caller

	totalWritten uint64 // monotonic count of bytes ever written, for distance validation
}

func (w *window) reset() {
	w.readOffset = 0
	w.writeOffset = 0
	w.unconsumed = 0
	w.totalWritten = 0
}

func (w *window) free() uint32 {
	return windowSize - w.unconsumed
}

// writeByte appends a single literal byte. Fails if the window is full;
// the caller (block.go) checks free() before decoding each symbol.
func (w *window) writeByte(b byte) bool {
	if w.unconsumed == windowSize {
		return false
	}
	w.buf[w.writeOffset] = b
	w.writeOffset++
	w.unconsumed++
	w.totalWritten++
	return true
}

// copyFromReader pulls up to n byte-aligned bytes from br into the window,
// for an uncompressed block. It copies no more than the window's free space
// and the available input allow, and returns the number of bytes copied.
func (w *window) copyFromReader(br *bitReader, n int) int {
	copied := 0
	for copied < n {
		chunk := int(w.free())
		if chunk == 0 {
			break
		}
		if chunk > n-copied {
			chunk = n - copied
		}
		// Respect the ring wrap: don't ask CopyBytes for more than fits
		// before writeOffset wraps around.
		toEnd := windowSize - int(w.writeOffset)
		if chunk > toEnd {
			chunk = toEnd
		}
		got := br.CopyBytes(chunk, w.buf[w.writeOffset:int(w.writeOffset)+chunk])
		if got == 0 {
			break
		}
		w.writeOffset += uint16(got)
		w.unconsumed += uint32(got)
		w.totalWritten += uint64(got)
		copied += got
		if got < chunk {
			break
		}
	}
	return copied
}

// distanceInvalid reports whether distance reaches further back than any
// byte this window has ever produced.
func (w *window) distanceInvalid(distance uint32) bool {
	return uint64(distance) > w.totalWritten
}

// copyLengthDistance emits a back-reference of up to length bytes starting
// distance bytes before the current write offset. It returns the number of
// bytes actually produced, which may be less than length if the window
// fills up first; the caller resumes with the remainder on its next call.
// distance must already have been validated via distanceInvalid.
func (w *window) copyLengthDistance(length, distance uint32) uint32 {
	var produced uint32
	for length > 0 {
		if w.free() == 0 {
			break
		}
		readOffset := w.writeOffset - uint16(distance)

		// Each inner copy is bounded by how much space remains before the
		// write offset wraps, how much of the source run remains before
		// the read offset would wrap or catch up to the write offset, and
		// by length and distance themselves (distance caps it so a
		// shorter source than the requested length repeats correctly,
		// i.e. run-length encoding when length > distance).
		n := w.free()
		if n > length {
			n = length
		}
		if n > distance {
			n = distance
		}
		if toWriteWrap := uint32(windowSize) - uint32(w.writeOffset); n > toWriteWrap {
			n = toWriteWrap
		}
		if toReadWrap := uint32(windowSize) - uint32(readOffset); n > toReadWrap {
			n = toReadWrap
		}
		if n == 0 {
			// Not reached in practice: length and free() are both nonzero
			// here, distance is at least 1, and both wrap bounds are at
			// least 1. Kept as a guard against looping without progress.
			break
		}

		src := readOffset
		dst := w.writeOffset
		for i := uint32(0); i < n; i++ {
			w.buf[dst] = w.buf[src]
			dst++
			src++
		}

		w.writeOffset = dst
		w.unconsumed += n
		w.totalWritten += uint64(n)
		length -= n
		produced += n
	}
	return produced
}

// drain copies up to len(out) unconsumed bytes to the caller, wrapping the
// read offset.
func (w *window) drain(out []byte) int {
	n := 0
	for n < len(out) && w.unconsumed > 0 {
		chunk := len(out) - n
		toEnd := windowSize - int(w.readOffset)
		if chunk > toEnd {
			chunk = toEnd
		}
		if uint32(chunk) > w.unconsumed {
			chunk = int(w.unconsumed)
		}
		copy(out[n:n+chunk], w.buf[w.readOffset:int(w.readOffset)+chunk])
		w.readOffset += uint16(chunk)
		w.unconsumed -= uint32(chunk)
		n += chunk
	}
	return n
}
