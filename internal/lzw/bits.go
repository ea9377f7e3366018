package lzw

// bitWriter packs variable-width codes MSB-first.
type bitWriter struct {
	buf []byte
	acc uint64
	n   uint
}

func newBitWriter(sizeHint int) *bitWriter {
	return &bitWriter{buf: make([]byte, 0, sizeHint)}
}

func (w *bitWriter) write(code uint32, width uint) {
	w.acc = w.acc<<width | uint64(code)
	w.n += width
	for w.n >= 8 {
		w.n -= 8
		w.buf = append(w.buf, byte(w.acc>>w.n))
	}
	w.acc &= 1<<w.n - 1
}

// bytes flushes the pending bits, zero-padding the last byte.
func (w *bitWriter) bytes() []byte {
	if w.n > 0 {
		w.buf = append(w.buf, byte(w.acc<<(8-w.n)))
		w.acc, w.n = 0, 0
	}
	return w.buf
}

// bitReader is the inverse of bitWriter.
type bitReader struct {
	src []byte
	off int
	acc uint64
	n   uint
}

func newBitReader(src []byte) *bitReader {
	return &bitReader{src: src}
}

// read returns the next width-bit code, or false when fewer than width bits remain.
func (r *bitReader) read(width uint) (uint32, bool) {
	for r.n < width {
		if r.off >= len(r.src) {
			return 0, false
		}
		r.acc = r.acc<<8 | uint64(r.src[r.off])
		r.off++
		r.n += 8
	}
	r.n -= width
	code := uint32(r.acc>>r.n) & (1<<width - 1)
	r.acc &= 1<<r.n - 1
	return code, true
}

// cleanTail reports whether the unread remainder is valid zero padding.
func (r *bitReader) cleanTail() bool {
	return r.off == len(r.src) && r.n < 8 && r.acc == 0
}
