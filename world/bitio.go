package world

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrTruncated reports a count that promises more data than the input holds.
var ErrTruncated = errors.New("world: count exceeds input")

type bitWriter struct {
	buf []byte
	acc uint64
	n   uint8
}

func newBitWriter() *bitWriter { return &bitWriter{buf: make([]byte, 0, 16)} }

func (w *bitWriter) writeBits(v uint64, bits uint8) {
	w.acc |= (v & ((1 << bits) - 1)) << w.n
	w.n += bits
	for w.n >= 8 {
		w.buf = append(w.buf, byte(w.acc&0xFF))
		w.acc >>= 8
		w.n -= 8
	}
}

func (w *bitWriter) bytes() []byte {
	if w.n > 0 {
		w.buf = append(w.buf, byte(w.acc&0xFF))
		w.acc = 0
		w.n = 0
	}
	return w.buf
}

type bitReader struct {
	data []byte
	acc  uint64
	n    uint8
	pos  int
}

func newBitReader(b []byte) *bitReader { return &bitReader{data: b} }

func (r *bitReader) readBits(bits uint8) (uint64, error) {
	for r.n < bits {
		if r.pos >= len(r.data) {
			return 0, io.ErrUnexpectedEOF
		}
		r.acc |= uint64(r.data[r.pos]) << r.n
		r.n += 8
		r.pos++
	}
	mask := uint64((1 << bits) - 1)
	v := r.acc & mask
	r.acc >>= bits
	r.n -= bits
	return v, nil
}

func writeUVarint(dst []byte, x uint32) []byte {
	return binary.AppendUvarint(dst, uint64(x))
}

func readUVarint(src []byte, pos *int) (uint32, error) {
	v, n := binary.Uvarint(src[*pos:])
	if n <= 0 || v > 0xFFFFFFFF {
		return 0, io.ErrUnexpectedEOF
	}
	*pos += n
	return uint32(v), nil
}

// readCount reads an element count and rejects counts the remaining input
// cannot hold, given the smallest encoding of one element.
func readCount(src []byte, pos *int, minSize int) (uint32, error) {
	n, err := readUVarint(src, pos)
	if err != nil {
		return 0, err
	}
	if uint64(n)*uint64(minSize) > uint64(len(src)-*pos) {
		return 0, fmt.Errorf("%w: count %d exceeds remaining %d bytes", ErrTruncated, n, len(src)-*pos)
	}
	return n, nil
}

// writeVarint stores signed grid coordinates zig-zag encoded.
func writeVarint(dst []byte, x int32) []byte {
	return binary.AppendVarint(dst, int64(x))
}

func readVarint(src []byte, pos *int) (int32, error) {
	v, n := binary.Varint(src[*pos:])
	if n <= 0 || v < -1<<31 || v > 1<<31-1 {
		return 0, io.ErrUnexpectedEOF
	}
	*pos += n
	return int32(v), nil
}

func writeString(dst []byte, s string) []byte {
	dst = writeUVarint(dst, uint32(len(s)))
	return append(dst, s...)
}

func readString(src []byte, pos *int) (string, error) {
	n, err := readUVarint(src, pos)
	if err != nil {
		return "", err
	}
	if uint64(*pos)+uint64(n) > uint64(len(src)) {
		return "", io.ErrUnexpectedEOF
	}
	s := string(src[*pos : *pos+int(n)])
	*pos += int(n)
	return s, nil
}

func readByte(src []byte, pos *int) (byte, error) {
	if *pos >= len(src) {
		return 0, io.ErrUnexpectedEOF
	}
	b := src[*pos]
	*pos++
	return b, nil
}

func readBytes(src []byte, pos *int, n int) ([]byte, error) {
	if *pos+n > len(src) {
		return nil, io.ErrUnexpectedEOF
	}
	b := src[*pos : *pos+n]
	*pos += n
	return b, nil
}
