package parse

// stream.go provides a streaming reader stack for uploads: UTF-8 BOM
// removal, invalid-byte sanitization, and byte counting for progress
// reporting. Transforms are applied in that order by NewReader.

import (
	"io"
	"sync/atomic"
	"unicode/utf8"
)

// Reader wraps an upload stream with BOM skipping, UTF-8 sanitization,
// and byte counting. BytesRead and Progress are safe to call from
// another goroutine while parsing is in flight.
type Reader struct {
	src   io.Reader
	total int64
	read  atomic.Int64
}

// NewReader builds the streaming stack around r. total is the expected
// size in bytes, or 0 if unknown.
func NewReader(r io.Reader, total int64) *Reader {
	out := &Reader{total: total}
	out.src = newSanitizer(newBOMSkipper(r, &out.read))
	return out
}

func (r *Reader) Read(p []byte) (int, error) {
	return r.src.Read(p)
}

// BytesRead returns the number of raw bytes consumed so far.
func (r *Reader) BytesRead() int64 { return r.read.Load() }

// Progress returns the read progress as a percentage (0-100), or 0 if
// the total size is unknown.
func (r *Reader) Progress() int {
	if r.total <= 0 {
		return 0
	}
	return int(r.read.Load() * 100 / r.total)
}

// bomSkipper strips a leading UTF-8 BOM (0xEF 0xBB 0xBF) and counts
// every raw byte consumed from the source, including the BOM itself.
type bomSkipper struct {
	src     io.Reader
	count   *atomic.Int64
	checked bool
	buf     []byte
}

func newBOMSkipper(r io.Reader, count *atomic.Int64) *bomSkipper {
	return &bomSkipper{src: r, count: count}
}

func (b *bomSkipper) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true

		var head [3]byte
		n, err := io.ReadFull(b.src, head[:])
		b.count.Add(int64(n))
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		if n == 0 {
			return 0, err
		}
		if n == 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
			// BOM found; fall through to a normal read.
		} else {
			b.buf = append(b.buf, head[:n]...)
		}
		if err != nil && err != io.EOF {
			return 0, err
		}
	}

	if len(b.buf) > 0 {
		n := copy(p, b.buf)
		b.buf = b.buf[n:]
		return n, nil
	}

	n, err := b.src.Read(p)
	b.count.Add(int64(n))
	return n, err
}

// sanitizer replaces invalid UTF-8 bytes with '?'. A single-byte
// replacement keeps the output no larger than the input, so the rewrite
// happens in place. Incomplete multi-byte sequences at a read boundary
// are held back until the next read.
type sanitizer struct {
	src     io.Reader
	pending []byte
}

func newSanitizer(r io.Reader) *sanitizer {
	return &sanitizer{src: r, pending: make([]byte, 0, utf8.UTFMax)}
}

func (s *sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	offset := copy(p, s.pending)
	s.pending = s.pending[:0]

	n, err := s.src.Read(p[offset:])
	n += offset
	if n == 0 {
		return 0, err
	}

	data := p[:n]
	if allASCII(data) {
		return n, err
	}

	atEOF := err == io.EOF
	write := 0
	for read := 0; read < len(data); {
		r, size := utf8.DecodeRune(data[read:])
		if r == utf8.RuneError && size == 1 {
			if !atEOF && expectedRuneLen(data[read]) > len(data)-read {
				// Possibly a sequence split across reads.
				s.pending = append(s.pending, data[read:]...)
				break
			}
			data[write] = '?'
			write++
			read++
			continue
		}
		copy(data[write:], data[read:read+size])
		write += size
		read += size
	}
	return write, err
}

func allASCII(data []byte) bool {
	for _, b := range data {
		if b >= 0x80 {
			return false
		}
	}
	return true
}

// expectedRuneLen returns the byte length implied by a UTF-8 leading
// byte, or 1 for bytes that cannot start a sequence.
func expectedRuneLen(b byte) int {
	switch {
	case b < 0x80:
		return 1
	case b < 0xC0:
		return 1
	case b < 0xE0:
		return 2
	case b < 0xF0:
		return 3
	default:
		return 4
	}
}
