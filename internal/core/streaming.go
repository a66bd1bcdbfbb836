package core

// streaming.go holds the readers every import body passes through before
// it reaches encoding/csv. Spreadsheet tools on Windows prepend a UTF-8 BOM
// and legacy exports occasionally carry Shift_JIS bytes; neither may turn
// into a file-level "invalid csv" failure.

import (
	"io"
	"unicode/utf8"
)

// newImportReader strips a leading BOM and replaces invalid UTF-8 bytes
// with '?'. The BOM must go first so it is never seen as data.
func newImportReader(r io.Reader) io.Reader {
	return &utf8Sanitizer{r: &bomSkipper{r: r}, pending: make([]byte, 0, utf8.UTFMax)}
}

// utf8Sanitizer rewrites invalid bytes in place. A multi-byte rune split
// across two reads is carried over in pending.
type utf8Sanitizer struct {
	r       io.Reader
	pending []byte
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	offset := 0
	if len(s.pending) > 0 {
		offset = copy(p, s.pending)
		s.pending = s.pending[:0]
	}

	n, err := s.r.Read(p[offset:])
	n += offset
	if n == 0 {
		return 0, err
	}
	if isASCII(p[:n]) {
		return n, err
	}
	return s.sanitize(p[:n], err == io.EOF), err
}

func isASCII(data []byte) bool {
	for _, b := range data {
		if b >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// sanitize returns the number of bytes of data ready to hand out. Without
// atEOF, an unfinished rune at the end is held back for the next call.
func (s *utf8Sanitizer) sanitize(data []byte, atEOF bool) int {
	if utf8.Valid(data) {
		if !atEOF {
			if tail := unfinishedTail(data); tail > 0 {
				s.pending = append(s.pending, data[len(data)-tail:]...)
				return len(data) - tail
			}
		}
		return len(data)
	}

	write := 0
	for read := 0; read < len(data); {
		if !atEOF && !utf8.FullRune(data[read:]) {
			s.pending = append(s.pending, data[read:]...)
			return write
		}
		r, size := utf8.DecodeRune(data[read:])
		if r == utf8.RuneError && size == 1 {
			// '?' keeps the output no longer than the input.
			data[write] = '?'
			write++
			read++
			continue
		}
		copy(data[write:], data[read:read+size])
		write += size
		read += size
	}
	return write
}

// unfinishedTail counts trailing bytes that begin a rune not yet complete.
func unfinishedTail(data []byte) int {
	for i := 1; i < utf8.UTFMax && i <= len(data); i++ {
		if utf8.RuneStart(data[len(data)-i]) {
			if utf8.FullRune(data[len(data)-i:]) {
				return 0
			}
			return i
		}
	}
	return 0
}

// bomSkipper drops 0xEF 0xBB 0xBF from the very start of the stream.
type bomSkipper struct {
	r       io.Reader
	checked bool
	head    []byte
}

func (b *bomSkipper) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		var buf [3]byte
		n, err := io.ReadFull(b.r, buf[:])
		switch {
		case err == io.ErrUnexpectedEOF || err == io.EOF:
			err = io.EOF
		case err != nil:
			return 0, err
		}
		if n == 3 && buf == [3]byte{0xEF, 0xBB, 0xBF} {
			n = 0
		}
		b.head = append([]byte(nil), buf[:n]...)
		if err == io.EOF && len(b.head) == 0 {
			return 0, io.EOF
		}
	}
	if len(b.head) > 0 {
		n := copy(p, b.head)
		b.head = b.head[n:]
		return n, nil
	}
	return b.r.Read(p)
}
