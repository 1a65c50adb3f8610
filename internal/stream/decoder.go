package stream

import (
	"unicode/utf8"
)

// chunkDecoder converts raw byte chunks into text while tolerating a
// multi-byte rune split across a chunk boundary: the incomplete trailing
// bytes are held back and prepended to the next chunk.
type chunkDecoder struct {
	pending []byte
}

// Decode returns the longest valid prefix of pending+p that ends on a
// complete rune; the remainder is retained for the next call.
func (d *chunkDecoder) Decode(p []byte) string {
	buf := make([]byte, 0, len(d.pending)+len(p))
	buf = append(buf, d.pending...)
	buf = append(buf, p...)
	d.pending = nil

	cut := len(buf)
	for i := len(buf) - 1; i >= 0 && i >= len(buf)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(buf[i]) {
			continue
		}
		if !utf8.FullRune(buf[i:]) {
			cut = i
		}
		break
	}

	if cut < len(buf) {
		d.pending = append(d.pending, buf[cut:]...)
	}
	return string(buf[:cut])
}

// Flush drains whatever bytes are still buffered. Called at end of stream;
// a genuinely truncated rune decodes to the replacement character rather
// than being lost.
func (d *chunkDecoder) Flush() string {
	s := string(d.pending)
	d.pending = nil
	return s
}
