package sink

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// Text accumulates UTF-8 text line by line. Bytes are held until a line
// terminator arrives; every complete line is then trimmed of leading and
// trailing whitespace and appended, so the result does not depend on how
// the input was split into chunks. A final line without a terminator is
// trimmed when the text is read.
//
// A multibyte sequence split across two chunks is joined before decoding.
// By default malformed sequences are replaced with U+FFFD. A sink built
// with [Strict] rejects them with [ErrInvalidUTF8] instead. A sequence
// still incomplete when the text is read is replaced in either mode.
type Text struct {
	sb     strings.Builder
	line   []byte
	dec    *encoding.Decoder
	strict bool
}

// TextOption configures a [Text] sink.
type TextOption func(*Text)

// Strict makes the sink reject malformed UTF-8 rather than replace it.
func Strict() TextOption {
	return func(t *Text) {
		t.strict = true
	}
}

// NewText returns an empty Text sink.
func NewText(opts ...TextOption) *Text {
	t := &Text{dec: unicode.UTF8.NewDecoder()}
	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Insert appends chunk. In strict mode a chunk containing malformed UTF-8
// is rejected as a whole and nothing is stored.
func (t *Text) Insert(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}

	if t.strict {
		start := len(t.line) - partialRuneLen(t.line)
		check := append(bytes.Clone(t.line[start:]), chunk...)
		if !utf8.Valid(check[:len(check)-partialRuneLen(check)]) {
			return ErrInvalidUTF8
		}
	}

	t.line = append(t.line, chunk...)

	for {
		i := bytes.IndexByte(t.line, '\n')
		if i < 0 {
			break
		}

		s, err := t.decode(t.line[:i+1])
		if err != nil {
			return err
		}
		t.sb.WriteString(strings.TrimSpace(s))

		n := copy(t.line, t.line[i+1:])
		t.line = t.line[:n]
	}

	return nil
}

// decode turns a run of complete lines into text. A newline never falls
// inside a multibyte sequence, so p holds no split rune.
func (t *Text) decode(p []byte) (string, error) {
	if t.strict {
		return string(p), nil
	}

	s, err := t.dec.String(string(p))
	if err != nil {
		return "", fmt.Errorf("decoding line: %w", err)
	}

	return s, nil
}

// tail returns the trimmed unterminated last line.
func (t *Text) tail() string {
	if len(t.line) == 0 {
		return ""
	}

	s, err := t.dec.String(string(t.line))
	if err != nil {
		s = strings.ToValidUTF8(string(t.line), string(utf8.RuneError))
	}

	return strings.TrimSpace(s)
}

// Write implements io.Writer.
func (t *Text) Write(p []byte) (int, error) {
	if err := t.Insert(p); err != nil {
		return 0, err
	}

	return len(p), nil
}

// Bytes returns the accumulated text as bytes.
func (t *Text) Bytes() []byte {
	return []byte(t.String())
}

func (t *Text) String() string {
	return t.sb.String() + t.tail()
}

// Len reports the length of the accumulated text in bytes.
func (t *Text) Len() int { return t.sb.Len() + len(t.tail()) }

// Reset empties the sink.
func (t *Text) Reset() {
	t.sb.Reset()
	t.line = t.line[:0]
}

// partialRuneLen reports how many bytes at the end of p start a multibyte
// sequence that is still missing its continuation bytes.
func partialRuneLen(p []byte) int {
	for i := len(p) - 1; i >= 0 && i >= len(p)-utf8.UTFMax+1; i-- {
		if utf8.RuneStart(p[i]) {
			if utf8.FullRune(p[i:]) {
				return 0
			}
			return len(p) - i
		}
	}

	return 0
}
