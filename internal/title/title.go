// Package title recognizes and rewrites OSC terminal-title escape sequences
// in raw byte streams. Terminal emulators set window and icon titles with
// sequences of the form ESC ] <code> ; <text> BEL (or ESC \ as terminator);
// this package appends resource stats to the title text while reproducing the
// surrounding bytes exactly.
package title

import (
	"bytes"
	"strings"
)

const (
	esc  = 0x1b
	bell = 0x07
)

// Terminator identifies how an OSC sequence was closed.
type Terminator int

const (
	// TermBell is the BEL (0x07) terminator.
	TermBell Terminator = iota
	// TermST is the two-byte string terminator ESC \.
	TermST
)

// ResetSequence restores a neutral terminal title. Written during cleanup so
// the stats don't outlive the monitored process.
var ResetSequence = []byte("\x1b]0;Terminal\x07")

// Match is one recognized title sequence within a scanned chunk.
// Start and End delimit the full sequence including prefix and terminator.
type Match struct {
	Start int
	End   int
	Code  byte   // '0', '1' or '2'
	Text  string // decoded title payload, may be empty
	Term  Terminator
}

// Set builds a bell-terminated OSC 0 sequence carrying text. Used for
// proactive pushes and by tests.
func Set(text string) []byte {
	var b bytes.Buffer
	b.Grow(len(text) + 6)
	b.WriteByte(esc)
	b.WriteString("]0;")
	b.WriteString(text)
	b.WriteByte(bell)
	return b.Bytes()
}

// Rewrite scans data left to right for title sequences and returns the chunk
// with each sequence's payload extended: non-empty payloads become
// "payload | stats", empty payloads become stats alone. The sequence prefix
// (ESC ] <code> ;) and terminator style are preserved byte for byte.
//
// Recognized shapes: OSC 0/1/2 with BEL terminator, OSC 0/2 with ESC \.
// Anything else, including a sequence cut off at the end of the chunk, passes
// through unmodified; a sequence split across two chunks is therefore
// forwarded unrewritten rather than buffered.
//
// The returned matches are in stream order and carry the original (pre-append)
// payload, decoded as UTF-8 with replacement characters for invalid bytes.
//
// With empty stats there is nothing to append: the chunk is forwarded
// unmodified, though matches are still reported.
func Rewrite(data []byte, stats string) ([]byte, []Match) {
	matches := scan(data)
	if len(matches) == 0 || stats == "" {
		return data, matches
	}

	var out bytes.Buffer
	out.Grow(len(data) + len(matches)*(len(stats)+3))
	prev := 0
	for _, m := range matches {
		out.Write(data[prev:m.Start])
		// Prefix bytes are reproduced from the input, not rebuilt.
		out.Write(data[m.Start : m.Start+4])
		if m.Text != "" {
			out.WriteString(strings.ToValidUTF8(m.Text+" | "+stats, "�"))
		} else {
			out.WriteString(strings.ToValidUTF8(stats, "�"))
		}
		switch m.Term {
		case TermBell:
			out.WriteByte(bell)
		case TermST:
			out.WriteByte(esc)
			out.WriteByte('\\')
		}
		prev = m.End
	}
	out.Write(data[prev:])
	return out.Bytes(), matches
}

// scan finds all complete title sequences in data. Payload bytes exclude BEL
// and ESC, so matches can never overlap and a single pass is sufficient.
func scan(data []byte) []Match {
	var matches []Match
	i := 0
	for i < len(data) {
		if data[i] != esc {
			i++
			continue
		}
		m, ok := matchAt(data, i)
		if !ok {
			i++
			continue
		}
		matches = append(matches, m)
		i = m.End
	}
	return matches
}

// matchAt attempts to parse a title sequence starting at offset i, which must
// point at an ESC byte.
func matchAt(data []byte, i int) (Match, bool) {
	// Prefix: ESC ] <code> ;
	if i+4 > len(data) || data[i+1] != ']' {
		return Match{}, false
	}
	code := data[i+2]
	if (code != '0' && code != '1' && code != '2') || data[i+3] != ';' {
		return Match{}, false
	}

	// Payload runs until BEL or ESC.
	j := i + 4
	for j < len(data) && data[j] != bell && data[j] != esc {
		j++
	}
	if j >= len(data) {
		return Match{}, false // cut off at chunk boundary
	}

	text := strings.ToValidUTF8(string(data[i+4:j]), "�")

	if data[j] == bell {
		return Match{Start: i, End: j + 1, Code: code, Text: text, Term: TermBell}, true
	}
	// ESC \ terminator, valid for codes 0 and 2 only.
	if code != '1' && j+1 < len(data) && data[j+1] == '\\' {
		return Match{Start: i, End: j + 2, Code: code, Text: text, Term: TermST}, true
	}
	return Match{}, false
}
