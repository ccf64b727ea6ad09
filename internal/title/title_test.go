package title

import (
	"bytes"
	"testing"
)

func TestRewriteAllShapes(t *testing.T) {
	stats := "S"
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"osc0 bell", "\x1b]0;hi\x07", "\x1b]0;hi | S\x07"},
		{"osc2 bell", "\x1b]2;hi\x07", "\x1b]2;hi | S\x07"},
		{"osc1 bell", "\x1b]1;hi\x07", "\x1b]1;hi | S\x07"},
		{"osc0 st", "\x1b]0;hi\x1b\\", "\x1b]0;hi | S\x1b\\"},
		{"osc2 st", "\x1b]2;hi\x1b\\", "\x1b]2;hi | S\x1b\\"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, matches := Rewrite([]byte(tc.in), stats)
			if string(out) != tc.want {
				t.Errorf("Rewrite(%q) = %q, want %q", tc.in, out, tc.want)
			}
			if len(matches) != 1 {
				t.Fatalf("got %d matches, want 1", len(matches))
			}
			if matches[0].Text != "hi" {
				t.Errorf("match text = %q, want %q", matches[0].Text, "hi")
			}
		})
	}
}

func TestRewriteEmptyPayload(t *testing.T) {
	out, matches := Rewrite([]byte("\x1b]0;\x07"), "stats")
	if string(out) != "\x1b]0;stats\x07" {
		t.Errorf("got %q, want stats alone as payload", out)
	}
	if len(matches) != 1 || matches[0].Text != "" {
		t.Errorf("empty payload should still be a match, got %v", matches)
	}
}

func TestRewriteEmptyStatsLeavesChunkUntouched(t *testing.T) {
	// No stats yet (first sample failed): nothing to append, so the title
	// must not grow a dangling " | " delimiter.
	in := "\x1b]0;MyTitle\x07tail"
	out, matches := Rewrite([]byte(in), "")
	if string(out) != in {
		t.Errorf("got %q, want %q", out, in)
	}
	if len(matches) != 1 || matches[0].Text != "MyTitle" {
		t.Errorf("matches = %v, want one for MyTitle", matches)
	}
}

func TestRewriteIdentityWithoutTitles(t *testing.T) {
	inputs := []string{
		"",
		"plain text\n",
		"\x1b[31mcolored\x1b[0m",               // SGR, not OSC
		"\x1b]10;?\x07",                        // OSC but not a title code
		"\x1b]0 no semicolon\x07",              // malformed prefix
		"\x1b]1;icon\x1b\\",                    // OSC 1 with ST is not recognized
		"\xff\xfe arbitrary \x00 binary \x07",  // stray bell without prefix
	}
	for _, in := range inputs {
		out, matches := Rewrite([]byte(in), "S")
		if !bytes.Equal(out, []byte(in)) {
			t.Errorf("Rewrite(%q) = %q, want identity", in, out)
		}
		if len(matches) != 0 {
			t.Errorf("Rewrite(%q) produced matches %v", in, matches)
		}
	}
}

func TestRewritePartialSequencePassesThrough(t *testing.T) {
	// Sequence cut off at the chunk boundary: forwarded untouched, no match.
	in := "before\x1b]0;My Tit"
	out, matches := Rewrite([]byte(in), "S")
	if string(out) != in {
		t.Errorf("partial sequence: got %q, want %q", out, in)
	}
	if len(matches) != 0 {
		t.Errorf("partial sequence produced matches %v", matches)
	}
}

func TestRewriteSurroundingBytesUnchanged(t *testing.T) {
	in := "pre\x1b]2;T\x07post\x1b]0;U\x1b\\end"
	out, matches := Rewrite([]byte(in), "X")
	want := "pre\x1b]2;T | X\x07post\x1b]0;U | X\x1b\\end"
	if string(out) != want {
		t.Errorf("got %q, want %q", out, want)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].Text != "T" || matches[0].Code != '2' || matches[0].Term != TermBell {
		t.Errorf("first match = %+v", matches[0])
	}
	if matches[1].Text != "U" || matches[1].Code != '0' || matches[1].Term != TermST {
		t.Errorf("second match = %+v", matches[1])
	}
}

func TestRewriteInvalidUTF8Payload(t *testing.T) {
	in := []byte("\x1b]0;a\xffb\x07")
	out, matches := Rewrite(in, "S")
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	if matches[0].Text != "a�b" {
		t.Errorf("decoded text = %q, want replacement char", matches[0].Text)
	}
	want := "\x1b]0;a�b | S\x07"
	if string(out) != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestRewriteUnicodeStats(t *testing.T) {
	out, _ := Rewrite([]byte("\x1b]0;MyTitle\x07tail"), "📊 1.0% CPU, 2.0MB RAM")
	want := "\x1b]0;MyTitle | 📊 1.0% CPU, 2.0MB RAM\x07tail"
	if string(out) != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestRewriteNotIdempotent(t *testing.T) {
	// Each pass appends again; the pipeline rewrites every chunk exactly once.
	once, _ := Rewrite([]byte("\x1b]0;t\x07"), "S")
	twice, _ := Rewrite(once, "S")
	want := "\x1b]0;t | S | S\x07"
	if string(twice) != want {
		t.Errorf("second pass = %q, want %q", twice, want)
	}
}

func TestSetAndReset(t *testing.T) {
	if got := string(Set("abc")); got != "\x1b]0;abc\x07" {
		t.Errorf("Set = %q", got)
	}
	if string(ResetSequence) != "\x1b]0;Terminal\x07" {
		t.Errorf("ResetSequence = %q", ResetSequence)
	}
}
