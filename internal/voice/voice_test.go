package voice

import (
	"context"
	"testing"
)

func TestChunkSentences(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"One sentence without terminator", []string{"One sentence without terminator"}},
		{"Just one sentence.", []string{"Just one sentence."}},
		{
			"First point. Second point! Third point?",
			[]string{"First point.", "Second point!", "Third point?"},
		},
		{
			"Version 2.0 is fine. Next sentence.",
			[]string{"Version 2.0 is fine.", "Next sentence."},
		},
	}
	for _, c := range cases {
		got := ChunkSentences(c.in)
		if len(got) != len(c.want) {
			t.Errorf("ChunkSentences(%q) = %v, want %v", c.in, got, c.want)
			continue
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Errorf("ChunkSentences(%q)[%d] = %q, want %q", c.in, i, got[i], c.want[i])
			}
		}
	}
}

func TestUnsupportedRecognizer(t *testing.T) {
	var r Recognizer = Unsupported{}
	if r.Supported() {
		t.Error("Unsupported.Supported() = true")
	}
	err := r.Start(context.Background(), func(string) {}, nil)
	if err != ErrRecognizerUnsupported {
		t.Errorf("Start err = %v, want ErrRecognizerUnsupported", err)
	}
	r.Stop() // must not panic
}

func TestCommandRecognizerUnavailableBinary(t *testing.T) {
	r := NewCommandRecognizer([]string{"definitely-not-a-real-stt-binary"})
	if r.Supported() {
		t.Error("Supported() = true for missing binary")
	}
	if err := r.Start(context.Background(), func(string) {}, nil); err != ErrRecognizerUnsupported {
		t.Errorf("Start err = %v, want ErrRecognizerUnsupported", err)
	}
}
