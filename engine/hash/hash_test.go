package hash

import (
	"bytes"
	"strings"
	"testing"
)

func TestReaderKnownVectors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "d41d8cd98f00b204e9800998ecf8427e"},
		{"abc", "abc", "900150983cd24fb0d6963f7d28e17f72"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Reader(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("Reader: %v", err)
			}
			if got != tt.want {
				t.Errorf("Reader(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestReaderLargeInput(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 5*chunkSize+17)
	got, err := Reader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Reader: %v", err)
	}
	if len(got) != 32 {
		t.Errorf("Reader returned digest of length %d, want 32", len(got))
	}
}
