package engine

import (
	"errors"
	"testing"
	"time"
)

func TestDigestDeterministic(t *testing.T) {
	a := Digest("hello world")
	b := Digest("hello world")
	if a != b {
		t.Errorf("same input produced different digests: %s vs %s", a, b)
	}
	if a == Digest("hello world!") {
		t.Error("different inputs produced the same digest")
	}
}

func TestDigestLength(t *testing.T) {
	for _, content := range []string{"", "x", "a longer piece of cited content"} {
		sum := Digest(content)
		if len(sum) != 64 {
			t.Errorf("digest of %q has length %d, want 64", content, len(sum))
		}
		for _, c := range sum {
			if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
				t.Errorf("digest of %q contains non-hex rune %q", content, c)
			}
		}
	}
}

func TestDigestKnownValue(t *testing.T) {
	// sha256("") is a fixed vector.
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := Digest(""); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestCreateCitation(t *testing.T) {
	c, err := CreateCitation("doc_42", "some cited content")
	if err != nil {
		t.Fatalf("CreateCitation failed: %v", err)
	}
	if c.SourceID != "doc_42" {
		t.Errorf("got source id %q, want %q", c.SourceID, "doc_42")
	}
	if c.ContentHash != Digest("some cited content") {
		t.Error("content hash should be the digest of the content")
	}
	if c.Method != DefaultMethod {
		t.Errorf("got method %q, want %q", c.Method, DefaultMethod)
	}
	if _, err := time.Parse(time.RFC3339Nano, c.Timestamp); err != nil {
		t.Errorf("timestamp %q is not RFC3339: %v", c.Timestamp, err)
	}
}

func TestCreateCitationWithMethod(t *testing.T) {
	c, err := CreateCitationWithMethod("doc_1", "content", "sha256-manual")
	if err != nil {
		t.Fatalf("CreateCitationWithMethod failed: %v", err)
	}
	if c.Method != "sha256-manual" {
		t.Errorf("got method %q, want sha256-manual", c.Method)
	}
}

func TestNewCitationRejectsEmptyHash(t *testing.T) {
	_, err := NewCitation("doc_1", "", "sha256")
	if !errors.Is(err, ErrEmptyContentHash) {
		t.Errorf("expected ErrEmptyContentHash, got %v", err)
	}
}

func TestNewCitationDefaultsMethod(t *testing.T) {
	c, err := NewCitation("doc_1", Digest("content"), "")
	if err != nil {
		t.Fatalf("NewCitation failed: %v", err)
	}
	if c.Method != DefaultMethod {
		t.Errorf("got method %q, want %q", c.Method, DefaultMethod)
	}
}
