package stream

import (
	"errors"
	"testing"
)

func TestCursorReads(t *testing.T) {
	c := NewCursor("3fooS1A_")

	n, err := c.ReadNumber()
	if err != nil || n != 3 {
		t.Fatalf("ReadNumber = %d, %v; want 3", n, err)
	}
	id, err := c.Take(n)
	if err != nil || id != "foo" {
		t.Fatalf("Take(3) = %q, %v; want foo", id, err)
	}
	if !c.MatchByte('S') {
		t.Fatal("MatchByte('S') = false")
	}
	seq, err := c.ReadBase36()
	if err != nil || seq != 1*36+10 {
		t.Fatalf("ReadBase36 = %d, %v; want 46", seq, err)
	}
	if !c.Match("_") || !c.EOF() {
		t.Fatalf("expected end of input at offset %d", c.Offset())
	}
	if _, err := c.Next(); !errors.Is(err, ErrUnexpectedEnd) {
		t.Errorf("Next at end: %v, want ErrUnexpectedEnd", err)
	}
}

func TestCursorBounds(t *testing.T) {
	c := NewCursor("ab")
	if _, err := c.Take(3); !errors.Is(err, ErrUnexpectedEnd) {
		t.Errorf("Take past end: %v", err)
	}
	if c.Offset() != 0 {
		t.Errorf("failed Take moved the cursor to %d", c.Offset())
	}
	if b, ok := c.PeekAt(5); ok || b != 0 {
		t.Errorf("PeekAt past end = %q, %v", b, ok)
	}
	if c.PeekByte() != 'a' {
		t.Errorf("PeekByte = %q", c.PeekByte())
	}
	if err := c.Advance(2); err != nil {
		t.Fatal(err)
	}
	if c.PeekByte() != 0 || c.Rest() != "" {
		t.Errorf("expected empty remainder, got %q", c.Rest())
	}
	if got := c.Slice(0); got != "ab" {
		t.Errorf("Slice(0) = %q", got)
	}
}

func TestCursorNumbers(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"", ErrUnexpectedEnd},
		{"x", ErrNotNumber},
		{"99999999999999999999999", ErrOverflow},
	}
	for _, tt := range tests {
		if _, err := NewCursor(tt.in).ReadNumber(); !errors.Is(err, tt.want) {
			t.Errorf("ReadNumber(%q) error = %v, want %v", tt.in, err, tt.want)
		}
	}
	if _, err := NewCursor("_").ReadBase36(); !errors.Is(err, ErrNotNumber) {
		t.Errorf("ReadBase36(\"_\") error = %v", err)
	}
}
