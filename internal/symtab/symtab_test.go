package symtab

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/skdltmxn/cxxdemangle/demangle"
)

func TestOpenSelf(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		t.Skipf("no ELF or Mach-O test binary on %s", runtime.GOOS)
	}
	tab, err := Open(os.Args[0])
	if err != nil {
		t.Fatalf("Open(%s) failed: %v", os.Args[0], err)
	}
	if tab.Len() == 0 {
		t.Fatal("expected symbols in test binary")
	}

	found := tab.Lookup("TestOpenSelf")
	if len(found) == 0 {
		t.Error("Lookup(TestOpenSelf) found nothing")
	}

	count := 0
	for range tab.Symbols() {
		count++
	}
	if count != tab.Len() {
		t.Errorf("Symbols yielded %d, Len = %d", count, tab.Len())
	}
}

func TestOpenUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("plain text file"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Open(text file) error = %v, want ErrUnknownFormat", err)
	}
}

func TestSymbolDemangledName(t *testing.T) {
	tests := []struct {
		name string
		opts []demangle.Option
		want string
	}{
		{"_ZN1A3getEv", nil, "A::get()"},
		{"__ZN1A3getEv", []demangle.Option{demangle.WithStripUnderscore()}, "A::get()"},
		{"main", nil, "main"},
		{"_Z3fo", nil, "_Z3fo"},
	}
	for _, tt := range tests {
		s := &Symbol{name: tt.name, opts: tt.opts}
		if got := s.DemangledName(); got != tt.want {
			t.Errorf("DemangledName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestLookup(t *testing.T) {
	tab := &Table{format: FormatELF}
	for _, name := range []string{"_ZN3foo3barEv", "_ZN3foo3bazEi", "main"} {
		tab.symbols = append(tab.symbols, &Symbol{name: name})
	}

	names := func(syms []*Symbol) []string {
		var out []string
		for _, s := range syms {
			out = append(out, s.Name())
		}
		return out
	}

	if diff := cmp.Diff([]string{"main"}, names(tab.Lookup("main"))); diff != "" {
		t.Errorf("exact lookup mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"_ZN3foo3barEv", "_ZN3foo3bazEi"}, names(tab.Lookup("foo::"))); diff != "" {
		t.Errorf("demangled lookup mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"_ZN3foo3bazEi"}, names(tab.Lookup("baz(int)"))); diff != "" {
		t.Errorf("signature lookup mismatch (-want +got):\n%s", diff)
	}
}

func TestSymbolIsMangled(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		want   bool
	}{
		{"_Z3fooi", FormatELF, true},
		{"__Z3fooi", FormatELF, false},
		{"__Z3fooi", FormatMachO, true},
		{"_main", FormatMachO, false},
		{"_GLOBAL__I_a", FormatELF, true},
	}
	for _, tt := range tests {
		s := &Symbol{name: tt.name, format: tt.format}
		if got := s.IsMangled(); got != tt.want {
			t.Errorf("IsMangled(%q, %s) = %v, want %v", tt.name, tt.format, got, tt.want)
		}
	}
}
