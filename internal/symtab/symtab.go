// Package symtab reads symbol names from ELF and Mach-O binaries and
// exposes them with lazily demangled names.
package symtab

import (
	"bytes"
	"debug/elf"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"
	"sync"

	"github.com/blacktop/go-macho"
	"github.com/tliron/commonlog"

	"github.com/skdltmxn/cxxdemangle/demangle"
)

var log = commonlog.GetLogger("cxxfilt.symtab")

// Sentinel errors for common conditions.
var (
	// ErrUnknownFormat indicates the file is neither ELF nor Mach-O.
	ErrUnknownFormat = errors.New("symtab: unknown object file format")

	// ErrNoSymbols indicates the binary carries no symbol table.
	ErrNoSymbols = errors.New("symtab: no symbols")
)

// Format identifies the object file format a table was read from.
type Format int

const (
	FormatUnknown Format = iota
	FormatELF
	FormatMachO
)

func (f Format) String() string {
	switch f {
	case FormatELF:
		return "elf"
	case FormatMachO:
		return "macho"
	default:
		return "unknown"
	}
}

// Symbol is a named entry from a binary's symbol table.
type Symbol struct {
	name    string
	address uint64
	format  Format
	opts    []demangle.Option

	demangledName string
	demangledOnce sync.Once
}

// Name returns the raw (possibly mangled) symbol name.
func (s *Symbol) Name() string { return s.name }

// Address returns the symbol value.
func (s *Symbol) Address() uint64 { return s.address }

// IsMangled reports whether the name carries an Itanium mangling prefix.
// Only Mach-O names have their extra leading underscore removed first.
func (s *Symbol) IsMangled() bool {
	if demangle.IsMangled(s.name) {
		return true
	}
	return s.format == FormatMachO && demangle.IsMangled(strings.TrimPrefix(s.name, "_"))
}

// DemangledName returns the demangled name, or the raw name if not mangled.
func (s *Symbol) DemangledName() string {
	s.demangledOnce.Do(func() {
		out, err := demangle.Demangle(s.name, s.opts...)
		if err != nil {
			if !errors.Is(err, demangle.ErrNotMangled) {
				log.Debugf("cannot demangle %s: %v", s.name, err)
			}
			out = s.name
		}
		s.demangledName = out
	})
	return s.demangledName
}

// Table holds the symbols of one binary.
type Table struct {
	format  Format
	symbols []*Symbol

	nameIndex     map[string]*Symbol
	nameIndexOnce sync.Once
}

// Open reads the symbol table of the ELF or Mach-O file at path.
func Open(path string, opts ...demangle.Option) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("symtab: failed to open file: %w", err)
	}
	defer f.Close()

	var magic [4]byte
	if _, err := io.ReadFull(f, magic[:]); err != nil {
		return nil, fmt.Errorf("symtab: failed to read header: %w", err)
	}

	switch {
	case bytes.Equal(magic[:], []byte(elf.ELFMAG)):
		return readELF(f, opts)
	case isMachO(magic):
		return readMachO(f, opts)
	}
	return nil, ErrUnknownFormat
}

func isMachO(magic [4]byte) bool {
	switch {
	case bytes.Equal(magic[:], []byte{0xcf, 0xfa, 0xed, 0xfe}),
		bytes.Equal(magic[:], []byte{0xce, 0xfa, 0xed, 0xfe}),
		bytes.Equal(magic[:], []byte{0xfe, 0xed, 0xfa, 0xcf}),
		bytes.Equal(magic[:], []byte{0xfe, 0xed, 0xfa, 0xce}):
		return true
	}
	return false
}

func readELF(r io.ReaderAt, opts []demangle.Option) (*Table, error) {
	ef, err := elf.NewFile(r)
	if err != nil {
		return nil, fmt.Errorf("symtab: failed to parse ELF: %w", err)
	}
	defer ef.Close()

	t := &Table{format: FormatELF}
	seen := make(map[string]bool)
	add := func(syms []elf.Symbol) {
		for _, s := range syms {
			if s.Name == "" || seen[s.Name] {
				continue
			}
			seen[s.Name] = true
			t.symbols = append(t.symbols, &Symbol{name: s.Name, address: s.Value, format: FormatELF, opts: opts})
		}
	}

	syms, err := ef.Symbols()
	if err != nil && !errors.Is(err, elf.ErrNoSymbols) {
		return nil, fmt.Errorf("symtab: failed to read ELF symbols: %w", err)
	}
	add(syms)

	dyn, err := ef.DynamicSymbols()
	if err != nil && !errors.Is(err, elf.ErrNoSymbols) {
		return nil, fmt.Errorf("symtab: failed to read ELF dynamic symbols: %w", err)
	}
	add(dyn)

	log.Infof("read %d ELF symbols", len(t.symbols))
	if len(t.symbols) == 0 {
		return nil, ErrNoSymbols
	}
	return t, nil
}

func readMachO(r io.ReaderAt, opts []demangle.Option) (*Table, error) {
	mf, err := macho.NewFile(r)
	if err != nil {
		return nil, fmt.Errorf("symtab: failed to parse Mach-O: %w", err)
	}
	defer mf.Close()

	if mf.Symtab == nil || len(mf.Symtab.Syms) == 0 {
		return nil, ErrNoSymbols
	}

	// Mach-O prefixes every C symbol with an underscore.
	opts = append(opts[:len(opts):len(opts)], demangle.WithStripUnderscore())

	t := &Table{format: FormatMachO}
	for _, s := range mf.Symtab.Syms {
		if s.Name == "" {
			continue
		}
		t.symbols = append(t.symbols, &Symbol{name: s.Name, address: s.Value, format: FormatMachO, opts: opts})
	}
	log.Infof("read %d Mach-O symbols", len(t.symbols))
	return t, nil
}

// Format returns the object file format the table was read from.
func (t *Table) Format() Format { return t.format }

// Len returns the number of symbols.
func (t *Table) Len() int { return len(t.symbols) }

// Symbols returns an iterator over all symbols in file order.
func (t *Table) Symbols() iter.Seq[*Symbol] {
	return func(yield func(*Symbol) bool) {
		for _, s := range t.symbols {
			if !yield(s) {
				return
			}
		}
	}
}

// Lookup returns symbols matching query. An exact raw-name match wins;
// otherwise every symbol whose raw or demangled name contains query
// is returned.
func (t *Table) Lookup(query string) []*Symbol {
	t.nameIndexOnce.Do(func() {
		t.nameIndex = make(map[string]*Symbol, len(t.symbols))
		for _, s := range t.symbols {
			if _, ok := t.nameIndex[s.name]; !ok {
				t.nameIndex[s.name] = s
			}
		}
	})
	if s, ok := t.nameIndex[query]; ok {
		return []*Symbol{s}
	}

	var out []*Symbol
	for _, s := range t.symbols {
		if strings.Contains(s.name, query) || strings.Contains(s.DemangledName(), query) {
			out = append(out, s)
		}
	}
	log.Debugf("lookup %q matched %d symbols", query, len(out))
	return out
}
