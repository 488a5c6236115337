package demangle

import (
	"errors"
	"strings"
)

// Demangle converts an Itanium C++ ABI mangled name to readable form.
// If the name is not mangled, it is returned unchanged along with
// ErrNotMangled. Any other failure returns an empty string.
func Demangle(mangled string, opts ...Option) (string, error) {
	o := buildOptions(opts...)
	node, err := parse(mangled, o)
	if err != nil {
		if errors.Is(err, ErrNotMangled) {
			return mangled, err
		}
		return "", err
	}
	r := &renderer{opts: o}
	return r.render(node), nil
}

// Parse decodes a mangled name into its AST without rendering it.
func Parse(mangled string, opts ...Option) (Node, error) {
	return parse(mangled, buildOptions(opts...))
}

func parse(mangled string, o options) (Node, error) {
	input := mangled
	if o.stripUnderscore && strings.HasPrefix(input, "__Z") {
		input = input[1:]
	}
	if !IsMangled(input) {
		return nil, ErrNotMangled
	}
	return newDemangler(input, o).parse()
}

// DemangleSimple returns the demangled name, or the input if it cannot be decoded.
func DemangleSimple(mangled string) string {
	result, err := Demangle(mangled)
	if err != nil {
		return mangled
	}
	return result
}

// IsMangled reports whether name carries an Itanium mangling prefix.
func IsMangled(name string) bool {
	if strings.HasPrefix(name, "_Z") {
		return true
	}
	if len(name) > len("_GLOBAL__I_") && strings.HasPrefix(name, "_GLOBAL_") {
		switch name[8] {
		case '.', '_', '$':
			return (name[9] == 'I' || name[9] == 'D') && name[10] == '_'
		}
	}
	return false
}
