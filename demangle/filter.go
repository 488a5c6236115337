package demangle

import (
	"regexp"
	"strings"
)

var symbolTokenPattern = regexp.MustCompile(`[A-Za-z0-9_$.]+`)

// Filter replaces every mangled symbol in text with its demangled form.
// Tokens that fail to decode are left untouched.
func Filter(text string, opts ...Option) string {
	o := buildOptions(opts...)
	return symbolTokenPattern.ReplaceAllStringFunc(text, func(token string) string {
		if !strings.HasPrefix(token, "_Z") && !strings.HasPrefix(token, "_GLOBAL_") &&
			!(o.stripUnderscore && strings.HasPrefix(token, "__Z")) {
			return token
		}
		out, err := Demangle(token, opts...)
		if err != nil {
			return token
		}
		return out
	})
}
