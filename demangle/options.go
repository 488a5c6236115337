package demangle

// Default resource limits.
const (
	DefaultMaxDepth = 256
	DefaultMaxNodes = 1 << 16
	DefaultMaxArgs  = 1024
)

// Option configures a decode or render call.
type Option func(*options)

type options struct {
	maxDepth        int
	maxNodes        int
	maxArgs         int
	noParams        bool
	stripUnderscore bool
}

// WithMaxDepth bounds the nesting depth of grammar productions.
func WithMaxDepth(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxDepth = n
		}
	}
}

// WithMaxNodes bounds the number of AST nodes a single decode may build,
// including nodes copied out of the substitution table.
func WithMaxNodes(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxNodes = n
		}
	}
}

// WithMaxArgs bounds the length of template argument and parameter lists.
func WithMaxArgs(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxArgs = n
		}
	}
}

// WithNoParams renders functions as their bare qualified name, without
// return type or parameter list.
func WithNoParams() Option {
	return func(o *options) {
		o.noParams = true
	}
}

// WithStripUnderscore accepts symbols carrying one extra leading underscore,
// as emitted on Mach-O targets (__ZN...).
func WithStripUnderscore() Option {
	return func(o *options) {
		o.stripUnderscore = true
	}
}

func buildOptions(opts ...Option) options {
	cfg := options{
		maxDepth: DefaultMaxDepth,
		maxNodes: DefaultMaxNodes,
		maxArgs:  DefaultMaxArgs,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
