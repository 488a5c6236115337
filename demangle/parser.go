package demangle

import (
	"errors"
	"fmt"

	"github.com/skdltmxn/cxxdemangle/internal/stream"
)

// demangler holds parser state for one decode.
type demangler struct {
	cur  *stream.Cursor
	subs substitutions
	opts options

	depth int
	nodes int

	// Last source name seen, used to name constructors and destructors.
	lastName string

	// Template parameters inside a lambda signature render as auto:N.
	inLambda int
	// Inside "cv <type>" a following I...E belongs to the operator.
	inConversion int
}

// methodQuals are the cv and ref qualifiers of a nested-name, which apply
// to the implicit object parameter of a member function.
type methodQuals struct {
	quals Qualifiers
	ref   RefQualifier
}

func newDemangler(input string, opts options) *demangler {
	return &demangler{
		cur:  stream.NewCursor(input),
		opts: opts,
	}
}

func (d *demangler) errorf(err error, format string, args ...any) error {
	return &Error{
		Offset:  d.cur.Offset(),
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

func (d *demangler) malformed(format string, args ...any) error {
	return d.errorf(ErrMalformed, format, args...)
}

// wrap maps cursor errors onto the public taxonomy.
func (d *demangler) wrap(err error, what string) error {
	switch {
	case errors.Is(err, stream.ErrUnexpectedEnd):
		return d.errorf(ErrUnexpectedEnd, "truncated %s", what)
	case errors.Is(err, stream.ErrOverflow), errors.Is(err, stream.ErrNotNumber):
		return d.errorf(ErrMalformed, "%s: %v", what, err)
	}
	return err
}

func (d *demangler) expect(b byte, what string) error {
	if d.cur.MatchByte(b) {
		return nil
	}
	if d.cur.EOF() {
		return d.errorf(ErrUnexpectedEnd, "expected %q to close %s", b, what)
	}
	return d.malformed("expected %q to close %s, found %q", b, what, d.cur.PeekByte())
}

// enter tracks nesting depth and node count for every production.
func (d *demangler) enter() error {
	if d.depth >= d.opts.maxDepth {
		return d.errorf(ErrResourceLimit, "nesting deeper than %d", d.opts.maxDepth)
	}
	d.depth++
	return d.alloc(1)
}

func (d *demangler) leave() { d.depth-- }

func (d *demangler) alloc(n int) error {
	d.nodes += n
	if d.nodes > d.opts.maxNodes {
		return d.errorf(ErrResourceLimit, "more than %d nodes", d.opts.maxNodes)
	}
	return nil
}

func (d *demangler) checkList(n int) error {
	if n > d.opts.maxArgs {
		return d.errorf(ErrResourceLimit, "list longer than %d elements", d.opts.maxArgs)
	}
	return nil
}

// parse decodes a complete symbol. The _Z prefix has been checked by the caller.
func (d *demangler) parse() (Node, error) {
	if d.cur.Match("_GLOBAL_") {
		return d.parseGlobalCtorDtor()
	}
	if !d.cur.Match("_Z") {
		return nil, ErrNotMangled
	}

	node, err := d.parseEncoding()
	if err != nil {
		return nil, err
	}
	if err := d.bind(node); err != nil {
		return nil, err
	}
	if rest := d.cur.Rest(); rest != "" {
		node = &Suffixed{Node: node, Suffix: rest}
	}
	return node, nil
}

// <encoding> ::= <name> <bare-function-type>
//            ::= <name>
//            ::= <special-name>
func (d *demangler) parseEncoding() (Node, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()

	switch d.cur.PeekByte() {
	case 'G', 'T':
		return d.parseSpecialName()
	}

	name, mq, err := d.parseName()
	if err != nil {
		return nil, err
	}

	if c, ok := d.cur.Peek(); !ok || c == 'E' || c == '.' {
		return name, nil
	}

	sig, err := d.parseBareFunctionType(hasReturnType(name))
	if err != nil {
		return nil, err
	}
	sig.Quals = mq.quals
	sig.RefQualifier = mq.ref
	return &Function{Name: name, Sig: sig}, nil
}

// hasReturnType reports whether a function encoding for name carries its
// return type: template functions other than ctors, dtors and conversions.
func hasReturnType(n Node) bool {
	switch n := n.(type) {
	case *Template:
		return !isCtorDtorConversion(n.Name)
	case *LocalName:
		return hasReturnType(n.Entity)
	default:
		return false
	}
}

func isCtorDtorConversion(n Node) bool {
	switch n := n.(type) {
	case *NestedName:
		return isCtorDtorConversion(n.Name)
	case *LocalName:
		return isCtorDtorConversion(n.Entity)
	case *ABITag:
		return isCtorDtorConversion(n.Base)
	case *Constructor, *Destructor, *Conversion:
		return true
	default:
		return false
	}
}

// <name> ::= <nested-name>
//        ::= <unscoped-name>
//        ::= <unscoped-template-name> <template-args>
//        ::= <local-name>
func (d *demangler) parseName() (Node, methodQuals, error) {
	var mq methodQuals
	if err := d.enter(); err != nil {
		return nil, mq, err
	}
	defer d.leave()

	var (
		n   Node
		err error
	)
	switch d.cur.PeekByte() {
	case 'N':
		return d.parseNestedName()
	case 'Z':
		return d.parseLocalName()
	case 'S':
		isSub := false
		if next, _ := d.cur.PeekAt(1); next == 't' {
			d.cur.Advance(2)
			un, err := d.parseUnqualifiedName()
			if err != nil {
				return nil, mq, err
			}
			n = &NestedName{Qual: &Name{Name: "std"}, Name: un}
		} else {
			n, err = d.parseSubstitution(false)
			if err != nil {
				return nil, mq, err
			}
			isSub = true
		}
		if d.cur.PeekByte() == 'I' {
			if !isSub {
				d.subs.record(n)
			}
			args, err := d.parseTemplateArgs()
			if err != nil {
				return nil, mq, err
			}
			n = &Template{Name: n, Args: args}
		}
		return n, mq, nil
	default:
		n, err = d.parseUnqualifiedName()
		if err != nil {
			return nil, mq, err
		}
		if d.cur.PeekByte() == 'I' {
			d.subs.record(n)
			args, err := d.parseTemplateArgs()
			if err != nil {
				return nil, mq, err
			}
			n = &Template{Name: n, Args: args}
		}
		return n, mq, nil
	}
}

// <nested-name> ::= N [<CV-qualifiers>] [<ref-qualifier>] <prefix> <unqualified-name> E
func (d *demangler) parseNestedName() (Node, methodQuals, error) {
	var mq methodQuals
	d.cur.Advance(1) // N
	mq.quals = d.parseCVQualifiers()
	if d.cur.MatchByte('R') {
		mq.ref = RefQualifierLValue
	} else if d.cur.MatchByte('O') {
		mq.ref = RefQualifierRValue
	}

	n, err := d.parsePrefix()
	if err != nil {
		return nil, mq, err
	}
	if err := d.expect('E', "nested name"); err != nil {
		return nil, mq, err
	}
	return n, mq, nil
}

// parsePrefix reads the components of a nested name up to its closing E,
// recording every proper prefix as a substitution candidate.
func (d *demangler) parsePrefix() (Node, error) {
	var ret Node
	for {
		c, ok := d.cur.Peek()
		if !ok {
			return nil, d.errorf(ErrUnexpectedEnd, "unterminated nested name")
		}
		if c == 'E' {
			if ret == nil {
				return nil, d.malformed("empty nested name")
			}
			return ret, nil
		}

		var (
			comp Node
			err  error
		)
		next, _ := d.cur.PeekAt(1)
		switch {
		case c == 'S':
			comp, err = d.parseSubstitution(true)
		case c == 'I':
			if ret == nil {
				return nil, d.malformed("template arguments without a template name")
			}
			args, err := d.parseTemplateArgs()
			if err != nil {
				return nil, err
			}
			ret = &Template{Name: ret, Args: args}
		case c == 'T':
			comp, err = d.parseTemplateParam()
		case c == 'D' && (next == 't' || next == 'T'):
			comp, err = d.parseType()
		case c == 'M':
			// closure scope marker: <prefix> <data-member-prefix> M
			if ret == nil {
				return nil, d.malformed("member prefix without a scope")
			}
			d.cur.Advance(1)
			continue
		default:
			comp, err = d.parseUnqualifiedName()
		}
		if err != nil {
			return nil, err
		}

		if comp != nil {
			if ret == nil {
				ret = comp
			} else {
				ret = &NestedName{Qual: ret, Name: comp}
			}
		}
		if c != 'S' && d.cur.PeekByte() != 'E' {
			d.subs.record(ret)
		}
	}
}

// <local-name> ::= Z <encoding> E <entity name> [<discriminator>]
//              ::= Z <encoding> E s [<discriminator>]
//              ::= Z <encoding> E d [<number>] _ <entity name>
func (d *demangler) parseLocalName() (Node, methodQuals, error) {
	var mq methodQuals
	d.cur.Advance(1) // Z
	enc, err := d.parseEncoding()
	if err != nil {
		return nil, mq, err
	}
	if err := d.expect('E', "local name"); err != nil {
		return nil, mq, err
	}
	// The enclosing function prints without its return type.
	if fn, ok := enc.(*Function); ok && fn.Sig != nil {
		fn.Sig.ReturnType = nil
	}

	if d.cur.MatchByte('s') {
		if err := d.parseDiscriminator(); err != nil {
			return nil, mq, err
		}
		return &LocalName{Encoding: enc, Entity: &Name{Name: "string literal"}}, mq, nil
	}

	if d.cur.MatchByte('d') {
		if d.cur.PeekByte() != '_' {
			if _, err := d.cur.ReadNumber(); err != nil {
				return nil, mq, d.wrap(err, "default argument number")
			}
		}
		if err := d.expect('_', "default argument number"); err != nil {
			return nil, mq, err
		}
	}

	entity, mq, err := d.parseName()
	if err != nil {
		return nil, mq, err
	}
	if err := d.parseDiscriminator(); err != nil {
		return nil, mq, err
	}
	return &LocalName{Encoding: enc, Entity: entity}, mq, nil
}

// <discriminator> ::= _ <digit> | __ <number> _
func (d *demangler) parseDiscriminator() error {
	if !d.cur.MatchByte('_') {
		return nil
	}
	if d.cur.MatchByte('_') {
		if _, err := d.cur.ReadNumber(); err != nil {
			return d.wrap(err, "discriminator")
		}
		return d.expect('_', "discriminator")
	}
	if _, err := d.cur.ReadNumber(); err != nil {
		return d.wrap(err, "discriminator")
	}
	return nil
}

// <unqualified-name> ::= <operator-name> [<abi-tags>]
//                    ::= <ctor-dtor-name>
//                    ::= <source-name>
//                    ::= <unnamed-type-name>
//                    ::= DC <source-name>+ E
func (d *demangler) parseUnqualifiedName() (Node, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()

	c, ok := d.cur.Peek()
	if !ok {
		return nil, d.errorf(ErrUnexpectedEnd, "truncated name")
	}
	next, _ := d.cur.PeekAt(1)

	var (
		n   Node
		err error
	)
	switch {
	case isDigit(c):
		n, err = d.parseSourceName()
	case isLower(c):
		n, err = d.parseOperatorName()
	case c == 'D' && next == 'C':
		n, err = d.parseStructuredBinding()
	case c == 'C' || c == 'D':
		n, err = d.parseCtorDtorName()
	case c == 'U':
		n, err = d.parseUnnamedTypeName()
	case c == 'L':
		d.cur.Advance(1)
		n, err = d.parseSourceName()
		if err == nil {
			err = d.parseDiscriminator()
		}
	default:
		return nil, d.malformed("unexpected %q in name", c)
	}
	if err != nil {
		return nil, err
	}

	for d.cur.PeekByte() == 'B' {
		d.cur.Advance(1)
		tag, err := d.parseIdentifier()
		if err != nil {
			return nil, err
		}
		n = &ABITag{Base: n, Tag: tag}
	}
	return n, nil
}

// parseIdentifier reads <length> <identifier> without touching lastName.
func (d *demangler) parseIdentifier() (string, error) {
	length, err := d.cur.ReadNumber()
	if err != nil {
		return "", d.wrap(err, "identifier length")
	}
	if length == 0 {
		return "", d.malformed("zero-length identifier")
	}
	if length > d.cur.Remaining() {
		return "", d.errorf(ErrUnexpectedEnd,
			"identifier of length %d exceeds the %d remaining bytes", length, d.cur.Remaining())
	}
	id, _ := d.cur.Take(length)
	return id, nil
}

// <source-name> ::= <positive length number> <identifier>
func (d *demangler) parseSourceName() (Node, error) {
	id, err := d.parseIdentifier()
	if err != nil {
		return nil, err
	}
	if isAnonymousNamespace(id) {
		id = "(anonymous namespace)"
	}
	d.lastName = id
	return &Name{Name: id}, nil
}

func isAnonymousNamespace(id string) bool {
	const prefix = "_GLOBAL_"
	if len(id) < len(prefix)+2 || id[:len(prefix)] != prefix {
		return false
	}
	switch id[len(prefix)] {
	case '.', '_', '$':
		return id[len(prefix)+1] == 'N'
	}
	return false
}

// <ctor-dtor-name> ::= C1 | C2 | C3 | CI1 <type> | CI2 <type>
//                  ::= D0 | D1 | D2
func (d *demangler) parseCtorDtorName() (Node, error) {
	if d.lastName == "" {
		return nil, d.malformed("constructor or destructor without a class name")
	}
	kind, _ := d.cur.Next()
	if kind == 'C' {
		inheriting := d.cur.MatchByte('I')
		v, err := d.cur.Next()
		if err != nil {
			return nil, d.wrap(err, "constructor name")
		}
		if v < '1' || v > '5' {
			return nil, d.malformed("unknown constructor variant %q", v)
		}
		if inheriting {
			if _, err := d.parseType(); err != nil {
				return nil, err
			}
		}
		return &Constructor{Name: d.lastName, Variant: v}, nil
	}

	v, err := d.cur.Next()
	if err != nil {
		return nil, d.wrap(err, "destructor name")
	}
	switch v {
	case '0', '1', '2', '4', '5':
		return &Destructor{Name: d.lastName, Variant: v}, nil
	}
	return nil, d.malformed("unknown destructor variant %q", v)
}

// DC <source-name>+ E
func (d *demangler) parseStructuredBinding() (Node, error) {
	d.cur.Advance(2)
	sb := &StructuredBinding{}
	for !d.cur.MatchByte('E') {
		n, err := d.parseSourceName()
		if err != nil {
			return nil, err
		}
		sb.Names = append(sb.Names, n)
		if err := d.checkList(len(sb.Names)); err != nil {
			return nil, err
		}
	}
	if len(sb.Names) == 0 {
		return nil, d.malformed("empty structured binding")
	}
	return sb, nil
}

// <unnamed-type-name> ::= Ut [<nonnegative number>] _
//                     ::= Ul <lambda-sig> E [<nonnegative number>] _
//
// Ut names are substitution candidates on their own; closure names are
// recorded only by the enclosing prefix or type.
func (d *demangler) parseUnnamedTypeName() (Node, error) {
	d.cur.Advance(1) // U
	kind, err := d.cur.Next()
	if err != nil {
		return nil, d.wrap(err, "unnamed type")
	}

	var n Node
	switch kind {
	case 't':
		idx, err := d.parseCompactNumber("unnamed type")
		if err != nil {
			return nil, err
		}
		n = &UnnamedType{Index: idx}
		d.subs.record(n)
	case 'l':
		d.inLambda++
		var params []Node
		for d.cur.PeekByte() != 'E' {
			p, err := d.parseType()
			if err != nil {
				d.inLambda--
				return nil, err
			}
			params = append(params, p)
			if err := d.checkList(len(params)); err != nil {
				d.inLambda--
				return nil, err
			}
		}
		d.inLambda--
		if len(params) == 0 {
			return nil, d.malformed("empty lambda signature")
		}
		if len(params) == 1 && isVoid(params[0]) {
			params = nil
		}
		d.cur.Advance(1) // E
		idx, err := d.parseCompactNumber("lambda")
		if err != nil {
			return nil, err
		}
		n = &Lambda{Params: params, Index: idx}
	default:
		return nil, d.malformed("unknown unnamed type %q", kind)
	}
	return n, nil
}

// parseCompactNumber reads "_" as 0 and "<n>_" as n+1.
func (d *demangler) parseCompactNumber(what string) (int, error) {
	if d.cur.MatchByte('_') {
		return 0, nil
	}
	n, err := d.cur.ReadNumber()
	if err != nil {
		return 0, d.wrap(err, what)
	}
	if err := d.expect('_', what); err != nil {
		return 0, err
	}
	return n + 1, nil
}

// <substitution> ::= S_ | S <seq-id> _ | St | Sa | Sb | Ss | Si | So | Sd
func (d *demangler) parseSubstitution(prefix bool) (Node, error) {
	start := d.cur.Offset()
	d.cur.Advance(1) // S
	c, ok := d.cur.Peek()
	if !ok {
		return nil, d.errorf(ErrUnexpectedEnd, "truncated substitution")
	}

	if c == '_' || isDigit(c) || isUpper(c) {
		idx := 0
		if c != '_' {
			seq, err := d.cur.ReadBase36()
			if err != nil {
				return nil, d.wrap(err, "substitution index")
			}
			idx = seq + 1
		}
		if err := d.expect('_', "substitution"); err != nil {
			return nil, err
		}
		n, copied, err := d.subs.resolve(idx)
		if err != nil {
			return nil, &Error{
				Offset:  start,
				Message: fmt.Sprintf("substitution %d with only %d entries", idx, d.subs.len()),
				Err:     err,
			}
		}
		if err := d.alloc(copied); err != nil {
			return nil, err
		}
		return n, nil
	}

	d.cur.Advance(1)
	sub, ok := stdSubstitutions[c]
	if !ok {
		return nil, d.malformed("unknown substitution S%c", c)
	}
	if c == 't' {
		return &Name{Name: "std"}, nil
	}
	name := sub.name
	if prefix {
		if p := d.cur.PeekByte(); p == 'C' || p == 'D' {
			name = sub.full
		}
	}
	d.lastName = sub.simple
	return &StdSubstitution{Code: c, Name: name, Simple: sub.simple}, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }
func isLower(c byte) bool { return c >= 'a' && c <= 'z' }

func isVoid(n Node) bool {
	b, ok := n.(*BuiltinType)
	return ok && b.Name == "void"
}
