package demangle

import "strconv"

var builtinTypes = map[byte]string{
	'a': "signed char",
	'b': "bool",
	'c': "char",
	'd': "double",
	'e': "long double",
	'f': "float",
	'g': "__float128",
	'h': "unsigned char",
	'i': "int",
	'j': "unsigned int",
	'l': "long",
	'm': "unsigned long",
	'n': "__int128",
	'o': "unsigned __int128",
	's': "short",
	't': "unsigned short",
	'v': "void",
	'w': "wchar_t",
	'x': "long long",
	'y': "unsigned long long",
	'z': "...",
}

// two-letter builtins introduced by D
var extendedBuiltinTypes = map[byte]string{
	'd': "decimal64",
	'e': "decimal128",
	'f': "decimal32",
	'h': "half",
	'i': "char32_t",
	's': "char16_t",
	'u': "char8_t",
	'a': "auto",
	'c': "decltype(auto)",
	'n': "decltype(nullptr)",
}

// <type> ::= <builtin-type> | <qualified-type> | <function-type>
//        ::= <class-enum-type> | <array-type> | <pointer-to-member-type>
//        ::= <template-param> | <template-template-param> <template-args>
//        ::= <decltype> | P <type> | R <type> | O <type> | C <type> | G <type>
//        ::= <substitution> | Dp <type> | Dv <dimension> _ <type>
func (d *demangler) parseType() (Node, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()

	c, ok := d.cur.Peek()
	if !ok {
		return nil, d.errorf(ErrUnexpectedEnd, "truncated type")
	}

	if name, ok := builtinTypes[c]; ok {
		d.cur.Advance(1)
		return &BuiltinType{Name: name}, nil
	}

	var (
		ret Node
		err error
	)
	switch c {
	case 'r', 'V', 'K':
		quals := d.parseCVQualifiers()
		if d.cur.PeekByte() == 'F' {
			ft, err := d.parseFunctionType()
			if err != nil {
				return nil, err
			}
			d.subs.record(ft)
			qft := *ft
			qft.Quals = quals
			ret = &qft
			break
		}
		inner, err := d.parseType()
		if err != nil {
			return nil, err
		}
		ret = &QualifiedType{Type: inner, Quals: quals}

	case 'U':
		d.cur.Advance(1)
		q, err := d.parseIdentifier()
		if err != nil {
			return nil, err
		}
		inner, err := d.parseType()
		if err != nil {
			return nil, err
		}
		ret = &VendorQualifiedType{Type: inner, Qualifier: q}

	case 'P', 'R', 'O':
		d.cur.Advance(1)
		inner, err := d.parseType()
		if err != nil {
			return nil, err
		}
		aff := AffinityPointer
		if c == 'R' {
			aff = AffinityReference
		} else if c == 'O' {
			aff = AffinityRValueReference
		}
		ret = &PointerType{Pointee: inner, Affinity: aff}

	case 'C', 'G':
		d.cur.Advance(1)
		inner, err := d.parseType()
		if err != nil {
			return nil, err
		}
		ret = &ComplexType{Element: inner, Imaginary: c == 'G'}

	case 'F':
		ret, err = d.parseFunctionType()

	case 'A':
		ret, err = d.parseArrayType()

	case 'M':
		ret, err = d.parsePointerToMemberType()

	case 'T':
		ret, err = d.parseTemplateParam()
		if err != nil {
			return nil, err
		}
		if d.cur.PeekByte() == 'I' && d.inConversion == 0 {
			d.subs.record(ret)
			args, err := d.parseTemplateArgs()
			if err != nil {
				return nil, err
			}
			ret = &Template{Name: ret, Args: args}
		}

	case 'S':
		next, _ := d.cur.PeekAt(1)
		if next == '_' || isDigit(next) || isUpper(next) {
			ret, err = d.parseSubstitution(false)
			if err != nil {
				return nil, err
			}
			if d.cur.PeekByte() != 'I' {
				return ret, nil
			}
			args, err := d.parseTemplateArgs()
			if err != nil {
				return nil, err
			}
			ret = &Template{Name: ret, Args: args}
			break
		}
		ret, _, err = d.parseName()
		if err != nil {
			return nil, err
		}
		if _, ok := ret.(*StdSubstitution); ok {
			return ret, nil
		}

	case 'D':
		next, _ := d.cur.PeekAt(1)
		if name, ok := extendedBuiltinTypes[next]; ok {
			d.cur.Advance(2)
			return &BuiltinType{Name: name}, nil
		}
		switch next {
		case 'F':
			d.cur.Advance(2)
			bits, err := d.cur.ReadNumber()
			if err != nil {
				return nil, d.wrap(err, "_Float width")
			}
			if err := d.expect('_', "_Float width"); err != nil {
				return nil, err
			}
			return &BuiltinType{Name: "_Float" + strconv.Itoa(bits)}, nil
		case 'p':
			d.cur.Advance(2)
			pattern, err := d.parseType()
			if err != nil {
				return nil, err
			}
			ret = &PackExpansion{Pattern: pattern}
		case 't', 'T':
			ret, err = d.parseDecltype()
		case 'v':
			ret, err = d.parseVectorType()
		default:
			return nil, d.malformed("unknown type D%c", next)
		}

	case 'u':
		d.cur.Advance(1)
		name, err := d.parseIdentifier()
		if err != nil {
			return nil, err
		}
		ret = &VendorType{Name: name}

	case 'N', 'Z', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		ret, _, err = d.parseName()

	default:
		return nil, d.malformed("unknown type %q", c)
	}
	if err != nil {
		return nil, err
	}

	d.subs.record(ret)
	return ret, nil
}

// <CV-qualifiers> ::= [r] [V] [K]
func (d *demangler) parseCVQualifiers() Qualifiers {
	var q Qualifiers
	q.IsRestrict = d.cur.MatchByte('r')
	q.IsVolatile = d.cur.MatchByte('V')
	q.IsConst = d.cur.MatchByte('K')
	return q
}

// <function-type> ::= F [Y] <bare-function-type> [<ref-qualifier>] E
func (d *demangler) parseFunctionType() (*FunctionType, error) {
	if err := d.expect('F', "function type"); err != nil {
		return nil, err
	}
	externC := d.cur.MatchByte('Y')
	ft, err := d.parseBareFunctionType(true)
	if err != nil {
		return nil, err
	}
	ft.ExternC = externC
	if d.cur.MatchByte('R') {
		ft.RefQualifier = RefQualifierLValue
	} else if d.cur.MatchByte('O') {
		ft.RefQualifier = RefQualifierRValue
	}
	if err := d.expect('E', "function type"); err != nil {
		return nil, err
	}
	return ft, nil
}

// <bare-function-type> ::= <signature type>+
func (d *demangler) parseBareFunctionType(hasReturn bool) (*FunctionType, error) {
	ft := &FunctionType{}
	if hasReturn {
		ret, err := d.parseType()
		if err != nil {
			return nil, err
		}
		ft.ReturnType = ret
	}

	for {
		c, ok := d.cur.Peek()
		if !ok || c == 'E' || c == '.' {
			break
		}
		if next, _ := d.cur.PeekAt(1); (c == 'R' || c == 'O') && next == 'E' {
			break
		}
		p, err := d.parseType()
		if err != nil {
			return nil, err
		}
		ft.Params = append(ft.Params, p)
		if err := d.checkList(len(ft.Params)); err != nil {
			return nil, err
		}
	}

	if len(ft.Params) == 0 {
		if d.cur.EOF() {
			return nil, d.errorf(ErrUnexpectedEnd, "missing function parameters")
		}
		return nil, d.malformed("empty parameter list")
	}
	if len(ft.Params) == 1 && isVoid(ft.Params[0]) {
		ft.Params = nil
	}
	return ft, nil
}

// <array-type> ::= A <positive dimension number> _ <element type>
//              ::= A [<dimension expression>] _ <element type>
func (d *demangler) parseArrayType() (Node, error) {
	d.cur.Advance(1) // A
	var dim Node
	c, ok := d.cur.Peek()
	switch {
	case !ok:
		return nil, d.errorf(ErrUnexpectedEnd, "truncated array type")
	case c == '_':
	case isDigit(c):
		start := d.cur.Offset()
		if _, err := d.cur.ReadNumber(); err != nil {
			return nil, d.wrap(err, "array dimension")
		}
		dim = &Name{Name: d.cur.Slice(start)}
	default:
		e, err := d.parseExpression()
		if err != nil {
			return nil, err
		}
		dim = e
	}
	if err := d.expect('_', "array dimension"); err != nil {
		return nil, err
	}
	elem, err := d.parseType()
	if err != nil {
		return nil, err
	}
	return &ArrayType{Element: elem, Dimension: dim}, nil
}

// <pointer-to-member-type> ::= M <class type> <member type>
func (d *demangler) parsePointerToMemberType() (Node, error) {
	d.cur.Advance(1) // M
	cls, err := d.parseType()
	if err != nil {
		return nil, err
	}
	mem, err := d.parseType()
	if err != nil {
		return nil, err
	}
	return &MemberPointerType{ClassType: cls, MemberType: mem}, nil
}

// Dv <number> _ <type> | Dv _ <expression> _ <type>
func (d *demangler) parseVectorType() (Node, error) {
	d.cur.Advance(2) // Dv
	var dim Node
	if d.cur.MatchByte('_') {
		e, err := d.parseExpression()
		if err != nil {
			return nil, err
		}
		dim = e
	} else {
		start := d.cur.Offset()
		if _, err := d.cur.ReadNumber(); err != nil {
			return nil, d.wrap(err, "vector dimension")
		}
		dim = &Name{Name: d.cur.Slice(start)}
	}
	if err := d.expect('_', "vector dimension"); err != nil {
		return nil, err
	}
	elem, err := d.parseType()
	if err != nil {
		return nil, err
	}
	return &VectorType{Element: elem, Dimension: dim}, nil
}

// <decltype> ::= Dt <expression> E | DT <expression> E
func (d *demangler) parseDecltype() (Node, error) {
	d.cur.Advance(2)
	e, err := d.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := d.expect('E', "decltype"); err != nil {
		return nil, err
	}
	return &DecltypeType{Expr: e}, nil
}

// <template-param> ::= T_ | T <parameter-2 non-negative number> _
func (d *demangler) parseTemplateParam() (Node, error) {
	if err := d.expect('T', "template parameter"); err != nil {
		return nil, err
	}
	idx, err := d.parseCompactNumber("template parameter")
	if err != nil {
		return nil, err
	}
	return &TemplateParam{Index: idx, Lambda: d.inLambda > 0}, nil
}

// <template-args> ::= I <template-arg>+ E
func (d *demangler) parseTemplateArgs() ([]Node, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()

	d.cur.Advance(1) // I
	saved := d.lastName
	var args []Node
	for !d.cur.MatchByte('E') {
		if d.cur.EOF() {
			return nil, d.errorf(ErrUnexpectedEnd, "unterminated template arguments")
		}
		arg, err := d.parseTemplateArg()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if err := d.checkList(len(args)); err != nil {
			return nil, err
		}
	}
	if len(args) == 0 {
		return nil, d.malformed("empty template argument list")
	}
	d.lastName = saved
	return args, nil
}

// <template-arg> ::= <type> | X <expression> E | <expr-primary> | J <template-arg>* E
func (d *demangler) parseTemplateArg() (Node, error) {
	switch d.cur.PeekByte() {
	case 'X':
		d.cur.Advance(1)
		e, err := d.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := d.expect('E', "template argument expression"); err != nil {
			return nil, err
		}
		return e, nil
	case 'L':
		return d.parseExprPrimary()
	case 'J':
		d.cur.Advance(1)
		pack := &ArgumentPack{}
		for !d.cur.MatchByte('E') {
			if d.cur.EOF() {
				return nil, d.errorf(ErrUnexpectedEnd, "unterminated argument pack")
			}
			arg, err := d.parseTemplateArg()
			if err != nil {
				return nil, err
			}
			pack.Args = append(pack.Args, arg)
			if err := d.checkList(len(pack.Args)); err != nil {
				return nil, err
			}
		}
		return pack, nil
	default:
		return d.parseType()
	}
}
