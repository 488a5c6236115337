package demangle

type operatorInfo struct {
	symbol string
	arity  int
}

// operators maps two-letter operator codes to their source spelling.
var operators = map[string]operatorInfo{
	"aN": {"&=", 2},
	"aS": {"=", 2},
	"aa": {"&&", 2},
	"ad": {"&", 1},
	"an": {"&", 2},
	"at": {"alignof", 1},
	"aw": {"co_await", 1},
	"az": {"alignof", 1},
	"cc": {"const_cast", 2},
	"cl": {"()", 2},
	"cm": {",", 2},
	"co": {"~", 1},
	"dV": {"/=", 2},
	"da": {"delete[]", 1},
	"dc": {"dynamic_cast", 2},
	"de": {"*", 1},
	"dl": {"delete", 1},
	"ds": {".*", 2},
	"dt": {".", 2},
	"dv": {"/", 2},
	"eO": {"^=", 2},
	"eo": {"^", 2},
	"eq": {"==", 2},
	"ge": {">=", 2},
	"gt": {">", 2},
	"ix": {"[]", 2},
	"lS": {"<<=", 2},
	"le": {"<=", 2},
	"ls": {"<<", 2},
	"lt": {"<", 2},
	"mI": {"-=", 2},
	"mL": {"*=", 2},
	"mi": {"-", 2},
	"ml": {"*", 2},
	"mm": {"--", 1},
	"na": {"new[]", 3},
	"ne": {"!=", 2},
	"ng": {"-", 1},
	"nt": {"!", 1},
	"nw": {"new", 3},
	"oR": {"|=", 2},
	"oo": {"||", 2},
	"or": {"|", 2},
	"pL": {"+=", 2},
	"pl": {"+", 2},
	"pm": {"->*", 2},
	"pp": {"++", 1},
	"ps": {"+", 1},
	"pt": {"->", 2},
	"qu": {"?", 3},
	"rM": {"%=", 2},
	"rS": {">>=", 2},
	"rc": {"reinterpret_cast", 2},
	"rm": {"%", 2},
	"rs": {">>", 2},
	"sc": {"static_cast", 2},
	"ss": {"<=>", 2},
	"st": {"sizeof", 1},
	"sz": {"sizeof", 1},
	"tr": {"throw", 0},
	"tw": {"throw", 1},
}

// <operator-name> ::= <two-letter code>
//                 ::= cv <type>
//                 ::= li <source-name>
//                 ::= v <digit> <source-name>
func (d *demangler) parseOperatorName() (Node, error) {
	code, err := d.cur.Take(2)
	if err != nil {
		return nil, d.wrap(err, "operator name")
	}

	switch {
	case code == "cv":
		d.inConversion++
		t, err := d.parseType()
		d.inConversion--
		if err != nil {
			return nil, err
		}
		return &Conversion{Type: t}, nil
	case code == "li":
		id, err := d.parseIdentifier()
		if err != nil {
			return nil, err
		}
		return &LiteralOperator{Suffix: id}, nil
	case code[0] == 'v' && isDigit(code[1]):
		id, err := d.parseIdentifier()
		if err != nil {
			return nil, err
		}
		return &Operator{Code: code, Symbol: id, Arity: int(code[1] - '0')}, nil
	}

	info, ok := operators[code]
	if !ok {
		return nil, d.malformed("unknown operator %q", code)
	}
	return &Operator{Code: code, Symbol: info.symbol, Arity: info.arity}, nil
}

// <expression> ::= <unary operator-name> <expression>
//              ::= <binary operator-name> <expression> <expression>
//              ::= <ternary operator-name> <expression> <expression> <expression>
//              ::= cl <expression>+ E
//              ::= cv <type> <expression> | cv <type> _ <expression>* E
//              ::= st <type> | sz <expression> | at <type> | az <expression>
//              ::= dt <expression> <unresolved-name> | pt <expression> <unresolved-name>
//              ::= sr ... | sp <expression> | sZ <template-param> | tr | tw <expression>
//              ::= <template-param> | <function-param> | <expr-primary>
func (d *demangler) parseExpression() (Node, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()

	c, ok := d.cur.Peek()
	if !ok {
		return nil, d.errorf(ErrUnexpectedEnd, "truncated expression")
	}
	next, _ := d.cur.PeekAt(1)

	switch {
	case c == 'L':
		return d.parseExprPrimary()
	case c == 'T':
		return d.parseTemplateParam()
	case c == 's' && next == 'r':
		d.cur.Advance(2)
		return d.parseUnresolvedName()
	case c == 's' && next == 'p':
		d.cur.Advance(2)
		e, err := d.parseExpression()
		if err != nil {
			return nil, err
		}
		return &PackExpansion{Pattern: e}, nil
	case c == 'f' && next == 'p':
		d.cur.Advance(2)
		return d.parseFunctionParam()
	case isDigit(c) || (c == 'o' && next == 'n') || (c == 'd' && next == 'n'):
		return d.parseBaseUnresolvedName()
	}

	code, err := d.cur.Take(2)
	if err != nil {
		return nil, d.wrap(err, "expression")
	}

	switch code {
	case "cl":
		fn, err := d.parseExpression()
		if err != nil {
			return nil, err
		}
		args, err := d.parseExpressionList("call arguments")
		if err != nil {
			return nil, err
		}
		return &CallExpr{Func: fn, Args: args}, nil

	case "cv":
		d.inConversion++
		t, err := d.parseType()
		d.inConversion--
		if err != nil {
			return nil, err
		}
		if d.cur.MatchByte('_') {
			args, err := d.parseExpressionList("cast arguments")
			if err != nil {
				return nil, err
			}
			return &CastExpr{Type: t, Args: args}, nil
		}
		e, err := d.parseExpression()
		if err != nil {
			return nil, err
		}
		return &CastExpr{Type: t, Args: []Node{e}}, nil

	case "sc", "dc", "rc", "cc":
		t, err := d.parseType()
		if err != nil {
			return nil, err
		}
		e, err := d.parseExpression()
		if err != nil {
			return nil, err
		}
		return &CastExpr{Keyword: operators[code].symbol, Type: t, Args: []Node{e}}, nil

	case "st", "at":
		t, err := d.parseType()
		if err != nil {
			return nil, err
		}
		return &SizeofExpr{Keyword: operators[code].symbol, Operand: t}, nil

	case "sz", "az":
		e, err := d.parseExpression()
		if err != nil {
			return nil, err
		}
		return &SizeofExpr{Keyword: operators[code].symbol, Operand: e}, nil

	case "sZ":
		var (
			operand Node
			err     error
		)
		if d.cur.PeekByte() == 'T' {
			operand, err = d.parseTemplateParam()
		} else if d.cur.Match("fp") {
			operand, err = d.parseFunctionParam()
		} else {
			return nil, d.malformed("sizeof... of %q", d.cur.PeekByte())
		}
		if err != nil {
			return nil, err
		}
		return &SizeofExpr{Keyword: "sizeof...", Operand: operand}, nil

	case "dt", "pt":
		base, err := d.parseExpression()
		if err != nil {
			return nil, err
		}
		member, err := d.parseExpression()
		if err != nil {
			return nil, err
		}
		return &MemberExpr{Base: base, Member: member, Arrow: code == "pt"}, nil

	case "tr":
		return &Name{Name: "throw"}, nil

	case "gs":
		e, err := d.parseExpression()
		if err != nil {
			return nil, err
		}
		return &NestedName{Qual: &Name{}, Name: e}, nil
	}

	info, ok := operators[code]
	if !ok {
		return nil, d.malformed("unknown expression %q", code)
	}
	op := &Operator{Code: code, Symbol: info.symbol, Arity: info.arity}

	switch info.arity {
	case 1:
		postfix := false
		if code == "pp" || code == "mm" {
			postfix = !d.cur.MatchByte('_')
		}
		e, err := d.parseExpression()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: op, Operand: e, Postfix: postfix}, nil
	case 2:
		l, err := d.parseExpression()
		if err != nil {
			return nil, err
		}
		r, err := d.parseExpression()
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Op: op, Left: l, Right: r}, nil
	case 3:
		if code != "qu" {
			return nil, d.malformed("unsupported expression %q", code)
		}
		cond, err := d.parseExpression()
		if err != nil {
			return nil, err
		}
		then, err := d.parseExpression()
		if err != nil {
			return nil, err
		}
		els, err := d.parseExpression()
		if err != nil {
			return nil, err
		}
		return &TrinaryExpr{Cond: cond, Then: then, Else: els}, nil
	}
	return nil, d.malformed("unsupported expression %q", code)
}

// parseExpressionList reads expressions up to and including E.
func (d *demangler) parseExpressionList(what string) ([]Node, error) {
	var list []Node
	for !d.cur.MatchByte('E') {
		if d.cur.EOF() {
			return nil, d.errorf(ErrUnexpectedEnd, "unterminated %s", what)
		}
		e, err := d.parseExpression()
		if err != nil {
			return nil, err
		}
		list = append(list, e)
		if err := d.checkList(len(list)); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// <expr-primary> ::= L <type> <value number> E
//                ::= L <type> <value float> E
//                ::= L <mangled-name> E
func (d *demangler) parseExprPrimary() (Node, error) {
	if err := d.expect('L', "literal"); err != nil {
		return nil, err
	}

	if d.cur.Match("_Z") {
		enc, err := d.parseEncoding()
		if err != nil {
			return nil, err
		}
		if err := d.expect('E', "literal"); err != nil {
			return nil, err
		}
		return &Literal{Encoding: enc}, nil
	}

	t, err := d.parseType()
	if err != nil {
		return nil, err
	}
	lit := &Literal{Type: t}
	lit.Negative = d.cur.MatchByte('n')
	start := d.cur.Offset()
	for {
		c, ok := d.cur.Peek()
		if !ok {
			return nil, d.errorf(ErrUnexpectedEnd, "unterminated literal")
		}
		if c == 'E' {
			break
		}
		d.cur.Advance(1)
	}
	lit.Value = d.cur.Slice(start)
	d.cur.Advance(1) // E
	return lit, nil
}

// <function-param> ::= fp <CV-qualifiers> _
//                  ::= fp <CV-qualifiers> <parameter-2 non-negative number> _
//                  ::= fpT
func (d *demangler) parseFunctionParam() (Node, error) {
	if d.cur.MatchByte('T') {
		return &FunctionParam{Index: -1}, nil
	}
	d.parseCVQualifiers()
	idx, err := d.parseCompactNumber("function parameter")
	if err != nil {
		return nil, err
	}
	return &FunctionParam{Index: idx}, nil
}

// <unresolved-name> after sr:
//
//	N <unresolved-type> <simple-id>+ E <base-unresolved-name>
//	<simple-id>+ E <base-unresolved-name>
//	<unresolved-type> <base-unresolved-name>
func (d *demangler) parseUnresolvedName() (Node, error) {
	var qual Node
	switch {
	case d.cur.MatchByte('N'):
		t, err := d.parseType()
		if err != nil {
			return nil, err
		}
		qual = t
		for !d.cur.MatchByte('E') {
			id, err := d.parseSimpleID()
			if err != nil {
				return nil, err
			}
			qual = &NestedName{Qual: qual, Name: id}
		}
	case isDigit(d.cur.PeekByte()):
		for !d.cur.MatchByte('E') {
			id, err := d.parseSimpleID()
			if err != nil {
				return nil, err
			}
			if qual == nil {
				qual = id
			} else {
				qual = &NestedName{Qual: qual, Name: id}
			}
		}
	default:
		t, err := d.parseType()
		if err != nil {
			return nil, err
		}
		qual = t
	}

	base, err := d.parseBaseUnresolvedName()
	if err != nil {
		return nil, err
	}
	return &NestedName{Qual: qual, Name: base}, nil
}

// <simple-id> ::= <source-name> [<template-args>]
func (d *demangler) parseSimpleID() (Node, error) {
	if d.cur.EOF() {
		return nil, d.errorf(ErrUnexpectedEnd, "unterminated unresolved name")
	}
	n, err := d.parseSourceName()
	if err != nil {
		return nil, err
	}
	if d.cur.PeekByte() == 'I' {
		args, err := d.parseTemplateArgs()
		if err != nil {
			return nil, err
		}
		n = &Template{Name: n, Args: args}
	}
	return n, nil
}

// <base-unresolved-name> ::= <simple-id>
//                        ::= on <operator-name> [<template-args>]
//                        ::= dn <destructor-name>
func (d *demangler) parseBaseUnresolvedName() (Node, error) {
	switch {
	case d.cur.Match("on"):
		op, err := d.parseOperatorName()
		if err != nil {
			return nil, err
		}
		if d.cur.PeekByte() == 'I' {
			args, err := d.parseTemplateArgs()
			if err != nil {
				return nil, err
			}
			return &Template{Name: op, Args: args}, nil
		}
		return op, nil
	case d.cur.Match("dn"):
		id, err := d.parseIdentifier()
		if err != nil {
			return nil, err
		}
		return &Destructor{Name: id}, nil
	default:
		return d.parseSimpleID()
	}
}
