package demangle

import "strconv"

// prefixes for T<x> special names whose target is a type
var typeSpecials = map[byte]string{
	'V': "vtable for ",
	'T': "VTT for ",
	'I': "typeinfo for ",
	'S': "typeinfo name for ",
}

// <special-name> ::= TV <type> | TT <type> | TI <type> | TS <type>
//                ::= Th <call-offset> <encoding> | Tv <call-offset> <encoding>
//                ::= Tc <call-offset> <call-offset> <encoding>
//                ::= TC <type> <number> _ <type>
//                ::= TH <name> | TW <name> | TA <template-arg>
//                ::= GV <name> | GR <name> [<seq-id>] _ | GA <encoding>
//                ::= GTt <encoding> | GTn <encoding>
func (d *demangler) parseSpecialName() (Node, error) {
	tag, err := d.cur.Take(2)
	if err != nil {
		return nil, d.wrap(err, "special name")
	}

	if tag[0] == 'T' {
		if prefix, ok := typeSpecials[tag[1]]; ok {
			t, err := d.parseType()
			if err != nil {
				return nil, err
			}
			return &Special{Prefix: prefix, Target: t}, nil
		}
	}

	switch tag {
	case "Th", "Tv":
		if err := d.parseCallOffset(tag[1]); err != nil {
			return nil, err
		}
		if tag == "Th" {
			return d.specialEncoding("non-virtual thunk to ")
		}
		return d.specialEncoding("virtual thunk to ")

	case "Tc":
		for i := 0; i < 2; i++ {
			kind, err := d.cur.Next()
			if err != nil {
				return nil, d.wrap(err, "call offset")
			}
			if err := d.parseCallOffset(kind); err != nil {
				return nil, err
			}
		}
		return d.specialEncoding("covariant return thunk to ")

	case "TC":
		derived, err := d.parseType()
		if err != nil {
			return nil, err
		}
		if _, err := d.cur.ReadNumber(); err != nil {
			return nil, d.wrap(err, "construction vtable offset")
		}
		if err := d.expect('_', "construction vtable offset"); err != nil {
			return nil, err
		}
		base, err := d.parseType()
		if err != nil {
			return nil, err
		}
		return &CtorVtable{Base: base, Derived: derived}, nil

	case "TH", "TW":
		name, _, err := d.parseName()
		if err != nil {
			return nil, err
		}
		prefix := "TLS init function for "
		if tag == "TW" {
			prefix = "TLS wrapper function for "
		}
		return &Special{Prefix: prefix, Target: name}, nil

	case "TA":
		arg, err := d.parseTemplateArg()
		if err != nil {
			return nil, err
		}
		return &Special{Prefix: "template parameter object for ", Target: arg}, nil

	case "GV":
		name, _, err := d.parseName()
		if err != nil {
			return nil, err
		}
		return &Special{Prefix: "guard variable for ", Target: name}, nil

	case "GR":
		name, _, err := d.parseName()
		if err != nil {
			return nil, err
		}
		seq := 0
		if !d.cur.MatchByte('_') {
			n, err := d.cur.ReadBase36()
			if err != nil {
				return nil, d.wrap(err, "reference temporary number")
			}
			if err := d.expect('_', "reference temporary number"); err != nil {
				return nil, err
			}
			seq = n + 1
		}
		return &Special{Prefix: "reference temporary #" + strconv.Itoa(seq) + " for ", Target: name}, nil

	case "GA":
		return d.specialEncoding("hidden alias for ")

	case "GT":
		kind, err := d.cur.Next()
		if err != nil {
			return nil, d.wrap(err, "transaction clone")
		}
		switch kind {
		case 't':
			return d.specialEncoding("transaction clone for ")
		case 'n':
			return d.specialEncoding("non-transaction clone for ")
		}
		return nil, d.malformed("unknown transaction clone kind %q", kind)
	}

	return nil, d.malformed("unknown special name %q", tag)
}

func (d *demangler) specialEncoding(prefix string) (Node, error) {
	enc, err := d.parseEncoding()
	if err != nil {
		return nil, err
	}
	return &Special{Prefix: prefix, Target: enc}, nil
}

// <call-offset> ::= h <nv-offset> _ | v <v-offset> _
// <nv-offset>   ::= <offset number>
// <v-offset>    ::= <offset number> _ <virtual offset number>
func (d *demangler) parseCallOffset(kind byte) error {
	switch kind {
	case 'h':
		if err := d.parseOffsetNumber(); err != nil {
			return err
		}
	case 'v':
		if err := d.parseOffsetNumber(); err != nil {
			return err
		}
		if err := d.expect('_', "virtual offset"); err != nil {
			return err
		}
		if err := d.parseOffsetNumber(); err != nil {
			return err
		}
	default:
		return d.malformed("unknown call offset %q", kind)
	}
	return d.expect('_', "call offset")
}

// offsets may be negative: n<digits>
func (d *demangler) parseOffsetNumber() error {
	d.cur.MatchByte('n')
	if _, err := d.cur.ReadNumber(); err != nil {
		return d.wrap(err, "call offset")
	}
	return nil
}

// _GLOBAL_ [._$] (I|D) _ <mangled or plain name>
func (d *demangler) parseGlobalCtorDtor() (Node, error) {
	sep, ok := d.cur.Peek()
	if !ok || (sep != '.' && sep != '_' && sep != '$') {
		return nil, ErrNotMangled
	}
	kind, _ := d.cur.PeekAt(1)
	under, _ := d.cur.PeekAt(2)
	if (kind != 'I' && kind != 'D') || under != '_' {
		return nil, ErrNotMangled
	}
	d.cur.Advance(3)

	var target Node
	rest := d.cur.Rest()
	if len(rest) > 2 && rest[:2] == "_Z" {
		d.cur.Advance(2)
		enc, err := d.parseEncoding()
		if err != nil {
			return nil, err
		}
		if err := d.bind(enc); err != nil {
			return nil, err
		}
		target = enc
		if tail := d.cur.Rest(); tail != "" {
			target = &Suffixed{Node: target, Suffix: tail}
		}
	} else {
		target = &Name{Name: rest}
	}
	d.cur.Advance(d.cur.Remaining())
	return &GlobalCtorDtor{Destructor: kind == 'D', Target: target}, nil
}
