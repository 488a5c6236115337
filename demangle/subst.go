package demangle

// substitutions is the append-only table consulted by S_ / S<seq-id>_.
// It lives for exactly one decode.
type substitutions struct {
	entries []Node
}

// record appends a completed substitutable production.
func (s *substitutions) record(n Node) {
	s.entries = append(s.entries, n)
}

// resolve returns a deep copy of entry i and the number of nodes copied.
func (s *substitutions) resolve(i int) (Node, int, error) {
	if i < 0 || i >= len(s.entries) {
		return nil, 0, ErrInvalidBackref
	}
	count := 0
	return cloneNode(s.entries[i], &count), count, nil
}

func (s *substitutions) len() int { return len(s.entries) }

// standard abbreviations; full forms are used in front of ctor/dtor names.
type stdSub struct {
	name   string
	full   string
	simple string
}

var stdSubstitutions = map[byte]stdSub{
	't': {"std", "std", ""},
	'a': {"std::allocator", "std::allocator", "allocator"},
	'b': {"std::basic_string", "std::basic_string", "basic_string"},
	's': {"std::string", "std::basic_string<char, std::char_traits<char>, std::allocator<char> >", "basic_string"},
	'i': {"std::istream", "std::basic_istream<char, std::char_traits<char> >", "basic_istream"},
	'o': {"std::ostream", "std::basic_ostream<char, std::char_traits<char> >", "basic_ostream"},
	'd': {"std::iostream", "std::basic_iostream<char, std::char_traits<char> >", "basic_iostream"},
}

func cloneList(list []Node, count *int) []Node {
	if list == nil {
		return nil
	}
	out := make([]Node, len(list))
	for i, n := range list {
		out[i] = cloneNode(n, count)
	}
	return out
}

func cloneOperator(op *Operator, count *int) *Operator {
	if op == nil {
		return nil
	}
	*count++
	c := *op
	return &c
}

func cloneFunctionType(ft *FunctionType, count *int) *FunctionType {
	if ft == nil {
		return nil
	}
	*count++
	c := *ft
	c.ReturnType = cloneNode(ft.ReturnType, count)
	c.Params = cloneList(ft.Params, count)
	return &c
}

// cloneNode deep-copies n so that no two positions in a tree share structure.
func cloneNode(n Node, count *int) Node {
	if n == nil {
		return nil
	}
	*count++
	switch n := n.(type) {
	case *Name:
		c := *n
		return &c
	case *NestedName:
		return &NestedName{Qual: cloneNode(n.Qual, count), Name: cloneNode(n.Name, count)}
	case *StdSubstitution:
		c := *n
		return &c
	case *LocalName:
		return &LocalName{Encoding: cloneNode(n.Encoding, count), Entity: cloneNode(n.Entity, count)}
	case *Template:
		return &Template{Name: cloneNode(n.Name, count), Args: cloneList(n.Args, count)}
	case *Operator:
		c := *n
		return &c
	case *LiteralOperator:
		c := *n
		return &c
	case *Conversion:
		return &Conversion{Type: cloneNode(n.Type, count)}
	case *Constructor:
		c := *n
		return &c
	case *Destructor:
		c := *n
		return &c
	case *UnnamedType:
		c := *n
		return &c
	case *Lambda:
		return &Lambda{Params: cloneList(n.Params, count), Index: n.Index}
	case *ABITag:
		return &ABITag{Base: cloneNode(n.Base, count), Tag: n.Tag}
	case *StructuredBinding:
		return &StructuredBinding{Names: cloneList(n.Names, count)}
	case *BuiltinType:
		c := *n
		return &c
	case *VendorType:
		c := *n
		return &c
	case *PointerType:
		return &PointerType{Pointee: cloneNode(n.Pointee, count), Affinity: n.Affinity}
	case *QualifiedType:
		return &QualifiedType{Type: cloneNode(n.Type, count), Quals: n.Quals}
	case *VendorQualifiedType:
		return &VendorQualifiedType{Type: cloneNode(n.Type, count), Qualifier: n.Qualifier}
	case *ArrayType:
		return &ArrayType{Element: cloneNode(n.Element, count), Dimension: cloneNode(n.Dimension, count)}
	case *FunctionType:
		*count--
		return cloneFunctionType(n, count)
	case *MemberPointerType:
		return &MemberPointerType{ClassType: cloneNode(n.ClassType, count), MemberType: cloneNode(n.MemberType, count)}
	case *VectorType:
		return &VectorType{Element: cloneNode(n.Element, count), Dimension: cloneNode(n.Dimension, count)}
	case *ComplexType:
		return &ComplexType{Element: cloneNode(n.Element, count), Imaginary: n.Imaginary}
	case *DecltypeType:
		return &DecltypeType{Expr: cloneNode(n.Expr, count)}
	case *TemplateParam:
		return &TemplateParam{Index: n.Index, Lambda: n.Lambda, Arg: cloneNode(n.Arg, count)}
	case *PackExpansion:
		return &PackExpansion{Pattern: cloneNode(n.Pattern, count), Expanded: cloneList(n.Expanded, count), Bound: n.Bound}
	case *ArgumentPack:
		return &ArgumentPack{Args: cloneList(n.Args, count)}
	case *Literal:
		return &Literal{Type: cloneNode(n.Type, count), Value: n.Value, Negative: n.Negative, Encoding: cloneNode(n.Encoding, count)}
	case *FunctionParam:
		c := *n
		return &c
	case *UnaryExpr:
		return &UnaryExpr{Op: cloneOperator(n.Op, count), Operand: cloneNode(n.Operand, count), Postfix: n.Postfix}
	case *BinaryExpr:
		return &BinaryExpr{Op: cloneOperator(n.Op, count), Left: cloneNode(n.Left, count), Right: cloneNode(n.Right, count)}
	case *TrinaryExpr:
		return &TrinaryExpr{Cond: cloneNode(n.Cond, count), Then: cloneNode(n.Then, count), Else: cloneNode(n.Else, count)}
	case *CallExpr:
		return &CallExpr{Func: cloneNode(n.Func, count), Args: cloneList(n.Args, count)}
	case *CastExpr:
		return &CastExpr{Keyword: n.Keyword, Type: cloneNode(n.Type, count), Args: cloneList(n.Args, count)}
	case *SizeofExpr:
		return &SizeofExpr{Keyword: n.Keyword, Operand: cloneNode(n.Operand, count)}
	case *MemberExpr:
		return &MemberExpr{Base: cloneNode(n.Base, count), Member: cloneNode(n.Member, count), Arrow: n.Arrow}
	case *Function:
		return &Function{Name: cloneNode(n.Name, count), Sig: cloneFunctionType(n.Sig, count)}
	case *Special:
		return &Special{Prefix: n.Prefix, Target: cloneNode(n.Target, count)}
	case *CtorVtable:
		return &CtorVtable{Base: cloneNode(n.Base, count), Derived: cloneNode(n.Derived, count)}
	case *GlobalCtorDtor:
		return &GlobalCtorDtor{Destructor: n.Destructor, Target: cloneNode(n.Target, count)}
	case *Suffixed:
		return &Suffixed{Node: cloneNode(n.Node, count), Suffix: n.Suffix}
	default:
		panic("demangle: clone of unknown node type")
	}
}

// Children returns the direct child nodes of n in source order.
func Children(n Node) []Node { return children(n) }

func children(n Node) []Node {
	var out []Node
	add := func(nodes ...Node) {
		for _, c := range nodes {
			if c != nil {
				out = append(out, c)
			}
		}
	}
	switch n := n.(type) {
	case *NestedName:
		add(n.Qual, n.Name)
	case *LocalName:
		add(n.Encoding, n.Entity)
	case *Template:
		add(n.Name)
		add(n.Args...)
	case *Conversion:
		add(n.Type)
	case *Lambda:
		add(n.Params...)
	case *ABITag:
		add(n.Base)
	case *StructuredBinding:
		add(n.Names...)
	case *PointerType:
		add(n.Pointee)
	case *QualifiedType:
		add(n.Type)
	case *VendorQualifiedType:
		add(n.Type)
	case *ArrayType:
		add(n.Element, n.Dimension)
	case *FunctionType:
		add(n.ReturnType)
		add(n.Params...)
	case *MemberPointerType:
		add(n.ClassType, n.MemberType)
	case *VectorType:
		add(n.Element, n.Dimension)
	case *ComplexType:
		add(n.Element)
	case *DecltypeType:
		add(n.Expr)
	case *TemplateParam:
		add(n.Arg)
	case *PackExpansion:
		add(n.Pattern)
		add(n.Expanded...)
	case *ArgumentPack:
		add(n.Args...)
	case *Literal:
		add(n.Type, n.Encoding)
	case *UnaryExpr:
		add(n.Operand)
	case *BinaryExpr:
		add(n.Left, n.Right)
	case *TrinaryExpr:
		add(n.Cond, n.Then, n.Else)
	case *CallExpr:
		add(n.Func)
		add(n.Args...)
	case *CastExpr:
		add(n.Type)
		add(n.Args...)
	case *SizeofExpr:
		add(n.Operand)
	case *MemberExpr:
		add(n.Base, n.Member)
	case *Function:
		add(n.Name)
		if n.Sig != nil {
			add(n.Sig)
		}
	case *Special:
		add(n.Target)
	case *CtorVtable:
		add(n.Base, n.Derived)
	case *GlobalCtorDtor:
		add(n.Target)
	case *Suffixed:
		add(n.Node)
	}
	return out
}
