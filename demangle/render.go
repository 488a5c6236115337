package demangle

import (
	"strconv"
	"strings"
)

type renderer struct {
	opts options
}

// Render converts a node into C++ source syntax. It never fails; nodes
// that were not produced by Parse render with placeholder text.
func Render(n Node, opts ...Option) string {
	r := &renderer{opts: buildOptions(opts...)}
	return r.render(n)
}

func (r *renderer) render(n Node) string {
	switch n := n.(type) {
	case nil:
		return ""
	case *Name:
		return n.Name
	case *NestedName:
		return r.render(n.Qual) + "::" + r.render(n.Name)
	case *StdSubstitution:
		return n.Name
	case *LocalName:
		return r.render(n.Encoding) + "::" + r.render(n.Entity)
	case *Template:
		return r.render(n.Name) + r.templateArgs(n.Args)
	case *Operator:
		if n.Symbol != "" && isLower(n.Symbol[0]) || strings.HasPrefix(n.Code, "v") {
			return "operator " + n.Symbol
		}
		return "operator" + n.Symbol
	case *LiteralOperator:
		return `operator"" ` + n.Suffix
	case *Conversion:
		return "operator " + r.render(n.Type)
	case *Constructor:
		return n.Name
	case *Destructor:
		return "~" + n.Name
	case *UnnamedType:
		return "{unnamed type#" + strconv.Itoa(n.Index+1) + "}"
	case *Lambda:
		return "{lambda(" + r.list(n.Params) + ")#" + strconv.Itoa(n.Index+1) + "}"
	case *ABITag:
		return r.render(n.Base) + "[abi:" + n.Tag + "]"
	case *StructuredBinding:
		return "[" + r.list(n.Names) + "]"

	case *BuiltinType:
		return n.Name
	case *VendorType:
		return n.Name
	case *DecltypeType:
		return "decltype (" + r.render(n.Expr) + ")"
	case *TemplateParam:
		switch {
		case n.Lambda:
			return "auto:" + strconv.Itoa(n.Index+1)
		case n.Arg != nil:
			return r.render(n.Arg)
		case n.Index == 0:
			return "T_"
		default:
			return "T" + strconv.Itoa(n.Index-1) + "_"
		}
	case *PackExpansion:
		if n.Expanded != nil {
			return r.list(n.Expanded)
		}
		return r.render(n.Pattern) + "..."
	case *ArgumentPack:
		return r.list(n.Args)
	case *PointerType, *QualifiedType, *VendorQualifiedType, *ArrayType,
		*FunctionType, *MemberPointerType, *VectorType, *ComplexType:
		return r.declare(n, "")

	case *Function:
		return r.function(n)
	case *Special:
		return n.Prefix + r.render(n.Target)
	case *CtorVtable:
		return "construction vtable for " + r.render(n.Base) + "-in-" + r.render(n.Derived)
	case *GlobalCtorDtor:
		if n.Destructor {
			return "global destructors keyed to " + r.render(n.Target)
		}
		return "global constructors keyed to " + r.render(n.Target)
	case *Suffixed:
		return r.render(n.Node) + n.Suffix

	default:
		return r.expr(n)
	}
}

func (r *renderer) function(f *Function) string {
	name := r.render(f.Name)
	if r.opts.noParams || f.Sig == nil {
		return name
	}
	decl := name + "(" + r.list(f.Sig.Params) + ")" + methodSuffix(f.Sig)
	ret := f.Sig.ReturnType
	if ret == nil {
		return decl
	}
	if wrapsDeclarator(ret) {
		return r.declare(ret, decl)
	}
	return r.render(ret) + " " + decl
}

// wrapsDeclarator reports whether a return type must be written around the
// function declarator, as in int (*f())(long).
func wrapsDeclarator(n Node) bool {
	for {
		switch t := n.(type) {
		case *PointerType:
			n = t.Pointee
		case *QualifiedType:
			n = t.Type
		case *TemplateParam:
			if t.Arg == nil {
				return false
			}
			n = t.Arg
		case *FunctionType, *ArrayType:
			return true
		case *MemberPointerType:
			_, ok := t.MemberType.(*FunctionType)
			return ok
		default:
			return false
		}
	}
}

func methodSuffix(ft *FunctionType) string {
	var s string
	if !ft.Quals.IsEmpty() {
		s = " " + ft.Quals.String()
	}
	switch ft.RefQualifier {
	case RefQualifierLValue:
		s += " &"
	case RefQualifierRValue:
		s += " &&"
	}
	return s
}

// declare renders type n around the partial declarator inner, which holds
// whatever binds tighter than n (pointer tokens, qualifiers, a name).
func (r *renderer) declare(n Node, inner string) string {
	switch t := n.(type) {
	case *PointerType:
		if t.Affinity == AffinityPointer {
			return r.declare(t.Pointee, t.Affinity.token()+inner)
		}
		pointee, aff := collapseReference(t)
		return r.declare(pointee, aff.token()+inner)

	case *QualifiedType:
		return r.declare(t.Type, " "+t.Quals.String()+spaceBefore(inner)+inner)

	case *VendorQualifiedType:
		return r.declare(t.Type, " "+t.Qualifier+spaceBefore(inner)+inner)

	case *FunctionType:
		suffix := "(" + r.list(t.Params) + ")" + methodSuffix(t)
		if inner == "" {
			suffix = " " + suffix
		} else {
			suffix = " (" + strings.TrimLeft(inner, " ") + ")" + suffix
		}
		if t.ReturnType == nil {
			return strings.TrimLeft(suffix, " ")
		}
		return r.declare(t.ReturnType, suffix)

	case *ArrayType:
		var dims strings.Builder
		var elem Node = t
		for {
			a, ok := elem.(*ArrayType)
			if !ok {
				break
			}
			dims.WriteString("[" + r.render(a.Dimension) + "]")
			elem = a.Element
		}
		if inner == "" {
			return r.declare(elem, " "+dims.String())
		}
		return r.declare(elem, " ("+strings.TrimLeft(inner, " ")+") "+dims.String())

	case *MemberPointerType:
		cls := r.render(t.ClassType)
		if ft, ok := t.MemberType.(*FunctionType); ok {
			return r.declare(ft, cls+"::*"+inner)
		}
		return r.declare(t.MemberType, " "+cls+"::*"+inner)

	case *VectorType:
		return r.render(t.Element) + " __vector(" + r.render(t.Dimension) + ")" + inner

	case *ComplexType:
		if t.Imaginary {
			return r.render(t.Element) + " _Imaginary" + inner
		}
		return r.render(t.Element) + " _Complex" + inner

	case *TemplateParam:
		if t.Arg != nil && !t.Lambda {
			return r.declare(t.Arg, inner)
		}
	}
	return r.render(n) + spaceBefore(inner) + inner
}

// collapseReference applies the reference collapsing rules to a reference
// whose referent is itself a reference, usually through a bound template
// parameter: T& && and T&& & become T&, T&& && becomes T&&.
func collapseReference(t *PointerType) (Node, PointerAffinity) {
	aff := t.Affinity
	n := t.Pointee
	for {
		if p, ok := n.(*TemplateParam); ok && p.Arg != nil && !p.Lambda {
			if _, pack := p.Arg.(*ArgumentPack); !pack {
				n = p.Arg
				continue
			}
		}
		ref, ok := n.(*PointerType)
		if !ok || ref.Affinity == AffinityPointer {
			return t.Pointee, aff
		}
		if ref.Affinity == AffinityReference {
			aff = AffinityReference
		}
		t = ref
		n = ref.Pointee
	}
}

// spaceBefore separates a type from a following declarator name.
func spaceBefore(inner string) string {
	if inner == "" || strings.IndexByte(" *&()[", inner[0]) >= 0 {
		return ""
	}
	return " "
}

func (r *renderer) templateArgs(args []Node) string {
	s := "<" + r.list(args)
	if strings.HasSuffix(s, ">") {
		s += " "
	}
	return s + ">"
}

// list renders a comma separated list with argument packs spliced inline.
func (r *renderer) list(nodes []Node) string {
	var parts []string
	for _, n := range nodes {
		parts = r.flatten(parts, n)
	}
	return strings.Join(parts, ", ")
}

func (r *renderer) flatten(parts []string, n Node) []string {
	switch t := n.(type) {
	case *ArgumentPack:
		for _, a := range t.Args {
			parts = r.flatten(parts, a)
		}
		return parts
	case *PackExpansion:
		if t.Expanded != nil {
			for _, e := range t.Expanded {
				parts = r.flatten(parts, e)
			}
			return parts
		}
	case *TemplateParam:
		if pack, ok := t.Arg.(*ArgumentPack); ok && !t.Lambda {
			return r.flatten(parts, pack)
		}
	}
	return append(parts, r.render(n))
}

var literalSuffixes = map[string]string{
	"int":                "",
	"unsigned int":       "u",
	"long":               "l",
	"unsigned long":      "ul",
	"long long":          "ll",
	"unsigned long long": "ull",
}

func (r *renderer) expr(n Node) string {
	switch e := n.(type) {
	case *Literal:
		return r.literal(e)
	case *FunctionParam:
		if e.Index < 0 {
			return "this"
		}
		return "{parm#" + strconv.Itoa(e.Index+1) + "}"
	case *UnaryExpr:
		if e.Postfix {
			return r.subexpr(e.Operand) + e.Op.Symbol
		}
		if e.Op.Symbol != "" && isLower(e.Op.Symbol[0]) {
			return e.Op.Symbol + " " + r.subexpr(e.Operand)
		}
		return e.Op.Symbol + r.subexpr(e.Operand)
	case *BinaryExpr:
		if e.Op.Code == "ix" {
			return r.subexpr(e.Left) + "[" + r.render(e.Right) + "]"
		}
		s := r.subexpr(e.Left) + e.Op.Symbol + r.subexpr(e.Right)
		if e.Op.Code == "gt" {
			s = "(" + s + ")"
		}
		return s
	case *TrinaryExpr:
		return r.subexpr(e.Cond) + "?" + r.subexpr(e.Then) + " : " + r.subexpr(e.Else)
	case *CallExpr:
		return r.subexpr(e.Func) + "(" + r.list(e.Args) + ")"
	case *CastExpr:
		if e.Keyword != "" {
			return e.Keyword + "<" + r.render(e.Type) + ">(" + r.list(e.Args) + ")"
		}
		if len(e.Args) == 1 {
			return "(" + r.render(e.Type) + ")" + r.subexpr(e.Args[0])
		}
		return "(" + r.render(e.Type) + ")(" + r.list(e.Args) + ")"
	case *SizeofExpr:
		if e.Keyword == "sizeof..." {
			return "sizeof...(" + r.render(e.Operand) + ")"
		}
		return e.Keyword + " (" + r.render(e.Operand) + ")"
	case *MemberExpr:
		op := "."
		if e.Arrow {
			op = "->"
		}
		return r.subexpr(e.Base) + op + r.render(e.Member)
	}
	return ""
}

func (r *renderer) subexpr(n Node) string {
	switch n.(type) {
	case *Name, *NestedName, *FunctionParam:
		return r.render(n)
	}
	return "(" + r.render(n) + ")"
}

func (r *renderer) literal(l *Literal) string {
	if l.Encoding != nil {
		return r.render(l.Encoding)
	}
	value := l.Value
	if l.Negative {
		value = "-" + value
	}
	if b, ok := l.Type.(*BuiltinType); ok {
		switch b.Name {
		case "bool":
			switch value {
			case "0":
				return "false"
			case "1":
				return "true"
			}
		case "decltype(nullptr)":
			if l.Value == "" || l.Value == "0" {
				return "nullptr"
			}
		default:
			if suffix, ok := literalSuffixes[b.Name]; ok {
				return value + suffix
			}
		}
	}
	return "(" + r.render(l.Type) + ")" + value
}
