// Package demangle decodes Itanium C++ ABI mangled names (_Z...) into
// readable declarations.
package demangle

import (
	"fmt"
	"strings"
)

// NodeKind identifies the type of AST node.
type NodeKind int

const (
	NodeKindUnknown NodeKind = iota
	// Name nodes
	NodeKindName
	NodeKindNestedName
	NodeKindStdSubstitution
	NodeKindLocalName
	NodeKindTemplate
	NodeKindOperator
	NodeKindLiteralOperator
	NodeKindConversion
	NodeKindConstructor
	NodeKindDestructor
	NodeKindUnnamedType
	NodeKindLambda
	NodeKindABITag
	NodeKindStructuredBinding
	// Type nodes
	NodeKindBuiltinType
	NodeKindVendorType
	NodeKindPointerType
	NodeKindReferenceType
	NodeKindRValueReferenceType
	NodeKindQualifiedType
	NodeKindVendorQualifiedType
	NodeKindArrayType
	NodeKindFunctionType
	NodeKindMemberPointerType
	NodeKindVectorType
	NodeKindComplexType
	NodeKindDecltypeType
	NodeKindTemplateParam
	NodeKindPackExpansion
	NodeKindArgumentPack
	// Expression nodes
	NodeKindLiteral
	NodeKindFunctionParam
	NodeKindUnaryExpr
	NodeKindBinaryExpr
	NodeKindTrinaryExpr
	NodeKindCallExpr
	NodeKindCastExpr
	NodeKindSizeofExpr
	NodeKindMemberExpr
	// Symbol nodes
	NodeKindFunction
	NodeKindSpecial
	NodeKindCtorVtable
	NodeKindGlobalCtorDtor
	NodeKindSuffixed
)

var nodeKindNames = map[NodeKind]string{
	NodeKindName:                "name",
	NodeKindNestedName:          "nested-name",
	NodeKindStdSubstitution:     "std-substitution",
	NodeKindLocalName:           "local-name",
	NodeKindTemplate:            "template",
	NodeKindOperator:            "operator",
	NodeKindLiteralOperator:     "literal-operator",
	NodeKindConversion:          "conversion",
	NodeKindConstructor:         "constructor",
	NodeKindDestructor:          "destructor",
	NodeKindUnnamedType:         "unnamed-type",
	NodeKindLambda:              "lambda",
	NodeKindABITag:              "abi-tag",
	NodeKindStructuredBinding:   "structured-binding",
	NodeKindBuiltinType:         "builtin-type",
	NodeKindVendorType:          "vendor-type",
	NodeKindPointerType:         "pointer",
	NodeKindReferenceType:       "reference",
	NodeKindRValueReferenceType: "rvalue-reference",
	NodeKindQualifiedType:       "qualified-type",
	NodeKindVendorQualifiedType: "vendor-qualified-type",
	NodeKindArrayType:           "array",
	NodeKindFunctionType:        "function-type",
	NodeKindMemberPointerType:   "member-pointer",
	NodeKindVectorType:          "vector",
	NodeKindComplexType:         "complex",
	NodeKindDecltypeType:        "decltype",
	NodeKindTemplateParam:       "template-param",
	NodeKindPackExpansion:       "pack-expansion",
	NodeKindArgumentPack:        "argument-pack",
	NodeKindLiteral:             "literal",
	NodeKindFunctionParam:       "function-param",
	NodeKindUnaryExpr:           "unary",
	NodeKindBinaryExpr:          "binary",
	NodeKindTrinaryExpr:         "trinary",
	NodeKindCallExpr:            "call",
	NodeKindCastExpr:            "cast",
	NodeKindSizeofExpr:          "sizeof",
	NodeKindMemberExpr:          "member-access",
	NodeKindFunction:            "function",
	NodeKindSpecial:             "special",
	NodeKindCtorVtable:          "construction-vtable",
	NodeKindGlobalCtorDtor:      "global-ctor-dtor",
	NodeKindSuffixed:            "suffixed",
}

func (k NodeKind) String() string {
	if name, ok := nodeKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Kind() NodeKind
	fmt.Stringer
}

// Name represents a simple identifier.
type Name struct {
	Name string
}

func (n *Name) Kind() NodeKind { return NodeKindName }

// NestedName represents Qual::Name.
type NestedName struct {
	Qual Node
	Name Node
}

func (n *NestedName) Kind() NodeKind { return NodeKindNestedName }

// StdSubstitution is one of the standard abbreviations (Sa, Ss, ...).
type StdSubstitution struct {
	Code   byte
	Name   string // rendered text, abbreviated or expanded
	Simple string // unqualified class name used for ctor/dtor naming
}

func (n *StdSubstitution) Kind() NodeKind { return NodeKindStdSubstitution }

// LocalName represents an entity declared inside a function body.
type LocalName struct {
	Encoding Node
	Entity   Node
}

func (n *LocalName) Kind() NodeKind { return NodeKindLocalName }

// Template represents a template with arguments.
type Template struct {
	Name Node
	Args []Node
}

func (n *Template) Kind() NodeKind { return NodeKindTemplate }

// Operator represents an operator name such as operator+ or operator new.
type Operator struct {
	Code   string
	Symbol string
	Arity  int
}

func (n *Operator) Kind() NodeKind { return NodeKindOperator }

// LiteralOperator represents operator"" suffix.
type LiteralOperator struct {
	Suffix string
}

func (n *LiteralOperator) Kind() NodeKind { return NodeKindLiteralOperator }

// Conversion represents a conversion operator.
type Conversion struct {
	Type Node
}

func (n *Conversion) Kind() NodeKind { return NodeKindConversion }

// Constructor names the class it constructs.
type Constructor struct {
	Name    string
	Variant byte
}

func (n *Constructor) Kind() NodeKind { return NodeKindConstructor }

// Destructor names the class it destroys.
type Destructor struct {
	Name    string
	Variant byte
}

func (n *Destructor) Kind() NodeKind { return NodeKindDestructor }

// UnnamedType is an unnamed class or enum.
type UnnamedType struct {
	Index int
}

func (n *UnnamedType) Kind() NodeKind { return NodeKindUnnamedType }

// Lambda is a closure type.
type Lambda struct {
	Params []Node
	Index  int
}

func (n *Lambda) Kind() NodeKind { return NodeKindLambda }

// ABITag attaches [abi:tag] to a name.
type ABITag struct {
	Base Node
	Tag  string
}

func (n *ABITag) Kind() NodeKind { return NodeKindABITag }

// StructuredBinding is a decomposition declaration [a, b].
type StructuredBinding struct {
	Names []Node
}

func (n *StructuredBinding) Kind() NodeKind { return NodeKindStructuredBinding }

// BuiltinType represents a fundamental C++ type.
type BuiltinType struct {
	Name string
}

func (n *BuiltinType) Kind() NodeKind { return NodeKindBuiltinType }

// VendorType is a vendor extended type (u <source-name>).
type VendorType struct {
	Name string
}

func (n *VendorType) Kind() NodeKind { return NodeKindVendorType }

// Qualifiers represents CV-qualifiers.
type Qualifiers struct {
	IsConst    bool
	IsVolatile bool
	IsRestrict bool
}

func (q Qualifiers) String() string {
	var parts []string
	if q.IsConst {
		parts = append(parts, "const")
	}
	if q.IsVolatile {
		parts = append(parts, "volatile")
	}
	if q.IsRestrict {
		parts = append(parts, "restrict")
	}
	return strings.Join(parts, " ")
}

func (q Qualifiers) IsEmpty() bool {
	return !q.IsConst && !q.IsVolatile && !q.IsRestrict
}

// PointerAffinity distinguishes pointer types.
type PointerAffinity int

const (
	AffinityPointer PointerAffinity = iota
	AffinityReference
	AffinityRValueReference
)

func (a PointerAffinity) token() string {
	switch a {
	case AffinityReference:
		return "&"
	case AffinityRValueReference:
		return "&&"
	default:
		return "*"
	}
}

// PointerType represents a pointer, reference, or rvalue reference.
type PointerType struct {
	Pointee  Node
	Affinity PointerAffinity
}

func (n *PointerType) Kind() NodeKind {
	switch n.Affinity {
	case AffinityReference:
		return NodeKindReferenceType
	case AffinityRValueReference:
		return NodeKindRValueReferenceType
	default:
		return NodeKindPointerType
	}
}

// QualifiedType represents a CV-qualified type.
type QualifiedType struct {
	Type  Node
	Quals Qualifiers
}

func (n *QualifiedType) Kind() NodeKind { return NodeKindQualifiedType }

// VendorQualifiedType carries a vendor qualifier (U <source-name>).
type VendorQualifiedType struct {
	Type      Node
	Qualifier string
}

func (n *VendorQualifiedType) Kind() NodeKind { return NodeKindVendorQualifiedType }

// ArrayType represents a C++ array type. Dimension is nil for T[].
type ArrayType struct {
	Element   Node
	Dimension Node
}

func (n *ArrayType) Kind() NodeKind { return NodeKindArrayType }

// RefQualifier for member function reference qualifiers.
type RefQualifier int

const (
	RefQualifierNone RefQualifier = iota
	RefQualifierLValue
	RefQualifierRValue
)

// FunctionType represents a function signature. ReturnType is nil when the
// encoding does not carry one.
type FunctionType struct {
	ReturnType   Node
	Params       []Node
	Quals        Qualifiers
	RefQualifier RefQualifier
	ExternC      bool
}

func (n *FunctionType) Kind() NodeKind { return NodeKindFunctionType }

// MemberPointerType represents pointer-to-member.
type MemberPointerType struct {
	ClassType  Node
	MemberType Node
}

func (n *MemberPointerType) Kind() NodeKind { return NodeKindMemberPointerType }

// VectorType is a GNU vector type.
type VectorType struct {
	Element   Node
	Dimension Node
}

func (n *VectorType) Kind() NodeKind { return NodeKindVectorType }

// ComplexType is a C99 _Complex or _Imaginary type.
type ComplexType struct {
	Element   Node
	Imaginary bool
}

func (n *ComplexType) Kind() NodeKind { return NodeKindComplexType }

// DecltypeType is decltype(expression).
type DecltypeType struct {
	Expr Node
}

func (n *DecltypeType) Kind() NodeKind { return NodeKindDecltypeType }

// TemplateParam is a reference to an enclosing template argument.
// Arg is filled in once the reference has been bound.
type TemplateParam struct {
	Index  int
	Lambda bool
	Arg    Node
}

func (n *TemplateParam) Kind() NodeKind { return NodeKindTemplateParam }

// PackExpansion expands Pattern over a bound argument pack.
type PackExpansion struct {
	Pattern  Node
	Expanded []Node
	Bound    bool
}

func (n *PackExpansion) Kind() NodeKind { return NodeKindPackExpansion }

// ArgumentPack is a template argument pack (J ... E).
type ArgumentPack struct {
	Args []Node
}

func (n *ArgumentPack) Kind() NodeKind { return NodeKindArgumentPack }

// Literal is an expr-primary. Either Type/Value or Encoding is set.
type Literal struct {
	Type     Node
	Value    string
	Negative bool
	Encoding Node
}

func (n *Literal) Kind() NodeKind { return NodeKindLiteral }

// FunctionParam refers to a function parameter inside an expression.
// Index -1 denotes this.
type FunctionParam struct {
	Index int
}

func (n *FunctionParam) Kind() NodeKind { return NodeKindFunctionParam }

// UnaryExpr is a prefix or postfix operator expression.
type UnaryExpr struct {
	Op      *Operator
	Operand Node
	Postfix bool
}

func (n *UnaryExpr) Kind() NodeKind { return NodeKindUnaryExpr }

// BinaryExpr is a binary operator expression.
type BinaryExpr struct {
	Op    *Operator
	Left  Node
	Right Node
}

func (n *BinaryExpr) Kind() NodeKind { return NodeKindBinaryExpr }

// TrinaryExpr is the conditional operator.
type TrinaryExpr struct {
	Cond Node
	Then Node
	Else Node
}

func (n *TrinaryExpr) Kind() NodeKind { return NodeKindTrinaryExpr }

// CallExpr is a function call expression.
type CallExpr struct {
	Func Node
	Args []Node
}

func (n *CallExpr) Kind() NodeKind { return NodeKindCallExpr }

// CastExpr is a cast. Keyword is empty for C-style casts and holds
// static_cast and friends otherwise.
type CastExpr struct {
	Keyword string
	Type    Node
	Args    []Node
}

func (n *CastExpr) Kind() NodeKind { return NodeKindCastExpr }

// SizeofExpr is sizeof, alignof or sizeof... applied to a type or expression.
type SizeofExpr struct {
	Keyword string
	Operand Node
}

func (n *SizeofExpr) Kind() NodeKind { return NodeKindSizeofExpr }

// MemberExpr is a.b or a->b.
type MemberExpr struct {
	Base   Node
	Member Node
	Arrow  bool
}

func (n *MemberExpr) Kind() NodeKind { return NodeKindMemberExpr }

// Function is a function encoding: a name plus its signature.
type Function struct {
	Name Node
	Sig  *FunctionType
}

func (n *Function) Kind() NodeKind { return NodeKindFunction }

// Special wraps an entity in a descriptive prefix, e.g. "vtable for ".
type Special struct {
	Prefix string
	Target Node
}

func (n *Special) Kind() NodeKind { return NodeKindSpecial }

// CtorVtable is a construction vtable for Base-in-Derived.
type CtorVtable struct {
	Base    Node
	Derived Node
}

func (n *CtorVtable) Kind() NodeKind { return NodeKindCtorVtable }

// GlobalCtorDtor is a _GLOBAL__I_/_GLOBAL__D_ initialization function.
type GlobalCtorDtor struct {
	Destructor bool
	Target     Node
}

func (n *GlobalCtorDtor) Kind() NodeKind { return NodeKindGlobalCtorDtor }

// Suffixed carries trailing bytes that followed a complete encoding.
type Suffixed struct {
	Node   Node
	Suffix string
}

func (n *Suffixed) Kind() NodeKind { return NodeKindSuffixed }

func (n *Name) String() string                { return Render(n) }
func (n *NestedName) String() string          { return Render(n) }
func (n *StdSubstitution) String() string     { return Render(n) }
func (n *LocalName) String() string           { return Render(n) }
func (n *Template) String() string            { return Render(n) }
func (n *Operator) String() string            { return Render(n) }
func (n *LiteralOperator) String() string     { return Render(n) }
func (n *Conversion) String() string          { return Render(n) }
func (n *Constructor) String() string         { return Render(n) }
func (n *Destructor) String() string          { return Render(n) }
func (n *UnnamedType) String() string         { return Render(n) }
func (n *Lambda) String() string              { return Render(n) }
func (n *ABITag) String() string              { return Render(n) }
func (n *StructuredBinding) String() string   { return Render(n) }
func (n *BuiltinType) String() string         { return Render(n) }
func (n *VendorType) String() string          { return Render(n) }
func (n *PointerType) String() string         { return Render(n) }
func (n *QualifiedType) String() string       { return Render(n) }
func (n *VendorQualifiedType) String() string { return Render(n) }
func (n *ArrayType) String() string           { return Render(n) }
func (n *FunctionType) String() string        { return Render(n) }
func (n *MemberPointerType) String() string   { return Render(n) }
func (n *VectorType) String() string          { return Render(n) }
func (n *ComplexType) String() string         { return Render(n) }
func (n *DecltypeType) String() string        { return Render(n) }
func (n *TemplateParam) String() string       { return Render(n) }
func (n *PackExpansion) String() string       { return Render(n) }
func (n *ArgumentPack) String() string        { return Render(n) }
func (n *Literal) String() string             { return Render(n) }
func (n *FunctionParam) String() string       { return Render(n) }
func (n *UnaryExpr) String() string           { return Render(n) }
func (n *BinaryExpr) String() string          { return Render(n) }
func (n *TrinaryExpr) String() string         { return Render(n) }
func (n *CallExpr) String() string            { return Render(n) }
func (n *CastExpr) String() string            { return Render(n) }
func (n *SizeofExpr) String() string          { return Render(n) }
func (n *MemberExpr) String() string          { return Render(n) }
func (n *Function) String() string            { return Render(n) }
func (n *Special) String() string             { return Render(n) }
func (n *CtorVtable) String() string          { return Render(n) }
func (n *GlobalCtorDtor) String() string      { return Render(n) }
func (n *Suffixed) String() string            { return Render(n) }
