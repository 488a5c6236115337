package demangle

// binder resolves template parameter references (T_, T0_, ...) against
// the template arguments of their enclosing function encoding, and
// expands pack expansions over bound argument packs.
type binder struct {
	d      *demangler
	scopes [][]Node

	// Every node is visited once. A function's template arguments are
	// reached both directly and through its name.
	visited map[Node]bool
	steps   int
}

// bind runs after a complete encoding has been parsed, so forward
// references from the return type into the name's arguments resolve.
func (d *demangler) bind(n Node) error {
	b := &binder{d: d, visited: make(map[Node]bool)}
	return b.walk(n)
}

func (b *binder) walk(n Node) error {
	if n == nil || b.visited[n] {
		return nil
	}
	b.visited[n] = true
	b.steps++
	if b.steps > b.d.opts.maxNodes {
		return b.d.errorf(ErrResourceLimit, "binding visits more than %d nodes", b.d.opts.maxNodes)
	}

	switch n := n.(type) {
	case *Function:
		t := innermostTemplate(n.Name)
		if t == nil {
			return b.walkChildren(n)
		}
		for _, arg := range t.Args {
			if err := b.walk(arg); err != nil {
				return err
			}
		}
		b.scopes = append(b.scopes, t.Args)
		defer func() { b.scopes = b.scopes[:len(b.scopes)-1] }()
		if err := b.walk(n.Name); err != nil {
			return err
		}
		if n.Sig != nil {
			return b.walk(n.Sig)
		}
		return nil

	case *LocalName:
		if err := b.walk(n.Encoding); err != nil {
			return err
		}
		if fn, ok := n.Encoding.(*Function); ok {
			if t := innermostTemplate(fn.Name); t != nil {
				b.scopes = append(b.scopes, t.Args)
				defer func() { b.scopes = b.scopes[:len(b.scopes)-1] }()
			}
		}
		return b.walk(n.Entity)

	case *TemplateParam:
		return b.bindParam(n)

	case *PackExpansion:
		return b.expand(n)

	default:
		return b.walkChildren(n)
	}
}

func (b *binder) walkChildren(n Node) error {
	for _, c := range children(n) {
		if err := b.walk(c); err != nil {
			return err
		}
	}
	return nil
}

func (b *binder) bindParam(p *TemplateParam) error {
	if p.Lambda || p.Arg != nil {
		return nil
	}
	if len(b.scopes) == 0 {
		return b.d.malformed("template parameter T%d_ outside of a template", p.Index)
	}
	scope := b.scopes[len(b.scopes)-1]
	if p.Index >= len(scope) {
		return b.d.malformed("template parameter %d with only %d arguments", p.Index, len(scope))
	}
	count := 0
	p.Arg = cloneNode(scope[p.Index], &count)
	return b.d.alloc(count)
}

func (b *binder) expand(pe *PackExpansion) error {
	if pe.Bound {
		return nil
	}
	if err := b.walk(pe.Pattern); err != nil {
		return err
	}
	pe.Bound = true

	param := findPackParam(pe.Pattern)
	if param == nil {
		return nil
	}
	pack := param.Arg.(*ArgumentPack)
	pe.Expanded = make([]Node, 0, len(pack.Args))
	for _, elem := range pack.Args {
		count := 0
		c := cloneNode(pe.Pattern, &count)
		substitutePack(c, param.Index, elem, &count)
		if err := b.d.alloc(count); err != nil {
			return err
		}
		pe.Expanded = append(pe.Expanded, c)
	}
	return nil
}

// innermostTemplate returns the template whose arguments are in scope for
// a function's signature.
func innermostTemplate(n Node) *Template {
	switch n := n.(type) {
	case *Template:
		return n
	case *NestedName:
		return innermostTemplate(n.Name)
	case *LocalName:
		return innermostTemplate(n.Entity)
	case *ABITag:
		return innermostTemplate(n.Base)
	default:
		return nil
	}
}

// findPackParam finds the first parameter bound to an argument pack,
// not looking into nested expansions.
func findPackParam(n Node) *TemplateParam {
	switch n := n.(type) {
	case *TemplateParam:
		if _, ok := n.Arg.(*ArgumentPack); ok && !n.Lambda {
			return n
		}
		return nil
	case *PackExpansion:
		return nil
	}
	for _, c := range children(n) {
		if p := findPackParam(c); p != nil {
			return p
		}
	}
	return nil
}

// substitutePack rebinds every reference to pack index idx in n to elem.
func substitutePack(n Node, idx int, elem Node, count *int) {
	switch n := n.(type) {
	case *TemplateParam:
		if _, ok := n.Arg.(*ArgumentPack); ok && !n.Lambda && n.Index == idx {
			n.Arg = cloneNode(elem, count)
		}
		return
	case *PackExpansion:
		return
	}
	for _, c := range children(n) {
		substitutePack(c, idx, elem, count)
	}
}
