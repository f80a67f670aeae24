package ast

// Node is anything a Visitor can traverse
type Node interface {
	Traverse(v Visitor)
}

// Visitor receives a pre-visit, whose result decides whether children are
// visited, and a post-visit for every node
type Visitor interface {
	Visit(n Node) bool
	EndVisit(n Node)
}

// Replacer is a Visitor that may substitute a child after visiting it.
// Returning n unchanged keeps the child.
type Replacer interface {
	Visitor
	Replace(n Node) Node
}

func accept(v Visitor, n Node) Node {
	n.Traverse(v)
	if r, ok := v.(Replacer); ok {
		return r.Replace(n)
	}
	return n
}

// Traverse visits m, then its parameters and body
func (m *Method) Traverse(v Visitor) {
	if v.Visit(m) {
		m.visitChildren(v)
	}
	v.EndVisit(m)
}

func (m *Method) visitChildren(v Visitor) {
	m.params = acceptParams(v, m.params)
	if m.body != nil {
		if b, ok := accept(v, m.body).(Body); ok && b != m.body {
			m.SetBody(b)
		}
	}
}

// acceptParams copies the list on the first replacement so slices previously
// handed out by Params are never mutated
func acceptParams(v Visitor, params []*Parameter) []*Parameter {
	out := params
	for i, p := range params {
		r, ok := accept(v, p).(*Parameter)
		if !ok || r == p {
			continue
		}
		if &out[0] == &params[0] {
			out = append([]*Parameter(nil), params...)
		}
		out[i] = r
	}
	return out
}

// Parameter is a formal parameter of a method
type Parameter struct {
	Origin    Origin
	Name      string
	Type      *Type
	IsFinal   bool
	IsVarargs bool
}

// NewParameter creates a parameter
func NewParameter(origin Origin, name string, t *Type) *Parameter {
	return &Parameter{Origin: origin, Name: name, Type: t}
}

func (p *Parameter) Traverse(v Visitor) {
	v.Visit(p)
	v.EndVisit(p)
}

// Body is the implementation owned by a method
type Body interface {
	Node
	Method() *Method
	SetMethod(m *Method)
}

// MethodBody is a Java implementation. Statements are outside this layer, so
// the body keeps its source text.
type MethodBody struct {
	Origin Origin
	Source string

	method *Method
}

func (b *MethodBody) Method() *Method     { return b.method }
func (b *MethodBody) SetMethod(m *Method) { b.method = m }

func (b *MethodBody) Traverse(v Visitor) {
	v.Visit(b)
	v.EndVisit(b)
}

// JsniMethodBody is a native method implemented in handwritten JavaScript
type JsniMethodBody struct {
	Origin Origin
	Params []string
	Code   string

	method *Method
}

func (b *JsniMethodBody) Method() *Method     { return b.method }
func (b *JsniMethodBody) SetMethod(m *Method) { b.method = m }

func (b *JsniMethodBody) Traverse(v Visitor) {
	v.Visit(b)
	v.EndVisit(b)
}
