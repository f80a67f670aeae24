// Package ast holds the method layer of the Java-to-JavaScript compiler IR: method
// nodes, their override relationships, JsInterop naming, specialization
// redirects and the external-reference scheme used when persisting programs.
//
// Mutation is single-threaded. A Program is built and linked by one pipeline
// before any resolver query runs.
package ast

import (
	"fmt"

	"github.com/QTest-hq/jjsast/pkg/intern"
)

// MethodID identifies a method within its Program. The zero value is no method.
type MethodID int32

// Origin is the opaque source position attached to a node
type Origin struct {
	File      string `json:"file,omitempty" yaml:"file,omitempty"`
	StartLine int    `json:"start_line,omitempty" yaml:"start_line,omitempty"`
	EndLine   int    `json:"end_line,omitempty" yaml:"end_line,omitempty"`
}

// UnknownOrigin is attached to synthesized nodes
var UnknownOrigin = Origin{}

func (o Origin) String() string {
	if o.File == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d", o.File, o.StartLine)
}

// Program is the arena that owns every type and method of one compilation.
// Override sets refer to methods by MethodID, resolved through the arena.
type Program struct {
	interner    *intern.Interner
	closedWorld bool

	methods []*Method
	types   map[string]*Type
	order   []*Type
	arrays  map[*Type]*Type
}

// Option configures a Program
type Option func(*Program)

// WithInterner shares an interning service across programs of the same run
func WithInterner(in *intern.Interner) Option {
	return func(p *Program) {
		p.interner = in
	}
}

// WithClosedWorld marks the program as a whole-program compilation, in which
// overriding sets are complete
func WithClosedWorld(closed bool) Option {
	return func(p *Program) {
		p.closedWorld = closed
	}
}

// NewProgram creates an empty program
func NewProgram(opts ...Option) *Program {
	p := &Program{
		types:  make(map[string]*Type),
		arrays: make(map[*Type]*Type),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.interner == nil {
		p.interner = intern.New()
	}
	return p
}

// Interner returns the program's interning service
func (p *Program) Interner() *intern.Interner {
	return p.interner
}

// ClosedWorld reports whether the program is a whole-program compilation
func (p *Program) ClosedWorld() bool {
	return p.closedWorld
}

// AddType registers a declared type. Registering a name twice returns the
// existing type.
func (p *Program) AddType(t *Type) *Type {
	if existing, ok := p.types[t.Name]; ok {
		return existing
	}
	t.Name = p.interner.Intern(t.Name)
	p.types[t.Name] = t
	p.order = append(p.order, t)
	return t
}

// Type looks up a declared type by name
func (p *Program) Type(name string) (*Type, bool) {
	t, ok := p.types[name]
	return t, ok
}

// Types returns the declared types in registration order
func (p *Program) Types() []*Type {
	return p.order
}

// ExternalType returns the registered type called name, registering an
// external class reference if none exists
func (p *Program) ExternalType(name string) *Type {
	if t, ok := p.types[name]; ok {
		return t
	}
	t := NewClass(name)
	t.External = true
	return p.AddType(t)
}

// ArrayOf returns the canonical array type of elem within this program
func (p *Program) ArrayOf(elem *Type) *Type {
	if t, ok := p.arrays[elem]; ok {
		return t
	}
	t := NewArray(elem)
	t.Name = p.interner.Intern(t.Name)
	p.arrays[elem] = t
	return t
}

// Method resolves an ID. It returns nil for the zero ID or an unknown ID.
func (p *Program) Method(id MethodID) *Method {
	if id <= 0 || int(id) > len(p.methods) {
		return nil
	}
	return p.methods[id-1]
}

// Methods returns every method in creation order
func (p *Program) Methods() []*Method {
	return p.methods
}

// NewMethod creates a method and appends it to its enclosing type
func (p *Program) NewMethod(origin Origin, name string, enclosing, returnType *Type,
	isAbstract, isStatic, isFinal bool, access Access) *Method {
	m := &Method{
		origin:         origin,
		name:           p.interner.Intern(name),
		enclosing:      enclosing,
		returnType:     returnType,
		isAbstract:     isAbstract,
		isStatic:       isStatic,
		isFinal:        isFinal,
		access:         access,
		hasSideEffects: true,
	}
	p.register(m)
	return m
}

// NewConstructor creates a constructor of enclosing. Constructors are named
// after the simple type name and return void.
func (p *Program) NewConstructor(origin Origin, enclosing *Type, access Access) *Method {
	m := p.NewMethod(origin, enclosing.SimpleName(), enclosing, Void, false, false, false, access)
	m.isConstructor = true
	return m
}

func (p *Program) register(m *Method) {
	p.methods = append(p.methods, m)
	m.id = MethodID(len(p.methods))
	m.program = p
	if m.enclosing != nil {
		m.enclosing.methods = append(m.enclosing.methods, m)
	}
}
