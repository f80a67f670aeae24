package ast

import (
	"fmt"
	"strings"
)

// GlobalNamespace is the JS namespace of members exported to the global scope
const GlobalNamespace = "<global>"

// TypeKind classifies a Type
type TypeKind uint8

const (
	KindPrimitive TypeKind = iota
	KindClass
	KindInterface
	KindArray
	KindNull
)

func (k TypeKind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindClass:
		return "class"
	case KindInterface:
		return "interface"
	case KindArray:
		return "array"
	case KindNull:
		return "null"
	}
	return fmt.Sprintf("TypeKind(%d)", k)
}

// ParseTypeKind is the inverse of TypeKind.String
func ParseTypeKind(s string) (TypeKind, error) {
	switch s {
	case "primitive":
		return KindPrimitive, nil
	case "class":
		return KindClass, nil
	case "interface":
		return KindInterface, nil
	case "array":
		return KindArray, nil
	case "null":
		return KindNull, nil
	}
	return KindClass, fmt.Errorf("unknown type kind %q", s)
}

// Type is the boundary this layer needs from the type model: identity, hierarchy
// links and the JsInterop facts method queries consult. Declared types own the
// list of their methods.
type Type struct {
	// Name is the fully qualified source name ("com.example.Base", "int", "int[]")
	Name string
	Kind TypeKind

	// Elem is the component type of an array
	Elem *Type

	Super      *Type
	Interfaces []*Type

	// JsNamespace defaults to the package when empty; GlobalNamespace means none
	JsNamespace string
	// JsName defaults to the simple name when empty
	JsName string

	IsJsType     bool
	IsJsFunction bool
	IsJsNative   bool
	IsJso        bool

	// External types are defined outside the current compilation unit
	External bool

	jsni    string
	methods []*Method
}

var (
	Boolean = newPrimitive("boolean", "Z")
	Byte    = newPrimitive("byte", "B")
	Char    = newPrimitive("char", "C")
	Double  = newPrimitive("double", "D")
	Float   = newPrimitive("float", "F")
	Int     = newPrimitive("int", "I")
	Long    = newPrimitive("long", "J")
	Short   = newPrimitive("short", "S")
	Void    = newPrimitive("void", "V")

	// NullType is the type of the null literal
	NullType = &Type{Name: "null", Kind: KindNull, jsni: "N"}
)

var primitives = map[string]*Type{}

func newPrimitive(name, jsni string) *Type {
	t := &Type{Name: name, Kind: KindPrimitive, jsni: jsni}
	primitives[name] = t
	return t
}

// PrimitiveByName returns the shared primitive type for a keyword
func PrimitiveByName(name string) (*Type, bool) {
	t, ok := primitives[name]
	return t, ok
}

// NewClass creates a class type
func NewClass(name string) *Type {
	return &Type{Name: name, Kind: KindClass}
}

// NewInterface creates an interface type
func NewInterface(name string) *Type {
	return &Type{Name: name, Kind: KindInterface}
}

// NewArray creates an array type of elem
func NewArray(elem *Type) *Type {
	return &Type{Name: elem.Name + "[]", Kind: KindArray, Elem: elem}
}

func (t *Type) String() string {
	if t == nil {
		return "<nil type>"
	}
	return t.Name
}

// IsInterface reports whether t is an interface
func (t *Type) IsInterface() bool {
	return t != nil && t.Kind == KindInterface
}

// IsDeclared reports whether t is a class or interface
func (t *Type) IsDeclared() bool {
	return t != nil && (t.Kind == KindClass || t.Kind == KindInterface)
}

// Package returns the package part of a declared type's name
func (t *Type) Package() string {
	if i := strings.LastIndexByte(t.Name, '.'); i >= 0 {
		return t.Name[:i]
	}
	return ""
}

// SimpleName returns the name without its package
func (t *Type) SimpleName() string {
	return t.Name[strings.LastIndexByte(t.Name, '.')+1:]
}

// Methods returns the methods declared on t, in declaration order
func (t *Type) Methods() []*Method {
	return t.methods
}

// JsniSignatureName returns the JVM-style descriptor used in signatures
func (t *Type) JsniSignatureName() string {
	switch t.Kind {
	case KindPrimitive, KindNull:
		return t.jsni
	case KindArray:
		return "[" + t.Elem.JsniSignatureName()
	}
	return "L" + strings.ReplaceAll(t.Name, ".", "/") + ";"
}

// QualifiedJsName is the dotted JS path under which t is exposed
func (t *Type) QualifiedJsName() string {
	name := t.JsName
	if name == "" {
		name = t.SimpleName()
	}
	ns := t.JsNamespace
	switch ns {
	case "":
		ns = t.Package()
	case GlobalNamespace:
		ns = ""
	}
	if ns == "" {
		return name
	}
	return ns + "." + name
}

// Replaces reports whether t can stand in for other when stitching a prior
// program: they are identical, or other is an external reference to t.
func (t *Type) Replaces(other *Type) bool {
	if t == other {
		return true
	}
	if t == nil || other == nil {
		return false
	}
	if t.Kind == KindArray && other.Kind == KindArray {
		return t.Elem.Replaces(other.Elem)
	}
	return other.External && other.Name == t.Name
}

// ReplacesAll applies Replaces pairwise. A nil original list has not been
// resolved yet and accepts anything.
func ReplacesAll(types, originals []*Type) bool {
	if originals == nil {
		return true
	}
	if len(types) != len(originals) {
		return false
	}
	for i := range types {
		if !types[i].Replaces(originals[i]) {
			return false
		}
	}
	return true
}
