package javasrc

import "strings"

// TypeKind distinguishes the declarations the front end understands
type TypeKind string

const (
	KindClass     TypeKind = "class"
	KindInterface TypeKind = "interface"
)

// CompilationUnit is one parsed .java file
type CompilationUnit struct {
	Path    string
	Package string
	Imports []string
	Types   []TypeDecl
}

// TypeDecl is a class or interface declaration. Nested types are flattened
// into the unit with binary names (Outer$Inner).
type TypeDecl struct {
	Name           string // binary simple name, e.g. Outer$Inner
	Kind           TypeKind
	StartLine      int
	EndLine        int
	Modifiers      []string
	Annotations    []Annotation
	TypeParameters []string
	Superclass     string
	Interfaces     []string
	Methods        []MethodDecl
}

// MethodDecl is a method or constructor declaration
type MethodDecl struct {
	Name           string
	IsConstructor  bool
	StartLine      int
	EndLine        int
	Modifiers      []string
	Annotations    []Annotation
	TypeParameters []string
	ReturnType     string
	Params         []ParamDecl
	Throws         []string
	Body           string // block source, empty when HasBody is false
	HasBody        bool
	Jsni           string // contents of a /*-{ ... }-*/ block on a native method
}

// ParamDecl is a formal parameter
type ParamDecl struct {
	Name    string
	Type    string
	Final   bool
	Varargs bool
}

// Annotation holds the raw source text of each element value. A single
// unnamed element is stored under "value".
type Annotation struct {
	Name   string
	Values map[string]string
}

// HasModifier reports whether mods contains m
func HasModifier(mods []string, m string) bool {
	for _, x := range mods {
		if x == m {
			return true
		}
	}
	return false
}

// FindAnnotation returns the annotation with the given simple or qualified name
func FindAnnotation(anns []Annotation, name string) (Annotation, bool) {
	for _, a := range anns {
		if a.Name == name || strings.HasSuffix(a.Name, "."+name) {
			return a, true
		}
	}
	return Annotation{}, false
}

// String returns an element value with string-literal quotes removed
func (a Annotation) String(key string) (string, bool) {
	v, ok := a.Values[key]
	if !ok {
		return "", false
	}
	return unquote(v), true
}

// Bool returns a boolean element value, false when absent
func (a Annotation) Bool(key string) bool {
	return strings.TrimSpace(a.Values[key]) == "true"
}

// List splits an array initializer ({a, b}) or single value into elements
func (a Annotation) List(key string) []string {
	v, ok := a.Values[key]
	if !ok {
		return nil
	}
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "{") && strings.HasSuffix(v, "}") {
		v = strings.TrimSpace(v[1 : len(v)-1])
	}
	if v == "" {
		return []string{}
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, unquote(p))
		}
	}
	return out
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
