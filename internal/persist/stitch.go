package persist

import (
	"github.com/QTest-hq/jjsast/pkg/ast"
)

// Lookup finds the canonical definition of a method by its enclosing type
// name and signature
type Lookup func(enclosing, signature string) (*ast.Method, bool)

// ProgramLookup indexes the in-unit methods of progs. Earlier programs win
// when two define the same method.
func ProgramLookup(progs ...*ast.Program) Lookup {
	index := make(map[string]*ast.Method)
	for _, p := range progs {
		for _, m := range p.Methods() {
			if m.IsExternal() || m.EnclosingType() == nil {
				continue
			}
			key := lookupKey(m.EnclosingType().Name, m.Signature())
			if _, ok := index[key]; !ok {
				index[key] = m
			}
		}
	}
	return func(enclosing, signature string) (*ast.Method, bool) {
		m, ok := index[lookupKey(enclosing, signature)]
		return m, ok
	}
}

func lookupKey(enclosing, signature string) string {
	return enclosing + "::" + signature
}

// ResolveExternal fills in every unresolved external stub of p from its
// definition found through lookup. Types of the definition are re-expressed
// in p. It returns the number of stubs resolved; stubs without a definition
// are left untouched.
func ResolveExternal(p *ast.Program, lookup Lookup) (int, error) {
	resolved := 0
	for _, stub := range p.Methods() {
		if !stub.IsExternal() || stub.TypesFrozen() {
			continue
		}
		def, ok := lookup(stub.EnclosingType().Name, stub.Signature())
		if !ok || !def.Replaces(stub) {
			continue
		}
		err := stub.Resolve(
			importType(p, def.OriginalReturnType()),
			importTypes(p, def.OriginalParamTypes()),
			importType(p, def.ReturnType()),
			importTypes(p, def.ThrownExceptions()),
		)
		if err != nil {
			return resolved, err
		}
		resolved++
	}
	return resolved, nil
}

func importType(p *ast.Program, t *ast.Type) *ast.Type {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case ast.KindPrimitive, ast.KindNull:
		return t
	case ast.KindArray:
		return p.ArrayOf(importType(p, t.Elem))
	}
	return p.ExternalType(t.Name)
}

func importTypes(p *ast.Program, ts []*ast.Type) []*ast.Type {
	out := make([]*ast.Type, len(ts))
	for i, t := range ts {
		out[i] = importType(p, t)
	}
	return out
}
