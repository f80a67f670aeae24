// Package link connects the methods of a built program: it computes the
// transitive override closure and resolves specialization targets.
package link

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/QTest-hq/jjsast/pkg/ast"
)

// ErrUnresolvedSpecialization is returned when a specialization names a
// target that does not exist in the enclosing type hierarchy
var ErrUnresolvedSpecialization = errors.New("specialization target not found")

// Stats summarizes one linking pass
type Stats struct {
	Types               int `json:"types" yaml:"types"`
	Methods             int `json:"methods" yaml:"methods"`
	OverrideEdges       int `json:"override_edges" yaml:"override_edges"`
	AccidentalOverrides int `json:"accidental_overrides" yaml:"accidental_overrides"`
}

// Link freezes the original types of every method except unresolved external
// stubs and records, for each polymorphic method, every method it overrides
// and the reverse edges. Types are processed supertypes first so overriding
// lists run from the least to the most specific override.
func Link(p *ast.Program) (*Stats, error) {
	stats := &Stats{}

	for _, m := range p.Methods() {
		if !m.TypesFrozen() && !m.IsExternal() {
			if err := m.FreezeParamTypes(); err != nil {
				return nil, err
			}
		}
	}

	types := byDepth(p.Types())
	for _, t := range types {
		if t.External || t.Kind == ast.KindArray {
			continue
		}
		stats.Types++
		if t.Kind == ast.KindClass {
			n, err := addAccidentalOverrides(p, t)
			if err != nil {
				return nil, err
			}
			stats.AccidentalOverrides += n
		}
		for _, m := range t.Methods() {
			stats.Methods++
			n, err := linkMethod(t, m)
			if err != nil {
				return nil, err
			}
			stats.OverrideEdges += n
		}
	}

	log.Debug().
		Int("types", stats.Types).
		Int("methods", stats.Methods).
		Int("edges", stats.OverrideEdges).
		Int("accidental", stats.AccidentalOverrides).
		Msg("linked overrides")

	return stats, nil
}

func linkMethod(t *ast.Type, m *ast.Method) (int, error) {
	if m.IsConstructor() || !m.CanBePolymorphic() {
		return 0, nil
	}
	edges := 0
	for _, super := range supertypes(t) {
		for _, o := range super.Methods() {
			if !overrides(m, o) || m.Overrides(o) {
				continue
			}
			if err := m.AddOverriddenMethod(o); err != nil {
				return edges, fmt.Errorf("link %s: %w", m, err)
			}
			if err := o.AddOverridingMethod(m); err != nil {
				return edges, fmt.Errorf("link %s: %w", o, err)
			}
			edges++
		}
	}
	return edges, nil
}

// overrides reports whether m, declared in a subtype, overrides o
func overrides(m, o *ast.Method) bool {
	if o.IsConstructor() || !o.CanBePolymorphic() || o.Name() != m.Name() {
		return false
	}
	if paramSignature(o) != ast.ParamSignature(m.OriginalParamTypes()) {
		return false
	}
	if o.IsPackagePrivate() && o.EnclosingType().Package() != m.EnclosingType().Package() {
		return false
	}
	return true
}

// paramSignature is the parameter part of o's signature. Unresolved external
// stubs only carry the signature text.
func paramSignature(o *ast.Method) string {
	if o.IsExternal() && !o.TypesFrozen() {
		sig := o.Signature()
		open, end := strings.IndexByte(sig, '('), strings.IndexByte(sig, ')')
		if open < 0 || end < open {
			return ""
		}
		return sig[open : end+1]
	}
	return ast.ParamSignature(o.OriginalParamTypes())
}

// supertypes lists every proper supertype of t: the whole superclass chain
// first, then the interfaces of t and its superclasses breadth first
func supertypes(t *ast.Type) []*ast.Type {
	var out []*ast.Type
	seen := map[*ast.Type]bool{t: true}
	queue := []*ast.Type{t}
	for s := t.Super; s != nil && !seen[s]; s = s.Super {
		seen[s] = true
		out = append(out, s)
		queue = append(queue, s)
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, s := range cur.Interfaces {
			if s == nil || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
			queue = append(queue, s)
		}
	}
	return out
}

func depth(t *ast.Type, memo map[*ast.Type]int, visiting map[*ast.Type]bool) int {
	if d, ok := memo[t]; ok {
		return d
	}
	if visiting[t] {
		return 0
	}
	visiting[t] = true
	d := 0
	parents := append([]*ast.Type{t.Super}, t.Interfaces...)
	for _, s := range parents {
		if s != nil {
			if sd := depth(s, memo, visiting) + 1; sd > d {
				d = sd
			}
		}
	}
	memo[t] = d
	return d
}

func byDepth(types []*ast.Type) []*ast.Type {
	memo := make(map[*ast.Type]int)
	visiting := make(map[*ast.Type]bool)
	out := append([]*ast.Type(nil), types...)
	sort.SliceStable(out, func(i, j int) bool {
		return depth(out[i], memo, visiting) < depth(out[j], memo, visiting)
	})
	return out
}

// addAccidentalOverrides synthesizes a forwarding method in class c for each
// interface method of c that is implemented only by an inherited superclass
// method which does not itself implement the interface.
func addAccidentalOverrides(p *ast.Program, c *ast.Type) (int, error) {
	if c.Super == nil {
		return 0, nil
	}
	declared := make(map[string]bool)
	for _, m := range c.Methods() {
		declared[m.Name()+ast.ParamSignature(m.OriginalParamTypes())] = true
	}

	added := 0
	for _, iface := range interfacesOf(c) {
		for _, im := range iface.Methods() {
			if im.IsStatic() || im.IsPrivate() {
				continue
			}
			key := im.Name() + ast.ParamSignature(im.OriginalParamTypes())
			if declared[key] {
				continue
			}
			inherited := findInherited(c.Super, im)
			if inherited == nil || inherited.Overrides(im) || inherited.IsAbstract() {
				continue
			}
			if inherited.IsExternal() && !inherited.TypesFrozen() {
				continue
			}

			fwd, err := forwarder(p, c, inherited)
			if err != nil {
				return added, err
			}
			declared[key] = true
			added++
			log.Debug().Str("type", c.Name).Str("method", fwd.Signature()).Msg("synthesized accidental override")
		}
	}
	return added, nil
}

// interfacesOf lists the interfaces c declares directly and their superinterfaces
func interfacesOf(c *ast.Type) []*ast.Type {
	var out []*ast.Type
	seen := make(map[*ast.Type]bool)
	var walk func(ts []*ast.Type)
	walk = func(ts []*ast.Type) {
		for _, t := range ts {
			if t == nil || seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
			walk(t.Interfaces)
		}
	}
	walk(c.Interfaces)
	return out
}

func findInherited(start *ast.Type, im *ast.Method) *ast.Method {
	for t := start; t != nil; t = t.Super {
		for _, m := range t.Methods() {
			if !m.IsConstructor() && m.IsPublic() && !m.IsStatic() && m.Name() == im.Name() &&
				paramSignature(m) == ast.ParamSignature(im.OriginalParamTypes()) {
				return m
			}
		}
	}
	return nil
}

func forwarder(p *ast.Program, c *ast.Type, target *ast.Method) (*ast.Method, error) {
	fwd := p.NewMethod(ast.UnknownOrigin, target.Name(), c, target.OriginalReturnType(),
		false, false, false, ast.AccessPublic)
	args := make([]string, 0, len(target.Params()))
	for _, param := range target.Params() {
		fwd.AddParam(ast.NewParameter(ast.UnknownOrigin, param.Name, param.Type))
		args = append(args, param.Name)
	}
	fwd.AddThrownExceptions(target.ThrownExceptions())
	fwd.SetSynthetic()
	fwd.SetForwarding()
	fwd.SetSyntheticAccidentalOverride()

	call := fmt.Sprintf("super.%s(%s);", target.Name(), strings.Join(args, ", "))
	if target.OriginalReturnType() != ast.Void {
		call = "return " + call
	}
	fwd.SetBody(&ast.MethodBody{Source: "{ " + call + " }"})

	if err := fwd.SetOriginalTypes(target.OriginalReturnType(), target.OriginalParamTypes()); err != nil {
		return nil, err
	}
	return fwd, nil
}

// ResolveSpecializations binds every declared specialization to its target,
// searching the enclosing type and then its supertypes. A target is matched
// by name and, when the specialization lists parameter types, by those types.
func ResolveSpecializations(p *ast.Program) (int, error) {
	resolved := 0
	for _, m := range p.Methods() {
		spec := m.Specialization()
		if spec == nil || spec.IsResolved() {
			continue
		}
		target := findTarget(m.EnclosingType(), spec)
		if target == nil {
			return resolved, fmt.Errorf("%s: %q: %w", m, spec.Target(), ErrUnresolvedSpecialization)
		}
		spec.Resolve(spec.Params(), spec.Returns(), target)
		resolved++
	}
	log.Debug().Int("resolved", resolved).Msg("resolved specializations")
	return resolved, nil
}

func findTarget(t *ast.Type, spec *ast.Specialization) *ast.Method {
	want := ast.ParamSignature(spec.Params())
	for _, candidate := range append([]*ast.Type{t}, supertypes(t)...) {
		for _, m := range candidate.Methods() {
			if m.Name() != spec.Target() {
				continue
			}
			if len(spec.Params()) == 0 || ast.ParamSignature(m.OriginalParamTypes()) == want {
				return m
			}
		}
	}
	return nil
}
