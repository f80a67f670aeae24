// Package inspect flattens resolver answers about a program into rows that
// the CLI prints and the API serves.
package inspect

import (
	"github.com/QTest-hq/jjsast/pkg/ast"
)

// MethodSummary is one method with every JsInterop and override query answered
type MethodSummary struct {
	ID        int32  `json:"id" yaml:"id"`
	Type      string `json:"type" yaml:"type"`
	Name      string `json:"name" yaml:"name"`
	Signature string `json:"signature" yaml:"signature"`
	Origin    string `json:"origin,omitempty" yaml:"origin,omitempty"`

	Access      string `json:"access" yaml:"access"`
	Static      bool   `json:"static,omitempty" yaml:"static,omitempty"`
	Abstract    bool   `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Constructor bool   `json:"constructor,omitempty" yaml:"constructor,omitempty"`
	External    bool   `json:"external,omitempty" yaml:"external,omitempty"`
	Synthetic   bool   `json:"synthetic,omitempty" yaml:"synthetic,omitempty"`
	Jsni        bool   `json:"jsni,omitempty" yaml:"jsni,omitempty"`

	JsName          *string `json:"js_name,omitempty" yaml:"js_name,omitempty"`
	QualifiedJsName string  `json:"qualified_js_name,omitempty" yaml:"qualified_js_name,omitempty"`
	JsNameError     string  `json:"js_name_error,omitempty" yaml:"js_name_error,omitempty"`
	Accessor        string  `json:"accessor,omitempty" yaml:"accessor,omitempty"`

	Exported              bool `json:"exported,omitempty" yaml:"exported,omitempty"`
	EntryPoint            bool `json:"entry_point,omitempty" yaml:"entry_point,omitempty"`
	CallableFromJs        bool `json:"callable_from_js,omitempty" yaml:"callable_from_js,omitempty"`
	ImplementableInJs     bool `json:"implementable_in_js,omitempty" yaml:"implementable_in_js,omitempty"`
	JsNative              bool `json:"js_native,omitempty" yaml:"js_native,omitempty"`
	JsOverlay             bool `json:"js_overlay,omitempty" yaml:"js_overlay,omitempty"`
	JsFunction            bool `json:"js_function,omitempty" yaml:"js_function,omitempty"`
	ExposesNonJsMethod    bool `json:"exposes_non_js_method,omitempty" yaml:"exposes_non_js_method,omitempty"`
	ExposesPackagePrivate bool `json:"exposes_package_private,omitempty" yaml:"exposes_package_private,omitempty"`
	AccidentalOverride    bool `json:"accidental_override,omitempty" yaml:"accidental_override,omitempty"`

	Overrides    []string `json:"overrides,omitempty" yaml:"overrides,omitempty"`
	OverriddenBy []string `json:"overridden_by,omitempty" yaml:"overridden_by,omitempty"`
	// EffectivelyFinal is only known in closed-world programs
	EffectivelyFinal *bool `json:"effectively_final,omitempty" yaml:"effectively_final,omitempty"`

	Inlining       string                 `json:"inlining" yaml:"inlining"`
	SideEffects    bool                   `json:"side_effects" yaml:"side_effects"`
	Specialization *SpecializationSummary `json:"specialization,omitempty" yaml:"specialization,omitempty"`
}

// SpecializationSummary describes a specialization redirect
type SpecializationSummary struct {
	Target     string   `json:"target" yaml:"target"`
	Params     []string `json:"params,omitempty" yaml:"params,omitempty"`
	Returns    string   `json:"returns,omitempty" yaml:"returns,omitempty"`
	ResolvedTo string   `json:"resolved_to,omitempty" yaml:"resolved_to,omitempty"`
}

// Summarize answers every query about m
func Summarize(m *ast.Method) MethodSummary {
	s := MethodSummary{
		ID:                    int32(m.ID()),
		Name:                  m.Name(),
		Signature:             m.Signature(),
		Access:                m.Access().String(),
		Static:                m.IsStatic(),
		Abstract:              m.IsAbstract(),
		Constructor:           m.IsConstructor(),
		External:              m.IsExternal(),
		Synthetic:             m.IsSynthetic(),
		Jsni:                  m.IsJsniMethod(),
		Exported:              m.IsExported(),
		EntryPoint:            m.IsJsInteropEntryPoint(),
		CallableFromJs:        m.CanBeCalledExternally(),
		ImplementableInJs:     m.CanBeImplementedExternally(),
		JsNative:              m.IsJsNative(),
		JsOverlay:             m.IsJsOverlay(),
		JsFunction:            m.IsOrOverridesJsFunctionMethod(),
		ExposesNonJsMethod:    m.ExposesNonJsMethod(),
		ExposesPackagePrivate: m.ExposesPackagePrivateMethod(),
		AccidentalOverride:    m.IsSyntheticAccidentalOverride(),
		Inlining:              m.InliningMode().String(),
		SideEffects:           m.HasSideEffects(),
	}
	if t := m.EnclosingType(); t != nil {
		s.Type = t.Name
	}
	if o := m.Origin(); o != ast.UnknownOrigin {
		s.Origin = o.String()
	}

	if name, ok := m.JsName(); ok {
		s.JsName = &name
		if q, err := m.QualifiedJsName(); err != nil {
			s.JsNameError = err.Error()
		} else {
			s.QualifiedJsName = q
		}
	}
	if kind := m.JsPropertyAccessorKind(); kind.IsPropertyAccessor() {
		s.Accessor = kind.String()
	}

	s.Overrides = names(m.OverriddenMethods())
	s.OverriddenBy = names(m.KnownOverridingMethods().Methods())
	if all, err := m.OverridingMethods(); err == nil {
		final := all.IsEffectivelyFinal()
		s.EffectivelyFinal = &final
	}

	if spec := m.Specialization(); spec != nil {
		ss := &SpecializationSummary{Target: spec.Target()}
		for _, p := range spec.Params() {
			ss.Params = append(ss.Params, p.String())
		}
		if spec.Returns() != nil {
			ss.Returns = spec.Returns().String()
		}
		if target := spec.TargetMethod(); target != nil {
			ss.ResolvedTo = target.QualifiedName()
		}
		s.Specialization = ss
	}

	return s
}

func names(ms []*ast.Method) []string {
	if len(ms) == 0 {
		return nil
	}
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.QualifiedName()
	}
	return out
}

// SummarizeProgram summarizes every method of p in creation order
func SummarizeProgram(p *ast.Program) []MethodSummary {
	out := make([]MethodSummary, 0, len(p.Methods()))
	for _, m := range p.Methods() {
		out = append(out, Summarize(m))
	}
	return out
}

// SummarizeTypeMethods summarizes the methods declared on t
func SummarizeTypeMethods(t *ast.Type) []MethodSummary {
	out := make([]MethodSummary, 0, len(t.Methods()))
	for _, m := range t.Methods() {
		out = append(out, Summarize(m))
	}
	return out
}
