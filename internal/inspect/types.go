package inspect

import (
	"github.com/QTest-hq/jjsast/pkg/ast"
)

// TypeSummary describes a declared or external type
type TypeSummary struct {
	Name            string   `json:"name" yaml:"name"`
	Kind            string   `json:"kind" yaml:"kind"`
	Super           string   `json:"super,omitempty" yaml:"super,omitempty"`
	Interfaces      []string `json:"interfaces,omitempty" yaml:"interfaces,omitempty"`
	External        bool     `json:"external,omitempty" yaml:"external,omitempty"`
	JsType          bool     `json:"js_type,omitempty" yaml:"js_type,omitempty"`
	JsFunction      bool     `json:"js_function,omitempty" yaml:"js_function,omitempty"`
	JsNative        bool     `json:"js_native,omitempty" yaml:"js_native,omitempty"`
	Jso             bool     `json:"jso,omitempty" yaml:"jso,omitempty"`
	QualifiedJsName string   `json:"qualified_js_name" yaml:"qualified_js_name"`
	Methods         int      `json:"methods" yaml:"methods"`
}

// SummarizeType describes t
func SummarizeType(t *ast.Type) TypeSummary {
	s := TypeSummary{
		Name:            t.Name,
		Kind:            t.Kind.String(),
		External:        t.External,
		JsType:          t.IsJsType,
		JsFunction:      t.IsJsFunction,
		JsNative:        t.IsJsNative,
		Jso:             t.IsJso,
		QualifiedJsName: t.QualifiedJsName(),
		Methods:         len(t.Methods()),
	}
	if t.Super != nil {
		s.Super = t.Super.Name
	}
	for _, i := range t.Interfaces {
		s.Interfaces = append(s.Interfaces, i.Name)
	}
	return s
}

// SummarizeTypes describes every type of p in registration order. External
// types are left out unless withExternal is set.
func SummarizeTypes(p *ast.Program, withExternal bool) []TypeSummary {
	out := make([]TypeSummary, 0, len(p.Types()))
	for _, t := range p.Types() {
		if t.External && !withExternal {
			continue
		}
		out = append(out, SummarizeType(t))
	}
	return out
}

// Totals counts notable methods across a program
type Totals struct {
	Types              int `json:"types" yaml:"types"`
	Methods            int `json:"methods" yaml:"methods"`
	External           int `json:"external" yaml:"external"`
	Exported           int `json:"exported" yaml:"exported"`
	EntryPoints        int `json:"entry_points" yaml:"entry_points"`
	InvalidJsNames     int `json:"invalid_js_names" yaml:"invalid_js_names"`
	AccidentalOverride int `json:"accidental_overrides" yaml:"accidental_overrides"`
	Specializations    int `json:"specializations" yaml:"specializations"`
}

// Count tallies summaries produced by SummarizeProgram
func Count(types []TypeSummary, methods []MethodSummary) Totals {
	t := Totals{Types: len(types), Methods: len(methods)}
	for _, m := range methods {
		if m.External {
			t.External++
		}
		if m.Exported {
			t.Exported++
		}
		if m.EntryPoint {
			t.EntryPoints++
		}
		if m.JsName != nil && *m.JsName == ast.InvalidJsName {
			t.InvalidJsNames++
		}
		if m.AccidentalOverride {
			t.AccidentalOverride++
		}
		if m.Specialization != nil {
			t.Specializations++
		}
	}
	return t
}
