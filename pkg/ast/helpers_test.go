package ast

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func declareClass(p *Program, name string) *Type {
	return p.AddType(NewClass(name))
}

func declareInterface(p *Program, name string) *Type {
	return p.AddType(NewInterface(name))
}

// newMethod creates a frozen void instance method with a body
func newMethod(t *testing.T, p *Program, enclosing *Type, name string, access Access, params ...*Type) *Method {
	t.Helper()
	m := p.NewMethod(UnknownOrigin, name, enclosing, Void, false, false, false, access)
	for i, pt := range params {
		m.AddParam(NewParameter(UnknownOrigin, string(rune('a'+i)), pt))
	}
	if !enclosing.IsInterface() {
		m.SetBody(&MethodBody{})
	} else {
		m.SetAbstract(true)
	}
	require.NoError(t, m.FreezeParamTypes())
	return m
}

// linkChain wires ms as a single override chain, ms[0] being the root
func linkChain(t *testing.T, ms ...*Method) {
	t.Helper()
	for i := 1; i < len(ms); i++ {
		for j := i - 1; j >= 0; j-- {
			require.NoError(t, ms[i].AddOverriddenMethod(ms[j]))
			require.NoError(t, ms[j].AddOverridingMethod(ms[i]))
		}
	}
}
