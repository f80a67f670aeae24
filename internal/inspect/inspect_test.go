package inspect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QTest-hq/jjsast/pkg/ast"
)

func strp(s string) *string { return &s }

func method(t *testing.T, p *ast.Program, typ *ast.Type, name string, static bool) *ast.Method {
	t.Helper()
	m := p.NewMethod(ast.UnknownOrigin, name, typ, ast.Void, false, static, false, ast.AccessPublic)
	m.SetBody(&ast.MethodBody{})
	require.NoError(t, m.FreezeParamTypes())
	return m
}

func TestSummarize_ExportedMethods(t *testing.T) {
	p := ast.NewProgram()
	base := p.AddType(ast.NewClass("com.example.Base"))
	derived := p.AddType(ast.NewClass("com.example.Derived"))
	derived.Super = base

	run := method(t, p, base, "run", false)
	run.SetJsMemberInfo(nil, strp("go"), true)
	override := method(t, p, derived, "run", false)
	require.NoError(t, override.AddOverriddenMethod(run))
	require.NoError(t, run.AddOverridingMethod(override))

	s := Summarize(run)
	assert.Equal(t, int32(run.ID()), s.ID)
	assert.Equal(t, "com.example.Base", s.Type)
	assert.Equal(t, "run()V", s.Signature)
	assert.Equal(t, "public", s.Access)
	require.NotNil(t, s.JsName)
	assert.Equal(t, "go", *s.JsName)
	assert.Equal(t, "com.example.Base.prototype.go", s.QualifiedJsName)
	assert.True(t, s.Exported)
	assert.False(t, s.EntryPoint, "instance methods need dispatch")
	assert.Equal(t, []string{"com.example.Derived.run()V"}, s.OverriddenBy)
	assert.Nil(t, s.EffectivelyFinal, "unknown in an open world")

	d := Summarize(override)
	assert.Equal(t, "go", *d.JsName)
	assert.Equal(t, []string{"com.example.Base.run()V"}, d.Overrides)
	assert.True(t, d.CallableFromJs)
}

func TestSummarize_BaseDoesNotInheritOverriderName(t *testing.T) {
	p := ast.NewProgram()
	base := p.AddType(ast.NewClass("com.example.Base"))
	derived := p.AddType(ast.NewClass("com.example.Derived"))
	derived.Super = base

	run := method(t, p, base, "run", false)
	override := method(t, p, derived, "run", false)
	override.SetJsMemberInfo(nil, strp("go"), true)
	require.NoError(t, override.AddOverriddenMethod(run))
	require.NoError(t, run.AddOverridingMethod(override))

	s := Summarize(run)
	assert.Nil(t, s.JsName)
	assert.Empty(t, s.QualifiedJsName)
	assert.False(t, s.Exported)

	d := Summarize(override)
	require.NotNil(t, d.JsName)
	assert.Equal(t, "com.example.Derived.prototype.go", d.QualifiedJsName)
}

func TestSummarize_JsConstructor(t *testing.T) {
	p := ast.NewProgram()
	c := p.AddType(ast.NewClass("com.example.C"))
	c.IsJsType = true
	ctor := p.NewConstructor(ast.UnknownOrigin, c, ast.AccessPublic)
	ctor.SetBody(&ast.MethodBody{})
	require.NoError(t, ctor.FreezeParamTypes())
	ctor.SetJsMemberInfo(nil, strp(""), true)

	s := Summarize(ctor)
	assert.True(t, s.EntryPoint)
	assert.Equal(t, "com.example.C", s.QualifiedJsName)
	assert.Empty(t, s.JsNameError)
}

func TestSummarize_QualifiedNameError(t *testing.T) {
	p := ast.NewProgram()
	c := p.AddType(ast.NewClass("com.example.C"))
	m := method(t, p, c, "f", false)
	m.SetJsMemberInfo(strp(ast.GlobalNamespace), strp(""), true)

	s := Summarize(m)
	assert.Empty(t, s.QualifiedJsName)
	assert.Contains(t, s.JsNameError, "cannot be exported")
}

func TestSummarize_NotJsMember(t *testing.T) {
	p := ast.NewProgram()
	c := p.AddType(ast.NewClass("com.example.C"))

	s := Summarize(method(t, p, c, "f", true))
	assert.Nil(t, s.JsName)
	assert.Empty(t, s.JsNameError)
	assert.Empty(t, s.Accessor)
	assert.Equal(t, "normal", s.Inlining)
	assert.True(t, s.SideEffects)
}

func TestSummarize_ClosedWorldAndSpecialization(t *testing.T) {
	p := ast.NewProgram(ast.WithClosedWorld(true))
	c := p.AddType(ast.NewClass("com.example.C"))
	str := p.ExternalType("java.lang.String")

	generic := method(t, p, c, "first", true)
	target := method(t, p, c, "firstString", true)
	generic.SetSpecialization([]*ast.Type{str}, nil, "firstString")
	generic.Specialization().Resolve([]*ast.Type{str}, ast.Void, target)

	s := Summarize(generic)
	require.NotNil(t, s.EffectivelyFinal)
	assert.True(t, *s.EffectivelyFinal)
	require.NotNil(t, s.Specialization)
	assert.Equal(t, "firstString", s.Specialization.Target)
	assert.Equal(t, []string{"java.lang.String"}, s.Specialization.Params)
	assert.Equal(t, "void", s.Specialization.Returns)
	assert.Equal(t, "com.example.C.firstString()V", s.Specialization.ResolvedTo)
}

func TestSummarizeProgramAndCount(t *testing.T) {
	p := ast.NewProgram()
	c := p.AddType(ast.NewClass("com.example.C"))
	c.IsJsType = true

	exported := method(t, p, c, "make", true)
	exported.SetJsMemberInfo(nil, strp("make"), true)
	method(t, p, c, "hidden", false)
	_, err := p.ExternalizedMethod("java.lang.Object", "hashCode()I", false)
	require.NoError(t, err)

	types := SummarizeTypes(p, false)
	require.Len(t, types, 1)
	assert.Equal(t, "com.example.C", types[0].Name)
	assert.Equal(t, "class", types[0].Kind)
	assert.True(t, types[0].JsType)
	assert.Equal(t, 2, types[0].Methods)
	assert.Len(t, SummarizeTypes(p, true), 2)

	methods := SummarizeProgram(p)
	require.Len(t, methods, 3)
	assert.True(t, methods[2].External)

	totals := Count(types, methods)
	assert.Equal(t, Totals{Types: 1, Methods: 3, External: 1, Exported: 1, EntryPoints: 1}, totals)

	assert.Len(t, SummarizeTypeMethods(c), 2)
}

func TestCount_InvalidNames(t *testing.T) {
	invalid := ast.InvalidJsName
	ok := "fine"
	totals := Count(nil, []MethodSummary{
		{JsName: &invalid},
		{JsName: &ok},
		{AccidentalOverride: true, Specialization: &SpecializationSummary{}},
	})
	assert.Equal(t, 1, totals.InvalidJsNames)
	assert.Equal(t, 1, totals.AccidentalOverride)
	assert.Equal(t, 1, totals.Specializations)
}
