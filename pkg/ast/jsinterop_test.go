package ast

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJsName_BaseExportDerivedInherits(t *testing.T) {
	p := NewProgram()
	base := declareClass(p, "com.example.Base")
	derived := declareClass(p, "com.example.Derived")
	derived.Super = base

	baseGet := newMethod(t, p, base, "getValue", AccessPublic)
	baseGet.SetJsMemberInfo(nil, strp("val"), true)
	derivedGet := newMethod(t, p, derived, "getValue", AccessPublic)
	linkChain(t, baseGet, derivedGet)

	assert.True(t, derivedGet.IsOrOverridesJsMethod())
	name, ok := derivedGet.JsName()
	require.True(t, ok)
	assert.Equal(t, "val", name)

	qualified, err := derivedGet.QualifiedJsName()
	require.NoError(t, err)
	assert.Equal(t, "com.example.Derived.prototype.val", qualified)
}

func TestJsName_ConflictingExportsAreInvalidOnBothSides(t *testing.T) {
	p := NewProgram()
	base := declareClass(p, "com.example.Base")
	derived := declareClass(p, "com.example.Derived")

	baseGet := newMethod(t, p, base, "getValue", AccessPublic)
	baseGet.SetJsMemberInfo(nil, strp("val"), true)
	derivedGet := newMethod(t, p, derived, "getValue", AccessPublic)
	derivedGet.SetJsMemberInfo(nil, strp("otherVal"), true)
	linkChain(t, baseGet, derivedGet)

	for _, m := range []*Method{baseGet, derivedGet} {
		name, ok := m.JsName()
		assert.True(t, ok)
		assert.Equal(t, InvalidJsName, name, m.String())
	}
}

func TestJsName_UnnamedBaseIgnoresOverriders(t *testing.T) {
	p := NewProgram()
	base := declareClass(p, "com.example.Base")
	left := declareClass(p, "com.example.Left")
	right := declareClass(p, "com.example.Right")

	baseF := newMethod(t, p, base, "f", AccessPublic)
	leftF := newMethod(t, p, left, "f", AccessPublic)
	leftF.SetJsMemberInfo(nil, strp("a"), true)
	rightF := newMethod(t, p, right, "f", AccessPublic)
	rightF.SetJsMemberInfo(nil, strp("b"), true)
	linkChain(t, baseF, leftF)
	linkChain(t, baseF, rightF)

	_, ok := baseF.JsName()
	assert.False(t, ok)
	assert.False(t, baseF.IsOrOverridesJsMethod())
	_, err := baseF.QualifiedJsName()
	assert.ErrorIs(t, err, ErrNotJsMember)

	name, ok := leftF.JsName()
	require.True(t, ok)
	assert.Equal(t, "a", name)
	name, ok = rightF.JsName()
	require.True(t, ok)
	assert.Equal(t, "b", name)
}

func TestJsName_NamedBaseAgreesWithOverriders(t *testing.T) {
	p := NewProgram()
	base := declareClass(p, "com.example.Base")
	derived := declareClass(p, "com.example.Derived")

	baseF := newMethod(t, p, base, "f", AccessPublic)
	baseF.SetJsMemberInfo(nil, strp("f"), true)
	plain := newMethod(t, p, derived, "f", AccessPublic)
	linkChain(t, baseF, plain)

	name, ok := baseF.JsName()
	require.True(t, ok)
	assert.Equal(t, "f", name)
}

func TestJsName_NotExported(t *testing.T) {
	p := NewProgram()
	m := newMethod(t, p, declareClass(p, "A"), "f", AccessPublic)

	_, ok := m.JsName()
	assert.False(t, ok)
	assert.False(t, m.IsOrOverridesJsMethod())

	_, err := m.QualifiedJsName()
	assert.ErrorIs(t, err, ErrNotJsMember)
}

func permutations(xs []int) [][]int {
	if len(xs) <= 1 {
		return [][]int{append([]int(nil), xs...)}
	}
	var out [][]int
	for i := range xs {
		rest := append(append([]int(nil), xs[:i]...), xs[i+1:]...)
		for _, perm := range permutations(rest) {
			out = append(out, append([]int{xs[i]}, perm...))
		}
	}
	return out
}

func TestJsName_OutcomeIndependentOfOrder(t *testing.T) {
	cases := []struct {
		self      *string
		overrides []*string
		want      string
		wantOK    bool
	}{
		{nil, []*string{nil, nil, nil}, "", false},
		{nil, []*string{strp("a"), nil, nil}, "a", true},
		{strp("a"), []*string{strp("a"), nil, strp("a")}, "a", true},
		{nil, []*string{strp("a"), strp("b"), nil}, InvalidJsName, true},
		{strp("a"), []*string{nil, nil, strp("b")}, InvalidJsName, true},
		{strp("a"), []*string{strp("a"), strp("c"), strp("a")}, InvalidJsName, true},
		{strp(""), []*string{nil, strp(""), nil}, "", true},
	}

	for ci, tc := range cases {
		for _, perm := range permutations([]int{0, 1, 2}) {
			t.Run(fmt.Sprintf("case%d/%v", ci, perm), func(t *testing.T) {
				p := NewProgram()
				self := newMethod(t, p, declareClass(p, "Self"), "f", AccessPublic)
				self.SetJsMemberInfo(nil, tc.self, tc.self != nil)

				supers := make([]*Method, len(tc.overrides))
				for i, n := range tc.overrides {
					supers[i] = newMethod(t, p, declareInterface(p, fmt.Sprintf("I%d", i)), "f", AccessPublic)
					supers[i].SetJsMemberInfo(nil, n, n != nil)
				}
				for _, idx := range perm {
					require.NoError(t, self.AddOverriddenMethod(supers[idx]))
				}

				name, ok := self.JsName()
				assert.Equal(t, tc.wantOK, ok)
				assert.Equal(t, tc.want, name)
			})
		}
	}
}

// buildChain creates a class chain C0 <- C1 <- ... of length n, each declaring f
func buildChain(t *testing.T, p *Program, n int, access func(i int) Access) []*Method {
	t.Helper()
	ms := make([]*Method, n)
	var super *Type
	for i := range ms {
		c := declareClass(p, fmt.Sprintf("com.example.C%d", i))
		c.Super = super
		super = c
		ms[i] = newMethod(t, p, c, "f", access(i))
	}
	linkChain(t, ms...)
	return ms
}

func TestExposesNonJsMethod_AtMostOnePerChain(t *testing.T) {
	for n := 2; n <= 4; n++ {
		for k := 0; k < n; k++ {
			t.Run(fmt.Sprintf("len%d/firstJs%d", n, k), func(t *testing.T) {
				p := NewProgram()
				ms := buildChain(t, p, n, func(int) Access { return AccessPublic })
				ms[k].SetJsMemberInfo(nil, strp("f"), true)

				var exposers []int
				for i, m := range ms {
					if m.ExposesNonJsMethod() {
						exposers = append(exposers, i)
					}
				}

				if k == 0 {
					assert.Empty(t, exposers, "a chain that starts as JS exposes nothing")
				} else {
					assert.Equal(t, []int{k}, exposers)
				}
			})
		}
	}
}

func TestExposesNonJsMethod_DeepChain(t *testing.T) {
	p := NewProgram()
	ms := buildChain(t, p, 48, func(int) Access { return AccessPublic })
	for _, m := range ms[1:] {
		m.SetJsMemberInfo(nil, strp("f"), true)
	}

	assert.False(t, ms[0].ExposesNonJsMethod())
	assert.True(t, ms[1].ExposesNonJsMethod())
	assert.False(t, ms[len(ms)-1].ExposesNonJsMethod())
}

func TestExposesNonJsMethod_RenamedDescendantStillUnique(t *testing.T) {
	p := NewProgram()
	ms := buildChain(t, p, 4, func(int) Access { return AccessPublic })
	ms[1].SetJsMemberInfo(nil, strp("f"), true)
	ms[3].SetJsMemberInfo(nil, strp("f"), true)

	assert.False(t, ms[0].ExposesNonJsMethod())
	assert.True(t, ms[1].ExposesNonJsMethod())
	assert.False(t, ms[2].ExposesNonJsMethod())
	assert.False(t, ms[3].ExposesNonJsMethod())
}

func TestExposesNonJsMethod_InterfaceMethodNeverExposes(t *testing.T) {
	p := NewProgram()
	plain := newMethod(t, p, declareInterface(p, "Plain"), "f", AccessPublic)
	js := newMethod(t, p, declareInterface(p, "Js"), "f", AccessPublic)
	js.SetJsMemberInfo(nil, strp("f"), true)
	require.NoError(t, js.AddOverriddenMethod(plain))

	assert.False(t, js.ExposesNonJsMethod())
}

func TestExposesPackagePrivateMethod_AtMostOnePerChain(t *testing.T) {
	for n := 2; n <= 4; n++ {
		for k := 0; k <= n; k++ {
			t.Run(fmt.Sprintf("len%d/firstPublic%d", n, k), func(t *testing.T) {
				p := NewProgram()
				ms := buildChain(t, p, n, func(i int) Access {
					if i < k {
						return AccessDefault
					}
					return AccessPublic
				})

				var exposers []int
				for i, m := range ms {
					if m.ExposesPackagePrivateMethod() {
						exposers = append(exposers, i)
					}
				}

				if k == 0 || k == n {
					assert.Empty(t, exposers)
				} else {
					assert.Equal(t, []int{k}, exposers)
				}
			})
		}
	}
}

func TestExposesPackagePrivateMethod_IgnoresInterfaces(t *testing.T) {
	p := NewProgram()
	base := newMethod(t, p, declareClass(p, "a.Base"), "f", AccessDefault)
	iface := newMethod(t, p, declareInterface(p, "a.I"), "f", AccessPublic)
	impl := newMethod(t, p, declareClass(p, "a.Impl"), "f", AccessPublic)
	require.NoError(t, impl.AddOverriddenMethod(base))
	require.NoError(t, impl.AddOverriddenMethod(iface))

	assert.True(t, impl.ExposesPackagePrivateMethod())

	private := newMethod(t, p, declareClass(p, "a.Other"), "g", AccessPrivate)
	assert.False(t, private.ExposesPackagePrivateMethod())
}

func TestJsPropertyAccessorKind_Inherited(t *testing.T) {
	p := NewProgram()
	i := newMethod(t, p, declareInterface(p, "I"), "getX", AccessPublic)
	i.SetJsPropertyInfo(nil, AccessorGetter)
	mid := newMethod(t, p, declareClass(p, "Mid"), "getX", AccessPublic)
	leaf := newMethod(t, p, declareClass(p, "Leaf"), "getX", AccessPublic)
	require.NoError(t, leaf.AddOverriddenMethod(mid))
	require.NoError(t, leaf.AddOverriddenMethod(i))

	assert.Equal(t, AccessorGetter, leaf.JsPropertyAccessorKind())
	assert.Equal(t, AccessorNone, mid.JsPropertyAccessorKind())

	name, ok := leaf.JsName()
	require.True(t, ok)
	assert.Equal(t, "x", name)
}

func TestQualifiedJsName(t *testing.T) {
	p := NewProgram()
	widget := declareClass(p, "com.example.Widget")

	static := p.NewMethod(UnknownOrigin, "create", widget, Void, false, true, false, AccessPublic)
	static.SetJsMemberInfo(nil, strp("create"), true)
	got, err := static.QualifiedJsName()
	require.NoError(t, err)
	assert.Equal(t, "com.example.Widget.create", got)

	custom := p.NewMethod(UnknownOrigin, "make", widget, Void, false, true, false, AccessPublic)
	custom.SetJsMemberInfo(strp("lib"), strp("build"), true)
	got, err = custom.QualifiedJsName()
	require.NoError(t, err)
	assert.Equal(t, "lib.build", got)

	typeEntry := p.NewMethod(UnknownOrigin, "main", widget, Void, false, true, false, AccessPublic)
	typeEntry.SetJsMemberInfo(nil, strp(""), true)
	got, err = typeEntry.QualifiedJsName()
	require.NoError(t, err)
	assert.Equal(t, "com.example.Widget", got)

	globalStatic := p.NewMethod(UnknownOrigin, "hello", widget, Void, false, true, false, AccessPublic)
	globalStatic.SetJsMemberInfo(strp(GlobalNamespace), strp("hello"), true)
	got, err = globalStatic.QualifiedJsName()
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	globalInstance := newMethod(t, p, widget, "bye", AccessPublic)
	globalInstance.SetJsMemberInfo(strp(GlobalNamespace), strp("bye"), true)
	_, err = globalInstance.QualifiedJsName()
	assert.ErrorIs(t, err, ErrDispatchedEntryPoint)
}

func TestJsNamespace_LazilyDefaulted(t *testing.T) {
	p := NewProgram()
	widget := declareClass(p, "com.example.Widget")
	widget.JsNamespace = "ui"
	widget.JsName = "W"
	m := newMethod(t, p, widget, "f", AccessPublic)

	_, set := m.DeclaredJsNamespace()
	assert.False(t, set)
	assert.Equal(t, "ui.W", m.JsNamespace())

	ns, set := m.DeclaredJsNamespace()
	assert.True(t, set)
	assert.Equal(t, "ui.W", ns)

	widget.JsNamespace = "changed"
	assert.Equal(t, "ui.W", m.JsNamespace(), "namespace is cached after the first read")
}

func TestIsJsInteropEntryPoint(t *testing.T) {
	p := NewProgram()
	c := declareClass(p, "C")

	static := p.NewMethod(UnknownOrigin, "s", c, Void, false, true, false, AccessPublic)
	static.SetBody(&MethodBody{})
	static.SetJsMemberInfo(nil, strp("s"), true)
	assert.True(t, static.IsJsInteropEntryPoint())

	instance := newMethod(t, p, c, "i", AccessPublic)
	instance.SetJsMemberInfo(nil, strp("i"), true)
	assert.False(t, instance.IsJsInteropEntryPoint())

	native := p.NewMethod(UnknownOrigin, "n", c, Void, false, true, false, AccessPublic)
	native.SetJsMemberInfo(nil, strp("n"), true)
	assert.True(t, native.IsJsNative())
	assert.False(t, native.IsJsInteropEntryPoint())
}

func TestCanBeCalledAndImplementedExternally(t *testing.T) {
	p := NewProgram()
	fn := declareInterface(p, "Fn")
	fn.IsJsFunction = true
	jsIface := declareInterface(p, "JsIface")
	jsIface.IsJsType = true
	c := declareClass(p, "C")

	apply := newMethod(t, p, fn, "apply", AccessPublic)
	impl := newMethod(t, p, c, "apply", AccessPublic)
	require.NoError(t, impl.AddOverriddenMethod(apply))
	plain := newMethod(t, p, c, "plain", AccessPublic)
	ifaceMethod := newMethod(t, p, jsIface, "run", AccessPublic)

	assert.True(t, apply.CanBeCalledExternally())
	assert.True(t, impl.CanBeCalledExternally())
	assert.True(t, impl.IsOrOverridesJsFunctionMethod())
	assert.False(t, plain.CanBeCalledExternally())

	assert.True(t, apply.CanBeImplementedExternally())
	assert.False(t, impl.CanBeImplementedExternally())
	assert.True(t, ifaceMethod.CanBeImplementedExternally())
	assert.False(t, plain.CanBeImplementedExternally())
}

func TestIsJsConstructorAndOverlay(t *testing.T) {
	p := NewProgram()
	c := declareClass(p, "C")
	jso := declareClass(p, "Jso")
	jso.IsJso = true

	ctor := p.NewConstructor(UnknownOrigin, c, AccessPublic)
	assert.False(t, ctor.IsJsConstructor())
	ctor.SetJsMemberInfo(nil, strp(""), true)
	assert.True(t, ctor.IsJsConstructor())

	m := newMethod(t, p, c, "f", AccessPublic)
	assert.False(t, m.IsJsOverlay())
	m.SetJsOverlay()
	assert.True(t, m.IsJsOverlay())
	assert.True(t, newMethod(t, p, jso, "g", AccessPublic).IsJsOverlay())
}

func TestJsConstructor_IsStaticEntryPoint(t *testing.T) {
	p := NewProgram()
	foo := declareClass(p, "com.example.Foo")
	foo.IsJsType = true

	ctor := p.NewConstructor(UnknownOrigin, foo, AccessPublic)
	ctor.SetBody(&MethodBody{})
	ctor.SetJsMemberInfo(nil, strp(""), true)

	assert.True(t, ctor.IsJsConstructor())
	assert.False(t, ctor.NeedsDynamicDispatch())
	assert.True(t, ctor.IsJsInteropEntryPoint())

	qualified, err := ctor.QualifiedJsName()
	require.NoError(t, err)
	assert.Equal(t, "com.example.Foo", qualified)

	ns := declareClass(p, "com.example.Bar")
	ns.JsNamespace = "lib"
	ns.JsName = "B"
	named := p.NewConstructor(UnknownOrigin, ns, AccessPublic)
	named.SetBody(&MethodBody{})
	named.SetJsMemberInfo(nil, strp(""), true)
	qualified, err = named.QualifiedJsName()
	require.NoError(t, err)
	assert.Equal(t, "lib.B", qualified)
}
