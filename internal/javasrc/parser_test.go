package javasrc

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const javaFixtures = "../../testdata/java"

func TestNewParser(t *testing.T) {
	p := NewParser()
	assert.NotNil(t, p)
	assert.NotNil(t, p.parser)
}

func TestIsJavaFile(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"Main.java", true},
		{"/src/com/example/Base.JAVA", true},
		{"main.go", false},
		{"Main.class", false},
		{"java", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsJavaFile(tt.path))
		})
	}
}

func TestParser_ParseContent_PackageAndImports(t *testing.T) {
	content := `package com.example;

import java.util.List;
import static java.util.Collections.emptyList;
import jsinterop.annotations.*;

public class Empty {}
`
	unit, err := NewParser().ParseContent(context.Background(), "Empty.java", content)
	require.NoError(t, err)

	assert.Equal(t, "com.example", unit.Package)
	assert.Equal(t, []string{"java.util.List", "java.util.Collections.emptyList", "jsinterop.annotations.*"}, unit.Imports)
	require.Len(t, unit.Types, 1)
	assert.Equal(t, "Empty", unit.Types[0].Name)
	assert.Equal(t, KindClass, unit.Types[0].Kind)
}

func TestParser_ParseContent_ClassHierarchy(t *testing.T) {
	content := `package a;

public abstract class Derived<T> extends Base<T> implements Runnable, java.io.Serializable {
	protected Derived(int x) { super(x); }

	public final void run() {}

	abstract <R> R map(T value, java.util.function.Function<T, R> fn) throws java.io.IOException, Exception;

	static int sum(int... values) { return 0; }

	private String[] names(final int counts[]) { return null; }
}
`
	unit, err := NewParser().ParseContent(context.Background(), "Derived.java", content)
	require.NoError(t, err)
	require.Len(t, unit.Types, 1)

	decl := unit.Types[0]
	assert.Equal(t, "Derived", decl.Name)
	assert.Equal(t, "Base<T>", decl.Superclass)
	assert.Equal(t, []string{"Runnable", "java.io.Serializable"}, decl.Interfaces)
	assert.Equal(t, []string{"T"}, decl.TypeParameters)
	assert.True(t, HasModifier(decl.Modifiers, "abstract"))
	assert.Equal(t, 3, decl.StartLine)
	require.Len(t, decl.Methods, 5)

	ctor := decl.Methods[0]
	assert.True(t, ctor.IsConstructor)
	assert.Equal(t, "Derived", ctor.Name)
	assert.True(t, ctor.HasBody)
	require.Len(t, ctor.Params, 1)
	assert.Equal(t, ParamDecl{Name: "x", Type: "int"}, ctor.Params[0])

	run := decl.Methods[1]
	assert.Equal(t, "run", run.Name)
	assert.Equal(t, "void", run.ReturnType)
	assert.ElementsMatch(t, []string{"public", "final"}, run.Modifiers)
	assert.Equal(t, "{}", run.Body)

	mapper := decl.Methods[2]
	assert.False(t, mapper.HasBody)
	assert.Equal(t, "R", mapper.ReturnType)
	assert.Equal(t, []string{"R"}, mapper.TypeParameters)
	assert.Equal(t, []string{"java.io.IOException", "Exception"}, mapper.Throws)
	require.Len(t, mapper.Params, 2)
	assert.Equal(t, "java.util.function.Function<T,R>", mapper.Params[1].Type)

	sum := decl.Methods[3]
	require.Len(t, sum.Params, 1)
	assert.Equal(t, ParamDecl{Name: "values", Type: "int[]", Varargs: true}, sum.Params[0])

	names := decl.Methods[4]
	assert.Equal(t, "String[]", names.ReturnType)
	require.Len(t, names.Params, 1)
	assert.Equal(t, ParamDecl{Name: "counts", Type: "int[]", Final: true}, names.Params[0])
}

func TestParser_ParseContent_InterfaceAndNestedTypes(t *testing.T) {
	content := `package a;

public interface Outer extends Comparable<Outer>, Iterable<String> {
	int size();

	default boolean isEmpty() { return size() == 0; }

	class Impl {
		interface Deep {}
	}
}
`
	unit, err := NewParser().ParseContent(context.Background(), "Outer.java", content)
	require.NoError(t, err)
	require.Len(t, unit.Types, 3)

	outer := unit.Types[0]
	assert.Equal(t, KindInterface, outer.Kind)
	assert.Equal(t, []string{"Comparable<Outer>", "Iterable<String>"}, outer.Interfaces)
	require.Len(t, outer.Methods, 2)
	assert.True(t, HasModifier(outer.Methods[1].Modifiers, "default"))

	assert.Equal(t, "Outer$Impl", unit.Types[1].Name)
	assert.Equal(t, KindClass, unit.Types[1].Kind)
	assert.Equal(t, "Outer$Impl$Deep", unit.Types[2].Name)
	assert.Equal(t, KindInterface, unit.Types[2].Kind)
}

func TestParser_ParseContent_Annotations(t *testing.T) {
	content := `package a;

@JsType(namespace = JsPackage.GLOBAL, name = "Thing", isNative = true)
public class Thing {
	@JsMethod(name = "doIt")
	@SuppressWarnings("unchecked")
	public native void run();

	@jsinterop.annotations.JsIgnore
	public void hidden() {}
}
`
	unit, err := NewParser().ParseContent(context.Background(), "Thing.java", content)
	require.NoError(t, err)
	require.Len(t, unit.Types, 1)

	jsType, ok := FindAnnotation(unit.Types[0].Annotations, "JsType")
	require.True(t, ok)
	assert.Equal(t, "JsPackage.GLOBAL", jsType.Values["namespace"])
	name, _ := jsType.String("name")
	assert.Equal(t, "Thing", name)
	assert.True(t, jsType.Bool("isNative"))

	run := unit.Types[0].Methods[0]
	jsMethod, ok := FindAnnotation(run.Annotations, "JsMethod")
	require.True(t, ok)
	name, _ = jsMethod.String("name")
	assert.Equal(t, "doIt", name)
	sw, ok := FindAnnotation(run.Annotations, "SuppressWarnings")
	require.True(t, ok)
	assert.Equal(t, []string{"unchecked"}, sw.List("value"))

	_, ok = FindAnnotation(unit.Types[0].Methods[1].Annotations, "JsIgnore")
	assert.True(t, ok, "qualified annotation names match by simple name")
}

func TestParser_ParseContent_Jsni(t *testing.T) {
	content := `package a;

public class Native {
	public static native int now() /*-{
		return Date.now();
	}-*/;

	public static native int plain();
}
`
	unit, err := NewParser().ParseContent(context.Background(), "Native.java", content)
	require.NoError(t, err)
	methods := unit.Types[0].Methods
	require.Len(t, methods, 2)

	assert.False(t, methods[0].HasBody)
	assert.Equal(t, "return Date.now();", methods[0].Jsni)
	assert.Empty(t, methods[1].Jsni)
}

func TestParser_ParseFile(t *testing.T) {
	unit, err := NewParser().ParseFile(context.Background(), filepath.Join(javaFixtures, "com/example/shapes/Circle.java"))
	require.NoError(t, err)
	assert.Equal(t, "com.example.shapes", unit.Package)
	require.Len(t, unit.Types, 1)
	assert.Equal(t, "AbstractShape", unit.Types[0].Superclass)

	_, err = NewParser().ParseFile(context.Background(), "missing.java")
	assert.Error(t, err)

	_, err = NewParser().ParseFile(context.Background(), "main.go")
	assert.Error(t, err)
}

func TestParseFiles_PreservesOrder(t *testing.T) {
	paths := []string{
		filepath.Join(javaFixtures, "com/example/shapes/Shape.java"),
		filepath.Join(javaFixtures, "com/example/shapes/AbstractShape.java"),
		filepath.Join(javaFixtures, "com/example/shapes/Circle.java"),
	}

	units, err := ParseFiles(context.Background(), paths, 2)
	require.NoError(t, err)
	require.Len(t, units, 3)
	for i, u := range units {
		assert.Equal(t, paths[i], u.Path)
	}

	_, err = ParseFiles(context.Background(), append(paths, "nope.java"), 0)
	assert.Error(t, err)
}

func TestAnnotation_List(t *testing.T) {
	a := Annotation{Values: map[string]string{
		"one":   `"x"`,
		"many":  `{"a", "b" }`,
		"empty": `{}`,
		"types": `{String.class, int.class}`,
	}}

	assert.Equal(t, []string{"x"}, a.List("one"))
	assert.Equal(t, []string{"a", "b"}, a.List("many"))
	assert.Equal(t, []string{}, a.List("empty"))
	assert.Equal(t, []string{"String.class", "int.class"}, a.List("types"))
	assert.Nil(t, a.List("missing"))
}
