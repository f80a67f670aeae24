package javasrc

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/QTest-hq/jjsast/pkg/ast"
)

// JavaScriptObject is the root of overlay (JSO) types
const JavaScriptObject = "com.google.gwt.core.client.JavaScriptObject"

var javaLang = map[string]bool{
	"Object": true, "String": true, "Class": true, "Enum": true,
	"Boolean": true, "Byte": true, "Character": true, "Short": true,
	"Integer": true, "Long": true, "Float": true, "Double": true, "Number": true, "Void": true,
	"Iterable": true, "Comparable": true, "Runnable": true, "CharSequence": true,
	"StringBuilder": true, "StringBuffer": true, "Math": true, "System": true,
	"Throwable": true, "Exception": true, "RuntimeException": true, "Error": true,
	"IllegalArgumentException": true, "IllegalStateException": true,
	"NullPointerException": true, "UnsupportedOperationException": true,
}

type builder struct {
	p        *ast.Program
	declared map[string]bool
	// methods annotated @Override, in declaration order
	overrides []*ast.Method
}

type scope struct {
	unit       *CompilationUnit
	outer      string // binary name of the declaring type
	typeParams map[string]bool
}

// Build declares every type and method of units in a new program. Types
// referenced but not declared become external class types. Override edges are
// left to the linker.
func Build(units []*CompilationUnit, opts ...ast.Option) (*ast.Program, error) {
	b := &builder{
		p:        ast.NewProgram(opts...),
		declared: make(map[string]bool),
	}

	for _, unit := range units {
		for _, decl := range unit.Types {
			name := qualify(unit.Package, decl.Name)
			if b.declared[name] {
				return nil, fmt.Errorf("%s: duplicate type %s", unit.Path, name)
			}
			b.declared[name] = true
		}
	}

	for _, unit := range units {
		for _, decl := range unit.Types {
			b.declareType(unit, decl)
		}
	}
	for _, unit := range units {
		for _, decl := range unit.Types {
			b.linkSupertypes(unit, decl)
		}
	}
	for _, t := range b.p.Types() {
		t.IsJso = !t.External && isJso(t)
	}
	for _, unit := range units {
		for _, decl := range unit.Types {
			if err := b.declareMethods(unit, decl); err != nil {
				return nil, err
			}
		}
	}
	stubs, err := b.declareExternalOverrides()
	if err != nil {
		return nil, err
	}

	log.Debug().
		Int("units", len(units)).
		Int("types", len(b.p.Types())).
		Int("methods", len(b.p.Methods())).
		Int("external_stubs", stubs).
		Msg("built program")

	return b.p, nil
}

func qualify(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}

func isJso(t *ast.Type) bool {
	seen := make(map[*ast.Type]bool)
	for s := t.Super; s != nil && !seen[s]; s = s.Super {
		if s.Name == JavaScriptObject {
			return true
		}
		seen[s] = true
	}
	return false
}

func (b *builder) declareType(unit *CompilationUnit, decl TypeDecl) {
	name := qualify(unit.Package, decl.Name)
	var t *ast.Type
	if decl.Kind == KindInterface {
		t = ast.NewInterface(name)
	} else {
		t = ast.NewClass(name)
	}

	if a, ok := FindAnnotation(decl.Annotations, "JsType"); ok {
		t.IsJsType = true
		t.IsJsNative = a.Bool("isNative")
		t.JsNamespace = namespaceValue(a)
		t.JsName, _ = a.String("name")
	}
	if _, ok := FindAnnotation(decl.Annotations, "JsFunction"); ok {
		t.IsJsFunction = true
	}

	b.p.AddType(t)
}

func namespaceValue(a Annotation) string {
	raw, ok := a.Values["namespace"]
	if !ok {
		return ""
	}
	if strings.HasSuffix(strings.TrimSpace(raw), "GLOBAL") {
		return ast.GlobalNamespace
	}
	return unquote(raw)
}

func (b *builder) typeScope(unit *CompilationUnit, decl TypeDecl) *scope {
	s := &scope{unit: unit, outer: decl.Name, typeParams: make(map[string]bool)}
	for _, tp := range decl.TypeParameters {
		s.typeParams[tp] = true
	}
	return s
}

func (b *builder) linkSupertypes(unit *CompilationUnit, decl TypeDecl) {
	t, _ := b.p.Type(qualify(unit.Package, decl.Name))
	s := b.typeScope(unit, decl)

	if decl.Superclass != "" {
		t.Super = b.resolve(s, decl.Superclass)
	}
	for _, iface := range decl.Interfaces {
		t.Interfaces = append(t.Interfaces, b.resolve(s, iface))
	}
}

func (b *builder) declareMethods(unit *CompilationUnit, decl TypeDecl) error {
	t, _ := b.p.Type(qualify(unit.Package, decl.Name))
	ts := b.typeScope(unit, decl)

	for _, md := range decl.Methods {
		s := &scope{unit: unit, outer: ts.outer, typeParams: make(map[string]bool)}
		for tp := range ts.typeParams {
			s.typeParams[tp] = true
		}
		for _, tp := range md.TypeParameters {
			s.typeParams[tp] = true
		}

		m, err := b.declareMethod(s, t, md)
		if err != nil {
			return fmt.Errorf("%s:%d: %w", unit.Path, md.StartLine, err)
		}
		b.applyAnnotations(s, t, md, m)
		if _, ok := FindAnnotation(md.Annotations, "Override"); ok && m.CanBePolymorphic() {
			b.overrides = append(b.overrides, m)
		}
	}
	return nil
}

// declareExternalOverrides gives every @Override method that overrides
// nothing declared in the program a stub on its nearest external supertype.
// The linker records the edge to the stub and stitching against the library
// that defines the supertype fills it in.
func (b *builder) declareExternalOverrides() (int, error) {
	stubs := 0
	for _, m := range b.overrides {
		var external *ast.Type
		found := false
		for _, s := range supertypesOf(m.EnclosingType()) {
			if s.External {
				if external == nil {
					external = s
				}
				continue
			}
			if declaresOverridden(s, m) {
				found = true
				break
			}
		}
		if found || external == nil || hasSignature(external, m.Signature()) {
			continue
		}
		if _, err := b.p.NewExternalMethod(external, m.Signature(), false); err != nil {
			return stubs, err
		}
		stubs++
	}
	return stubs, nil
}

// supertypesOf lists the superclass chain of t, then the interfaces of t and
// its superclasses breadth first
func supertypesOf(t *ast.Type) []*ast.Type {
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

func declaresOverridden(t *ast.Type, m *ast.Method) bool {
	want := ast.ParamSignature(m.OriginalParamTypes())
	for _, o := range t.Methods() {
		if !o.IsConstructor() && o.Name() == m.Name() && ast.ParamSignature(o.OriginalParamTypes()) == want {
			return true
		}
	}
	return false
}

func hasSignature(t *ast.Type, signature string) bool {
	for _, o := range t.Methods() {
		if o.Signature() == signature {
			return true
		}
	}
	return false
}

func methodAccess(t *ast.Type, mods []string) ast.Access {
	switch {
	case HasModifier(mods, "public"):
		return ast.AccessPublic
	case HasModifier(mods, "protected"):
		return ast.AccessProtected
	case HasModifier(mods, "private"):
		return ast.AccessPrivate
	case t.IsInterface():
		return ast.AccessPublic
	}
	return ast.AccessDefault
}

func (b *builder) declareMethod(s *scope, t *ast.Type, md MethodDecl) (*ast.Method, error) {
	origin := ast.Origin{File: s.unit.Path, StartLine: md.StartLine, EndLine: md.EndLine}
	access := methodAccess(t, md.Modifiers)
	isStatic := HasModifier(md.Modifiers, "static")
	isNative := HasModifier(md.Modifiers, "native")

	var m *ast.Method
	if md.IsConstructor {
		m = b.p.NewConstructor(origin, t, access)
	} else {
		isAbstract := HasModifier(md.Modifiers, "abstract") ||
			(t.IsInterface() && !md.HasBody && !isStatic)
		m = b.p.NewMethod(origin, md.Name, t, b.resolve(s, md.ReturnType),
			isAbstract, isStatic, HasModifier(md.Modifiers, "final"), access)
	}

	names := make([]string, 0, len(md.Params))
	for _, pd := range md.Params {
		param := ast.NewParameter(origin, pd.Name, b.resolve(s, pd.Type))
		param.IsFinal = pd.Final
		param.IsVarargs = pd.Varargs
		m.AddParam(param)
		names = append(names, pd.Name)
	}
	for _, thrown := range md.Throws {
		m.AddThrownException(b.resolve(s, thrown))
	}

	switch {
	case md.HasBody:
		m.SetBody(&ast.MethodBody{Origin: origin, Source: md.Body})
	case isNative && md.Jsni != "":
		m.SetBody(&ast.JsniMethodBody{Origin: origin, Params: names, Code: md.Jsni})
	}
	if t.IsInterface() && HasModifier(md.Modifiers, "default") {
		m.SetDefaultMethod()
	}

	if err := m.FreezeParamTypes(); err != nil {
		return nil, err
	}
	return m, nil
}

func (b *builder) applyAnnotations(s *scope, t *ast.Type, md MethodDecl, m *ast.Method) {
	anns := md.Annotations
	_, ignored := FindAnnotation(anns, "JsIgnore")

	if a, ok := FindAnnotation(anns, "JsProperty"); ok && !ignored {
		ns := optional(namespaceValue(a), hasKey(a, "namespace"))
		m.SetJsMemberInfo(ns, nil, !t.IsJsNative)
		name, named := a.String("name")
		m.SetJsPropertyInfo(optional(name, named), accessorShape(md))
	} else if a, ok := FindAnnotation(anns, "JsMethod"); ok && !ignored {
		ns := optional(namespaceValue(a), hasKey(a, "namespace"))
		name, named := a.String("name")
		if !named {
			name = md.Name
		}
		m.SetJsMemberInfo(ns, &name, !t.IsJsNative)
	} else if _, ok := FindAnnotation(anns, "JsConstructor"); ok && md.IsConstructor {
		empty := ""
		m.SetJsMemberInfo(nil, &empty, true)
	} else if t.IsJsType && !ignored && m.IsPublic() {
		name := md.Name
		if md.IsConstructor {
			name = ""
		}
		m.SetJsMemberInfo(nil, &name, !t.IsJsNative)
	}

	if _, ok := FindAnnotation(anns, "JsOverlay"); ok {
		m.SetJsOverlay()
	}
	if _, ok := FindAnnotation(anns, "DoNotInline"); ok {
		m.SetInliningMode(ast.InliningDoNotInline)
	}
	if _, ok := FindAnnotation(anns, "ForceInline"); ok {
		m.SetInliningMode(ast.InliningForceInline)
	}
	if _, ok := FindAnnotation(anns, "HasNoSideEffects"); ok {
		m.SetHasSideEffects(false)
	}
	if a, ok := FindAnnotation(anns, "SuppressWarnings"); ok {
		m.SetSuppressedWarnings(a.List("value"))
	}
	if a, ok := FindAnnotation(anns, "SpecializeMethod"); ok {
		var params []*ast.Type
		for _, p := range a.List("params") {
			params = append(params, b.resolve(s, classLiteral(p)))
		}
		var returns *ast.Type
		if r, ok := a.String("returns"); ok {
			returns = b.resolve(s, classLiteral(r))
		}
		target, _ := a.String("target")
		m.SetSpecialization(params, returns, target)
	}
}

// accessorShape classifies a JsProperty method by its signature
func accessorShape(md MethodDecl) ast.PropertyAccessorKind {
	switch {
	case len(md.Params) == 0 && md.ReturnType != "void":
		return ast.AccessorGetter
	case len(md.Params) == 1 && md.ReturnType == "void":
		return ast.AccessorSetter
	}
	return ast.AccessorUndefined
}

func hasKey(a Annotation, key string) bool {
	_, ok := a.Values[key]
	return ok
}

func optional(s string, set bool) *string {
	if !set {
		return nil
	}
	return &s
}

func classLiteral(s string) string {
	return strings.TrimSuffix(strings.TrimSpace(s), ".class")
}

// resolve maps a source type to a program type. Generic arguments are erased
// and type variables become Object.
func (b *builder) resolve(s *scope, text string) *ast.Type {
	text = eraseGenerics(text)
	dims := 0
	for strings.HasSuffix(text, "[]") {
		text = strings.TrimSuffix(text, "[]")
		dims++
	}

	var t *ast.Type
	if prim, ok := ast.PrimitiveByName(text); ok {
		t = prim
	} else if s.typeParams[text] {
		t = b.p.ExternalType("java.lang.Object")
	} else {
		name := b.lookup(s, text)
		if declared, ok := b.p.Type(name); ok {
			t = declared
		} else {
			t = b.p.ExternalType(name)
		}
	}

	for i := 0; i < dims; i++ {
		t = b.p.ArrayOf(t)
	}
	return t
}

func eraseGenerics(text string) string {
	var sb strings.Builder
	depth := 0
	for _, r := range text {
		switch {
		case r == '<':
			depth++
		case r == '>':
			depth--
		case depth == 0:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// lookup finds the qualified binary name of a type referenced from s
func (b *builder) lookup(s *scope, name string) string {
	pkg := s.unit.Package

	if head, rest, dotted := strings.Cut(name, "."); dotted {
		if outer := b.lookupSimple(s, head); b.declared[outer] {
			return outer + "$" + strings.ReplaceAll(rest, ".", "$")
		}
		return name
	}

	if q := b.lookupSimple(s, name); q != "" {
		return q
	}
	return qualify(pkg, name)
}

func (b *builder) lookupSimple(s *scope, name string) string {
	pkg := s.unit.Package

	for outer := s.outer; outer != ""; {
		if q := qualify(pkg, outer+"$"+name); b.declared[q] {
			return q
		}
		i := strings.LastIndexByte(outer, '$')
		if i < 0 {
			break
		}
		outer = outer[:i]
	}
	if q := qualify(pkg, name); b.declared[q] {
		return q
	}
	for _, imp := range s.unit.Imports {
		if strings.HasSuffix(imp, "."+name) {
			return imp
		}
	}
	for _, imp := range s.unit.Imports {
		if wildcard, ok := strings.CutSuffix(imp, ".*"); ok && b.declared[wildcard+"."+name] {
			return wildcard + "." + name
		}
	}
	if javaLang[name] {
		return "java.lang." + name
	}
	return ""
}
