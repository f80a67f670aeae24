package ast

import "fmt"

// Method is one Java method or constructor in the IR
type Method struct {
	id      MethodID
	program *Program
	origin  Origin

	name          string
	enclosing     *Type
	isStatic      bool
	isConstructor bool
	isAbstract    bool
	isFinal       bool
	access        Access

	params     []*Parameter
	returnType *Type
	thrown     []*Type
	body       Body

	frozen             bool
	originalParamTypes []*Type
	originalReturnType *Type
	signature          string

	jsName       *string
	jsNamespace  *string
	exported     bool
	accessorKind PropertyAccessorKind
	jsOverlay    bool

	inliningMode                InliningMode
	preventDevirtualization     bool
	hasSideEffects              bool
	defaultMethod               bool
	syntheticAccidentalOverride bool
	synthetic                   bool
	forwarding                  bool
	suppressedWarnings          []string

	overridden  methodSet
	overriding  methodSet
	specialized *Specialization
}

// ID returns the method's arena identifier
func (m *Method) ID() MethodID { return m.id }

// Program returns the owning arena; nil only for NullMethod
func (m *Method) Program() *Program { return m.program }

// Origin returns where the method was declared
func (m *Method) Origin() Origin { return m.origin }

// Name returns the interned simple name
func (m *Method) Name() string { return m.name }

// EnclosingType returns the declaring type
func (m *Method) EnclosingType() *Type { return m.enclosing }

func (m *Method) String() string {
	return m.QualifiedName()
}

// QualifiedName is the enclosing type name followed by the signature
func (m *Method) QualifiedName() string {
	if m.enclosing == nil {
		return m.Signature()
	}
	return m.enclosing.Name + "." + m.Signature()
}

func (m *Method) IsStatic() bool      { return m.isStatic }
func (m *Method) IsConstructor() bool { return m.isConstructor }
func (m *Method) IsAbstract() bool    { return m.isAbstract }
func (m *Method) IsFinal() bool       { return m.isFinal }

func (m *Method) SetAbstract(isAbstract bool) { m.isAbstract = isAbstract }
func (m *Method) SetFinal(isFinal bool)       { m.isFinal = isFinal }

// Access returns the declared visibility
func (m *Method) Access() Access { return m.access }

// SetAccess changes the visibility, e.g. when a pass widens a member
func (m *Method) SetAccess(a Access) { m.access = a }

func (m *Method) IsPublic() bool         { return m.access == AccessPublic }
func (m *Method) IsPrivate() bool        { return m.access == AccessPrivate }
func (m *Method) IsPackagePrivate() bool { return m.access.IsPackagePrivate() }

// CanBePolymorphic reports whether the method can participate in virtual
// dispatch: non-private instance methods other than constructors.
func (m *Method) CanBePolymorphic() bool {
	return !m.isStatic && !m.isConstructor && !m.IsPrivate()
}

// NeedsDynamicDispatch reports whether calls go through instance dispatch.
// Constructors are always called directly.
func (m *Method) NeedsDynamicDispatch() bool {
	return !m.isStatic && !m.isConstructor
}

// IsExternal reports whether the method is defined outside this compilation unit
func (m *Method) IsExternal() bool {
	return m.enclosing != nil && m.enclosing.External
}

func (m *Method) isInterfaceMethod() bool {
	return m.enclosing.IsInterface()
}

// Params returns the parameters in declaration order
func (m *Method) Params() []*Parameter { return m.params }

// AddParam appends a parameter
func (m *Method) AddParam(p *Parameter) {
	m.params = append(m.params, p)
}

// RemoveParam deletes the parameter at index, keeping a JSNI body's own
// parameter list in step
func (m *Method) RemoveParam(index int) {
	params := make([]*Parameter, 0, len(m.params)-1)
	params = append(params, m.params[:index]...)
	m.params = append(params, m.params[index+1:]...)
	if jsni, ok := m.body.(*JsniMethodBody); ok && index < len(jsni.Params) {
		jsni.Params = append(jsni.Params[:index:index], jsni.Params[index+1:]...)
	}
}

// ReturnType returns the current return type
func (m *Method) ReturnType() *Type { return m.returnType }

// SetType replaces the current return type. The original return type is unaffected.
func (m *Method) SetType(t *Type) { m.returnType = t }

// ThrownExceptions returns the declared checked exceptions
func (m *Method) ThrownExceptions() []*Type { return m.thrown }

func (m *Method) AddThrownException(t *Type) {
	m.thrown = append(m.thrown, t)
}

func (m *Method) AddThrownExceptions(ts []*Type) {
	m.thrown = append(m.thrown, ts...)
}

// Body returns the owned body, nil for abstract, native and external methods
func (m *Method) Body() Body { return m.body }

// SetBody replaces the body and links it back to m
func (m *Method) SetBody(b Body) {
	m.body = b
	if b != nil {
		b.SetMethod(m)
	}
}

// IsJsniMethod reports whether the body is handwritten JavaScript
func (m *Method) IsJsniMethod() bool {
	_, ok := m.body.(*JsniMethodBody)
	return ok
}

// FreezeParamTypes records the current parameter and return types as the
// method's original types
func (m *Method) FreezeParamTypes() error {
	types := make([]*Type, len(m.params))
	for i, p := range m.params {
		types[i] = p.Type
	}
	return m.SetOriginalTypes(m.returnType, types)
}

// SetOriginalTypes sets the pre-specialization types. It may succeed only once.
func (m *Method) SetOriginalTypes(returnType *Type, paramTypes []*Type) error {
	if m.frozen {
		return fmt.Errorf("%s: %w", m.name, ErrTypesFrozen)
	}
	m.frozen = true
	m.originalReturnType = returnType
	m.originalParamTypes = normalize(paramTypes)
	return nil
}

// TypesFrozen reports whether original types have been set
func (m *Method) TypesFrozen() bool { return m.frozen }

func (m *Method) OriginalParamTypes() []*Type { return m.originalParamTypes }
func (m *Method) OriginalReturnType() *Type   { return m.originalReturnType }

// InliningMode returns the inliner hint
func (m *Method) InliningMode() InliningMode { return m.inliningMode }

func (m *Method) SetInliningMode(mode InliningMode) { m.inliningMode = mode }

// IsInliningAllowed is false only for DoNotInline
func (m *Method) IsInliningAllowed() bool {
	return m.inliningMode != InliningDoNotInline
}

// DisallowDevirtualization latches; there is no way to re-allow it
func (m *Method) DisallowDevirtualization() { m.preventDevirtualization = true }

func (m *Method) IsDevirtualizationAllowed() bool { return !m.preventDevirtualization }

func (m *Method) HasSideEffects() bool            { return m.hasSideEffects }
func (m *Method) SetHasSideEffects(has bool)      { m.hasSideEffects = has }
func (m *Method) IsDefaultMethod() bool           { return m.defaultMethod }
func (m *Method) SetDefaultMethod()               { m.defaultMethod = true }
func (m *Method) IsSynthetic() bool               { return m.synthetic }
func (m *Method) SetSynthetic()                   { m.synthetic = true }
func (m *Method) IsForwarding() bool              { return m.forwarding }
func (m *Method) SetForwarding()                  { m.forwarding = true }
func (m *Method) SetJsOverlay()                   { m.jsOverlay = true }
func (m *Method) SetSyntheticAccidentalOverride() { m.syntheticAccidentalOverride = true }

func (m *Method) IsSyntheticAccidentalOverride() bool {
	return m.syntheticAccidentalOverride
}

// SuppressedWarnings returns the warning keys silenced on this method
func (m *Method) SuppressedWarnings() []string { return m.suppressedWarnings }

func (m *Method) SetSuppressedWarnings(keys []string) {
	m.suppressedWarnings = keys
}

func normalize(types []*Type) []*Type {
	if len(types) == 0 {
		return []*Type{}
	}
	return append([]*Type(nil), types...)
}
