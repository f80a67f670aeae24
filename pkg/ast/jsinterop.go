package ast

import "fmt"

// SetJsMemberInfo records the JsInterop export of m. A nil name means the
// method is not directly exported under a JS name; a nil namespace defers to
// the enclosing type and GlobalNamespace places the member at top level.
func (m *Method) SetJsMemberInfo(namespace, name *string, exported bool) {
	if namespace != nil && *namespace == GlobalNamespace {
		namespace = new(string)
	}
	m.jsNamespace = m.internPtr(namespace)
	m.jsName = m.internPtr(name)
	m.exported = exported
}

// SetJsPropertyInfo marks m as a JsProperty accessor. A nil name is derived
// from the method name according to kind.
func (m *Method) SetJsPropertyInfo(name *string, kind PropertyAccessorKind) {
	if name == nil {
		computed := kind.ComputeName(m)
		name = &computed
	}
	m.jsName = m.internPtr(name)
	m.accessorKind = kind
}

func (m *Method) internPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	if m.program != nil {
		v = m.program.interner.Intern(v)
	}
	return &v
}

// DeclaredJsName is the JS name set on m itself, ignoring overridden methods
func (m *Method) DeclaredJsName() (string, bool) {
	if m.jsName == nil {
		return "", false
	}
	return *m.jsName, true
}

// DeclaredJsNamespace is the namespace set on m itself, without defaulting
func (m *Method) DeclaredJsNamespace() (string, bool) {
	if m.jsNamespace == nil {
		return "", false
	}
	return *m.jsNamespace, true
}

// DeclaredPropertyAccessorKind is the accessor kind set on m itself
func (m *Method) DeclaredPropertyAccessorKind() PropertyAccessorKind {
	return m.accessorKind
}

// DeclaredJsOverlay reports whether m itself was marked as an overlay
func (m *Method) DeclaredJsOverlay() bool { return m.jsOverlay }

// IsExported reports whether m was explicitly exported
func (m *Method) IsExported() bool { return m.exported }

// IsJsInteropEntryPoint reports whether m is a fixed entry point reachable from
// JavaScript: exported, statically dispatched and implemented in Java.
func (m *Method) IsJsInteropEntryPoint() bool {
	return m.exported && !m.NeedsDynamicDispatch() && !m.IsJsNative()
}

// CanBeCalledExternally reports whether JavaScript may call m, directly or
// through a method it overrides
func (m *Method) CanBeCalledExternally() bool {
	if m.exported || m.isJsFunctionMethod() {
		return true
	}
	for _, o := range m.OverriddenMethods() {
		if o.exported || o.isJsFunctionMethod() {
			return true
		}
	}
	return false
}

// CanBeImplementedExternally reports whether JavaScript may supply m's implementation
func (m *Method) CanBeImplementedExternally() bool {
	return m.IsJsNative() || m.isJsFunctionMethod() || m.isJsInterfaceMethod()
}

func (m *Method) isJsInterfaceMethod() bool {
	return m.isInterfaceMethod() && m.enclosing.IsJsType
}

func (m *Method) isJsFunctionMethod() bool {
	return m.enclosing != nil && m.enclosing.IsJsFunction
}

// IsOrOverridesJsFunctionMethod reports whether m or anything it overrides is
// declared on a JsFunction interface
func (m *Method) IsOrOverridesJsFunctionMethod() bool {
	if m.isJsFunctionMethod() {
		return true
	}
	for _, o := range m.OverriddenMethods() {
		if o.isJsFunctionMethod() {
			return true
		}
	}
	return false
}

// IsJsNative reports whether m has a JS name but no Java implementation
func (m *Method) IsJsNative() bool {
	return (m.isAbstract || m.body == nil) && m.jsName != nil
}

// IsJsOverlay reports whether m is an overlay, explicitly or by living on a JSO type
func (m *Method) IsJsOverlay() bool {
	return m.jsOverlay || (m.enclosing != nil && m.enclosing.IsJso)
}

// JsName returns the effective JS name: m's own name agreed on by every
// method it overrides. A method that declares its own name is also checked
// against the known overriders that declare one, so a renamed override marks
// both sides InvalidJsName. The boolean is false when no method in the
// chain is named.
func (m *Method) JsName() (string, bool) {
	name := m.jsName
	for _, o := range m.OverriddenMethods() {
		if o.jsName == nil {
			continue
		}
		if name != nil && *name != *o.jsName {
			return InvalidJsName, true
		}
		name = o.jsName
	}
	if m.jsName != nil {
		for _, o := range m.KnownOverridingMethods().Methods() {
			if o.jsName != nil && *o.jsName != *m.jsName {
				return InvalidJsName, true
			}
		}
	}
	if name == nil {
		return "", false
	}
	return *name, true
}

// JsNamespace returns m's namespace, defaulting to and caching the enclosing
// type's qualified JS name
func (m *Method) JsNamespace() string {
	if m.jsNamespace == nil {
		if m.enclosing == nil {
			return ""
		}
		ns := m.enclosing.QualifiedJsName()
		m.jsNamespace = m.internPtr(&ns)
	}
	return *m.jsNamespace
}

// QualifiedJsName is the JS path of m: static members hang off the namespace,
// instance members off its prototype. An empty name or namespace is only
// valid for static members.
func (m *Method) QualifiedJsName() (string, error) {
	name, ok := m.JsName()
	if !ok {
		return "", fmt.Errorf("%s: %w", m, ErrNotJsMember)
	}
	namespace := m.JsNamespace()
	switch {
	case name == "":
		if m.NeedsDynamicDispatch() {
			return "", fmt.Errorf("%s: %w", m, ErrDispatchedEntryPoint)
		}
		return namespace, nil
	case namespace == "":
		if m.NeedsDynamicDispatch() {
			return "", fmt.Errorf("%s: %w", m, ErrDispatchedEntryPoint)
		}
		return name, nil
	case m.isStatic:
		return namespace + "." + name, nil
	default:
		return namespace + ".prototype." + name, nil
	}
}

// IsJsConstructor reports whether m is a constructor exported to JavaScript
func (m *Method) IsJsConstructor() bool {
	return m.isConstructor && m.jsName != nil
}

// IsOrOverridesJsMethod reports whether m or anything it overrides has a JS name
func (m *Method) IsOrOverridesJsMethod() bool {
	if m.jsName != nil {
		return true
	}
	for _, o := range m.OverriddenMethods() {
		if o.jsName != nil {
			return true
		}
	}
	return false
}

// ExposesNonJsMethod reports whether m is the first JS method in its hierarchy
// to expose a method that was not a JS method. At most one method along an
// override chain answers true.
func (m *Method) ExposesNonJsMethod() bool {
	return m.exposesNonJsMethod(make(map[*Method]bool))
}

// exposesNonJsMethod answers ExposesNonJsMethod with answers memoized for
// the duration of one query
func (m *Method) exposesNonJsMethod(memo map[*Method]bool) bool {
	if v, ok := memo[m]; ok {
		return v
	}
	exposes := false
	if !m.isInterfaceMethod() && m.IsOrOverridesJsMethod() {
		hasNonJsMethodParent := false
		for _, o := range m.OverriddenMethods() {
			if !o.IsOrOverridesJsMethod() {
				hasNonJsMethodParent = true
			}
			if o.exposesNonJsMethod(memo) {
				hasNonJsMethodParent = false
				break
			}
		}
		exposes = hasNonJsMethodParent
	}
	memo[m] = exposes
	return exposes
}

// ExposesPackagePrivateMethod reports whether m is the first method in its
// class hierarchy to widen the visibility of a package-private method
func (m *Method) ExposesPackagePrivateMethod() bool {
	if m.IsPrivate() || m.IsPackagePrivate() {
		return false
	}

	hasPackageVisibleParent := false
	for _, o := range m.OverriddenMethods() {
		if o.isInterfaceMethod() {
			continue
		}
		if !o.IsPackagePrivate() {
			return false
		}
		hasPackageVisibleParent = true
	}
	return hasPackageVisibleParent
}

// JsPropertyAccessorKind returns m's accessor kind, inherited from the first
// overridden accessor when m declares none
func (m *Method) JsPropertyAccessorKind() PropertyAccessorKind {
	if m.accessorKind.IsPropertyAccessor() {
		return m.accessorKind
	}
	for _, o := range m.OverriddenMethods() {
		if o.accessorKind.IsPropertyAccessor() {
			return o.accessorKind
		}
	}
	return AccessorNone
}
