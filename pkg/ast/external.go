package ast

import (
	"fmt"
	"strings"
)

var nullMethod = newNullMethod()

func newNullMethod() *Method {
	m := &Method{
		name:           "nullMethod",
		returnType:     NullType,
		isFinal:        true,
		access:         AccessPublic,
		hasSideEffects: true,
		synthetic:      true,
	}
	if err := m.FreezeParamTypes(); err != nil {
		panic(err)
	}
	m.Signature()
	return m
}

// NullMethod returns the process-wide placeholder for "no method". Decoding a
// persisted program yields this same instance, so identity checks against it
// survive a save and reload.
func NullMethod() *Method {
	return nullMethod
}

// IsNullMethod reports whether m is the NullMethod singleton
func (m *Method) IsNullMethod() bool {
	return m == nullMethod
}

// NewExternalMethod creates the bare stub standing in for a method defined in
// another compilation unit. Its name is parsed from the signature; it has no
// body and no override edges until the stitching pass resolves it.
func (p *Program) NewExternalMethod(enclosing *Type, signature string, isStatic bool) (*Method, error) {
	paren := strings.IndexByte(signature, '(')
	if paren <= 0 {
		return nil, fmt.Errorf("malformed method signature %q", signature)
	}
	m := p.NewMethod(UnknownOrigin, signature[:paren], enclosing, nil, false, isStatic, false, AccessPublic)
	m.signature = p.interner.Intern(signature)
	return m, nil
}

// ExternalizedMethod refers to a method of a class that is not part of the
// program yet, creating the external class reference as needed
func (p *Program) ExternalizedMethod(className, signature string, isStatic bool) (*Method, error) {
	return p.NewExternalMethod(p.ExternalType(className), signature, isStatic)
}

// Replaces reports whether m can stand in for original when stitching a new
// compilation into a prior one: they are identical, or original is an
// unresolved external reference to m.
func (m *Method) Replaces(original *Method) bool {
	if m == original {
		return true
	}
	return original.IsExternal() &&
		original.Signature() == m.Signature() &&
		m.enclosing.Replaces(original.enclosing)
}

// Resolve fills in an external reference with the data of the method it
// refers to. Every incoming type must replace the one already recorded.
func (m *Method) Resolve(originalReturnType *Type, originalParamTypes []*Type, returnType *Type, thrown []*Type) error {
	if m.originalReturnType != nil && !originalReturnType.Replaces(m.originalReturnType) {
		return fmt.Errorf("%s: original return type %s: %w", m, originalReturnType, ErrIncompatibleResolution)
	}
	if m.frozen && !ReplacesAll(originalParamTypes, m.originalParamTypes) {
		return fmt.Errorf("%s: original parameter types: %w", m, ErrIncompatibleResolution)
	}
	if m.returnType != nil && !returnType.Replaces(m.returnType) {
		return fmt.Errorf("%s: return type %s: %w", m, returnType, ErrIncompatibleResolution)
	}
	if m.thrown != nil && !ReplacesAll(thrown, m.thrown) {
		return fmt.Errorf("%s: thrown exceptions: %w", m, ErrIncompatibleResolution)
	}

	m.frozen = true
	m.originalReturnType = originalReturnType
	m.originalParamTypes = normalize(originalParamTypes)
	m.returnType = returnType
	m.thrown = normalize(thrown)
	return nil
}
