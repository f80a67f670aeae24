package ast

import (
	"sort"
	"strings"
)

// ComputeSignature builds the canonical signature of a method: its name, the
// JSNI names of its parameter types and either its return type or the
// constructor marker.
func ComputeSignature(name string, params []*Type, returnType *Type, isConstructor bool) string {
	var sb strings.Builder
	sb.WriteString(name)
	sb.WriteByte('(')
	for _, t := range params {
		sb.WriteString(t.JsniSignatureName())
	}
	sb.WriteByte(')')
	if isConstructor {
		sb.WriteString(" <init>")
	} else {
		sb.WriteString(returnType.JsniSignatureName())
	}
	return sb.String()
}

// Signature returns the interned signature computed from the original types.
// It is cached once the original types are frozen; before that it reflects
// the current parameter and return types and is not cached.
func (m *Method) Signature() string {
	if m.signature != "" {
		return m.signature
	}
	if !m.frozen {
		params := make([]*Type, len(m.params))
		for i, p := range m.params {
			params[i] = p.Type
		}
		return ComputeSignature(m.name, params, m.returnType, m.isConstructor)
	}
	sig := ComputeSignature(m.name, m.originalParamTypes, m.originalReturnType, m.isConstructor)
	if m.program != nil {
		sig = m.program.interner.Intern(sig)
	}
	m.signature = sig
	return sig
}

// JsniSignature renders the JSNI reference form "Type::name(params)ret". It
// depends on the flags and is recomputed on every call.
func (m *Method) JsniSignature(includeEnclosingType, includeReturnType bool) string {
	var sb strings.Builder
	if includeEnclosingType {
		sb.WriteString(m.enclosing.Name)
		sb.WriteString("::")
	}
	sb.WriteString(m.name)
	sb.WriteByte('(')
	for _, t := range m.originalParamTypes {
		sb.WriteString(t.JsniSignatureName())
	}
	sb.WriteByte(')')
	if includeReturnType {
		sb.WriteString(m.originalReturnType.JsniSignatureName())
	}
	return sb.String()
}

// BySignature sorts methods by signature
func BySignature(methods []*Method) {
	sort.SliceStable(methods, func(i, j int) bool {
		return methods[i].Signature() < methods[j].Signature()
	})
}

// ParamSignature is the parenthesized parameter part of a signature, used to
// match overriding methods regardless of covariant return types
func ParamSignature(params []*Type) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for _, t := range params {
		sb.WriteString(t.JsniSignatureName())
	}
	sb.WriteByte(')')
	return sb.String()
}
