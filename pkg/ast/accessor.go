package ast

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// InvalidJsName marks a JS name that could not be determined: conflicting
// names across an override chain, or an accessor whose name does not follow
// the getter/setter convention. A later validation pass reports it.
const InvalidJsName = "<invalid>"

// PropertyAccessorKind says whether a method is a JsProperty accessor
type PropertyAccessorKind uint8

const (
	AccessorNone PropertyAccessorKind = iota
	AccessorGetter
	AccessorSetter
	// AccessorUndefined is an accessor that matches neither naming pattern
	AccessorUndefined
)

type accessorRule struct {
	name   string
	key    string
	derive func(*Method) string
}

var accessorRules = map[PropertyAccessorKind]accessorRule{
	AccessorNone:      {name: "none"},
	AccessorGetter:    {name: "getter", key: "get", derive: getterName},
	AccessorSetter:    {name: "setter", key: "set", derive: setterName},
	AccessorUndefined: {name: "undefined"},
}

func (k PropertyAccessorKind) String() string {
	if r, ok := accessorRules[k]; ok {
		return r.name
	}
	return fmt.Sprintf("PropertyAccessorKind(%d)", k)
}

// ParsePropertyAccessorKind is the inverse of PropertyAccessorKind.String
func ParsePropertyAccessorKind(s string) (PropertyAccessorKind, error) {
	if s == "" {
		return AccessorNone, nil
	}
	for k, r := range accessorRules {
		if r.name == s {
			return k, nil
		}
	}
	return AccessorNone, fmt.Errorf("unknown property accessor kind %q", s)
}

// Key returns the accessor prefix ("get", "set"), empty for non-accessors
func (k PropertyAccessorKind) Key() string {
	return accessorRules[k].key
}

// IsPropertyAccessor reports whether k is any accessor kind
func (k PropertyAccessorKind) IsPropertyAccessor() bool {
	return k != AccessorNone
}

// ComputeName derives the JS property name of m for this kind. Kinds without a
// naming convention use the method name.
func (k PropertyAccessorKind) ComputeName(m *Method) string {
	if r, ok := accessorRules[k]; ok && r.derive != nil {
		return r.derive(m)
	}
	return m.name
}

func getterName(m *Method) string {
	if startsWithCamelCase(m.name, "get") {
		return decapitalize(m.name[3:])
	}
	if startsWithCamelCase(m.name, "is") {
		return decapitalize(m.name[2:])
	}
	return InvalidJsName
}

func setterName(m *Method) string {
	if startsWithCamelCase(m.name, "set") {
		return decapitalize(m.name[3:])
	}
	return InvalidJsName
}

func startsWithCamelCase(s, prefix string) bool {
	if len(s) <= len(prefix) || !strings.HasPrefix(s, prefix) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s[len(prefix):])
	return unicode.IsUpper(r)
}

func decapitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}
