package ast

import "fmt"

// Access is the declared visibility of a member
type Access uint8

const (
	AccessPublic Access = iota
	AccessProtected
	AccessDefault // package-private
	AccessPrivate
)

var accessNames = [...]string{
	AccessPublic:    "public",
	AccessProtected: "protected",
	AccessDefault:   "default",
	AccessPrivate:   "private",
}

func (a Access) String() string {
	if int(a) < len(accessNames) {
		return accessNames[a]
	}
	return fmt.Sprintf("Access(%d)", a)
}

// IsPackagePrivate reports whether a has no access modifier
func (a Access) IsPackagePrivate() bool {
	return a == AccessDefault
}

// ParseAccess converts a keyword (or "default"/"" for package-private) into an Access
func ParseAccess(s string) (Access, error) {
	switch s {
	case "public":
		return AccessPublic, nil
	case "protected":
		return AccessProtected, nil
	case "default", "package", "":
		return AccessDefault, nil
	case "private":
		return AccessPrivate, nil
	}
	return AccessDefault, fmt.Errorf("unknown access modifier %q", s)
}

// InliningMode is the hint an inliner consumes
type InliningMode uint8

const (
	InliningNormal InliningMode = iota
	InliningDoNotInline
	InliningForceInline
)

func (m InliningMode) String() string {
	switch m {
	case InliningNormal:
		return "normal"
	case InliningDoNotInline:
		return "do_not_inline"
	case InliningForceInline:
		return "force_inline"
	}
	return fmt.Sprintf("InliningMode(%d)", m)
}

// ParseInliningMode is the inverse of InliningMode.String
func ParseInliningMode(s string) (InliningMode, error) {
	switch s {
	case "normal", "":
		return InliningNormal, nil
	case "do_not_inline":
		return InliningDoNotInline, nil
	case "force_inline":
		return InliningForceInline, nil
	}
	return InliningNormal, fmt.Errorf("unknown inlining mode %q", s)
}
