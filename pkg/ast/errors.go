package ast

import "errors"

// Contract violations. They indicate a compiler defect and abort the current pass.
var (
	ErrTypesFrozen            = errors.New("param types already frozen")
	ErrNotPolymorphic         = errors.New("method is not polymorphic")
	ErrSelfOverride           = errors.New("method cannot override itself")
	ErrForeignMethod          = errors.New("methods belong to different programs")
	ErrIncompatibleResolution = errors.New("resolution data does not replace existing types")
	ErrOpenWorld              = errors.New("overriding methods are incomplete outside closed-world compilation")
	ErrDispatchedEntryPoint   = errors.New("instance method cannot be exported without a namespace and name")
	ErrNotJsMember            = errors.New("method has no JS name")
)
