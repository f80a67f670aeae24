// Package persist serializes programs into snapshots and reads them back.
//
// Methods defined in the program are written in full. Methods of external
// types are written as a reference (enclosing type, signature, static) and
// come back as bare stubs to be stitched against a later compilation. The
// NullMethod placeholder is written as a marker and decodes to the same
// process-wide instance. Bodies follow all types and methods in their own
// section so every reference they carry is already resolvable.
package persist

import (
	"errors"
	"time"

	"github.com/QTest-hq/jjsast/pkg/ast"
)

// SchemaVersion is bumped on every incompatible snapshot change
const SchemaVersion = 1

var (
	// ErrSchemaVersion is returned for snapshots written by another schema
	ErrSchemaVersion = errors.New("unsupported snapshot schema version")
	// ErrBadReference is returned when a record refers to a missing method or type
	ErrBadReference = errors.New("dangling snapshot reference")
	// ErrForeignMethod is returned when encoding meets a method of another program
	ErrForeignMethod = errors.New("method belongs to another program")
)

// Snapshot is the serialized form of a program
type Snapshot struct {
	SchemaVersion  int            `json:"schema_version" yaml:"schema_version"`
	ID             string         `json:"id" yaml:"id"`
	Name           string         `json:"name,omitempty" yaml:"name,omitempty"`
	SourceRevision string         `json:"source_revision,omitempty" yaml:"source_revision,omitempty"`
	ClosedWorld    bool           `json:"closed_world" yaml:"closed_world"`
	CreatedAt      time.Time      `json:"created_at" yaml:"created_at"`
	Types          []TypeRecord   `json:"types" yaml:"types"`
	Methods        []MethodRecord `json:"methods" yaml:"methods"`
	Bodies         []BodyRecord   `json:"bodies" yaml:"bodies"`
}

// TypeRecord is a declared or external type. Array and primitive types are
// not recorded; references spell them by name ("int", "java.lang.String[]").
type TypeRecord struct {
	Name         string   `json:"name" yaml:"name"`
	Kind         string   `json:"kind" yaml:"kind"`
	Super        string   `json:"super,omitempty" yaml:"super,omitempty"`
	Interfaces   []string `json:"interfaces,omitempty" yaml:"interfaces,omitempty"`
	JsNamespace  string   `json:"js_namespace,omitempty" yaml:"js_namespace,omitempty"`
	JsName       string   `json:"js_name,omitempty" yaml:"js_name,omitempty"`
	IsJsType     bool     `json:"js_type,omitempty" yaml:"js_type,omitempty"`
	IsJsFunction bool     `json:"js_function,omitempty" yaml:"js_function,omitempty"`
	IsJsNative   bool     `json:"js_native,omitempty" yaml:"js_native,omitempty"`
	IsJso        bool     `json:"jso,omitempty" yaml:"jso,omitempty"`
	External     bool     `json:"external,omitempty" yaml:"external,omitempty"`
}

// RecordKind tags the shape of a MethodRecord
type RecordKind string

const (
	RecordMethod   RecordKind = "method"
	RecordExternal RecordKind = "external"
	RecordNull     RecordKind = "null"
)

// MethodRecord is one of three shapes selected by Kind. Other records refer
// to it by its index in Snapshot.Methods.
type MethodRecord struct {
	Kind     RecordKind   `json:"kind" yaml:"kind"`
	Method   *FullMethod  `json:"method,omitempty" yaml:"method,omitempty"`
	External *ExternalRef `json:"external,omitempty" yaml:"external,omitempty"`
}

// ExternalRef identifies a method defined in another compilation unit
type ExternalRef struct {
	Enclosing string `json:"enclosing" yaml:"enclosing"`
	Signature string `json:"signature" yaml:"signature"`
	Static    bool   `json:"static,omitempty" yaml:"static,omitempty"`
}

// FullMethod carries every attribute of a method defined in the program
type FullMethod struct {
	Origin      ast.Origin    `json:"origin" yaml:"origin"`
	Name        string        `json:"name" yaml:"name"`
	Enclosing   string        `json:"enclosing" yaml:"enclosing"`
	Constructor bool          `json:"constructor,omitempty" yaml:"constructor,omitempty"`
	Access      string        `json:"access" yaml:"access"`
	Static      bool          `json:"static,omitempty" yaml:"static,omitempty"`
	Abstract    bool          `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Final       bool          `json:"final,omitempty" yaml:"final,omitempty"`
	ReturnType  string        `json:"return_type" yaml:"return_type"`
	Params      []ParamRecord `json:"params,omitempty" yaml:"params,omitempty"`
	Thrown      []string      `json:"thrown,omitempty" yaml:"thrown,omitempty"`

	// Frozen original types; absent until frozen
	OriginalReturnType string   `json:"original_return_type,omitempty" yaml:"original_return_type,omitempty"`
	OriginalParamTypes []string `json:"original_param_types,omitempty" yaml:"original_param_types,omitempty"`
	Frozen             bool     `json:"frozen,omitempty" yaml:"frozen,omitempty"`

	Overridden []int `json:"overridden,omitempty" yaml:"overridden,omitempty"`
	Overriding []int `json:"overriding,omitempty" yaml:"overriding,omitempty"`

	JsName      *string `json:"js_name,omitempty" yaml:"js_name,omitempty"`
	JsNamespace *string `json:"js_namespace,omitempty" yaml:"js_namespace,omitempty"`
	Exported    bool    `json:"exported,omitempty" yaml:"exported,omitempty"`
	Accessor    string  `json:"accessor,omitempty" yaml:"accessor,omitempty"`

	Inlining           string                `json:"inlining,omitempty" yaml:"inlining,omitempty"`
	NoDevirtualization bool                  `json:"no_devirtualization,omitempty" yaml:"no_devirtualization,omitempty"`
	NoSideEffects      bool                  `json:"no_side_effects,omitempty" yaml:"no_side_effects,omitempty"`
	DefaultMethod      bool                  `json:"default_method,omitempty" yaml:"default_method,omitempty"`
	Synthetic          bool                  `json:"synthetic,omitempty" yaml:"synthetic,omitempty"`
	Forwarding         bool                  `json:"forwarding,omitempty" yaml:"forwarding,omitempty"`
	JsOverlay          bool                  `json:"js_overlay,omitempty" yaml:"js_overlay,omitempty"`
	AccidentalOverride bool                  `json:"accidental_override,omitempty" yaml:"accidental_override,omitempty"`
	SuppressedWarnings []string              `json:"suppressed_warnings,omitempty" yaml:"suppressed_warnings,omitempty"`
	Specialization     *SpecializationRecord `json:"specialization,omitempty" yaml:"specialization,omitempty"`
}

// ParamRecord is a formal parameter
type ParamRecord struct {
	Name    string     `json:"name" yaml:"name"`
	Type    string     `json:"type" yaml:"type"`
	Final   bool       `json:"final,omitempty" yaml:"final,omitempty"`
	Varargs bool       `json:"varargs,omitempty" yaml:"varargs,omitempty"`
	Origin  ast.Origin `json:"origin" yaml:"origin"`
}

// SpecializationRecord is a redirect; TargetRef is set once resolved
type SpecializationRecord struct {
	Params    []string `json:"params,omitempty" yaml:"params,omitempty"`
	Returns   string   `json:"returns,omitempty" yaml:"returns,omitempty"`
	Target    string   `json:"target" yaml:"target"`
	TargetRef *int     `json:"target_ref,omitempty" yaml:"target_ref,omitempty"`
}

// BodyKind tags a BodyRecord
type BodyKind string

const (
	BodyJava BodyKind = "java"
	BodyJsni BodyKind = "jsni"
)

// BodyRecord is the implementation of the method at index Method
type BodyRecord struct {
	Method int        `json:"method" yaml:"method"`
	Kind   BodyKind   `json:"kind" yaml:"kind"`
	Origin ast.Origin `json:"origin" yaml:"origin"`
	Source string     `json:"source,omitempty" yaml:"source,omitempty"`
	Params []string   `json:"params,omitempty" yaml:"params,omitempty"`
	Code   string     `json:"code,omitempty" yaml:"code,omitempty"`
}
