package persist

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/QTest-hq/jjsast/pkg/ast"
)

// EncodeOptions stamps snapshot metadata
type EncodeOptions struct {
	Name           string
	SourceRevision string
}

type encoder struct {
	p    *ast.Program
	s    *Snapshot
	refs map[*ast.Method]int
	null int
}

// Encode serializes p
func Encode(p *ast.Program, opts EncodeOptions) (*Snapshot, error) {
	e := &encoder{
		p: p,
		s: &Snapshot{
			SchemaVersion:  SchemaVersion,
			ID:             uuid.New().String(),
			Name:           opts.Name,
			SourceRevision: opts.SourceRevision,
			ClosedWorld:    p.ClosedWorld(),
			CreatedAt:      time.Now().UTC(),
			Types:          make([]TypeRecord, 0, len(p.Types())),
			Methods:        make([]MethodRecord, 0, len(p.Methods())),
			Bodies:         make([]BodyRecord, 0),
		},
		refs: make(map[*ast.Method]int, len(p.Methods())),
		null: -1,
	}

	for _, t := range p.Types() {
		e.s.Types = append(e.s.Types, encodeType(t))
	}

	for i, m := range p.Methods() {
		e.refs[m] = i
		e.s.Methods = append(e.s.Methods, MethodRecord{})
	}
	for i, m := range p.Methods() {
		rec, err := e.encodeMethod(m)
		if err != nil {
			return nil, err
		}
		e.s.Methods[i] = rec
	}

	for i, m := range p.Methods() {
		if m.IsExternal() || m.Body() == nil {
			continue
		}
		e.s.Bodies = append(e.s.Bodies, encodeBody(i, m.Body()))
	}

	return e.s, nil
}

func encodeType(t *ast.Type) TypeRecord {
	rec := TypeRecord{
		Name:         t.Name,
		Kind:         t.Kind.String(),
		Super:        typeRef(t.Super),
		JsNamespace:  t.JsNamespace,
		JsName:       t.JsName,
		IsJsType:     t.IsJsType,
		IsJsFunction: t.IsJsFunction,
		IsJsNative:   t.IsJsNative,
		IsJso:        t.IsJso,
		External:     t.External,
	}
	for _, iface := range t.Interfaces {
		rec.Interfaces = append(rec.Interfaces, typeRef(iface))
	}
	return rec
}

func typeRef(t *ast.Type) string {
	if t == nil {
		return ""
	}
	return t.Name
}

func typeRefs(ts []*ast.Type) []string {
	if ts == nil {
		return nil
	}
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = typeRef(t)
	}
	return out
}

// ref returns the record index of m, appending the null marker on first use
func (e *encoder) ref(m *ast.Method) (int, error) {
	if i, ok := e.refs[m]; ok {
		return i, nil
	}
	if m.IsNullMethod() {
		if e.null < 0 {
			e.null = len(e.s.Methods)
			e.s.Methods = append(e.s.Methods, MethodRecord{Kind: RecordNull})
		}
		return e.null, nil
	}
	return 0, fmt.Errorf("%s: %w", m, ErrForeignMethod)
}

func (e *encoder) refList(ms []*ast.Method) ([]int, error) {
	if len(ms) == 0 {
		return nil, nil
	}
	out := make([]int, len(ms))
	for i, m := range ms {
		r, err := e.ref(m)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

func (e *encoder) encodeMethod(m *ast.Method) (MethodRecord, error) {
	if m.IsExternal() {
		return MethodRecord{
			Kind: RecordExternal,
			External: &ExternalRef{
				Enclosing: m.EnclosingType().Name,
				Signature: m.Signature(),
				Static:    m.IsStatic(),
			},
		}, nil
	}

	fm := &FullMethod{
		Origin:             m.Origin(),
		Name:               m.Name(),
		Enclosing:          typeRef(m.EnclosingType()),
		Constructor:        m.IsConstructor(),
		Access:             m.Access().String(),
		Static:             m.IsStatic(),
		Abstract:           m.IsAbstract(),
		Final:              m.IsFinal(),
		ReturnType:         typeRef(m.ReturnType()),
		Thrown:             typeRefs(m.ThrownExceptions()),
		Frozen:             m.TypesFrozen(),
		Exported:           m.IsExported(),
		NoDevirtualization: !m.IsDevirtualizationAllowed(),
		NoSideEffects:      !m.HasSideEffects(),
		DefaultMethod:      m.IsDefaultMethod(),
		Synthetic:          m.IsSynthetic(),
		Forwarding:         m.IsForwarding(),
		JsOverlay:          m.DeclaredJsOverlay(),
		AccidentalOverride: m.IsSyntheticAccidentalOverride(),
		SuppressedWarnings: m.SuppressedWarnings(),
	}
	if len(fm.Thrown) == 0 {
		fm.Thrown = nil
	}
	if fm.Frozen {
		fm.OriginalReturnType = typeRef(m.OriginalReturnType())
		fm.OriginalParamTypes = typeRefs(m.OriginalParamTypes())
	}
	for _, param := range m.Params() {
		fm.Params = append(fm.Params, ParamRecord{
			Name:    param.Name,
			Type:    typeRef(param.Type),
			Final:   param.IsFinal,
			Varargs: param.IsVarargs,
			Origin:  param.Origin,
		})
	}

	if name, ok := m.DeclaredJsName(); ok {
		fm.JsName = &name
	}
	if ns, ok := m.DeclaredJsNamespace(); ok {
		fm.JsNamespace = &ns
	}
	if kind := m.DeclaredPropertyAccessorKind(); kind.IsPropertyAccessor() {
		fm.Accessor = kind.String()
	}
	if mode := m.InliningMode(); mode != ast.InliningNormal {
		fm.Inlining = mode.String()
	}

	var err error
	if fm.Overridden, err = e.refList(m.OverriddenMethods()); err != nil {
		return MethodRecord{}, err
	}
	if fm.Overriding, err = e.refList(m.KnownOverridingMethods().Methods()); err != nil {
		return MethodRecord{}, err
	}

	if spec := m.Specialization(); spec != nil {
		sr := &SpecializationRecord{
			Params:  typeRefs(spec.Params()),
			Returns: typeRef(spec.Returns()),
			Target:  spec.Target(),
		}
		if target := spec.TargetMethod(); target != nil {
			r, err := e.ref(target)
			if err != nil {
				return MethodRecord{}, err
			}
			sr.TargetRef = &r
		}
		fm.Specialization = sr
	}

	return MethodRecord{Kind: RecordMethod, Method: fm}, nil
}

func encodeBody(method int, body ast.Body) BodyRecord {
	switch b := body.(type) {
	case *ast.JsniMethodBody:
		return BodyRecord{Method: method, Kind: BodyJsni, Origin: b.Origin, Params: b.Params, Code: b.Code}
	case *ast.MethodBody:
		return BodyRecord{Method: method, Kind: BodyJava, Origin: b.Origin, Source: b.Source}
	}
	return BodyRecord{Method: method, Kind: BodyJava}
}
