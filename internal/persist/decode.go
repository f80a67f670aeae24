package persist

import (
	"fmt"
	"strings"

	"github.com/QTest-hq/jjsast/pkg/ast"
)

type decoder struct {
	s       *Snapshot
	p       *ast.Program
	methods []*ast.Method
}

// Decode rebuilds a program from s. The snapshot's closed-world flag applies
// unless opts override it.
func Decode(s *Snapshot, opts ...ast.Option) (*ast.Program, error) {
	if s.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("schema %d (want %d): %w", s.SchemaVersion, SchemaVersion, ErrSchemaVersion)
	}

	d := &decoder{
		s:       s,
		p:       ast.NewProgram(append([]ast.Option{ast.WithClosedWorld(s.ClosedWorld)}, opts...)...),
		methods: make([]*ast.Method, len(s.Methods)),
	}

	steps := []func() error{
		d.declareTypes,
		d.linkTypes,
		d.declareMethods,
		d.linkOverrides,
		d.attachSpecializations,
		d.attachBodies,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return d.p, nil
}

func (d *decoder) declareTypes() error {
	for _, rec := range d.s.Types {
		kind, err := ast.ParseTypeKind(rec.Kind)
		if err != nil {
			return fmt.Errorf("type %s: %w", rec.Name, err)
		}
		d.p.AddType(&ast.Type{
			Name:         rec.Name,
			Kind:         kind,
			JsNamespace:  rec.JsNamespace,
			JsName:       rec.JsName,
			IsJsType:     rec.IsJsType,
			IsJsFunction: rec.IsJsFunction,
			IsJsNative:   rec.IsJsNative,
			IsJso:        rec.IsJso,
			External:     rec.External,
		})
	}
	return nil
}

func (d *decoder) linkTypes() error {
	for _, rec := range d.s.Types {
		t, _ := d.p.Type(rec.Name)
		super, err := d.typeRef(rec.Super)
		if err != nil {
			return err
		}
		t.Super = super
		if t.Interfaces, err = d.typeRefs(rec.Interfaces); err != nil {
			return err
		}
	}
	return nil
}

// typeRef resolves a type name. Names that are neither primitive, array nor
// recorded come back as external class references.
func (d *decoder) typeRef(name string) (*ast.Type, error) {
	if name == "" {
		return nil, nil
	}
	if t, ok := ast.PrimitiveByName(name); ok {
		return t, nil
	}
	if name == ast.NullType.Name {
		return ast.NullType, nil
	}
	if elem, ok := strings.CutSuffix(name, "[]"); ok {
		et, err := d.typeRef(elem)
		if err != nil {
			return nil, err
		}
		if et == nil {
			return nil, fmt.Errorf("array type %q: %w", name, ErrBadReference)
		}
		return d.p.ArrayOf(et), nil
	}
	return d.p.ExternalType(name), nil
}

func (d *decoder) typeRefs(names []string) ([]*ast.Type, error) {
	if names == nil {
		return nil, nil
	}
	out := make([]*ast.Type, len(names))
	for i, name := range names {
		t, err := d.typeRef(name)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

func (d *decoder) method(ref int) (*ast.Method, error) {
	if ref < 0 || ref >= len(d.methods) || d.methods[ref] == nil {
		return nil, fmt.Errorf("method ref %d: %w", ref, ErrBadReference)
	}
	return d.methods[ref], nil
}

func (d *decoder) declareMethods() error {
	for i, rec := range d.s.Methods {
		var (
			m   *ast.Method
			err error
		)
		switch rec.Kind {
		case RecordNull:
			m = ast.NullMethod()
		case RecordExternal:
			m, err = d.declareExternal(rec.External)
		case RecordMethod:
			m, err = d.declareFull(rec.Method)
		default:
			err = fmt.Errorf("unknown record kind %q", rec.Kind)
		}
		if err != nil {
			return fmt.Errorf("method record %d: %w", i, err)
		}
		d.methods[i] = m
	}
	return nil
}

func (d *decoder) declareExternal(ref *ExternalRef) (*ast.Method, error) {
	if ref == nil {
		return nil, fmt.Errorf("missing external reference: %w", ErrBadReference)
	}
	enclosing, ok := d.p.Type(ref.Enclosing)
	if !ok {
		enclosing = d.p.ExternalType(ref.Enclosing)
	}
	return d.p.NewExternalMethod(enclosing, ref.Signature, ref.Static)
}

func (d *decoder) declareFull(fm *FullMethod) (*ast.Method, error) {
	if fm == nil {
		return nil, fmt.Errorf("missing method body record: %w", ErrBadReference)
	}
	enclosing, ok := d.p.Type(fm.Enclosing)
	if !ok {
		return nil, fmt.Errorf("%s: enclosing type %q: %w", fm.Name, fm.Enclosing, ErrBadReference)
	}
	access, err := ast.ParseAccess(fm.Access)
	if err != nil {
		return nil, err
	}
	ret, err := d.typeRef(fm.ReturnType)
	if err != nil {
		return nil, err
	}

	var m *ast.Method
	if fm.Constructor {
		m = d.p.NewConstructor(fm.Origin, enclosing, access)
	} else {
		m = d.p.NewMethod(fm.Origin, fm.Name, enclosing, ret, fm.Abstract, fm.Static, fm.Final, access)
	}

	for _, pr := range fm.Params {
		pt, err := d.typeRef(pr.Type)
		if err != nil {
			return nil, err
		}
		param := ast.NewParameter(pr.Origin, pr.Name, pt)
		param.IsFinal = pr.Final
		param.IsVarargs = pr.Varargs
		m.AddParam(param)
	}
	thrown, err := d.typeRefs(fm.Thrown)
	if err != nil {
		return nil, err
	}
	m.AddThrownExceptions(thrown)

	if fm.Frozen {
		origRet, err := d.typeRef(fm.OriginalReturnType)
		if err != nil {
			return nil, err
		}
		origParams, err := d.typeRefs(fm.OriginalParamTypes)
		if err != nil {
			return nil, err
		}
		if err := m.SetOriginalTypes(origRet, origParams); err != nil {
			return nil, err
		}
	}

	if err := applyFlags(m, fm); err != nil {
		return nil, fmt.Errorf("%s: %w", m, err)
	}

	if fm.JsName != nil || fm.JsNamespace != nil || fm.Exported {
		m.SetJsMemberInfo(fm.JsNamespace, fm.JsName, fm.Exported)
	}
	if fm.Accessor != "" {
		kind, err := ast.ParsePropertyAccessorKind(fm.Accessor)
		if err != nil {
			return nil, err
		}
		m.SetJsPropertyInfo(fm.JsName, kind)
	}
	return m, nil
}

func applyFlags(m *ast.Method, fm *FullMethod) error {
	mode, err := ast.ParseInliningMode(fm.Inlining)
	if err != nil {
		return err
	}
	m.SetInliningMode(mode)
	if fm.NoDevirtualization {
		m.DisallowDevirtualization()
	}
	m.SetHasSideEffects(!fm.NoSideEffects)
	if fm.DefaultMethod {
		m.SetDefaultMethod()
	}
	if fm.Synthetic {
		m.SetSynthetic()
	}
	if fm.Forwarding {
		m.SetForwarding()
	}
	if fm.JsOverlay {
		m.SetJsOverlay()
	}
	if fm.AccidentalOverride {
		m.SetSyntheticAccidentalOverride()
	}
	if len(fm.SuppressedWarnings) > 0 {
		m.SetSuppressedWarnings(fm.SuppressedWarnings)
	}
	return nil
}

func (d *decoder) linkOverrides() error {
	for i, rec := range d.s.Methods {
		if rec.Kind != RecordMethod {
			continue
		}
		m := d.methods[i]
		for _, ref := range rec.Method.Overridden {
			o, err := d.method(ref)
			if err != nil {
				return fmt.Errorf("%s overrides: %w", m, err)
			}
			if err := m.AddOverriddenMethod(o); err != nil {
				return err
			}
		}
		for _, ref := range rec.Method.Overriding {
			o, err := d.method(ref)
			if err != nil {
				return fmt.Errorf("%s overridden by: %w", m, err)
			}
			if err := m.AddOverridingMethod(o); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *decoder) attachSpecializations() error {
	for i, rec := range d.s.Methods {
		if rec.Kind != RecordMethod || rec.Method.Specialization == nil {
			continue
		}
		sr := rec.Method.Specialization
		m := d.methods[i]

		params, err := d.typeRefs(sr.Params)
		if err != nil {
			return err
		}
		returns, err := d.typeRef(sr.Returns)
		if err != nil {
			return err
		}
		m.SetSpecialization(params, returns, sr.Target)

		if sr.TargetRef != nil {
			target, err := d.method(*sr.TargetRef)
			if err != nil {
				return fmt.Errorf("%s specialization: %w", m, err)
			}
			m.Specialization().Resolve(params, m.Specialization().Returns(), target)
		}
	}
	return nil
}

func (d *decoder) attachBodies() error {
	for _, rec := range d.s.Bodies {
		m, err := d.method(rec.Method)
		if err != nil {
			return fmt.Errorf("body: %w", err)
		}
		if m.IsNullMethod() || m.IsExternal() {
			return fmt.Errorf("body for %s: %w", m, ErrBadReference)
		}
		switch rec.Kind {
		case BodyJsni:
			m.SetBody(&ast.JsniMethodBody{Origin: rec.Origin, Params: rec.Params, Code: rec.Code})
		case BodyJava, "":
			m.SetBody(&ast.MethodBody{Origin: rec.Origin, Source: rec.Source})
		default:
			return fmt.Errorf("body for %s: unknown kind %q", m, rec.Kind)
		}
	}
	return nil
}
