package ast

// Specialization redirects calls of a generic method to a more specific
// target. It is declared with a textual target and later resolved to a
// concrete method.
type Specialization struct {
	params       []*Type
	returns      *Type
	target       string
	targetMethod *Method
}

// Params returns the specialized parameter types
func (s *Specialization) Params() []*Type { return s.params }

// Returns returns the specialized return type
func (s *Specialization) Returns() *Type { return s.returns }

// Target is the declared name of the target method
func (s *Specialization) Target() string { return s.target }

// TargetMethod is nil until Resolve
func (s *Specialization) TargetMethod() *Method { return s.targetMethod }

// IsResolved reports whether Resolve has run
func (s *Specialization) IsResolved() bool { return s.targetMethod != nil }

// Resolve replaces the declared types with resolved ones and binds the target.
// Callers invoke it once per compilation after target resolution.
func (s *Specialization) Resolve(params []*Type, returns *Type, target *Method) {
	s.params = params
	s.returns = returns
	s.targetMethod = target
}

// SetSpecialization declares a specialization on m. A nil returns defaults
// to m's original return type.
func (m *Method) SetSpecialization(params []*Type, returns *Type, target string) {
	if returns == nil {
		returns = m.originalReturnType
	}
	m.specialized = &Specialization{
		params:  params,
		returns: returns,
		target:  target,
	}
}

// Specialization returns the redirect metadata, nil if none
func (m *Method) Specialization() *Specialization { return m.specialized }

// RemoveSpecialization reverts m to a plain method
func (m *Method) RemoveSpecialization() { m.specialized = nil }
