package ast

import "fmt"

// methodSet is an insertion-ordered set of method IDs
type methodSet struct {
	ids   []MethodID
	index map[MethodID]struct{}
}

func (s *methodSet) add(id MethodID) {
	if s.index == nil {
		s.index = make(map[MethodID]struct{})
	}
	if _, ok := s.index[id]; ok {
		return
	}
	s.index[id] = struct{}{}
	s.ids = append(s.ids, id)
}

func (s *methodSet) contains(id MethodID) bool {
	_, ok := s.index[id]
	return ok
}

func (s *methodSet) resolve(p *Program) []*Method {
	if len(s.ids) == 0 {
		return nil
	}
	out := make([]*Method, len(s.ids))
	for i, id := range s.ids {
		out[i] = p.Method(id)
	}
	return out
}

// AddOverriddenMethod records that m overrides other. The caller supplies the
// full transitive closure, most specific first, class methods before
// interface methods.
func (m *Method) AddOverriddenMethod(other *Method) error {
	if err := m.checkOverrideEdge(other); err != nil {
		return err
	}
	m.overridden.add(other.id)
	return nil
}

// AddOverridingMethod records that other overrides m
func (m *Method) AddOverridingMethod(other *Method) error {
	if err := m.checkOverrideEdge(other); err != nil {
		return err
	}
	m.overriding.add(other.id)
	return nil
}

func (m *Method) checkOverrideEdge(other *Method) error {
	if !m.CanBePolymorphic() {
		return fmt.Errorf("%s: %w", m, ErrNotPolymorphic)
	}
	if other == m {
		return fmt.Errorf("%s: %w", m, ErrSelfOverride)
	}
	if other.program == nil || other.program != m.program {
		return fmt.Errorf("%s and %s: %w", m, other, ErrForeignMethod)
	}
	return nil
}

// OverriddenMethods returns every method m overrides, transitively, ordered from
// most to least specific with class methods before interface methods
func (m *Method) OverriddenMethods() []*Method {
	return m.overridden.resolve(m.program)
}

// OverriddenIDs is OverriddenMethods without resolving through the arena
func (m *Method) OverriddenIDs() []MethodID {
	return m.overridden.ids
}

// Overrides reports whether other is in m's overridden closure
func (m *Method) Overrides(other *Method) bool {
	return other.program == m.program && m.overridden.contains(other.id)
}

// KnownOverriders are the overriding methods seen so far. In separate or
// incremental compilation some overriders live in units that were never loaded.
type KnownOverriders struct {
	methods []*Method
}

// Methods returns the known overriders, less specific before more specific
func (k KnownOverriders) Methods() []*Method { return k.methods }

func (k KnownOverriders) Len() int { return len(k.methods) }

// AllOverriders is the complete overriding closure, only obtainable from a
// closed-world program
type AllOverriders struct {
	methods []*Method
}

// Methods returns every overrider, less specific before more specific
func (a AllOverriders) Methods() []*Method { return a.methods }

func (a AllOverriders) Len() int { return len(a.methods) }

// IsEffectivelyFinal reports whether nothing overrides the method
func (a AllOverriders) IsEffectivelyFinal() bool { return len(a.methods) == 0 }

// KnownOverridingMethods returns the overriders recorded on m
func (m *Method) KnownOverridingMethods() KnownOverriders {
	return KnownOverriders{methods: m.overriding.resolve(m.program)}
}

// OverridingMethods returns the complete overriding closure. It fails with
// ErrOpenWorld unless the program is a closed-world compilation.
func (m *Method) OverridingMethods() (AllOverriders, error) {
	if m.program == nil || !m.program.closedWorld {
		return AllOverriders{}, fmt.Errorf("%s: %w", m, ErrOpenWorld)
	}
	return AllOverriders{methods: m.overriding.resolve(m.program)}, nil
}

// OverridingIDs is the raw recorded overriding set
func (m *Method) OverridingIDs() []MethodID {
	return m.overriding.ids
}
