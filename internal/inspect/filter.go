package inspect

// Filter selects method summaries. Zero fields match everything.
type Filter struct {
	Type       string
	Name       string
	Exported   bool
	EntryPoint bool
	// JsOnly keeps methods with an effective JS name
	JsOnly bool
}

// Match reports whether m passes every set criterion
func (f Filter) Match(m *MethodSummary) bool {
	switch {
	case f.Type != "" && m.Type != f.Type:
		return false
	case f.Name != "" && m.Name != f.Name:
		return false
	case f.Exported && !m.Exported:
		return false
	case f.EntryPoint && !m.EntryPoint:
		return false
	case f.JsOnly && m.JsName == nil:
		return false
	}
	return true
}

// Apply returns the summaries that f matches, in order
func (f Filter) Apply(ms []MethodSummary) []MethodSummary {
	out := make([]MethodSummary, 0, len(ms))
	for i := range ms {
		if f.Match(&ms[i]) {
			out = append(out, ms[i])
		}
	}
	return out
}
