package utils

// FieldRule binds a pattern to the record field it fills.
type FieldRule[R any] struct {
	Pattern FieldPattern
	Assign  func(rec *R, value string)
}

// FieldTable is a declarative list of field rules for one record type.
// Build it once at package level with Add and reuse it for every document.
type FieldTable[R any] struct {
	rules []FieldRule[R]
}

func NewFieldTable[R any]() *FieldTable[R] {
	return &FieldTable[R]{}
}

// Add registers a case-insensitive, multi-line pattern under label.
func (t *FieldTable[R]) Add(label, expr string, assign func(rec *R, value string)) *FieldTable[R] {
	return t.AddPattern(MustFieldPattern(label, expr), assign)
}

// AddPattern registers an already compiled pattern.
func (t *FieldTable[R]) AddPattern(p FieldPattern, assign func(rec *R, value string)) *FieldTable[R] {
	t.rules = append(t.rules, FieldRule[R]{Pattern: p, Assign: assign})
	return t
}

// Labels lists the registered field paths in registration order.
func (t *FieldTable[R]) Labels() []string {
	labels := make([]string, 0, len(t.rules))
	for _, r := range t.rules {
		labels = append(labels, r.Pattern.Label)
	}
	return labels
}

// Apply resolves every rule against text, writes the values into rec and
// returns the per-field outcomes in registration order.
func (t *FieldTable[R]) Apply(text string, rec *R) []ExtractedField {
	fields := make([]ExtractedField, 0, len(t.rules))
	for _, r := range t.rules {
		f := FindField(r.Pattern, text)
		r.Assign(rec, f.Value)
		fields = append(fields, f)
	}
	return fields
}

// CountFound returns how many outcomes matched.
func CountFound(fields []ExtractedField) int {
	n := 0
	for _, f := range fields {
		if f.Found {
			n++
		}
	}
	return n
}
