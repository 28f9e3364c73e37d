// Package redact replaces labelled PHI values in single lines of text.
package redact

import (
	"github.com/dlclark/regexp2"
)

// Counts maps a pattern label to the number of values replaced for it.
type Counts map[string]int

// Total sums all labels.
func (c Counts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// Add merges other into c.
func (c Counts) Add(other Counts) {
	for k, v := range other {
		c[k] += v
	}
}

// Redactor is safe for concurrent use; it holds no mutable state.
type Redactor struct {
	patterns []Pattern
	re       *regexp2.Regexp
}

var shared = New()

// New compiles the built-in pattern set.
func New() *Redactor {
	patterns := Patterns()
	return &Redactor{
		patterns: patterns,
		re:       regexp2.MustCompile(buildExpression(patterns), regexp2.None),
	}
}

// Default returns the process-wide redactor.
func Default() *Redactor {
	return shared
}

// Redact applies the default redactor to line.
func Redact(line string) string {
	return shared.Redact(line)
}

// Patterns returns a copy of the redactor's pattern set in match order.
func (r *Redactor) Patterns() []Pattern {
	out := make([]Pattern, len(r.patterns))
	copy(out, r.patterns)
	return out
}

// Redact returns line with every labelled value replaced by Marker.
func (r *Redactor) Redact(line string) string {
	if line == "" {
		return line
	}
	out, err := r.re.Replace(line, Marker, -1, -1)
	if err != nil {
		// Only a match timeout can fail here; never emit the original text.
		return Marker
	}
	return out
}

// RedactCounted is Redact plus a per-label count of replaced values.
func (r *Redactor) RedactCounted(line string) (string, Counts) {
	counts := Counts{}
	if line == "" {
		return line, counts
	}
	out, err := r.re.ReplaceFunc(line, func(m regexp2.Match) string {
		counts[r.labelFor(m)]++
		return Marker
	}, -1, -1)
	if err != nil {
		return Marker, Counts{"": 1}
	}
	return out, counts
}

// Contains reports whether line carries at least one labelled value.
func (r *Redactor) Contains(line string) bool {
	if line == "" {
		return false
	}
	ok, err := r.re.MatchString(line)
	return err == nil && ok
}

func (r *Redactor) labelFor(m regexp2.Match) string {
	for i, p := range r.patterns {
		g := m.GroupByNumber(i + 1)
		if g != nil && len(g.Captures) > 0 {
			return p.Label
		}
	}
	return ""
}
