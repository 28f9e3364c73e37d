package redact

import "strings"

// Marker replaces every redacted value.
const Marker = "[REDACTED]"

// Pattern pairs a field label with the expression for the value that follows
// it. Label is matched literally and must not contain regex metacharacters.
type Pattern struct {
	Label string
	Value string
}

const (
	LabelPatientName   = "Patient Name"
	LabelDateOfBirth   = "Date of Birth"
	LabelSSN           = "Social Security Number"
	LabelAddress       = "Address"
	LabelPhoneNumber   = "Phone Number"
	LabelEmail         = "Email"
	LabelMedicalRecord = "Medical Record Number"
)

// Order matters: alternatives are tried left to right at each position.
var defaultPatterns = []Pattern{
	{Label: LabelPatientName, Value: `.+`},
	{Label: LabelDateOfBirth, Value: `\d{2}/\d{2}/\d{4}`},
	{Label: LabelSSN, Value: `\d{3}-\d{2}-\d{4}`},
	{Label: LabelAddress, Value: `.+`},
	{Label: LabelPhoneNumber, Value: `\(\d{3}\) \d{3}-\d{4}`},
	{Label: LabelEmail, Value: `\S+@\S+\.\S+`},
	{Label: LabelMedicalRecord, Value: `MRN-\d+`},
}

// Patterns returns a copy of the built-in pattern set in match order.
func Patterns() []Pattern {
	out := make([]Pattern, len(defaultPatterns))
	copy(out, defaultPatterns)
	return out
}

// Expression renders one alternative. The lookbehind keeps the label out of
// the match so only the value is replaced.
func (p Pattern) Expression() string {
	return `(?<=` + p.Label + `:\s)(` + p.Value + `)`
}

func buildExpression(patterns []Pattern) string {
	parts := make([]string, 0, len(patterns))
	for _, p := range patterns {
		parts = append(parts, p.Expression())
	}
	return strings.Join(parts, "|")
}
