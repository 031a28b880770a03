// Package pattern locates bracket-delimited annotation spans in prose text.
//
// Annotation mini-languages are authored as a literal prefix followed by one
// or two bracketed sections, for example:
//
//	[m][2 1.4 40 right][Edward Said quote]
//	[?][target:p1-3|fade:0.1][Poem text]
//	[+][expanded commentary]
//
// Sections may nest brackets to arbitrary depth, so matching is done with a
// balance counter instead of regular expressions - a regular expression
// cannot express unbounded balanced nesting.
package pattern

// Match is one located, balanced bracket span. Offsets are byte positions in
// the original source text: Start points at the first byte of the prefix and
// End just past the final closing bracket. Offsets stay valid for a single
// replacement pass as long as all matches are collected before any text is
// mutated.
type Match struct {
	Prefix  string
	Config  string // raw config section, empty for single-section patterns
	Content string // raw content section, nested brackets preserved
	Start   int
	End     int
}

// Diagnostic records a prefix occurrence that could not be matched. Malformed
// spans are never fatal: the occurrence is skipped, source text is left
// untouched and scanning resumes after the prefix.
type Diagnostic struct {
	Offset int
	Raw    string
	Reason string
}

const (
	// diagnostic raw text is trimmed to keep logs and reports readable
	maxDiagnosticRaw = 80
)

func clipRaw(text string, from int) string {
	end := min(from+maxDiagnosticRaw, len(text))
	return text[from:end]
}
