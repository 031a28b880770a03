package pattern

import (
	"strings"
)

// FindPatterns scans text left to right for the literal prefix (e.g. "[m]")
// and extracts the requested number of bracketed sections after each
// occurrence (1 for "[+]", 2 for "[m]" and "[?]"). Matches are returned in
// source order and never overlap: the scan cursor advances past each fully
// consumed match, so a prefix inside an already consumed content span is not
// matched independently.
//
// A prefix not immediately followed by "[" is plain prose and is skipped
// silently. A prefix whose sections are unterminated or incomplete produces a
// Diagnostic and scanning resumes right after that prefix occurrence.
func FindPatterns(text, prefix string, sections int) ([]Match, []Diagnostic) {
	if sections < 1 || sections > 2 || len(prefix) == 0 {
		return nil, nil
	}

	var (
		matches []Match
		diags   []Diagnostic
	)

	pos := 0
	for {
		rel := strings.Index(text[pos:], prefix)
		if rel < 0 {
			break
		}
		start := pos + rel
		cur := start + len(prefix)

		// first section must open immediately after the prefix, otherwise
		// this is ordinary prose mentioning the prefix
		if cur >= len(text) || text[cur] != '[' {
			pos = start + len(prefix)
			continue
		}

		first, next, ok := extractBracketedSection(text, cur+1)
		if !ok {
			diags = append(diags, Diagnostic{
				Offset: start,
				Raw:    clipRaw(text, start),
				Reason: "unterminated bracket section",
			})
			pos = start + len(prefix)
			continue
		}

		m := Match{Prefix: prefix, Start: start}
		if sections == 1 {
			m.Content = first
			m.End = next
		} else {
			if next >= len(text) || text[next] != '[' {
				diags = append(diags, Diagnostic{
					Offset: start,
					Raw:    clipRaw(text, start),
					Reason: "missing content section",
				})
				pos = start + len(prefix)
				continue
			}
			content, end, ok := extractBracketedSection(text, next+1)
			if !ok {
				diags = append(diags, Diagnostic{
					Offset: start,
					Raw:    clipRaw(text, start),
					Reason: "unterminated content section",
				})
				pos = start + len(prefix)
				continue
			}
			m.Config = first
			m.Content = content
			m.End = end
		}

		matches = append(matches, m)
		pos = m.End
	}

	return matches, diags
}

// FindRefs scans text for single bracket groups whose body starts with
// marker, the form footnote references take ("[^12]"). The group must be
// balanced; Content carries the body without the marker. There are no
// diagnostics here, anything that does not parse is ordinary prose.
func FindRefs(text string, marker byte) []Match {
	var matches []Match

	probe := string([]byte{'[', marker})
	pos := 0
	for {
		rel := strings.Index(text[pos:], probe)
		if rel < 0 {
			break
		}
		start := pos + rel
		section, next, ok := extractBracketedSection(text, start+1)
		if !ok {
			pos = start + len(probe)
			continue
		}
		matches = append(matches, Match{
			Prefix:  probe,
			Content: section[1:],
			Start:   start,
			End:     next,
		})
		pos = next
	}
	return matches
}

// extractBracketedSection returns the text of one balanced bracket section.
// start must point just past an opening "[". The counter begins at 1 (we are
// already inside one open bracket), increments on every "[" and decrements on
// every "]"; the section ends when the counter reaches zero. Only balance
// determines the boundary, so nesting depth is unlimited. The returned next
// index points just past the matched closing bracket. ok is false when the
// text ends before the section closes.
func extractBracketedSection(text string, start int) (section string, next int, ok bool) {
	depth := 1
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return text[start:i], i + 1, true
			}
		}
	}
	return "", 0, false
}
