package pattern

import (
	"strings"
	"testing"
)

func TestFindPatterns_Single(t *testing.T) {
	text := `The [m][2 1.4 40 right][Edward Said quote] continues.`

	matches, diags := FindPatterns(text, "[m]", 2)
	if len(diags) != 0 {
		t.Fatalf("diagnostics = %v, want none", diags)
	}
	if len(matches) != 1 {
		t.Fatalf("len(matches) = %d, want 1", len(matches))
	}

	m := matches[0]
	if m.Config != "2 1.4 40 right" {
		t.Errorf("Config = %q, want %q", m.Config, "2 1.4 40 right")
	}
	if m.Content != "Edward Said quote" {
		t.Errorf("Content = %q, want %q", m.Content, "Edward Said quote")
	}
	if m.Start != 4 {
		t.Errorf("Start = %d, want 4", m.Start)
	}
	if text[m.Start:m.End] != `[m][2 1.4 40 right][Edward Said quote]` {
		t.Errorf("span = %q", text[m.Start:m.End])
	}
	if !strings.HasPrefix(text[:m.Start], "The ") || text[m.End:] != " continues." {
		t.Errorf("surrounding text not preserved: %q / %q", text[:m.Start], text[m.End:])
	}
}

func TestFindPatterns_Nesting(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		content string
	}{
		{"one level", "[+][a[b]]", "a[b]"},
		{"two levels", "[+][a[b[c]]]", "a[b[c]]"},
		{"deep", "[+][" + strings.Repeat("[", 10) + strings.Repeat("]", 10) + "]", strings.Repeat("[", 10) + strings.Repeat("]", 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches, diags := FindPatterns(tt.text, "[+]", 1)
			if len(diags) != 0 {
				t.Fatalf("diagnostics = %v, want none", diags)
			}
			if len(matches) != 1 {
				t.Fatalf("len(matches) = %d, want 1", len(matches))
			}
			if matches[0].Content != tt.content {
				t.Errorf("Content = %q, want %q", matches[0].Content, tt.content)
			}
			if matches[0].Start != 0 || matches[0].End != len(tt.text) {
				t.Errorf("offsets = [%d,%d), want [0,%d)", matches[0].Start, matches[0].End, len(tt.text))
			}
		})
	}
}

func TestFindPatterns_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		reason string
	}{
		{"unterminated first", "text [m][never closes", "unterminated bracket section"},
		{"missing content", "text [m][voice] and nothing else", "missing content section"},
		{"unterminated content", "text [m][1][oops", "unterminated content section"},
		{"unbalanced nesting", "[+][a[b]", "unterminated bracket section"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sections := 2
			if strings.HasPrefix(tt.text, "[+]") {
				sections = 1
			}
			prefix := "[m]"
			if sections == 1 {
				prefix = "[+]"
			}
			matches, diags := FindPatterns(tt.text, prefix, sections)
			if len(matches) != 0 {
				t.Errorf("len(matches) = %d, want 0", len(matches))
			}
			if len(diags) != 1 {
				t.Fatalf("len(diags) = %d, want 1", len(diags))
			}
			if diags[0].Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", diags[0].Reason, tt.reason)
			}
		})
	}
}

func TestFindPatterns_PlainProsePrefix(t *testing.T) {
	// prefix not followed by a bracket is ordinary prose, not a diagnostic
	matches, diags := FindPatterns("we write [m] to mean marginalia", "[m]", 2)
	if len(matches) != 0 || len(diags) != 0 {
		t.Errorf("matches = %v, diags = %v, want none", matches, diags)
	}
}

func TestFindPatterns_Adjacent(t *testing.T) {
	text := "[+][first][+][second]"
	matches, diags := FindPatterns(text, "[+]", 1)
	if len(diags) != 0 {
		t.Fatalf("diagnostics = %v, want none", diags)
	}
	if len(matches) != 2 {
		t.Fatalf("len(matches) = %d, want 2", len(matches))
	}
	if matches[0].Content != "first" || matches[1].Content != "second" {
		t.Errorf("contents = %q, %q", matches[0].Content, matches[1].Content)
	}
	if matches[0].End > matches[1].Start {
		t.Errorf("matches overlap: [%d,%d) and [%d,%d)", matches[0].Start, matches[0].End, matches[1].Start, matches[1].End)
	}
}

func TestFindPatterns_PrefixInsideConsumedSpan(t *testing.T) {
	// the nested [?] sits inside the marginalia content span and must not be
	// matched when scanning for [?] starts after the consumed span
	text := "before [m][1][note with [?][t:p1][inner] inside] after [?][t:p2][real]"

	mm, _ := FindPatterns(text, "[m]", 2)
	if len(mm) != 1 {
		t.Fatalf("len(marginalia) = %d, want 1", len(mm))
	}
	if want := "note with [?][t:p1][inner] inside"; mm[0].Content != want {
		t.Errorf("Content = %q, want %q", mm[0].Content, want)
	}

	// scanning for markers from the top still sees both, but a scan resumed
	// past the marginalia span sees only the free-standing one
	qq, _ := FindPatterns(text[mm[0].End:], "[?]", 2)
	if len(qq) != 1 {
		t.Fatalf("len(markers past span) = %d, want 1", len(qq))
	}
	if qq[0].Content != "real" {
		t.Errorf("Content = %q, want %q", qq[0].Content, "real")
	}
}

func TestFindPatterns_RoundTrip(t *testing.T) {
	// identity replacement of every matched span reproduces the source
	text := "a [m][1][x[y]] b [m][2 0.9][z] c [m] d"
	matches, _ := FindPatterns(text, "[m]", 2)
	if len(matches) != 2 {
		t.Fatalf("len(matches) = %d, want 2", len(matches))
	}

	var sb strings.Builder
	last := 0
	for _, m := range matches {
		sb.WriteString(text[last:m.Start])
		sb.WriteString(text[m.Start:m.End])
		last = m.End
	}
	sb.WriteString(text[last:])
	if sb.String() != text {
		t.Errorf("round trip = %q, want %q", sb.String(), text)
	}
}

func TestFindRefs(t *testing.T) {
	text := "A claim.[^1] Another.[^12] Prose [not a ref] and [^ spaced] and [^unterminated"

	refs := FindRefs(text, '^')
	if len(refs) != 3 {
		t.Fatalf("len(refs) = %d, want 3", len(refs))
	}
	if refs[0].Content != "1" || refs[1].Content != "12" {
		t.Errorf("contents = %q, %q", refs[0].Content, refs[1].Content)
	}
	// label validity is the caller's business, FindRefs only does brackets
	if refs[2].Content != " spaced" {
		t.Errorf("Content = %q, want %q", refs[2].Content, " spaced")
	}
	if text[refs[0].Start:refs[0].End] != "[^1]" {
		t.Errorf("span = %q, want [^1]", text[refs[0].Start:refs[0].End])
	}
}

func TestExtractBracketedSection(t *testing.T) {
	tests := []struct {
		text    string
		start   int
		section string
		next    int
		ok      bool
	}{
		{"[abc]", 1, "abc", 5, true},
		{"[a[b]c]", 1, "a[b]c", 7, true},
		{"[]", 1, "", 2, true},
		{"[abc", 1, "", 0, false},
		{"[a[b]", 1, "", 0, false},
	}

	for _, tt := range tests {
		section, next, ok := extractBracketedSection(tt.text, tt.start)
		if ok != tt.ok || section != tt.section || (ok && next != tt.next) {
			t.Errorf("extractBracketedSection(%q, %d) = (%q, %d, %v), want (%q, %d, %v)",
				tt.text, tt.start, section, next, ok, tt.section, tt.next, tt.ok)
		}
	}
}
