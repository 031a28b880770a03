package action

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"

	"margo/content"
)

// Selector resolves marker target expressions against the page document.
// Supported forms: "p2" and "p1-3" (1-based paragraph positions), "#some-id"
// and ".some-class". Paragraph bounds outside the page degrade to a partial
// result, anything unresolvable yields no targets.
type Selector struct {
	log *zap.Logger
}

func NewSelector(log *zap.Logger) *Selector {
	return &Selector{log: log}
}

func (s *Selector) Resolve(d *content.Document, expr string) []*etree.Element {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil
	}

	lex := css.NewLexer(parse.NewInputString(expr))
	tt, data := lex.Next()
	switch tt {
	case css.HashToken:
		if id := strings.TrimPrefix(string(data), "#"); id != "" {
			return s.byAttr(d, "id", id)
		}
	case css.DelimToken:
		if len(data) == 1 && data[0] == '.' {
			if nt, name := lex.Next(); nt == css.IdentToken {
				return s.byClass(d, string(name))
			}
		}
	case css.IdentToken:
		if from, to, ok := parseParagraphRange(string(data)); ok {
			return d.ParagraphRange(from, to)
		}
	}

	s.log.Warn("Unresolvable target expression", zap.String("target", expr))
	return nil
}

func (s *Selector) byAttr(d *content.Document, name, value string) []*etree.Element {
	var out []*etree.Element
	walkElements(d.Root, func(e *etree.Element) {
		if e.SelectAttrValue(name, "") == value {
			out = append(out, e)
		}
	})
	return out
}

func (s *Selector) byClass(d *content.Document, class string) []*etree.Element {
	var out []*etree.Element
	walkElements(d.Root, func(e *etree.Element) {
		for _, c := range strings.Fields(e.SelectAttrValue("class", "")) {
			if c == class {
				out = append(out, e)
				return
			}
		}
	})
	return out
}

func walkElements(e *etree.Element, fn func(*etree.Element)) {
	for _, child := range e.ChildElements() {
		fn(child)
		walkElements(child, fn)
	}
}

// parseParagraphRange understands "p2" and "p1-3".
func parseParagraphRange(expr string) (from, to int, ok bool) {
	rest, found := strings.CutPrefix(expr, "p")
	if !found || rest == "" {
		return 0, 0, false
	}
	lo, hi, ranged := strings.Cut(rest, "-")
	from, err := strconv.Atoi(lo)
	if err != nil || from < 1 {
		return 0, 0, false
	}
	if !ranged {
		return from, from, true
	}
	to, err = strconv.Atoi(hi)
	if err != nil || to < 1 {
		return 0, 0, false
	}
	return from, to, true
}
