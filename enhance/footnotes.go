package enhance

import (
	"fmt"
	"sort"
	"strings"

	"github.com/beevik/etree"
	"github.com/maruel/natural"
	"go.uber.org/zap"

	"margo/pattern"
)

// backlinkSym is what readers click in the footnote section to get back to
// the reference point.
const backlinkSym = "<<"

// footnotes turns [^N] references into anchored superscripts and collects
// [^N]: definition paragraphs into a trailing footnotes section with
// backlinks. A reference without a matching definition stays literal.
type footnotes struct {
	base
	defs map[string]*etree.Element // label -> definition paragraph
	refs map[string]int            // label -> reference count
}

func newFootnotes() *footnotes {
	return &footnotes{}
}

func (p *footnotes) Name() string { return "footnotes" }
func (p *footnotes) Kind() Kind   { return KindFootnote }

func (p *footnotes) Init(pctx *Context) error {
	if err := p.base.Init(pctx); err != nil {
		return err
	}
	p.defs = make(map[string]*etree.Element)
	p.refs = make(map[string]int)
	return nil
}

func (p *footnotes) Cleanup() error {
	p.defs = nil
	p.refs = nil
	return p.base.Cleanup()
}

func (p *footnotes) Process(root *etree.Element) error {
	p.collectDefinitions()
	rewriteText(root, p.rewrite)
	p.buildSection(root)
	return nil
}

// collectDefinitions finds paragraphs of the form "[^N]: text". They stay in
// place until buildSection moves them, so an aborted run leaves the page
// intact.
func (p *footnotes) collectDefinitions() {
	for _, par := range p.pctx.Doc.Paragraphs() {
		if label, ok := definitionLabel(par.Text()); ok {
			if _, dup := p.defs[label]; dup {
				p.fail(fmt.Sprintf("duplicate footnote definition [^%s]", label))
				continue
			}
			p.defs[label] = par
		}
	}
}

func (p *footnotes) rewrite(parent *etree.Element, text string) []etree.Token {
	if parent.Tag == "p" {
		if _, ok := definitionLabel(parent.Text()); ok {
			return nil
		}
	}

	var out []etree.Token
	cursor := 0
	for _, m := range pattern.FindRefs(text, '^') {
		label := m.Content
		if !validLabel(label) {
			continue
		}
		if _, defined := p.defs[label]; !defined {
			p.fail(fmt.Sprintf("footnote reference [^%s] has no definition", label))
			p.pctx.Log.Warn("Footnote reference without definition, leaving as is",
				zap.String("label", label), zap.String("source", p.pctx.Doc.SrcName))
			continue
		}

		if cursor < m.Start {
			out = append(out, etree.NewText(text[cursor:m.Start]))
		}
		el, err := p.makeRef(label)
		if err != nil {
			// failed match stays literal, the rest of the node still processes
			p.fail(err.Error())
			out = append(out, etree.NewText(text[m.Start:m.End]))
			cursor = m.End
			continue
		}
		out = append(out, el)
		cursor = m.End
	}
	if out == nil {
		return nil
	}
	if cursor < len(text) {
		out = append(out, etree.NewText(text[cursor:]))
	}
	return out
}

func (p *footnotes) makeRef(label string) (*etree.Element, error) {
	sup := etree.NewElement("sup")
	sup.CreateAttr("class", "footnote-ref")
	sup.CreateAttr(AttrKind, KindFootnote.String())

	a := sup.CreateElement("a")
	a.CreateAttr("href", "#fn-"+label)
	p.refs[label]++
	if p.refs[label] == 1 {
		// Backlink target, only the first reference gets it.
		a.CreateAttr("id", "fnref-"+label)
	}
	a.SetText(label)

	inst, err := p.record(KindFootnote, sup)
	if err != nil {
		return nil, err
	}
	sup.CreateAttr("data-footnote-id", inst.ID)
	sup.CreateAttr("data-ref", label)
	return sup, nil
}

// buildSection moves definition paragraphs into a trailing footnotes section
// in natural label order.
func (p *footnotes) buildSection(root *etree.Element) {
	var labels []string
	for label := range p.defs {
		if p.refs[label] > 0 {
			labels = append(labels, label)
		}
	}
	if len(labels) == 0 {
		return
	}
	sort.Sort(natural.StringSlice(labels))

	section := root.CreateElement("section")
	section.CreateAttr("class", "footnotes")
	section.CreateAttr(AttrKind, KindFootnote.String())

	for _, label := range labels {
		par := p.defs[label]
		if parent := par.Parent(); parent != nil {
			parent.RemoveChild(par)
		}

		_, body, _ := strings.Cut(par.Text(), ":")

		fn := section.CreateElement("p")
		fn.CreateAttr("id", "fn-"+label)
		back := fn.CreateElement("a")
		back.CreateAttr("class", "footnote-backlink")
		back.CreateAttr("href", "#fnref-"+label)
		back.SetText(backlinkSym)
		back.SetTail(" " + strings.TrimSpace(body))
	}
	p.pctx.Doc.Reindex()
}

// definitionLabel recognizes "[^N]: rest" paragraphs.
func definitionLabel(text string) (string, bool) {
	text = strings.TrimSpace(text)
	rest, ok := strings.CutPrefix(text, "[^")
	if !ok {
		return "", false
	}
	label, rest, ok := strings.Cut(rest, "]")
	if !ok || !strings.HasPrefix(rest, ":") || !validLabel(label) {
		return "", false
	}
	return label, true
}

func validLabel(label string) bool {
	if label == "" {
		return false
	}
	for _, r := range label {
		if (r < '0' || r > '9') && (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
