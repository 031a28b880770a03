package enhance

import (
	"github.com/beevik/etree"
	"go.uber.org/zap"

	"margo/pattern"
)

const extensionPrefix = "[+]"

// extensions turns [+][content] spans into collapsed details elements the
// reader can expand in place.
type extensions struct {
	base
}

func newExtensions() *extensions {
	return &extensions{}
}

func (p *extensions) Name() string { return "extensions" }
func (p *extensions) Kind() Kind   { return KindExtension }

func (p *extensions) Process(root *etree.Element) error {
	rewriteText(root, p.rewrite)
	return nil
}

func (p *extensions) rewrite(_ *etree.Element, text string) []etree.Token {
	matches, diags := pattern.FindPatterns(text, extensionPrefix, 1)
	for _, d := range diags {
		p.fail(d.Reason + ": " + d.Raw)
		p.pctx.Log.Warn("Malformed extension pattern, leaving as is",
			zap.String("raw", d.Raw), zap.String("source", p.pctx.Doc.SrcName))
	}
	if len(matches) == 0 {
		return nil
	}

	var out []etree.Token
	cursor := 0
	for _, m := range matches {
		if cursor < m.Start {
			out = append(out, etree.NewText(text[cursor:m.Start]))
		}
		el, err := p.makeDetails(m.Content)
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
	if cursor < len(text) {
		out = append(out, etree.NewText(text[cursor:]))
	}
	return out
}

func (p *extensions) makeDetails(body string) (*etree.Element, error) {
	details := etree.NewElement("details")
	details.CreateAttr("class", "extension")
	details.CreateAttr(AttrKind, KindExtension.String())

	summary := details.CreateElement("summary")
	summary.SetText("+")
	summary.SetTail(body)

	inst, err := p.record(KindExtension, details)
	if err != nil {
		return nil, err
	}
	details.CreateAttr("data-extension-id", inst.ID)
	return details, nil
}
