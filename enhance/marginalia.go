package enhance

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"margo/pattern"
)

const marginaliaPrefix = "[m]"

// marginalia turns [m][voice scale width position][content] spans into aside
// elements placed at the match point and registers them with the activation
// tracker. Parameters are positional, omitted ones fall back to configured
// defaults, out of range values are clamped.
type marginalia struct {
	base
	seq int
}

func newMarginalia() *marginalia {
	return &marginalia{}
}

func (p *marginalia) Name() string { return "marginalia" }
func (p *marginalia) Kind() Kind   { return KindMarginalia }

func (p *marginalia) Process(root *etree.Element) error {
	rewriteText(root, p.rewrite)
	p.pctx.Doc.Reindex()
	return nil
}

func (p *marginalia) rewrite(_ *etree.Element, text string) []etree.Token {
	matches, diags := pattern.FindPatterns(text, marginaliaPrefix, 2)
	for _, d := range diags {
		p.fail(d.Reason + ": " + d.Raw)
		p.pctx.Log.Warn("Malformed marginalia pattern, leaving as is",
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
		aside, err := p.makeAside(m.Config, m.Content)
		if err != nil {
			// failed match stays literal, the rest of the node still processes
			p.fail(err.Error())
			out = append(out, etree.NewText(text[m.Start:m.End]))
			cursor = m.End
			continue
		}
		out = append(out, aside)
		cursor = m.End
	}
	if cursor < len(text) {
		out = append(out, etree.NewText(text[cursor:]))
	}
	return out
}

func (p *marginalia) makeAside(rawCfg, body string) (*etree.Element, error) {
	voice, scale, width, position := p.parseParams(rawCfg)

	aside := etree.NewElement("aside")
	aside.CreateAttr("class", "marginalia")
	aside.CreateAttr(AttrKind, KindMarginalia.String())
	aside.SetText(body)

	inst, err := p.record(KindMarginalia, aside)
	if err != nil {
		return nil, err
	}
	p.seq++
	aside.CreateAttr("id", elementID(body, p.seq))
	aside.CreateAttr("data-marginalia-id", inst.ID)
	aside.CreateAttr("data-voice", strconv.Itoa(voice))
	aside.CreateAttr("data-font-scale", strconv.FormatFloat(scale, 'g', -1, 64))
	aside.CreateAttr("data-width", strconv.Itoa(width))
	aside.CreateAttr("data-position", position)

	// Registration sets data-state and the initial hidden style.
	if _, err := p.pctx.Tracker.Register(inst.ID, aside); err != nil {
		p.fail("unable to register marginalia for activation: " + err.Error())
		p.pctx.Log.Warn("Marginalia not registered for activation",
			zap.String("id", inst.ID), zap.Error(err))
	}
	return aside, nil
}

// parseParams reads the positional "voice scale width position" parameters.
func (p *marginalia) parseParams(raw string) (voice int, scale float64, width int, position string) {
	defs := p.pctx.Cfg.Document.Marginalia
	voice, scale, width, position = defs.DefaultVoice, defs.DefaultFontScale, defs.DefaultWidth, normalizePosition(defs.DefaultPosition)

	fields := strings.Fields(raw)
	if len(fields) > 0 {
		if v, err := strconv.Atoi(fields[0]); err == nil {
			voice = clampInt(v, 1, 6)
		} else {
			p.fail("bad marginalia voice: " + fields[0])
		}
	}
	if len(fields) > 1 {
		if v, err := strconv.ParseFloat(fields[1], 64); err == nil {
			scale = min(max(v, 0.4), 2.5)
		} else {
			p.fail("bad marginalia font scale: " + fields[1])
		}
	}
	if len(fields) > 2 {
		if v, err := strconv.Atoi(fields[2]); err == nil {
			width = clampInt(v, 15, 45)
		} else {
			p.fail("bad marginalia width: " + fields[2])
		}
	}
	if len(fields) > 3 {
		switch strings.ToLower(fields[3]) {
		case "l", "left":
			position = "left"
		case "r", "right":
			position = "right"
		default:
			p.fail("bad marginalia position: " + fields[3])
		}
	}
	return voice, scale, width, position
}

func normalizePosition(s string) string {
	if s == "l" || s == "left" {
		return "left"
	}
	return "right"
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// elementID derives a stable readable id from the note text.
func elementID(body string, seq int) string {
	words := strings.Fields(body)
	if len(words) > 4 {
		words = words[:4]
	}
	s := slug.Make(strings.Join(words, " "))
	if s == "" {
		s = "note"
	}
	return s + "-" + strconv.Itoa(seq)
}
