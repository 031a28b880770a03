package enhance

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"margo/enhance/action"
	"margo/pattern"
)

const markerPrefix = "[?]"

// markers turns [?][action-config][content] spans into trigger buttons and
// remembers the parsed action for each, Trigger executes it through the
// action engine.
type markers struct {
	base
	actions map[string]markerAction
}

type markerAction struct {
	cfg  action.Config
	body string
}

func newMarkers() *markers {
	return &markers{}
}

func (p *markers) Name() string { return "markers" }
func (p *markers) Kind() Kind   { return KindMarker }

func (p *markers) Init(pctx *Context) error {
	if err := p.base.Init(pctx); err != nil {
		return err
	}
	p.actions = make(map[string]markerAction)
	return nil
}

func (p *markers) Cleanup() error {
	p.actions = nil
	return p.base.Cleanup()
}

func (p *markers) Process(root *etree.Element) error {
	rewriteText(root, p.rewrite)
	return nil
}

// Trigger runs the action of one marker. Triggering an already running
// marker reverts it, that is the engine's toggle contract.
func (p *markers) Trigger(id string) error {
	ma, ok := p.actions[id]
	if !ok {
		return fmt.Errorf("unknown marker id %q", id)
	}
	p.pctx.Engine.Trigger(p.pctx.Doc, id, ma.cfg, ma.body)
	return nil
}

func (p *markers) rewrite(_ *etree.Element, text string) []etree.Token {
	matches, diags := pattern.FindPatterns(text, markerPrefix, 2)
	for _, d := range diags {
		p.fail(d.Reason + ": " + d.Raw)
		p.pctx.Log.Warn("Malformed marker pattern, leaving as is",
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
		el, err := p.makeButton(m.Config, m.Content)
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

func (p *markers) makeButton(rawCfg, body string) (*etree.Element, error) {
	cfg, warns := action.ParseConfig(rawCfg)
	for _, w := range warns {
		p.pctx.Log.Warn("Marker action configuration problem",
			zap.String("problem", w), zap.String("source", p.pctx.Doc.SrcName))
	}

	button := etree.NewElement("button")
	button.CreateAttr("class", "annotation-marker")
	button.CreateAttr(AttrKind, KindMarker.String())
	button.SetText("?")

	inst, err := p.record(KindMarker, button)
	if err != nil {
		return nil, err
	}
	p.actions[inst.ID] = markerAction{cfg: cfg, body: body}

	button.CreateAttr("data-marker-id", inst.ID)
	button.CreateAttr("data-target", cfg.Target)
	button.CreateAttr("data-fade", strconv.FormatFloat(cfg.Fade, 'g', -1, 64))
	button.CreateAttr("data-animate", cfg.Animate.String())
	button.CreateAttr("data-overlay", cfg.Overlay.String())
	button.CreateAttr("data-duration", strconv.FormatInt(cfg.Duration.Milliseconds(), 10))
	button.CreateAttr("data-delay", strconv.FormatInt(cfg.Delay.Milliseconds(), 10))
	return button, nil
}
