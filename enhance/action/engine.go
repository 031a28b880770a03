package action

import (
	"strconv"
	"time"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"margo/activation"
	"margo/content"
)

// Engine executes marker actions. A marker toggles: the first trigger runs
// the action, triggering again while it is active reverts it instead of
// stacking a second copy. Revert restores everything the action touched.
type Engine struct {
	log    *zap.Logger
	sched  activation.Scheduler
	sel    *Selector
	typing *TypingAnimation

	active map[string]*running
}

type running struct {
	cfg      Config
	started  bool
	dimmed   []savedStyle
	hidden   []savedStyle
	overlays []*etree.Element
	reveal   *Handle
}

type savedStyle struct {
	el  *etree.Element
	old string
	had bool
}

func NewEngine(sched activation.Scheduler, frameBudget time.Duration, log *zap.Logger) *Engine {
	return &Engine{
		log:    log,
		sched:  sched,
		sel:    NewSelector(log),
		typing: NewTypingAnimation(sched, frameBudget),
		active: make(map[string]*running),
	}
}

// Trigger runs the action of marker id with body as the overlay content.
// An action with no resolvable targets is a logged no-op.
func (e *Engine) Trigger(d *content.Document, id string, cfg Config, body string) {
	if _, ok := e.active[id]; ok {
		e.Revert(d, id)
		return
	}

	targets := e.sel.Resolve(d, cfg.Target)
	if len(targets) == 0 {
		e.log.Info("Marker action has no targets, ignoring",
			zap.String("id", id), zap.String("target", cfg.Target))
		return
	}

	run := &running{cfg: cfg}
	e.active[id] = run

	start := func() {
		run.started = true
		e.dim(d, targets, cfg.Fade, run)
		e.place(targets, cfg, run, id, body)
	}
	if cfg.Delay > 0 {
		e.sched.Schedule(id+":delay", cfg.Delay, start)
	} else {
		start()
	}
}

// Revert undoes the action of marker id: cancels whatever is pending or
// animating, removes overlays and restores the styles the action changed.
func (e *Engine) Revert(d *content.Document, id string) {
	run, ok := e.active[id]
	if !ok {
		return
	}
	delete(e.active, id)

	e.sched.Cancel(id + ":delay")
	if run.reveal != nil {
		run.reveal.Cancel()
	}
	for _, ov := range run.overlays {
		if p := ov.Parent(); p != nil {
			p.RemoveChild(ov)
		}
	}
	restoreStyles(run.hidden)
	restoreStyles(run.dimmed)
}

// Active reports whether marker id currently has a running action.
func (e *Engine) Active(id string) bool {
	_, ok := e.active[id]
	return ok
}

// Close reverts every running action.
func (e *Engine) Close(d *content.Document) {
	for id := range e.active {
		e.Revert(d, id)
	}
}

// dim lowers the opacity of every paragraph that is not a target. Fade 1
// means no dimming at all.
func (e *Engine) dim(d *content.Document, targets []*etree.Element, fade float64, run *running) {
	if fade >= 1 {
		return
	}
	isTarget := make(map[*etree.Element]bool, len(targets))
	for _, t := range targets {
		isTarget[t] = true
	}
	for _, p := range d.Paragraphs() {
		if isTarget[p] {
			continue
		}
		run.dimmed = append(run.dimmed, saveStyle(p))
		p.CreateAttr("style", "opacity:"+strconv.FormatFloat(fade, 'g', -1, 64))
		p.CreateAttr("data-dimmed", "true")
	}
}

// place builds the overlay element and attaches it per the overlay mode.
func (e *Engine) place(targets []*etree.Element, cfg Config, run *running, id, body string) {
	first := targets[0]
	parent := first.Parent()
	if parent == nil {
		return
	}

	ov := etree.NewElement("div")
	ov.CreateAttr("class", "annotation-overlay")
	ov.CreateAttr("data-overlay", cfg.Overlay.String())
	ov.CreateAttr("data-animate", cfg.Animate.String())

	switch cfg.Overlay {
	case OverlayReplace:
		for _, t := range targets {
			run.hidden = append(run.hidden, saveStyle(t))
			t.CreateAttr("style", "display:none")
		}
		parent.InsertChildAt(first.Index(), ov)
	case OverlayBeside:
		aside := etree.NewElement("aside")
		aside.CreateAttr("class", "annotation-overlay-holder")
		aside.AddChild(ov)
		parent.InsertChildAt(first.Index()+1, aside)
		run.overlays = append(run.overlays, aside)
	case OverlayAppend:
		first.AddChild(ov)
	default: // over
		parent.InsertChildAt(first.Index()+1, ov)
	}
	if cfg.Overlay != OverlayBeside {
		run.overlays = append(run.overlays, ov)
	}

	// Glitch and slide degrade to the same immediate reveal as fade-in, the
	// data-animate attribute still tells styling apart.
	if cfg.Animate == AnimateTyping {
		run.reveal = e.typing.Reveal(id, ov, body, cfg.Duration)
	} else {
		ov.SetText(body)
	}
}

func saveStyle(el *etree.Element) savedStyle {
	s := savedStyle{el: el}
	if a := el.SelectAttr("style"); a != nil {
		s.old, s.had = a.Value, true
	}
	return s
}

func restoreStyles(saved []savedStyle) {
	for _, s := range saved {
		s.el.RemoveAttr("data-dimmed")
		if s.had {
			s.el.CreateAttr("style", s.old)
		} else {
			s.el.RemoveAttr("style")
		}
	}
}
