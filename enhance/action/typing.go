package action

import (
	"time"

	"github.com/beevik/etree"

	"margo/activation"
)

// DefaultFrameBudget matches a 60Hz frame.
const DefaultFrameBudget = 16 * time.Millisecond

// TypingAnimation reveals text into an element one chunk per scheduler tick.
// When the per-character step would be shorter than the frame budget,
// characters are batched so the animation still finishes close to the
// requested duration without scheduling faster than the host can paint.
type TypingAnimation struct {
	sched activation.Scheduler
	frame time.Duration
}

func NewTypingAnimation(sched activation.Scheduler, frameBudget time.Duration) *TypingAnimation {
	if frameBudget <= 0 {
		frameBudget = DefaultFrameBudget
	}
	return &TypingAnimation{sched: sched, frame: frameBudget}
}

// Handle controls one running reveal.
type Handle struct {
	key   string
	sched activation.Scheduler
	done  bool
}

// Done reports whether the reveal ran to completion.
func (h *Handle) Done() bool {
	return h.done
}

// Cancel stops the reveal where it is. The partially revealed text stays,
// callers that want it gone remove the element itself.
func (h *Handle) Cancel() {
	if h.done {
		return
	}
	h.sched.Cancel(h.key)
}

// Reveal starts typing text into el over total. The scheduler key is derived
// from key, one reveal per key at a time.
func (a *TypingAnimation) Reveal(key string, el *etree.Element, text string, total time.Duration) *Handle {
	h := &Handle{key: key + ":typing", sched: a.sched}

	runes := []rune(text)
	if len(runes) == 0 || total <= 0 {
		el.SetText(text)
		h.done = true
		return h
	}

	step := total / time.Duration(len(runes))
	if step <= 0 {
		step = 1
	}
	chunk := 1
	if step < a.frame {
		chunk = int((a.frame + step - 1) / step)
		step = a.frame
	}

	shown := 0
	var tick func()
	tick = func() {
		shown = min(shown+chunk, len(runes))
		el.SetText(string(runes[:shown]))
		if shown == len(runes) {
			h.done = true
			return
		}
		a.sched.Schedule(h.key, step, tick)
	}
	a.sched.Schedule(h.key, step, tick)
	return h
}
