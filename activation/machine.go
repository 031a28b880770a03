package activation

import (
	"math"

	"github.com/beevik/etree"
	"go.uber.org/zap"
)

// AttrState is the element attribute machines keep in sync with their
// lifecycle state so styling and tooling can observe it.
const AttrState = "data-state"

// Machine drives the visibility lifecycle of one annotation element.
//
// inactive -> activating: element crossed the reading zone ratio while the
// reader scrolls down; the activation delay starts.
// activating -> inactive: scroll direction reverses before the delay fires.
// activating -> active: the delay fires; scroll position is recorded.
// active -> deactivating: scroll moved more than the hysteresis distance from
// the recorded position, or the element left through the viewport top; the
// deactivation delay starts.
// deactivating -> active: element is back in the reading zone before the
// delay fires. No activation delay is repeated.
// deactivating -> inactive: the delay fires.
type Machine struct {
	id    string
	el    *etree.Element
	cfg   Config
	sched Scheduler
	log   *zap.Logger

	state             State
	ratio             float64
	activationScrollY float64
	lastScroll        ScrollState

	// top is the element offset from the page start in pixels, NaN until
	// SetTop provides it. It only gates the above-viewport exit rule.
	top float64
}

func (m *Machine) ID() string              { return m.id }
func (m *Machine) State() State            { return m.state }
func (m *Machine) Element() *etree.Element { return m.el }
func (m *Machine) Ratio() float64          { return m.ratio }

// SetTop records the element page offset, enabling the above-viewport exit
// check. Without it deactivation relies on hysteresis alone.
func (m *Machine) SetTop(y float64) {
	m.top = y
}

func (m *Machine) observe(ratio float64, scroll ScrollState) {
	m.ratio = ratio
	m.lastScroll = scroll

	switch m.state {
	case StateInactive:
		if ratio >= m.cfg.ReadingZone && scroll.Direction == DirectionDown {
			m.setState(StateActivating)
			m.sched.Schedule(m.id, m.cfg.ActivationDelay, m.fireActivation)
		}
	case StateActivating:
		if ratio < m.cfg.ReadingZone {
			m.sched.Cancel(m.id)
			m.setState(StateInactive)
		}
	case StateDeactivating:
		if ratio >= m.cfg.ReadingZone {
			m.sched.Cancel(m.id)
			m.setState(StateActive)
		}
	}
}

func (m *Machine) onScroll(scroll ScrollState) {
	m.lastScroll = scroll

	switch m.state {
	case StateActivating:
		if scroll.Direction == DirectionUp {
			m.sched.Cancel(m.id)
			m.setState(StateInactive)
		}
	case StateActive:
		if abs(scroll.LastY-m.activationScrollY) > m.cfg.Hysteresis || m.aboveViewport(scroll) {
			m.setState(StateDeactivating)
			m.sched.Schedule(m.id, m.cfg.DeactivationDelay, m.fireDeactivation)
		}
	}
}

func (m *Machine) fireActivation() {
	if m.state != StateActivating {
		return
	}
	m.activationScrollY = m.lastScroll.LastY
	m.setState(StateActive)
	m.show()
}

func (m *Machine) fireDeactivation() {
	if m.state != StateDeactivating {
		return
	}
	m.setState(StateInactive)
	m.hide()
}

func (m *Machine) aboveViewport(scroll ScrollState) bool {
	if math.IsNaN(m.top) {
		return false
	}
	return m.top+m.cfg.TopExitMargin < scroll.LastY
}

func (m *Machine) setState(s State) {
	m.state = s
	m.el.CreateAttr(AttrState, s.String())
	m.log.Debug("Annotation state change", zap.String("id", m.id), zap.Stringer("state", s))
}

// show/hide toggle visibility with opacity and visibility only. display:none
// would remove the element from layout and stop intersection events, after
// which it could never come back.
func (m *Machine) show() {
	m.el.CreateAttr("style", "opacity:1;visibility:visible")
}

func (m *Machine) hide() {
	m.el.CreateAttr("style", "opacity:0;visibility:hidden")
}
