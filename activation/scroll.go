package activation

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/beevik/etree"
	"go.uber.org/zap"
)

// ErrNotObservable is returned when an element is removed from layout
// (display:none) and therefore would never produce intersection events.
var ErrNotObservable = errors.New("element is removed from layout and cannot be observed")

// Config carries the activation tuning knobs. Zero values are not usable,
// start from DefaultConfig.
type Config struct {
	// ReadingZone is the intersection ratio an annotation must reach before
	// activation is considered, 0..1.
	ReadingZone float64
	// ActivationDelay is how long the annotation must stay in the reading
	// zone before it becomes active.
	ActivationDelay time.Duration
	// DeactivationDelay is the grace period before an annotation that left
	// the reading zone is hidden again.
	DeactivationDelay time.Duration
	// Hysteresis is the scroll distance in pixels from the activation point
	// after which deactivation starts.
	Hysteresis float64
	// TopExitMargin widens the above-viewport exit check by this many pixels.
	TopExitMargin float64
	// ScrollThrottle drops scroll updates arriving faster than this.
	ScrollThrottle time.Duration
}

func DefaultConfig() Config {
	return Config{
		ReadingZone:       0.3,
		ActivationDelay:   100 * time.Millisecond,
		DeactivationDelay: 500 * time.Millisecond,
		Hysteresis:        300,
		TopExitMargin:     50,
		ScrollThrottle:    16 * time.Millisecond,
	}
}

func (c Config) normalized() Config {
	c.ReadingZone = min(max(c.ReadingZone, 0), 1)
	c.ActivationDelay = max(c.ActivationDelay, 0)
	c.DeactivationDelay = max(c.DeactivationDelay, 0)
	c.Hysteresis = max(c.Hysteresis, 0)
	c.TopExitMargin = max(c.TopExitMargin, 0)
	c.ScrollThrottle = max(c.ScrollThrottle, 0)
	return c
}

// ScrollState is the single shared scroll snapshot all machines consult.
type ScrollState struct {
	Direction  Direction
	LastY      float64
	Velocity   float64 // pixels per second, always >= 0
	LastUpdate time.Time
}

// Tracker owns the scroll state and the id -> machine association for
// registered annotation instances. All methods must be called from the one
// goroutine that delivers scroll and intersection events.
type Tracker struct {
	cfg      Config
	log      *zap.Logger
	sched    Scheduler
	scroll   ScrollState
	machines map[string]*Machine
	order    []string
}

func NewTracker(cfg Config, sched Scheduler, log *zap.Logger) *Tracker {
	return &Tracker{
		cfg:      cfg.normalized(),
		log:      log,
		sched:    sched,
		machines: make(map[string]*Machine),
	}
}

// Register creates the lifecycle machine for one annotation element and puts
// it into the initial hidden inactive state. Elements removed from layout are
// rejected - they would never intersect and the registration would silently
// do nothing, which is much harder to diagnose later.
func (t *Tracker) Register(id string, el *etree.Element) (*Machine, error) {
	if styleRemovesLayout(el) {
		return nil, ErrNotObservable
	}
	if _, ok := t.machines[id]; ok {
		return nil, errors.New("duplicate annotation id: " + id)
	}

	m := &Machine{
		id:         id,
		el:         el,
		cfg:        t.cfg,
		sched:      t.sched,
		log:        t.log,
		lastScroll: t.scroll,
		top:        math.NaN(),
	}
	m.setState(StateInactive)
	m.hide()

	t.machines[id] = m
	t.order = append(t.order, id)
	return m, nil
}

// Unregister drops the machine and cancels whatever it had pending.
func (t *Tracker) Unregister(id string) {
	if _, ok := t.machines[id]; !ok {
		return
	}
	t.sched.Cancel(id)
	delete(t.machines, id)
	for i, v := range t.order {
		if v == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// ScrollTo feeds one scroll position update. Updates are throttled and must
// move forward in time, stale or too frequent ones are dropped.
func (t *Tracker) ScrollTo(y float64, now time.Time) {
	if !t.scroll.LastUpdate.IsZero() {
		if !now.After(t.scroll.LastUpdate) {
			return
		}
		if elapsed := now.Sub(t.scroll.LastUpdate); elapsed < t.cfg.ScrollThrottle {
			return
		}
	}

	prev := t.scroll
	t.scroll.Direction = prev.Direction
	if y > prev.LastY {
		t.scroll.Direction = DirectionDown
	} else if y < prev.LastY {
		t.scroll.Direction = DirectionUp
	}
	t.scroll.Velocity = 0
	if !prev.LastUpdate.IsZero() {
		if dt := now.Sub(prev.LastUpdate).Seconds(); dt > 0 {
			t.scroll.Velocity = abs(y-prev.LastY) / dt
		}
	}
	t.scroll.LastY = y
	t.scroll.LastUpdate = now

	for _, id := range t.order {
		t.machines[id].onScroll(t.scroll)
	}
}

// Observe feeds one intersection ratio for a registered annotation. Ratio is
// clamped to 0..1, unknown ids are ignored.
func (t *Tracker) Observe(id string, ratio float64) {
	m, ok := t.machines[id]
	if !ok {
		t.log.Debug("Intersection for unknown annotation, ignoring", zap.String("id", id))
		return
	}
	m.observe(min(max(ratio, 0), 1), t.scroll)
}

// Scroll returns the current scroll snapshot.
func (t *Tracker) Scroll() ScrollState {
	return t.scroll
}

// Machine returns the lifecycle machine for id, nil when not registered.
func (t *Tracker) Machine(id string) *Machine {
	return t.machines[id]
}

// States snapshots the lifecycle state of every registered annotation.
func (t *Tracker) States() map[string]State {
	out := make(map[string]State, len(t.machines))
	for id, m := range t.machines {
		out[id] = m.state
	}
	return out
}

// Close cancels all pending transitions and drops every registration.
func (t *Tracker) Close() {
	t.sched.CancelAll()
	t.machines = make(map[string]*Machine)
	t.order = nil
}

func styleRemovesLayout(el *etree.Element) bool {
	style := el.SelectAttrValue("style", "")
	for decl := range strings.SplitSeq(style, ";") {
		name, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(name), "display") &&
			strings.EqualFold(strings.TrimSpace(value), "none") {
			return true
		}
	}
	return false
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
