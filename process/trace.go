package process

import (
	"time"

	"margo/activation"
	"margo/config"
	"margo/enhance"
)

// traceEvent is one recorded state transition of the simulated read-through.
type traceEvent struct {
	ScrollY float64 `yaml:"scroll_y"`
	ID      string  `yaml:"id"`
	State   string  `yaml:"state"`
}

// simulateActivation drives every registered annotation through a synthetic
// read-through - scroll down into it, dwell, scroll far past it - and records
// the transitions. The pass ends with everything back in the initial hidden
// state, so the serialized page is unaffected.
func simulateActivation(mgr *enhance.Manager, tracker *activation.Tracker, sched *activation.ManualScheduler, cfg *config.Config) []traceEvent {
	var trace []traceEvent

	now := time.Now()
	tick := func() time.Time {
		now = now.Add(100 * time.Millisecond)
		return now
	}
	record := func(y float64, id string) {
		if m := tracker.Machine(id); m != nil {
			trace = append(trace, traceEvent{ScrollY: y, ID: id, State: m.State().String()})
		}
	}

	y := 0.0
	hysteresis := float64(cfg.Document.Activation.HysteresisPx)
	for _, inst := range mgr.Instances() {
		if tracker.Machine(inst.ID) == nil {
			continue
		}

		// reader scrolls down to the annotation and dwells
		y += 500
		tracker.ScrollTo(y, tick())
		tracker.Observe(inst.ID, 0.6)
		record(y, inst.ID)
		sched.Fire(inst.ID)
		record(y, inst.ID)

		// then reads far past it
		y += hysteresis + 1
		tracker.ScrollTo(y, tick())
		record(y, inst.ID)
		sched.Fire(inst.ID)
		record(y, inst.ID)
	}
	return trace
}
