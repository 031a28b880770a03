package enhance

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"margo/content/text"
)

// Manager owns the processor pipeline for one page. Order is fixed:
// footnotes, marginalia, extensions, markers. A failing processor is
// contained, the rest of the pipeline still runs.
type Manager struct {
	pctx    *Context
	procs   []Processor
	markers *markers
}

func NewManager(pctx *Context) *Manager {
	m := &Manager{pctx: pctx}

	enabled := pctx.Cfg.Document.Processors
	if enabled.Footnotes {
		m.procs = append(m.procs, newFootnotes())
	}
	if enabled.Marginalia {
		m.procs = append(m.procs, newMarginalia())
	}
	if enabled.Extensions {
		m.procs = append(m.procs, newExtensions())
	}
	if enabled.Markers {
		m.markers = newMarkers()
		m.procs = append(m.procs, m.markers)
	}
	return m
}

// Run initializes every processor and feeds the page through the pipeline.
// The returned error aggregates per-processor failures, a non-nil error does
// not mean nothing was processed.
func (m *Manager) Run() (err error) {
	for _, p := range m.procs {
		if e := p.Init(m.pctx); e != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", p.Name(), e))
			continue
		}
		if e := m.runOne(p); e != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", p.Name(), e))
		}
	}
	return err
}

// runOne contains a single processor pass, a panic inside one family must
// not take down the page.
func (m *Manager) runOne(p Processor) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("processor panic: %v", r)
			m.pctx.Log.Error("Annotation processor panicked",
				zap.String("processor", p.Name()), zap.Any("panic", r))
		}
	}()
	return p.Process(m.pctx.Doc.Root)
}

// TriggerMarker executes the action of one interactive marker.
func (m *Manager) TriggerMarker(id string) error {
	if m.markers == nil {
		return fmt.Errorf("marker processing is disabled")
	}
	return m.markers.Trigger(id)
}

// Instances returns every annotation the pipeline produced, in processing
// order.
func (m *Manager) Instances() []Instance {
	var out []Instance
	for _, p := range m.procs {
		out = append(out, p.Instances()...)
	}
	return out
}

// Close tears the pipeline down. Idempotent.
func (m *Manager) Close() (err error) {
	for _, p := range m.procs {
		err = multierr.Append(err, p.Cleanup())
	}
	if m.pctx.Engine != nil {
		m.pctx.Engine.Close(m.pctx.Doc)
	}
	if m.pctx.Tracker != nil {
		m.pctx.Tracker.Close()
	}
	return err
}

// Health is the per-page snapshot stored into the debug report.
type Health struct {
	Source      string             `yaml:"source"`
	Text        text.Stats         `yaml:"text"`
	Processors  []ProcessorHealth  `yaml:"processors"`
	Annotations []AnnotationHealth `yaml:"annotations,omitempty"`
}

type ProcessorHealth struct {
	Name  string `yaml:"name"`
	Stats `yaml:",inline"`
}

type AnnotationHealth struct {
	ID    string `yaml:"id"`
	Kind  string `yaml:"kind"`
	State string `yaml:"state,omitempty"`
}

// Health snapshots what the pipeline did to the page, including the
// activation state of everything registered with the tracker.
func (m *Manager) Health() *Health {
	h := &Health{
		Source: m.pctx.Doc.SrcName,
		Text:   m.pctx.Doc.Stats,
	}
	var trackerStates map[string]string
	if m.pctx.Tracker != nil {
		trackerStates = make(map[string]string)
		for id, s := range m.pctx.Tracker.States() {
			trackerStates[id] = s.String()
		}
	}

	for _, p := range m.procs {
		h.Processors = append(h.Processors, ProcessorHealth{Name: p.Name(), Stats: p.Stats()})
		for _, inst := range p.Instances() {
			ah := AnnotationHealth{ID: inst.ID, Kind: inst.Kind.String()}
			if s, ok := trackerStates[inst.ID]; ok {
				ah.State = s
			}
			h.Annotations = append(h.Annotations, ah)
		}
	}
	return h
}
