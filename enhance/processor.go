package enhance

import (
	"fmt"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"margo/activation"
	"margo/config"
	"margo/content"
	"margo/enhance/action"
)

// AttrKind marks elements produced by a processor. Subtrees carrying it are
// never rescanned, so running the pipeline twice over the same page yields
// the same result as running it once.
const AttrKind = "data-annotation-kind"

// Instance is one materialized annotation.
type Instance struct {
	ID      string
	Kind    Kind
	Element *etree.Element
}

// Context is the shared runtime processors work against.
type Context struct {
	Doc     *content.Document
	Cfg     *config.Config
	Log     *zap.Logger
	Tracker *activation.Tracker
	Engine  *action.Engine
	Sched   activation.Scheduler
}

// Processor is one annotation family. Init and Cleanup are idempotent,
// Process may be called once per page between them.
type Processor interface {
	Name() string
	Kind() Kind
	Init(pctx *Context) error
	Process(root *etree.Element) error
	Cleanup() error
	Instances() []Instance
	Stats() Stats
}

// Stats is what one processor did to one page.
type Stats struct {
	Matched int      `yaml:"matched"`
	Dropped int      `yaml:"dropped,omitempty"`
	Errors  []string `yaml:"errors,omitempty"`
}

// base carries the state every processor shares.
type base struct {
	pctx      *Context
	inited    bool
	instances []Instance
	stats     Stats
}

func (b *base) Init(pctx *Context) error {
	if b.inited {
		return nil
	}
	if pctx == nil || pctx.Doc == nil {
		return fmt.Errorf("processor context is not usable")
	}
	b.pctx = pctx
	b.inited = true
	return nil
}

func (b *base) Cleanup() error {
	if !b.inited {
		return nil
	}
	b.pctx = nil
	b.instances = nil
	b.stats = Stats{}
	b.inited = false
	return nil
}

func (b *base) Instances() []Instance {
	return b.instances
}

func (b *base) Stats() Stats {
	return b.stats
}

// newAnnotationID is replaceable so id generation failures can be exercised.
var newAnnotationID = uuid.NewV7

func (b *base) record(kind Kind, el *etree.Element) (Instance, error) {
	id, err := newAnnotationID()
	if err != nil {
		return Instance{}, fmt.Errorf("unable to generate annotation id: %w", err)
	}
	inst := Instance{ID: id.String(), Kind: kind, Element: el}
	b.instances = append(b.instances, inst)
	b.stats.Matched++
	return inst, nil
}

func (b *base) fail(reason string) {
	b.stats.Dropped++
	b.stats.Errors = append(b.stats.Errors, reason)
}
