package enhance

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"margo/activation"
	"margo/config"
	"margo/content"
	"margo/enhance/action"
	"margo/state"
)

func newTestContext(t *testing.T, page string) (*Context, *activation.ManualScheduler) {
	t.Helper()

	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	d, err := content.Prepare(state.ContextWithEnv(context.Background()), strings.NewReader(page), "page.html", zap.NewNop())
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	sched := activation.NewManualScheduler()
	return &Context{
		Doc:     d,
		Cfg:     cfg,
		Log:     zap.NewNop(),
		Tracker: activation.NewTracker(activation.DefaultConfig(), sched, zap.NewNop()),
		Engine:  action.NewEngine(sched, 16*time.Millisecond, zap.NewNop()),
		Sched:   sched,
	}, sched
}

func runPipeline(t *testing.T, page string) (*Manager, *Context, *activation.ManualScheduler) {
	t.Helper()
	pctx, sched := newTestContext(t, page)
	m := NewManager(pctx)
	if err := m.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return m, pctx, sched
}

func TestMarginalia(t *testing.T) {
	m, pctx, _ := runPipeline(t,
		`<article><p>The sea was calm. [m][2 1.2 30 left][A quiet observation.] The night went on.</p></article>`)
	defer m.Close()

	aside := pctx.Doc.Root.FindElement("//aside")
	if aside == nil {
		t.Fatal("no aside element produced")
	}
	for attr, want := range map[string]string{
		"data-voice":      "2",
		"data-font-scale": "1.2",
		"data-width":      "30",
		"data-position":   "left",
		"data-state":      "inactive",
		AttrKind:          "marginalia",
	} {
		if got := aside.SelectAttrValue(attr, ""); got != want {
			t.Errorf("%s = %q, want %q", attr, got, want)
		}
	}
	if aside.Text() != "A quiet observation." {
		t.Errorf("aside text = %q", aside.Text())
	}
	if got := aside.SelectAttrValue("style", ""); got != "opacity:0;visibility:hidden" {
		t.Errorf("initial style = %q", got)
	}

	// Surrounding prose is intact.
	p := pctx.Doc.Paragraphs()[0]
	if !strings.HasPrefix(p.Text(), "The sea was calm. ") {
		t.Errorf("leading text = %q", p.Text())
	}
	if aside.Tail() != " The night went on." {
		t.Errorf("trailing text = %q", aside.Tail())
	}

	// Registered for activation under the instance id.
	id := aside.SelectAttrValue("data-marginalia-id", "")
	if id == "" {
		t.Fatal("no data-marginalia-id")
	}
	if pctx.Tracker.Machine(id) == nil {
		t.Error("marginalia not registered with tracker")
	}
}

func TestMarginaliaDefaultsAndClamping(t *testing.T) {
	m, pctx, _ := runPipeline(t,
		`<article><p>One [m][][defaults] two [m][99 9.9 99 up][clamped] three.</p></article>`)
	defer m.Close()

	asides := pctx.Doc.Root.FindElements("//aside")
	if len(asides) != 2 {
		t.Fatalf("got %d asides, want 2", len(asides))
	}

	defs := pctx.Cfg.Document.Marginalia
	if got := asides[0].SelectAttrValue("data-voice", ""); got != "1" {
		t.Errorf("default voice = %q, want 1 (config default %d)", got, defs.DefaultVoice)
	}
	if got := asides[1].SelectAttrValue("data-voice", ""); got != "6" {
		t.Errorf("clamped voice = %q, want 6", got)
	}
	if got := asides[1].SelectAttrValue("data-font-scale", ""); got != "2.5" {
		t.Errorf("clamped font scale = %q, want 2.5", got)
	}
	if got := asides[1].SelectAttrValue("data-width", ""); got != "45" {
		t.Errorf("clamped width = %q, want 45", got)
	}
	// Unknown position keeps the configured default.
	if got := asides[1].SelectAttrValue("data-position", ""); got != "right" {
		t.Errorf("position = %q, want default right", got)
	}
}

func TestMalformedPatternsStayLiteral(t *testing.T) {
	page := `<article><p>Broken [m][1 2 lone bracket here. And [m][1] no content.</p></article>`
	m, pctx, _ := runPipeline(t, page)
	defer m.Close()

	if aside := pctx.Doc.Root.FindElement("//aside"); aside != nil {
		t.Fatal("malformed pattern produced an aside")
	}
	p := pctx.Doc.Paragraphs()[0]
	if !strings.Contains(p.Text(), "[m][1 2 lone bracket") {
		t.Errorf("malformed pattern not left literal: %q", p.Text())
	}

	var st Stats
	for _, ph := range m.Health().Processors {
		if ph.Name == "marginalia" {
			st = ph.Stats
		}
	}
	if st.Dropped == 0 || len(st.Errors) == 0 {
		t.Errorf("malformed patterns not recorded: %+v", st)
	}
}

func TestFootnotes(t *testing.T) {
	page := `<article>
<p>A bold claim.[^1] Another one.[^2] And a dangling ref.[^9]</p>
<p>[^2]: Second note.</p>
<p>[^1]: First note.</p>
</article>`
	m, pctx, _ := runPipeline(t, page)
	defer m.Close()

	refs := pctx.Doc.Root.FindElements("//sup")
	if len(refs) != 2 {
		t.Fatalf("got %d footnote refs, want 2", len(refs))
	}
	if got := refs[0].FindElement("a").SelectAttrValue("href", ""); got != "#fn-1" {
		t.Errorf("first ref href = %q, want #fn-1", got)
	}
	if got := refs[0].SelectAttrValue("data-ref", ""); got != "1" {
		t.Errorf("data-ref = %q, want 1", got)
	}

	section := pctx.Doc.Root.FindElement("//section")
	if section == nil {
		t.Fatal("no footnotes section")
	}
	notes := section.FindElements("p")
	if len(notes) != 2 {
		t.Fatalf("got %d notes in section, want 2", len(notes))
	}
	// Natural label order, not page order.
	if got := notes[0].SelectAttrValue("id", ""); got != "fn-1" {
		t.Errorf("first note id = %q, want fn-1", got)
	}
	back := notes[0].FindElement("a")
	if back == nil {
		t.Fatal("no backlink")
	}
	if back.Text() != backlinkSym {
		t.Errorf("backlink text = %q, want %q", back.Text(), backlinkSym)
	}
	if got := back.SelectAttrValue("href", ""); got != "#fnref-1" {
		t.Errorf("backlink href = %q, want #fnref-1", got)
	}
	if back.Tail() != " First note." {
		t.Errorf("note body = %q", back.Tail())
	}

	// The dangling reference stays literal and is recorded.
	if !strings.Contains(content.PlainText(pctx.Doc.Paragraphs()[0]), "[^9]") {
		t.Error("dangling reference was consumed")
	}
	for _, ph := range m.Health().Processors {
		if ph.Name == "footnotes" && len(ph.Errors) == 0 {
			t.Error("dangling reference not recorded")
		}
	}
}

func TestExtensions(t *testing.T) {
	m, pctx, _ := runPipeline(t,
		`<article><p>Context here. [+][Optional digression for the curious.] Back to it.</p></article>`)
	defer m.Close()

	details := pctx.Doc.Root.FindElement("//details")
	if details == nil {
		t.Fatal("no details element produced")
	}
	summary := details.FindElement("summary")
	if summary == nil {
		t.Fatal("no summary element")
	}
	if summary.Tail() != "Optional digression for the curious." {
		t.Errorf("extension body = %q", summary.Tail())
	}
	// The body moved inside details, nothing of the prose is lost.
	if got := content.PlainText(pctx.Doc.Paragraphs()[0]); got != "Context here. +Optional digression for the curious. Back to it." {
		t.Errorf("paragraph text = %q", got)
	}
}

func TestMarkerTriggerAndRevert(t *testing.T) {
	page := `<article>
<p>Press for more.[?][target:p1-2|fade:0.1|animate:typing|duration:2000][Poem text]</p>
<p>Second paragraph.</p>
<p>Third paragraph.</p>
</article>`
	m, pctx, sched := runPipeline(t, page)
	defer m.Close()

	button := pctx.Doc.Root.FindElement("//button")
	if button == nil {
		t.Fatal("no marker button produced")
	}
	for attr, want := range map[string]string{
		"data-target":   "p1-2",
		"data-fade":     "0.1",
		"data-animate":  "typing",
		"data-overlay":  "over",
		"data-duration": "2000",
		"data-delay":    "0",
	} {
		if got := button.SelectAttrValue(attr, ""); got != want {
			t.Errorf("%s = %q, want %q", attr, got, want)
		}
	}

	id := button.SelectAttrValue("data-marker-id", "")
	if err := m.TriggerMarker(id); err != nil {
		t.Fatalf("TriggerMarker() error = %v", err)
	}

	// Third paragraph is outside the target range and gets dimmed.
	if got := pctx.Doc.Paragraphs()[2].SelectAttrValue("style", ""); got != "opacity:0.1" {
		t.Errorf("non-target style = %q, want opacity:0.1", got)
	}
	ov := pctx.Doc.Root.FindElement("//div")
	if ov == nil {
		t.Fatal("no overlay after trigger")
	}
	sched.Fire(id + ":typing")
	if ov.Text() == "" {
		t.Error("typing reveal did not start")
	}

	// Second trigger toggles the action off.
	if err := m.TriggerMarker(id); err != nil {
		t.Fatalf("TriggerMarker() error = %v", err)
	}
	if pctx.Doc.Root.FindElement("//div") != nil {
		t.Error("overlay survived toggle off")
	}
	if got := pctx.Doc.Paragraphs()[2].SelectAttrValue("style", ""); got != "" {
		t.Errorf("dimmed style after toggle off = %q, want restored", got)
	}
}

func TestFailedMatchStaysLiteral(t *testing.T) {
	// Second id generation fails: only that match is abandoned, the rest of
	// the text node still processes.
	calls := 0
	orig := newAnnotationID
	newAnnotationID = func() (uuid.UUID, error) {
		calls++
		if calls == 2 {
			return uuid.UUID{}, errors.New("entropy exhausted")
		}
		return orig()
	}
	defer func() { newAnnotationID = orig }()

	m, pctx, _ := runPipeline(t,
		`<article><p>One [m][1][first] two [m][2][second] three.</p></article>`)
	defer m.Close()

	asides := pctx.Doc.Root.FindElements("//aside")
	if len(asides) != 1 {
		t.Fatalf("got %d asides, want 1", len(asides))
	}
	if asides[0].Text() != "first" {
		t.Errorf("surviving aside text = %q, want first", asides[0].Text())
	}
	text := content.PlainText(pctx.Doc.Paragraphs()[0])
	if !strings.Contains(text, "[m][2][second]") {
		t.Errorf("failed match not left literal: %q", text)
	}
	if !strings.Contains(text, "three.") {
		t.Errorf("text after failed match lost: %q", text)
	}

	for _, ph := range m.Health().Processors {
		if ph.Name == "marginalia" && (ph.Dropped == 0 || len(ph.Errors) == 0) {
			t.Errorf("failed match not recorded: %+v", ph.Stats)
		}
	}
}

func TestPipelineIdempotence(t *testing.T) {
	page := `<article>
<p>Claim.[^1] Note: [m][2][aside text] and [+][extra] done.</p>
<p>[^1]: The note.</p>
</article>`
	m, pctx, _ := runPipeline(t, page)
	first, err := pctx.Doc.Doc.WriteToString()
	if err != nil {
		t.Fatal(err)
	}
	m.Close()

	// Feed the enhanced page through a fresh pipeline: nothing new may match.
	pctx2, _ := newTestContext(t, first)
	m2 := NewManager(pctx2)
	if err := m2.Run(); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	defer m2.Close()

	for _, ph := range m2.Health().Processors {
		if ph.Matched != 0 {
			t.Errorf("processor %s matched %d on already enhanced page, want 0", ph.Name, ph.Matched)
		}
	}
}

func TestLaterFamilyInsideEarlierTokensStaysLiteral(t *testing.T) {
	// Marginalia runs before markers, so a marker pattern whose content got
	// split by an aside cannot match anymore and stays literal.
	page := `<article><p>[?][target:p1][Has [m][1][note] inside]</p></article>`
	m, pctx, _ := runPipeline(t, page)
	defer m.Close()

	if pctx.Doc.Root.FindElement("//aside") == nil {
		t.Error("marginalia inside marker content not processed")
	}
	if pctx.Doc.Root.FindElement("//button") != nil {
		t.Error("split marker pattern still matched")
	}
}

func TestHealth(t *testing.T) {
	page := `<article><p>Text [m][2][note] here.</p></article>`
	m, pctx, _ := runPipeline(t, page)
	defer m.Close()

	h := m.Health()
	if h.Source != "page.html" {
		t.Errorf("Source = %q", h.Source)
	}
	if h.Text.Paragraphs != pctx.Doc.Stats.Paragraphs {
		t.Errorf("Text.Paragraphs = %d, want %d", h.Text.Paragraphs, pctx.Doc.Stats.Paragraphs)
	}
	if len(h.Annotations) != 1 {
		t.Fatalf("got %d annotations, want 1", len(h.Annotations))
	}
	if h.Annotations[0].Kind != "marginalia" {
		t.Errorf("annotation kind = %q", h.Annotations[0].Kind)
	}
	if h.Annotations[0].State != "inactive" {
		t.Errorf("annotation state = %q, want inactive", h.Annotations[0].State)
	}
}

func TestDisabledProcessors(t *testing.T) {
	pctx, _ := newTestContext(t, `<article><p>Note [m][1][hidden] ref.[^1]</p><p>[^1]: def</p></article>`)
	pctx.Cfg.Document.Processors = config.ProcessorsConfig{Extensions: true, Markers: true}

	m := NewManager(pctx)
	if err := m.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	defer m.Close()

	if pctx.Doc.Root.FindElement("//aside") != nil {
		t.Error("disabled marginalia still processed")
	}
	if pctx.Doc.Root.FindElement("//sup") != nil {
		t.Error("disabled footnotes still processed")
	}
}
