// Package content builds the page document model the enhancement pipeline
// operates on.
package content

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/language"

	"margo/content/text"
	"margo/state"
)

// Document encapsulates one prose page: the parsed markup tree, the root
// element processors are handed, and a stable paragraph index used for
// paragraph-range targeting.
type Document struct {
	SrcName string
	Doc     *etree.Document
	Root    *etree.Element
	Lang    language.Tag
	Stats   text.Stats

	paragraphs []*etree.Element
}

// Prepare reads one page and builds the document model. Input is either an
// (X)HTML fragment or plain text; plain text is wrapped into an article with
// one paragraph per blank-line separated block before processing.
func Prepare(ctx context.Context, r io.Reader, srcName string, log *zap.Logger) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	env := state.EnvFromContext(ctx)

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("unable to read page source: %w", err)
	}

	var doc *etree.Document
	if looksLikeMarkup(data) {
		doc = etree.NewDocument()
		doc.WriteSettings = etree.WriteSettings{
			CanonicalText:    true,
			CanonicalAttrVal: true,
		}
		// Old pages are rarely clean XML, accept what we can
		doc.ReadSettings = etree.ReadSettings{
			CharsetReader: charset.NewReaderLabel,
			ValidateInput: false,
			Permissive:    true,
		}
		if _, err := doc.ReadFrom(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("unable to parse page markup: %w", err)
		}
	} else {
		doc = wrapPlainText(string(data))
	}

	root := findProseRoot(doc)
	if root == nil {
		return nil, fmt.Errorf("page has no prose root element (%s)", srcName)
	}

	lang := language.Und
	langName := root.SelectAttrValue("lang", "")
	if langName == "" && env.Cfg != nil {
		langName = env.Cfg.Document.Language
	}
	if langName != "" {
		if lang, err = language.Parse(langName); err != nil {
			log.Warn("Unable to parse page language, ignoring", zap.String("lang", langName), zap.Error(err))
			lang = language.Und
		}
	}

	d := &Document{
		SrcName: srcName,
		Doc:     doc,
		Root:    root,
		Lang:    lang,
	}
	d.Reindex()

	counter := text.NewCounter(log)
	for _, p := range d.paragraphs {
		counter.Add(&d.Stats, PlainText(p))
	}

	log.Debug("Page prepared",
		zap.String("source", srcName),
		zap.Int("paragraphs", d.Stats.Paragraphs),
		zap.Int("sentences", d.Stats.Sentences),
		zap.Int("words", d.Stats.Words))

	return d, nil
}

// Reindex rebuilds the ordered paragraph index. Processors that insert or
// remove paragraph level elements call this once per pass, not per mutation.
func (d *Document) Reindex() {
	d.paragraphs = d.paragraphs[:0]
	collectParagraphs(d.Root, &d.paragraphs)
}

// Paragraphs returns the ordered paragraph elements of the prose root.
func (d *Document) Paragraphs() []*etree.Element {
	return d.paragraphs
}

// ParagraphRange returns paragraphs from..to (1-based, inclusive), clamped to
// what the page actually has. An out-of-range request degrades to a partial
// or empty result, it is never an error.
func (d *Document) ParagraphRange(from, to int) []*etree.Element {
	if to < from {
		from, to = to, from
	}
	from = max(from, 1)
	to = min(to, len(d.paragraphs))
	if from > to {
		return nil
	}
	return d.paragraphs[from-1 : to]
}

// WriteTo serializes the page.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	return d.Doc.WriteTo(w)
}

func (d *Document) String() string {
	s, err := d.Doc.WriteToString()
	if err != nil {
		return ""
	}
	return s
}

func looksLikeMarkup(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n\xef\xbb\xbf")
	return len(trimmed) > 0 && trimmed[0] == '<'
}

// wrapPlainText builds an article document with one paragraph per blank-line
// separated block.
func wrapPlainText(src string) *etree.Document {
	doc := etree.NewDocument()
	article := doc.CreateElement("article")
	for _, block := range strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		p := article.CreateElement("p")
		p.SetText(strings.Join(strings.Fields(block), " "))
	}
	return doc
}

// findProseRoot picks the element processors receive: the first article,
// then body, then the document root itself.
func findProseRoot(doc *etree.Document) *etree.Element {
	if e := doc.FindElement("//article"); e != nil {
		return e
	}
	if e := doc.FindElement("//body"); e != nil {
		return e
	}
	return doc.Root()
}

func collectParagraphs(e *etree.Element, out *[]*etree.Element) {
	for _, child := range e.ChildElements() {
		if child.Tag == "p" {
			*out = append(*out, child)
			continue
		}
		collectParagraphs(child, out)
	}
}

// PlainText flattens element text including nested elements.
func PlainText(e *etree.Element) string {
	var sb strings.Builder
	var walk func(*etree.Element)
	walk = func(el *etree.Element) {
		for _, tok := range el.Child {
			switch t := tok.(type) {
			case *etree.CharData:
				sb.WriteString(t.Data)
			case *etree.Element:
				walk(t)
			}
		}
	}
	walk(e)
	return sb.String()
}
