// Package text provides prose measurement helpers for the health surface.
package text

import (
	"strings"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
	"go.uber.org/zap"
)

// Stats accumulates prose counts over processed blocks.
type Stats struct {
	Paragraphs int `yaml:"paragraphs"`
	Sentences  int `yaml:"sentences"`
	Words      int `yaml:"words"`
}

// Counter tokenizes prose into sentences. Tokenizer training data is the
// bundled english model; counting stays useful for other languages, sentence
// boundaries are just less precise.
type Counter struct {
	tok *sentences.DefaultSentenceTokenizer
}

func NewCounter(log *zap.Logger) *Counter {
	tok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		log.Warn("Unable to load sentence tokenizer, sentence counts will be zero", zap.Error(err))
		return &Counter{}
	}
	return &Counter{tok: tok}
}

// Add counts one prose block into stats.
func (c *Counter) Add(stats *Stats, block string) {
	block = strings.TrimSpace(block)
	if block == "" {
		return
	}
	stats.Paragraphs++
	stats.Words += len(strings.Fields(block))
	if c.tok == nil {
		return
	}
	for _, s := range c.tok.Tokenize(block) {
		if strings.TrimSpace(s.Text) != "" {
			stats.Sentences++
		}
	}
}
