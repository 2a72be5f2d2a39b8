// Package textprep prepares raw paper text for length-constrained summarization.
package textprep

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// Splitter breaks text into sentences, preserving their order.
type Splitter interface {
	Split(text string) []string
}

// PunktSplitter detects sentence boundaries with the punkt algorithm trained on English text.
type PunktSplitter struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

// NewPunktSplitter loads the bundled English training data.
func NewPunktSplitter() (*PunktSplitter, error) {
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, err
	}
	return &PunktSplitter{tokenizer: tokenizer}, nil
}

// Split implements Splitter.
func (p *PunktSplitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	tokens := p.tokenizer.Tokenize(text)
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if sentence := strings.TrimSpace(token.Text); sentence != "" {
			out = append(out, sentence)
		}
	}
	return out
}

// RuleSplitter ends a sentence at every '.', '!' or '?'.
type RuleSplitter struct{}

// Split implements Splitter.
func (RuleSplitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var out []string
	start := 0
	for idx, r := range text {
		if idx < start {
			continue
		}
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		end := idx + utf8.RuneLen(r)
		if segment := strings.TrimSpace(text[start:end]); segment != "" {
			out = append(out, segment)
		}
		start = end
		for start < len(text) {
			next, size := utf8.DecodeRuneInString(text[start:])
			if !unicode.IsSpace(next) {
				break
			}
			start += size
		}
	}
	if start < len(text) {
		if segment := strings.TrimSpace(text[start:]); segment != "" {
			out = append(out, segment)
		}
	}
	return out
}

// DefaultSplitter returns the punkt splitter, or the rule splitter when the
// training data cannot be loaded.
func DefaultSplitter() Splitter {
	punkt, err := NewPunktSplitter()
	if err != nil {
		return RuleSplitter{}
	}
	return punkt
}
