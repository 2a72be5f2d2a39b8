package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/csheth/paperdistill/internal/arxiv"
	"github.com/csheth/paperdistill/internal/llm"
	"github.com/csheth/paperdistill/internal/textprep"
)

type fakeSearcher struct {
	mu       sync.Mutex
	docs     []arxiv.Document
	err      error
	searches int
	queries  []string
}

func (f *fakeSearcher) Search(_ context.Context, query string, categories []string, _ int) ([]arxiv.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches++
	f.queries = append(f.queries, query+"|"+strings.Join(categories, ","))
	if f.err != nil {
		return nil, f.err
	}
	return f.docs, nil
}

func (f *fakeSearcher) Lookup(_ context.Context, idOrURL string) (arxiv.Document, error) {
	id := arxiv.ExtractIdentifier(idOrURL)
	for _, doc := range f.docs {
		if doc.ID == id {
			return doc, nil
		}
	}
	return arxiv.Document{}, arxiv.ErrNotFound
}

type fakeSource struct {
	mu    sync.Mutex
	text  string
	err   error
	calls int
}

func (f *fakeSource) FullText(_ context.Context, doc arxiv.Document) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func (f *fakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type summarizeCall struct {
	text     string
	min, max int
}

type fakeSummarizer struct {
	mu    sync.Mutex
	calls []summarizeCall
	err   error
}

func (f *fakeSummarizer) Name() string { return "fake-summarizer" }

func (f *fakeSummarizer) Summarize(_ context.Context, text string, minLength, maxLength int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, summarizeCall{text: text, min: minLength, max: maxLength})
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("summary %d", len(f.calls)), nil
}

func (f *fakeSummarizer) Calls() []summarizeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]summarizeCall(nil), f.calls...)
}

type generateCall struct {
	instruction string
	content     []string
}

type fakeGenerator struct {
	mu    sync.Mutex
	calls []generateCall
	err   error
}

func (f *fakeGenerator) Name() string { return "fake-generator" }

func (f *fakeGenerator) Generate(_ context.Context, instruction string, content []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, generateCall{instruction: instruction, content: content})
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("generated %d", len(f.calls)), nil
}

func (f *fakeGenerator) Calls() []generateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]generateCall(nil), f.calls...)
}

var (
	_ llm.Summarizer = (*fakeSummarizer)(nil)
	_ llm.Generator  = (*fakeGenerator)(nil)
)

// longAbstract is 50 sentences of 20 words each.
func longAbstract() string {
	sentence := "The experiment " + strings.Repeat("measured ", 17) + "accuracy."
	sentences := make([]string, 50)
	for i := range sentences {
		sentences[i] = sentence
	}
	return strings.Join(sentences, " ")
}

type fixture struct {
	searcher   *fakeSearcher
	source     *fakeSource
	summarizer *fakeSummarizer
	generator  *fakeGenerator
	session    *Session
}

func newFixture() *fixture {
	f := &fixture{
		searcher: &fakeSearcher{docs: []arxiv.Document{
			{ID: "2405.00001v1", Title: "Long", Abstract: longAbstract()},
			{ID: "2405.00002v1", Title: "Short", Abstract: "Transformers attend to tokens. They scale well."},
		}},
		source:     &fakeSource{text: "Full paper text. It has results."},
		summarizer: &fakeSummarizer{},
		generator:  &fakeGenerator{},
	}
	f.session = New(f.options())
	return f
}

func (f *fixture) options() Options {
	return Options{
		Searcher:          f.searcher,
		TextSource:        f.source,
		Summarizer:        f.summarizer,
		Generator:         f.generator,
		Splitter:          textprep.RuleSplitter{},
		QuestionCharLimit: 40,
	}
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
