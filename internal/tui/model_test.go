package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/paperdistill/internal/arxiv"
	"github.com/csheth/paperdistill/internal/session"
	"github.com/csheth/paperdistill/internal/summarize"
	"github.com/csheth/paperdistill/internal/textprep"
)

type fakeSearcher struct{ docs []arxiv.Document }

func (f fakeSearcher) Search(context.Context, string, []string, int) ([]arxiv.Document, error) {
	return f.docs, nil
}

func (f fakeSearcher) Lookup(_ context.Context, ref string) (arxiv.Document, error) {
	id := arxiv.ExtractIdentifier(ref)
	for _, doc := range f.docs {
		if doc.ID == id {
			return doc, nil
		}
	}
	return arxiv.Document{}, arxiv.ErrNotFound
}

type fakeSource struct{}

func (fakeSource) FullText(context.Context, arxiv.Document) (string, error) {
	return "The paper body. It has results.", nil
}

type fakeSummarizer struct{}

func (fakeSummarizer) Name() string { return "fake" }

func (fakeSummarizer) Summarize(context.Context, string, int, int) (string, error) {
	return "A short summary.", nil
}

type fakeGenerator struct{}

func (fakeGenerator) Name() string { return "fake" }

func (fakeGenerator) Generate(_ context.Context, _ string, content []string) (string, error) {
	return "Generated from " + content[0], nil
}

var fixtureDocs = []arxiv.Document{
	{
		ID:         "2405.00001v1",
		Title:      "Sparse Attention for Long Documents",
		Authors:    []string{"Ada Lovelace", "Alan Turing", "Grace Hopper", "Edsger Dijkstra"},
		Categories: []string{"cs.CL", "cs.LG"},
		Abstract:   "We propose sparse attention. It scales linearly. Experiments confirm it.",
	},
	{
		ID:       "2405.00002v1",
		Title:    "Second Paper",
		Authors:  []string{"Solo Author"},
		Abstract: "Another abstract.",
	},
}

func newTestModel(t *testing.T) *model {
	t.Helper()
	sess := session.New(session.Options{
		Searcher:   fakeSearcher{docs: fixtureDocs},
		TextSource: fakeSource{},
		Summarizer: fakeSummarizer{},
		Generator:  fakeGenerator{},
		Splitter:   textprep.RuleSplitter{},
	})
	m, ok := New(Config{Session: sess, MaxResults: 10}).(*model)
	if !ok {
		t.Fatal("New should return *model")
	}
	return m
}

// run executes a job runner synchronously and feeds its message back.
func run(t *testing.T, m *model, runner jobRunner) {
	t.Helper()
	msg, _ := runner(context.Background())
	m.Update(msg)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loadResults(t *testing.T, m *model) {
	t.Helper()
	run(t, m, searchJob(m.session, "attention", nil, 10))
	if m.stage != stageResults {
		t.Fatalf("expected results stage, got %v", m.stage)
	}
}

func openFirst(t *testing.T, m *model) {
	t.Helper()
	loadResults(t, m)
	m.Update(key("enter"))
	if m.stage != stageDetails || m.doc == nil {
		t.Fatalf("expected details stage, got %v", m.stage)
	}
}

func TestSearchRequiresQueryOrCategory(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(key("enter"))
	if cmd != nil {
		t.Fatalf("empty search should not start a job")
	}
	if m.stage != stageSearch || m.errorMessage == "" {
		t.Fatalf("expected validation error, stage=%v err=%q", m.stage, m.errorMessage)
	}
}

func TestSearchRejectsUnknownCategory(t *testing.T) {
	m := newTestModel(t)
	m.categoryInput.SetValue("cs.CL, Alchemy")
	m.Update(key("enter"))
	if !strings.Contains(m.errorMessage, "Alchemy") {
		t.Fatalf("expected unknown category error, got %q", m.errorMessage)
	}
}

func TestSearchSubmitStartsJob(t *testing.T) {
	m := newTestModel(t)
	m.queryInput.SetValue("attention")
	_, cmd := m.Update(key("enter"))
	if cmd == nil {
		t.Fatal("submit should return a command")
	}
	if m.stage != stageLoading {
		t.Fatalf("stage = %v, want loading", m.stage)
	}
}

func TestTabSwitchesSearchField(t *testing.T) {
	m := newTestModel(t)
	m.Update(key("tab"))
	if m.searchFocus != fieldCategories || !m.categoryInput.Focused() || m.queryInput.Focused() {
		t.Fatal("tab should move focus to the categories field")
	}
	m.Update(key("tab"))
	if m.searchFocus != fieldQuery || !m.queryInput.Focused() {
		t.Fatal("tab should move focus back to the query field")
	}
}

func TestParseCategories(t *testing.T) {
	got, err := parseCategories(" cs.CL, Machine Learning ,cs.CL,, quant-ph")
	if err != nil {
		t.Fatalf("parseCategories: %v", err)
	}
	want := []string{"cs.CL", "cs.LG", "quant-ph"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got, err := parseCategories("  "); err != nil || len(got) != 0 {
		t.Fatalf("blank input should yield nothing, got %v %v", got, err)
	}
}

func TestIsDirectReference(t *testing.T) {
	cases := map[string]bool{
		"https://arxiv.org/abs/2405.00001": true,
		"arXiv:2405.00001":                 true,
		"arxiv.org/pdf/2405.00001":         true,
		"sparse attention":                 false,
		"2405.00001":                       false,
	}
	for in, want := range cases {
		if got := isDirectReference(in); got != want {
			t.Errorf("isDirectReference(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestResultsListing(t *testing.T) {
	m := newTestModel(t)
	loadResults(t, m)

	view := m.View()
	for _, want := range []string{"Sparse Attention for Long Documents", "Ada Lovelace, Alan Turing, Grace Hopper et al.", "Computation and Language"} {
		if !strings.Contains(view, want) {
			t.Fatalf("results view missing %q", want)
		}
	}

	m.Update(key("down"))
	m.Update(key("down"))
	if m.cursor != 1 {
		t.Fatalf("cursor should stop at last result, got %d", m.cursor)
	}
}

func TestOpenDetailsSelectsDocument(t *testing.T) {
	m := newTestModel(t)
	loadResults(t, m)
	m.Update(key("down"))
	m.Update(key("enter"))

	current, ok := m.session.Current()
	if !ok || current.ID != "2405.00002v1" {
		t.Fatalf("session selection = %v %v", current.ID, ok)
	}
	if m.tab != tabAbstract {
		t.Fatalf("details should open on the abstract tab")
	}
	if !strings.Contains(m.viewport.View(), "Another abstract.") {
		t.Fatal("abstract not rendered")
	}
}

func TestEscFromDetailsClearsSelection(t *testing.T) {
	m := newTestModel(t)
	openFirst(t, m)
	m.Update(key("esc"))
	if m.stage != stageResults {
		t.Fatalf("stage = %v, want results", m.stage)
	}
	if _, ok := m.session.Current(); ok {
		t.Fatal("leaving details should clear the session selection")
	}
}

func TestPercentAdjustmentIsClamped(t *testing.T) {
	m := newTestModel(t)
	openFirst(t, m)
	m.Update(key("2"))
	if m.tab != tabAbstractSummary {
		t.Fatalf("tab = %v", m.tab)
	}
	for i := 0; i < 30; i++ {
		m.Update(key("+"))
	}
	if m.percent != 100 {
		t.Fatalf("percent = %d, want 100", m.percent)
	}
	for i := 0; i < 30; i++ {
		m.Update(key("-"))
	}
	if m.percent != percentStep {
		t.Fatalf("percent = %d, want %d", m.percent, percentStep)
	}
}

func TestAbstractSummaryFlow(t *testing.T) {
	m := newTestModel(t)
	openFirst(t, m)
	m.Update(key("2"))

	_, cmd := m.Update(key("enter"))
	if cmd == nil || !m.abstract.Loading {
		t.Fatal("enter should start an abstract summary job")
	}
	run(t, m, abstractSummaryJob(m.session, m.doc.ID, m.abstract.Params, m.percent, false))
	if m.abstract.Loading || m.abstract.Text != "A short summary." {
		t.Fatalf("summary not stored: %+v", m.abstract)
	}
	if !strings.Contains(m.viewport.View(), "A short summary.") {
		t.Fatal("summary not rendered")
	}
}

func TestStaleResultsAreDropped(t *testing.T) {
	m := newTestModel(t)
	openFirst(t, m)
	m.abstract = summaryState{Params: "20% of original length", Loading: true}

	m.Update(abstractSummaryMsg{docID: "other", params: "20% of original length", summary: session.AbstractSummary{Text: "wrong"}})
	if !m.abstract.Loading || m.abstract.Text != "" {
		t.Fatal("result for another document should be ignored")
	}
	m.Update(paperSummaryMsg{docID: "other", text: "wrong"})
	if m.paper.Text != "" {
		t.Fatal("paper summary for another document should be ignored")
	}
}

func TestSummaryErrorIsShown(t *testing.T) {
	m := newTestModel(t)
	openFirst(t, m)
	m.Update(key("3"))
	m.Update(key("enter"))
	params := m.paper.Params
	m.Update(paperSummaryMsg{docID: m.doc.ID, params: params, err: errors.New("backend unavailable")})
	if !strings.HasPrefix(m.paper.Error, "Error generating summary: ") {
		t.Fatalf("unexpected error text %q", m.paper.Error)
	}
}

func TestPaperSummaryControls(t *testing.T) {
	m := newTestModel(t)
	openFirst(t, m)
	m.Update(key("3"))

	m.Update(key("c"))
	if m.complexity != summarize.Advanced {
		t.Fatalf("complexity = %v, want advanced", m.complexity)
	}
	m.Update(key("c"))
	m.Update(key("c"))
	if m.complexity != summarize.Beginner {
		t.Fatalf("complexity should wrap to beginner, got %v", m.complexity)
	}
	for i := 0; i < 20; i++ {
		m.Update(key("+"))
	}
	if m.paragraphs != summarize.MaxParagraphs {
		t.Fatalf("paragraphs = %d", m.paragraphs)
	}

	m.Update(key("enter"))
	run(t, m, paperSummaryJob(m.session, m.doc.ID, m.paper.Params, m.paragraphs, m.complexity))
	if m.paper.Text != "Generated from The paper body. It has results." {
		t.Fatalf("unexpected paper summary %q", m.paper.Text)
	}
}

func TestQuestionFlow(t *testing.T) {
	m := newTestModel(t)
	openFirst(t, m)
	m.Update(key("4"))
	if !m.questionInput.Focused() {
		t.Fatal("question input should focus on the Q&A tab")
	}
	m.questionInput.SetValue("What is new?")
	_, cmd := m.Update(key("enter"))
	if cmd == nil {
		t.Fatal("question should start a job")
	}
	if len(m.qaHistory) != 1 || !m.qaHistory[0].Pending {
		t.Fatalf("qa history not updated: %+v", m.qaHistory)
	}
	run(t, m, questionJob(m.session, m.doc.ID, 0, "What is new?"))
	if m.qaHistory[0].Pending || m.qaHistory[0].Answer == "" {
		t.Fatalf("answer not stored: %+v", m.qaHistory[0])
	}
}

func TestJobEnvelopeDeliversPayload(t *testing.T) {
	m := newTestModel(t)
	m.Update(jobSignalMsg{Snapshot: jobSnapshot{ID: "search-1", Kind: jobKindSearch, Status: jobStatusRunning}})
	if len(m.running) != 1 {
		t.Fatal("running job not tracked")
	}
	m.Update(jobResultEnvelope{
		Snapshot: jobSnapshot{ID: "search-1", Kind: jobKindSearch, Status: jobStatusSucceeded},
		Payload:  searchResultMsg{docs: fixtureDocs},
	})
	if len(m.running) != 0 || m.stage != stageResults {
		t.Fatalf("envelope not processed: running=%d stage=%v", len(m.running), m.stage)
	}
}

func TestOpenByReference(t *testing.T) {
	m := newTestModel(t)
	run(t, m, openJob(m.session, "https://arxiv.org/abs/2405.00002v1"))
	if m.stage != stageDetails || m.doc.ID != "2405.00002v1" {
		t.Fatalf("expected details for looked-up paper, stage=%v", m.stage)
	}

	m = newTestModel(t)
	run(t, m, openJob(m.session, "arXiv:1999.99999"))
	if m.stage != stageSearch || m.errorMessage == "" {
		t.Fatalf("failed lookup should return to search with an error")
	}
}

func TestViewShowsAttribution(t *testing.T) {
	m := newTestModel(t)
	view := m.View()
	if !strings.Contains(view, appTitle) || !strings.Contains(view, attribution) {
		t.Fatalf("view missing title or attribution:\n%s", view)
	}
}
