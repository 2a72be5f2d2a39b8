// Package tui is the interactive terminal front end: search arXiv, pick a
// paper, and read its abstract, summaries and answers.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/csheth/paperdistill/internal/arxiv"
	"github.com/csheth/paperdistill/internal/session"
	"github.com/csheth/paperdistill/internal/summarize"
)

// Config wires runtime options into the TUI program.
type Config struct {
	Session        *session.Session
	Logger         *zap.Logger
	DefaultPercent int
	MaxResults     int
}

type model struct {
	config  Config
	session *session.Session
	logger  *zap.Logger
	jobs    *jobBus
	running map[string]jobSnapshot
	stage   stage
	layout  pageLayout

	queryInput    textinput.Model
	categoryInput textinput.Model
	questionInput textinput.Model
	searchFocus   searchField
	spinner       spinner.Model
	viewport      viewport.Model

	results     []arxiv.Document
	cursor      int
	resultLines []int

	doc        *arxiv.Document
	tab        detailTab
	percent    int
	abstract   summaryState
	paragraphs int
	complexity summarize.Complexity
	paper      summaryState
	qaHistory  []qaExchange

	infoMessage  string
	errorMessage string
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	percent := config.DefaultPercent
	if percent < 1 || percent > 100 {
		percent = defaultPercent
	}

	queryInput := textinput.New()
	queryInput.Prompt = "Query      › "
	queryInput.Placeholder = "keywords, or an arXiv URL / arXiv:ID"
	queryInput.CharLimit = 200
	queryInput.Width = 70
	queryInput.Focus()

	categoryInput := textinput.New()
	categoryInput.Prompt = "Categories › "
	categoryInput.Placeholder = "cs.CL, Machine Learning"
	categoryInput.CharLimit = 300
	categoryInput.Width = 70

	questionInput := textinput.New()
	questionInput.Prompt = "? "
	questionInput.Placeholder = "Ask a question about the paper…"
	questionInput.CharLimit = config.Session.QuestionCharLimit()
	questionInput.Width = 70

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true

	return &model{
		config:        config,
		session:       config.Session,
		logger:        logger,
		jobs:          newJobBus(logger),
		running:       map[string]jobSnapshot{},
		stage:         stageSearch,
		layout:        newPageLayout(),
		queryInput:    queryInput,
		categoryInput: categoryInput,
		questionInput: questionInput,
		spinner:       spin,
		viewport:      vp,
		percent:       percent,
		paragraphs:    defaultParagraphs,
		complexity:    summarize.Intermediate,
		infoMessage:   "Search by keywords and categories, or paste an arXiv link.",
	}
}

func (m *model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.stage == stageDetails {
			m.refreshContent()
		}
		return m, cmd
	case tea.WindowSizeMsg:
		m.layout.Update(msg.Width, msg.Height)
		m.viewport.Width = m.layout.viewportWidth
		m.viewport.Height = m.layout.viewportHeight
		m.refreshContent()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m, m.handleKey(msg)
	case tea.MouseMsg:
		if m.stage == stageResults || m.stage == stageDetails {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		return m, nil
	case jobSignalMsg:
		m.running[msg.Snapshot.ID] = msg.Snapshot
		return m, nil
	case jobResultEnvelope:
		delete(m.running, msg.Snapshot.ID)
		if msg.Payload == nil {
			return m, nil
		}
		return m.Update(msg.Payload)
	case searchResultMsg:
		m.handleSearchResult(msg)
		return m, nil
	case openResultMsg:
		if msg.err != nil {
			m.stage = stageSearch
			m.errorMessage = msg.err.Error()
			m.infoMessage = "Check the identifier and try again."
			return m, m.focusSearchField(fieldQuery)
		}
		m.openDetails(msg.doc)
		return m, nil
	case abstractSummaryMsg:
		m.handleAbstractSummary(msg)
		return m, nil
	case paperSummaryMsg:
		m.handlePaperSummary(msg)
		return m, nil
	case answerMsg:
		m.handleAnswer(msg)
		return m, nil
	}
	return m, nil
}

func (m *model) busy() bool {
	if m.stage == stageLoading || m.abstract.Loading || m.paper.Loading {
		return true
	}
	for _, qa := range m.qaHistory {
		if qa.Pending {
			return true
		}
	}
	return false
}

func (m *model) handleKey(key tea.KeyMsg) tea.Cmd {
	switch m.stage {
	case stageSearch:
		return m.handleSearchKey(key)
	case stageResults:
		return m.handleResultsKey(key)
	case stageDetails:
		return m.handleDetailsKey(key)
	default:
		return nil
	}
}

func (m *model) handleSearchKey(key tea.KeyMsg) tea.Cmd {
	switch key.String() {
	case "tab", "shift+tab":
		if m.searchFocus == fieldQuery {
			return m.focusSearchField(fieldCategories)
		}
		return m.focusSearchField(fieldQuery)
	case "enter":
		return m.submitSearch()
	case "esc":
		if len(m.results) > 0 {
			m.stage = stageResults
			m.errorMessage = ""
			m.refreshContent()
			return nil
		}
		return tea.Quit
	}
	var cmd tea.Cmd
	if m.searchFocus == fieldQuery {
		m.queryInput, cmd = m.queryInput.Update(key)
	} else {
		m.categoryInput, cmd = m.categoryInput.Update(key)
	}
	return cmd
}

func (m *model) focusSearchField(field searchField) tea.Cmd {
	m.searchFocus = field
	if field == fieldQuery {
		m.categoryInput.Blur()
		return m.queryInput.Focus()
	}
	m.queryInput.Blur()
	return m.categoryInput.Focus()
}

func (m *model) submitSearch() tea.Cmd {
	query := strings.TrimSpace(m.queryInput.Value())
	if isDirectReference(query) {
		m.stage = stageLoading
		m.errorMessage = ""
		m.infoMessage = "Looking up paper…"
		return tea.Batch(m.spinner.Tick, m.jobs.Start(jobKindOpen, openJob(m.session, query)))
	}
	categories, err := parseCategories(m.categoryInput.Value())
	if err != nil {
		m.errorMessage = err.Error()
		return nil
	}
	if _, err := arxiv.BuildQuery(query, categories); err != nil {
		m.errorMessage = err.Error()
		return nil
	}
	m.stage = stageLoading
	m.errorMessage = ""
	m.infoMessage = "Searching arXiv…"
	return tea.Batch(m.spinner.Tick, m.jobs.Start(jobKindSearch, searchJob(m.session, query, categories, m.config.MaxResults)))
}

func (m *model) handleSearchResult(msg searchResultMsg) {
	if msg.err != nil {
		m.stage = stageSearch
		m.errorMessage = msg.err.Error()
		m.infoMessage = "Adjust the query and try again."
		return
	}
	m.results = msg.docs
	m.cursor = 0
	m.doc = nil
	m.errorMessage = ""
	if len(msg.docs) == 0 {
		m.stage = stageSearch
		m.infoMessage = "No papers matched. Try broader keywords or fewer categories."
		return
	}
	m.stage = stageResults
	m.infoMessage = fmt.Sprintf("%d papers found. Enter opens a paper.", len(msg.docs))
	m.viewport.GotoTop()
	m.refreshContent()
}

func (m *model) handleResultsKey(key tea.KeyMsg) tea.Cmd {
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		m.refreshContent()
	case "down", "j":
		if m.cursor < len(m.results)-1 {
			m.cursor++
		}
		m.refreshContent()
	case "enter":
		if len(m.results) == 0 {
			return nil
		}
		doc, err := m.session.Select(m.results[m.cursor].ID)
		if err != nil {
			m.errorMessage = err.Error()
			return nil
		}
		m.openDetails(doc)
	case "esc", "/", "s":
		m.stage = stageSearch
		m.errorMessage = ""
		m.infoMessage = "Refine the search and press Enter."
		return m.focusSearchField(fieldQuery)
	}
	return nil
}

func (m *model) openDetails(doc arxiv.Document) {
	m.doc = &doc
	m.stage = stageDetails
	m.tab = tabAbstract
	m.abstract = summaryState{}
	m.paper = summaryState{}
	m.qaHistory = nil
	m.questionInput.SetValue("")
	m.questionInput.Blur()
	m.errorMessage = ""
	m.infoMessage = "Tab switches views. Esc returns to the results."
	m.viewport.GotoTop()
	m.refreshContent()
}

// closeDetails leaves the paper and discards everything computed for it.
func (m *model) closeDetails() tea.Cmd {
	m.session.Clear()
	m.doc = nil
	m.questionInput.Blur()
	m.errorMessage = ""
	if len(m.results) == 0 {
		m.stage = stageSearch
		m.infoMessage = "Search by keywords and categories, or paste an arXiv link."
		return m.focusSearchField(fieldQuery)
	}
	m.stage = stageResults
	m.infoMessage = fmt.Sprintf("%d papers found. Enter opens a paper.", len(m.results))
	m.refreshContent()
	return nil
}

func (m *model) setTab(tab detailTab) tea.Cmd {
	m.tab = tab
	m.viewport.GotoTop()
	m.refreshContent()
	if tab == tabQuestions {
		return m.questionInput.Focus()
	}
	m.questionInput.Blur()
	return nil
}

func (m *model) handleDetailsKey(key tea.KeyMsg) tea.Cmd {
	switch key.String() {
	case "tab":
		return m.setTab((m.tab + 1) % detailTab(len(tabTitles)))
	case "shift+tab":
		return m.setTab((m.tab + detailTab(len(tabTitles)) - 1) % detailTab(len(tabTitles)))
	case "esc":
		if m.tab == tabQuestions && m.questionInput.Value() != "" {
			m.questionInput.SetValue("")
			return nil
		}
		return m.closeDetails()
	case "up", "down", "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(key)
		return cmd
	}

	if m.tab == tabQuestions {
		if key.Type == tea.KeyEnter {
			return m.submitQuestion()
		}
		var cmd tea.Cmd
		m.questionInput, cmd = m.questionInput.Update(key)
		return cmd
	}

	switch key.String() {
	case "1", "2", "3", "4":
		return m.setTab(detailTab(key.String()[0] - '1'))
	}

	switch m.tab {
	case tabAbstractSummary:
		switch key.String() {
		case "+", "=", "right", "l":
			m.percent = min(m.percent+percentStep, 100)
		case "-", "left", "h":
			m.percent = max(m.percent-percentStep, percentStep)
		case "enter", "g":
			return m.generateAbstract(false)
		case "d":
			return m.generateAbstract(true)
		default:
			return nil
		}
		m.refreshContent()
	case tabPaperSummary:
		switch key.String() {
		case "+", "=", "right", "l":
			m.paragraphs = min(m.paragraphs+1, summarize.MaxParagraphs)
		case "-", "left", "h":
			m.paragraphs = max(m.paragraphs-1, summarize.MinParagraphs)
		case "c":
			m.complexity = m.complexity.Next()
		case "enter", "g":
			return m.generatePaper()
		default:
			return nil
		}
		m.refreshContent()
	}
	return nil
}

func (m *model) generateAbstract(useDefault bool) tea.Cmd {
	if m.doc == nil || m.abstract.Loading {
		return nil
	}
	params := abstractParams(m.percent, useDefault)
	m.abstract = summaryState{Params: params, Loading: true}
	m.errorMessage = ""
	m.refreshContent()
	job := abstractSummaryJob(m.session, m.doc.ID, params, m.percent, useDefault)
	return tea.Batch(m.spinner.Tick, m.jobs.Start(jobKindAbstract, job))
}

func (m *model) handleAbstractSummary(msg abstractSummaryMsg) {
	if m.doc == nil || m.doc.ID != msg.docID || m.abstract.Params != msg.params {
		m.logger.Debug("dropping stale abstract summary", zap.String("document_id", msg.docID))
		return
	}
	m.abstract.Loading = false
	if msg.err != nil {
		m.abstract.Error = "Error generating summary: " + msg.err.Error()
	} else {
		req := msg.summary.Request
		m.abstract.Text = msg.summary.Text
		m.abstract.Bounds = fmt.Sprintf("%d–%d words requested from a %d word abstract", req.MinLength, req.MaxLength, req.OriginalWords)
		if req.Truncated {
			m.abstract.Bounds += " (input trimmed to whole sentences)"
		}
	}
	m.refreshContent()
}

func (m *model) generatePaper() tea.Cmd {
	if m.doc == nil || m.paper.Loading {
		return nil
	}
	params := paperParams(m.paragraphs, m.complexity)
	m.paper = summaryState{Params: params, Loading: true}
	m.errorMessage = ""
	m.refreshContent()
	job := paperSummaryJob(m.session, m.doc.ID, params, m.paragraphs, m.complexity)
	return tea.Batch(m.spinner.Tick, m.jobs.Start(jobKindPaper, job))
}

func (m *model) handlePaperSummary(msg paperSummaryMsg) {
	if m.doc == nil || m.doc.ID != msg.docID || m.paper.Params != msg.params {
		m.logger.Debug("dropping stale paper summary", zap.String("document_id", msg.docID))
		return
	}
	m.paper.Loading = false
	if msg.err != nil {
		m.paper.Error = "Error generating summary: " + msg.err.Error()
	} else {
		m.paper.Text = msg.text
	}
	m.refreshContent()
}

func (m *model) submitQuestion() tea.Cmd {
	question := strings.TrimSpace(m.questionInput.Value())
	if question == "" {
		m.infoMessage = "Type a question or press Esc to go back."
		return nil
	}
	if m.doc == nil {
		return nil
	}
	m.questionInput.SetValue("")
	m.qaHistory = append(m.qaHistory, qaExchange{
		Question: question,
		Pending:  true,
		AskedAt:  time.Now(),
	})
	m.infoMessage = "Answering from the paper text…"
	m.refreshContent()
	m.viewport.GotoBottom()
	idx := len(m.qaHistory) - 1
	return tea.Batch(m.spinner.Tick, m.jobs.Start(jobKindQuestion, questionJob(m.session, m.doc.ID, idx, question)))
}

func (m *model) handleAnswer(msg answerMsg) {
	if m.doc == nil || m.doc.ID != msg.docID || msg.index < 0 || msg.index >= len(m.qaHistory) {
		m.logger.Debug("dropping stale answer", zap.String("document_id", msg.docID))
		return
	}
	entry := &m.qaHistory[msg.index]
	entry.Pending = false
	if msg.err != nil {
		entry.Error = msg.err.Error()
		m.infoMessage = "Question failed. Ask again to retry."
	} else {
		entry.Answer = msg.answer
		m.infoMessage = "Answer ready. Ask another question."
	}
	m.refreshContent()
}
