// Package session holds the per-user state of the assistant: the current search
// results, the selected paper and the results computed for it.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/csheth/paperdistill/internal/arxiv"
	"github.com/csheth/paperdistill/internal/cache"
	"github.com/csheth/paperdistill/internal/llm"
	"github.com/csheth/paperdistill/internal/metrics"
	"github.com/csheth/paperdistill/internal/summarize"
	"github.com/csheth/paperdistill/internal/textprep"
)

// Searcher finds papers.
type Searcher interface {
	Search(ctx context.Context, query string, categories []string, maxResults int) ([]arxiv.Document, error)
	Lookup(ctx context.Context, idOrURL string) (arxiv.Document, error)
}

// TextSource acquires the body of a paper.
type TextSource interface {
	FullText(ctx context.Context, doc arxiv.Document) (string, error)
}

// Options wires a session to its collaborators. Searcher, TextSource,
// Summarizer and Generator are required.
type Options struct {
	Searcher          Searcher
	TextSource        TextSource
	Summarizer        llm.Summarizer
	Generator         llm.Generator
	Splitter          textprep.Splitter
	Logger            *zap.Logger
	Recorder          metrics.Recorder
	QuestionCharLimit int
	Clock             func() time.Time
}

// AbstractSummary is a summary of the selected paper's abstract together with
// the request that produced it.
type AbstractSummary struct {
	DocumentID string
	Text       string
	Request    summarize.AbstractRequest
	CreatedAt  time.Time
}

// Session is safe for concurrent use. Results are cached per document and
// dropped when the selection moves to another paper.
type Session struct {
	id         string
	searcher   Searcher
	source     TextSource
	summarizer llm.Summarizer
	generator  llm.Generator
	splitter   textprep.Splitter
	logger     *zap.Logger
	questions  int
	now        func() time.Time
	results    *cache.Cache

	mu       sync.RWMutex
	docs     []arxiv.Document
	current  *arxiv.Document
	lastUsed time.Time
}

// New creates a session with a fresh id and an empty result cache.
func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	splitter := opts.Splitter
	if splitter == nil {
		splitter = textprep.DefaultSplitter()
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	questions := opts.QuestionCharLimit
	if questions <= 0 {
		questions = summarize.DefaultMaxQuestionChars
	}
	id := uuid.NewString()
	return &Session{
		id:         id,
		searcher:   opts.Searcher,
		source:     opts.TextSource,
		summarizer: opts.Summarizer,
		generator:  opts.Generator,
		splitter:   splitter,
		logger:     logger.With(zap.String("session_id", id)),
		questions:  questions,
		now:        now,
		results:    cache.New(cache.WithRecorder(opts.Recorder), cache.WithClock(now)),
		lastUsed:   now(),
	}
}

func (s *Session) ID() string { return s.id }

// LastUsed reports when an operation last ran on the session.
func (s *Session) LastUsed() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUsed
}

// QuestionCharLimit is the longest question Ask accepts.
func (s *Session) QuestionCharLimit() int { return s.questions }

// Search replaces the result list and clears the selection.
func (s *Session) Search(ctx context.Context, query string, categories []string, maxResults int) ([]arxiv.Document, error) {
	const op = "search"
	params := fmt.Sprintf("query=%q categories=%v", query, categories)
	if _, err := arxiv.BuildQuery(query, categories); err != nil {
		return nil, opError(op, "", params, fmt.Errorf("%w: %v", summarize.ErrInvalidInput, err))
	}
	docs, err := s.searcher.Search(ctx, query, categories, maxResults)
	if err != nil {
		return nil, opError(op, "", params, upstream("arxiv", err))
	}

	s.mu.Lock()
	s.dropSelectionLocked()
	s.docs = docs
	s.lastUsed = s.now()
	s.mu.Unlock()

	s.logger.Info("search completed", zap.String("query", query), zap.Int("results", len(docs)))
	return append([]arxiv.Document(nil), docs...), nil
}

// Results returns the documents from the last search.
func (s *Session) Results() []arxiv.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]arxiv.Document(nil), s.docs...)
}

// Current returns the selected document.
func (s *Session) Current() (arxiv.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return arxiv.Document{}, false
	}
	return *s.current, true
}

// Select picks a document from the last search results.
func (s *Session) Select(documentID string) (arxiv.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range s.docs {
		if doc.ID == documentID {
			s.selectLocked(doc)
			return doc, nil
		}
	}
	return arxiv.Document{}, opError("select", documentID, "", ErrUnknownDocument)
}

// Open looks a paper up by identifier or URL and selects it.
func (s *Session) Open(ctx context.Context, idOrURL string) (arxiv.Document, error) {
	const op = "open"
	if arxiv.ExtractIdentifier(idOrURL) == "" {
		return arxiv.Document{}, opError(op, "", idOrURL, fmt.Errorf("%w: not an arXiv identifier", summarize.ErrInvalidInput))
	}
	doc, err := s.searcher.Lookup(ctx, idOrURL)
	if errors.Is(err, arxiv.ErrNotFound) {
		return arxiv.Document{}, opError(op, "", idOrURL, ErrUnknownDocument)
	}
	if err != nil {
		return arxiv.Document{}, opError(op, "", idOrURL, upstream("arxiv", err))
	}

	s.mu.Lock()
	s.selectLocked(doc)
	s.mu.Unlock()
	return doc, nil
}

// Clear deselects the current document and discards its cached results.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropSelectionLocked()
	s.lastUsed = s.now()
}

func (s *Session) selectLocked(doc arxiv.Document) {
	if s.current != nil && s.current.ID != doc.ID {
		s.dropSelectionLocked()
	}
	s.current = &doc
	s.lastUsed = s.now()
	s.logger.Debug("document selected", zap.String("document_id", doc.ID))
}

func (s *Session) dropSelectionLocked() {
	if s.current == nil {
		return
	}
	n := s.results.Invalidate(s.current.ID)
	s.logger.Debug("document released",
		zap.String("document_id", s.current.ID),
		zap.Int("evicted", n))
	s.current = nil
}

func (s *Session) selected(op, params string) (arxiv.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = s.now()
	if s.current == nil {
		return arxiv.Document{}, opError(op, "", params, ErrNoDocument)
	}
	return *s.current, nil
}

// SummarizeAbstract summarizes the selected abstract to about percent of its
// original length.
func (s *Session) SummarizeAbstract(ctx context.Context, percent int) (AbstractSummary, error) {
	const op = "summarize abstract"
	params := fmt.Sprintf("percent=%d", percent)
	doc, err := s.selected(op, params)
	if err != nil {
		return AbstractSummary{}, err
	}
	req, err := summarize.BuildAbstractRequest(doc.Abstract, percent, s.splitter)
	if err != nil {
		return AbstractSummary{}, opError(op, doc.ID, params, err)
	}
	return s.summarizeAbstract(ctx, op, params, cache.AbstractKey(doc.ID, percent), req)
}

// SummarizeAbstractDefault summarizes the selected abstract with the default
// length window.
func (s *Session) SummarizeAbstractDefault(ctx context.Context) (AbstractSummary, error) {
	const op = "summarize abstract"
	params := fmt.Sprintf("max_length=%d", summarize.DefaultAbstractMaxLength)
	doc, err := s.selected(op, params)
	if err != nil {
		return AbstractSummary{}, err
	}
	req, err := summarize.BuildAbstractRequestWithMaxLength(doc.Abstract, summarize.DefaultAbstractMaxLength, s.splitter)
	if err != nil {
		return AbstractSummary{}, opError(op, doc.ID, params, err)
	}
	return s.summarizeAbstract(ctx, op, params, cache.AbstractMaxLengthKey(doc.ID, summarize.DefaultAbstractMaxLength), req)
}

func (s *Session) summarizeAbstract(ctx context.Context, op, params string, key cache.Key, req summarize.AbstractRequest) (AbstractSummary, error) {
	res, err := s.results.GetOrCompute(ctx, key, func(ctx context.Context) (string, error) {
		s.logger.Info("summarizing abstract",
			zap.String("document_id", key.DocumentID),
			zap.String("backend", s.summarizer.Name()),
			zap.Int("min_length", req.MinLength),
			zap.Int("max_length", req.MaxLength),
			zap.Bool("truncated", req.Truncated))
		return s.summarizer.Summarize(ctx, req.Text, req.MinLength, req.MaxLength)
	})
	if err != nil {
		return AbstractSummary{}, opError(op, key.DocumentID, params, err)
	}
	return AbstractSummary{DocumentID: key.DocumentID, Text: res.Text, Request: req, CreatedAt: res.CreatedAt}, nil
}

// SummarizePaper condenses the selected paper's full text.
func (s *Session) SummarizePaper(ctx context.Context, paragraphs int, complexity summarize.Complexity) (string, error) {
	const op = "summarize paper"
	params := fmt.Sprintf("paragraphs=%d complexity=%s", paragraphs, complexity)
	doc, err := s.selected(op, params)
	if err != nil {
		return "", err
	}
	if err := summarize.ValidatePaperParams(paragraphs, complexity); err != nil {
		return "", opError(op, doc.ID, params, err)
	}
	key := cache.PaperKey(doc.ID, paragraphs, complexity.String())
	res, err := s.results.GetOrCompute(ctx, key, func(ctx context.Context) (string, error) {
		text, err := s.fullText(ctx, doc)
		if err != nil {
			return "", err
		}
		req, err := summarize.BuildPaperRequest(text, paragraphs, complexity)
		if err != nil {
			return "", err
		}
		s.logger.Info("summarizing paper",
			zap.String("document_id", doc.ID),
			zap.String("backend", s.generator.Name()),
			zap.Int("paragraphs", paragraphs),
			zap.Stringer("complexity", complexity))
		return s.generator.Generate(ctx, req.Instruction, []string{req.Content})
	})
	if err != nil {
		return "", opError(op, doc.ID, params, err)
	}
	return res.Text, nil
}

// Ask answers a question about the selected paper from its full text.
func (s *Session) Ask(ctx context.Context, question string) (string, error) {
	const op = "ask"
	params := questionParams(question)
	doc, err := s.selected(op, params)
	if err != nil {
		return "", err
	}
	if err := summarize.ValidateQuestion(question, s.questions); err != nil {
		return "", opError(op, doc.ID, params, err)
	}
	res, err := s.results.GetOrCompute(ctx, cache.QAKey(doc.ID, question), func(ctx context.Context) (string, error) {
		text, err := s.fullText(ctx, doc)
		if err != nil {
			return "", err
		}
		req, err := summarize.BuildQARequest(text, question, s.questions)
		if err != nil {
			return "", err
		}
		s.logger.Info("answering question",
			zap.String("document_id", doc.ID),
			zap.String("backend", s.generator.Name()),
			zap.Int("question_chars", len([]rune(question))))
		return s.generator.Generate(ctx, req.Instruction, req.Content)
	})
	if err != nil {
		return "", opError(op, doc.ID, params, err)
	}
	return res.Text, nil
}

const questionParamRunes = 60

// questionParams renders question for error messages, clipped to a short prefix.
func questionParams(question string) string {
	q := []rune(strings.Join(strings.Fields(question), " "))
	if len(q) > questionParamRunes {
		q = append(q[:questionParamRunes], '…')
	}
	return fmt.Sprintf("question=%q", string(q))
}

// FullText returns the selected paper's body, acquiring it at most once.
func (s *Session) FullText(ctx context.Context) (string, error) {
	const op = "full text"
	doc, err := s.selected(op, "")
	if err != nil {
		return "", err
	}
	text, err := s.fullText(ctx, doc)
	if err != nil {
		return "", opError(op, doc.ID, "", err)
	}
	return text, nil
}

func (s *Session) fullText(ctx context.Context, doc arxiv.Document) (string, error) {
	res, err := s.results.GetOrCompute(ctx, cache.FullTextKey(doc.ID), func(ctx context.Context) (string, error) {
		start := time.Now()
		text, err := s.source.FullText(ctx, doc)
		if err != nil {
			return "", upstream("arxiv", err)
		}
		s.logger.Info("full text acquired",
			zap.String("document_id", doc.ID),
			zap.Int("words", textprep.WordCount(text)),
			zap.Duration("duration", time.Since(start)))
		return text, nil
	})
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

func upstream(name string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, llm.ErrBackendUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", llm.ErrBackendUnavailable, name, err)
}
