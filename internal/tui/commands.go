package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/paperdistill/internal/arxiv"
	"github.com/csheth/paperdistill/internal/session"
	"github.com/csheth/paperdistill/internal/summarize"
)

type searchResultMsg struct {
	docs []arxiv.Document
	err  error
}

type openResultMsg struct {
	doc arxiv.Document
	err error
}

type abstractSummaryMsg struct {
	docID   string
	params  string
	summary session.AbstractSummary
	err     error
}

type paperSummaryMsg struct {
	docID  string
	params string
	text   string
	err    error
}

type answerMsg struct {
	docID  string
	index  int
	answer string
	err    error
}

func searchJob(sess *session.Session, query string, categories []string, maxResults int) jobRunner {
	cats := append([]string(nil), categories...)
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, 45*time.Second)
		defer cancel()
		docs, err := sess.Search(ctx, query, cats, maxResults)
		return searchResultMsg{docs: docs, err: err}, err
	}
}

func openJob(sess *session.Session, ref string) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, 45*time.Second)
		defer cancel()
		doc, err := sess.Open(ctx, ref)
		return openResultMsg{doc: doc, err: err}, err
	}
}

func abstractSummaryJob(sess *session.Session, docID, params string, percent int, useDefault bool) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, 3*time.Minute)
		defer cancel()
		var (
			summary session.AbstractSummary
			err     error
		)
		if useDefault {
			summary, err = sess.SummarizeAbstractDefault(ctx)
		} else {
			summary, err = sess.SummarizeAbstract(ctx, percent)
		}
		return abstractSummaryMsg{docID: docID, params: params, summary: summary, err: err}, err
	}
}

func paperSummaryJob(sess *session.Session, docID, params string, paragraphs int, complexity summarize.Complexity) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, 6*time.Minute)
		defer cancel()
		text, err := sess.SummarizePaper(ctx, paragraphs, complexity)
		return paperSummaryMsg{docID: docID, params: params, text: text, err: err}, err
	}
}

func questionJob(sess *session.Session, docID string, index int, question string) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, 6*time.Minute)
		defer cancel()
		answer, err := sess.Ask(ctx, question)
		return answerMsg{docID: docID, index: index, answer: answer, err: err}, err
	}
}

// parseCategories resolves a comma separated list of category codes or
// display names.
func parseCategories(input string) ([]string, error) {
	var codes []string
	seen := map[string]bool{}
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		code, ok := arxiv.CodeFor(part)
		if !ok {
			return nil, fmt.Errorf("unknown category %q", part)
		}
		if !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}
	return codes, nil
}

// isDirectReference reports whether the query names a single paper rather
// than search keywords.
func isDirectReference(query string) bool {
	lower := strings.ToLower(strings.TrimSpace(query))
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "arxiv:") ||
		strings.Contains(lower, "arxiv.org/")
}

func abstractParams(percent int, useDefault bool) string {
	if useDefault {
		return fmt.Sprintf("default (max %d words)", summarize.DefaultAbstractMaxLength)
	}
	return fmt.Sprintf("%d%% of original length", percent)
}

func paperParams(paragraphs int, complexity summarize.Complexity) string {
	unit := "paragraphs"
	if paragraphs == 1 {
		unit = "paragraph"
	}
	return fmt.Sprintf("%d %s, %s", paragraphs, unit, complexity)
}
