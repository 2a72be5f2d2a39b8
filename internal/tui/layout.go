package tui

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/wordwrap"
)

type pageLayout struct {
	windowWidth    int
	windowHeight   int
	viewportWidth  int
	viewportHeight int
}

func newPageLayout() pageLayout {
	return pageLayout{viewportWidth: 80, viewportHeight: 20}
}

func (l *pageLayout) Update(width, height int) {
	l.windowWidth = width
	l.windowHeight = height
	innerWidth := width - viewportHorizontalPadding
	if innerWidth < minViewportWidth {
		innerWidth = minViewportWidth
	}
	l.viewportWidth = innerWidth
	// header, paper box, tab bar, messages, footer
	const chrome = 16
	usable := height - chrome
	if usable < 6 {
		usable = 6
	}
	l.viewportHeight = usable
}

type contentBuilder struct {
	builder strings.Builder
	lines   int
}

func (cb *contentBuilder) WriteString(s string) {
	cb.builder.WriteString(s)
	cb.lines += strings.Count(s, "\n")
}

func (cb *contentBuilder) WriteRune(r rune) {
	cb.builder.WriteRune(r)
	if r == '\n' {
		cb.lines++
	}
}

func (cb *contentBuilder) String() string {
	return cb.builder.String()
}

func (cb *contentBuilder) Line() int {
	return cb.lines
}

func (m *model) wrapWidth(indent int) int {
	width := m.viewport.Width - indent
	if width < 20 {
		width = 20
	}
	return width
}

// refreshContent re-renders the viewport body for the current stage.
func (m *model) refreshContent() {
	switch m.stage {
	case stageResults:
		content, lines := m.buildResultsContent()
		m.resultLines = lines
		m.viewport.SetContent(content)
		m.keepCursorVisible()
	case stageDetails:
		m.viewport.SetContent(m.buildDetailsContent())
	}
}

func (m *model) buildResultsContent() (string, []int) {
	cb := &contentBuilder{}
	lines := make([]int, 0, len(m.results))
	wrap := m.wrapWidth(4)
	for idx, doc := range m.results {
		lines = append(lines, cb.Line())
		title := wordwrap.String(doc.Title, wrap)
		if idx == m.cursor {
			cb.WriteString(currentLineStyle.Render("▸ " + indentMultiline(title, "  ")[2:]))
		} else {
			cb.WriteString(resultTitleStyle.Render(indentMultiline(title, "  ")))
		}
		cb.WriteRune('\n')

		meta := []string{}
		if authors := doc.AuthorLine(authorLimit); authors != "" {
			meta = append(meta, authors)
		}
		if date := doc.PublishedDate(); date != "" {
			meta = append(meta, date)
		}
		cb.WriteString(helperStyle.Render(indentMultiline(wordwrap.String(strings.Join(meta, " • "), wrap), "  ")))
		cb.WriteRune('\n')
		if names := doc.CategoryNames(); len(names) > 0 {
			cb.WriteString(subjectStyle.Render(indentMultiline(wordwrap.String(strings.Join(names, ", "), wrap), "  ")))
			cb.WriteRune('\n')
		}
		if idx < len(m.results)-1 {
			cb.WriteRune('\n')
		}
	}
	return cb.String(), lines
}

func (m *model) keepCursorVisible() {
	if m.cursor < 0 || m.cursor >= len(m.resultLines) {
		return
	}
	line := m.resultLines[m.cursor]
	end := line + 3
	if m.cursor+1 < len(m.resultLines) {
		end = m.resultLines[m.cursor+1]
	}
	switch {
	case line < m.viewport.YOffset:
		m.viewport.SetYOffset(line)
	case end > m.viewport.YOffset+m.viewport.Height:
		m.viewport.SetYOffset(end - m.viewport.Height)
	}
}

func (m *model) buildDetailsContent() string {
	if m.doc == nil {
		return ""
	}
	cb := &contentBuilder{}
	wrap := m.wrapWidth(2)
	switch m.tab {
	case tabAbstract:
		cb.WriteString(wordwrap.String(m.doc.Abstract, wrap))
		cb.WriteRune('\n')
		if m.doc.AbsURL != "" {
			cb.WriteRune('\n')
			cb.WriteString(helperStyle.Render(m.doc.AbsURL))
			cb.WriteRune('\n')
		}
	case tabAbstractSummary:
		cb.WriteString(sectionHeaderStyle.Render(fmt.Sprintf("Target length: %d%% of the abstract", m.percent)))
		cb.WriteRune('\n')
		cb.WriteString(helperStyle.Render("+/- adjust by 5% • Enter generate • d default length"))
		cb.WriteString("\n\n")
		m.writeSummary(cb, m.abstract, wrap, "Press Enter to generate a summary of the abstract.")
	case tabPaperSummary:
		cb.WriteString(sectionHeaderStyle.Render(fmt.Sprintf("Paragraphs: %d • Complexity: %s", m.paragraphs, m.complexity)))
		cb.WriteRune('\n')
		cb.WriteString(helperStyle.Render("+/- paragraphs • c cycle complexity • Enter generate"))
		cb.WriteString("\n\n")
		m.writeSummary(cb, m.paper, wrap, "Press Enter to summarize the full paper.")
	case tabQuestions:
		m.writeQuestions(cb, wrap)
	}
	return cb.String()
}

func (m *model) writeSummary(cb *contentBuilder, state summaryState, wrap int, emptyMsg string) {
	switch {
	case state.Loading:
		cb.WriteString(helperStyle.Render(fmt.Sprintf("%s Generating summary (%s)…", m.spinner.View(), state.Params)))
	case state.Error != "":
		cb.WriteString(errorStyle.Render(wordwrap.String(state.Error, wrap)))
	case state.Text != "":
		cb.WriteString(helperStyle.Render(state.Params))
		cb.WriteRune('\n')
		if state.Bounds != "" {
			cb.WriteString(helperStyle.Render(state.Bounds))
			cb.WriteRune('\n')
		}
		cb.WriteRune('\n')
		cb.WriteString(summaryTextStyle.Render(wordwrap.String(state.Text, wrap)))
	default:
		cb.WriteString(helperStyle.Render(emptyMsg))
	}
	cb.WriteRune('\n')
}

func (m *model) writeQuestions(cb *contentBuilder, wrap int) {
	if len(m.qaHistory) == 0 {
		cb.WriteString(helperStyle.Render("Answers are grounded in the paper text. Questions about other topics are declined."))
		cb.WriteRune('\n')
		return
	}
	for idx, qa := range m.qaHistory {
		cb.WriteString(questionStyle.Render(wordwrap.String("Q: "+qa.Question, wrap)))
		cb.WriteRune('\n')
		switch {
		case qa.Pending:
			cb.WriteString(helperStyle.Render(m.spinner.View() + " Reading the paper…"))
		case qa.Error != "":
			cb.WriteString(errorStyle.Render(wordwrap.String(qa.Error, wrap)))
		default:
			cb.WriteString(indentMultiline(wordwrap.String(qa.Answer, wrap-2), "  "))
		}
		cb.WriteRune('\n')
		if idx < len(m.qaHistory)-1 {
			cb.WriteRune('\n')
		}
	}
}

func indentMultiline(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
