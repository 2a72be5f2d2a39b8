package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

func (m *model) View() string {
	var body string
	switch m.stage {
	case stageSearch:
		body = m.viewSearch()
	case stageLoading:
		body = m.viewLoading()
	case stageResults:
		body = m.viewResults()
	case stageDetails:
		body = m.viewDetails()
	}
	return joinNonEmpty([]string{m.heroView(), body, m.messagesView(), m.footerView()})
}

func (m *model) heroView() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Render(appTitle),
		taglineStyle.Render(heroTagline),
	)
}

func (m *model) viewSearch() string {
	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render("Search arXiv"))
	b.WriteRune('\n')
	b.WriteString(m.queryInput.View())
	b.WriteRune('\n')
	b.WriteString(m.categoryInput.View())
	b.WriteRune('\n')
	b.WriteString(helperStyle.Render("Categories take codes (cs.CL) or names (Machine Learning), separated by commas."))
	return b.String()
}

func (m *model) viewLoading() string {
	return helperStyle.Render(fmt.Sprintf("%s %s", m.spinner.View(), m.infoMessage))
}

func (m *model) viewResults() string {
	return joinNonEmpty([]string{
		sectionHeaderStyle.Render(fmt.Sprintf("Results (%d)", len(m.results))),
		m.viewport.View(),
	})
}

func (m *model) viewDetails() string {
	if m.doc == nil {
		return ""
	}
	parts := []string{m.paperBox(), m.tabBar(), m.viewport.View()}
	if m.tab == tabQuestions {
		parts = append(parts, m.questionInput.View())
	}
	return joinNonEmpty(parts)
}

func (m *model) paperBox() string {
	width := m.wrapWidth(8)
	lines := []string{heroTitleStyle.Render(wordwrap.String(m.doc.Title, width))}
	meta := []string{"arXiv:" + m.doc.ID}
	if date := m.doc.PublishedDate(); date != "" {
		meta = append(meta, date)
	}
	lines = append(lines, helperStyle.Render(strings.Join(meta, " • ")))
	if authors := m.doc.AuthorLine(authorLimit); authors != "" {
		lines = append(lines, helperStyle.Render(wordwrap.String("Authors: "+authors, width)))
	}
	if names := m.doc.CategoryNames(); len(names) > 0 {
		lines = append(lines, subjectStyle.Render(wordwrap.String(strings.Join(names, ", "), width)))
	}
	return heroBoxStyle.Render(strings.Join(lines, "\n"))
}

func (m *model) tabBar() string {
	cells := make([]string, 0, len(tabTitles))
	for idx, title := range tabTitles {
		label := fmt.Sprintf("%d %s", idx+1, title)
		if detailTab(idx) == m.tab {
			cells = append(cells, activeTabStyle.Render(label))
		} else {
			cells = append(cells, tabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func (m *model) messagesView() string {
	parts := []string{}
	if m.errorMessage != "" {
		parts = append(parts, errorStyle.Render(m.errorMessage))
	}
	if m.infoMessage != "" && m.stage != stageLoading {
		parts = append(parts, helperStyle.Render(m.infoMessage))
	}
	return strings.Join(parts, "\n")
}

func (m *model) footerView() string {
	return joinNonEmpty([]string{
		m.statusBar(),
		helperStyle.Render(m.keyHints()),
		attributionStyle.Render(attribution),
	})
}

func (m *model) statusBar() string {
	stats := []string{m.stageLabel()}
	if len(m.results) > 0 {
		stats = append(stats, fmt.Sprintf("Results %d", len(m.results)))
	}
	if m.doc != nil {
		stats = append(stats, "Paper "+m.doc.ID)
	}
	stats = append(stats, m.jobStatusBadges()...)
	return statusBarStyle.Render(strings.Join(stats, "  •  "))
}

func (m *model) stageLabel() string {
	switch m.stage {
	case stageLoading:
		return "LOADING"
	case stageResults:
		return "RESULTS"
	case stageDetails:
		return strings.ToUpper(m.tab.String())
	default:
		return "SEARCH"
	}
}

func (m *model) jobStatusBadges() []string {
	if len(m.running) == 0 {
		return nil
	}
	kinds := make([]string, 0, len(m.running))
	for _, job := range m.running {
		kinds = append(kinds, string(job.Kind))
	}
	sort.Strings(kinds)
	return []string{fmt.Sprintf("%s %s", m.spinner.View(), strings.Join(kinds, ", "))}
}

func (m *model) keyHints() string {
	switch m.stage {
	case stageSearch:
		return "Enter search • Tab switch field • Esc back/quit • Ctrl+C quit"
	case stageResults:
		return "↑/↓ move • Enter open • / new search • Ctrl+C quit"
	case stageDetails:
		if m.tab == tabQuestions {
			return "Enter ask • Tab next view • Esc back • Ctrl+C quit"
		}
		return "Tab/1-4 views • ↑/↓ scroll • Esc back • Ctrl+C quit"
	default:
		return "Ctrl+C quit"
	}
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}

var (
	titleStyle         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Underline(true)
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	subjectStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helperStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	resultTitleStyle   = lipgloss.NewStyle().Bold(true)
	questionStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("147"))
	summaryTextStyle   = lipgloss.NewStyle().Italic(true)

	heroAccentColor        = lipgloss.Color("#ff8c00")
	heroSecondaryTextColor = lipgloss.Color("#ffb347")

	heroTitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(heroAccentColor)
	heroBoxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(heroAccentColor).Padding(0, 2)
	taglineStyle     = lipgloss.NewStyle().Foreground(heroSecondaryTextColor).Italic(true)
	statusBarStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)
	tabStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4")).Padding(0, 1)
	activeTabStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166")).Padding(0, 1)
	currentLineStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6"))
	attributionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
)
