package tui

import "time"

type stage int

const (
	stageSearch stage = iota
	stageLoading
	stageResults
	stageDetails
)

type detailTab int

const (
	tabAbstract detailTab = iota
	tabAbstractSummary
	tabPaperSummary
	tabQuestions
)

var tabTitles = []string{"Abstract", "Abstract Summary", "Paper Summary", "Q&A"}

func (t detailTab) String() string {
	if t < 0 || int(t) >= len(tabTitles) {
		return ""
	}
	return tabTitles[t]
}

const (
	appTitle    = "Paper Distill"
	heroTagline = "Search arXiv, then distill abstracts and full papers."
	attribution = "Thank you to arXiv for use of its open access interoperability."
)

const (
	minViewportWidth          = 40
	viewportHorizontalPadding = 4
	authorLimit               = 3
	percentStep               = 5
	defaultPercent            = 20
	defaultParagraphs         = 3
)

type searchField int

const (
	fieldQuery searchField = iota
	fieldCategories
)

// summaryState tracks one generated text on the details screen. Params
// describes the parameters the text was requested with.
type summaryState struct {
	Params  string
	Text    string
	Bounds  string
	Error   string
	Loading bool
}

type qaExchange struct {
	Question string
	Answer   string
	Error    string
	Pending  bool
	AskedAt  time.Time
}
