package summarize

import (
	"fmt"
	"strings"
)

const (
	MinParagraphs = 1
	MaxParagraphs = 15
)

// Complexity is the reading level a paper summary is written for, ordered from
// least to most technical.
type Complexity int

const (
	Beginner Complexity = iota + 1
	Intermediate
	Advanced
	Expert
)

var complexityNames = map[Complexity]string{
	Beginner:     "beginner",
	Intermediate: "intermediate",
	Advanced:     "advanced",
	Expert:       "expert",
}

// Complexities lists every tier in ascending order.
func Complexities() []Complexity {
	return []Complexity{Beginner, Intermediate, Advanced, Expert}
}

func (c Complexity) String() string {
	if name, ok := complexityNames[c]; ok {
		return name
	}
	return fmt.Sprintf("complexity(%d)", int(c))
}

// Valid reports whether c is one of the four tiers.
func (c Complexity) Valid() bool {
	_, ok := complexityNames[c]
	return ok
}

// Next cycles to the following tier, wrapping after Expert.
func (c Complexity) Next() Complexity {
	if c >= Expert || c < Beginner {
		return Beginner
	}
	return c + 1
}

// ParseComplexity accepts a tier name or tier1..tier4, case-insensitively.
func ParseComplexity(value string) (Complexity, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for c, name := range complexityNames {
		if value == name || value == fmt.Sprintf("tier%d", int(c)) {
			return c, nil
		}
	}
	return 0, invalid("unknown complexity %q", value)
}

// PaperRequest is the prepared input for a full-paper summary.
type PaperRequest struct {
	Instruction string
	Content     string
	Paragraphs  int
	Complexity  Complexity
}

// BuildPaperRequest fills the summary instruction template. The full text is
// passed through untouched.
func BuildPaperRequest(fullText string, paragraphs int, complexity Complexity) (PaperRequest, error) {
	if err := ValidatePaperParams(paragraphs, complexity); err != nil {
		return PaperRequest{}, err
	}
	if strings.TrimSpace(fullText) == "" {
		return PaperRequest{}, invalid("paper text is empty")
	}
	return PaperRequest{
		Instruction: fmt.Sprintf(
			"Condense this academic paper into a summary of length %d paragraphs, written for a %s audience, remaining informative and professional.",
			paragraphs, complexity),
		Content:    fullText,
		Paragraphs: paragraphs,
		Complexity: complexity,
	}, nil
}

// ValidatePaperParams checks the summary parameters without needing the paper text.
func ValidatePaperParams(paragraphs int, complexity Complexity) error {
	if paragraphs < MinParagraphs || paragraphs > MaxParagraphs {
		return invalid("paragraphs %d outside [%d,%d]", paragraphs, MinParagraphs, MaxParagraphs)
	}
	if !complexity.Valid() {
		return invalid("unknown complexity %d", int(complexity))
	}
	return nil
}
