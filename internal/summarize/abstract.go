package summarize

import (
	"math"
	"strings"

	"github.com/csheth/paperdistill/internal/textprep"
)

const (
	// AbstractWordBudget caps the words handed to the local summarizer.
	AbstractWordBudget = 900
	// DefaultAbstractMaxLength is used when the caller picks no percentage.
	DefaultAbstractMaxLength = 100

	boundSlack         = 10
	defaultLengthSlack = 25
)

// AbstractRequest is the prepared input for the local summarization backend.
type AbstractRequest struct {
	Text          string
	MinLength     int
	MaxLength     int
	TargetWords   int
	OriginalWords int
	Truncated     bool
}

// BuildAbstractRequest prepares an abstract for a summary of roughly
// targetPercent of its original length. Bounds are target±10, clamped at zero.
func BuildAbstractRequest(abstract string, targetPercent int, splitter textprep.Splitter) (AbstractRequest, error) {
	if targetPercent < 1 || targetPercent > 100 {
		return AbstractRequest{}, invalid("target percent %d outside [1,100]", targetPercent)
	}
	req, err := prepareAbstract(abstract, splitter)
	if err != nil {
		return AbstractRequest{}, err
	}
	target := int(math.Round(float64(targetPercent) / 100 * float64(req.OriginalWords)))
	req.TargetWords = target
	req.MaxLength = target + boundSlack
	req.MinLength = max(target-boundSlack, 0)
	return req, nil
}

// BuildAbstractRequestWithMaxLength prepares an abstract for a summary bounded by
// maxLength, with the lower bound 25 below it.
func BuildAbstractRequestWithMaxLength(abstract string, maxLength int, splitter textprep.Splitter) (AbstractRequest, error) {
	if maxLength <= 0 {
		return AbstractRequest{}, invalid("max length %d must be positive", maxLength)
	}
	req, err := prepareAbstract(abstract, splitter)
	if err != nil {
		return AbstractRequest{}, err
	}
	req.TargetWords = maxLength
	req.MaxLength = maxLength
	req.MinLength = max(maxLength-defaultLengthSlack, 0)
	return req, nil
}

func prepareAbstract(abstract string, splitter textprep.Splitter) (AbstractRequest, error) {
	if strings.TrimSpace(abstract) == "" {
		return AbstractRequest{}, invalid("abstract is empty")
	}
	words := textprep.WordCount(abstract)
	req := AbstractRequest{Text: abstract, OriginalWords: words}
	if words > AbstractWordBudget {
		req.Text = textprep.Truncate(abstract, AbstractWordBudget, splitter)
		req.Truncated = true
		if req.Text == "" {
			return AbstractRequest{}, ErrEmptyTruncation
		}
	}
	return req, nil
}
