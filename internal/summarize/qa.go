package summarize

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxQuestionChars bounds question length when no limit is configured.
const DefaultMaxQuestionChars = 500

const qaInstruction = "You are a research assistant answering questions about the academic paper provided below. " +
	"Answer using only the content of that paper and say so when the paper does not contain the answer. " +
	"If the question is unrelated to the paper, politely decline and explain that you can only discuss this paper."

// QARequest is the prepared input for a grounded question.
type QARequest struct {
	Instruction string
	Content     []string
	Question    string
}

// BuildQARequest pairs the paper text with a question. maxChars <= 0 selects
// DefaultMaxQuestionChars.
func BuildQARequest(fullText, question string, maxChars int) (QARequest, error) {
	if err := ValidateQuestion(question, maxChars); err != nil {
		return QARequest{}, err
	}
	if strings.TrimSpace(fullText) == "" {
		return QARequest{}, invalid("paper text is empty")
	}
	return QARequest{
		Instruction: qaInstruction,
		Content:     []string{fullText, question},
		Question:    question,
	}, nil
}

// ValidateQuestion rejects empty questions and those longer than maxChars runes.
func ValidateQuestion(question string, maxChars int) error {
	if maxChars <= 0 {
		maxChars = DefaultMaxQuestionChars
	}
	if strings.TrimSpace(question) == "" {
		return invalid("question is empty")
	}
	if n := utf8.RuneCountInString(question); n > maxChars {
		return invalid("question is %d characters, limit is %d", n, maxChars)
	}
	return nil
}
