package textprep

import "strings"

// WordCount counts whitespace-delimited tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Truncate keeps the longest prefix of whole sentences whose combined word
// count stays within maxWords. Text already within budget is returned as is.
// When the first sentence alone is over budget the result is empty.
func Truncate(text string, maxWords int, splitter Splitter) string {
	if WordCount(text) <= maxWords {
		return text
	}
	if splitter == nil {
		splitter = RuleSplitter{}
	}
	var kept []string
	total := 0
	for _, sentence := range splitter.Split(text) {
		words := WordCount(sentence)
		if total+words > maxWords {
			break
		}
		kept = append(kept, sentence)
		total += words
	}
	return strings.Join(kept, " ")
}
