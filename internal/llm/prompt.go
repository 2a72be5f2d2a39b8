package llm

import (
	"fmt"
	"strings"
)

func buildSummaryPrompt(text string, minLength, maxLength int) string {
	return fmt.Sprintf(
		"You are an expert research assistant. Summarize the following abstract in plain prose "+
			"using between %d and %d words. Do not add information that is not in the abstract.\n\n"+
			"Abstract:\n%s",
		minLength, maxLength, text)
}

func buildGeneratePrompt(content []string) string {
	if len(content) == 1 {
		return "Paper:\n" + content[0]
	}
	var b strings.Builder
	b.WriteString("Paper:\n")
	b.WriteString(content[0])
	for _, part := range content[1:] {
		b.WriteString("\n\nQuestion: ")
		b.WriteString(part)
	}
	b.WriteString("\nAnswer:")
	return b.String()
}
