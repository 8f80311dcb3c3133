package rag

import (
	"fmt"
	"strings"

	"mailmind/internal/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// excerptLimit caps the content excerpt per message block. Callers control
// how many messages reach the formatter via their retrieval limit.
const excerptLimit = 500

var titleCaser = cases.Title(language.English)

// BuildContext renders messages as numbered blocks for the generation
// prompt. Input order is preserved: block numbers encode retrieval rank or
// recency and the answer cites them.
func BuildContext(messages []models.Message) string {
	var b strings.Builder
	for i := range messages {
		writeBlock(&b, i+1, &messages[i], -1)
	}
	return b.String()
}

// BuildScoredContext renders similarity search results as numbered blocks,
// including each match's similarity score.
func BuildScoredContext(matches []models.ScoredMessage) string {
	var b strings.Builder
	for i := range matches {
		writeBlock(&b, i+1, &matches[i].Message, matches[i].Similarity)
	}
	return b.String()
}

func writeBlock(b *strings.Builder, index int, msg *models.Message, similarity float64) {
	fmt.Fprintf(b, "[%d] Subject: %s\n", index, msg.Subject)
	fmt.Fprintf(b, "From: %s\n", msg.From)
	fmt.Fprintf(b, "Date: %s\n", msg.InternalDate.Format("Mon, 02 Jan 2006 15:04"))

	if msg.Priority != nil && *msg.Priority != "" {
		fmt.Fprintf(b, "Priority: %s\n", titleCaser.String(*msg.Priority))
	}
	if len(msg.Labels) > 0 {
		fmt.Fprintf(b, "Labels: %s\n", strings.Join(msg.Labels, ", "))
	}
	if similarity >= 0 {
		fmt.Fprintf(b, "Similarity: %.2f\n", similarity)
	}

	fmt.Fprintf(b, "Content: %s\n\n", msg.Excerpt(excerptLimit))
}
