package rag

import (
	"regexp"
	"strings"
)

// Strategy is the retrieval path chosen for a question
type Strategy int

const (
	// StrategyClassification filters by a classification label exactly
	StrategyClassification Strategy = iota
	// StrategyTemporal scans by recency without filtering
	StrategyTemporal
	// StrategySemantic embeds the question and searches by similarity
	StrategySemantic
)

// String returns the strategy name used in query results
func (s Strategy) String() string {
	switch s {
	case StrategyClassification:
		return "classification"
	case StrategyTemporal:
		return "temporal"
	default:
		return "semantic"
	}
}

// Labels is the closed classification vocabulary. Order matters: the label
// matcher returns the first entry found in the question.
var Labels = []string{
	"finance", "banking", "investments", "security", "authentication",
	"meetings", "appointments", "personal", "work", "career", "shopping",
	"social", "entertainment", "news", "newsletters", "promotions",
	"marketing", "spam", "travel", "health", "education", "legal", "taxes",
	"receipts", "notifications", "updates", "alerts", "support", "bills",
	"insurance", "job-application", "job-interview", "job-offer",
	"job-rejection", "job-ad", "job-followup",
}

// IsValidLabel reports whether label belongs to the closed vocabulary
func IsValidLabel(label string) bool {
	for _, l := range Labels {
		if l == label {
			return true
		}
	}
	return false
}

// Temporal markers route listing-style questions to the recency scan.
// Single words are matched on word boundaries, phrases by containment.
var (
	temporalWords = map[string]struct{}{
		"last": {}, "recent": {}, "latest": {}, "newest": {}, "oldest": {},
		"first": {}, "today": {}, "yesterday": {}, "unread": {},
		"starred": {}, "important": {},
	}
	temporalPhrases = []string{
		"this week", "this month", "this year",
		"my emails", "all emails", "show emails", "list emails",
	}
	countingPhrases = []string{"how many", "number of"}
)

var wordPattern = regexp.MustCompile(`[a-z0-9]+`)

// ClassifyQuestion decides which retrieval strategy applies to a question.
// Pure and total: every input maps to exactly one strategy. Precedence is
// label match, then temporal markers, then semantic as the fallback.
func ClassifyQuestion(question string) Strategy {
	if _, ok := MatchLabel(question); ok {
		return StrategyClassification
	}

	lower := strings.ToLower(question)
	for _, word := range wordPattern.FindAllString(lower, -1) {
		if _, ok := temporalWords[word]; ok {
			return StrategyTemporal
		}
	}
	for _, phrase := range temporalPhrases {
		if strings.Contains(lower, phrase) {
			return StrategyTemporal
		}
	}

	return StrategySemantic
}

// MatchLabel maps a question to the first vocabulary label whose tokens
// appear in it, case-insensitively. A trailing plural on the final token is
// tolerated ("job rejections" matches job-rejection); there is no fuzzy
// matching or scoring beyond that.
func MatchLabel(question string) (string, bool) {
	words := wordPattern.FindAllString(strings.ToLower(question), -1)
	if len(words) == 0 {
		return "", false
	}

	for _, label := range Labels {
		if containsPhrase(words, strings.Split(label, "-")) {
			return label, true
		}
	}

	return "", false
}

func containsPhrase(words, parts []string) bool {
	if len(parts) == 0 || len(words) < len(parts) {
		return false
	}

	for i := 0; i+len(parts) <= len(words); i++ {
		matched := true
		for j, part := range parts {
			if !wordMatches(words[i+j], part) {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}

	return false
}

func wordMatches(word, part string) bool {
	return word == part || word == part+"s" || word == part+"es"
}

// isCountingQuestion detects aggregate questions where the search should be
// widened: undercounting is worse than noisy inclusion.
func isCountingQuestion(question string) bool {
	lower := strings.ToLower(question)
	for _, phrase := range countingPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	for _, word := range wordPattern.FindAllString(lower, -1) {
		if word == "count" {
			return true
		}
	}
	return false
}
