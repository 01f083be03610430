package usecase

import (
	"strings"
	"unicode"

	"github.com/questera/webintel/internal/core/domain"
)

var graphCues = []string{
	"connection", "connections", "connected", "relationship", "relationships",
	"who knows", "knows anyone", "network", "colleague", "colleagues",
	"works with", "worked with", "works at", "worked at", "reports to",
	"introduced", "mutual",
}

var informationalCues = []string{
	"what", "how", "why", "when", "where", "explain", "tell me about",
	"latest", "news", "overview", "summary", "search", "find information",
}

// DetermineSearchStrategy classifies a raw query into a retrieval
// strategy from the text alone. It is a pure function: the same input
// always yields the same strategy, and it never executes a search.
func DetermineSearchStrategy(queryText string) domain.Strategy {
	text := strings.ToLower(strings.TrimSpace(queryText))
	if text == "" {
		return domain.StrategyVector
	}

	graph := containsAny(text, graphCues)
	informational := containsAny(text, informationalCues)
	entity := mentionsEntity(queryText)

	switch {
	case graph && informational:
		return domain.StrategyHybrid
	case graph:
		return domain.StrategyGraph
	case entity && informational:
		return domain.StrategyHybrid
	case entity:
		return domain.StrategyGraph
	default:
		return domain.StrategyVector
	}
}

func containsAny(text string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(text, cue) {
			return true
		}
	}
	return false
}

// mentionsEntity detects an explicit person/company mention: two or more
// adjacent capitalized words away from the sentence start, e.g.
// "Jane Doe" or "Acme Corp".
func mentionsEntity(text string) bool {
	words := strings.Fields(text)
	run := 0
	for i, word := range words {
		if i > 0 && isCapitalizedWord(word) {
			run++
			if run >= 2 {
				return true
			}
			continue
		}
		run = 0
	}
	return false
}

func isCapitalizedWord(word string) bool {
	trimmed := strings.TrimFunc(word, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if trimmed == "" {
		return false
	}
	runes := []rune(trimmed)
	if !unicode.IsUpper(runes[0]) {
		return false
	}
	for _, r := range runes[1:] {
		if unicode.IsUpper(r) {
			return false
		}
	}
	return true
}
