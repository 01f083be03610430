package normalize

import (
	"strings"

	"golang.org/x/net/html"
)

const maxSnippetLength = 400

// CleanSnippet strips markup that some providers leave in snippets
// (highlight tags, entities) and collapses whitespace.
func CleanSnippet(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	var builder strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(trimmed))
	for {
		tokenType := tokenizer.Next()
		if tokenType == html.ErrorToken {
			break
		}
		if tokenType == html.TextToken {
			builder.Write(tokenizer.Text())
		}
	}

	cleaned := strings.Join(strings.Fields(builder.String()), " ")
	if cleaned == "" {
		cleaned = strings.Join(strings.Fields(trimmed), " ")
	}
	return truncateRunes(cleaned, maxSnippetLength)
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}
	return strings.TrimSpace(string(runes[:limit]))
}
