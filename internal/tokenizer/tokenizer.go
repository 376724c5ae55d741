package tokenizer

import (
	"regexp"
	"strings"
)

// nonAlphanumericRegex matches sequences of non-alphanumeric characters.
var nonAlphanumericRegex = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// acronymRegex handles cases like "HTTPRequest" -> "HTTP Request"
var acronymRegex = regexp.MustCompile(`([A-Z]+)([A-Z][a-z])`)

// camelCaseRegex handles cases like "theOffice" -> "the Office" or "myAPI" -> "my API"
var camelCaseRegex = regexp.MustCompile(`([a-z0-9])([A-Z])`)

// Tokenize converts a string into a slice of tokens.
// It splits camel/PascalCase, lowercases the string, and splits by non-alphanumeric characters.
func Tokenize(text string) []string {
	processedText := acronymRegex.ReplaceAllString(text, "$1 $2")
	processedText = camelCaseRegex.ReplaceAllString(processedText, "$1 $2")

	lowerText := strings.ToLower(processedText)

	split := nonAlphanumericRegex.Split(lowerText, -1)

	tokens := make([]string, 0)
	for _, s := range split {
		if s != "" {
			tokens = append(tokens, s)
		}
	}
	return tokens
}

// Analysis is the term-frequency view of one field of one unit.
type Analysis struct {
	Terms  map[string]int // token -> frequency
	Length int            // number of tokens
}

// Analyze tokenizes text and counts term frequencies.
// Indexing and query evaluation both go through Analyze so field lengths agree.
func Analyze(text string) Analysis {
	tokens := Tokenize(text)
	terms := make(map[string]int, len(tokens))
	for _, token := range tokens {
		terms[token]++
	}
	return Analysis{Terms: terms, Length: len(tokens)}
}

// UniqueTerms returns the distinct tokens of text in first-occurrence order.
func UniqueTerms(text string) []string {
	tokens := Tokenize(text)
	seen := make(map[string]struct{}, len(tokens))
	unique := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		unique = append(unique, token)
	}
	return unique
}
