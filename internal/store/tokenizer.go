package store

import "strings"

// Tokenize lowercases text and splits on whitespace. No stemming and no
// stopword removal: dialogue queries are short and conversational, and the
// simple scheme keeps sparse and dense rankings comparable. Known limitation,
// kept intentionally.
func Tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}
