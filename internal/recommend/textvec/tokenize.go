// Feedwise - Personalized News Feed Ranking
// Copyright 2026 Feedwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedwise/feedwise

package textvec

import (
	"regexp"
	"strings"
)

var (
	htmlTagRE    = regexp.MustCompile(`<[^>]+>`)
	urlRE        = regexp.MustCompile(`https?://\S+|www\.\S+`)
	emailRE      = regexp.MustCompile(`\S+@\S+`)
	nonAlnumRE   = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespaceRE = regexp.MustCompile(`\s+`)
)

// Clean normalizes raw article text: lowercase, strip HTML tags, URLs,
// and email addresses, drop punctuation, collapse whitespace.
func Clean(text string) string {
	t := strings.ToLower(text)
	t = htmlTagRE.ReplaceAllString(t, " ")
	t = urlRE.ReplaceAllString(t, " ")
	t = emailRE.ReplaceAllString(t, " ")
	t = nonAlnumRE.ReplaceAllString(t, " ")
	t = whitespaceRE.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// stopwords is a minimal English stopword list. Terms here never enter
// the vocabulary, alone or inside n-grams.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "have": {}, "he": {},
	"her": {}, "his": {}, "in": {}, "is": {}, "it": {}, "its": {},
	"of": {}, "on": {}, "or": {}, "that": {}, "the": {}, "their": {},
	"they": {}, "this": {}, "to": {}, "was": {}, "were": {}, "will": {},
	"with": {}, "you": {}, "your": {},
}

// Tokenize cleans text and produces n-gram terms up to ngramMax words.
// Multi-word terms join their words with a single space. Stopwords are
// removed before n-gram assembly.
func Tokenize(text string, ngramMax int) []string {
	cleaned := Clean(text)
	if cleaned == "" {
		return nil
	}
	if ngramMax < 1 {
		ngramMax = 1
	}

	words := strings.Fields(cleaned)
	kept := words[:0]
	for _, w := range words {
		if _, stop := stopwords[w]; stop {
			continue
		}
		kept = append(kept, w)
	}

	terms := make([]string, 0, len(kept)*ngramMax)
	for n := 1; n <= ngramMax; n++ {
		for i := 0; i+n <= len(kept); i++ {
			terms = append(terms, strings.Join(kept[i:i+n], " "))
		}
	}
	return terms
}

// TermCounts returns term frequencies for the tokenized text.
func TermCounts(text string, ngramMax int) map[string]int {
	terms := Tokenize(text, ngramMax)
	if len(terms) == 0 {
		return nil
	}
	counts := make(map[string]int, len(terms))
	for _, t := range terms {
		counts[t]++
	}
	return counts
}
