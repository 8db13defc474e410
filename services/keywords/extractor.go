// Package keywords ranks the salient words of a lyric text by frequency.
package keywords

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/width"
)

const (
	DefaultTopN      = 5
	DefaultMinLength = 2
)

// Keyword is a word and how often it occurred
type Keyword struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Extractor filters and counts tokenized words
type Extractor struct {
	tokenizer Tokenizer
	minLength int
	topN      int
	stopwords map[string]struct{}
}

// NewExtractor creates an extractor; zero minLength/topN use the defaults
func NewExtractor(tokenizer Tokenizer, minLength, topN int) *Extractor {
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Extractor{
		tokenizer: tokenizer,
		minLength: minLength,
		topN:      topN,
		stopwords: DefaultStopwords(),
	}
}

// Top returns the n most frequent keywords (the configured default when
// n <= 0). Equal counts keep the order of first appearance.
func (e *Extractor) Top(text string, n int) []Keyword {
	if n <= 0 {
		n = e.topN
	}

	// words are filtered as written and grouped by their width-folded
	// form, so ＬＯＶＥ survives and ｶｸ counts together with カク
	counts := make(map[string]int)
	shown := make(map[string]string)
	var order []string
	for _, token := range e.tokenizer.Cut(text) {
		word := strings.TrimSpace(token)
		if !e.keep(word) {
			continue
		}
		key := width.Fold.String(word)
		if counts[key] == 0 {
			order = append(order, key)
			shown[key] = word
		}
		counts[key]++
	}

	ranked := make([]Keyword, len(order))
	for i, key := range order {
		ranked[i] = Keyword{Word: shown[key], Count: counts[key]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func (e *Extractor) keep(word string) bool {
	if utf8.RuneCountInString(word) < e.minLength {
		return false
	}
	if _, stop := e.stopwords[word]; stop {
		return false
	}
	return !allRunes(word, unicode.IsDigit) && !allRunes(word, isASCII)
}

func isASCII(r rune) bool {
	return r < utf8.RuneSelf
}

func allRunes(s string, pred func(rune) bool) bool {
	for _, r := range s {
		if !pred(r) {
			return false
		}
	}
	return true
}

// Words returns just the words, preserving rank order
func Words(keywords []Keyword) []string {
	words := make([]string, len(keywords))
	for i, k := range keywords {
		words[i] = k.Word
	}
	return words
}
