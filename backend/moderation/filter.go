// Package moderation classifies chat text before it is relayed.
package moderation

import (
	"regexp"
	"strings"
)

// Warnings returned to a sender whose message was blocked.
const (
	WarningRoom    = "Tin nhắn chứa từ ngữ không chuẩn mực. Vui lòng sử dụng ngôn từ phù hợp trong môi trường meeting."
	WarningPrivate = "Tin nhắn riêng chứa từ ngữ không chuẩn mực. Vui lòng sử dụng ngôn từ phù hợp."
)

var defaultWords = []string{
	// vietnamese
	"ngu", "đồ ngu", "ngu ngốc", "khốn nạn", "khốn", "đần", "ngốc",
	"chết tiệt", "đồ khốn", "thằng ngu", "con ngu", "đồ ngốc",
	"ngu si", "đần độn", "khốn kiếp", "đồ đần",

	// english
	"stupid", "idiot", "fool", "dumb", "moron", "hate", "damn",

	// leetspeak
	"n9u", "ng0c", "kh0n", "d4n",
}

var defaultPatterns = []string{
	`(?i)\bn[u3]g[u0]\b`,
	`(?i)\bkh[o0]n\b`,
	`(?i)\bd[a4]n\b`,
	`(?i)\bng[o0]c\b`,
	`(?i)\bst[u3]p[i1]d\b`,
	`(?i)\b[i1]d[i1][o0]t\b`,
}

var defaultFilter = NewFilter(defaultWords, defaultPatterns)

// Filter is a heuristic block-list classifier: a message is toxic when it
// contains any listed word (case-insensitive) or matches any pattern.
type Filter struct {
	words    []string
	patterns []*regexp.Regexp
}

// NewFilter panics if a pattern does not compile.
func NewFilter(words, patterns []string) *Filter {
	f := &Filter{
		words:    make([]string, 0, len(words)),
		patterns: make([]*regexp.Regexp, 0, len(patterns)),
	}
	for _, w := range words {
		f.words = append(f.words, strings.ToLower(w))
	}
	for _, p := range patterns {
		f.patterns = append(f.patterns, regexp.MustCompile(p))
	}
	return f
}

// Default returns the built-in filter.
func Default() *Filter {
	return defaultFilter
}

func (f *Filter) IsToxic(text string) bool {
	lower := strings.ToLower(text)
	for _, w := range f.words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	for _, p := range f.patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// IsToxic classifies text with the built-in filter.
func IsToxic(text string) bool {
	return defaultFilter.IsToxic(text)
}
