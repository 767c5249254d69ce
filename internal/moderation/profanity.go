// Package moderation screens user-supplied card text against a word list.
package moderation

import (
	_ "embed"
	"regexp"
	"sort"
	"strings"
)

//go:embed words.txt
var defaultWords string

type Result struct {
	HasProfanity bool     `json:"has_profanity"`
	Filtered     string   `json:"filtered"`
	FlaggedWords []string `json:"flagged_words"`
}

// Filter matches whole words, case-insensitively.
type Filter struct {
	pattern *regexp.Regexp
}

func NewFilter(words []string) *Filter {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(strings.ToLower(w))
		if w == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(w))
	}
	// Longest first so alternation prefers "asshole" over "ass".
	sort.Slice(quoted, func(i, j int) bool { return len(quoted[i]) > len(quoted[j]) })

	if len(quoted) == 0 {
		return &Filter{}
	}
	return &Filter{pattern: regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)}
}

func Default() *Filter {
	return NewFilter(strings.Split(defaultWords, "\n"))
}

func (f *Filter) Contains(text string) bool {
	return f.pattern != nil && f.pattern.MatchString(text)
}

// Check masks every match with asterisks and reports the distinct words hit,
// lowercased, in order of first appearance.
func (f *Filter) Check(text string) Result {
	if f.pattern == nil {
		return Result{Filtered: text, FlaggedWords: []string{}}
	}

	seen := map[string]struct{}{}
	flagged := make([]string, 0)
	filtered := f.pattern.ReplaceAllStringFunc(text, func(match string) string {
		word := strings.ToLower(match)
		if _, ok := seen[word]; !ok {
			seen[word] = struct{}{}
			flagged = append(flagged, word)
		}
		return strings.Repeat("*", len([]rune(match)))
	})

	return Result{
		HasProfanity: len(flagged) > 0,
		Filtered:     filtered,
		FlaggedWords: flagged,
	}
}

// CheckAll screens several fields at once and merges the flagged words.
func (f *Filter) CheckAll(texts ...string) (bool, []string) {
	seen := map[string]struct{}{}
	merged := make([]string, 0)
	for _, text := range texts {
		for _, w := range f.Check(text).FlaggedWords {
			if _, ok := seen[w]; ok {
				continue
			}
			seen[w] = struct{}{}
			merged = append(merged, w)
		}
	}
	return len(merged) > 0, merged
}
