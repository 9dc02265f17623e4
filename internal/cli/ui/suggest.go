package ui

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// maxSuggestions caps the names returned by Suggest.
const maxSuggestions = 3

// Suggest returns up to three candidates close to target, nearest first.
// Matching ignores case. A candidate qualifies when its edit distance is at
// most a third of the target length, or two edits for short targets.
func Suggest(target string, candidates []string) []string {
	target = strings.ToLower(target)
	limit := utf8.RuneCountInString(target) / 3
	if limit < 2 {
		limit = 2
	}

	type match struct {
		name string
		dist int
	}
	var matches []match
	for _, c := range candidates {
		if d := Distance(target, strings.ToLower(c)); d <= limit {
			matches = append(matches, match{c, d})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].dist < matches[j].dist
	})

	var out []string
	for i := 0; i < len(matches) && i < maxSuggestions; i++ {
		out = append(out, matches[i].name)
	}
	return out
}

// Distance returns the Levenshtein edit distance between a and b, counted
// in runes.
func Distance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}
