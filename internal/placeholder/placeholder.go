// Package placeholder finds format placeholders in localized strings so that
// edited text can be checked against the text it replaces.
package placeholder

import (
	"regexp"
	"sort"
)

// match stores a detected placeholder position.
type match struct {
	start, end int
	value      string
}

// patterns to detect placeholders in game strings.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`\$\{[a-zA-Z_][a-zA-Z0-9_]*\}`),         // ${value}
	regexp.MustCompile(`\{[0-9]+\}`),                           // {0}, {1}
	regexp.MustCompile(`%[-+0-9]*\.?[0-9]*[dsfieEgGxXoubcpq]`), // %d, %s, %f, %2d, etc.
	regexp.MustCompile(`%%`),                                   // escaped percent literal
	regexp.MustCompile(`\^[0-9]`),                              // ^1 color codes
}

// Find returns the placeholders of text in order of appearance.
// Overlapping matches keep the earliest, longest one.
func Find(text string) []string {
	var all []match
	for _, p := range patterns {
		for _, loc := range p.FindAllStringIndex(text, -1) {
			all = append(all, match{start: loc[0], end: loc[1], value: text[loc[0]:loc[1]]})
		}
	}
	if len(all) == 0 {
		return nil
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].start != all[j].start {
			return all[i].start < all[j].start
		}
		return all[i].end-all[i].start > all[j].end-all[j].start
	})

	var out []string
	lastEnd := -1
	for _, m := range all {
		if m.start >= lastEnd {
			out = append(out, m.value)
			lastEnd = m.end
		}
	}
	return out
}

// Diff compares the placeholder multisets of two texts. missing holds
// placeholders of original absent from edited; extra holds the reverse.
// Order is not significant; translations may reorder arguments.
func Diff(original, edited string) (missing, extra []string) {
	counts := make(map[string]int)
	for _, p := range Find(original) {
		counts[p]++
	}
	for _, p := range Find(edited) {
		if counts[p] > 0 {
			counts[p]--
			continue
		}
		extra = append(extra, p)
	}
	for _, p := range Find(original) {
		if counts[p] > 0 {
			missing = append(missing, p)
			counts[p]--
		}
	}
	return missing, extra
}
