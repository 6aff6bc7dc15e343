// Package utils contains small string helpers used across the application.
package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"
)

// ShortenString cuts s to l bytes and appends "..." if it is longer.
// l == 0 means no limit.
func ShortenString(s string, l int) string {
	if len(s) > l && l != 0 {
		return fmt.Sprintf("%s...", s[:l])
	}
	return s
}

// ClosestMatch returns the candidate with the smallest levenshtein distance to s.
// The second return value is false if no candidate is close enough to be a
// plausible typo, ie if the distance exceeds half the length of s.
func ClosestMatch(s string, candidates []string) (string, bool) {
	best := ""
	bestDist := -1
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(strings.ToLower(s), strings.ToLower(c))
		if bestDist == -1 || d < bestDist {
			best = c
			bestDist = d
		}
	}
	if bestDist == -1 || bestDist > (len(s)+1)/2 {
		return "", false
	}
	return best, true
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// SafeFilename replaces every run of characters that are not safe in a file
// name with a single dash.
func SafeFilename(s string) string {
	s = unsafeChars.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "unnamed"
	}
	return s
}
