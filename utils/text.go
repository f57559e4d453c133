package utils

import (
	"regexp"
	"strings"
)

var spaceRegex = regexp.MustCompile(`\s+`)

// CleanText collapses runs of whitespace into single spaces and trims the
// result. Scraped page text is full of layout newlines and padding.
func CleanText(s string) string {
	return strings.TrimSpace(spaceRegex.ReplaceAllString(s, " "))
}

// UniqueStrings returns a new slice with duplicate entries removed, keeping
// the first occurrence's position.
func UniqueStrings(slice []string) []string {
	keys := make(map[string]bool)
	uniqueSlice := []string{}
	for _, entry := range slice {
		if _, value := keys[entry]; !value {
			keys[entry] = true
			uniqueSlice = append(uniqueSlice, entry)
		}
	}
	return uniqueSlice
}
