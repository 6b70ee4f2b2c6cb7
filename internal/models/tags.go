package models

import "strings"

// NormaliseTag trims tag, collapses inner whitespace and lower-cases it.
func NormaliseTag(tag string) string {
	return strings.ToLower(strings.Join(strings.Fields(tag), " "))
}

// HasTag reports whether tags contains tag, ignoring case.
func HasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// AddTag appends the normalised form of raw unless it is empty or present.
func AddTag(tags []string, raw string) []string {
	tag := NormaliseTag(raw)
	if tag == "" || HasTag(tags, tag) {
		return tags
	}
	return append(tags, tag)
}

// RemoveTag returns tags without any entry normalising to the same value.
func RemoveTag(tags []string, tag string) []string {
	want := NormaliseTag(tag)
	out := tags[:0:0]
	for _, t := range tags {
		if NormaliseTag(t) != want {
			out = append(out, t)
		}
	}
	return out
}

// AddTagsFromInput adds every comma-separated tag in input.
func AddTagsFromInput(tags []string, input string) []string {
	for _, part := range strings.Split(input, ",") {
		tags = AddTag(tags, part)
	}
	return tags
}
