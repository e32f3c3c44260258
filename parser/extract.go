package parser

import (
	"regexp"
	"strings"
)

var (
	fenceJSON   = regexp.MustCompile("(?i)```json")
	arrayBlock  = regexp.MustCompile(`(?s)\[.*\]`)
	objectBlock = regexp.MustCompile(`(?s)\{.*\}`)
)

// StripFences removes ```json and ``` markers and trims the result.
func StripFences(text string) string {
	text = fenceJSON.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

// candidates returns the JSON substrings worth trying, in order: the greedy
// array and object spans (whichever starts first leads, the array on a tie),
// then the whole text when neither span exists.
func candidates(text string) []string {
	text = StripFences(text)
	if text == "" {
		return nil
	}

	arr := arrayBlock.FindStringIndex(text)
	obj := objectBlock.FindStringIndex(text)

	var out []string
	switch {
	case arr != nil && obj != nil && obj[0] < arr[0]:
		out = append(out, text[obj[0]:obj[1]], text[arr[0]:arr[1]])
	case arr != nil && obj != nil:
		out = append(out, text[arr[0]:arr[1]], text[obj[0]:obj[1]])
	case arr != nil:
		out = append(out, text[arr[0]:arr[1]])
	case obj != nil:
		out = append(out, text[obj[0]:obj[1]])
	default:
		out = append(out, text)
	}
	return out
}
