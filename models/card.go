package models

// Card is a titled block of explanatory text.
type Card struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ExplanationResult is the normalized output of an explanation request.
// Cards is never empty once it has been through the parser.
type ExplanationResult struct {
	CleanTopic string `json:"cleanTopic"`
	Cards      []Card `json:"cards"`
}
