package models

// ImportRecord is a single vocabulary entry as read from an import file.
// Only Word is required; the rest are optional metadata.
type ImportRecord struct {
	Word          string `json:"word"`
	Meaning       string `json:"meaning"`
	Pronunciation string `json:"pronunciation"`
	Difficulty    int    `json:"difficulty"` // 1-5, defaults to 1 when absent
}
