package models

// Match represents a scored clause candidate for a single question
type Match struct {
	Standard string  `json:"standard"`
	Clause   string  `json:"clause"`
	Text     string  `json:"text"`
	Score    float64 `json:"score"` // 0..1, 1.0 for explicit references
}

// StandardSummary describes one loaded standard
type StandardSummary struct {
	Name        string `json:"name"`
	ClauseCount int    `json:"clause_count"`
}
