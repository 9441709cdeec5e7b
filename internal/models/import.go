package models

// ValidationError is a single rejected field on one line of a bulk import
type ValidationError struct {
	Line    int         `json:"line"`
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// ImportResult summarizes a bulk import run
type ImportResult struct {
	Total      int               `json:"total"`
	Created    int               `json:"created"`
	Failed     int               `json:"failed"`
	DurationMs int64             `json:"duration_ms"`
	RowsPerSec float64           `json:"rows_per_sec,omitempty"`
	Articles   []ArticleRef      `json:"articles,omitempty"`
	Errors     []ValidationError `json:"errors,omitempty"`
}
