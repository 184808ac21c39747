package models

import "time"

// SourceKind discriminates where a context source came from.
type SourceKind string

const (
	SourceKnowledge SourceKind = "knowledge"
	SourceWeb       SourceKind = "web"
)

// SourceItem is one ranked evidence item inside a ContextBundle. Kind
// selects which optional fields are meaningful: URL, PublishDate and
// Verified apply to web results only, DocumentID to knowledge matches.
type SourceItem struct {
	Kind        SourceKind `json:"kind"`
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Source      string     `json:"source"`
	Score       float64    `json:"score"`
	URL         string     `json:"url,omitempty"`
	DocumentID  string     `json:"documentId,omitempty"`
	Verified    bool       `json:"verified,omitempty"`
	PublishDate *time.Time `json:"publishDate,omitempty"`
}

// ContextBundle is the unit returned to callers and stored in the
// result cache: the ranked evidence set, the concatenated context text
// and one citation per distinct contributing source.
type ContextBundle struct {
	Query        string       `json:"query"`
	Intent       string       `json:"intent"`
	Sources      []SourceItem `json:"sources"`
	Text         string       `json:"text"`
	Citations    []string     `json:"citations"`
	Confidence   float64      `json:"confidence"`
	WebSearch    bool         `json:"webSearchUsed"`
	GeneratedAt  time.Time    `json:"generatedAt"`
}

// QueryRecord is one row of the query history log.
type QueryRecord struct {
	ID            string    `json:"id"`
	QueryText     string    `json:"queryText"`
	Intent        string    `json:"intent"`
	Confidence    float64   `json:"confidence"`
	SourceCount   int       `json:"sourceCount"`
	WebSearchUsed bool      `json:"webSearchUsed"`
	CacheHit      bool      `json:"cacheHit"`
	LatencyMS     int       `json:"latencyMs"`
	CreatedAt     time.Time `json:"createdAt"`
}

// QuerySource is one citation row attached to a QueryRecord.
type QuerySource struct {
	ID         int     `json:"id"`
	QueryID    string  `json:"queryId"`
	SourceType string  `json:"sourceType"`
	SourceRef  string  `json:"sourceRef"`
	Confidence float64 `json:"confidence"`
}
