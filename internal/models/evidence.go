package models

import "time"

// EvidenceRecord is the unit of evidence the orchestrator accumulates. Every
// record traces back to exactly one SearchableItem via SourceID; duplicates are
// deduplicated by SourceID before assembly.
type EvidenceRecord struct {
	SourceID string   `json:"source_id"`
	Category Category `json:"category"`
	// Rendering is a human-readable formatting of the item, not raw storage fields.
	Rendering string  `json:"rendering"`
	Score     float64 `json:"score"`

	// Citation metadata
	Date    time.Time `json:"date"`
	Speaker string    `json:"speaker,omitempty"`
	Locator string    `json:"locator,omitempty"`

	// Tool is the name of the tool that surfaced this record.
	Tool string `json:"tool,omitempty"`
}

// EvidenceBundle is the token-budgeted, formatted evidence collection passed to
// synthesis. Items appear in the same order as the labeled blocks in Formatted,
// so the label [E1] refers to Items[0].
type EvidenceBundle struct {
	Items     []EvidenceRecord `json:"items"`
	Formatted string           `json:"formatted"`
	// TokenEstimate approximates the token cost of Formatted (chars/4).
	TokenEstimate int `json:"token_estimate"`
}

// Empty reports whether the bundle contains no evidence.
func (b *EvidenceBundle) Empty() bool {
	return b == nil || len(b.Items) == 0
}

// Citation maps one answer claim to the evidence item backing it.
type Citation struct {
	Category Category  `json:"category"`
	SourceID string    `json:"source_id"`
	Locator  string    `json:"locator,omitempty"`
	Excerpt  string    `json:"excerpt"`
	Date     time.Time `json:"date,omitempty"`
	Speaker  string    `json:"speaker,omitempty"`
}

// Confidence labels how well-supported an answer is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Answer is the synthesized response to a question.
type Answer struct {
	Text       string     `json:"text"`
	Citations  []Citation `json:"citations"`
	Confidence Confidence `json:"confidence"`
	FollowUps  []string   `json:"follow_ups,omitempty"`
}

// ToolTrace records one tool invocation for observability. Informational only:
// omitting traces never affects response correctness.
type ToolTrace struct {
	Tool        string `json:"tool"`
	ResultCount int    `json:"result_count"`
	LatencyMS   int64  `json:"latency_ms"`
	Recovery    bool   `json:"recovery,omitempty"`
	Err         string `json:"error,omitempty"`
}

// Degradation records a recoverable quality loss (analysis fallback, skipped
// rerank, missing index) absorbed during a request. Carried as a value on the
// trace rather than raised as an error.
type Degradation struct {
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}
