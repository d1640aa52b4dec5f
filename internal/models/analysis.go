package models

import "time"

// Intent classifies what kind of question is being asked.
type Intent string

const (
	IntentFactual     Intent = "factual"
	IntentPerson      Intent = "person-centric"
	IntentComparative Intent = "comparative"
	IntentTemporal    Intent = "temporal"
	IntentExploratory Intent = "exploratory"
)

// Valid reports whether i is a known intent.
func (i Intent) Valid() bool {
	switch i {
	case IntentFactual, IntentPerson, IntentComparative, IntentTemporal, IntentExploratory:
		return true
	}
	return false
}

// Entities holds the named entities extracted from a question.
type Entities struct {
	People      []string `json:"people,omitempty"`
	Places      []string `json:"places,omitempty"`
	Topics      []string `json:"topics,omitempty"`
	Dates       []string `json:"dates,omitempty"`
	Identifiers []string `json:"identifiers,omitempty"`
}

// Empty reports whether no entities were extracted.
func (e Entities) Empty() bool {
	return len(e.People) == 0 && len(e.Places) == 0 && len(e.Topics) == 0 &&
		len(e.Dates) == 0 && len(e.Identifiers) == 0
}

// QueryAnalysis is the structured intent produced once per request. It is
// consumed by the orchestrator and every tool call, then discarded (optionally
// summarized into a ConversationTurn).
type QueryAnalysis struct {
	Question string   `json:"question"`
	Intent   Intent   `json:"intent"`
	Entities Entities `json:"entities"`

	// SemanticQuery and LexicalQuery are the rewritten query variants.
	SemanticQuery string `json:"semantic_query"`
	LexicalQuery  string `json:"lexical_query"`

	// DateFrom/DateTo are resolved absolute bounds, nil when the question
	// carries no temporal constraint.
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`

	// PersonID/MatterID are pre-resolved record ids when an extracted name or
	// identifier matched exactly one known record.
	PersonID string `json:"person_id,omitempty"`
	MatterID string `json:"matter_id,omitempty"`

	// Embedding is the request-scoped embedding of SemanticQuery, generated
	// once and passed explicitly to every search call. Nil when embedding
	// generation failed; hybrid search then degrades to lexical-only.
	Embedding []float32 `json:"-"`

	// IndependentLookups marks questions whose sub-questions can be answered
	// by concurrent tool calls (e.g. two named people to compare).
	IndependentLookups bool `json:"independent_lookups,omitempty"`

	// Degraded is set when the full analysis failed and the minimal fallback
	// was used.
	Degraded bool `json:"-"`
}

// StepBudget returns the orchestrator step budget for this analysis,
// adaptive by intent.
func (a *QueryAnalysis) StepBudget() int {
	switch a.Intent {
	case IntentFactual:
		return 2
	case IntentPerson, IntentExploratory:
		return 3
	case IntentTemporal:
		return 4
	case IntentComparative:
		return 6
	}
	return 3
}

// ConversationTurn is the trimmed record of one answered question, retained
// briefly per session for pronoun and entity resolution on follow-ups.
type ConversationTurn struct {
	Question        string    `json:"question"`
	Entities        Entities  `json:"entities"`
	PersonID        string    `json:"person_id,omitempty"`
	MatterID        string    `json:"matter_id,omitempty"`
	EvidenceSummary string    `json:"evidence_summary"`
	CreatedAt       time.Time `json:"created_at"`
}
