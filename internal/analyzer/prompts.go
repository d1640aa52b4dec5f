package analyzer

import (
	"fmt"
	"strings"

	"github.com/civiclens/hansard/internal/models"
)

const analysisSystemPrompt = `You analyze questions about municipal council records (meetings, motions, people, documents).
Respond with JSON only, matching this schema exactly:
{
  "intent": "factual" | "person-centric" | "comparative" | "temporal" | "exploratory",
  "entities": {
    "people": [], "places": [], "topics": [], "dates": [], "identifiers": []
  },
  "semantic_query": "a paraphrase optimized for embedding similarity search",
  "lexical_query": "key exact terms and names for full-text search",
  "date_from": "YYYY-MM-DD or empty string",
  "date_to": "YYYY-MM-DD or empty string",
  "independent_lookups": true when the question needs separate lookups for multiple subjects (e.g. comparing two people)
}
Resolve relative dates ("last spring", "two years ago") to absolute bounds.
Keep names exactly as written in the question.`

func buildAnalysisPrompt(question string, prior *models.ConversationTurn) string {
	var b strings.Builder
	if prior != nil {
		fmt.Fprintf(&b, "Previous question in this conversation: %s\n", prior.Question)
		if people := strings.Join(prior.Entities.People, ", "); people != "" {
			fmt.Fprintf(&b, "People discussed: %s\n", people)
		}
		if topics := strings.Join(prior.Entities.Topics, ", "); topics != "" {
			fmt.Fprintf(&b, "Topics discussed: %s\n", topics)
		}
		b.WriteString("Resolve pronouns in the new question against this context.\n\n")
	}
	fmt.Fprintf(&b, "Question: %s", question)
	return b.String()
}
