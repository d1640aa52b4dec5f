package answer

import (
	"fmt"
	"strings"
)

const synthesisSystemPrompt = `You answer questions about municipal council records using only the evidence blocks provided.
Every evidence block starts with a label like [E1]. Respond with JSON only, matching this schema exactly:
{
  "answer": "the answer, grounded strictly in the evidence",
  "citations": ["E1", "E3"],
  "confidence": "high" | "medium" | "low",
  "follow_ups": ["two or three natural follow-up questions"]
}
Rules:
- Cite an evidence label for every claim you make. Never cite a label that does not appear in the evidence.
- If the evidence does not answer the question, say so plainly and cite nothing.
- Never invent names, dates, votes, or outcomes that are not in the evidence.`

func buildSynthesisPrompt(question, evidence string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\nEvidence:\n%s", question, evidence)
	return b.String()
}

// buildSimplifiedPrompt is the retry variant: same evidence, tighter ask, for
// models that mangled the first structured response.
func buildSimplifiedPrompt(question, evidence string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Answer this question from the evidence below. Reply with a single JSON object: ")
	fmt.Fprintf(&b, `{"answer": "...", "citations": ["E1"], "confidence": "low", "follow_ups": []}`)
	fmt.Fprintf(&b, "\n\nQuestion: %s\n\nEvidence:\n%s", question, evidence)
	return b.String()
}

// buildCitationRetryPrompt asks the model to re-ground an answer that named
// facts without citing any evidence.
func buildCitationRetryPrompt(question, evidence, previous string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your previous answer stated facts without citing evidence:\n%s\n\n", previous)
	fmt.Fprintf(&b, "Rewrite it citing the evidence label for every claim, or state that the evidence does not answer the question.\n\n")
	fmt.Fprintf(&b, "Question: %s\n\nEvidence:\n%s", question, evidence)
	return b.String()
}
