package answer

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/civiclens/hansard/internal/ai"
	"github.com/civiclens/hansard/internal/models"
)

// citationExcerptLen bounds the excerpt carried on each citation.
const citationExcerptLen = 200

// maxFollowUps caps the suggested follow-up questions.
const maxFollowUps = 3

// Synthesizer produces the final cited answer from assembled evidence.
type Synthesizer struct {
	generator ai.Generator
	logger    *zap.Logger
}

// NewSynthesizer creates a synthesizer over the given generator.
func NewSynthesizer(generator ai.Generator, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{generator: generator, logger: logger}
}

// synthesisResponse is the JSON shape required from the model.
type synthesisResponse struct {
	Answer     string   `json:"answer"`
	Citations  []string `json:"citations"`
	Confidence string   `json:"confidence"`
	FollowUps  []string `json:"follow_ups"`
}

// Synthesize generates a grounded answer from the bundle. Empty evidence
// yields an honest low-confidence answer with no claims. Synthesis is the one
// stage whose failure surfaces to the caller: after a retry the response has
// no usable answer to degrade to.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, bundle *models.EvidenceBundle) (*models.Answer, []models.Degradation, error) {
	if bundle.Empty() {
		return noEvidenceAnswer(), nil, nil
	}

	var degradations []models.Degradation
	resp, err := s.generate(ctx, buildSynthesisPrompt(question, bundle.Formatted))
	if err != nil {
		s.logger.Warn("synthesis failed, retrying simplified", zap.Error(err))
		degradations = append(degradations, models.Degradation{
			Stage: "synthesis", Reason: "first attempt failed: " + err.Error(),
		})
		resp, err = s.generate(ctx, buildSimplifiedPrompt(question, bundle.Formatted))
		if err != nil {
			return nil, degradations, fmt.Errorf("%w: %v", models.ErrSynthesisFailed, err)
		}
	}

	answer := s.toAnswer(resp, bundle)

	// A substantive answer with no grounding gets one corrective attempt.
	if len(answer.Citations) == 0 && hasFactualClaims(answer.Text) {
		s.logger.Debug("uncited factual claims, regenerating")
		degradations = append(degradations, models.Degradation{
			Stage: "synthesis", Reason: "answer carried uncited claims",
		})
		if retry, err := s.generate(ctx, buildCitationRetryPrompt(question, bundle.Formatted, answer.Text)); err == nil {
			if fixed := s.toAnswer(retry, bundle); len(fixed.Citations) > 0 {
				return fixed, degradations, nil
			}
		}
		answer.Confidence = models.ConfidenceLow
	}
	return answer, degradations, nil
}

func (s *Synthesizer) generate(ctx context.Context, prompt string) (*synthesisResponse, error) {
	raw, err := s.generator.Generate(ctx, ai.GenerateRequest{
		System:      synthesisSystemPrompt,
		Prompt:      prompt,
		Temperature: 0.2,
	})
	if err != nil {
		return nil, err
	}
	var resp synthesisResponse
	if err := ai.DecodeJSON(raw, &resp); err != nil {
		return nil, err
	}
	if strings.TrimSpace(resp.Answer) == "" {
		return nil, fmt.Errorf("model returned an empty answer")
	}
	return &resp, nil
}

// toAnswer resolves the model's evidence labels against the bundle and applies
// the confidence rules. Labels that do not exist are dropped.
func (s *Synthesizer) toAnswer(resp *synthesisResponse, bundle *models.EvidenceBundle) *models.Answer {
	answer := &models.Answer{Text: strings.TrimSpace(resp.Answer)}
	for _, label := range resp.Citations {
		rec, ok := resolveLabel(label, bundle.Items)
		if !ok {
			s.logger.Debug("dropping unresolvable citation", zap.String("label", label))
			continue
		}
		answer.Citations = append(answer.Citations, models.Citation{
			Category: rec.Category,
			SourceID: rec.SourceID,
			Locator:  rec.Locator,
			Excerpt:  excerpt(rec.Rendering),
			Date:     rec.Date,
			Speaker:  rec.Speaker,
		})
	}

	switch models.Confidence(resp.Confidence) {
	case models.ConfidenceHigh, models.ConfidenceMedium, models.ConfidenceLow:
		answer.Confidence = models.Confidence(resp.Confidence)
	default:
		answer.Confidence = models.ConfidenceMedium
	}
	if len(answer.Citations) < 2 {
		answer.Confidence = models.ConfidenceLow
	}

	followUps := resp.FollowUps
	if len(followUps) > maxFollowUps {
		followUps = followUps[:maxFollowUps]
	}
	answer.FollowUps = followUps
	return answer
}

// resolveLabel maps "E3" (or "3", or "[E3]") to the bundle item it names.
func resolveLabel(label string, items []models.EvidenceRecord) (models.EvidenceRecord, bool) {
	cleaned := strings.TrimSpace(label)
	cleaned = strings.Trim(cleaned, "[]")
	cleaned = strings.TrimPrefix(strings.ToUpper(cleaned), "E")
	n, err := strconv.Atoi(cleaned)
	if err != nil || n < 1 || n > len(items) {
		return models.EvidenceRecord{}, false
	}
	return items[n-1], true
}

func excerpt(rendering string) string {
	if len(rendering) <= citationExcerptLen {
		return rendering
	}
	return rendering[:citationExcerptLen] + "..."
}

var factualPattern = regexp.MustCompile(`\d|[A-Z][a-z]+ [A-Z]`)

// hasFactualClaims is a cheap check for content that must not stand uncited:
// numbers, or multi-word proper names.
func hasFactualClaims(text string) bool {
	return factualPattern.MatchString(text)
}

func noEvidenceAnswer() *models.Answer {
	return &models.Answer{
		Text:       "No relevant records were found for this question. It may concern a matter this council has not discussed, or one outside the indexed record.",
		Confidence: models.ConfidenceLow,
		FollowUps: []string{
			"Try naming a specific meeting date or agenda item.",
			"Try the formal name of the matter or bylaw.",
		},
	}
}
