// Package answer turns gathered evidence into a grounded, cited response:
// assembly formats the evidence under a token budget, synthesis produces the
// final answer from it.
package answer

import (
	"fmt"
	"strings"

	"github.com/civiclens/hansard/internal/models"
	"github.com/civiclens/hansard/pkg/utils"
)

const (
	// tokenBudget bounds the formatted evidence handed to the model.
	tokenBudget   = 2500
	charsPerToken = 4
	// blockExcerptLen bounds one record's rendering inside its block.
	blockExcerptLen = 600
)

// Assemble selects evidence in rank order under the token budget and formats
// it into labeled blocks. Labels are positional: [E1] is Items[0]. A non-empty
// input always yields at least one block, truncated to fit if necessary.
func Assemble(records []models.EvidenceRecord) *models.EvidenceBundle {
	bundle := &models.EvidenceBundle{}
	if len(records) == 0 {
		return bundle
	}

	budget := tokenBudget * charsPerToken
	var b strings.Builder
	for _, rec := range records {
		block := formatBlock(len(bundle.Items)+1, rec)
		if b.Len()+len(block) > budget {
			if len(bundle.Items) > 0 {
				break
			}
			block = block[:budget]
		}
		bundle.Items = append(bundle.Items, rec)
		b.WriteString(block)
	}
	bundle.Formatted = strings.TrimRight(b.String(), "\n")
	bundle.TokenEstimate = len(bundle.Formatted) / charsPerToken
	return bundle
}

func formatBlock(label int, rec models.EvidenceRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[E%d] %s | %s", label, rec.Category, rec.Date.Format("2006-01-02"))
	if rec.Speaker != "" {
		fmt.Fprintf(&b, " | %s", rec.Speaker)
	}
	if rec.Locator != "" {
		fmt.Fprintf(&b, " | %s", rec.Locator)
	}
	b.WriteString("\n")
	b.WriteString(utils.Truncate(rec.Rendering, blockExcerptLen))
	b.WriteString("\n\n")
	return b.String()
}
