package tools

import (
	"fmt"
	"strings"

	"github.com/civiclens/hansard/internal/models"
	"github.com/civiclens/hansard/pkg/utils"
)

const renderBodyLen = 400

// Render converts a stored item into an evidence record with a readable
// rendering suited to its category.
func Render(item *models.SearchableItem, score float64, tool string) models.EvidenceRecord {
	return models.EvidenceRecord{
		SourceID:  item.ID,
		Category:  item.Category,
		Rendering: renderBody(item),
		Score:     score,
		Date:      item.Date,
		Speaker:   item.Speaker,
		Locator:   item.Locator,
		Tool:      tool,
	}
}

func renderBody(item *models.SearchableItem) string {
	date := item.Date.Format("2006-01-02")
	excerpt := utils.Truncate(strings.TrimSpace(item.Body), renderBodyLen)

	switch item.Category {
	case models.CategoryDecision:
		var b strings.Builder
		fmt.Fprintf(&b, "Decision (%s): %s", date, item.Title)
		if item.Outcome != "" {
			fmt.Fprintf(&b, " - %s", item.Outcome)
		}
		if len(item.Movers) > 0 {
			fmt.Fprintf(&b, ". Moved by %s", strings.Join(item.Movers, ", "))
		}
		if len(item.Dissenters) > 0 {
			fmt.Fprintf(&b, ". Opposed: %s", strings.Join(item.Dissenters, ", "))
		}
		if excerpt != "" {
			fmt.Fprintf(&b, ". %s", excerpt)
		}
		return b.String()

	case models.CategoryDocumentSection:
		var b strings.Builder
		fmt.Fprintf(&b, "Document")
		if item.DocType != "" {
			fmt.Fprintf(&b, " [%s]", item.DocType)
		}
		fmt.Fprintf(&b, " (%s): %s", date, item.Title)
		if item.Locator != "" {
			fmt.Fprintf(&b, ", %s", item.Locator)
		}
		if excerpt != "" {
			fmt.Fprintf(&b, ". %s", excerpt)
		}
		return b.String()

	case models.CategoryKeyStatement:
		speaker := item.Speaker
		if speaker == "" {
			speaker = "Unattributed"
		}
		return fmt.Sprintf("Statement by %s (%s): %q", speaker, date, excerpt)

	default: // discussion
		var b strings.Builder
		fmt.Fprintf(&b, "Discussion (%s): %s", date, item.Title)
		if item.Speaker != "" {
			fmt.Fprintf(&b, " [%s]", item.Speaker)
		}
		if excerpt != "" {
			fmt.Fprintf(&b, ". %s", excerpt)
		}
		return b.String()
	}
}
