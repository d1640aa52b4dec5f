package orchestrator

import (
	"github.com/civiclens/hansard/internal/models"
	"github.com/civiclens/hansard/internal/tools"
)

// maxLookups caps the parallel fan-out for comparative questions.
const maxLookups = 4

// step is one planned tool invocation.
type step struct {
	tool     string
	args     tools.Args
	recovery bool
}

// plan derives the step queue from the analyzed intent. Each group runs as a
// unit; multi-step groups run concurrently.
func plan(q *models.QueryAnalysis) [][]step {
	switch q.Intent {
	case models.IntentPerson:
		return [][]step{
			{{tool: tools.NamePersonActivity}},
			{{tool: tools.NameFindDiscussions}},
			{{tool: tools.NameFindDecisions}},
		}

	case models.IntentComparative:
		queue := [][]step{comparativeFanOut(q)}
		queue = append(queue,
			[]step{{tool: tools.NameFindDecisions}},
			[]step{{tool: tools.NameSearchDocuments}},
		)
		return queue

	case models.IntentTemporal:
		queue := [][]step{
			{{tool: tools.NameTopicTimeline}},
		}
		if date, ok := singleDay(q); ok {
			queue = append(queue, []step{{tool: tools.NameMeetingContext, args: tools.Args{MeetingDate: date}}})
		}
		queue = append(queue,
			[]step{{tool: tools.NameFindDiscussions}},
			[]step{{tool: tools.NameFindDecisions}},
		)
		return queue

	case models.IntentFactual:
		return [][]step{
			{{tool: tools.NameFindDiscussions}},
			{{tool: tools.NameFindDecisions}},
		}

	default: // exploratory
		return [][]step{
			{{tool: tools.NameFindDiscussions}},
			{{tool: tools.NameSearchDocuments}},
			{{tool: tools.NameFindDecisions}},
		}
	}
}

// comparativeFanOut builds the first group of a comparative plan. When the
// analysis marked the sides as independently answerable, each compared person
// or topic becomes its own concurrent branch.
func comparativeFanOut(q *models.QueryAnalysis) []step {
	var group []step
	if q.IndependentLookups {
		switch {
		case len(q.Entities.People) > 1:
			for _, person := range capped(q.Entities.People) {
				group = append(group, step{tool: tools.NamePersonActivity, args: tools.Args{Person: person}})
			}
		case len(q.Entities.Topics) > 1:
			for _, topic := range capped(q.Entities.Topics) {
				group = append(group, step{tool: tools.NameFindDiscussions, args: tools.Args{Query: topic}})
			}
		}
	}
	if len(group) == 0 {
		group = []step{{tool: tools.NameFindDiscussions}}
	}
	return group
}

func capped(s []string) []string {
	if len(s) > maxLookups {
		return s[:maxLookups]
	}
	return s
}

// singleDay reports whether the analysis pinned the question to one calendar
// day, which makes a direct meeting lookup worthwhile.
func singleDay(q *models.QueryAnalysis) (string, bool) {
	if q.DateFrom == nil || q.DateTo == nil {
		return "", false
	}
	from, to := *q.DateFrom, *q.DateTo
	if from.Year() == to.Year() && from.YearDay() == to.YearDay() {
		return from.Format("2006-01-02"), true
	}
	return "", false
}

// recoverStep derives the single self-correction attempt for a step that
// returned nothing: broaden a narrowed query first, otherwise fall back to a
// plain discussion search over the raw question.
func recoverStep(s step, q *models.QueryAnalysis) (step, bool) {
	if s.recovery {
		return step{}, false
	}
	// A step narrowed by dates or type filters retries broadened on the same tool.
	if s.args.DateFrom != "" || s.args.DateTo != "" || s.args.DocType != "" || s.args.MatterID != "" {
		return step{tool: s.tool, args: tools.Args{Query: s.args.Query}, recovery: true}, true
	}
	switch s.tool {
	case tools.NameFindDecisions, tools.NameSearchDocuments, tools.NameTopicTimeline, tools.NameMeetingContext:
		return step{tool: tools.NameFindDiscussions, args: tools.Args{Query: q.Question}, recovery: true}, true
	case tools.NameFindDiscussions:
		if s.args.Query != q.Question {
			return step{tool: tools.NameFindDiscussions, args: tools.Args{Query: q.Question}, recovery: true}, true
		}
	}
	return step{}, false
}
