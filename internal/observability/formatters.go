// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/hiring-panel/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintSession outputs a human-readable summary of an evaluation session.
func (p *Printer) PrintSession(session *types.EvaluationSession) {
	if session == nil {
		return
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Candidate: %s\n", session.CandidateID))
	sb.WriteString(fmt.Sprintf("Job:       %s\n", session.JobID))
	sb.WriteString(fmt.Sprintf("Type:      %s\n", session.SessionType))
	sb.WriteString(fmt.Sprintf("State:     %s\n", session.State))
	sb.WriteString(fmt.Sprintf("Method:    %s\n", session.ConsensusMethod))
	sb.WriteString(fmt.Sprintf("Impact:    %s\n", session.DecisionImpact))
	if session.CancelReason != "" {
		sb.WriteString(fmt.Sprintf("Cancelled: %s\n", session.CancelReason))
	}
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("Participants (%d):\n", len(session.Participants)))
	count := min(len(session.Participants), maxItemsToShow)
	for i := 0; i < count; i++ {
		part := session.Participants[i]
		sb.WriteString(fmt.Sprintf("  • %s (%s, weight %.1f)\n", part.ID, part.Role, part.Weight))
	}
	if len(session.Participants) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(session.Participants)-maxItemsToShow))
	}
	if !session.DeadlineAt.IsZero() {
		sb.WriteString(fmt.Sprintf("\nDeadline: %s\n", session.DeadlineAt.Format("2006-01-02 15:04 MST")))
	}

	p.printBox("EVALUATION SESSION", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintConsensusResult outputs the computed consensus with per-criterion and
// per-participant breakdowns.
func (p *Printer) PrintConsensusResult(result *types.ConsensusResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Method:         %s\n", result.Method))
	sb.WriteString(fmt.Sprintf("Score:          %.2f\n", result.AggregateScore))
	sb.WriteString(fmt.Sprintf("Recommendation: %s\n", result.AggregateRecommendation))
	sb.WriteString(fmt.Sprintf("Agreement:      %.2f\n", result.AgreementLevel))
	if result.Round > 0 {
		sb.WriteString(fmt.Sprintf("Round:          %d (converged: %v)\n", result.Round, result.Converged))
	}

	if len(result.CriterionScores) > 0 {
		sb.WriteString("\nPer criterion:\n")
		criteria := make([]string, 0, len(result.CriterionScores))
		for criterion := range result.CriterionScores {
			criteria = append(criteria, criterion)
		}
		sort.Strings(criteria)
		count := min(len(criteria), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %-24s %.2f\n", criteria[i], result.CriterionScores[criteria[i]]))
		}
		if len(criteria) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(criteria)-maxItemsToShow))
		}
	}

	p.printBox("CONSENSUS RESULT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintOversightRequest outputs the state of an oversight request.
func (p *Printer) PrintOversightRequest(req *types.OversightRequest) {
	if req == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Decision: %s\n", req.DecisionID))
	sb.WriteString(fmt.Sprintf("Scenario: %s\n", req.Scenario))
	sb.WriteString(fmt.Sprintf("Impact:   %s\n", req.Impact))
	sb.WriteString(fmt.Sprintf("Status:   %s\n", req.Status))
	sb.WriteString(fmt.Sprintf("Reviews:  %d of %d\n", len(req.Responses), req.RequiredReviewers))
	if req.FinalDecision != "" {
		sb.WriteString(fmt.Sprintf("Decision: %s\n", req.FinalDecision))
	}

	if len(req.AssignedReviewers) > 0 {
		sb.WriteString("\nAssigned reviewers:\n")
		count := min(len(req.AssignedReviewers), maxItemsToShow)
		for i := 0; i < count; i++ {
			id := req.AssignedReviewers[i]
			marker := " "
			if _, ok := req.Responses[id]; ok {
				marker = "✓"
			}
			sb.WriteString(fmt.Sprintf("  %s %s\n", marker, id))
		}
		if len(req.AssignedReviewers) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(req.AssignedReviewers)-maxItemsToShow))
		}
	}
	sb.WriteString(fmt.Sprintf("\nEscalation deadline: %s\n", req.Timeline.EscalationDeadline.Format("2006-01-02 15:04 MST")))

	p.printBox("OVERSIGHT REQUEST", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintViolations outputs a list of recorded violations.
func (p *Printer) PrintViolations(records []types.ViolationRecord) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total violations: %d\n", len(records)))

	count := min(len(records), maxItemsToShow)
	for i := 0; i < count; i++ {
		record := records[i]
		status := "open"
		if record.Resolved() {
			status = "resolved"
		}
		sb.WriteString(fmt.Sprintf("\n#%d  %s [%s] %s\n", i+1, record.Type, record.Severity, status))
		sb.WriteString(fmt.Sprintf("    %s\n", record.Description))
		if len(record.AffectedEntities) > 0 {
			entities := strings.Join(record.AffectedEntities, ", ")
			if len(entities) > 40 {
				entities = entities[:37] + "..."
			}
			sb.WriteString(fmt.Sprintf("    Affects: %s\n", entities))
		}
	}
	if len(records) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more\n", len(records)-maxItemsToShow))
	}

	p.printBox("VIOLATIONS", strings.TrimSuffix(sb.String(), "\n"))
}
