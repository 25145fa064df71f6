// Package report produces the narrative analysis attached to completed evaluations.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spec-kit/evaluation-service/internal/domain"
)

// ErrUnavailable is returned when no generation backend is configured.
var ErrUnavailable = errors.New("report generator not configured")

// Generator turns an evaluation into report text.
type Generator interface {
	Generate(ctx context.Context, evaluation *domain.Evaluation) (string, error)
}

// UnavailableGenerator always fails; the service keeps running with manual generation disabled.
type UnavailableGenerator struct{}

func (UnavailableGenerator) Generate(context.Context, *domain.Evaluation) (string, error) {
	return "", ErrUnavailable
}

// BuildPrompt renders the assistant instructions for one evaluation.
func BuildPrompt(e *domain.Evaluation) string {
	var b strings.Builder
	b.WriteString("You are an HR evaluation assistant.\n\n")
	b.WriteString("Generate a structured professional performance report.\n\n")
	fmt.Fprintf(&b, "Manager Rating: %d\n", e.Rating)
	fmt.Fprintf(&b, "Manager Comment: %s\n\n", e.ManagerComment)
	fmt.Fprintf(&b, "Months Worked: %d\n\n", e.MonthsWorked)
	fmt.Fprintf(&b, "Intern Feedback: %s\n\n", orNone(e.InternComment))
	fmt.Fprintf(&b, "HR Comment: %s\n", orNone(e.HRComment))
	adjustment := "None"
	if e.HRRatingAdjustment != nil {
		adjustment = fmt.Sprintf("%+d", *e.HRRatingAdjustment)
	}
	fmt.Fprintf(&b, "HR Rating Adjustment: %s\n\n", adjustment)
	b.WriteString("Tasks:\n")
	b.WriteString("1. Write a concise executive summary.\n")
	b.WriteString("2. Highlight strengths.\n")
	b.WriteString("3. Identify areas of improvement.\n")
	b.WriteString("4. Flag if performance is below expectations.\n")
	b.WriteString("5. Provide final performance verdict.\n")
	return b.String()
}

func orNone(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return "None"
	}
	return *s
}
