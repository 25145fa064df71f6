package workflow

import (
	"strings"

	"github.com/spec-kit/evaluation-service/internal/domain"
)

// StepState is the visual state of one entry in the step indicator.
type StepState string

const (
	StepPending   StepState = "pending"
	StepActive    StepState = "active"
	StepCompleted StepState = "completed"
	StepWarning   StepState = "warning"
)

// Step is one entry in the three-stage indicator.
type Step struct {
	Label string
	State StepState
}

var stepLabels = [3]string{"Intern Feedback", "HR Review", "AI Report"}

// Steps derives the indicator from status and report presence only.
func Steps(status domain.EvaluationStatus, hasReport bool) []Step {
	steps := make([]Step, len(stepLabels))
	for i, label := range stepLabels {
		steps[i] = Step{Label: label, State: StepPending}
	}

	current, known := stageOrder[status]
	if !known {
		return steps
	}
	for i := 0; i < 2; i++ {
		switch {
		case current > i:
			steps[i].State = StepCompleted
		case current == i:
			steps[i].State = StepActive
		}
	}

	switch {
	case hasReport:
		steps[2].State = StepCompleted
	case status == domain.StatusCompleted:
		steps[2].State = StepWarning
	}
	return steps
}

// Badge is the status label shown on every card.
func Badge(status domain.EvaluationStatus) string {
	return strings.ToUpper(strings.ReplaceAll(string(status), "_", " "))
}

// BadgeTone groups statuses for colouring.
func BadgeTone(status domain.EvaluationStatus) string {
	if status == domain.StatusCompleted {
		return "completed"
	}
	return "pending"
}
