package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/spec-kit/evaluation-service/internal/domain"
	"github.com/spec-kit/evaluation-service/internal/workflow"
)

var (
	colorPending   = lipgloss.Color("#FFC107")
	colorCompleted = lipgloss.Color("#8BC34A")
	colorDanger    = lipgloss.Color("#e53935")
	colorInfo      = lipgloss.Color("#6366F1")
	colorMuted     = lipgloss.Color("#8b95a5")

	cardStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorMuted).Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(colorMuted)
)

var stepGlyphs = map[workflow.StepState]string{
	workflow.StepCompleted: "✓",
	workflow.StepActive:    "●",
	workflow.StepPending:   "○",
	workflow.StepWarning:   "!",
}

var stepColors = map[workflow.StepState]lipgloss.Color{
	workflow.StepCompleted: colorCompleted,
	workflow.StepActive:    colorInfo,
	workflow.StepPending:   colorMuted,
	workflow.StepWarning:   colorDanger,
}

func badge(c Card) string {
	color := colorPending
	if c.Tone == "completed" {
		color = colorCompleted
	}
	return lipgloss.NewStyle().Bold(true).Foreground(color).Render("[" + c.Badge + "]")
}

// RenderSteps draws the three-stage indicator on one line.
func RenderSteps(steps []workflow.Step) string {
	parts := make([]string, 0, len(steps))
	for _, s := range steps {
		style := lipgloss.NewStyle().Foreground(stepColors[s.State])
		parts = append(parts, style.Render(stepGlyphs[s.State]+" "+s.Label))
	}
	return strings.Join(parts, mutedStyle.Render(" ── "))
}

// RenderCard draws one evaluation with the actions the viewer may take.
func RenderCard(c Card) string {
	e := c.Evaluation
	lines := []string{
		titleStyle.Render(fmt.Sprintf("#%d %s", e.ID, e.InternID)) + "  " + badge(c),
		mutedStyle.Render(fmt.Sprintf("Manager: %s  Months: %d  Rating: %d/5  Final score: %d/5", e.ManagerID, e.MonthsWorked, e.Rating, c.FinalScore)),
		RenderSteps(c.Steps),
		"Manager: " + e.ManagerComment,
	}
	if e.InternComment != nil {
		lines = append(lines, "Intern: "+*e.InternComment)
	}
	if e.HRComment != nil {
		adj := 0
		if e.HRRatingAdjustment != nil {
			adj = *e.HRRatingAdjustment
		}
		lines = append(lines, fmt.Sprintf("HR (%+d): %s", adj, *e.HRComment))
	}
	if actions := actionNames(c.Actions); len(actions) > 0 {
		lines = append(lines, mutedStyle.Render("Actions: "+strings.Join(actions, ", ")))
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}

func actionNames(a workflow.Affordances) []string {
	var out []string
	if a.CanSubmitFeedback {
		out = append(out, "feedback")
	}
	if a.CanSubmitReview {
		out = append(out, "review")
	}
	if a.CanGenerateReport {
		out = append(out, "generate report")
	}
	if a.CanViewReport {
		out = append(out, "view report")
	}
	if a.CanDownloadPDF {
		out = append(out, "download pdf")
	}
	return out
}

// RenderPage draws the cards followed by the pagination line.
func RenderPage(p *Page) string {
	if p == nil {
		return ""
	}
	var b strings.Builder
	if len(p.Cards) == 0 {
		b.WriteString(mutedStyle.Render("No evaluations found."))
		b.WriteString("\n")
	}
	for _, c := range p.Cards {
		b.WriteString(RenderCard(c))
		b.WriteString("\n")
	}
	b.WriteString(mutedStyle.Render(fmt.Sprintf("Page %d of %d (%d total)", p.Page, p.Pages, p.Total)))
	return b.String()
}

// RenderToasts draws active notifications, one per line.
func RenderToasts(toasts []Toast) string {
	lines := make([]string, 0, len(toasts))
	for _, t := range toasts {
		color := colorInfo
		switch t.Kind {
		case ToastSuccess:
			color = colorCompleted
		case ToastError:
			color = colorDanger
		}
		lines = append(lines, lipgloss.NewStyle().Foreground(color).Render(t.Message))
	}
	return strings.Join(lines, "\n")
}

// RenderUsers draws the HR account table.
func RenderUsers(users []domain.User) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%-32s %-8s %s", "EMAIL", "ROLE", "STATUS")))
	for _, u := range users {
		status := lipgloss.NewStyle().Foreground(colorCompleted).Render("active")
		if !u.IsActive {
			status = lipgloss.NewStyle().Foreground(colorDanger).Render("inactive")
		}
		b.WriteString(fmt.Sprintf("\n%-32s %-8s %s", u.Email, u.Role, status))
	}
	return b.String()
}
