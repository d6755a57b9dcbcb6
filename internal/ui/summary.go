// Package ui renders human-readable run summaries for interactive
// terminals. Orchestrators consume the structured log stream instead.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/imamik/s3init/internal/bootstrap"
)

var (
	colorGreen  = lipgloss.Color("#22c55e")
	colorRed    = lipgloss.Color("#ef4444")
	colorYellow = lipgloss.Color("#eab308")
	colorDim    = lipgloss.Color("#6b7280")
	colorWhite  = lipgloss.Color("#f9fafb")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	readyStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	failedStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)
)

const (
	checkMark = "[OK]"
	crossMark = "[!!]"
	skipMark  = "[--]"
)

// RenderSummary formats a run result as a small status report.
func RenderSummary(result *bootstrap.RunResult) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("s3init"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %s", result.Target)))
	b.WriteString("\n\n")

	for _, step := range result.Steps {
		b.WriteString(renderStep(step))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(renderStatus(result))
	b.WriteString("\n")

	return b.String()
}

func renderStep(step bootstrap.StepResult) string {
	var mark, detail string
	switch step.Outcome {
	case bootstrap.OutcomeSuccess:
		mark = readyStyle.Render(checkMark)
		detail = "applied"
	case bootstrap.OutcomeAlreadySatisfied:
		mark = readyStyle.Render(checkMark)
		detail = "already satisfied"
	default:
		mark = failedStyle.Render(crossMark)
		detail = "failed"
		if step.Err != nil {
			detail = step.Err.Error()
		}
	}

	line := fmt.Sprintf("%s %-16s %s", mark, step.Name, detail)
	if step.Attempts > 1 {
		line += dimStyle.Render(fmt.Sprintf(" (%d attempts)", step.Attempts))
	}
	return line
}

func renderStatus(result *bootstrap.RunResult) string {
	elapsed := dimStyle.Render(fmt.Sprintf("in %s", result.Elapsed.Round(time.Millisecond)))

	switch result.Status {
	case bootstrap.StatusReady:
		return fmt.Sprintf("%s %s", readyStyle.Render("ready"), elapsed)
	case bootstrap.StatusTimedOut:
		return fmt.Sprintf("%s %s", warningStyle.Render("dependency unreachable"), elapsed)
	default:
		msg := "provisioning failed"
		if failure := result.FirstFailure(); failure != nil {
			msg = fmt.Sprintf("provisioning failed at %s", failure.Name)
		}
		return fmt.Sprintf("%s %s", failedStyle.Render(msg), elapsed)
	}
}
