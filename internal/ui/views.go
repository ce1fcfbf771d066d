package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/linuxmatters/restorer/internal/processor"
)

var (
	accentColor = lipgloss.Color("#B8860B")
	mutedColor  = lipgloss.Color("#888888")
	okColor     = lipgloss.Color("#00AA00")
	busyColor   = lipgloss.Color("#FFA500")
)

// renderProcessingView renders the main processing view
func renderProcessingView(m Model) string {
	var b strings.Builder

	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")

	b.WriteString(renderFileQueue(m))
	b.WriteString("\n\n")

	b.WriteString(renderOverallProgress(m))

	return b.String()
}

func renderHeader(m Model) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(accentColor).
		Render("Restorer 📀 - Declick and Gate")

	subtitle := lipgloss.NewStyle().
		Foreground(mutedColor).
		Italic(true).
		Render(fmt.Sprintf("Processing %d file(s)", m.TotalFiles))

	return title + "\n" + subtitle
}

func renderFileQueue(m Model) string {
	var b strings.Builder
	for _, file := range m.Files {
		b.WriteString(renderFileEntry(m, file))
		b.WriteString("\n")
	}
	return b.String()
}

// renderFileEntry renders a single file entry in the queue
func renderFileEntry(m Model, file FileProgress) string {
	fileName := filepath.Base(file.InputPath)

	switch file.Status {
	case StatusComplete:
		icon := lipgloss.NewStyle().Foreground(okColor).Render("✓")
		return fmt.Sprintf(" %s %s → %s\n   %s", icon, fileName, filepath.Base(file.OutputPath), completionLine(file))

	case StatusAnalyzing, StatusDeclicking, StatusGating, StatusWriting:
		icon := lipgloss.NewStyle().Foreground(busyColor).Render("⚙")
		return fmt.Sprintf(" %s %s → %s\n%s",
			icon, fileName, filepath.Base(file.OutputPath),
			renderFileDetails(m, file))

	case StatusError:
		icon := lipgloss.NewStyle().Foreground(accentColor).Render("✗")
		return fmt.Sprintf(" %s %s\n   Error: %v", icon, fileName, file.Error)

	default:
		icon := lipgloss.NewStyle().Foreground(mutedColor).Render("○")
		return fmt.Sprintf(" %s %s\n   Queued...", icon, fileName)
	}
}

// renderFileDetails renders detailed progress for the active file
func renderFileDetails(m Model, file FileProgress) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(0, 1).
		Width(60)

	var content strings.Builder

	name := file.StageName
	if name == "" {
		name = processor.StageName(file.CurrentStage)
	}
	fmt.Fprintf(&content, "Stage %d/%d: %s\n", m.stagePosition(file.CurrentStage), len(m.Stages), name)

	content.WriteString(renderProgressBar(file.Progress, 40))
	content.WriteString("\n\n")

	elapsed := file.ElapsedTime.Seconds()
	var remaining float64
	if file.Progress > 0 {
		remaining = (elapsed / file.Progress) - elapsed
	}
	fmt.Fprintf(&content, "⏱  Elapsed: %.1fs | Remaining: ~%.1fs\n", elapsed, remaining)

	if file.CurrentLevel != 0 {
		fmt.Fprintf(&content, "📊 RMS Level: %.1f dBFS | Peak: %.1f dBFS", file.CurrentLevel, file.PeakLevel)
	}

	return box.Render(content.String())
}

func renderProgressBar(progress float64, width int) string {
	progress = min(max(progress, 0), 1)
	filled := int(progress * float64(width))
	empty := width - filled

	bar := strings.Repeat("█", filled) + strings.Repeat("░", empty)
	return fmt.Sprintf("%s %d%%", bar, int(progress*100))
}

func renderOverallProgress(m Model) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(mutedColor).
		Padding(0, 1).
		Width(60)

	var content string
	if m.CurrentIndex >= 0 && m.CurrentIndex < len(m.Files) {
		content = fmt.Sprintf("Processing file %d of %d (%d complete, %d failed)",
			m.CurrentIndex+1, m.TotalFiles, m.CompletedFiles, m.FailedFiles)
	} else {
		content = fmt.Sprintf("Overall Progress: %d/%d complete", m.CompletedFiles, m.TotalFiles)
	}

	return box.Render(content)
}

// renderCompletionSummary renders the final completion summary
func renderCompletionSummary(m Model) string {
	var b strings.Builder

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(okColor).
		Render("✨ Restoration Complete!")
	b.WriteString(header)
	b.WriteString("\n\n")

	for _, file := range m.Files {
		switch file.Status {
		case StatusComplete:
			icon := lipgloss.NewStyle().Foreground(okColor).Render("✓")
			fmt.Fprintf(&b, " %s %s → %s\n   %s\n", icon,
				filepath.Base(file.InputPath), filepath.Base(file.OutputPath), completionLine(file))
		case StatusError:
			icon := lipgloss.NewStyle().Foreground(accentColor).Render("✗")
			fmt.Fprintf(&b, " %s %s\n   Error: %v\n", icon, filepath.Base(file.InputPath), file.Error)
		}
	}

	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", 60))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%d restored, %d failed\n", m.CompletedFiles, m.FailedFiles)

	return b.String()
}

// completionLine summarises what restoration did to one file
func completionLine(file FileProgress) string {
	var parts []string
	if file.Clicks >= 0 {
		parts = append(parts, fmt.Sprintf("Clicks: %d", file.Clicks))
	}
	if file.GateClosed >= 0 {
		parts = append(parts, fmt.Sprintf("Gate closed: %.0f%%", file.GateClosed*100))
	}
	if file.Input != nil && file.Final != nil {
		parts = append(parts,
			fmt.Sprintf("Peak: %s → %s", dbfs(file.Input.PeakLevel), dbfs(file.Final.PeakLevel)),
			fmt.Sprintf("Floor: %s → %s", dbfs(file.Input.RMSTrough), dbfs(file.Final.RMSTrough)))
	}
	if len(parts) == 0 {
		return "Done"
	}
	return strings.Join(parts, " | ")
}

func dbfs(v float64) string {
	if v <= -120 {
		return "silent"
	}
	return fmt.Sprintf("%.1f", v)
}
