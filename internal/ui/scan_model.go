package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/linuxmatters/restorer/internal/processor"
)

// Spinner frames for indeterminate progress
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// ScanModel is the Bubbletea model for scan-only mode. Scanning has no
// per-sample progress, so it shows a spinner and elapsed time.
type ScanModel struct {
	FileName string
	FilePath string

	StartTime time.Time

	spinnerIndex int

	Result *processor.ScanResult
	Error  error
	Done   bool

	Width  int
	Height int
}

// ScanStartMsg signals a scan has started
type ScanStartMsg struct {
	FilePath string
}

// ScanCompleteMsg signals a scan has finished
type ScanCompleteMsg struct {
	Result *processor.ScanResult
	Error  error
}

type tickMsg time.Time

// NewScanModel creates a new scan UI model
func NewScanModel() ScanModel {
	return ScanModel{StartTime: time.Now()}
}

// Init starts the spinner
func (m ScanModel) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages and updates the model
func (m ScanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case tickMsg:
		if !m.Done {
			m.spinnerIndex = (m.spinnerIndex + 1) % len(spinnerFrames)
			return m, tickCmd()
		}

	case ScanStartMsg:
		m.FileName = filepath.Base(msg.FilePath)
		m.FilePath = msg.FilePath
		m.StartTime = time.Now()

	case ScanCompleteMsg:
		m.Result = msg.Result
		m.Error = msg.Error
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the UI
func (m ScanModel) View() string {
	if m.Width == 0 {
		return "Initializing..."
	}

	var b strings.Builder

	title := lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("Restorer")
	subtitle := lipgloss.NewStyle().Foreground(mutedColor).Italic(true).Render("Scan Mode")
	b.WriteString(title + " " + subtitle)
	b.WriteString("\n\n")

	if m.FileName == "" {
		b.WriteString("Waiting...")
		return b.String()
	}

	b.WriteString("Scanning: ")
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(m.FileName))
	b.WriteString("\n\n")

	if !m.Done {
		spinner := lipgloss.NewStyle().Foreground(accentColor).Render(spinnerFrames[m.spinnerIndex])
		fmt.Fprintf(&b, "%s Detecting clicks... [%s]\n", spinner, formatElapsed(time.Since(m.StartTime)))
	}

	return b.String()
}

// formatElapsed formats elapsed time as MM:SS or HH:MM:SS
func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
