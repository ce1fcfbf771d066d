// Package ui provides the Bubbletea terminal user interface for restorer
package ui

import (
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/linuxmatters/restorer/internal/processor"
	"github.com/sirupsen/logrus"
)

// FileStatus represents the processing state of a single file
type FileStatus int

const (
	StatusQueued FileStatus = iota
	StatusAnalyzing
	StatusDeclicking
	StatusGating
	StatusWriting
	StatusComplete
	StatusError
)

// statusForStage maps a pipeline stage to the file status shown while it runs
func statusForStage(stage int) FileStatus {
	switch stage {
	case processor.StageDeclick:
		return StatusDeclicking
	case processor.StageGate:
		return StatusGating
	case processor.StageWrite:
		return StatusWriting
	}
	return StatusAnalyzing
}

// FileProgress tracks progress for a single audio file
type FileProgress struct {
	InputPath  string
	OutputPath string
	Status     FileStatus

	CurrentStage int
	StageName    string

	Progress    float64 // 0.0 to 1.0 within the stage
	StartTime   time.Time
	ElapsedTime time.Duration

	// Latest stage measurements
	Measurements *processor.AudioMeasurements

	CurrentLevel float64 // dBFS
	PeakLevel    float64 // Highest level seen so far

	// Completion results
	Input      *processor.AudioMeasurements
	Final      *processor.AudioMeasurements
	Clicks     int
	GateClosed float64

	Error error
}

// Model is the Bubbletea model for the processing UI
type Model struct {
	Files          []FileProgress
	CurrentIndex   int
	TotalFiles     int
	CompletedFiles int
	FailedFiles    int

	StartTime time.Time
	Done      bool

	// Stages enabled for this run, for the stage counter
	Stages []int

	// Log receives UI debug events; discarded unless the caller sets one
	Log logrus.FieldLogger

	Width  int
	Height int
}

// NewModel creates a new UI model with the given input files
func NewModel(inputFiles []string, config *processor.Config) Model {
	files := make([]FileProgress, len(inputFiles))
	for i, path := range inputFiles {
		files[i] = FileProgress{
			InputPath:  path,
			OutputPath: processor.GenerateOutputPath(path, config),
			Status:     StatusQueued,
			PeakLevel:  -120.0,
		}
	}

	stages := []int{processor.StageAnalyze}
	if config.DeclickEnabled {
		stages = append(stages, processor.StageDeclick)
	}
	if config.GateEnabled {
		stages = append(stages, processor.StageGate)
	}
	stages = append(stages, processor.StageWrite)

	discard := logrus.New()
	discard.SetOutput(io.Discard)

	return Model{
		Files:        files,
		CurrentIndex: -1, // No file processing yet
		TotalFiles:   len(inputFiles),
		StartTime:    time.Now(),
		Stages:       stages,
		Log:          discard,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case ProgressMsg:
		if m.CurrentIndex >= 0 && m.CurrentIndex < len(m.Files) {
			m.Files[m.CurrentIndex] = updateFileProgress(m.Files[m.CurrentIndex], msg)
		}

	case FileStartMsg:
		m.Log.WithFields(logrus.Fields{"index": msg.FileIndex, "file": msg.FileName}).Debug("ui: file start")
		if msg.FileIndex < 0 || msg.FileIndex >= len(m.Files) {
			return m, nil
		}
		m.CurrentIndex = msg.FileIndex
		m.Files[m.CurrentIndex].Status = StatusAnalyzing
		m.Files[m.CurrentIndex].StartTime = time.Now()

	case FileCompleteMsg:
		m.Log.WithFields(logrus.Fields{"index": msg.FileIndex, "error": msg.Error}).Debug("ui: file complete")
		if msg.FileIndex < 0 || msg.FileIndex >= len(m.Files) {
			return m, nil
		}
		f := &m.Files[msg.FileIndex]
		f.Input = msg.Input
		f.Final = msg.Final
		f.Clicks = msg.Clicks
		f.GateClosed = msg.GateClosed
		f.Error = msg.Error
		if msg.OutputPath != "" {
			f.OutputPath = msg.OutputPath
		}
		if msg.Error != nil {
			f.Status = StatusError
			m.FailedFiles++
		} else {
			f.Status = StatusComplete
			m.CompletedFiles++
		}

	case AllCompleteMsg:
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the UI
func (m Model) View() string {
	if m.Width == 0 {
		return fmt.Sprintf("Initializing...\nFiles: %d\n", len(m.Files))
	}
	if m.Done {
		return renderCompletionSummary(m)
	}
	return renderProcessingView(m)
}

// stagePosition returns the 1-based position of stage among the enabled stages
func (m Model) stagePosition(stage int) int {
	for i, s := range m.Stages {
		if s == stage {
			return i + 1
		}
	}
	return 0
}

// updateFileProgress updates a FileProgress based on a ProgressMsg
func updateFileProgress(fp FileProgress, msg ProgressMsg) FileProgress {
	// Reset the start time when transitioning to a new stage
	if msg.Stage != fp.CurrentStage {
		fp.StartTime = time.Now()
	}

	fp.Progress = msg.Progress
	fp.CurrentStage = msg.Stage
	fp.StageName = msg.StageName
	fp.ElapsedTime = time.Since(fp.StartTime)
	fp.Status = statusForStage(msg.Stage)

	if msg.Measurements != nil {
		fp.Measurements = msg.Measurements
		fp.PeakLevel = max(fp.PeakLevel, msg.Measurements.PeakLevel)
	}
	if msg.Level != 0 {
		fp.CurrentLevel = msg.Level
	}

	return fp
}
