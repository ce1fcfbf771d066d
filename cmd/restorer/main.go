package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/linuxmatters/restorer/internal/audio"
	"github.com/linuxmatters/restorer/internal/cli"
	"github.com/linuxmatters/restorer/internal/logging"
	"github.com/linuxmatters/restorer/internal/mains"
	"github.com/linuxmatters/restorer/internal/processor"
	"github.com/linuxmatters/restorer/internal/ui"
	"github.com/sirupsen/logrus"
)

var (
	version = "0.0.1"
)

const configPath = "~/.config/restorer/config.json"

// DeclickFlags are the click removal parameters
type DeclickFlags struct {
	Threshold        float64 `help:"Band peak height that marks a click" default:"${threshold}"`
	MaxSteps         int     `help:"Repair window half-width in samples" default:"${max_steps}"`
	Separation       int     `help:"Minimum samples between clicks in one band" default:"${separation}"`
	CrackleThreshold float64 `help:"Dense-click threshold in dB" default:"${crackle_threshold}"`
	Crossfade        float64 `help:"Repair crossfade in milliseconds" default:"${crossfade}"`
	Bands            int     `help:"Number of log-spaced bands" default:"${bands}"`
	Passes           int     `help:"Declick passes" default:"${passes}"`
	FreqLow          float64 `help:"Lowest band edge in Hz" default:"${freq_low}"`
	FreqHigh         float64 `help:"Highest band edge in Hz" default:"${freq_high}"`
}

// GateFlags are the noise gate parameters
type GateFlags struct {
	Threshold  float64 `help:"Level in dBFS that opens the gate" default:"${gate_threshold}"`
	Reduction  float64 `help:"Closed-gate gain in dB" default:"${gate_reduction}"`
	Attack     float64 `help:"Attack time in milliseconds" default:"${gate_attack}"`
	Decay      float64 `help:"Decay time in milliseconds" default:"${gate_decay}"`
	Hold       float64 `help:"Hold time in milliseconds" default:"${gate_hold}"`
	Freq       float64 `help:"Detector low-pass cutoff in Hz, 0 for full band" default:"${gate_freq}"`
	Mode       string  `help:"Closed-gate behaviour" enum:"gate,duck" default:"gate"`
	StereoLink string  `help:"Stereo gain derivation" enum:"link,independent" default:"link"`
}

// CLI defines the command-line interface
type CLI struct {
	Version   bool   `short:"v" help:"Show version information"`
	Scan      bool   `short:"s" help:"Report levels and clicks without writing output"`
	Logs      bool   `help:"Save a restoration report per file and a debug log"`
	OutputDir string `short:"o" type:"path" help:"Directory for restored files (default: next to each input)"`
	NoDeclick bool   `help:"Skip click removal"`
	NoGate    bool   `help:"Skip the noise gate"`
	Mains     int    `help:"Mains frequency in Hz for hum warnings, 0 to detect from the timezone" default:"0"`

	Declick DeclickFlags `embed:"" group:"Declick"`
	Gate    GateFlags    `embed:"" prefix:"gate-" group:"Gate"`

	Files []string `arg:"" name:"files" help:"Audio files or directories to process" type:"path" optional:""`
}

// defaultVars exposes the processor defaults to the flag definitions
func defaultVars() kong.Vars {
	d := processor.DefaultDeclickConfig()
	g := processor.DefaultGateConfig()
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return kong.Vars{
		"version":           version,
		"threshold":         f(d.Threshold),
		"max_steps":         strconv.Itoa(d.MaxSteps),
		"separation":        strconv.Itoa(d.Separation),
		"crackle_threshold": f(d.CrackleThresholdDB),
		"crossfade":         f(d.CrossfadeMs),
		"bands":             strconv.Itoa(d.Bands),
		"passes":            strconv.Itoa(d.Passes),
		"freq_low":          f(d.FreqLowHz),
		"freq_high":         f(d.FreqHighHz),
		"gate_threshold":    f(g.ThresholdDB),
		"gate_reduction":    f(g.ReductionDB),
		"gate_attack":       f(g.AttackMs),
		"gate_decay":        f(g.DecayMs),
		"gate_hold":         f(g.HoldMs),
		"gate_freq":         f(g.GateFreqHz),
	}
}

// toConfig builds the processing configuration from parsed flags
func (c *CLI) toConfig() (*processor.Config, error) {
	config := processor.DefaultConfig()
	config.DeclickEnabled = !c.NoDeclick
	config.GateEnabled = !c.NoGate
	config.OutputDir = c.OutputDir

	config.Declick = processor.DeclickConfig{
		Threshold:          c.Declick.Threshold,
		MaxSteps:           c.Declick.MaxSteps,
		Separation:         c.Declick.Separation,
		CrackleThresholdDB: c.Declick.CrackleThreshold,
		CrossfadeMs:        c.Declick.Crossfade,
		Bands:              c.Declick.Bands,
		Passes:             c.Declick.Passes,
		FreqLowHz:          c.Declick.FreqLow,
		FreqHighHz:         c.Declick.FreqHigh,
	}

	mode, err := processor.ParseGateMode(c.Gate.Mode)
	if err != nil {
		return nil, err
	}
	link, err := processor.ParseStereoLink(c.Gate.StereoLink)
	if err != nil {
		return nil, err
	}
	config.Gate = processor.GateConfig{
		ThresholdDB: c.Gate.Threshold,
		ReductionDB: c.Gate.Reduction,
		AttackMs:    c.Gate.Attack,
		DecayMs:     c.Gate.Decay,
		HoldMs:      c.Gate.Hold,
		GateFreqHz:  c.Gate.Freq,
		Mode:        mode,
		StereoLink:  link,
	}
	return config, nil
}

// expandInputs replaces each directory argument with the supported audio files
// directly inside it, sorted by name
func expandInputs(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, err
		}
		var found []string
		for _, e := range entries {
			if e.Type().IsRegular() && audio.IsSupported(e.Name()) {
				found = append(found, filepath.Join(p, e.Name()))
			}
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}

// resolveMains uses the --mains flag when given, otherwise the timezone lookup
func resolveMains(flagHz int) mains.Detection {
	if flagHz > 0 {
		return mains.Detection{Hz: flagHz}
	}
	return mains.Detect()
}

func main() {
	cliArgs := &CLI{}
	kctx := kong.Parse(cliArgs,
		kong.Name("restorer"),
		kong.Description("Click removal and noise gating for digitised records"),
		kong.UsageOnError(),
		defaultVars(),
		kong.Configuration(kong.JSON, configPath),
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	if cliArgs.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	if len(cliArgs.Files) == 0 {
		cli.PrintError("No input files specified")
		kctx.PrintUsage(false)
		os.Exit(1)
	}

	files, err := expandInputs(cliArgs.Files)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
	if len(files) == 0 {
		cli.PrintError("No supported audio files found (wav, flac, mp3)")
		os.Exit(1)
	}

	config, err := cliArgs.toConfig()
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	detection := resolveMains(cliArgs.Mains)
	config.MainsHz = detection.Hz
	if config.DeclickEnabled && mains.HumOverlap(config.Declick.FreqLowHz, detection.Hz) {
		cli.PrintWarning(fmt.Sprintf("--freq-low %.0f Hz reaches %d Hz mains hum harmonics; hum may be detected as clicks",
			config.Declick.FreqLowHz, detection.Hz))
	}

	runID := uuid.NewString()
	logPath := ""
	if cliArgs.Logs {
		logPath = logging.DebugLogName
	}
	log, closer, err := logging.NewDebugLogger(logPath, runID)
	if err != nil {
		cli.PrintError(fmt.Sprintf("Cannot open debug log: %v", err))
		os.Exit(1)
	}
	log.WithFields(logrus.Fields{
		"files":    len(files),
		"mains_hz": detection.Hz,
		"timezone": detection.Timezone,
		"scan":     cliArgs.Scan,
	}).Info("run started")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	var code int
	if cliArgs.Scan {
		code = runScan(ctx, files, config, detection, log)
	} else {
		code = runProcess(ctx, files, config, detection, runID, cliArgs.Logs, log)
	}
	log.WithField("exit_code", code).Info("run finished")

	stop()
	closer.Close()
	os.Exit(code)
}

// runProcess restores every file under the progress UI and returns the exit code
func runProcess(ctx context.Context, files []string, config *processor.Config, detection mains.Detection,
	runID string, reports bool, log logrus.FieldLogger) int {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := ui.NewModel(files, config)
	model.Log = log
	p := tea.NewProgram(model, tea.WithAltScreen())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i, inputPath := range files {
			if ctx.Err() != nil {
				break
			}
			fileStart := time.Now()
			p.Send(ui.FileStartMsg{FileIndex: i, FileName: inputPath})

			progress := func(stage int, stageName string, progress, level float64, m *processor.AudioMeasurements) {
				p.Send(ui.ProgressMsg{
					Stage:        stage,
					StageName:    stageName,
					Progress:     progress,
					Level:        level,
					Measurements: m,
				})
			}

			result, err := processor.ProcessAudio(ctx, inputPath, config, progress, log)
			if err != nil {
				log.WithError(err).WithField("file", inputPath).Error("processing failed")
			} else if reports {
				err := logging.GenerateReport(logging.ReportData{
					RunID:      runID,
					InputPath:  inputPath,
					OutputPath: result.OutputPath,
					StartTime:  fileStart,
					EndTime:    time.Now(),
					Result:     result,
					Mains:      detection,
				})
				if err != nil {
					log.WithError(err).Warn("failed to write report")
				}
			}
			p.Send(ui.CompleteMsgFor(i, result, err))
		}
		p.Send(ui.AllCompleteMsg{})
	}()

	final, err := p.Run()
	cancel()
	<-done
	if err != nil {
		cli.PrintError(fmt.Sprintf("UI error: %v", err))
		return 1
	}

	m := final.(ui.Model)
	if !m.Done {
		cli.PrintWarning("Interrupted")
		return 130
	}
	for _, f := range m.Files {
		if f.Error != nil {
			cli.PrintError(fmt.Sprintf("%s: %v", filepath.Base(f.InputPath), f.Error))
		}
	}
	if m.FailedFiles > 0 {
		return 1
	}
	return 0
}

// runScan reports levels and click counts for each file without writing audio
func runScan(ctx context.Context, files []string, config *processor.Config, detection mains.Detection, log logrus.FieldLogger) int {
	code := 0
	for _, inputPath := range files {
		ctx, cancel := context.WithCancel(ctx)

		p := tea.NewProgram(ui.NewScanModel())
		go func() {
			p.Send(ui.ScanStartMsg{FilePath: inputPath})
			result, err := processor.ScanAudio(ctx, inputPath, config, log)
			p.Send(ui.ScanCompleteMsg{Result: result, Error: err})
		}()

		final, err := p.Run()
		cancel()
		if err != nil {
			cli.PrintError(fmt.Sprintf("UI error: %v", err))
			return 1
		}

		m := final.(ui.ScanModel)
		if !m.Done {
			cli.PrintWarning("Interrupted")
			return 130
		}
		if m.Error != nil {
			cli.PrintError(fmt.Sprintf("%s: %v", filepath.Base(inputPath), m.Error))
			code = 1
			continue
		}
		logging.DisplayScanResults(os.Stdout, m.Result, config, detection.Hz)
	}
	return code
}
