package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/levelwise/levelwise/internal/cli"
	"github.com/levelwise/levelwise/internal/ffmpeg"
	"github.com/levelwise/levelwise/internal/loudness"
	"github.com/levelwise/levelwise/internal/media"
	"github.com/levelwise/levelwise/internal/ui"
)

var (
	version = "0.0.1"
)

// CLI defines the command-line interface
type CLI struct {
	Version           bool   `short:"v" help:"Show version information"`
	NormalisationType string `short:"n" default:"ebu" enum:"ebu,peak,rms" help:"Normalisation type: ebu, peak or rms"`
	DryRun            bool   `help:"Measure and plan only, do not write output files"`
	Debug             bool   `help:"Write a detailed debug log to levelwise-debug.log"`

	TargetLevel       float64 `short:"t" default:"-23" group:"targets" help:"Target level in LUFS (ebu) or dB (peak, rms)"`
	LoudnessRange     float64 `default:"7" group:"targets" help:"EBU loudness range target in LU"`
	TruePeak          float64 `default:"-2" group:"targets" help:"EBU maximum true peak in dBTP"`
	Offset            float64 `default:"0" group:"targets" help:"EBU gain offset in LU"`
	DualMono          bool    `group:"targets" help:"Treat mono input as dual-mono for EBU measurement"`
	KeepLoudnessRange bool    `group:"targets" help:"Keep the input loudness range instead of the target"`
	Dynamic           bool    `group:"targets" help:"Force dynamic (non-linear) EBU normalisation"`

	SampleRate   int    `group:"output" help:"Output sample rate in Hz"`
	PreFilter    string `group:"output" help:"Audio filter chain to apply before measurement and normalisation"`
	PostFilter   string `group:"output" help:"Audio filter chain to apply after normalisation"`
	AudioCodec   string `short:"c" group:"output" help:"Output audio codec (default: PCM matching the input bit depth)"`
	AudioBitrate string `short:"b" group:"output" help:"Output audio bitrate, e.g. 192k"`
	OutputFormat string `short:"f" group:"output" help:"Output container format"`
	OutputDir    string `short:"o" default:"normalised" type:"path" group:"output" help:"Directory for normalised output files"`

	Files []string `arg:"" name:"files" help:"Audio or video files to normalise" type:"existingfile" optional:""`
}

func main() {
	cliArgs := &CLI{}
	ctx := kong.Parse(cliArgs,
		kong.Name("levelwise"),
		kong.Description("EBU R128 loudness normaliser for audio and video files"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.ExplicitGroups([]kong.Group{
			{Key: "targets", Title: "Loudness targets"},
			{Key: "output", Title: "Output"},
		}),
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	// Handle version flag
	if cliArgs.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	// Validate input
	if len(cliArgs.Files) == 0 {
		cli.PrintError("No input files specified")
		ctx.PrintUsage(false)
		os.Exit(1)
	}

	// The TUI owns the terminal, so structured logs go to a file when
	// requested and are discarded otherwise.
	var logWriter io.Writer = io.Discard
	if cliArgs.Debug {
		debugLog, err := os.Create("levelwise-debug.log")
		if err != nil {
			cli.PrintError(fmt.Sprintf("Cannot create debug log: %v", err))
			os.Exit(1)
		}
		defer debugLog.Close()
		logWriter = debugLog
	}
	log := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{Level: slog.LevelDebug}))

	runner, err := ffmpeg.NewRunner(log)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	if !cliArgs.DryRun {
		if err := os.MkdirAll(cliArgs.OutputDir, 0o755); err != nil {
			cli.PrintError(fmt.Sprintf("Cannot create output directory: %v", err))
			os.Exit(1)
		}
	}

	normaliser := &media.Normaliser{
		Runner: runner,
		Log:    log,
		Opts: media.Options{
			Mode: loudness.Mode(cliArgs.NormalisationType),
			Targets: loudness.Targets{
				TargetLevel:       cliArgs.TargetLevel,
				LoudnessRange:     cliArgs.LoudnessRange,
				TruePeak:          cliArgs.TruePeak,
				Offset:            cliArgs.Offset,
				DualMono:          cliArgs.DualMono,
				KeepLoudnessRange: cliArgs.KeepLoudnessRange,
				Dynamic:           cliArgs.Dynamic,
				SampleRate:        cliArgs.SampleRate,
			},
			PreFilter:    cliArgs.PreFilter,
			PostFilter:   cliArgs.PostFilter,
			AudioCodec:   cliArgs.AudioCodec,
			AudioBitrate: cliArgs.AudioBitrate,
			Format:       cliArgs.OutputFormat,
			DryRun:       cliArgs.DryRun,
		},
	}

	// Create the Bubbletea UI model
	model := ui.NewModel(cliArgs.Files)

	// Start the TUI
	p := tea.NewProgram(model, tea.WithAltScreen())

	// Process files in the background. Quitting the TUI cancels the context,
	// which kills any in-flight ffmpeg run; the worker hands its results back
	// over the channel so the summary never races its writes.
	workCtx, stopWork := context.WithCancel(context.Background())
	defer stopWork()

	resultsCh := make(chan []*media.Result, 1)
	go func() {
		resultsCh <- processQueue(workCtx, cliArgs.Files, cliArgs.OutputDir, cliArgs.OutputFormat,
			log, normaliser.Normalise, p.Send)
	}()

	// Run the program
	if _, err := p.Run(); err != nil {
		cli.PrintError(fmt.Sprintf("UI error: %v", err))
		os.Exit(1)
	}

	stopWork()
	results := <-resultsCh

	// Print the loudness summary now the UI has released the terminal.
	cli.PrintSummary(results, cliArgs.TargetLevel)
}

// normaliseFunc runs the two-pass workflow for one file.
type normaliseFunc func(ctx context.Context, input, output string, progress media.ProgressFunc) (*media.Result, error)

// processQueue normalises each file in order, reporting lifecycle messages
// through send. A cancelled context stops the queue between files (and
// aborts the in-flight run through normalise). The returned slice has one
// entry per input; entries stay nil for files that did not complete.
func processQueue(ctx context.Context, files []string, outDir, format string,
	log *slog.Logger, normalise normaliseFunc, send func(tea.Msg)) []*media.Result {

	results := make([]*media.Result, len(files))
	for i, inputPath := range files {
		if ctx.Err() != nil {
			break
		}

		send(ui.FileStartMsg{
			FileIndex: i,
			FileName:  inputPath,
		})

		progress := func(pass int, passName string, frac float64) {
			send(ui.ProgressMsg{
				Pass:     pass,
				PassName: passName,
				Progress: frac,
			})
		}

		result, err := normalise(ctx, inputPath, outputPath(inputPath, outDir, format), progress)
		if err != nil {
			log.Error("normalisation failed", "file", inputPath, "error", err)
			send(ui.FileCompleteMsg{
				FileIndex: i,
				Error:     err,
			})
			continue
		}

		results[i] = result
		send(ui.FileCompleteMsg{
			FileIndex: i,
			Result:    result,
		})
	}

	send(ui.AllCompleteMsg{})
	return results
}

// outputPath derives the destination file for an input, placing it in the
// output directory and swapping the extension when a container format
// override is set.
func outputPath(input, dir, format string) string {
	name := filepath.Base(input)
	if format != "" {
		name = strings.TrimSuffix(name, filepath.Ext(name)) + "." + format
	}
	return filepath.Join(dir, name)
}
