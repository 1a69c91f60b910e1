package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

func TestStyledHelpPrinter(t *testing.T) {
	var grammar struct {
		Version     bool     `short:"v" help:"Show version information"`
		TargetLevel float64  `short:"t" default:"-23" group:"targets" help:"Target level in LUFS"`
		TruePeak    float64  `default:"-2" group:"targets" help:"Maximum true peak in dBTP"`
		OutputDir   string   `short:"o" group:"output" help:"Directory for output files"`
		Files       []string `arg:"" optional:"" help:"Files to normalise"`
	}

	var buf bytes.Buffer
	parser, err := kong.New(&grammar,
		kong.Name("levelwise"),
		kong.Writers(&buf, &buf),
		kong.Exit(func(int) {}),
		kong.ExplicitGroups([]kong.Group{
			{Key: "targets", Title: "Loudness targets"},
			{Key: "output", Title: "Output"},
		}),
		kong.Help(StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)
	if err != nil {
		t.Fatalf("kong.New failed: %v", err)
	}

	// Exit is stubbed, so --help renders and control returns here.
	parser.Parse([]string{"--help"})

	out := buf.String()
	for _, want := range []string{
		"Usage:",
		"Flags:",
		"-h, --help",
		"-v, --version",
		"Loudness targets:",
		"-t, --target-level",
		"--true-peak",
		"Output:",
		"-o, --output-dir",
		"Files to normalise",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("help output missing %q:\n%s", want, out)
		}
	}

	// Grouped flags must render under their section, after the generic one.
	if strings.Index(out, "Loudness targets:") < strings.Index(out, "Flags:") {
		t.Error("grouped sections should follow the generic flags section")
	}
	if strings.Index(out, "--true-peak") < strings.Index(out, "Loudness targets:") {
		t.Error("target flags should render inside their group section")
	}
}
