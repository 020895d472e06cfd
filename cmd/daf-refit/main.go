// Command daf-refit runs the annealing refit over the candidates of a JSON
// scenario and prints one JSON line per candidate.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/muonreco/muonreco/internal/config"
	"github.com/muonreco/muonreco/internal/monitoring"
	"github.com/muonreco/muonreco/internal/track/daf"
	"github.com/muonreco/muonreco/internal/track/diag"
	"github.com/muonreco/muonreco/internal/track/kalman"
	"github.com/muonreco/muonreco/internal/version"
)

type candidateOutput struct {
	Candidate int        `json:"candidate"`
	Outcome   string     `json:"outcome"`
	GoodHits  int        `json:"good_hits"`
	Ndof      float64    `json:"ndof"`
	Track     *trackJSON `json:"track,omitempty"`
	Plots     []string   `json:"plots,omitempty"`
}

type trackJSON struct {
	*daf.Track
	Direction string    `json:"direction"`
	InnerZ    float64   `json:"inner_z"`
	Inner     []float64 `json:"inner"`
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("daf-refit: %v", err)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("daf-refit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Tuning config (.json/.yaml); built-in defaults when empty")
	scenarioPath := fs.String("scenario", "-", "Scenario JSON file, - for stdin")
	plotDir := fs.String("plot", "", "Write weight and chi2 plots per candidate to this directory")
	verbose := fs.Bool("v", false, "Log diagnostics to stderr")
	trace := fs.Bool("trace", false, "Log diagnostics and per-annealing-step traces to stderr")
	showVersion := fs.Bool("version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *showVersion {
		fmt.Fprintln(stdout, version.String("daf-refit"))
		return nil
	}
	switch {
	case *trace:
		monitoring.SetLogWriters(monitoring.LogWriters{Ops: stderr, Diag: stderr, Trace: stderr})
	case *verbose:
		monitoring.SetLogWriters(monitoring.LogWriters{Ops: stderr, Diag: stderr})
	}

	cfg := config.DefaultTuningConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadTuningConfig(*configPath); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}

	scenario, err := readScenario(*scenarioPath, stdin)
	if err != nil {
		return err
	}

	kcfg := kalman.ConfigFromTuning(cfg)
	engine := daf.NewEngine(
		kalman.NewFitter(scenario.Geometry),
		kalman.NewCollector(scenario.Pool, kcfg.Gate),
		kalman.NewUpdater(kcfg.Chi2Cut),
		daf.ConfigFromTuning(cfg),
	)

	var plotter *diag.Plotter
	if *plotDir != "" {
		if plotter, err = diag.NewPlotter(*plotDir); err != nil {
			return err
		}
		engine.SetRecorder(daf.NewStepRecorder())
	}

	enc := json.NewEncoder(stdout)
	for i, res := range engine.RunAll(scenario.Candidates) {
		out := candidateOutput{
			Candidate: i,
			Outcome:   res.Outcome.String(),
			GoodHits:  res.GoodHits,
			Ndof:      res.Ndof,
		}
		if res.Track != nil {
			out.Track = &trackJSON{
				Track:     res.Track,
				Direction: res.Track.Direction.String(),
				InnerZ:    res.Track.Inner.Z,
				Inner:     res.Track.InnerParams(),
			}
		}
		if plotter != nil {
			files, err := plotter.Plot(fmt.Sprintf("candidate_%03d", i), res.Steps)
			if err != nil && !errors.Is(err, diag.ErrNoSteps) {
				return fmt.Errorf("candidate %d: %w", i, err)
			}
			out.Plots = files
		}
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("write candidate %d: %w", i, err)
		}
	}
	return nil
}

func readScenario(path string, stdin io.Reader) (*kalman.Scenario, error) {
	if path == "-" {
		return kalman.ReadScenario(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}
	defer f.Close()
	return kalman.ReadScenario(f)
}
