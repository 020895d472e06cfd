// Command omtf-inputs builds the per-processor trigger inputs for a file of
// muon detector events and prints them as JSON.
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
	"github.com/muonreco/muonreco/internal/muon/detid"
	"github.com/muonreco/muonreco/internal/muon/digi"
	"github.com/muonreco/muonreco/internal/muon/omtf"
	"github.com/muonreco/muonreco/internal/version"
)

type processorOutput struct {
	Processor    int        `json:"processor"`
	Hits         []omtf.Hit `json:"hits"`
	PdfAddresses [][]int    `json:"pdf_addresses,omitempty"`
}

type eventOutput struct {
	Event      int               `json:"event"`
	Processors []processorOutput `json:"processors"`
}

type options struct {
	configPath  string
	eventsPath  string
	geomPath    string
	orientation string
	processor   int
	refLayer    int
	buildPhase  bool
	trace       bool
	showVersion bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("omtf-inputs", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "", "Tuning config (.json/.yaml); built-in defaults when empty")
	fs.StringVar(&o.eventsPath, "events", "-", "Events JSON file, - for stdin")
	fs.StringVar(&o.geomPath, "geometry", "", "Chamber geometry JSON file (required)")
	fs.StringVar(&o.orientation, "orientation", omtf.OMTFPos.String(), "Track finder orientation")
	fs.IntVar(&o.processor, "processor", -1, "Processor index, -1 for all")
	fs.IntVar(&o.refLayer, "pdf-ref-layer", -1, "Logic layer of the reference hit for PDF addresses, -1 to skip")
	fs.BoolVar(&o.buildPhase, "pattern-build", false, "Use the pattern-building PDF width instead of the matching one")
	fs.BoolVar(&o.trace, "trace", false, "Log diagnostics and per-cluster traces to stderr")
	fs.BoolVar(&o.showVersion, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if !o.showVersion && o.geomPath == "" {
		return o, errors.New("-geometry is required")
	}
	return o, nil
}

func loadConfig(path string) (*config.TuningConfig, error) {
	if path == "" {
		return config.DefaultTuningConfig(), nil
	}
	return config.LoadTuningConfig(path)
}

func readGeometry(path string) (map[detid.ID]omtf.ChamberGeometry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return omtf.ReadGeometry(f)
}

func readEvents(path string, stdin io.Reader) ([]digi.Event, error) {
	if path == "-" {
		return digi.ReadEvents(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return digi.ReadEvents(f)
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if o.showVersion {
		fmt.Fprintln(stdout, version.String("omtf-inputs"))
		return nil
	}
	if o.trace {
		monitoring.SetLogWriters(monitoring.LogWriters{Ops: stderr, Diag: stderr, Trace: stderr})
	}

	cfg, err := loadConfig(o.configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	tables, err := omtf.TablesFromConfig(cfg)
	if err != nil {
		return err
	}
	orientation, err := omtf.ParseOrientation(o.orientation)
	if err != nil {
		return err
	}
	if o.processor >= tables.NProcessors() {
		return fmt.Errorf("processor %d out of range [0, %d)", o.processor, tables.NProcessors())
	}
	geom, err := readGeometry(o.geomPath)
	if err != nil {
		return fmt.Errorf("geometry: %w", err)
	}
	events, err := readEvents(o.eventsPath, stdin)
	if err != nil {
		return fmt.Errorf("events: %w", err)
	}

	phase := config.PhaseMatching
	if o.buildPhase {
		phase = config.PhasePatternBuild
	}
	addressing := tables.Addressing(phase)

	maker := omtf.NewInputMaker(tables, omtf.NewTableConverter(tables, geom))
	enc := json.NewEncoder(stdout)
	for i, ev := range events {
		out := eventOutput{Event: i}
		for p := 0; p < tables.NProcessors(); p++ {
			if o.processor >= 0 && p != o.processor {
				continue
			}
			in := maker.Build(ev, p, orientation)
			po := processorOutput{Processor: p, Hits: in.Hits()}
			if ref, ok := referencePhi(in, o.refLayer); ok {
				po.PdfAddresses = in.Addresses(addressing, ref, nil)
			}
			out.Processors = append(out.Processors, po)
		}
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("write event %d: %w", i, err)
		}
	}
	monitoring.Diagf("omtf-inputs: %d events, orientation %s", len(events), orientation)
	return nil
}

// referencePhi returns the phi of the first occupied slot of layer.
func referencePhi(in *omtf.Input, layer int) (int, bool) {
	if layer < 0 || layer >= in.NLayers() {
		return 0, false
	}
	for i := 0; i < in.NInputs(); i++ {
		if phi, ok := in.Phi(layer, i); ok {
			return phi, true
		}
	}
	return 0, false
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("omtf-inputs: %v", err)
	}
}
