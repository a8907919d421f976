package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/edp1096/circuit-engine/internal/consts"
	"github.com/edp1096/circuit-engine/pkg/analysis"
	"github.com/edp1096/circuit-engine/pkg/chart"
	"github.com/edp1096/circuit-engine/pkg/circuit"
	"github.com/edp1096/circuit-engine/pkg/device"
	"github.com/edp1096/circuit-engine/pkg/engine"
	"github.com/edp1096/circuit-engine/pkg/matrix"
	"github.com/edp1096/circuit-engine/pkg/netlist"
	"github.com/edp1096/circuit-engine/pkg/util"
)

type flags struct {
	analysis string
	solver   string
	gmin     float64
	temp     float64
	verbose  bool
	plot     string

	acStart  float64
	acStop   float64
	acPoints int
	acSweep  string
	acIn     int
	acOut    int

	tranStep   float64
	tranStop   float64
	tranMethod string

	node   int
	window string
	size   int
}

func parseFlags() *flags {
	f := &flags{}
	flag.StringVar(&f.analysis, "analysis", "", "op, dc, ac, tran or fft (default from netlist directives, else op)")
	flag.StringVar(&f.solver, "solver", "dense", "linear solver: dense or sparse")
	flag.Float64Var(&f.gmin, "gmin", consts.Gmin, "node conductance to ground")
	flag.Float64Var(&f.temp, "temp", consts.DefaultTemp, "temperature in Celsius")
	flag.BoolVar(&f.verbose, "v", false, "print the stamped system and debug logs")
	flag.StringVar(&f.plot, "plot", "", "write a PNG chart of ac, tran or fft results to this file")

	flag.Float64Var(&f.acStart, "fstart", 0, "AC start frequency")
	flag.Float64Var(&f.acStop, "fstop", 0, "AC stop frequency")
	flag.IntVar(&f.acPoints, "points", 0, "AC points per decade or octave, total for linear")
	flag.StringVar(&f.acSweep, "sweep", "", "AC variation: decade, octave or linear")
	flag.IntVar(&f.acIn, "in", 1, "AC input node")
	flag.IntVar(&f.acOut, "out", 0, "AC output node (default highest node)")

	flag.Float64Var(&f.tranStep, "tstep", 0, "transient time step")
	flag.Float64Var(&f.tranStop, "tstop", 0, "transient duration")
	flag.StringVar(&f.tranMethod, "method", "", "integration method: trapezoidal or backward_euler")

	flag.IntVar(&f.node, "node", 0, "node transformed by fft (default highest node)")
	flag.StringVar(&f.window, "window", "hann", "fft window: hann, hamming, blackman or rectangular")
	flag.IntVar(&f.size, "size", 0, "fft size, a power of two")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <netlist.cir|.json|.yaml>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	return f
}

func main() {
	f := parseFlags()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelInfo
	if f.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	nl, err := netlist.Load(flag.Arg(0))
	if err != nil {
		log.Fatalf("Error loading netlist: %v", err)
	}

	temp := f.temp
	e, err := engine.New(engine.Options{Gmin: f.gmin, Temperature: &temp, Solver: f.solver, Logger: logger})
	if err != nil {
		log.Fatalf("Error creating engine: %v", err)
	}

	if f.verbose {
		if err := printSystem(os.Stdout, nl, f); err != nil {
			log.Fatalf("Error stamping circuit: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, e, nl, f); err != nil {
		log.Fatal(err)
	}
}

func analysisName(f *flags, nl *netlist.Netlist) string {
	if f.analysis != "" {
		return strings.ToLower(f.analysis)
	}
	if nl.Directives.Analysis == netlist.AnalysisNone {
		return "op"
	}
	return nl.Directives.Analysis.String()
}

func highestNode(nl *netlist.Netlist) int {
	return circuit.MapNodes(nl).NumNodes() - 1
}

func run(ctx context.Context, e *engine.Engine, nl *netlist.Netlist, f *flags) error {
	title := nl.Title
	if title == "" {
		title = flag.Arg(0)
	}
	fmt.Printf("Circuit: %s (%d components)\n", title, len(nl.Components))

	switch name := analysisName(f, nl); name {
	case "op":
		resp := e.Simulate(ctx, nl)
		if err := check(resp.Success, resp.Kind, resp.Error); err != nil {
			return err
		}
		printOperatingPoint(resp.Results)

	case "dc":
		resp := e.RunDCSweep(ctx, nl, sweepSources(nl))
		if err := check(resp.Success, resp.Kind, resp.Error); err != nil {
			return err
		}
		printSweep(resp.Results)

	case "ac":
		resp := e.RunAC(ctx, nl, acOptions(nl, f))
		if err := check(resp.Success, resp.Kind, resp.Error); err != nil {
			return err
		}
		printBode(resp.Results)
		return plot(f.plot, func(w io.Writer) error { return chart.WriteBode(w, resp.Results, title) })

	case "tran":
		resp := e.RunTransient(ctx, nl, tranOptions(nl, f))
		if err := check(resp.Success, resp.Kind, resp.Error); err != nil {
			return err
		}
		nodes := make([]int, 0, resp.NumNodes)
		for n := 1; n < resp.NumNodes; n++ {
			nodes = append(nodes, n)
		}
		printTransient(resp.Results, nodes)
		return plot(f.plot, func(w io.Writer) error { return chart.WriteTransient(w, resp.Results, nodes, title) })

	case "fft":
		node := f.node
		if node == 0 {
			node = highestNode(nl)
		}
		resp := e.RunSpectrum(ctx, nl, engine.SpectrumOptions{
			Transient: tranOptions(nl, f),
			Node:      node,
			Window:    f.window,
			Size:      f.size,
		})
		if err := check(resp.Success, resp.Kind, resp.Error); err != nil {
			return err
		}
		printSpectrum(resp.Results)
		return plot(f.plot, func(w io.Writer) error { return chart.WriteSpectrum(w, resp.Results.Bins, title) })

	default:
		return fmt.Errorf("unsupported analysis %q", name)
	}
	return nil
}

func check(success bool, kind, msg string) error {
	if success {
		return nil
	}
	return fmt.Errorf("%s error: %s", kind, msg)
}

func plot(path string, write func(io.Writer) error) error {
	if path == "" {
		return nil
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating plot: %w", err)
	}
	if err := write(file); err != nil {
		file.Close()
		return fmt.Errorf("writing plot: %w", err)
	}
	if err := file.Close(); err != nil {
		return err
	}
	fmt.Printf("\nChart written to %s\n", path)
	return nil
}

func sweepSources(nl *netlist.Netlist) []analysis.SweepSource {
	p := nl.Directives.DCParam
	sweeps := []analysis.SweepSource{{Source: p.Source1, Start: p.Start1, Stop: p.Stop1, Increment: p.Increment1}}
	if p.Source2 != "" {
		sweeps = append(sweeps, analysis.SweepSource{Source: p.Source2, Start: p.Start2, Stop: p.Stop2, Increment: p.Increment2})
	}
	return sweeps
}

var sweepNames = map[string]string{"DEC": analysis.Decade, "OCT": analysis.Octave, "LIN": analysis.Linear}

// acOptions overlays flags on the .ac directive.
func acOptions(nl *netlist.Netlist, f *flags) analysis.ACOptions {
	p := nl.Directives.ACParam
	opts := analysis.ACOptions{
		StartFreq:       p.FStart,
		EndFreq:         p.FStop,
		PointsPerDecade: p.Points,
		Variation:       sweepNames[p.Sweep],
		InputNode:       f.acIn,
		OutputNode:      f.acOut,
	}
	if f.acStart > 0 {
		opts.StartFreq = f.acStart
	}
	if f.acStop > 0 {
		opts.EndFreq = f.acStop
	}
	if f.acPoints > 0 {
		opts.PointsPerDecade = f.acPoints
	}
	if f.acSweep != "" {
		opts.Variation = f.acSweep
	}
	if opts.OutputNode == 0 {
		opts.OutputNode = highestNode(nl)
	}
	return opts
}

// tranOptions overlays flags on the .tran directive.
func tranOptions(nl *netlist.Netlist, f *flags) analysis.TransientOptions {
	p := nl.Directives.TranParam
	opts := analysis.TransientOptions{Duration: p.TStop, TimeStep: p.TStep, Method: f.tranMethod}
	if f.tranStep > 0 {
		opts.TimeStep = f.tranStep
	}
	if f.tranStop > 0 {
		opts.Duration = f.tranStop
	}
	return opts
}

// printSystem stamps the DC operating point system and prints it.
func printSystem(w io.Writer, nl *netlist.Netlist, f *flags) error {
	backend, err := matrix.ParseBackend(f.solver)
	if err != nil {
		return err
	}
	ckt, err := circuit.Build(nl, device.OperatingPointAnalysis, matrix.Config{Backend: backend, Policy: matrix.RegularizePivots})
	if err != nil {
		return err
	}
	status := &device.CircuitStatus{Mode: device.OperatingPointAnalysis, Gmin: f.gmin, Temp: f.temp + consts.KELVIN}
	if err := ckt.Stamp(status); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nNode map:")
	nodeMap := ckt.GetNodeMap().Components()
	ids := make([]string, 0, len(nodeMap))
	for id := range nodeMap {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(w, "  %-8s %v\n", id, nodeMap[id])
	}
	fmt.Fprintln(w)
	ckt.GetMatrix().PrintSystem(w)
	return nil
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func printOperatingPoint(r *analysis.DCResult) {
	fmt.Println("\nNode Voltages:")
	for _, n := range sortedKeys(r.NodeVoltages) {
		fmt.Printf("  V(%d) = %s\n", n, util.FormatValueFactor(r.NodeVoltages[n], "V"))
	}

	ids := make([]string, 0, len(r.ComponentData))
	for id := range r.ComponentData {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Println("\nComponents:")
	for _, id := range ids {
		c := r.ComponentData[id]
		fmt.Printf("  %-8s V=%-10s I=%-10s P=%s\n", id,
			util.FormatValueFactor(c.Voltage, "V"),
			util.FormatValueFactor(c.Current, "A"),
			util.FormatValueFactor(c.Power, "W"))
	}
}

func printSweep(points []analysis.DCSweepPoint) {
	fmt.Printf("\nDC Sweep Analysis Results (%d points):\n", len(points))
	for _, p := range points {
		for i, v := range p.SourceValues {
			fmt.Printf("S%d=%-9s ", i+1, util.FormatValueFactor(v, "V"))
		}
		for _, n := range sortedKeys(p.NodeVoltages) {
			if n == 0 {
				continue
			}
			fmt.Printf("V(%d)=%s  ", n, util.FormatValueFactor(p.NodeVoltages[n], "V"))
		}
		fmt.Println()
	}
}

func printBode(points []analysis.BodePoint) {
	fmt.Printf("\nAC Analysis Results (%d frequency points):\n", len(points))
	fmt.Println("Frequency      Gain           dB          Phase")
	fmt.Println("--------------------------------------------------")
	for _, p := range points {
		fmt.Printf("%-13s  %-13s  %-10.3f  %sdeg\n",
			util.FormatFrequency(p.Frequency),
			util.FormatMagnitude(p.Magnitude),
			p.MagnitudeDb,
			util.FormatPhase(p.PhaseDegrees))
	}
}

func printTransient(points []analysis.TransientPoint, nodes []int) {
	fmt.Printf("\nTransient Analysis Results (%d time points):\n", len(points))
	for _, p := range points {
		fmt.Printf("%9s  ", util.FormatValueFactor(p.Time, "s"))
		for _, n := range nodes {
			fmt.Printf("V(%d)=%s  ", n, util.FormatValueFactor(p.NodeVoltages[n], "V"))
		}
		fmt.Println()
	}
}

func printSpectrum(r *engine.SpectrumResult) {
	fmt.Printf("\nSpectrum of V(%d), %d bins at %s sample rate:\n", r.Node, len(r.Bins), util.FormatFrequency(r.SampleRate))
	for _, b := range r.Bins {
		fmt.Printf("%-13s  %-13s  %.3f dB\n", util.FormatFrequency(b.Frequency), util.FormatMagnitude(b.Magnitude), b.MagnitudeDb)
	}
}
