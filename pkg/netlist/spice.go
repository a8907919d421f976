package netlist

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type AnalysisType int

const (
	AnalysisNone AnalysisType = iota
	AnalysisOP
	AnalysisTRAN
	AnalysisAC
	AnalysisDC
)

func (a AnalysisType) String() string {
	switch a {
	case AnalysisOP:
		return "op"
	case AnalysisTRAN:
		return "tran"
	case AnalysisAC:
		return "ac"
	case AnalysisDC:
		return "dc"
	default:
		return "none"
	}
}

type Directives struct {
	Analysis  AnalysisType // Analysis type
	TranParam struct {
		TStep float64 // timestep
		TStop float64 // stop time
	}
	ACParam struct {
		Sweep  string  // DEC, OCT, LIN
		Points int     // points per decade, per octave, or total
		FStart float64 // start frequency
		FStop  float64 // stop frequency
	}
	DCParam struct {
		Source1    string
		Start1     float64
		Stop1      float64
		Increment1 float64
		Source2    string
		Start2     float64
		Stop2      float64
		Increment2 float64
	}
}

// GroundComponentID names the ground component created for nodes "0" and "gnd".
const GroundComponentID = "GND"

// Scale factors are case-insensitive, so "M" is milli and "meg" is mega.
var unitMap = map[string]float64{
	"t":   1e12,    // tera
	"g":   1e9,     // giga
	"meg": 1e6,     // mega
	"k":   1e3,     // kilo
	"m":   1e-3,    // milli
	"mil": 25.4e-6, // thousandth of an inch
	"u":   1e-6,    // micro
	"n":   1e-9,    // nano
	"p":   1e-12,   // pico
	"f":   1e-15,   // femto
}

// Unit names that may trail a value and carry no scale.
var unitNames = map[string]bool{
	"": true, "v": true, "a": true, "s": true, "sec": true, "hz": true,
	"ohm": true, "ohms": true, "f": true, "h": true, "w": true, "deg": true,
}

var (
	valuePattern = regexp.MustCompile(`^([-+]?\d*\.?\d+(?:[eE][-+]?\d+)?)((?i:meg|mil|[tgkmunpf]))?([a-zA-Z]*)$`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// spiceBuilder turns named nodes into terminal connections. The first
// terminal seen on a node becomes the anchor every later terminal connects to.
type spiceBuilder struct {
	nl      *Netlist
	anchors map[string]Endpoint
}

// ParseSpice imports a SPICE style text netlist. The first line is the title.
func ParseSpice(input string) (*Netlist, error) {
	scanner := bufio.NewScanner(strings.NewReader(input))
	b := &spiceBuilder{
		nl:      &Netlist{},
		anchors: make(map[string]Endpoint),
	}

	// Title or comment
	if scanner.Scan() {
		b.nl.Title = strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "*"))
	}

	var currentLine string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if idx := strings.Index(line, ";"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		if len(line) == 0 || strings.HasPrefix(line, "*") {
			continue
		}

		if strings.HasPrefix(line, "+") { // Line continue
			currentLine += " " + strings.TrimSpace(line[1:])
			continue
		}

		if currentLine != "" {
			if err := b.parseLine(currentLine); err != nil {
				return nil, err
			}
		}
		currentLine = line
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading netlist: %w", err)
	}

	if currentLine != "" {
		if err := b.parseLine(currentLine); err != nil {
			return nil, err
		}
	}

	return b.nl, nil
}

func (b *spiceBuilder) parseLine(line string) error {
	line = spacePattern.ReplaceAllString(line, " ")

	if strings.HasPrefix(line, ".") {
		return b.parseDotOperator(line)
	}
	return b.parseElement(line)
}

// Parse .op, .tran, .ac, .dc
func (b *spiceBuilder) parseDotOperator(line string) error {
	var err error

	fields := strings.Fields(line)
	d := &b.nl.Directives

	switch strings.ToLower(fields[0]) {
	case ".end":
		return nil

	case ".op":
		d.Analysis = AnalysisOP

	case ".tran":
		d.Analysis = AnalysisTRAN
		if len(fields) < 3 {
			return fmt.Errorf("insufficient tran parameters, need tstep and tstop")
		}
		d.TranParam.TStep, err = ParseValue(fields[1])
		if err != nil {
			return fmt.Errorf("invalid tstep: %w", err)
		}
		d.TranParam.TStop, err = ParseValue(fields[2])
		if err != nil {
			return fmt.Errorf("invalid tstop: %w", err)
		}

	case ".ac":
		d.Analysis = AnalysisAC
		if len(fields) < 5 {
			return fmt.Errorf("insufficient AC parameters, need sweep type, points, fstart, and fstop")
		}

		d.ACParam.Sweep = strings.ToUpper(fields[1])
		if d.ACParam.Sweep != "DEC" && d.ACParam.Sweep != "OCT" && d.ACParam.Sweep != "LIN" {
			return fmt.Errorf("invalid sweep type: %s", d.ACParam.Sweep)
		}
		d.ACParam.Points, err = strconv.Atoi(fields[2])
		if err != nil {
			return fmt.Errorf("invalid points number: %w", err)
		}
		d.ACParam.FStart, err = ParseValue(fields[3])
		if err != nil {
			return fmt.Errorf("invalid fstart: %w", err)
		}
		d.ACParam.FStop, err = ParseValue(fields[4])
		if err != nil {
			return fmt.Errorf("invalid fstop: %w", err)
		}

	case ".dc":
		d.Analysis = AnalysisDC
		if len(fields) < 5 {
			return fmt.Errorf("insufficient DC sweep parameters")
		}
		d.DCParam.Source1 = fields[1]
		vals, err := parseValues(fields[2:5])
		if err != nil {
			return fmt.Errorf("invalid dc sweep: %w", err)
		}
		d.DCParam.Start1, d.DCParam.Stop1, d.DCParam.Increment1 = vals[0], vals[1], vals[2]

		if len(fields) >= 9 {
			d.DCParam.Source2 = fields[5]
			vals, err = parseValues(fields[6:9])
			if err != nil {
				return fmt.Errorf("invalid nested dc sweep: %w", err)
			}
			d.DCParam.Start2, d.DCParam.Stop2, d.DCParam.Increment2 = vals[0], vals[1], vals[2]
		}

	default:
		return fmt.Errorf("unsupported analysis type: %s", fields[0])
	}

	return nil
}

func (b *spiceBuilder) parseElement(line string) error {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return fmt.Errorf("invalid element format: %s", line)
	}

	comp := Component{ID: fields[0]}
	if _, exists := b.nl.Component(comp.ID); exists {
		return fmt.Errorf("duplicate element name: %s", comp.ID)
	}

	switch strings.ToUpper(fields[0][:1]) {
	case "R":
		comp.Type = Resistor
	case "C":
		comp.Type = Capacitor
	case "L":
		comp.Type = Inductor
	case "D":
		comp.Type = LED
	case "V":
		comp.Type = VoltageSource
	case "I":
		comp.Type = CurrentSource
	default:
		return fmt.Errorf("unsupported element type: %s", fields[0])
	}

	var err error
	switch comp.Type {
	case VoltageSource, CurrentSource:
		spec := strings.NewReplacer("(", " ", ")", " ").Replace(strings.Join(fields[3:], " "))
		err = parseSource(&comp, strings.Fields(spec))
	case LED:
		// Value is optional, the LED is a fixed resistor approximation
		if len(fields) > 3 {
			comp.Value, err = ParseValue(fields[3])
		}
	default:
		if len(fields) < 4 {
			return fmt.Errorf("missing value: %s", line)
		}
		comp.Value, err = ParseValue(fields[3])
		if err == nil {
			err = parseParams(&comp, fields[4:])
		}
	}
	if err != nil {
		return fmt.Errorf("element %s: %w", comp.ID, err)
	}

	b.nl.Components = append(b.nl.Components, comp)
	b.attach(comp.ID, 0, fields[1])
	b.attach(comp.ID, 1, fields[2])
	return nil
}

func (b *spiceBuilder) attach(componentID string, terminal int, node string) {
	ep := Endpoint{ComponentID: componentID, Terminal: terminal}

	if node == "0" || strings.EqualFold(node, "gnd") {
		if _, exists := b.nl.Component(GroundComponentID); !exists {
			b.nl.Components = append(b.nl.Components, Component{ID: GroundComponentID, Type: Ground})
		}
		b.nl.Connections = append(b.nl.Connections, Connection{
			From: Endpoint{ComponentID: GroundComponentID},
			To:   ep,
		})
		return
	}

	anchor, exists := b.anchors[node]
	if !exists {
		b.anchors[node] = ep
		return
	}
	b.nl.Connections = append(b.nl.Connections, Connection{From: anchor, To: ep})
}

// parseSource reads "12", "DC 12", "DC 12 AC 1 90" and "AC 1".
func parseSource(comp *Component, words []string) error {
	for i := 0; i < len(words); i++ {
		switch strings.ToUpper(words[i]) {
		case "DC":
			if i+1 >= len(words) {
				return fmt.Errorf("missing DC value")
			}
			value, err := ParseValue(words[i+1])
			if err != nil {
				return err
			}
			comp.Value = value
			i++

		case "AC":
			if i+1 >= len(words) {
				return fmt.Errorf("missing AC magnitude")
			}
			magnitude, err := ParseValue(words[i+1])
			if err != nil {
				return fmt.Errorf("invalid AC magnitude: %w", err)
			}
			comp.ACMagnitude = &magnitude
			i++

			if i+1 < len(words) {
				if phase, err := ParseValue(words[i+1]); err == nil {
					comp.ACPhase = phase
					i++
				}
			}

		case "SIN", "PULSE", "PWL", "EXP", "SFFM":
			return fmt.Errorf("time-varying source %s is not supported", strings.ToUpper(words[i]))

		default:
			value, err := ParseValue(words[i])
			if err != nil {
				return fmt.Errorf("unsupported source specification: %s", words[i])
			}
			comp.Value = value
		}
	}

	return nil
}

func parseParams(comp *Component, fields []string) error {
	for _, field := range fields {
		pair := strings.SplitN(field, "=", 2)
		if len(pair) != 2 {
			return fmt.Errorf("invalid parameter: %s", field)
		}

		value, err := ParseValue(pair[1])
		if err != nil {
			return fmt.Errorf("invalid parameter value %s: %w", field, err)
		}

		switch strings.ToLower(pair[0]) {
		case "tc1":
			comp.TC1 = value
		case "tc2":
			comp.TC2 = value
		default:
			return fmt.Errorf("unknown parameter: %s", pair[0])
		}
	}
	return nil
}

func parseValues(fields []string) ([]float64, error) {
	values := make([]float64, len(fields))
	for i, f := range fields {
		v, err := ParseValue(f)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// ParseValue converts engineering notation such as "4.7k", "10uF" or "1meg".
func ParseValue(val string) (float64, error) {
	matches := valuePattern.FindStringSubmatch(strings.TrimSpace(val))
	if matches == nil {
		return 0, fmt.Errorf("invalid value format: %s", val)
	}

	num, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, err
	}

	scale, unit := strings.ToLower(matches[2]), strings.ToLower(matches[3])
	if !unitNames[unit] {
		return 0, fmt.Errorf("unknown scale factor or unit %q in value %s", matches[2]+matches[3], val)
	}

	if scale != "" {
		num *= unitMap[scale]
	}
	return num, nil
}
