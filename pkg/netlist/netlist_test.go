package netlist

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seriesCircuit() *Netlist {
	return &Netlist{
		Components: []Component{
			{ID: "V1", Type: VoltageSource, Value: 12},
			{ID: "R1", Type: Resistor, Value: 1000},
			{ID: "G", Type: Ground},
		},
		Connections: []Connection{
			{From: Endpoint{"V1", 0}, To: Endpoint{"R1", 0}},
			{From: Endpoint{"R1", 1}, To: Endpoint{"G", 0}},
			{From: Endpoint{"V1", 1}, To: Endpoint{"G", 0}},
		},
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid series circuit", func(t *testing.T) {
		assert.NoError(t, seriesCircuit().Validate())
	})

	tests := []struct {
		name   string
		mutate func(nl *Netlist)
		reason string
	}{
		{
			name:   "no components",
			mutate: func(nl *Netlist) { nl.Components = nil; nl.Connections = nil },
			reason: "no components in circuit",
		},
		{
			name:   "no ground",
			mutate: func(nl *Netlist) { nl.Components = nl.Components[:2]; nl.Connections = nl.Connections[:1] },
			reason: "circuit must contain at least one ground component",
		},
		{
			name:   "unknown type",
			mutate: func(nl *Netlist) { nl.Components[1].Type = "diode" },
			reason: `unsupported component type "diode"`,
		},
		{
			name:   "duplicate id",
			mutate: func(nl *Netlist) { nl.Components[1].ID = "V1" },
			reason: `duplicate component id "V1"`,
		},
		{
			name:   "negative resistance",
			mutate: func(nl *Netlist) { nl.Components[1].Value = -5 },
			reason: "resistance must be positive, got -5",
		},
		{
			name:   "unknown endpoint",
			mutate: func(nl *Netlist) { nl.Connections[0].To.ComponentID = "R9" },
			reason: `unknown component "R9"`,
		},
		{
			name:   "ground has a single terminal",
			mutate: func(nl *Netlist) { nl.Connections[1].To.Terminal = 1 },
			reason: `terminal 1 out of range for ground "G"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nl := seriesCircuit()
			tt.mutate(nl)

			err := nl.Validate()
			require.Error(t, err)
			assert.True(t, IsValidation(err))

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.reason, ve.Reason)
		})
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"12", 12},
		{"4.7k", 4700},
		{"1meg", 1e6},
		{"10uF", 10e-6},
		{"100n", 100e-9},
		{"1e-3", 1e-3},
		{"5ms", 5e-3},
		{"-2.5", -2.5},
		{"1Meg", 1e6},
		{"1MEG", 1e6},
		{"2.2Meg", 2.2e6},
		{"1megohm", 1e6},
		{"1M", 1e-3},
		{"3.3mA", 3.3e-3},
		{"1F", 1e-15},
		{"10nH", 10e-9},
		{"1kHz", 1e3},
		{"12V", 12},
		{"2mil", 50.8e-6},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseValue(tt.in)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, math.Abs(tt.want)*1e-12+1e-18)
		})
	}

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := ParseValue("abc")
		assert.Error(t, err)
	})

	t.Run("rejects unknown scale letter", func(t *testing.T) {
		for _, in := range []string{"1x", "4.7Q", "1kx"} {
			_, err := ParseValue(in)
			assert.Error(t, err, in)
		}
	})
}

func TestParseSpice(t *testing.T) {
	input := `* RC low pass
V1 in 0 DC 12 AC 1
R1 in out 1k
C1 out gnd 1u
.ac DEC 10 1 1meg
.end
`
	nl, err := ParseSpice(input)
	require.NoError(t, err)
	require.NoError(t, nl.Validate())

	assert.Equal(t, "RC low pass", nl.Title)
	require.Len(t, nl.Components, 4)

	v1, ok := nl.Component("V1")
	require.True(t, ok)
	assert.Equal(t, VoltageSource, v1.Type)
	assert.Equal(t, 12.0, v1.Value)
	require.NotNil(t, v1.ACMagnitude)
	assert.Equal(t, 1.0, *v1.ACMagnitude)

	c1, _ := nl.Component("C1")
	assert.InDelta(t, 1e-6, c1.Value, 1e-18)

	gnd, ok := nl.Component(GroundComponentID)
	require.True(t, ok)
	assert.Equal(t, Ground, gnd.Type)

	assert.Contains(t, nl.Connections, Connection{From: Endpoint{"V1", 0}, To: Endpoint{"R1", 0}})
	assert.Contains(t, nl.Connections, Connection{From: Endpoint{"R1", 1}, To: Endpoint{"C1", 0}})
	assert.Contains(t, nl.Connections, Connection{From: Endpoint{GroundComponentID, 0}, To: Endpoint{"C1", 1}})

	assert.Equal(t, AnalysisAC, nl.Directives.Analysis)
	assert.Equal(t, "DEC", nl.Directives.ACParam.Sweep)
	assert.Equal(t, 10, nl.Directives.ACParam.Points)
	assert.Equal(t, 1e6, nl.Directives.ACParam.FStop)
}

func TestParseSpiceErrors(t *testing.T) {
	tests := map[string]string{
		"time varying source": "* t\nV1 1 0 SIN(0 1 1k)\n",
		"unknown element":     "* t\nQ1 1 2 3 npn\n",
		"missing value":       "* t\nR1 1 0\n",
		"duplicate name":      "* t\nR1 1 0 1k\nR1 1 0 2k\n",
		"bad sweep":           "* t\n.ac FOO 10 1 10\n",
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSpice(input)
			assert.Error(t, err)
		})
	}
}

func TestParseSpiceContinuationAndParams(t *testing.T) {
	input := "* t\nR1 a 0\n+ 2k tc1=0.001\nV1 a 0 5\n.tran 1u 1m\n"

	nl, err := ParseSpice(input)
	require.NoError(t, err)

	r1, ok := nl.Component("R1")
	require.True(t, ok)
	assert.Equal(t, 2000.0, r1.Value)
	assert.Equal(t, 0.001, r1.TC1)
	assert.Equal(t, AnalysisTRAN, nl.Directives.Analysis)
	assert.InDelta(t, 1e-6, nl.Directives.TranParam.TStep, 1e-18)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	jsonDoc := `{
		"components": [
			{"id": "V1", "type": "voltage_source", "value": 5},
			{"id": "G", "type": "ground"}
		],
		"connections": [
			{"from": {"componentId": "V1", "terminal": 1}, "to": {"componentId": "G", "terminal": 0}}
		]
	}`
	yamlDoc := `
components:
  - id: V1
    type: voltage_source
    value: 5
  - id: G
    type: ground
connections:
  - from: {componentId: V1, terminal: 1}
    to: {componentId: G, terminal: 0}
`

	for name, doc := range map[string]string{"circuit.json": jsonDoc, "circuit.yaml": yamlDoc} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

			nl, err := Load(path)
			require.NoError(t, err)
			require.NoError(t, nl.Validate())

			assert.Equal(t, "circuit", nl.Title)
			assert.Len(t, nl.Components, 2)
			assert.Equal(t, Connection{From: Endpoint{"V1", 1}, To: Endpoint{"G", 0}}, nl.Connections[0])
		})
	}

	t.Run("editor layout fields are ignored", func(t *testing.T) {
		doc := `{
			"components": [
				{"id": "V1", "type": "voltage_source", "label": "Fuente", "value": 5, "unit": "V", "x": 10, "y": 20, "rotation": 90, "connections": []},
				{"id": "G", "type": "ground", "label": "Tierra", "x": 0, "y": 0}
			],
			"connections": [
				{"id": "conn-1", "from": {"componentId": "V1", "terminal": 1}, "to": {"componentId": "G", "terminal": 0}}
			]
		}`
		nl, err := Parse([]byte(doc), FormatJSON)
		require.NoError(t, err)
		require.NoError(t, nl.Validate())
		assert.Equal(t, Component{ID: "V1", Type: VoltageSource, Value: 5}, nl.Components[0])
		assert.Equal(t, Connection{From: Endpoint{"V1", 1}, To: Endpoint{"G", 0}}, nl.Connections[0])
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := Parse([]byte(`{"components": [`), FormatJSON)
		assert.Error(t, err)
	})
}
