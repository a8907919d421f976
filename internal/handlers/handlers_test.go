package handlers

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dividerCircuit = `{
	"components": [
		{"id": "V1", "type": "voltage_source", "value": 12},
		{"id": "R1", "type": "resistor", "value": 1000},
		{"id": "R2", "type": "resistor", "value": 1000},
		{"id": "G", "type": "ground"}
	],
	"connections": [
		{"from": {"componentId": "V1", "terminal": 0}, "to": {"componentId": "R1", "terminal": 0}},
		{"from": {"componentId": "R1", "terminal": 1}, "to": {"componentId": "R2", "terminal": 0}},
		{"from": {"componentId": "R2", "terminal": 1}, "to": {"componentId": "G", "terminal": 0}},
		{"from": {"componentId": "V1", "terminal": 1}, "to": {"componentId": "G", "terminal": 0}}
	]`

const lowPassCircuit = `{
	"components": [
		{"id": "V1", "type": "voltage_source", "value": 1},
		{"id": "R1", "type": "resistor", "value": 1000},
		{"id": "C1", "type": "capacitor", "value": 1e-6},
		{"id": "G", "type": "ground"}
	],
	"connections": [
		{"from": {"componentId": "V1", "terminal": 0}, "to": {"componentId": "R1", "terminal": 0}},
		{"from": {"componentId": "R1", "terminal": 1}, "to": {"componentId": "C1", "terminal": 0}},
		{"from": {"componentId": "C1", "terminal": 1}, "to": {"componentId": "G", "terminal": 0}},
		{"from": {"componentId": "V1", "terminal": 1}, "to": {"componentId": "G", "terminal": 0}}
	]`

func body(circuit, extra string) string {
	if extra == "" {
		return circuit + "}"
	}
	return circuit + ", " + extra + "}"
}

func post(t *testing.T, handler http.HandlerFunc, target, payload string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestHealthHandler(t *testing.T) {
	t.Run("GET request returns healthy status", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rr := httptest.NewRecorder()

		HealthHandler(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

		var response HealthResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "circuit-engine", response.Service)
		assert.NotEmpty(t, response.Timestamp)
		assert.Contains(t, response.Details, "go_version")
	})

	t.Run("POST request returns method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/health", nil)
		rr := httptest.NewRecorder()

		HealthHandler(rr, req)

		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	})
}

func TestDCHandler(t *testing.T) {
	t.Run("divider operating point", func(t *testing.T) {
		rr := post(t, DCHandler, "/simulate/dc", body(dividerCircuit, ""))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		out := decodeBody(t, rr)
		assert.Equal(t, true, out["success"])

		results := out["results"].(map[string]any)
		voltages := results["nodeVoltages"].(map[string]any)
		assert.InDelta(t, 12.0, voltages["1"].(float64), 1e-6)
		assert.InDelta(t, 6.0, voltages["2"].(float64), 1e-6)
		assert.Equal(t, 0.0, voltages["0"].(float64))
	})

	t.Run("sparse solver option", func(t *testing.T) {
		rr := post(t, DCHandler, "/simulate/dc", body(dividerCircuit, `"options": {"solver": "sparse"}`))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	})

	t.Run("invalid circuit is a bad request", func(t *testing.T) {
		rr := post(t, DCHandler, "/simulate/dc", `{"components": [], "connections": []}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)

		out := decodeBody(t, rr)
		assert.Equal(t, false, out["success"])
		assert.Equal(t, "validation", out["kind"])
	})

	t.Run("malformed json", func(t *testing.T) {
		rr := post(t, DCHandler, "/simulate/dc", `{"components": [`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("editor payload with layout fields", func(t *testing.T) {
		payload := `{
			"components": [
				{"id": "voltage_source-1", "type": "voltage_source", "label": "Fuente de Voltaje", "value": 12, "unit": "V", "x": 120.5, "y": 80, "rotation": 0, "connections": []},
				{"id": "resistor-2", "type": "resistor", "label": "Resistencia", "value": 1000, "unit": "Ω", "x": 240, "y": 80, "rotation": 90, "connections": []},
				{"id": "ground-3", "type": "ground", "label": "Tierra", "value": 0, "unit": "V", "x": 180, "y": 200, "rotation": 0, "connections": []}
			],
			"connections": [
				{"id": "conn-1", "from": {"componentId": "voltage_source-1", "terminal": 0}, "to": {"componentId": "resistor-2", "terminal": 0}},
				{"id": "conn-2", "from": {"componentId": "resistor-2", "terminal": 1}, "to": {"componentId": "ground-3", "terminal": 0}},
				{"id": "conn-3", "from": {"componentId": "voltage_source-1", "terminal": 1}, "to": {"componentId": "ground-3", "terminal": 0}}
			]
		}`
		rr := post(t, DCHandler, "/simulate/dc", payload)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		results := decodeBody(t, rr)["results"].(map[string]any)
		resistor := results["componentData"].(map[string]any)["resistor-2"].(map[string]any)
		assert.InDelta(t, 0.012, resistor["current"].(float64), 1e-9)
		assert.Equal(t, "resistor", resistor["type"])
	})

	t.Run("unknown solver", func(t *testing.T) {
		rr := post(t, DCHandler, "/simulate/dc", body(dividerCircuit, `"options": {"solver": "klu"}`))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("GET not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/simulate/dc", nil)
		rr := httptest.NewRecorder()
		DCHandler(rr, req)
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	})

	t.Run("pretty output", func(t *testing.T) {
		rr := post(t, DCHandler, "/simulate/dc?pretty=true", body(dividerCircuit, ""))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "\n  \"success\": true")
	})
}

func TestDCSweepHandler(t *testing.T) {
	payload := body(dividerCircuit, `"sweeps": [{"source": "V1", "start": 0, "stop": 10, "increment": 5}]`)
	rr := post(t, DCSweepHandler, "/simulate/dcsweep", payload)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	out := decodeBody(t, rr)
	results := out["results"].([]any)
	require.Len(t, results, 3)

	last := results[2].(map[string]any)["nodeVoltages"].(map[string]any)
	assert.InDelta(t, 5.0, last["2"].(float64), 1e-6)
}

func TestACHandler(t *testing.T) {
	t.Run("low pass", func(t *testing.T) {
		payload := body(lowPassCircuit, `"ac": {"startFreq": 10, "endFreq": 10000, "pointsPerDecade": 5, "inputNode": 1, "outputNode": 2}`)
		rr := post(t, ACHandler, "/simulate/ac", payload)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		results := decodeBody(t, rr)["results"].([]any)
		require.Len(t, results, 16)

		first := results[0].(map[string]any)
		assert.InDelta(t, 1.0, first["magnitude"].(float64), 0.01)
	})

	t.Run("missing input node", func(t *testing.T) {
		payload := body(lowPassCircuit, `"ac": {"outputNode": 2}`)
		rr := post(t, ACHandler, "/simulate/ac", payload)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "validation", decodeBody(t, rr)["kind"])
	})
}

func TestTransientHandler(t *testing.T) {
	payload := body(lowPassCircuit, `"transient": {"duration": 1e-3, "timeStep": 1e-5, "method": "be"}`)
	rr := post(t, TransientHandler, "/simulate/transient", payload)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	results := decodeBody(t, rr)["results"].([]any)
	assert.Len(t, results, 101)
}

func TestSpectrumHandler(t *testing.T) {
	payload := body(lowPassCircuit, `"transient": {"duration": 1e-3, "timeStep": 1e-5}, "spectrum": {"node": 2, "size": 64}`)
	rr := post(t, SpectrumHandler, "/simulate/spectrum", payload)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	results := decodeBody(t, rr)["results"].(map[string]any)
	assert.Len(t, results["bins"].([]any), 33)
	assert.InDelta(t, 1e5, results["sampleRate"].(float64), 1e-6)
}

func TestFFTHandler(t *testing.T) {
	t.Run("constant signal", func(t *testing.T) {
		rr := post(t, FFTHandler, "/simulate/fft", `{"samples": [1, 1, 1, 1, 1, 1, 1, 1], "size": 8, "window": "rectangular", "sampleRate": 8}`)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		results := decodeBody(t, rr)["results"].([]any)
		require.Len(t, results, 5)
		assert.InDelta(t, 0.0, results[1].(map[string]any)["magnitude"].(float64), 1e-9)
	})

	t.Run("size not a power of two", func(t *testing.T) {
		rr := post(t, FFTHandler, "/simulate/fft", `{"samples": [1, 2, 3], "size": 6, "sampleRate": 8}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestChartHandler(t *testing.T) {
	chartRequest := func(kind, payload string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/chart/"+kind, strings.NewReader(payload))
		req.SetPathValue("kind", kind)
		rr := httptest.NewRecorder()
		ChartHandler(rr, req)
		return rr
	}

	tests := map[string]string{
		"ac":        body(lowPassCircuit, `"ac": {"startFreq": 10, "endFreq": 10000, "inputNode": 1, "outputNode": 2}`),
		"transient": body(lowPassCircuit, `"transient": {"duration": 1e-3, "timeStep": 1e-5}, "nodes": [2]`),
		"spectrum":  body(lowPassCircuit, `"transient": {"duration": 1e-3, "timeStep": 1e-5}, "spectrum": {"node": 2, "size": 64}`),
	}

	for kind, payload := range tests {
		t.Run(kind, func(t *testing.T) {
			rr := chartRequest(kind, payload)
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))

			_, err := png.Decode(bytes.NewReader(rr.Body.Bytes()))
			assert.NoError(t, err)
		})
	}

	t.Run("unknown kind", func(t *testing.T) {
		rr := chartRequest("nyquist", body(lowPassCircuit, ""))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("failed simulation returns json", func(t *testing.T) {
		rr := chartRequest("ac", body(lowPassCircuit, `"ac": {"outputNode": 2}`))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	})
}
