package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seriesCircuit = `{
	"components": [
		{"id": "V1", "type": "voltage_source", "value": 5},
		{"id": "R1", "type": "resistor", "value": 100},
		{"id": "G", "type": "ground"}
	],
	"connections": [
		{"from": {"componentId": "V1", "terminal": 0}, "to": {"componentId": "R1", "terminal": 0}},
		{"from": {"componentId": "R1", "terminal": 1}, "to": {"componentId": "G", "terminal": 0}},
		{"from": {"componentId": "V1", "terminal": 1}, "to": {"componentId": "G", "terminal": 0}}
	]
}`

func TestMainRoutes(t *testing.T) {
	router := setupRouter()

	t.Run("health endpoint is accessible", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	})

	t.Run("dc endpoint solves a circuit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/simulate/dc", strings.NewReader(seriesCircuit))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var response struct {
			Success bool `json:"success"`
			Results struct {
				ComponentData map[string]struct {
					Current float64 `json:"current"`
				} `json:"componentData"`
			} `json:"results"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.True(t, response.Success)
		assert.InDelta(t, 0.05, response.Results.ComponentData["R1"].Current, 1e-6)
	})

	t.Run("chart route binds the kind", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/chart/bogus", strings.NewReader(seriesCircuit))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "bogus")
	})

	t.Run("non-existent route returns 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/nonexistent", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
