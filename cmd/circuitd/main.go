// Package main starts an HTTP server exposing the circuit simulation engine.
// Circuits arrive as JSON component and connection lists and results are
// returned as JSON responses or PNG charts.
package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/edp1096/circuit-engine/cmd/circuitd/middleware"
	"github.com/edp1096/circuit-engine/internal/handlers"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func setupRouter() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", handlers.HealthHandler)
	mux.HandleFunc("/simulate/dc", handlers.DCHandler)
	mux.HandleFunc("/simulate/dcsweep", handlers.DCSweepHandler)
	mux.HandleFunc("/simulate/ac", handlers.ACHandler)
	mux.HandleFunc("/simulate/transient", handlers.TransientHandler)
	mux.HandleFunc("/simulate/spectrum", handlers.SpectrumHandler)
	mux.HandleFunc("/simulate/fft", handlers.FFTHandler)
	mux.HandleFunc("/chart/{kind}", handlers.ChartHandler)
	return mux
}

func main() {
	addr := getEnv("CIRCUITD_ADDR", ":8080")

	timeout, err := time.ParseDuration(getEnv("CIRCUITD_TIMEOUT", "30s"))
	if err != nil {
		log.Fatalf("invalid CIRCUITD_TIMEOUT: %v", err)
	}

	handler := middleware.Cors(middleware.Timeout(timeout, setupRouter()))

	log.Printf("Server starting on %s", addr)
	log.Fatal(http.ListenAndServe(addr, handler))
}
