package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/edp1096/circuit-engine/pkg/analysis"
	"github.com/edp1096/circuit-engine/pkg/engine"
	"github.com/edp1096/circuit-engine/pkg/netlist"
	"github.com/edp1096/circuit-engine/pkg/spectrum"
)

// MaxBodyBytes bounds request bodies.
const MaxBodyBytes = 4 << 20

// SimulateRequest is a circuit plus the settings of one analysis. Only the
// section matching the endpoint is read.
type SimulateRequest struct {
	netlist.Netlist
	Options   engine.Options            `json:"options"`
	AC        analysis.ACOptions        `json:"ac"`
	Transient analysis.TransientOptions `json:"transient"`
	Sweeps    []analysis.SweepSource    `json:"sweeps,omitempty"`
	Spectrum  engine.SpectrumOptions    `json:"spectrum"`
}

type FFTRequest struct {
	Samples []float64 `json:"samples"`
	spectrum.Options
}

func decodeRequest(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	defer r.Body.Close()

	// Editor payloads carry layout fields on components and connections,
	// so unknown fields are ignored.
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := decoder.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return false
		}
		http.Error(w, "Invalid request: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func newEngine(w http.ResponseWriter, opts engine.Options) *engine.Engine {
	e, err := engine.New(opts)
	if err != nil {
		http.Error(w, "Invalid options: "+err.Error(), http.StatusBadRequest)
		return nil
	}
	return e
}

func statusFor(success bool, kind string) int {
	switch {
	case success:
		return http.StatusOK
	case kind == engine.KindValidation:
		return http.StatusBadRequest
	case kind == engine.KindCanceled:
		return http.StatusRequestTimeout
	}
	return http.StatusUnprocessableEntity
}

func writeResponse[T any](w http.ResponseWriter, r *http.Request, resp engine.Response[T]) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(resp.Success, resp.Kind))

	encoder := json.NewEncoder(w)
	if r.URL.Query().Get("pretty") == "true" {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(resp); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func DCHandler(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	e := newEngine(w, req.Options)
	if e == nil {
		return
	}
	writeResponse(w, r, e.Simulate(r.Context(), &req.Netlist))
}

func DCSweepHandler(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	e := newEngine(w, req.Options)
	if e == nil {
		return
	}
	writeResponse(w, r, e.RunDCSweep(r.Context(), &req.Netlist, req.Sweeps))
}

func ACHandler(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	e := newEngine(w, req.Options)
	if e == nil {
		return
	}
	writeResponse(w, r, e.RunAC(r.Context(), &req.Netlist, req.AC))
}

func TransientHandler(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	e := newEngine(w, req.Options)
	if e == nil {
		return
	}
	writeResponse(w, r, e.RunTransient(r.Context(), &req.Netlist, req.Transient))
}

func SpectrumHandler(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	e := newEngine(w, req.Options)
	if e == nil {
		return
	}
	opts := req.Spectrum
	if opts.Transient == (analysis.TransientOptions{}) {
		opts.Transient = req.Transient
	}
	writeResponse(w, r, e.RunSpectrum(r.Context(), &req.Netlist, opts))
}

func FFTHandler(w http.ResponseWriter, r *http.Request) {
	var req FFTRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	writeResponse(w, r, engine.Default().RunFFT(req.Samples, req.Options))
}
