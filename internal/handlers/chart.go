package handlers

import (
	"bytes"
	"log"
	"net/http"

	"github.com/edp1096/circuit-engine/pkg/analysis"
	"github.com/edp1096/circuit-engine/pkg/chart"
	"github.com/edp1096/circuit-engine/pkg/engine"
)

// ChartRequest simulates a circuit and renders the result as a PNG.
type ChartRequest struct {
	SimulateRequest
	Title string `json:"title,omitempty"`
	Nodes []int  `json:"nodes,omitempty"` // transient traces, every node when empty
}

// ChartHandler serves POST /chart/{kind} for kind ac, transient or spectrum.
// Failed simulations answer with the JSON response instead of an image.
func ChartHandler(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("kind")
	if kind != "ac" && kind != "transient" && kind != "spectrum" {
		http.Error(w, "Unknown chart kind: "+kind, http.StatusNotFound)
		return
	}

	var req ChartRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	e := newEngine(w, req.Options)
	if e == nil {
		return
	}

	var buf bytes.Buffer
	var err error
	switch kind {
	case "ac":
		resp := e.RunAC(r.Context(), &req.Netlist, req.AC)
		if !resp.Success {
			writeResponse(w, r, resp)
			return
		}
		err = chart.WriteBode(&buf, resp.Results, titleOr(req.Title, "AC Analysis"))

	case "transient":
		resp := e.RunTransient(r.Context(), &req.Netlist, req.Transient)
		if !resp.Success {
			writeResponse(w, r, resp)
			return
		}
		nodes := req.Nodes
		if len(nodes) == 0 {
			nodes = allNodes(resp.NumNodes)
		}
		err = chart.WriteTransient(&buf, resp.Results, nodes, titleOr(req.Title, "Transient Analysis"))

	case "spectrum":
		opts := req.Spectrum
		if opts.Transient == (analysis.TransientOptions{}) {
			opts.Transient = req.Transient
		}
		resp := e.RunSpectrum(r.Context(), &req.Netlist, opts)
		if !resp.Success {
			writeResponse(w, r, resp)
			return
		}
		err = chart.WriteSpectrum(&buf, resp.Results.Bins, titleOr(req.Title, "Spectrum"))
	}

	if err != nil {
		log.Printf("Error rendering %s chart: %v", kind, err)
		writeResponse(w, r, engine.Response[any]{Kind: engine.KindAnalysis, Error: err.Error(), Message: "chart rendering failed"})
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("Error writing chart: %v", err)
	}
}

func titleOr(title, fallback string) string {
	if title == "" {
		return fallback
	}
	return title
}

func allNodes(numNodes int) []int {
	nodes := make([]int, 0, numNodes)
	for n := 1; n < numNodes; n++ {
		nodes = append(nodes, n)
	}
	return nodes
}
