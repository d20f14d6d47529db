// Package site serves the API root: a JSON index of the service's routes.
package site

import (
	"context"
	"encoding/json"
	"net/http"
)

// Link describes one discoverable route.
type Link struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

// Index is the document served at "/".
type Index struct {
	Service string `json:"service"`
	Docs    string `json:"docs"`
	Links   []Link `json:"links"`
}

// DefaultIndex lists the routes of the scoring API.
func DefaultIndex() Index {
	return Index{
		Service: "icao-rater-scoring",
		Docs:    "/api-docs",
		Links: []Link{
			{http.MethodGet, "/rubric", "criteria, levels and descriptors"},
			{http.MethodGet, "/entries", "entries visible to the caller"},
			{http.MethodPost, "/entries", "submit a scoring form"},
			{http.MethodGet, "/entries/stream", "live entries as server-sent events"},
			{http.MethodDelete, "/entries/{id}", "delete one entry (trainer)"},
			{http.MethodPost, "/entries/bulk-delete", "delete selected entries (trainer)"},
			{http.MethodGet, "/stats", "distributions and averages (trainer)"},
			{http.MethodGet, "/stats/chart.png", "distribution chart (trainer)"},
			{http.MethodGet, "/export.csv", "CSV download (trainer)"},
			{http.MethodGet, "/export.xlsx", "XLSX download (trainer)"},
			{http.MethodPost, "/session/reset", "issue a new identity"},
			{http.MethodGet, "/healthz", "Prometheus metrics"},
		},
	}
}

// Register attaches the root index to mux. Only the exact "/" path is
// served; other unmatched paths stay 404.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	body, err := json.Marshal(DefaultIndex())
	if err != nil {
		panic(err)
	}
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write(body)
	})
}
