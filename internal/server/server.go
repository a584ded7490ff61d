// Package server exposes stored runs over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/process"

	"github.com/san-kum/dronectl/internal/export"
	"github.com/san-kum/dronectl/internal/storage"
)

const (
	svgWidth  = 960
	svgHeight = 400
)

type Server struct {
	store  *storage.Store
	router *mux.Router
}

// New builds the router. extra handlers, e.g. a Prometheus endpoint, are
// mounted under their path as given.
func New(store *storage.Store, extra map[string]http.Handler) *Server {
	s := &Server{store: store, router: mux.NewRouter()}

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/runs", s.listRuns).Methods(http.MethodGet)
	api.HandleFunc("/runs/{id}", s.getRun).Methods(http.MethodGet)
	api.HandleFunc("/runs/{id}/csv", s.getCSV).Methods(http.MethodGet)
	api.HandleFunc("/runs/{id}/svg", s.getSVG).Methods(http.MethodGet)
	api.HandleFunc("/resource", s.resource).Methods(http.MethodGet)

	for path, h := range extra {
		s.router.Handle(path, h)
	}
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) listRuns(w http.ResponseWriter, _ *http.Request) {
	runs, err := s.store.List()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, runs)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := s.store.Load(id); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := s.store.ExportJSON(w, id); err != nil {
		slog.Error("export json", "run", id, "err", err)
	}
}

func (s *Server) getCSV(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	f, err := s.store.OpenStates(id)
	if err != nil {
		writeError(w, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "text/csv")
	if _, err := io.Copy(w, f); err != nil {
		slog.Error("stream csv", "run", id, "err", err)
	}
}

func (s *Server) getSVG(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	series, err := s.store.LoadSeries(id)
	if err != nil {
		writeError(w, err)
		return
	}

	var lines []export.Line
	for _, name := range []string{"theta", "setpoint", "estimate"} {
		if v, ok := series[name]; ok {
			lines = append(lines, export.Line{Name: name, Values: v})
		}
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	if err := export.SeriesSVG(w, series["time"], lines, svgWidth, svgHeight); err != nil {
		writeError(w, err)
	}
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (s *Server) resource(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		writeError(w, err)
		return
	}
	cpu, err := proc.CPUPercent()
	if err != nil {
		writeError(w, err)
		return
	}
	mem, err := proc.MemoryInfo()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, resourceRsp{CPUPercent: cpu, MemorySize: mem.RSS})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrRunNotFound):
		code = http.StatusNotFound
	case errors.Is(err, storage.ErrCorrupt), errors.Is(err, export.ErrNoData):
		code = http.StatusUnprocessableEntity
	}
	http.Error(w, err.Error(), code)
}
