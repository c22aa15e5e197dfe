package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/error-telemetry/pkg/errorlog"
	"github.com/Sternrassler/error-telemetry/pkg/event"
	"github.com/Sternrassler/error-telemetry/pkg/metrics"
	"github.com/Sternrassler/error-telemetry/pkg/telemetry"
)

// newAPI returns the HTTP handler exposing svc.
func newAPI(svc *telemetry.Service, maxBody int64) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("POST /api/report", reportHandler(svc, maxBody))
	mux.HandleFunc("GET /api/metrics", metricsHandler(svc))
	mux.HandleFunc("GET /api/events", eventsHandler(svc))
	mux.HandleFunc("GET /api/export", exportHandler(svc))
	mux.HandleFunc("POST /api/import", importHandler(svc, maxBody))
	mux.HandleFunc("POST /api/clear", clearHandler(svc))
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// reportHandler accepts a JSON payload ({message, type, severity, component,
// context, stack, metadata}) and responds with the recorded event.
func reportHandler(svc *telemetry.Service, maxBody int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
		dec.UseNumber()
		if err := dec.Decode(&payload); err != nil {
			writeError(w, decodeStatus(err), fmt.Errorf("decode report: %w", err))
			return
		}

		ev := svc.Report(event.FromPayload(payload), event.ReportContext{})
		writeJSON(w, http.StatusAccepted, ev)
	}
}

func metricsHandler(svc *telemetry.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		window, err := errorlog.ParseWindow(r.URL.Query().Get("window"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusOK, svc.Metrics(window))
	}
}

func eventsHandler(svc *telemetry.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := parseFilter(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		events := svc.Query(f)
		if events == nil {
			events = []event.Event{}
		}
		writeJSON(w, http.StatusOK, events)
	}
}

func parseFilter(r *http.Request) (errorlog.Filter, error) {
	q := r.URL.Query()

	var f errorlog.Filter
	var err error
	if f.Window, err = errorlog.ParseWindow(q.Get("window")); err != nil {
		return f, err
	}
	if v := q.Get("type"); v != "" {
		if f.Type, err = event.ParseType(v); err != nil {
			return f, err
		}
	}
	if v := q.Get("severity"); v != "" {
		if f.Severity, err = event.ParseSeverity(v); err != nil {
			return f, err
		}
	}
	if v := q.Get("min_severity"); v != "" {
		if f.MinSeverity, err = event.ParseSeverity(v); err != nil {
			return f, err
		}
	}
	f.Component = q.Get("component")
	return f, nil
}

func exportHandler(svc *telemetry.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := svc.ExportJSON()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="telemetry-`+svc.SessionID()+`.json"`)
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(data); err != nil {
			log.Warn().Err(err).Msg("Failed to write export")
		}
	}
}

func importHandler(svc *telemetry.Service, maxBody int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
		if err != nil {
			writeError(w, decodeStatus(err), fmt.Errorf("read snapshot: %w", err))
			return
		}
		report, err := svc.ImportJSON(data)
		if err != nil && !errors.Is(err, errorlog.ErrCapacityExceeded) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{
			"evicted_count": report.ByCount,
			"evicted_age":   report.ByAge,
			"evicted_size":  report.BySize,
		})
	}
}

func clearHandler(svc *telemetry.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.Clear()
		w.WriteHeader(http.StatusNoContent)
	}
}

func decodeStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
