// Package api exposes the sensor over HTTP: decoder statistics, the latest
// decoded frame, a server-sent event stream of frames, recent health
// snapshots, and a Prometheus metrics endpoint.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/banshee-data/mmwave.report/internal/controlport"
	"github.com/banshee-data/mmwave.report/internal/diag"
	"github.com/banshee-data/mmwave.report/internal/mmwave"
	"github.com/banshee-data/mmwave.report/internal/monitoring"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// FrameSource is the slice of the data channel reader the API serves from.
type FrameSource interface {
	Stats() mmwave.Stats
	LastFrame() *mmwave.RadarFrame
	Subscribe() (string, chan mmwave.RadarFrame)
	Unsubscribe(id string)
	FrameArrivals() []time.Time
}

type Server struct {
	frames   FrameSource
	control  controlport.Muxer   // nil when the control channel is absent
	journal  *diag.Journal       // nil when journalling is disabled
	gatherer prometheus.Gatherer // nil falls back to the default registry
}

func NewServer(frames FrameSource, control controlport.Muxer, journal *diag.Journal, gatherer prometheus.Gatherer) *Server {
	return &Server{
		frames:   frames,
		control:  control,
		journal:  journal,
		gatherer: gatherer,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/radar/stats", s.showStats)
	mux.HandleFunc("/api/radar/frames/latest", s.showLatestFrame)
	mux.HandleFunc("/api/radar/frames/stream", s.streamFrames)
	mux.HandleFunc("/api/radar/health/recent", s.showRecentHealth)
	mux.HandleFunc("/api/radar/command", s.sendCommandHandler)

	gatherer := s.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return mux
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// statsResponse joins the decoder counters with frame timing so one call
// answers "is the sensor healthy right now".
type statsResponse struct {
	Decoder   mmwave.Stats         `json:"decoder"`
	Intervals diag.IntervalSummary `json:"intervals"`
}

func (s *Server) showStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	resp := statsResponse{
		Decoder:   s.frames.Stats(),
		Intervals: diag.SummarizeIntervals(s.frames.FrameArrivals()),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write stats")
		return
	}
}

func (s *Server) showLatestFrame(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	frame := s.frames.LastFrame()
	if frame == nil {
		s.writeJSONError(w, http.StatusNotFound, "No frames decoded yet")
		return
	}

	if err := json.NewEncoder(w).Encode(frame); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write frame")
		return
	}
}

func (s *Server) streamFrames(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	id, frames := s.frames.Subscribe()
	defer s.frames.Unsubscribe(id)

	for {
		select {
		case <-r.Context().Done():
			return
		case frame, open := <-frames:
			if !open {
				return
			}
			payload, err := json.Marshal(frame)
			if err != nil {
				monitoring.Logf("failed to marshal frame %d for stream: %v", frame.FrameNumber, err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

func (s *Server) showRecentHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if s.journal == nil {
		s.writeJSONError(w, http.StatusServiceUnavailable, "Health journal disabled")
		return
	}

	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	snapshots, err := s.journal.RecentSnapshots(limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve health snapshots: %v", err))
		return
	}
	if snapshots == nil {
		snapshots = []diag.Snapshot{}
	}

	if err := json.NewEncoder(w).Encode(snapshots); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write health snapshots")
		return
	}
}

func (s *Server) sendCommandHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.control == nil {
		http.Error(w, "Control channel unavailable", http.StatusServiceUnavailable)
		return
	}

	command := r.FormValue("command")
	if strings.TrimSpace(command) == "" {
		http.Error(w, "Missing 'command' parameter", http.StatusBadRequest)
		return
	}

	lines, err := s.control.SendCommandAwait(r.Context(), command, controlport.DefaultAckWindow)
	if err != nil {
		http.Error(w, fmt.Sprintf("Command failed: %v", err), http.StatusBadGateway)
		return
	}
	fmt.Fprintln(w, strings.Join(lines, "\n"))
}
