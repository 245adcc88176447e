package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"segviz-srv/internal/config"
	"segviz-srv/internal/logx"
	"segviz-srv/internal/models"
	"segviz-srv/internal/parser"
	"segviz-srv/internal/render"
	"segviz-srv/internal/segments"
	"segviz-srv/internal/throttle"
)

/* =========================
   Recovery Middleware
   ========================= */

func RecoveryMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logx.Errorf("PANIC: %v\n%s", err, debug.Stack())
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next(w, r)
	}
}

/* =========================
   Types
   ========================= */

type server struct {
	cfg     config.Config
	loader  *segments.Loader
	limiter *throttle.Limiter
}

// uploadRequest is a parsed multipart upload plus its chart options.
type uploadRequest struct {
	dataset    *segments.Dataset
	sourceName string
	rng        segments.Range
	format     render.Format
}

type errorResponse struct {
	Error      string   `json:"error"`
	Field      string   `json:"field,omitempty"`
	Columns    []string `json:"columns,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
}

/* =========================
   SSE Helpers
   ========================= */

func setupSSE(w http.ResponseWriter) (http.Flusher, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming unsupported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	return flusher, nil
}

func sendEvent(w http.ResponseWriter, flusher http.Flusher, payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		logx.Errorf("SSE marshal error: %v", err)
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", b)
	flusher.Flush()
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

/* =========================
   Request parsing
   ========================= */

func parseBound(r *http.Request, key string) (*float64, error) {
	v := strings.TrimSpace(r.FormValue(key))
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %q", key, v)
	}
	return &f, nil
}

// readUpload parses the multipart body and normalizes the uploaded table.
// It writes the error response itself and returns false on failure.
func (s *server) readUpload(w http.ResponseWriter, r *http.Request) (*uploadRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes())
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes()); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return nil, false
	}

	format, err := render.ParseFormat(r.FormValue("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	lo, err := parseBound(r, "min")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	hi, err := parseBound(r, "max")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file", http.StatusBadRequest)
		return nil, false
	}
	defer file.Close()

	start := time.Now()
	ds, err := s.loader.Load(file)
	if err != nil {
		logx.Warnf("load %s failed: %v", header.Filename, err)
		http.Error(w, "CSV parse failed: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	logx.TimeTrack(start, "load "+header.Filename)

	if lo == nil {
		floor := s.cfg.MinCM
		lo = &floor
	}
	rng := segments.DefaultRange(ds.CMRecords).Override(lo, hi)

	return &uploadRequest{
		dataset:    ds,
		sourceName: header.Filename,
		rng:        rng,
		format:     format,
	}, true
}

func (s *server) canvas(format render.Format) render.Canvas {
	return render.NewCanvas(format, s.cfg.ChartWidth, s.cfg.ChartHeight)
}

func (s *server) renderChart(up *uploadRequest, kind models.ChartKind) ([]byte, render.Canvas, error) {
	c := s.canvas(up.format)
	var buf bytes.Buffer
	err := render.Chart(c, &buf, up.dataset, kind, render.Options{Range: up.rng, Bins: s.cfg.HistogramBins})
	return buf.Bytes(), c, err
}

func missingColumnResponse(mc *parser.MissingColumnError) errorResponse {
	return errorResponse{
		Error:      mc.Error(),
		Field:      string(mc.Field),
		Columns:    mc.Found,
		Suggestion: mc.Suggestion,
	}
}

/* =========================
   Handlers
   ========================= */

func preflight(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodOptions {
		return false
	}
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.WriteHeader(http.StatusNoContent)
	return true
}

// handleRender returns a single chart image.
func (s *server) handleRender(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r) {
		return
	}

	kind := models.ChartKind(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("chart"))))
	if !kind.Valid() {
		http.Error(w, fmt.Sprintf("Unknown chart %q", kind), http.StatusBadRequest)
		return
	}

	up, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	img, c, err := s.renderChart(up, kind)
	var mc *parser.MissingColumnError
	switch {
	case errors.As(err, &mc):
		logx.Infof("%s: %s skipped: %v", up.sourceName, kind, err)
		writeJSON(w, http.StatusUnprocessableEntity, missingColumnResponse(mc))
		return
	case errors.Is(err, render.ErrNoData):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	case err != nil:
		logx.Errorf("%s: render %s: %v", up.sourceName, kind, err)
		http.Error(w, "Render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", c.ContentType())
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", string(kind)+"."+c.Extension()))
	_, _ = w.Write(img)
}

// handleAnalyze streams every chart the upload supports as SSE events.
func (s *server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r) {
		return
	}

	ctx := r.Context()

	up, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	/* =========================
	   SSE Setup (SAFE POINT)
	   ========================= */

	flusher, err := setupSSE(w)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	send := func(v any) { sendEvent(w, flusher, v) }

	send(map[string]any{
		"status":  "info",
		"message": fmt.Sprintf("Loaded %d rows from %s", up.dataset.Report.Rows, up.sourceName),
		"columns": up.dataset.Report.Columns,
	})

	for i, kind := range models.ChartKinds {
		select {
		case <-ctx.Done():
			logx.Infof("client disconnected during %s", up.sourceName)
			return
		default:
		}

		img, c, err := s.renderChart(up, kind)
		res := models.ChartResult{Chart: kind}
		status := "chart"

		var mc *parser.MissingColumnError
		switch {
		case errors.As(err, &mc):
			status = "skipped"
			res.Message = mc.Error()
			res.Columns = mc.Found
			res.Suggestion = mc.Suggestion
		case err != nil:
			status = "skipped"
			res.Message = err.Error()
		default:
			res.Format = string(c.Format)
			res.Image = base64.StdEncoding.EncodeToString(img)
		}

		send(map[string]any{
			"status": status,
			"index":  i + 1,
			"total":  len(models.ChartKinds),
			"result": res,
		})
	}

	/* ---------- Final ---------- */

	send(map[string]any{
		"status": "complete",
		"meta": models.SessionInfo{
			SessionID:  uuid.NewString(),
			SourceName: up.sourceName,
			Timestamp:  time.Now().Format(time.RFC3339),
			MinCM:      up.rng.Min,
			MaxCM:      up.rng.Max,
			Report:     up.dataset.Report,
		},
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func postOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodOptions {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/render", RecoveryMiddleware(postOnly(s.limiter.Middleware(s.handleRender))))
	mux.HandleFunc("/api/v1/analyze", RecoveryMiddleware(postOnly(s.limiter.Middleware(s.handleAnalyze))))
	mux.HandleFunc("/healthz", handleHealth)
	return mux
}

func newServer(cfg config.Config) (*server, error) {
	aliases := parser.DefaultAliases()
	if cfg.AliasFile != "" {
		extra, err := parser.LoadAliasFile(cfg.AliasFile)
		if err != nil {
			return nil, err
		}
		aliases.Merge(extra)
	}
	return &server{
		cfg:     cfg,
		loader:  segments.NewLoader(aliases),
		limiter: throttle.New(cfg.RatePerSec, cfg.RateBurst),
	}, nil
}

/* =========================
   Main
   ========================= */

func main() {
	// 1. Configuration (fail fast)
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "CRITICAL:", err)
		os.Exit(1)
	}
	logx.SetLogLevel(cfg.LogLevel)

	// 2. Server
	srv, err := newServer(cfg)
	if err != nil {
		logx.Errorf("Failed to load aliases: %v", err)
		os.Exit(1)
	}

	logx.Infof("Segment chart server listening on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, srv.routes()); err != nil {
		logx.Errorf("server stopped: %v", err)
		os.Exit(1)
	}
}
