package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/apoudel1609/comparator"
)

const maxUploadBytes = 100 << 20

type handler struct {
	pipeline  *comparator.Pipeline
	uploadDir string
	keepRuns  bool

	// The pipeline handles one document at a time.
	mu sync.Mutex
}

func newHandler(p *comparator.Pipeline, uploadDir string, keepRuns bool) *handler {
	return &handler{pipeline: p, uploadDir: uploadDir, keepRuns: keepRuns}
}

func (h *handler) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload", h.handleUpload)
	mux.HandleFunc("GET /health", h.handleHealth)
	return mux
}

// POST /upload
// Multipart form with a "pdf" file, an "excel" name list and an optional
// "match_string". Responds with the annotated PDF.
func (h *handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Minute)
	defer cancel()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: expected multipart form")
		return
	}

	pdfFile, pdfHeader, err := r.FormFile("pdf")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing pdf file")
		return
	}
	defer pdfFile.Close()

	excelFile, excelHeader, err := r.FormFile("excel")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing excel file")
		return
	}
	defer excelFile.Close()

	match := r.FormValue("match_string")

	// Uploads go in their own directory so client file names cannot collide
	// with the artifacts written to the run directory.
	runID := uuid.NewString()
	dir := filepath.Join(h.uploadDir, runID)
	inputDir := filepath.Join(dir, "input")
	if err := os.MkdirAll(inputDir, 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to process upload")
		slog.Error("creating run directory", "dir", dir, "error", err)
		return
	}
	if !h.keepRuns {
		defer os.RemoveAll(dir)
	}

	pdfPath, err := saveUpload(inputDir, pdfHeader.Filename, "document.pdf", pdfFile)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save pdf file")
		slog.Error("saving uploaded file", "run", runID, "error", err)
		return
	}
	excelName := filepath.Base(excelHeader.Filename)
	if excelName == filepath.Base(pdfPath) {
		excelName = "names_" + excelName
	}
	excelPath, err := saveUpload(inputDir, excelName, "names.xlsx", excelFile)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save excel file")
		slog.Error("saving uploaded file", "run", runID, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	cfg := h.pipeline.Config()
	res, err := h.pipeline.Run(ctx, cfg.NewRequest(dir, pdfPath, excelPath, match))
	if err != nil {
		status := http.StatusInternalServerError
		msg := "processing failed"
		if errors.Is(err, comparator.ErrInputMissing) {
			status = http.StatusBadRequest
			msg = "unreadable input file"
		}
		writeError(w, status, msg)
		slog.Error("run failed", "run", runID, "error", err)
		return
	}

	if _, err := h.pipeline.Export(ctx, excelPath, match, cfg.MatchesPath(dir)); err != nil {
		slog.Warn("exporting matching names failed", "run", runID, "error", err)
	}

	out, err := os.Open(res.FinalPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "annotated document unavailable")
		slog.Error("opening final document", "run", runID, "error", err)
		return
	}
	defer out.Close()

	slog.Info("run complete", "run", runID, "words", len(res.Words),
		"word_highlights", res.WordHighlights, "name_highlights", res.NameHighlights)

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(res.FinalPath)))
	w.Header().Set("X-Run-ID", runID)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, out); err != nil {
		slog.Warn("sending final document", "run", runID, "error", err)
	}
}

// saveUpload copies an uploaded part into dir under its base name, or
// fallback when the client sent none.
func saveUpload(dir, name, fallback string, src multipart.File) (string, error) {
	// Sanitise filename to prevent path traversal.
	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) {
		name = fallback
	}
	path := filepath.Join(dir, name)
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", err
	}
	return path, dst.Close()
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
