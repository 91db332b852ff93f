// Package speedtest serves raw throughput endpoints: chunked random
// downloads, zero-filled test files, and an upload sink that reports
// received bytes and duration.
package speedtest

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/lgxlabs/netglass/pkg/config"
)

const (
	defaultDownloadMB = 10
	maxFileMB         = 10240 // hard cap on named test files
	bytesPerMB        = 1024 * 1024
)

var errBadFilename = errors.New("invalid test file name")

// Handler serves the speed test endpoints.
type Handler struct {
	cfg *config.SpeedTestConfig
}

func NewHandler(cfg *config.SpeedTestConfig) *Handler {
	return &Handler{cfg: cfg}
}

// Download streams size MB of random data in ckSize KB chunks.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	sizeMB := defaultDownloadMB
	if raw := r.URL.Query().Get("size"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > h.cfg.MaxSizeMB {
			http.Error(w, "Invalid size parameter", http.StatusBadRequest)
			return
		}

		sizeMB = v
	}

	chunkKB := h.cfg.ChunkSizeKB
	if raw := r.URL.Query().Get("ckSize"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 1024 {
			http.Error(w, "Invalid ckSize parameter", http.StatusBadRequest)
			return
		}

		chunkKB = v
	}

	total := int64(sizeMB) * bytesPerMB

	setNoCacheHeaders(w)
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.FormatInt(total, 10))

	chunk := make([]byte, chunkKB*1024)
	if _, err := rand.Read(chunk); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := streamChunks(w, chunk, total); err != nil {
		log.Printf("Speed test download aborted: %v", err)
	}
}

// File streams a zero-filled test file named like 100MB.bin or 1GB.bin.
func (h *Handler) File(w http.ResponseWriter, r *http.Request) {
	filename := mux.Vars(r)["filename"]

	sizeMB, err := parseFileSize(filename)
	if err != nil {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	total := int64(sizeMB) * bytesPerMB

	setNoCacheHeaders(w)
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.FormatInt(total, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	chunk := make([]byte, h.cfg.ChunkSizeKB*1024)

	if err := streamChunks(w, chunk, total); err != nil {
		log.Printf("Test file download aborted: %v", err)
	}
}

// Upload consumes the request body and reports how fast it arrived.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	received, err := io.Copy(io.Discard, r.Body)
	if err != nil {
		http.Error(w, "Upload processing failed", http.StatusInternalServerError)
		return
	}

	elapsed := time.Since(start)

	w.Header().Set("Content-Type", "application/json")

	response := map[string]interface{}{
		"bytes_received": received,
		"duration":       elapsed.Seconds(),
		"timestamp":      time.Now().UnixMilli(),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Error encoding upload response: %v", err)
	}
}

// parseFileSize turns "100MB.bin" / "1GB.bin" into a size in MB.
func parseFileSize(filename string) (int, error) {
	name, ok := strings.CutSuffix(filename, ".bin")
	if !ok {
		return 0, errBadFilename
	}

	multiplier := 1

	var digits string

	switch {
	case strings.HasSuffix(name, "GB"):
		digits = strings.TrimSuffix(name, "GB")
		multiplier = 1024
	case strings.HasSuffix(name, "MB"):
		digits = strings.TrimSuffix(name, "MB")
	default:
		return 0, errBadFilename
	}

	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 {
		return 0, errBadFilename
	}

	sizeMB := n * multiplier
	if sizeMB > maxFileMB {
		return 0, errBadFilename
	}

	return sizeMB, nil
}

func streamChunks(w io.Writer, chunk []byte, total int64) error {
	flusher, _ := w.(http.Flusher)

	var sent int64

	for sent < total {
		remaining := total - sent
		if remaining < int64(len(chunk)) {
			chunk = chunk[:remaining]
		}

		n, err := w.Write(chunk)
		if err != nil {
			return err
		}

		sent += int64(n)

		if flusher != nil {
			flusher.Flush()
		}
	}

	return nil
}

func setNoCacheHeaders(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
}
