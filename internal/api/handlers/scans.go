package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lunhatthanh83-boop/bottele/internal/probe"
	"github.com/lunhatthanh83-boop/bottele/internal/scanner"
)

const maxUploadBytes = 20 << 20

type ScanResponse struct {
	Target     string                                  `json:"target"`
	Processed  int                                     `json:"processed"`
	LiveCount  int                                     `json:"live_count"`
	Files      map[string]map[string]*probe.Result     `json:"files"`
	FileErrors map[string]string                       `json:"file_errors,omitempty"`
}

// CreateScan accepts cookie containers as multipart files and probes
// them against the requested target, or the whole catalog.
func (h *Handler) CreateScan(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Multipart form required"})
		return
	}

	target := c.PostForm("target")
	if target == "" {
		target = scanner.TargetAll
	}

	uploads := form.File["files"]
	if len(uploads) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one file is required"})
		return
	}

	var payloads []scanner.Payload
	for _, upload := range uploads {
		data, err := readUpload(upload)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read " + upload.Filename})
			return
		}
		switch strings.ToLower(path.Ext(upload.Filename)) {
		case ".zip":
			extracted, err := scanner.ExtractContainers(data)
			if err != nil {
				if errors.Is(err, scanner.ErrNoContainers) {
					c.JSON(http.StatusBadRequest, gin.H{"error": "No .txt cookie files found in " + upload.Filename})
				} else {
					c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid zip file " + upload.Filename})
				}
				return
			}
			payloads = append(payloads, extracted...)
		default:
			payloads = append(payloads, scanner.Payload{Name: path.Base(upload.Filename), Content: data})
		}
	}

	report, err := h.scanner.Scan(c.Request.Context(), payloads, target)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.logger.Info("Scan completed",
		zap.String("target", target),
		zap.Int("processed", report.Processed),
		zap.Int("live", report.LiveCount()),
	)

	c.JSON(http.StatusOK, ScanResponse{
		Target:     target,
		Processed:  report.Processed,
		LiveCount:  report.LiveCount(),
		Files:      report.Files,
		FileErrors: report.FileErrors,
	})
}

// ListTargets exposes the probe catalog.
func (h *Handler) ListTargets(c *gin.Context) {
	type targetInfo struct {
		ID      string   `json:"id"`
		Name    string   `json:"name"`
		Domains []string `json:"domains"`
	}
	var out []targetInfo
	for _, id := range h.registry.IDs() {
		target, ok := h.registry.Target(id)
		if !ok {
			continue
		}
		out = append(out, targetInfo{ID: id, Name: target.Name, Domains: target.Domains})
	}
	c.JSON(http.StatusOK, gin.H{"targets": out})
}

func readUpload(upload *multipart.FileHeader) ([]byte, error) {
	f, err := upload.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxUploadBytes))
}
