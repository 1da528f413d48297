package scanner

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNoContainers reports a zip with no cookie container entries; the
// caller surfaces it instead of treating the archive as an empty success.
var ErrNoContainers = errors.New("no .txt cookie files found in the .zip")

const containerExt = ".txt"

// ExtractContainers pulls every container entry out of an uploaded zip.
// Non-matching entries are ignored; unreadable entries are skipped rather
// than failing the archive.
func ExtractContainers(data []byte) ([]Payload, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("invalid .zip file: %w", err)
	}

	var payloads []Payload
	for _, f := range reader.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(strings.ToLower(f.Name), containerExt) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			continue
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		payloads = append(payloads, Payload{Name: path.Base(f.Name), Content: content})
	}
	if len(payloads) == 0 {
		return nil, ErrNoContainers
	}
	return payloads, nil
}

// BuildLiveArchive packs successful containers into a zip grouped by
// target, one folder per service, entry bytes identical to the uploaded
// input so the cookies stay reusable. Returns nil bytes when the report
// has no successes.
func BuildLiveArchive(report *Report, displayName func(string) string) ([]byte, string, error) {
	if report.LiveCount() == 0 {
		return nil, "", nil
	}

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for targetID, entries := range report.Live {
		folder := fmt.Sprintf("%s_Live_Cookies/", displayName(targetID))
		for _, e := range entries {
			if len(e.Content) == 0 {
				continue
			}
			f, err := w.Create(folder + e.File)
			if err != nil {
				w.Close()
				return nil, "", fmt.Errorf("creating archive entry: %w", err)
			}
			if _, err := f.Write(e.Content); err != nil {
				w.Close()
				return nil, "", fmt.Errorf("writing archive entry: %w", err)
			}
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing archive: %w", err)
	}

	name := fmt.Sprintf("live_cookies_%d_%s.zip", time.Now().Unix(), uuid.New().String()[:6])
	return buf.Bytes(), name, nil
}
