package knowledge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// topicHeader is the optional first-line header of a plain-text topic file.
const topicHeader = "Topic:"

// LoadFile reads one topic document from path. ".txt" files may start with
// a "Topic: <name>" header line; without one the topic falls back to the
// file name. ".pdf" files are extracted to plain text.
func LoadFile(path string) (Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return loadText(path)
	case ".pdf":
		return loadPDF(path)
	default:
		return Document{}, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
}

func loadText(path string) (Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", path, err)
	}

	topic := fileStem(path)
	content := strings.TrimSpace(string(raw))

	first, rest, _ := strings.Cut(content, "\n")
	if t, ok := strings.CutPrefix(strings.TrimSpace(first), topicHeader); ok {
		topic = strings.TrimSpace(t)
		content = strings.TrimSpace(rest)
	}
	if content == "" {
		return Document{}, fmt.Errorf("%s: no content", path)
	}

	return Document{ID: fileStem(path), Topic: topic, Content: content}, nil
}

func loadPDF(path string) (Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	text, err := r.GetPlainText()
	if err != nil {
		return Document{}, fmt.Errorf("extract %s: %w", path, err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(text); err != nil {
		return Document{}, fmt.Errorf("extract %s: %w", path, err)
	}

	content := strings.TrimSpace(buf.String())
	if content == "" {
		return Document{}, fmt.Errorf("%s: no extractable text", path)
	}
	return Document{ID: fileStem(path), Topic: fileStem(path), Content: content}, nil
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// IngestFiles loads and stores every path. Files that fail to load or store
// are skipped; the joined errors come back alongside the number of
// documents actually stored.
func (s *Store) IngestFiles(ctx context.Context, paths []string) (int, error) {
	var errs []error
	added := 0
	for _, p := range paths {
		doc, err := LoadFile(p)
		if err != nil {
			s.logger.Warn("skipping file", "path", p, "error", err)
			errs = append(errs, err)
			continue
		}
		if err := s.Add(ctx, doc); err != nil {
			s.logger.Warn("storing file failed", "path", p, "error", err)
			errs = append(errs, err)
			continue
		}
		added++
	}
	return added, errors.Join(errs...)
}
