package tradelog

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"sim-trading-engine/internal/journal"
	"sim-trading-engine/internal/logger"
)

const fileExt = ".jsonl"

// Entry is one line of a daily journal file.
type Entry struct {
	Time string          `json:"time"`
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Writer appends journal records to one JSONL file per UTC day under dir.
// When the day rolls over, files older than the retention window are gzipped.
type Writer struct {
	mu            sync.Mutex
	dir           string
	retentionDays int
	day           string
}

var _ journal.Writer = (*Writer)(nil)

// NewWriter creates dir if needed.
func NewWriter(dir string, retentionDays int) (*Writer, error) {
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir %s: %w", dir, err)
	}
	return &Writer{dir: dir, retentionDays: retentionDays}, nil
}

// DailyFilepath is the file a record stamped at t lands in.
func (w *Writer) DailyFilepath(t time.Time) string {
	return filepath.Join(w.dir, t.UTC().Format("2006-01-02")+fileExt)
}

// Write appends rec to the file for its UTC day.
func (w *Writer) Write(ctx context.Context, rec journal.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if day := rec.At.UTC().Format("2006-01-02"); day != w.day {
		if w.day != "" {
			if err := CompressOlder(w.dir, w.retentionDays); err != nil {
				logger.Warn(ctx, "Journal compression failed", "dir", w.dir, "error", err)
			}
		}
		w.day = day
	}

	b, err := json.Marshal(Entry{
		Time: rec.At.UTC().Format(time.RFC3339Nano),
		ID:   rec.ID,
		Type: string(rec.Type),
		Data: rec.Payload,
	})
	if err != nil {
		return err
	}

	f, err := os.OpenFile(w.DailyFilepath(rec.At), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintln(f, string(b))
	return err
}

func (w *Writer) Close() error { return nil }

// CompressOlder gzips journal files under root last modified more than
// retentionDays ago and removes the originals. Zero or less disables it.
func CompressOlder(root string, retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(p, fileExt) {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}

		gz := p + ".gz"
		if _, err := os.Stat(gz); err == nil {
			_ = os.Remove(p)
			return nil
		}
		if err := gzipFile(p, gz); err != nil {
			_ = os.Remove(gz)
			return fmt.Errorf("compress %s: %w", p, err)
		}
		return os.Remove(p)
	})
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		_ = gw.Close()
		_ = out.Close()
		return err
	}
	if err := gw.Close(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
