// Package analysislog keeps an append-only JSON-lines record of every
// buy-opportunity result, one file per IST trading day.
package analysislog

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"stock-analyzer/internal/scoring"
	"stock-analyzer/internal/trace"
)

var (
	mu  sync.Mutex
	ist = time.FixedZone("IST", 19800)
	now = time.Now
)

type Entry struct {
	Time    string `json:"time"`
	TraceID string `json:"trace_id,omitempty"`
	*scoring.Result
}

func dailyFilepath(dir string, t time.Time) string {
	return filepath.Join(dir, t.In(ist).Format(time.DateOnly)+".jsonl")
}

// Append writes res as one line of today's file under dir.
func Append(ctx context.Context, dir string, res *scoring.Result) error {
	if res == nil {
		return errors.New("nil result")
	}
	mu.Lock()
	defer mu.Unlock()

	t := now().In(ist)
	e := Entry{Time: t.Format(time.DateTime), Result: res}
	if traceID, _, ok := trace.IDs(ctx); ok {
		e.TraceID = traceID
	}

	p := dailyFilepath(dir, t)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// Read returns the entries of day's file, transparently reading the gzipped
// copy once Compress has run.
func Read(dir string, day time.Time) ([]Entry, error) {
	p := dailyFilepath(dir, day)
	var r io.Reader
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		f, err = os.Open(p + ".gz")
		if err != nil {
			return nil, err
		}
		defer f.Close()
		gr, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer gr.Close()
		r = gr
	} else if err != nil {
		return nil, err
	} else {
		defer f.Close()
		r = f
	}

	var out []Entry
	dec := json.NewDecoder(r)
	for dec.More() {
		var e Entry
		if err := dec.Decode(&e); err != nil {
			return out, fmt.Errorf("decode %s: %w", filepath.Base(p), err)
		}
		out = append(out, e)
	}
	return out, nil
}

// Compress gzips day's file and removes the original. A file that is
// already compressed is left alone.
func Compress(dir string, day time.Time) error {
	mu.Lock()
	defer mu.Unlock()
	return compressFile(dailyFilepath(dir, day))
}

// CompressOlder compresses every daily file last written more than
// retentionDays ago.
func CompressOlder(dir string, retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := now().AddDate(0, 0, -retentionDays)

	mu.Lock()
	defer mu.Unlock()
	return filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(p, ".jsonl") {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		return compressFile(p)
	})
}

func compressFile(p string) error {
	gz := p + ".gz"
	if _, err := os.Stat(gz); err == nil {
		return os.Remove(p)
	}

	in, err := os.Open(p)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(gz, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		_ = gw.Close()
		_ = out.Close()
		_ = os.Remove(gz)
		return err
	}
	if err := gw.Close(); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(p)
}
