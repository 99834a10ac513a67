package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"playerxfer.ai/internal/transfer"
)

const (
	filePrefix = "transfers-"
	fileSuffix = ".jsonl.zst"
)

// Entry is one journal line.
type Entry struct {
	transfer.Report
	Status string `json:"status"`
	Step   string `json:"step"`
	Error  string `json:"error,omitempty"`
}

func NewEntry(rep transfer.Report, runErr error) Entry {
	e := Entry{Report: rep, Status: "ok", Step: transfer.Step(runErr)}
	if runErr != nil {
		e.Status = "failed"
		e.Error = runErr.Error()
	}
	return e
}

// Writer appends entries to one zstd-compressed JSONL file per UTC day.
// Each append is its own zstd frame so a crash never corrupts earlier lines.
type Writer struct {
	dir string
	now func() time.Time

	mu sync.Mutex
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, now: func() time.Time { return time.Now().UTC() }}
}

// RecordRun implements transfer.Recorder.
func (w *Writer) RecordRun(rep transfer.Report, runErr error) error {
	return w.Write(NewEntry(rep, runErr))
}

func (w *Writer) Write(e Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	path := w.pathForDay(w.now().Format("2006-01-02"))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	bw := bufio.NewWriter(enc)
	if _, err := bw.Write(b); err != nil {
		enc.Close()
		_ = f.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		enc.Close()
		_ = f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		_ = f.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (w *Writer) pathForDay(day string) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s%s%s", filePrefix, day, fileSuffix))
}

// ReadDir returns every entry in dir, oldest file first, in append order.
func ReadDir(dir string) ([]Entry, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileSuffix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var out []Entry
	for _, name := range names {
		got, err := readFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		out = append(out, got...)
	}
	return out, nil
}

func readFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []Entry
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
		}
		out = append(out, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return out, nil
}
