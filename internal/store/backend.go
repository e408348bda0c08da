package store

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"leadcrm-engine/internal/rawsource"
	"leadcrm-engine/internal/table"
)

// Backend is where the roster table lives between runs.
type Backend interface {
	Name() string
	Exists(ctx context.Context) (bool, error)
	Read(ctx context.Context) (table.Table, error)
	Write(ctx context.Context, t table.Table) error
	Close() error
}

// CSVFile keeps the roster as a UTF-8 CSV file with a header row.
type CSVFile struct {
	Path string
}

func NewCSVFile(path string) *CSVFile { return &CSVFile{Path: path} }

func (f *CSVFile) Name() string { return "csv:" + f.Path }

func (f *CSVFile) Exists(context.Context) (bool, error) {
	st, err := os.Stat(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !st.IsDir(), nil
}

func (f *CSVFile) Read(context.Context) (table.Table, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return table.Table{}, err
	}
	b, err = rawsource.DecodeText(b)
	if err != nil {
		return table.Table{}, fmt.Errorf("decode %s: %w", f.Path, err)
	}
	return rawsource.ParseCSV(b)
}

// Write replaces the file through a temp file and rename, so a crash leaves
// either the old roster or the new one.
func (f *CSVFile) Write(_ context.Context, t table.Table) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Columns); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return err
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func (f *CSVFile) Close() error { return nil }
