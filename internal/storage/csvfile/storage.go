// Package csvfile keeps level history in an append-only CSV file with a
// date,name,level header, one row per member per recorded run.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/mcoot/guildtracker/internal/model"
	"github.com/mcoot/guildtracker/internal/storage"
)

var header = []string{"date", "name", "level"}

// Storage is a CSV-file implementation of the storage interface
type Storage struct {
	path string
	mu   sync.Mutex
}

// New creates a CSV storage at path, creating its directory if needed.
// The file itself is created on the first save.
func New(path string) (*Storage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Storage{path: path}, nil
}

// Path returns the CSV file location
func (s *Storage) Path() string {
	return s.path
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) SaveLevels(ctx context.Context, date string, levels []model.MemberLevel) error {
	if len(levels) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			return err
		}
	}
	for _, l := range levels {
		if err := w.Write([]string{date, l.Name, strconv.Itoa(int(l.Level))}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Sync()
}

func (s *Storage) GetRecords(ctx context.Context) ([]model.LevelRecord, error) {
	records, _, err := s.read()
	return records, err
}

func (s *Storage) GetDates(ctx context.Context) ([]string, error) {
	_, dates, err := s.read()
	return dates, err
}

// read parses the whole file. Rows whose level is not an integer are
// left out of the records but still count towards the dates; a later row
// for the same date and name replaces an earlier one.
func (s *Storage) read() ([]model.LevelRecord, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.LevelRecord{}, []string{}, nil
		}
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	head, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []model.LevelRecord{}, []string{}, nil
		}
		return nil, nil, err
	}
	cols, err := columns(head)
	if err != nil {
		return nil, nil, err
	}

	type key struct{ date, name string }
	levels := make(map[key]int)
	dateSet := make(map[string]struct{})

	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", s.path, err)
		}
		if len(row) <= cols.max {
			continue
		}

		date, name := row[cols.date], row[cols.name]
		dateSet[date] = struct{}{}

		level, err := strconv.Atoi(row[cols.level])
		if err != nil {
			continue
		}
		levels[key{date, name}] = level
	}

	records := make([]model.LevelRecord, 0, len(levels))
	for k, level := range levels {
		records = append(records, model.LevelRecord{Date: k.date, Name: k.name, Level: level})
	}
	storage.SortRecords(records)

	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	return records, dates, nil
}

type columnIndex struct {
	date, name, level int
	max               int
}

func columns(head []string) (columnIndex, error) {
	idx := columnIndex{date: -1, name: -1, level: -1}
	for i, h := range head {
		switch h {
		case "date":
			idx.date = i
		case "name":
			idx.name = i
		case "level":
			idx.level = i
		}
	}
	if idx.date < 0 || idx.name < 0 || idx.level < 0 {
		return idx, fmt.Errorf("csv header %v lacks date,name,level columns", head)
	}
	idx.max = max(idx.date, idx.name, idx.level)
	return idx, nil
}
