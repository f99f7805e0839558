package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mcoot/guildtracker/internal/model"
	"github.com/mcoot/guildtracker/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	// date -> member name -> level
	levels map[string]map[string]int
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		levels: make(map[string]map[string]int),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) SaveLevels(ctx context.Context, date string, levels []model.MemberLevel) error {
	if len(levels) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	day, ok := s.levels[date]
	if !ok {
		day = make(map[string]int, len(levels))
		s.levels[date] = day
	}
	for _, l := range levels {
		day[l.Name] = int(l.Level)
	}
	return nil
}

func (s *Storage) GetRecords(ctx context.Context) ([]model.LevelRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []model.LevelRecord
	for date, day := range s.levels {
		for name, level := range day {
			records = append(records, model.LevelRecord{Date: date, Name: name, Level: level})
		}
	}
	storage.SortRecords(records)
	return records, nil
}

func (s *Storage) GetDates(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dates := make([]string, 0, len(s.levels))
	for date := range s.levels {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates, nil
}
