package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mcoot/guildtracker/internal/dependencies/clock"
	"github.com/mcoot/guildtracker/internal/model"
	"github.com/mcoot/guildtracker/internal/storage"
)

// ProgressReport ranks members by level change over a window of days
type ProgressReport struct {
	Dates []string               `json:"dates"`
	Worst []model.MemberProgress `json:"worst"`
	Best  []model.MemberProgress `json:"best"`
}

// ProjectionReport lists members by projected level
type ProjectionReport struct {
	Dates       []string                 `json:"dates"`
	Projections []model.MemberProjection `json:"projections"`
}

// Service records daily guild levels and analyses their history
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates a new tracker Service
func New(storage storage.Storage, clock clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		logger:  logger,
	}
}

// Record stores levels under today's date and returns how many were saved
func (s *Service) Record(ctx context.Context, levels []model.MemberLevel) (int, error) {
	return s.RecordOn(ctx, model.DateOf(s.clock.Now()), levels)
}

// RecordOn stores levels under the given YYYY-MM-DD date
func (s *Service) RecordOn(ctx context.Context, date string, levels []model.MemberLevel) (int, error) {
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return 0, fmt.Errorf("invalid date %q: want YYYY-MM-DD", date)
	}
	if len(levels) == 0 {
		return 0, nil
	}

	if err := s.storage.SaveLevels(ctx, date, levels); err != nil {
		return 0, fmt.Errorf("save levels for %s: %w", date, err)
	}

	s.logger.Info("recorded guild levels",
		slog.String("date", date),
		slog.Int("members", len(levels)),
	)
	return len(levels), nil
}

// Progress compares each member's level on the oldest and newest of the
// last days recorded dates and returns the top slowest and fastest.
// Only members recorded on every date of the window are ranked.
func (s *Service) Progress(ctx context.Context, days, top int) (*ProgressReport, error) {
	if days < 2 {
		return nil, fmt.Errorf("progress window must cover at least 2 days, got %d", days)
	}

	records, dates, err := s.history(ctx)
	if err != nil {
		return nil, err
	}
	if len(dates) < 2 {
		return nil, fmt.Errorf("%w: have %d, need at least 2", model.ErrInsufficientHistory, len(dates))
	}

	w := newWindow(records, dates, days)
	changes := w.complete()
	if len(changes) == 0 {
		return nil, model.ErrNoCompleteMembers
	}

	worst, best := rankProgress(changes, top)
	return &ProgressReport{Dates: w.dates, Worst: worst, Best: best}, nil
}

// Projection predicts each member's level ProjectionWindow days ahead,
// assuming they keep the pace of the last ProjectionWindow recorded days
func (s *Service) Projection(ctx context.Context, top int) (*ProjectionReport, error) {
	records, dates, err := s.history(ctx)
	if err != nil {
		return nil, err
	}
	if len(dates) < ProjectionWindow {
		return nil, fmt.Errorf("%w: have %d, need %d", model.ErrInsufficientHistory, len(dates), ProjectionWindow)
	}

	w := newWindow(records, dates, ProjectionWindow)
	changes := w.complete()
	if len(changes) == 0 {
		return nil, model.ErrNoCompleteMembers
	}

	return &ProjectionReport{Dates: w.dates, Projections: project(changes, top)}, nil
}

// History returns every stored record
func (s *Service) History(ctx context.Context) ([]model.LevelRecord, error) {
	return s.storage.GetRecords(ctx)
}

func (s *Service) history(ctx context.Context) ([]model.LevelRecord, []string, error) {
	records, err := s.storage.GetRecords(ctx)
	if err != nil {
		return nil, nil, err
	}
	dates, err := s.storage.GetDates(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 && len(dates) == 0 {
		return nil, nil, model.ErrNoHistory
	}
	return records, dates, nil
}
