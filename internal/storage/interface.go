package storage

import (
	"context"

	"github.com/mcoot/guildtracker/internal/model"
)

// Storage defines the interface for level history persistence
type Storage interface {
	// SaveLevels stores one level per member under date (YYYY-MM-DD).
	// A member already stored for that date is overwritten.
	SaveLevels(ctx context.Context, date string, levels []model.MemberLevel) error

	// GetRecords returns all history, ordered by date then name
	GetRecords(ctx context.Context) ([]model.LevelRecord, error)

	// GetDates returns the distinct dates with history, ascending
	GetDates(ctx context.Context) ([]string, error)
}
