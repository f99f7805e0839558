package storage

import (
	"sort"

	"github.com/mcoot/guildtracker/internal/model"
)

// SortRecords orders records by date, then member name
func SortRecords(records []model.LevelRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Date != records[j].Date {
			return records[i].Date < records[j].Date
		}
		return records[i].Name < records[j].Name
	})
}

// DistinctDates returns the sorted set of dates present in records
func DistinctDates(records []model.LevelRecord) []string {
	seen := make(map[string]struct{})
	var dates []string
	for _, r := range records {
		if _, ok := seen[r.Date]; ok {
			continue
		}
		seen[r.Date] = struct{}{}
		dates = append(dates, r.Date)
	}
	sort.Strings(dates)
	return dates
}
