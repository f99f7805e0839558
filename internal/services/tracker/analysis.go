package tracker

import (
	"sort"

	"github.com/mcoot/guildtracker/internal/model"
)

// ProjectionWindow is the number of recorded days a projection looks
// back over, and the number of days it projects forward.
const ProjectionWindow = 7

// window is the level history restricted to a run of dates
type window struct {
	dates  []string
	levels map[string]map[string]int // name -> date -> level
}

// newWindow keeps records on the last n distinct dates (all dates if fewer)
func newWindow(records []model.LevelRecord, dates []string, n int) *window {
	if n < len(dates) {
		dates = dates[len(dates)-n:]
	}

	inWindow := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		inWindow[d] = struct{}{}
	}

	levels := make(map[string]map[string]int)
	for _, r := range records {
		if _, ok := inWindow[r.Date]; !ok {
			continue
		}
		byDate, ok := levels[r.Name]
		if !ok {
			byDate = make(map[string]int, len(dates))
			levels[r.Name] = byDate
		}
		byDate[r.Date] = r.Level
	}

	return &window{dates: dates, levels: levels}
}

// complete returns, sorted by name, the members with a level on every
// date of the window, along with their oldest and newest levels
func (w *window) complete() []model.MemberProgress {
	names := make([]string, 0, len(w.levels))
	for name := range w.levels {
		names = append(names, name)
	}
	sort.Strings(names)

	oldest, newest := w.dates[0], w.dates[len(w.dates)-1]

	var out []model.MemberProgress
	for _, name := range names {
		byDate := w.levels[name]
		if len(byDate) != len(w.dates) {
			continue
		}
		from, to := byDate[oldest], byDate[newest]
		out = append(out, model.MemberProgress{Name: name, From: from, To: to, Delta: to - from})
	}
	return out
}

// rankProgress sorts by delta ascending and returns the top slowest and
// the top fastest members. Ties keep name order in the slow list, and so
// appear in reverse name order in the fast list.
func rankProgress(changes []model.MemberProgress, top int) (worst, best []model.MemberProgress) {
	sorted := make([]model.MemberProgress, len(changes))
	copy(sorted, changes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Delta < sorted[j].Delta
	})

	worst = limit(sorted, top)

	reversed := make([]model.MemberProgress, len(sorted))
	for i, c := range sorted {
		reversed[len(sorted)-1-i] = c
	}
	best = limit(reversed, top)

	return worst, best
}

// project extrapolates each member's delta forward and sorts by the
// projected level, highest first, ties in name order
func project(changes []model.MemberProgress, top int) []model.MemberProjection {
	projections := make([]model.MemberProjection, len(changes))
	for i, c := range changes {
		projections[i] = model.MemberProjection{
			Name:      c.Name,
			From:      c.From,
			Current:   c.To,
			Delta:     c.Delta,
			Projected: c.To + c.Delta,
		}
	}
	sort.SliceStable(projections, func(i, j int) bool {
		return projections[i].Projected > projections[j].Projected
	})
	return limit(projections, top)
}

func limit[T any](items []T, n int) []T {
	if n < 0 || n >= len(items) {
		return items
	}
	return items[:n]
}
