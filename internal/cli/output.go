package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mcoot/guildtracker/internal/model"
	"github.com/mcoot/guildtracker/internal/services/tracker"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer

	heading lipgloss.Style
	note    lipgloss.Style
	column  lipgloss.Style
}

// NewOutput creates a new Output formatter writing to w. Styling is
// dropped when w is not a terminal.
func NewOutput(format string, w io.Writer) *Output {
	r := lipgloss.NewRenderer(w)
	return &Output{
		format:  format,
		w:       w,
		heading: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")),
		note:    r.NewStyle().Faint(true),
		column:  r.NewStyle().PaddingRight(2),
	}
}

// Progress is a progress report over a requested number of days
type Progress struct {
	Days int `json:"days"`
	*tracker.ProgressReport
}

// Projection is a projection report
type Projection struct {
	*tracker.ProjectionReport
}

// History is the full stored level history
type History []model.LevelRecord

// Recorded reports rows saved for a date
type Recorded struct {
	Date     string `json:"date"`
	Recorded int    `json:"recorded"`
}

// TrackResult collects everything the track command produced
type TrackResult struct {
	Recorded
	Progress   []Progress  `json:"progress"`
	Projection *Projection `json:"projection,omitempty"`
	Notes      []string    `json:"notes,omitempty"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintNote outputs an informational line in text mode
func (o *Output) PrintNote(msg string) {
	if o.format == "json" {
		return
	}
	fmt.Fprintln(o.w, o.note.Render(msg))
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Progress:
		o.printProgress(v)
	case Projection:
		o.printProjection(v)
	case History:
		o.printHistory(v)
	case Recorded:
		o.printRecorded(v)
	case TrackResult:
		o.printTrackResult(v)
	case HealthResult:
		fmt.Fprintf(o.w, "Status: %s\n", v.Status)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printProgress(p Progress) {
	fmt.Fprintf(o.w, "\nAnalysing progress over these dates (%d days): %s\n",
		len(p.Dates), strings.Join(p.Dates, ", "))

	fmt.Fprintln(o.w)
	fmt.Fprintln(o.w, o.heading.Render(fmt.Sprintf("=== Least progress over the last %d days (top %d) ===", len(p.Dates), len(p.Worst))))
	for _, c := range p.Worst {
		o.printChange(c)
	}

	fmt.Fprintln(o.w)
	fmt.Fprintln(o.w, o.heading.Render(fmt.Sprintf("=== Most progress over the last %d days (top %d) ===", len(p.Dates), len(p.Best))))
	for _, c := range p.Best {
		o.printChange(c)
	}
}

func (o *Output) printChange(c model.MemberProgress) {
	fmt.Fprintf(o.w, "%s: %d → %d (Δ %d)\n", c.Name, c.From, c.To, c.Delta)
}

func (o *Output) printProjection(p Projection) {
	fmt.Fprintf(o.w, "\nProjecting levels %d days ahead from these dates: %s\n",
		tracker.ProjectionWindow, strings.Join(p.Dates, ", "))

	fmt.Fprintln(o.w)
	fmt.Fprintln(o.w, o.heading.Render(fmt.Sprintf("=== Projected level in %d days (top %d) ===", tracker.ProjectionWindow, len(p.Projections))))
	for _, pr := range p.Projections {
		fmt.Fprintf(o.w, "%s: %d now, Δ last %d days = %d, projected in %d days: %d\n",
			pr.Name, pr.Current, tracker.ProjectionWindow, pr.Delta, tracker.ProjectionWindow, pr.Projected)
	}
}

func (o *Output) printHistory(h History) {
	if len(h) == 0 {
		o.PrintNote("No history recorded yet.")
		return
	}

	nameWidth := len("NAME")
	for _, r := range h {
		nameWidth = max(nameWidth, lipgloss.Width(r.Name))
	}
	date := o.column.Width(len(model.DateLayout) + 2)
	name := o.column.Width(nameWidth + 2)

	fmt.Fprintln(o.w, o.heading.Render(date.Render("DATE")+name.Render("NAME")+"LEVEL"))
	for _, r := range h {
		fmt.Fprintln(o.w, date.Render(r.Date)+name.Render(r.Name)+strconv.Itoa(r.Level))
	}
}

func (o *Output) printRecorded(r Recorded) {
	if r.Recorded == 0 {
		fmt.Fprintln(o.w, "No levels to record today.")
		return
	}
	fmt.Fprintf(o.w, "Recorded %d levels for %s\n", r.Recorded, r.Date)
}

func (o *Output) printTrackResult(t TrackResult) {
	o.printRecorded(t.Recorded)
	for _, p := range t.Progress {
		o.printProgress(p)
	}
	if t.Projection != nil {
		o.printProjection(*t.Projection)
	}
	for _, n := range t.Notes {
		fmt.Fprintln(o.w)
		o.PrintNote(n)
	}
}
