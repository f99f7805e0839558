package model

import "time"

// DateLayout is the format used for history dates
const DateLayout = "2006-01-02"

// LevelRecord is one member's level on one day
type LevelRecord struct {
	Date  string `json:"date"`
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// DateOf formats t as a history date in t's location
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}

// MemberProgress describes how a member's level changed across a window of days
type MemberProgress struct {
	Name  string `json:"name"`
	From  int    `json:"from"`
	To    int    `json:"to"`
	Delta int    `json:"delta"`
}

// MemberProjection extrapolates a member's recent progress forward
type MemberProjection struct {
	Name      string `json:"name"`
	From      int    `json:"from"`
	Current   int    `json:"current"`
	Delta     int    `json:"delta"`
	Projected int    `json:"projected"`
}
