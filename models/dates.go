package models

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

var dateLayouts = []string{
	time.DateOnly,
	"02/01/2006",
	"2/1/2006",
	"02/01/06",
	"2 January 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"January 2006",
	"Jan 2006",
}

// ParseDate reads the date formats used in the tournament sheet.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// When is the tournament's date for ordering, falling back to 1 January of its
// year when the date is missing or unreadable.
func (i TournamentInfo) When() time.Time {
	if t, ok := ParseDate(i.Date); ok {
		return t
	}
	return time.Date(i.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// CompareChronological orders tournaments oldest first, then by id.
func CompareChronological(a, b TournamentInfo) int {
	if c := a.When().Compare(b.When()); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Year, b.Year); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// Chronological returns the tournaments sorted oldest first.
func Chronological(tournaments []*Tournament) []*Tournament {
	out := slices.Clone(tournaments)
	slices.SortStableFunc(out, func(a, b *Tournament) int {
		return CompareChronological(a.TournamentInfo, b.TournamentInfo)
	})
	return out
}
