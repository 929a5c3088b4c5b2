package model

import "strings"

// Filter selects which items a list view shows.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// ParseFilter accepts all|active|completed (and the older
// pending|done spellings). Unknown input falls back to FilterAll.
func ParseFilter(s string) Filter {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active", "pending", "todo":
		return FilterActive
	case "completed", "done":
		return FilterCompleted
	default:
		return FilterAll
	}
}

// Next cycles all -> active -> completed -> all.
func (f Filter) Next() Filter {
	switch f {
	case FilterAll:
		return FilterActive
	case FilterActive:
		return FilterCompleted
	default:
		return FilterAll
	}
}

// Match reports whether it passes the filter.
func Match[ID Key](f Filter, it Item[ID]) bool {
	switch f {
	case FilterActive:
		return !it.IsCompleted
	case FilterCompleted:
		return it.IsCompleted
	default:
		return true
	}
}

// Apply returns the items passing f, in order. The input is not modified.
func Apply[ID Key](f Filter, items []Item[ID]) []Item[ID] {
	out := make([]Item[ID], 0, len(items))
	for _, it := range items {
		if Match(f, it) {
			out = append(out, it)
		}
	}
	return out
}

// Stats are list counters shown in headers.
type Stats struct {
	Total     int
	Completed int
	Active    int
}

// StatsOf counts items by completion.
func StatsOf[ID Key](items []Item[ID]) Stats {
	var s Stats
	for _, it := range items {
		s.Total++
		if it.IsCompleted {
			s.Completed++
		} else {
			s.Active++
		}
	}
	return s
}
