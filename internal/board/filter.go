package board

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/adriangreen/taskboard/internal/tasks"
)

// Filter selects which tasks are displayed.
type Filter int

const (
	FilterAll Filter = iota
	FilterCompleted
	FilterActive
)

// Filters lists every filter in display order.
var Filters = []Filter{FilterAll, FilterCompleted, FilterActive}

func (f Filter) String() string {
	switch f {
	case FilterCompleted:
		return "completed"
	case FilterActive:
		return "active"
	default:
		return "all"
	}
}

// ParseFilter converts a filter name back into a Filter.
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	case "completed", "done":
		return FilterCompleted, nil
	case "active", "pending":
		return FilterActive, nil
	}
	return FilterAll, fmt.Errorf("unknown filter %q", s)
}

// Match reports whether t belongs to the filtered view.
func (f Filter) Match(t tasks.Task) bool {
	switch f {
	case FilterCompleted:
		return t.Completed
	case FilterActive:
		return !t.Completed
	default:
		return true
	}
}

// Apply returns the subsequence of list matching f. list is never modified.
func Apply(list []tasks.Task, f Filter) []tasks.Task {
	out := make([]tasks.Task, 0, len(list))
	for _, t := range list {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// titleSource adapts a task slice to fuzzy.Source.
type titleSource []tasks.Task

func (s titleSource) String(i int) string { return s[i].Title }
func (s titleSource) Len() int            { return len(s) }

// Search keeps the tasks whose title fuzzy-matches query, in list order.
// An empty query returns list unchanged.
func Search(list []tasks.Task, query string) []tasks.Task {
	query = strings.TrimSpace(query)
	if query == "" {
		return list
	}

	matches := fuzzy.FindFrom(query, titleSource(list))
	idx := make([]int, 0, len(matches))
	for _, m := range matches {
		idx = append(idx, m.Index)
	}
	slices.Sort(idx)

	out := make([]tasks.Task, 0, len(idx))
	for _, i := range idx {
		out = append(out, list[i])
	}
	return out
}
