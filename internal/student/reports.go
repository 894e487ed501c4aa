package student

import (
	"context"
	"sort"
	"strings"
)

// Band is one bucket of the GPA distribution.
type Band struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

var bandLabels = [...]string{"0.0 - 1.0", "1.0 - 2.0", "2.0 - 3.0", "3.0 - 4.0"}

type ProgrammeStats struct {
	Programme    string  `json:"programme"`
	StudentCount int     `json:"studentCount"`
	AverageGPA   float64 `json:"averageGpa"`
}

type Stats struct {
	Total      int     `json:"total"`
	Active     int     `json:"active"`
	Inactive   int     `json:"inactive"`
	AverageGPA float64 `json:"averageGpa"`
}

// Filter narrows the student list. Zero values mean "any"; Query matches a
// case-insensitive substring of the id or the full name.
type Filter struct {
	Query     string
	Programme string
	Level     int
	Status    string
}

func (f Filter) matches(s *Student) bool {
	if f.Programme != "" && s.Programme != f.Programme {
		return false
	}
	if f.Level != 0 && s.Level != f.Level {
		return false
	}
	if f.Status != "" && s.Status != f.Status {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		return strings.Contains(strings.ToLower(s.ID), q) ||
			strings.Contains(strings.ToLower(s.FullName), q)
	}
	return true
}

func (s *service) Search(ctx context.Context, filter Filter) ([]Student, error) {
	all, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return keep(all, filter.matches), nil
}

// StudentsByStatus returns every student for an empty status, otherwise only
// those with exactly that status.
func (s *service) StudentsByStatus(ctx context.Context, status string) ([]Student, error) {
	return s.Search(ctx, Filter{Status: status})
}

// Stats summarises all records, active or not.
func (s *service) Stats(ctx context.Context) (Stats, error) {
	all, err := s.repo.GetAll(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Total: len(all)}
	var sum float64
	for i := range all {
		if all[i].IsActive() {
			stats.Active++
		}
		sum += all[i].GPA
	}
	stats.Inactive = stats.Total - stats.Active
	if stats.Total > 0 {
		stats.AverageGPA = sum / float64(stats.Total)
	}
	return stats, nil
}

// TopPerformers ranks active students by GPA, highest first. Nil filters are
// ignored; equal GPAs keep storage order.
func (s *service) TopPerformers(ctx context.Context, programme *string, level *int, limit int) ([]Student, error) {
	active, err := s.active(ctx)
	if err != nil {
		return nil, err
	}

	out := keep(active, func(st *Student) bool {
		if programme != nil && st.Programme != *programme {
			return false
		}
		if level != nil && st.Level != *level {
			return false
		}
		return true
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].GPA > out[j].GPA })

	if limit < 0 {
		limit = 0
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// AtRisk lists active students strictly below threshold, lowest GPA first.
func (s *service) AtRisk(ctx context.Context, threshold float64) ([]Student, error) {
	active, err := s.active(ctx)
	if err != nil {
		return nil, err
	}

	out := keep(active, func(st *Student) bool { return st.GPA < threshold })
	sort.SliceStable(out, func(i, j int) bool { return out[i].GPA < out[j].GPA })
	return out, nil
}

// GPADistribution counts active students into [0,1), [1,2), [2,3) and [3,4].
// All four bands are always present.
func (s *service) GPADistribution(ctx context.Context) ([]Band, error) {
	active, err := s.active(ctx)
	if err != nil {
		return nil, err
	}

	bands := make([]Band, len(bandLabels))
	for i, label := range bandLabels {
		bands[i].Label = label
	}
	for i := range active {
		if idx := bandIndex(active[i].GPA); idx >= 0 {
			bands[idx].Count++
		}
	}
	return bands, nil
}

func bandIndex(gpa float64) int {
	switch {
	case gpa >= 0 && gpa < 1:
		return 0
	case gpa >= 1 && gpa < 2:
		return 1
	case gpa >= 2 && gpa < 3:
		return 2
	case gpa >= 3 && gpa <= 4:
		return 3
	}
	return -1
}

// ProgrammeSummary groups active students by programme, sorted by name.
func (s *service) ProgrammeSummary(ctx context.Context) ([]ProgrammeStats, error) {
	active, err := s.active(ctx)
	if err != nil {
		return nil, err
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for i := range active {
		sums[active[i].Programme] += active[i].GPA
		counts[active[i].Programme]++
	}

	out := make([]ProgrammeStats, 0, len(counts))
	for programme, n := range counts {
		avg := 0.0
		if n > 0 {
			avg = sums[programme] / float64(n)
		}
		out = append(out, ProgrammeStats{Programme: programme, StudentCount: n, AverageGPA: avg})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Programme < out[j].Programme })
	return out, nil
}

func (s *service) active(ctx context.Context) ([]Student, error) {
	all, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return keep(all, (*Student).IsActive), nil
}

func keep(in []Student, pred func(*Student) bool) []Student {
	out := make([]Student, 0, len(in))
	for i := range in {
		if pred(&in[i]) {
			out = append(out, in[i])
		}
	}
	return out
}
