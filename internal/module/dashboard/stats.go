package dashboard

import "smmon/internal/pkg/client/sacct/models"

// Stats counts top-level jobs per state. States are kept in the order they
// were first seen.
type Stats struct {
	states []string
	counts map[string]int
}

// Aggregate builds fresh Stats from jobs. .batch steps are not counted.
func Aggregate(jobs models.Jobs) Stats {
	s := Stats{counts: make(map[string]int)}
	for _, job := range jobs {
		if job.IsBatchStep() {
			continue
		}
		if _, ok := s.counts[job.State]; !ok {
			s.states = append(s.states, job.State)
		}
		s.counts[job.State]++
	}
	return s
}

// States returns the counted states in first-seen order.
func (s Stats) States() []string { return s.states }

func (s Stats) Count(state string) int { return s.counts[state] }

// Map returns a copy of the counts.
func (s Stats) Map() map[string]int {
	m := make(map[string]int, len(s.counts))
	for k, v := range s.counts {
		m[k] = v
	}
	return m
}
