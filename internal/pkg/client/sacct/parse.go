package sacct

import (
	"strings"

	"smmon/internal/pkg/client/sacct/models"
)

// fieldCount is the number of --parsable2 fields requested by Format.
const fieldCount = 8

// ParseJob converts one line of --parsable2 output into a Job. It reports
// false for blank lines and for lines with fewer than eight fields; fields
// past the eighth are ignored.
func ParseJob(line string) (models.Job, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return models.Job{}, false
	}
	fields := strings.Split(line, "|")
	if len(fields) < fieldCount {
		return models.Job{}, false
	}
	return models.Job{
		JobID:   fields[0],
		Name:    fields[1],
		State:   fields[2],
		Start:   fields[3],
		End:     fields[4],
		Elapsed: fields[5],
		Memory:  fields[6],
		CPUs:    fields[7],
	}, true
}

// ParseJobs parses every line and keeps only the well-formed records.
func ParseJobs(lines []string) models.Jobs {
	jobs := make(models.Jobs, 0, len(lines))
	for _, line := range lines {
		if job, ok := ParseJob(line); ok {
			jobs = append(jobs, job)
		}
	}
	return jobs
}

// FormatMemory returns the display value of a MaxRSS field. Unknown memory
// is shown as "0"; anything else is passed through unchanged.
func FormatMemory(memory string) string {
	if memory == "" {
		return "0"
	}
	return memory
}
