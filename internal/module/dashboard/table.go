package dashboard

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"

	"smmon/config"
	"smmon/internal/pkg/client/sacct"
	"smmon/internal/pkg/client/sacct/models"
)

type Align int

const (
	AlignLeft Align = iota
	AlignRight
)

const columnSep = "  "

// Active job states shown in the table.
const (
	StateRunning = "RUNNING"
	StatePending = "PENDING"
)

var tableHeaders = []any{"JobID", "Name", "State", "Elapsed", "Memory", "CPUs"}

// JobID, Name, State and Elapsed are left aligned; Memory and CPUs right.
var tableAlign = []Align{AlignLeft, AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignRight}

// FormatRow pads every value to its column width and joins the columns with
// two spaces. A nil align leaves every column left aligned. Values wider
// than their column are kept whole.
func FormatRow(values []any, widths []int, align []Align) string {
	n := min(len(values), len(widths))
	cols := make([]string, 0, n)
	for i := 0; i < n; i++ {
		v := fmt.Sprint(values[i])
		if i < len(align) && align[i] == AlignRight {
			cols = append(cols, runewidth.FillLeft(v, widths[i]))
		} else {
			cols = append(cols, runewidth.FillRight(v, widths[i]))
		}
	}
	return strings.Join(cols, columnSep)
}

// IsActive reports whether a job in state belongs in the active-job table.
func IsActive(state string) bool {
	return state == StateRunning || state == StatePending
}

// Table renders the active-job table.
type Table struct {
	widths    []int
	nameWidth int
}

func NewTable(cols config.Columns) *Table {
	return &Table{
		widths:    []int{cols.JobID, cols.Name, cols.State, cols.Elapsed, cols.Memory, cols.CPUs},
		nameWidth: cols.Name,
	}
}

func (t *Table) Header() string {
	return FormatRow(tableHeaders, t.widths, tableAlign)
}

func (t *Table) Separator() string {
	dashes := make([]any, len(t.widths))
	for i, w := range t.widths {
		dashes[i] = strings.Repeat("-", w)
	}
	return FormatRow(dashes, t.widths, nil)
}

func (t *Table) Row(job models.Job) string {
	return FormatRow([]any{
		job.JobID,
		truncate.String(job.Name, uint(t.nameWidth)),
		job.State,
		job.Elapsed,
		sacct.FormatMemory(job.Memory),
		job.CPUs,
	}, t.widths, tableAlign)
}

// Rows formats the RUNNING and PENDING top-level jobs, keeping input order.
// .batch steps mirror their parent and are left out.
func (t *Table) Rows(jobs models.Jobs) []string {
	rows := make([]string, 0)
	for _, job := range jobs {
		if !job.IsBatchStep() && IsActive(job.State) {
			rows = append(rows, t.Row(job))
		}
	}
	return rows
}
