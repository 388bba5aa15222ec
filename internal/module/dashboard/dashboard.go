// Package dashboard draws the periodically refreshed job monitor.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"smmon/config"
	"smmon/internal/pkg/client/sacct/models"
	"smmon/internal/pkg/terminal"
)

const (
	Title      = "Snakemake Slurm Monitor"
	HelpText   = "Press 'q' to quit"
	QuitKey    = 'q'
	timeLayout = "2006-01-02 15:04:05"

	statsRow = 4
)

// ErrRender wraps any screen fault raised while drawing a frame.
var ErrRender = errors.New("unable to render frame")

// JobSource returns the accounting records of one refresh cycle.
type JobSource interface {
	GetJobs(ctx context.Context, workflowID string) (models.Jobs, error)
}

// Dashboard runs the query, aggregate, draw, wait cycle until the quit key
// is pressed.
type Dashboard struct {
	cfg    config.Dashboard
	screen Screen
	source JobSource
	table  *Table
	logger *slog.Logger
	now    func() time.Time

	stats Stats
}

func New(cfg config.Dashboard, screen Screen, source JobSource, logger *slog.Logger) *Dashboard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dashboard{
		cfg:    cfg,
		screen: screen,
		source: source,
		table:  NewTable(cfg.Columns),
		logger: logger,
		now:    time.Now,
	}
}

// Run initializes the screen and refreshes it until the quit key is pressed
// or ctx is done. The screen is released before Run returns.
func (d *Dashboard) Run(ctx context.Context) (err error) {
	if err := d.screen.Init(); err != nil {
		return fmt.Errorf("unable to initialize screen: %w", err)
	}
	defer func() {
		if cerr := d.screen.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("unable to release screen: %w", cerr)
		}
	}()
	d.stats = Stats{}

	for {
		quit, err := d.Cycle(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if quit {
			d.logger.Info("quit key pressed, stopping dashboard")
			return nil
		}
	}
}

// Cycle performs one refresh: query, parse, aggregate, draw, then wait up to
// the refresh rate for a key. It reports true when the quit key was pressed.
// Drawing faults are logged and the frame is dropped; only a failing key
// read is returned as an error.
func (d *Dashboard) Cycle(ctx context.Context) (bool, error) {
	if err := d.screen.Clear(); err != nil {
		d.logger.Debug("unable to clear screen", "err", err)
	}

	jobs, qerr := d.source.GetJobs(ctx, d.cfg.WorkflowID)
	if qerr != nil {
		d.logger.Warn("accounting query failed", "workflow", d.cfg.WorkflowID, "err", qerr)
	}
	d.stats = Aggregate(jobs)
	d.logger.Debug("accounting refreshed", "records", len(jobs), "stats", d.stats.Map())

	if err := d.draw(jobs, qerr); err != nil {
		d.logger.Debug("frame dropped", "err", err)
	}

	key, ok, err := d.screen.ReadKey(ctx, d.cfg.Interval())
	if err != nil {
		return false, fmt.Errorf("unable to read key: %w", err)
	}
	return ok && key == QuitKey, nil
}

func (d *Dashboard) draw(jobs models.Jobs, qerr error) error {
	if err := d.drawHeader(qerr); err != nil {
		return err
	}
	line, err := d.drawStats(statsRow)
	if err != nil {
		return err
	}
	line, err = d.drawTable(line, jobs)
	if err != nil {
		return err
	}
	if err := d.write(line+1, 0, HelpText, terminal.AttrNormal); err != nil {
		return err
	}
	if err := d.screen.Refresh(); err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	return nil
}

func (d *Dashboard) drawHeader(qerr error) error {
	workflow := d.cfg.WorkflowID
	if workflow == "" {
		workflow = "All"
	}
	if err := d.write(0, 0, Title, terminal.AttrBold); err != nil {
		return err
	}
	if err := d.write(1, 0, "Workflow ID: "+workflow, terminal.AttrNormal); err != nil {
		return err
	}
	if err := d.write(2, 0, "Last updated: "+d.now().Format(timeLayout), terminal.AttrNormal); err != nil {
		return err
	}
	if d.cfg.ShowErrors && qerr != nil {
		return d.write(3, 0, "Backend error: "+qerr.Error(), terminal.AttrBold)
	}
	return nil
}

// drawStats returns the row the next section starts on.
func (d *Dashboard) drawStats(start int) (int, error) {
	if err := d.write(start, 0, "Job Statistics:", terminal.AttrBold); err != nil {
		return 0, err
	}
	line := start + 1
	for _, state := range d.stats.States() {
		if err := d.write(line, 2, fmt.Sprintf("%s: %d", state, d.stats.Count(state)), terminal.AttrNormal); err != nil {
			return 0, err
		}
		line++
	}
	return line + 1, nil
}

func (d *Dashboard) drawTable(start int, jobs models.Jobs) (int, error) {
	if err := d.write(start, 0, "Active Jobs:", terminal.AttrBold); err != nil {
		return 0, err
	}
	if err := d.write(start+1, 0, d.table.Header(), terminal.AttrBold); err != nil {
		return 0, err
	}
	if err := d.write(start+2, 0, d.table.Separator(), terminal.AttrNormal); err != nil {
		return 0, err
	}
	line := start + 3
	for _, row := range d.table.Rows(jobs) {
		if err := d.write(line, 0, row, terminal.AttrNormal); err != nil {
			return 0, err
		}
		line++
	}
	return line + 1, nil
}

func (d *Dashboard) write(row, col int, text string, attr terminal.Attr) error {
	if err := d.screen.Write(row, col, text, attr); err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	return nil
}
