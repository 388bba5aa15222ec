package sacct

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"smmon/internal/pkg/client/sacct/models"
)

// DefaultCommand is the accounting binary invoked when none is configured.
const DefaultCommand = "sacct"

// Format is the sacct field list, in the order ParseJob expects them.
const Format = "JobID,JobName,State,Start,End,Elapsed,MaxRSS,NCPUS"

// ErrBackend is returned when the accounting command could not be run or
// exited non-zero.
var ErrBackend = errors.New("sacct backend failure")

// ExecCommandFunc 定义 exec.CommandContext 的函数签名，方便 mock 测试.
type ExecCommandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// Client 通过执行 sacct 命令获取作业记账信息.
type Client struct {
	command     string
	execCommand ExecCommandFunc
	logger      *slog.Logger
}

// New returns a Client running command (DefaultCommand when empty) through
// exec.CommandContext.
func New(command string, logger *slog.Logger) *Client {
	c := &Client{command: command}
	return c.Set(exec.CommandContext, logger)
}

func (c *Client) Set(exec ExecCommandFunc, logger *slog.Logger) *Client {
	c.execCommand = exec
	c.logger = logger
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Args returns the sacct arguments for an optional workflow id.
// sacct -n -o JobID,JobName,State,Start,End,Elapsed,MaxRSS,NCPUS --parsable2 [-W workflow]
func Args(workflowID string) []string {
	args := []string{"-n", "-o", Format, "--parsable2"}
	if workflowID != "" {
		args = append(args, "-W", workflowID)
	}
	return args
}

// Query runs sacct and returns its stdout split into trimmed lines. Empty
// output yields no lines. A failed run still returns whatever stdout was
// produced, together with an error wrapping ErrBackend.
func (c *Client) Query(ctx context.Context, workflowID string) ([]string, error) {
	name := c.command
	if name == "" {
		name = DefaultCommand
	}
	cmd := c.execCommand(ctx, name, Args(workflowID)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, runErr := cmd.Output()
	c.logger.Debug("executed accounting query", "cmd", cmd.String(), "bytes", len(out))

	lines := splitLines(out)
	if runErr != nil {
		c.logger.Warn("failed to exec sacct command", "cmd", cmd.String(), "stderr", strings.TrimSpace(stderr.String()), "err", runErr)
		return lines, fmt.Errorf("%w: %s: %v", ErrBackend, cmd.String(), runErr)
	}
	return lines, nil
}

// GetJobs runs Query and parses the result, dropping malformed lines.
func (c *Client) GetJobs(ctx context.Context, workflowID string) (models.Jobs, error) {
	lines, err := c.Query(ctx, workflowID)
	jobs := ParseJobs(lines)
	if dropped := countNonEmpty(lines) - len(jobs); dropped > 0 {
		c.logger.Debug("invalid sacct output lines, skip", "count", dropped)
	}
	return jobs, err
}

// splitLines splits raw output on newlines without a line length limit.
func splitLines(out []byte) []string {
	text := strings.TrimSpace(string(out))
	// 输出全为空白时视为无作业
	if text == "" {
		return []string{}
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return lines
}

func countNonEmpty(lines []string) int {
	n := 0
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			n++
		}
	}
	return n
}
