package sacct

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"reflect"
	"strings"
	"testing"
)

const sampleOutput = `100|wf_align|RUNNING|2024-01-01T00:00|Unknown|00:10:00|512K|4
100.batch|wf_align|RUNNING|2024-01-01T00:00|Unknown|00:10:00|480K|4
101|wf_sort|PENDING|Unknown|Unknown|00:00:00||1
102|wf_sort|COMPLETED|2024-01-01T00:00|2024-01-01T00:05|00:05:00|1G|2
garbage line`

// helper: build fake exec that returns output based on args
func fakeExec(outputFn func(name string, args ...string) string) ExecCommandFunc {
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		// Use sh -c to emit prebuilt content
		script := fmt.Sprintf("cat <<'EOF'\n%s\nEOF\n", outputFn(name, args...))
		return exec.CommandContext(ctx, "sh", "-c", script)
	}
}

func TestArgs(t *testing.T) {
	all := Args("")
	want := []string{"-n", "-o", Format, "--parsable2"}
	if !reflect.DeepEqual(all, want) {
		t.Fatalf("Args(\"\") = %v, want %v", all, want)
	}

	scoped := Args("wf1")
	want = append(want, "-W", "wf1")
	if !reflect.DeepEqual(scoped, want) {
		t.Fatalf("Args(wf1) = %v, want %v", scoped, want)
	}
}

func TestQuery_PassesWorkflowAndTrimsLines(t *testing.T) {
	var gotName string
	var gotArgs []string
	c := (&Client{}).Set(fakeExec(func(name string, args ...string) string {
		gotName = name
		gotArgs = args
		return "  a|b  \n\nc|d"
	}), nil)

	lines, err := c.Query(context.Background(), "wf42")
	if err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if gotName != DefaultCommand {
		t.Errorf("command = %q, want %q", gotName, DefaultCommand)
	}
	if n := len(gotArgs); n < 2 || gotArgs[n-2] != "-W" || gotArgs[n-1] != "wf42" {
		t.Errorf("workflow filter not passed: %v", gotArgs)
	}
	want := []string{"a|b", "", "c|d"}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("lines = %q, want %q", lines, want)
	}
}

func TestQuery_EmptyOutput(t *testing.T) {
	c := (&Client{}).Set(fakeExec(func(string, ...string) string { return "" }), nil)
	lines, err := c.Query(context.Background(), "")
	if err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("expected no lines, got %q", lines)
	}
}

func TestQuery_CustomCommand(t *testing.T) {
	var gotName string
	c := &Client{command: "sacct-wrapper"}
	c.Set(fakeExec(func(name string, args ...string) string {
		gotName = name
		return ""
	}), nil)
	if _, err := c.Query(context.Background(), ""); err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if gotName != "sacct-wrapper" {
		t.Errorf("command = %q, want sacct-wrapper", gotName)
	}
}

func TestQuery_BackendFailure(t *testing.T) {
	c := (&Client{}).Set(func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "sh", "-c", "echo '1|a|RUNNING|s|e|el|m|1'; echo boom >&2; exit 3")
	}, nil)

	lines, err := c.Query(context.Background(), "")
	if !errors.Is(err, ErrBackend) {
		t.Fatalf("expected ErrBackend, got %v", err)
	}
	if len(lines) != 1 || lines[0] != "1|a|RUNNING|s|e|el|m|1" {
		t.Errorf("partial stdout not returned: %q", lines)
	}
}

func TestGetJobs(t *testing.T) {
	c := (&Client{}).Set(fakeExec(func(string, ...string) string { return sampleOutput }), nil)
	jobs, err := c.GetJobs(context.Background(), "")
	if err != nil {
		t.Fatalf("GetJobs error: %v", err)
	}
	if len(jobs) != 4 {
		t.Fatalf("expected 4 jobs, got %d", len(jobs))
	}
	if jobs[1].JobID != "100.batch" || !jobs[1].IsBatchStep() {
		t.Errorf("second job should be the batch step, got %+v", jobs[1])
	}
	if jobs[2].Memory != "" || jobs[2].CPUs != "1" {
		t.Errorf("unexpected memory/cpus for 101: %+v", jobs[2])
	}
}

func TestQuery_LongLine(t *testing.T) {
	long := "1|" + strings.Repeat("x", 80*1024) + "|RUNNING|s|e|el|m|1"
	c := (&Client{}).Set(fakeExec(func(string, ...string) string {
		return long + "\n2|b|PENDING|s|e|el|m|1"
	}), nil)

	jobs, err := c.GetJobs(context.Background(), "")
	if err != nil {
		t.Fatalf("GetJobs error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs after a long line, got %d", len(jobs))
	}
	if jobs[1].JobID != "2" || len(jobs[0].Name) != 80*1024 {
		t.Errorf("unexpected jobs: %q %d", jobs[1].JobID, len(jobs[0].Name))
	}
}
