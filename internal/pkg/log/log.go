package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger 创建 Logger 并设置为 slog 默认 Logger.
//
// output 支持 "none", "stdout", "stderr", "file". 仪表盘运行时终端被界面占用, 因此默认 "none"
// 丢弃日志; 为 "file" 时需通过 filename 指定日志文件. format 支持 "json", "text".
// level 接受 slog 的级别写法 (debug, info, warn, error, 以及 "info+2" 这类偏移), debug 级别会附带源码位置.
// 返回的 cleanup 用于关闭日志文件.
func NewLogger(output, format, filename, level string) (*slog.Logger, func(), error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, nil, err
	}
	w, closer, err := openOutput(output, filename)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if closer != nil {
			_ = closer.Close()
		}
	}

	ho := &slog.HandlerOptions{Level: lvl, AddSource: lvl <= slog.LevelDebug}
	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(w, ho)
	case "text", "":
		handler = slog.NewTextHandler(w, ho)
	default:
		cleanup()
		return nil, nil, fmt.Errorf("unsupported log format: %s", format)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, cleanup, nil
}

func parseLevel(level string) (slog.Level, error) {
	if level == "" {
		return slog.LevelInfo, nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return 0, fmt.Errorf("unsupported log level: %s", level)
	}
	return lvl, nil
}

// openOutput 返回日志写入目标, 仅 file 输出需要关闭.
func openOutput(output, filename string) (io.Writer, io.Closer, error) {
	switch strings.ToLower(output) {
	case "none", "":
		return io.Discard, nil, nil
	case "stdout":
		return os.Stdout, nil, nil
	case "stderr":
		return os.Stderr, nil, nil
	case "file":
		if filename == "" {
			return nil, nil, fmt.Errorf("unable to create log file which name is null(\"\")")
		}
		f, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to create log file(%s): %w", filename, err)
		}
		return f, f, nil
	default:
		return nil, nil, fmt.Errorf("unsupported log output: %s", output)
	}
}
