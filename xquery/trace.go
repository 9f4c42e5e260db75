package xquery

import (
	"io"
	"log/slog"
	"os"
)

type Tracer interface {
	Enter(string)
	Leave(string)
	Error(string, error)
	Module(string, string)
}

type discardTracer struct{}

func (_ discardTracer) Enter(_ string)          {}
func (_ discardTracer) Leave(_ string)          {}
func (_ discardTracer) Error(_ string, _ error) {}
func (_ discardTracer) Module(_, _ string)      {}

type stdioTracer struct {
	logger   *slog.Logger
	depth    int
	errcount int
}

func TraceStdout() Tracer {
	return TraceWriter(os.Stdout)
}

func TraceStderr() Tracer {
	return TraceWriter(os.Stderr)
}

func TraceWriter(w io.Writer) Tracer {
	tracer := stdioTracer{
		logger: stdioLogger(w),
	}
	return &tracer
}

func stdioLogger(w io.Writer) *slog.Logger {
	opts := slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	return slog.New(slog.NewTextHandler(w, &opts))
}

func (t *stdioTracer) Enter(rule string) {
	t.depth++
	args := []any{
		"rule",
		rule,
		"depth",
		t.depth,
	}
	t.logger.Debug("start parse rule", args...)
}

func (t *stdioTracer) Leave(rule string) {
	args := []any{
		"rule",
		rule,
		"depth",
		t.depth,
	}
	t.logger.Debug("done parse rule", args...)
	t.depth--
}

func (t *stdioTracer) Error(rule string, err error) {
	t.errcount++
	args := []any{
		"rule",
		rule,
		"depth",
		t.depth,
		"count",
		t.errcount,
		"err",
		err,
	}
	t.logger.Error("parse rule failed", args...)
}

func (t *stdioTracer) Module(uri, path string) {
	args := []any{
		"uri",
		uri,
		"path",
		path,
	}
	t.logger.Info("load module", args...)
}
