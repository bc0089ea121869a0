// Package analyzer runs the external content analyzer and decodes the
// candidate relationships it reports.
package analyzer

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/athapong/kg-enricher/pkg/graph"
	"github.com/athapong/kg-enricher/pkg/graph/metrics"
	"github.com/athapong/kg-enricher/pkg/graph/storage"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	maxLineSize   = 1024 * 1024
	stderrTailLen = 20
	waitDelay     = 2 * time.Second
)

// Config holds the analyzer invocation settings
type Config struct {
	// Interpreter runs the script, e.g. "python3". Empty runs the script directly.
	Interpreter string

	// Script is the analyzer entry point
	Script string

	// Timeout bounds a single invocation; zero means no limit
	Timeout time.Duration
}

// Runner invokes the analyzer as `<interpreter> <script> <input> <output>`
// using the staging store for both files.
type Runner struct {
	cfg     Config
	staging *storage.StagingStore
	logger  logrus.FieldLogger
}

// NewRunner creates an analyzer runner
func NewRunner(cfg Config, staging *storage.StagingStore, logger logrus.FieldLogger) *Runner {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Runner{
		cfg:     cfg,
		staging: staging,
		logger:  logger.WithField("component", "analyzer"),
	}
}

// Analyze writes the node export, runs the analyzer to completion and
// returns its raw output. Any failure is an analyzer error.
func (r *Runner) Analyze(ctx context.Context, nodes []graph.ExportedNode) ([]byte, error) {
	const op = "analyzer.Analyze"

	if _, err := os.Stat(r.cfg.Script); err != nil {
		metrics.AnalyzerRuns.WithLabelValues("missing").Inc()
		return nil, graph.E(op, graph.KindAnalyzer, errors.Wrapf(err, "analyzer script %s", r.cfg.Script))
	}

	if err := r.staging.WriteExport(ctx, nodes); err != nil {
		return nil, graph.E(op, graph.KindAnalyzer, err)
	}
	if err := r.staging.ClearOutput(); err != nil {
		return nil, graph.E(op, graph.KindAnalyzer, err)
	}

	parent := ctx
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	name, args := r.command()
	cmd := exec.CommandContext(ctx, name, args...)
	configureProcessGroup(cmd)
	cmd.WaitDelay = waitDelay

	// Wait owns the copying; pipes still held open by grandchildren are
	// closed once waitDelay has passed.
	tail := newLineTail(stderrTailLen)
	stdout := newLineWriter(func(line string) {
		r.logger.WithField("stream", "stdout").Debug(line)
	})
	stderr := newLineWriter(func(line string) {
		tail.add(line)
		r.logger.WithField("stream", "stderr").Debug(line)
	})
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	r.logger.WithFields(logrus.Fields{
		"command": name,
		"args":    args,
		"nodes":   len(nodes),
	}).Info("Starting analyzer")

	start := time.Now()
	if err := cmd.Start(); err != nil {
		metrics.AnalyzerRuns.WithLabelValues("start_failed").Inc()
		return nil, graph.E(op, graph.KindAnalyzer, errors.Wrap(err, "starting analyzer"))
	}

	waitErr := cmd.Wait()
	stdout.Flush()
	stderr.Flush()
	duration := time.Since(start)

	log := r.logger.WithField("duration", duration)

	if err := parent.Err(); err != nil {
		if err == context.DeadlineExceeded {
			metrics.AnalyzerRuns.WithLabelValues("timeout").Inc()
			return nil, graph.Errorf(op, graph.KindAnalyzer, "analyzer stopped at caller deadline after %v",
				duration.Round(time.Millisecond))
		}
		metrics.AnalyzerRuns.WithLabelValues("cancelled").Inc()
		return nil, graph.E(op, graph.KindAnalyzer, errors.Wrap(err, "analyzer cancelled"))
	}
	if ctx.Err() == context.DeadlineExceeded {
		metrics.AnalyzerRuns.WithLabelValues("timeout").Inc()
		return nil, graph.Errorf(op, graph.KindAnalyzer, "analyzer timed out after %v", r.cfg.Timeout)
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.As(waitErr, &exitErr):
			metrics.AnalyzerRuns.WithLabelValues("failed").Inc()
			log.WithField("exit_code", exitErr.ExitCode()).Error("Analyzer failed")
			return nil, graph.Errorf(op, graph.KindAnalyzer, "analyzer exited with status %d: %s",
				exitErr.ExitCode(), tail.String())
		case errors.Is(waitErr, exec.ErrWaitDelay):
			// exited cleanly but a child process kept the output streams open
			log.Warn("Analyzer output streams still open after exit, closed them")
		default:
			metrics.AnalyzerRuns.WithLabelValues("failed").Inc()
			return nil, graph.E(op, graph.KindAnalyzer, errors.Wrap(waitErr, "waiting for analyzer"))
		}
	}

	output, err := r.staging.ReadOutput(ctx)
	if err != nil {
		metrics.AnalyzerRuns.WithLabelValues("no_output").Inc()
		return nil, graph.E(op, graph.KindAnalyzer, err)
	}

	metrics.AnalyzerRuns.WithLabelValues("success").Inc()
	log.WithField("output_bytes", len(output)).Info("Analyzer finished")
	return output, nil
}

func (r *Runner) command() (string, []string) {
	args := []string{r.cfg.Script, r.staging.InputPath(), r.staging.OutputPath()}
	if r.cfg.Interpreter == "" {
		return args[0], args[1:]
	}
	return r.cfg.Interpreter, args
}

// lineWriter splits what is written to it into lines and hands each
// line to fn. Lines longer than maxLineSize are cut.
type lineWriter struct {
	buf []byte
	fn  func(string)
}

func newLineWriter(fn func(string)) *lineWriter {
	return &lineWriter{fn: fn}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.emit(w.buf[:i])
		w.buf = w.buf[i+1:]
	}
	if len(w.buf) >= maxLineSize {
		w.emit(w.buf)
		w.buf = w.buf[:0]
	}
	return len(p), nil
}

// Flush emits a trailing line that had no newline
func (w *lineWriter) Flush() {
	if len(w.buf) > 0 {
		w.emit(w.buf)
		w.buf = nil
	}
}

func (w *lineWriter) emit(line []byte) {
	w.fn(strings.TrimRight(string(line), "\r"))
}

// lineTail keeps the last n lines written to it
type lineTail struct {
	mu    sync.Mutex
	lines []string
	n     int
}

func newLineTail(n int) *lineTail {
	return &lineTail{n: n}
}

func (t *lineTail) add(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if len(t.lines) > t.n {
		t.lines = t.lines[len(t.lines)-t.n:]
	}
}

func (t *lineTail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.TrimSpace(strings.Join(t.lines, "\n"))
}
