package deploy

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ruffel/shipit"
)

// Observer receives human-readable progress lines. A nil Observer discards them.
type Observer func(line string)

// Reporter sends progress to the observer and every event to the log sink.
// The sink is written whether or not an observer is attached.
type Reporter struct {
	observer Observer
	logger   *slog.Logger
	runID    string
	stage    Stage
}

// NewReporter creates a reporter with a fresh run ID. A nil logger discards log records.
func NewReporter(observer Observer, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	runID := uuid.NewString()

	return &Reporter{
		observer: observer,
		logger:   logger.With("run_id", runID),
		runID:    runID,
	}
}

// RunID identifies this deployment in the log sink.
func (r *Reporter) RunID() string { return r.runID }

func (r *Reporter) emit(line string) {
	if r.observer != nil {
		r.observer(line)
	}
}

// StageStarted marks the beginning of s. Later events are attributed to it.
func (r *Reporter) StageStarted(s Stage) {
	r.stage = s
	r.emit(s.Title() + "...")
	r.logger.Info("stage started", "stage", s.String())
}

// StageSucceeded records the successful end of s.
func (r *Reporter) StageSucceeded(s Stage, elapsed time.Duration) {
	r.emit("✓ " + s.Title())
	r.logger.Info("stage succeeded", "stage", s.String(), "elapsed", elapsed)
}

// StageFailed records the failure that ends the run, including the full diagnostic.
func (r *Reporter) StageFailed(s Stage, err error) {
	r.emit("✗ " + s.Title() + ": " + err.Error())
	r.logger.Error("stage failed", "stage", s.String(), "error", err.Error(), "diagnostic", shipit.Diagnostic(err))
}

// Info reports a progress message within the current stage.
func (r *Reporter) Info(msg string) {
	r.emit(msg)
	r.logger.Info(msg, "stage", r.stage.String())
}

// Warn reports a problem that does not stop the run.
func (r *Reporter) Warn(msg string, err error) {
	line := "! " + msg
	if err != nil {
		line += ": " + err.Error()
	}

	r.emit(line)
	r.logger.Warn(msg, "stage", r.stage.String(), "error", errString(err))
}

// Output forwards the captured stdout lines of a finished command.
func (r *Reporter) Output(lines []string) {
	for _, line := range lines {
		r.emit("  " + line)
		r.logger.Info("output", "stage", r.stage.String(), "line", line)
	}
}

// Finished records the outcome of the run.
func (r *Reporter) Finished(o Outcome) {
	if o.Succeeded {
		r.logger.Info("deployment succeeded", "duration", o.Duration)

		return
	}

	r.logger.Error("deployment failed", "stage", o.Stage.String(), "message", o.Message, "duration", o.Duration)
}

func errString(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}
