package pipeline

import (
	"time"
)

// StageErrorKind enumerates structured stage error categories.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying the stage name and its
// classification.
type StageError struct {
	Kind  StageErrorKind
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return string(e.Kind) + " stage " + e.Stage + ": " + e.Err.Error()
}
func (e *StageError) Unwrap() error { return e.Err }

func newFatalStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}
func newWarnStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}
func newCanceledStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// BuildReport summarizes one pipeline run.
type BuildReport struct {
	BuildID string
	Start   time.Time
	End     time.Time

	Articles     int
	Pages        int
	StaticFiles  int
	FailedPaths  int

	Errors          []error
	Warnings        []error
	StageDurations  map[string]time.Duration
	StageErrorKinds map[string]StageErrorKind
	Outcome         string
}

func newBuildReport(buildID string) *BuildReport {
	return &BuildReport{
		BuildID:         buildID,
		Start:           time.Now(),
		StageDurations:  map[string]time.Duration{},
		StageErrorKinds: map[string]StageErrorKind{},
	}
}

// finish stamps the end time and derives the overall outcome.
func (r *BuildReport) finish() {
	r.End = time.Now()
	switch {
	case len(r.Errors) > 0:
		r.Outcome = "failed"
	case len(r.Warnings) > 0:
		r.Outcome = "partial"
	default:
		r.Outcome = "success"
	}
}

// Duration is the wall-clock time of the run.
func (r *BuildReport) Duration() time.Duration { return r.End.Sub(r.Start) }
