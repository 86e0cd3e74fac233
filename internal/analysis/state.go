package analysis

import "github.com/Jonnydevp/FitPose/internal/exercise"

// State is the externally visible lifecycle value of a Controller.
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

func (s State) String() string { return string(s) }

// Terminal reports whether s ends an attempt.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// FileInfo is the part of a selected file that is safe to show and keep.
type FileInfo struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MIMEType string `json:"mimeType"`
}

// phase is the tagged union behind State. Each variant carries only the data
// that exists in that state.
type phase interface {
	state() State
}

type idlePhase struct{}

type validatingPhase struct {
	file FileInfo
}

type submittingPhase struct {
	exercise  exercise.Exercise
	file      FileInfo
	requestID string
	token     uint64
	cancel    func()
	done      chan struct{}
}

type succeededPhase struct {
	exercise  exercise.Exercise
	file      FileInfo
	requestID string
	result    *Result
}

type failedPhase struct {
	file      *FileInfo
	requestID string
	err       *Error
}

func (idlePhase) state() State       { return StateIdle }
func (validatingPhase) state() State { return StateValidating }
func (submittingPhase) state() State { return StateSubmitting }
func (succeededPhase) state() State  { return StateSucceeded }
func (failedPhase) state() State     { return StateFailed }
