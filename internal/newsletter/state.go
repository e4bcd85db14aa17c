// internal/newsletter/state.go
//
// Newsletter form state.
//
// Context
//   FormState is the single record a newsletter form instance owns: the
//   visitor's in-progress values, per-field invalid flags, and the state of
//   the latest submission.  It only changes through Store.Dispatch, which
//   runs Reduce (actions.go).
//
//   SubmissionState lives inside FormState.  The Submitter writes its
//   transitions through SetSubmission actions, so there is exactly one copy
//   of the submission lifecycle.
//
//------------------------------------------------------------------------------

package newsletter

import (
	"github.com/yanizio/newsletter/internal/masterdata"
)

// Phase tags a SubmissionState.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SubmissionState is the lifecycle of the latest submit.
//
// Idle has no data and no error.  Loading keeps whatever data or error the
// previous attempt left.  Succeeded carries the DocumentRef and no error.
// Failed carries the error and no data.
type SubmissionState struct {
	Phase Phase
	Data  *masterdata.DocumentRef
	Err   error
}

// Loading reports whether a submission is in flight.
func (s SubmissionState) Loading() bool { return s.Phase == PhaseLoading }

// Succeeded reports whether the latest submission created a document.  A
// 2xx answer without a DocumentId does not count; the widget keeps showing
// the form.
func (s SubmissionState) Succeeded() bool {
	return s.Phase == PhaseSucceeded && s.Data != nil && s.Data.DocumentId != ""
}

// Failed reports whether the latest submission ended in an error.
func (s SubmissionState) Failed() bool { return s.Phase == PhaseFailed }

// Idle returns the initial submission state.
func Idle() SubmissionState { return SubmissionState{Phase: PhaseIdle} }

// Begin moves s to loading, retaining previous data and error.
func (s SubmissionState) Begin() SubmissionState {
	s.Phase = PhaseLoading
	return s
}

// Resolved returns the succeeded state for ref.
func Resolved(ref masterdata.DocumentRef) SubmissionState {
	return SubmissionState{Phase: PhaseSucceeded, Data: &ref}
}

// Rejected returns the failed state for err.
func Rejected(err error) SubmissionState {
	return SubmissionState{Phase: PhaseFailed, Err: err}
}

// CustomField is an extra key/value merged into the outgoing payload.  Name
// uniqueness within a list is assumed, not enforced.
type CustomField struct {
	Name  string  `json:"name" validate:"required,max=64"`
	Value *string `json:"value"`
}

// FormState is the state of one newsletter form instance.
type FormState struct {
	Email        string
	Name         *string // nil = not provided
	Phone        *string // nil = not provided
	CustomFields []CustomField
	Confirmation *bool

	InvalidEmail bool
	InvalidName  bool
	InvalidPhone bool

	Submission SubmissionState
}

// InitialState is the state a new form instance starts from.
func InitialState() FormState {
	return FormState{Submission: Idle()}
}

// StringPtr is a convenience for optional fields.
func StringPtr(s string) *string { return &s }
