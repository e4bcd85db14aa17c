// internal/newsletter/actions.go
//
// Closed action set and the reducer over FormState.
//
// Context
//   Every mutation of a form instance is one of the action types below.
//   Action is sealed by an unexported method, so no other package can invent
//   new kinds, and Reduce switches over all of them.  Each action replaces
//   exactly the field it names and leaves the rest untouched.
//
//------------------------------------------------------------------------------

package newsletter

import "slices"

// Action mutates a FormState through Reduce.
type Action interface{ action() }

type (
	UpdateEmail        struct{ Value string }
	UpdateName         struct{ Value *string }
	UpdatePhone        struct{ Value *string }
	UpdateConfirmation struct{ Value *bool }
	SetInvalidEmail    struct{ Value bool }
	SetInvalidName     struct{ Value bool }
	SetInvalidPhone    struct{ Value bool }
	SetCustomValues    struct{ Value []CustomField }
	SetSubmission      struct{ Value SubmissionState }
)

func (UpdateEmail) action()        {}
func (UpdateName) action()         {}
func (UpdatePhone) action()        {}
func (UpdateConfirmation) action() {}
func (SetInvalidEmail) action()    {}
func (SetInvalidName) action()     {}
func (SetInvalidPhone) action()    {}
func (SetCustomValues) action()    {}
func (SetSubmission) action()      {}

// Reduce returns the state after applying a.  It is pure and total: a nil
// action returns s unchanged.
func Reduce(s FormState, a Action) FormState {
	switch a := a.(type) {
	case UpdateEmail:
		s.Email = a.Value
	case UpdateName:
		s.Name = a.Value
	case UpdatePhone:
		s.Phone = a.Value
	case UpdateConfirmation:
		s.Confirmation = a.Value
	case SetInvalidEmail:
		s.InvalidEmail = a.Value
	case SetInvalidName:
		s.InvalidName = a.Value
	case SetInvalidPhone:
		s.InvalidPhone = a.Value
	case SetCustomValues:
		// Copy so the caller's slice cannot alias store state.
		s.CustomFields = slices.Clone(a.Value)
	case SetSubmission:
		s.Submission = a.Value
	}
	return s
}
