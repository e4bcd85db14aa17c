// internal/newsletter/actions_test.go
//
// Reducer and store behaviour.
//
// Run: go test ./internal/newsletter -v

package newsletter

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/yanizio/newsletter/internal/masterdata"
)

func seededState() FormState {
	s := InitialState()
	s.Email = "x@y.com"
	s.Name = StringPtr("Jane")
	s.CustomFields = []CustomField{{Name: "source", Value: StringPtr("footer")}}
	return s
}

func TestReduce_ReplacesOnlyNamedField(t *testing.T) {
	yes := true
	ref := masterdata.DocumentRef{DocumentId: "d"}

	cases := []struct {
		name   string
		action Action
		mutate func(*FormState)
	}{
		{"email", UpdateEmail{Value: "a@b.co"}, func(s *FormState) { s.Email = "a@b.co" }},
		{"name", UpdateName{Value: nil}, func(s *FormState) { s.Name = nil }},
		{"phone", UpdatePhone{Value: StringPtr("+12345678901")}, func(s *FormState) { s.Phone = StringPtr("+12345678901") }},
		{"confirmation", UpdateConfirmation{Value: &yes}, func(s *FormState) { s.Confirmation = &yes }},
		{"invalid email", SetInvalidEmail{Value: true}, func(s *FormState) { s.InvalidEmail = true }},
		{"invalid name", SetInvalidName{Value: true}, func(s *FormState) { s.InvalidName = true }},
		{"invalid phone", SetInvalidPhone{Value: true}, func(s *FormState) { s.InvalidPhone = true }},
		{"custom values", SetCustomValues{Value: nil}, func(s *FormState) { s.CustomFields = nil }},
		{"submission", SetSubmission{Value: Resolved(ref)}, func(s *FormState) { s.Submission = Resolved(ref) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			want := seededState()
			tc.mutate(&want)
			got := Reduce(seededState(), tc.action)
			if diff := cmp.Diff(want, got, cmpopts.EquateErrors()); diff != "" {
				t.Fatalf("state mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReduce_NilActionIsNoop(t *testing.T) {
	s := seededState()
	if diff := cmp.Diff(s, Reduce(s, nil), cmpopts.EquateErrors()); diff != "" {
		t.Fatalf("nil action changed state:\n%s", diff)
	}
}

func TestReduce_SetInvalidEmailIdempotent(t *testing.T) {
	once := Reduce(seededState(), SetInvalidEmail{Value: true})
	twice := Reduce(once, SetInvalidEmail{Value: true})
	if diff := cmp.Diff(once, twice, cmpopts.EquateErrors()); diff != "" {
		t.Fatalf("second dispatch drifted (-once +twice):\n%s", diff)
	}
}

func TestReduce_CustomValuesAreCopied(t *testing.T) {
	in := []CustomField{{Name: "source", Value: StringPtr("footer")}}
	s := Reduce(InitialState(), SetCustomValues{Value: in})
	in[0].Name = "mutated"
	if s.CustomFields[0].Name != "source" {
		t.Fatalf("store state aliased caller slice: %+v", s.CustomFields)
	}
}

func TestSubmissionState_Transitions(t *testing.T) {
	prevErr := errors.New("earlier")
	loading := Rejected(prevErr).Begin()
	if !loading.Loading() || !errors.Is(loading.Err, prevErr) {
		t.Fatalf("Begin must retain the previous error: %+v", loading)
	}

	ok := Resolved(masterdata.DocumentRef{DocumentId: "d"})
	if !ok.Succeeded() || ok.Err != nil {
		t.Fatalf("Resolved: %+v", ok)
	}
	if empty := Resolved(masterdata.DocumentRef{}); empty.Succeeded() {
		t.Fatal("a reference without DocumentId counted as success")
	}
	if failed := Rejected(prevErr); !failed.Failed() || failed.Data != nil {
		t.Fatalf("Rejected: %+v", failed)
	}
	if Idle().Phase.String() != "idle" || PhaseFailed.String() != "failed" {
		t.Fatal("phase names changed")
	}
}

func TestStore_ApplyIsOneTransition(t *testing.T) {
	st := NewStore()
	var calls int
	st.Subscribe(func(prev, next FormState) {
		calls++
		if prev.Email != "" || next.Email != "a@b.co" || next.Name == nil {
			t.Errorf("transition %+v -> %+v", prev, next)
		}
	})

	got := st.Apply(UpdateEmail{Value: "a@b.co"}, UpdateName{Value: StringPtr("Jo")})
	if calls != 1 {
		t.Fatalf("listener ran %d times, want 1", calls)
	}
	if diff := cmp.Diff(st.State(), got); diff != "" {
		t.Fatalf("returned state (-store +got):\n%s", diff)
	}
}

func TestStore_DispatchNotifiesListeners(t *testing.T) {
	st := NewStore()

	var seen []string
	st.Subscribe(func(prev, next FormState) {
		seen = append(seen, prev.Email+"->"+next.Email)
	})

	st.Dispatch(UpdateEmail{Value: "a@b.co"})
	st.Dispatch(UpdateEmail{Value: "c@d.co"})

	want := []string{"->a@b.co", "a@b.co->c@d.co"}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Fatalf("listener calls (-want +got):\n%s", diff)
	}
	if st.State().Email != "c@d.co" {
		t.Fatalf("state email = %q", st.State().Email)
	}
}

func TestStore_UpdateReadsCurrentState(t *testing.T) {
	st := NewStore()
	st.Dispatch(SetSubmission{Value: Rejected(errors.New("x"))})
	st.Update(func(cur FormState) Action {
		return SetSubmission{Value: cur.Submission.Begin()}
	})
	sub := st.State().Submission
	if !sub.Loading() || sub.Err == nil {
		t.Fatalf("Update lost previous error: %+v", sub)
	}
}
