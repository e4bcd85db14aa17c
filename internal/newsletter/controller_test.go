// internal/newsletter/controller_test.go
//
// End-to-end submit scenarios through Controller, plus payload merging.

package newsletter

import (
	"context"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/yanizio/newsletter/internal/analytics"
	"github.com/yanizio/newsletter/internal/masterdata"
)

// recorder is an analytics sink that also logs ordering against the
// document store.
type recorder struct {
	mu     sync.Mutex
	events []analytics.Event
	order  *[]string
}

func (r *recorder) Push(_ context.Context, ev analytics.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	if r.order != nil {
		*r.order = append(*r.order, "analytics")
	}
}

type fixture struct {
	store  *Store
	client *fakeCreator
	sink   *recorder
	ctrl   *Controller
	order  []string
}

func newFixture(opts ...ControllerOption) *fixture {
	f := &fixture{store: NewStore()}
	f.client = &fakeCreator{ref: masterdata.DocumentRef{DocumentId: "doc-9", Href: "h", Id: "NW-doc-9"}}
	f.client.during = func() { f.order = append(f.order, "submit") }
	f.sink = &recorder{order: &f.order}
	f.ctrl = NewController(f.store, NewSubmitter(f.client, f.store), f.sink, opts...)
	return f
}

func TestController_ValidSubmission(t *testing.T) {
	f := newFixture()
	f.store.Dispatch(UpdateEmail{Value: "x@y.com"})
	f.store.Dispatch(UpdateName{Value: StringPtr("Jane")})

	out := f.ctrl.Submit(context.Background())

	if !out.Valid || out.InvalidEmail || out.InvalidName || out.InvalidPhone {
		t.Fatalf("outcome = %+v, want valid", out)
	}
	st := f.store.State()
	if st.InvalidEmail || st.InvalidName || st.InvalidPhone {
		t.Fatalf("flags set on valid input: %+v", st)
	}

	wantEvents := []analytics.Event{{
		Event: analytics.EventNewsletterSubscription,
		Data:  analytics.SubscriptionData{Name: StringPtr("Jane"), Email: "x@y.com", Phone: nil},
	}}
	if diff := cmp.Diff(wantEvents, f.sink.events); diff != "" {
		t.Fatalf("events (-want +got):\n%s", diff)
	}

	calls := f.client.Calls()
	if len(calls) != 1 || calls[0].entity != DefaultEntity {
		t.Fatalf("calls = %+v", calls)
	}
	wantDoc := map[string]*string{"email": StringPtr("x@y.com"), "name": StringPtr("Jane")}
	if diff := cmp.Diff(wantDoc, calls[0].payload); diff != "" {
		t.Fatalf("document (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(f.client.ref, *st.Submission.Data); diff != "" {
		t.Fatalf("submission data (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"analytics", "submit"}, f.order); diff != "" {
		t.Fatalf("ordering (-want +got):\n%s", diff)
	}
}

func TestController_SubmitWithForwardsItsOwnValues(t *testing.T) {
	f := newFixture()
	// A second post lands right after this one's update.
	var once sync.Once
	f.store.Subscribe(func(_, next FormState) {
		if next.Email == "a@example.com" {
			once.Do(func() { f.store.Dispatch(UpdateEmail{Value: "b@example.com"}) })
		}
	})

	out := f.ctrl.SubmitWith(context.Background(), UpdateEmail{Value: "a@example.com"})

	if !out.Valid || out.Payload.Email != "a@example.com" {
		t.Fatalf("outcome = %+v", out)
	}
	if got := *f.client.Calls()[0].payload.(map[string]*string)["email"]; got != "a@example.com" {
		t.Fatalf("forwarded email = %q", got)
	}
	if got := f.sink.events[0].Data.Email; got != "a@example.com" {
		t.Fatalf("analytics email = %q", got)
	}
	if got := f.store.State().Email; got != "b@example.com" {
		t.Fatalf("store email = %q, want the later post's value", got)
	}
}

func TestController_InvalidEmailBlocks(t *testing.T) {
	f := newFixture()
	f.store.Dispatch(UpdateEmail{Value: "not-an-email"})

	out := f.ctrl.Submit(context.Background())

	if out.Valid || !out.InvalidEmail {
		t.Fatalf("outcome = %+v", out)
	}
	if !f.store.State().InvalidEmail {
		t.Fatal("invalidEmail flag not set")
	}
	if len(f.sink.events) != 0 {
		t.Fatalf("analytics called %d times", len(f.sink.events))
	}
	if n := len(f.client.Calls()); n != 0 {
		t.Fatalf("document store called %d times", n)
	}
	if ph := f.store.State().Submission.Phase; ph != PhaseIdle {
		t.Fatalf("submission phase = %v, want idle", ph)
	}
}

func TestController_InvalidOptionalFieldsBlock(t *testing.T) {
	f := newFixture()
	f.store.Dispatch(UpdateEmail{Value: "x@y.com"})
	f.store.Dispatch(UpdateName{Value: StringPtr("R2D2")})
	f.store.Dispatch(UpdatePhone{Value: StringPtr("abc")})

	out := f.ctrl.Submit(context.Background())
	if out.Valid || out.InvalidEmail || !out.InvalidName || !out.InvalidPhone {
		t.Fatalf("outcome = %+v", out)
	}
	if f.ctrl.FormValid() {
		t.Fatal("FormValid = true with invalid name and phone")
	}
}

func TestController_StaleFlagsCleared(t *testing.T) {
	f := newFixture()
	f.store.Dispatch(UpdateEmail{Value: "bad"})
	f.ctrl.Submit(context.Background())
	if !f.store.State().InvalidEmail {
		t.Fatal("first submit did not flag email")
	}

	f.store.Dispatch(UpdateEmail{Value: "good@example.com"})
	out := f.ctrl.Submit(context.Background())
	if !out.Valid || f.store.State().InvalidEmail {
		t.Fatalf("stale invalidEmail flag survived: %+v", f.store.State())
	}
}

func TestController_EventIDAndFullPayload(t *testing.T) {
	f := newFixture(WithEventID("footer-form"))
	f.store.Dispatch(UpdateEmail{Value: "a@b.com"})
	f.store.Dispatch(UpdatePhone{Value: StringPtr("+12345678901")})
	f.store.Dispatch(SetCustomValues{Value: []CustomField{
		{Name: "source", Value: StringPtr("footer")},
		{Name: "email", Value: StringPtr("override@c.com")},
	}})

	f.ctrl.Submit(context.Background())

	if len(f.sink.events) != 1 || f.sink.events[0].ID != "footer-form" {
		t.Fatalf("events = %+v", f.sink.events)
	}
	want := map[string]*string{
		"email":  StringPtr("override@c.com"),
		"phone":  StringPtr("+12345678901"),
		"source": StringPtr("footer"),
	}
	if diff := cmp.Diff(want, f.client.Calls()[0].payload); diff != "" {
		t.Fatalf("document (-want +got):\n%s", diff)
	}
}

func TestController_LegacyForwarding(t *testing.T) {
	f := newFixture(WithForward(ForwardLegacy))
	f.store.Dispatch(UpdateEmail{Value: "a@b.com"})
	f.store.Dispatch(UpdatePhone{Value: StringPtr("+12345678901")})
	f.store.Dispatch(SetCustomValues{Value: []CustomField{{Name: "source", Value: StringPtr("footer")}}})

	out := f.ctrl.Submit(context.Background())

	want := map[string]*string{"email": StringPtr("a@b.com"), "name": nil}
	if diff := cmp.Diff(want, f.client.Calls()[0].payload); diff != "" {
		t.Fatalf("legacy document (-want +got):\n%s", diff)
	}
	// The merged payload is still built and reported.
	if out.Payload.Fields["source"] == nil || *out.Payload.Fields["source"] != "footer" {
		t.Fatalf("merged payload = %+v", out.Payload)
	}
}

func TestBuildMutationPayload_CustomFieldsWin(t *testing.T) {
	got := BuildMutationPayload("a@b.com", nil, nil, []CustomField{
		{Name: "email", Value: StringPtr("override@c.com")},
	})
	want := MutationPayload{
		Email:  "a@b.com",
		Fields: map[string]*string{"email": StringPtr("override@c.com")},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("payload (-want +got):\n%s", diff)
	}
}

func TestBuildMutationPayload_Precedence(t *testing.T) {
	got := BuildMutationPayload("a@b.com", StringPtr(""), StringPtr("+12345678901"), []CustomField{
		{Name: "tag", Value: StringPtr("one")},
		{Name: "tag", Value: StringPtr("two")},
		{Name: "empty", Value: nil},
	})
	want := MutationPayload{
		Email: "a@b.com",
		Fields: map[string]*string{
			"email": StringPtr("a@b.com"),
			"phone": StringPtr("+12345678901"),
			"tag":   StringPtr("two"),
			"empty": nil,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("payload (-want +got):\n%s", diff)
	}
	// An empty email still reaches the document through the base field.
	doc := BuildMutationPayload("", nil, nil, nil).Document()
	if v, ok := doc["email"]; !ok || v == nil || *v != "" {
		t.Fatalf("document = %+v", doc)
	}
}

func TestParseForward(t *testing.T) {
	for in, want := range map[string]Forward{"": ForwardFull, "full": ForwardFull, "legacy": ForwardLegacy} {
		got, err := ParseForward(in)
		if err != nil || got != want {
			t.Errorf("ParseForward(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseForward("partial"); err == nil {
		t.Error("ParseForward accepted an unknown mode")
	}
}
