// internal/newsletter/submitter_test.go
//
// Submission lifecycle: loading before I/O, success, remote failure, the
// last-write-wins race, and the single-flight option.

package newsletter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/yanizio/newsletter/internal/masterdata"
)

// fakeCreator records calls and answers with ref or err.  during runs inside
// CreateDocument, before it returns.
type fakeCreator struct {
	mu     sync.Mutex
	calls  []fakeCall
	ref    masterdata.DocumentRef
	err    error
	during func()
}

type fakeCall struct {
	entity  string
	payload any
}

func (f *fakeCreator) CreateDocument(_ context.Context, entity string, payload any) (masterdata.DocumentRef, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{entity, payload})
	during := f.during
	f.mu.Unlock()

	if during != nil {
		during()
	}
	return f.ref, f.err
}

func (f *fakeCreator) Calls() []fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fakeCall(nil), f.calls...)
}

func TestSubmit_LoadingBeforeIO(t *testing.T) {
	st := NewStore()
	fc := &fakeCreator{ref: masterdata.DocumentRef{DocumentId: "d1"}}

	var phaseDuringCall Phase = -1
	fc.during = func() { phaseDuringCall = st.State().Submission.Phase }

	NewSubmitter(fc, st).Submit(context.Background(), map[string]string{"email": "x@y.com"})

	if phaseDuringCall != PhaseLoading {
		t.Fatalf("phase during call = %v, want loading", phaseDuringCall)
	}
}

func TestSubmit_Success(t *testing.T) {
	st := NewStore()
	ref := masterdata.DocumentRef{DocumentId: "d1", Href: "h", Id: "NW-d1"}
	fc := &fakeCreator{ref: ref}

	sub := NewSubmitter(fc, st, WithEntity("NL"))
	sub.Submit(context.Background(), map[string]string{"email": "x@y.com"})

	got := sub.State()
	if got.Phase != PhaseSucceeded || got.Err != nil {
		t.Fatalf("state = %+v, want succeeded", got)
	}
	if diff := cmp.Diff(ref, *got.Data); diff != "" {
		t.Fatalf("ref mismatch (-want +got):\n%s", diff)
	}
	if calls := fc.Calls(); len(calls) != 1 || calls[0].entity != "NL" {
		t.Fatalf("calls = %+v", calls)
	}
}

func TestSubmit_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	st := NewStore()
	// Leftover data from an earlier success must be cleared on failure.
	st.Dispatch(SetSubmission{Value: Resolved(masterdata.DocumentRef{DocumentId: "old"})})

	sub := NewSubmitter(masterdata.New(srv.URL), st)
	sub.Submit(context.Background(), map[string]string{"email": "x@y.com"})

	got := sub.State()
	if got.Phase != PhaseFailed || got.Data != nil {
		t.Fatalf("state = %+v, want failed without data", got)
	}
	if code, ok := masterdata.StatusCode(got.Err); !ok || code != http.StatusInternalServerError {
		t.Fatalf("status = %d (%v), want 500", code, ok)
	}
}

func TestSubmit_InvalidArgumentCaptured(t *testing.T) {
	st := NewStore()
	sub := NewSubmitter(masterdata.New("http://127.0.0.1:1"), st)
	sub.Submit(context.Background(), nil)

	if got := sub.State(); !got.Failed() || !errors.Is(got.Err, masterdata.ErrInvalidArgument) {
		t.Fatalf("state = %+v, want failed with ErrInvalidArgument", got)
	}
}

// raceCreator blocks each call until its payload's gate is released.
type raceCreator struct {
	entered chan string
	gates   map[string]chan struct{}
}

func (r *raceCreator) CreateDocument(_ context.Context, _ string, payload any) (masterdata.DocumentRef, error) {
	key := payload.(string)
	r.entered <- key
	<-r.gates[key]
	return masterdata.DocumentRef{DocumentId: key}, nil
}

func TestSubmit_LastResponseWins(t *testing.T) {
	rc := &raceCreator{
		entered: make(chan string, 2),
		gates:   map[string]chan struct{}{"a": make(chan struct{}), "b": make(chan struct{})},
	}
	st := NewStore()
	sub := NewSubmitter(rc, st)

	done := map[string]chan struct{}{"a": make(chan struct{}), "b": make(chan struct{})}
	for _, k := range []string{"a", "b"} {
		go func(k string) {
			sub.Submit(context.Background(), k)
			close(done[k])
		}(k)
	}
	<-rc.entered
	<-rc.entered

	close(rc.gates["b"])
	<-done["b"]
	if id := st.State().Submission.Data.DocumentId; id != "b" {
		t.Fatalf("after b: document = %q", id)
	}

	close(rc.gates["a"])
	<-done["a"]
	if id := st.State().Submission.Data.DocumentId; id != "a" {
		t.Fatalf("after a: document = %q, want the later response", id)
	}
}

func TestSubmit_SingleFlightCollapsesReentry(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	entered := make(chan struct{}, 1)

	fc := &fakeCreator{ref: masterdata.DocumentRef{DocumentId: "d"}}
	fc.during = func() {
		calls.Add(1)
		entered <- struct{}{}
		<-release
	}

	st := NewStore()
	sub := NewSubmitter(fc, st, WithSingleFlight())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); sub.Submit(context.Background(), "first") }()
	<-entered
	go func() { defer wg.Done(); sub.Submit(context.Background(), "second") }()

	// Give the second caller time to join the in-flight call.
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Fatalf("document store called %d times, want 1", n)
	}
	if !st.State().Submission.Succeeded() {
		t.Fatalf("state = %+v", st.State().Submission)
	}
}
