// internal/newsletter/submitter.go
//
// Submitter drives the submission lifecycle of one form instance.
//
// Context
//   Submit moves the store's SubmissionState to loading before any I/O,
//   calls the document store, and records the outcome as succeeded or
//   failed.  Failures never escape Submit; they live in state.
//
//   Concurrent submits are not coordinated by default.  Each call writes its
//   own outcome when it finishes, so the last response to arrive wins.
//   WithSingleFlight collapses a submit issued while another is in flight
//   onto that call instead.
//
// Style
//   Two-space sentence spacing, Oxford comma, concise inline notes.
//
//------------------------------------------------------------------------------

package newsletter

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/newsletter/internal/masterdata"
	"github.com/yanizio/newsletter/internal/metrics"
)

// DefaultEntity is the newsletter entity in the document store.
const DefaultEntity = "NW"

// DocumentCreator is the slice of masterdata.Client the Submitter needs.
type DocumentCreator interface {
	CreateDocument(ctx context.Context, entity string, payload any) (masterdata.DocumentRef, error)
}

// Submitter is safe for concurrent use.
type Submitter struct {
	client DocumentCreator
	store  *Store
	entity string
	log    *zap.SugaredLogger
	group  *singleflight.Group
}

// SubmitterOption configures a Submitter.
type SubmitterOption func(*Submitter)

// WithEntity overrides DefaultEntity.
func WithEntity(entity string) SubmitterOption {
	return func(s *Submitter) {
		if entity != "" {
			s.entity = entity
		}
	}
}

// WithSingleFlight makes a Submit issued while another is in flight wait for
// and share the in-flight call rather than issue a second request.
func WithSingleFlight() SubmitterOption {
	return func(s *Submitter) { s.group = new(singleflight.Group) }
}

// WithSubmitterLogger attaches a logger; the default is zap.S().
func WithSubmitterLogger(l *zap.SugaredLogger) SubmitterOption {
	return func(s *Submitter) { s.log = l }
}

// NewSubmitter binds client to store.
func NewSubmitter(client DocumentCreator, store *Store, opts ...SubmitterOption) *Submitter {
	s := &Submitter{
		client: client,
		store:  store,
		entity: DefaultEntity,
		log:    zap.S(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// State returns the current submission state.
func (s *Submitter) State() SubmissionState { return s.store.State().Submission }

// Submit creates a document from payload and records the outcome.  It blocks
// until the document store answers or ctx ends.
func (s *Submitter) Submit(ctx context.Context, payload any) {
	if s.group == nil {
		s.submit(ctx, payload)
		return
	}
	_, _, shared := s.group.Do(s.entity, func() (any, error) {
		s.submit(ctx, payload)
		return nil, nil
	})
	if shared {
		s.log.Debugw("newsletter submit joined in-flight call", "entity", s.entity)
	}
}

func (s *Submitter) submit(ctx context.Context, payload any) {
	attempt := uuid.NewString()

	s.store.Update(func(cur FormState) Action {
		return SetSubmission{Value: cur.Submission.Begin()}
	})

	metrics.SubmissionsInFlight.Inc()
	start := time.Now()
	ref, err := s.client.CreateDocument(ctx, s.entity, payload)
	metrics.SubmissionDuration.Observe(time.Since(start).Seconds())
	metrics.SubmissionsInFlight.Dec()

	if err != nil {
		s.store.Dispatch(SetSubmission{Value: Rejected(err)})
		metrics.SubmissionsTotal.WithLabelValues(PhaseFailed.String()).Inc()
		s.log.Errorw("newsletter submission failed",
			"attempt", attempt, "entity", s.entity, "err", err)
		return
	}

	s.store.Dispatch(SetSubmission{Value: Resolved(ref)})
	if ref.DocumentId == "" {
		s.log.Warnw("newsletter submission answered without a document id",
			"attempt", attempt, "entity", s.entity)
	}
	metrics.SubmissionsTotal.WithLabelValues(PhaseSucceeded.String()).Inc()
	s.log.Infow("newsletter submission stored",
		"attempt", attempt, "entity", s.entity, "document", ref.DocumentId)
}
