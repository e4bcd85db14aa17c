// internal/newsletter/controller.go
//
// Controller orchestrates one submit of a newsletter form instance.
//
// Context
//   Submit runs the fixed sequence:
//
//     1. Re-validate email, name, and phone and dispatch all three invalid
//        flags, valid or not, so stale flags are cleared.
//     2. Stop on any invalid field.  No analytics, no network.
//     3. Push one analytics event with {name, email, phone}.
//     4. Build the MutationPayload (payload.go).
//     5. Hand the forwarded document to the Submitter.
//
//   FormValid recomputes validity from the live values and backs the submit
//   button's disabled state.
//
// Style
//   Two-space sentence spacing, Oxford comma, concise inline notes.
//
//------------------------------------------------------------------------------

package newsletter

import (
	"context"

	"go.uber.org/zap"

	"github.com/yanizio/newsletter/internal/analytics"
	"github.com/yanizio/newsletter/internal/metrics"
	"github.com/yanizio/newsletter/internal/validators"
)

// Outcome summarizes one Submit call.
type Outcome struct {
	Valid        bool
	InvalidEmail bool
	InvalidName  bool
	InvalidPhone bool
	Payload      MutationPayload // zero when !Valid
	State        FormState       // store snapshot after Submit returned
}

// Controller is safe for concurrent use.  Build one per form instance.
type Controller struct {
	store     *Store
	submitter *Submitter
	sink      analytics.Sink
	eventID   string
	forward   Forward
	log       *zap.SugaredLogger
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithEventID tags analytics events with a caller-supplied identifier.
func WithEventID(id string) ControllerOption {
	return func(c *Controller) { c.eventID = id }
}

// WithForward picks the payload handed to the Submitter.
func WithForward(f Forward) ControllerOption {
	return func(c *Controller) {
		if f != "" {
			c.forward = f
		}
	}
}

// WithControllerLogger attaches a logger; the default is zap.S().
func WithControllerLogger(l *zap.SugaredLogger) ControllerOption {
	return func(c *Controller) { c.log = l }
}

// NewController wires a form instance.  A nil sink discards events.
func NewController(store *Store, submitter *Submitter, sink analytics.Sink, opts ...ControllerOption) *Controller {
	if sink == nil {
		sink = analytics.Discard
	}
	c := &Controller{
		store:     store,
		submitter: submitter,
		sink:      sink,
		forward:   ForwardFull,
		log:       zap.S(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Store exposes the instance's store so input handlers can dispatch field
// updates.
func (c *Controller) Store() *Store { return c.store }

// FormValid reports whether the live values would pass Submit's checks.
func (c *Controller) FormValid() bool {
	return FieldsValid(c.store.State())
}

// FieldsValid applies the three validators to s.  Nil name or phone is valid.
func FieldsValid(s FormState) bool {
	return validators.ValidateEmail(s.Email) &&
		validators.OptionalName(s.Name) &&
		validators.OptionalPhone(s.Phone)
}

// Submit validates the current values and, when they pass, emits the
// analytics event and submits the document.  It blocks until the submission
// settles.  Failures are reported through Outcome and the store, never as
// an error.
func (c *Controller) Submit(ctx context.Context) Outcome {
	return c.submit(ctx, c.store.State())
}

// SubmitWith applies acts and submits the resulting values.  The update and
// the snapshot that gets validated and forwarded are taken under one lock,
// so a concurrent post on the same store cannot swap values in between.
func (c *Controller) SubmitWith(ctx context.Context, acts ...Action) Outcome {
	return c.submit(ctx, c.store.Apply(acts...))
}

func (c *Controller) submit(ctx context.Context, s FormState) Outcome {
	emailOK := validators.ValidateEmail(s.Email)
	nameOK := validators.OptionalName(s.Name)
	phoneOK := validators.OptionalPhone(s.Phone)

	c.store.Dispatch(SetInvalidEmail{Value: !emailOK})
	c.store.Dispatch(SetInvalidName{Value: !nameOK})
	c.store.Dispatch(SetInvalidPhone{Value: !phoneOK})

	out := Outcome{
		Valid:        emailOK && nameOK && phoneOK,
		InvalidEmail: !emailOK,
		InvalidName:  !nameOK,
		InvalidPhone: !phoneOK,
	}
	if !out.Valid {
		countRejections(out)
		c.log.Debugw("newsletter submit blocked by validation",
			"email", !emailOK, "name", !nameOK, "phone", !phoneOK)
		out.State = c.store.State()
		return out
	}

	c.sink.Push(ctx, analytics.NewSubscriptionEvent(c.eventID, analytics.SubscriptionData{
		Name:  s.Name,
		Email: s.Email,
		Phone: s.Phone,
	}))
	metrics.AnalyticsEventsTotal.Inc()

	out.Payload = BuildMutationPayload(s.Email, s.Name, s.Phone, s.CustomFields)

	var doc map[string]*string
	switch c.forward {
	case ForwardLegacy:
		doc = legacyDocument(s.Email, s.Name)
	default:
		doc = out.Payload.Document()
	}
	c.submitter.Submit(ctx, doc)

	out.State = c.store.State()
	return out
}

func countRejections(o Outcome) {
	if o.InvalidEmail {
		metrics.ValidationRejectionsTotal.WithLabelValues("email").Inc()
	}
	if o.InvalidName {
		metrics.ValidationRejectionsTotal.WithLabelValues("name").Inc()
	}
	if o.InvalidPhone {
		metrics.ValidationRejectionsTotal.WithLabelValues("phone").Inc()
	}
}
