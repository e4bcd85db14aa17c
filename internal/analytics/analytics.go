// internal/analytics/analytics.go
//
// Analytics sink for newsletter subscriptions.
//
// Context
//   The form controller pushes one event per submit that passes validation,
//   before the document is created and regardless of how that call ends.
//   This package defines the event shape and the Sink contract, plus a few
//   sinks: LogSink (zap), WebhookSink (JSON POST to a collector), Multi, and
//   Enrich, which adds visitor hints from requestinfo.
//
//   Push never returns an error.  Analytics must not block or fail a
//   subscription, so sinks log their own problems.
//
// Style
//   Two-space sentence spacing, Oxford comma, concise inline notes.
//
//------------------------------------------------------------------------------

package analytics

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/yanizio/newsletter/internal/requestinfo"
)

// EventNewsletterSubscription is the fixed event type name.
const EventNewsletterSubscription = "newsletterSubscription"

// SubscriptionData is the visitor data carried by an event.  Nil name or
// phone encode as JSON null.
type SubscriptionData struct {
	Name  *string `json:"name"`
	Email string  `json:"email"`
	Phone *string `json:"phone"`
}

// Event is one analytics push.  ID is the caller-supplied event identifier
// and is omitted when none was configured.
type Event struct {
	ID      string            `json:"id,omitempty"`
	Event   string            `json:"event"`
	Data    SubscriptionData  `json:"data"`
	Context map[string]string `json:"context,omitempty"`
}

// NewSubscriptionEvent builds the event for one validated submit.
func NewSubscriptionEvent(customID string, data SubscriptionData) Event {
	return Event{ID: customID, Event: EventNewsletterSubscription, Data: data}
}

// Sink receives analytics events.
type Sink interface {
	Push(ctx context.Context, ev Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev Event)

func (f SinkFunc) Push(ctx context.Context, ev Event) { f(ctx, ev) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(context.Context, Event) {})

// Multi fans an event out to every sink in order.
type Multi []Sink

func (m Multi) Push(ctx context.Context, ev Event) {
	for _, s := range m {
		s.Push(ctx, ev)
	}
}

// LogSink writes each event as a structured log line.
type LogSink struct {
	Log *zap.SugaredLogger
}

func (s LogSink) Push(_ context.Context, ev Event) {
	log := s.Log
	if log == nil {
		log = zap.S()
	}
	// Email is personal data; log only whether optional fields were present.
	log.Infow("analytics event",
		"event", ev.Event,
		"id", ev.ID,
		"has_name", ev.Data.Name != nil,
		"has_phone", ev.Data.Phone != nil,
		"context", ev.Context,
	)
}

// Enrich returns a sink that adds the visitor's device class, bot flag,
// language, and country (when known) before forwarding to next.
func Enrich(next Sink) Sink {
	return SinkFunc(func(ctx context.Context, ev Event) {
		if info := requestinfo.FromContext(ctx); info != nil {
			c := make(map[string]string, len(ev.Context)+4)
			for k, v := range ev.Context {
				c[k] = v
			}
			c["device"] = info.UA.Device
			c["bot"] = strconv.FormatBool(info.UA.IsBot)
			if info.UA.PrimaryLang != "" {
				c["lang"] = info.UA.PrimaryLang
			}
			if info.Geo.CountryISO != "" {
				c["country"] = info.Geo.CountryISO
			}
			ev.Context = c
		}
		next.Push(ctx, ev)
	})
}
