// components/newsletter/newsletter.go
//
// Newsletter component – the storefront signup widget.
//
// Context
//   Browsers get a server-rendered form whose state lives in memory between
//   requests, one instance per visitor and widget definition, held in a
//   bounded LRU keyed by the visitor cookie.  Scripted clients use the JSON
//   API, which builds a fresh instance per request and keeps nothing.
//
// Routes
//   GET  /newsletter             page with the widget (?form=<id>)
//   GET  /newsletter/widget      the widget fragment alone
//   GET  /newsletter/widget.js   live validation for the rendered form
//   POST /newsletter             form post: update fields, submit, render
//   POST /api/newsletter         JSON submit
//   POST /api/newsletter/validate  live validity flags, no submit
//
//------------------------------------------------------------------------------

package newsletter

import (
	"cmp"
	"errors"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/yanizio/newsletter/internal/cache"
	"github.com/yanizio/newsletter/internal/component"
	"github.com/yanizio/newsletter/internal/form"
	"github.com/yanizio/newsletter/internal/metrics"
	nl "github.com/yanizio/newsletter/internal/newsletter"
	"github.com/yanizio/newsletter/internal/session"
)

const defaultMaxSessions = 10000

// compile-time assertion
var _ component.Component = (*Comp)(nil)

// Comp implements component.Component.
type Comp struct {
	deps     component.Deps
	log      *zap.SugaredLogger
	defs     *form.Registry
	csrf     *form.CSRF
	sessions *session.Manager
	decoder  *form.Decoder
	forms    *cache.LRU[string, *instance]

	entity       string
	forward      nl.Forward
	singleFlight bool
}

// instance is one visitor's live form.
type instance struct {
	def  *form.Definition
	ctrl *nl.Controller
}

func (c *Comp) Name() string { return "newsletter" }

// Init wires shared resources.  Missing optional pieces fall back to
// process-local defaults.
func (c *Comp) Init(d component.Deps) error {
	if d.Documents == nil {
		return errors.New("document store client required")
	}
	c.deps = d
	c.log = zap.S()
	if d.Log != nil {
		c.log = d.Log
	}
	c.log = c.log.With("component", c.Name())

	c.defs = d.Definitions
	if c.defs == nil {
		c.defs = form.NewRegistry(form.DefaultDefinition())
	}
	c.csrf = d.CSRF
	if c.csrf == nil {
		c.csrf = form.NewEphemeralCSRF()
	}
	c.sessions = d.Sessions
	if c.sessions == nil {
		c.sessions = session.NewManager(form.NewEphemeralKey())
	}
	c.decoder = form.NewDecoder(c.csrf)

	c.entity, c.forward = nl.DefaultEntity, nl.ForwardFull
	maxSessions := defaultMaxSessions
	if cfg := d.Config; cfg != nil {
		fw, err := nl.ParseForward(cfg.Newsletter.Forward)
		if err != nil {
			return err
		}
		c.entity = cmp.Or(cfg.Newsletter.Entity, c.entity)
		c.forward = fw
		c.singleFlight = cfg.Newsletter.SingleFlight
		maxSessions = cmp.Or(cfg.Newsletter.MaxSessions, maxSessions)
	}
	c.forms = cache.New(maxSessions, func(string, *instance) { metrics.ActiveForms.Dec() })

	c.log.Infow("newsletter ready", "forms", c.defs.IDs(), "entity", c.entity,
		"forward", c.forward, "single_flight", c.singleFlight, "max_sessions", maxSessions)
	return nil
}

func (c *Comp) Routes(r chi.Router) {
	r.Get("/newsletter", c.getPage)
	r.Get("/newsletter/widget", c.getWidget)
	r.Get(scriptPath, getScript)
	r.Post("/newsletter", c.postPage)

	r.Route("/api/newsletter", func(api chi.Router) {
		api.Use(chimw.AllowContentType("application/json"))
		api.Post("/", c.postAPI)
		api.Post("/validate", c.postValidate)
	})
}

// definition resolves id, falling back to "default" and then to the first
// registered definition.
func (c *Comp) definition(id string) (*form.Definition, bool) {
	if id != "" {
		return c.defs.Get(id)
	}
	if d, ok := c.defs.Get("default"); ok {
		return d, true
	}
	if ids := c.defs.IDs(); len(ids) > 0 {
		return c.defs.Get(ids[0])
	}
	return nil, false
}

// controller builds a controller for def around st.
func (c *Comp) controller(st *nl.Store, def *form.Definition) *nl.Controller {
	fw := c.forward
	if def.Forward != "" {
		fw = def.ForwardMode()
	}
	subOpts := []nl.SubmitterOption{
		nl.WithEntity(cmp.Or(def.Entity, c.entity)),
		nl.WithSubmitterLogger(c.log),
	}
	if c.singleFlight {
		subOpts = append(subOpts, nl.WithSingleFlight())
	}
	return nl.NewController(st, nl.NewSubmitter(c.deps.Documents, st, subOpts...), c.deps.Sink,
		nl.WithEventID(def.CustomEventID),
		nl.WithForward(fw),
		nl.WithControllerLogger(c.log),
	)
}

// newInstance builds a fresh form seeded with def's custom fields.
func (c *Comp) newInstance(def *form.Definition) *instance {
	st := nl.NewStore()
	if cv := def.CustomValues(); cv != nil {
		st.Dispatch(nl.SetCustomValues{Value: cv})
	}
	st.Subscribe(func(prev, next nl.FormState) {
		if prev.Submission.Phase != next.Submission.Phase {
			c.log.Debugw("newsletter phase", "form", def.ID,
				"from", prev.Submission.Phase.String(), "to", next.Submission.Phase.String())
		}
	})
	return &instance{def: def, ctrl: c.controller(st, def)}
}

// Register component at package init.
func init() {
	component.Register(&Comp{})
}
