package newsletter

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"

	"github.com/yanizio/newsletter/internal/form"
	"github.com/yanizio/newsletter/internal/metrics"
	nl "github.com/yanizio/newsletter/internal/newsletter"
)

const formAction = "/newsletter"

var pageTpl = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
</head>
<body>
<main>
{{- with .Notice}}
<p class="notice" role="alert">{{.}}</p>
{{- end}}
{{.Widget}}
</main>
</body>
</html>`))

type pageData struct {
	Title  string
	Notice string
	Widget template.HTML
}

// visitorInstance returns the caller's live form for def, creating it on
// first use.
func (c *Comp) visitorInstance(w http.ResponseWriter, r *http.Request, def *form.Definition) *instance {
	vid, _ := c.sessions.VisitorID(w, r)
	inst, added := c.forms.GetOrAdd(vid+"/"+def.ID, func() *instance { return c.newInstance(def) })
	if added {
		metrics.ActiveForms.Inc()
	}
	return inst
}

// getPage renders the widget inside a minimal page.  A failure shown on the
// previous response is cleared so the visitor can retry with the values
// they entered.
func (c *Comp) getPage(w http.ResponseWriter, r *http.Request) {
	inst, ok := c.lookup(w, r)
	if !ok {
		return
	}
	c.writePage(w, http.StatusOK, inst, "")
}

func (c *Comp) getWidget(w http.ResponseWriter, r *http.Request) {
	inst, ok := c.lookup(w, r)
	if !ok {
		return
	}
	html, err := c.widget(inst)
	if err != nil {
		c.log.Errorw("newsletter render failed", "form", inst.def.ID, "err", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}

// lookup resolves ?form= to the visitor's instance and clears a stale
// failure.  It writes a 404 itself when the form is unknown.
func (c *Comp) lookup(w http.ResponseWriter, r *http.Request) (*instance, bool) {
	def, ok := c.definition(r.URL.Query().Get("form"))
	if !ok {
		http.NotFound(w, r)
		return nil, false
	}
	inst := c.visitorInstance(w, r, def)
	st := inst.ctrl.Store()
	st.Update(func(cur nl.FormState) nl.Action {
		if cur.Submission.Failed() {
			return nl.SetSubmission{Value: nl.Idle()}
		}
		return nil
	})
	return inst, true
}

// postPage applies the posted values, submits, and renders the result.
func (c *Comp) postPage(w http.ResponseWriter, r *http.Request) {
	def, ok := c.definition(form.FormID(r))
	if !ok {
		http.NotFound(w, r)
		return
	}
	inst := c.visitorInstance(w, r, def)

	acts, err := c.decoder.Decode(r, def)
	if err != nil {
		var re form.RejectError
		if errors.As(err, &re) {
			c.log.Infow("newsletter post rejected", "form", def.ID, "reason", re.Reason)
			c.writePage(w, http.StatusBadRequest, inst, re.Reason)
			return
		}
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	out := inst.ctrl.SubmitWith(r.Context(), acts...)
	c.writePage(w, statusFor(out), inst, "")
}

func (c *Comp) writePage(w http.ResponseWriter, status int, inst *instance, notice string) {
	html, err := c.widget(inst)
	if err != nil {
		c.log.Errorw("newsletter render failed", "form", inst.def.ID, "err", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := pageTpl.Execute(&buf, pageData{Title: inst.def.Title, Notice: notice, Widget: html}); err != nil {
		c.log.Errorw("newsletter page failed", "form", inst.def.ID, "err", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// widget renders the current state of inst.
func (c *Comp) widget(inst *instance) (template.HTML, error) {
	tok, err := c.csrf.Generate()
	if err != nil {
		return "", err
	}
	st := inst.ctrl.Store().State()

	var buf bytes.Buffer
	err = form.Render(&buf, form.View{
		Def:       inst.def,
		State:     st,
		Valid:     nl.FieldsValid(st),
		CSRFToken: tok,
		Action:    formAction,

		ValidateURL: validatePath,
		ScriptURL:   scriptPath,
	})
	return template.HTML(buf.String()), err
}

// statusFor maps a submit outcome onto an HTTP status.
func statusFor(out nl.Outcome) int {
	switch {
	case !out.Valid:
		return http.StatusUnprocessableEntity
	case out.State.Submission.Failed():
		return http.StatusBadGateway
	}
	return http.StatusOK
}
