// internal/form/renderer.go
//
// HTML renderer for the newsletter widget.
//
// Context
//   The widget shows exactly one of four things, chosen from the store's
//   submission state:
//
//     1. loading, with a loading substitute  → the substitute only
//     2. failed                              → error substitute or message
//     3. succeeded                           → success substitute or message
//     4. anything else                       → the form
//
//   Loading without a substitute falls through to the form with the submit
//   button disabled.  That is the only state rendered disabled.  Live
//   validity is toggled in the browser by the widget script, which posts the
//   fields to ValidateURL on every input; a page without the script can
//   always resubmit.
//
// Markup
//   Each input gets id="fld-{form}-{name}" and sits in <div class="form-field">.
//   Invalid fields carry aria-invalid and render their error text.  Hidden
//   inputs carry the CSRF token, the render timestamp, and the form id.
//
//------------------------------------------------------------------------------

package form

import (
	"html/template"
	"io"
	"time"

	"github.com/yanizio/newsletter/internal/newsletter"
)

// View is everything one render needs.
type View struct {
	Def       *Definition
	State     newsletter.FormState
	Valid     bool   // Live validity, see Controller.FormValid.
	CSRFToken string // Empty omits the hidden input.
	Action    string // Form action URL.
	Now       time.Time

	ValidateURL string // Live validation endpoint; empty omits data-validate.
	ScriptURL   string // Widget script; empty omits the <script> tag.
}

// SubmitDisabled reports whether the submit button renders disabled.
func (v View) SubmitDisabled() bool {
	return v.State.Submission.Loading()
}

type formData struct {
	View
	Name      string
	Phone     string
	Confirmed bool
	Custom    []customInput
	RenderTS  int64
	FormClass string
}

type customInput struct {
	CustomFieldDef
	Current string
}

type messageData struct {
	Class string
	Text  string
}

var (
	formTpl = template.Must(template.New("form").Parse(`<form id="nl-{{.Def.ID}}" class="{{.FormClass}}" method="post" action="{{.Action}}" data-valid="{{.Valid}}"
{{- with .ValidateURL}} data-validate="{{.}}"{{end}} novalidate>
{{- if .Def.Title}}
<h3 class="newsletter-title">{{.Def.Title}}</h3>
{{- end}}
<div class="form-field">
<label for="fld-{{.Def.ID}}-email">{{with .Def.Fields.Email.Label}}{{.}}{{else}}E-mail{{end}}</label>
<input id="fld-{{.Def.ID}}-email" name="email" type="email" autocomplete="email" value="{{.State.Email}}"
{{- with .Def.Fields.Email.Placeholder}} placeholder="{{.}}"{{end}}
{{- if .State.InvalidEmail}} aria-invalid="true"{{end}}>
{{- if .State.InvalidEmail}}
<span class="error" aria-live="polite">{{with .Def.Fields.Email.Error}}{{.}}{{else}}E-mail inválido{{end}}</span>
{{- end}}
</div>
{{- if .Def.Fields.Name.Enabled}}
<div class="form-field">
<label for="fld-{{.Def.ID}}-name">{{with .Def.Fields.Name.Label}}{{.}}{{else}}Nome{{end}}</label>
<input id="fld-{{.Def.ID}}-name" name="name" type="text" autocomplete="name" value="{{.Name}}"
{{- with .Def.Fields.Name.Placeholder}} placeholder="{{.}}"{{end}}
{{- if .State.InvalidName}} aria-invalid="true"{{end}}>
{{- if .State.InvalidName}}
<span class="error" aria-live="polite">{{with .Def.Fields.Name.Error}}{{.}}{{else}}Nome inválido{{end}}</span>
{{- end}}
</div>
{{- end}}
{{- if .Def.Fields.Phone.Enabled}}
<div class="form-field">
<label for="fld-{{.Def.ID}}-phone">{{with .Def.Fields.Phone.Label}}{{.}}{{else}}Telefone{{end}}</label>
<input id="fld-{{.Def.ID}}-phone" name="phone" type="tel" autocomplete="tel" value="{{.Phone}}"
{{- with .Def.Fields.Phone.Placeholder}} placeholder="{{.}}"{{end}}
{{- if .State.InvalidPhone}} aria-invalid="true"{{end}}>
{{- if .State.InvalidPhone}}
<span class="error" aria-live="polite">{{with .Def.Fields.Phone.Error}}{{.}}{{else}}Telefone inválido{{end}}</span>
{{- end}}
</div>
{{- end}}
{{- if .Def.Fields.Confirmation.Enabled}}
<div class="form-field">
<input id="fld-{{.Def.ID}}-confirmation" name="confirmation" type="checkbox" value="true"{{if .Confirmed}} checked{{end}}>
<label for="fld-{{.Def.ID}}-confirmation">{{with .Def.Fields.Confirmation.Label}}{{.}}{{else}}Quero receber novidades{{end}}</label>
</div>
{{- end}}
{{- range .Custom}}
{{- if .Editable}}
<div class="form-field">
<label for="fld-{{$.Def.ID}}-custom-{{.Name}}">{{with .Label}}{{.}}{{else}}{{.Name}}{{end}}</label>
<input id="fld-{{$.Def.ID}}-custom-{{.Name}}" name="custom.{{.Name}}" type="text" value="{{.Current}}">
</div>
{{- end}}
{{- end}}
<input type="hidden" name="form_id" value="{{.Def.ID}}">
{{- with .CSRFToken}}
<input type="hidden" name="csrf_token" value="{{.}}">
{{- end}}
<input type="hidden" name="render_ts" value="{{.RenderTS}}">
<button class="newsletter-submit" type="submit"{{if .SubmitDisabled}} disabled{{end}}>{{.Def.SubmitLabel}}</button>
</form>
{{- with .ScriptURL}}
<script src="{{.}}" defer></script>
{{- end}}`))

	messageTpl = template.Must(template.New("message").Parse(
		`<div class="{{.Class}}" role="status">{{.Text}}</div>`))
)

// Render writes the markup for v.
func Render(w io.Writer, v View) error {
	d := v.Def
	sub := v.State.Submission

	switch {
	case sub.Loading() && d.Substitutes.Loading != "":
		_, err := io.WriteString(w, d.Substitutes.Loading)
		return err

	case sub.Failed():
		if d.Substitutes.Error != "" {
			_, err := io.WriteString(w, d.Substitutes.Error)
			return err
		}
		return messageTpl.Execute(w, messageData{Class: d.Class(ClassError), Text: d.Message(MsgSubmitError)})

	case sub.Succeeded():
		html, ok, err := d.RenderSuccess(SubscribedUser{
			Email: v.State.Email,
			Name:  deref(v.State.Name),
			Phone: deref(v.State.Phone),
		})
		if err != nil {
			return err
		}
		if ok {
			_, err = io.WriteString(w, string(html))
			return err
		}
		return messageTpl.Execute(w, messageData{Class: d.Class(ClassSuccess), Text: d.Message(MsgSubmitSuccess)})
	}

	return renderForm(w, v)
}

func renderForm(w io.Writer, v View) error {
	now := v.Now
	if now.IsZero() {
		now = time.Now()
	}
	fd := formData{
		View:      v,
		Name:      deref(v.State.Name),
		Phone:     deref(v.State.Phone),
		Confirmed: v.State.Confirmation != nil && *v.State.Confirmation,
		RenderTS:  now.UnixMicro(),
		FormClass: v.Def.Class(ClassForm),
	}
	for _, cf := range v.Def.CustomFields {
		cur := cf.Value
		for _, live := range v.State.CustomFields {
			if live.Name == cf.Name {
				cur = deref(live.Value)
			}
		}
		fd.Custom = append(fd.Custom, customInput{CustomFieldDef: cf, Current: cur})
	}
	return formTpl.Execute(w, fd)
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
