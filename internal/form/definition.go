// internal/form/definition.go
//
// Newsletter widget definitions.
//
// Context
//   Each newsletter widget on the storefront is declared in a YAML file under
//   the configured definitions directory.  A definition chooses which optional
//   inputs appear, which hidden custom fields ride along with every
//   submission, the analytics event id, the masterdata entity, and the HTML
//   substitutes shown while loading, after success, and after failure.
//
// Workflow
//   •  ParseDefinition decodes one YAML document, validates it, sanitises the
//      substitutes with bluemonday, and compiles the success template.
//   •  Registry.LoadDir walks “*.yaml” in one directory and registers each
//      definition by id.  A later file with the same id replaces the earlier.
//   •  Registry.Get offers read-only access by id.
//
// Style
//   Two-space sentence spacing, Oxford comma, terse inline notes.
//
//------------------------------------------------------------------------------

package form

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"gopkg.in/yaml.v3"

	"github.com/yanizio/newsletter/internal/newsletter"
)

// Message keys resolved through Definition.Message.
const (
	MsgSubmitError   = "store/newsletter-submit-error.default"
	MsgSubmitSuccess = "store/newsletter-submit-success.default"
)

// Class hooks resolved through Definition.Class.
const (
	ClassForm    = "newsletterForm"
	ClassSuccess = "defaultSuccessMessage"
	ClassError   = "defaultErrorMessage"
)

const defaultSubmitLabel = "Registrar"

var defaultMessages = map[string]string{
	MsgSubmitError:   "Ocorreu um erro, tente novamente.",
	MsgSubmitSuccess: "Obrigado por se inscrever!",
}

var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// substitutePolicy strips scripts and event handlers but keeps the class
// attributes themes rely on.
var substitutePolicy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Globally()
	return p
}()

//---------------------------------------------------------------------
// Schema
//---------------------------------------------------------------------

// Definition is one newsletter widget.
type Definition struct {
	ID            string            `yaml:"id"`
	Title         string            `yaml:"title"`
	Entity        string            `yaml:"entity"`          // Empty → newsletter.DefaultEntity.
	CustomEventID string            `yaml:"custom_event_id"` // Analytics event id.
	Forward       string            `yaml:"forward"`         // full | legacy; empty → full.
	Fields        FieldSet          `yaml:"fields"`
	CustomFields  []CustomFieldDef  `yaml:"custom_fields"`
	Substitutes   Substitutes       `yaml:"substitutes"`
	Messages      map[string]string `yaml:"messages"`
	Classes       map[string]string `yaml:"classes"`
	SubmitLabel   string            `yaml:"submit_label"`

	forward newsletter.Forward
	success *template.Template
}

// FieldSet lists the inputs a widget renders.  Email is always present.
type FieldSet struct {
	Email        FieldDef `yaml:"email"`
	Name         FieldDef `yaml:"name"`
	Phone        FieldDef `yaml:"phone"`
	Confirmation FieldDef `yaml:"confirmation"`
}

// FieldDef toggles and labels one input.
type FieldDef struct {
	Enabled     bool   `yaml:"enabled"`
	Label       string `yaml:"label"`
	Placeholder string `yaml:"placeholder"`
	Error       string `yaml:"error"` // Shown while the field is flagged invalid.
}

// CustomFieldDef is an extra document field.  Hidden fields always send
// Value; editable ones render a text input prefilled with it.
type CustomFieldDef struct {
	Name     string `yaml:"name"`
	Value    string `yaml:"value"`
	Editable bool   `yaml:"editable"`
	Label    string `yaml:"label"`
}

// Substitutes are HTML fragments replacing the form in a given phase.
type Substitutes struct {
	Loading string `yaml:"loading"`
	Success string `yaml:"success"` // html/template; receives SubscribedUser.
	Error   string `yaml:"error"`
}

// SubscribedUser is the data handed to the success substitute.
type SubscribedUser struct {
	Email string
	Name  string
	Phone string
}

// ForwardMode returns the parsed forwarding mode.
func (d *Definition) ForwardMode() newsletter.Forward { return d.forward }

// Message resolves key through the definition's table, then the built-in
// defaults.  Unknown keys are returned as-is.
func (d *Definition) Message(key string) string {
	if m, ok := d.Messages[key]; ok && m != "" {
		return m
	}
	if m, ok := defaultMessages[key]; ok {
		return m
	}
	return key
}

// Class returns the theme class for hook, or the hook name itself.
func (d *Definition) Class(hook string) string {
	if c, ok := d.Classes[hook]; ok && c != "" {
		return c
	}
	return hook
}

// CustomValues returns the initial custom field list for a fresh store.
func (d *Definition) CustomValues() []newsletter.CustomField {
	if len(d.CustomFields) == 0 {
		return nil
	}
	out := make([]newsletter.CustomField, 0, len(d.CustomFields))
	for _, cf := range d.CustomFields {
		out = append(out, newsletter.CustomField{Name: cf.Name, Value: newsletter.StringPtr(cf.Value)})
	}
	return out
}

// RenderSuccess executes the success substitute.  ok is false when the
// definition has none.
func (d *Definition) RenderSuccess(u SubscribedUser) (template.HTML, bool, error) {
	if d.success == nil {
		return "", false, nil
	}
	var buf bytes.Buffer
	if err := d.success.Execute(&buf, u); err != nil {
		return "", true, fmt.Errorf("success substitute %s: %w", d.ID, err)
	}
	return template.HTML(buf.String()), true, nil
}

// DefaultDefinition is used when no definition files are configured.
func DefaultDefinition() *Definition {
	d := &Definition{ID: "default", Title: "Newsletter"}
	d.Fields.Name.Enabled = true
	_ = d.compile("builtin")
	return d
}

//---------------------------------------------------------------------
// Parsing
//---------------------------------------------------------------------

// LoadDefinition reads and parses one YAML file.
func LoadDefinition(path string) (*Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definition %s: %w", path, err)
	}
	return ParseDefinition(raw, path)
}

// ParseDefinition decodes raw YAML.  src only labels errors.
func ParseDefinition(raw []byte, src string) (*Definition, error) {
	var d Definition
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("parse YAML %s: %w", src, err)
	}
	if err := d.compile(src); err != nil {
		return nil, err
	}
	return &d, nil
}

// compile validates d and fills derived state.
func (d *Definition) compile(src string) error {
	if !idPattern.MatchString(d.ID) {
		return fmt.Errorf("definition %s: invalid id %q", src, d.ID)
	}

	fw, err := newsletter.ParseForward(d.Forward)
	if err != nil {
		return fmt.Errorf("definition %s: %w", src, err)
	}
	d.forward = fw

	for i, cf := range d.CustomFields {
		if strings.TrimSpace(cf.Name) == "" {
			return fmt.Errorf("definition %s: custom field %d missing 'name'", src, i+1)
		}
	}

	if d.SubmitLabel == "" {
		d.SubmitLabel = defaultSubmitLabel
	}

	d.Substitutes.Loading = substitutePolicy.Sanitize(d.Substitutes.Loading)
	d.Substitutes.Error = substitutePolicy.Sanitize(d.Substitutes.Error)
	if s := strings.TrimSpace(d.Substitutes.Success); s != "" {
		// Sanitise before parsing so template actions survive but markup
		// from the file cannot carry scripts.
		tpl, err := template.New(d.ID + "/success").Parse(substitutePolicy.Sanitize(s))
		if err != nil {
			return fmt.Errorf("definition %s: success substitute: %w", src, err)
		}
		d.success = tpl
	}
	return nil
}

//---------------------------------------------------------------------
// Registry
//---------------------------------------------------------------------

// Registry maps definition id → *Definition.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]*Definition
}

// NewRegistry returns a registry seeded with defs.
func NewRegistry(defs ...*Definition) *Registry {
	r := &Registry{defs: make(map[string]*Definition, len(defs))}
	for _, d := range defs {
		r.defs[d.ID] = d
	}
	return r
}

// LoadDir registers every “*.yaml” in dir.  Files are read in name order.
// A missing directory is not an error.
func (r *Registry) LoadDir(dir string) error {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return err
	}
	slices.Sort(paths)
	for _, p := range paths {
		d, err := LoadDefinition(p)
		if err != nil {
			return err
		}
		r.Add(d)
	}
	return nil
}

// Add inserts or replaces d.
func (r *Registry) Add(d *Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[d.ID] = d
}

// Get returns the definition for id.
func (r *Registry) Get(id string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.defs[id]
	return d, ok
}

// IDs lists registered ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.defs))
	for id := range r.defs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
