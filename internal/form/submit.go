// internal/form/submit.go
//
// Form POST decoding.
//
// Context
//   A browser post carries the visible inputs plus the hidden csrf_token,
//   render_ts, and form_id.  Decode verifies the hidden inputs and turns the
//   visible ones into newsletter actions, in field order, ready for
//   Store.Dispatch.  It performs no field validation; that is the
//   controller's job at submit time.
//
// Notes
//   •  A blank optional input decodes to nil (not provided) rather than "".
//   •  Posts that arrive faster than MinFill after render are treated as bots,
//      as are forms older than MaxAge.
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yanizio/newsletter/internal/newsletter"
)

const (
	DefaultMinFill = 2 * time.Second
	DefaultMaxFill = 30 * time.Minute
)

// RejectError marks a post refused before it reached the store.  Reason is
// safe to show to the visitor.
type RejectError struct {
	Reason string
}

func (e RejectError) Error() string { return "form: " + e.Reason }

// IsRejected reports whether err came from a refused post.
func IsRejected(err error) bool {
	var re RejectError
	return errors.As(err, &re)
}

// Decoder turns posts into actions.
type Decoder struct {
	CSRF    *CSRF
	MinFill time.Duration
	MaxFill time.Duration
	now     func() time.Time
}

// NewDecoder returns a decoder with the default timing window.
func NewDecoder(c *CSRF) *Decoder {
	return &Decoder{CSRF: c, MinFill: DefaultMinFill, MaxFill: DefaultMaxFill, now: time.Now}
}

// FormID returns the posted form_id, parsing the body if needed.
func FormID(r *http.Request) string {
	return strings.TrimSpace(r.FormValue("form_id"))
}

// Decode verifies r and maps its inputs onto actions for def.
func (d *Decoder) Decode(r *http.Request, def *Definition) ([]newsletter.Action, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("parse form: %w", err)
	}
	pf := r.PostForm

	if d.CSRF != nil && !d.CSRF.Verify(pf.Get("csrf_token")) {
		return nil, RejectError{Reason: "invalid or expired token"}
	}
	if err := d.checkTiming(pf.Get("render_ts")); err != nil {
		return nil, err
	}

	acts := []newsletter.Action{
		newsletter.UpdateEmail{Value: strings.TrimSpace(pf.Get("email"))},
	}
	if def.Fields.Name.Enabled {
		acts = append(acts, newsletter.UpdateName{Value: optional(pf.Get("name"))})
	}
	if def.Fields.Phone.Enabled {
		acts = append(acts, newsletter.UpdatePhone{Value: optional(pf.Get("phone"))})
	}
	if def.Fields.Confirmation.Enabled {
		on := pf.Get("confirmation") != ""
		acts = append(acts, newsletter.UpdateConfirmation{Value: &on})
	}
	if len(def.CustomFields) > 0 {
		custom := make([]newsletter.CustomField, 0, len(def.CustomFields))
		for _, cf := range def.CustomFields {
			v := newsletter.StringPtr(cf.Value)
			if cf.Editable {
				v = optional(pf.Get("custom." + cf.Name))
			}
			custom = append(custom, newsletter.CustomField{Name: cf.Name, Value: v})
		}
		acts = append(acts, newsletter.SetCustomValues{Value: custom})
	}
	return acts, nil
}

// checkTiming rejects posts that are too quick or too old.  A missing
// timestamp is tolerated.
func (d *Decoder) checkTiming(raw string) error {
	if raw == "" {
		return nil
	}
	us, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return RejectError{Reason: "malformed form"}
	}
	now := time.Now
	if d.now != nil {
		now = d.now
	}
	elapsed := now().Sub(time.UnixMicro(us))
	switch {
	case d.MinFill > 0 && elapsed < d.MinFill:
		return RejectError{Reason: "submitted too quickly"}
	case d.MaxFill > 0 && elapsed > d.MaxFill:
		return RejectError{Reason: "form expired, reload the page"}
	}
	return nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
