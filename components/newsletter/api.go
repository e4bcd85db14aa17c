package newsletter

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/yanizio/newsletter/internal/form"
	"github.com/yanizio/newsletter/internal/masterdata"
	nl "github.com/yanizio/newsletter/internal/newsletter"
	"github.com/yanizio/newsletter/internal/validators"
)

const maxBody = 64 << 10

var validate = validator.New(validator.WithRequiredStructEnabled())

// apiRequest is the JSON body of both API endpoints.  Tags bound sizes
// only; field rules are applied by the controller.
type apiRequest struct {
	Form         string           `json:"form"         validate:"omitempty,max=64"`
	Email        string           `json:"email"        validate:"max=320"`
	Name         *string          `json:"name"         validate:"omitempty,max=200"`
	Phone        *string          `json:"phone"        validate:"omitempty,max=40"`
	Confirmation *bool            `json:"confirmation"`
	CustomFields []nl.CustomField `json:"customFields" validate:"max=50,dive"`
}

// actions maps the body onto store actions.  Definition custom fields come
// first so request values with the same name win.
func (req apiRequest) actions(def *form.Definition) []nl.Action {
	acts := []nl.Action{
		nl.UpdateEmail{Value: strings.TrimSpace(req.Email)},
		nl.UpdateName{Value: trimmed(req.Name)},
		nl.UpdatePhone{Value: trimmed(req.Phone)},
	}
	if req.Confirmation != nil {
		acts = append(acts, nl.UpdateConfirmation{Value: req.Confirmation})
	}
	if custom := append(def.CustomValues(), req.CustomFields...); len(custom) > 0 {
		acts = append(acts, nl.SetCustomValues{Value: custom})
	}
	return acts
}

type apiResponse struct {
	Phase        string                  `json:"phase"`
	Valid        bool                    `json:"valid"`
	InvalidEmail bool                    `json:"invalidEmail"`
	InvalidName  bool                    `json:"invalidName"`
	InvalidPhone bool                    `json:"invalidPhone"`
	Document     *masterdata.DocumentRef `json:"document,omitempty"`
	Message      string                  `json:"message,omitempty"`
}

type apiError struct {
	Error string `json:"error"`
}

// decodeRequest reads and bounds-checks the body.  It writes the error
// response itself and reports false on failure.
func (c *Comp) decodeRequest(w http.ResponseWriter, r *http.Request) (apiRequest, *form.Definition, bool) {
	var req apiRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "malformed request body"})
		return req, nil, false
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return req, nil, false
	}
	def, ok := c.definition(req.Form)
	if !ok {
		writeJSON(w, http.StatusNotFound, apiError{Error: "unknown form"})
		return req, nil, false
	}
	return req, def, true
}

// postAPI submits with a throwaway instance.
func (c *Comp) postAPI(w http.ResponseWriter, r *http.Request) {
	req, def, ok := c.decodeRequest(w, r)
	if !ok {
		return
	}

	out := c.controller(nl.NewStore(), def).SubmitWith(r.Context(), req.actions(def)...)

	sub := out.State.Submission
	resp := apiResponse{
		Phase:        sub.Phase.String(),
		Valid:        out.Valid,
		InvalidEmail: out.InvalidEmail,
		InvalidName:  out.InvalidName,
		InvalidPhone: out.InvalidPhone,
	}
	switch {
	case sub.Succeeded():
		resp.Document = sub.Data
		resp.Message = def.Message(form.MsgSubmitSuccess)
	case sub.Failed():
		resp.Message = def.Message(form.MsgSubmitError)
	}
	writeJSON(w, statusFor(out), resp)
}

// postValidate reports validity without touching analytics or the store.
func (c *Comp) postValidate(w http.ResponseWriter, r *http.Request) {
	req, def, ok := c.decodeRequest(w, r)
	if !ok {
		return
	}
	s := nl.InitialState()
	for _, a := range req.actions(def) {
		s = nl.Reduce(s, a)
	}
	resp := apiResponse{
		Phase:        s.Submission.Phase.String(),
		InvalidEmail: !validators.ValidateEmail(s.Email),
		InvalidName:  !validators.OptionalName(s.Name),
		InvalidPhone: !validators.OptionalPhone(s.Phone),
	}
	resp.Valid = !resp.InvalidEmail && !resp.InvalidName && !resp.InvalidPhone
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	if s == "" {
		return nil
	}
	return &s
}
