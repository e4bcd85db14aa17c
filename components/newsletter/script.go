package newsletter

import "net/http"

const (
	scriptPath   = "/newsletter/widget.js"
	validatePath = "/api/newsletter/validate"
)

// widgetJS re-checks the fields through the validate endpoint on every
// input and toggles the submit button.  Responses that arrive out of order
// are dropped.  A network or server error leaves the button enabled so the
// server-side checks still decide.
const widgetJS = `(function () {
  "use strict";

  function value(form, name) {
    var el = form.elements[name];
    return el ? el.value : undefined;
  }

  function wire(form) {
    if (form.getAttribute("data-nl-wired")) return;
    form.setAttribute("data-nl-wired", "1");

    var btn = form.querySelector("button[type=submit]");
    var endpoint = form.getAttribute("data-validate");
    if (!btn || !endpoint) return;

    var seq = 0;
    function check() {
      var id = ++seq;
      var body = { form: value(form, "form_id") || "", email: value(form, "email") || "" };
      if (form.elements.name) body.name = value(form, "name");
      if (form.elements.phone) body.phone = value(form, "phone");

      fetch(endpoint, {
        method: "POST",
        credentials: "same-origin",
        headers: { "Content-Type": "application/json" },
        body: JSON.stringify(body)
      }).then(function (resp) {
        return resp.ok ? resp.json() : null;
      }).then(function (res) {
        if (id !== seq) return;
        btn.disabled = res ? !res.valid : false;
      }).catch(function () {
        if (id === seq) btn.disabled = false;
      });
    }

    form.addEventListener("input", check);
    form.addEventListener("change", check);
  }

  var forms = document.querySelectorAll("form[data-validate]");
  for (var i = 0; i < forms.length; i++) wire(forms[i]);
})();
`

func getScript(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write([]byte(widgetJS))
}
