package pages

import (
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

// View names the three pages reachable from the navbar.
type View string

const (
	ViewHome    View = "home"
	ViewAbout   View = "about"
	ViewContact View = "contact"
)

var views = []View{ViewHome, ViewAbout, ViewContact}

func (v View) Path() string {
	if v == ViewHome {
		return "/"
	}
	return "/" + string(v)
}

type PageConfig struct {
	Title       string
	Description string
	Active      View
	Nonce       string
	State       string
}

func Layout(config PageConfig, content ...g.Node) g.Node {
	if config.Title == "" {
		config.Title = "FitPose - AI form analysis"
	}
	if config.Description == "" {
		config.Description = "AI-powered form analysis to perfect your workouts. Upload your exercise video and get instant feedback."
	}

	return g.Group([]g.Node{
		g.Raw("<!DOCTYPE html>"),
		HTML(
			Lang("en"),
			Head(
				Meta(Charset("utf-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1.0")),
				TitleEl(g.Text(config.Title)),
				Meta(Name("description"), Content(config.Description)),
				Link(Rel("stylesheet"), Href("/static/styles.css")),
			),
			Body(
				g.If(config.State != "", Data("state", config.State)),
				Navbar(config.Active),
				Main(g.Group(content)),
				Footer(Class("footer"), P(g.Text("FitPose"))),
				g.If(config.Nonce != "", Script(g.Attr("nonce", config.Nonce), g.Raw(pageScript))),
			),
		),
	})
}

func Navbar(active View) g.Node {
	return Nav(
		Class("navbar"),
		A(Href("/"), Class("logo"), g.Text("Fit"), Span(g.Text("Pose"))),
		Ul(
			Class("nav-links"),
			g.Map(views, func(v View) g.Node {
				return Li(A(
					Href(v.Path()),
					g.If(v == active, Class("active")),
					g.If(v == active, g.Attr("aria-current", "page")),
					g.Text(string(v)),
				))
			}),
		),
	)
}

// pageScript auto-submits the upload widget and reloads once a running
// analysis finishes. The page works without it, one click slower.
const pageScript = `(function () {
  var select = document.getElementById("exercise");
  if (select) {
    select.addEventListener("change", function () { select.form.submit(); });
  }
  var file = document.getElementById("file");
  if (file) {
    file.addEventListener("change", function () { if (file.files.length) { file.form.submit(); } });
  }
  var hide = document.querySelectorAll("[data-js-hide]");
  for (var i = 0; i < hide.length; i++) { hide[i].hidden = true; }
  if (document.body.dataset.state === "submitting" && window.EventSource) {
    var events = new EventSource("/api/analysis/events");
    events.onmessage = function (e) {
      var snap = JSON.parse(e.data);
      if (snap.state !== "submitting") { events.close(); window.location.reload(); }
    };
  }
  var contact = document.getElementById("contact-send");
  if (contact) {
    contact.addEventListener("click", function () {
      document.getElementById("contact-status").hidden = false;
    });
  }
})();`
