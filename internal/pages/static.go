package pages

import (
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

func About(nonce string) g.Node {
	stats := []struct{ value, label string }{
		{"50K+", "Videos Analyzed"},
		{"95%", "Accuracy Rate"},
		{"24/7", "Available"},
	}
	return Layout(
		PageConfig{Title: "About FitPose", Active: ViewAbout, Nonce: nonce},
		Section(
			Class("page"),
			H1(g.Text("About FitPose")),
			P(Class("lead"), g.Text("Revolutionizing fitness through AI-powered form analysis")),
			P(g.Text("FitPose was born from a simple yet powerful idea: everyone deserves access to professional-quality fitness coaching. Using computer vision and machine learning, we analyze your exercise form and give you feedback that helps you train safer and more effectively.")),
			P(g.Text("Whether you're a beginner learning proper form or an athlete fine-tuning your technique, FitPose adapts to your level and goals.")),
			P(g.Text("Perfect your form, prevent injuries, and reach your fitness goals faster.")),
			Div(Class("stats"), g.Map(stats, func(s struct{ value, label string }) g.Node {
				return Div(Class("stat"), Div(Class("stat-value"), g.Text(s.value)), Div(Class("stat-label"), g.Text(s.label)))
			})),
		),
	)
}

// Contact renders the contact page. The form is not wired to any backend.
func Contact(nonce string) g.Node {
	return Layout(
		PageConfig{Title: "Contact FitPose", Active: ViewContact, Nonce: nonce},
		Section(
			Class("page"),
			H1(g.Text("Contact Us")),
			P(Class("lead"), g.Text("Have questions? We'd love to hear from you. Get in touch with our team.")),
			Div(
				Class("contact"),
				Div(
					Class("contact-form"),
					H2(g.Text("Send us a message")),
					Input(Type("text"), Name("name"), Placeholder("Your Name"), MaxLength("100")),
					Input(Type("email"), Name("email"), Placeholder("Your Email"), MaxLength("254")),
					Textarea(Name("message"), Rows("5"), Placeholder("Your Message"), MaxLength("5000")),
					Button(ID("contact-send"), Type("button"), Class("primary"), g.Text("Send Message")),
					P(ID("contact-status"), g.Attr("hidden"), g.Text("Message sent! We'll get back to you soon.")),
				),
				Div(
					Class("contact-info"),
					H2(g.Text("Get in touch")),
					Dl(
						Dt(g.Text("Email")), Dd(g.Text("hello@fitpose.ai")),
						Dt(g.Text("Phone")), Dd(g.Text("+1 (555) 123-4567")),
						Dt(g.Text("Address")), Dd(g.Text("123 Fitness Street"), Br(), g.Text("Tech City, TC 12345")),
					),
					H3(g.Text("Office Hours")),
					P(g.Text("Monday - Friday: 9:00 AM - 6:00 PM")),
					P(g.Text("Saturday: 10:00 AM - 4:00 PM")),
					P(g.Text("Sunday: Closed")),
				),
			),
		),
	)
}
