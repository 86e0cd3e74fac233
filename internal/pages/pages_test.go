package pages

import (
	"strings"
	"testing"
	"time"

	g "maragu.dev/gomponents"

	"github.com/Jonnydevp/FitPose/internal/analysis"
	"github.com/Jonnydevp/FitPose/internal/exercise"
	"github.com/Jonnydevp/FitPose/internal/history"
)

func render(t *testing.T, n g.Node) string {
	t.Helper()
	var b strings.Builder
	if err := n.Render(&b); err != nil {
		t.Fatalf("render: %v", err)
	}
	return b.String()
}

func assertContains(t *testing.T, html string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(html, w) {
			t.Errorf("expected page to contain %q", w)
		}
	}
}

func assertNotContains(t *testing.T, html string, unwanted ...string) {
	t.Helper()
	for _, w := range unwanted {
		if strings.Contains(html, w) {
			t.Errorf("expected page not to contain %q", w)
		}
	}
}

func TestHomeIdleDisablesFileInputUntilExerciseChosen(t *testing.T) {
	html := render(t, Home(HomeData{
		Snapshot:  analysis.Snapshot{State: analysis.StateIdle},
		Exercises: exercise.All(),
	}))

	assertContains(t, html,
		"<!DOCTYPE html>",
		"Choose an exercise...",
		`<option value="Mountain Climbers">Mountain Climbers</option>`,
		"Please select an exercise first",
		`name="file" accept="video/*" disabled`,
		"Why Choose FitPose?",
	)
	assertNotContains(t, html, "Analysis Complete!", "Progress Tracking</h2>")
}

func TestHomeMarksSelectedExercise(t *testing.T) {
	html := render(t, Home(HomeData{
		Snapshot:  analysis.Snapshot{State: analysis.StateIdle, Exercise: exercise.Squats},
		Exercises: exercise.All(),
	}))

	assertContains(t, html,
		`<option value="Squats" selected>Squats</option>`,
		`<input type="hidden" name="exercise" value="Squats">`,
		"Click to upload your exercise video",
	)
	assertNotContains(t, html, `accept="video/*" disabled`)
}

func TestHomeSubmittingShowsProgress(t *testing.T) {
	html := render(t, Home(HomeData{
		Snapshot: analysis.Snapshot{
			State:    analysis.StateSubmitting,
			Exercise: exercise.Squats,
			File:     &analysis.FileInfo{Name: "squat.mp4", Size: 3 * 1024 * 1024, MIMEType: "video/mp4"},
		},
		Exercises: exercise.All(),
		Nonce:     "abc123",
	}))

	assertContains(t, html,
		`data-state="submitting"`,
		"Analyzing your form...",
		"This may take a few moments",
		"squat.mp4 (3.0 MB)",
		`<select id="exercise" name="exercise" disabled>`,
		`<script nonce="abc123">`,
		"/api/analysis/events",
	)
}

func TestHomeFailedShowsErrorInPlaceOfPrompt(t *testing.T) {
	html := render(t, Home(HomeData{
		Snapshot: analysis.Snapshot{
			State:        analysis.StateFailed,
			Exercise:     exercise.Squats,
			ErrorMessage: "File is too large. Maximum size: 50MB",
		},
		Exercises: exercise.All(),
	}))

	assertContains(t, html, `role="alert"`, "File is too large. Maximum size: 50MB")
	assertNotContains(t, html, "Click to upload your exercise video")
}

func TestHomeSucceededShowsResults(t *testing.T) {
	score := 8.5
	result := &analysis.Result{
		Status: "success",
		Analysis: analysis.Assessment{
			OverallScore: &score,
			Technique:    analysis.TechniqueAnalysis{FormQuality: "good", RangeOfMotion: "full"},
			Feedback:     analysis.Feedback{SpecificTips: []string{"Keep your core engaged"}},
		},
	}
	html := render(t, Home(HomeData{
		Snapshot:  analysis.Snapshot{State: analysis.StateSucceeded, Exercise: exercise.MountainClimbers, Result: result},
		Exercises: exercise.All(),
	}))

	assertContains(t, html,
		"Analysis Complete!",
		"Your mountain climbers form has been analyzed. Results are ready!",
		"Analysis Results:",
		"Form accuracy: 85% - Good job!",
		"Posture alignment: Good",
		"Range of motion: Full",
		"Recommendations: Keep your core engaged",
		`action="/analysis/reset"`,
		"Analyze Another Video",
	)
	assertNotContains(t, html, `action="/analysis/upload"`)
}

func TestHomeHistory(t *testing.T) {
	score := 7.5
	entries := []history.Entry{
		{Exercise: "Squats", FileName: "a.mp4", Status: "succeeded", OverallScore: &score, CreatedAt: time.Now()},
		{Exercise: "Lunges", FileName: "b.mp4", Status: "failed", ErrorMessage: "Server error: 500", CreatedAt: time.Now()},
	}
	html := render(t, Home(HomeData{
		Snapshot:       analysis.Snapshot{State: analysis.StateIdle},
		HistoryEnabled: true,
		History:        entries,
	}))

	assertContains(t, html, "Progress Tracking</h2>", "Squats a.mp4", "7.5/10", "Server error: 500")
}

func TestHomeHistoryEmpty(t *testing.T) {
	html := render(t, Home(HomeData{HistoryEnabled: true}))
	assertContains(t, html, "Your analyses will appear here.")
}

func TestNavbarHighlightsActiveView(t *testing.T) {
	tests := []struct {
		view View
		want string
	}{
		{ViewHome, `<a href="/" class="active" aria-current="page">home</a>`},
		{ViewAbout, `<a href="/about" class="active" aria-current="page">about</a>`},
		{ViewContact, `<a href="/contact" class="active" aria-current="page">contact</a>`},
	}
	for _, tt := range tests {
		t.Run(string(tt.view), func(t *testing.T) {
			html := render(t, Navbar(tt.view))
			assertContains(t, html, tt.want)
			if n := strings.Count(html, `class="active"`); n != 1 {
				t.Errorf("expected exactly one active link, got %d", n)
			}
		})
	}
}

func TestAbout(t *testing.T) {
	html := render(t, About(""))
	assertContains(t, html, "About FitPose", "Revolutionizing fitness through AI-powered form analysis", "50K+", "95%", "24/7")
	assertNotContains(t, html, "<script")
}

func TestContactFormDoesNotSubmit(t *testing.T) {
	html := render(t, Contact("n"))
	assertContains(t, html,
		"Contact Us",
		"hello@fitpose.ai",
		"+1 (555) 123-4567",
		"Sunday: Closed",
		`<button id="contact-send" type="button"`,
	)
	assertNotContains(t, html, "<form")
}
