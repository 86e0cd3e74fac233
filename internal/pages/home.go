package pages

import (
	"fmt"
	"strings"

	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"github.com/Jonnydevp/FitPose/internal/analysis"
	"github.com/Jonnydevp/FitPose/internal/exercise"
	"github.com/Jonnydevp/FitPose/internal/history"
	"github.com/Jonnydevp/FitPose/internal/validate"
)

type HomeData struct {
	Snapshot       analysis.Snapshot
	Exercises      []exercise.Exercise
	HistoryEnabled bool
	History        []history.Entry
	Nonce          string
}

func Home(data HomeData) g.Node {
	snap := data.Snapshot
	card := uploadWidget(snap, data.Exercises)
	if snap.State == analysis.StateSucceeded && snap.Result != nil {
		card = results(snap)
	}
	return Layout(
		PageConfig{Active: ViewHome, Nonce: data.Nonce, State: string(snap.State)},
		Section(
			Class("hero"),
			H1(g.Text("FitPose")),
			P(g.Text("AI-powered form analysis to perfect your workouts. Upload your exercise video and get instant feedback.")),
			Div(Class("card"), card),
		),
		g.If(data.HistoryEnabled, progress(data.History)),
		features(),
	)
}

func uploadWidget(snap analysis.Snapshot, exercises []exercise.Exercise) g.Node {
	busy := snap.State == analysis.StateSubmitting
	noExercise := snap.Exercise == ""

	return Div(
		Class("upload"),
		Form(
			ID("exercise-form"),
			Method("post"),
			Action("/analysis/exercise"),
			Label(For("exercise"), g.Text("Select Exercise")),
			Select(
				ID("exercise"),
				Name("exercise"),
				g.If(busy, Disabled()),
				Option(Value(""), g.Text("Choose an exercise...")),
				g.Map(exercises, func(e exercise.Exercise) g.Node {
					return Option(Value(e.String()), g.If(e == snap.Exercise, Selected()), g.Text(e.String()))
				}),
			),
			Button(Type("submit"), Data("js-hide", ""), g.If(busy, Disabled()), g.Text("Choose")),
		),
		Form(
			ID("upload-form"),
			Method("post"),
			Action("/analysis/upload"),
			g.Attr("enctype", "multipart/form-data"),
			Input(Type("hidden"), Name("exercise"), Value(snap.Exercise.String())),
			Label(For("file"), g.Text(fmt.Sprintf("Upload Video (max %dMB)", validate.MaxVideoMegabytes))),
			Div(
				Class("dropzone "+string(snap.State)),
				Input(
					ID("file"),
					Type("file"),
					Name("file"),
					Accept(validate.VideoMIMEPrefix+"*"),
					g.If(noExercise || busy, Disabled()),
				),
				prompt(snap),
			),
			Button(Type("submit"), Data("js-hide", ""), g.If(noExercise || busy, Disabled()), g.Text("Analyze")),
		),
	)
}

func prompt(snap analysis.Snapshot) g.Node {
	switch {
	case snap.State == analysis.StateSubmitting:
		var file g.Node
		if snap.File != nil {
			file = P(Class("prompt-file"), g.Text(fileName(snap.File)))
		}
		return Div(
			Class("prompt"),
			P(Class("prompt-title"), g.Text("Analyzing your form...")),
			P(Class("prompt-hint"), g.Text("This may take a few moments")),
			file,
		)
	case snap.State == analysis.StateFailed:
		return Div(
			Class("prompt error"),
			Role("alert"),
			P(Class("prompt-title"), g.Text(snap.ErrorMessage)),
			P(Class("prompt-hint"), g.Text("Choose another file to try again")),
		)
	case snap.Exercise == "":
		return Div(
			Class("prompt"),
			P(Class("prompt-title"), g.Text("Click to upload your exercise video")),
			P(Class("prompt-hint"), g.Text(validate.MsgNoExercise)),
		)
	default:
		return Div(
			Class("prompt"),
			P(Class("prompt-title"), g.Text("Click to upload your exercise video")),
			P(Class("prompt-hint"), g.Text("Video files only")),
		)
	}
}

func results(snap analysis.Snapshot) g.Node {
	var note g.Node
	if n := snap.Result.Analysis.Note; n != "" {
		note = P(Class("note"), g.Text(n))
	}
	return Div(
		Class("results"),
		H3(g.Text("Analysis Complete!")),
		P(g.Textf("Your %s form has been analyzed. Results are ready!", snap.Exercise.Lower())),
		Div(
			Class("results-body"),
			H4(g.Text("Analysis Results:")),
			Ul(g.Map(snap.Result.Summary(), func(l analysis.Line) g.Node {
				return Li(g.Textf("%s: %s", l.Label, l.Value))
			})),
			note,
		),
		Form(
			Method("post"),
			Action("/analysis/reset"),
			Button(Type("submit"), Class("primary"), g.Text("Analyze Another Video")),
		),
	)
}

func progress(entries []history.Entry) g.Node {
	return Section(
		Class("progress"),
		H2(g.Text("Progress Tracking")),
		g.If(len(entries) == 0, P(g.Text("Your analyses will appear here."))),
		g.If(len(entries) > 0, Ul(g.Map(entries, func(e history.Entry) g.Node {
			return Li(
				Class("history-"+e.Status),
				Span(Class("when"), g.Text(e.CreatedAt.Local().Format("Jan 2 15:04"))),
				Span(Class("what"), g.Text(strings.TrimSpace(e.Exercise+" "+e.FileName))),
				Span(Class("outcome"), g.Text(outcome(e))),
			)
		}))),
	)
}

func outcome(e history.Entry) string {
	if e.Status == string(analysis.StateSucceeded) {
		if e.OverallScore != nil {
			return fmt.Sprintf("%.1f/10", *e.OverallScore)
		}
		return "Done"
	}
	return e.ErrorMessage
}

func features() g.Node {
	items := []struct{ title, text string }{
		{"Precision Analysis", "Advanced AI algorithms analyze your form with surgical precision"},
		{"Expert Feedback", "Get professional-level coaching recommendations instantly"},
		{"Progress Tracking", "Monitor your improvement over time with detailed analytics"},
	}
	return Section(
		Class("features"),
		H2(g.Text("Why Choose FitPose?")),
		Div(Class("grid"), g.Map(items, func(it struct{ title, text string }) g.Node {
			return Div(Class("feature"), H3(g.Text(it.title)), P(g.Text(it.text)))
		})),
	)
}

func fileName(f *analysis.FileInfo) string {
	return fmt.Sprintf("%s (%.1f MB)", f.Name, float64(f.Size)/(1024*1024))
}
