package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

const statusSuccess = "success"

type TechniqueAnalysis struct {
	FormQuality   string `json:"form_quality"`
	Symmetry      string `json:"symmetry"`
	RangeOfMotion string `json:"range_of_motion"`
	Tempo         string `json:"tempo"`
}

type Feedback struct {
	Positive     []string `json:"positive"`
	Improvements []string `json:"improvements"`
	SpecificTips []string `json:"specific_tips"`
}

type Assessment struct {
	OverallScore     *float64          `json:"overall_score"`
	ExerciseDetected string            `json:"exercise_detected"`
	Technique        TechniqueAnalysis `json:"technique_analysis"`
	Feedback         Feedback          `json:"feedback"`
	RepCountAccuracy string            `json:"rep_count_accuracy"`
	SafetyConcerns   []string          `json:"safety_concerns"`
	Note             string            `json:"note"`
}

type Metrics struct {
	RepCount    int      `json:"rep_count"`
	TotalFrames int      `json:"total_frames"`
	Duration    float64  `json:"duration"`
	FPS         *float64 `json:"fps"`
}

// Result is a successful response from the analysis service. Raw holds the body
// exactly as received; the typed fields are a read-only view of it.
type Result struct {
	Raw      json.RawMessage `json:"-"`
	Status   string          `json:"status"`
	Analysis Assessment      `json:"analysis"`
	Metrics  Metrics         `json:"metrics"`
}

// MarshalJSON forwards the service payload verbatim.
func (r *Result) MarshalJSON() ([]byte, error) {
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	type plain Result
	return json.Marshal((*plain)(r))
}

// decodeResult parses a 2xx body. A body that is not JSON, or whose status is
// not the success marker, is a service failure.
func decodeResult(code int, body []byte) (*Result, error) {
	var result Result
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, serviceFailure(code, fmt.Errorf("decode response: %w", err))
	}
	if result.Status != statusSuccess {
		return nil, serviceFailure(code, fmt.Errorf("response status %q", result.Status))
	}
	result.Raw = append(json.RawMessage(nil), body...)
	return &result, nil
}

// Score returns the overall score on the service's 1-10 scale.
func (r *Result) Score() (float64, bool) {
	if r == nil || r.Analysis.OverallScore == nil {
		return 0, false
	}
	return *r.Analysis.OverallScore, true
}

// Line is one row of the summary shown after an analysis.
type Line struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Summary binds the result to the four rows of the results card.
func (r *Result) Summary() []Line {
	if r == nil {
		return nil
	}
	var lines []Line
	if score, ok := r.Score(); ok {
		pct := int(score*10 + 0.5)
		lines = append(lines, Line{Label: "Form accuracy", Value: fmt.Sprintf("%d%% - %s", pct, verdict(pct))})
	}
	if v := r.Analysis.Technique.FormQuality; v != "" {
		lines = append(lines, Line{Label: "Posture alignment", Value: capitalize(v)})
	}
	if v := r.Analysis.Technique.RangeOfMotion; v != "" {
		lines = append(lines, Line{Label: "Range of motion", Value: capitalize(v)})
	}
	if tip := r.recommendation(); tip != "" {
		lines = append(lines, Line{Label: "Recommendations", Value: tip})
	}
	return lines
}

func (r *Result) recommendation() string {
	fb := r.Analysis.Feedback
	for _, list := range [][]string{fb.SpecificTips, fb.Improvements} {
		for _, s := range list {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

func verdict(pct int) string {
	switch {
	case pct >= 90:
		return "Excellent!"
	case pct >= 70:
		return "Good job!"
	case pct >= 50:
		return "Keep practicing"
	default:
		return "Needs work"
	}
}

func capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
