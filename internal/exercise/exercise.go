package exercise

import (
	"errors"
	"strings"
)

var ErrUnknown = errors.New("unknown exercise")

// Exercise is one of the movements the analysis service knows how to grade.
type Exercise string

const (
	PushUps          Exercise = "Push-ups"
	Squats           Exercise = "Squats"
	Burpees          Exercise = "Burpees"
	Planks           Exercise = "Planks"
	Lunges           Exercise = "Lunges"
	Deadlifts        Exercise = "Deadlifts"
	PullUps          Exercise = "Pull-ups"
	MountainClimbers Exercise = "Mountain Climbers"
)

var all = []Exercise{
	PushUps,
	Squats,
	Burpees,
	Planks,
	Lunges,
	Deadlifts,
	PullUps,
	MountainClimbers,
}

// All returns the exercises in display order. The returned slice is a copy.
func All() []Exercise {
	out := make([]Exercise, len(all))
	copy(out, all)
	return out
}

// Labels returns the display labels in order.
func Labels() []string {
	out := make([]string, len(all))
	for i, e := range all {
		out[i] = string(e)
	}
	return out
}

// Parse accepts exactly one of the enumerated labels.
func Parse(label string) (Exercise, error) {
	for _, e := range all {
		if string(e) == label {
			return e, nil
		}
	}
	return "", ErrUnknown
}

func (e Exercise) String() string { return string(e) }

// Valid reports whether e is part of the enumeration.
func (e Exercise) Valid() bool {
	_, err := Parse(string(e))
	return err == nil
}

// Lower is used in sentences such as "Your squats form has been analyzed".
func (e Exercise) Lower() string {
	return strings.ToLower(string(e))
}
