package grading

import "github.com/trezcool/campus/core"

// Score is one subject result fed to the GPA aggregator.
type Score struct {
	MarksObtained float64
	MaxMarks      float64
}

// Aggregate returns the mean grade point of scores, rounded to 2 decimals.
// Every score weighs the same and an empty input yields 0.
func Aggregate(scores []Score) (float64, error) {
	if len(scores) == 0 {
		return 0, nil
	}
	var total int
	for _, s := range scores {
		ev, err := Evaluate(s.MarksObtained, s.MaxMarks)
		if err != nil {
			return 0, err
		}
		total += ev.Grade.Points()
	}
	return core.Round(float64(total)/float64(len(scores)), 2), nil
}
