package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name      string
		obtained  float64
		max       float64
		wantGrade Grade
		wantErr   bool
	}{
		{name: "full marks", obtained: 100, max: 100, wantGrade: GradeAPlus},
		{name: "exactly 90", obtained: 90, max: 100, wantGrade: GradeAPlus},
		{name: "just under 90", obtained: 89.999, max: 100, wantGrade: GradeA},
		{name: "exactly 80", obtained: 80, max: 100, wantGrade: GradeA},
		{name: "exactly 70", obtained: 70, max: 100, wantGrade: GradeB},
		{name: "79.999", obtained: 79.999, max: 100, wantGrade: GradeB},
		{name: "exactly 60", obtained: 60, max: 100, wantGrade: GradeC},
		{name: "exactly 50", obtained: 50, max: 100, wantGrade: GradeD},
		{name: "45 out of 100", obtained: 45, max: 100, wantGrade: GradeF},
		{name: "zero", obtained: 0, max: 100, wantGrade: GradeF},
		{name: "non-100 max at boundary", obtained: 27, max: 30, wantGrade: GradeAPlus},
		{name: "non-100 max below boundary", obtained: 20.99, max: 30, wantGrade: GradeC},
		{name: "zero max", obtained: 10, max: 0, wantErr: true},
		{name: "negative max", obtained: 10, max: -5, wantErr: true},
		{name: "negative marks", obtained: -1, max: 100, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := Evaluate(tt.obtained, tt.max)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, core.IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantGrade, ev.Grade)
			assert.Equal(t, tt.obtained*100/tt.max, ev.Percentage)
		})
	}
}

func TestEvaluate_letterAndPassFailPoliciesDiffer(t *testing.T) {
	ev, err := Evaluate(45, 100)
	require.NoError(t, err)
	res, err := PassFail(45, 100)
	require.NoError(t, err)
	assert.Equal(t, GradeF, ev.Grade)
	assert.InDelta(t, 45.0, ev.Percentage, 1e-9)
	assert.Equal(t, Pass, res)

	ev, err = Evaluate(30, 100)
	require.NoError(t, err)
	res, err = PassFail(30, 100)
	require.NoError(t, err)
	assert.Equal(t, GradeF, ev.Grade)
	assert.Equal(t, Fail, res)
}

func TestPassFail(t *testing.T) {
	tests := []struct {
		name     string
		obtained float64
		max      float64
		want     Result
	}{
		{name: "exactly 35", obtained: 35, max: 100, want: Pass},
		{name: "34.99", obtained: 34.99, max: 100, want: Fail},
		{name: "7 out of 20", obtained: 7, max: 20, want: Pass},
		{name: "zero", obtained: 0, max: 100, want: Fail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PassFail(tt.obtained, tt.max)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := PassFail(1, 0)
	assert.True(t, core.IsValidationError(err))
}

func TestGradeFor(t *testing.T) {
	assert.Equal(t, GradeAPlus, GradeFor(90))
	assert.Equal(t, GradeA, GradeFor(89.99))
	assert.Equal(t, GradeD, GradeFor(50))
	assert.Equal(t, GradeF, GradeFor(49.99))
}

func TestGrade_Points(t *testing.T) {
	want := map[Grade]int{GradeAPlus: 10, GradeA: 9, GradeB: 8, GradeC: 7, GradeD: 6, GradeF: 0}
	for g, pts := range want {
		assert.Equal(t, pts, g.Points(), string(g))
		assert.True(t, g.IsValid())
	}
	assert.False(t, Grade("E").IsValid())
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name    string
		scores  []Score
		want    float64
		wantErr bool
	}{
		{name: "empty", want: 0},
		{name: "single A+", scores: []Score{{100, 100}}, want: 10},
		{name: "A+ and F", scores: []Score{{95, 100}, {10, 100}}, want: 5},
		{name: "rounded", scores: []Score{{95, 100}, {85, 100}, {75, 100}}, want: 9},
		{name: "thirds", scores: []Score{{95, 100}, {95, 100}, {85, 100}}, want: 9.67},
		{name: "invalid score", scores: []Score{{95, 100}, {10, 0}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Aggregate(tt.scores)
			if tt.wantErr {
				assert.True(t, core.IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
