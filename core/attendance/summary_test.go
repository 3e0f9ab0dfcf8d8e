package attendance

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name           string
		total, present int
		want           Tally
		wantErr        bool
	}{
		{name: "20/18", total: 20, present: 18, want: Tally{AbsentDays: 2, Percentage: 90}},
		{name: "all present", total: 22, present: 22, want: Tally{AbsentDays: 0, Percentage: 100}},
		{name: "none present", total: 22, present: 0, want: Tally{AbsentDays: 22, Percentage: 0}},
		{name: "rounded", total: 3, present: 2, want: Tally{AbsentDays: 1, Percentage: 66.67}},
		{name: "zero days", total: 0, present: 0, wantErr: true},
		{name: "present above total", total: 20, present: 21, wantErr: true},
		{name: "negative total", total: -1, present: 0, wantErr: true},
		{name: "negative present", total: 20, present: -2, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Summarize(tt.total, tt.present)
			if tt.wantErr {
				assert.True(t, core.IsValidationError(err), err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMonth(t *testing.T) {
	tests := []struct {
		in      string
		want    Month
		wantErr bool
	}{
		{in: "January", want: Month(time.January)},
		{in: "jan", want: Month(time.January)},
		{in: " SEPT ", want: Month(time.September)},
		{in: "12", want: Month(time.December)},
		{in: "3", want: Month(time.March)},
		{in: "ju", wantErr: true},
		{in: "13", wantErr: true},
		{in: "0", wantErr: true},
		{in: "Smarch", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMonth(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMonth_JSON(t *testing.T) {
	var ns NewSummary
	require.NoError(t, json.Unmarshal([]byte(`{"month": "feb"}`), &ns))
	assert.Equal(t, Month(time.February), ns.Month)

	require.NoError(t, json.Unmarshal([]byte(`{"month": 11}`), &ns))
	assert.Equal(t, Month(time.November), ns.Month)

	assert.Error(t, json.Unmarshal([]byte(`{"month": true}`), &ns))
	assert.Error(t, json.Unmarshal([]byte(`{"month": "nope"}`), &ns))

	data, err := json.Marshal(Summary{Month: Month(time.June)})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"month":"June"`)
}
