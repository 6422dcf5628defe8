package recurrence_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/bensuskins/planner/internal/recurrence"
)

func intPtr(value int) *int {
	return &value
}

func TestConfig_Build(t *testing.T) {
	anchor := date("2026-01-13")

	tests := []struct {
		name   string
		config recurrence.Config
		want   recurrence.Pattern
		end    recurrence.Termination
	}{
		{
			name:   "zero interval defaults to one",
			config: recurrence.Config{Frequency: recurrence.FrequencyDaily},
			want:   recurrence.Daily{Interval: 1},
			end:    recurrence.Never(),
		},
		{
			name:   "weekly days are sorted and deduplicated",
			config: recurrence.Config{Frequency: recurrence.FrequencyWeekly, Interval: 2, DaysOfWeek: []int{5, 1, 5, 3}},
			want:   recurrence.Weekly{Interval: 2, Days: []time.Weekday{time.Monday, time.Wednesday, time.Friday}},
			end:    recurrence.Never(),
		},
		{
			name:   "monthly without type uses the anchor day",
			config: recurrence.Config{Frequency: recurrence.FrequencyMonthly},
			want:   recurrence.MonthlyByDay{Interval: 1, Day: 13},
			end:    recurrence.Never(),
		},
		{
			name:   "monthly position uses the anchor weekday",
			config: recurrence.Config{Frequency: recurrence.FrequencyMonthly, MonthlyType: recurrence.MonthlyOnPosition, WeekOfMonth: 2},
			want:   recurrence.MonthlyByPosition{Interval: 1, Week: 2, Weekday: time.Tuesday},
			end:    recurrence.Never(),
		},
		{
			name: "monthly position with explicit weekday",
			config: recurrence.Config{
				Frequency: recurrence.FrequencyMonthly, MonthlyType: recurrence.MonthlyOnPosition,
				WeekOfMonth: 5, Weekday: intPtr(int(time.Sunday)),
			},
			want: recurrence.MonthlyByPosition{Interval: 1, Week: 5, Weekday: time.Sunday},
			end:  recurrence.Never(),
		},
		{
			name:   "count termination",
			config: recurrence.Config{Frequency: recurrence.FrequencyYearly, EndType: recurrence.EndAfter, Occurrences: 3},
			want:   recurrence.Yearly{Interval: 1},
			end:    recurrence.AfterCount(3),
		},
		{
			name:   "date termination",
			config: recurrence.Config{Frequency: recurrence.FrequencyCustom, Interval: 10, EndType: recurrence.EndOn, EndDate: date("2026-06-30")},
			want:   recurrence.Custom{Interval: 10},
			end:    recurrence.Until(date("2026-06-30")),
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rule, err := test.config.Build(anchor)
			require.NoError(t, err)
			assert.Equal(t, test.want, rule.Pattern)
			assert.Equal(t, test.end, rule.End)
		})
	}
}

func TestConfig_BuildRejects(t *testing.T) {
	anchor := date("2026-01-13")

	tests := []struct {
		name   string
		config recurrence.Config
		field  string
	}{
		{name: "missing frequency", config: recurrence.Config{}, field: "frequency"},
		{name: "unknown frequency", config: recurrence.Config{Frequency: "hourly"}, field: "frequency"},
		{name: "negative interval", config: recurrence.Config{Frequency: recurrence.FrequencyDaily, Interval: -1}, field: "interval"},
		{name: "weekday out of range", config: recurrence.Config{Frequency: recurrence.FrequencyWeekly, DaysOfWeek: []int{7}}, field: "days_of_week"},
		{name: "day of month too large", config: recurrence.Config{Frequency: recurrence.FrequencyMonthly, DayOfMonth: 32}, field: "day_of_month"},
		{name: "unknown monthly type", config: recurrence.Config{Frequency: recurrence.FrequencyMonthly, MonthlyType: "weekly"}, field: "monthly_type"},
		{name: "week of month too large", config: recurrence.Config{Frequency: recurrence.FrequencyMonthly, MonthlyType: recurrence.MonthlyOnPosition, WeekOfMonth: 6}, field: "week_of_month"},
		{name: "week of month missing", config: recurrence.Config{Frequency: recurrence.FrequencyMonthly, MonthlyType: recurrence.MonthlyOnPosition}, field: "week_of_month"},
		{name: "end date missing", config: recurrence.Config{Frequency: recurrence.FrequencyDaily, EndType: recurrence.EndOn}, field: "end_date"},
		{name: "zero occurrences", config: recurrence.Config{Frequency: recurrence.FrequencyDaily, EndType: recurrence.EndAfter}, field: "occurrences"},
		{name: "unknown end type", config: recurrence.Config{Frequency: recurrence.FrequencyDaily, EndType: "someday"}, field: "end_type"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := test.config.Build(anchor)
			var validationErr *recurrence.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, test.field, validationErr.Field)
		})
	}
}

func TestConfigOf_RoundTrip(t *testing.T) {
	anchor := date("2026-01-27")
	configs := []recurrence.Config{
		{Frequency: recurrence.FrequencyDaily, Interval: 3, EndType: recurrence.EndNever},
		{Frequency: recurrence.FrequencyWeekly, Interval: 1, DaysOfWeek: []int{1, 3, 5}, EndType: recurrence.EndAfter, Occurrences: 10},
		{Frequency: recurrence.FrequencyMonthly, Interval: 1, MonthlyType: recurrence.MonthlyOnDay, DayOfMonth: 31, EndType: recurrence.EndNever},
		{
			Frequency: recurrence.FrequencyMonthly, Interval: 2, MonthlyType: recurrence.MonthlyOnPosition,
			WeekOfMonth: 5, Weekday: intPtr(2), EndType: recurrence.EndOn, EndDate: date("2026-12-31"),
			Exceptions: dates("2026-03-31"),
		},
	}

	for _, config := range configs {
		rule, err := config.Build(anchor)
		require.NoError(t, err)
		assert.Equal(t, config, recurrence.ConfigOf(rule))
	}
}

func TestConfig_DecodesFromJSONAndYAML(t *testing.T) {
	want := recurrence.Config{
		Frequency:  recurrence.FrequencyWeekly,
		Interval:   2,
		DaysOfWeek: []int{1, 5},
		EndType:    recurrence.EndOn,
		EndDate:    date("2026-03-01"),
		Exceptions: dates("2026-01-19"),
	}

	var fromJSON recurrence.Config
	require.NoError(t, json.Unmarshal([]byte(`{
		"frequency": "weekly",
		"interval": 2,
		"days_of_week": [1, 5],
		"end_type": "date",
		"end_date": "2026-03-01",
		"exceptions": ["2026-01-19"]
	}`), &fromJSON))
	assert.Equal(t, want, fromJSON)

	var fromYAML recurrence.Config
	require.NoError(t, yaml.Unmarshal([]byte(`
frequency: weekly
interval: 2
days_of_week: [1, 5]
end_type: date
end_date: "2026-03-01"
exceptions: ["2026-01-19"]
`), &fromYAML))
	assert.Equal(t, want, fromYAML)
}

func TestConfig_JSONOmitsEmptyEndDate(t *testing.T) {
	data, err := json.Marshal(recurrence.Config{Frequency: recurrence.FrequencyDaily, Interval: 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"frequency":"daily","interval":1}`, string(data))
}
