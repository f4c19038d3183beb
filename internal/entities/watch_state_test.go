package entities

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompletionSet_Normalize(t *testing.T) {
	tests := []struct {
		name    string
		in      CompletionSet
		want    CompletionSet
		dropped int
	}{
		{name: "clean", in: CompletionSet{"a", "b"}, want: CompletionSet{"a", "b"}},
		{name: "repeats keep first position", in: CompletionSet{"b", "a", "b", "a"}, want: CompletionSet{"b", "a"}, dropped: 2},
		{name: "blank ids", in: CompletionSet{"", "a", ""}, want: CompletionSet{"a"}, dropped: 2},
		{name: "empty", in: CompletionSet{}, want: CompletionSet{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, dropped := tt.in.Normalize()
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.dropped, dropped)
		})
	}
}

func TestProgressMap_Normalize(t *testing.T) {
	m := ProgressMap{
		"ok":        {Progress: 10, Duration: 60},
		"replay":    {Progress: 90, Duration: 60},
		"negative":  {Progress: 10, Duration: -1},
		"backwards": {Progress: -5, Duration: 60},
		"nan":       {Progress: math.NaN(), Duration: 60},
		"inf":       {Progress: 1, Duration: math.Inf(1)},
		"":          {Progress: 1, Duration: 2},
	}

	got, dropped := m.Normalize()
	assert.Equal(t, 5, dropped)
	assert.Equal(t, ProgressMap{
		"ok":     {Progress: 10, Duration: 60},
		"replay": {Progress: 90, Duration: 60},
	}, got)
}

func TestProgress_Fraction(t *testing.T) {
	assert.Equal(t, 0.5, Progress{Progress: 30, Duration: 60}.Fraction())
	assert.Equal(t, 1.0, Progress{Progress: 90, Duration: 60}.Fraction())
	assert.Equal(t, 0.0, Progress{Progress: 30, Duration: 0}.Fraction())
}
